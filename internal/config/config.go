package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	API    APIConfig    `mapstructure:"api"`
	List   ListConfig   `mapstructure:"list"`
	Log    LogConfig    `mapstructure:"log"`
	Server ServerConfig `mapstructure:"server"`
	UI     UIConfig     `mapstructure:"ui"`
	Keys   KeyConfig    `mapstructure:"keys"`
}

type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`

	// AllowPrivate permits loopback and private-network API hosts.
	AllowPrivate bool `mapstructure:"allow_private"`
}

type ListConfig struct {
	PageSize  int   `mapstructure:"page_size"`
	PageSizes []int `mapstructure:"page_sizes"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	SeedPath        string        `mapstructure:"seed_path"`
	DefaultPageSize int           `mapstructure:"default_page_size"`
	MaxPageSize     int           `mapstructure:"max_page_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type UIConfig struct {
	Colors UIColors `mapstructure:"colors"`
	Opener string   `mapstructure:"opener"`
}

type UIColors struct {
	Primary   string `mapstructure:"primary"`
	Secondary string `mapstructure:"secondary"`
	Accent    string `mapstructure:"accent"`
	Text      string `mapstructure:"text"`
	Muted     string `mapstructure:"muted"`
	Error     string `mapstructure:"error"`
	Success   string `mapstructure:"success"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit     string `mapstructure:"quit"`
	Search   string `mapstructure:"search"`
	Reload   string `mapstructure:"reload"`
	NextPage string `mapstructure:"next_page"`
	PrevPage string `mapstructure:"prev_page"`
	Grow     string `mapstructure:"grow"`
	Shrink   string `mapstructure:"shrink"`
	Open     string `mapstructure:"open"`
	Back     string `mapstructure:"back"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		API: APIConfig{
			BaseURL:   "http://127.0.0.1:8080",
			Timeout:   15 * time.Second,
			UserAgent:    "stories/1.0 (https://github.com/pders01/stories)",
			AllowPrivate: true,
		},
		List: ListConfig{
			PageSize:  10,
			PageSizes: []int{5, 10, 25, 50},
		},
		Log: LogConfig{
			Level: "off",
			Path:  filepath.Join(homeDir, ".stories", "stories.log"),
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			DefaultPageSize: 10,
			MaxPageSize:     100,
			ShutdownTimeout: 5 * time.Second,
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:   "#FF6B6B",
				Secondary: "#4ECDC4",
				Accent:    "#95E1D3",
				Text:      "#EAEAEA",
				Muted:     "#94A3B8",
				Error:     "#F87171",
				Success:   "#4ADE80",
			},
			Opener: getDefaultOpener(),
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:     "q",
				Search:   "/",
				Reload:   "r",
				NextPage: "right",
				PrevPage: "left",
				Grow:     "+",
				Shrink:   "-",
				Open:     "o",
				Back:     "esc",
			},
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

// setDefaults registers every leaf key so that STORIES_* environment
// variables can override nested values.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("api.user_agent", cfg.API.UserAgent)
	v.SetDefault("api.allow_private", cfg.API.AllowPrivate)

	v.SetDefault("list.page_size", cfg.List.PageSize)
	v.SetDefault("list.page_sizes", cfg.List.PageSizes)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.path", cfg.Log.Path)

	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.seed_path", cfg.Server.SeedPath)
	v.SetDefault("server.default_page_size", cfg.Server.DefaultPageSize)
	v.SetDefault("server.max_page_size", cfg.Server.MaxPageSize)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)

	v.SetDefault("ui.colors.primary", cfg.UI.Colors.Primary)
	v.SetDefault("ui.colors.secondary", cfg.UI.Colors.Secondary)
	v.SetDefault("ui.colors.accent", cfg.UI.Colors.Accent)
	v.SetDefault("ui.colors.text", cfg.UI.Colors.Text)
	v.SetDefault("ui.colors.muted", cfg.UI.Colors.Muted)
	v.SetDefault("ui.colors.error", cfg.UI.Colors.Error)
	v.SetDefault("ui.colors.success", cfg.UI.Colors.Success)
	v.SetDefault("ui.opener", cfg.UI.Opener)

	b := cfg.Keys.Bindings
	v.SetDefault("keys.modifier", cfg.Keys.Modifier)
	v.SetDefault("keys.bindings.quit", b.Quit)
	v.SetDefault("keys.bindings.search", b.Search)
	v.SetDefault("keys.bindings.reload", b.Reload)
	v.SetDefault("keys.bindings.next_page", b.NextPage)
	v.SetDefault("keys.bindings.prev_page", b.PrevPage)
	v.SetDefault("keys.bindings.grow", b.Grow)
	v.SetDefault("keys.bindings.shrink", b.Shrink)
	v.SetDefault("keys.bindings.open", b.Open)
	v.SetDefault("keys.bindings.back", b.Back)
}

func Load(configPath string) (*Config, error) {
	// A .env next to the binary is optional
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "stories")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("STORIES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the values the rest of the program relies on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	if c.List.PageSize <= 0 {
		return fmt.Errorf("list.page_size must be positive, got %d", c.List.PageSize)
	}
	for _, size := range c.List.PageSizes {
		if size <= 0 {
			return fmt.Errorf("list.page_sizes must be positive, got %d", size)
		}
	}
	if c.Server.MaxPageSize > 0 && c.Server.DefaultPageSize > c.Server.MaxPageSize {
		return fmt.Errorf("server.default_page_size %d exceeds server.max_page_size %d",
			c.Server.DefaultPageSize, c.Server.MaxPageSize)
	}
	return nil
}

// expandPath expands ~ to home directory and converts to absolute path.
// URLs are left alone.
func expandPath(path string) string {
	if path == "" || strings.Contains(path, "://") {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

// expandPaths expands all paths in the config
func expandPaths(cfg *Config) {
	cfg.Log.Path = expandPath(cfg.Log.Path)
	cfg.Server.SeedPath = expandPath(cfg.Server.SeedPath)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations as strings for TOML readability
	apiCfg := map[string]interface{}{
		"base_url":      config.API.BaseURL,
		"timeout":       config.API.Timeout.String(),
		"user_agent":    config.API.UserAgent,
		"allow_private": config.API.AllowPrivate,
	}

	serverCfg := map[string]interface{}{
		"addr":              config.Server.Addr,
		"seed_path":         config.Server.SeedPath,
		"default_page_size": config.Server.DefaultPageSize,
		"max_page_size":     config.Server.MaxPageSize,
		"shutdown_timeout":  config.Server.ShutdownTimeout.String(),
	}

	v.Set("api", apiCfg)
	v.Set("list", map[string]interface{}{
		"page_size":  config.List.PageSize,
		"page_sizes": config.List.PageSizes,
	})
	v.Set("log", map[string]interface{}{
		"level": config.Log.Level,
		"path":  config.Log.Path,
	})
	v.Set("server", serverCfg)
	v.Set("ui", map[string]interface{}{
		"opener": config.UI.Opener,
		"colors": map[string]interface{}{
			"primary":   config.UI.Colors.Primary,
			"secondary": config.UI.Colors.Secondary,
			"accent":    config.UI.Colors.Accent,
			"text":      config.UI.Colors.Text,
			"muted":     config.UI.Colors.Muted,
			"error":     config.UI.Colors.Error,
			"success":   config.UI.Colors.Success,
		},
	})
	b := config.Keys.Bindings
	v.Set("keys", map[string]interface{}{
		"modifier": config.Keys.Modifier,
		"bindings": map[string]interface{}{
			"quit":      b.Quit,
			"search":    b.Search,
			"reload":    b.Reload,
			"next_page": b.NextPage,
			"prev_page": b.PrevPage,
			"grow":      b.Grow,
			"shrink":    b.Shrink,
			"open":      b.Open,
			"back":      b.Back,
		},
	})

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
