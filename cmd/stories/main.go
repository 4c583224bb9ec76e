package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/stories/internal/config"
	"github.com/pders01/stories/internal/debuglog"
	"github.com/pders01/stories/internal/index"
	"github.com/pders01/stories/internal/opener"
	"github.com/pders01/stories/internal/seed"
	"github.com/pders01/stories/internal/server"
	"github.com/pders01/stories/internal/stories"
	"github.com/pders01/stories/internal/tui"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	configPath string
	apiURL     string
	pageSize   int
	logLevel   string
	quiet      bool

	serveAddr string
	serveSeed string

	searchLimit int
)

var rootCmd = &cobra.Command{
	Use:           "stories",
	Short:         "Browse a paginated, searchable list of stories",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runBrowser(cfg)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stories %s\n", Version)
		fmt.Println("Story browser")
		fmt.Println("github.com/pders01/stories")
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the default configuration to ~/.config/stories/config.toml",
	Run: func(cmd *cobra.Command, args []string) {
		home, _ := os.UserHomeDir()
		configFile := filepath.Join(home, ".config", "stories", "config.toml")

		if err := config.GenerateDefaultConfig(configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Generated default configuration at: %s\n", configFile)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a story catalogue over HTTP for local development",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		if serveSeed != "" {
			cfg.Server.SeedPath = serveSeed
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := debuglog.New(os.Stderr, debuglog.ParseLogLevel(serveLogLevel(cfg)))
		return runServer(ctx, cfg, logger)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Print stories matching a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := stories.NewClient(cfg, debuglog.Nop())
		if err != nil {
			return err
		}

		items, err := client.Search(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if searchLimit > 0 && len(items) > searchLimit {
			items = items[:searchLimit]
		}
		return printStories(cmd.OutOrStdout(), items)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "Base URL of the story API (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error, off")
	rootCmd.Flags().IntVar(&pageSize, "page-size", 0, "Stories per page (overrides config)")
	rootCmd.Flags().BoolVar(&quiet, "quiet", false, "Skip startup banner")

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveSeed, "seed", "", "TOML seed file, feed file or feed URL")

	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "Maximum number of results")

	configCmd.AddCommand(configGenCmd)
	rootCmd.AddCommand(versionCmd, configCmd, serveCmd, searchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config) {
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	if pageSize > 0 {
		cfg.List.PageSize = pageSize
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
}

func runBrowser(cfg *config.Config) error {
	logger, closer, err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.Path)
	if err != nil {
		return err
	}
	defer closer.Close()

	client, err := stories.NewClient(cfg, logger)
	if err != nil {
		return err
	}

	tui.ApplyTheme(cfg.UI.Colors)
	if !quiet {
		tui.ShowBanner(Version)
	}

	logger.Infof("starting stories %s against %s", Version, client.BaseURL())
	app := tui.NewApp(client, cfg, logger, opener.NewLauncher(cfg))
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func runServer(ctx context.Context, cfg *config.Config, logger debuglog.Logger) error {
	items, err := seed.NewLoader().Load(ctx, cfg.Server.SeedPath)
	if err != nil {
		return err
	}

	idx, err := index.New(items)
	if err != nil {
		return err
	}
	defer idx.Close()

	logger.Infof("serving %d stories", idx.Len())
	return server.New(cfg, idx, logger).ListenAndServe(ctx)
}

// serveLogLevel keeps the server talkative unless a level was asked for;
// the browser default of "off" only exists to protect the TUI.
func serveLogLevel(cfg *config.Config) string {
	if logLevel == "" && strings.EqualFold(cfg.Log.Level, "off") {
		return "info"
	}
	return cfg.Log.Level
}

func printStories(w io.Writer, items []stories.Story) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, s := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, strings.TrimSpace(s.Title), strings.TrimSpace(s.URL))
	}
	return tw.Flush()
}
