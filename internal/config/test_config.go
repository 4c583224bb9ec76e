package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	cfg := defaultConfig()
	cfg.API = APIConfig{
		BaseURL:      "http://127.0.0.1:0",
		Timeout:      2 * time.Second,
		UserAgent:    "stories-test/1.0",
		AllowPrivate: true,
	}
	cfg.List = ListConfig{
		PageSize:  5,
		PageSizes: []int{5, 10, 25},
	}
	cfg.Log = LogConfig{Level: "off"}
	return cfg
}
