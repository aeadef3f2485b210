package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Universe struct {
		BrapiURL    string `yaml:"brapi_url"`
		Token       string `yaml:"token"`
		Limit       int    `yaml:"limit"`
		FallbackCSV string `yaml:"fallback_csv"`
	} `yaml:"universe"`
	DataSource struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"data_source"`
	Screen struct {
		DefaultWeeks     int     `yaml:"default_weeks"`
		MinWeeks         int     `yaml:"min_weeks"`
		MaxWeeks         int     `yaml:"max_weeks"`
		DefaultMinReturn float64 `yaml:"default_min_return_pct"`
		LookbackDays     int     `yaml:"lookback_days"`
		MaxConcurrent    int     `yaml:"max_concurrent_fetches"`
	} `yaml:"screen"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("BRAPI_URL"); v != "" {
		cfg.Universe.BrapiURL = v
	}
	if v := os.Getenv("BRAPI_TOKEN"); v != "" {
		cfg.Universe.Token = v
	}
	if v := os.Getenv("FALLBACK_CSV"); v != "" {
		cfg.Universe.FallbackCSV = v
	}
	if v := os.Getenv("DATASOURCE_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATASOURCE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("REFRESH_CRON"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("MIN_RETURN_PCT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Screen.DefaultMinReturn = f
		}
	}
	if v := os.Getenv("LOOKBACK_WEEKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Screen.DefaultWeeks = n
		}
	}

	// Defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Universe.BrapiURL == "" {
		cfg.Universe.BrapiURL = "https://brapi.dev"
	}
	if cfg.Universe.Limit == 0 {
		cfg.Universe.Limit = 10000
	}
	if cfg.Universe.FallbackCSV == "" {
		cfg.Universe.FallbackCSV = "tickers_fallback.csv"
	}
	if cfg.Screen.DefaultWeeks == 0 {
		cfg.Screen.DefaultWeeks = 12
	}
	if cfg.Screen.MinWeeks == 0 {
		cfg.Screen.MinWeeks = 4
	}
	if cfg.Screen.MaxWeeks == 0 {
		cfg.Screen.MaxWeeks = 52
	}
	if cfg.Screen.DefaultMinReturn == 0 {
		cfg.Screen.DefaultMinReturn = 30.0
	}
	if cfg.Screen.LookbackDays == 0 {
		cfg.Screen.LookbackDays = 180
	}
	if cfg.Screen.MaxConcurrent == 0 {
		cfg.Screen.MaxConcurrent = 8
	}
	if cfg.Schedule.RefreshCron == "" {
		cfg.Schedule.RefreshCron = "0 */30 * * * *"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/b3monitor.db"
	}

	return cfg, nil
}

// Validate checks that all required fields are consistent.
func (c *Config) Validate() error {
	if c.Screen.MinWeeks <= 0 || c.Screen.MaxWeeks < c.Screen.MinWeeks {
		return fmt.Errorf("screen.min_weeks/max_weeks out of order: %d > %d", c.Screen.MinWeeks, c.Screen.MaxWeeks)
	}
	if c.Screen.DefaultWeeks < c.Screen.MinWeeks || c.Screen.DefaultWeeks > c.Screen.MaxWeeks {
		return fmt.Errorf("screen.default_weeks %d outside [%d, %d]", c.Screen.DefaultWeeks, c.Screen.MinWeeks, c.Screen.MaxWeeks)
	}
	if c.Screen.LookbackDays < c.Screen.DefaultWeeks*7 {
		return fmt.Errorf("screen.lookback_days %d too small for default_weeks %d", c.Screen.LookbackDays, c.Screen.DefaultWeeks)
	}
	if c.Screen.DefaultMinReturn < 0 {
		return fmt.Errorf("screen.default_min_return_pct must not be negative")
	}
	if c.Universe.Limit <= 0 {
		return fmt.Errorf("universe.limit must be positive")
	}
	return nil
}
