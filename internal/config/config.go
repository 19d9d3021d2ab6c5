// Package config handles configuration loading for rsviz.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Sources SourcesConfig `mapstructure:"sources" yaml:"sources"`
	Chart   ChartConfig   `mapstructure:"chart"   yaml:"chart"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// SourcesConfig holds data-source endpoint settings. Base URLs are
// overridable so tests can point the adapters at local servers.
type SourcesConfig struct {
	FiatBaseURL       string `mapstructure:"fiat_base_url"       yaml:"fiat_base_url"`
	CryptoBaseURL     string `mapstructure:"crypto_base_url"     yaml:"crypto_base_url"`
	CryptoQuoteSuffix string `mapstructure:"crypto_quote_suffix" yaml:"crypto_quote_suffix"`
	RequestTimeoutSec int    `mapstructure:"request_timeout_sec" yaml:"request_timeout_sec"`
}

// ChartConfig holds the renderer defaults that used to live as implicit
// module globals in the charting layer. The server hands this to the UI
// verbatim; nothing in the pipeline reads it.
type ChartConfig struct {
	Palette    []string `mapstructure:"palette"     yaml:"palette"`
	LineWidth  float64  `mapstructure:"line_width"  yaml:"line_width"`
	ShowLegend bool     `mapstructure:"show_legend" yaml:"show_legend"`
	Theme      string   `mapstructure:"theme"       yaml:"theme"`
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.rsviz/config.yaml (home directory)
//  3. /etc/rsviz/config.yaml (system)
//
// Environment variables override config file values.
// Format: RSVIZ_<SECTION>_<KEY>, e.g., RSVIZ_API_PORT
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".rsviz"))
	v.AddConfigPath("/etc/rsviz")

	v.SetEnvPrefix("RSVIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("RSVIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.host", "127.0.0.1")
	v.SetDefault("api.port", 8787)
	v.SetDefault("api.cors_origins", []string{"*"})

	// Source defaults
	v.SetDefault("sources.fiat_base_url", "https://api.frankfurter.app")
	v.SetDefault("sources.crypto_base_url", "https://api.binance.com")
	v.SetDefault("sources.crypto_quote_suffix", "USDT")
	v.SetDefault("sources.request_timeout_sec", 30)

	// Chart defaults (served to the renderer, see ChartConfig)
	v.SetDefault("chart.palette", []string{
		"#4e79a7", "#f28e2b", "#e15759", "#76b7b2",
		"#59a14f", "#edc948", "#b07aa1", "#ff9da7",
	})
	v.SetDefault("chart.line_width", 1.5)
	v.SetDefault("chart.show_legend", true)
	v.SetDefault("chart.theme", "light")
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
