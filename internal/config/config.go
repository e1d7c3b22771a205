// Package config defines the findata configuration: HTTP client tuning,
// per-provider endpoint overrides, and WRDS database credentials. All
// fields are optional; zero values fall back to the production defaults.
package config

import "time"

// Config is the top-level configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Endpoints EndpointsConfig `yaml:"endpoints"`
	WRDS      WRDSConfig      `yaml:"wrds"`
}

// HTTPConfig tunes the shared fetch client.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// EndpointsConfig overrides upstream provider endpoints. Mostly useful for
// tests and mirrors; production values are baked-in defaults.
type EndpointsConfig struct {
	FamaFrenchBaseURL    string `yaml:"fama_french_base_url"`
	FamaFrenchLibraryURL string `yaml:"fama_french_library_url"`
	QFactorsBaseURL      string `yaml:"q_factors_base_url"`
	MacroBaseURL         string `yaml:"macro_base_url"`
	MacroSheetID         string `yaml:"macro_sheet_id"`
	OSAPBaseURL          string `yaml:"osap_base_url"`
	OSAPSheetID          string `yaml:"osap_sheet_id"`
	FREDBaseURL          string `yaml:"fred_base_url"`
	YahooBaseURL         string `yaml:"yahoo_base_url"`
	// ConstituentsURL replaces every per-index holdings URL; test use only.
	ConstituentsURL string `yaml:"constituents_url"`
}

// WRDSConfig holds the Wharton Research Data Services connection settings.
// User and password have no defaults; they come from the config file or the
// WRDS_USER / WRDS_PASSWORD environment variables.
type WRDSConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// HasCredentials reports whether WRDS credentials are configured.
func (w WRDSConfig) HasCredentials() bool {
	return w.User != "" && w.Password != ""
}
