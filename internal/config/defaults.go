package config

import (
	"os"
	"time"
)

// Default values for optional configuration fields. Endpoint URLs left
// empty fall through to the baked-in provider defaults, so they have no
// entries here.
const (
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultMaxRetries   = 3
	DefaultRetryBackoff = 1 * time.Second
	DefaultWRDSHost     = "wrds-pgdata.wharton.upenn.edu"
	DefaultWRDSPort     = 9737
	DefaultWRDSDatabase = "wrds"
	DefaultWRDSSSLMode  = "require"
	DefaultWRDSMaxConns = 4
	DefaultWRDSMinConns = 1
)

func (c *Config) applyDefaults() {
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = DefaultHTTPTimeout
	}
	if c.HTTP.MaxRetries == 0 {
		c.HTTP.MaxRetries = DefaultMaxRetries
	}
	if c.HTTP.RetryBackoff == 0 {
		c.HTTP.RetryBackoff = DefaultRetryBackoff
	}

	if c.WRDS.Host == "" {
		c.WRDS.Host = DefaultWRDSHost
	}
	if c.WRDS.Port == 0 {
		c.WRDS.Port = DefaultWRDSPort
	}
	if c.WRDS.Database == "" {
		c.WRDS.Database = DefaultWRDSDatabase
	}
	if c.WRDS.SSLMode == "" {
		c.WRDS.SSLMode = DefaultWRDSSSLMode
	}
	if c.WRDS.MaxConns == 0 {
		c.WRDS.MaxConns = DefaultWRDSMaxConns
	}
	if c.WRDS.MinConns == 0 {
		c.WRDS.MinConns = DefaultWRDSMinConns
	}
	// WRDS credentials fall back to the conventional environment variables.
	if c.WRDS.User == "" {
		c.WRDS.User = os.Getenv("WRDS_USER")
	}
	if c.WRDS.Password == "" {
		c.WRDS.Password = os.Getenv("WRDS_PASSWORD")
	}
}
