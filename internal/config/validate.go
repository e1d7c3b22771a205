package config

import "fmt"

// Validate checks that configured values are internally consistent. WRDS
// credentials are not required here; only the wrds_* domains need them and
// their absence is reported at query time.
func (c *Config) Validate() error {
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("http.timeout must be >= 0, got %v", c.HTTP.Timeout)
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0, got %d", c.HTTP.MaxRetries)
	}

	if c.WRDS.Port < 1 || c.WRDS.Port > 65535 {
		return fmt.Errorf("wrds.port must be between 1 and 65535, got %d", c.WRDS.Port)
	}
	if c.WRDS.MaxConns < 1 {
		return fmt.Errorf("wrds.max_conns must be >= 1, got %d", c.WRDS.MaxConns)
	}
	if c.WRDS.MinConns < 0 {
		return fmt.Errorf("wrds.min_conns must be >= 0, got %d", c.WRDS.MinConns)
	}
	if c.WRDS.MinConns > c.WRDS.MaxConns {
		return fmt.Errorf("wrds.min_conns (%d) cannot exceed max_conns (%d)", c.WRDS.MinConns, c.WRDS.MaxConns)
	}

	return nil
}
