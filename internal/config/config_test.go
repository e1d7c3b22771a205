package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
http:
  timeout: 10s
  max_retries: 5
endpoints:
  fred_base_url: https://fred.example.com
wrds:
  host: localhost
  port: 5432
  user: testuser
  password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTP.Timeout != 10*time.Second {
		t.Errorf("HTTP.Timeout = %v, want 10s", cfg.HTTP.Timeout)
	}
	if cfg.HTTP.MaxRetries != 5 {
		t.Errorf("HTTP.MaxRetries = %d, want 5", cfg.HTTP.MaxRetries)
	}
	if cfg.Endpoints.FREDBaseURL != "https://fred.example.com" {
		t.Errorf("Endpoints.FREDBaseURL = %q", cfg.Endpoints.FREDBaseURL)
	}
	if cfg.WRDS.Host != "localhost" {
		t.Errorf("WRDS.Host = %q, want localhost", cfg.WRDS.Host)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_WRDS_PASSWORD", "secret123")

	yaml := `
wrds:
  user: testuser
  password: ${TEST_WRDS_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.WRDS.Password != "secret123" {
		t.Errorf("WRDS.Password = %q, want secret123", cfg.WRDS.Password)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeTempFile(t, "endpoints:\n  yahoo_base_url: https://example.com\n")

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.HTTP.Timeout != DefaultHTTPTimeout {
		t.Errorf("HTTP.Timeout = %v, want default %v", cfg.HTTP.Timeout, DefaultHTTPTimeout)
	}
	if cfg.HTTP.MaxRetries != DefaultMaxRetries {
		t.Errorf("HTTP.MaxRetries = %d, want default %d", cfg.HTTP.MaxRetries, DefaultMaxRetries)
	}
	if cfg.WRDS.Host != DefaultWRDSHost {
		t.Errorf("WRDS.Host = %q, want default %q", cfg.WRDS.Host, DefaultWRDSHost)
	}
	if cfg.WRDS.Port != DefaultWRDSPort {
		t.Errorf("WRDS.Port = %d, want default %d", cfg.WRDS.Port, DefaultWRDSPort)
	}
	if cfg.WRDS.SSLMode != DefaultWRDSSSLMode {
		t.Errorf("WRDS.SSLMode = %q, want default %q", cfg.WRDS.SSLMode, DefaultWRDSSSLMode)
	}
	// Endpoint URLs stay empty unless set; providers substitute their own.
	if cfg.Endpoints.FREDBaseURL != "" {
		t.Errorf("Endpoints.FREDBaseURL = %q, want empty", cfg.Endpoints.FREDBaseURL)
	}
}

func TestWRDSCredentialsFromEnv(t *testing.T) {
	t.Setenv("WRDS_USER", "envuser")
	t.Setenv("WRDS_PASSWORD", "envpass")

	cfg := Defaults()
	if cfg.WRDS.User != "envuser" || cfg.WRDS.Password != "envpass" {
		t.Errorf("WRDS credentials = %q/%q, want envuser/envpass", cfg.WRDS.User, cfg.WRDS.Password)
	}
	if !cfg.WRDS.HasCredentials() {
		t.Error("HasCredentials() = false, want true")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.HTTP.MaxRetries = -1 },
			wantErr: "http.max_retries must be >= 0, got -1",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.WRDS.Port = 70000 },
			wantErr: "wrds.port must be between 1 and 65535, got 70000",
		},
		{
			name:    "min_conns exceeds max_conns",
			mutate:  func(c *Config) { c.WRDS.MinConns = 10; c.WRDS.MaxConns = 5 },
			wantErr: "wrds.min_conns (10) cannot exceed max_conns (5)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
