package wrds

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tidyfin/findata/internal/config"
)

// Client wraps a pgx connection pool against the WRDS Postgres endpoint.
type Client struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// ConnString builds a Postgres connection string from WRDS settings.
func ConnString(cfg config.WRDSConfig) string {
	// URL-encode password to handle special characters
	escapedPassword := url.QueryEscape(cfg.Password)

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		escapedPassword,
		cfg.Host,
		cfg.Port,
		cfg.Database,
		sslMode,
	)
}

// Connect creates a connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg config.WRDSConfig, logger *slog.Logger) (*Client, error) {
	if !cfg.HasCredentials() {
		return nil, fmt.Errorf("wrds credentials not configured (set wrds.user/wrds.password or WRDS_USER/WRDS_PASSWORD)")
	}
	if logger == nil {
		logger = slog.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(ConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping wrds: %w", err)
	}

	logger.Info("connected to wrds", "host", cfg.Host, "database", cfg.Database)
	return &Client{pool: pool, logger: logger}, nil
}

// Close releases the connection pool.
func (c *Client) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}
