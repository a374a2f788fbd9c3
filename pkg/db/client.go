package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Client owns the Postgres pool shared by every repository.
type Client struct {
	conn *gorm.DB
}

// New opens the pool and pings it so a bad DSN fails at boot.
func New(ctx context.Context, cfg config.DBConfig, logg *logger.Logger) (*Client, error) {
	if cfg.DSN == "" {
		return nil, errors.New("database DSN is required")
	}

	// Simple protocol keeps us compatible with transaction-mode poolers.
	conn, err := gorm.Open(
		postgres.New(postgres.Config{DSN: cfg.DSN, PreferSimpleProtocol: true}),
		&gorm.Config{Logger: newQueryLogger(logg, cfg.SlowQueryThreshold), SkipDefaultTransaction: true},
	)
	if err != nil {
		return nil, fmt.Errorf("opening db connection: %w", err)
	}
	c := &Client{conn: conn}

	pool, err := c.pool()
	if err != nil {
		return nil, err
	}
	tunePool(pool, cfg)
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "max_open_conns", cfg.MaxOpenConns), "database connection established")
	}
	return c, nil
}

// tunePool applies only the limits that are set; zero keeps database/sql's default.
func tunePool(pool *sql.DB, cfg config.DBConfig) {
	if n := cfg.MaxOpenConns; n > 0 {
		pool.SetMaxOpenConns(n)
	}
	if n := cfg.MaxIdleConns; n > 0 {
		pool.SetMaxIdleConns(n)
	}
	if d := cfg.ConnMaxLifetime; d > 0 {
		pool.SetConnMaxLifetime(d)
	}
	if d := cfg.ConnMaxIdleTime; d > 0 {
		pool.SetConnMaxIdleTime(d)
	}
}

func (c *Client) DB() *gorm.DB {
	return c.conn
}

// SQL exposes the raw pool for tools that speak database/sql, like goose.
func (c *Client) SQL() (*sql.DB, error) {
	return c.pool()
}

func (c *Client) Ping(ctx context.Context) error {
	pool, err := c.pool()
	if err != nil {
		return err
	}
	return pool.PingContext(ctx)
}

func (c *Client) Close() error {
	pool, err := c.pool()
	if err != nil {
		return err
	}
	return pool.Close()
}

func (c *Client) pool() (*sql.DB, error) {
	if c == nil || c.conn == nil {
		return nil, errors.New("database client not initialized")
	}
	pool, err := c.conn.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db handle: %w", err)
	}
	return pool, nil
}
