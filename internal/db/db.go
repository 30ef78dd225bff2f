// Package db wraps the MySQL connection handle behind the adapter's three
// operation surfaces and classifies driver failures into the adapter's error
// taxonomy. The process owns exactly one Client; broken sessions are
// re-established by database/sql on the next call.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const (
	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
	connMaxIdleTime = 1 * time.Minute
)

// Client is the process-wide database handle.
type Client struct {
	db  *sql.DB
	log *slog.Logger
}

// New opens the database handle, applies the pool limits, and verifies
// connectivity with a SELECT 1 round trip. The caller's context bounds the
// connectivity check.
func New(ctx context.Context, log *slog.Logger, dsn string) (*Client, error) {
	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database handle: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	var result int
	if err := sqlDB.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		sqlDB.Close()
		return nil, classifyTransport(err)
	}
	if result != 1 {
		sqlDB.Close()
		return nil, fmt.Errorf("unexpected result from connection test: got %d, expected 1", result)
	}

	log.Debug("db: connection established")

	return &Client{db: sqlDB, log: log}, nil
}

// Ping reports whether the database is currently reachable.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return classifyTransport(err)
	}
	return nil
}

// Close releases the handle and all pooled sessions.
func (c *Client) Close() error {
	return c.db.Close()
}
