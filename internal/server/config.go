package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	sqltools "github.com/sqlbridge/mysql-mcp/internal/tools/sql"
)

const (
	defaultReadHeaderTimeout = 5 * time.Second
	defaultShutdownTimeout   = 5 * time.Second
	defaultHealthInterval    = 15 * time.Second
)

// Database is the store surface the tools use plus reachability for the
// readiness probe. *db.Client satisfies it.
type Database interface {
	sqltools.Store
	Ping(ctx context.Context) error
}

type Config struct {
	Logger *slog.Logger

	DB    Database
	Clock clockwork.Clock

	Version           string
	ListenAddr        string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	HealthInterval    time.Duration
	AllowedTokens     []string // Bearer tokens allowed for MCP endpoint authentication
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.DB == nil {
		return fmt.Errorf("database is required")
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = defaultReadHeaderTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.HealthInterval == 0 {
		c.HealthInterval = defaultHealthInterval
	}
	return nil
}
