package db

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	defaultMonitorInterval = 15 * time.Second
	monitorPingTimeout     = 5 * time.Second
)

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MonitorConfig configures a Monitor.
type MonitorConfig struct {
	Logger   *slog.Logger
	Pinger   Pinger
	Clock    clockwork.Clock
	Interval time.Duration
}

func (c *MonitorConfig) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Pinger == nil {
		return errors.New("pinger is required")
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Interval <= 0 {
		c.Interval = defaultMonitorInterval
	}
	return nil
}

// Monitor periodically pings the database and records reachability for the
// readiness endpoint.
type Monitor struct {
	cfg MonitorConfig

	mu      sync.RWMutex
	checked bool
	healthy bool
	lastErr error
}

// NewMonitor creates a Monitor. It reports unhealthy until the first check
// completes; Run checks immediately on start.
func NewMonitor(cfg MonitorConfig) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Monitor{cfg: cfg}, nil
}

// Run pings on start and then on every interval tick until the context is
// cancelled.
func (m *Monitor) Run(ctx context.Context) {
	m.check(ctx)

	ticker := m.cfg.Clock.NewTicker(m.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			m.check(ctx)
		}
	}
}

// Healthy reports the result of the most recent check.
func (m *Monitor) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthy
}

// Err returns the most recent check failure, nil when healthy.
func (m *Monitor) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

func (m *Monitor) check(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, monitorPingTimeout)
	defer cancel()

	err := m.cfg.Pinger.Ping(pingCtx)

	m.mu.Lock()
	recovered := m.checked && !m.healthy && err == nil
	m.checked = true
	m.healthy = err == nil
	m.lastErr = err
	m.mu.Unlock()

	if err != nil {
		m.cfg.Logger.Warn("db: health check failed", "error", err)
		return
	}
	if recovered {
		m.cfg.Logger.Info("db: health check recovered")
	}
}
