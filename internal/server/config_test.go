package server

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqlbridge/mysql-mcp/internal/db"
)

type mockDatabase struct {
	listTables    func(ctx context.Context) ([]db.TableInfo, error)
	describeTable func(ctx context.Context, table string) (*db.TableSchema, error)
	query         func(ctx context.Context, stmt string) (*db.QueryResult, error)
	exec          func(ctx context.Context, stmt string) (int64, error)
	ping          func(ctx context.Context) error
}

func (m *mockDatabase) ListTables(ctx context.Context) ([]db.TableInfo, error) {
	return m.listTables(ctx)
}

func (m *mockDatabase) DescribeTable(ctx context.Context, table string) (*db.TableSchema, error) {
	return m.describeTable(ctx, table)
}

func (m *mockDatabase) Query(ctx context.Context, stmt string) (*db.QueryResult, error) {
	return m.query(ctx, stmt)
}

func (m *mockDatabase) Exec(ctx context.Context, stmt string) (int64, error) {
	return m.exec(ctx, stmt)
}

func (m *mockDatabase) Ping(ctx context.Context) error {
	if m.ping == nil {
		return nil
	}
	return m.ping(ctx)
}

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func validConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Logger:     testLogger(t),
		DB:         &mockDatabase{},
		Version:    "test",
		ListenAddr: "127.0.0.1:0",
	}
}

func TestMCP_Server_Config_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			modify: func(*Config) {},
		},
		{
			name:    "missing logger",
			modify:  func(c *Config) { c.Logger = nil },
			wantErr: "logger is required",
		},
		{
			name:    "missing database",
			modify:  func(c *Config) { c.DB = nil },
			wantErr: "database is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig(t)
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg.Clock)
			require.Equal(t, defaultReadHeaderTimeout, cfg.ReadHeaderTimeout)
			require.Equal(t, defaultShutdownTimeout, cfg.ShutdownTimeout)
			require.Equal(t, defaultHealthInterval, cfg.HealthInterval)
		})
	}
}
