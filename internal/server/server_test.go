package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/sqlbridge/mysql-mcp/internal/db"
	sqltools "github.com/sqlbridge/mysql-mcp/internal/tools/sql"
)

func TestMCP_Server_New(t *testing.T) {
	t.Parallel()

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()

		srv, err := New(validConfig(t))
		require.NoError(t, err)
		require.NotNil(t, srv.mcp)
		require.NotNil(t, srv.http)
		require.NotNil(t, srv.monitor)
	})

	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig(t)
		cfg.Logger = nil
		_, err := New(cfg)
		require.ErrorContains(t, err, "logger is required")
	})
}

func TestMCP_Server_Healthz(t *testing.T) {
	t.Parallel()

	srv, err := New(validConfig(t))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.http.Handler)
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "ok\n", string(body))
}

func TestMCP_Server_ReadyzHandler(t *testing.T) {
	t.Parallel()

	t.Run("not ready before the first health check", func(t *testing.T) {
		t.Parallel()

		srv, err := New(validConfig(t))
		require.NoError(t, err)

		rr := httptest.NewRecorder()
		srv.readyzHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
		require.Equal(t, "database not reachable\n", rr.Body.String())
	})

	t.Run("ready once the database ping succeeds", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig(t)
		cfg.Clock = clockwork.NewFakeClock()
		srv, err := New(cfg)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go srv.monitor.Run(ctx)

		require.Eventually(t, func() bool {
			rr := httptest.NewRecorder()
			srv.readyzHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			return rr.Code == http.StatusOK
		}, time.Second, 10*time.Millisecond)
	})
}

func TestMCP_Server_AuthMiddleware(t *testing.T) {
	t.Parallel()

	cfg := validConfig(t)
	cfg.AllowedTokens = []string{"sekrit"}
	srv, err := New(cfg)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.http.Handler)
	t.Cleanup(ts.Close)

	get := func(t *testing.T, path, authHeader string) *http.Response {
		t.Helper()
		req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
		require.NoError(t, err)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	t.Run("missing header", func(t *testing.T) {
		resp := get(t, "/", "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
	})

	t.Run("invalid format", func(t *testing.T) {
		resp := get(t, "/", "Basic c2Vrcml0")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("empty token", func(t *testing.T) {
		resp := get(t, "/", "Bearer ")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown token", func(t *testing.T) {
		resp := get(t, "/", "Bearer nope")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token reaches the mcp handler", func(t *testing.T) {
		resp := get(t, "/", "Bearer sekrit")
		require.NotEqual(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("healthz bypasses auth", func(t *testing.T) {
		resp := get(t, "/healthz", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestMCP_Server_EndToEnd(t *testing.T) {
	t.Parallel()

	database := &mockDatabase{
		listTables: func(context.Context) ([]db.TableInfo, error) {
			return []db.TableInfo{
				{Name: "orders", Engine: "InnoDB"},
				{Name: "users", Engine: "InnoDB"},
			}, nil
		},
		describeTable: func(_ context.Context, table string) (*db.TableSchema, error) {
			if table != "users" {
				return nil, &db.Error{Kind: db.KindNotFound, Message: `table "` + table + `" does not exist`}
			}
			return &db.TableSchema{
				Table: db.TableInfo{Name: "users"},
				Columns: []db.ColumnInfo{
					{Name: "id", Type: "int", Key: "PRI"},
					{Name: "name", Type: "varchar(50)"},
				},
				Indexes: []db.IndexInfo{{Name: "PRIMARY", Unique: true, Columns: []string{"id"}}},
			}, nil
		},
		query: func(_ context.Context, stmt string) (*db.QueryResult, error) {
			return &db.QueryResult{
				Columns: []string{"1"},
				Rows:    []db.Row{{"1": int64(1)}},
				Count:   1,
			}, nil
		},
		exec: func(_ context.Context, stmt string) (int64, error) {
			return 0, &db.Error{Kind: db.KindQuery, Number: 1064, Message: "You have an error in your SQL syntax"}
		},
	}

	cfg := validConfig(t)
	cfg.DB = database
	srv, err := New(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	serverSession, err := srv.mcp.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = clientSession.Close()
		_ = serverSession.Wait()
	})

	t.Run("tools are listed", func(t *testing.T) {
		res, err := clientSession.ListTools(ctx, &mcp.ListToolsParams{})
		require.NoError(t, err)

		var names []string
		for _, tool := range res.Tools {
			names = append(names, tool.Name)
		}
		require.ElementsMatch(t, []string{
			sqltools.ListTablesToolName,
			sqltools.DescribeTableToolName,
			sqltools.ExecuteSQLToolName,
		}, names)
	})

	t.Run("list_tables returns the schema's tables", func(t *testing.T) {
		res, err := clientSession.CallTool(ctx, &mcp.CallToolParams{
			Name:      sqltools.ListTablesToolName,
			Arguments: map[string]any{},
		})
		require.NoError(t, err)
		require.False(t, res.IsError)

		text := resultText(t, res)
		require.Contains(t, text, `"orders"`)
		require.Contains(t, text, `"users"`)
		require.Contains(t, text, `"count":2`)
	})

	t.Run("describe_table on a missing table is a tool error", func(t *testing.T) {
		res, err := clientSession.CallTool(ctx, &mcp.CallToolParams{
			Name:      sqltools.DescribeTableToolName,
			Arguments: map[string]any{"table_name": "ghosts"},
		})
		require.NoError(t, err)
		require.True(t, res.IsError)
		require.Contains(t, resultText(t, res), "NotFoundError")
	})

	t.Run("execute_sql select returns rows", func(t *testing.T) {
		res, err := clientSession.CallTool(ctx, &mcp.CallToolParams{
			Name:      sqltools.ExecuteSQLToolName,
			Arguments: map[string]any{"sql": "SELECT 1"},
		})
		require.NoError(t, err)
		require.False(t, res.IsError)

		text := resultText(t, res)
		require.Contains(t, text, `"count":1`)
		require.Contains(t, text, `"1":1`)
	})

	t.Run("execute_sql with malformed sql is a query error", func(t *testing.T) {
		res, err := clientSession.CallTool(ctx, &mcp.CallToolParams{
			Name:      sqltools.ExecuteSQLToolName,
			Arguments: map[string]any{"sql": "SELEC 1"},
		})
		require.NoError(t, err)
		require.True(t, res.IsError)

		text := resultText(t, res)
		require.Contains(t, text, "QueryError")
		require.Contains(t, text, "SQL syntax")
		require.Contains(t, text, "1064")
	})
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()

	var text string
	for _, content := range res.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			text += tc.Text
		}
	}
	return text
}
