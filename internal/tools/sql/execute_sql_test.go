package sqltools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqlbridge/mysql-mcp/internal/db"
)

func TestMCP_SQLTools_ExecuteSQLTool_HandleExecuteSQL(t *testing.T) {
	t.Parallel()

	t.Run("select routes to the query path", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{
			query: func(_ context.Context, stmt string) (*db.QueryResult, error) {
				require.Equal(t, "SELECT 1", stmt)
				return &db.QueryResult{
					Columns: []string{"1"},
					Rows:    []db.Row{{"1": int64(1)}},
					Count:   1,
				}, nil
			},
			exec: func(context.Context, string) (int64, error) {
				t.Fatal("exec should not be called for a select")
				return 0, nil
			},
		}
		tool, err := NewExecuteSQLTool(ExecuteSQLToolConfig{Logger: testLogger(t), Store: store})
		require.NoError(t, err)

		out, err := tool.handleExecuteSQL(context.Background(), ExecuteSQLInput{SQL: "SELECT 1"})
		require.NoError(t, err)
		require.Equal(t, []string{"1"}, out.Columns)
		require.Equal(t, 1, out.Count)
		require.Len(t, out.Rows, 1)
		require.EqualValues(t, 1, out.Rows[0]["1"])
		require.Nil(t, out.AffectedRows)
	})

	t.Run("insert routes to the exec path and reports affected rows", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{
			exec: func(_ context.Context, stmt string) (int64, error) {
				require.Equal(t, "INSERT INTO users (name) VALUES ('a')", stmt)
				return 1, nil
			},
			query: func(context.Context, string) (*db.QueryResult, error) {
				t.Fatal("query should not be called for an insert")
				return nil, nil
			},
		}
		tool, err := NewExecuteSQLTool(ExecuteSQLToolConfig{Logger: testLogger(t), Store: store})
		require.NoError(t, err)

		out, err := tool.handleExecuteSQL(context.Background(), ExecuteSQLInput{SQL: "INSERT INTO users (name) VALUES ('a')"})
		require.NoError(t, err)
		require.NotNil(t, out.AffectedRows)
		require.EqualValues(t, 1, *out.AffectedRows)
		require.Empty(t, out.Rows)
		require.Zero(t, out.Count)
	})

	t.Run("surrounding whitespace is trimmed before routing", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{
			query: func(_ context.Context, stmt string) (*db.QueryResult, error) {
				return &db.QueryResult{Columns: []string{"1"}, Rows: []db.Row{}, Count: 0}, nil
			},
		}
		tool, err := NewExecuteSQLTool(ExecuteSQLToolConfig{Logger: testLogger(t), Store: store})
		require.NoError(t, err)

		_, err = tool.handleExecuteSQL(context.Background(), ExecuteSQLInput{SQL: "  \n select 1  "})
		require.NoError(t, err)
	})

	t.Run("empty statement is rejected", func(t *testing.T) {
		t.Parallel()

		tool, err := NewExecuteSQLTool(ExecuteSQLToolConfig{Logger: testLogger(t), Store: &mockStore{}})
		require.NoError(t, err)

		_, err = tool.handleExecuteSQL(context.Background(), ExecuteSQLInput{SQL: "   "})
		require.ErrorContains(t, err, "sql is required")
	})

	t.Run("malformed statement propagates as a query error", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{
			exec: func(context.Context, string) (int64, error) {
				return 0, &db.Error{Kind: db.KindQuery, Number: 1064, Message: "You have an error in your SQL syntax"}
			},
		}
		tool, err := NewExecuteSQLTool(ExecuteSQLToolConfig{Logger: testLogger(t), Store: store})
		require.NoError(t, err)

		_, err = tool.handleExecuteSQL(context.Background(), ExecuteSQLInput{SQL: "SELEC 1"})
		require.Error(t, err)

		var dbErr *db.Error
		require.ErrorAs(t, err, &dbErr)
		require.Equal(t, db.KindQuery, dbErr.Kind)
		require.EqualValues(t, 1064, dbErr.Number)
		require.Contains(t, err.Error(), "SQL syntax")
	})
}

func TestMCP_SQLTools_IsRowReturning(t *testing.T) {
	t.Parallel()

	tests := []struct {
		stmt string
		want bool
	}{
		{"SELECT 1", true},
		{"select * from users", true},
		{"  WITH t AS (SELECT 1) SELECT * FROM t", true},
		{"SHOW TABLES", true},
		{"DESCRIBE users", true},
		{"desc users", true},
		{"EXPLAIN SELECT 1", true},
		{"INSERT INTO users (name) VALUES ('a')", false},
		{"UPDATE users SET name = 'b'", false},
		{"DELETE FROM users", false},
		{"CREATE TABLE t (id INT)", false},
		{"DROP TABLE t", false},
		{"SELEC 1", false},
	}

	for _, tt := range tests {
		t.Run(tt.stmt, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, isRowReturning(tt.stmt))
		})
	}
}
