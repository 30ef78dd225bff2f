package sqltools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqlbridge/mysql-mcp/internal/db"
)

func TestMCP_SQLTools_DescribeTableTool_HandleDescribeTable(t *testing.T) {
	t.Parallel()

	usersSchema := func() *db.TableSchema {
		def := "0"
		return &db.TableSchema{
			Table: db.TableInfo{Name: "users", Engine: "InnoDB", Rows: 7},
			Columns: []db.ColumnInfo{
				{Name: "id", Type: "int", Key: "PRI", Extra: "auto_increment"},
				{Name: "name", Type: "varchar(50)"},
				{Name: "balance", Type: "decimal(10,2)", Nullable: true, Default: &def},
			},
			Indexes: []db.IndexInfo{
				{Name: "PRIMARY", Unique: true, Columns: []string{"id"}},
			},
		}
	}

	t.Run("returns columns in native order", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{
			describeTable: func(_ context.Context, table string) (*db.TableSchema, error) {
				require.Equal(t, "users", table)
				return usersSchema(), nil
			},
		}
		tool, err := NewDescribeTableTool(DescribeTableToolConfig{Logger: testLogger(t), Store: store})
		require.NoError(t, err)

		out, err := tool.handleDescribeTable(context.Background(), DescribeTableInput{TableName: "users"})
		require.NoError(t, err)
		require.Equal(t, "users", out.Table.Name)
		require.Len(t, out.Columns, 3)
		require.Equal(t, "id", out.Columns[0].Name)
		require.Equal(t, "name", out.Columns[1].Name)
		require.Equal(t, "balance", out.Columns[2].Name)
		require.Equal(t, "PRI", out.Columns[0].Key)
		require.True(t, out.Columns[2].Nullable)
		require.NotNil(t, out.Columns[2].Default)
		require.Equal(t, "0", *out.Columns[2].Default)
		require.Len(t, out.Indexes, 1)
		require.True(t, out.Indexes[0].Unique)
	})

	t.Run("empty table name is rejected before touching the store", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{
			describeTable: func(context.Context, string) (*db.TableSchema, error) {
				t.Fatal("store should not be called")
				return nil, nil
			},
		}
		tool, err := NewDescribeTableTool(DescribeTableToolConfig{Logger: testLogger(t), Store: store})
		require.NoError(t, err)

		_, err = tool.handleDescribeTable(context.Background(), DescribeTableInput{})
		require.ErrorContains(t, err, "table_name is required")
	})

	t.Run("missing table propagates as a not found error", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{
			describeTable: func(context.Context, string) (*db.TableSchema, error) {
				return nil, &db.Error{Kind: db.KindNotFound, Message: `table "ghosts" does not exist`}
			},
		}
		tool, err := NewDescribeTableTool(DescribeTableToolConfig{Logger: testLogger(t), Store: store})
		require.NoError(t, err)

		_, err = tool.handleDescribeTable(context.Background(), DescribeTableInput{TableName: "ghosts"})
		require.Error(t, err)

		var dbErr *db.Error
		require.ErrorAs(t, err, &dbErr)
		require.Equal(t, db.KindNotFound, dbErr.Kind)
		require.Contains(t, err.Error(), "NotFoundError")
	})
}
