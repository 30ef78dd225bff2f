package sqltools

import (
	"context"

	"github.com/sqlbridge/mysql-mcp/internal/db"
)

// Store is the database surface the tools require. *db.Client satisfies it.
type Store interface {
	ListTables(ctx context.Context) ([]db.TableInfo, error)
	DescribeTable(ctx context.Context, table string) (*db.TableSchema, error)
	Query(ctx context.Context, stmt string) (*db.QueryResult, error)
	Exec(ctx context.Context, stmt string) (int64, error)
}

// Tool names exposed to the MCP runtime.
const (
	ListTablesToolName    = "list_tables"
	DescribeTableToolName = "describe_table"
	ExecuteSQLToolName    = "execute_sql"
)
