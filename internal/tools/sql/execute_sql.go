package sqltools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sqlbridge/mysql-mcp/internal/db"
	"github.com/sqlbridge/mysql-mcp/internal/server/metrics"
)

const executeSQLDescription = `Execute an arbitrary SQL statement against the configured MySQL database. Row-returning statements (SELECT, SHOW, DESCRIBE, EXPLAIN, WITH) return columns and rows; all other statements return the number of affected rows. The statement is forwarded verbatim with no read-only restriction, so be deliberate with writes.`

type ExecuteSQLInput struct {
	SQL string `json:"sql" jsonschema:"SQL statement to execute verbatim"`
}

type ExecuteSQLOutput struct {
	Columns      []string `json:"columns" jsonschema:"column names for row-returning statements"`
	Rows         []db.Row `json:"rows" jsonschema:"result rows for row-returning statements"`
	Count        int      `json:"count" jsonschema:"number of rows returned"`
	AffectedRows *int64   `json:"affected_rows,omitempty" jsonschema:"affected-row count for non-returning statements"`
}

type ExecuteSQLToolConfig struct {
	Logger *slog.Logger
	Store  Store
}

func (cfg *ExecuteSQLToolConfig) Validate() error {
	if cfg.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if cfg.Store == nil {
		return fmt.Errorf("store is required")
	}
	return nil
}

type ExecuteSQLTool struct {
	log   *slog.Logger
	store Store
}

func NewExecuteSQLTool(cfg ExecuteSQLToolConfig) (*ExecuteSQLTool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate execute_sql tool config: %w", err)
	}
	return &ExecuteSQLTool{
		log:   cfg.Logger,
		store: cfg.Store,
	}, nil
}

func (t *ExecuteSQLTool) Register(server *mcp.Server) error {
	req, err := jsonschema.For[ExecuteSQLInput](nil)
	if err != nil {
		return fmt.Errorf("failed to create execute_sql input schema: %w", err)
	}

	res, err := jsonschema.For[ExecuteSQLOutput](nil)
	if err != nil {
		return fmt.Errorf("failed to create execute_sql output schema: %w", err)
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:         ExecuteSQLToolName,
		Description:  executeSQLDescription,
		InputSchema:  req,
		OutputSchema: res,
	}, func(ctx context.Context, _ *mcp.CallToolRequest, req ExecuteSQLInput) (*mcp.CallToolResult, ExecuteSQLOutput, error) {
		startTime := time.Now()
		res, err := t.handleExecuteSQL(ctx, req)
		duration := time.Since(startTime).Seconds()

		if err != nil {
			metrics.ToolCallsTotal.WithLabelValues(ExecuteSQLToolName, "error").Inc()
			metrics.ToolCallDuration.WithLabelValues(ExecuteSQLToolName).Observe(duration)
			return nil, ExecuteSQLOutput{}, err
		}
		metrics.ToolCallsTotal.WithLabelValues(ExecuteSQLToolName, "success").Inc()
		metrics.ToolCallDuration.WithLabelValues(ExecuteSQLToolName).Observe(duration)
		return nil, res, nil
	})
	return nil
}

func (t *ExecuteSQLTool) handleExecuteSQL(ctx context.Context, req ExecuteSQLInput) (ExecuteSQLOutput, error) {
	stmt := strings.TrimSpace(req.SQL)
	if stmt == "" {
		return ExecuteSQLOutput{}, fmt.Errorf("sql is required")
	}

	t.log.Debug("mcp/tool: handling execute_sql")

	if isRowReturning(stmt) {
		result, err := t.store.Query(ctx, stmt)
		if err != nil {
			return ExecuteSQLOutput{}, err
		}
		return ExecuteSQLOutput{
			Columns: result.Columns,
			Rows:    result.Rows,
			Count:   result.Count,
		}, nil
	}

	affected, err := t.store.Exec(ctx, stmt)
	if err != nil {
		return ExecuteSQLOutput{}, err
	}
	return ExecuteSQLOutput{
		Columns:      []string{},
		Rows:         []db.Row{},
		AffectedRows: &affected,
	}, nil
}

var rowReturningPrefixes = []string{"SELECT", "SHOW", "DESCRIBE", "DESC", "EXPLAIN", "WITH"}

// isRowReturning reports whether the statement's leading keyword names a
// row-returning command.
func isRowReturning(stmt string) bool {
	upper := strings.ToUpper(strings.TrimSpace(stmt))
	for _, prefix := range rowReturningPrefixes {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}
