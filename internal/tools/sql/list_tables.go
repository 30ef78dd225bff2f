package sqltools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sqlbridge/mysql-mcp/internal/db"
	"github.com/sqlbridge/mysql-mcp/internal/server/metrics"
)

const listTablesDescription = `List all tables in the configured MySQL database. Returns each table's name together with its comment, storage engine, estimated row count and creation/update times, ordered by table name. Use this to discover what exists before calling "describe_table" or "execute_sql".`

type ListTablesInput struct{}

type ListTablesOutput struct {
	Tables []db.TableInfo `json:"tables" jsonschema:"tables in the configured schema ordered by name"`
	Count  int            `json:"count" jsonschema:"number of tables"`
}

type ListTablesToolConfig struct {
	Logger *slog.Logger
	Store  Store
}

func (cfg *ListTablesToolConfig) Validate() error {
	if cfg.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if cfg.Store == nil {
		return fmt.Errorf("store is required")
	}
	return nil
}

type ListTablesTool struct {
	log   *slog.Logger
	store Store
}

func NewListTablesTool(cfg ListTablesToolConfig) (*ListTablesTool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate list_tables tool config: %w", err)
	}
	return &ListTablesTool{
		log:   cfg.Logger,
		store: cfg.Store,
	}, nil
}

func (t *ListTablesTool) Register(server *mcp.Server) error {
	req, err := jsonschema.For[ListTablesInput](nil)
	if err != nil {
		return fmt.Errorf("failed to create list_tables input schema: %w", err)
	}

	res, err := jsonschema.For[ListTablesOutput](nil)
	if err != nil {
		return fmt.Errorf("failed to create list_tables output schema: %w", err)
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:         ListTablesToolName,
		Description:  listTablesDescription,
		InputSchema:  req,
		OutputSchema: res,
	}, func(ctx context.Context, _ *mcp.CallToolRequest, req ListTablesInput) (*mcp.CallToolResult, ListTablesOutput, error) {
		startTime := time.Now()
		res, err := t.handleListTables(ctx, req)
		duration := time.Since(startTime).Seconds()

		if err != nil {
			metrics.ToolCallsTotal.WithLabelValues(ListTablesToolName, "error").Inc()
			metrics.ToolCallDuration.WithLabelValues(ListTablesToolName).Observe(duration)
			return nil, ListTablesOutput{}, err
		}
		metrics.ToolCallsTotal.WithLabelValues(ListTablesToolName, "success").Inc()
		metrics.ToolCallDuration.WithLabelValues(ListTablesToolName).Observe(duration)
		return nil, res, nil
	})
	return nil
}

func (t *ListTablesTool) handleListTables(ctx context.Context, _ ListTablesInput) (ListTablesOutput, error) {
	t.log.Debug("mcp/tool: handling list_tables")

	tables, err := t.store.ListTables(ctx)
	if err != nil {
		return ListTablesOutput{}, err
	}

	return ListTablesOutput{
		Tables: tables,
		Count:  len(tables),
	}, nil
}
