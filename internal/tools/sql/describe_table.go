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

const describeTableDescription = `Describe one table's schema: columns in their native order with declared type, nullability, key designation, default value, extras and comment, plus the table's indexes and metadata. Fails with a NotFoundError when the table does not exist in the configured database.`

type DescribeTableInput struct {
	TableName string `json:"table_name" jsonschema:"name of the table to describe"`
}

// DescribeTableOutput mirrors the store's table schema.
type DescribeTableOutput = db.TableSchema

type DescribeTableToolConfig struct {
	Logger *slog.Logger
	Store  Store
}

func (cfg *DescribeTableToolConfig) Validate() error {
	if cfg.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if cfg.Store == nil {
		return fmt.Errorf("store is required")
	}
	return nil
}

type DescribeTableTool struct {
	log   *slog.Logger
	store Store
}

func NewDescribeTableTool(cfg DescribeTableToolConfig) (*DescribeTableTool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate describe_table tool config: %w", err)
	}
	return &DescribeTableTool{
		log:   cfg.Logger,
		store: cfg.Store,
	}, nil
}

func (t *DescribeTableTool) Register(server *mcp.Server) error {
	req, err := jsonschema.For[DescribeTableInput](nil)
	if err != nil {
		return fmt.Errorf("failed to create describe_table input schema: %w", err)
	}

	res, err := jsonschema.For[DescribeTableOutput](nil)
	if err != nil {
		return fmt.Errorf("failed to create describe_table output schema: %w", err)
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:         DescribeTableToolName,
		Description:  describeTableDescription,
		InputSchema:  req,
		OutputSchema: res,
	}, func(ctx context.Context, _ *mcp.CallToolRequest, req DescribeTableInput) (*mcp.CallToolResult, DescribeTableOutput, error) {
		startTime := time.Now()
		res, err := t.handleDescribeTable(ctx, req)
		duration := time.Since(startTime).Seconds()

		if err != nil {
			metrics.ToolCallsTotal.WithLabelValues(DescribeTableToolName, "error").Inc()
			metrics.ToolCallDuration.WithLabelValues(DescribeTableToolName).Observe(duration)
			return nil, DescribeTableOutput{}, err
		}
		metrics.ToolCallsTotal.WithLabelValues(DescribeTableToolName, "success").Inc()
		metrics.ToolCallDuration.WithLabelValues(DescribeTableToolName).Observe(duration)
		return nil, res, nil
	})
	return nil
}

func (t *DescribeTableTool) handleDescribeTable(ctx context.Context, req DescribeTableInput) (DescribeTableOutput, error) {
	t.log.Debug("mcp/tool: handling describe_table", "table", req.TableName)

	if req.TableName == "" {
		return DescribeTableOutput{}, fmt.Errorf("table_name is required")
	}

	schema, err := t.store.DescribeTable(ctx, req.TableName)
	if err != nil {
		return DescribeTableOutput{}, err
	}
	return *schema, nil
}
