package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	sqltools "github.com/sqlbridge/mysql-mcp/internal/tools/sql"
)

type DescribeCmd struct{}

func NewDescribeCmd() *DescribeCmd {
	return &DescribeCmd{}
}

func (c *DescribeCmd) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <table>",
		Short: "Show columns and indexes for a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cl, err := newClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer cl.Close()

			text, isError, err := cl.CallToolText(ctx, sqltools.DescribeTableToolName, map[string]any{"table_name": args[0]})
			if err != nil {
				return err
			}
			if isError {
				return fmt.Errorf("%s", text)
			}

			var out sqltools.DescribeTableOutput
			if err := json.Unmarshal([]byte(text), &out); err != nil {
				return fmt.Errorf("failed to parse describe_table result: %w", err)
			}

			fmt.Println("Table:", out.Table.Name)
			if out.Table.Engine != "" {
				fmt.Println("Engine:", out.Table.Engine)
			}
			if out.Table.Comment != "" {
				fmt.Println("Comment:", out.Table.Comment)
			}

			columns := tablewriter.NewWriter(os.Stdout)
			columns.SetAutoWrapText(false)
			columns.SetHeader([]string{"Field", "Type", "Null", "Key", "Default", "Extra", "Comment"})
			for _, col := range out.Columns {
				columns.Append([]string{
					col.Name,
					col.Type,
					yesNo(col.Nullable),
					col.Key,
					stringOrNull(col.Default),
					col.Extra,
					col.Comment,
				})
			}
			columns.Render()

			if len(out.Indexes) > 0 {
				indexes := tablewriter.NewWriter(os.Stdout)
				indexes.SetAutoWrapText(false)
				indexes.SetHeader([]string{"Index", "Unique", "Columns"})
				for _, idx := range out.Indexes {
					indexes.Append([]string{idx.Name, yesNo(idx.Unique), strings.Join(idx.Columns, ", ")})
				}
				indexes.Render()
			}
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

func stringOrNull(s *string) string {
	if s == nil {
		return "NULL"
	}
	return *s
}
