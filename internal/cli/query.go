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

type QueryCmd struct{}

func NewQueryCmd() *QueryCmd {
	return &QueryCmd{}
}

func (c *QueryCmd) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "query <sql>",
		Short: "Execute a SQL statement through the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cl, err := newClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer cl.Close()

			text, isError, err := cl.CallToolText(ctx, sqltools.ExecuteSQLToolName, map[string]any{"sql": args[0]})
			if err != nil {
				return err
			}
			if isError {
				return fmt.Errorf("%s", text)
			}

			var out sqltools.ExecuteSQLOutput
			dec := json.NewDecoder(strings.NewReader(text))
			dec.UseNumber()
			if err := dec.Decode(&out); err != nil {
				return fmt.Errorf("failed to parse execute_sql result: %w", err)
			}

			if out.AffectedRows != nil {
				fmt.Println("Affected rows:", *out.AffectedRows)
				return nil
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetAutoWrapText(false)
			table.SetHeader(out.Columns)
			for _, row := range out.Rows {
				cells := make([]string, 0, len(out.Columns))
				for _, col := range out.Columns {
					cells = append(cells, formatCell(row[col]))
				}
				table.Append(cells)
			}
			table.Render()

			fmt.Println("Rows:", out.Count)
			return nil
		},
	}
}

func formatCell(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}
