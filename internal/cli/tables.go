package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	sqltools "github.com/sqlbridge/mysql-mcp/internal/tools/sql"
)

type TablesCmd struct{}

func NewTablesCmd() *TablesCmd {
	return &TablesCmd{}
}

func (c *TablesCmd) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables in the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cl, err := newClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer cl.Close()

			text, isError, err := cl.CallToolText(ctx, sqltools.ListTablesToolName, map[string]any{})
			if err != nil {
				return err
			}
			if isError {
				return fmt.Errorf("%s", text)
			}

			var out sqltools.ListTablesOutput
			if err := json.Unmarshal([]byte(text), &out); err != nil {
				return fmt.Errorf("failed to parse list_tables result: %w", err)
			}

			fmt.Println("Tables:", out.Count)

			table := tablewriter.NewWriter(os.Stdout)
			table.SetAutoWrapText(false)
			table.SetHeader([]string{"Name", "Engine", "Rows", "Comment", "Created"})
			for _, t := range out.Tables {
				table.Append([]string{
					t.Name,
					t.Engine,
					fmt.Sprintf("%d", t.Rows),
					t.Comment,
					t.CreatedAt,
				})
			}
			table.Render()
			return nil
		},
	}
}
