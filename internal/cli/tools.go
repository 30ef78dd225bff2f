package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type ToolsCmd struct{}

func NewToolsCmd() *ToolsCmd {
	return &ToolsCmd{}
}

func (c *ToolsCmd) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools exposed by the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cl, err := newClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer cl.Close()

			tools, err := cl.ListTools(ctx)
			if err != nil {
				return fmt.Errorf("failed to list tools: %w", err)
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetAutoWrapText(false)
			table.SetHeader([]string{"Name", "Description"})
			for _, tool := range tools {
				table.Append([]string{tool.Name, tool.Description})
			}
			table.Render()
			return nil
		},
	}
}
