package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

type CallCmd struct{}

func NewCallCmd() *CallCmd {
	return &CallCmd{}
}

func (c *CallCmd) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "call <tool> [json-args]",
		Short: "Call a tool with raw JSON arguments and print the result",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			toolArgs := map[string]any{}
			if len(args) == 2 {
				if err := json.Unmarshal([]byte(args[1]), &toolArgs); err != nil {
					return fmt.Errorf("failed to parse tool arguments as a JSON object: %w", err)
				}
			}

			cl, err := newClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer cl.Close()

			text, isError, err := cl.CallToolText(ctx, args[0], toolArgs)
			if err != nil {
				return err
			}
			fmt.Println(text)
			if isError {
				return fmt.Errorf("tool %s returned an error", args[0])
			}
			return nil
		},
	}
}
