// Package cli implements the mysql-mcp-client diagnostic commands.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/sqlbridge/mysql-mcp/internal/client"
)

type ExitCode int

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

const (
	defaultEndpoint = "http://127.0.0.1:8010/"
)

func Run() ExitCode {
	rootCmd := &cobra.Command{
		Use:   "mysql-mcp-client",
		Short: "Diagnostic CLI for a MySQL MCP server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := cmd.Help()
			if err != nil {
				return fmt.Errorf("failed to show help: %w", err)
			}
			return nil
		},
	}

	var verbose bool
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "set debug logging level")

	var endpoint string
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", envWithDefault("MCP_ENDPOINT", defaultEndpoint), "MCP server endpoint URL (env: MCP_ENDPOINT)")

	var token string
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("MCP_TOKEN"), "bearer token for authentication (env: MCP_TOKEN)")

	var timeout time.Duration
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "per-request timeout (0 for the client default)")

	rootCmd.AddCommand(
		NewToolsCmd().Command(),
		NewCallCmd().Command(),
		NewTablesCmd().Command(),
		NewDescribeCmd().Command(),
		NewQueryCmd().Command(),
	)

	if err := rootCmd.Execute(); err != nil {
		return exitCodeError
	}

	return exitCodeSuccess
}

// newLogger logs to stderr so command output on stdout stays parseable.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

// newClient dials the MCP server using the root command's connection flags.
func newClient(ctx context.Context, cmd *cobra.Command) (*client.Client, error) {
	verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
	if err != nil {
		return nil, fmt.Errorf("failed to get verbose flag: %w", err)
	}
	endpoint, err := cmd.Root().PersistentFlags().GetString("endpoint")
	if err != nil {
		return nil, fmt.Errorf("failed to get endpoint flag: %w", err)
	}
	token, err := cmd.Root().PersistentFlags().GetString("token")
	if err != nil {
		return nil, fmt.Errorf("failed to get token flag: %w", err)
	}
	timeout, err := cmd.Root().PersistentFlags().GetDuration("timeout")
	if err != nil {
		return nil, fmt.Errorf("failed to get timeout flag: %w", err)
	}

	return client.New(ctx, client.Config{
		Logger:         newLogger(verbose),
		Endpoint:       endpoint,
		RequestTimeout: timeout,
		Token:          token,
	})
}

func envWithDefault(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	return defaultValue
}
