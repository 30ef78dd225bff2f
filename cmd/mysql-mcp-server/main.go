package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "net/http/pprof"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/sqlbridge/mysql-mcp/internal/config"
	"github.com/sqlbridge/mysql-mcp/internal/db"
	"github.com/sqlbridge/mysql-mcp/internal/server"
	"github.com/sqlbridge/mysql-mcp/internal/server/metrics"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	transportStdio = "stdio"
	transportHTTP  = "http"

	defaultTransport   = transportStdio
	defaultListenAddr  = "0.0.0.0:8010"
	defaultMetricsAddr = "0.0.0.0:0"

	connectTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	enablePprofFlag := flag.Bool("enable-pprof", false, "enable pprof server")
	transportFlag := flag.String("transport", defaultTransport, "MCP transport (stdio or http)")
	listenAddrFlag := flag.String("listen-addr", defaultListenAddr, "HTTP server listen address (http transport)")
	metricsAddrFlag := flag.String("metrics-addr", defaultMetricsAddr, "Address to listen on for prometheus metrics (http transport, empty to disable)")
	flag.Parse()

	if *transportFlag != transportStdio && *transportFlag != transportHTTP {
		return fmt.Errorf("invalid transport %q (must be %q or %q)", *transportFlag, transportStdio, transportHTTP)
	}

	// Load .env file if it exists
	_ = godotenv.Load()

	log := newLogger(*verboseFlag)

	// Set up signal handling with detailed logging
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Log which signal was received
	go func() {
		sig := <-sigCh
		log.Info("server: received signal", "signal", sig.String())
		cancel()
	}()

	if *enablePprofFlag {
		go func() {
			log.Info("starting pprof server", "address", "localhost:6060")
			err := http.ListenAndServe("localhost:6060", nil)
			if err != nil {
				log.Error("failed to start pprof server", "error", err)
			}
		}()
	}

	dbCfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	log.Info("mysql: connecting", "target", dbCfg.String())
	connectCtx, connectCancel := context.WithTimeout(ctx, connectTimeout)
	client, err := db.New(connectCtx, log, dbCfg.DSN())
	connectCancel()
	if err != nil {
		return fmt.Errorf("failed to connect to mysql: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Error("failed to close mysql connection", "error", err)
		}
	}()

	// Parse allowed tokens from environment variable (comma-separated)
	// Auth can be explicitly disabled with MCP_AUTH_DISABLED=true
	var allowedTokens []string
	authDisabled := os.Getenv("MCP_AUTH_DISABLED") == "true"

	if authDisabled {
		log.Info("mcp server: authentication explicitly disabled")
	} else if tokensEnv := os.Getenv("MCP_ALLOWED_TOKENS"); tokensEnv != "" {
		for token := range strings.SplitSeq(tokensEnv, ",") {
			token = strings.TrimSpace(token)
			if token != "" {
				allowedTokens = append(allowedTokens, token)
			}
		}
		if len(allowedTokens) > 0 {
			log.Info("mcp server: token authentication enabled", "token_count", len(allowedTokens))
		}
	} else {
		log.Info("mcp server: authentication disabled (no tokens configured)")
	}

	srv, err := server.New(server.Config{
		Logger:        log,
		DB:            client,
		Version:       version,
		ListenAddr:    *listenAddrFlag,
		AllowedTokens: allowedTokens,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if *transportFlag == transportStdio {
		if err := srv.RunStdio(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	}

	var metricsServerErrCh = make(chan error, 1)
	if *metricsAddrFlag != "" {
		metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)
		go func() {
			listener, err := net.Listen("tcp", *metricsAddrFlag)
			if err != nil {
				log.Error("failed to start prometheus metrics server listener", "error", err)
				metricsServerErrCh <- err
				return
			}
			log.Info("prometheus metrics server listening", "address", listener.Addr().String())
			http.Handle("/metrics", promhttp.Handler())
			if err := http.Serve(listener, nil); err != nil {
				log.Error("failed to start prometheus metrics server", "error", err)
				metricsServerErrCh <- err
				return
			}
		}()
	}

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.Run(ctx); err != nil {
			serverErrCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("server: shutting down", "reason", ctx.Err())
		return nil
	case err := <-serverErrCh:
		log.Error("server: server error causing shutdown", "error", err)
		return err
	case err := <-metricsServerErrCh:
		log.Error("server: metrics server error causing shutdown", "error", err)
		return err
	}
}

// newLogger logs to stderr. On the stdio transport stdout carries the MCP
// protocol stream, so it has to stay clean.
func newLogger(verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: logLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				t := a.Value.Time().UTC()
				a.Value = slog.StringValue(formatRFC3339Millis(t))
			}
			if s, ok := a.Value.Any().(string); ok && s == "" {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func formatRFC3339Millis(t time.Time) string {
	t = t.UTC()
	base := t.Format("2006-01-02T15:04:05")
	ms := t.Nanosecond() / 1_000_000
	return fmt.Sprintf("%s.%03dZ", base, ms)
}
