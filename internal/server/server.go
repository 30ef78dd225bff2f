// Package server assembles the MCP server: tool registration, the streamable
// HTTP surface with auth and metrics, health endpoints, and the stdio session
// mode used when a host runtime spawns the process directly.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sqlbridge/mysql-mcp/internal/db"
	"github.com/sqlbridge/mysql-mcp/internal/server/metrics"
	sqltools "github.com/sqlbridge/mysql-mcp/internal/tools/sql"
)

type Server struct {
	log     *slog.Logger
	cfg     Config
	mcp     *mcp.Server
	http    *http.Server
	monitor *db.Monitor
}

func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "MySQL MCP Server",
		Version: cfg.Version,
	}, nil)

	s := &Server{
		log: cfg.Logger,
		cfg: cfg,
		mcp: mcpServer,
	}

	if err := s.registerTools(); err != nil {
		return nil, err
	}

	monitor, err := db.NewMonitor(db.MonitorConfig{
		Logger:   cfg.Logger,
		Pinger:   cfg.DB,
		Clock:    cfg.Clock,
		Interval: cfg.HealthInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create health monitor: %w", err)
	}
	s.monitor = monitor

	mux := http.NewServeMux()
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.mcp
	}, &mcp.StreamableHTTPOptions{
		Stateless: true, // Auto-initialize sessions, no manual initialize required
	})

	// Apply metrics middleware first, then authentication if needed
	metricsHandler := s.metricsMiddleware(handler)
	if len(cfg.AllowedTokens) > 0 {
		mux.Handle("/", s.authMiddleware(metricsHandler))
	} else {
		mux.Handle("/", metricsHandler)
	}

	mux.Handle("/healthz", s.metricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok\n")); err != nil {
			s.log.Error("failed to write healthz response", "error", err)
		}
	})))
	mux.Handle("/readyz", s.metricsMiddleware(http.HandlerFunc(s.readyzHandler)))

	s.http = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	return s, nil
}

func (s *Server) registerTools() error {
	listTables, err := sqltools.NewListTablesTool(sqltools.ListTablesToolConfig{
		Logger: s.log,
		Store:  s.cfg.DB,
	})
	if err != nil {
		return fmt.Errorf("failed to create list_tables tool: %w", err)
	}
	if err := listTables.Register(s.mcp); err != nil {
		return fmt.Errorf("failed to register list_tables tool: %w", err)
	}

	describeTable, err := sqltools.NewDescribeTableTool(sqltools.DescribeTableToolConfig{
		Logger: s.log,
		Store:  s.cfg.DB,
	})
	if err != nil {
		return fmt.Errorf("failed to create describe_table tool: %w", err)
	}
	if err := describeTable.Register(s.mcp); err != nil {
		return fmt.Errorf("failed to register describe_table tool: %w", err)
	}

	executeSQL, err := sqltools.NewExecuteSQLTool(sqltools.ExecuteSQLToolConfig{
		Logger: s.log,
		Store:  s.cfg.DB,
	})
	if err != nil {
		return fmt.Errorf("failed to create execute_sql tool: %w", err)
	}
	if err := executeSQL.Register(s.mcp); err != nil {
		return fmt.Errorf("failed to register execute_sql tool: %w", err)
	}

	return nil
}

// Run serves the streamable HTTP surface until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	go s.monitor.Run(ctx)

	serveErrCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("server: http server error", "error", err)
			serveErrCh <- fmt.Errorf("failed to listen and serve: %w", err)
		}
	}()

	s.log.Info("server: mcp streamable http listening",
		"listenAddr", s.cfg.ListenAddr,
	)

	select {
	case <-ctx.Done():
		s.log.Info("server: stopping",
			"reason", ctx.Err(),
			"listenAddr", s.cfg.ListenAddr,
		)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		s.log.Info("server: HTTP server shutdown complete")
		return nil
	case err := <-serveErrCh:
		s.log.Error("server: http server error causing shutdown",
			"error", err,
			"listenAddr", s.cfg.ListenAddr,
		)
		return err
	}
}

// RunStdio serves a single MCP session over stdin/stdout, the launch mode
// used when the host runtime spawns the adapter with the environment
// pre-populated. Logs go to stderr; stdout belongs to the protocol.
func (s *Server) RunStdio(ctx context.Context) error {
	s.log.Info("server: mcp stdio session starting")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("failed to serve stdio session: %w", err)
	}
	return nil
}

func (s *Server) readyzHandler(w http.ResponseWriter, r *http.Request) {
	if !s.monitor.Healthy() {
		s.log.Debug("readyz: database not reachable")
		w.WriteHeader(http.StatusServiceUnavailable)
		if _, err := w.Write([]byte("database not reachable\n")); err != nil {
			s.log.Error("failed to write readyz response", "error", err)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok\n")); err != nil {
		s.log.Error("failed to write readyz response", "error", err)
	}
}

// authMiddleware wraps an HTTP handler with Bearer token authentication
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			s.rejectUnauthorized(w, "missing_header", "missing authorization header")
			return
		}

		// Extract token from "Bearer <token>" format
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			s.rejectUnauthorized(w, "invalid_format", "invalid authorization header format")
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			s.rejectUnauthorized(w, "empty_token", "empty token")
			return
		}

		allowed := false
		for _, allowedToken := range s.cfg.AllowedTokens {
			if token == allowedToken {
				allowed = true
				break
			}
		}
		if !allowed {
			s.rejectUnauthorized(w, "invalid_token", "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) rejectUnauthorized(w http.ResponseWriter, reason, message string) {
	metrics.AuthFailuresTotal.WithLabelValues(reason).Inc()
	w.Header().Set("WWW-Authenticate", `Bearer`)
	w.WriteHeader(http.StatusUnauthorized)
	if _, err := w.Write([]byte("unauthorized: " + message + "\n")); err != nil {
		s.log.Error("failed to write auth error response", "error", err)
	}
}

// metricsMiddleware wraps an HTTP handler with metrics collection
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()
		method := r.Method
		endpoint := r.URL.Path

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(startTime).Seconds()
		status := fmt.Sprintf("%d", wrapped.statusCode)

		metrics.HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
		metrics.HTTPRequestDuration.Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
