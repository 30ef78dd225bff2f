// Package client provides a thin MCP client for the MySQL MCP server's
// streamable HTTP transport. It reconnects once when the underlying
// session drops mid-call.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	defaultRequestTimeout = 120 * time.Second
)

var (
	mcpClientImplementation = &mcp.Implementation{
		Name:    "mysql-mcp-client",
		Version: "1.0.0",
	}
)

type Config struct {
	Logger *slog.Logger

	Endpoint       string
	RequestTimeout time.Duration
	Token          string // Optional Bearer token for authentication
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}

	if c.RequestTimeout == 0 {
		c.RequestTimeout = defaultRequestTimeout
	}

	return nil
}

type Client struct {
	log       *slog.Logger
	cfg       *Config
	mcpClient *mcp.Client

	sessionMu sync.RWMutex // protects session
	session   *mcp.ClientSession
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := &Client{
		log:       cfg.Logger,
		cfg:       &cfg,
		mcpClient: mcp.NewClient(mcpClientImplementation, nil),
	}

	if err := client.connect(ctx); err != nil {
		return nil, err
	}

	return client, nil
}

// connect establishes a new session with the MCP server.
func (c *Client) connect(ctx context.Context) error {
	httpClient := &http.Client{Timeout: c.cfg.RequestTimeout}
	if c.cfg.Token != "" {
		httpClient.Transport = &tokenTransport{
			base:  http.DefaultTransport,
			token: c.cfg.Token,
		}
	}

	transport := &mcp.StreamableClientTransport{
		Endpoint:   c.cfg.Endpoint,
		HTTPClient: httpClient,
	}

	session, err := c.mcpClient.Connect(ctx, transport, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to MCP server: %w", err)
	}

	c.sessionMu.Lock()
	if c.session != nil {
		c.session.Close()
	}
	c.session = session
	c.sessionMu.Unlock()

	c.log.Info("mcp/client: connected to server", "endpoint", c.cfg.Endpoint)
	return nil
}

// reconnect tears down the current session and establishes a new one.
func (c *Client) reconnect(ctx context.Context) error {
	c.log.Warn("mcp/client: attempting to reconnect")
	c.sessionMu.Lock()
	if c.session != nil {
		c.session.Close()
		c.session = nil
	}
	c.sessionMu.Unlock()

	return c.connect(ctx)
}

// withSession runs fn against the current session, reconnecting once if
// the session has dropped.
func (c *Client) withSession(ctx context.Context, fn func(*mcp.ClientSession) error) error {
	c.sessionMu.RLock()
	session := c.session
	c.sessionMu.RUnlock()

	if session == nil {
		return fmt.Errorf("session not connected")
	}

	err := fn(session)
	if err == nil || !isConnectionError(err) {
		return err
	}

	c.log.Warn("mcp/client: connection error, attempting reconnect", "error", err)
	if reconnectErr := c.reconnect(ctx); reconnectErr != nil {
		return fmt.Errorf("failed to reconnect: %w (original error: %w)", reconnectErr, err)
	}

	c.sessionMu.RLock()
	session = c.session
	c.sessionMu.RUnlock()
	if session == nil {
		return fmt.Errorf("session still not connected after reconnect")
	}

	return fn(session)
}

// isConnectionError checks if an error warrants reconnection.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "connection closed") ||
		strings.Contains(errStr, "EOF") ||
		strings.Contains(errStr, "client is closing") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset")
}

type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	c.log.Debug("mcp/client: listing available tools")

	var result *mcp.ListToolsResult
	err := c.withSession(ctx, func(session *mcp.ClientSession) error {
		var err error
		result, err = session.ListTools(ctx, &mcp.ListToolsParams{})
		return err
	})
	if err != nil {
		return nil, err
	}

	tools := make([]Tool, 0, len(result.Tools))
	for _, t := range result.Tools {
		inputSchema, _ := t.InputSchema.(map[string]any)
		tools = append(tools, Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: inputSchema,
		})
	}

	c.log.Debug("mcp/client: found tools", "count", len(tools))
	return tools, nil
}

// CallToolText calls the named tool and returns the concatenated text
// content of the result. The bool reports whether the server flagged the
// result as a tool error.
func (c *Client) CallToolText(ctx context.Context, name string, args map[string]any) (string, bool, error) {
	c.log.Debug("mcp/client: calling tool", "name", name)

	var result *mcp.CallToolResult
	err := c.withSession(ctx, func(session *mcp.ClientSession) error {
		var err error
		result, err = session.CallTool(ctx, &mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		})
		return err
	})
	if err != nil {
		return "", true, fmt.Errorf("failed to call tool: %w", err)
	}

	var parts []string
	for _, content := range result.Content {
		if textContent, ok := content.(*mcp.TextContent); ok {
			parts = append(parts, textContent.Text)
		}
	}
	text := strings.Join(parts, "\n")

	if result.IsError {
		c.log.Warn("mcp/client: tool returned error result", "error", text)
	} else {
		c.log.Debug("mcp/client: called tool", "chars", len(text))
	}
	return text, result.IsError, nil
}

func (c *Client) Close() error {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}

// tokenTransport wraps an http.RoundTripper to add an Authorization header.
type tokenTransport struct {
	base  http.RoundTripper
	token string
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", t.token))
	return t.base.RoundTrip(req)
}
