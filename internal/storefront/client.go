// ABOUTME: Storefront MCP client for tool discovery and proxied tool calls
// ABOUTME: Speaks JSON-RPC 2.0 over HTTPS against the store's /api/mcp endpoint

package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"
)

// JSON-RPC 2.0 types

// jsonRPCRequest represents a JSON-RPC 2.0 request.
type jsonRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// jsonRPCResponse represents a JSON-RPC 2.0 response.
type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonRPCError   `json:"error,omitempty"`
}

// jsonRPCError represents a JSON-RPC 2.0 error object.
type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ToolInfo describes one tool advertised by the storefront MCP server.
type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// listToolsResult is the result payload for tools/list.
type listToolsResult struct {
	Tools []ToolInfo `json:"tools"`
}

// callToolParams are the params for tools/call.
type callToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// callToolResult is the result payload for tools/call.
type callToolResult struct {
	Content []toolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type toolContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// DiscoveryError kinds, one per distinct failure mode.
const (
	FailureHTTPStatus = "http_status"
	FailureMalformed  = "malformed_payload"
	FailureTimeout    = "timeout"
	FailureConnection = "connection"
)

// DiscoveryError describes a failed storefront capability call with enough
// context for operator diagnosis.
type DiscoveryError struct {
	Endpoint   string
	Kind       string
	StatusCode int
	Err        error
}

func (e *DiscoveryError) Error() string {
	switch e.Kind {
	case FailureHTTPStatus:
		return fmt.Sprintf("storefront MCP server returned HTTP %d from %s; check that the store's MCP endpoint is configured", e.StatusCode, e.Endpoint)
	case FailureMalformed:
		return fmt.Sprintf("invalid MCP response from %s: %v", e.Endpoint, e.Err)
	case FailureTimeout:
		return fmt.Sprintf("timeout connecting to storefront MCP at %s; check network connectivity and store availability", e.Endpoint)
	default:
		return fmt.Sprintf("cannot connect to storefront MCP at %s: %v", e.Endpoint, e.Err)
	}
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// simulatedTools is the standard storefront tool set, used when discovery is
// disabled by configuration.
var simulatedTools = []ToolInfo{
	{Name: "search_shop_catalog", Description: "Search the store's product catalog"},
	{Name: "manage_cart", Description: "Manage shopping cart operations"},
	{Name: "get_store_policies", Description: "Get store policies and information"},
}

// Client talks to a Shopify storefront MCP server.
type Client struct {
	domain     string
	endpoint   string
	simulate   bool
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Client for the given bare store domain.
func New(domain string, timeout time.Duration, simulate bool, logger *slog.Logger) *Client {
	return &Client{
		domain:   domain,
		endpoint: fmt.Sprintf("https://%s/api/mcp", domain),
		simulate: simulate,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With("component", "storefront"),
	}
}

// Domain returns the bare store domain this client targets.
func (c *Client) Domain() string { return c.domain }

// Endpoint returns the MCP endpoint URL.
func (c *Client) Endpoint() string { return c.endpoint }

// ListTools performs a tools/list call and returns the advertised tool set.
// In simulate mode it returns the standard storefront tools without any
// outbound call; every real failure surfaces as a *DiscoveryError.
func (c *Client) ListTools(ctx context.Context) ([]ToolInfo, error) {
	if c.simulate {
		c.logger.Info("storefront discovery simulated", "tools", toolNames(simulatedTools))
		return simulatedTools, nil
	}

	var result listToolsResult
	if err := c.rpc(ctx, "tools/list", nil, &result); err != nil {
		return nil, err
	}
	if result.Tools == nil {
		return nil, &DiscoveryError{
			Endpoint: c.endpoint,
			Kind:     FailureMalformed,
			Err:      errors.New("missing result.tools in response"),
		}
	}

	c.logger.Info("discovered storefront tools", "tools", toolNames(result.Tools))
	return result.Tools, nil
}

// CallTool invokes a storefront tool by name and returns its text content.
func (c *Client) CallTool(ctx context.Context, name string, args json.RawMessage) (string, error) {
	if c.simulate {
		return fmt.Sprintf("simulated %s result", name), nil
	}

	var result callToolResult
	params := callToolParams{Name: name, Arguments: args}
	if err := c.rpc(ctx, "tools/call", params, &result); err != nil {
		return "", err
	}

	var text string
	for _, content := range result.Content {
		if content.Type == "text" {
			text += content.Text
		}
	}
	if result.IsError {
		return "", fmt.Errorf("storefront tool %s failed: %s", name, text)
	}
	return text, nil
}

// rpc performs one JSON-RPC call and decodes its result into out.
func (c *Client) rpc(ctx context.Context, method string, params any, out any) error {
	body, err := json.Marshal(jsonRPCRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &DiscoveryError{
			Endpoint:   c.endpoint,
			Kind:       FailureHTTPStatus,
			StatusCode: resp.StatusCode,
		}
	}

	var rpcResp jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return &DiscoveryError{Endpoint: c.endpoint, Kind: FailureMalformed, Err: err}
	}
	if rpcResp.Error != nil {
		return &DiscoveryError{
			Endpoint: c.endpoint,
			Kind:     FailureMalformed,
			Err:      fmt.Errorf("JSON-RPC error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message),
		}
	}
	if rpcResp.Result == nil {
		return &DiscoveryError{
			Endpoint: c.endpoint,
			Kind:     FailureMalformed,
			Err:      errors.New("missing result in response"),
		}
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return &DiscoveryError{Endpoint: c.endpoint, Kind: FailureMalformed, Err: err}
	}
	return nil
}

// transportError classifies a failed round trip as timeout or connection.
func (c *Client) transportError(err error) *DiscoveryError {
	kind := FailureConnection

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		kind = FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		kind = FailureTimeout
	}

	return &DiscoveryError{Endpoint: c.endpoint, Kind: kind, Err: err}
}

func toolNames(tools []ToolInfo) []string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	return names
}
