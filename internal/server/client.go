package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/Aman-CERP/ctxd/internal/domain"
)

// DefaultClientTimeout bounds each request/response exchange.
const DefaultClientTimeout = 10 * time.Second

// Client talks to a running ctxd daemon over its Unix socket.
type Client struct {
	socketPath string
	timeout    time.Duration
	requestID  atomic.Uint64
}

// NewClient creates a client for the given socket path.
func NewClient(socketPath string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultClientTimeout
	}
	return &Client{
		socketPath: socketPath,
		timeout:    timeout,
	}
}

// IsRunning checks if the daemon is accepting connections.
func (c *Client) IsRunning() bool {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// Ping checks if the daemon is responsive.
func (c *Client) Ping(ctx context.Context) error {
	var result PingResult
	if err := c.call(ctx, MethodPing, nil, &result); err != nil {
		return err
	}
	if !result.Pong {
		return fmt.Errorf("unexpected ping result")
	}
	return nil
}

// StoreContext stores a new context.
func (c *Client) StoreContext(ctx context.Context, params StoreParams) (domain.Context, error) {
	var result domain.Context
	err := c.call(ctx, MethodStoreContext, params, &result)
	return result, err
}

// GetContext fetches a context by id.
func (c *Client) GetContext(ctx context.Context, id string) (domain.Context, error) {
	var result domain.Context
	err := c.call(ctx, MethodGetContext, GetParams{ContextID: id}, &result)
	return result, err
}

// UpdateContext replaces a context's content and metadata.
func (c *Client) UpdateContext(ctx context.Context, params UpdateParams) (domain.Context, error) {
	var result domain.Context
	err := c.call(ctx, MethodUpdateContext, params, &result)
	return result, err
}

// DeleteContext removes a context and its chunks.
func (c *Client) DeleteContext(ctx context.Context, id string) error {
	var result struct{}
	return c.call(ctx, MethodDeleteContext, GetParams{ContextID: id}, &result)
}

// ListContexts lists contexts, optionally filtered by tags.
func (c *Client) ListContexts(ctx context.Context, params ListParams) ([]domain.Context, error) {
	var result []domain.Context
	err := c.call(ctx, MethodListContexts, params, &result)
	return result, err
}

// Search runs a similarity search.
func (c *Client) Search(ctx context.Context, params SearchParams) (domain.SearchResult, error) {
	var result domain.SearchResult
	err := c.call(ctx, MethodSearch, params, &result)
	return result, err
}

// SearchWithTags runs a tag-scoped search.
func (c *Client) SearchWithTags(ctx context.Context, params SearchParams) (domain.SearchResult, error) {
	var result domain.SearchResult
	err := c.call(ctx, MethodSearchTags, params, &result)
	return result, err
}

// Resolve retrieves contexts by explicit references.
func (c *Client) Resolve(ctx context.Context, params ResolveParams) (domain.SearchResult, error) {
	var result domain.SearchResult
	err := c.call(ctx, MethodResolve, params, &result)
	return result, err
}

// call performs one request/response exchange on a fresh connection.
func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to daemon: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set deadline: %w", err)
	}

	req := Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID(),
	}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return fmt.Errorf("failed to receive response: %w", err)
	}
	if resp.Error != nil {
		return fmt.Errorf("%s failed: %s (code: %d)", method, resp.Error.Message, resp.Error.Code)
	}

	data, err := json.Marshal(resp.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to decode result: %w", err)
	}
	return nil
}

// nextID generates a unique request ID.
func (c *Client) nextID() string {
	id := c.requestID.Add(1)
	return fmt.Sprintf("req-%d", id)
}
