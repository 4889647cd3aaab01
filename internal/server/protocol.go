// Package server exposes the context store over a Unix socket using
// JSON-RPC 2.0 framing, one request per connection.
package server

import (
	"fmt"

	"github.com/Aman-CERP/ctxd/internal/domain"
)

// JSON-RPC 2.0 method names.
const (
	MethodPing          = "ping"
	MethodStoreContext  = "context.store"
	MethodGetContext    = "context.get"
	MethodUpdateContext = "context.update"
	MethodDeleteContext = "context.delete"
	MethodListContexts  = "context.list"
	MethodSearch        = "search"
	MethodSearchTags    = "search.tags"
	MethodResolve       = "search.resolve"
)

// Standard JSON-RPC 2.0 error codes.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// Custom error codes mapped from the core error taxonomy.
const (
	ErrCodeNotFound      = -32001
	ErrCodeAlreadyExists = -32002
	ErrCodeOperation     = -32003
)

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      string `json:"id"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      string `json:"id"`
}

// Error represents a JSON-RPC 2.0 error.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// NewSuccessResponse creates a successful response.
func NewSuccessResponse(id string, result any) Response {
	return Response{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(id string, code int, message string) Response {
	return Response{
		JSONRPC: "2.0",
		Error: &Error{
			Code:    code,
			Message: message,
		},
		ID: id,
	}
}

// PingResult is the ping response payload.
type PingResult struct {
	Pong bool `json:"pong"`
}

// StoreParams are the parameters for context.store.
type StoreParams struct {
	Content  string                 `json:"content"`
	Metadata domain.ContextMetadata `json:"metadata"`
}

// Validate checks that required fields are present.
func (p *StoreParams) Validate() error {
	if p.Content == "" {
		return fmt.Errorf("content is required")
	}
	return nil
}

// GetParams are the parameters for context.get and context.delete.
type GetParams struct {
	ContextID string `json:"context_id"`
}

// Validate checks that required fields are present.
func (p *GetParams) Validate() error {
	if p.ContextID == "" {
		return fmt.Errorf("context_id is required")
	}
	return nil
}

// UpdateParams are the parameters for context.update.
type UpdateParams struct {
	ContextID string                 `json:"context_id"`
	Content   string                 `json:"content"`
	Metadata  domain.ContextMetadata `json:"metadata"`
}

// Validate checks that required fields are present.
func (p *UpdateParams) Validate() error {
	if p.ContextID == "" {
		return fmt.Errorf("context_id is required")
	}
	if p.Content == "" {
		return fmt.Errorf("content is required")
	}
	return nil
}

// ListParams are the parameters for context.list.
type ListParams struct {
	Tags   []string `json:"tags,omitempty"`
	Limit  int      `json:"limit,omitempty"`
	Offset int      `json:"offset,omitempty"`
}

// Validate normalizes pagination defaults.
func (p *ListParams) Validate() error {
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return nil
}

// SearchParams are the parameters for search and search.tags.
type SearchParams struct {
	Query string   `json:"query"`
	Tags  []string `json:"tags,omitempty"`
	Limit int      `json:"limit,omitempty"`
}

// Validate checks that required fields are present.
func (p *SearchParams) Validate() error {
	if p.Query == "" {
		return fmt.Errorf("query is required")
	}
	if p.Limit <= 0 {
		p.Limit = 10
	}
	return nil
}

// ResolveParams are the parameters for search.resolve.
type ResolveParams struct {
	References []domain.ContextReference `json:"references"`
}

// Validate checks that required fields are present.
func (p *ResolveParams) Validate() error {
	if len(p.References) == 0 {
		return fmt.Errorf("at least one reference is required")
	}
	return nil
}
