package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/Aman-CERP/ctxd/internal/apperr"
	"github.com/Aman-CERP/ctxd/internal/service"
)

// connTimeout bounds how long a single request/response exchange may take.
const connTimeout = 30 * time.Second

// Server listens on a Unix socket and dispatches requests to the context
// management and search services.
type Server struct {
	socketPath string
	listener   net.Listener
	manager    *service.Manager
	searcher   *service.Searcher
	log        *slog.Logger

	mu       sync.Mutex
	shutdown bool
	wg       sync.WaitGroup
}

// NewServer creates a server over the given services.
func NewServer(socketPath string, manager *service.Manager, searcher *service.Searcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		socketPath: socketPath,
		manager:    manager,
		searcher:   searcher,
		log:        logger,
	}
}

// ListenAndServe starts the server and blocks until the context is
// cancelled. The socket file is removed on exit.
func (s *Server) ListenAndServe(ctx context.Context) error {
	// Clean up any stale socket
	_ = os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.socketPath, err)
	}
	s.listener = listener

	defer func() {
		_ = listener.Close()
		_ = os.Remove(s.socketPath)
	}()

	s.log.Info("server listening", slog.String("socket", s.socketPath))

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			s.mu.Lock()
			shutdown := s.shutdown
			s.mu.Unlock()
			if shutdown {
				break
			}
			s.log.Error("accept error", slog.String("error", err.Error()))
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.wg.Wait()
	return ctx.Err()
}

// handleConnection processes a single client connection.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(connTimeout)); err != nil {
		s.log.Warn("failed to set connection deadline", slog.String("error", err.Error()))
	}

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	var req Request
	if err := decoder.Decode(&req); err != nil {
		_ = encoder.Encode(NewErrorResponse("", ErrCodeParseError, "failed to parse request"))
		return
	}

	resp := s.handleRequest(ctx, req)
	_ = encoder.Encode(resp)
}

// handleRequest dispatches a request to the matching service call.
func (s *Server) handleRequest(ctx context.Context, req Request) Response {
	switch req.Method {
	case MethodPing:
		return NewSuccessResponse(req.ID, PingResult{Pong: true})

	case MethodStoreContext:
		var params StoreParams
		if resp, ok := decodeParams(req, &params); !ok {
			return resp
		}
		c, err := s.manager.Store(ctx, params.Content, params.Metadata)
		if err != nil {
			return errorResponse(req.ID, err)
		}
		return NewSuccessResponse(req.ID, c)

	case MethodGetContext:
		var params GetParams
		if resp, ok := decodeParams(req, &params); !ok {
			return resp
		}
		c, err := s.manager.Get(ctx, params.ContextID)
		if err != nil {
			return errorResponse(req.ID, err)
		}
		return NewSuccessResponse(req.ID, c)

	case MethodUpdateContext:
		var params UpdateParams
		if resp, ok := decodeParams(req, &params); !ok {
			return resp
		}
		c, err := s.manager.Update(ctx, params.ContextID, params.Content, params.Metadata)
		if err != nil {
			return errorResponse(req.ID, err)
		}
		return NewSuccessResponse(req.ID, c)

	case MethodDeleteContext:
		var params GetParams
		if resp, ok := decodeParams(req, &params); !ok {
			return resp
		}
		if err := s.manager.Delete(ctx, params.ContextID); err != nil {
			return errorResponse(req.ID, err)
		}
		return NewSuccessResponse(req.ID, struct{}{})

	case MethodListContexts:
		var params ListParams
		if resp, ok := decodeParams(req, &params); !ok {
			return resp
		}
		contexts, err := s.manager.List(ctx, params.Tags, params.Limit, params.Offset)
		if err != nil {
			return errorResponse(req.ID, err)
		}
		return NewSuccessResponse(req.ID, contexts)

	case MethodSearch:
		var params SearchParams
		if resp, ok := decodeParams(req, &params); !ok {
			return resp
		}
		result, err := s.searcher.Search(ctx, params.Query, params.Limit)
		if err != nil {
			return errorResponse(req.ID, err)
		}
		return NewSuccessResponse(req.ID, result)

	case MethodSearchTags:
		var params SearchParams
		if resp, ok := decodeParams(req, &params); !ok {
			return resp
		}
		result, err := s.searcher.SearchWithTags(ctx, params.Query, params.Tags, params.Limit)
		if err != nil {
			return errorResponse(req.ID, err)
		}
		return NewSuccessResponse(req.ID, result)

	case MethodResolve:
		var params ResolveParams
		if resp, ok := decodeParams(req, &params); !ok {
			return resp
		}
		result, err := s.searcher.RetrieveByReferences(ctx, params.References)
		if err != nil {
			return errorResponse(req.ID, err)
		}
		return NewSuccessResponse(req.ID, result)

	default:
		return NewErrorResponse(req.ID, ErrCodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

// validated is the subset of param types that can self-validate.
type validated interface {
	Validate() error
}

// decodeParams re-marshals the raw params into the typed struct and
// validates it. Returns (errorResponse, false) on failure.
func decodeParams(req Request, params validated) (Response, bool) {
	data, err := json.Marshal(req.Params)
	if err != nil {
		return NewErrorResponse(req.ID, ErrCodeInvalidParams, "failed to encode params"), false
	}
	if err := json.Unmarshal(data, params); err != nil {
		return NewErrorResponse(req.ID, ErrCodeInvalidParams, "failed to decode params"), false
	}
	if err := params.Validate(); err != nil {
		return NewErrorResponse(req.ID, ErrCodeInvalidParams, err.Error()), false
	}
	return Response{}, true
}

// errorResponse maps core errors onto protocol error codes.
func errorResponse(id string, err error) Response {
	switch {
	case apperr.IsNotFound(err):
		return NewErrorResponse(id, ErrCodeNotFound, err.Error())
	case apperr.GetCode(err) == apperr.CodeAlreadyExists:
		return NewErrorResponse(id, ErrCodeAlreadyExists, err.Error())
	case apperr.GetCategory(err) == apperr.CategoryValidation:
		return NewErrorResponse(id, ErrCodeInvalidParams, err.Error())
	default:
		return NewErrorResponse(id, ErrCodeOperation, err.Error())
	}
}

// Close stops the server.
func (s *Server) Close() error {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}
