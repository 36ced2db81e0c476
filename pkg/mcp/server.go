package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/wayfarer-ai/wayfarer/pkg/models"
	"github.com/wayfarer-ai/wayfarer/pkg/orchestrator"
	"github.com/wayfarer-ai/wayfarer/pkg/progress"
	"github.com/wayfarer-ai/wayfarer/pkg/trips"
)

// Generator runs one guide generation.
type Generator interface {
	Execute(ctx context.Context, run orchestrator.Run) (*models.Guide, error)
}

// CacheStatter provides cache statistics without coupling to a concrete cache backend.
type CacheStatter interface {
	Stats(ctx context.Context) (models.CacheStats, error)
}

// AuditSearcher queries the per-section run audit.
type AuditSearcher interface {
	Query(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, error)
}

// Deps are the collaborators behind the tools. Any of them may be nil; the
// matching tool then reports that it is not configured.
type Deps struct {
	Generator Generator
	Trips     trips.Store
	Cache     CacheStatter
	Audit     AuditSearcher
	// Timeout is the overall generation timeout passed to each run.
	Timeout time.Duration
}

// Server is a minimal MCP server that communicates over stdio using JSON-RPC 2.0.
type Server struct {
	deps    Deps
	version string

	mu sync.Mutex // serializes writes; progress notifications come from run goroutines
}

// New creates a new MCP Server.
func New(d Deps, version string) *Server {
	return &Server{deps: d, version: version}
}

// Run reads JSON-RPC requests from r line-by-line and writes responses to w.
// It blocks until r is closed or ctx is cancelled.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.write(w, Response{
				JSONRPC: "2.0",
				Error:   &RPCError{Code: CodeParseError, Message: "parse error"},
			})
			continue
		}

		resp := s.dispatch(ctx, w, &req)
		if resp == nil {
			// notification
			continue
		}
		s.write(w, *resp)
	}
	return scanner.Err()
}

func (s *Server) dispatch(ctx context.Context, w io.Writer, req *Request) *Response {
	switch req.Method {
	case "initialize":
		return result(req, InitializeResult{
			ProtocolVersion: protocolVersion,
			ServerInfo:      ServerInfo{Name: "wayfarer", Version: s.version},
			Capabilities:    ServerCapabilities{Tools: &ToolsCapability{}},
		})
	case "notifications/initialized", "notifications/cancelled":
		return nil
	case "ping":
		return result(req, struct{}{})
	case "tools/list":
		return result(req, ToolsListResult{Tools: allTools})
	case "tools/call":
		return s.handleToolsCall(ctx, w, req)
	default:
		if len(req.ID) == 0 {
			return nil
		}
		return rpcError(req, CodeMethodNotFound, fmt.Sprintf("unknown method: %s", req.Method))
	}
}

func (s *Server) handleToolsCall(ctx context.Context, w io.Writer, req *Request) *Response {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return rpcError(req, CodeInvalidParams, "invalid params")
	}

	handler, ok := toolHandlers[params.Name]
	if !ok {
		return result(req, errorResult(fmt.Sprintf("unknown tool: %s", params.Name)))
	}
	call := toolCall{args: params.Arguments, progress: progress.Discard}
	if params.Meta != nil && len(params.Meta.ProgressToken) > 0 {
		call.progress = s.progressSink(w, params.Meta.ProgressToken)
	}
	return result(req, handler(ctx, s, call))
}

// progressSink relays generation progress to the client as notifications/progress.
// Progress must increase with each notification, so events at or below the
// last relayed percent (cache ticks, a failure) are dropped.
func (s *Server) progressSink(w io.Writer, token json.RawMessage) progress.Sink {
	var mu sync.Mutex
	last := -1
	return progress.FuncSink(func(evt models.ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		if evt.Percent <= last {
			return
		}
		last = evt.Percent
		s.write(w, Notification{
			JSONRPC: "2.0",
			Method:  "notifications/progress",
			Params: ProgressParams{
				ProgressToken: token,
				Progress:      float64(evt.Percent),
				Total:         progress.CompletePercent,
				Message:       evt.Message,
			},
		})
	})
}

func result(req *Request, v any) *Response {
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: v}
}

func rpcError(req *Request, code int, msg string) *Response {
	return &Response{JSONRPC: "2.0", ID: req.ID, Error: &RPCError{Code: code, Message: msg}}
}

// write sends one message followed by a newline.
func (s *Server) write(w io.Writer, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("mcp: marshal error: %v", err)
		return
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := w.Write(data); err != nil {
		log.Printf("mcp: write error: %v", err)
	}
}
