// Package mcp exposes the gateway to MCP clients as a set of tools, served
// as line-delimited JSON-RPC 2.0 over stdio.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/pario-ai/pokegate/pkg/client"
	"github.com/pario-ai/pokegate/pkg/models"
)

const maxLine = 1 << 20

// Gateway is the subset of the gateway API the tools call. *client.Client
// implements it.
type Gateway interface {
	Details(ctx context.Context, name string) (json.RawMessage, error)
	Insight(ctx context.Context, name string, q client.InsightQuery) (models.InsightResult, error)
	Batch(ctx context.Context, names []string) (models.BatchOutcome, error)
	Metrics(ctx context.Context) (models.MetricsSnapshot, error)
}

// AuditSearcher queries audited insights. *audit.Logger implements it.
type AuditSearcher interface {
	Query(ctx context.Context, opts models.AuditQueryOpts) ([]models.InsightRecord, error)
}

// Server is a minimal MCP tool server.
type Server struct {
	gw      Gateway
	auditor AuditSearcher
	version string
	logger  *slog.Logger
}

// New creates a Server. auditor may be nil, in which case the audit tool
// reports that auditing is not configured.
func New(gw Gateway, auditor AuditSearcher, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{gw: gw, auditor: auditor, version: version, logger: logger}
}

// Run reads requests from r line by line and writes responses to w.
// It blocks until r is exhausted or ctx is cancelled.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.write(w, Response{
				JSONRPC: jsonrpcVersion,
				Error:   &RPCError{Code: CodeParseError, Message: "parse error"},
			})
			continue
		}

		if resp := s.dispatch(ctx, &req); resp != nil {
			s.write(w, *resp)
		}
	}
	return scanner.Err()
}

func (s *Server) dispatch(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case "initialize":
		return s.reply(req, InitializeResult{
			ProtocolVersion: ProtocolVersion,
			ServerInfo:      ServerInfo{Name: "pokegate", Version: s.version},
			Capabilities:    map[string]any{"tools": map[string]any{}},
		})
	case "notifications/initialized":
		return nil
	case "tools/list":
		return s.reply(req, ToolsListResult{Tools: toolDefinitions()})
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	default:
		return s.fail(req, CodeMethodNotFound, fmt.Sprintf("unknown method: %s", req.Method))
	}
}

func (s *Server) handleToolsCall(ctx context.Context, req *Request) *Response {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.fail(req, CodeInvalidParams, "invalid params")
	}

	t, ok := toolByName(params.Name)
	if !ok {
		return s.reply(req, errorResult("unknown tool: "+params.Name))
	}
	s.logger.Debug("mcp tool call", "tool", params.Name)
	return s.reply(req, t.handle(ctx, s, params.Arguments))
}

func (s *Server) reply(req *Request, result any) *Response {
	return &Response{JSONRPC: jsonrpcVersion, ID: req.ID, Result: result}
}

func (s *Server) fail(req *Request, code int, msg string) *Response {
	return &Response{JSONRPC: jsonrpcVersion, ID: req.ID, Error: &RPCError{Code: code, Message: msg}}
}

func (s *Server) write(w io.Writer, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("mcp marshal failed", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		s.logger.Error("mcp write failed", "error", err)
	}
}
