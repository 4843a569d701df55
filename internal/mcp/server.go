package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/karthiktools/convert2postman/internal/convert"
)

// ProtocolVersion is the MCP revision the server speaks.
const ProtocolVersion = "2024-11-05"

// Server is an MCP server exposing conversion tools over JSON-RPC 2.0 on
// stdio.
type Server struct {
	conv    *convert.Converter
	logger  *slog.Logger
	version string
	tools   []toolEntry
	stdin   io.Reader
	stdout  io.Writer
}

// NewServer creates an MCP server backed by conv. Logs must not go to
// stdout, which carries the protocol.
func NewServer(conv *convert.Converter, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		conv:    conv,
		logger:  logger,
		version: version,
		tools:   allTools(),
		stdin:   os.Stdin,
		stdout:  os.Stdout,
	}
}

// Serve reads JSON-RPC messages from stdin line by line and writes responses
// to stdout. It blocks until stdin is closed, ctx is cancelled, or reading
// fails.
func (s *Server) Serve(ctx context.Context) error {
	scanner := bufio.NewScanner(s.stdin)
	// SoapUI projects passed inline can be large.
	scanner.Buffer(make([]byte, 0, 64*1024), 32*1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		req, rpcErr := decodeRequest(line)
		if rpcErr != nil {
			s.logger.Warn("mcp bad request", "error", rpcErr.Message)
			var id json.RawMessage
			if req != nil {
				id = req.ID
			}
			s.writeResponse(newErrorResponse(id, rpcErr))
			continue
		}

		resp, shouldReply := s.dispatch(ctx, req)
		if shouldReply {
			s.writeResponse(resp)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	return nil
}

// dispatch routes a request. The bool is false for notifications.
func (s *Server) dispatch(ctx context.Context, req *Request) (Response, bool) {
	s.logger.Debug("mcp request", "method", req.Method)
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req), true

	case "notifications/initialized":
		return Response{}, false

	case "ping":
		return newResponse(req.ID, map[string]any{}), true

	case "tools/list":
		return s.handleToolsList(req), true

	case "tools/call":
		return s.handleToolsCall(ctx, req), true

	default:
		if req.IsNotification() {
			return Response{}, false
		}
		return newErrorResponse(req.ID, methodNotFound(req.Method)), true
	}
}

func (s *Server) handleInitialize(req *Request) Response {
	return newResponse(req.ID, map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    "c2p-mcp",
			"version": s.version,
		},
	})
}

func (s *Server) handleToolsList(req *Request) Response {
	tools := make([]Tool, len(s.tools))
	for i, t := range s.tools {
		tools[i] = t.Tool
	}
	return newResponse(req.ID, map[string]any{"tools": tools})
}

type toolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (s *Server) handleToolsCall(ctx context.Context, req *Request) Response {
	var params toolsCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return newErrorResponse(req.ID, invalidParams(err))
	}

	for _, t := range s.tools {
		if t.Tool.Name == params.Name {
			result := t.Handler(ctx, s.conv, params.Arguments)
			if result.IsError {
				s.logger.Warn("tool failed", "tool", params.Name, "error", result.Content[0].Text)
			}
			return newResponse(req.ID, result)
		}
	}

	return newErrorResponse(req.ID, unknownTool(params.Name))
}

// writeResponse writes resp as a single line.
func (s *Server) writeResponse(resp Response) {
	if _, err := s.stdout.Write(marshalResponse(resp)); err != nil {
		s.logger.Error("writing response", "error", err)
	}
}
