// Package mcp implements an MCP (Model Context Protocol) server over stdio,
// exposing the SoapUI to Postman conversions as tools for AI coding agents.
package mcp

import (
	"encoding/json"
	"fmt"
)

const jsonrpcVersion = "2.0"

// Request is one JSON-RPC 2.0 message read from stdin.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"` // absent for notifications
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request carries no id.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response is one JSON-RPC 2.0 message written to stdout.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object. Data carries the offending value
// (a method or tool name) when there is one.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Error codes the server returns.
const (
	ErrCodeParse          = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeNoMethod       = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603
)

// nullID is the id of a response to a message whose id could not be read.
var nullID = json.RawMessage("null")

// decodeRequest parses one line. A message that is not JSON, is not
// JSON-RPC 2.0 or names no method yields the error to send back instead.
func decodeRequest(line []byte) (*Request, *RPCError) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, &RPCError{Code: ErrCodeParse, Message: "parse error: " + err.Error()}
	}
	if req.JSONRPC != jsonrpcVersion {
		return &req, &RPCError{Code: ErrCodeInvalidRequest, Message: "invalid request: jsonrpc must be \"2.0\"", Data: req.JSONRPC}
	}
	if req.Method == "" {
		return &req, &RPCError{Code: ErrCodeInvalidRequest, Message: "invalid request: missing method"}
	}
	return &req, nil
}

func methodNotFound(method string) *RPCError {
	return &RPCError{Code: ErrCodeNoMethod, Message: "method not found: " + method, Data: method}
}

func unknownTool(name string) *RPCError {
	return &RPCError{Code: ErrCodeNoMethod, Message: "unknown tool: " + name, Data: name}
}

func invalidParams(err error) *RPCError {
	return &RPCError{Code: ErrCodeInvalidParams, Message: "invalid params: " + err.Error()}
}

func newResponse(id json.RawMessage, result any) Response {
	return Response{JSONRPC: jsonrpcVersion, ID: id, Result: result}
}

// newErrorResponse answers id with e. A nil id becomes null.
func newErrorResponse(id json.RawMessage, e *RPCError) Response {
	if len(id) == 0 {
		id = nullID
	}
	return Response{JSONRPC: jsonrpcVersion, ID: id, Error: e}
}

// marshalResponse encodes resp as one line. If resp cannot be encoded (a
// tool result holding an unencodable value) an internal error for the same
// id is sent instead.
func marshalResponse(resp Response) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		data, _ = json.Marshal(newErrorResponse(resp.ID, &RPCError{Code: ErrCodeInternal, Message: "encoding response: " + err.Error()}))
	}
	return append(data, '\n')
}
