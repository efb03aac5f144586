package http

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aretw0/toolserve/pkg/domain"
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// isNotification reports whether the sender expects no response.
func (r rpcRequest) isNotification() bool {
	return len(r.ID) == 0
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func resultResponse(id json.RawMessage, result any) rpcResponse {
	return rpcResponse{JSONRPC: mcp.JSONRPC_VERSION, ID: id, Result: result}
}

func errorResponse(id json.RawMessage, code int, message string) rpcResponse {
	return rpcResponse{JSONRPC: mcp.JSONRPC_VERSION, ID: id, Error: &rpcError{Code: code, Message: message}}
}

func framingError(status, code int, message string) *domain.FramingError {
	return &domain.FramingError{Status: status, Code: code, Message: message}
}

// decodeRequest parses one JSON-RPC 2.0 request object.
// Anything else is a framing error and never reaches the dispatcher.
func decodeRequest(body []byte) (rpcRequest, *domain.FramingError) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return rpcRequest{}, framingError(http.StatusBadRequest, mcp.PARSE_ERROR, "Parse error")
	}
	if trimmed[0] == '[' {
		return rpcRequest{}, framingError(http.StatusBadRequest, mcp.INVALID_REQUEST, "batch requests are not supported")
	}
	if trimmed[0] != '{' {
		return rpcRequest{}, framingError(http.StatusBadRequest, mcp.INVALID_REQUEST, "request must be a JSON object")
	}

	var req rpcRequest
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return rpcRequest{}, framingError(http.StatusBadRequest, mcp.INVALID_REQUEST, "malformed request: "+err.Error())
	}
	if req.JSONRPC != mcp.JSONRPC_VERSION {
		return req, framingError(http.StatusBadRequest, mcp.INVALID_REQUEST, `jsonrpc must be "2.0"`)
	}
	if req.Method == "" {
		return req, framingError(http.StatusBadRequest, mcp.INVALID_REQUEST, "method is required")
	}
	if !validID(req.ID) {
		return req, framingError(http.StatusBadRequest, mcp.INVALID_REQUEST, "id must be a string or a number")
	}
	return req, nil
}

func validID(id json.RawMessage) bool {
	if len(id) == 0 {
		return true
	}
	switch c := id[0]; {
	case c == '"', c == '-', c >= '0' && c <= '9':
		return true
	default:
		return false
	}
}
