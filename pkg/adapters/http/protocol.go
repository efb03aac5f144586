package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aretw0/toolserve/pkg/domain"
	"github.com/aretw0/toolserve/pkg/schema"
)

// supportedVersions lists the protocol revisions initialize will echo back.
var supportedVersions = []string{mcp.LATEST_PROTOCOL_VERSION, "2025-03-26", "2024-11-05"}

type initializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	ClientInfo      mcp.Implementation `json:"clientInfo"`
}

type initializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    capabilities       `json:"capabilities"`
	ServerInfo      mcp.Implementation `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

type capabilities struct {
	Tools toolsCapability `json:"tools"`
}

type toolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

type toolInfo struct {
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	InputSchema  map[string]any `json:"inputSchema"`
	OutputSchema map[string]any `json:"outputSchema,omitempty"`
}

type listToolsResult struct {
	Tools []toolInfo `json:"tools"`
}

type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type callResult struct {
	Content           []content      `json:"content"`
	IsError           bool           `json:"isError"`
	StructuredContent map[string]any `json:"structuredContent,omitempty"`
}

// route answers one parsed request. Only framing problems come back as an
// error; everything else, including unknown methods, is a JSON-RPC response.
func (s *Server) route(ctx context.Context, req rpcRequest) (rpcResponse, *domain.FramingError) {
	switch mcp.MCPMethod(req.Method) {
	case mcp.MethodInitialize:
		return s.initialize(req)
	case mcp.MethodPing:
		return resultResponse(req.ID, struct{}{}), nil
	case mcp.MethodToolsList:
		return resultResponse(req.ID, s.listTools()), nil
	case mcp.MethodToolsCall:
		return s.callTool(ctx, req)
	default:
		return errorResponse(req.ID, mcp.METHOD_NOT_FOUND, "Method not found: "+req.Method), nil
	}
}

func (s *Server) initialize(req rpcRequest) (rpcResponse, *domain.FramingError) {
	var params initializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return rpcResponse{}, framingError(http.StatusBadRequest, mcp.INVALID_PARAMS, "invalid initialize params: "+err.Error())
		}
	}

	version := mcp.LATEST_PROTOCOL_VERSION
	if slices.Contains(supportedVersions, params.ProtocolVersion) {
		version = params.ProtocolVersion
	}
	s.logger.Debug("Client initialized", "client", params.ClientInfo.Name, "protocol_version", version)

	return resultResponse(req.ID, initializeResult{
		ProtocolVersion: version,
		Capabilities:    capabilities{Tools: toolsCapability{ListChanged: false}},
		ServerInfo:      s.info,
		Instructions:    s.instructions,
	}), nil
}

func (s *Server) listTools() listToolsResult {
	descs := s.dispatcher.Tools()
	out := listToolsResult{Tools: make([]toolInfo, 0, len(descs))}
	for _, d := range descs {
		out.Tools = append(out.Tools, toolInfo{
			Name:         d.Name,
			Description:  d.Description,
			InputSchema:  schema.InputSchema(d),
			OutputSchema: schema.OutputSchema(d),
		})
	}
	return out
}

func (s *Server) callTool(ctx context.Context, req rpcRequest) (rpcResponse, *domain.FramingError) {
	var params callParams
	if len(req.Params) == 0 || json.Unmarshal(req.Params, &params) != nil {
		return rpcResponse{}, framingError(http.StatusBadRequest, mcp.INVALID_PARAMS, "tools/call params must be an object")
	}
	if params.Name == "" {
		return rpcResponse{}, framingError(http.StatusBadRequest, mcp.INVALID_PARAMS, "tools/call requires a tool name")
	}
	args, ferr := decodeArguments(params.Arguments)
	if ferr != nil {
		return rpcResponse{}, ferr
	}

	res := s.dispatcher.Dispatch(ctx, domain.InvocationRequest{
		Tool:          params.Name,
		Arguments:     args,
		CorrelationID: middleware.GetReqID(ctx),
	})
	return resultResponse(req.ID, s.toCallResult(params.Name, res)), nil
}

// decodeArguments accepts an absent or null argument map, or a JSON object.
// Numbers keep their literal form so integers survive untouched.
func decodeArguments(raw json.RawMessage) (map[string]any, *domain.FramingError) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return map[string]any{}, nil
	}
	if raw[0] != '{' {
		return nil, framingError(http.StatusBadRequest, mcp.INVALID_PARAMS, "tools/call arguments must be an object")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var args map[string]any
	if err := dec.Decode(&args); err != nil {
		return nil, framingError(http.StatusBadRequest, mcp.INVALID_PARAMS, "tools/call arguments must be an object")
	}
	return args, nil
}

func (s *Server) toCallResult(tool string, res domain.Result) callResult {
	if res.Failed {
		return callResult{Content: []content{{Type: "text", Text: res.Message}}, IsError: true}
	}
	out := callResult{Content: []content{{Type: "text", Text: res.Text()}}}
	if desc, ok := s.descriptors[tool]; ok {
		out.StructuredContent = schema.StructuredResult(desc, res.Value)
	}
	return out
}
