package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/toolserve/pkg/dispatch"
	"github.com/aretw0/toolserve/pkg/domain"
	"github.com/aretw0/toolserve/pkg/registry"
	"github.com/aretw0/toolserve/pkg/schema"
)

func newBridge(t *testing.T) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg := registry.NewRegistry()
	reg.MustRegister(domain.NewDescriptor("zadd", "Add two numbers", domain.TypeInteger,
		domain.Required("a", domain.TypeInteger, ""),
		domain.Required("b", domain.TypeInteger, ""),
	), func(_ context.Context, args schema.Args) domain.Result {
		return domain.Success(args.Int("a") + args.Int("b"))
	})
	reg.MustRegister(domain.NewDescriptor("echo", "Echo", domain.TypeText,
		domain.Required("message", domain.TypeString, ""),
	), func(_ context.Context, args schema.Args) domain.Result {
		return domain.Success(args.String("message"))
	})

	s, err := NewServer(dispatch.New(reg, dispatch.WithLogger(logger)), "toolserve-test", "0.0.0", logger)
	require.NoError(t, err)
	return s
}

// roundTrip feeds one JSON-RPC message to the server and decodes the reply.
func roundTrip(t *testing.T, s *Server, msg string) map[string]any {
	t.Helper()
	reply := s.HandleMessage(context.Background(), json.RawMessage(msg))
	require.NotNil(t, reply)

	raw, err := json.Marshal(reply)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestBridge_ListKeepsRegistrationOrder(t *testing.T) {
	s := newBridge(t)

	out := roundTrip(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	result := out["result"].(map[string]any)
	tools := result["tools"].([]any)
	require.Len(t, tools, 2)
	assert.Equal(t, "zadd", tools[0].(map[string]any)["name"])
	assert.Equal(t, "echo", tools[1].(map[string]any)["name"])

	schemaOut := tools[0].(map[string]any)["inputSchema"].(map[string]any)
	assert.Equal(t, "object", schemaOut["type"])
	assert.Equal(t, []any{"a", "b"}, schemaOut["required"])
}

func TestBridge_CallSuccessAndFailure(t *testing.T) {
	s := newBridge(t)

	out := roundTrip(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"zadd","arguments":{"a":2,"b":3}}}`)
	result := out["result"].(map[string]any)
	assert.NotEqual(t, true, result["isError"])
	content := result["content"].([]any)
	assert.Equal(t, "5", content[0].(map[string]any)["text"])
	assert.Equal(t, map[string]any{"result": float64(5)}, result["structuredContent"])

	out = roundTrip(t, s, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"zadd","arguments":{"a":2}}}`)
	result = out["result"].(map[string]any)
	assert.Equal(t, true, result["isError"])
	content = result["content"].([]any)
	assert.Contains(t, content[0].(map[string]any)["text"], `"b"`)
}

func TestBridge_TextTool(t *testing.T) {
	s := newBridge(t)

	out := roundTrip(t, s, `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"echo","arguments":{"message":"hello"}}}`)
	result := out["result"].(map[string]any)
	content := result["content"].([]any)
	assert.Equal(t, "hello", content[0].(map[string]any)["text"])
	assert.Nil(t, result["structuredContent"])
}

func TestBridge_UnknownToolIsToolError(t *testing.T) {
	s := newBridge(t)

	out := roundTrip(t, s, `{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"multiply","arguments":{"a":2,"b":3}}}`)
	assert.Nil(t, out["error"])
	assert.Equal(t, float64(5), out["id"])
	result := out["result"].(map[string]any)
	assert.Equal(t, true, result["isError"])
	content := result["content"].([]any)
	assert.Contains(t, content[0].(map[string]any)["text"], "not found")
}

func TestBridge_MissingToolNameStaysProtocolError(t *testing.T) {
	s := newBridge(t)

	out := roundTrip(t, s, `{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{}}`)
	assert.NotNil(t, out["error"])
	assert.Nil(t, out["result"])
}

func TestBridge_ListenStdio(t *testing.T) {
	s := newBridge(t)

	in := strings.NewReader(strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"zadd","arguments":{"a":2,"b":3}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"multiply","arguments":{"a":2,"b":3}}}`,
	}, "\n") + "\n")
	var out bytes.Buffer

	require.NoError(t, s.Listen(context.Background(), in, &out))

	replies := make(map[float64]map[string]any)
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var reply map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &reply), line)
		replies[reply["id"].(float64)] = reply
	}
	require.Len(t, replies, 2)

	added := replies[1]["result"].(map[string]any)
	assert.NotEqual(t, true, added["isError"])

	unknown := replies[2]
	assert.Nil(t, unknown["error"])
	assert.Equal(t, true, unknown["result"].(map[string]any)["isError"])
}

func TestBridge_StreamableHandler(t *testing.T) {
	s := newBridge(t)
	h := s.StreamableHTTPHandler("/mcp")

	post := func(body, session string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json, text/event-stream")
		if session != "" {
			req.Header.Set("Mcp-Session-Id", session)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := post(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	session := rec.Header().Get("Mcp-Session-Id")
	require.NotEmpty(t, session)

	rec = post(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"multiply","arguments":{}}}`, session)
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Nil(t, out["error"])
	assert.Equal(t, true, out["result"].(map[string]any)["isError"])

	// Without a live session the call never reaches the dispatcher.
	rec = post(`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"multiply","arguments":{}}}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
