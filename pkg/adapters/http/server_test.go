package http

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/toolserve/pkg/cors"
	"github.com/aretw0/toolserve/pkg/dispatch"
	"github.com/aretw0/toolserve/pkg/domain"
	"github.com/aretw0/toolserve/pkg/registry"
	"github.com/aretw0/toolserve/pkg/schema"
)

// countingDispatcher records how often the core was reached.
type countingDispatcher struct {
	*dispatch.Dispatcher
	calls    atomic.Int32
	listings atomic.Int32
}

func (c *countingDispatcher) Tools() []domain.Descriptor {
	c.listings.Add(1)
	return c.Dispatcher.Tools()
}

func (c *countingDispatcher) Dispatch(ctx context.Context, req domain.InvocationRequest) domain.Result {
	c.calls.Add(1)
	return c.Dispatcher.Dispatch(ctx, req)
}

type fakeMetrics struct {
	exchanges []int
}

func (f *fakeMetrics) ObserveExchange(_ string, status int) { f.exchanges = append(f.exchanges, status) }
func (f *fakeMetrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "# metrics\n")
	})
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestDispatcher() *countingDispatcher {
	reg := registry.NewRegistry()
	reg.MustRegister(domain.NewDescriptor("add", "Add two numbers", domain.TypeInteger,
		domain.Required("a", domain.TypeInteger, ""),
		domain.Required("b", domain.TypeInteger, ""),
	), func(_ context.Context, args schema.Args) domain.Result {
		return domain.Success(args.Int("a") + args.Int("b"))
	})
	reg.MustRegister(domain.NewDescriptor("echo", "Echo a message", domain.TypeText,
		domain.Optional("message", domain.TypeString, "", "hi"),
	), func(_ context.Context, args schema.Args) domain.Result {
		return domain.Success(args.String("message"))
	})
	reg.Seal()
	return &countingDispatcher{Dispatcher: dispatch.New(reg, dispatch.WithLogger(quiet()))}
}

func newTestHandler(d Dispatcher, opts ...Option) http.Handler {
	return NewHandler(d, append([]Option{WithLogger(quiet())}, opts...)...)
}

func post(h http.Handler, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for _, m := range mutate {
		m(req)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

type wireResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) wireResponse {
	t.Helper()
	var resp wireResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func callBody(id int, name string, args string) string {
	b, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": json.RawMessage(args)},
	})
	return string(b)
}

func TestToolsCall_AddScenario(t *testing.T) {
	d := newTestDispatcher()
	h := newTestHandler(d)

	w := post(h, callBody(1, "add", `{"a":2,"b":3}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	var res callResult
	require.NoError(t, json.Unmarshal(decode(t, w).Result, &res))
	assert.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	assert.Equal(t, content{Type: "text", Text: "5"}, res.Content[0])
	assert.EqualValues(t, 5, res.StructuredContent["result"])

	w = post(h, callBody(2, "add", `{"a":2}`))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(decode(t, w).Result, &res))
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content[0].Text, `"b"`)

	w = post(h, callBody(3, "multiply", `{"a":2,"b":3}`))
	require.Equal(t, http.StatusOK, w.Code)
	res = callResult{}
	require.NoError(t, json.Unmarshal(decode(t, w).Result, &res))
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content[0].Text, "not found")
	assert.Nil(t, res.StructuredContent)
}

func TestToolsCall_DoesNotRelistCatalog(t *testing.T) {
	d := newTestDispatcher()
	h := newTestHandler(d)
	listed := d.listings.Load()

	for i := 0; i < 5; i++ {
		w := post(h, callBody(i, "add", `{"a":1,"b":2}`))
		var res callResult
		require.NoError(t, json.Unmarshal(decode(t, w).Result, &res))
		assert.EqualValues(t, 3, res.StructuredContent["result"])
	}
	assert.Equal(t, listed, d.listings.Load())
	assert.Equal(t, int32(5), d.calls.Load())
}

func TestToolsCall_TextToolHasNoStructuredContent(t *testing.T) {
	h := newTestHandler(newTestDispatcher())

	w := post(h, callBody(1, "echo", `null`))
	var res callResult
	require.NoError(t, json.Unmarshal(decode(t, w).Result, &res))
	assert.False(t, res.IsError)
	assert.Equal(t, "hi", res.Content[0].Text)
	assert.Nil(t, res.StructuredContent)
}

func TestToolsList_RegistrationOrder(t *testing.T) {
	h := newTestHandler(newTestDispatcher())

	w := post(h, `{"jsonrpc":"2.0","id":"list-1","method":"tools/list"}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.JSONEq(t, `"list-1"`, string(resp.ID))

	var res listToolsResult
	require.NoError(t, json.Unmarshal(resp.Result, &res))
	require.Len(t, res.Tools, 2)
	assert.Equal(t, "add", res.Tools[0].Name)
	assert.Equal(t, "Add two numbers", res.Tools[0].Description)
	assert.Equal(t, []any{"a", "b"}, res.Tools[0].InputSchema["required"])
	assert.NotNil(t, res.Tools[0].OutputSchema)
	assert.Equal(t, "echo", res.Tools[1].Name)
	assert.Nil(t, res.Tools[1].OutputSchema)
}

func TestInitialize(t *testing.T) {
	h := newTestHandler(newTestDispatcher(), WithServerInfo("toolserve", "1.2.3"), WithInstructions("use add"))

	w := post(h, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"test","version":"0"}}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var res initializeResult
	require.NoError(t, json.Unmarshal(decode(t, w).Result, &res))
	assert.Equal(t, "2024-11-05", res.ProtocolVersion)
	assert.Equal(t, "toolserve", res.ServerInfo.Name)
	assert.Equal(t, "1.2.3", res.ServerInfo.Version)
	assert.Equal(t, "use add", res.Instructions)

	w = post(h, `{"jsonrpc":"2.0","id":2,"method":"initialize","params":{"protocolVersion":"1999-01-01"}}`)
	require.NoError(t, json.Unmarshal(decode(t, w).Result, &res))
	assert.Equal(t, mcp.LATEST_PROTOCOL_VERSION, res.ProtocolVersion)
}

func TestPingAndUnknownMethod(t *testing.T) {
	h := newTestHandler(newTestDispatcher())

	w := post(h, `{"jsonrpc":"2.0","id":7,"method":"ping"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, string(decode(t, w).Result))

	w = post(h, `{"jsonrpc":"2.0","id":8,"method":"resources/list"}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, mcp.METHOD_NOT_FOUND, resp.Error.Code)
}

func TestNotificationAccepted(t *testing.T) {
	d := newTestDispatcher()
	h := newTestHandler(d)

	w := post(h, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Zero(t, d.calls.Load())
}

func TestFramingErrors_NeverReachDispatcher(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		mutate func(*http.Request)
		status int
		code   int
	}{
		{name: "not json", body: `{"jsonrpc":`, status: http.StatusBadRequest, code: mcp.PARSE_ERROR},
		{name: "empty body", body: ``, status: http.StatusBadRequest, code: mcp.PARSE_ERROR},
		{name: "batch", body: `[{"jsonrpc":"2.0","id":1,"method":"ping"}]`, status: http.StatusBadRequest, code: mcp.INVALID_REQUEST},
		{name: "wrong version", body: `{"jsonrpc":"1.0","id":1,"method":"ping"}`, status: http.StatusBadRequest, code: mcp.INVALID_REQUEST},
		{name: "missing method", body: `{"jsonrpc":"2.0","id":1}`, status: http.StatusBadRequest, code: mcp.INVALID_REQUEST},
		{name: "object id", body: `{"jsonrpc":"2.0","id":{},"method":"ping"}`, status: http.StatusBadRequest, code: mcp.INVALID_REQUEST},
		{name: "call without name", body: `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"arguments":{}}}`, status: http.StatusBadRequest, code: mcp.INVALID_PARAMS},
		{name: "call without params", body: `{"jsonrpc":"2.0","id":1,"method":"tools/call"}`, status: http.StatusBadRequest, code: mcp.INVALID_PARAMS},
		{name: "arguments not object", body: callBody(1, "add", `[2,3]`), status: http.StatusBadRequest, code: mcp.INVALID_PARAMS},
		{
			name:   "wrong content type",
			body:   callBody(1, "add", `{"a":1,"b":2}`),
			mutate: func(r *http.Request) { r.Header.Set("Content-Type", "text/plain") },
			status: http.StatusUnsupportedMediaType,
			code:   mcp.INVALID_REQUEST,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDispatcher()
			h := newTestHandler(d)

			var mutate []func(*http.Request)
			if tt.mutate != nil {
				mutate = append(mutate, tt.mutate)
			}
			w := post(h, tt.body, mutate...)
			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Zero(t, d.calls.Load(), "dispatcher must not run on a framing error")
		})
	}
}

func TestBodyTooLarge(t *testing.T) {
	d := newTestDispatcher()
	h := newTestHandler(d, WithMaxBodyBytes(32))

	w := post(h, callBody(1, "echo", `{"message":"`+strings.Repeat("x", 64)+`"}`))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Zero(t, d.calls.Load())
}

func TestGetAndDeleteNotAllowed(t *testing.T) {
	h := newTestHandler(newTestDispatcher())

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		req := httptest.NewRequest(method, "/mcp", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
		assert.Equal(t, http.MethodPost, w.Header().Get("Allow"))
	}
}

func TestEventStreamResponse(t *testing.T) {
	h := newTestHandler(newTestDispatcher())

	w := post(h, callBody(1, "add", `{"a":"2","b":3}`), func(r *http.Request) {
		r.Header.Set("Accept", "application/json, text/event-stream")
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.True(t, w.Flushed)

	sc := bufio.NewScanner(strings.NewReader(w.Body.String()))
	require.True(t, sc.Scan())
	assert.Equal(t, "event: message", sc.Text())
	require.True(t, sc.Scan())
	data, ok := strings.CutPrefix(sc.Text(), "data: ")
	require.True(t, ok)

	var resp wireResponse
	require.NoError(t, json.Unmarshal([]byte(data), &resp))
	var res callResult
	require.NoError(t, json.Unmarshal(resp.Result, &res))
	assert.Equal(t, "5", res.Content[0].Text)
}

func TestJSONResponseOption(t *testing.T) {
	h := newTestHandler(newTestDispatcher(), WithJSONResponse())

	w := post(h, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, func(r *http.Request) {
		r.Header.Set("Accept", "text/event-stream")
	})
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestCORS_PreflightAndRejection(t *testing.T) {
	d := newTestDispatcher()
	h := newTestHandler(d)

	pre := httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	pre.Header.Set("Origin", "http://localhost:5173")
	pre.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, pre)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	narrow := newTestHandler(d, WithPolicy(cors.Permissive().WithOrigins("http://localhost:5173")))
	w = post(narrow, callBody(1, "add", `{"a":1,"b":2}`), func(r *http.Request) {
		r.Header.Set("Origin", "https://elsewhere.example")
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, d.calls.Load(), "rejected origins never reach the dispatcher")
}

func TestHealthAndMetrics(t *testing.T) {
	m := &fakeMetrics{}
	h := newTestHandler(newTestDispatcher(), WithMetrics(m))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","tools":2}`, w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, "# metrics\n", w.Body.String())

	post(h, `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	post(h, `nope`)
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusOK, http.StatusBadRequest}, m.exchanges)
}

func TestCustomPathAndStatefulHandler(t *testing.T) {
	var reached atomic.Bool
	stateful := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached.Store(true)
		w.WriteHeader(http.StatusNoContent)
	})
	h := newTestHandler(newTestDispatcher(), WithPath("/rpc"), WithStatefulHandler(stateful))

	req := httptest.NewRequest(http.MethodGet, "/rpc", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, reached.Load())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
