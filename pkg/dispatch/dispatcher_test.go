package dispatch_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/toolserve/pkg/dispatch"
	"github.com/aretw0/toolserve/pkg/domain"
	"github.com/aretw0/toolserve/pkg/registry"
	"github.com/aretw0/toolserve/pkg/schema"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	reg      *registry.Registry
	d        *dispatch.Dispatcher
	addCalls atomic.Int32
	seen     []dispatch.Invocation
	mu       sync.Mutex
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{reg: registry.NewRegistry()}

	f.reg.MustRegister(domain.NewDescriptor("add", "Add two numbers", domain.TypeInteger,
		domain.Required("a", domain.TypeInteger, ""),
		domain.Required("b", domain.TypeInteger, ""),
	), func(_ context.Context, args schema.Args) domain.Result {
		f.addCalls.Add(1)
		return domain.Success(args.Int("a") + args.Int("b"))
	})
	f.reg.MustRegister(domain.NewDescriptor("explode", "", domain.TypeText),
		func(context.Context, schema.Args) domain.Result {
			var m map[string]int
			m["boom"] = 1 // nil map write
			return domain.Success("unreachable")
		})
	f.reg.MustRegister(domain.NewDescriptor("fails", "", domain.TypeText),
		registry.FromFunc(func(context.Context, schema.Args) (any, error) {
			return nil, errors.New("disk unavailable")
		}))
	f.reg.MustRegister(domain.NewDescriptor("refuses", "", domain.TypeText),
		func(context.Context, schema.Args) domain.Result {
			return domain.Result{Failed: true, Message: "not today"}
		})
	f.reg.Seal()

	f.d = dispatch.New(f.reg,
		dispatch.WithLogger(quietLogger()),
		dispatch.WithObserver(dispatch.ObserverFunc(func(_ context.Context, inv dispatch.Invocation) {
			f.mu.Lock()
			f.seen = append(f.seen, inv)
			f.mu.Unlock()
		})),
	)
	return f
}

func call(d *dispatch.Dispatcher, tool string, args map[string]any) domain.Result {
	return d.Dispatch(context.Background(), domain.InvocationRequest{Tool: tool, Arguments: args})
}

func TestDispatch_AddScenario(t *testing.T) {
	f := newFixture(t)

	res := call(f.d, "add", map[string]any{"a": 2.0, "b": 3.0})
	require.False(t, res.Failed, res.Message)
	assert.Equal(t, int64(5), res.Value)
	assert.Equal(t, "5", res.Text())
	assert.Equal(t, int32(1), f.addCalls.Load(), "handler must run exactly once")

	res = call(f.d, "add", map[string]any{"a": 2.0})
	require.True(t, res.Failed)
	assert.Equal(t, domain.FailureInvalidArguments, res.Kind)
	assert.Contains(t, res.Message, `"b"`)
	assert.Equal(t, int32(1), f.addCalls.Load(), "handler must not run on invalid arguments")

	res = call(f.d, "multiply", map[string]any{"a": 2.0, "b": 3.0})
	require.True(t, res.Failed)
	assert.Equal(t, domain.FailureUnknownTool, res.Kind)
	assert.Contains(t, res.Message, "not found")
}

func TestDispatch_LogsOffendingParameters(t *testing.T) {
	reg := registry.NewRegistry()
	reg.MustRegister(domain.NewDescriptor("add", "", domain.TypeInteger,
		domain.Required("a", domain.TypeInteger, ""),
		domain.Required("b", domain.TypeInteger, ""),
	), func(_ context.Context, args schema.Args) domain.Result {
		return domain.Success(args.Int("a") + args.Int("b"))
	})

	var buf bytes.Buffer
	d := dispatch.New(reg, dispatch.WithLogger(slog.New(slog.NewJSONHandler(&buf, nil))))
	call(d, "add", map[string]any{"a": "two"})

	var found bool
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["msg"] == "Dispatch: invalid arguments" {
			found = true
			assert.Equal(t, []any{"a", "b"}, entry["parameters"])
			assert.Equal(t, "add", entry["tool"])
		}
	}
	assert.True(t, found, "invalid arguments are logged with the offending parameters")
}

func TestDispatch_MistypedArgument(t *testing.T) {
	f := newFixture(t)

	res := call(f.d, "add", map[string]any{"a": "two", "b": 3})
	require.True(t, res.Failed)
	assert.Contains(t, res.Message, `"a"`)
	assert.Equal(t, int32(0), f.addCalls.Load())
}

func TestDispatch_PanicIsContained(t *testing.T) {
	f := newFixture(t)

	var res domain.Result
	require.NotPanics(t, func() { res = call(f.d, "explode", nil) })
	require.True(t, res.Failed)
	assert.Equal(t, domain.FailureHandlerFault, res.Kind)
	assert.Equal(t, `tool "explode" failed: internal error`, res.Message)

	// The process stays healthy for the next invocation.
	res = call(f.d, "add", map[string]any{"a": 1, "b": 1})
	require.False(t, res.Failed)
	assert.Equal(t, int64(2), res.Value)
}

func TestDispatch_ReturnedErrorIsFault(t *testing.T) {
	f := newFixture(t)

	res := call(f.d, "fails", nil)
	require.True(t, res.Failed)
	assert.Equal(t, domain.FailureHandlerFault, res.Kind)
	assert.Equal(t, `tool "fails" failed: disk unavailable`, res.Message)
}

func TestDispatch_ToolFailureDefaultsKind(t *testing.T) {
	f := newFixture(t)

	res := call(f.d, "refuses", nil)
	require.True(t, res.Failed)
	assert.Equal(t, domain.FailureTool, res.Kind)
	assert.Equal(t, "not today", res.Message)
}

func TestDispatch_ObserversSeeEveryInvocation(t *testing.T) {
	f := newFixture(t)

	call(f.d, "add", map[string]any{"a": 1, "b": 2})
	f.d.Dispatch(context.Background(), domain.InvocationRequest{Tool: "nope", CorrelationID: "corr-1"})

	require.Len(t, f.seen, 2)
	assert.Equal(t, "add", f.seen[0].Tool)
	assert.Equal(t, domain.OutcomeOK, f.seen[0].Outcome)
	assert.NotEmpty(t, f.seen[0].CorrelationID, "a correlation id is assigned when missing")

	assert.Equal(t, "nope", f.seen[1].Tool)
	assert.Equal(t, "unknown_tool", f.seen[1].Outcome)
	assert.Equal(t, "corr-1", f.seen[1].CorrelationID)
}

func TestDispatch_ObserverPanicIsContained(t *testing.T) {
	reg := registry.NewRegistry()
	reg.MustRegister(domain.NewDescriptor("noop", "", domain.TypeText),
		func(context.Context, schema.Args) domain.Result { return domain.Success("ok") })

	d := dispatch.New(reg,
		dispatch.WithLogger(quietLogger()),
		dispatch.WithObserver(dispatch.ObserverFunc(func(context.Context, dispatch.Invocation) {
			panic("observer bug")
		})),
	)

	var res domain.Result
	require.NotPanics(t, func() { res = call(d, "noop", nil) })
	assert.Equal(t, "ok", res.Value)
}

func TestDispatch_MessagesAreSanitized(t *testing.T) {
	reg := registry.NewRegistry()
	reg.MustRegister(domain.NewDescriptor("noisy", "", domain.TypeText),
		func(context.Context, schema.Args) domain.Result {
			return domain.Failure("\x1b[31m" + strings.Repeat("x", 100))
		})

	d := dispatch.New(reg, dispatch.WithLogger(quietLogger()), dispatch.WithMaxMessageSize(32))

	res := call(d, "noisy", nil)
	require.True(t, res.Failed)
	assert.LessOrEqual(t, len(res.Message), 32)
	assert.NotContains(t, res.Message, "\x1b")
}

func TestDispatch_ConcurrentInvocations(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res := call(f.d, "add", map[string]any{"a": i, "b": 1})
			assert.False(t, res.Failed)
			assert.Equal(t, int64(i+1), res.Value)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(32), f.addCalls.Load())
}

func TestDispatcher_Tools(t *testing.T) {
	f := newFixture(t)

	var names []string
	for _, desc := range f.d.Tools() {
		names = append(names, desc.Name)
	}
	assert.Equal(t, []string{"add", "explode", "fails", "refuses"}, names)
}
