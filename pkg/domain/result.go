package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FailureKind classifies why an invocation failed.
type FailureKind string

const (
	// FailureTool is a failure the handler reported itself.
	FailureTool FailureKind = "tool_error"
	// FailureUnknownTool means the requested name is not registered.
	FailureUnknownTool FailureKind = "unknown_tool"
	// FailureInvalidArguments means an argument was missing or could not be coerced.
	FailureInvalidArguments FailureKind = "invalid_arguments"
	// FailureHandlerFault means the handler panicked or returned a Go error.
	FailureHandlerFault FailureKind = "handler_fault"
)

// OutcomeOK labels a successful invocation in logs and metrics.
const OutcomeOK = "ok"

// Result is the outcome of an invocation: Success(value) or Failure(message).
// A Failure is an ordinary value and never crosses the transport as a fault.
type Result struct {
	Value   any         `json:"value,omitempty"`
	Message string      `json:"message,omitempty"`
	Failed  bool        `json:"failed"`
	Kind    FailureKind `json:"kind,omitempty"`
}

// Success wraps a handler's return value.
func Success(v any) Result {
	return Result{Value: v}
}

// Failure builds a tool-reported failure.
func Failure(message string) Result {
	return Result{Message: message, Failed: true, Kind: FailureTool}
}

// Failuref builds a tool-reported failure from a format string.
func Failuref(format string, args ...any) Result {
	return Failure(fmt.Sprintf(format, args...))
}

// FailureOf builds a failure of the given kind.
func FailureOf(kind FailureKind, message string) Result {
	return Result{Message: message, Failed: true, Kind: kind}
}

// Outcome returns "ok" for a success, or the failure kind.
func (r Result) Outcome() string {
	if !r.Failed {
		return OutcomeOK
	}
	if r.Kind == "" {
		return string(FailureTool)
	}
	return string(r.Kind)
}

// Text renders the result for a text content block.
// Strings are returned verbatim; other values are rendered as JSON.
func (r Result) Text() string {
	if r.Failed {
		return r.Message
	}
	switch v := r.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	}
	b, err := json.Marshal(r.Value)
	if err != nil {
		return fmt.Sprintf("%v", r.Value)
	}
	return string(b)
}
