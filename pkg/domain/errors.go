package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownTool is matched by every UnknownToolError.
var ErrUnknownTool = errors.New("tool not found")

// ErrRegistrySealed is returned when registering into a registry that has been sealed.
var ErrRegistrySealed = errors.New("registry is sealed")

// UnknownToolError is returned when a name is not registered.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q: not found", e.Name)
}

func (e *UnknownToolError) Is(target error) bool {
	return target == ErrUnknownTool
}

// DuplicateToolError is returned when a name is registered twice.
// It signals a programming error and is fatal at startup.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Name)
}

// InvalidDescriptorError is returned for a descriptor that cannot be published.
type InvalidDescriptorError struct {
	Name   string
	Reason string
}

func (e *InvalidDescriptorError) Error() string {
	if e.Name == "" {
		return "invalid tool descriptor: " + e.Reason
	}
	return fmt.Sprintf("invalid tool descriptor %q: %s", e.Name, e.Reason)
}

// ArgumentValidationError reports a missing or mistyped argument.
type ArgumentValidationError struct {
	Parameter string
	Reason    string
	Value     any
}

func (e *ArgumentValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("parameter %q: %s", e.Parameter, e.Reason)
	}
	return fmt.Sprintf("parameter %q: %s (got %T)", e.Parameter, e.Reason, e.Value)
}

// HandlerFault wraps a panic or a Go error escaping a tool handler.
type HandlerFault struct {
	Tool  string
	Cause error
	// Panicked is set when the handler panicked rather than returned an error.
	Panicked bool
}

func (e *HandlerFault) Error() string {
	if e.Panicked {
		return fmt.Sprintf("tool %q panicked: %v", e.Tool, e.Cause)
	}
	return fmt.Sprintf("tool %q failed: %v", e.Tool, e.Cause)
}

func (e *HandlerFault) Unwrap() error { return e.Cause }

// FramingError is a protocol-level problem with an inbound exchange.
// It is answered by the transport and never reaches the dispatcher.
type FramingError struct {
	Status  int
	Code    int
	Message string
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("framing error (%d): %s", e.Status, e.Message)
}
