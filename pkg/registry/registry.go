package registry

import (
	"context"
	"sync"

	"github.com/aretw0/toolserve/pkg/domain"
	"github.com/aretw0/toolserve/pkg/schema"
)

// Handler is the executable behavior bound to one tool.
// It receives validated arguments and reports its outcome as a domain.Result.
type Handler func(ctx context.Context, args schema.Args) domain.Result

// ToolFunction is the plain Go shape of a tool: a value or an error.
type ToolFunction func(ctx context.Context, args schema.Args) (any, error)

// FromFunc adapts a ToolFunction into a Handler.
// A returned error surfaces as a handler fault, the same way a panic does.
func FromFunc(fn ToolFunction) Handler {
	return func(ctx context.Context, args schema.Args) domain.Result {
		v, err := fn(ctx, args)
		if err != nil {
			return domain.Result{Failed: true, Kind: domain.FailureHandlerFault, Message: err.Error()}
		}
		return domain.Success(v)
	}
}

// Entry pairs a published descriptor with its handler.
type Entry struct {
	Descriptor domain.Descriptor
	Handler    Handler
}

// Registry maps tool names to their descriptor and handler.
// It is filled once at startup and only read afterwards.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string
	sealed  bool
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
	}
}

// Register adds a tool to the registry.
// It fails with *domain.DuplicateToolError if the name is taken, leaving the
// existing registration untouched.
func (r *Registry) Register(desc domain.Descriptor, handler Handler) error {
	if err := schema.ValidateDescriptor(desc); err != nil {
		return err
	}
	if handler == nil {
		return &domain.InvalidDescriptorError{Name: desc.Name, Reason: "handler is nil"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return domain.ErrRegistrySealed
	}
	if _, exists := r.entries[desc.Name]; exists {
		return &domain.DuplicateToolError{Name: desc.Name}
	}

	r.entries[desc.Name] = Entry{Descriptor: desc.Clone(), Handler: handler}
	r.order = append(r.order, desc.Name)
	return nil
}

// MustRegister is Register for startup code, where a failure is a programming error.
func (r *Registry) MustRegister(desc domain.Descriptor, handler Handler) {
	if err := r.Register(desc, handler); err != nil {
		panic(err)
	}
}

// Seal stops further registrations. The published schemas are then fixed for
// the life of the process.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Lookup returns the entry registered under name.
// It fails with *domain.UnknownToolError (matching domain.ErrUnknownTool).
func (r *Registry) Lookup(name string) (Entry, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return Entry{}, &domain.UnknownToolError{Name: name}
	}
	e.Descriptor = e.Descriptor.Clone()
	return e, nil
}

// List returns every descriptor in registration order.
func (r *Registry) List() []domain.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].Descriptor.Clone())
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
