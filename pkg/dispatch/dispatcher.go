package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/toolserve/pkg/domain"
	"github.com/aretw0/toolserve/pkg/registry"
	"github.com/aretw0/toolserve/pkg/schema"
)

// Catalog is the read side of the tool registry.
type Catalog interface {
	Lookup(name string) (registry.Entry, error)
	List() []domain.Descriptor
}

// Dispatcher resolves invocation requests against a Catalog, validates
// arguments and runs handlers. It never panics and never returns a Go error:
// every outcome is a domain.Result.
type Dispatcher struct {
	catalog        Catalog
	logger         *slog.Logger
	observers      []Observer
	maxMessageSize int
}

// New creates a Dispatcher over the given catalog.
func New(catalog Catalog, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		catalog: catalog,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Tools returns the catalog's descriptors in registration order.
func (d *Dispatcher) Tools() []domain.Descriptor {
	return d.catalog.List()
}

// Dispatch runs one invocation.
func (d *Dispatcher) Dispatch(ctx context.Context, req domain.InvocationRequest) domain.Result {
	started := time.Now()
	if req.CorrelationID == "" {
		req.CorrelationID = uuid.NewString()
	}
	logger := d.logger.With("tool", req.Tool, "correlation_id", req.CorrelationID)

	result := d.dispatch(ctx, req, logger)
	if result.Failed {
		result.Message = Sanitize(result.Message, d.maxMessageSize)
	}

	elapsed := time.Since(started)
	if result.Failed {
		logger.Warn("Dispatch failed", "outcome", result.Outcome(), "message", result.Message, "duration", elapsed)
	} else {
		logger.Debug("Dispatch succeeded", "duration", elapsed)
	}

	d.notify(ctx, Invocation{
		Tool:          req.Tool,
		CorrelationID: req.CorrelationID,
		Outcome:       result.Outcome(),
		Message:       result.Message,
		Started:       started,
		Duration:      elapsed,
	}, logger)
	return result
}

func (d *Dispatcher) dispatch(ctx context.Context, req domain.InvocationRequest, logger *slog.Logger) domain.Result {
	entry, err := d.catalog.Lookup(req.Tool)
	if err != nil {
		return domain.FailureOf(domain.FailureUnknownTool, err.Error())
	}

	args, err := schema.Bind(entry.Descriptor, req.Arguments)
	if err != nil {
		logger.Info("Dispatch: invalid arguments", "parameters", schema.Parameters(err))
		return domain.FailureOf(domain.FailureInvalidArguments,
			fmt.Sprintf("invalid arguments for tool %q: %v", req.Tool, err))
	}

	logger.Debug("Dispatch: invoking handler", "args", len(args))
	return d.invoke(ctx, req.Tool, entry.Handler, args, logger)
}

// invoke runs the handler, turning panics and returned errors into handler faults.
func (d *Dispatcher) invoke(ctx context.Context, tool string, h registry.Handler, args schema.Args, logger *slog.Logger) (res domain.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			fault := &domain.HandlerFault{Tool: tool, Cause: fmt.Errorf("%v", rec), Panicked: true}
			logger.Error("Dispatch: handler panicked", "error", fault, "stack", string(debug.Stack()))
			res = domain.FailureOf(domain.FailureHandlerFault, fmt.Sprintf("tool %q failed: internal error", tool))
		}
	}()

	res = h(ctx, args)
	if !res.Failed {
		return res
	}
	switch res.Kind {
	case domain.FailureHandlerFault:
		fault := &domain.HandlerFault{Tool: tool, Cause: fmt.Errorf("%s", res.Message)}
		logger.Error("Dispatch: handler returned an error", "error", fault)
		res.Message = fault.Error()
	case "":
		res.Kind = domain.FailureTool
	}
	return res
}

func (d *Dispatcher) notify(ctx context.Context, inv Invocation, logger *slog.Logger) {
	for _, o := range d.observers {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("Dispatch: observer panicked", "panic", rec)
				}
			}()
			o.ObserveInvocation(ctx, inv)
		}()
	}
}
