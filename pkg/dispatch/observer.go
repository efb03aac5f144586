package dispatch

import (
	"context"
	"time"
)

// Invocation summarises one finished dispatch for observers.
type Invocation struct {
	Tool          string
	CorrelationID string
	// Outcome is "ok" or the failure kind (see domain.Result.Outcome).
	Outcome  string
	Message  string
	Started  time.Time
	Duration time.Duration
}

// Observer is notified after every dispatch, successful or not.
type Observer interface {
	ObserveInvocation(ctx context.Context, inv Invocation)
}

// ObserverFunc adapts a function into an Observer.
type ObserverFunc func(ctx context.Context, inv Invocation)

func (f ObserverFunc) ObserveInvocation(ctx context.Context, inv Invocation) { f(ctx, inv) }
