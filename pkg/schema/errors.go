package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/toolserve/pkg/domain"
)

// AggregateError represents multiple argument validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	parts := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("%d validation errors: %s", len(e.Errors), strings.Join(parts, "; "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error { return e.Errors }

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}

// Parameters returns the names of the parameters that failed validation, in order.
func Parameters(err error) []string {
	var names []string
	for _, e := range ValidationErrors(err) {
		var argErr *domain.ArgumentValidationError
		if errors.As(e, &argErr) {
			names = append(names, argErr.Parameter)
		}
	}
	return names
}
