package schema

import (
	"fmt"
	"slices"

	"github.com/aretw0/toolserve/pkg/domain"
)

// Bind checks raw arguments against a descriptor and returns the coerced values.
//
// Parameters are processed in declaration order. A missing required parameter,
// an explicit null for a required parameter, a value that cannot be coerced, or
// an argument the descriptor does not declare is reported as an
// *domain.ArgumentValidationError. All failures are collected into an
// *AggregateError so the caller sees every offending parameter at once.
func Bind(desc domain.Descriptor, raw map[string]any) (Args, error) {
	out := make(Args, len(desc.Parameters))
	var errs []error

	for _, p := range desc.Parameters {
		value, exists := raw[p.Name]
		if !exists || value == nil {
			if p.Required {
				errs = append(errs, &domain.ArgumentValidationError{
					Parameter: p.Name,
					Reason:    "required",
				})
				continue
			}
			if p.Default != nil {
				out[p.Name] = p.Default
			}
			continue
		}

		coercer, err := For(p.Type)
		if err != nil {
			errs = append(errs, &domain.ArgumentValidationError{Parameter: p.Name, Reason: err.Error()})
			continue
		}
		coerced, err := coercer.Coerce(value)
		if err != nil {
			errs = append(errs, &domain.ArgumentValidationError{
				Parameter: p.Name,
				Reason:    err.Error(),
				Value:     value,
			})
			continue
		}
		out[p.Name] = coerced
	}

	for _, name := range unknownArguments(desc, raw) {
		errs = append(errs, &domain.ArgumentValidationError{
			Parameter: name,
			Reason:    "unexpected argument",
		})
	}

	if len(errs) > 0 {
		return nil, &AggregateError{Errors: errs}
	}
	return out, nil
}

// unknownArguments returns, sorted, the argument names the descriptor does not declare.
func unknownArguments(desc domain.Descriptor, raw map[string]any) []string {
	var extra []string
	for name := range raw {
		if _, ok := desc.Parameter(name); !ok {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	return extra
}

// ValidateDescriptor checks that a descriptor can be published.
func ValidateDescriptor(desc domain.Descriptor) error {
	if desc.Name == "" {
		return &domain.InvalidDescriptorError{Reason: "name is empty"}
	}
	if !desc.Returns.ValidReturn() {
		return &domain.InvalidDescriptorError{
			Name:   desc.Name,
			Reason: fmt.Sprintf("unsupported return type %q", desc.Returns),
		}
	}
	seen := make(map[string]struct{}, len(desc.Parameters))
	for _, p := range desc.Parameters {
		if p.Name == "" {
			return &domain.InvalidDescriptorError{Name: desc.Name, Reason: "parameter with empty name"}
		}
		if _, dup := seen[p.Name]; dup {
			return &domain.InvalidDescriptorError{
				Name:   desc.Name,
				Reason: fmt.Sprintf("parameter %q declared twice", p.Name),
			}
		}
		seen[p.Name] = struct{}{}
		if !p.Type.ValidParameter() {
			return &domain.InvalidDescriptorError{
				Name:   desc.Name,
				Reason: fmt.Sprintf("parameter %q has unsupported type %q", p.Name, p.Type),
			}
		}
	}
	return nil
}
