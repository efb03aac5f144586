package schema

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Args holds validated arguments, keyed by parameter name.
// Values have already been coerced to their declared types: integer → int64,
// number → float64, string → string, boolean → bool, array → []any,
// object → map[string]any.
type Args map[string]any

// Has reports whether an argument is present (after defaults were applied).
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// Value returns the raw coerced value of an argument.
func (a Args) Value(name string) any {
	return a[name]
}

// Int returns an integer argument, or 0 when absent.
func (a Args) Int(name string) int64 {
	switch v := a[name].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

// Float returns a number argument, or 0 when absent.
func (a Args) Float(name string) float64 {
	switch v := a[name].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

// String returns a string argument, or "" when absent.
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Bool returns a boolean argument, or false when absent.
func (a Args) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

// Decode copies the arguments into a struct using `mapstructure` tags.
func (a Args) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("failed to build argument decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(a)); err != nil {
		return fmt.Errorf("failed to decode arguments: %w", err)
	}
	return nil
}
