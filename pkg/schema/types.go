package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/toolserve/pkg/domain"
	"github.com/spf13/cast"
)

// Type defines how a raw JSON value is turned into a value of one semantic type.
type Type interface {
	// Name returns the semantic type name (e.g., "integer", "string").
	Name() string
	// Coerce converts value to the Go representation of this type, or fails.
	Coerce(value any) (any, error)
}

// --- Built-in Type Implementations ---

// IntegerType coerces to int64. Whole JSON numbers and numeric strings are accepted.
type IntegerType struct{}

func (t *IntegerType) Name() string { return string(domain.TypeInteger) }

func (t *IntegerType) Coerce(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return nil, fmt.Errorf("expected integer, got boolean")
	case string:
		s := strings.TrimSpace(v)
		i, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return i, nil
		}
		if errors.Is(err, strconv.ErrRange) {
			return nil, errIntegerRange
		}
		// Whole numbers written as "5.0" or "1e3".
		f, err := cast.ToFloat64E(s)
		if err != nil {
			return nil, fmt.Errorf("expected integer, got %q", v)
		}
		return wholeNumber(f)
	case float32:
		return wholeNumber(float64(v))
	case float64:
		return wholeNumber(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("expected integer, got %q", v.String())
		}
		return wholeNumber(f)
	}
	i, err := cast.ToInt64E(value)
	if err != nil {
		return nil, fmt.Errorf("expected integer, got %T", value)
	}
	return i, nil
}

// int64 covers [-2^63, 2^63).
const int64Bound = 1 << 63

var errIntegerRange = errors.New("integer out of range")

func wholeNumber(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, fmt.Errorf("expected integer, got a fractional number")
	}
	if f >= int64Bound || f < -int64Bound {
		return nil, errIntegerRange
	}
	return int64(f), nil
}

// NumberType coerces to float64.
type NumberType struct{}

func (t *NumberType) Name() string { return string(domain.TypeNumber) }

func (t *NumberType) Coerce(value any) (any, error) {
	if _, ok := value.(bool); ok {
		return nil, fmt.Errorf("expected number, got boolean")
	}
	if s, ok := value.(string); ok {
		value = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return nil, fmt.Errorf("expected number, got %T", value)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("expected a finite number")
	}
	return f, nil
}

// StringType only accepts strings; numbers are not stringified.
type StringType struct{}

func (t *StringType) Name() string { return string(domain.TypeString) }

func (t *StringType) Coerce(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", value)
	}
	return s, nil
}

// BooleanType accepts booleans and their textual forms ("true", "false", "1", "0").
type BooleanType struct{}

func (t *BooleanType) Name() string { return string(domain.TypeBoolean) }

func (t *BooleanType) Coerce(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := cast.ToBoolE(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("expected boolean, got %q", v)
		}
		return b, nil
	}
	return nil, fmt.Errorf("expected boolean, got %T", value)
}

// ArrayType coerces to []any. A string holding a JSON array is decoded.
type ArrayType struct{}

func (t *ArrayType) Name() string { return string(domain.TypeArray) }

func (t *ArrayType) Coerce(value any) (any, error) {
	if s, ok := value.(string); ok {
		var decoded []any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return nil, fmt.Errorf("expected array, got string")
		}
		return decoded, nil
	}
	if _, ok := value.(map[string]any); ok {
		return nil, fmt.Errorf("expected array, got object")
	}
	out, err := cast.ToSliceE(value)
	if err != nil {
		return nil, fmt.Errorf("expected array, got %T", value)
	}
	return out, nil
}

// ObjectType coerces to map[string]any. A string holding a JSON object is decoded.
type ObjectType struct{}

func (t *ObjectType) Name() string { return string(domain.TypeObject) }

func (t *ObjectType) Coerce(value any) (any, error) {
	m, err := cast.ToStringMapE(value)
	if err != nil {
		return nil, fmt.Errorf("expected object, got %T", value)
	}
	return m, nil
}

// AnyType accepts every value unchanged.
type AnyType struct{}

func (t *AnyType) Name() string { return string(domain.TypeAny) }

func (t *AnyType) Coerce(value any) (any, error) { return value, nil }

// --- Factory Functions ---

// Integer creates an integer coercer.
func Integer() Type { return &IntegerType{} }

// Number creates a number coercer.
func Number() Type { return &NumberType{} }

// String creates a string coercer.
func String() Type { return &StringType{} }

// Boolean creates a boolean coercer.
func Boolean() Type { return &BooleanType{} }

// Array creates an array coercer.
func Array() Type { return &ArrayType{} }

// Object creates an object coercer.
func Object() Type { return &ObjectType{} }

// Any creates a pass-through coercer.
func Any() Type { return &AnyType{} }

// For returns the coercer for a declared parameter type.
func For(t domain.Type) (Type, error) {
	switch t {
	case domain.TypeInteger:
		return Integer(), nil
	case domain.TypeNumber:
		return Number(), nil
	case domain.TypeString:
		return String(), nil
	case domain.TypeBoolean:
		return Boolean(), nil
	case domain.TypeArray:
		return Array(), nil
	case domain.TypeObject:
		return Object(), nil
	case domain.TypeAny:
		return Any(), nil
	default:
		return nil, fmt.Errorf("unsupported parameter type: %q", t)
	}
}
