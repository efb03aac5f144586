package schema

import "github.com/aretw0/toolserve/pkg/domain"

// InputSchema renders a descriptor's parameters as a JSON Schema object,
// the shape clients expect in a tool listing.
func InputSchema(desc domain.Descriptor) map[string]any {
	props := make(map[string]any, len(desc.Parameters))
	required := make([]string, 0, len(desc.Parameters))

	for _, p := range desc.Parameters {
		prop := typeSchema(p.Type)
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

// OutputSchema describes structured results for non-text return types.
// The value is wrapped as {"result": value}. Text tools have no output schema.
func OutputSchema(desc domain.Descriptor) map[string]any {
	rt := desc.ReturnType()
	if rt == domain.TypeText {
		return nil
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"result": typeSchema(rt),
		},
		"required": []string{"result"},
	}
}

// StructuredResult wraps a success value the way OutputSchema describes it.
// It returns nil for text tools.
func StructuredResult(desc domain.Descriptor, value any) map[string]any {
	if desc.ReturnType() == domain.TypeText {
		return nil
	}
	return map[string]any{"result": value}
}

func typeSchema(t domain.Type) map[string]any {
	switch t {
	case domain.TypeAny, "":
		return map[string]any{}
	case domain.TypeText:
		return map[string]any{"type": "string"}
	default:
		return map[string]any{"type": string(t)}
	}
}
