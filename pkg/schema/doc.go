// Package schema turns raw, untyped tool arguments into typed values.
//
// Each semantic type (integer, number, string, boolean, array, object, any)
// has a coercer. Bind walks a descriptor's parameters, applies defaults,
// coerces each value and reports every offending parameter by name:
//
//	desc := domain.NewDescriptor("add", "Add two numbers", domain.TypeInteger,
//	    domain.Required("a", domain.TypeInteger, ""),
//	    domain.Required("b", domain.TypeInteger, ""),
//	)
//
//	args, err := schema.Bind(desc, map[string]any{"a": 2.0, "b": "3"})
//	// args.Int("a") == 2, args.Int("b") == 3
//
// Coercion is lenient in the way JSON clients need: whole floats and numeric
// strings become integers, "true"/"false" become booleans, and JSON text is
// decoded for array and object parameters. Strings are never produced from
// other types.
//
// The package also renders descriptors as JSON Schema for tool discovery.
package schema
