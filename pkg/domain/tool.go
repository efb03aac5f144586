package domain

// Type is the semantic type of a tool parameter or return value.
type Type string

const (
	TypeInteger Type = "integer"
	TypeNumber  Type = "number"
	TypeString  Type = "string"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
	TypeAny     Type = "any"
	// TypeText is only meaningful as a return type: the value is shown to the client as-is.
	TypeText Type = "text"
)

// ValidParameter reports whether t may be declared for a parameter.
func (t Type) ValidParameter() bool {
	switch t {
	case TypeInteger, TypeNumber, TypeString, TypeBoolean, TypeArray, TypeObject, TypeAny:
		return true
	}
	return false
}

// ValidReturn reports whether t may be declared as a return type.
// The empty type is accepted and treated as TypeText.
func (t Type) ValidReturn() bool {
	return t == "" || t == TypeText || t.ValidParameter()
}

// Parameter describes one named argument of a tool.
type Parameter struct {
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	Type        Type   `json:"type" yaml:"type" mapstructure:"type"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Required    bool   `json:"required" yaml:"required" mapstructure:"required"`
	// Default is used when an optional parameter is absent.
	Default any `json:"default,omitempty" yaml:"default,omitempty" mapstructure:"default"`
}

// Descriptor is the static metadata of a tool.
// Parameters keep their declared order, which is also the advertised order.
type Descriptor struct {
	Name        string      `json:"name" yaml:"name" mapstructure:"name"`
	Description string      `json:"description" yaml:"description" mapstructure:"description"`
	Parameters  []Parameter `json:"parameters" yaml:"parameters" mapstructure:"parameters"`
	Returns     Type        `json:"returns" yaml:"returns" mapstructure:"returns"`
}

// NewDescriptor builds a Descriptor from its parts.
func NewDescriptor(name, description string, returns Type, params ...Parameter) Descriptor {
	return Descriptor{
		Name:        name,
		Description: description,
		Parameters:  params,
		Returns:     returns,
	}
}

// Required declares a parameter that must be present.
func Required(name string, t Type, description string) Parameter {
	return Parameter{Name: name, Type: t, Description: description, Required: true}
}

// Optional declares a parameter that may be omitted; def is used in its place.
func Optional(name string, t Type, description string, def any) Parameter {
	return Parameter{Name: name, Type: t, Description: description, Default: def}
}

// Parameter returns the parameter with the given name.
func (d Descriptor) Parameter(name string) (Parameter, bool) {
	for _, p := range d.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// ReturnType returns the declared return type, defaulting to TypeText.
func (d Descriptor) ReturnType() Type {
	if d.Returns == "" {
		return TypeText
	}
	return d.Returns
}

// Clone returns a copy that shares no parameter storage with d.
func (d Descriptor) Clone() Descriptor {
	c := d
	if d.Parameters != nil {
		c.Parameters = make([]Parameter, len(d.Parameters))
		copy(c.Parameters, d.Parameters)
	}
	return c
}

// InvocationRequest asks for one execution of a named tool.
type InvocationRequest struct {
	Tool      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
	// CorrelationID ties log lines and spans of one invocation together.
	// The dispatcher assigns one when it is empty.
	CorrelationID string `json:"correlation_id,omitempty"`
}
