// Package jsonschema provides the JSON Schema representation used by the
// modbridge inference pipeline. The struct mirrors the subset of JSON
// Schema that schema backends can produce: primitive types with formats,
// object schemas with properties and required lists, arrays with item
// schemas, and basic length/range constraints.
//
// Schemas produced by inference are always object-rooted; EmptyObject and
// Permissive provide the degraded fallbacks used when no type information
// is available.
package jsonschema

import (
	"sort"

	json "github.com/goccy/go-json"
)

// Schema is a minimal JSON Schema representation.
type Schema struct {
	// Core
	Type        string `json:"type,omitempty"`
	Format      string `json:"format,omitempty"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
	Enum        []any  `json:"enum,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`

	// Array
	Items    *Schema `json:"items,omitempty"`
	MinItems *int    `json:"minItems,omitempty"`
	MaxItems *int    `json:"maxItems,omitempty"`

	// String
	MinLength *int `json:"minLength,omitempty"`
	MaxLength *int `json:"maxLength,omitempty"`

	// Number
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`

	// Union
	OneOf []*Schema `json:"oneOf,omitempty"`
}

// EmptyObject returns the degraded input schema: an object with no known
// properties. Used when no backend can infer anything about a handler.
func EmptyObject() *Schema {
	return &Schema{Type: "object", Properties: map[string]*Schema{}}
}

// Permissive returns the degraded output schema: an unconstrained object.
func Permissive() *Schema {
	return &Schema{Type: "object"}
}

// String returns a plain string schema.
func String() *Schema { return &Schema{Type: "string"} }

// Integer returns a plain integer schema.
func Integer() *Schema { return &Schema{Type: "integer"} }

// Number returns a plain number schema.
func Number() *Schema { return &Schema{Type: "number"} }

// Boolean returns a plain boolean schema.
func Boolean() *Schema { return &Schema{Type: "boolean"} }

// StringFormat returns a string schema with the given format
// (e.g. "uuid", "date-time", "email").
func StringFormat(format string) *Schema {
	return &Schema{Type: "string", Format: format}
}

// Clone returns a deep copy of the schema. Backends clone shared table
// entries before returning them so callers can mutate freely.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := *s
	if s.Properties != nil {
		out.Properties = make(map[string]*Schema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = v.Clone()
		}
	}
	out.Required = append([]string(nil), s.Required...)
	out.Enum = append([]any(nil), s.Enum...)
	out.Items = s.Items.Clone()
	if s.OneOf != nil {
		out.OneOf = make([]*Schema, len(s.OneOf))
		for i, v := range s.OneOf {
			out.OneOf[i] = v.Clone()
		}
	}
	out.MinItems = cloneInt(s.MinItems)
	out.MaxItems = cloneInt(s.MaxItems)
	out.MinLength = cloneInt(s.MinLength)
	out.MaxLength = cloneInt(s.MaxLength)
	out.Minimum = cloneFloat(s.Minimum)
	out.Maximum = cloneFloat(s.Maximum)
	return &out
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// HasProperties reports whether the schema declares at least one property.
// An object schema with zero properties is what inference degrades to, so
// this is the signal used to emit "no type information" warnings.
func (s *Schema) HasProperties() bool {
	return s != nil && len(s.Properties) > 0
}

// PropertyNames returns the schema's property names in sorted order.
func (s *Schema) PropertyNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetProperty installs a property schema, allocating the property map if
// needed.
func (s *Schema) SetProperty(name string, prop *Schema) {
	if s.Properties == nil {
		s.Properties = map[string]*Schema{}
	}
	s.Properties[name] = prop
}

// Require appends a name to the required list if not already present.
func (s *Schema) Require(name string) {
	for _, r := range s.Required {
		if r == name {
			return
		}
	}
	s.Required = append(s.Required, name)
}

// ToMap converts the schema into a generic map form, as consumed by the
// MCP SDK's tool definitions and the artifact writers.
func (s *Schema) ToMap() (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
