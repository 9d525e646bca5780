package jsonschema

import (
	"fmt"
	"sort"

	gsjs "github.com/reoring/goskema/jsonschema"
)

// FromGoskema converts a goskema-exported schema into the modbridge
// representation. The conversion is field-by-field over a fixed type
// table; unknown or missing types degrade to a string schema and are
// reported as warnings rather than errors.
func FromGoskema(src *gsjs.Schema) (*Schema, []string) {
	var warnings []string
	out := fromGoskema(src, "", &warnings)
	return out, warnings
}

func fromGoskema(src *gsjs.Schema, path string, warnings *[]string) *Schema {
	if src == nil {
		*warnings = append(*warnings, warnAt(path, "missing schema, defaulting to string"))
		return String()
	}

	switch src.Type {
	case "string", "integer", "number", "boolean":
		return &Schema{
			Type:    src.Type,
			Format:  src.Format,
			Default: src.Default,
		}
	case "array":
		out := &Schema{
			Type:     "array",
			Default:  src.Default,
			MinItems: cloneInt(src.MinItems),
			MaxItems: cloneInt(src.MaxItems),
		}
		if src.Items != nil {
			out.Items = fromGoskema(src.Items, path+"[]", warnings)
		}
		return out
	case "object":
		out := &Schema{Type: "object", Default: src.Default}
		if len(src.Properties) > 0 {
			out.Properties = make(map[string]*Schema, len(src.Properties))
			// Sorted iteration keeps warning order deterministic.
			names := make([]string, 0, len(src.Properties))
			for name := range src.Properties {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				out.Properties[name] = fromGoskema(src.Properties[name], joinPath(path, name), warnings)
			}
		}
		out.Required = append([]string(nil), src.Required...)
		if src.AdditionalProperties != nil {
			out.AdditionalProperties = src.AdditionalProperties
		}
		return out
	case "":
		if len(src.OneOf) > 0 {
			out := &Schema{OneOf: make([]*Schema, len(src.OneOf))}
			for i, v := range src.OneOf {
				out.OneOf[i] = fromGoskema(v, fmt.Sprintf("%s|%d", path, i), warnings)
			}
			return out
		}
		*warnings = append(*warnings, warnAt(path, "untyped schema, defaulting to string"))
		return String()
	default:
		*warnings = append(*warnings, warnAt(path, fmt.Sprintf("unknown schema type %q, defaulting to string", src.Type)))
		return String()
	}
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func warnAt(path, msg string) string {
	if path == "" {
		return msg
	}
	return path + ": " + msg
}
