package output

import (
	"fmt"
	"strings"

	"github.com/apcore-dev/modbridge/pkg/module"
)

// bodyVerbs are verbs whose input schema maps to a request body rather
// than query parameters.
var bodyVerbs = map[string]bool{
	"POST":  true,
	"PUT":   true,
	"PATCH": true,
}

// OpenAPI converts module records to an OpenAPI 3.1 specification.
//
// Mapping rules:
//   - Each module becomes one operation keyed by route pattern + verb.
//   - POST/PUT/PATCH input schemas map to requestBody; other verbs map
//     input properties to query parameters.
//   - The output schema maps to the 200 response.
//   - Annotations become the x-modbridge-annotations extension.
func OpenAPI(mods []module.Module, title, version string) (map[string]any, error) {
	paths := map[string]any{}

	for _, m := range mods {
		op, err := buildOperation(m)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", m.ModuleID, err)
		}

		entry, ok := paths[m.RoutePattern].(map[string]any)
		if !ok {
			entry = map[string]any{}
			paths[m.RoutePattern] = entry
		}
		entry[strings.ToLower(m.Verb)] = op
	}

	return map[string]any{
		"openapi": "3.1.0",
		"info": map[string]any{
			"title":   title,
			"version": version,
		},
		"paths": paths,
	}, nil
}

func buildOperation(m module.Module) (map[string]any, error) {
	inputSchema, err := m.InputSchema.ToMap()
	if err != nil {
		return nil, err
	}
	outputSchema, err := m.OutputSchema.ToMap()
	if err != nil {
		return nil, err
	}

	op := map[string]any{
		"operationId": m.ModuleID,
		"summary":     m.Description,
		"tags":        append([]string{}, m.Tags...),
	}
	if m.Documentation != "" {
		op["description"] = m.Documentation
	}

	if bodyVerbs[m.Verb] {
		op["requestBody"] = map[string]any{
			"required": true,
			"content": map[string]any{
				"application/json": map[string]any{"schema": inputSchema},
			},
		}
	} else if params := queryParameters(m); len(params) > 0 {
		op["parameters"] = params
	}

	op["responses"] = map[string]any{
		"200": map[string]any{
			"description": "Successful response",
			"content": map[string]any{
				"application/json": map[string]any{"schema": outputSchema},
			},
		},
	}

	if m.Annotations != nil {
		op["x-modbridge-annotations"] = map[string]any{
			"readonly":    m.Annotations.ReadOnly,
			"destructive": m.Annotations.Destructive,
			"idempotent":  m.Annotations.Idempotent,
		}
	}

	return op, nil
}

// queryParameters maps an input schema's properties to OpenAPI query
// parameters, in deterministic property order.
func queryParameters(m module.Module) []map[string]any {
	required := make(map[string]bool, len(m.InputSchema.Required))
	for _, name := range m.InputSchema.Required {
		required[name] = true
	}

	var params []map[string]any
	for _, name := range m.InputSchema.PropertyNames() {
		propSchema, err := m.InputSchema.Properties[name].ToMap()
		if err != nil {
			continue
		}
		params = append(params, map[string]any{
			"name":     name,
			"in":       "query",
			"required": required[name],
			"schema":   propSchema,
		})
	}
	return params
}
