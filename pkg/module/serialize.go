package module

// ToMap converts a Module to a flat map form used by the artifact
// writers. Schema fields are converted to generic maps so the result
// serializes identically under JSON and YAML encoders.
func ToMap(m Module) (map[string]any, error) {
	inputSchema, err := m.InputSchema.ToMap()
	if err != nil {
		return nil, err
	}
	outputSchema, err := m.OutputSchema.ToMap()
	if err != nil {
		return nil, err
	}

	out := map[string]any{
		"module_id":     m.ModuleID,
		"description":   m.Description,
		"verb":          m.Verb,
		"route_pattern": m.RoutePattern,
		"tags":          append([]string{}, m.Tags...),
		"version":       m.Version,
		"target":        m.Target,
		"metadata":      m.Metadata,
		"input_schema":  inputSchema,
		"output_schema": outputSchema,
	}

	if m.Documentation != "" {
		out["documentation"] = m.Documentation
	} else {
		out["documentation"] = nil
	}

	if m.Annotations != nil {
		out["annotations"] = map[string]any{
			"readonly":    m.Annotations.ReadOnly,
			"destructive": m.Annotations.Destructive,
			"idempotent":  m.Annotations.Idempotent,
		}
	} else {
		out["annotations"] = nil
	}

	return out, nil
}

// ToMaps batch-converts modules, preserving order.
func ToMaps(mods []Module) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(mods))
	for _, m := range mods {
		d, err := ToMap(m)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
