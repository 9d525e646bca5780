// Package output serializes scanned module records into artifacts:
// a flat JSON document, a YAML document, and an OpenAPI 3.1
// specification.
package output

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/apcore-dev/modbridge/pkg/module"
)

// WriteJSON writes the modules as an indented JSON array. Output is
// deterministic: map keys serialize in sorted order.
func WriteJSON(w io.Writer, mods []module.Module) error {
	dicts, err := module.ToMaps(mods)
	if err != nil {
		return fmt.Errorf("converting modules: %w", err)
	}
	data, err := json.MarshalIndent(dicts, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding modules: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// WriteYAML writes the modules as a YAML document.
func WriteYAML(w io.Writer, mods []module.Module) error {
	dicts, err := module.ToMaps(mods)
	if err != nil {
		return fmt.Errorf("converting modules: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any{"modules": dicts}); err != nil {
		return fmt.Errorf("encoding modules: %w", err)
	}
	return enc.Close()
}

// WriteOpenAPI writes the modules as an indented OpenAPI 3.1 JSON
// document.
func WriteOpenAPI(w io.Writer, mods []module.Module, title, version string) error {
	spec, err := OpenAPI(mods, title, version)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding spec: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
