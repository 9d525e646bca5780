// Package mcpserver exposes a module registry as MCP tools over
// streamable HTTP. Each registered module becomes one tool whose input
// schema, description, and behavioral hints come straight from the
// scanned module record; tool calls route through the registry into the
// execution bridge.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/apcore-dev/modbridge/pkg/debug"
	"github.com/apcore-dev/modbridge/pkg/identity"
	"github.com/apcore-dev/modbridge/pkg/module"
	"github.com/apcore-dev/modbridge/pkg/registry"
)

// toolFor converts a module record into an MCP tool definition.
func toolFor(m module.Module) (*mcp.Tool, error) {
	inputSchema, err := m.InputSchema.ToMap()
	if err != nil {
		return nil, fmt.Errorf("module %s: converting input schema: %w", m.ModuleID, err)
	}

	tool := &mcp.Tool{
		Name:        m.ModuleID,
		Description: toolDescription(m),
		InputSchema: inputSchema,
	}

	if m.Annotations != nil {
		tool.Annotations = &mcp.ToolAnnotations{
			ReadOnlyHint:    m.Annotations.ReadOnly,
			DestructiveHint: boolPtr(m.Annotations.Destructive),
			IdempotentHint:  m.Annotations.Idempotent,
		}
	}

	return tool, nil
}

// toolDescription prefers the full documentation for rich tool
// listings, falling back to the one-line description.
func toolDescription(m module.Module) string {
	if m.Documentation != "" {
		return m.Documentation
	}
	return m.Description
}

// handlerFor builds the MCP tool handler for a module. Handler errors
// become error-flagged tool results rather than protocol failures, so
// the agent sees what went wrong.
func handlerFor(reg *registry.Registry, moduleID string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var inputs map[string]any
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &inputs); err != nil {
				return errorResult(fmt.Sprintf("invalid arguments JSON: %v", err)), nil
			}
		}

		debug.Log("mcp", "tool call", "module", moduleID)
		if debug.TraceIsEnabled("mcp") {
			debug.Raw("mcp", moduleID+" <- "+debug.Truncate(string(req.Params.Arguments), 4096))
		}

		ictx, ok := identity.From(ctx)
		if !ok {
			ictx = identity.Anonymous()
		}

		out, err := reg.Call(ctx, moduleID, inputs, ictx)
		if err != nil {
			return errorResult(err.Error()), nil
		}

		text, err := renderOutput(out)
		if err != nil {
			return errorResult(fmt.Sprintf("encoding module output: %v", err)), nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil
	}
}

// renderOutput serializes a handler's return value for the tool result.
// Strings pass through; everything else is JSON-encoded.
func renderOutput(out any) (string, error) {
	switch v := out.(type) {
	case nil:
		return "null", nil
	case string:
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}

func boolPtr(b bool) *bool { return &b }
