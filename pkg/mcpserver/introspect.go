package mcpserver

import (
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/apcore-dev/modbridge/pkg/module"
	"github.com/apcore-dev/modbridge/pkg/output"
)

// Introspection endpoints: the registered modules are queryable over
// plain HTTP alongside the MCP endpoint, so operators and host
// applications can inspect what got scanned without an MCP client.

// handleModules serves the full module list as a JSON array.
func (s *Server) handleModules(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := output.WriteJSON(w, s.registry.List()); err != nil {
		s.logger.Error("writing module list", "error", err)
	}
}

// handleModule serves a single module record by ID, 404 for unknown IDs.
func (s *Server) handleModule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	e, ok := s.registry.Get(id)
	if !ok {
		writeJSONError(w, http.StatusNotFound, fmt.Sprintf("unknown module %q", id))
		return
	}

	dict, err := module.ToMap(e.Module)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "serializing module")
		s.logger.Error("serializing module", "module", id, "error", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dict); err != nil {
		s.logger.Error("writing module", "module", id, "error", err)
	}
}

// handleOpenAPI serves the registered modules as an OpenAPI 3.1 document.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := output.WriteOpenAPI(w, s.registry.List(), s.config.ServerName, s.config.ServerVersion); err != nil {
		s.logger.Error("writing openapi document", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
