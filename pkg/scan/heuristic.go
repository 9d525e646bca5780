package scan

import (
	"path"
	"strings"
)

// Predicate judges whether a route is an API endpoint worth scanning.
// It returns false plus a human-readable reason when the route should
// be excluded. The judgment is a heuristic with accepted false
// positives and negatives; include/exclude filters on module IDs are
// the caller's escape hatch when it misfires.
type Predicate func(r Route, d *Described) (ok bool, reason string)

// assetExtensions are file extensions that mark a route as serving
// page assets rather than structured data.
var assetExtensions = map[string]bool{
	".html": true,
	".htm":  true,
	".css":  true,
	".js":   true,
	".ico":  true,
	".png":  true,
	".svg":  true,
	".map":  true,
}

// DefaultPredicate excludes routes explicitly declared as HTML views
// (Describe ... AsView) and routes whose pattern targets a page asset.
// Everything else is treated as an API route, including handlers with
// no metadata at all: those scan with degraded schemas rather than
// being dropped.
func DefaultPredicate(r Route, d *Described) (bool, string) {
	if d != nil && d.view {
		return false, "handler renders an HTML view"
	}
	if assetExtensions[strings.ToLower(path.Ext(r.Pattern))] {
		return false, "route serves a page asset"
	}
	return true, ""
}

// isStaticRoute recognizes built-in static file mounts: wildcard routes
// under conventional asset prefixes.
func isStaticRoute(pattern string) bool {
	if !strings.HasSuffix(pattern, "/*") {
		return false
	}
	p := strings.ToLower(pattern)
	return strings.Contains(p, "static") ||
		strings.Contains(p, "assets") ||
		strings.Contains(p, "public")
}

// isDataVerb reports whether the verb carries request or response data.
// Metadata-only verbs never produce modules.
func isDataVerb(method string) bool {
	switch method {
	case "HEAD", "OPTIONS":
		return false
	default:
		return true
	}
}
