package scan

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
)

// Route is one (verb, pattern, handler) entry from the host
// application's route table.
type Route struct {
	// Method is the HTTP verb.
	Method string

	// Pattern is the raw route pattern including path parameter
	// placeholders (e.g. "/items/{item_id:int}").
	Pattern string

	// Handler is the mounted handler, possibly a *Described wrapper.
	Handler http.Handler
}

// Table is a read-only snapshot of a host application's route table.
// The table is assumed stable for the duration of one scan pass.
type Table interface {
	Routes() ([]Route, error)
}

// chiTable adapts a chi router to the Table interface via chi.Walk.
type chiTable struct {
	router chi.Routes
}

// ChiTable wraps a chi router for scanning.
func ChiTable(r chi.Routes) Table {
	return chiTable{router: r}
}

// Routes walks the router tree and returns its entries sorted by
// (pattern, method). chi does not guarantee a stable walk order across
// passes, so sorting here is what makes scan output deterministic.
func (t chiTable) Routes() ([]Route, error) {
	var routes []Route
	err := chi.Walk(t.router, func(method, pattern string, h http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, Route{Method: method, Pattern: pattern, Handler: h})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(routes, func(i, j int) bool {
		if routes[i].Pattern != routes[j].Pattern {
			return routes[i].Pattern < routes[j].Pattern
		}
		return routes[i].Method < routes[j].Method
	})
	return routes, nil
}
