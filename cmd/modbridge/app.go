package main

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	g "github.com/reoring/goskema/dsl"
	gsjs "github.com/reoring/goskema/jsonschema"

	"github.com/apcore-dev/modbridge/pkg/scan"
	"github.com/apcore-dev/modbridge/pkg/scope"
)

// The demo application: a small user/order API that exercises every
// inference path — typed functions, declarative goskema schemas,
// exported models, path parameters, view routes, and static assets.

// User is the demo user model. Its JSON Schema export comes from the
// declarative schema below, so the exporter backend picks it up.
type User struct {
	ID     string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Active bool   `json:"active"`
}

var userSchema = g.Object().
	Field("user_id", g.StringOf[string]()).Required().
	Field("name", g.StringOf[string]()).Required().
	Field("email", g.StringOf[string]()).Required().
	Field("active", g.BoolOf[bool]()).
	UnknownStrip().
	MustBuild()

// JSONSchema exports the user model's schema.
func (User) JSONSchema() (*gsjs.Schema, error) { return userSchema.JSONSchema() }

// Order is the demo order model, described purely by Go type hints.
type Order struct {
	ID       string    `json:"order_id"`
	UserID   string    `json:"user_id"`
	Total    float64   `json:"total"`
	Placed   time.Time `json:"placed"`
	Comment  string    `json:"comment,omitempty"`
	Quantity int       `json:"quantity"`
}

// store is the demo in-memory database handed to handlers through the
// ambient resource scope.
type store struct {
	mu     sync.RWMutex
	users  map[string]User
	orders map[string]Order
}

func newStore() *store {
	return &store{
		users: map[string]User{
			"u1": {ID: "u1", Name: "Ada", Email: "ada@example.com", Active: true},
			"u2": {ID: "u2", Name: "Grace", Email: "grace@example.com", Active: true},
		},
		orders: map[string]Order{
			"o1": {ID: "o1", UserID: "u1", Total: 19.5, Quantity: 3, Placed: time.Date(2026, 1, 12, 9, 30, 0, 0, time.UTC)},
		},
	}
}

// storeFrom reads the demo store out of the active resource scope.
func storeFrom(ctx context.Context) (*store, error) {
	sc, err := scope.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	v, ok := sc.Value("store")
	if !ok {
		return nil, fmt.Errorf("store not present in resource scope")
	}
	return v.(*store), nil
}

// Typed handler functions. These carry the signatures the scanner
// infers schemas from and are what the execution bridge actually calls.

type getUserInput struct {
	UserID string `json:"user_id"`
}

func listUsers(ctx context.Context) ([]User, error) {
	st, err := storeFrom(ctx)
	if err != nil {
		return nil, err
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	users := make([]User, 0, len(st.users))
	for _, u := range st.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func getUser(ctx context.Context, in getUserInput) (User, error) {
	st, err := storeFrom(ctx)
	if err != nil {
		return User{}, err
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	u, ok := st.users[in.UserID]
	if !ok {
		return User{}, fmt.Errorf("user %q not found", in.UserID)
	}
	return u, nil
}

type createUserInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func createUser(ctx context.Context, in createUserInput) (User, error) {
	st, err := storeFrom(ctx)
	if err != nil {
		return User{}, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	u := User{
		ID:     fmt.Sprintf("u%d", len(st.users)+1),
		Name:   in.Name,
		Email:  in.Email,
		Active: true,
	}
	st.users[u.ID] = u
	return u, nil
}

func deleteUser(ctx context.Context, in getUserInput) error {
	st, err := storeFrom(ctx)
	if err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.users[in.UserID]; !ok {
		return fmt.Errorf("user %q not found", in.UserID)
	}
	delete(st.users, in.UserID)
	return nil
}

type getOrderInput struct {
	OrderID string `json:"order_id"`
}

func getOrder(ctx context.Context, in getOrderInput) (Order, error) {
	st, err := storeFrom(ctx)
	if err != nil {
		return Order{}, err
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	o, ok := st.orders[in.OrderID]
	if !ok {
		return Order{}, fmt.Errorf("order %q not found", in.OrderID)
	}
	return o, nil
}

type placeOrderInput struct {
	UserID   string  `json:"user_id"`
	Total    float64 `json:"total"`
	Quantity int     `json:"quantity"`
}

var placeOrderSchema = g.Object().
	Field("user_id", g.StringOf[string]()).Required().
	Field("total", g.FloatOf[float64]()).Required().
	Field("quantity", g.IntOf[int]()).
	UnknownStrip().
	MustBuild()

func placeOrder(ctx context.Context, in placeOrderInput) (Order, error) {
	st, err := storeFrom(ctx)
	if err != nil {
		return Order{}, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	o := Order{
		ID:       fmt.Sprintf("o%d", len(st.orders)+1),
		UserID:   in.UserID,
		Total:    in.Total,
		Quantity: in.Quantity,
		Placed:   time.Now().UTC(),
	}
	st.orders[o.ID] = o
	return o, nil
}

// demoRouter assembles the demo chi application. Handlers are mounted
// through scan.Describe so a scan pass can recover their typed
// functions and documentation. HTTP serving activates a per-request
// resource scope; bridge execution activates its own per-invocation
// scope, so handlers see the same ambient store either way.
func demoRouter(scopes scope.Provider) chi.Router {
	r := chi.NewRouter()
	r.Use(scopeMiddleware(scopes))

	r.Method(http.MethodGet, "/users", scan.Describe(
		httpJSON(func(ctx context.Context) (any, error) { return listUsers(ctx) }),
		scan.WithFunc(listUsers),
		scan.WithGroup("users"),
		scan.WithName("list_users"),
		scan.WithDoc("List all users.\n\nReturns every registered user sorted by id."),
	))

	r.Method(http.MethodGet, "/users/{user_id}", scan.Describe(
		httpJSON(func(ctx context.Context) (any, error) {
			return getUser(ctx, getUserInput{UserID: requestParam(ctx, "user_id")})
		}),
		scan.WithFunc(getUser),
		scan.WithGroup("users"),
		scan.WithName("get_user"),
		scan.WithDoc("Fetch a single user by id."),
	))

	r.Method(http.MethodPost, "/users", scan.Describe(
		httpJSONBody(func(ctx context.Context, in createUserInput) (any, error) {
			return createUser(ctx, in)
		}),
		scan.WithFunc(createUser),
		scan.WithGroup("users"),
		scan.WithName("create_user"),
		scan.WithDoc("Create a user.\n\nThe new user starts active."),
	))

	r.Method(http.MethodDelete, "/users/{user_id}", scan.Describe(
		httpJSON(func(ctx context.Context) (any, error) {
			return nil, deleteUser(ctx, getUserInput{UserID: requestParam(ctx, "user_id")})
		}),
		scan.WithFunc(deleteUser),
		scan.WithGroup("users"),
		scan.WithName("delete_user"),
		scan.WithDoc("Delete a user by id."),
	))

	r.Method(http.MethodGet, "/orders/{order_id}", scan.Describe(
		httpJSON(func(ctx context.Context) (any, error) {
			return getOrder(ctx, getOrderInput{OrderID: requestParam(ctx, "order_id")})
		}),
		scan.WithFunc(getOrder),
		scan.WithGroup("orders"),
		scan.WithName("get_order"),
		scan.WithDoc("Fetch a single order by id."),
	))

	r.Method(http.MethodPost, "/orders", scan.Describe(
		httpJSONBody(func(ctx context.Context, in placeOrderInput) (any, error) {
			return placeOrder(ctx, in)
		}),
		scan.WithFunc(placeOrder),
		scan.WithGroup("orders"),
		scan.WithName("place_order"),
		scan.WithDoc("Place a new order for a user."),
		scan.WithInputSchema(placeOrderSchema),
	))

	// Excluded from scanning: a rendered view and static assets.
	r.Method(http.MethodGet, "/dashboard", scan.Describe(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintln(w, "<html><body>dashboard</body></html>")
		}),
		scan.AsView(),
	))
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	return r
}

// demoScopes seeds every invocation's scope with the shared demo store.
func demoScopes() (scope.Provider, *store) {
	st := newStore()
	return scope.StaticProvider(map[string]any{"store": st}), st
}

// scopeMiddleware acquires and releases a resource scope around each
// inbound HTTP request, mirroring what the bridge does per invocation.
func scopeMiddleware(scopes scope.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sc, err := scopes.Acquire(r.Context())
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			defer sc.Close()
			next.ServeHTTP(w, r.WithContext(scope.Activate(r.Context(), sc)))
		})
	}
}

// requestParam reads a chi URL parameter from the request behind the
// invocation. Outside HTTP serving this reports the missing request
// rather than guessing.
func requestParam(ctx context.Context, name string) string {
	r, err := scope.Request(ctx)
	if err != nil {
		return ""
	}
	return chi.URLParamFromCtx(r.Context(), name)
}

// httpJSON adapts a context-only producer into an HTTP handler that
// writes its result as JSON. The request is attached to the context so
// handlers can reach request-scoped state.
func httpJSON(fn func(ctx context.Context) (any, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := scope.WithRequest(r.Context(), r)
		out, err := fn(ctx)
		writeResponse(w, out, err)
	})
}

// httpJSONBody decodes the request body into the input type first.
func httpJSONBody[T any](fn func(ctx context.Context, in T) (any, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in T
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ctx := scope.WithRequest(r.Context(), r)
		out, err := fn(ctx, in)
		writeResponse(w, out, err)
	})
}

func writeResponse(w http.ResponseWriter, out any, err error) {
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if out == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	_ = json.NewEncoder(w).Encode(out)
}
