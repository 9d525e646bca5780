// Package identity carries caller identity and trace information across
// an invocation, from the protocol surface through the registry and the
// execution bridge into the handler.
package identity

import (
	"context"
	"encoding/hex"
	"net/http"
	"regexp"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity describes the principal behind an invocation.
type Identity struct {
	// ID is the principal identifier (subject claim, username, or
	// "anonymous").
	ID string `json:"id"`

	// Type classifies the principal: "user", "api_key", or "anonymous".
	Type string `json:"type"`
}

// Context carries per-invocation identity and trace data. It is a value
// type: every invocation gets its own copy.
type Context struct {
	Identity Identity `json:"identity"`

	// TraceID is the W3C trace ID (32 hex chars), propagated from an
	// inbound traceparent header or freshly generated.
	TraceID string `json:"trace_id"`

	// InvocationID uniquely identifies this invocation.
	InvocationID string `json:"invocation_id"`
}

// Anonymous creates an invocation context with no authenticated
// principal and a fresh trace ID.
func Anonymous() Context {
	return Context{
		Identity:     Identity{ID: "anonymous", Type: "anonymous"},
		TraceID:      newTraceID(),
		InvocationID: uuid.NewString(),
	}
}

// FromHTTP derives an invocation context from an inbound request.
//
// Identity extraction order:
//  1. Bearer token: JWT subject claim (claims are read, not verified;
//     token verification belongs to the host's auth middleware, which
//     runs before any handler this package sees).
//  2. Basic auth username.
//  3. Anonymous.
//
// When the request carries a W3C traceparent header, its trace ID is
// propagated instead of generating a new one.
func FromHTTP(r *http.Request) Context {
	ictx := Context{
		Identity:     extractIdentity(r),
		TraceID:      newTraceID(),
		InvocationID: uuid.NewString(),
	}
	if traceID, ok := ParseTraceParent(r.Header.Get("traceparent")); ok {
		ictx.TraceID = traceID
	}
	return ictx
}

func extractIdentity(r *http.Request) Identity {
	auth := r.Header.Get("Authorization")

	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		if sub := bearerSubject(token); sub != "" {
			return Identity{ID: sub, Type: "user"}
		}
		return Identity{ID: "bearer", Type: "api_key"}
	}

	if username, _, ok := r.BasicAuth(); ok && username != "" {
		return Identity{ID: username, Type: "api_key"}
	}

	return Identity{ID: "anonymous", Type: "anonymous"}
}

// bearerSubject reads the subject claim from a JWT bearer token without
// verifying the signature. Returns "" for opaque (non-JWT) tokens.
func bearerSubject(token string) string {
	parser := jwtlib.NewParser()
	claims := jwtlib.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return ""
	}
	sub, _ := claims.GetSubject()
	return sub
}

// traceParentRE matches the version-00 W3C traceparent format:
// version "-" trace-id "-" parent-id "-" flags.
var traceParentRE = regexp.MustCompile(`^00-([0-9a-f]{32})-[0-9a-f]{16}-[0-9a-f]{2}$`)

// ParseTraceParent extracts the trace ID from a W3C traceparent header
// value. W3C trace context marks an all-zero trace ID invalid, so it
// is rejected here.
func ParseTraceParent(header string) (string, bool) {
	m := traceParentRE.FindStringSubmatch(strings.TrimSpace(header))
	if m == nil {
		return "", false
	}
	if m[1] == strings.Repeat("0", 32) {
		return "", false
	}
	return m[1], true
}

// newTraceID generates a fresh 32-hex-char trace ID.
func newTraceID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

type ctxKey struct{}

// With attaches an invocation context.
func With(ctx context.Context, ictx Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, ictx)
}

// From returns the invocation context, if any.
func From(ctx context.Context) (Context, bool) {
	ictx, ok := ctx.Value(ctxKey{}).(Context)
	return ictx, ok
}
