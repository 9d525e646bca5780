package module

// Annotations are behavioral hints for agentic callers deciding whether
// to invoke a module unprompted. The flags are not mutually exclusive.
type Annotations struct {
	ReadOnly    bool `json:"readonly" yaml:"readonly"`
	Destructive bool `json:"destructive" yaml:"destructive"`
	Idempotent  bool `json:"idempotent" yaml:"idempotent"`
}

// InferAnnotations maps an HTTP verb to behavioral hints:
//
//	GET    -> readonly
//	DELETE -> destructive
//	PUT    -> idempotent
//	others -> all false
//
// An unrecognized verb yields all-false annotations, not nil: once
// inference runs, "no match" is a definite answer, unlike the nil
// Annotations field on a Module (which means inference never happened).
func InferAnnotations(verb string) Annotations {
	switch verb {
	case "GET":
		return Annotations{ReadOnly: true}
	case "DELETE":
		return Annotations{Destructive: true}
	case "PUT":
		return Annotations{Idempotent: true}
	default:
		return Annotations{}
	}
}
