package module

import "testing"

func TestInferAnnotations(t *testing.T) {
	tests := []struct {
		verb string
		want Annotations
	}{
		{"GET", Annotations{ReadOnly: true}},
		{"DELETE", Annotations{Destructive: true}},
		{"PUT", Annotations{Idempotent: true}},
		{"POST", Annotations{}},
		{"PATCH", Annotations{}},
		{"QUERY", Annotations{}},
		{"get", Annotations{}}, // verbs are matched case-sensitively, uppercase per HTTP
	}

	for _, tt := range tests {
		t.Run(tt.verb, func(t *testing.T) {
			got := InferAnnotations(tt.verb)
			if got != tt.want {
				t.Errorf("InferAnnotations(%q) = %+v, want %+v", tt.verb, got, tt.want)
			}
		})
	}
}

func TestInferAnnotationsFlagsExclusive(t *testing.T) {
	for _, verb := range []string{"GET", "POST", "PUT", "DELETE", "PATCH"} {
		a := InferAnnotations(verb)
		set := 0
		for _, f := range []bool{a.ReadOnly, a.Destructive, a.Idempotent} {
			if f {
				set++
			}
		}
		if set > 1 {
			t.Errorf("verb %s sets %d flags, want at most 1", verb, set)
		}
	}
}
