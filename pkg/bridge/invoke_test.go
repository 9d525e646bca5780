package bridge

import (
	"context"
	"errors"
	"testing"
)

type greetInput struct {
	Name  string `json:"name"`
	Shout bool   `json:"shout"`
}

func TestFuncStructParam(t *testing.T) {
	h, err := Func(func(ctx context.Context, in greetInput) (string, error) {
		if in.Shout {
			return "HELLO " + in.Name, nil
		}
		return "hello " + in.Name, nil
	})
	if err != nil {
		t.Fatalf("Func() error = %v", err)
	}

	out, err := h(context.Background(), map[string]any{"name": "ada", "shout": true})
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if out != "HELLO ada" {
		t.Errorf("out = %v, want HELLO ada", out)
	}
}

func TestFuncPointerParam(t *testing.T) {
	h, err := Func(func(in *greetInput) string { return in.Name })
	if err != nil {
		t.Fatalf("Func() error = %v", err)
	}
	out, err := h(context.Background(), map[string]any{"name": "grace"})
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if out != "grace" {
		t.Errorf("out = %v, want grace", out)
	}
}

func TestFuncMapParam(t *testing.T) {
	h, err := Func(func(ctx context.Context, inputs map[string]any) (any, error) {
		return inputs["raw"], nil
	})
	if err != nil {
		t.Fatalf("Func() error = %v", err)
	}
	out, _ := h(context.Background(), map[string]any{"raw": 7.0})
	if out != 7.0 {
		t.Errorf("out = %v, want 7", out)
	}
}

func TestFuncErrorOnlyReturn(t *testing.T) {
	sentinel := errors.New("nope")
	h, err := Func(func(ctx context.Context, in greetInput) error { return sentinel })
	if err != nil {
		t.Fatalf("Func() error = %v", err)
	}
	out, err := h(context.Background(), nil)
	if out != nil || !errors.Is(err, sentinel) {
		t.Errorf("(out, err) = (%v, %v), want (nil, sentinel)", out, err)
	}
}

func TestFuncNoReturn(t *testing.T) {
	ran := false
	h, err := Func(func(ctx context.Context) { ran = true })
	if err != nil {
		t.Fatalf("Func() error = %v", err)
	}
	out, err := h(context.Background(), nil)
	if out != nil || err != nil || !ran {
		t.Errorf("(out, err, ran) = (%v, %v, %t), want (nil, nil, true)", out, err, ran)
	}
}

func TestFuncRejectsUnbindable(t *testing.T) {
	tests := []struct {
		name string
		fn   any
	}{
		{"nil", nil},
		{"not a func", 42},
		{"scalar param", func(ctx context.Context, id string) error { return nil }},
		{"second return not error", func() (int, string) { return 0, "" }},
		{"three returns", func() (int, int, error) { return 0, 0, nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Func(tt.fn); err == nil {
				t.Error("Func() error = nil, want rejection")
			}
		})
	}
}

func TestMustFuncPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustFunc did not panic on a bad signature")
		}
	}()
	MustFunc(42)
}
