package jsonschema

import (
	"reflect"
	"testing"
)

func TestEmptyObject(t *testing.T) {
	s := EmptyObject()
	if s.Type != "object" {
		t.Errorf("Type = %q, want object", s.Type)
	}
	if s.Properties == nil || len(s.Properties) != 0 {
		t.Errorf("Properties = %v, want empty non-nil map", s.Properties)
	}
	if s.HasProperties() {
		t.Error("HasProperties() = true, want false")
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := EmptyObject()
	orig.SetProperty("name", String())
	orig.Require("name")
	orig.Items = Integer()

	c := orig.Clone()
	c.Properties["name"].Type = "integer"
	c.Required[0] = "other"
	c.Items.Type = "string"

	if orig.Properties["name"].Type != "string" {
		t.Errorf("clone mutated original property: %q", orig.Properties["name"].Type)
	}
	if orig.Required[0] != "name" {
		t.Errorf("clone mutated original required: %q", orig.Required[0])
	}
	if orig.Items.Type != "integer" {
		t.Errorf("clone mutated original items: %q", orig.Items.Type)
	}
}

func TestPropertyNamesSorted(t *testing.T) {
	s := EmptyObject()
	s.SetProperty("zeta", String())
	s.SetProperty("alpha", String())
	s.SetProperty("mid", String())

	got := s.PropertyNames()
	want := []string{"alpha", "mid", "zeta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PropertyNames() = %v, want %v", got, want)
	}
}

func TestRequireDeduplicates(t *testing.T) {
	s := EmptyObject()
	s.Require("id")
	s.Require("id")
	s.Require("name")

	want := []string{"id", "name"}
	if !reflect.DeepEqual(s.Required, want) {
		t.Errorf("Required = %v, want %v", s.Required, want)
	}
}

func TestToMap(t *testing.T) {
	s := EmptyObject()
	s.SetProperty("count", Integer())
	s.Require("count")

	got, err := s.ToMap()
	if err != nil {
		t.Fatalf("ToMap() error = %v", err)
	}
	if got["type"] != "object" {
		t.Errorf("type = %v, want object", got["type"])
	}
	props, ok := got["properties"].(map[string]any)
	if !ok {
		t.Fatalf("properties = %T, want map[string]any", got["properties"])
	}
	count, ok := props["count"].(map[string]any)
	if !ok || count["type"] != "integer" {
		t.Errorf("properties.count = %v, want integer schema", props["count"])
	}
}

func TestStringFormat(t *testing.T) {
	s := StringFormat("uuid")
	if s.Type != "string" || s.Format != "uuid" {
		t.Errorf("StringFormat(uuid) = %+v", s)
	}
}
