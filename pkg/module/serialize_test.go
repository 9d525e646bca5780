package module

import (
	"testing"

	"github.com/apcore-dev/modbridge/pkg/jsonschema"
)

func sampleModule() Module {
	ann := InferAnnotations("GET")
	return Module{
		ModuleID:      "users.get_user.get",
		Description:   "Fetch a single user by id.",
		Documentation: "Fetch a single user by id.\n\nLooks the user up in the store.",
		InputSchema:   jsonschema.EmptyObject(),
		OutputSchema:  jsonschema.Permissive(),
		Annotations:   &ann,
		Tags:          []string{"users"},
		Target:        "example.com/app:getUser",
		Verb:          "GET",
		RoutePattern:  "/users/{user_id}",
		Version:       DefaultVersion,
		Metadata: map[string]any{
			MetaVerb:         "GET",
			MetaRoutePattern: "/users/{user_id}",
			MetaSource:       "chi",
		},
	}
}

func TestToMap(t *testing.T) {
	m := sampleModule()

	got, err := ToMap(m)
	if err != nil {
		t.Fatalf("ToMap() error = %v", err)
	}

	if got["module_id"] != "users.get_user.get" {
		t.Errorf("module_id = %v, want users.get_user.get", got["module_id"])
	}
	if got["verb"] != "GET" {
		t.Errorf("verb = %v, want GET", got["verb"])
	}
	if got["version"] != DefaultVersion {
		t.Errorf("version = %v, want %v", got["version"], DefaultVersion)
	}

	ann, ok := got["annotations"].(map[string]any)
	if !ok {
		t.Fatalf("annotations = %T, want map[string]any", got["annotations"])
	}
	if ann["readonly"] != true || ann["destructive"] != false {
		t.Errorf("annotations = %v, want readonly=true destructive=false", ann)
	}

	if _, ok := got["input_schema"].(map[string]any); !ok {
		t.Errorf("input_schema = %T, want map[string]any", got["input_schema"])
	}
}

func TestToMapNilAnnotations(t *testing.T) {
	m := sampleModule()
	m.Annotations = nil

	got, err := ToMap(m)
	if err != nil {
		t.Fatalf("ToMap() error = %v", err)
	}
	if got["annotations"] != nil {
		t.Errorf("annotations = %v, want nil for never-inferred", got["annotations"])
	}
}

func TestToMapEmptyDocumentation(t *testing.T) {
	m := sampleModule()
	m.Documentation = ""

	got, err := ToMap(m)
	if err != nil {
		t.Fatalf("ToMap() error = %v", err)
	}
	if got["documentation"] != nil {
		t.Errorf("documentation = %v, want nil when absent", got["documentation"])
	}
}

func TestToMapsPreservesOrder(t *testing.T) {
	a := sampleModule()
	b := sampleModule()
	b.ModuleID = "orders.get_order.get"

	got, err := ToMaps([]Module{a, b})
	if err != nil {
		t.Fatalf("ToMaps() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0]["module_id"] != a.ModuleID || got[1]["module_id"] != b.ModuleID {
		t.Errorf("order = [%v, %v], want [%v, %v]", got[0]["module_id"], got[1]["module_id"], a.ModuleID, b.ModuleID)
	}
}
