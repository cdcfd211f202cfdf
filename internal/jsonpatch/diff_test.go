package jsonpatch

import (
	"reflect"
	"testing"
)

type row struct {
	Name  string  `json:"Name"`
	Costs float64 `json:"Acquisition Costs (CHF)"`
}

type doc struct {
	Total     float64 `json:"total_budget"`
	Employees []row   `json:"employees"`
}

func TestBetweenReportsChangedLeaves(t *testing.T) {
	before := doc{Total: 100, Employees: []row{{Name: "A", Costs: 10}}}
	after := doc{Total: 100, Employees: []row{{Name: "A", Costs: 20}, {Name: "B"}}}

	fwd, bwd, err := Between(before, after)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantPaths := []string{"/employees/0/Acquisition Costs (CHF)", "/employees/1"}
	if got := Paths(fwd); !reflect.DeepEqual(got, wantPaths) {
		t.Fatalf("expected paths %v, got %v", wantPaths, got)
	}
	if fwd[0].Op != "replace" || fwd[0].Value != float64(20) {
		t.Fatalf("unexpected first op %+v", fwd[0])
	}
	if fwd[1].Op != "add" {
		t.Fatalf("expected add op, got %+v", fwd[1])
	}
	if bwd[len(bwd)-1].Op != "remove" || bwd[len(bwd)-1].Path != "/employees/1" {
		t.Fatalf("expected backward remove of /employees/1, got %+v", bwd)
	}
}

func TestDiffIdenticalTreesIsEmpty(t *testing.T) {
	a := map[string]any{"x": []any{1.0, "two"}, "y": nil}
	b := map[string]any{"x": []any{1.0, "two"}, "y": nil}
	if ops := Diff(a, b, ""); len(ops) != 0 {
		t.Fatalf("expected no ops, got %v", ops)
	}
	if got := string(Marshal(nil)); got != "[]" {
		t.Fatalf("expected [], got %s", got)
	}
}

func TestDiffTypeChangeReplaces(t *testing.T) {
	ops := Diff(map[string]any{"v": "1"}, map[string]any{"v": []any{1.0}}, "")
	if len(ops) != 1 || ops[0].Op != "replace" || ops[0].Path != "/v" {
		t.Fatalf("expected single replace, got %v", ops)
	}
}

func TestEscapeKey(t *testing.T) {
	if got := escapeKey("a/b~c"); got != "a~1b~0c" {
		t.Fatalf("expected a~1b~0c, got %s", got)
	}
}
