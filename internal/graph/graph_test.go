package graph

import (
	"errors"
	"testing"

	"github.com/Simplici0/quotecalc/internal/calcerr"
	"github.com/Simplici0/quotecalc/internal/component"
)

func allEnabled() map[component.ID]bool {
	enabled := make(map[component.ID]bool)
	for _, def := range component.Catalog() {
		enabled[def.ID] = true
	}
	return enabled
}

func mustCatalogGraph(t *testing.T) *Graph {
	t.Helper()

	g, err := New(component.Catalog())
	if err != nil {
		t.Fatalf("catalog graph: %v", err)
	}
	return g
}

func TestCatalogIsValid(t *testing.T) {
	report := Validate(component.Catalog())
	if !report.Valid {
		t.Fatalf("catalog should be valid, issues: %+v", report.Issues)
	}
}

func TestValidateNamesBothComponentsOfCycle(t *testing.T) {
	defs := []component.Definition{
		{ID: "a", Level: 1, Dependencies: []component.ID{"b"}},
		{ID: "b", Level: 2, Dependencies: []component.ID{"a"}},
	}

	report := Validate(defs)
	if report.Valid {
		t.Fatalf("expected invalid report for a -> b -> a")
	}

	var cycle *Issue
	for i := range report.Issues {
		if report.Issues[i].Kind == KindCycle {
			cycle = &report.Issues[i]
		}
	}
	if cycle == nil {
		t.Fatalf("expected a cycle issue, got %+v", report.Issues)
	}

	named := map[component.ID]bool{}
	for _, id := range cycle.Chain {
		named[id] = true
	}
	if !named["a"] || !named["b"] {
		t.Fatalf("cycle chain should name a and b, got %v", cycle.Chain)
	}
}

func TestNewFailsFastOnCycle(t *testing.T) {
	defs := []component.Definition{
		{ID: "a", Level: 1, Dependencies: []component.ID{"b"}},
		{ID: "b", Level: 2, Dependencies: []component.ID{"a"}},
	}

	_, err := New(defs)
	var depErr *calcerr.DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("expected DependencyError, got %v", err)
	}
}

func TestValidateReportsMissingDependencyAndLevel(t *testing.T) {
	defs := []component.Definition{
		{ID: "base", Level: 0, Provides: []string{"x"}},
		{ID: "flat", Level: 0, Dependencies: []component.ID{"base"}},
		{ID: "orphan", Level: 1, Dependencies: []component.ID{"ghost"}},
		{ID: "greedy", Level: 1, Dependencies: []component.ID{"base"}, Requires: map[component.ID][]string{"base": {"y"}}},
	}

	report := Validate(defs)
	kinds := map[Kind]bool{}
	for _, issue := range report.Issues {
		kinds[issue.Kind] = true
	}

	for _, want := range []Kind{KindLevel, KindUnknownDependency, KindRequires} {
		if !kinds[want] {
			t.Fatalf("expected %s issue, got %+v", want, report.Issues)
		}
	}
}

func TestCalculationOrderPlacesDependenciesFirst(t *testing.T) {
	g := mustCatalogGraph(t)

	order, err := g.CalculationOrder(g.IDs(), allEnabled())
	if err != nil {
		t.Fatalf("CalculationOrder: %v", err)
	}
	if len(order) != len(g.IDs()) {
		t.Fatalf("expected %d components, got %d: %v", len(g.IDs()), len(order), order)
	}

	position := map[component.ID]int{}
	for i, id := range order {
		position[id] = i
	}
	for _, id := range order {
		def, _ := g.Definition(id)
		for _, dep := range def.Dependencies {
			if position[dep] >= position[id] {
				t.Fatalf("%s scheduled before its dependency %s: %v", id, dep, order)
			}
		}
		for _, dependent := range g.Dependents(id) {
			if position[dependent] <= position[id] {
				t.Fatalf("%s preceded by transitive dependent %s: %v", id, dependent, order)
			}
		}
	}
}

func TestCalculationOrderIncludesDependentsOfChangedComponent(t *testing.T) {
	g := mustCatalogGraph(t)

	order, err := g.CalculationOrder([]component.ID{component.Support}, allEnabled())
	if err != nil {
		t.Fatalf("CalculationOrder: %v", err)
	}

	want := []component.ID{
		component.Equipment,
		component.Licensing,
		component.Monitoring,
		component.Support,
		component.SLA,
		component.ManagedServices,
		component.Bundle,
	}
	if len(order) != len(want) {
		t.Fatalf("order=%v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order=%v, want %v", order, want)
		}
	}
}

func TestCalculationOrderSkipsDisabledComponents(t *testing.T) {
	g := mustCatalogGraph(t)
	enabled := map[component.ID]bool{
		component.Financing: true,
		component.Warranty:  true,
	}

	order, err := g.CalculationOrder([]component.ID{component.Equipment}, enabled)
	if err != nil {
		t.Fatalf("CalculationOrder: %v", err)
	}

	if len(order) != 2 || order[0] != component.Financing || order[1] != component.Warranty {
		t.Fatalf("expected only enabled dependents, got %v", order)
	}
}

func TestCalculationOrderRejectsUnknownComponent(t *testing.T) {
	g := mustCatalogGraph(t)

	_, err := g.CalculationOrder([]component.ID{"teleport"}, allEnabled())
	var depErr *calcerr.DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("expected DependencyError, got %v", err)
	}
}

func TestValidateDependenciesReportsDisabledAsNonBlocking(t *testing.T) {
	g := mustCatalogGraph(t)
	enabled := map[component.ID]bool{component.Support: true, component.Licensing: true}

	report := g.ValidateDependencies([]component.ID{component.Support}, enabled)
	if !report.Valid {
		t.Fatalf("disabled dependency must not invalidate the report: %+v", report)
	}
	if len(report.Issues) != 1 || report.Issues[0].Dependency != component.Equipment {
		t.Fatalf("expected one disabled-dependency issue on equipment, got %+v", report.Issues)
	}

	report = g.ValidateDependencies([]component.ID{"teleport"}, enabled)
	if report.Valid {
		t.Fatalf("unknown component must invalidate the report")
	}
}
