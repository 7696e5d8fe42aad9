// Package graph builds the component dependency graph and derives calculation
// order from it.
package graph

import (
	"fmt"
	"sort"

	"github.com/Simplici0/quotecalc/internal/calcerr"
	"github.com/Simplici0/quotecalc/internal/component"
)

// Graph is an immutable DAG over component definitions.
type Graph struct {
	defs       map[component.ID]component.Definition
	ids        []component.ID
	position   map[component.ID]int
	dependents map[component.ID][]component.ID // direct dependents
}

// New validates defs and builds the graph. It fails fast on any structural
// issue, including cycles.
func New(defs []component.Definition) (*Graph, error) {
	report := Validate(defs)
	if !report.Valid {
		first := report.Issues[0]
		return nil, &calcerr.DependencyError{
			Component:  string(first.Component),
			Dependency: string(first.Dependency),
			Chain:      idStrings(first.Chain),
			Reason:     fmt.Sprintf("%s (%d issue(s))", first.Message, len(report.Issues)),
		}
	}

	g := &Graph{
		defs:       make(map[component.ID]component.Definition, len(defs)),
		ids:        make([]component.ID, 0, len(defs)),
		position:   make(map[component.ID]int, len(defs)),
		dependents: make(map[component.ID][]component.ID, len(defs)),
	}
	for i, def := range defs {
		g.defs[def.ID] = def
		g.ids = append(g.ids, def.ID)
		g.position[def.ID] = i
	}
	for _, def := range defs {
		for _, dep := range def.Dependencies {
			g.dependents[dep] = append(g.dependents[dep], def.ID)
		}
	}
	return g, nil
}

// IDs returns every component ID in catalog order.
func (g *Graph) IDs() []component.ID {
	return append([]component.ID(nil), g.ids...)
}

// Has reports whether id is a known component.
func (g *Graph) Has(id component.ID) bool {
	_, ok := g.defs[id]
	return ok
}

// Definition returns the definition for id.
func (g *Graph) Definition(id component.ID) (component.Definition, bool) {
	def, ok := g.defs[id]
	return def, ok
}

// Dependents returns every component that transitively depends on id, in
// catalog order.
func (g *Graph) Dependents(id component.ID) []component.ID {
	seen := make(map[component.ID]bool)
	queue := append([]component.ID(nil), g.dependents[id]...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if seen[next] {
			continue
		}
		seen[next] = true
		queue = append(queue, g.dependents[next]...)
	}
	return g.sorted(seen)
}

// CalculationOrder returns the components to compute for a change to
// requested, dependencies first.
//
// The order covers the enabled members of requested and of their transitive
// dependents, plus every enabled component those transitively require.
// Disabled components are never scheduled; their dependents are computed with
// default context instead.
func (g *Graph) CalculationOrder(requested []component.ID, enabled map[component.ID]bool) ([]component.ID, error) {
	closure := make(map[component.ID]bool)
	for _, id := range requested {
		if !g.Has(id) {
			return nil, &calcerr.DependencyError{Component: string(id), Reason: "unknown component"}
		}
		if enabled[id] {
			closure[id] = true
		}
		for _, dep := range g.Dependents(id) {
			if enabled[dep] {
				closure[dep] = true
			}
		}
	}

	stack := g.sorted(closure)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, dep := range g.defs[id].Dependencies {
			if enabled[dep] && !closure[dep] {
				closure[dep] = true
				stack = append(stack, dep)
			}
		}
	}

	// Kahn's algorithm restricted to the closure.
	indegree := make(map[component.ID]int, len(closure))
	for id := range closure {
		for _, dep := range g.defs[id].Dependencies {
			if closure[dep] {
				indegree[id]++
			}
		}
	}

	ready := make([]component.ID, 0, len(closure))
	for id := range closure {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	g.sortByLevel(ready)

	order := make([]component.ID, 0, len(closure))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		for _, dependent := range g.dependents[id] {
			if !closure[dependent] {
				continue
			}
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
				g.sortByLevel(ready)
			}
		}
	}

	if len(order) != len(closure) {
		return nil, &calcerr.DependencyError{Reason: "cycle detected while ordering components"}
	}
	return order, nil
}

// ValidateDependencies checks that ids are known and reports every disabled
// dependency they would be computed without.
func (g *Graph) ValidateDependencies(ids []component.ID, enabled map[component.ID]bool) Report {
	report := Report{Valid: true}
	for _, id := range ids {
		def, ok := g.defs[id]
		if !ok {
			report.add(Issue{
				Kind:      KindUnknownComponent,
				Component: id,
				Message:   "unknown component",
			})
			continue
		}
		for _, dep := range def.Dependencies {
			if enabled[dep] {
				continue
			}
			report.add(Issue{
				Kind:       KindDisabledDependency,
				Component:  id,
				Dependency: dep,
				Message:    fmt.Sprintf("%s is disabled; %s will use default values", dep, id),
			})
		}
	}
	return report
}

func (g *Graph) sorted(set map[component.ID]bool) []component.ID {
	out := make([]component.ID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return g.position[out[i]] < g.position[out[j]] })
	return out
}

func (g *Graph) sortByLevel(ids []component.ID) {
	sort.SliceStable(ids, func(i, j int) bool {
		li, lj := g.defs[ids[i]].Level, g.defs[ids[j]].Level
		if li != lj {
			return li < lj
		}
		return g.position[ids[i]] < g.position[ids[j]]
	})
}

func idStrings(ids []component.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
