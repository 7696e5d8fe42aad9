package graph

import (
	"fmt"
	"strings"

	"github.com/Simplici0/quotecalc/internal/component"
)

// Kind classifies a validation issue.
type Kind string

const (
	KindDuplicate          Kind = "duplicate"
	KindUnknownDependency  Kind = "unknown-dependency"
	KindSelfDependency     Kind = "self-dependency"
	KindCycle              Kind = "cycle"
	KindLevel              Kind = "level"
	KindRequires           Kind = "requires"
	KindUnknownComponent   Kind = "unknown-component"
	KindDisabledDependency Kind = "disabled-dependency"
)

// Issue is a single validation finding.
type Issue struct {
	Kind       Kind           `json:"kind"`
	Component  component.ID   `json:"component,omitempty"`
	Dependency component.ID   `json:"dependency,omitempty"`
	Chain      []component.ID `json:"chain,omitempty"`
	Message    string         `json:"message"`
}

// Blocking reports whether the issue prevents calculation.
func (i Issue) Blocking() bool {
	return i.Kind != KindDisabledDependency
}

// Report is the outcome of a validation run.
type Report struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues"`
}

func (r *Report) add(issue Issue) {
	r.Issues = append(r.Issues, issue)
	if issue.Blocking() {
		r.Valid = false
	}
}

// Validate checks defs for duplicate IDs, unknown or self dependencies,
// cycles, level ordering and requires/provides consistency.
func Validate(defs []component.Definition) Report {
	report := Report{Valid: true}

	byID := make(map[component.ID]component.Definition, len(defs))
	for _, def := range defs {
		if _, dup := byID[def.ID]; dup {
			report.add(Issue{Kind: KindDuplicate, Component: def.ID, Message: "duplicate component id"})
			continue
		}
		byID[def.ID] = def
	}

	for _, def := range defs {
		deps := make(map[component.ID]bool, len(def.Dependencies))
		for _, dep := range def.Dependencies {
			deps[dep] = true
			switch depDef, ok := byID[dep]; {
			case dep == def.ID:
				report.add(Issue{Kind: KindSelfDependency, Component: def.ID, Dependency: dep, Message: "component depends on itself"})
			case !ok:
				report.add(Issue{Kind: KindUnknownDependency, Component: def.ID, Dependency: dep, Message: "dependency is not defined"})
			case def.Level <= depDef.Level:
				report.add(Issue{
					Kind:       KindLevel,
					Component:  def.ID,
					Dependency: dep,
					Message:    fmt.Sprintf("level %d must be greater than dependency level %d", def.Level, depDef.Level),
				})
			}
		}

		for dep, fields := range def.Requires {
			if !deps[dep] {
				report.add(Issue{Kind: KindRequires, Component: def.ID, Dependency: dep, Message: "requires fields from a component that is not a dependency"})
				continue
			}
			depDef, ok := byID[dep]
			if !ok {
				continue
			}
			for _, field := range fields {
				if !contains(depDef.Provides, field) {
					report.add(Issue{
						Kind:       KindRequires,
						Component:  def.ID,
						Dependency: dep,
						Message:    fmt.Sprintf("requires field %q that %s does not provide", field, dep),
					})
				}
			}
		}
	}

	for _, chain := range findCycles(defs, byID) {
		report.add(Issue{
			Kind:      KindCycle,
			Component: chain[0],
			Chain:     chain,
			Message:   "cycle detected: " + joinIDs(chain),
		})
	}

	return report
}

const (
	white = iota
	grey
	black
)

// findCycles runs a three-colour DFS and returns each back edge as a chain
// that starts and ends with the same component.
func findCycles(defs []component.Definition, byID map[component.ID]component.Definition) [][]component.ID {
	color := make(map[component.ID]int, len(byID))
	var stack []component.ID
	var cycles [][]component.ID

	var visit func(id component.ID)
	visit = func(id component.ID) {
		color[id] = grey
		stack = append(stack, id)

		for _, dep := range byID[id].Dependencies {
			if dep == id {
				continue // reported as a self dependency
			}
			if _, ok := byID[dep]; !ok {
				continue
			}
			switch color[dep] {
			case white:
				visit(dep)
			case grey:
				start := len(stack) - 1
				for stack[start] != dep {
					start--
				}
				chain := append([]component.ID(nil), stack[start:]...)
				cycles = append(cycles, append(chain, dep))
			}
		}

		stack = stack[:len(stack)-1]
		color[id] = black
	}

	for _, def := range defs {
		if color[def.ID] == white {
			visit(def.ID)
		}
	}
	return cycles
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func joinIDs(ids []component.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, " -> ")
}
