// Package component describes pricing components: their static definitions,
// user-owned instances and calculation results.
package component

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// ID identifies a component type. Each type has at most one instance per quote.
type ID string

// BillingModel tells whether a component is billed once or on a recurring basis.
type BillingModel string

const (
	OneTime   BillingModel = "one_time"
	Recurring BillingModel = "recurring"
)

// Definition is the static description of a component type.
type Definition struct {
	ID           ID
	Name         string
	Billing      BillingModel
	Level        int
	Dependencies []ID
	Provides     []string
	Requires     map[ID][]string
}

// Params holds user-editable parameters. Values come from JSON (float64),
// TOML (int64) or Go callers (int, float64, string, bool).
type Params map[string]any

// Clone returns a shallow copy of p.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Instance is the user-owned state of one component.
type Instance struct {
	ID         ID
	Enabled    bool
	Params     Params
	LastResult *Result
}

// Totals groups the standard cost rollups of a result.
type Totals struct {
	OneTime   float64 `json:"one_time"`
	Monthly   float64 `json:"monthly"`
	Annual    float64 `json:"annual"`
	ThreeYear float64 `json:"three_year"`
}

// Finite reports whether all totals are finite numbers.
func (t Totals) Finite() bool {
	return finite(t.OneTime) && finite(t.Monthly) && finite(t.Annual) && finite(t.ThreeYear)
}

// LineItem is one row of a result's breakdown.
type LineItem struct {
	Label   string       `json:"label"`
	Amount  float64      `json:"amount"`
	Billing BillingModel `json:"billing"`
}

// Discount describes a reduction applied inside a component.
type Discount struct {
	Name   string  `json:"name"`
	Rate   float64 `json:"rate"`
	Amount float64 `json:"amount"`
}

// Metadata records how a result was produced.
type Metadata struct {
	PassID                uuid.UUID `json:"pass_id"`
	CalculatedAt          time.Time `json:"calculated_at"`
	Source                string    `json:"source,omitempty"`
	UsingDefaultContext   bool      `json:"using_default_context"`
	DefaultedDependencies []ID      `json:"defaulted_dependencies,omitempty"`
	Stale                 bool      `json:"stale"`
	Error                 string    `json:"error,omitempty"`
}

// Result is the output of one formula evaluation. It is replaced wholesale on
// every recalculation.
//
// Years holds the recurring amount billed in each contract year, one-time
// charges excluded. A nil Years is read as Monthly*12 escalated at CPI.
type Result struct {
	Component ID                 `json:"component"`
	Totals    Totals             `json:"totals"`
	Years     []float64          `json:"years,omitempty"`
	Breakdown []LineItem         `json:"breakdown"`
	Discounts []Discount         `json:"discounts,omitempty"`
	Outputs   map[string]float64 `json:"outputs,omitempty"`
	Metadata  Metadata           `json:"metadata"`
}

// Finite reports whether every number in r is finite.
func (r Result) Finite() bool {
	if !r.Totals.Finite() {
		return false
	}
	for _, y := range r.Years {
		if !finite(y) {
			return false
		}
	}
	for _, item := range r.Breakdown {
		if !finite(item.Amount) {
			return false
		}
	}
	for _, d := range r.Discounts {
		if !finite(d.Rate) || !finite(d.Amount) {
			return false
		}
	}
	for _, v := range r.Outputs {
		if !finite(v) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of r.
func (r Result) Clone() Result {
	out := r
	if r.Years != nil {
		out.Years = append([]float64(nil), r.Years...)
	}
	out.Breakdown = append([]LineItem(nil), r.Breakdown...)
	out.Discounts = append([]Discount(nil), r.Discounts...)
	out.Metadata.DefaultedDependencies = append([]ID(nil), r.Metadata.DefaultedDependencies...)
	if r.Outputs != nil {
		out.Outputs = make(map[string]float64, len(r.Outputs))
		for k, v := range r.Outputs {
			out.Outputs[k] = v
		}
	}
	return out
}

// MarkStale returns a copy of r flagged as stale because of cause.
func (r Result) MarkStale(cause error) Result {
	out := r.Clone()
	out.Metadata.Stale = true
	if cause != nil {
		out.Metadata.Error = cause.Error()
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
