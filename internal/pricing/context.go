package pricing

import (
	"errors"

	"github.com/Simplici0/quotecalc/internal/calcerr"
	"github.com/Simplici0/quotecalc/internal/component"
)

const (
	// DefaultCPIRate is the annual escalation applied when nothing else is set.
	DefaultCPIRate = 0.03

	MaxCPIRate             = 0.25
	MaxPromotionalDiscount = 0.20
)

// Terms are quote-level settings shared by every formula.
type Terms struct {
	CPIRate float64 `json:"cpi_rate" toml:"cpi_rate"`
	// PromotionalDiscount stacks onto the monthly discount before the cap.
	PromotionalDiscount float64 `json:"promotional_discount" toml:"promotional_discount"`
}

// DefaultTerms returns the terms used when a quote sets none.
func DefaultTerms() Terms {
	return Terms{CPIRate: DefaultCPIRate}
}

// Validate reports every term outside its accepted range as a
// SchemaValidationError on component "terms".
func (t Terms) Validate() error {
	var errs []error
	if !(t.CPIRate >= 0 && t.CPIRate <= MaxCPIRate) {
		errs = append(errs, &calcerr.SchemaValidationError{Component: "terms", Field: "cpi_rate", Value: t.CPIRate, Reason: "must be between 0 and 0.25"})
	}
	if !(t.PromotionalDiscount >= 0 && t.PromotionalDiscount <= MaxPromotionalDiscount) {
		errs = append(errs, &calcerr.SchemaValidationError{Component: "terms", Field: "promotional_discount", Value: t.PromotionalDiscount, Reason: "must be between 0 and 0.20"})
	}
	return errors.Join(errs...)
}

// Context is the read-only view of dependency outputs handed to a formula.
type Context struct {
	terms  Terms
	values map[component.ID]map[string]float64
}

// NewContext copies deps so later changes by the caller are not observed.
func NewContext(terms Terms, deps map[component.ID]map[string]float64) Context {
	values := make(map[component.ID]map[string]float64, len(deps))
	for id, fields := range deps {
		copied := make(map[string]float64, len(fields))
		for k, v := range fields {
			copied[k] = v
		}
		values[id] = copied
	}
	return Context{terms: terms, values: values}
}

// Terms returns the quote terms.
func (c Context) Terms() Terms { return c.terms }

// Has reports whether dependency id contributed values.
func (c Context) Has(id component.ID) bool {
	_, ok := c.values[id]
	return ok
}

// Value returns field from dependency id, or def when the dependency is
// absent or did not provide it.
func (c Context) Value(id component.ID, field string, def float64) float64 {
	fields, ok := c.values[id]
	if !ok {
		return def
	}
	v, ok := fields[field]
	if !ok {
		return def
	}
	return v
}
