// Package scenario reads quote scenarios from TOML files and evaluates them
// with an in-memory store.
package scenario

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"github.com/Simplici0/quotecalc/internal/calcerr"
	"github.com/Simplici0/quotecalc/internal/component"
	"github.com/Simplici0/quotecalc/internal/graph"
	"github.com/Simplici0/quotecalc/internal/orchestrator"
	"github.com/Simplici0/quotecalc/internal/pricing"
	"github.com/Simplici0/quotecalc/internal/quote"
	"github.com/Simplici0/quotecalc/internal/store"
)

const enabledKey = "enabled"

// Scenario is a quote described as a file.
//
//	title = "Clinic renewal"
//
//	[terms]
//	cpi_rate = 0.03
//
//	[components.equipment]
//	device_count = 40
//
//	[components.support]
//	tier = "premium"
//
// A component section enables the component unless it sets enabled = false;
// every other key is a parameter.
type Scenario struct {
	Title      string                    `toml:"title"`
	Terms      *Terms                    `toml:"terms"`
	Components map[string]map[string]any `toml:"components"`
}

// Terms is the [terms] table. Keys left out keep the caller's defaults.
type Terms struct {
	CPIRate             *float64 `toml:"cpi_rate"`
	PromotionalDiscount *float64 `toml:"promotional_discount"`
}

// Load reads and parses the scenario at path.
func Load(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return Scenario{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a scenario and rejects unknown components.
func Parse(data []byte) (Scenario, error) {
	var s Scenario
	if err := toml.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario: %w", err)
	}

	var errs []error
	if s.Terms != nil {
		if err := s.QuoteTerms(pricing.Terms{}).Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for name, section := range s.Components {
		if _, ok := component.Lookup(component.ID(name)); !ok {
			errs = append(errs, &calcerr.DependencyError{Component: name, Reason: "unknown component"})
			continue
		}
		if raw, ok := section[enabledKey]; ok {
			if _, isBool := raw.(bool); !isBool {
				errs = append(errs, &calcerr.SchemaValidationError{Component: name, Field: enabledKey, Value: raw, Reason: "must be true or false"})
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

// QuoteTerms overlays the keys the scenario sets onto def.
func (s Scenario) QuoteTerms(def pricing.Terms) pricing.Terms {
	if s.Terms == nil {
		return def
	}
	if s.Terms.CPIRate != nil {
		def.CPIRate = *s.Terms.CPIRate
	}
	if s.Terms.PromotionalDiscount != nil {
		def.PromotionalDiscount = *s.Terms.PromotionalDiscount
	}
	return def
}

// Entry is one component of a scenario.
type Entry struct {
	ID      component.ID
	Enabled bool
	Params  component.Params
}

// Entries lists the scenario components in catalog order.
func (s Scenario) Entries() []Entry {
	var out []Entry
	for _, def := range component.Catalog() {
		section, ok := s.Components[string(def.ID)]
		if !ok {
			continue
		}
		entry := Entry{ID: def.ID, Enabled: true, Params: component.Params{}}
		for k, v := range section {
			if k == enabledKey {
				if b, isBool := v.(bool); isBool {
					entry.Enabled = b
				}
				continue
			}
			entry.Params[k] = v
		}
		out = append(out, entry)
	}
	return out
}

// Validate checks every component's parameters against its schema.
func (s Scenario) Validate(calc *pricing.Calculator) error {
	var errs []error
	for _, e := range s.Entries() {
		if err := calc.Validate(e.ID, e.Params); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Writer is the part of a store a scenario is applied to.
type Writer interface {
	SetParams(id component.ID, params component.Params) error
	SetEnabled(id component.ID, enabled bool) error
}

// Apply writes the scenario into w.
func (s Scenario) Apply(w Writer) error {
	for _, e := range s.Entries() {
		if err := w.SetParams(e.ID, e.Params); err != nil {
			return err
		}
		if err := w.SetEnabled(e.ID, e.Enabled); err != nil {
			return err
		}
	}
	return nil
}

// Result is the outcome of evaluating a scenario.
type Result struct {
	Quote  quote.Quote
	Report orchestrator.Report
}

// Evaluate validates s, loads it into a fresh in-memory store and runs one
// calculation pass.
func Evaluate(s Scenario, def pricing.Terms, log zerolog.Logger) (Result, error) {
	defs := component.Catalog()
	g, err := graph.New(defs)
	if err != nil {
		return Result{}, err
	}
	calc, err := pricing.NewCalculator(defs)
	if err != nil {
		return Result{}, err
	}
	if err := s.Validate(calc); err != nil {
		return Result{}, err
	}

	mem := store.NewMemory()
	if err := s.Apply(mem); err != nil {
		return Result{}, err
	}

	orch := orchestrator.New(g, calc, mem,
		orchestrator.WithTerms(s.QuoteTerms(def)),
		orchestrator.WithLogger(log),
	)
	report, err := orch.Prime()
	if err != nil {
		return Result{}, err
	}
	if report.Err != nil {
		return Result{Report: report}, report.Err
	}
	return Result{Quote: orch.GetQuote(), Report: report}, nil
}
