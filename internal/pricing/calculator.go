package pricing

import (
	"errors"
	"fmt"

	"github.com/Simplici0/quotecalc/internal/calcerr"
	"github.com/Simplici0/quotecalc/internal/component"
)

// Formula evaluates one component from its parameters and dependency context.
type Formula func(params component.Params, ctx Context) (component.Result, error)

var formulas = map[component.ID]Formula{
	component.Equipment:         CalculateEquipment,
	component.Licensing:         CalculateLicensing,
	component.Onboarding:        CalculateOnboarding,
	component.Training:          CalculateTraining,
	component.Financing:         CalculateFinancing,
	component.Installation:      CalculateInstallation,
	component.Monitoring:        CalculateMonitoring,
	component.Support:           CalculateSupport,
	component.Warranty:          CalculateWarranty,
	component.Maintenance:       CalculateMaintenance,
	component.CloudBackup:       CalculateCloudBackup,
	component.SLA:               CalculateSLA,
	component.ManagedServices:   CalculateManagedServices,
	component.ProjectManagement: CalculateProjectManagement,
	component.Bundle:            CalculateBundle,
}

// Option customizes a Calculator.
type Option func(*Calculator)

// WithFormula replaces or adds the formula for id.
func WithFormula(id component.ID, f Formula) Option {
	return func(c *Calculator) {
		c.formulas[id] = f
	}
}

// Calculator dispatches to the formula registered for each component.
type Calculator struct {
	defs     map[component.ID]component.Definition
	formulas map[component.ID]Formula
}

// NewCalculator builds the registry for defs. Every definition must have a
// formula.
func NewCalculator(defs []component.Definition, opts ...Option) (*Calculator, error) {
	c := &Calculator{
		defs:     make(map[component.ID]component.Definition, len(defs)),
		formulas: make(map[component.ID]Formula, len(formulas)),
	}
	for id, f := range formulas {
		c.formulas[id] = f
	}
	for _, opt := range opts {
		opt(c)
	}

	var missing []error
	for _, def := range defs {
		c.defs[def.ID] = def
		if _, ok := c.formulas[def.ID]; !ok {
			missing = append(missing, fmt.Errorf("no formula registered for %s", def.ID))
		}
	}
	if err := errors.Join(missing...); err != nil {
		return nil, err
	}
	return c, nil
}

// Calculate evaluates id. Schema errors are returned unchanged; any other
// failure, a panic or a non-finite number is reported as a CalculationError.
func (c *Calculator) Calculate(id component.ID, params component.Params, ctx Context) (res component.Result, err error) {
	def, ok := c.defs[id]
	if !ok {
		return component.Result{}, &calcerr.DependencyError{Component: string(id), Reason: "unknown component"}
	}
	f := c.formulas[id]

	defer func() {
		if r := recover(); r != nil {
			res = component.Result{}
			err = &calcerr.CalculationError{Component: string(id), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	res, err = f(params, ctx)
	if err != nil {
		if calcerr.IsSchema(err) {
			return component.Result{}, err
		}
		return component.Result{}, &calcerr.CalculationError{Component: string(id), Err: err}
	}
	if !res.Finite() {
		return component.Result{}, &calcerr.CalculationError{Component: string(id), Err: errors.New("result is not a finite number")}
	}

	res.Component = id
	for _, dep := range def.Dependencies {
		if !ctx.Has(dep) {
			res.Metadata.UsingDefaultContext = true
			res.Metadata.DefaultedDependencies = append(res.Metadata.DefaultedDependencies, dep)
		}
	}
	return res, nil
}

// Validate checks params against the schema of id without needing dependency
// values. Only schema errors are returned.
func (c *Calculator) Validate(id component.ID, params component.Params) error {
	if _, ok := c.defs[id]; !ok {
		return &calcerr.DependencyError{Component: string(id), Reason: "unknown component"}
	}
	_, err := c.Calculate(id, params, NewContext(DefaultTerms(), nil))
	if calcerr.IsSchema(err) {
		return err
	}
	return nil
}

// ContextFor builds the context for id from the outputs computed so far in a
// pass. Only fields listed in the definition's Requires are visible; a
// dependency missing from outputs is left out so its fields take defaults.
func (c *Calculator) ContextFor(id component.ID, terms Terms, outputs map[component.ID]map[string]float64) Context {
	def := c.defs[id]
	deps := make(map[component.ID]map[string]float64, len(def.Dependencies))
	for _, dep := range def.Dependencies {
		values, ok := outputs[dep]
		if !ok {
			continue
		}
		fields := make(map[string]float64, len(def.Requires[dep]))
		for _, field := range def.Requires[dep] {
			if v, ok := values[field]; ok {
				fields[field] = v
			}
		}
		deps[dep] = fields
	}
	return NewContext(terms, deps)
}
