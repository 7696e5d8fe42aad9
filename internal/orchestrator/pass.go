package orchestrator

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/quotecalc/internal/calcerr"
	"github.com/Simplici0/quotecalc/internal/component"
	"github.com/Simplici0/quotecalc/internal/quote"
)

// Failure records one component that could not be calculated in a pass.
type Failure struct {
	Component component.ID     `json:"component"`
	Severity  calcerr.Severity `json:"severity"`
	Err       error            `json:"-"`
	Message   string           `json:"message"`
}

// Report summarizes one calculation pass.
type Report struct {
	PassID     uuid.UUID      `json:"pass_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Requested  []component.ID `json:"requested"`
	Order      []component.ID `json:"order"`
	Published  []component.ID `json:"published"`
	Failures   []Failure      `json:"failures,omitempty"`
	// Err is set when the pass could not run or the quote could not be built.
	Err error `json:"-"`
}

// Failed reports whether component id failed in this pass.
func (r Report) Failed(id component.ID) bool {
	for _, f := range r.Failures {
		if f.Component == id {
			return true
		}
	}
	return false
}

// runPass computes requested and their dependents in order. It returns the
// report, the quote built from the store afterwards, and whether that quote
// is usable.
func (o *Orchestrator) runPass(requested map[component.ID]string) (Report, quote.Quote, bool) {
	report := Report{PassID: uuid.New(), StartedAt: o.now()}
	for _, id := range o.graph.IDs() {
		if _, ok := requested[id]; ok {
			report.Requested = append(report.Requested, id)
		}
	}

	logger := o.log.With().Str("pass_id", report.PassID.String()).Logger()

	enabled, err := o.enabledSet()
	if err != nil {
		report.Err = fmt.Errorf("load enabled components: %w", err)
		report.FinishedAt = o.now()
		logger.Error().Err(report.Err).Msg("calculation pass aborted")
		return report, quote.Quote{}, false
	}

	order, err := o.graph.CalculationOrder(report.Requested, enabled)
	if err != nil {
		report.Err = err
		report.FinishedAt = o.now()
		logger.Error().Err(err).Msg("calculation pass aborted")
		return report, quote.Quote{}, false
	}
	report.Order = order

	logger.Debug().
		Int("requested", len(report.Requested)).
		Int("components", len(order)).
		Msg("calculation pass started")

	outputs := make(map[component.ID]map[string]float64, len(order))
	for _, id := range order {
		source := requested[id]
		if source == "" {
			source = "dependency"
		}

		res, err := o.calculate(id, outputs)
		if err != nil {
			failure := Failure{Component: id, Severity: calcerr.SeverityOf(err), Err: err, Message: err.Error()}
			report.Failures = append(report.Failures, failure)
			logger.Warn().Err(err).Str("component", string(id)).Str("severity", failure.Severity.String()).Msg("component calculation failed")

			res = o.staleResult(id, err, report.PassID)
		} else {
			res.Metadata.PassID = report.PassID
			res.Metadata.CalculatedAt = o.now()
			res.Metadata.Source = source
		}

		if err := o.store.PublishResult(id, res); err != nil {
			report.Failures = append(report.Failures, Failure{
				Component: id,
				Severity:  calcerr.SeverityWarning,
				Err:       err,
				Message:   err.Error(),
			})
			logger.Error().Err(err).Str("component", string(id)).Msg("publish result failed")
		} else {
			report.Published = append(report.Published, id)
		}
		if res.Outputs != nil {
			outputs[id] = res.Outputs
		}
	}

	q, err := o.buildQuote(report.PassID, enabled)
	report.FinishedAt = o.now()
	if err != nil {
		report.Err = err
		logger.Error().Err(err).Msg("quote aggregation failed")
		return report, quote.Quote{}, false
	}

	logger.Info().
		Int("published", len(report.Published)).
		Int("failed", len(report.Failures)).
		Dur("took", report.FinishedAt.Sub(report.StartedAt)).
		Float64("three_year", q.Summary.ThreeYear).
		Msg("calculation pass finished")
	return report, q, true
}

func (o *Orchestrator) calculate(id component.ID, outputs map[component.ID]map[string]float64) (component.Result, error) {
	inst, err := o.store.ComponentInstance(id)
	if err != nil {
		return component.Result{}, &calcerr.CalculationError{Component: string(id), Err: err}
	}
	return o.calc.Calculate(id, inst.Params, o.calc.ContextFor(id, o.terms, outputs))
}

// staleResult keeps the last known good result of id, flagged stale. Without
// one, a zero result carries the error.
func (o *Orchestrator) staleResult(id component.ID, cause error, passID uuid.UUID) component.Result {
	var base component.Result
	if inst, err := o.store.ComponentInstance(id); err == nil && inst.LastResult != nil {
		base = *inst.LastResult
	} else {
		base = component.Result{Component: id, Metadata: component.Metadata{PassID: passID, CalculatedAt: o.now()}}
	}
	return base.MarkStale(cause)
}

func (o *Orchestrator) buildQuote(passID uuid.UUID, enabled map[component.ID]bool) (quote.Quote, error) {
	results := make([]component.Result, 0, len(enabled))
	for _, id := range o.graph.IDs() {
		if !enabled[id] {
			continue
		}
		inst, err := o.store.ComponentInstance(id)
		if err != nil {
			return quote.Quote{}, fmt.Errorf("load result for %s: %w", id, err)
		}
		if inst.LastResult == nil {
			continue
		}
		results = append(results, *inst.LastResult)
	}
	return quote.Build(passID, o.now(), results, o.terms)
}
