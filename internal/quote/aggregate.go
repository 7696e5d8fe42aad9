// Package quote combines component results into quote-level totals.
package quote

import (
	"math"
	"sort"

	"github.com/Simplici0/quotecalc/internal/calcerr"
	"github.com/Simplici0/quotecalc/internal/component"
	"github.com/Simplici0/quotecalc/internal/pricing"
)

// Summary holds the quote-level totals and the discounts that produced them.
type Summary struct {
	ComponentCount int `json:"component_count"`

	OneTime         float64 `json:"one_time"`
	MonthlySubtotal float64 `json:"monthly_subtotal"`
	VolumeDiscount  float64 `json:"volume_discount"`
	BundleBonus     float64 `json:"bundle_bonus"`
	MonthlyDiscount float64 `json:"monthly_discount"`
	Monthly         float64 `json:"monthly"`

	AnnualDiscount float64 `json:"annual_discount"`
	Annual         float64 `json:"annual"`

	CPIRate            float64   `json:"cpi_rate"`
	Years              []float64 `json:"years"`
	ThreeYearBase      float64   `json:"three_year_base"`
	TermDiscount       float64   `json:"term_discount"`
	ThreeYearRecurring float64   `json:"three_year_recurring"`
	ThreeYear          float64   `json:"three_year"`
}

// Aggregate applies volume, bundle and term discounts plus CPI escalation to
// results. Results are summed in ID order so the output only depends on the
// set of inputs.
//
// Contract year k of the base is the sum of every result's year-k amount, so
// financing terms, fixed warranty years and per-component escalation rates
// carry through. A result without per-year amounts escalates Monthly*12 at the
// CPI rate.
//
// With no results it returns a zero Summary and an AggregationError wrapping
// ErrNoComponents.
func Aggregate(results []component.Result, terms pricing.Terms) (Summary, error) {
	if len(results) == 0 {
		return Summary{CPIRate: terms.CPIRate}, &calcerr.AggregationError{
			Reason: "nothing to aggregate",
			Err:    calcerr.ErrNoComponents,
		}
	}

	sorted := append([]component.Result(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Component < sorted[j].Component })

	var s Summary
	s.ComponentCount = len(sorted)
	s.CPIRate = terms.CPIRate
	s.Years = make([]float64, pricing.ContractYears)
	for _, r := range sorted {
		if !r.Totals.Finite() {
			return Summary{CPIRate: terms.CPIRate}, &calcerr.AggregationError{
				Reason: "non-finite totals from " + string(r.Component),
			}
		}
		s.MonthlySubtotal += r.Totals.Monthly
		s.OneTime += r.Totals.OneTime

		years := r.Years
		if len(years) != pricing.ContractYears {
			years = pricing.Escalate(r.Totals.Monthly*12, terms.CPIRate, pricing.ContractYears)
		}
		for k, y := range years {
			s.Years[k] += y
		}
	}

	s.VolumeDiscount = pricing.VolumeDiscount(s.MonthlySubtotal)
	s.BundleBonus = pricing.BundleBonus(s.ComponentCount)
	s.MonthlyDiscount = pricing.MonthlyDiscount(s.MonthlySubtotal, s.ComponentCount, terms.PromotionalDiscount)
	s.Monthly = s.MonthlySubtotal * (1 - s.MonthlyDiscount)

	// Annual billing only adds the incentive on top of the monthly discount.
	s.AnnualDiscount = pricing.AnnualDiscount(s.MonthlyDiscount)
	s.Annual = s.Monthly * 12 * (1 - (s.AnnualDiscount - s.MonthlyDiscount))

	for _, y := range s.Years {
		s.ThreeYearBase += y
	}
	s.TermDiscount = pricing.TermDiscount(s.AnnualDiscount)
	s.ThreeYearRecurring = s.ThreeYearBase * (1 - s.TermDiscount)
	s.ThreeYear = s.ThreeYearRecurring + s.OneTime

	if math.IsNaN(s.ThreeYear) || math.IsInf(s.ThreeYear, 0) {
		return Summary{CPIRate: terms.CPIRate}, &calcerr.AggregationError{Reason: "non-finite quote total"}
	}
	return s, nil
}
