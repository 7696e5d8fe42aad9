package quote

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/quotecalc/internal/calcerr"
	"github.com/Simplici0/quotecalc/internal/component"
	"github.com/Simplici0/quotecalc/internal/pricing"
)

// Line is one component's contribution to a quote.
type Line struct {
	Component           component.ID           `json:"component"`
	Name                string                 `json:"name"`
	Billing             component.BillingModel `json:"billing"`
	Totals              component.Totals       `json:"totals"`
	Breakdown           []component.LineItem   `json:"breakdown"`
	Stale               bool                   `json:"stale"`
	Error               string                 `json:"error,omitempty"`
	UsingDefaultContext bool                   `json:"using_default_context"`
}

// Quote is the view of one completed calculation pass.
type Quote struct {
	PassID      uuid.UUID     `json:"pass_id"`
	CompletedAt time.Time     `json:"completed_at"`
	Terms       pricing.Terms `json:"terms"`
	Lines       []Line        `json:"lines"`
	Summary     Summary       `json:"summary"`
}

// Build assembles a quote from the results of a pass. Zero results produce an
// all-zero quote rather than an error; other aggregation failures are returned.
func Build(passID uuid.UUID, completedAt time.Time, results []component.Result, terms pricing.Terms) (Quote, error) {
	q := Quote{PassID: passID, CompletedAt: completedAt, Terms: terms, Lines: []Line{}}

	summary, err := Aggregate(results, terms)
	if err != nil && !errors.Is(err, calcerr.ErrNoComponents) {
		return q, err
	}
	q.Summary = summary

	for _, r := range results {
		line := Line{
			Component:           r.Component,
			Name:                string(r.Component),
			Totals:              r.Totals,
			Breakdown:           r.Breakdown,
			Stale:               r.Metadata.Stale,
			Error:               r.Metadata.Error,
			UsingDefaultContext: r.Metadata.UsingDefaultContext,
		}
		if def, ok := component.Lookup(r.Component); ok {
			line.Name = def.Name
			line.Billing = def.Billing
		}
		q.Lines = append(q.Lines, line)
	}
	sort.SliceStable(q.Lines, func(i, j int) bool { return q.Lines[i].Component < q.Lines[j].Component })
	return q, nil
}

// Empty returns the quote reported before any pass has completed.
func Empty(terms pricing.Terms) Quote {
	return Quote{Terms: terms, Lines: []Line{}, Summary: Summary{CPIRate: terms.CPIRate}}
}

// Stale reports whether any line carries a stale result.
func (q Quote) Stale() bool {
	for _, l := range q.Lines {
		if l.Stale {
			return true
		}
	}
	return false
}

// Rounded is a Summary with money rounded to cents.
type Rounded struct {
	OneTime            decimal.Decimal `json:"one_time"`
	MonthlySubtotal    decimal.Decimal `json:"monthly_subtotal"`
	MonthlyDiscount    decimal.Decimal `json:"monthly_discount"`
	Monthly            decimal.Decimal `json:"monthly"`
	AnnualDiscount     decimal.Decimal `json:"annual_discount"`
	Annual             decimal.Decimal `json:"annual"`
	ThreeYearBase      decimal.Decimal `json:"three_year_base"`
	TermDiscount       decimal.Decimal `json:"term_discount"`
	ThreeYearRecurring decimal.Decimal `json:"three_year_recurring"`
	ThreeYear          decimal.Decimal `json:"three_year"`
}

// Rounded rounds money to cents and rates to four places.
func (s Summary) Rounded() Rounded {
	return Rounded{
		OneTime:            cents(s.OneTime),
		MonthlySubtotal:    cents(s.MonthlySubtotal),
		MonthlyDiscount:    rate(s.MonthlyDiscount),
		Monthly:            cents(s.Monthly),
		AnnualDiscount:     rate(s.AnnualDiscount),
		Annual:             cents(s.Annual),
		ThreeYearBase:      cents(s.ThreeYearBase),
		TermDiscount:       rate(s.TermDiscount),
		ThreeYearRecurring: cents(s.ThreeYearRecurring),
		ThreeYear:          cents(s.ThreeYear),
	}
}

func cents(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func rate(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(4)
}
