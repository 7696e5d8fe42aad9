package pricing

import (
	"fmt"

	"github.com/Simplici0/quotecalc/internal/component"
)

const rushSurcharge = 0.25

// CalculateOnboarding prices account setup: a base fee plus a per-site fee,
// with a surcharge for rushed delivery.
func CalculateOnboarding(params component.Params, ctx Context) (component.Result, error) {
	r := newReader(component.Onboarding, params)
	base := r.float("base_fee", 1500, 0, 1e6)
	perSite := r.float("per_site_fee", 250, 0, 1e5)
	sites := r.integer("sites", 1, 1, 500)
	rush := r.flag("rush", false)
	if err := r.err(); err != nil {
		return component.Result{}, err
	}

	siteFee := float64(sites) * perSite
	subtotal := base + siteFee
	breakdown := []component.LineItem{
		oneTimeItem("Onboarding base fee", base),
		oneTimeItem(fmt.Sprintf("%d sites at %.2f", sites, perSite), siteFee),
	}

	total := subtotal
	if rush {
		surcharge := subtotal * rushSurcharge
		breakdown = append(breakdown, oneTimeItem("Rush delivery surcharge", surcharge))
		total += surcharge
	}

	return component.Result{
		Totals:    oneTimeTotals(total),
		Breakdown: breakdown,
		Outputs:   map[string]float64{component.FieldOnboardingFee: total},
	}, nil
}

// CalculateTraining prices instructor hours.
func CalculateTraining(params component.Params, ctx Context) (component.Result, error) {
	r := newReader(component.Training, params)
	hours := r.float("hours", 0, 0, 1000)
	rate := r.float("hourly_rate", 95, 0, 1e4)
	if err := r.err(); err != nil {
		return component.Result{}, err
	}

	total := hours * rate
	return component.Result{
		Totals:    oneTimeTotals(total),
		Breakdown: []component.LineItem{oneTimeItem(fmt.Sprintf("%.1f hours at %.2f", hours, rate), total)},
		Outputs:   map[string]float64{component.FieldTrainingFee: total},
	}, nil
}

// CalculateProjectManagement prices coordination as a share of the onboarding
// and installation work, with a minimum fee once there is work to manage.
func CalculateProjectManagement(params component.Params, ctx Context) (component.Result, error) {
	r := newReader(component.ProjectManagement, params)
	percent := r.float("percent", 0.10, 0, 1)
	minimum := r.float("minimum_fee", 500, 0, 1e5)
	if err := r.err(); err != nil {
		return component.Result{}, err
	}

	base := ctx.Value(component.Onboarding, component.FieldOnboardingFee, 0) +
		ctx.Value(component.Installation, component.FieldInstallationFee, 0)
	fee := base * percent
	breakdown := []component.LineItem{
		oneTimeItem(fmt.Sprintf("%.1f%% of %.2f project work", percent*100, base), fee),
	}
	if base > 0 && fee < minimum {
		breakdown = append(breakdown, oneTimeItem("Minimum fee adjustment", minimum-fee))
		fee = minimum
	}

	return component.Result{
		Totals:    oneTimeTotals(fee),
		Breakdown: breakdown,
		Outputs:   map[string]float64{component.FieldProjectFee: fee},
	}, nil
}

func oneTimeTotals(amount float64) component.Totals {
	return component.Totals{OneTime: amount, ThreeYear: amount}
}

// recurringTotals derives the rollups of a recurring charge. The multi-year
// figure sums each escalated contract year.
func recurringTotals(monthly, oneTime, escalation float64) component.Totals {
	annual := monthly * 12
	return component.Totals{
		OneTime:   oneTime,
		Monthly:   monthly,
		Annual:    annual,
		ThreeYear: oneTime + EscalatedTotal(annual, escalation, ContractYears),
	}
}

// recurringYears is the billed amount of each contract year of a recurring
// charge.
func recurringYears(monthly, escalation float64) []float64 {
	return Escalate(monthly*12, escalation, ContractYears)
}

func oneTimeItem(label string, amount float64) component.LineItem {
	return component.LineItem{Label: label, Amount: amount, Billing: component.OneTime}
}

func recurringItem(label string, amount float64) component.LineItem {
	return component.LineItem{Label: label, Amount: amount, Billing: component.Recurring}
}
