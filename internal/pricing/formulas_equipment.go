package pricing

import (
	"fmt"

	"github.com/Simplici0/quotecalc/internal/component"
)

// CalculateEquipment prices the hardware purchase.
func CalculateEquipment(params component.Params, ctx Context) (component.Result, error) {
	r := newReader(component.Equipment, params)
	devices := r.integer("device_count", 0, 0, 10000)
	unitPrice := r.float("unit_price", 450, 0, 1e6)
	sites := r.integer("sites", 1, 1, 500)
	if err := r.err(); err != nil {
		return component.Result{}, err
	}

	value := float64(devices) * unitPrice
	return component.Result{
		Totals: oneTimeTotals(value),
		Breakdown: []component.LineItem{
			oneTimeItem(fmt.Sprintf("%d devices at %.2f", devices, unitPrice), value),
		},
		Outputs: map[string]float64{
			component.FieldDeviceCount:    float64(devices),
			component.FieldEquipmentValue: value,
			component.FieldSites:          float64(sites),
		},
	}, nil
}

// CalculateFinancing amortizes the equipment value over the financing term.
// The payment is fixed, so the rollups are not escalated.
func CalculateFinancing(params component.Params, ctx Context) (component.Result, error) {
	r := newReader(component.Financing, params)
	rate := r.float("annual_rate", 0.079, 0, 0.5)
	term := r.intChoice("term_months", 36, 12, 24, 36, 48, 60)
	down := r.float("down_payment_percent", 0, 0, 1)
	if err := r.err(); err != nil {
		return component.Result{}, err
	}

	value := ctx.Value(component.Equipment, component.FieldEquipmentValue, 0)
	principal := value * (1 - down)
	payment := 0.0
	if principal > 0 {
		payment = MonthlyPayment(principal, rate, term)
	}
	interest := payment*float64(term) - principal

	return component.Result{
		Totals: component.Totals{
			Monthly:   payment,
			Annual:    payment * float64(min(12, term)),
			ThreeYear: payment * float64(min(12*ContractYears, term)),
		},
		Years: financedYears(payment, term),
		Breakdown: []component.LineItem{
			recurringItem(fmt.Sprintf("%d payments at %.2f%% APR", term, rate*100), payment),
			oneTimeItem("Financed principal", principal),
			oneTimeItem("Total interest over term", interest),
		},
		Outputs: map[string]float64{
			component.FieldFinancedAmount: principal,
			component.FieldMonthlyPayment: payment,
		},
	}, nil
}

// CalculateInstallation prices on-site installation per device and site.
func CalculateInstallation(params component.Params, ctx Context) (component.Result, error) {
	r := newReader(component.Installation, params)
	perDevice := r.float("per_device_fee", 85, 0, 1e4)
	perSite := r.float("per_site_fee", 300, 0, 1e5)
	if err := r.err(); err != nil {
		return component.Result{}, err
	}

	devices := ctx.Value(component.Equipment, component.FieldDeviceCount, 0)
	sites := ctx.Value(component.Equipment, component.FieldSites, 1)

	deviceFee := devices * perDevice
	siteFee := 0.0
	if devices > 0 {
		siteFee = sites * perSite
	}
	total := deviceFee + siteFee

	return component.Result{
		Totals: oneTimeTotals(total),
		Breakdown: []component.LineItem{
			oneTimeItem(fmt.Sprintf("%.0f devices at %.2f", devices, perDevice), deviceFee),
			oneTimeItem(fmt.Sprintf("%.0f site visits at %.2f", sites, perSite), siteFee),
		},
		Outputs: map[string]float64{component.FieldInstallationFee: total},
	}, nil
}

// CalculateWarranty prices an extended warranty as a share of equipment value.
// Coverage is prepaid per year, so the multi-year rollup is not escalated.
func CalculateWarranty(params component.Params, ctx Context) (component.Result, error) {
	r := newReader(component.Warranty, params)
	rate := r.float("annual_rate", 0.08, 0, 0.5)
	years := r.integer("years", 3, 1, 5)
	if err := r.err(); err != nil {
		return component.Result{}, err
	}

	value := ctx.Value(component.Equipment, component.FieldEquipmentValue, 0)
	annual := value * rate

	return component.Result{
		Totals: component.Totals{
			Monthly:   annual / 12,
			Annual:    annual,
			ThreeYear: annual * float64(min(years, ContractYears)),
		},
		Years: coveredYears(annual, years),
		Breakdown: []component.LineItem{
			recurringItem(fmt.Sprintf("%d-year coverage at %.2f%% of equipment value", years, rate*100), annual/12),
		},
		Outputs: map[string]float64{component.FieldWarrantyAnnual: annual},
	}, nil
}

// CalculateMaintenance prices preventive maintenance: a share of equipment
// value plus scheduled visits.
func CalculateMaintenance(params component.Params, ctx Context) (component.Result, error) {
	r := newReader(component.Maintenance, params)
	percent := r.float("annual_percent", 0.12, 0, 0.5)
	visits := r.integer("visits_per_year", 2, 0, 52)
	visitFee := r.float("visit_fee", 175, 0, 1e4)
	escalation := r.float("escalation_rate", ctx.Terms().CPIRate, 0, 0.25)
	if err := r.err(); err != nil {
		return component.Result{}, err
	}

	value := ctx.Value(component.Equipment, component.FieldEquipmentValue, 0)
	devices := ctx.Value(component.Equipment, component.FieldDeviceCount, 0)

	coverage := value * percent
	visitCost := 0.0
	if devices > 0 {
		visitCost = float64(visits) * visitFee
	}
	annual := coverage + visitCost
	monthly := annual / 12

	return component.Result{
		Totals: recurringTotals(monthly, 0, escalation),
		Years:  recurringYears(monthly, escalation),
		Breakdown: []component.LineItem{
			recurringItem(fmt.Sprintf("Coverage at %.2f%% of equipment value", percent*100), coverage/12),
			recurringItem(fmt.Sprintf("%d visits per year at %.2f", visits, visitFee), visitCost/12),
		},
		Outputs: map[string]float64{component.FieldMaintenanceAnnual: annual},
	}, nil
}

// financedYears spreads a fixed payment over the contract years the term
// actually covers.
func financedYears(payment float64, term int) []float64 {
	out := make([]float64, ContractYears)
	for k := range out {
		months := min(max(term-12*k, 0), 12)
		out[k] = payment * float64(months)
	}
	return out
}

func coveredYears(annual float64, years int) []float64 {
	out := make([]float64, ContractYears)
	for k := range min(years, ContractYears) {
		out[k] = annual
	}
	return out
}
