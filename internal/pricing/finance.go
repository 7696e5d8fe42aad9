package pricing

import "math"

// ContractYears is the length of the multi-year rollup.
const ContractYears = 3

// Discount caps and incentives. Each cap applies after its additive step.
const (
	MaxMonthlyDiscount = 0.20
	AnnualIncentive    = 0.02
	MaxAnnualDiscount  = 0.25
	TermIncentive      = 0.03
	MaxTermDiscount    = 0.30
)

// VolumeTier grants Rate when the monthly subtotal is at least Threshold.
type VolumeTier struct {
	Threshold float64
	Rate      float64
}

// VolumeTiers are ordered from the highest threshold down.
var VolumeTiers = []VolumeTier{
	{Threshold: 5000, Rate: 0.10},
	{Threshold: 3000, Rate: 0.075},
	{Threshold: 1500, Rate: 0.05},
}

// BundleTier grants Rate when at least MinComponents are enabled.
type BundleTier struct {
	MinComponents int
	Rate          float64
}

// BundleTiers are ordered from the largest bundle down.
var BundleTiers = []BundleTier{
	{MinComponents: 4, Rate: 0.05},
	{MinComponents: 3, Rate: 0.025},
}

// MonthlyPayment is the level payment that amortizes principal over
// termMonths at annualRate. A zero rate degenerates to principal/termMonths.
func MonthlyPayment(principal, annualRate float64, termMonths int) float64 {
	if termMonths <= 0 {
		return math.NaN()
	}
	n := float64(termMonths)
	r := annualRate / 12
	if r == 0 {
		return principal / n
	}
	return (principal * r) / (1 - math.Pow(1+r, -n))
}

// Escalate returns the per-year amounts base × (1+rate)^(k−1) for k=1..years.
func Escalate(base, rate float64, years int) []float64 {
	if years <= 0 {
		return nil
	}
	out := make([]float64, years)
	for k := 0; k < years; k++ {
		out[k] = base * math.Pow(1+rate, float64(k))
	}
	return out
}

// EscalatedTotal sums the escalated per-year amounts.
func EscalatedTotal(base, rate float64, years int) float64 {
	total := 0.0
	for _, v := range Escalate(base, rate, years) {
		total += v
	}
	return total
}

// VolumeDiscount returns the tier rate for a monthly subtotal.
func VolumeDiscount(monthly float64) float64 {
	for _, tier := range VolumeTiers {
		if monthly >= tier.Threshold {
			return tier.Rate
		}
	}
	return 0
}

// BundleBonus returns the additive bonus for the number of enabled components.
func BundleBonus(count int) float64 {
	for _, tier := range BundleTiers {
		if count >= tier.MinComponents {
			return tier.Rate
		}
	}
	return 0
}

// MonthlyDiscount stacks volume, bundle and any extra discounts, capped at
// MaxMonthlyDiscount.
func MonthlyDiscount(monthly float64, count int, extra ...float64) float64 {
	sum := VolumeDiscount(monthly) + BundleBonus(count)
	for _, e := range extra {
		sum += e
	}
	return math.Min(sum, MaxMonthlyDiscount)
}

// AnnualDiscount adds the annual payment incentive to the monthly discount.
func AnnualDiscount(monthlyDiscount float64) float64 {
	return math.Min(monthlyDiscount+AnnualIncentive, MaxAnnualDiscount)
}

// TermDiscount adds the multi-year term incentive to the annual discount.
func TermDiscount(annualDiscount float64) float64 {
	return math.Min(annualDiscount+TermIncentive, MaxTermDiscount)
}
