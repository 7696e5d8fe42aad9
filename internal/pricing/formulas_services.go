package pricing

import (
	"fmt"

	"github.com/Simplici0/quotecalc/internal/component"
)

var monitoringRates = map[string]float64{
	"basic":      8,
	"advanced":   14,
	"enterprise": 22,
}

type supportTier struct {
	base      float64
	perDevice float64
	perUser   float64
}

var supportTiers = map[string]supportTier{
	"basic":    {base: 150, perDevice: 3, perUser: 1},
	"standard": {base: 300, perDevice: 5, perUser: 2},
	"premium":  {base: 600, perDevice: 9, perUser: 4},
}

var slaUplifts = map[string]float64{
	"standard": 0,
	"priority": 0.15,
	"critical": 0.35,
}

type bundlePackage struct {
	fee           float64
	creditRate    float64
	coversManaged bool
}

var bundlePackages = map[string]bundlePackage{
	"none":         {},
	"essentials":   {fee: 199, creditRate: 0.05},
	"professional": {fee: 399, creditRate: 0.08, coversManaged: true},
	"complete":     {fee: 699, creditRate: 0.12, coversManaged: true},
}

// CalculateLicensing prices per-user software subscriptions.
func CalculateLicensing(params component.Params, ctx Context) (component.Result, error) {
	r := newReader(component.Licensing, params)
	users := r.integer("users", 0, 0, 100000)
	price := r.float("price_per_user", 12, 0, 1e4)
	escalation := r.float("escalation_rate", ctx.Terms().CPIRate, 0, 0.25)
	if err := r.err(); err != nil {
		return component.Result{}, err
	}

	monthly := float64(users) * price
	return component.Result{
		Totals:    recurringTotals(monthly, 0, escalation),
		Years:     recurringYears(monthly, escalation),
		Breakdown: []component.LineItem{recurringItem(fmt.Sprintf("%d users at %.2f", users, price), monthly)},
		Outputs: map[string]float64{
			component.FieldUserCount:        float64(users),
			component.FieldLicensingMonthly: monthly,
		},
	}, nil
}

// CalculateMonitoring prices per-device monitoring with a monthly minimum.
func CalculateMonitoring(params component.Params, ctx Context) (component.Result, error) {
	r := newReader(component.Monitoring, params)
	tier := r.choice("tier", "basic", "basic", "advanced", "enterprise")
	minimum := r.float("minimum_monthly", 99, 0, 1e5)
	escalation := r.float("escalation_rate", ctx.Terms().CPIRate, 0, 0.25)
	if err := r.err(); err != nil {
		return component.Result{}, err
	}

	devices := ctx.Value(component.Equipment, component.FieldDeviceCount, 0)
	rate := monitoringRates[tier]
	usage := devices * rate
	breakdown := []component.LineItem{
		recurringItem(fmt.Sprintf("%.0f devices on %s monitoring at %.2f", devices, tier, rate), usage),
	}

	monthly := usage
	if devices > 0 && usage < minimum {
		breakdown = append(breakdown, recurringItem("Minimum monthly adjustment", minimum-usage))
		monthly = minimum
	}

	return component.Result{
		Totals:    recurringTotals(monthly, 0, escalation),
		Years:     recurringYears(monthly, escalation),
		Breakdown: breakdown,
		Outputs:   map[string]float64{component.FieldMonitoringMonthly: monthly},
	}, nil
}

// CalculateSupport prices a support tier from device and user counts.
func CalculateSupport(params component.Params, ctx Context) (component.Result, error) {
	r := newReader(component.Support, params)
	tierName := r.choice("tier", "standard", "basic", "standard", "premium")
	escalation := r.float("escalation_rate", ctx.Terms().CPIRate, 0, 0.25)
	if err := r.err(); err != nil {
		return component.Result{}, err
	}

	tier := supportTiers[tierName]
	devices := ctx.Value(component.Equipment, component.FieldDeviceCount, 0)
	users := ctx.Value(component.Licensing, component.FieldUserCount, 0)

	deviceFee := devices * tier.perDevice
	userFee := users * tier.perUser
	monthly := tier.base + deviceFee + userFee

	return component.Result{
		Totals: recurringTotals(monthly, 0, escalation),
		Years:  recurringYears(monthly, escalation),
		Breakdown: []component.LineItem{
			recurringItem(fmt.Sprintf("%s support base fee", tierName), tier.base),
			recurringItem(fmt.Sprintf("%.0f devices at %.2f", devices, tier.perDevice), deviceFee),
			recurringItem(fmt.Sprintf("%.0f users at %.2f", users, tier.perUser), userFee),
		},
		Outputs: map[string]float64{component.FieldSupportMonthly: monthly},
	}, nil
}

// CalculateCloudBackup prices per-user backup storage.
func CalculateCloudBackup(params component.Params, ctx Context) (component.Result, error) {
	r := newReader(component.CloudBackup, params)
	gbPerUser := r.float("gb_per_user", 50, 0, 10000)
	pricePerGB := r.float("price_per_gb", 0.05, 0, 100)
	escalation := r.float("escalation_rate", ctx.Terms().CPIRate, 0, 0.25)
	if err := r.err(); err != nil {
		return component.Result{}, err
	}

	users := ctx.Value(component.Licensing, component.FieldUserCount, 0)
	storage := users * gbPerUser
	monthly := storage * pricePerGB

	return component.Result{
		Totals:    recurringTotals(monthly, 0, escalation),
		Years:     recurringYears(monthly, escalation),
		Breakdown: []component.LineItem{recurringItem(fmt.Sprintf("%.0f GB at %.4f", storage, pricePerGB), monthly)},
		Outputs:   map[string]float64{component.FieldBackupMonthly: monthly},
	}, nil
}

// CalculateSLA prices a service level uplift on top of support.
func CalculateSLA(params component.Params, ctx Context) (component.Result, error) {
	r := newReader(component.SLA, params)
	level := r.choice("level", "standard", "standard", "priority", "critical")
	escalation := r.float("escalation_rate", ctx.Terms().CPIRate, 0, 0.25)
	if err := r.err(); err != nil {
		return component.Result{}, err
	}

	support := ctx.Value(component.Support, component.FieldSupportMonthly, 0)
	uplift := slaUplifts[level]
	monthly := support * uplift

	return component.Result{
		Totals:    recurringTotals(monthly, 0, escalation),
		Years:     recurringYears(monthly, escalation),
		Breakdown: []component.LineItem{recurringItem(fmt.Sprintf("%s response at %.0f%% of support", level, uplift*100), monthly)},
		Outputs:   map[string]float64{component.FieldSLAMonthly: monthly},
	}, nil
}

// CalculateManagedServices prices a management fee over monitoring and support.
func CalculateManagedServices(params component.Params, ctx Context) (component.Result, error) {
	r := newReader(component.ManagedServices, params)
	percent := r.float("management_percent", 0.10, 0, 1)
	flat := r.float("flat_fee", 0, 0, 1e5)
	escalation := r.float("escalation_rate", ctx.Terms().CPIRate, 0, 0.25)
	if err := r.err(); err != nil {
		return component.Result{}, err
	}

	base := ctx.Value(component.Monitoring, component.FieldMonitoringMonthly, 0) +
		ctx.Value(component.Support, component.FieldSupportMonthly, 0)
	fee := base * percent
	monthly := fee + flat

	return component.Result{
		Totals: recurringTotals(monthly, 0, escalation),
		Years:  recurringYears(monthly, escalation),
		Breakdown: []component.LineItem{
			recurringItem(fmt.Sprintf("Management at %.1f%% of %.2f", percent*100, base), fee),
			recurringItem("Flat management fee", flat),
		},
		Outputs: map[string]float64{component.FieldManagedMonthly: monthly},
	}, nil
}

// CalculateBundle prices a bundled package: a flat fee less a credit on the
// services it covers.
func CalculateBundle(params component.Params, ctx Context) (component.Result, error) {
	r := newReader(component.Bundle, params)
	name := r.choice("package", "none", "none", "essentials", "professional", "complete")
	escalation := r.float("escalation_rate", ctx.Terms().CPIRate, 0, 0.25)
	if err := r.err(); err != nil {
		return component.Result{}, err
	}

	pkg := bundlePackages[name]
	covered := ctx.Value(component.Monitoring, component.FieldMonitoringMonthly, 0) +
		ctx.Value(component.Support, component.FieldSupportMonthly, 0)
	if pkg.coversManaged {
		covered += ctx.Value(component.ManagedServices, component.FieldManagedMonthly, 0)
	}
	// The credit never exceeds the package fee.
	credit := min(covered*pkg.creditRate, pkg.fee)
	monthly := pkg.fee - credit

	result := component.Result{
		Totals: recurringTotals(monthly, 0, escalation),
		Years:  recurringYears(monthly, escalation),
		Breakdown: []component.LineItem{
			recurringItem(fmt.Sprintf("%s package fee", name), pkg.fee),
			recurringItem("Bundle credit", -credit),
		},
		Outputs: map[string]float64{component.FieldBundleCredit: credit},
	}
	if credit > 0 {
		result.Discounts = []component.Discount{{Name: name + " bundle credit", Rate: pkg.creditRate, Amount: credit}}
	}
	return result, nil
}
