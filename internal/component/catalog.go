package component

// Component identifiers.
const (
	Equipment         ID = "equipment"
	Licensing         ID = "licensing"
	Onboarding        ID = "onboarding"
	Training          ID = "training"
	Financing         ID = "financing"
	Installation      ID = "installation"
	Monitoring        ID = "monitoring"
	Support           ID = "support"
	Warranty          ID = "warranty"
	Maintenance       ID = "maintenance"
	CloudBackup       ID = "cloud_backup"
	SLA               ID = "sla"
	ManagedServices   ID = "managed_services"
	ProjectManagement ID = "project_management"
	Bundle            ID = "bundle"
)

// Output fields flowing between components.
const (
	FieldDeviceCount       = "device_count"
	FieldEquipmentValue    = "equipment_value"
	FieldSites             = "sites"
	FieldUserCount         = "user_count"
	FieldLicensingMonthly  = "licensing_monthly"
	FieldOnboardingFee     = "onboarding_fee"
	FieldTrainingFee       = "training_fee"
	FieldFinancedAmount    = "financed_amount"
	FieldMonthlyPayment    = "monthly_payment"
	FieldInstallationFee   = "installation_fee"
	FieldMonitoringMonthly = "monitoring_monthly"
	FieldSupportMonthly    = "support_monthly"
	FieldWarrantyAnnual    = "warranty_annual"
	FieldMaintenanceAnnual = "maintenance_annual"
	FieldBackupMonthly     = "backup_monthly"
	FieldSLAMonthly        = "sla_monthly"
	FieldManagedMonthly    = "managed_monthly"
	FieldProjectFee        = "project_fee"
	FieldBundleCredit      = "bundle_credit"
)

// Catalog returns the definitions of every component, leaves first. The
// returned slice is a fresh copy on every call.
func Catalog() []Definition {
	return []Definition{
		{
			ID: Equipment, Name: "Equipment", Billing: OneTime, Level: 0,
			Provides: []string{FieldDeviceCount, FieldEquipmentValue, FieldSites},
		},
		{
			ID: Licensing, Name: "Software licensing", Billing: Recurring, Level: 0,
			Provides: []string{FieldUserCount, FieldLicensingMonthly},
		},
		{
			ID: Onboarding, Name: "Onboarding", Billing: OneTime, Level: 0,
			Provides: []string{FieldOnboardingFee},
		},
		{
			ID: Training, Name: "Training", Billing: OneTime, Level: 0,
			Provides: []string{FieldTrainingFee},
		},
		{
			ID: Financing, Name: "Equipment financing", Billing: Recurring, Level: 1,
			Dependencies: []ID{Equipment},
			Provides:     []string{FieldFinancedAmount, FieldMonthlyPayment},
			Requires:     map[ID][]string{Equipment: {FieldEquipmentValue}},
		},
		{
			ID: Installation, Name: "Installation", Billing: OneTime, Level: 1,
			Dependencies: []ID{Equipment},
			Provides:     []string{FieldInstallationFee},
			Requires:     map[ID][]string{Equipment: {FieldDeviceCount, FieldSites}},
		},
		{
			ID: Monitoring, Name: "Monitoring", Billing: Recurring, Level: 1,
			Dependencies: []ID{Equipment},
			Provides:     []string{FieldMonitoringMonthly},
			Requires:     map[ID][]string{Equipment: {FieldDeviceCount}},
		},
		{
			ID: Support, Name: "Support", Billing: Recurring, Level: 1,
			Dependencies: []ID{Equipment, Licensing},
			Provides:     []string{FieldSupportMonthly},
			Requires: map[ID][]string{
				Equipment: {FieldDeviceCount},
				Licensing: {FieldUserCount},
			},
		},
		{
			ID: Warranty, Name: "Extended warranty", Billing: Recurring, Level: 1,
			Dependencies: []ID{Equipment},
			Provides:     []string{FieldWarrantyAnnual},
			Requires:     map[ID][]string{Equipment: {FieldEquipmentValue}},
		},
		{
			ID: Maintenance, Name: "Preventive maintenance", Billing: Recurring, Level: 1,
			Dependencies: []ID{Equipment},
			Provides:     []string{FieldMaintenanceAnnual},
			Requires:     map[ID][]string{Equipment: {FieldEquipmentValue, FieldDeviceCount}},
		},
		{
			ID: CloudBackup, Name: "Cloud backup", Billing: Recurring, Level: 1,
			Dependencies: []ID{Licensing},
			Provides:     []string{FieldBackupMonthly},
			Requires:     map[ID][]string{Licensing: {FieldUserCount}},
		},
		{
			ID: SLA, Name: "Service level upgrade", Billing: Recurring, Level: 2,
			Dependencies: []ID{Support},
			Provides:     []string{FieldSLAMonthly},
			Requires:     map[ID][]string{Support: {FieldSupportMonthly}},
		},
		{
			ID: ManagedServices, Name: "Managed services", Billing: Recurring, Level: 2,
			Dependencies: []ID{Monitoring, Support},
			Provides:     []string{FieldManagedMonthly},
			Requires: map[ID][]string{
				Monitoring: {FieldMonitoringMonthly},
				Support:    {FieldSupportMonthly},
			},
		},
		{
			ID: ProjectManagement, Name: "Project management", Billing: OneTime, Level: 2,
			Dependencies: []ID{Onboarding, Installation},
			Provides:     []string{FieldProjectFee},
			Requires: map[ID][]string{
				Onboarding:   {FieldOnboardingFee},
				Installation: {FieldInstallationFee},
			},
		},
		{
			ID: Bundle, Name: "Bundled package", Billing: Recurring, Level: 3,
			Dependencies: []ID{Monitoring, Support, ManagedServices},
			Provides:     []string{FieldBundleCredit},
			Requires: map[ID][]string{
				Monitoring:      {FieldMonitoringMonthly},
				Support:         {FieldSupportMonthly},
				ManagedServices: {FieldManagedMonthly},
			},
		},
	}
}

// Lookup returns the catalog definition for id.
func Lookup(id ID) (Definition, bool) {
	for _, def := range Catalog() {
		if def.ID == id {
			return def, true
		}
	}
	return Definition{}, false
}
