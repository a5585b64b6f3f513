package catalog

import (
	"github.com/hostpanel/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BackupFrequency is the configured backup schedule of a backup add-on.
type BackupFrequency string

const (
	// BackupFrequencyDaily runs backups every day and carries a rate upcharge
	BackupFrequencyDaily BackupFrequency = "daily"
	// BackupFrequencyWeekly is the default metered backup tier
	BackupFrequencyWeekly BackupFrequency = "weekly"
)

// IsValid returns true if the frequency is a known tier
func (f BackupFrequency) IsValid() bool {
	switch f {
	case BackupFrequencyDaily, BackupFrequencyWeekly:
		return true
	default:
		return false
	}
}

// Multiplier returns the hourly-rate multiplier applied to the add-on
// component. Daily backups bill at 1.5x; weekly and unknown tiers at 1.0x.
func (f BackupFrequency) Multiplier() decimal.Decimal {
	if f == BackupFrequencyDaily {
		return decimal.NewFromFloat(1.5)
	}
	return decimal.NewFromInt(1)
}

// Plan holds the monthly pricing for a compute plan (VM or managed app).
// BasePrice and MarkupPrice are monthly figures; the hourly rate is derived
// by the rate calculator using the canonical hours-per-month divisor.
type Plan struct {
	shared.BaseEntity
	Code        string
	Name        string
	BasePrice   decimal.Decimal
	MarkupPrice decimal.Decimal
	Active      bool
}

// MonthlyTotal returns base plus markup, the figure divided into an hourly rate
func (p *Plan) MonthlyTotal() decimal.Decimal {
	return p.BasePrice.Add(p.MarkupPrice)
}

// NewPlan creates a plan with validation
func NewPlan(code, name string, basePrice, markupPrice decimal.Decimal) (*Plan, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_PLAN", "Plan code cannot be empty")
	}
	if basePrice.IsNegative() || markupPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PLAN", "Plan prices cannot be negative")
	}
	return &Plan{
		BaseEntity:  shared.NewBaseEntity(),
		Code:        code,
		Name:        name,
		BasePrice:   basePrice,
		MarkupPrice: markupPrice,
		Active:      true,
	}, nil
}

// BackupAddOn holds the hourly pricing for a backup add-on attachable to a
// resource, or sold standalone as an add-on subscription.
type BackupAddOn struct {
	shared.BaseEntity
	Code      string
	Name      string
	BasePrice decimal.Decimal
	Upcharge  decimal.Decimal
	Active    bool
}

// HourlyBase returns the add-on's hourly price before the frequency multiplier
func (a *BackupAddOn) HourlyBase() decimal.Decimal {
	return a.BasePrice.Add(a.Upcharge)
}

// NewBackupAddOn creates a backup add-on with validation
func NewBackupAddOn(code, name string, basePrice, upcharge decimal.Decimal) (*BackupAddOn, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_ADDON", "Add-on code cannot be empty")
	}
	if basePrice.IsNegative() || upcharge.IsNegative() {
		return nil, shared.NewDomainError("INVALID_ADDON", "Add-on prices cannot be negative")
	}
	return &BackupAddOn{
		BaseEntity: shared.NewBaseEntity(),
		Code:       code,
		Name:       name,
		BasePrice:  basePrice,
		Upcharge:   upcharge,
		Active:     true,
	}, nil
}
