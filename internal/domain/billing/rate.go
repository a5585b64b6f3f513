package billing

import (
	"github.com/hostpanel/backend/internal/domain/catalog"
	"github.com/hostpanel/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// HoursPerMonth is the canonical divisor converting monthly plan prices into
// hourly rates.
const HoursPerMonth = 730

// AmountPrecision is the number of decimal places a total charge is rounded
// to. Rounding happens exactly once, at total-amount computation; the hourly
// rate itself is never rounded.
const AmountPrecision = 4

// RateComponents is the per-hour rate of a resource broken into its parts.
type RateComponents struct {
	BaseHourly  decimal.Decimal `json:"base_hourly"`
	AddOnHourly decimal.Decimal `json:"addon_hourly"`
	Multiplier  decimal.Decimal `json:"multiplier"`
	// UsedFallback marks a rate that came from the legacy fallback because
	// the plan lookup failed. Surfaced so operators can spot catalog drift.
	UsedFallback bool `json:"used_fallback,omitempty"`
}

// RateFromPlan computes the rate for a resource from its plan pricing and
// optional attached backup add-on. A nil plan contributes a zero base, which
// is how standalone add-on subscriptions are priced.
func RateFromPlan(plan *catalog.Plan, addon *catalog.BackupAddOn, freq catalog.BackupFrequency) RateComponents {
	rc := RateComponents{
		BaseHourly:  decimal.Zero,
		AddOnHourly: decimal.Zero,
		Multiplier:  decimal.NewFromInt(1),
	}
	if plan != nil {
		rc.BaseHourly = plan.MonthlyTotal().Div(decimal.NewFromInt(HoursPerMonth))
	}
	if addon != nil {
		rc.AddOnHourly = addon.HourlyBase()
		rc.Multiplier = freq.Multiplier()
	}
	return rc
}

// FallbackRate builds a rate from an explicit hourly figure. Used when the
// plan lookup fails and the resource carries a legacy hourly rate, or as the
// configured platform default.
func FallbackRate(hourly decimal.Decimal) RateComponents {
	return RateComponents{
		BaseHourly:   hourly,
		AddOnHourly:  decimal.Zero,
		Multiplier:   decimal.NewFromInt(1),
		UsedFallback: true,
	}
}

// TotalHourly returns base + addOn x multiplier, unrounded.
func (rc RateComponents) TotalHourly() decimal.Decimal {
	return rc.BaseHourly.Add(rc.AddOnHourly.Mul(rc.Multiplier))
}

// AmountFor returns the charge for the given whole hours, rounded once to
// AmountPrecision decimal places.
func (rc RateComponents) AmountFor(hours int64) valueobject.Money {
	total := rc.TotalHourly().Mul(decimal.NewFromInt(hours)).Round(AmountPrecision)
	return valueobject.NewMoneyUSD(total)
}

// IsZero returns true when the rate charges nothing
func (rc RateComponents) IsZero() bool {
	return rc.TotalHourly().IsZero()
}
