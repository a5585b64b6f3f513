package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hostpanel/backend/internal/domain/billing"
	"github.com/hostpanel/backend/internal/domain/shared/valueobject"
)

// LedgerEntryModel is the persistence model for billing ledger entries.
// Rows are append-only; there is no update path.
type LedgerEntryModel struct {
	BaseModel
	ResourceID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_resource_period,priority:1"`
	ResourceKind     string          `gorm:"size:32;not null"`
	AccountID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	PeriodStart      time.Time       `gorm:"not null;index:idx_ledger_resource_period,priority:2"`
	PeriodEnd        time.Time       `gorm:"not null"`
	HoursCharged     int64           `gorm:"not null"`
	RateBaseHourly   decimal.Decimal `gorm:"type:decimal(18,10);not null"`
	RateAddOnHourly  decimal.Decimal `gorm:"type:decimal(18,10);not null"`
	RateMultiplier   decimal.Decimal `gorm:"type:decimal(6,3);not null"`
	RateUsedFallback bool            `gorm:"not null;default:false"`
	Amount           decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	Currency         string          `gorm:"size:3;not null"`
	Outcome          string          `gorm:"size:16;not null;index"`
	FailureReason    *string         `gorm:"size:32"`
	PaymentReference *uuid.UUID      `gorm:"type:uuid"`
}

// TableName specifies the table name for LedgerEntryModel
func (LedgerEntryModel) TableName() string {
	return "billing_ledger_entries"
}

// ToDomain converts LedgerEntryModel to a domain LedgerEntry
func (m *LedgerEntryModel) ToDomain() *billing.LedgerEntry {
	entry := &billing.LedgerEntry{
		BaseEntity:   m.BaseModel.ToDomain(),
		ResourceID:   m.ResourceID,
		ResourceKind: billing.ResourceKind(m.ResourceKind),
		AccountID:    m.AccountID,
		PeriodStart:  m.PeriodStart,
		PeriodEnd:    m.PeriodEnd,
		HoursCharged: m.HoursCharged,
		Rate: billing.RateComponents{
			BaseHourly:   m.RateBaseHourly,
			AddOnHourly:  m.RateAddOnHourly,
			Multiplier:   m.RateMultiplier,
			UsedFallback: m.RateUsedFallback,
		},
		Amount:           valueobject.MustNewMoney(m.Amount, valueobject.Currency(m.Currency)),
		Outcome:          billing.ChargeOutcome(m.Outcome),
		PaymentReference: m.PaymentReference,
	}
	if m.FailureReason != nil {
		reason := billing.FailureReason(*m.FailureReason)
		entry.FailureReason = &reason
	}
	return entry
}

// FromDomain populates LedgerEntryModel from a domain LedgerEntry
func (m *LedgerEntryModel) FromDomain(e *billing.LedgerEntry) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.ResourceID = e.ResourceID
	m.ResourceKind = string(e.ResourceKind)
	m.AccountID = e.AccountID
	m.PeriodStart = e.PeriodStart
	m.PeriodEnd = e.PeriodEnd
	m.HoursCharged = e.HoursCharged
	m.RateBaseHourly = e.Rate.BaseHourly
	m.RateAddOnHourly = e.Rate.AddOnHourly
	m.RateMultiplier = e.Rate.Multiplier
	m.RateUsedFallback = e.Rate.UsedFallback
	m.Amount = e.Amount.Amount()
	m.Currency = string(e.Amount.Currency())
	m.Outcome = string(e.Outcome)
	m.PaymentReference = e.PaymentReference
	if e.FailureReason != nil {
		reason := e.FailureReason.String()
		m.FailureReason = &reason
	} else {
		m.FailureReason = nil
	}
}
