package models

import (
	"github.com/hostpanel/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// PlanModel is the persistence model for compute plans
type PlanModel struct {
	BaseModel
	Code        string          `gorm:"uniqueIndex;size:64;not null"`
	Name        string          `gorm:"size:255;not null"`
	BasePrice   decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	MarkupPrice decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	Active      bool            `gorm:"not null;default:true"`
}

// TableName specifies the table name for PlanModel
func (PlanModel) TableName() string {
	return "plans"
}

// ToDomain converts PlanModel to a domain Plan
func (m *PlanModel) ToDomain() *catalog.Plan {
	return &catalog.Plan{
		BaseEntity:  m.BaseModel.ToDomain(),
		Code:        m.Code,
		Name:        m.Name,
		BasePrice:   m.BasePrice,
		MarkupPrice: m.MarkupPrice,
		Active:      m.Active,
	}
}

// FromDomain populates PlanModel from a domain Plan
func (m *PlanModel) FromDomain(p *catalog.Plan) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.Code = p.Code
	m.Name = p.Name
	m.BasePrice = p.BasePrice
	m.MarkupPrice = p.MarkupPrice
	m.Active = p.Active
}

// BackupAddOnModel is the persistence model for backup add-ons
type BackupAddOnModel struct {
	BaseModel
	Code      string          `gorm:"uniqueIndex;size:64;not null"`
	Name      string          `gorm:"size:255;not null"`
	BasePrice decimal.Decimal `gorm:"type:decimal(12,6);not null"`
	Upcharge  decimal.Decimal `gorm:"type:decimal(12,6);not null"`
	Active    bool            `gorm:"not null;default:true"`
}

// TableName specifies the table name for BackupAddOnModel
func (BackupAddOnModel) TableName() string {
	return "backup_addons"
}

// ToDomain converts BackupAddOnModel to a domain BackupAddOn
func (m *BackupAddOnModel) ToDomain() *catalog.BackupAddOn {
	return &catalog.BackupAddOn{
		BaseEntity: m.BaseModel.ToDomain(),
		Code:       m.Code,
		Name:       m.Name,
		BasePrice:  m.BasePrice,
		Upcharge:   m.Upcharge,
		Active:     m.Active,
	}
}

// FromDomain populates BackupAddOnModel from a domain BackupAddOn
func (m *BackupAddOnModel) FromDomain(a *catalog.BackupAddOn) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Code = a.Code
	m.Name = a.Name
	m.BasePrice = a.BasePrice
	m.Upcharge = a.Upcharge
	m.Active = a.Active
}
