package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hostpanel/backend/internal/domain/billing"
	"github.com/hostpanel/backend/internal/domain/catalog"
)

// BillableColumns holds the billing fields shared by every resource catalog
// table. BillingCheckpoint is the instant the resource is fully billed up to;
// NULL means never billed. Rows are soft-deleted when the underlying resource
// is deprovisioned, which removes them from every sweep query.
type BillableColumns struct {
	AccountID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	Name              string           `gorm:"size:255;not null"`
	PlanID            *uuid.UUID       `gorm:"type:uuid;index"`
	BackupAddOnID     *uuid.UUID       `gorm:"type:uuid"`
	BackupFrequency   string           `gorm:"size:16"`
	LegacyHourlyRate  *decimal.Decimal `gorm:"type:decimal(12,6)"`
	BillingCheckpoint *time.Time       `gorm:"index"`
	DeletedAt         gorm.DeletedAt   `gorm:"index"`
}

func (c *BillableColumns) toBillable(base BaseModel, kind billing.ResourceKind) *billing.BillableResource {
	return &billing.BillableResource{
		ID:               base.ID,
		Kind:             kind,
		AccountID:        c.AccountID,
		Name:             c.Name,
		PlanID:           c.PlanID,
		BackupAddOnID:    c.BackupAddOnID,
		BackupFrequency:  catalog.BackupFrequency(c.BackupFrequency),
		LegacyHourlyRate: c.LegacyHourlyRate,
		CreatedAt:        base.CreatedAt,
		Checkpoint:       c.BillingCheckpoint,
	}
}

func (c *BillableColumns) fromBillable(base *BaseModel, res *billing.BillableResource) {
	base.ID = res.ID
	base.CreatedAt = res.CreatedAt
	base.UpdatedAt = res.CreatedAt
	c.AccountID = res.AccountID
	c.Name = res.Name
	c.PlanID = res.PlanID
	c.BackupAddOnID = res.BackupAddOnID
	c.BackupFrequency = string(res.BackupFrequency)
	c.LegacyHourlyRate = res.LegacyHourlyRate
	c.BillingCheckpoint = res.Checkpoint
}

// VirtualMachineModel is the persistence model for virtual machines
type VirtualMachineModel struct {
	BaseModel
	BillableColumns
}

// TableName specifies the table name for VirtualMachineModel
func (VirtualMachineModel) TableName() string {
	return "virtual_machines"
}

// ToBillable converts the row to the uniform billing view
func (m *VirtualMachineModel) ToBillable() *billing.BillableResource {
	return m.toBillable(m.BaseModel, billing.KindVirtualMachine)
}

// FromBillable populates the row from the uniform billing view
func (m *VirtualMachineModel) FromBillable(res *billing.BillableResource) {
	m.fromBillable(&m.BaseModel, res)
}

// ManagedAppModel is the persistence model for managed application instances
type ManagedAppModel struct {
	BaseModel
	BillableColumns
}

// TableName specifies the table name for ManagedAppModel
func (ManagedAppModel) TableName() string {
	return "managed_apps"
}

// ToBillable converts the row to the uniform billing view
func (m *ManagedAppModel) ToBillable() *billing.BillableResource {
	return m.toBillable(m.BaseModel, billing.KindManagedApp)
}

// FromBillable populates the row from the uniform billing view
func (m *ManagedAppModel) FromBillable(res *billing.BillableResource) {
	m.fromBillable(&m.BaseModel, res)
}

// AddOnSubscriptionModel is the persistence model for standalone add-on
// subscriptions. PlanID is normally NULL here; the backup add-on is the
// priced product.
type AddOnSubscriptionModel struct {
	BaseModel
	BillableColumns
}

// TableName specifies the table name for AddOnSubscriptionModel
func (AddOnSubscriptionModel) TableName() string {
	return "addon_subscriptions"
}

// ToBillable converts the row to the uniform billing view
func (m *AddOnSubscriptionModel) ToBillable() *billing.BillableResource {
	return m.toBillable(m.BaseModel, billing.KindAddOnSubscription)
}

// FromBillable populates the row from the uniform billing view
func (m *AddOnSubscriptionModel) FromBillable(res *billing.BillableResource) {
	m.fromBillable(&m.BaseModel, res)
}
