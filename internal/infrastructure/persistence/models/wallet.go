package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditWalletModel is the persistence model for per-account prepaid credit
// wallets. The wallet is owned by the payments subsystem; billing only reads
// the balance and issues conditional debits.
type CreditWalletModel struct {
	BaseModel
	AccountID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Balance   decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0"`
	Currency  string          `gorm:"size:3;not null;default:'USD'"`
}

// TableName specifies the table name for CreditWalletModel
func (CreditWalletModel) TableName() string {
	return "credit_wallets"
}

// PaymentTransactionModel records every wallet movement. Billing debits
// append a completed row whose ID becomes the ledger's payment reference.
type PaymentTransactionModel struct {
	BaseModel
	AccountID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	Currency    string          `gorm:"size:3;not null"`
	Direction   string          `gorm:"size:8;not null"` // debit, credit
	Description string          `gorm:"size:512;not null"`
	Status      string          `gorm:"size:16;not null;index"`
}

// TableName specifies the table name for PaymentTransactionModel
func (PaymentTransactionModel) TableName() string {
	return "payment_transactions"
}
