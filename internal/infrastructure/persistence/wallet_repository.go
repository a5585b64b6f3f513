package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hostpanel/backend/internal/domain/billing"
	"github.com/hostpanel/backend/internal/domain/shared"
	"github.com/hostpanel/backend/internal/domain/shared/valueobject"
	"github.com/hostpanel/backend/internal/infrastructure/persistence/models"
)

// GormWalletGateway implements billing.WalletGateway against the credit
// wallet tables owned by the payments subsystem. Debits are conditional
// updates, so a concurrent debit can never drive a balance negative.
type GormWalletGateway struct {
	db *gorm.DB
}

// NewGormWalletGateway creates a new wallet gateway
func NewGormWalletGateway(db *gorm.DB) *GormWalletGateway {
	return &GormWalletGateway{db: db}
}

// GetBalance returns the wallet balance for an account.
// Returns shared.ErrNotFound when the account has no wallet.
func (g *GormWalletGateway) GetBalance(ctx context.Context, accountID uuid.UUID) (valueobject.Money, error) {
	var wallet models.CreditWalletModel
	err := g.db.WithContext(ctx).Where("account_id = ?", accountID).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return valueobject.Money{}, shared.ErrNotFound
		}
		return valueobject.Money{}, err
	}
	return valueobject.MustNewMoney(wallet.Balance, valueobject.Currency(wallet.Currency)), nil
}

// Debit atomically deducts amount from the account's wallet and records a
// completed payment transaction. Returns shared.ErrNotFound when the wallet
// does not exist and shared.ErrInsufficientBalance when the balance does not
// cover the amount.
func (g *GormWalletGateway) Debit(ctx context.Context, accountID uuid.UUID, amount valueobject.Money, description string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.CreditWalletModel{}).
			Where("account_id = ? AND balance >= ?", accountID, amount.Amount()).
			Updates(map[string]any{
				"balance":    gorm.Expr("balance - ?", amount.Amount()),
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Distinguish a missing wallet from one that cannot cover the
			// amount.
			var count int64
			if err := tx.Model(&models.CreditWalletModel{}).
				Where("account_id = ?", accountID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return shared.ErrNotFound
			}
			return shared.ErrInsufficientBalance
		}

		record := models.PaymentTransactionModel{
			BaseModel: models.BaseModel{
				ID:        uuid.New(),
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			},
			AccountID:   accountID,
			Amount:      amount.Amount(),
			Currency:    string(amount.Currency()),
			Direction:   "debit",
			Description: description,
			Status:      "completed",
		}
		return tx.Create(&record).Error
	})
}

// GormPaymentLookup implements billing.PaymentLookup over the payment
// transaction table
type GormPaymentLookup struct {
	db *gorm.DB
}

// NewGormPaymentLookup creates a new payment lookup
func NewGormPaymentLookup(db *gorm.DB) *GormPaymentLookup {
	return &GormPaymentLookup{db: db}
}

// LatestCompletedTransaction returns the most recent completed debit for the
// account with the given description
func (l *GormPaymentLookup) LatestCompletedTransaction(ctx context.Context, accountID uuid.UUID, description string) (uuid.UUID, error) {
	var record models.PaymentTransactionModel
	err := l.db.WithContext(ctx).
		Where("account_id = ? AND description = ? AND status = ?", accountID, description, "completed").
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, shared.ErrNotFound
		}
		return uuid.Nil, err
	}
	return record.ID, nil
}

// Interface guards
var (
	_ billing.WalletGateway = (*GormWalletGateway)(nil)
	_ billing.PaymentLookup = (*GormPaymentLookup)(nil)
)
