package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// The composite unique index is the idempotency guard against double
// disbursement of one purchase to one receiver at one level.
type RebateModel struct {
	ID          string          `gorm:"primaryKey;type:uuid"`
	PurchaseID  string          `gorm:"type:uuid;uniqueIndex:idx_rebate_purchase_receiver_level"`
	GeneratorID string          `gorm:"type:uuid;index:idx_rebate_generator"`
	ReceiverID  string          `gorm:"type:uuid;uniqueIndex:idx_rebate_purchase_receiver_level;index:idx_rebate_receiver"`
	Level       int             `gorm:"uniqueIndex:idx_rebate_purchase_receiver_level"`
	RewardType  string          `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Status      string          `gorm:"not null"`
	ProcessedAt *time.Time
	CreatedAt   time.Time
}

type WalletTransactionModel struct {
	ID          string `gorm:"primaryKey"`
	UserID      string `gorm:"type:uuid;index:idx_wallet_tx_user"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Type        string          `gorm:"not null"`
	Description string
	CreatedAt   time.Time `gorm:"index:idx_wallet_tx_created_at"`
}
