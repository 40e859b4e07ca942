package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PurchaseModel struct {
	ID          string          `gorm:"primaryKey;type:uuid"`
	BuyerID     string          `gorm:"type:uuid;index:idx_purchase_buyer"`
	ProductID   string          `gorm:"type:uuid"`
	Quantity    int             `gorm:"not null"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	TotalPV     decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	Status      string          `gorm:"index:idx_purchase_status"`
	DisbursedAt *time.Time
	CreatedAt   time.Time `gorm:"index:idx_purchase_created_at"`
	UpdatedAt   time.Time
}
