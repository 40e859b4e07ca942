package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductModel struct {
	ID         string `gorm:"primaryKey;type:uuid"`
	Name       string
	Price      decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	PointValue decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RebateConfigModel holds at most one row per (product, level) pair.
type RebateConfigModel struct {
	ID          string          `gorm:"primaryKey;type:uuid"`
	ProductID   string          `gorm:"type:uuid;uniqueIndex:idx_config_product_level"`
	Level       int             `gorm:"uniqueIndex:idx_config_product_level"`
	RewardType  string          `gorm:"not null"`
	Percentage  decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0"`
	FixedAmount decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
