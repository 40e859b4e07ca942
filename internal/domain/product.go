package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID         string
	Name       string
	Price      decimal.Decimal
	PointValue decimal.Decimal
}

type RewardType string

const (
	RewardPercentage RewardType = "percentage"
	RewardFixed      RewardType = "fixed"
)

// RebateConfig defines the reward for one upline level of one product.
// At most one config exists per (product, level) pair.
type RebateConfig struct {
	ID         string
	ProductID  string
	Level      int
	RewardType RewardType
	// Percentage of the purchase total for RewardPercentage,
	// flat amount for RewardFixed. Only one of the two is meaningful.
	Percentage  decimal.Decimal
	FixedAmount decimal.Decimal
}

// Amount computes the rebate for a purchase total, rounded half-up to the
// cent at computation time. The switch is exhaustive over reward types.
func (c *RebateConfig) Amount(purchaseTotal decimal.Decimal) (decimal.Decimal, error) {
	switch c.RewardType {
	case RewardPercentage:
		return purchaseTotal.Mul(c.Percentage).Div(decimal.NewFromInt(100)).Round(2), nil
	case RewardFixed:
		return c.FixedAmount.Round(2), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: unknown reward type %q", ErrValidation, c.RewardType)
	}
}
