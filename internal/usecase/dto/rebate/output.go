package rebatedto

import (
	"github.com/shopspring/decimal"
)

type RebateResult struct {
	RebateID   string
	ReceiverID string
	Level      int
	RewardType string
	Amount     decimal.Decimal
}

type DisbursementResult struct {
	PurchaseID       string
	AlreadyDisbursed bool
	Rebates          []RebateResult
	TotalAmount      decimal.Decimal
}
