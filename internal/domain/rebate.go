package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RebateStatus string

const (
	RebatePending   RebateStatus = "pending"
	RebateProcessed RebateStatus = "processed"
)

// Rebate is write-once. The (PurchaseID, ReceiverID, Level) triple is
// unique in the store and guards against double disbursement.
type Rebate struct {
	ID          string
	PurchaseID  string
	GeneratorID string
	ReceiverID  string
	Level       int
	RewardType  RewardType
	Amount      decimal.Decimal
	Status      RebateStatus
	ProcessedAt *time.Time
	CreatedAt   time.Time
}

type WalletTxType string

const (
	WalletTxRebate     WalletTxType = "rebate"
	WalletTxWithdrawal WalletTxType = "withdrawal"
	WalletTxAdminReset WalletTxType = "admin_reset"
)

// WalletTransaction rows form an append-only ledger. Member.WalletBalance
// must always equal the signed sum of the member's rows.
type WalletTransaction struct {
	ID          string
	UserID      string
	Amount      decimal.Decimal
	Type        WalletTxType
	Description string
	CreatedAt   time.Time
}
