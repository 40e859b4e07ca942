package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TreeStore is the data-access contract over the relational store. All
// reads outside InTx see committed state; writes performed through the
// store passed to the InTx callback commit or roll back as one unit.
type TreeStore interface {
	// Member lookups
	GetMemberByID(ctx context.Context, id string) (*Member, error)
	// GetMemberForUpdate locks the member row for the rest of the
	// transaction. Only meaningful inside InTx.
	GetMemberForUpdate(ctx context.Context, id string) (*Member, error)
	GetChildrenByUplineID(ctx context.Context, uplineID string) ([]*Member, error)
	ListMemberIDs(ctx context.Context) ([]string, error)

	// Member writes
	UpdateMemberRank(ctx context.Context, memberID, rankID string) error
	SetBinaryChild(ctx context.Context, parentID, childID string, leg Position) error
	IncrementWalletBalance(ctx context.Context, memberID string, delta decimal.Decimal) error

	// Ranks
	GetRankByID(ctx context.Context, id string) (*Rank, error)
	GetRankByLevel(ctx context.Context, level int) (*Rank, error)
	ListRanks(ctx context.Context) ([]*Rank, error)

	// Products and rebate configs
	GetProductByID(ctx context.Context, id string) (*Product, error)
	GetRebateConfig(ctx context.Context, productID string, level int) (*RebateConfig, error)

	// Purchases
	GetPurchaseByID(ctx context.Context, id string) (*Purchase, error)
	GetPurchaseForUpdate(ctx context.Context, id string) (*Purchase, error)
	CreatePurchase(ctx context.Context, purchase *Purchase) error
	UpdatePurchaseStatus(ctx context.Context, id string, status PurchaseStatus) error
	MarkPurchaseDisbursed(ctx context.Context, id string, at time.Time) error
	SumCompletedPurchases(ctx context.Context, buyerIDs []string, from, to time.Time) (decimal.Decimal, error)

	// Ledger
	CreateRebate(ctx context.Context, rebate *Rebate) error
	GetRebatesByPurchaseID(ctx context.Context, purchaseID string) ([]*Rebate, error)
	AppendWalletTransaction(ctx context.Context, tx *WalletTransaction) error
	SumWalletTransactions(ctx context.Context, userID string) (decimal.Decimal, error)

	// InTx runs fn with a store scoped to one transaction; any error rolls
	// the whole unit back.
	InTx(ctx context.Context, fn func(store TreeStore) error) error
}
