package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/vionex/vionex-mlm-service/internal/domain"
)

type WalletUsecase interface {
	Reconcile(ctx context.Context, memberID string) (*ReconciliationResult, error)
}

type ReconciliationResult struct {
	MemberID      string
	WalletBalance decimal.Decimal
	LedgerSum     decimal.Decimal
	Consistent    bool
}

type DefaultWalletUsecase struct {
	store domain.TreeStore
}

func NewDefaultWalletUsecase(store domain.TreeStore) *DefaultWalletUsecase {
	return &DefaultWalletUsecase{store: store}
}

// Reconcile checks the ledger invariant: the denormalized wallet balance
// must equal the signed sum of the member's wallet transactions.
func (uc *DefaultWalletUsecase) Reconcile(ctx context.Context, memberID string) (*ReconciliationResult, error) {
	member, err := uc.store.GetMemberByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("load member %s: %w", memberID, err)
	}
	ledgerSum, err := uc.store.SumWalletTransactions(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("sum ledger of %s: %w", memberID, err)
	}

	result := &ReconciliationResult{
		MemberID:      memberID,
		WalletBalance: member.WalletBalance,
		LedgerSum:     ledgerSum,
		Consistent:    member.WalletBalance.Equal(ledgerSum),
	}
	if !result.Consistent {
		return result, fmt.Errorf("%w: %w for member %s: balance %s, ledger %s",
			domain.ErrIntegrityViolation, domain.ErrLedgerMismatch, memberID,
			member.WalletBalance.StringFixed(2), ledgerSum.StringFixed(2))
	}
	return result, nil
}
