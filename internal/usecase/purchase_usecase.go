package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vionex/vionex-mlm-service/internal/domain"
	purchasedto "github.com/vionex/vionex-mlm-service/internal/usecase/dto/purchase"
	rebatedto "github.com/vionex/vionex-mlm-service/internal/usecase/dto/rebate"
)

type PurchaseUsecase interface {
	CreatePurchase(ctx context.Context, input *purchasedto.CreatePurchaseInput) (*domain.Purchase, error)
	CompletePurchase(ctx context.Context, purchaseID string) (*rebatedto.DisbursementResult, error)
	CancelPurchase(ctx context.Context, purchaseID string) error
}

type DefaultPurchaseUsecase struct {
	store        domain.TreeStore
	disbursement DisbursementUsecase
}

func NewDefaultPurchaseUsecase(store domain.TreeStore, disbursement DisbursementUsecase) *DefaultPurchaseUsecase {
	return &DefaultPurchaseUsecase{
		store:        store,
		disbursement: disbursement,
	}
}

func (uc *DefaultPurchaseUsecase) CreatePurchase(ctx context.Context, input *purchasedto.CreatePurchaseInput) (*domain.Purchase, error) {
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
	}
	if _, err := uc.store.GetMemberByID(ctx, input.BuyerID); err != nil {
		return nil, fmt.Errorf("load buyer %s: %w", input.BuyerID, err)
	}
	product, err := uc.store.GetProductByID(ctx, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("load product %s: %w", input.ProductID, err)
	}

	qty := decimal.NewFromInt(int64(input.Quantity))
	purchase := &domain.Purchase{
		ID:          uuid.New().String(),
		BuyerID:     input.BuyerID,
		ProductID:   input.ProductID,
		Quantity:    input.Quantity,
		TotalAmount: product.Price.Mul(qty).Round(2),
		TotalPV:     product.PointValue.Mul(qty).Round(2),
		Status:      domain.PurchasePending,
		CreatedAt:   time.Now(),
	}

	if err := uc.store.CreatePurchase(ctx, purchase); err != nil {
		return nil, fmt.Errorf("create purchase: %w", err)
	}

	return purchase, nil
}

// CompletePurchase flips the purchase to completed and runs the rebate
// cascade. A purchase already completed and disbursed is a no-op returning
// the existing results.
func (uc *DefaultPurchaseUsecase) CompletePurchase(ctx context.Context, purchaseID string) (*rebatedto.DisbursementResult, error) {
	purchase, err := uc.store.GetPurchaseByID(ctx, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("load purchase %s: %w", purchaseID, err)
	}

	switch purchase.Status {
	case domain.PurchaseCancelled:
		return nil, fmt.Errorf("%w: purchase %s is cancelled", domain.ErrValidation, purchaseID)
	case domain.PurchasePending:
		if err := uc.store.UpdatePurchaseStatus(ctx, purchaseID, domain.PurchaseCompleted); err != nil {
			return nil, fmt.Errorf("complete purchase %s: %w", purchaseID, err)
		}
	}

	return uc.disbursement.Disburse(ctx, purchaseID)
}

func (uc *DefaultPurchaseUsecase) CancelPurchase(ctx context.Context, purchaseID string) error {
	purchase, err := uc.store.GetPurchaseByID(ctx, purchaseID)
	if err != nil {
		return fmt.Errorf("load purchase %s: %w", purchaseID, err)
	}
	// Completed purchases are immutable.
	if purchase.Status == domain.PurchaseCompleted {
		return fmt.Errorf("%w: purchase %s is completed", domain.ErrValidation, purchaseID)
	}
	return uc.store.UpdatePurchaseStatus(ctx, purchaseID, domain.PurchaseCancelled)
}
