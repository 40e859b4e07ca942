package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseCancelled PurchaseStatus = "cancelled"
)

// Purchase is immutable once completed. DisbursedAt marks that the rebate
// cascade for this purchase has committed; the purchase id is the
// idempotency key for disbursement.
type Purchase struct {
	ID          string
	BuyerID     string
	ProductID   string
	Quantity    int
	TotalAmount decimal.Decimal
	TotalPV     decimal.Decimal
	Status      PurchaseStatus
	DisbursedAt *time.Time
	CreatedAt   time.Time
}
