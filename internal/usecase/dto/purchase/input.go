package purchasedto

type CreatePurchaseInput struct {
	BuyerID   string
	ProductID string
	Quantity  int
}
