package request

type CreatePurchaseRequest struct {
	BuyerID   string `json:"buyer_id" binding:"required"`
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

type PlaceMemberRequest struct {
	MemberID  string `json:"member_id" binding:"required"`
	SponsorID string `json:"sponsor_id" binding:"required"`
}
