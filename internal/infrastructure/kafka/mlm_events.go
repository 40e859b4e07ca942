package publisher

import "time"

const (
	TopicRebateEvents    = "rebate-events"
	TopicRankEvents      = "rank-events"
	TopicPlacementEvents = "placement-events"
)

type RebateDisbursedEvent struct {
	PurchaseID  string    `json:"purchase_id"`
	BuyerID     string    `json:"buyer_id"`
	ProductID   string    `json:"product_id"`
	RebateCount int       `json:"rebate_count"`
	TotalAmount string    `json:"total_amount"`
	Timestamp   time.Time `json:"timestamp"`
}

type RankPromotedEvent struct {
	MemberID   string    `json:"member_id"`
	FromRankID string    `json:"from_rank_id"`
	ToRankID   string    `json:"to_rank_id"`
	ToLevel    int       `json:"to_level"`
	Timestamp  time.Time `json:"timestamp"`
}

type MemberPlacedEvent struct {
	MemberID  string    `json:"member_id"`
	SponsorID string    `json:"sponsor_id"`
	ParentID  string    `json:"parent_id"`
	Position  string    `json:"position"`
	Timestamp time.Time `json:"timestamp"`
}
