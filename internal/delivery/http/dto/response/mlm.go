package response

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type DisbursementResponse struct {
	PurchaseID       string           `json:"purchase_id"`
	AlreadyDisbursed bool             `json:"already_disbursed"`
	TotalAmount      string           `json:"total_amount"`
	Rebates          []RebateResponse `json:"rebates"`
}

type RebateResponse struct {
	RebateID   string `json:"rebate_id"`
	ReceiverID string `json:"receiver_id"`
	Level      int    `json:"level"`
	RewardType string `json:"reward_type"`
	Amount     string `json:"amount"`
}

type LegVolumeResponse struct {
	MemberID string `json:"member_id"`
	Leg      string `json:"leg"`
	Volume   string `json:"volume"`
}

type MatchingResponse struct {
	MemberID       string `json:"member_id"`
	LeftVolume     string `json:"left_volume"`
	RightVolume    string `json:"right_volume"`
	MatchedVolume  string `json:"matched_volume"`
	Commission     string `json:"commission"`
	CarriedForward string `json:"carried_forward"`
}

type ReconciliationResponse struct {
	MemberID      string `json:"member_id"`
	WalletBalance string `json:"wallet_balance"`
	LedgerSum     string `json:"ledger_sum"`
	Consistent    bool   `json:"consistent"`
}
