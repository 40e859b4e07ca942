package binarydto

import "github.com/shopspring/decimal"

type PlacementResult struct {
	MemberID string
	ParentID string
	Position string
}

type LegVolumeResult struct {
	MemberID string
	Leg      string
	Volume   decimal.Decimal
}

type MatchingResult struct {
	MemberID      string
	LeftVolume    decimal.Decimal
	RightVolume   decimal.Decimal
	MatchedVolume decimal.Decimal
	Commission    decimal.Decimal
	// CarriedForward is the unmatched excess on the stronger leg. Zero
	// unless carry-forward is enabled in config.
	CarriedForward decimal.Decimal
}
