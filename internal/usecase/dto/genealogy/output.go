package genealogydto

import "github.com/shopspring/decimal"

type Node struct {
	MemberID          string  `json:"member_id"`
	UplineID          *string `json:"upline_id,omitempty"`
	RankID            string  `json:"rank_id"`
	Level             int     `json:"level"`
	DirectDownline    int     `json:"direct_downline"`
	PlacementPosition string  `json:"placement_position,omitempty"`
}

type Stats struct {
	TotalMembers  int             `json:"total_members"`
	LevelCounts   map[int]int     `json:"level_counts"`
	TotalBalance  decimal.Decimal `json:"total_balance"`
	RankHistogram map[string]int  `json:"rank_histogram"`
}

type Page struct {
	RootID   string `json:"root_id"`
	MaxDepth int    `json:"max_depth"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Total    int    `json:"total"`
	Nodes    []Node `json:"nodes"`
	Stats    *Stats `json:"stats,omitempty"`
	// Degraded is set when the stats sub-query failed; the base page is
	// still valid.
	Degraded bool `json:"degraded,omitempty"`
}
