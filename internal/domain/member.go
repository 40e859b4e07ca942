package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position of a member under its binary parent.
type Position string

const (
	PositionNone  Position = ""
	PositionLeft  Position = "left"
	PositionRight Position = "right"
)

// Member participates in two independent trees: the unilevel tree via
// UplineID and the binary tree via BinaryParentID/LeftLegID/RightLegID.
// Absent references are nil, never sentinel ids.
type Member struct {
	ID                string
	UplineID          *string
	BinaryParentID    *string
	LeftLegID         *string
	RightLegID        *string
	PlacementPosition Position
	RankID            string
	WalletBalance     decimal.Decimal
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (m *Member) LegChildID(leg Position) *string {
	if leg == PositionLeft {
		return m.LeftLegID
	}
	return m.RightLegID
}

type Rank struct {
	ID    string
	Name  string
	Level int

	// Qualification thresholds for promotion INTO this rank.
	MinPersonalSales     decimal.Decimal
	MinGroupSales        decimal.Decimal
	MinDirectDownline    int
	MinQualifiedDownline int
	// Direct downline members count as qualified when their rank level
	// is >= QualifiedRankLevel.
	QualifiedRankLevel int
}
