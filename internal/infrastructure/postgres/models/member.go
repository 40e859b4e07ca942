package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MemberModel struct {
	ID                string  `gorm:"primaryKey;type:uuid"`
	UplineID          *string `gorm:"type:uuid;index:idx_member_upline"`
	BinaryParentID    *string `gorm:"type:uuid;index:idx_member_binary_parent"`
	LeftLegID         *string `gorm:"type:uuid"`
	RightLegID        *string `gorm:"type:uuid"`
	PlacementPosition string
	RankID            string          `gorm:"type:uuid;index:idx_member_rank"`
	WalletBalance     decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type RankModel struct {
	ID                   string `gorm:"primaryKey;type:uuid"`
	Name                 string
	Level                int             `gorm:"uniqueIndex:idx_rank_level"`
	MinPersonalSales     decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	MinGroupSales        decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	MinDirectDownline    int             `gorm:"not null;default:0"`
	MinQualifiedDownline int             `gorm:"not null;default:0"`
	QualifiedRankLevel   int             `gorm:"not null;default:0"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
