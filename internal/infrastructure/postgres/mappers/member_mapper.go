package mappers

import (
	"github.com/vionex/vionex-mlm-service/internal/domain"
	"github.com/vionex/vionex-mlm-service/internal/infrastructure/postgres/models"
)

func ToDomainMember(model *models.MemberModel) *domain.Member {
	return &domain.Member{
		ID:                model.ID,
		UplineID:          model.UplineID,
		BinaryParentID:    model.BinaryParentID,
		LeftLegID:         model.LeftLegID,
		RightLegID:        model.RightLegID,
		PlacementPosition: domain.Position(model.PlacementPosition),
		RankID:            model.RankID,
		WalletBalance:     model.WalletBalance,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}
}

func ToGORMMember(member *domain.Member) *models.MemberModel {
	return &models.MemberModel{
		ID:                member.ID,
		UplineID:          member.UplineID,
		BinaryParentID:    member.BinaryParentID,
		LeftLegID:         member.LeftLegID,
		RightLegID:        member.RightLegID,
		PlacementPosition: string(member.PlacementPosition),
		RankID:            member.RankID,
		WalletBalance:     member.WalletBalance,
		CreatedAt:         member.CreatedAt,
		UpdatedAt:         member.UpdatedAt,
	}
}

func ToDomainRank(model *models.RankModel) *domain.Rank {
	return &domain.Rank{
		ID:                   model.ID,
		Name:                 model.Name,
		Level:                model.Level,
		MinPersonalSales:     model.MinPersonalSales,
		MinGroupSales:        model.MinGroupSales,
		MinDirectDownline:    model.MinDirectDownline,
		MinQualifiedDownline: model.MinQualifiedDownline,
		QualifiedRankLevel:   model.QualifiedRankLevel,
	}
}
