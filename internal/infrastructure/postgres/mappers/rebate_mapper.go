package mappers

import (
	"github.com/vionex/vionex-mlm-service/internal/domain"
	"github.com/vionex/vionex-mlm-service/internal/infrastructure/postgres/models"
)

func ToDomainRebate(model *models.RebateModel) *domain.Rebate {
	return &domain.Rebate{
		ID:          model.ID,
		PurchaseID:  model.PurchaseID,
		GeneratorID: model.GeneratorID,
		ReceiverID:  model.ReceiverID,
		Level:       model.Level,
		RewardType:  domain.RewardType(model.RewardType),
		Amount:      model.Amount,
		Status:      domain.RebateStatus(model.Status),
		ProcessedAt: model.ProcessedAt,
		CreatedAt:   model.CreatedAt,
	}
}

func ToGORMRebate(rebate *domain.Rebate) *models.RebateModel {
	return &models.RebateModel{
		ID:          rebate.ID,
		PurchaseID:  rebate.PurchaseID,
		GeneratorID: rebate.GeneratorID,
		ReceiverID:  rebate.ReceiverID,
		Level:       rebate.Level,
		RewardType:  string(rebate.RewardType),
		Amount:      rebate.Amount,
		Status:      string(rebate.Status),
		ProcessedAt: rebate.ProcessedAt,
		CreatedAt:   rebate.CreatedAt,
	}
}

func ToGORMWalletTransaction(tx *domain.WalletTransaction) *models.WalletTransactionModel {
	return &models.WalletTransactionModel{
		ID:          tx.ID,
		UserID:      tx.UserID,
		Amount:      tx.Amount,
		Type:        string(tx.Type),
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt,
	}
}
