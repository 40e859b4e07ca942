package mappers

import (
	"github.com/vionex/vionex-mlm-service/internal/domain"
	"github.com/vionex/vionex-mlm-service/internal/infrastructure/postgres/models"
)

func ToDomainPurchase(model *models.PurchaseModel) *domain.Purchase {
	return &domain.Purchase{
		ID:          model.ID,
		BuyerID:     model.BuyerID,
		ProductID:   model.ProductID,
		Quantity:    model.Quantity,
		TotalAmount: model.TotalAmount,
		TotalPV:     model.TotalPV,
		Status:      domain.PurchaseStatus(model.Status),
		DisbursedAt: model.DisbursedAt,
		CreatedAt:   model.CreatedAt,
	}
}

func ToGORMPurchase(purchase *domain.Purchase) *models.PurchaseModel {
	return &models.PurchaseModel{
		ID:          purchase.ID,
		BuyerID:     purchase.BuyerID,
		ProductID:   purchase.ProductID,
		Quantity:    purchase.Quantity,
		TotalAmount: purchase.TotalAmount,
		TotalPV:     purchase.TotalPV,
		Status:      string(purchase.Status),
		DisbursedAt: purchase.DisbursedAt,
		CreatedAt:   purchase.CreatedAt,
	}
}

func ToDomainProduct(model *models.ProductModel) *domain.Product {
	return &domain.Product{
		ID:         model.ID,
		Name:       model.Name,
		Price:      model.Price,
		PointValue: model.PointValue,
	}
}

func ToDomainRebateConfig(model *models.RebateConfigModel) *domain.RebateConfig {
	return &domain.RebateConfig{
		ID:          model.ID,
		ProductID:   model.ProductID,
		Level:       model.Level,
		RewardType:  domain.RewardType(model.RewardType),
		Percentage:  model.Percentage,
		FixedAmount: model.FixedAmount,
	}
}
