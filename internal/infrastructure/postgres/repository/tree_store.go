package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vionex/vionex-mlm-service/internal/domain"
	"github.com/vionex/vionex-mlm-service/internal/infrastructure/postgres/mappers"
	"github.com/vionex/vionex-mlm-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresTreeStore implements domain.TreeStore over gorm. InTx returns a
// store bound to the transaction, so every write inside the callback
// commits or rolls back as one unit.
type PostgresTreeStore struct {
	DB *gorm.DB
}

func NewPostgresTreeStore(db *gorm.DB) *PostgresTreeStore {
	return &PostgresTreeStore{DB: db}
}

func (r *PostgresTreeStore) InTx(ctx context.Context, fn func(store domain.TreeStore) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresTreeStore{DB: tx})
	})
}

func mapStoreErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", what, domain.ErrTransientStore, err)
}

// ----- members -----

func (r *PostgresTreeStore) GetMemberByID(ctx context.Context, id string) (*domain.Member, error) {
	var member models.MemberModel
	if err := r.DB.WithContext(ctx).First(&member, "id = ?", id).Error; err != nil {
		return nil, mapStoreErr(err, "member "+id)
	}
	return mappers.ToDomainMember(&member), nil
}

func (r *PostgresTreeStore) GetMemberForUpdate(ctx context.Context, id string) (*domain.Member, error) {
	var member models.MemberModel
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&member, "id = ?", id).Error; err != nil {
		return nil, mapStoreErr(err, "member "+id)
	}
	return mappers.ToDomainMember(&member), nil
}

func (r *PostgresTreeStore) GetChildrenByUplineID(ctx context.Context, uplineID string) ([]*domain.Member, error) {
	var memberModels []models.MemberModel
	if err := r.DB.WithContext(ctx).
		Where("upline_id = ?", uplineID).
		Order("created_at ASC").
		Find(&memberModels).Error; err != nil {
		return nil, mapStoreErr(err, "children of "+uplineID)
	}

	members := make([]*domain.Member, len(memberModels))
	for i, model := range memberModels {
		members[i] = mappers.ToDomainMember(&model)
	}
	return members, nil
}

func (r *PostgresTreeStore) ListMemberIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.DB.WithContext(ctx).
		Model(&models.MemberModel{}).
		Order("created_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, mapStoreErr(err, "member ids")
	}
	return ids, nil
}

func (r *PostgresTreeStore) UpdateMemberRank(ctx context.Context, memberID, rankID string) error {
	result := r.DB.WithContext(ctx).
		Model(&models.MemberModel{}).
		Where("id = ?", memberID).
		Updates(map[string]interface{}{
			"rank_id":    rankID,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return mapStoreErr(result.Error, "update rank of "+memberID)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("member %s: %w", memberID, domain.ErrNotFound)
	}
	return nil
}

func (r *PostgresTreeStore) SetBinaryChild(ctx context.Context, parentID, childID string, leg domain.Position) error {
	legColumn := "left_leg_id"
	if leg == domain.PositionRight {
		legColumn = "right_leg_id"
	}

	if err := r.DB.WithContext(ctx).
		Model(&models.MemberModel{}).
		Where("id = ?", parentID).
		Updates(map[string]interface{}{
			legColumn:    childID,
			"updated_at": time.Now(),
		}).Error; err != nil {
		return mapStoreErr(err, "set "+legColumn+" of "+parentID)
	}

	if err := r.DB.WithContext(ctx).
		Model(&models.MemberModel{}).
		Where("id = ?", childID).
		Updates(map[string]interface{}{
			"binary_parent_id":   parentID,
			"placement_position": string(leg),
			"updated_at":         time.Now(),
		}).Error; err != nil {
		return mapStoreErr(err, "set binary parent of "+childID)
	}

	return nil
}

func (r *PostgresTreeStore) IncrementWalletBalance(ctx context.Context, memberID string, delta decimal.Decimal) error {
	result := r.DB.WithContext(ctx).
		Model(&models.MemberModel{}).
		Where("id = ?", memberID).
		Updates(map[string]interface{}{
			"wallet_balance": gorm.Expr("wallet_balance + ?", delta),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return mapStoreErr(result.Error, "credit wallet of "+memberID)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("member %s: %w", memberID, domain.ErrNotFound)
	}
	return nil
}

// ----- ranks -----

func (r *PostgresTreeStore) GetRankByID(ctx context.Context, id string) (*domain.Rank, error) {
	var rank models.RankModel
	if err := r.DB.WithContext(ctx).First(&rank, "id = ?", id).Error; err != nil {
		return nil, mapStoreErr(err, "rank "+id)
	}
	return mappers.ToDomainRank(&rank), nil
}

func (r *PostgresTreeStore) GetRankByLevel(ctx context.Context, level int) (*domain.Rank, error) {
	var rank models.RankModel
	if err := r.DB.WithContext(ctx).First(&rank, "level = ?", level).Error; err != nil {
		return nil, mapStoreErr(err, fmt.Sprintf("rank level %d", level))
	}
	return mappers.ToDomainRank(&rank), nil
}

func (r *PostgresTreeStore) ListRanks(ctx context.Context) ([]*domain.Rank, error) {
	var rankModels []models.RankModel
	if err := r.DB.WithContext(ctx).Order("level ASC").Find(&rankModels).Error; err != nil {
		return nil, mapStoreErr(err, "ranks")
	}
	ranks := make([]*domain.Rank, len(rankModels))
	for i, model := range rankModels {
		ranks[i] = mappers.ToDomainRank(&model)
	}
	return ranks, nil
}

// ----- products and configs -----

func (r *PostgresTreeStore) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	var product models.ProductModel
	if err := r.DB.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, mapStoreErr(err, "product "+id)
	}
	return mappers.ToDomainProduct(&product), nil
}

func (r *PostgresTreeStore) GetRebateConfig(ctx context.Context, productID string, level int) (*domain.RebateConfig, error) {
	var config models.RebateConfigModel
	if err := r.DB.WithContext(ctx).
		First(&config, "product_id = ? AND level = ?", productID, level).Error; err != nil {
		return nil, mapStoreErr(err, fmt.Sprintf("rebate config %s level %d", productID, level))
	}
	return mappers.ToDomainRebateConfig(&config), nil
}

// ----- purchases -----

func (r *PostgresTreeStore) GetPurchaseByID(ctx context.Context, id string) (*domain.Purchase, error) {
	var purchase models.PurchaseModel
	if err := r.DB.WithContext(ctx).First(&purchase, "id = ?", id).Error; err != nil {
		return nil, mapStoreErr(err, "purchase "+id)
	}
	return mappers.ToDomainPurchase(&purchase), nil
}

func (r *PostgresTreeStore) GetPurchaseForUpdate(ctx context.Context, id string) (*domain.Purchase, error) {
	var purchase models.PurchaseModel
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&purchase, "id = ?", id).Error; err != nil {
		return nil, mapStoreErr(err, "purchase "+id)
	}
	return mappers.ToDomainPurchase(&purchase), nil
}

func (r *PostgresTreeStore) CreatePurchase(ctx context.Context, purchase *domain.Purchase) error {
	if err := r.DB.WithContext(ctx).Create(mappers.ToGORMPurchase(purchase)).Error; err != nil {
		return mapStoreErr(err, "create purchase "+purchase.ID)
	}
	return nil
}

func (r *PostgresTreeStore) UpdatePurchaseStatus(ctx context.Context, id string, status domain.PurchaseStatus) error {
	result := r.DB.WithContext(ctx).
		Model(&models.PurchaseModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     string(status),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return mapStoreErr(result.Error, "update purchase "+id)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("purchase %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *PostgresTreeStore) MarkPurchaseDisbursed(ctx context.Context, id string, at time.Time) error {
	result := r.DB.WithContext(ctx).
		Model(&models.PurchaseModel{}).
		Where("id = ? AND disbursed_at IS NULL", id).
		Updates(map[string]interface{}{
			"disbursed_at": at,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return mapStoreErr(result.Error, "mark purchase disbursed "+id)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("purchase %s already disbursed: %w", id, domain.ErrAlreadyProcessed)
	}
	return nil
}

func (r *PostgresTreeStore) SumCompletedPurchases(ctx context.Context, buyerIDs []string, from, to time.Time) (decimal.Decimal, error) {
	if len(buyerIDs) == 0 {
		return decimal.Zero, nil
	}

	var row struct {
		Total decimal.Decimal
	}
	err := r.DB.WithContext(ctx).
		Model(&models.PurchaseModel{}).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Where("buyer_id IN (?)", buyerIDs).
		Where("status = ?", string(domain.PurchaseCompleted)).
		Where("created_at >= ? AND created_at <= ?", from, to).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, mapStoreErr(err, "sum purchases")
	}
	return row.Total, nil
}

// ----- ledger -----

func (r *PostgresTreeStore) CreateRebate(ctx context.Context, rebate *domain.Rebate) error {
	if err := r.DB.WithContext(ctx).Create(mappers.ToGORMRebate(rebate)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("rebate for purchase %s receiver %s level %d: %w",
				rebate.PurchaseID, rebate.ReceiverID, rebate.Level, domain.ErrAlreadyProcessed)
		}
		return mapStoreErr(err, "create rebate "+rebate.ID)
	}
	return nil
}

func (r *PostgresTreeStore) GetRebatesByPurchaseID(ctx context.Context, purchaseID string) ([]*domain.Rebate, error) {
	var rebateModels []models.RebateModel
	if err := r.DB.WithContext(ctx).
		Where("purchase_id = ?", purchaseID).
		Order("level ASC").
		Find(&rebateModels).Error; err != nil {
		return nil, mapStoreErr(err, "rebates of purchase "+purchaseID)
	}

	rebates := make([]*domain.Rebate, len(rebateModels))
	for i, model := range rebateModels {
		rebates[i] = mappers.ToDomainRebate(&model)
	}
	return rebates, nil
}

func (r *PostgresTreeStore) AppendWalletTransaction(ctx context.Context, tx *domain.WalletTransaction) error {
	if err := r.DB.WithContext(ctx).Create(mappers.ToGORMWalletTransaction(tx)).Error; err != nil {
		return mapStoreErr(err, "append wallet transaction "+tx.ID)
	}
	return nil
}

func (r *PostgresTreeStore) SumWalletTransactions(ctx context.Context, userID string) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := r.DB.WithContext(ctx).
		Model(&models.WalletTransactionModel{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, mapStoreErr(err, "sum wallet transactions of "+userID)
	}
	return row.Total, nil
}
