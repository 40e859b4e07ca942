package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
	"github.com/shopspring/decimal"
	"github.com/vionex/vionex-mlm-service/internal/domain"
	publisher "github.com/vionex/vionex-mlm-service/internal/infrastructure/kafka"
	"github.com/vionex/vionex-mlm-service/internal/infrastructure/metrics"
	rebatedto "github.com/vionex/vionex-mlm-service/internal/usecase/dto/rebate"
)

type DisbursementUsecase interface {
	Disburse(ctx context.Context, purchaseID string) (*rebatedto.DisbursementResult, error)
}

type DefaultDisbursementUsecase struct {
	store     domain.TreeStore
	cache     domain.AggregateCache
	publisher domain.PublisherPort
	metrics   *metrics.EngineMetrics
	maxLevel  int
}

func NewDefaultDisbursementUsecase(
	store domain.TreeStore,
	cache domain.AggregateCache,
	pub domain.PublisherPort,
	engineMetrics *metrics.EngineMetrics,
	maxLevel int,
) *DefaultDisbursementUsecase {
	return &DefaultDisbursementUsecase{
		store:     store,
		cache:     cache,
		publisher: pub,
		metrics:   engineMetrics,
		maxLevel:  maxLevel,
	}
}

// plannedRebate is one upline credit computed during the walk, before the
// transaction commits anything.
type plannedRebate struct {
	receiverID string
	level      int
	rewardType domain.RewardType
	amount     decimal.Decimal
}

// Disburse walks the buyer's upline level by level and commits one rebate,
// one ledger row and one wallet increment per configured level as a single
// atomic unit together with marking the purchase disbursed. Re-invocation
// for an already-disbursed purchase returns the existing rows.
func (uc *DefaultDisbursementUsecase) Disburse(ctx context.Context, purchaseID string) (*rebatedto.DisbursementResult, error) {
	start := time.Now()

	purchase, err := uc.store.GetPurchaseByID(ctx, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("load purchase %s: %w", purchaseID, err)
	}
	if purchase.Status != domain.PurchaseCompleted {
		return nil, fmt.Errorf("%w: purchase %s has status %s", domain.ErrPurchaseNotReady, purchaseID, purchase.Status)
	}
	if purchase.DisbursedAt != nil {
		return uc.existingResult(ctx, purchase)
	}

	buyer, err := uc.store.GetMemberByID(ctx, purchase.BuyerID)
	if err != nil {
		return nil, fmt.Errorf("load buyer %s: %w", purchase.BuyerID, err)
	}
	product, err := uc.store.GetProductByID(ctx, purchase.ProductID)
	if err != nil {
		return nil, fmt.Errorf("load product %s: %w", purchase.ProductID, err)
	}

	planned, err := uc.planUplineRebates(ctx, purchase, buyer)
	if err != nil {
		uc.countError("plan")
		return nil, err
	}

	ledgerID, err := nanoid.Standard(15)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	results := make([]rebatedto.RebateResult, 0, len(planned))
	total := decimal.Zero
	alreadyDisbursed := false

	err = uc.store.InTx(ctx, func(tx domain.TreeStore) error {
		// Lock the purchase row so two concurrent calls cannot both pass
		// the idempotency check.
		locked, err := tx.GetPurchaseForUpdate(ctx, purchase.ID)
		if err != nil {
			return err
		}
		if locked.DisbursedAt != nil {
			alreadyDisbursed = true
			return nil
		}

		for _, p := range planned {
			processedAt := now
			rebate := &domain.Rebate{
				ID:          uuid.New().String(),
				PurchaseID:  purchase.ID,
				GeneratorID: purchase.BuyerID,
				ReceiverID:  p.receiverID,
				Level:       p.level,
				RewardType:  p.rewardType,
				Amount:      p.amount,
				Status:      domain.RebateProcessed,
				ProcessedAt: &processedAt,
				CreatedAt:   now,
			}
			if err := tx.CreateRebate(ctx, rebate); err != nil {
				return fmt.Errorf("create rebate level %d: %w", p.level, err)
			}
			if err := tx.AppendWalletTransaction(ctx, &domain.WalletTransaction{
				ID:          ledgerID(),
				UserID:      p.receiverID,
				Amount:      p.amount,
				Type:        domain.WalletTxRebate,
				Description: fmt.Sprintf("level %d rebate for purchase %s", p.level, purchase.ID),
				CreatedAt:   now,
			}); err != nil {
				return fmt.Errorf("append ledger row level %d: %w", p.level, err)
			}
			if err := tx.IncrementWalletBalance(ctx, p.receiverID, p.amount); err != nil {
				return fmt.Errorf("credit wallet %s: %w", p.receiverID, err)
			}

			results = append(results, rebatedto.RebateResult{
				RebateID:   rebate.ID,
				ReceiverID: rebate.ReceiverID,
				Level:      rebate.Level,
				RewardType: string(rebate.RewardType),
				Amount:     rebate.Amount,
			})
			total = total.Add(p.amount)
		}

		return tx.MarkPurchaseDisbursed(ctx, purchase.ID, now)
	})
	if err != nil {
		uc.countError("tx")
		uc.observeDuration("error", start)
		return nil, err
	}

	if alreadyDisbursed {
		return uc.existingResult(ctx, purchase)
	}

	uc.invalidateAggregates(ctx)
	uc.recordDisbursed(product.ID, results, total, start)

	go func(event publisher.RebateDisbursedEvent) {
		if err := uc.publishRebateEvent(event); err != nil {
			slog.Error("failed to publish rebate event", "purchase_id", event.PurchaseID, "error", err.Error())
		}
	}(publisher.RebateDisbursedEvent{
		PurchaseID:  purchase.ID,
		BuyerID:     purchase.BuyerID,
		ProductID:   purchase.ProductID,
		RebateCount: len(results),
		TotalAmount: total.StringFixed(2),
		Timestamp:   now,
	})

	slog.Info("purchase disbursed",
		"purchase_id", purchase.ID,
		"buyer_id", purchase.BuyerID,
		"rebates", len(results),
		"total", total.StringFixed(2))

	return &rebatedto.DisbursementResult{
		PurchaseID:  purchase.ID,
		Rebates:     results,
		TotalAmount: total,
	}, nil
}

// planUplineRebates walks uplineId references starting at the buyer. A level
// with no config is skipped without terminating the walk; the walk ends when
// the upline runs out or the level cap is reached. A visited set guards
// against corrupted trees introducing cycles.
func (uc *DefaultDisbursementUsecase) planUplineRebates(ctx context.Context, purchase *domain.Purchase, buyer *domain.Member) ([]plannedRebate, error) {
	visited := map[string]bool{buyer.ID: true}
	planned := make([]plannedRebate, 0)
	current := buyer

	for level := 1; level <= uc.maxLevel; level++ {
		if current.UplineID == nil {
			break
		}
		uplineID := *current.UplineID
		if visited[uplineID] {
			return nil, fmt.Errorf("%w: %w at member %s", domain.ErrIntegrityViolation, domain.ErrCycleDetected, uplineID)
		}
		visited[uplineID] = true

		receiver, err := uc.store.GetMemberByID(ctx, uplineID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: member %s references missing upline %s", domain.ErrIntegrityViolation, current.ID, uplineID)
			}
			return nil, err
		}
		current = receiver

		// Self-referential safety even if a malformed tree points back at
		// the buyer.
		if receiver.ID == purchase.BuyerID {
			continue
		}

		cfg, err := uc.store.GetRebateConfig(ctx, purchase.ProductID, level)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}

		amount, err := cfg.Amount(purchase.TotalAmount)
		if err != nil {
			return nil, err
		}

		planned = append(planned, plannedRebate{
			receiverID: receiver.ID,
			level:      level,
			rewardType: cfg.RewardType,
			amount:     amount,
		})
	}

	return planned, nil
}

func (uc *DefaultDisbursementUsecase) existingResult(ctx context.Context, purchase *domain.Purchase) (*rebatedto.DisbursementResult, error) {
	rebates, err := uc.store.GetRebatesByPurchaseID(ctx, purchase.ID)
	if err != nil {
		return nil, fmt.Errorf("load existing rebates for %s: %w", purchase.ID, err)
	}

	results := make([]rebatedto.RebateResult, 0, len(rebates))
	total := decimal.Zero
	for _, r := range rebates {
		results = append(results, rebatedto.RebateResult{
			RebateID:   r.ID,
			ReceiverID: r.ReceiverID,
			Level:      r.Level,
			RewardType: string(r.RewardType),
			Amount:     r.Amount,
		})
		total = total.Add(r.Amount)
	}

	if uc.metrics != nil {
		uc.metrics.DisbursementsTotal.WithLabelValues("already_disbursed").Inc()
	}

	return &rebatedto.DisbursementResult{
		PurchaseID:       purchase.ID,
		AlreadyDisbursed: true,
		Rebates:          results,
		TotalAmount:      total,
	}, nil
}

func (uc *DefaultDisbursementUsecase) invalidateAggregates(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	for _, prefix := range []string{"genealogy:", "legvol:"} {
		if err := uc.cache.InvalidatePrefix(ctx, prefix); err != nil {
			slog.Error("cache invalidation failed", "prefix", prefix, "error", err.Error())
		}
	}
}

func (uc *DefaultDisbursementUsecase) publishRebateEvent(event publisher.RebateDisbursedEvent) error {
	if uc.publisher == nil {
		return nil
	}
	v, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return uc.publisher.Publish(publisher.TopicRebateEvents, domain.Message{Key: []byte(event.BuyerID), Value: v})
}

func (uc *DefaultDisbursementUsecase) recordDisbursed(productID string, results []rebatedto.RebateResult, total decimal.Decimal, start time.Time) {
	if uc.metrics == nil {
		return
	}
	for _, r := range results {
		uc.metrics.RebatesDisbursedTotal.WithLabelValues(productID, strconv.Itoa(r.Level), r.RewardType).Inc()
	}
	amount, _ := total.Float64()
	uc.metrics.RebatesAmountTotal.WithLabelValues(productID).Add(amount)
	uc.metrics.DisbursementsTotal.WithLabelValues("ok").Inc()
	uc.observeDuration("ok", start)
}

func (uc *DefaultDisbursementUsecase) observeDuration(result string, start time.Time) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.DisbursementDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
}

func (uc *DefaultDisbursementUsecase) countError(reason string) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.DisbursementErrorsTotal.WithLabelValues(reason).Inc()
}
