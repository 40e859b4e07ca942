package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vionex/vionex-mlm-service/internal/domain"
	publisher "github.com/vionex/vionex-mlm-service/internal/infrastructure/kafka"
	"github.com/vionex/vionex-mlm-service/internal/infrastructure/metrics"
	rankdto "github.com/vionex/vionex-mlm-service/internal/usecase/dto/rank"
)

type RankUsecase interface {
	Evaluate(ctx context.Context, memberID string, asOf time.Time) (*rankdto.EvaluationResult, error)
	EvaluateAll(ctx context.Context, asOf time.Time) (*rankdto.BatchEvaluationResult, error)
}

// DefaultRankUsecase promotes members one rank level per evaluation pass.
// Qualified-downline counting looks at direct downline only.
type DefaultRankUsecase struct {
	store      domain.TreeStore
	cache      domain.AggregateCache
	publisher  domain.PublisherPort
	metrics    *metrics.EngineMetrics
	windowDays int

	// memberLocks serializes check-and-update per member so a concurrent
	// evaluation of the same member cannot race the rank write.
	memberLocks sync.Map
}

func NewDefaultRankUsecase(
	store domain.TreeStore,
	cache domain.AggregateCache,
	pub domain.PublisherPort,
	engineMetrics *metrics.EngineMetrics,
	windowDays int,
) *DefaultRankUsecase {
	return &DefaultRankUsecase{
		store:      store,
		cache:      cache,
		publisher:  pub,
		metrics:    engineMetrics,
		windowDays: windowDays,
	}
}

func (uc *DefaultRankUsecase) lockMember(memberID string) *sync.Mutex {
	mu, _ := uc.memberLocks.LoadOrStore(memberID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Evaluate aggregates the member's window sales and downline counts and
// promotes to the next rank level when every threshold holds. Promotion is
// monotonic: the engine never writes a lower rank.
func (uc *DefaultRankUsecase) Evaluate(ctx context.Context, memberID string, asOf time.Time) (*rankdto.EvaluationResult, error) {
	mu := uc.lockMember(memberID)
	mu.Lock()
	defer mu.Unlock()

	member, err := uc.store.GetMemberByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("load member %s: %w", memberID, err)
	}
	currentRank, err := uc.store.GetRankByID(ctx, member.RankID)
	if err != nil {
		return nil, fmt.Errorf("load rank %s: %w", member.RankID, err)
	}

	result := &rankdto.EvaluationResult{
		MemberID:      memberID,
		CurrentRankID: currentRank.ID,
		CurrentLevel:  currentRank.Level,
	}

	nextRank, err := uc.store.GetRankByLevel(ctx, currentRank.Level+1)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Already at the highest defined rank.
			return result, nil
		}
		return nil, err
	}

	from := asOf.AddDate(0, 0, -uc.windowDays)

	personal, err := uc.store.SumCompletedPurchases(ctx, []string{memberID}, from, asOf)
	if err != nil {
		return nil, fmt.Errorf("sum personal sales: %w", err)
	}

	downlineIDs, err := uc.collectDownline(ctx, memberID, 0)
	if err != nil {
		return nil, err
	}
	group := decimal.Zero
	if len(downlineIDs) > 0 {
		group, err = uc.store.SumCompletedPurchases(ctx, downlineIDs, from, asOf)
		if err != nil {
			return nil, fmt.Errorf("sum group sales: %w", err)
		}
	}

	children, err := uc.store.GetChildrenByUplineID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	qualified := 0
	for _, child := range children {
		childRank, err := uc.store.GetRankByID(ctx, child.RankID)
		if err != nil {
			return nil, fmt.Errorf("load rank of downline %s: %w", child.ID, err)
		}
		if childRank.Level >= nextRank.QualifiedRankLevel {
			qualified++
		}
	}

	result.PersonalSales = personal
	result.GroupSales = group
	result.DirectDownline = len(children)
	result.QualifiedDownline = qualified

	eligible := personal.GreaterThanOrEqual(nextRank.MinPersonalSales) &&
		group.GreaterThanOrEqual(nextRank.MinGroupSales) &&
		len(children) >= nextRank.MinDirectDownline &&
		qualified >= nextRank.MinQualifiedDownline

	uc.countEvaluation(eligible)
	if !eligible {
		return result, nil
	}

	err = uc.store.InTx(ctx, func(tx domain.TreeStore) error {
		locked, err := tx.GetMemberForUpdate(ctx, memberID)
		if err != nil {
			return err
		}
		// Someone else promoted first; never regress.
		if locked.RankID != member.RankID {
			return nil
		}
		return tx.UpdateMemberRank(ctx, memberID, nextRank.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("promote member %s: %w", memberID, err)
	}

	result.EligibleRank = nextRank.ID
	result.Promoted = true

	uc.invalidateAggregates(ctx)
	uc.countPromotion(nextRank.Name)

	go func(event publisher.RankPromotedEvent) {
		if err := uc.publishRankEvent(event); err != nil {
			slog.Error("failed to publish rank event", "member_id", event.MemberID, "error", err.Error())
		}
	}(publisher.RankPromotedEvent{
		MemberID:   memberID,
		FromRankID: currentRank.ID,
		ToRankID:   nextRank.ID,
		ToLevel:    nextRank.Level,
		Timestamp:  time.Now(),
	})

	slog.Info("member promoted",
		"member_id", memberID,
		"from_rank", currentRank.Name,
		"to_rank", nextRank.Name)

	return result, nil
}

// EvaluateAll runs evaluation passes over every member until a pass promotes
// nobody, so a purchase-triggered cascade of upline promotions settles in one
// call. Bounded by the number of defined ranks.
func (uc *DefaultRankUsecase) EvaluateAll(ctx context.Context, asOf time.Time) (*rankdto.BatchEvaluationResult, error) {
	memberIDs, err := uc.store.ListMemberIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	ranks, err := uc.store.ListRanks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ranks: %w", err)
	}

	batch := &rankdto.BatchEvaluationResult{}
	maxPasses := len(ranks)
	if maxPasses == 0 {
		maxPasses = 1
	}

	for pass := 0; pass < maxPasses; pass++ {
		batch.Passes++
		promotedThisPass := 0

		for _, id := range memberIDs {
			result, err := uc.Evaluate(ctx, id, asOf)
			if err != nil {
				return nil, fmt.Errorf("evaluate member %s: %w", id, err)
			}
			batch.Evaluated++
			if result.Promoted {
				promotedThisPass++
				batch.Promoted++
				batch.Results = append(batch.Results, *result)
			}
		}

		if promotedThisPass == 0 {
			break
		}
	}

	return batch, nil
}

// collectDownline walks the unilevel subtree below rootID breadth-first.
// maxDepth <= 0 means unbounded. The root itself is excluded.
func (uc *DefaultRankUsecase) collectDownline(ctx context.Context, rootID string, maxDepth int) ([]string, error) {
	type frame struct {
		id    string
		depth int
	}
	visited := map[string]bool{rootID: true}
	queue := []frame{{id: rootID, depth: 0}}
	ids := make([]string, 0)

	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		if maxDepth > 0 && f.depth >= maxDepth {
			continue
		}
		children, err := uc.store.GetChildrenByUplineID(ctx, f.id)
		if err != nil {
			return nil, fmt.Errorf("load downline of %s: %w", f.id, err)
		}
		for _, child := range children {
			if visited[child.ID] {
				return nil, fmt.Errorf("%w: %w at member %s", domain.ErrIntegrityViolation, domain.ErrCycleDetected, child.ID)
			}
			visited[child.ID] = true
			ids = append(ids, child.ID)
			queue = append(queue, frame{id: child.ID, depth: f.depth + 1})
		}
	}

	return ids, nil
}

func (uc *DefaultRankUsecase) invalidateAggregates(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.InvalidatePrefix(ctx, "genealogy:"); err != nil {
		slog.Error("cache invalidation failed", "prefix", "genealogy:", "error", err.Error())
	}
}

func (uc *DefaultRankUsecase) publishRankEvent(event publisher.RankPromotedEvent) error {
	if uc.publisher == nil {
		return nil
	}
	v, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return uc.publisher.Publish(publisher.TopicRankEvents, domain.Message{Key: []byte(event.MemberID), Value: v})
}

func (uc *DefaultRankUsecase) countEvaluation(promoted bool) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.RankEvaluationsTotal.WithLabelValues(fmt.Sprintf("%t", promoted)).Inc()
}

func (uc *DefaultRankUsecase) countPromotion(rankName string) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.PromotionsTotal.WithLabelValues(rankName).Inc()
}
