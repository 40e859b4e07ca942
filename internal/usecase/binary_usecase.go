package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vionex/vionex-mlm-service/internal/domain"
	publisher "github.com/vionex/vionex-mlm-service/internal/infrastructure/kafka"
	"github.com/vionex/vionex-mlm-service/internal/infrastructure/metrics"
	binarydto "github.com/vionex/vionex-mlm-service/internal/usecase/dto/binary"
)

type BinaryUsecase interface {
	Place(ctx context.Context, memberID, sponsorID string) (*binarydto.PlacementResult, error)
	LegVolume(ctx context.Context, memberID string, leg domain.Position, from, to time.Time) (*binarydto.LegVolumeResult, error)
	MatchingCommission(ctx context.Context, memberID string, from, to time.Time) (*binarydto.MatchingResult, error)
}

type DefaultBinaryUsecase struct {
	store        domain.TreeStore
	cache        domain.AggregateCache
	publisher    domain.PublisherPort
	metrics      *metrics.EngineMetrics
	matchingRate decimal.Decimal
	carryForward bool
	cacheTTL     time.Duration
}

func NewDefaultBinaryUsecase(
	store domain.TreeStore,
	cache domain.AggregateCache,
	pub domain.PublisherPort,
	engineMetrics *metrics.EngineMetrics,
	matchingRatePercent float64,
	carryForward bool,
	cacheTTL time.Duration,
) *DefaultBinaryUsecase {
	return &DefaultBinaryUsecase{
		store:        store,
		cache:        cache,
		publisher:    pub,
		metrics:      engineMetrics,
		matchingRate: decimal.NewFromFloat(matchingRatePercent),
		carryForward: carryForward,
		cacheTTL:     cacheTTL,
	}
}

// Place assigns the member to the first open slot found by breadth-first
// search from the sponsor's binary node, left children before right at every
// level. A member is placed exactly once.
func (uc *DefaultBinaryUsecase) Place(ctx context.Context, memberID, sponsorID string) (*binarydto.PlacementResult, error) {
	if memberID == sponsorID {
		return nil, fmt.Errorf("%w: member cannot sponsor itself", domain.ErrValidation)
	}

	member, err := uc.store.GetMemberByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("load member %s: %w", memberID, err)
	}
	if member.BinaryParentID != nil || member.PlacementPosition != domain.PositionNone {
		return nil, fmt.Errorf("%w: member %s", domain.ErrAlreadyPlaced, memberID)
	}
	if _, err := uc.store.GetMemberByID(ctx, sponsorID); err != nil {
		return nil, fmt.Errorf("load sponsor %s: %w", sponsorID, err)
	}

	parentID, position, err := uc.findOpenSlot(ctx, sponsorID, memberID)
	if err != nil {
		return nil, err
	}

	err = uc.store.InTx(ctx, func(tx domain.TreeStore) error {
		parent, err := tx.GetMemberForUpdate(ctx, parentID)
		if err != nil {
			return err
		}
		// The slot may have been taken between the search and the lock.
		if parent.LegChildID(position) != nil {
			return fmt.Errorf("%w: slot %s of %s taken concurrently", domain.ErrTransientStore, position, parentID)
		}
		locked, err := tx.GetMemberForUpdate(ctx, memberID)
		if err != nil {
			return err
		}
		if locked.BinaryParentID != nil {
			return fmt.Errorf("%w: member %s", domain.ErrAlreadyPlaced, memberID)
		}
		return tx.SetBinaryChild(ctx, parentID, memberID, position)
	})
	if err != nil {
		return nil, err
	}

	uc.invalidateLegVolumes(ctx)
	if uc.metrics != nil {
		uc.metrics.PlacementsTotal.WithLabelValues(string(position)).Inc()
	}

	go func(event publisher.MemberPlacedEvent) {
		if err := uc.publishPlacementEvent(event); err != nil {
			slog.Error("failed to publish placement event", "member_id", event.MemberID, "error", err.Error())
		}
	}(publisher.MemberPlacedEvent{
		MemberID:  memberID,
		SponsorID: sponsorID,
		ParentID:  parentID,
		Position:  string(position),
		Timestamp: time.Now(),
	})

	return &binarydto.PlacementResult{
		MemberID: memberID,
		ParentID: parentID,
		Position: string(position),
	}, nil
}

// findOpenSlot performs the BFS. Left slots are checked before right slots
// on each node, and nodes are dequeued level by level, so placement is
// deterministic and keeps the tree balanced.
func (uc *DefaultBinaryUsecase) findOpenSlot(ctx context.Context, sponsorID, newMemberID string) (string, domain.Position, error) {
	visited := map[string]bool{newMemberID: true}
	queue := []string{sponsorID}

	for len(queue) > 0 {
		nodeID := queue[0]
		queue = queue[1:]
		if visited[nodeID] {
			return "", domain.PositionNone, fmt.Errorf("%w: %w at member %s", domain.ErrIntegrityViolation, domain.ErrCycleDetected, nodeID)
		}
		visited[nodeID] = true

		node, err := uc.store.GetMemberByID(ctx, nodeID)
		if err != nil {
			return "", domain.PositionNone, fmt.Errorf("load binary node %s: %w", nodeID, err)
		}
		if node.LeftLegID == nil {
			return nodeID, domain.PositionLeft, nil
		}
		if node.RightLegID == nil {
			return nodeID, domain.PositionRight, nil
		}
		queue = append(queue, *node.LeftLegID, *node.RightLegID)
	}

	return "", domain.PositionNone, fmt.Errorf("%w: no open slot reachable from sponsor %s", domain.ErrIntegrityViolation, sponsorID)
}

// LegVolume sums completed purchase totals over every member of the given
// leg's subtree within the date range. Read-only; results are cached.
func (uc *DefaultBinaryUsecase) LegVolume(ctx context.Context, memberID string, leg domain.Position, from, to time.Time) (*binarydto.LegVolumeResult, error) {
	if leg != domain.PositionLeft && leg != domain.PositionRight {
		return nil, fmt.Errorf("%w: invalid leg %q", domain.ErrValidation, leg)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: date range end before start", domain.ErrValidation)
	}

	key := fmt.Sprintf("legvol:%s:%s:%d:%d", memberID, leg, from.Unix(), to.Unix())
	payload, _, err := uc.getOrCompute(ctx, key, func() ([]byte, error) {
		volume, err := uc.computeLegVolume(ctx, memberID, leg, from, to)
		if err != nil {
			return nil, err
		}
		return json.Marshal(volume)
	})
	if err != nil {
		return nil, err
	}

	var volume decimal.Decimal
	if err := json.Unmarshal(payload, &volume); err != nil {
		return nil, fmt.Errorf("decode cached leg volume: %w", err)
	}

	return &binarydto.LegVolumeResult{
		MemberID: memberID,
		Leg:      string(leg),
		Volume:   volume,
	}, nil
}

// MatchingCommission pays on the weaker leg: min(left, right) times the
// configured rate. Excess on the stronger leg is reported as carry-forward
// only when the flag is enabled; it is never added to the matched volume.
func (uc *DefaultBinaryUsecase) MatchingCommission(ctx context.Context, memberID string, from, to time.Time) (*binarydto.MatchingResult, error) {
	left, err := uc.LegVolume(ctx, memberID, domain.PositionLeft, from, to)
	if err != nil {
		return nil, err
	}
	right, err := uc.LegVolume(ctx, memberID, domain.PositionRight, from, to)
	if err != nil {
		return nil, err
	}

	matched := left.Volume
	if right.Volume.LessThan(matched) {
		matched = right.Volume
	}
	commission := matched.Mul(uc.matchingRate).Div(decimal.NewFromInt(100)).Round(2)

	carried := decimal.Zero
	if uc.carryForward {
		carried = left.Volume.Add(right.Volume).Sub(matched.Mul(decimal.NewFromInt(2)))
	}

	return &binarydto.MatchingResult{
		MemberID:       memberID,
		LeftVolume:     left.Volume,
		RightVolume:    right.Volume,
		MatchedVolume:  matched,
		Commission:     commission,
		CarriedForward: carried,
	}, nil
}

func (uc *DefaultBinaryUsecase) computeLegVolume(ctx context.Context, memberID string, leg domain.Position, from, to time.Time) (decimal.Decimal, error) {
	member, err := uc.store.GetMemberByID(ctx, memberID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load member %s: %w", memberID, err)
	}

	rootID := member.LegChildID(leg)
	if rootID == nil {
		return decimal.Zero, nil
	}

	ids, err := uc.collectBinarySubtree(ctx, *rootID)
	if err != nil {
		return decimal.Zero, err
	}

	return uc.store.SumCompletedPurchases(ctx, ids, from, to)
}

// collectBinarySubtree gathers the subtree rooted at rootID, root included.
func (uc *DefaultBinaryUsecase) collectBinarySubtree(ctx context.Context, rootID string) ([]string, error) {
	visited := map[string]bool{}
	queue := []string{rootID}
	ids := make([]string, 0)

	for len(queue) > 0 {
		nodeID := queue[0]
		queue = queue[1:]
		if visited[nodeID] {
			return nil, fmt.Errorf("%w: %w at member %s", domain.ErrIntegrityViolation, domain.ErrCycleDetected, nodeID)
		}
		visited[nodeID] = true
		ids = append(ids, nodeID)

		node, err := uc.store.GetMemberByID(ctx, nodeID)
		if err != nil {
			return nil, fmt.Errorf("load binary node %s: %w", nodeID, err)
		}
		if node.LeftLegID != nil {
			queue = append(queue, *node.LeftLegID)
		}
		if node.RightLegID != nil {
			queue = append(queue, *node.RightLegID)
		}
	}

	return ids, nil
}

func (uc *DefaultBinaryUsecase) getOrCompute(ctx context.Context, key string, factory func() ([]byte, error)) ([]byte, bool, error) {
	if uc.cache == nil {
		payload, err := factory()
		return payload, false, err
	}
	payload, hit, err := uc.cache.GetOrCompute(ctx, key, uc.cacheTTL, factory)
	if err != nil {
		return nil, false, err
	}
	if uc.metrics != nil {
		if hit {
			uc.metrics.CacheHitsTotal.Inc()
		} else {
			uc.metrics.CacheMissesTotal.Inc()
		}
	}
	return payload, hit, nil
}

func (uc *DefaultBinaryUsecase) invalidateLegVolumes(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	for _, prefix := range []string{"legvol:", "genealogy:"} {
		if err := uc.cache.InvalidatePrefix(ctx, prefix); err != nil {
			slog.Error("cache invalidation failed", "prefix", prefix, "error", err.Error())
		}
	}
}

func (uc *DefaultBinaryUsecase) publishPlacementEvent(event publisher.MemberPlacedEvent) error {
	if uc.publisher == nil {
		return nil
	}
	v, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return uc.publisher.Publish(publisher.TopicPlacementEvents, domain.Message{Key: []byte(event.MemberID), Value: v})
}

