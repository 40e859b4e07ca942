package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vionex/vionex-mlm-service/internal/domain"
	"github.com/vionex/vionex-mlm-service/internal/infrastructure/metrics"
	genealogydto "github.com/vionex/vionex-mlm-service/internal/usecase/dto/genealogy"
)

type GenealogyUsecase interface {
	Genealogy(ctx context.Context, memberID string, maxDepth, page, pageSize int, includeStats bool) (*genealogydto.Page, error)
}

type DefaultGenealogyUsecase struct {
	store    domain.TreeStore
	cache    domain.AggregateCache
	metrics  *metrics.EngineMetrics
	cacheTTL time.Duration

	defaultMaxDepth int
	maxPageSize     int
}

func NewDefaultGenealogyUsecase(
	store domain.TreeStore,
	cache domain.AggregateCache,
	engineMetrics *metrics.EngineMetrics,
	cacheTTL time.Duration,
	defaultMaxDepth, maxPageSize int,
) *DefaultGenealogyUsecase {
	return &DefaultGenealogyUsecase{
		store:           store,
		cache:           cache,
		metrics:         engineMetrics,
		cacheTTL:        cacheTTL,
		defaultMaxDepth: defaultMaxDepth,
		maxPageSize:     maxPageSize,
	}
}

// Genealogy returns one page of the unilevel subtree below memberID in BFS
// order, optionally with cached aggregate statistics. A stats failure
// degrades the response instead of failing the page.
func (uc *DefaultGenealogyUsecase) Genealogy(ctx context.Context, memberID string, maxDepth, page, pageSize int, includeStats bool) (*genealogydto.Page, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be >= 1", domain.ErrValidation)
	}
	if pageSize < 1 || pageSize > uc.maxPageSize {
		return nil, fmt.Errorf("%w: page size must be between 1 and %d", domain.ErrValidation, uc.maxPageSize)
	}
	if maxDepth <= 0 {
		maxDepth = uc.defaultMaxDepth
	}

	if _, err := uc.store.GetMemberByID(ctx, memberID); err != nil {
		return nil, fmt.Errorf("load member %s: %w", memberID, err)
	}

	nodes, err := uc.collectSubtree(ctx, memberID, maxDepth)
	if err != nil {
		return nil, err
	}

	result := &genealogydto.Page{
		RootID:   memberID,
		MaxDepth: maxDepth,
		Page:     page,
		PageSize: pageSize,
		Total:    len(nodes),
	}

	offset := (page - 1) * pageSize
	if offset < len(nodes) {
		end := offset + pageSize
		if end > len(nodes) {
			end = len(nodes)
		}
		result.Nodes = nodes[offset:end]
	} else {
		result.Nodes = []genealogydto.Node{}
	}

	if includeStats {
		stats, err := uc.subtreeStats(ctx, memberID, maxDepth, nodes)
		if err != nil {
			slog.Error("genealogy stats degraded", "root_id", memberID, "error", err.Error())
			result.Degraded = true
		} else {
			result.Stats = stats
		}
	}

	return result, nil
}

// collectSubtree walks the downline breadth-first up to maxDepth, producing
// nodes in deterministic BFS order for stable pagination.
func (uc *DefaultGenealogyUsecase) collectSubtree(ctx context.Context, rootID string, maxDepth int) ([]genealogydto.Node, error) {
	type frame struct {
		id    string
		depth int
	}
	visited := map[string]bool{rootID: true}
	queue := []frame{{id: rootID, depth: 0}}
	nodes := make([]genealogydto.Node, 0)

	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		if f.depth >= maxDepth {
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

			grandchildren, err := uc.store.GetChildrenByUplineID(ctx, child.ID)
			if err != nil {
				return nil, err
			}

			nodes = append(nodes, genealogydto.Node{
				MemberID:          child.ID,
				UplineID:          child.UplineID,
				RankID:            child.RankID,
				Level:             f.depth + 1,
				DirectDownline:    len(grandchildren),
				PlacementPosition: string(child.PlacementPosition),
			})
			queue = append(queue, frame{id: child.ID, depth: f.depth + 1})
		}
	}

	return nodes, nil
}

// subtreeStats is served from the aggregate cache keyed by
// (root, depth, window); any write touching tree shape, ranks or balances
// invalidates the genealogy namespace.
func (uc *DefaultGenealogyUsecase) subtreeStats(ctx context.Context, rootID string, maxDepth int, nodes []genealogydto.Node) (*genealogydto.Stats, error) {
	key := fmt.Sprintf("genealogy:%s:%d:stats", rootID, maxDepth)

	factory := func() ([]byte, error) {
		stats := &genealogydto.Stats{
			TotalMembers:  len(nodes),
			LevelCounts:   make(map[int]int),
			TotalBalance:  decimal.Zero,
			RankHistogram: make(map[string]int),
		}
		for _, node := range nodes {
			stats.LevelCounts[node.Level]++
			stats.RankHistogram[node.RankID]++
			member, err := uc.store.GetMemberByID(ctx, node.MemberID)
			if err != nil {
				return nil, err
			}
			stats.TotalBalance = stats.TotalBalance.Add(member.WalletBalance)
		}
		return json.Marshal(stats)
	}

	var payload []byte
	var err error
	if uc.cache == nil {
		payload, err = factory()
	} else {
		var hit bool
		payload, hit, err = uc.cache.GetOrCompute(ctx, key, uc.cacheTTL, factory)
		if err == nil && uc.metrics != nil {
			if hit {
				uc.metrics.CacheHitsTotal.Inc()
			} else {
				uc.metrics.CacheMissesTotal.Inc()
			}
		}
	}
	if err != nil {
		return nil, err
	}

	var stats genealogydto.Stats
	if err := json.Unmarshal(payload, &stats); err != nil {
		return nil, fmt.Errorf("decode cached stats: %w", err)
	}
	return &stats, nil
}
