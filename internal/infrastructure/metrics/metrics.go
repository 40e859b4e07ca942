package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EngineMetrics contains all commission engine metrics
type EngineMetrics struct {
	// Disbursement
	RebatesDisbursedTotal  prometheus.CounterVec
	RebatesAmountTotal     prometheus.CounterVec
	DisbursementsTotal     prometheus.CounterVec
	DisbursementDuration   prometheus.HistogramVec
	DisbursementErrorsTotal prometheus.CounterVec

	// Rank qualification
	PromotionsTotal      prometheus.CounterVec
	RankEvaluationsTotal prometheus.CounterVec

	// Binary tree
	PlacementsTotal prometheus.CounterVec

	// Genealogy cache
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
}

func NewEngineMetrics() *EngineMetrics {
	return &EngineMetrics{
		RebatesDisbursedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rebates_disbursed_total",
				Help: "Total number of rebate records created",
			},
			[]string{"product_id", "level", "reward_type"},
		),

		RebatesAmountTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rebates_amount_total",
				Help: "Total rebate amount credited to wallets",
			},
			[]string{"product_id"},
		),

		DisbursementsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "disbursements_total",
				Help: "Total number of purchase disbursements",
			},
			[]string{"result"},
		),

		DisbursementDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "disbursement_duration_seconds",
				Help:    "Time spent walking the upline and committing rebates",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),

		DisbursementErrorsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "disbursement_errors_total",
				Help: "Disbursement failures by reason",
			},
			[]string{"reason"},
		),

		PromotionsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rank_promotions_total",
				Help: "Total number of rank promotions",
			},
			[]string{"rank"},
		),

		RankEvaluationsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rank_evaluations_total",
				Help: "Total number of rank evaluations",
			},
			[]string{"promoted"},
		),

		PlacementsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "binary_placements_total",
				Help: "Total number of binary tree placements",
			},
			[]string{"position"},
		),

		CacheHitsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "genealogy_cache_hits_total",
				Help: "Genealogy cache hits",
			},
		),

		CacheMissesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "genealogy_cache_misses_total",
				Help: "Genealogy cache misses",
			},
		),
	}
}
