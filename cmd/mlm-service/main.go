package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vionex/vionex-mlm-service/internal/config"
	"github.com/vionex/vionex-mlm-service/internal/delivery/http/handlers"
	"github.com/vionex/vionex-mlm-service/internal/infrastructure/cache"
	publisher "github.com/vionex/vionex-mlm-service/internal/infrastructure/kafka"
	"github.com/vionex/vionex-mlm-service/internal/infrastructure/metrics"
	"github.com/vionex/vionex-mlm-service/internal/infrastructure/migrate"
	"github.com/vionex/vionex-mlm-service/internal/infrastructure/postgres"
	"github.com/vionex/vionex-mlm-service/internal/infrastructure/postgres/repository"
	"github.com/vionex/vionex-mlm-service/internal/usecase"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()
	// Init database
	db := postgres.MustInitDB(cfg)

	if cfg.MLMDB.MigrationsPath != "" {
		if err := migrate.RunMigrations(db, cfg.MLMDB.MigrationsPath); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	// Init kafka publisher
	brokers := []string{fmt.Sprintf("%s:%s", cfg.KafkaService.Host, cfg.KafkaService.Port)}
	pub := publisher.NewDefaultKafkaPublisher(brokers)

	// Init genealogy cache
	aggregateCache := cache.NewRedisAggregateCache(
		fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		cfg.Redis.Password,
		cfg.Redis.DB,
	)
	if err := aggregateCache.Ping(context.Background()); err != nil {
		log.Printf("redis unavailable, genealogy cache degraded: %v", err)
	}

	// Init metrics
	engineMetrics := metrics.NewEngineMetrics()

	// Init tree store
	treeStore := repository.NewPostgresTreeStore(db)

	// Init disbursement usecase
	disbursementUc := usecase.NewDefaultDisbursementUsecase(
		treeStore,
		aggregateCache,
		pub,
		engineMetrics,
		cfg.Engine.MaxRebateLevel,
	)
	// Init purchase usecase
	purchaseUc := usecase.NewDefaultPurchaseUsecase(treeStore, disbursementUc)
	// Init rank usecase
	rankUc := usecase.NewDefaultRankUsecase(
		treeStore,
		aggregateCache,
		pub,
		engineMetrics,
		cfg.Engine.QualificationWindowDays,
	)
	// Init binary usecase
	binaryUc := usecase.NewDefaultBinaryUsecase(
		treeStore,
		aggregateCache,
		pub,
		engineMetrics,
		cfg.Engine.MatchingRatePercent,
		cfg.Engine.CarryForward,
		cfg.Engine.CacheTTL,
	)
	// Init genealogy usecase
	genealogyUc := usecase.NewDefaultGenealogyUsecase(
		treeStore,
		aggregateCache,
		engineMetrics,
		cfg.Engine.CacheTTL,
		cfg.Engine.GenealogyDefaultMaxDepth,
		cfg.Engine.GenealogyMaxPageSize,
	)
	// Init wallet usecase
	walletUc := usecase.NewDefaultWalletUsecase(treeStore)

	// Periodic batch rank evaluation
	go func() {
		ticker := time.NewTicker(cfg.Engine.RankEvalInterval)
		defer ticker.Stop()

		for {
			<-ticker.C
			result, err := rankUc.EvaluateAll(context.Background(), time.Now())
			if err != nil {
				log.Printf("Batch rank evaluation error: %v", err)
				continue
			}
			slog.Info("batch rank evaluation finished",
				"passes", result.Passes,
				"evaluated", result.Evaluated,
				"promoted", result.Promoted)
		}
	}()

	// HTTP server
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	mlmHandler := handlers.NewMLMHandler(purchaseUc, disbursementUc, rankUc, binaryUc, genealogyUc, walletUc)
	mlmHandler.RegisterRoutes(router)

	addr := fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port)
	log.Printf("HTTP server started on %s\n", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("failed to serve: %v\n", err)
	}
}
