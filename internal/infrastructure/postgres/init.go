package postgres

import (
	"log"

	"github.com/vionex/vionex-mlm-service/internal/config"
	"github.com/vionex/vionex-mlm-service/internal/infrastructure/postgres/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func MustInitDB(cfg *config.MLMConfig) *gorm.DB {
	dsn := cfg.MLMDB.Dsn
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	db.AutoMigrate(
		&models.RankModel{},
		&models.MemberModel{},
		&models.ProductModel{},
		&models.RebateConfigModel{},
		&models.PurchaseModel{},
		&models.RebateModel{},
		&models.WalletTransactionModel{},
	)

	return db
}
