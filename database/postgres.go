package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"readify/models"
)

const connectAttempts = 5

// ConnectPostgres opens the gorm connection, retrying while the database starts up.
func ConnectPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
			TranslateError: true,
		})
		if err == nil {
			break
		}
		logger.Warn("postgres not ready, retrying", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	logger.Info("Connected to PostgreSQL")
	return db, nil
}

// ClosePostgres closes the underlying connection pool.
func ClosePostgres(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Models lists every relational model in migration order.
func Models() []interface{} {
	return []interface{}{
		&models.Account{},
		&models.StaffProfile{},
		&models.RefreshToken{},
		&models.Category{},
		&models.Book{},
		&models.WishlistItem{},
		&models.Promotion{},
		&models.Media{},
		&models.Supplier{},
		&models.StockReceipt{},
		&models.StockReceiptItem{},
		&models.StockMovement{},
		&models.Order{},
		&models.OrderItem{},
	}
}

// replacedIndexes were superseded by partial indexes that ignore soft-deleted rows
// (or, for orders, by a per-account key index). AutoMigrate never redefines an
// index that already exists, so the old ones are dropped first.
var replacedIndexes = []string{
	"idx_orders_idem",
	"idx_books_isbn",
	"idx_categories_name",
	"idx_suppliers_name",
	"idx_promotions_code",
}

func dropReplacedIndexes(db *gorm.DB) error {
	for _, name := range replacedIndexes {
		if err := db.Exec(`DROP INDEX IF EXISTS ` + name).Error; err != nil {
			return fmt.Errorf("failed to drop index %s: %w", name, err)
		}
	}
	return nil
}

// Migrate creates or updates the relational schema.
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("failed to enable pgcrypto: %w", err)
	}
	if err := dropReplacedIndexes(db); err != nil {
		return err
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate failed: %w", err)
	}
	return nil
}
