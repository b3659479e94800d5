package database

import (
	"fmt"
	"time"

	"metalhub_backend/internal/logger"
	"metalhub_backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect opens the Postgres pool and checks it is reachable.
func Connect(dsn string, production bool) (*gorm.DB, error) {
	level := gormlogger.Warn
	if production {
		level = gormlogger.Error
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get *sql.DB from GORM: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database unavailable: %w", err)
	}
	return db, nil
}

// indexStatements are the indexes gorm tags cannot express.
var indexStatements = []string{
	// at most one ACTIVE membership per user
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_memberships_one_active
		ON memberships (user_id) WHERE status = 'ACTIVE'`,
	// at most one ACCEPTED offer per listing
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_offers_one_accepted
		ON offers (listing_id) WHERE status = 'ACCEPTED'`,
	`CREATE INDEX IF NOT EXISTS idx_listings_industries ON listings USING GIN (industries)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_capabilities ON listings USING GIN (capabilities)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_metals ON listings USING GIN (metals)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_featured
		ON listings (featured_until) WHERE is_featured`,
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.LoginActivity{},
		&models.Membership{},
		&models.Listing{},
		&models.ListingImage{},
		&models.Offer{},
		&models.Chat{},
		&models.Message{},
		&models.Payment{},
		&models.PaymentEvent{},
		&models.AdminLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return err
	}
	logger.Info("Database migrated", "indexes", len(indexStatements))
	return nil
}

func createIndexes(db *gorm.DB) error {
	for _, stmt := range indexStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
