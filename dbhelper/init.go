package dbhelper

import (
	"fmt"
	"os"
	"time"

	"wardrobeapi/config"
	"wardrobeapi/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func SetupDB(cfg config.DatabaseConfig) (*gorm.DB, error) {

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Host, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Minute * 5)

	if err := Migrate(db, &models.StorageSlot{}); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return db, nil
}

// SetupTestDB connects to the database named by the DB_* variables,
// falling back to a local development instance.
func SetupTestDB() (*gorm.DB, error) {
	return SetupDB(config.DatabaseConfig{
		Username: envOr("DB_USERNAME", "wardrobe"),
		Password: envOr("DB_PASSWORD", "wardrobe"),
		Host:     envOr("DB_HOST", "localhost"),
		Port:     envOr("DB_PORT", "5432"),
		Name:     envOr("DB_NAME", "wardrobe_test"),
	})
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
