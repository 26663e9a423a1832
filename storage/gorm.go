package storage

import (
	"context"
	"errors"
	"time"

	"wardrobeapi/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBackend keeps slots in the storage_slots table of a shared database.
type GormBackend struct {
	db *gorm.DB
}

func NewGormBackend(db *gorm.DB) *GormBackend {
	return &GormBackend{db: db}
}

func (g *GormBackend) Read(ctx context.Context, key string) ([]byte, error) {
	var slot models.StorageSlot
	err := g.db.WithContext(ctx).Where("key = ?", key).First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(slot.Value), nil
}

func (g *GormBackend) Write(ctx context.Context, key string, data []byte) error {
	slot := models.StorageSlot{Key: key, Value: string(data), UpdatedAt: time.Now().UTC()}
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&slot).Error
}

func (g *GormBackend) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
