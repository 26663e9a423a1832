package models

import "time"

// StorageSlot is one named collection persisted as a JSON document.
type StorageSlot struct {
	Key       string    `gorm:"primaryKey;size:64"`
	Value     string    `gorm:"type:text"`
	UpdatedAt time.Time
}
