// Package storage persists whole collections under named slots, the way the
// browser app kept them in local storage.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	ItemsKey   = "wardrobe_items"
	OutfitsKey = "saved_outfits"
)

var (
	// ErrSlotNotFound is returned by a Backend when a slot was never written.
	ErrSlotNotFound = errors.New("slot not found")
	// ErrPersistenceUnavailable wraps every read/write failure of a slot.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)

// Backend stores opaque documents by key.
type Backend interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	Close() error
}

// Slot is a typed view of one key: the full collection is read and written at once.
type Slot[T any] struct {
	backend Backend
	key     string
}

func NewSlot[T any](backend Backend, key string) *Slot[T] {
	return &Slot[T]{backend: backend, key: key}
}

func (s *Slot[T]) Key() string {
	return s.key
}

// Load returns the stored collection. A slot that was never written is an
// empty collection, not an error.
func (s *Slot[T]) Load(ctx context.Context) ([]T, error) {
	data, err := s.backend.Read(ctx, s.key)
	if errors.Is(err, ErrSlotNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrPersistenceUnavailable, s.key, err)
	}
	if len(data) == 0 {
		return []T{}, nil
	}
	var values []T
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrPersistenceUnavailable, s.key, err)
	}
	if values == nil {
		values = []T{}
	}
	return values, nil
}

// Save replaces the stored collection.
func (s *Slot[T]) Save(ctx context.Context, values []T) error {
	if values == nil {
		values = []T{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrPersistenceUnavailable, s.key, err)
	}
	if err := s.backend.Write(ctx, s.key, data); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrPersistenceUnavailable, s.key, err)
	}
	return nil
}
