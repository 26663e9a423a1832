// Package repository holds the authoritative in-memory wardrobe and outfit
// collections. Each mutation is mirrored to its storage slot before the lock
// is released.
package repository

import (
	"context"
	"errors"
	"log"

	"wardrobeapi/storage"

	"github.com/getsentry/sentry-go"
)

var ErrDuplicateID = errors.New("record with this id already exists")

// loadSlot reads the initial collection. An unreadable store starts empty.
func loadSlot[T any](ctx context.Context, slot *storage.Slot[T]) []T {
	values, err := slot.Load(ctx)
	if err != nil {
		log.Printf("[Store] Failed to load %s, starting empty: %v", slot.Key(), err)
		sentry.CaptureException(err)
		return []T{}
	}
	return values
}

// persist writes the whole collection. Write failures are reported and
// otherwise ignored; the in-memory state stays authoritative.
func persist[T any](ctx context.Context, slot *storage.Slot[T], values []T) {
	if err := slot.Save(ctx, values); err != nil {
		log.Printf("[Store] Failed to save %s: %v", slot.Key(), err)
		sentry.CaptureException(err)
	}
}

func prepend[T any](values []T, v T) []T {
	out := make([]T, 0, len(values)+1)
	out = append(out, v)
	return append(out, values...)
}
