package repository

import (
	"context"
	"fmt"
	"sync"

	"wardrobeapi/models"
	"wardrobeapi/storage"
)

type ItemRepository struct {
	mu    sync.RWMutex
	slot  *storage.Slot[models.ClothingItem]
	items []models.ClothingItem // newest first
}

// NewItemRepository loads the stored wardrobe once; later reads never touch the store.
func NewItemRepository(ctx context.Context, slot *storage.Slot[models.ClothingItem]) *ItemRepository {
	return &ItemRepository{
		slot:  slot,
		items: loadSlot(ctx, slot),
	}
}

func (r *ItemRepository) Add(ctx context.Context, item models.ClothingItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.ID == item.ID {
			return fmt.Errorf("%w: %s", ErrDuplicateID, item.ID)
		}
	}
	r.items = prepend(r.items, item)
	persist(ctx, r.slot, r.items)
	return nil
}

// DeleteByID removes the item if present. The collection is persisted either way.
func (r *ItemRepository) DeleteByID(ctx context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := make([]models.ClothingItem, 0, len(r.items))
	for _, item := range r.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	r.items = kept
	persist(ctx, r.slot, r.items)
}

func (r *ItemRepository) FindByID(id string) (models.ClothingItem, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.ID == id {
			return item, true
		}
	}
	return models.ClothingItem{}, false
}

func (r *ItemRepository) List() []models.ClothingItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.ClothingItem{}, r.items...)
}

func (r *ItemRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// FilterByCategory keeps list order. "All" and the empty string match everything.
func (r *ItemRepository) FilterByCategory(category string) []models.ClothingItem {
	if category == "" || category == models.CategoryAll {
		return r.List()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	filtered := []models.ClothingItem{}
	for _, item := range r.items {
		if string(item.Category) == category {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// Resolve maps ids to items in the given order, silently skipping ids that
// no longer exist.
func (r *ItemRepository) Resolve(ids []string) []models.ClothingItem {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byID := make(map[string]models.ClothingItem, len(r.items))
	for _, item := range r.items {
		byID[item.ID] = item
	}
	resolved := make([]models.ClothingItem, 0, len(ids))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			resolved = append(resolved, item)
		}
	}
	return resolved
}
