package repository

import (
	"context"
	"fmt"
	"sync"

	"wardrobeapi/models"
	"wardrobeapi/storage"
)

// OutfitRepository holds saved outfits. Outfits are immutable once saved.
type OutfitRepository struct {
	mu      sync.RWMutex
	slot    *storage.Slot[models.Outfit]
	outfits []models.Outfit
}

func NewOutfitRepository(ctx context.Context, slot *storage.Slot[models.Outfit]) *OutfitRepository {
	return &OutfitRepository{
		slot:    slot,
		outfits: loadSlot(ctx, slot),
	}
}

func (r *OutfitRepository) Add(ctx context.Context, outfit models.Outfit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.outfits {
		if existing.ID == outfit.ID {
			return fmt.Errorf("%w: %s", ErrDuplicateID, outfit.ID)
		}
	}
	r.outfits = prepend(r.outfits, outfit)
	persist(ctx, r.slot, r.outfits)
	return nil
}

func (r *OutfitRepository) DeleteByID(ctx context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := make([]models.Outfit, 0, len(r.outfits))
	for _, outfit := range r.outfits {
		if outfit.ID != id {
			kept = append(kept, outfit)
		}
	}
	r.outfits = kept
	persist(ctx, r.slot, r.outfits)
}

func (r *OutfitRepository) List() []models.Outfit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Outfit{}, r.outfits...)
}
