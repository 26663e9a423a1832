package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Outfit struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	ItemIDs   []string `json:"itemIds"` // weak references into the wardrobe
	Occasion  string   `json:"occasion"`
	Reasoning string   `json:"reasoning"`
	CreatedAt int64    `json:"createdAt"`
}

// NewOutfit materializes a candidate outfit from a recommendation. It is not
// saved until the user accepts it.
func NewOutfit(rec OutfitRecommendation, occasion string, now time.Time) Outfit {
	return Outfit{
		ID:        uuid.NewString(),
		Name:      rec.Name,
		ItemIDs:   append([]string(nil), rec.ItemIDs...),
		Occasion:  occasion,
		Reasoning: rec.Reasoning,
		CreatedAt: now.UnixMilli(),
	}
}

// ChatRole is the author of one conversation turn.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

type ChatTurn struct {
	Role ChatRole `json:"role" validate:"required,oneof=user assistant"`
	Text string   `json:"text" validate:"required"`
}

const StylistGreeting = "Hi! I'm your personal stylist. Ask me anything about your wardrobe or style advice!"

// WardrobeContext renders the live wardrobe the way the stylist sees it.
func WardrobeContext(items []ClothingItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%s %s (%s)", item.Color, item.Type, item.ID))
	}
	return strings.Join(parts, ", ")
}
