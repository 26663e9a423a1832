package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

type ClothingCategory string

const (
	CategoryTop       ClothingCategory = "Top"
	CategoryBottom    ClothingCategory = "Bottom"
	CategoryShoes     ClothingCategory = "Shoes"
	CategoryOuterwear ClothingCategory = "Outerwear"
	CategoryAccessory ClothingCategory = "Accessory"
	CategoryOnePiece  ClothingCategory = "One-Piece"
	CategoryUnknown   ClothingCategory = "Unknown"
)

// CategoryAll is the filter value that matches every category.
const CategoryAll = "All"

var Categories = []ClothingCategory{
	CategoryTop,
	CategoryBottom,
	CategoryShoes,
	CategoryOuterwear,
	CategoryAccessory,
	CategoryOnePiece,
	CategoryUnknown,
}

type Season string

const (
	SeasonSummer    Season = "Summer"
	SeasonWinter    Season = "Winter"
	SeasonSpring    Season = "Spring"
	SeasonFall      Season = "Fall"
	SeasonAllSeason Season = "All-Season"
)

var Seasons = []Season{
	SeasonSummer,
	SeasonWinter,
	SeasonSpring,
	SeasonFall,
	SeasonAllSeason,
}

var (
	ErrInvalidCategory = errors.New("category is outside the allowed set")
	ErrInvalidSeason   = errors.New("season is outside the allowed set")
	ErrNoSeasons       = errors.New("at least one season is required")
)

func ParseCategory(value string) (ClothingCategory, error) {
	for _, c := range Categories {
		if string(c) == value {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, value)
}

func ParseSeason(value string) (Season, error) {
	for _, s := range Seasons {
		if string(s) == value {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSeason, value)
}

// ParseSeasons validates every value and keeps the first occurrence of each season.
func ParseSeasons(values []string) ([]Season, error) {
	if len(values) == 0 {
		return nil, ErrNoSeasons
	}
	seasons := make([]Season, 0, len(values))
	seen := make(map[Season]bool, len(values))
	for _, v := range values {
		s, err := ParseSeason(v)
		if err != nil {
			return nil, err
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		seasons = append(seasons, s)
	}
	return seasons, nil
}

func ValidateCategory(fl validator.FieldLevel) bool {
	_, err := ParseCategory(fl.Field().String())
	return err == nil
}

func ValidateSeason(fl validator.FieldLevel) bool {
	_, err := ParseSeason(fl.Field().String())
	return err == nil
}

var tagFolder = cases.Fold()

// NormalizeTags trims tags and drops case-insensitive duplicates, keeping the first spelling.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := tagFolder.String(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	return out
}

type ClothingItem struct {
	ID          string           `json:"id"`
	ImageURL    string           `json:"imageUrl"` // data URL or object storage key
	Type        string           `json:"type"`     // e.g. Hoodie, Chinos
	Category    ClothingCategory `json:"category"`
	Color       string           `json:"color"`
	Season      []Season         `json:"season"`
	Tags        []string         `json:"tags"` // e.g. Casual, Formal, Streetwear
	Description string           `json:"description"`
	CreatedAt   int64            `json:"createdAt"` // epoch millis
}

func NewItemID() string {
	return uuid.NewString()
}

// NewClothingItem applies a validated analysis to a captured image.
// Identity and creation time are assigned here and never change afterwards.
func NewClothingItem(id string, analysis AnalysisResult, imageRef string, now time.Time) ClothingItem {
	return ClothingItem{
		ID:          id,
		ImageURL:    imageRef,
		Type:        analysis.Type,
		Category:    analysis.Category,
		Color:       analysis.Color,
		Season:      append([]Season(nil), analysis.Seasons...),
		Tags:        append([]string(nil), analysis.Tags...),
		Description: analysis.Description,
		CreatedAt:   now.UnixMilli(),
	}
}

// WardrobeSummaryItem is the image-free projection sent to the recommendation model.
type WardrobeSummaryItem struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Color    string           `json:"color"`
	Tags     []string         `json:"tags"`
	Category ClothingCategory `json:"category"`
}

func SummarizeWardrobe(items []ClothingItem) []WardrobeSummaryItem {
	summary := make([]WardrobeSummaryItem, 0, len(items))
	for _, item := range items {
		summary = append(summary, WardrobeSummaryItem{
			ID:       item.ID,
			Type:     item.Type,
			Color:    item.Color,
			Tags:     item.Tags,
			Category: item.Category,
		})
	}
	return summary
}
