package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedResponse = errors.New("malformed model response")

// AnalysisResult is the validated outcome of classifying one clothing image.
type AnalysisResult struct {
	Type        string           `json:"type"`
	Category    ClothingCategory `json:"category"`
	Color       string           `json:"color"`
	Seasons     []Season         `json:"seasons"`
	Tags        []string         `json:"tags"`
	Description string           `json:"description"`
}

// analysisPayload mirrors the raw model JSON; pointers detect missing required fields.
type analysisPayload struct {
	Type        *string   `json:"type"`
	Category    *string   `json:"category"`
	Color       *string   `json:"color"`
	Seasons     []string  `json:"seasons"`
	Tags        *[]string `json:"tags"`
	Description *string   `json:"description"`
}

// ParseAnalysisResult decodes model output and rejects anything outside the closed enumerations.
func ParseAnalysisResult(raw string) (AnalysisResult, error) {
	var payload analysisPayload
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &payload); err != nil {
		return AnalysisResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if payload.Type == nil || strings.TrimSpace(*payload.Type) == "" {
		return AnalysisResult{}, fmt.Errorf("%w: missing type", ErrMalformedResponse)
	}
	if payload.Category == nil {
		return AnalysisResult{}, fmt.Errorf("%w: missing category", ErrMalformedResponse)
	}
	if payload.Color == nil || payload.Tags == nil || payload.Description == nil {
		return AnalysisResult{}, fmt.Errorf("%w: missing color, tags or description", ErrMalformedResponse)
	}
	category, err := ParseCategory(*payload.Category)
	if err != nil {
		return AnalysisResult{}, err
	}
	seasons, err := ParseSeasons(payload.Seasons)
	if err != nil {
		return AnalysisResult{}, err
	}
	return AnalysisResult{
		Type:        strings.TrimSpace(*payload.Type),
		Category:    category,
		Color:       strings.TrimSpace(*payload.Color),
		Seasons:     seasons,
		Tags:        NormalizeTags(*payload.Tags),
		Description: strings.TrimSpace(*payload.Description),
	}, nil
}

// OutfitRecommendation is a proposal from the recommendation model. ItemIDs may
// reference items that do not exist.
type OutfitRecommendation struct {
	Name      string   `json:"name"`
	ItemIDs   []string `json:"itemIds"`
	Reasoning string   `json:"reasoning"`
}

type recommendationPayload struct {
	Name      *string  `json:"name"`
	ItemIDs   []string `json:"itemIds"`
	Reasoning *string  `json:"reasoning"`
}

func ParseOutfitRecommendation(raw string) (OutfitRecommendation, error) {
	var payload recommendationPayload
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &payload); err != nil {
		return OutfitRecommendation{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if payload.Name == nil || strings.TrimSpace(*payload.Name) == "" {
		return OutfitRecommendation{}, fmt.Errorf("%w: missing name", ErrMalformedResponse)
	}
	if payload.Reasoning == nil {
		return OutfitRecommendation{}, fmt.Errorf("%w: missing reasoning", ErrMalformedResponse)
	}
	ids := make([]string, 0, len(payload.ItemIDs))
	for _, id := range payload.ItemIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return OutfitRecommendation{}, fmt.Errorf("%w: no item ids", ErrMalformedResponse)
	}
	return OutfitRecommendation{
		Name:      strings.TrimSpace(*payload.Name),
		ItemIDs:   ids,
		Reasoning: strings.TrimSpace(*payload.Reasoning),
	}, nil
}

// cleanModelJSON strips markdown fences models sometimes wrap JSON in.
func cleanModelJSON(text string) string {
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}
