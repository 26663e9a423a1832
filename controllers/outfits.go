package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/repository"
	"wardrobeapi/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type RecommendOutfitIn struct {
	Occasion string `json:"occasion" validate:"max=500"`
}

type SaveOutfitIn struct {
	ID        string   `json:"id" validate:"max=64"`
	Name      string   `json:"name" validate:"required,max=200"`
	ItemIDs   []string `json:"itemIds" validate:"required,min=1,dive,required"`
	Occasion  string   `json:"occasion" validate:"max=500"`
	Reasoning string   `json:"reasoning"`
	CreatedAt int64    `json:"createdAt"`
}

// OutfitResponse carries the outfit together with the items that still exist,
// in outfit order.
type OutfitResponse struct {
	models.Outfit
	Items []ItemResponse `json:"items"`
}

type OutfitsController struct {
	App App
}

func (controller *OutfitsController) OutfitRoutes(g *echo.Group) {
	g.POST("/recommend", controller.RecommendOutfit, GuardMiddleware(controller.App.Guard, services.ActionRecommend))
	g.POST("", controller.SaveOutfit)
	g.GET("", controller.ListOutfits)
	g.DELETE("/:id", controller.DeleteOutfit)
}

func (controller *OutfitsController) resolve(ctx context.Context, outfit models.Outfit) OutfitResponse {
	items := controller.App.Items.Resolve(outfit.ItemIDs)
	return OutfitResponse{Outfit: outfit, Items: resolveItems(ctx, controller.App.Images, items)}
}

// RecommendOutfit returns a candidate outfit. Nothing is saved until the
// candidate is posted back to SaveOutfit.
func (controller *OutfitsController) RecommendOutfit(c echo.Context) error {
	var req RecommendOutfitIn
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return errorJSON(c, http.StatusBadRequest, validationMessage(err))
	}
	occasion := strings.TrimSpace(req.Occasion)
	if occasion == "" {
		return errorJSON(c, http.StatusBadRequest, "Describe the occasion first")
	}
	wardrobe := controller.App.Items.List()
	if len(wardrobe) == 0 {
		return errorJSON(c, http.StatusBadRequest, "Add some clothes to your wardrobe first")
	}

	ctx := c.Request().Context()
	rec, err := controller.App.Stylist.Recommend(ctx, wardrobe, occasion)
	if err != nil {
		return errorJSON(c, http.StatusBadGateway, "Could not generate an outfit. Please try again.")
	}
	outfit := models.NewOutfit(rec, occasion, time.Now())
	return c.JSON(http.StatusOK, controller.resolve(ctx, outfit))
}

func (controller *OutfitsController) SaveOutfit(c echo.Context) error {
	var req SaveOutfitIn
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return errorJSON(c, http.StatusBadRequest, validationMessage(err))
	}

	outfit := models.Outfit{
		ID:        req.ID,
		Name:      req.Name,
		ItemIDs:   req.ItemIDs,
		Occasion:  req.Occasion,
		Reasoning: req.Reasoning,
		CreatedAt: req.CreatedAt,
	}
	if outfit.ID == "" {
		outfit.ID = uuid.NewString()
	}
	if outfit.CreatedAt == 0 {
		outfit.CreatedAt = time.Now().UnixMilli()
	}

	ctx := c.Request().Context()
	if err := controller.App.Outfits.Add(ctx, outfit); err != nil {
		if errors.Is(err, repository.ErrDuplicateID) {
			return errorJSON(c, http.StatusConflict, err.Error())
		}
		return err
	}
	log.Printf("[Wardrobe] Saved outfit %q (%s) with %d items", outfit.Name, outfit.ID, len(outfit.ItemIDs))
	return c.JSON(http.StatusCreated, controller.resolve(ctx, outfit))
}

func (controller *OutfitsController) ListOutfits(c echo.Context) error {
	ctx := c.Request().Context()
	outfits := controller.App.Outfits.List()
	out := make([]OutfitResponse, 0, len(outfits))
	for _, outfit := range outfits {
		out = append(out, controller.resolve(ctx, outfit))
	}
	return c.JSON(http.StatusOK, out)
}

func (controller *OutfitsController) DeleteOutfit(c echo.Context) error {
	controller.App.Outfits.DeleteByID(c.Request().Context(), c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}
