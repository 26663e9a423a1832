package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/repository"
	"wardrobeapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
)

const analyzeFailedMessage = "Could not analyze image. Please try again."

type ScanItemIn struct {
	Image string `json:"image"` // data URL
}

type ScanItemResponse struct {
	Analysis models.AnalysisResult `json:"analysis"`
	Image    string                `json:"image"` // normalized image to send back on create
}

type CreateItemIn struct {
	Image       string   `json:"image" validate:"required"`
	Type        string   `json:"type" validate:"required,max=100"`
	Category    string   `json:"category" validate:"required,category"`
	Color       string   `json:"color" validate:"max=100"`
	Seasons     []string `json:"seasons" validate:"required,min=1,dive,season"`
	Tags        []string `json:"tags" validate:"max=30,dive,max=50"`
	Description string   `json:"description" validate:"max=1000"`
}

type ItemsController struct {
	App App
}

func (controller *ItemsController) ItemRoutes(g *echo.Group) {
	g.POST("/scan", controller.ScanItem, GuardMiddleware(controller.App.Guard, services.ActionScan))
	g.POST("", controller.CreateItem)
	g.GET("", controller.ListItems)
	g.GET("/:id", controller.GetItem)
	g.DELETE("/:id", controller.DeleteItem)
}

// ScanItem classifies a photo without storing anything.
func (controller *ItemsController) ScanItem(c echo.Context) error {
	data, mimeType, err := readImage(c, controller.App.MaxImageBytes)
	if err != nil {
		return errorJSON(c, imageErrorStatus(err), err.Error())
	}
	data, mimeType, err = services.NormalizeImage(data, mimeType, controller.App.MaxImageDimension)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	analysis, err := controller.App.Stylist.Classify(c.Request().Context(), data, mimeType)
	if err != nil {
		return errorJSON(c, http.StatusBadGateway, analyzeFailedMessage)
	}
	return c.JSON(http.StatusOK, ScanItemResponse{
		Analysis: analysis,
		Image:    services.EncodeDataURL(data, mimeType),
	})
}

// CreateItem applies an accepted analysis to its image and adds the item.
func (controller *ItemsController) CreateItem(c echo.Context) error {
	var req CreateItemIn
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return errorJSON(c, http.StatusBadRequest, validationMessage(err))
	}

	data, mimeType, err := services.DecodeDataURL(req.Image)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	if controller.App.MaxImageBytes > 0 && int64(len(data)) > controller.App.MaxImageBytes {
		return errorJSON(c, http.StatusRequestEntityTooLarge, services.ErrImageTooLarge.Error())
	}
	if err := services.CheckImage(data); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	category, err := models.ParseCategory(req.Category)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	seasons, err := models.ParseSeasons(req.Seasons)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	analysis := models.AnalysisResult{
		Type:        strings.TrimSpace(req.Type),
		Category:    category,
		Color:       strings.TrimSpace(req.Color),
		Seasons:     seasons,
		Tags:        models.NormalizeTags(req.Tags),
		Description: strings.TrimSpace(req.Description),
	}

	ctx := c.Request().Context()
	id := models.NewItemID()
	ref, err := controller.App.Images.Put(ctx, id, data, mimeType)
	if err != nil {
		log.Printf("[Wardrobe] Failed to store image for %s: %v", id, err)
		sentry.CaptureException(err)
		return errorJSON(c, http.StatusBadGateway, "Could not save the image. Please try again.")
	}

	item := models.NewClothingItem(id, analysis, ref, time.Now())
	if err := controller.App.Items.Add(ctx, item); err != nil {
		if errors.Is(err, repository.ErrDuplicateID) {
			return errorJSON(c, http.StatusConflict, err.Error())
		}
		return err
	}
	log.Printf("[Wardrobe] Added %s %s (%s)", item.Category, item.Type, item.ID)
	return c.JSON(http.StatusCreated, resolveItem(ctx, controller.App.Images, item))
}

func (controller *ItemsController) ListItems(c echo.Context) error {
	category := c.QueryParam("category")
	if category != "" && category != models.CategoryAll {
		if _, err := models.ParseCategory(category); err != nil {
			return errorJSON(c, http.StatusBadRequest, err.Error())
		}
	}
	items := controller.App.Items.FilterByCategory(category)
	return c.JSON(http.StatusOK, resolveItems(c.Request().Context(), controller.App.Images, items))
}

func (controller *ItemsController) GetItem(c echo.Context) error {
	item, ok := controller.App.Items.FindByID(c.Param("id"))
	if !ok {
		return errorJSON(c, http.StatusNotFound, "Item not found")
	}
	return c.JSON(http.StatusOK, resolveItem(c.Request().Context(), controller.App.Images, item))
}

// DeleteItem requires confirm=true; deleting an unknown id succeeds.
func (controller *ItemsController) DeleteItem(c echo.Context) error {
	confirmed, _ := strconv.ParseBool(c.QueryParam("confirm"))
	if !confirmed {
		return errorJSON(c, http.StatusPreconditionFailed, "Are you sure you want to delete this item? Repeat with confirm=true")
	}
	controller.App.Items.DeleteByID(c.Request().Context(), c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}
