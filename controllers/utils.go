package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"wardrobeapi/models"
	"wardrobeapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
)

func errorJSON(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"error": message})
}

func bodyLimit(bytes int64) string {
	return fmt.Sprintf("%dK", bytes/1024+1)
}

// validationMessage unwraps the HTTP error produced by CustomValidator.
func validationMessage(err error) string {
	if he, ok := err.(*echo.HTTPError); ok {
		return fmt.Sprint(he.Message)
	}
	return err.Error()
}

// ItemResponse is an item whose image reference was resolved to a readable URL.
type ItemResponse struct {
	models.ClothingItem
}

func resolveItem(ctx context.Context, images services.ImageStore, item models.ClothingItem) ItemResponse {
	url, err := images.ReadURL(ctx, item.ImageURL)
	if err != nil {
		log.Printf("[Wardrobe] Failed to resolve image for item %s: %v", item.ID, err)
		sentry.CaptureException(err)
	} else {
		item.ImageURL = url
	}
	return ItemResponse{ClothingItem: item}
}

func resolveItems(ctx context.Context, images services.ImageStore, items []models.ClothingItem) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, resolveItem(ctx, images, item))
	}
	return out
}

// readImage accepts either a multipart "image" file or a JSON body with a data URL.
func readImage(c echo.Context, maxBytes int64) ([]byte, string, error) {
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		file, err := c.FormFile("image")
		if err != nil {
			return nil, "", fmt.Errorf("%w: image file is required", services.ErrInvalidImage)
		}
		if maxBytes > 0 && file.Size > maxBytes {
			return nil, "", services.ErrImageTooLarge
		}
		src, err := file.Open()
		if err != nil {
			return nil, "", err
		}
		defer src.Close()
		data, err := io.ReadAll(src)
		if err != nil {
			return nil, "", err
		}
		if len(data) == 0 {
			return nil, "", fmt.Errorf("%w: empty image", services.ErrInvalidImage)
		}
		mimeType := services.DetectImageMimeType(data, file.Header.Get(echo.HeaderContentType))
		if !services.IsAllowedImageMimeType(mimeType) {
			return nil, "", fmt.Errorf("%w: unsupported type %s", services.ErrInvalidImage, mimeType)
		}
		return data, mimeType, nil
	}

	var req ScanItemIn
	if err := c.Bind(&req); err != nil {
		return nil, "", fmt.Errorf("%w: invalid request body", services.ErrInvalidImage)
	}
	data, mimeType, err := services.DecodeDataURL(req.Image)
	if err != nil {
		return nil, "", err
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, "", services.ErrImageTooLarge
	}
	return data, mimeType, nil
}

func imageErrorStatus(err error) int {
	if errors.Is(err, services.ErrImageTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
