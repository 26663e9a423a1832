package services

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"strings"
)

const DefaultImageMimeType = "image/jpeg"

var (
	ErrInvalidImage  = errors.New("invalid image")
	ErrImageTooLarge = errors.New("image is too large")
)

var allowedImageMimeTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/webp", "image/heic", "image/heif"}

var dataURLPrefix = regexp.MustCompile(`^data:(image/[a-zA-Z0-9.+-]+);base64,`)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
	"image/heif": ".heif",
}

// MimeTypeFromDataURL reads the MIME type of a base64 image data URL,
// falling back to image/jpeg when the prefix is missing.
func MimeTypeFromDataURL(dataURL string) string {
	match := dataURLPrefix.FindStringSubmatch(dataURL)
	if match == nil {
		return DefaultImageMimeType
	}
	return strings.ToLower(match[1])
}

func StripDataURLPrefix(dataURL string) string {
	return dataURLPrefix.ReplaceAllString(dataURL, "")
}

// DecodeDataURL returns the image bytes and MIME type of a data URL or of a
// bare base64 string.
func DecodeDataURL(dataURL string) ([]byte, string, error) {
	dataURL = strings.TrimSpace(dataURL)
	if dataURL == "" {
		return nil, "", fmt.Errorf("%w: empty image", ErrInvalidImage)
	}
	if strings.HasPrefix(dataURL, "data:") && !dataURLPrefix.MatchString(dataURL) {
		return nil, "", fmt.Errorf("%w: not a base64 image data URL", ErrInvalidImage)
	}
	mimeType := MimeTypeFromDataURL(dataURL)
	data, err := base64.StdEncoding.DecodeString(StripDataURLPrefix(dataURL))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty image", ErrInvalidImage)
	}
	if !IsAllowedImageMimeType(mimeType) {
		return nil, "", fmt.Errorf("%w: unsupported type %s", ErrInvalidImage, mimeType)
	}
	return data, mimeType, nil
}

func EncodeDataURL(data []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = DefaultImageMimeType
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func IsAllowedImageMimeType(mimeType string) bool {
	return slices.Contains(allowedImageMimeTypes, strings.ToLower(mimeType))
}

// DetectImageMimeType sniffs uploaded bytes; unknown content keeps the fallback.
func DetectImageMimeType(data []byte, fallback string) string {
	detected := http.DetectContentType(data)
	if IsAllowedImageMimeType(detected) {
		return detected
	}
	if fallback == "" {
		return DefaultImageMimeType
	}
	return strings.ToLower(fallback)
}

func ExtensionForMimeType(mimeType string) string {
	if ext, ok := imageExtensions[strings.ToLower(mimeType)]; ok {
		return ext
	}
	return ".jpg"
}
