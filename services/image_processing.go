package services

import (
	"bytes"
	"fmt"
	"image"
	"log"
	"net/http"
	"slices"

	"github.com/disintegration/imaging"
)

// ISO-BMFF brands of HEIC/HEIF stills and sequences.
var heifBrands = []string{"heic", "heix", "heim", "heis", "hevc", "hevx", "hevm", "hevs", "mif1", "msf1"}

// isHEIF checks for an ftyp box carrying one of the HEIF brands.
func isHEIF(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	return slices.Contains(heifBrands, string(data[8:12]))
}

// passthroughMimeType recognises formats the decoder cannot read but the
// model accepts as is.
func passthroughMimeType(data []byte) (string, bool) {
	if http.DetectContentType(data) == "image/webp" {
		return "image/webp", true
	}
	if isHEIF(data) {
		return "image/heic", true
	}
	return "", false
}

func decodeImage(data []byte) (image.Image, error) {
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
}

// CheckImage rejects bytes that are not a picture in a supported format.
func CheckImage(data []byte) error {
	if _, ok := passthroughMimeType(data); ok {
		return nil
	}
	if _, err := decodeImage(data); err != nil {
		return fmt.Errorf("%w: cannot decode image: %v", ErrInvalidImage, err)
	}
	return nil
}

// NormalizeImage applies EXIF orientation, shrinks the image to fit within
// maxDimension and re-encodes it as JPEG. WebP and HEIC/HEIF are passed
// through untouched; anything else that does not decode is ErrInvalidImage.
func NormalizeImage(data []byte, mimeType string, maxDimension int) ([]byte, string, error) {
	img, err := decodeImage(data)
	if err != nil {
		if passthrough, ok := passthroughMimeType(data); ok {
			log.Printf("[Wardrobe] Keeping %s image as uploaded", passthrough)
			return data, passthrough, nil
		}
		return nil, "", fmt.Errorf("%w: cannot decode %s image: %v", ErrInvalidImage, mimeType, err)
	}

	bounds := img.Bounds()
	if maxDimension > 0 && (bounds.Dx() > maxDimension || bounds.Dy() > maxDimension) {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		log.Printf("[Wardrobe] Failed to re-encode image: %v", err)
		return data, mimeType, nil
	}
	return buf.Bytes(), "image/jpeg", nil
}

// ImageDimensions reports the decoded size of an image.
func ImageDimensions(data []byte) (int, int, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy(), nil
}
