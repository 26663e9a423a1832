package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/getsentry/sentry-go"
)

// ImageStore keeps the photo of an item and turns the stored reference back
// into something a client can display.
type ImageStore interface {
	Put(ctx context.Context, itemID string, data []byte, mimeType string) (string, error)
	ReadURL(ctx context.Context, ref string) (string, error)
}

// InlineImageStore stores the image itself in the reference as a data URL.
type InlineImageStore struct{}

func (InlineImageStore) Put(ctx context.Context, itemID string, data []byte, mimeType string) (string, error) {
	return EncodeDataURL(data, mimeType), nil
}

func (InlineImageStore) ReadURL(ctx context.Context, ref string) (string, error) {
	return ref, nil
}

// R2ImageStore uploads images to a bucket under clothes/<itemID><ext>.
type R2ImageStore struct {
	aws        AWSServiceProvider
	urlCache   URLCacheServiceProvider
	bucketName string
}

func NewR2ImageStore(aws AWSServiceProvider, urlCache URLCacheServiceProvider, bucketName string) *R2ImageStore {
	return &R2ImageStore{aws: aws, urlCache: urlCache, bucketName: bucketName}
}

func ImageObjectKey(itemID, mimeType string) string {
	return "clothes/" + itemID + ExtensionForMimeType(mimeType)
}

func (s *R2ImageStore) Put(ctx context.Context, itemID string, data []byte, mimeType string) (string, error) {
	key := ImageObjectKey(itemID, mimeType)
	if err := s.aws.UploadObject(ctx, s.bucketName, key, data, mimeType); err != nil {
		return "", err
	}
	return key, nil
}

// ReadURL presigns object keys. Items saved before the bucket was configured
// still carry inline data URLs and are returned as is.
func (s *R2ImageStore) ReadURL(ctx context.Context, ref string) (string, error) {
	if ref == "" || strings.HasPrefix(ref, "data:") {
		return ref, nil
	}
	url, err := s.urlCache.GetReadURL(ctx, ref)
	if err == nil && url != "" {
		return url, nil
	}
	if err != nil {
		log.Printf("[Wardrobe] URL cache failed for %s, presigning directly: %v", ref, err)
		sentry.CaptureException(err)
	}
	url, err = s.aws.GetPresignedR2FileReadURL(ctx, s.bucketName, ref)
	if err != nil {
		return "", fmt.Errorf("read url for %s: %w", ref, err)
	}
	return url, nil
}
