package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
)

const (
	// How long presigned image URLs stay valid.
	presignedURLExpiration = 15 * time.Minute
	// URLs are dropped from the cache before they expire.
	cachedURLLifetime = 12 * time.Minute
)

type URLCacheServiceProvider interface {
	GetReadURL(ctx context.Context, objectKey string) (string, error)
}

// URLCacheService hands out presigned read URLs for item images in one
// bucket, reusing each URL until shortly before it expires.
type URLCacheService struct {
	aws    AWSServiceProvider
	bucket string
	urls   *cache.LoadableCache[string]
}

func NewURLCacheService(aws AWSServiceProvider, bucket string) (*URLCacheService, error) {
	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     1 << 24,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}

	s := &URLCacheService{aws: aws, bucket: bucket}
	s.urls = cache.NewLoadable[string](s.presign, cache.New[string](ristretto_store.NewRistretto(client)))
	return s, nil
}

// cacheKey scopes object keys to the bucket they live in.
func (s *URLCacheService) cacheKey(objectKey string) string {
	return s.bucket + "/" + objectKey
}

// presign runs on a cache miss.
func (s *URLCacheService) presign(ctx context.Context, key any) (string, []store.Option, error) {
	cacheKey, ok := key.(string)
	if !ok {
		return "", nil, fmt.Errorf("url cache: expected string key, got %T", key)
	}
	objectKey := cacheKey[len(s.bucket)+1:]

	log.Printf("[Wardrobe] URL cache miss for %s, presigning", cacheKey)
	url, err := s.aws.GetPresignedR2FileReadURL(ctx, s.bucket, objectKey)
	if err != nil {
		return "", nil, err
	}
	return url, []store.Option{store.WithExpiration(cachedURLLifetime), store.WithCost(int64(len(url)))}, nil
}

func (s *URLCacheService) GetReadURL(ctx context.Context, objectKey string) (string, error) {
	if objectKey == "" {
		return "", nil
	}
	return s.urls.Get(ctx, s.cacheKey(objectKey))
}
