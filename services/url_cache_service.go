package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
	"go.uber.org/zap"
)

// How long presigned read URLs stay valid.
const presignedURLExpiration = 15 * time.Minute

// slightly less than the expiration
const cacheCleanupInterval = 12 * time.Minute

type URLCacheServiceProvider interface {
	GetReadURL(ctx context.Context, objectKey string) (string, error)
}

// URLCacheService hands out presigned read URLs for stored asset keys, generating one on a cache miss.
type URLCacheService struct {
	cache      *cache.LoadableCache[string]
	bucketName string
}

func NewURLCacheService(storage AWSServiceProvider, bucketName string, logger *zap.Logger) (*URLCacheService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ristrettoCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     1 << 24,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}
	ristrettoStore := ristretto_store.NewRistretto(ristrettoCache)

	loadFunction := func(ctx context.Context, key any) (string, []store.Option, error) {
		objectKey, ok := key.(string)
		if !ok {
			return "", nil, fmt.Errorf("invalid key type provided to URL cache: expected string, got %T", key)
		}
		logger.Debug("url cache miss", zap.String("key", objectKey))
		url, err := storage.GetPresignedR2FileReadURL(ctx, bucketName, objectKey)
		return url, []store.Option{store.WithExpiration(cacheCleanupInterval), store.WithCost(int64(len(url)))}, err
	}

	return &URLCacheService{
		cache:      cache.NewLoadable[string](loadFunction, cache.New[string](ristrettoStore)),
		bucketName: bucketName,
	}, nil
}

func (s *URLCacheService) GetReadURL(ctx context.Context, objectKey string) (string, error) {
	if objectKey == "" {
		return "", nil
	}
	return s.cache.Get(ctx, objectKey)
}

// ResolveImageURL turns a stored asset value into something a browser can load. Links and data URLs pass
// through; anything else is treated as an object key. Resolution failures return the value unchanged.
func ResolveImageURL(ctx context.Context, urls URLCacheServiceProvider, value string) string {
	if urls == nil || value == "" || IsDataURL(value) || strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return value
	}
	url, err := urls.GetReadURL(ctx, value)
	if err != nil || url == "" {
		return value
	}
	return url
}
