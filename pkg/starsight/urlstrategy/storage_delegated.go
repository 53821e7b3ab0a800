package urlstrategy

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// StorageDelegatedStrategy delegates URL generation to the storage backend,
// typically S3 presigned URLs. Generated URLs are cached per object key so a
// listing does not presign the same key repeatedly.
type StorageDelegatedStrategy struct {
	store DownloadURLProvider
	cache *expirable.LRU[string, string]
}

// NewStorageDelegatedStrategy creates a storage-delegated strategy. A zero
// cacheSize disables caching; ttl must stay below the backend's presign
// duration.
func NewStorageDelegatedStrategy(store DownloadURLProvider, cacheSize int, ttl time.Duration) *StorageDelegatedStrategy {
	s := &StorageDelegatedStrategy{store: store}
	if cacheSize > 0 {
		s.cache = expirable.NewLRU[string, string](cacheSize, nil, ttl)
	}
	return s
}

func (s *StorageDelegatedStrategy) FileURL(ctx context.Context, objectKey string) (string, error) {
	if s.cache != nil {
		if u, ok := s.cache.Get(objectKey); ok {
			return u, nil
		}
	}

	u, err := s.store.GetDownloadURL(ctx, objectKey, "")
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		s.cache.Add(objectKey, u)
	}
	return u, nil
}

// Purge drops every cached URL.
func (s *StorageDelegatedStrategy) Purge() {
	if s.cache != nil {
		s.cache.Purge()
	}
}
