package urlstrategy

import (
	"fmt"
	"time"

	"github.com/starsight/starsight-be/pkg/starsight"
)

// URLStrategyType represents the type of URL strategy
type URLStrategyType string

const (
	// Application-served files under a media prefix
	StrategyTypeMedia URLStrategyType = "media"

	// CDN strategy with direct CDN URLs
	StrategyTypeCDN URLStrategyType = "cdn"

	// Storage-delegated strategy, e.g. presigned S3 URLs
	StrategyTypeStorageDelegated URLStrategyType = "storage-delegated"
)

// Config holds configuration for URL strategy creation
type Config struct {
	Type        URLStrategyType
	MediaPrefix string              // For media strategy
	BaseURL     string              // For media strategy, optional
	CDNBaseURL  string              // For CDN strategy
	BlobStore   DownloadURLProvider // For storage-delegated strategy
	CacheSize   int                 // For storage-delegated strategy
	CacheTTL    time.Duration       // For storage-delegated strategy
}

// NewURLStrategy creates a URL strategy based on the configuration
func NewURLStrategy(config Config) (starsight.URLStrategy, error) {
	switch config.Type {
	case "", StrategyTypeMedia:
		return NewMediaPrefixStrategy(config.MediaPrefix, config.BaseURL), nil

	case StrategyTypeCDN:
		if config.CDNBaseURL == "" {
			return nil, fmt.Errorf("CDN base URL is required for CDN strategy")
		}
		return NewCDNStrategy(config.CDNBaseURL), nil

	case StrategyTypeStorageDelegated:
		if config.BlobStore == nil {
			return nil, fmt.Errorf("blob store is required for storage-delegated strategy")
		}
		ttl := config.CacheTTL
		if ttl <= 0 {
			ttl = 10 * time.Minute
		}
		return NewStorageDelegatedStrategy(config.BlobStore, config.CacheSize, ttl), nil

	default:
		return nil, fmt.Errorf("unknown URL strategy type: %s", config.Type)
	}
}
