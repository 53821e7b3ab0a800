package urlstrategy

import (
	"context"
	"fmt"
	"strings"
)

// CDNStrategy generates URLs that point directly to a CDN
type CDNStrategy struct {
	CDNBaseURL string // e.g., "https://cdn.example.com"
}

// NewCDNStrategy creates a new CDN URL strategy
func NewCDNStrategy(cdnBaseURL string) *CDNStrategy {
	return &CDNStrategy{
		CDNBaseURL: strings.TrimSuffix(cdnBaseURL, "/"),
	}
}

// FileURL creates a direct CDN URL for the object key
func (s *CDNStrategy) FileURL(ctx context.Context, objectKey string) (string, error) {
	if s.CDNBaseURL == "" {
		return "", fmt.Errorf("CDN base URL not configured")
	}
	return fmt.Sprintf("%s/%s", s.CDNBaseURL, strings.TrimPrefix(objectKey, "/")), nil
}
