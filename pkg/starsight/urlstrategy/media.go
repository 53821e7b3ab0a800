package urlstrategy

import (
	"context"
	"strings"
)

// MediaPrefixStrategy serves files from the application under a media prefix,
// e.g. "/media/original_images/ab/cd_glacier.jpg".
type MediaPrefixStrategy struct {
	Prefix  string // e.g. "/media/"
	BaseURL string // optional, makes URLs absolute
}

// NewMediaPrefixStrategy creates a media prefix strategy. An empty prefix
// means "/media/".
func NewMediaPrefixStrategy(prefix, baseURL string) *MediaPrefixStrategy {
	if prefix == "" {
		prefix = "/media/"
	}
	return &MediaPrefixStrategy{
		Prefix:  "/" + strings.Trim(prefix, "/") + "/",
		BaseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

func (s *MediaPrefixStrategy) FileURL(ctx context.Context, objectKey string) (string, error) {
	return s.BaseURL + s.Prefix + strings.TrimPrefix(objectKey, "/"), nil
}
