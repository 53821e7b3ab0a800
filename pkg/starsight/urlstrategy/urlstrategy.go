// Package urlstrategy turns blob store object keys into the URLs API clients
// fetch images and documents from.
package urlstrategy

import (
	"context"

	"github.com/starsight/starsight-be/pkg/starsight"
)

// DownloadURLProvider is the slice of starsight.BlobStore that can mint
// download URLs.
type DownloadURLProvider interface {
	GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error)
}

var (
	_ starsight.URLStrategy = (*MediaPrefixStrategy)(nil)
	_ starsight.URLStrategy = (*CDNStrategy)(nil)
	_ starsight.URLStrategy = (*StorageDelegatedStrategy)(nil)
)
