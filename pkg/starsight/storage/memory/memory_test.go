package memory_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starsight/starsight-be/pkg/starsight"
	memorystorage "github.com/starsight/starsight-be/pkg/starsight/storage/memory"
)

func TestMemoryBackend(t *testing.T) {
	backend := memorystorage.New()
	ctx := context.Background()
	testKey := "original_images/abc/glacier.jpg"
	testData := "not really a jpeg"

	t.Run("Upload", func(t *testing.T) {
		err := backend.Upload(ctx, testKey, strings.NewReader(testData))
		assert.NoError(t, err)
	})

	t.Run("GetObjectMeta", func(t *testing.T) {
		meta, err := backend.GetObjectMeta(ctx, testKey)
		require.NoError(t, err)
		assert.Equal(t, testKey, meta.Key)
		assert.Equal(t, int64(len(testData)), meta.Size)
		assert.Equal(t, "application/octet-stream", meta.ContentType)
		assert.False(t, meta.UpdatedAt.IsZero())
	})

	t.Run("Download", func(t *testing.T) {
		reader, err := backend.Download(ctx, testKey)
		require.NoError(t, err)
		defer reader.Close()

		data, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, testData, string(data))
	})

	t.Run("UploadWithParams", func(t *testing.T) {
		params := starsight.UploadParams{ObjectKey: "documents/abc/report.pdf", MimeType: "application/pdf"}
		require.NoError(t, backend.UploadWithParams(ctx, strings.NewReader(testData), params))

		meta, err := backend.GetObjectMeta(ctx, params.ObjectKey)
		require.NoError(t, err)
		assert.Equal(t, "application/pdf", meta.ContentType)

		// Re-upload without a type keeps the stored one.
		require.NoError(t, backend.Upload(ctx, params.ObjectKey, strings.NewReader("v2")))
		meta, err = backend.GetObjectMeta(ctx, params.ObjectKey)
		require.NoError(t, err)
		assert.Equal(t, "application/pdf", meta.ContentType)
		assert.Equal(t, int64(2), meta.Size)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, backend.Delete(ctx, testKey))

		_, err := backend.GetObjectMeta(ctx, testKey)
		assert.ErrorIs(t, err, starsight.ErrObjectNotFound)
		_, err = backend.Download(ctx, testKey)
		assert.ErrorIs(t, err, starsight.ErrObjectNotFound)
		assert.ErrorIs(t, backend.Delete(ctx, testKey), starsight.ErrObjectNotFound)
	})

	t.Run("NoDownloadURL", func(t *testing.T) {
		_, err := backend.GetDownloadURL(ctx, "any", "")
		assert.Error(t, err)
	})
}
