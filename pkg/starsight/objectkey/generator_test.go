package objectkey

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var objectID = uuid.MustParse("987fcdeb-51a2-43d1-9f12-345678901234")

func TestFlatGenerator(t *testing.T) {
	gen := NewFlatGenerator()

	tests := []struct {
		name     string
		fileName string
		expected string
	}{
		{
			name:     "without filename",
			expected: "original_images/987fcdeb-51a2-43d1-9f12-345678901234",
		},
		{
			name:     "with filename",
			fileName: "glacier.jpg",
			expected: "original_images/987fcdeb-51a2-43d1-9f12-345678901234/glacier.jpg",
		},
		{
			name:     "directories stripped and spaces replaced",
			fileName: "uploads/my photo.jpg",
			expected: "original_images/987fcdeb-51a2-43d1-9f12-345678901234/my_photo.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, gen.GenerateKey("original_images", objectID, tt.fileName))
		})
	}
}

func TestShardedGenerator(t *testing.T) {
	gen := NewShardedGenerator()

	key := gen.GenerateKey("documents", objectID, "report.pdf")
	assert.Equal(t, "documents/98/7fcdeb51a243d19f12345678901234_report.pdf", key)

	t.Run("shard length clamped", func(t *testing.T) {
		g := &ShardedGenerator{ShardLength: 64}
		key := g.GenerateKey("documents", objectID, "")
		assert.True(t, strings.HasPrefix(key, "documents/987fcdeb51a243d19f12345678901234/"))
	})
}

func TestHashedGenerator(t *testing.T) {
	gen := NewHashedGenerator()

	a := gen.GenerateKey("original_images", objectID, "a.png")
	b := gen.GenerateKey("original_images", objectID, "a.png")
	assert.Equal(t, a, b)

	parts := strings.Split(a, "/")
	require.Len(t, parts, 3)
	assert.Equal(t, "original_images", parts[0])
	assert.Len(t, parts[1], 2)
	assert.True(t, strings.HasSuffix(parts[2], "_a.png"))

	assert.NotEqual(t, a, gen.GenerateKey("documents", objectID, "a.png"))
}

func TestCustomFuncGenerator(t *testing.T) {
	gen := NewCustomFuncGenerator(func(collection string, id uuid.UUID, fileName string) string {
		return "custom/" + collection + "/" + fileName
	})
	assert.Equal(t, "custom/documents/x.pdf", gen.GenerateKey("documents", objectID, "x.pdf"))
}

func TestNew(t *testing.T) {
	for _, name := range []string{"", "flat", "sharded", "hashed"} {
		gen, err := New(name)
		require.NoError(t, err, name)
		assert.NotNil(t, gen)
	}

	_, err := New("git")
	assert.Error(t, err)
}
