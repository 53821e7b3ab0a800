package starsight

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamValue_JSON(t *testing.T) {
	stream := StreamValue{
		{ID: "b1", Value: RichTextBlock{Source: "<p>Hello</p>"}},
		{ID: "b2", Value: DetailedImageBlock{Title: "Ice", ImageID: 4, ImageAlt: "Sea ice", Caption: "Svalbard"}},
		{ID: "b3", Value: ReferencesBlock{References: []Reference{{Reference: "IPCC 2023", URL: "https://ipcc.ch"}}}},
	}

	raw, err := json.Marshal(stream)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"type": "article_rich_text_block", "value": "<p>Hello</p>", "id": "b1"},
		{"type": "detailed_image_block", "value": {"title": "Ice", "image": 4, "image_alt": "Sea ice", "caption": "Svalbard"}, "id": "b2"},
		{"type": "references_block", "value": {"references": [{"reference": "IPCC 2023", "url": "https://ipcc.ch"}]}, "id": "b3"}
	]`, string(raw))

	var decoded StreamValue
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, stream, decoded)
}

func TestBlock_UnknownType(t *testing.T) {
	var b Block
	err := json.Unmarshal([]byte(`{"type": "embed_block", "value": {}, "id": "x"}`), &b)
	assert.ErrorIs(t, err, ErrUnknownBlockType)

	_, err = json.Marshal(Block{ID: "empty"})
	assert.ErrorIs(t, err, ErrUnknownBlockType)
}

func TestBlock_MalformedValue(t *testing.T) {
	var b Block
	err := json.Unmarshal([]byte(`{"type": "detailed_image_block", "value": "not an object", "id": "x"}`), &b)
	assert.Error(t, err)
}

func TestNewBlock(t *testing.T) {
	a := NewBlock(RichTextBlock{Source: "<p>a</p>"})
	b := NewBlock(RichTextBlock{Source: "<p>a</p>"})
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, BlockRichText, a.Value.BlockKind())
}
