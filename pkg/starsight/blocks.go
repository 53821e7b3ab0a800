package starsight

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// BlockKind names a content block variant. Values are the stored type names.
type BlockKind string

const (
	BlockRichText      BlockKind = "article_rich_text_block"
	BlockDetailedImage BlockKind = "detailed_image_block"
	BlockReferences    BlockKind = "references_block"
)

// BlockValue is the payload of a content block. The set of implementations
// is closed: RichTextBlock, DetailedImageBlock and ReferencesBlock.
type BlockValue interface {
	BlockKind() BlockKind
}

// RichTextBlock holds rich text in its stored form; internal links and
// image embeds are expanded at serialization time.
type RichTextBlock struct {
	Source string
}

func (RichTextBlock) BlockKind() BlockKind { return BlockRichText }

// DetailedImageBlock is an image with a title, alt text and caption.
type DetailedImageBlock struct {
	Title    string `json:"title" validate:"max=70"`
	ImageID  int64  `json:"image" validate:"required"`
	ImageAlt string `json:"image_alt" validate:"required,max=125"`
	Caption  string `json:"caption" validate:"max=150"`
}

func (DetailedImageBlock) BlockKind() BlockKind { return BlockDetailedImage }

// Reference is a single bibliography entry.
type Reference struct {
	Reference string `json:"reference" validate:"required"`
	URL       string `json:"url,omitempty" validate:"omitempty,url"`
}

// ReferencesBlock is an ordered list of references.
type ReferencesBlock struct {
	References []Reference `json:"references" validate:"dive"`
}

func (ReferencesBlock) BlockKind() BlockKind { return BlockReferences }

// Block is one element of a content stream.
type Block struct {
	ID    string
	Value BlockValue
}

// NewBlock wraps v with a fresh block id.
func NewBlock(v BlockValue) Block {
	return Block{ID: uuid.NewString(), Value: v}
}

// StreamValue is an ordered sequence of blocks.
type StreamValue []Block

type blockJSON struct {
	Type  BlockKind       `json:"type"`
	Value json.RawMessage `json:"value"`
	ID    string          `json:"id"`
}

type blockSpec struct {
	decode  func(json.RawMessage) (BlockValue, error)
	encode  func(BlockValue) (any, error)
	project func(ctx context.Context, s *Serializer, v BlockValue) (any, error)
}

// blockRegistry binds each block kind to its codec and API projection.
var blockRegistry = map[BlockKind]blockSpec{
	BlockRichText: {
		decode: func(raw json.RawMessage) (BlockValue, error) {
			var src string
			if err := json.Unmarshal(raw, &src); err != nil {
				return nil, err
			}
			return RichTextBlock{Source: src}, nil
		},
		encode: func(v BlockValue) (any, error) {
			return v.(RichTextBlock).Source, nil
		},
		project: func(ctx context.Context, s *Serializer, v BlockValue) (any, error) {
			return s.RenderRichText(ctx, v.(RichTextBlock).Source)
		},
	},
	BlockDetailedImage: {
		decode: decodeStruct[DetailedImageBlock],
		encode: func(v BlockValue) (any, error) { return v, nil },
		project: func(ctx context.Context, s *Serializer, v BlockValue) (any, error) {
			b := v.(DetailedImageBlock)
			id := b.ImageID
			url, err := s.ImageURL(ctx, &id)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"title":   b.Title,
				"image":   url,
				"alt":     b.ImageAlt,
				"caption": b.Caption,
			}, nil
		},
	},
	BlockReferences: {
		decode: decodeStruct[ReferencesBlock],
		encode: func(v BlockValue) (any, error) { return v, nil },
		project: func(_ context.Context, _ *Serializer, v BlockValue) (any, error) {
			b := v.(ReferencesBlock)
			if b.References == nil {
				b.References = []Reference{}
			}
			return b, nil
		},
	},
}

func decodeStruct[T BlockValue](raw json.RawMessage) (BlockValue, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func lookupBlock(kind BlockKind) (blockSpec, error) {
	entry, ok := blockRegistry[kind]
	if !ok {
		return blockSpec{}, fmt.Errorf("%w: %q", ErrUnknownBlockType, kind)
	}
	return entry, nil
}

// MarshalJSON encodes the block in its stored {type, value, id} form.
func (b Block) MarshalJSON() ([]byte, error) {
	if b.Value == nil {
		return nil, fmt.Errorf("block %s: %w: nil value", b.ID, ErrUnknownBlockType)
	}
	entry, err := lookupBlock(b.Value.BlockKind())
	if err != nil {
		return nil, err
	}
	v, err := entry.encode(b.Value)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(blockJSON{Type: b.Value.BlockKind(), Value: raw, ID: b.ID})
}

// UnmarshalJSON decodes a stored {type, value, id} block.
func (b *Block) UnmarshalJSON(data []byte) error {
	var bj blockJSON
	if err := json.Unmarshal(data, &bj); err != nil {
		return err
	}
	entry, err := lookupBlock(bj.Type)
	if err != nil {
		return err
	}
	v, err := entry.decode(bj.Value)
	if err != nil {
		return fmt.Errorf("decode %s block: %w", bj.Type, err)
	}
	b.ID = bj.ID
	b.Value = v
	return nil
}
