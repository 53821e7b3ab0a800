package objectkey

import (
	"crypto/sha256"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Generator defines the interface for object key generation strategies.
// It satisfies starsight.KeyGenerator.
type Generator interface {
	// GenerateKey creates an object key for storage backends
	GenerateKey(collection string, objectID uuid.UUID, fileName string) string
}

// FlatGenerator keeps one directory per upload:
// {collection}/{objectID}/{filename}
type FlatGenerator struct{}

func NewFlatGenerator() *FlatGenerator {
	return &FlatGenerator{}
}

func (g *FlatGenerator) GenerateKey(collection string, objectID uuid.UUID, fileName string) string {
	collection = sanitizePathComponent(collection)
	if fileName == "" {
		return fmt.Sprintf("%s/%s", collection, objectID)
	}
	return fmt.Sprintf("%s/%s/%s", collection, objectID, sanitizeFilename(path.Base(fileName)))
}

// ShardedGenerator provides Git-style sharded storage
// {collection}/ab/cd1234ef5678_filename
type ShardedGenerator struct {
	// ShardLength controls how many characters to use for sharding (default: 2)
	ShardLength int
}

func NewShardedGenerator() *ShardedGenerator {
	return &ShardedGenerator{
		ShardLength: 2,
	}
}

func (g *ShardedGenerator) GenerateKey(collection string, objectID uuid.UUID, fileName string) string {
	id := strings.ReplaceAll(objectID.String(), "-", "")
	return shardedKey(collection, id, g.shardLength(len(id)), fileName)
}

func (g *ShardedGenerator) shardLength(limit int) int {
	n := g.ShardLength
	if n <= 0 {
		n = 2
	}
	if n > limit {
		n = limit
	}
	return n
}

// HashedGenerator shards on a hash of the collection and object id, for
// deterministic keys across backends.
type HashedGenerator struct {
	ShardLength int
}

func NewHashedGenerator() *HashedGenerator {
	return &HashedGenerator{
		ShardLength: 2,
	}
}

func (g *HashedGenerator) GenerateKey(collection string, objectID uuid.UUID, fileName string) string {
	hash := sha256.Sum256([]byte(collection + objectID.String()))
	hashStr := fmt.Sprintf("%x", hash)[:16]

	n := g.ShardLength
	if n <= 0 || n >= len(hashStr) {
		n = 2
	}
	return shardedKey(collection, hashStr, n, fileName)
}

func shardedKey(collection, id string, shard int, fileName string) string {
	name := id[shard:]
	if fileName != "" {
		name = fmt.Sprintf("%s_%s", name, sanitizeFilename(path.Base(fileName)))
	}
	return fmt.Sprintf("%s/%s/%s", sanitizePathComponent(collection), id[:shard], name)
}

// CustomFuncGenerator allows users to provide their own key generation function
type CustomFuncGenerator struct {
	GenerateFunc func(collection string, objectID uuid.UUID, fileName string) string
}

func NewCustomFuncGenerator(fn func(collection string, objectID uuid.UUID, fileName string) string) *CustomFuncGenerator {
	return &CustomFuncGenerator{
		GenerateFunc: fn,
	}
}

func (g *CustomFuncGenerator) GenerateKey(collection string, objectID uuid.UUID, fileName string) string {
	return g.GenerateFunc(collection, objectID, fileName)
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "_",
	"#", "_",
	"%", "_",
)

func sanitizeFilename(filename string) string {
	return filenameReplacer.Replace(filename)
}

func sanitizePathComponent(component string) string {
	return strings.ToLower(filenameReplacer.Replace(component))
}

// New returns the generator registered under name: "flat" (default),
// "sharded" or "hashed".
func New(name string) (Generator, error) {
	switch name {
	case "", "flat":
		return NewFlatGenerator(), nil
	case "sharded":
		return NewShardedGenerator(), nil
	case "hashed":
		return NewHashedGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown object key generator: %s", name)
	}
}
