package starsight

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error types
var (
	// ErrNotFound is the parent of every "record does not exist" error
	ErrNotFound = errors.New("not found")

	// ErrPageNotFound indicates a page was not found
	ErrPageNotFound = fmt.Errorf("page %w", ErrNotFound)

	// ErrNavigationNotFound indicates a navigation was not found
	ErrNavigationNotFound = fmt.Errorf("navigation %w", ErrNotFound)

	// ErrTopicNotFound indicates a topic was not found
	ErrTopicNotFound = fmt.Errorf("topic %w", ErrNotFound)

	// ErrAuthorNotFound indicates an author was not found
	ErrAuthorNotFound = fmt.Errorf("author %w", ErrNotFound)

	// ErrImageNotFound indicates an image was not found
	ErrImageNotFound = fmt.Errorf("image %w", ErrNotFound)

	// ErrDocumentNotFound indicates a document was not found
	ErrDocumentNotFound = fmt.Errorf("document %w", ErrNotFound)

	// ErrObjectNotFound indicates a blob was not found in storage
	ErrObjectNotFound = fmt.Errorf("object %w", ErrNotFound)

	// ErrAmbiguousSlug indicates a slug lookup matched more than one record
	ErrAmbiguousSlug = errors.New("slug matches more than one record")

	// ErrInvalidLookup indicates a detail key that is neither an id nor a slug
	ErrInvalidLookup = errors.New("lookup key must be a numeric id or a slug")

	// ErrInvalidFilter indicates a malformed listing filter value
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrDuplicateSlug indicates a slug collides within its uniqueness scope
	ErrDuplicateSlug = errors.New("slug already in use")

	// ErrPageTypeNotAllowed indicates a page kind cannot be created under the requested parent
	ErrPageTypeNotAllowed = errors.New("page type not allowed here")

	// ErrMaxCountReached indicates a singleton page kind already exists
	ErrMaxCountReached = errors.New("maximum number of pages of this type reached")

	// ErrUnknownPageType indicates an unrecognized page type name
	ErrUnknownPageType = errors.New("unknown page type")

	// ErrUnknownBlockType indicates an unrecognized content block type
	ErrUnknownBlockType = errors.New("unknown block type")

	// ErrStorageBackendNotFound indicates a storage backend was not found
	ErrStorageBackendNotFound = errors.New("storage backend not found")
)

// AmbiguousSlugError reports a slug lookup that matched Count records.
type AmbiguousSlugError struct {
	Slug  string
	Count int
}

func (e *AmbiguousSlugError) Error() string {
	return fmt.Sprintf("slug %q matches %d records", e.Slug, e.Count)
}

func (e *AmbiguousSlugError) Unwrap() error {
	return ErrAmbiguousSlug
}

// PageError represents an error related to page operations
type PageError struct {
	PageID int64
	Op     string
	Err    error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page operation %s failed for page %d: %v", e.Op, e.PageID, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// SnippetError represents an error related to topic, author or navigation operations
type SnippetError struct {
	Kind string
	Slug string
	Op   string
	Err  error
}

func (e *SnippetError) Error() string {
	return fmt.Sprintf("%s operation %s failed for %q: %v", e.Kind, e.Op, e.Slug, e.Err)
}

func (e *SnippetError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to storage operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ValidationError maps field names to human readable problems.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a problem for field, keeping the first message per field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// OrNil returns e when it holds at least one problem.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}
