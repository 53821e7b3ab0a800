// Package starsight provides the content model and read services behind the
// starsight content API: a small page tree (home page, article listing,
// article detail pages), snippets (topics, authors, navigations) and binary
// assets (images, documents).
//
// The Service interface orchestrates lookups against a pluggable Repository
// and BlobStore. Implementations live under subpackages (repo/memory,
// repo/postgres, storage/memory, storage/fs, storage/s3).
//
// Lookup
//
// Detail endpoints accept either a numeric id or a slug. Page slugs are only
// unique among siblings, so a slug can match several records; Resolve reports
// that case as an *AmbiguousSlugError and callers redirect to a listing
// filtered by the slug instead of failing.
//
// Serialization
//
// Serializer projects records into JSON-ready values. Content blocks are
// dispatched through an explicit BlockKind registry (see blocks.go) rather
// than reflection.
package starsight
