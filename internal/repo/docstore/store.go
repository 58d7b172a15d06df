// Package docstore defines the document store contract shared by the Cloudant
// gateway and the MongoDB backend.
package docstore

import (
	"context"
	"fmt"

	"github.com/nguyentranbao-ct/meritflow/internal/models"
)

// Document is a schemaless stored record. The "_id" key holds its store key.
type Document = map[string]any

type Store interface {
	// Find runs a selector query against collection.
	Find(ctx context.Context, collection string, q Query) (*ResultSet, error)
	// Upsert creates or replaces the document stored at id.
	Upsert(ctx context.Context, collection, id string, doc Document, opts ...UpsertOption) (*WriteResult, error)
	// Revision returns the current revision of id, or ErrNotFound.
	Revision(ctx context.Context, collection, id string) (string, error)
	// Ping lists the databases visible to the current credential.
	Ping(ctx context.Context) ([]string, error)
}

type ResultSet struct {
	Docs     []Document `json:"docs"`
	Bookmark string     `json:"bookmark,omitempty"`
	Warning  string     `json:"warning,omitempty"`
}

type WriteResult struct {
	ID       string `json:"id"`
	Revision string `json:"rev,omitempty"`
	Status   int    `json:"-"`
}

var ErrNotFound = models.ErrNotFound

// QueryError carries a non-200 query response verbatim.
type QueryError struct {
	Status int
	Body   string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("docstore query failed: status %d: %s", e.Status, e.Body)
}

// WriteError carries a rejected write verbatim. A 409 means the document
// changed since the given revision.
type WriteError struct {
	Status int
	Body   string
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("docstore write failed: status %d: %s", e.Status, e.Body)
}

func (e *WriteError) Is(target error) bool {
	return target == models.ErrConflict && e.Status == 409
}

type upsertOptions struct {
	revision string
}

type UpsertOption func(*upsertOptions)

// WithRevision makes the write conditional on the stored document still being
// at rev.
func WithRevision(rev string) UpsertOption {
	return func(o *upsertOptions) {
		o.revision = rev
	}
}

// ApplyUpsertOptions resolves opts for Store implementations.
func ApplyUpsertOptions(opts ...UpsertOption) (revision string) {
	o := &upsertOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o.revision
}
