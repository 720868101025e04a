// Package docstore exposes a small document-oriented client over PostgreSQL.
// Collections are logical names inside a single documents table; subscribers
// receive whole-collection snapshots, never diffs.
package docstore

import (
	"context"
	"errors"
)

// Document is one stored record: an opaque id plus its decoded JSON body.
type Document struct {
	ID   string
	Data map[string]any
}

// SnapshotFunc receives the complete current state of a collection.
type SnapshotFunc func(docs []Document)

// ErrorFunc receives subscription errors. The subscription itself keeps
// running; callers decide what to surface.
type ErrorFunc func(err error)

// ErrNotFound indicates the referenced document does not exist.
var ErrNotFound = errors.New("docstore: document not found")

// Store is the contract the catalog and admin layers are built on.
type Store interface {
	// List reads the full collection.
	List(ctx context.Context, collection string) ([]Document, error)
	// Create inserts a new document and returns its store-assigned id.
	Create(ctx context.Context, collection string, data map[string]any) (string, error)
	// Update merges the given fields over the stored document.
	Update(ctx context.Context, collection, id string, data map[string]any) error
	// Delete removes a document.
	Delete(ctx context.Context, collection, id string) error
	// Subscribe emits the current snapshot and then a fresh snapshot after
	// every observed change. The returned function releases the subscription
	// and is safe to call more than once.
	Subscribe(ctx context.Context, collection string, onData SnapshotFunc, onError ErrorFunc) (func(), error)
}
