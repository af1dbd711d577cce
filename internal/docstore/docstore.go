// Package docstore exposes the application's document database as a small
// collection-oriented interface: filtered reads, live snapshot subscriptions,
// single-document writes and array-field mutations.
package docstore

import (
	"context"
	"errors"
)

// Record is a decoded document: its stored fields plus an "id" key.
type Record map[string]any

// ErrNotFound is returned when a document id does not exist in a collection.
var ErrNotFound = errors.New("document not found")

// FieldDelete marks a field for removal when passed as a value to UpdateDoc.
type fieldDelete struct{}

// Delete is the sentinel value that removes a field in UpdateDoc.
// Absent fields are semantically different from zero values (e.g. an unset
// hourly rate), so callers need a way to make a field absent again.
var Delete = fieldDelete{}

// SnapshotFunc receives a full result set. Each call supersedes the previous
// one; there is no diffing.
type SnapshotFunc func(records []Record)

// ErrorFunc receives a subscription error.
type ErrorFunc func(err error)

// Store is the document store consumed by the query cache, the live
// subscription manager and the repositories.
type Store interface {
	// GetDocs runs a one-shot query and returns matching records in store order.
	GetDocs(ctx context.Context, q *Query) ([]Record, error)

	// GetDoc fetches a single document by id.
	GetDoc(ctx context.Context, collection, id string) (Record, error)

	// OnSnapshot establishes a live subscription for q. The initial result set
	// and every subsequent change produce a full snapshot delivered to onNext.
	// Errors on the feed go to onError and end the subscription. The returned
	// function cancels the subscription; calling it more than once is a no-op.
	OnSnapshot(ctx context.Context, q *Query, onNext SnapshotFunc, onError ErrorFunc) (func(), error)

	// AddDoc creates a document with a store-assigned id and returns the id.
	AddDoc(ctx context.Context, collection string, data map[string]any) (string, error)

	// SetDoc creates or replaces a document under an explicit id.
	SetDoc(ctx context.Context, collection, id string, data map[string]any) error

	// UpdateDoc merges fields into an existing document. A field whose value
	// is the Delete sentinel is removed.
	UpdateDoc(ctx context.Context, collection, id string, fields map[string]any) error

	// DeleteDoc removes a document. Deleting a missing document is an error.
	DeleteDoc(ctx context.Context, collection, id string) error

	// ArrayUnion appends value to an array field if not already present.
	ArrayUnion(ctx context.Context, collection, id, field string, value any) error

	// ArrayRemove removes every occurrence of value from an array field.
	ArrayRemove(ctx context.Context, collection, id, field string, value any) error

	// RunTransaction executes fn against a transactional view of the store.
	// Change-feed notifications for writes made inside fn are deferred until
	// the transaction commits.
	RunTransaction(ctx context.Context, fn func(tx Store) error) error
}
