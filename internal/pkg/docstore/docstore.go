package docstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get and Remove when no document has the id.
var ErrNotFound = errors.New("document not found")

// Document is a schemaless record stored as one JSON object.
type Document map[string]any

// Store is a minimal document database: collections of JSON documents with
// store-assigned ids and an order-by-field listing.
type Store interface {
	// Create persists the document in the collection and returns the id the
	// store assigned. The id is also written into the stored document under
	// the "id" key and is immutable thereafter.
	Create(ctx context.Context, collection string, doc Document) (string, error)

	// Get returns the document with the given id, or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)

	// List returns every document in the collection ordered ascending by
	// the given field's value.
	List(ctx context.Context, collection, orderByField string) ([]Document, error)

	// Remove deletes the document. Removing an absent id is ErrNotFound.
	Remove(ctx context.Context, collection, id string) error
}
