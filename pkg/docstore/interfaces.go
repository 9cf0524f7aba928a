// Package docstore defines the backend-neutral contract for the hosted document
// database the dashboard reads from and writes notifications to.
// Both the Firestore client and the embedded engine implement it.
package docstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a requested document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidPath is returned for a malformed collection or document path.
	ErrInvalidPath = errors.New("invalid document path")
)

// --- Functional Interfaces (Interface Segregation) ---

// Getter reads a single document by its slash-separated path ("users/u1").
type Getter interface {
	Get(ctx context.Context, docPath string) (Document, error)
}

// Lister returns every document of a collection, unfiltered.
type Lister interface {
	All(ctx context.Context, collection string) ([]Document, error)
}

// QueryRunner executes a composed predicate query.
type QueryRunner interface {
	Run(ctx context.Context, q Query) ([]Document, error)
}

// Writer creates or replaces a document at a slash-separated path.
// Values equal to ServerTimestamp are resolved by the backend clock.
type Writer interface {
	Set(ctx context.Context, docPath string, data map[string]any) error
}

// Pinger checks that the backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// --- Composite Interfaces ---

// Reader combines the read paths used by the list views.
type Reader interface {
	Getter
	Lister
	QueryRunner
}

// Store is the complete document store handle held by the application.
type Store interface {
	Reader
	Writer
	Pinger

	Close() error
}
