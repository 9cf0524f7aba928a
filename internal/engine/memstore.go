// Package engine is the embedded document store: an in-memory collection tree
// with optional JSON-file persistence. It runs the same predicate queries as the
// hosted database and is used for local development and in tests.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/celerix-dev/guardup-admin/pkg/docstore"
)

// MemStore is a thread-safe in-memory document store.
type MemStore struct {
	mu sync.RWMutex
	// Structure: [collectionPath][docID]fields
	data      map[string]map[string]map[string]any
	persister *Persistence
	wg        sync.WaitGroup
	now       func() time.Time
}

var _ docstore.Store = (*MemStore)(nil)

// NewMemStore initializes a store.
// It accepts existing data (from LoadAll) and an optional persister.
func NewMemStore(initialData map[string]map[string]map[string]any, p *Persistence) *MemStore {
	if initialData == nil {
		initialData = make(map[string]map[string]map[string]any)
	}
	return &MemStore{
		data:      initialData,
		persister: p,
		now:       time.Now,
	}
}

// SetClock replaces the clock used to resolve server timestamps.
func (m *MemStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Wait waits for all background persistence tasks to complete.
func (m *MemStore) Wait() {
	m.wg.Wait()
}

// --- Interface Implementation ---

func (m *MemStore) Get(_ context.Context, docPath string) (docstore.Document, error) {
	collection, id, err := docstore.SplitDocPath(docPath)
	if err != nil {
		return docstore.Document{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	fields, ok := m.data[collection][id]
	if !ok {
		return docstore.Document{}, fmt.Errorf("%s: %w", docPath, docstore.ErrNotFound)
	}
	return docstore.Document{ID: id, Data: copyFields(fields)}, nil
}

func (m *MemStore) All(_ context.Context, collection string) ([]docstore.Document, error) {
	if !docstore.ValidCollection(collection) {
		return nil, fmt.Errorf("%w: %q", docstore.ErrInvalidPath, collection)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.snapshot(collection), nil
}

func (m *MemStore) Run(_ context.Context, q docstore.Query) ([]docstore.Document, error) {
	if !docstore.ValidCollection(q.Collection) {
		return nil, fmt.Errorf("%w: %q", docstore.ErrInvalidPath, q.Collection)
	}

	m.mu.RLock()
	docs := m.snapshot(q.Collection)
	m.mu.RUnlock()

	return evaluate(docs, q)
}

func (m *MemStore) Set(_ context.Context, docPath string, data map[string]any) error {
	collection, id, err := docstore.SplitDocPath(docPath)
	if err != nil {
		return err
	}

	m.mu.Lock()
	now := m.now().UTC()
	fields := make(map[string]any, len(data))
	for k, v := range data {
		if docstore.IsServerTimestamp(v) {
			v = now
		}
		fields[k] = v
	}

	if m.data[collection] == nil {
		m.data[collection] = make(map[string]map[string]any)
	}
	m.data[collection][id] = fields

	// Deep copy the collection to save safely in background
	current := m.copyCollection(collection)
	var version uint64
	if m.persister != nil {
		version = m.persister.nextVersion(collection)
	}
	m.mu.Unlock()

	if m.persister != nil {
		m.wg.Add(1)
		go func(path string, version uint64, docs map[string]map[string]any) {
			defer m.wg.Done()
			if err := m.persister.SaveVersion(path, version, docs); err != nil {
				slog.Warn("persist collection", slog.String("collection", path), slog.String("error", err.Error()))
			}
		}(collection, version, current)
	}
	return nil
}

// Ping always succeeds; the embedded store has no remote side.
func (m *MemStore) Ping(context.Context) error {
	return nil
}

// Close flushes pending writes.
func (m *MemStore) Close() error {
	m.Wait()
	return nil
}

// Collections returns every collection path that holds at least one document.
func (m *MemStore) Collections() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]string, 0, len(m.data))
	for path, docs := range m.data {
		if len(docs) > 0 {
			list = append(list, path)
		}
	}
	sort.Strings(list)
	return list
}

// snapshot copies a collection into a slice ordered by document ID.
// It MUST be called while holding m.mu.Lock or m.mu.RLock.
func (m *MemStore) snapshot(collection string) []docstore.Document {
	docs := make([]docstore.Document, 0, len(m.data[collection]))
	for id, fields := range m.data[collection] {
		docs = append(docs, docstore.Document{ID: id, Data: copyFields(fields)})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

// copyCollection creates a deep copy of a collection's documents.
// It MUST be called while holding m.mu.Lock or m.mu.RLock.
func (m *MemStore) copyCollection(collection string) map[string]map[string]any {
	original, ok := m.data[collection]
	if !ok {
		return nil
	}

	collectionCopy := make(map[string]map[string]any, len(original))
	for id, fields := range original {
		collectionCopy[id] = copyFields(fields)
	}
	return collectionCopy
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
