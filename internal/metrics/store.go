package metrics

import (
	"context"
	"strings"
	"time"

	"github.com/celerix-dev/guardup-admin/pkg/docstore"
)

type instrumentedStore struct {
	next docstore.Store
	m    *Metrics
}

// InstrumentStore wraps s so every operation is counted and timed.
func InstrumentStore(s docstore.Store, m *Metrics) docstore.Store {
	return &instrumentedStore{next: s, m: m}
}

func (s *instrumentedStore) observe(op, path string, start time.Time, err error) {
	s.m.StoreDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	s.m.StoreOperations.WithLabelValues(op, collectionLabel(path), outcome(err)).Inc()
}

func (s *instrumentedStore) Get(ctx context.Context, docPath string) (docstore.Document, error) {
	start := time.Now()
	doc, err := s.next.Get(ctx, docPath)
	s.observe("get", docPath, start, err)
	return doc, err
}

func (s *instrumentedStore) All(ctx context.Context, collection string) ([]docstore.Document, error) {
	start := time.Now()
	docs, err := s.next.All(ctx, collection)
	s.observe("all", collection, start, err)
	return docs, err
}

func (s *instrumentedStore) Run(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	start := time.Now()
	docs, err := s.next.Run(ctx, q)
	s.observe("run", q.Collection, start, err)
	return docs, err
}

func (s *instrumentedStore) Set(ctx context.Context, docPath string, data map[string]any) error {
	start := time.Now()
	err := s.next.Set(ctx, docPath, data)
	s.observe("set", docPath, start, err)
	return err
}

func (s *instrumentedStore) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.next.Ping(ctx)
	s.observe("ping", "", start, err)
	return err
}

func (s *instrumentedStore) Close() error {
	return s.next.Close()
}

// collectionLabel keeps only the collection segments of a path so document
// IDs never become label values: "users/u1/notifications/17" -> "users/notifications".
func collectionLabel(path string) string {
	if path == "" {
		return "none"
	}
	parts := strings.Split(path, "/")
	names := make([]string, 0, (len(parts)+1)/2)
	for i := 0; i < len(parts); i += 2 {
		names = append(names, parts[i])
	}
	return strings.Join(names, "/")
}
