// Package entries implements the Entries view: filtered access-log queries
// and the per-operator view state that refetches on every filter change.
package entries

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/celerix-dev/guardup-admin/internal/query"
	"github.com/celerix-dev/guardup-admin/pkg/docstore"
	"github.com/celerix-dev/guardup-admin/pkg/schema"
)

// Fetcher runs the entry query for a filter state.
type Fetcher interface {
	Fetch(ctx context.Context, f query.Filters) ([]schema.Entry, error)
}

// Service derives entry queries and runs them against the store.
type Service struct {
	store  docstore.QueryRunner
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates a Service. Dates in filters are interpreted in loc.
func NewService(store docstore.QueryRunner, loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		store:  store,
		loc:    loc,
		now:    time.Now,
		logger: logger.With("service", "entries"),
	}
}

// SetClock overrides the time source used for the recency window.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Location returns the time zone filters are interpreted in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Fetch derives the query for f, runs it and maps every document to an Entry.
func (s *Service) Fetch(ctx context.Context, f query.Filters) ([]schema.Entry, error) {
	q := query.Derive(f, s.now(), s.loc)

	docs, err := s.store.Run(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", q, err)
	}

	out := make([]schema.Entry, 0, len(docs))
	for _, doc := range docs {
		e, err := schema.EntryFromDocument(doc)
		if err != nil {
			return nil, fmt.Errorf("decode entry %s: %w", doc.ID, err)
		}
		out = append(out, e)
	}

	s.logger.Debug("entries fetched", "query", q.String(), "count", len(out))
	return out, nil
}
