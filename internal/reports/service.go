// Package reports implements the read-only Reports view.
package reports

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/celerix-dev/guardup-admin/pkg/docstore"
	"github.com/celerix-dev/guardup-admin/pkg/schema"
)

// Service lists health reports.
type Service struct {
	store  docstore.Lister
	logger *slog.Logger
}

func NewService(store docstore.Lister, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger.With("service", "reports")}
}

// List returns every report, unfiltered.
func (s *Service) List(ctx context.Context) ([]schema.Report, error) {
	docs, err := s.store.All(ctx, schema.CollectionReports)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	out := make([]schema.Report, 0, len(docs))
	for _, doc := range docs {
		r, err := schema.ReportFromDocument(doc)
		if err != nil {
			return nil, fmt.Errorf("decode report %s: %w", doc.ID, err)
		}
		out = append(out, r)
	}

	s.logger.Debug("reports fetched", "count", len(out))
	return out, nil
}

// YesNo renders a report flag for display.
func YesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
