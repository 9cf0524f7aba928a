package engine

import (
	"context"
	"fmt"

	"github.com/celerix-dev/guardup-admin/pkg/docstore"
)

// Migrate copies every document of the given collections from src to dst and
// returns the number of documents written. This works for:
// - Embedded -> Firestore (seeding a project from JSON fixtures)
// - Firestore -> Embedded (an offline copy for local development)
func Migrate(ctx context.Context, src docstore.Lister, dst docstore.Writer, collections ...string) (int, error) {
	written := 0
	for _, collection := range collections {
		docs, err := src.All(ctx, collection)
		if err != nil {
			return written, fmt.Errorf("failed to list collection %s: %w", collection, err)
		}

		for _, doc := range docs {
			if err := dst.Set(ctx, collection+"/"+doc.ID, doc.Data); err != nil {
				return written, fmt.Errorf("failed to set %s/%s in destination: %w", collection, doc.ID, err)
			}
			written++
		}
	}

	return written, nil
}
