// Package firestore implements docstore.Store on Cloud Firestore.
//
// The client honours FIRESTORE_EMULATOR_HOST, so the same code runs against
// the local emulator.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/celerix-dev/guardup-admin/pkg/docstore"
)

// Config identifies the Firestore project.
type Config struct {
	ProjectID string
	// CredentialsFile is a service-account JSON key. Empty means
	// application default credentials.
	CredentialsFile string
}

// Store is a docstore.Store backed by a Firestore client.
type Store struct {
	client *firestore.Client
	logger *slog.Logger
}

var _ docstore.Store = (*Store)(nil)

// Open creates a Firestore client for cfg.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}

	return &Store{client: client, logger: logger.With("store", "firestore")}, nil
}

func (s *Store) Get(ctx context.Context, docPath string) (docstore.Document, error) {
	if _, _, err := docstore.SplitDocPath(docPath); err != nil {
		return docstore.Document{}, err
	}

	snap, err := s.client.Doc(docPath).Get(ctx)
	if err != nil {
		return docstore.Document{}, mapError(docPath, err)
	}
	return toDocument(snap), nil
}

func (s *Store) All(ctx context.Context, collection string) ([]docstore.Document, error) {
	if !docstore.ValidCollection(collection) {
		return nil, fmt.Errorf("%w: %q", docstore.ErrInvalidPath, collection)
	}
	return s.collect(ctx, collection, s.client.Collection(collection).Documents(ctx))
}

func (s *Store) Run(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	if !docstore.ValidCollection(q.Collection) {
		return nil, fmt.Errorf("%w: %q", docstore.ErrInvalidPath, q.Collection)
	}

	fq, err := buildQuery(s.client.Collection(q.Collection).Query, q)
	if err != nil {
		return nil, err
	}
	return s.collect(ctx, q.String(), fq.Documents(ctx))
}

func (s *Store) Set(ctx context.Context, docPath string, data map[string]any) error {
	if _, _, err := docstore.SplitDocPath(docPath); err != nil {
		return err
	}

	if _, err := s.client.Doc(docPath).Set(ctx, toFirestore(data)); err != nil {
		return mapError(docPath, err)
	}
	return nil
}

// Ping lists at most one top-level collection. An empty database is healthy.
func (s *Store) Ping(ctx context.Context) error {
	it := s.client.Collections(ctx)
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return mapError("ping", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) collect(ctx context.Context, what string, it *firestore.DocumentIterator) ([]docstore.Document, error) {
	defer it.Stop()

	snaps, err := it.GetAll()
	if err != nil {
		return nil, mapError(what, err)
	}

	out := make([]docstore.Document, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, toDocument(snap))
	}
	s.logger.DebugContext(ctx, "documents read", "source", what, "count", len(out))
	return out, nil
}

// --- Conversion ---

func buildQuery(base firestore.Query, q docstore.Query) (firestore.Query, error) {
	fq := base
	for _, f := range q.Filters {
		switch f.Op {
		case docstore.OpEqual, docstore.OpGreaterOrEqual, docstore.OpLessOrEqual:
		default:
			return fq, fmt.Errorf("unsupported operator %q on %s", f.Op, f.Field)
		}
		fq = fq.Where(f.Field, string(f.Op), f.Value)
	}
	for _, o := range q.Orders {
		fq = fq.OrderBy(o.Field, direction(o.Direction))
	}
	return fq, nil
}

func direction(d docstore.Direction) firestore.Direction {
	if d == docstore.Desc {
		return firestore.Desc
	}
	return firestore.Asc
}

func toDocument(snap *firestore.DocumentSnapshot) docstore.Document {
	return docstore.Document{ID: snap.Ref.ID, Data: snap.Data()}
}

// toFirestore replaces the docstore server-timestamp sentinel with Firestore's.
func toFirestore(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if docstore.IsServerTimestamp(v) {
			v = firestore.ServerTimestamp
		}
		out[k] = v
	}
	return out
}

// mapError keeps the gRPC status in the chain and adds the docstore sentinel
// for NotFound.
func mapError(what string, err error) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s: %w: %w", what, docstore.ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}
