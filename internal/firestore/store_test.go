package firestore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/celerix-dev/guardup-admin/pkg/docstore"
)

func TestMapError(t *testing.T) {
	notFound := mapError("users/u1", status.Error(codes.NotFound, "no document"))
	assert.ErrorIs(t, notFound, docstore.ErrNotFound)
	assert.Equal(t, codes.NotFound, status.Code(notFound))
	assert.Contains(t, notFound.Error(), "users/u1")

	denied := mapError("entries", status.Error(codes.PermissionDenied, "missing or insufficient permissions"))
	assert.NotErrorIs(t, denied, docstore.ErrNotFound)
	assert.Equal(t, codes.PermissionDenied, status.Code(denied))

	plain := mapError("ping", errors.New("dial tcp: refused"))
	assert.NotErrorIs(t, plain, docstore.ErrNotFound)
}

func TestToFirestore(t *testing.T) {
	in := map[string]any{
		"message":   "hello",
		"timestamp": docstore.ServerTimestamp,
		"isRead":    false,
	}
	out := toFirestore(in)

	assert.Equal(t, firestore.ServerTimestamp, out["timestamp"])
	assert.Equal(t, "hello", out["message"])
	assert.Equal(t, false, out["isRead"])
	assert.True(t, docstore.IsServerTimestamp(in["timestamp"]), "input must not be modified")
}

func TestDirection(t *testing.T) {
	assert.Equal(t, firestore.Desc, direction(docstore.Desc))
	assert.Equal(t, firestore.Asc, direction(docstore.Asc))
}

func TestBuildQuery_UnsupportedOperator(t *testing.T) {
	q := docstore.NewQuery("entries").Where("timestamp", docstore.Op(">"), time.Now())
	_, err := buildQuery(firestore.Query{}, q)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported operator")
}

// TestEmulator runs against a local Firestore emulator when FIRESTORE_EMULATOR_HOST is set.
func TestEmulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	ctx := context.Background()
	s, err := Open(ctx, Config{ProjectID: "guardup-test"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	require.NoError(t, s.Ping(ctx))

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, s.Set(ctx, "entries/emu-1", map[string]any{"userEmail": "u1", "buildingCode": "A", "timestamp": now}))
	require.NoError(t, s.Set(ctx, "entries/emu-2", map[string]any{"userEmail": "u2", "buildingCode": "A", "timestamp": now.Add(-time.Hour)}))

	docs, err := s.Run(ctx, docstore.NewQuery("entries").
		Where("buildingCode", docstore.OpEqual, "A").
		Where("timestamp", docstore.OpGreaterOrEqual, now.Add(-2*time.Hour)).
		OrderBy("timestamp", docstore.Desc))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(docs), 2)
	assert.Equal(t, "emu-1", docs[0].ID)

	require.NoError(t, s.Set(ctx, "users/emu-u/notifications/1", map[string]any{
		"message":   "hello",
		"timestamp": docstore.ServerTimestamp,
		"isRead":    false,
	}))
	doc, err := s.Get(ctx, "users/emu-u/notifications/1")
	require.NoError(t, err)
	assert.IsType(t, time.Time{}, doc.Data["timestamp"])

	_, err = s.Get(ctx, "users/does-not-exist")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}
