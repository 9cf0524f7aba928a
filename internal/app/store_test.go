package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celerix-dev/guardup-admin/internal/config"
	"github.com/celerix-dev/guardup-admin/internal/query"
	"github.com/celerix-dev/guardup-admin/pkg/schema"
)

func TestOpenStore_Embedded(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	dir := t.TempDir()
	cfg := config.StoreConfig{Backend: config.BackendEmbedded, DataDir: dir}

	s, err := OpenStore(ctx, cfg, logger)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "users/u1", map[string]any{"name": "Ana", "email": "ana@example.com"}))
	require.NoError(t, s.Close())

	reopened, err := OpenStore(ctx, cfg, logger)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	svc := NewServices(reopened, config.DashboardConfig{
		Location:            time.UTC,
		NotificationMessage: config.DefaultNotificationMessage,
	}, logger, nil)

	list, err := svc.Users.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []schema.User{{ID: "u1", Name: "Ana", Email: "ana@example.com"}}, list)

	got, err := svc.Entries.Fetch(ctx, query.Filters{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	_, err := OpenStore(context.Background(), config.StoreConfig{Backend: "redis"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
