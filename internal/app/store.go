package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/celerix-dev/guardup-admin/internal/config"
	"github.com/celerix-dev/guardup-admin/internal/engine"
	"github.com/celerix-dev/guardup-admin/internal/firestore"
	"github.com/celerix-dev/guardup-admin/pkg/docstore"
)

// OpenStore opens the configured document store backend.
// The embedded backend loads its data directory; Firestore connects to the project.
func OpenStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (docstore.Store, error) {
	switch cfg.Backend {
	case config.BackendFirestore:
		s, err := firestore.Open(ctx, firestore.Config{
			ProjectID:       cfg.ProjectID,
			CredentialsFile: cfg.CredentialsFile,
		}, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("document store opened", "backend", cfg.Backend, "project_id", cfg.ProjectID)
		return s, nil

	case config.BackendEmbedded:
		p, err := engine.NewPersistence(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("persistence: %w", err)
		}
		ms, err := p.LoadInto()
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", cfg.DataDir, err)
		}
		logger.Info("document store opened", "backend", cfg.Backend, "data_dir", cfg.DataDir,
			"collections", len(ms.Collections()))
		return ms, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
