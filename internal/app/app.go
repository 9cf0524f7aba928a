// Package app assembles the dashboard from configuration: store, services,
// sessions, metrics and the HTTP server.
package app

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/celerix-dev/guardup-admin/internal/api"
	"github.com/celerix-dev/guardup-admin/internal/config"
	"github.com/celerix-dev/guardup-admin/internal/entries"
	"github.com/celerix-dev/guardup-admin/internal/metrics"
	"github.com/celerix-dev/guardup-admin/internal/reports"
	"github.com/celerix-dev/guardup-admin/internal/session"
	"github.com/celerix-dev/guardup-admin/internal/users"
	"github.com/celerix-dev/guardup-admin/internal/vault"
	"github.com/celerix-dev/guardup-admin/pkg/docstore"
)

const sessionSweepInterval = time.Minute

// Services are the three dashboard views over one store.
type Services struct {
	Users   *users.Service
	Entries *entries.Service
	Reports *reports.Service
}

// NewServices builds the view services. m may be nil.
func NewServices(store docstore.Store, cfg config.DashboardConfig, logger *slog.Logger, m *metrics.Metrics) Services {
	var rec users.Recorder
	if m != nil {
		rec = m
	}
	return Services{
		Users:   users.NewService(store, cfg.NotificationMessage, logger, rec),
		Entries: entries.NewService(store, cfg.Location, logger),
		Reports: reports.NewService(store, logger),
	}
}

// Run serves the dashboard until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("close store", "error", err)
		}
	}()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(reg)
		store = metrics.InstrumentStore(store, m)
	}

	svc := NewServices(store, cfg.Dashboard, logger, m)

	var stale entries.Recorder
	if m != nil {
		stale = m
	}
	sessions := session.NewRegistry(cfg.Dashboard.SessionTTL, func() *entries.View {
		return entries.NewView(svc.Entries, logger, stale)
	}, logger)
	defer sessions.Close()
	go sessions.Run(ctx, sessionSweepInterval)

	if m != nil {
		m.GaugeFunc("sessions", "active", "Operator sessions currently held in memory",
			func() float64 { return float64(sessions.Len()) })
	}

	key := cfg.Dashboard.SessionKeyBytes
	if key == nil {
		if key, err = vault.NewKey(); err != nil {
			return err
		}
		logger.Warn("no session key configured; sessions will not survive a restart")
	}
	codec, err := session.NewCodec(key)
	if err != nil {
		return err
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router, err := api.NewRouter(&api.Handler{
		Users:    svc.Users,
		Reports:  svc.Reports,
		Entries:  svc.Entries,
		Sessions: sessions,
		Codec:    codec,
		Store:    store,
		Location: cfg.Dashboard.Location,
		Version:  Version,
		Logger:   logger,
	}, api.RouterOptions{Metrics: m, MetricsPath: cfg.Metrics.Path})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	if cfg.Server.TLSSelfSigned {
		cert, err := vault.GenerateSelfSignedCert(cfg.Server.Host)
		if err != nil {
			return fmt.Errorf("tls certificate: %w", err)
		}
		srv.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr, "tls", srv.TLSConfig != nil)
		var err error
		if srv.TLSConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received, draining requests")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
