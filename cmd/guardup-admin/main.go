// Command guardup-admin serves the Guard UP admin dashboard.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/celerix-dev/guardup-admin/internal/app"
	"github.com/celerix-dev/guardup-admin/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "guardup-admin: %v\n", err)
		os.Exit(1)
	}

	logger := app.NewLogger(cfg.Log)
	logger.Info("starting guardup-admin",
		"version", app.BuildVersion(),
		"store", cfg.Store.Backend,
		"addr", cfg.Server.Addr(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, logger); err != nil {
		logger.Error("guardup-admin stopped", "error", err)
		stop()
		os.Exit(1)
	}
}
