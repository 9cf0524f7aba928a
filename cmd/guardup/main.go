// Command guardup is the operator CLI for the Guard UP dashboard data.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "guardup",
		Short:        "Inspect Guard UP users, entries and reports and send alerts",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $CONFIG_PATH or ./config.yaml)")

	rootCmd.AddCommand(usersCmd())
	rootCmd.AddCommand(reportsCmd())
	rootCmd.AddCommand(entriesCmd())
	rootCmd.AddCommand(notifyCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}
