package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abengolea/heartlink-sub000/internal/interfaces/cli/migrate"
	"github.com/abengolea/heartlink-sub000/internal/interfaces/cli/server"
	"github.com/abengolea/heartlink-sub000/internal/interfaces/cli/sweep"
	"github.com/abengolea/heartlink-sub000/internal/interfaces/cli/user"
	"github.com/abengolea/heartlink-sub000/internal/shared/version"
)

// @title HeartLink API
// @version 1.0
// @description Subscription billing and access control for the HeartLink study platform.
// @BasePath /api
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
func main() {
	rootCmd := &cobra.Command{
		Use:     "heartlink",
		Short:   "HeartLink billing and access control service",
		Long:    `HeartLink serves the study API behind a subscription gate, reconciles payment provider notifications and sweeps expired subscriptions.`,
		Version: version.Current(),
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		sweep.NewCommand(),
		user.NewCommand(),
	)

	// server installs its own signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
