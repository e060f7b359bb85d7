package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abengolea/heartlink-sub000/internal/infrastructure/migration"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/scheduler"
	"github.com/abengolea/heartlink-sub000/internal/interfaces/cli/bootstrap"
	httpRouter "github.com/abengolea/heartlink-sub000/internal/interfaces/http"
	"github.com/abengolea/heartlink-sub000/internal/shared/goroutine"
	"github.com/abengolea/heartlink-sub000/internal/shared/version"
)

var (
	env                string
	autoMigrate        bool
	skipMigrationCheck bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the HeartLink HTTP server. When cron.enabled is set the expiry sweep also runs in-process.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Automatically run database migrations on startup (not recommended for production)")
	cmd.Flags().BoolVar(&skipMigrationCheck, "skip-migration-check", false, "Skip migration status check on startup")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	env = bootstrap.ResolveEnv(env)

	rt, err := bootstrap.Setup(env)
	if err != nil {
		return err
	}
	defer rt.Close()

	log := rt.Logger
	cfg := rt.Config

	log.Infow("starting server",
		"environment", env,
		"version", version.Current(),
		"auto_migrate", autoMigrate,
		"redis", rt.Redis != nil)

	if err := handleMigrations(rt); err != nil {
		return fmt.Errorf("migration handling failed: %w", err)
	}

	container, err := httpRouter.NewContainer(cfg, rt.DB, rt.Redis, log)
	if err != nil {
		return fmt.Errorf("failed to build dependencies: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if container.EventBus != nil {
		goroutine.SafeGo(log, "subscription-change-subscriber", func() {
			err := container.EventBus.Subscribe(ctx, bootstrap.ChangeEventRecorder(container.Metrics, log))
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Errorw("subscription change subscriber stopped", "error", err)
			}
		})
	}

	var sched *scheduler.SchedulerManager
	if cfg.Cron.Enabled {
		sched, err = scheduler.NewSchedulerManager(log)
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}
		if err := sched.RegisterSweepJob(container.Sweep, cfg.Cron.Interval, cfg.Cron.Timeout); err != nil {
			return fmt.Errorf("failed to register sweep job: %w", err)
		}
		sched.Start()
	}

	router := httpRouter.NewRouter(container, cfg, log)
	router.SetupRoutes()

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("server starting",
			"address", cfg.Server.GetAddr(),
			"mode", cfg.Server.Mode)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Infow("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		log.Errorw("failed to start server", "error", err)
		return err
	}

	cancel()

	if sched != nil {
		if err := sched.Shutdown(); err != nil {
			log.Errorw("failed to stop scheduler", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Infow("server exited gracefully")
	return nil
}

func handleMigrations(rt *bootstrap.Runtime) error {
	log := rt.Logger
	if skipMigrationCheck {
		log.Infow("skipping migration check")
		return nil
	}

	driver := rt.Config.Database.Driver

	if autoMigrate {
		if rt.Env == "production" {
			log.Warnw("auto-migration is enabled in production environment - this is not recommended!")
		}

		if err := migration.NewManager(driver, log).Migrate(rt.DB, migration.AutoMigrateModels()...); err != nil {
			return fmt.Errorf("auto-migration failed: %w", err)
		}
		return nil
	}

	if driver == "sqlite" {
		return nil
	}

	current, err := migration.NewGooseStrategy(driver, log).GetVersion(rt.DB)
	if err != nil {
		log.Warnw("failed to check migration status", "error", err)
		return nil
	}
	log.Infow("current migration version", "version", current)
	return nil
}
