package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abengolea/heartlink-sub000/internal/infrastructure/scheduler"
	"github.com/abengolea/heartlink-sub000/internal/interfaces/cli/bootstrap"
	httpRouter "github.com/abengolea/heartlink-sub000/internal/interfaces/http"
	"github.com/abengolea/heartlink-sub000/internal/shared/goroutine"
)

// The worker runs the expiry sweep and consumes subscription change events
// for deployments whose API instances run with cron.enabled=false.
func main() {
	env := "development"
	if len(os.Args) > 1 {
		env = os.Args[1]
	}
	env = bootstrap.ResolveEnv(env)

	rt, err := bootstrap.Setup(env)
	if err != nil {
		fmt.Printf("failed to start worker: %v\n", err)
		os.Exit(1)
	}
	defer rt.Close()

	log := rt.Logger
	cfg := rt.Config
	log.Infow("starting billing worker", "environment", env)

	container, err := httpRouter.NewContainer(cfg, rt.DB, rt.Redis, log)
	if err != nil {
		log.Fatalw("failed to build dependencies", "error", err)
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
	} else {
		log.Warnw("redis is not configured, change events are only logged by the publishing instance")
	}

	sched, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		log.Fatalw("failed to create scheduler", "error", err)
	}
	if err := sched.RegisterSweepJob(container.Sweep, cfg.Cron.Interval, cfg.Cron.Timeout); err != nil {
		log.Fatalw("failed to register sweep job", "error", err)
	}
	sched.Start()

	// Metrics only; the worker serves no API routes.
	metricsSrv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port+1),
		Handler:           container.Metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("metrics listener failed", "error", err)
		}
	}()

	log.Infow("billing worker started",
		"sweep_interval", cfg.Cron.Interval.String(),
		"metrics_address", metricsSrv.Addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Infow("received signal, shutting down", "signal", sig)

	cancel()
	if err := sched.Shutdown(); err != nil {
		log.Errorw("failed to stop scheduler", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("failed to stop metrics listener", "error", err)
	}

	log.Infow("billing worker stopped")
}
