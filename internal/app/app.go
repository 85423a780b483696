package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/contentflow-backend/internal/adapter/postgres"
	"github.com/heartmarshall/contentflow-backend/internal/config"
	"github.com/heartmarshall/contentflow-backend/internal/transport/middleware"
	"github.com/heartmarshall/contentflow-backend/internal/transport/rest"
)

// Run is the server entry point. It wires every component, then serves HTTP,
// drains the usage queue and runs the SLA scheduler until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("build", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("auto_approve_policy", string(cfg.Workflow.Policy())),
		slog.Duration("sla_window", cfg.Workflow.SLAWindow()),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	comps, err := newComponents(ctx, logger, cfg, pool)
	if err != nil {
		return err
	}
	defer comps.close(logger)

	rl := middleware.NewRateLimiter(cfg.RateLimit.CleanupInterval)
	defer rl.Stop()

	router := rest.NewRouter(logger, rest.Handlers{
		Health:  rest.NewHealthHandler(comps.health, BuildVersion()),
		Content: rest.NewContentHandler(comps.workflow, comps.accountant, logger),
		LLM:     rest.NewLLMHandler(comps.llm, logger),
		Webhook: rest.NewWebhookHandler(comps.workflow, cfg.Webhook.Secret, logger),
	}, rest.RouterConfig{
		CORS:      cfg.CORS,
		RateLimit: cfg.RateLimit,
	}, rl)

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// The worker outlives the HTTP server so usage recorded by in-flight
	// requests is still flushed.
	workerCtx, stopWorker := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorker()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		defer stopWorker()

		logger.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return comps.worker.Run(workerCtx)
	})

	if cfg.Workflow.SchedulerEnabled {
		g.Go(func() error {
			return comps.scheduler.Run(gctx)
		})
	} else {
		logger.Info("sla scheduler disabled")
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("application stopped")
	return nil
}

// RunSweep performs a single SLA sweep, for deployments that trigger the
// sweep from an external cron instead of the in-process scheduler.
func RunSweep(ctx context.Context, timeout time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	comps, err := newComponents(ctx, logger, cfg, pool)
	if err != nil {
		return err
	}
	defer comps.close(logger)

	res, err := comps.scheduler.Sweep(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("sla sweep: %w", err)
	}

	logger.Info("sla sweep finished",
		slog.Int("scanned", res.Scanned),
		slog.Int("approved", res.Approved),
		slog.Int("skipped", res.Skipped),
		slog.Int("published", res.Published),
		slog.Int("failed", res.Failed),
	)
	if res.Failed > 0 {
		return fmt.Errorf("sla sweep: %d items failed", res.Failed)
	}
	return nil
}
