package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/hourstack-io/hourstack/internal/bootstrap"
	"github.com/hourstack-io/hourstack/internal/config"
	"github.com/hourstack-io/hourstack/internal/infra/authn"
	"github.com/hourstack-io/hourstack/internal/infra/cache"
	"github.com/hourstack-io/hourstack/internal/infra/db"
	"github.com/hourstack-io/hourstack/internal/modules/handler"
	"github.com/hourstack-io/hourstack/internal/modules/service"
	"github.com/hourstack-io/hourstack/internal/router"
	"github.com/hourstack-io/hourstack/internal/telemetry"
	"github.com/hourstack-io/hourstack/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	inj := bootstrap.BuildContainer()
	defer inj.Shutdown()

	cfg := do.MustInvoke[*config.Config](inj)
	log := do.MustInvoke[*zap.Logger](inj)
	defer log.Sync()

	// Tracing first so the gorm and redis plugins see the global provider.
	if _, err := telemetry.SetupTracing(cfg); err != nil {
		log.Error("tracing setup failed", zap.Error(err))
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	if cfg.Telemetry.Enabled && cfg.Telemetry.OtlpEndpoint != "" {
		if err := db.RegisterOpenTelemetryPlugin(do.MustInvoke[*gorm.DB](inj)); err != nil {
			log.Warn("gorm tracing plugin failed", zap.Error(err))
		}
		if err := cache.RegisterOpenTelemetryPlugin(do.MustInvoke[*redis.Client](inj)); err != nil {
			log.Warn("redis tracing plugin failed", zap.Error(err))
		}
	}

	r := router.NewRouter(router.RouterDeps{
		Config:         cfg,
		Log:            log,
		AuthClient:     do.MustInvoke[authn.Client](inj),
		UserService:    do.MustInvoke[service.UserService](inj),
		ProjectHandler: do.MustInvoke[*handler.ProjectHandler](inj),
		EntryHandler:   do.MustInvoke[*handler.EntryHandler](inj),
		UserHandler:    do.MustInvoke[*handler.UserHandler](inj),
		WatchHandler:   do.MustInvoke[*handler.WatchHandler](inj),
	})

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.RabbitMQ.URL != "" {
		auditWorker := do.MustInvoke[*worker.AuditWorker](inj)
		g.Go(func() error {
			log.Info("audit worker started", zap.String("queue", cfg.RabbitMQ.AuditQueue))
			return auditWorker.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", zap.Error(err))
		return err
	}
	return nil
}
