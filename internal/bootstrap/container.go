package bootstrap

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hourstack-io/hourstack/internal/config"
	"github.com/hourstack-io/hourstack/internal/docstore"
	"github.com/hourstack-io/hourstack/internal/infra/authn"
	"github.com/hourstack-io/hourstack/internal/infra/cache"
	"github.com/hourstack-io/hourstack/internal/infra/db"
	"github.com/hourstack-io/hourstack/internal/infra/logger"
	mq "github.com/hourstack-io/hourstack/internal/infra/queue"
	"github.com/hourstack-io/hourstack/internal/livequery"
	"github.com/hourstack-io/hourstack/internal/modules/handler"
	"github.com/hourstack-io/hourstack/internal/modules/repo"
	"github.com/hourstack-io/hourstack/internal/modules/service"
	"github.com/hourstack-io/hourstack/internal/querycache"
	"github.com/hourstack-io/hourstack/internal/worker"
)

func BuildContainer() *do.Injector {
	inj := do.New()

	// config
	do.Provide(inj, func(i *do.Injector) (*config.Config, error) {
		return config.Load()
	})

	// logger
	do.Provide(inj, func(i *do.Injector) (*zap.Logger, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return logger.New(cfg.Log.Level)
	})

	// DB
	do.Provide(inj, func(i *do.Injector) (*gorm.DB, error) {
		cfg := do.MustInvoke[*config.Config](i)
		d, err := db.New(cfg)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := d.AutoMigrate(&docstore.Document{}); err != nil {
				return nil, err
			}
		}
		return d, nil
	})

	// Redis
	do.Provide(inj, func(i *do.Injector) (*redis.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return cache.New(cfg)
	})

	// Document store
	do.Provide(inj, func(i *do.Injector) (docstore.Store, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*zap.Logger](i)
		store := docstore.NewPostgres(
			do.MustInvoke[*gorm.DB](i),
			do.MustInvoke[*redis.Client](i),
			log,
		)

		// ensure the bootstrap admin is promoted
		if err := EnsureDefaultAdmin(context.Background(), store, cfg, log); err != nil {
			return nil, err
		}
		return store, nil
	})

	// Query cache
	do.Provide(inj, func(i *do.Injector) (*querycache.Cache, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return querycache.New(cfg.CacheTTL()), nil
	})

	// Live query manager
	do.Provide(inj, func(i *do.Injector) (*livequery.Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return livequery.NewManager(
			do.MustInvoke[docstore.Store](i),
			do.MustInvoke[*zap.Logger](i),
			livequery.Options{
				MaxRetries:  cfg.Subscribe.MaxRetries,
				BackoffBase: cfg.BackoffBase(),
			},
		), nil
	})

	// RabbitMQ connection
	do.Provide(inj, func(i *do.Injector) (*amqp.Connection, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return mq.Connect(cfg)
	})

	// RabbitMQ publisher
	do.Provide(inj, func(i *do.Injector) (*mq.Publisher, error) {
		return mq.NewPublisher(
			do.MustInvoke[*amqp.Connection](i),
			do.MustInvoke[*zap.Logger](i),
			do.MustInvoke[*config.Config](i),
		)
	})

	// Audit worker
	do.Provide(inj, func(i *do.Injector) (*worker.AuditWorker, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*zap.Logger](i)
		consumer, err := mq.NewConsumer(
			do.MustInvoke[*amqp.Connection](i),
			cfg.RabbitMQ.AuditQueue,
			cfg.RabbitMQ.Prefetch,
			log, cfg,
		)
		if err != nil {
			return nil, err
		}
		return worker.NewAuditWorker(consumer, do.MustInvoke[docstore.Store](i), log), nil
	})

	// Auth client
	do.Provide(inj, func(i *do.Injector) (authn.Client, error) {
		return authn.New(do.MustInvoke[*config.Config](i))
	})

	// Repo
	do.Provide(inj, func(i *do.Injector) (repo.ProjectRepo, error) {
		return repo.NewProjectRepo(do.MustInvoke[docstore.Store](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.EntryRepo, error) {
		return repo.NewEntryRepo(do.MustInvoke[docstore.Store](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.UserRepo, error) {
		return repo.NewUserRepo(do.MustInvoke[docstore.Store](i)), nil
	})

	// Service
	do.Provide(inj, func(i *do.Injector) (service.ProjectService, error) {
		return service.NewProjectService(
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[docstore.Store](i),
			do.MustInvoke[*querycache.Cache](i),
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.EntryService, error) {
		cfg := do.MustInvoke[*config.Config](i)

		// Entry events are best-effort; with no broker configured they are
		// simply not published.
		var events service.EventPublisher
		if cfg.RabbitMQ.URL != "" {
			events = do.MustInvoke[*mq.Publisher](i)
		}

		return service.NewEntryService(
			do.MustInvoke[repo.EntryRepo](i),
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[docstore.Store](i),
			do.MustInvoke[*querycache.Cache](i),
			events,
			cfg,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.UserService, error) {
		return service.NewUserService(
			do.MustInvoke[repo.UserRepo](i),
			do.MustInvoke[*config.Config](i),
		), nil
	})

	// Handler
	do.Provide(inj, func(i *do.Injector) (*handler.ProjectHandler, error) {
		return handler.NewProjectHandler(do.MustInvoke[service.ProjectService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.EntryHandler, error) {
		return handler.NewEntryHandler(do.MustInvoke[service.EntryService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.UserHandler, error) {
		return handler.NewUserHandler(do.MustInvoke[service.UserService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.WatchHandler, error) {
		return handler.NewWatchHandler(
			do.MustInvoke[*livequery.Manager](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	return inj
}
