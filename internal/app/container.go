package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	sharedApplication "github.com/felixgeelhaar/flowboard/internal/shared/application"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/cache"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/flowboard/internal/tasks/application/commands"
	"github.com/felixgeelhaar/flowboard/internal/tasks/application/queries"
	taskPersistence "github.com/felixgeelhaar/flowboard/internal/tasks/infrastructure/persistence"
	"github.com/felixgeelhaar/flowboard/internal/workflow/application/services"
	"github.com/felixgeelhaar/flowboard/internal/workflow/application/subscribers"
	workflowPersistence "github.com/felixgeelhaar/flowboard/internal/workflow/infrastructure/persistence"
	"github.com/felixgeelhaar/flowboard/pkg/config"
	"github.com/felixgeelhaar/flowboard/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.InMemoryMetrics
	Health  *observability.HealthRegistry

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis
	RedisClient *redis.Client

	// Repositories
	StatusRepo *workflowPersistence.SQLStatusRepository
	TaskRepo   *taskPersistence.SQLTaskRepository
	OutboxRepo outbox.Repository
	UnitOfWork sharedApplication.UnitOfWork

	// Cache
	Cache   cache.Cache
	Catalog *services.StatusCatalog

	// Workflow services
	Transitions *services.TransitionService
	Lifecycle   *services.LifecycleService
	Seeder      *services.Seeder

	// Task handlers
	CreateTaskHandler       *commands.CreateTaskHandler
	ChangeTaskStatusHandler *commands.ChangeTaskStatusHandler
	GetTaskHandler          *queries.GetTaskHandler
	ListTasksHandler        *queries.ListTasksHandler

	// Events
	EventPublisher  eventbus.Publisher
	InProcessBus    *eventbus.InProcessEventBus
	OutboxProcessor *outbox.Processor

	consumers []eventbus.EventConsumer
}

// NewContainer connects to the configured backends and wires every service.
// Redis and RabbitMQ are optional in development: when they cannot be
// reached the container falls back to the in-memory cache and the
// in-process event bus.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealthRegistry(),
	}

	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.Driver(cfg.DatabaseDriver),
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DBConn = conn
	c.DBDriver = conn.Driver()
	c.Health.Register("database", true, conn.Ping)
	logger.Info("connected to database", "driver", c.DBDriver.String())

	if err := migrations.Run(ctx, conn); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	factory, err := NewRepositoryFactory(conn)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.StatusRepo = factory.StatusRepository()
	c.TaskRepo = factory.TaskRepository()
	c.OutboxRepo = factory.OutboxRepository()
	c.UnitOfWork = factory.UnitOfWork()

	if err := c.connectRedis(ctx); err != nil {
		c.Close()
		return nil, err
	}
	c.Cache = c.buildCache()

	if err := c.buildPublisher(); err != nil {
		c.Close()
		return nil, err
	}

	c.Catalog = services.NewStatusCatalog(c.StatusRepo, c.Cache, cfg.CacheTTL, logger, c.Metrics)
	c.Transitions = services.NewTransitionService(c.StatusRepo, c.TaskRepo, c.Catalog, c.OutboxRepo, c.UnitOfWork, logger, c.Metrics)
	c.Lifecycle = services.NewLifecycleService(c.StatusRepo, c.TaskRepo, c.Transitions, c.Catalog, c.OutboxRepo, c.UnitOfWork, logger, c.Metrics)
	c.Seeder = services.NewSeeder(c.StatusRepo, c.Catalog, c.OutboxRepo, c.UnitOfWork, logger, c.Metrics)

	c.CreateTaskHandler = commands.NewCreateTaskHandler(c.TaskRepo, c.Transitions, c.OutboxRepo, c.UnitOfWork, logger)
	c.ChangeTaskStatusHandler = commands.NewChangeTaskStatusHandler(c.TaskRepo, c.Transitions, c.OutboxRepo, c.UnitOfWork, logger, c.Metrics)
	c.GetTaskHandler = queries.NewGetTaskHandler(c.TaskRepo)
	c.ListTasksHandler = queries.NewListTasksHandler(c.TaskRepo)

	c.registerConsumer(subscribers.NewTenantProvisionedConsumer(c.Seeder, logger))

	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, outbox.ProcessorConfig{
		PollInterval:     cfg.OutboxPollInterval,
		BatchSize:        cfg.OutboxBatchSize,
		MaxRetries:       cfg.OutboxMaxRetries,
		RetryBackoffBase: outbox.DefaultProcessorConfig().RetryBackoffBase,
		RetryBackoffMax:  outbox.DefaultProcessorConfig().RetryBackoffMax,
		Retention:        cfg.OutboxRetention(),
	}, logger)

	return c, nil
}

func (c *Container) connectRedis(ctx context.Context) error {
	if c.Config.RedisURL == "" {
		return nil
	}
	client, err := cache.NewRedisClient(ctx, c.Config.RedisURL)
	if err != nil {
		if !c.Config.IsDevelopment() {
			return err
		}
		c.Logger.Warn("Redis not available, using in-memory cache", "error", err)
		return nil
	}
	c.RedisClient = client
	c.Health.Register("redis", false, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	c.Logger.Info("connected to Redis")
	return nil
}

func (c *Container) buildCache() cache.Cache {
	switch {
	case !c.Config.CacheEnabled:
		c.Logger.Info("status cache disabled")
		return nil
	case c.RedisClient != nil:
		return cache.NewBreakerCache(cache.NewRedisCache(c.RedisClient), cache.DefaultBreakerConfig(), c.Logger)
	default:
		return cache.NewMemoryCache()
	}
}

// buildPublisher selects where outbox messages go. RabbitMQ is the primary
// transport; the Redis stream is an optional realtime feed next to it; the
// in-process bus handles local mode.
func (c *Container) buildPublisher() error {
	var targets []eventbus.Publisher

	if c.Config.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
		switch {
		case err == nil:
			targets = append(targets, publisher)
		case c.Config.IsDevelopment():
			c.Logger.Warn("RabbitMQ not available, using in-process event bus", "error", err)
		default:
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
	}
	if len(targets) == 0 {
		c.InProcessBus = eventbus.NewInProcessEventBus(c.Logger)
		targets = append(targets, c.InProcessBus)
	}
	if c.Config.EventStreamEnabled && c.RedisClient != nil {
		targets = append(targets, eventbus.NewRedisStreamPublisher(c.RedisClient, c.Config.EventStreamMaxLen, c.Logger))
	}

	if len(targets) == 1 {
		c.EventPublisher = targets[0]
	} else {
		c.EventPublisher = eventbus.NewFanoutPublisher(targets...)
	}
	return nil
}

// registerConsumer makes consumer reachable from the in-process bus and
// from any broker consumer started later.
func (c *Container) registerConsumer(consumer eventbus.EventConsumer) {
	c.consumers = append(c.consumers, consumer)
	if c.InProcessBus != nil {
		c.InProcessBus.RegisterConsumer(consumer)
	}
}

// NewBrokerConsumer connects a RabbitMQ consumer carrying every registered
// event consumer. It returns nil when no broker is configured.
func (c *Container) NewBrokerConsumer() (eventbus.Consumer, error) {
	if c.Config.RabbitMQURL == "" {
		return nil, nil
	}
	consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
		URL:    c.Config.RabbitMQURL,
		Logger: c.Logger,
	}, eventbus.NewConsumerRegistry(c.Logger))
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ consumer: %w", err)
	}
	for _, ec := range c.consumers {
		consumer.RegisterConsumer(ec)
	}
	return consumer, nil
}

// Close releases all connections.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBDriver.String())
		}
	}
}
