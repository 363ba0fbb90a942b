package main

import (
	"context"
	"fmt"

	"game-gen-ai-api/internal/application/activity"
	"game-gen-ai-api/internal/application/gamegen"
	"game-gen-ai-api/internal/application/quota"
	"game-gen-ai-api/internal/config"
	"game-gen-ai-api/internal/domain/repository"
	"game-gen-ai-api/internal/infrastructure/llm"
	"game-gen-ai-api/internal/infrastructure/messaging"
	"game-gen-ai-api/internal/infrastructure/persistence/postgres"
	"game-gen-ai-api/internal/infrastructure/persistence/redis"
	"game-gen-ai-api/internal/interfaces/http/handler"
	"game-gen-ai-api/internal/interfaces/http/router"
	"game-gen-ai-api/internal/workflow/chain"
	"game-gen-ai-api/pkg/logger"
)

// initializeApp 手动装配全部依赖；返回的 cleanup 关闭已打开的连接
func initializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	log := logger.FromContext(ctx)

	factory := llm.NewEinoFactory(cfg.LLM)
	if len(factory.Providers()) == 0 {
		log.Warn("no llm provider has an api key; /generate will fail until one is configured")
	}

	processor := activity.NewProcessor(
		activity.WithLogger(logger.Default()),
		activity.WithStrictContent(cfg.Pipeline.StrictContent),
		activity.WithReferenceCheck(cfg.Pipeline.CheckReferences),
		activity.WithExcerptLimit(cfg.Pipeline.ExcerptLimit),
	)

	deps := gamegen.Deps{
		Generator: chain.NewActivityChain(factory),
		Providers: factory,
		Processor: processor,
		Logger:    logger.Default(),
	}
	health := []handler.Dependency{}

	var rdb *redis.Client
	if cfg.Cache.Redis.Enabled {
		client, err := redis.NewClient(&cfg.Cache.Redis)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("init redis: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })
		rdb = client
		health = append(health, handler.Dependency{Name: "redis", Checker: client})

		if cfg.Messaging.RedisStream.Enabled {
			stream := cfg.Messaging.RedisStream
			deps.Events = messaging.NewProducer(client.Redis(), messaging.Stream(stream.Stream), int64(stream.MaxLen))
		}
	} else if cfg.Messaging.RedisStream.Enabled {
		log.Warn("activity events enabled but redis is disabled; events will not be published")
	}

	if cfg.Persistence.Enabled {
		pg, err := postgres.NewClient(&cfg.Database.Postgres)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("init postgres: %w", err)
		}
		closers = append(closers, func() { _ = pg.Close() })
		if cfg.Persistence.AutoMigrate {
			if err := pg.Migrate(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("migrate postgres: %w", err)
			}
		}

		var activities repository.ActivityRepository = postgres.NewActivityRepository(pg)
		if rdb != nil {
			cached := redis.NewCachedActivityRepository(activities, rdb, cfg.Cache.Redis.ActivityTTL)
			activities = cached
			deps.Cache = cached
		}
		deps.Activities = activities
		usageEvents := postgres.NewLLMUsageEventRepository(pg)
		deps.UsageEvents = usageEvents
		if cfg.LLM.DailyTokenBudget > 0 {
			deps.Budget = quota.NewTokenBudget(usageEvents, cfg.LLM.DailyTokenBudget)
		}
		deps.Transactor = postgres.NewTxManager(pg)
		health = append(health, handler.Dependency{Name: "postgres", Checker: pg, Required: true})
	}

	if cfg.LLM.DailyTokenBudget > 0 && deps.Budget == nil {
		log.Warn("daily token budget requires persistence; budget is not enforced")
	}

	svc := gamegen.NewService(gamegen.Config{
		Provider: cfg.LLM.DefaultProvider,
		JSONMode: cfg.LLM.ResponseFormat,
		Fallback: cfg.LLM.FallbackChain,
	}, deps)

	handlers := router.Handlers{
		Health:   handler.NewHealthHandler(cfg.App.Version, health...),
		Activity: handler.NewActivityHandler(svc),
	}
	if rdb != nil {
		handlers.Limiter = redis.NewRateLimiter(rdb)
		handlers.KeyFunc = redis.BuildRateLimitKey
	} else if cfg.Security.RateLimit.Enabled {
		log.Warn("rate limit enabled but redis is disabled; requests will not be limited")
	}

	log.Info("app initialized",
		"providers", factory.Providers(),
		"persistence", cfg.Persistence.Enabled,
		"redis", cfg.Cache.Redis.Enabled,
		"strict_content", cfg.Pipeline.StrictContent,
	)
	return router.New(cfg, handlers), cleanup, nil
}
