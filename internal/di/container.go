package di

import (
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/janzheng/mailcheck/internal/adapters/httpapi"
	"github.com/janzheng/mailcheck/internal/config"
	"github.com/janzheng/mailcheck/internal/core"
	"github.com/janzheng/mailcheck/internal/factory"
	"github.com/janzheng/mailcheck/internal/jobs"
	"github.com/janzheng/mailcheck/internal/logging"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewPipelineFactory); err != nil {
		return nil, err
	}

	// Register chat client
	if err := container.Provide(func(f *factory.PipelineFactory) core.ChatClient {
		return f.CreateChatClient()
	}); err != nil {
		return nil, err
	}

	// Register pipeline
	if err := container.Provide(func(f *factory.PipelineFactory, chat core.ChatClient) (*core.Pipeline, error) {
		return f.CreatePipeline(chat)
	}); err != nil {
		return nil, err
	}

	// Register cache repository
	if err := container.Provide(func(f *factory.CacheFactory) (core.CacheRepository, error) {
		return f.CreateCacheRepository()
	}); err != nil {
		return nil, err
	}

	// Register cache TTL and enabled flag
	if err := container.Provide(func(f *factory.CacheFactory) (time.Duration, error) {
		return f.GetCacheTTL()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.CacheFactory) bool {
		return f.IsCacheEnabled()
	}); err != nil {
		return nil, err
	}

	// Register checker service
	if err := container.Provide(core.NewCheckerService); err != nil {
		return nil, err
	}

	// Register job registry
	if err := container.Provide(func(checker *core.CheckerService, cfg *config.Config, logger *zap.Logger) *jobs.Registry {
		return jobs.NewRegistry(checker, cfg.GetInt("jobs.concurrency"), logger)
	}); err != nil {
		return nil, err
	}

	// Register HTTP handler and server
	if err := container.Provide(func(checker *core.CheckerService, registry *jobs.Registry, cfg *config.Config, logger *zap.Logger) *httpapi.CheckHandler {
		return httpapi.NewCheckHandler(checker, registry, cfg.GetString("groq.api_key"), logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(handler *httpapi.CheckHandler, cfg *config.Config, logger *zap.Logger) *httpapi.Server {
		return httpapi.NewServer(
			cfg.GetString("server.listen_address"),
			cfg.GetStringSlice("server.cors_origins"),
			handler,
			logger,
		)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
