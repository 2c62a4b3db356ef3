//go:build wireinject
// +build wireinject

package di

import (
	"quantdesk/pkg/config"
	"quantdesk/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisClient,
		ProvideCacheService,
		ProvideHTTPClient,

		// Repositories
		ProvideHistoryStore,
		ProvideBroadcaster,
		ProvideSignalCaches,

		// Domain services
		ProvideRegistry,
		ProvideBrokerService,
		ProvideMarketProvider,
		ProvideFeatureBuilder,
		ProvideRiskFilter,
		ProvideNotifier,
		ProvideHub,
		ProvideQueue,

		// Use cases
		ProvidePipeline,
		ProvideAlgoHandler,
		ProvideTrainJob,
		ProvideLoop,

		// HTTP + application
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
