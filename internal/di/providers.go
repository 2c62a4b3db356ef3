package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quantdesk/internal/broker"
	internalcache "quantdesk/internal/cache"
	domrepo "quantdesk/internal/domain/repository"
	"quantdesk/internal/domain/service"
	"quantdesk/internal/handler/api"
	"quantdesk/internal/ml"
	"quantdesk/internal/ml/features"
	"quantdesk/internal/notify"
	internalrepo "quantdesk/internal/repository"
	"quantdesk/internal/risk"
	"quantdesk/internal/usecase"
	"quantdesk/internal/ws"
	pkgcache "quantdesk/pkg/cache"
	pkgch "quantdesk/pkg/clickhouse"
	"quantdesk/pkg/config"
	xhttp "quantdesk/pkg/http"
	pkgkafka "quantdesk/pkg/kafka"
	applogger "quantdesk/pkg/logger"
	"quantdesk/pkg/metrics"
	"quantdesk/pkg/queue"
	"quantdesk/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideHistoryStore creates the ClickHouse history store and ensures
// its schema exists.
func ProvideHistoryStore(ch *pkgch.Client, lgr *applogger.Logger) (domrepo.HistoryStore, error) {
	store := internalrepo.NewCHHistoryStore(ch, lgr)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("history store: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates the algo-signals consumer.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideRedisClient creates the shared Redis connection.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideCacheService backs risk cooldowns with Redis, falling back to
// the in-memory cache when no Redis address is configured.
func ProvideCacheService(cfg *config.Config) (pkgcache.Service, error) {
	if cfg.Redis.Addr == "" {
		return pkgcache.NewMemoryCache(), nil
	}
	return pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Redis.Addr),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
}

// ProvideQueue creates the Redis-backed job queue.
func ProvideQueue(lgr *applogger.Logger, cfg *config.Config, client *redis.Client) *queue.RedisQueue {
	return queue.NewRedisQueue(lgr, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryMax,
		RetryDelay: cfg.Queue.RetryDelay,
	}, client)
}

// ProvideHTTPClient creates the outbound HTTP client shared by the
// model server and MT5 bridge calls.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	timeout := cfg.Models.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return xhttp.NewClient(xhttp.WithTimeout(timeout))
}

// ProvideRegistry loads the model registry from disk.
func ProvideRegistry(cfg *config.Config, client *xhttp.Client, lgr *applogger.Logger) (*ml.Registry, error) {
	registry := ml.NewRegistry(cfg.Models.Dir, client, lgr)
	if err := registry.LoadAll(); err != nil {
		return nil, fmt.Errorf("model registry: %w", err)
	}
	return registry, nil
}

// ProvideBrokerService creates the broker registry with the default
// family-tagged connector factory.
func ProvideBrokerService(cfg *config.Config, store domrepo.HistoryStore, m domrepo.Metrics, lgr *applogger.Logger) *broker.Service {
	factory := broker.DefaultFactory(broker.Config{
		BridgeURL:      cfg.Brokers.MT5BridgeURL,
		BaseVolume:     cfg.Brokers.BaseVolume,
		BaseNotional:   cfg.Brokers.BaseNotional,
		RequestTimeout: cfg.Brokers.RequestTimeout,
	}, lgr)
	return broker.NewService(factory, store, m, lgr)
}

// ProvideMarketProvider creates the tick snapshot provider.
func ProvideMarketProvider(brokers *broker.Service, lgr *applogger.Logger) *usecase.MarketProvider {
	return usecase.NewMarketProvider(brokers, 5*time.Second, lgr)
}

// ProvideFeatureBuilder creates the feature builder backed by stored
// price history.
func ProvideFeatureBuilder(store domrepo.HistoryStore, lgr *applogger.Logger) *features.Builder {
	return features.NewBuilder(store, lgr)
}

// ProvidePipeline creates the ML signal pipeline.
func ProvidePipeline(registry *ml.Registry, builder *features.Builder, market *usecase.MarketProvider, m domrepo.Metrics, lgr *applogger.Logger) *usecase.SignalPipeline {
	return usecase.NewSignalPipeline(registry, builder, market, m, lgr)
}

// ProvideHub creates the websocket hub.
func ProvideHub(lgr *applogger.Logger) *ws.Hub {
	return ws.NewHub(lgr)
}

// ProvideBroadcaster fans trading updates out to Kafka and the
// websocket hub.
func ProvideBroadcaster(producer *pkgkafka.Producer, hub *ws.Hub, cfg *config.Config, lgr *applogger.Logger) domrepo.Broadcaster {
	return internalrepo.NewFanout(
		internalrepo.NewKafkaBroadcaster(producer, cfg.Kafka.UpdatesTopic, lgr),
		ws.NewBroadcaster(hub),
	)
}

// SignalCaches separates the algorithm-fed cache from the loop's
// current-batch cache.
type SignalCaches struct {
	Algo    *internalcache.SignalCache
	Current *internalcache.SignalCache
}

func ProvideSignalCaches() SignalCaches {
	return SignalCaches{
		Algo:    internalcache.NewSignalCache(),
		Current: internalcache.NewSignalCache(),
	}
}

// ProvideRiskFilter creates the pre-execution threshold filter.
func ProvideRiskFilter(cfg *config.Config, locks pkgcache.Service, lgr *applogger.Logger) service.RiskFilter {
	return risk.NewThresholdFilter(risk.Options{
		MinConfidence:  cfg.Risk.MinConfidence,
		MaxSignals:     cfg.Risk.MaxSignals,
		SymbolCooldown: cfg.Risk.SymbolCooldown,
	}, locks, lgr)
}

// ProvideNotifier creates the optional Telegram notifier.
func ProvideNotifier(cfg *config.Config, lgr *applogger.Logger) service.Notifier {
	return notify.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID, lgr)
}

// ProvideAlgoHandler creates the algo-signals Kafka handler.
func ProvideAlgoHandler(cfg *config.Config, caches SignalCaches, lgr *applogger.Logger) *usecase.AlgoSignalHandler {
	return usecase.NewAlgoSignalHandler(cfg.Kafka.AlgoTopic, caches.Algo, 2*cfg.Trading.Interval, lgr)
}

// ProvideTrainJob creates the model training queue job.
func ProvideTrainJob(cfg *config.Config, client *xhttp.Client, registry *ml.Registry, lgr *applogger.Logger) *usecase.TrainJob {
	return usecase.NewTrainJob(cfg.Models.ServerURL, client, registry, lgr)
}

// ProvideLoop creates the background trading loop.
func ProvideLoop(
	cfg *config.Config,
	pipeline *usecase.SignalPipeline,
	caches SignalCaches,
	filter service.RiskFilter,
	brokers *broker.Service,
	market *usecase.MarketProvider,
	store domrepo.HistoryStore,
	caster domrepo.Broadcaster,
	notifier service.Notifier,
	m domrepo.Metrics,
	lgr *applogger.Logger,
) *usecase.TradingLoop {
	return usecase.NewTradingLoop(
		usecase.LoopConfig{
			Interval:      cfg.Trading.Interval,
			ErrorCooldown: cfg.Trading.ErrorCooldown,
			Symbols:       cfg.Trading.Symbols,
			MaxIterations: cfg.Trading.MaxIterations,
		},
		pipeline, caches.Algo, caches.Current, filter,
		brokers, market, store, caster, notifier, m, lgr,
	)
}

// ProvideHandler aggregates the API route groups.
func ProvideHandler(
	lgr *applogger.Logger,
	loop *usecase.TradingLoop,
	registry *ml.Registry,
	store domrepo.HistoryStore,
	hub *ws.Hub,
	brokers *broker.Service,
	market *usecase.MarketProvider,
	q *queue.RedisQueue,
	pipeline *usecase.SignalPipeline,
	caches SignalCaches,
) *api.Handler {
	return api.NewHandler(
		api.NewStatusHandler(lgr, loop, registry, store, hub),
		api.NewBrokersHandler(lgr, brokers, market),
		api.NewModelsHandler(lgr, registry, q),
		api.NewSignalsHandler(lgr, pipeline, caches.Current, store, brokers),
		api.NewTradingHandler(lgr, loop),
	)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	lgr *applogger.Logger,
	handler *api.Handler,
	consumer *pkgkafka.Consumer,
	algoHandler *usecase.AlgoSignalHandler,
	q *queue.RedisQueue,
	trainJob *usecase.TrainJob,
	loop *usecase.TradingLoop,
	store domrepo.HistoryStore,
	caster domrepo.Broadcaster,
) *server.App {
	q.RegisterJob(trainJob)
	consumer.RegisterHandler(algoHandler)
	return server.New(cfg, lgr, handler, consumer, q, loop, store, caster)
}
