package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	domrepo "quantdesk/internal/domain/repository"
	"quantdesk/internal/usecase"
	"quantdesk/pkg/config"
	xhttp "quantdesk/pkg/http"
	pkgkafka "quantdesk/pkg/kafka"
	applogger "quantdesk/pkg/logger"
	"quantdesk/pkg/queue"
)

// App encapsulates the application lifecycle: HTTP server, Kafka
// consumer, job queue and the trading loop.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	handler    xhttp.Handler
	consumer   *pkgkafka.Consumer
	queue      *queue.RedisQueue
	loop       *usecase.TradingLoop
	store      domrepo.HistoryStore
	caster     domrepo.Broadcaster
	httpServer *xhttp.Server
}

// New creates the application with all dependencies injected.
func New(
	cfg *config.Config,
	lgr *applogger.Logger,
	handler xhttp.Handler,
	consumer *pkgkafka.Consumer,
	q *queue.RedisQueue,
	loop *usecase.TradingLoop,
	store domrepo.HistoryStore,
	caster domrepo.Broadcaster,
) *App {
	return &App{
		cfg:      cfg,
		logger:   lgr,
		handler:  handler,
		consumer: consumer,
		queue:    q,
		loop:     loop,
		store:    store,
		caster:   caster,
	}
}

// Run starts all services and blocks until interrupted.
func (a *App) Run() error {
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if err := a.queue.Start(); err != nil {
		// training jobs are optional; the API still serves without them
		a.logger.Warn("queue start failed", applogger.Error(err))
	} else {
		a.logger.Info("queue started", applogger.Int("workers", a.cfg.Queue.Workers))
	}

	go func() {
		if err := a.consumer.Start(); err != nil {
			a.logger.Error("kafka consumer error", applogger.Error(err))
		}
	}()
	a.logger.Info("kafka consumer started", applogger.String("topic", a.cfg.Kafka.AlgoTopic))

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops services in dependency order: trading first, then
// inbound traffic, then infrastructure.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.loop.Active() {
		if err := a.loop.Stop(ctx); err != nil {
			a.logger.Warn("trading loop stop error", applogger.Error(err))
		}
	}

	if err := a.httpServer.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if err := a.consumer.Stop(ctx); err != nil {
		a.logger.Warn("kafka consumer stop error", applogger.Error(err))
	}

	if err := a.queue.Stop(ctx); err != nil {
		a.logger.Warn("queue stop error", applogger.Error(err))
	}

	if err := a.caster.Close(); err != nil {
		a.logger.Warn("broadcaster close error", applogger.Error(err))
	}

	if err := a.store.Close(); err != nil {
		a.logger.Warn("history store close error", applogger.Error(err))
	}

	a.logger.Info("shutdown complete")
	return nil
}
