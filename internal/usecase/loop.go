package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jpillora/backoff"

	"quantdesk/internal/broker"
	"quantdesk/internal/domain/models"
	"quantdesk/internal/domain/repository"
	"quantdesk/internal/domain/service"
	"quantdesk/pkg/logger"
)

// ErrAlreadyRunning means a start request arrived while a loop is active.
var ErrAlreadyRunning = errors.New("trading loop already running")

// ErrNotRunning means a stop request arrived with no active loop.
var ErrNotRunning = errors.New("trading loop not running")

// LoopConfig carries the static loop settings.
type LoopConfig struct {
	Interval      time.Duration
	ErrorCooldown time.Duration
	Symbols       []string
	MaxIterations int
}

// LoopParams is the per-session configuration resolved from a start
// request on top of LoopConfig defaults.
type LoopParams struct {
	Symbols       []string
	Interval      time.Duration
	MaxIterations int
	UseML         bool
	UseAlgo       bool
	Execute       bool
	Broker        string
}

// TradingLoop is the single background orchestrator: tick snapshot,
// signal generation, risk filtering, broker execution, persistence and
// broadcast, one iteration per interval.
type TradingLoop struct {
	cfg      LoopConfig
	pipeline service.SignalSource
	algo     repository.SignalCache
	current  repository.SignalCache
	filter   service.RiskFilter
	brokers  *broker.Service
	market   *MarketProvider
	store    repository.HistoryStore
	caster   repository.Broadcaster
	notifier service.Notifier
	metrics  repository.Metrics
	logger   *logger.Logger

	active   atomic.Bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce *sync.Once

	mu      sync.Mutex
	session *models.Session
}

func NewTradingLoop(
	cfg LoopConfig,
	pipeline service.SignalSource,
	algo repository.SignalCache,
	current repository.SignalCache,
	filter service.RiskFilter,
	brokers *broker.Service,
	market *MarketProvider,
	store repository.HistoryStore,
	caster repository.Broadcaster,
	notifier service.Notifier,
	metrics repository.Metrics,
	lgr *logger.Logger,
) *TradingLoop {
	return &TradingLoop{
		cfg:      cfg,
		pipeline: pipeline,
		algo:     algo,
		current:  current,
		filter:   filter,
		brokers:  brokers,
		market:   market,
		store:    store,
		caster:   caster,
		notifier: notifier,
		metrics:  metrics,
		logger:   lgr,
	}
}

// Active reports whether a loop is currently running.
func (t *TradingLoop) Active() bool { return t.active.Load() }

// Session returns a copy of the current or most recent session record.
func (t *TradingLoop) Session() *models.Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return nil
	}
	cp := *t.session
	return &cp
}

// Start launches the background loop. The active flag is
// checked-and-set atomically so concurrent starts cannot race.
func (t *TradingLoop) Start(params LoopParams) (*models.Session, error) {
	if !t.active.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}

	if len(params.Symbols) == 0 {
		params.Symbols = t.cfg.Symbols
	}
	if params.Interval <= 0 {
		params.Interval = t.cfg.Interval
	}
	if params.MaxIterations <= 0 {
		params.MaxIterations = t.cfg.MaxIterations
	}

	session := &models.Session{
		ID:           uuid.NewString(),
		Symbols:      params.Symbols,
		Status:       models.SessionRunning,
		StartedAt:    time.Now().UTC(),
		UsedML:       params.UseML,
		UsedAlgo:     params.UseAlgo,
		ExecuteLive:  params.Execute,
		BrokerTarget: params.Broker,
	}

	t.mu.Lock()
	t.session = session
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	t.stopOnce = new(sync.Once)
	t.mu.Unlock()

	go t.run(params, session)

	t.logger.Info("trading loop started",
		logger.String("session", session.ID),
		logger.Strings("symbols", params.Symbols),
		logger.Duration("interval", params.Interval),
		logger.Bool("execute", params.Execute))

	cp := *session
	return &cp, nil
}

// Stop signals the loop to exit. The in-flight iteration completes; the
// flag flip is observed within at most one interval. Concurrent stops
// of the same session share one channel close via the per-session Once.
func (t *TradingLoop) Stop(ctx context.Context) error {
	if !t.active.Load() {
		return ErrNotRunning
	}

	t.mu.Lock()
	stop, done, once := t.stop, t.done, t.stopOnce
	t.mu.Unlock()
	if stop == nil {
		return ErrNotRunning
	}

	once.Do(func() { close(stop) })

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *TradingLoop) run(params LoopParams, session *models.Session) {
	ctx := context.Background()
	cooldown := &backoff.Backoff{
		Min:    t.cfg.ErrorCooldown,
		Max:    10 * t.cfg.ErrorCooldown,
		Factor: 2,
		Jitter: true,
	}
	if cooldown.Min <= 0 {
		cooldown.Min = 5 * time.Second
		cooldown.Max = 50 * time.Second
	}

	defer t.finalize(ctx, session)

	_ = t.caster.BroadcastStatus(ctx, "trading_started", session)

	for iteration := 1; ; iteration++ {
		select {
		case <-t.stop:
			t.logger.Info("stop requested", logger.String("session", session.ID))
			return
		default:
		}

		if params.MaxIterations > 0 && iteration > params.MaxIterations {
			t.logger.Info("max iterations reached",
				logger.String("session", session.ID),
				logger.Int("iterations", params.MaxIterations))
			return
		}

		if err := t.iterate(ctx, params, session, iteration); err != nil {
			t.mu.Lock()
			session.ErrorCount++
			session.LastError = err.Error()
			t.mu.Unlock()

			t.logger.Error("trading iteration failed",
				logger.String("session", session.ID),
				logger.Int("iteration", iteration),
				logger.Error(err))
			t.metrics.RecordError("loop_iteration")
			_ = t.caster.BroadcastStatus(ctx, "trading_error", map[string]interface{}{
				"session_id": session.ID,
				"iteration":  iteration,
				"error":      err.Error(),
			})

			if !t.sleep(cooldown.Duration()) {
				return
			}
			continue
		}

		cooldown.Reset()
		t.metrics.RecordLoopIteration()
		t.mu.Lock()
		session.Iterations = iteration
		t.mu.Unlock()

		if !t.sleep(params.Interval) {
			return
		}
	}
}

// sleep waits d or until a stop request; returns false on stop.
func (t *TradingLoop) sleep(d time.Duration) bool {
	select {
	case <-t.stop:
		return false
	case <-time.After(d):
		return true
	}
}

func (t *TradingLoop) iterate(ctx context.Context, params LoopParams, session *models.Session, iteration int) error {
	ticks := t.market.Snapshot(ctx, params.Symbols)

	all := make(map[string]*models.Signal)
	if params.UseML {
		generated, err := t.pipeline.GenerateSignals(ctx, params.Symbols)
		if err != nil {
			return err
		}
		for symbol, s := range generated {
			all[symbol] = s
		}
	}
	if params.UseAlgo && t.algo != nil {
		for symbol, s := range t.algo.All() {
			if _, taken := all[symbol]; !taken {
				all[symbol] = s
			}
		}
	}

	filtered := t.filter.Filter(ctx, all, ticks)
	if len(filtered) == 0 {
		return nil
	}

	if t.current != nil {
		for symbol, s := range filtered {
			t.current.Put(symbol, s, 2*params.Interval)
		}
	}

	t.mu.Lock()
	session.SignalCount += len(filtered)
	t.mu.Unlock()

	for _, s := range filtered {
		if err := t.store.StoreSignal(ctx, session.ID, s); err != nil {
			t.logger.Warn("signal persist failed",
				logger.String("symbol", s.Symbol),
				logger.Error(err))
		}
		_ = t.caster.BroadcastSignal(ctx, s)
	}

	if params.Execute && params.Broker != "" {
		results, err := t.brokers.ExecuteSignals(ctx, params.Broker, filtered)
		if err != nil {
			return err
		}
		t.reportExecutions(ctx, params.Broker, results, session)
	}

	return nil
}

func (t *TradingLoop) reportExecutions(ctx context.Context, brokerName string, results map[string]*models.TradeResult, session *models.Session) {
	executed := t.brokers.TradeHistory(len(results))
	for i := range executed {
		e := executed[i]
		_ = t.caster.BroadcastExecution(ctx, &e)
		if t.notifier != nil {
			t.notifier.NotifyTrade(&e)
		}
	}

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	t.mu.Lock()
	session.TradeCount += succeeded
	t.mu.Unlock()

	t.logger.Info("signals executed",
		logger.String("broker", brokerName),
		logger.Int("submitted", len(results)),
		logger.Int("succeeded", succeeded))
}

func (t *TradingLoop) finalize(ctx context.Context, session *models.Session) {
	now := time.Now().UTC()

	t.mu.Lock()
	session.FinishedAt = &now
	if session.ErrorCount > 0 && session.LastError != "" && session.Iterations == 0 {
		session.Status = models.SessionFailed
	} else {
		session.Status = models.SessionStopped
	}
	cp := *session
	t.mu.Unlock()

	if err := t.store.StoreSession(ctx, &cp); err != nil {
		t.logger.Warn("session persist failed",
			logger.String("session", cp.ID),
			logger.Error(err))
	}
	_ = t.caster.BroadcastStatus(ctx, "trading_stopped", &cp)
	if t.notifier != nil {
		t.notifier.NotifyStatus("trading_stopped", cp.ID)
	}

	t.active.Store(false)
	close(t.done)

	t.logger.Info("trading loop finished",
		logger.String("session", cp.ID),
		logger.Int("iterations", cp.Iterations),
		logger.Int("signals", cp.SignalCount),
		logger.Int("trades", cp.TradeCount))
}
