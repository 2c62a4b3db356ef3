package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantdesk/internal/broker"
	internalcache "quantdesk/internal/cache"
	"quantdesk/internal/domain/models"
	"quantdesk/pkg/logger"
)

type fakeSource struct {
	mu      sync.Mutex
	calls   int
	err     error
	signals map[string]*models.Signal
}

func (f *fakeSource) GenerateSignals(ctx context.Context, symbols []string) (map[string]*models.Signal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]*models.Signal, len(f.signals))
	for k, v := range f.signals {
		out[k] = v
	}
	return out, nil
}

type passFilter struct{}

func (passFilter) Filter(ctx context.Context, signals map[string]*models.Signal, ticks map[string]*models.Tick) map[string]*models.Signal {
	return signals
}

type memStore struct {
	mu       sync.Mutex
	signals  []*models.Signal
	sessions []*models.Session
}

func (m *memStore) Init(ctx context.Context) error { return nil }

func (m *memStore) StoreSignal(ctx context.Context, sessionID string, s *models.Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signals = append(m.signals, s)
	return nil
}

func (m *memStore) StoreExecution(ctx context.Context, e *models.TradeExecution) error { return nil }

func (m *memStore) StoreSession(ctx context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions = append(m.sessions, &cp)
	return nil
}

func (m *memStore) QuerySignals(ctx context.Context, symbol string, limit int) ([]*models.Signal, error) {
	return nil, nil
}

func (m *memStore) QueryExecutions(ctx context.Context, b string, limit int) ([]*models.TradeExecution, error) {
	return nil, nil
}

func (m *memStore) QuerySessions(ctx context.Context, limit int) ([]*models.Session, error) {
	return nil, nil
}

func (m *memStore) PriceWindow(ctx context.Context, symbol string, n int) ([]float64, error) {
	return nil, nil
}

func (m *memStore) Health(ctx context.Context) error { return nil }
func (m *memStore) Close() error                     { return nil }

type memCaster struct {
	mu     sync.Mutex
	events []string
}

func (m *memCaster) BroadcastSignal(ctx context.Context, s *models.Signal) error {
	m.record("signal")
	return nil
}

func (m *memCaster) BroadcastExecution(ctx context.Context, e *models.TradeExecution) error {
	m.record("execution")
	return nil
}

func (m *memCaster) BroadcastStatus(ctx context.Context, event string, payload interface{}) error {
	m.record(event)
	return nil
}

func (m *memCaster) Close() error { return nil }

func (m *memCaster) record(event string) {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
}

func (m *memCaster) seen(event string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e == event {
			return true
		}
	}
	return false
}

func newTestLoop(source *fakeSource, store *memStore, caster *memCaster) *TradingLoop {
	brokers := broker.NewService(nil, nil, nil, logger.Nop())
	market := NewMarketProvider(brokers, time.Second, logger.Nop())
	return NewTradingLoop(
		LoopConfig{
			Interval:      10 * time.Millisecond,
			ErrorCooldown: 5 * time.Millisecond,
			Symbols:       []string{"BTC/USDT"},
		},
		source,
		internalcache.NewSignalCache(),
		internalcache.NewSignalCache(),
		passFilter{},
		brokers,
		market,
		store,
		caster,
		nil,
		newFakeMetrics(),
		logger.Nop(),
	)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestLoopStartIsExclusive(t *testing.T) {
	source := &fakeSource{signals: map[string]*models.Signal{}}
	store := &memStore{}
	loop := newTestLoop(source, store, &memCaster{})

	session, err := loop.Start(LoopParams{UseML: true})
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.True(t, loop.Active())

	_, err = loop.Start(LoopParams{UseML: true})
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, loop.Stop(ctx))
	assert.False(t, loop.Active())

	assert.ErrorIs(t, loop.Stop(ctx), ErrNotRunning)
}

func TestLoopPersistsSignalsAndSession(t *testing.T) {
	source := &fakeSource{signals: map[string]*models.Signal{
		"BTC/USDT": {Symbol: "BTC/USDT", Type: models.SignalBuy, Strength: 0.8, Confidence: 0.9, Price: 50000},
	}}
	store := &memStore{}
	caster := &memCaster{}
	loop := newTestLoop(source, store, caster)

	_, err := loop.Start(LoopParams{UseML: true})
	require.NoError(t, err)

	waitFor(t, time.Second, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.signals) >= 2
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, loop.Stop(ctx))

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.sessions, 1)
	sess := store.sessions[0]
	assert.Equal(t, models.SessionStopped, sess.Status)
	assert.NotNil(t, sess.FinishedAt)
	assert.Greater(t, sess.SignalCount, 0)

	assert.True(t, caster.seen("trading_started"))
	assert.True(t, caster.seen("signal"))
	assert.True(t, caster.seen("trading_stopped"))

	_, ok := loop.current.Get("BTC/USDT")
	assert.True(t, ok, "latest filtered batch is published as current signals")
}

func TestLoopStopsAtMaxIterations(t *testing.T) {
	source := &fakeSource{signals: map[string]*models.Signal{}}
	store := &memStore{}
	loop := newTestLoop(source, store, &memCaster{})

	_, err := loop.Start(LoopParams{UseML: true, MaxIterations: 2})
	require.NoError(t, err)

	waitFor(t, time.Second, func() bool { return !loop.Active() })

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.sessions, 1)
	assert.Equal(t, 2, store.sessions[0].Iterations)
}

func TestLoopSurvivesIterationErrors(t *testing.T) {
	source := &fakeSource{err: errors.New("market closed")}
	store := &memStore{}
	caster := &memCaster{}
	loop := newTestLoop(source, store, caster)

	_, err := loop.Start(LoopParams{UseML: true})
	require.NoError(t, err)

	waitFor(t, time.Second, func() bool {
		source.mu.Lock()
		defer source.mu.Unlock()
		return source.calls >= 2
	})
	assert.True(t, loop.Active(), "iteration errors must not end the loop")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, loop.Stop(ctx))

	sess := loop.Session()
	require.NotNil(t, sess)
	assert.Greater(t, sess.ErrorCount, 0)
	assert.Equal(t, "market closed", sess.LastError)
	assert.True(t, caster.seen("trading_error"))
}

func TestLoopConcurrentStops(t *testing.T) {
	source := &fakeSource{signals: map[string]*models.Signal{}}
	loop := newTestLoop(source, &memStore{}, &memCaster{})

	for round := 0; round < 20; round++ {
		_, err := loop.Start(LoopParams{UseML: true})
		require.NoError(t, err)

		const stoppers = 8
		start := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(stoppers)
		for i := 0; i < stoppers; i++ {
			go func() {
				defer wg.Done()
				<-start
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				err := loop.Stop(ctx)
				if err != nil {
					assert.ErrorIs(t, err, ErrNotRunning)
				}
			}()
		}
		close(start)
		wg.Wait()

		assert.False(t, loop.Active())
	}
}

func TestLoopMergesAlgoSignals(t *testing.T) {
	source := &fakeSource{signals: map[string]*models.Signal{}}
	store := &memStore{}
	loop := newTestLoop(source, store, &memCaster{})
	loop.algo.Put("ETH/USDT", &models.Signal{
		Symbol: "ETH/USDT", Type: models.SignalSell, Strength: 0.7, Confidence: 0.8, Price: 3000, Source: "algo",
	}, time.Minute)

	_, err := loop.Start(LoopParams{UseAlgo: true})
	require.NoError(t, err)

	waitFor(t, time.Second, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.signals) > 0
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, loop.Stop(ctx))

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, "algo", store.signals[0].Source)
}
