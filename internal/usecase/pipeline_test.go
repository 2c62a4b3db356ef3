package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantdesk/internal/domain/models"
	"quantdesk/internal/ml"
	"quantdesk/internal/ml/features"
	"quantdesk/pkg/logger"
)

type fakeMarket struct {
	ticks map[string]*models.Tick
}

func (f *fakeMarket) GetTick(ctx context.Context, symbol string) (*models.Tick, error) {
	tick, ok := f.ticks[symbol]
	if !ok {
		return nil, fmt.Errorf("no quote for %s", symbol)
	}
	return tick, nil
}

type fakeMetrics struct {
	mu      sync.Mutex
	signals int
	errors  map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{errors: make(map[string]int)}
}

func (f *fakeMetrics) RecordSignal(symbol, signalType string) {
	f.mu.Lock()
	f.signals++
	f.mu.Unlock()
}

func (f *fakeMetrics) RecordTrade(broker, symbol string, success bool) {}

func (f *fakeMetrics) RecordError(kind string) {
	f.mu.Lock()
	f.errors[kind]++
	f.mu.Unlock()
}

func (f *fakeMetrics) RecordLastPrice(symbol string, price float64) {}
func (f *fakeMetrics) RecordLatency(op string, seconds float64)     {}
func (f *fakeMetrics) RecordLoopIteration()                         {}

type fixedHistory struct {
	window []float64
}

func (f *fixedHistory) PriceWindow(ctx context.Context, symbol string, n int) ([]float64, error) {
	return f.window, nil
}

func newTestRegistry(t *testing.T) *ml.Registry {
	t.Helper()

	reg := ml.NewRegistry(t.TempDir(), nil, logger.Nop())
	require.NoError(t, reg.LoadAll())
	return reg
}

func register(t *testing.T, reg *ml.Registry, name string, kind models.ModelKind, spec ml.PredictorSpec) {
	t.Helper()

	err := reg.Register(models.ModelInfo{
		Name:      name,
		Kind:      kind,
		Algorithm: spec.Type,
		CreatedAt: time.Now(),
	}, spec, nil)
	require.NoError(t, err)
}

func testPipeline(t *testing.T, reg *ml.Registry, market *fakeMarket) (*SignalPipeline, *fakeMetrics) {
	t.Helper()

	window := make([]float64, 60)
	for i := range window {
		window[i] = 100 + float64(i)*0.1
	}
	builder := features.NewBuilder(&fixedHistory{window: window}, logger.Nop())
	metrics := newFakeMetrics()
	return NewSignalPipeline(reg, builder, market, metrics, logger.Nop()), metrics
}

func TestPipelineGeneratesBuySignal(t *testing.T) {
	reg := newTestRegistry(t)
	// constant regression output 0.9 regardless of features
	register(t, reg, "trend", models.KindRegressor, ml.PredictorSpec{
		Type:    "linear",
		Weights: []float64{0},
		Bias:    0.9,
	})

	market := &fakeMarket{ticks: map[string]*models.Tick{
		"BTC/USDT": {Symbol: "BTC/USDT", Price: 50000, Bid: 49990, Ask: 50010, Timestamp: time.Now()},
	}}
	pipeline, metrics := testPipeline(t, reg, market)

	out, err := pipeline.GenerateSignals(context.Background(), []string{"BTC/USDT"})
	require.NoError(t, err)
	require.Len(t, out, 1)

	signal := out["BTC/USDT"]
	assert.Equal(t, models.SignalBuy, signal.Type)
	assert.Equal(t, 50000.0, signal.Price)
	assert.Equal(t, "ml", signal.Source)
	require.Len(t, signal.Models, 1)
	assert.Equal(t, "trend", signal.Models[0].Model)

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	assert.Equal(t, 1, metrics.signals)
}

func TestPipelineNoConsensusYieldsNothing(t *testing.T) {
	reg := newTestRegistry(t)
	// weak regression output: weighted strength stays under the bar
	register(t, reg, "weak", models.KindRegressor, ml.PredictorSpec{
		Type:    "linear",
		Weights: []float64{0},
		Bias:    0.3,
	})

	market := &fakeMarket{ticks: map[string]*models.Tick{
		"BTC/USDT": {Symbol: "BTC/USDT", Price: 50000, Timestamp: time.Now()},
	}}
	pipeline, _ := testPipeline(t, reg, market)

	out, err := pipeline.GenerateSignals(context.Background(), []string{"BTC/USDT"})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestPipelineSkipsSymbolsWithoutMarketData(t *testing.T) {
	reg := newTestRegistry(t)
	register(t, reg, "trend", models.KindRegressor, ml.PredictorSpec{
		Type:    "linear",
		Weights: []float64{0},
		Bias:    0.9,
	})

	market := &fakeMarket{ticks: map[string]*models.Tick{
		"BTC/USDT": {Symbol: "BTC/USDT", Price: 50000, Timestamp: time.Now()},
	}}
	pipeline, metrics := testPipeline(t, reg, market)

	out, err := pipeline.GenerateSignals(context.Background(), []string{"BTC/USDT", "ETH/USDT"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Contains(t, out, "BTC/USDT")

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	assert.Equal(t, 1, metrics.errors["market_data"])
}

func TestPipelineHonorsModelFilter(t *testing.T) {
	reg := newTestRegistry(t)
	register(t, reg, "bull", models.KindRegressor, ml.PredictorSpec{
		Type: "linear", Weights: []float64{0}, Bias: 0.9,
	})
	// alone: 0.75*0.6=0.45 clears the bar; against bull it loses
	register(t, reg, "bear", models.KindRegressor, ml.PredictorSpec{
		Type: "linear", Weights: []float64{0}, Bias: -0.75,
	})

	market := &fakeMarket{ticks: map[string]*models.Tick{
		"BTC/USDT": {Symbol: "BTC/USDT", Price: 50000, Timestamp: time.Now()},
	}}
	pipeline, _ := testPipeline(t, reg, market)

	signal, err := pipeline.GenerateForSymbol(context.Background(), "BTC/USDT", []string{"bear"})
	require.NoError(t, err)
	require.NotNil(t, signal)
	assert.Equal(t, models.SignalSell, signal.Type)
	require.Len(t, signal.Models, 1)
	assert.Equal(t, "bear", signal.Models[0].Model)

	signal, err = pipeline.GenerateForSymbol(context.Background(), "BTC/USDT", nil)
	require.NoError(t, err)
	require.NotNil(t, signal)
	assert.Equal(t, models.SignalBuy, signal.Type)
	assert.Len(t, signal.Models, 2, "empty filter means every model votes")
}

func TestPipelineMixedVotes(t *testing.T) {
	reg := newTestRegistry(t)
	register(t, reg, "bull", models.KindRegressor, ml.PredictorSpec{
		Type: "linear", Weights: []float64{0}, Bias: 0.9,
	})
	register(t, reg, "bear", models.KindRegressor, ml.PredictorSpec{
		Type: "linear", Weights: []float64{0}, Bias: -0.2,
	})

	market := &fakeMarket{ticks: map[string]*models.Tick{
		"BTC/USDT": {Symbol: "BTC/USDT", Price: 50000, Timestamp: time.Now()},
	}}
	pipeline, _ := testPipeline(t, reg, market)

	out, err := pipeline.GenerateSignals(context.Background(), []string{"BTC/USDT"})
	require.NoError(t, err)
	require.Len(t, out, 1)

	// buy mean 0.9*0.72=0.648 beats sell mean 0.2*0.16=0.032
	signal := out["BTC/USDT"]
	assert.Equal(t, models.SignalBuy, signal.Type)
	assert.Len(t, signal.Models, 2)
}
