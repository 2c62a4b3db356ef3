package features

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantdesk/internal/domain/models"
	"quantdesk/pkg/logger"
)

type fixedHistory struct {
	window []float64
}

func (f *fixedHistory) PriceWindow(_ context.Context, _ string, _ int) ([]float64, error) {
	return f.window, nil
}

func tick(symbol string, price float64) *models.Tick {
	return &models.Tick{
		Symbol:    symbol,
		Price:     price,
		Volume:    1000,
		Bid:       price - 0.5,
		Ask:       price + 0.5,
		High:      price * 1.01,
		Low:       price * 0.99,
		Change:    1.2,
		ChangePct: 0.8,
		Timestamp: time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC),
	}
}

func TestBuildConstantLength(t *testing.T) {
	long := make([]float64, 60)
	for i := range long {
		long[i] = 100 + float64(i)
	}

	cases := map[string][]float64{
		"long window":  long,
		"short window": {100, 101, 102},
	}

	for name, window := range cases {
		t.Run(name, func(t *testing.T) {
			b := NewBuilder(&fixedHistory{window: window}, logger.Nop())
			vec, synthetic, err := b.Build(context.Background(), tick("EURUSD", 103), nil)
			require.NoError(t, err)
			assert.False(t, synthetic)
			assert.Len(t, vec, VectorLength)
		})
	}
}

func TestBuildShortWindowDefaults(t *testing.T) {
	b := NewBuilder(&fixedHistory{window: []float64{100, 101}}, logger.Nop())
	vec, _, err := b.Build(context.Background(), tick("EURUSD", 102), nil)
	require.NoError(t, err)

	// indicator block starts at offset 10
	assert.Equal(t, 102.0, vec[10], "sma10 falls back to latest price")
	assert.Equal(t, 102.0, vec[11], "sma20 falls back to latest price")
	assert.Equal(t, 50.0, vec[13], "rsi defaults to neutral")
	assert.Equal(t, 0.0, vec[14], "macd defaults to zero")
	assert.Equal(t, 0.5, vec[17], "bollinger position defaults to midpoint")
	assert.Equal(t, 50.0, vec[18], "stochastic k defaults to neutral")
}

func TestBuildRejectsUnusablePrice(t *testing.T) {
	b := NewBuilder(nil, logger.Nop())

	_, _, err := b.Build(context.Background(), tick("EURUSD", 0), nil)
	assert.ErrorIs(t, err, ErrFeatureBuild)

	_, _, err = b.Build(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrFeatureBuild)
}

func TestBuildSyntheticFallback(t *testing.T) {
	b := NewBuilder(nil, logger.Nop())

	vec1, synthetic, err := b.Build(context.Background(), tick("BTCUSD", 50000), nil)
	require.NoError(t, err)
	assert.True(t, synthetic)

	// deterministic per symbol
	vec2, _, err := b.Build(context.Background(), tick("BTCUSD", 50000), nil)
	require.NoError(t, err)
	assert.Equal(t, vec1, vec2)
}

func TestBuildTimeEncodings(t *testing.T) {
	b := NewBuilder(&fixedHistory{window: []float64{100, 101}}, logger.Nop())
	vec, _, err := b.Build(context.Background(), tick("EURUSD", 102), nil)
	require.NoError(t, err)

	assert.InDelta(t, 14.0/24.0, vec[20], 1e-9)
	assert.InDelta(t, float64(time.Tuesday)/6.0, vec[21], 1e-9)
	assert.InDelta(t, 3.0/12.0, vec[22], 1e-9)
}

func TestScalerTransform(t *testing.T) {
	s := &Scaler{Mean: []float64{1, 2}, Std: []float64{2, 0}}
	v := []float64{5, 5}
	s.Transform(v)
	assert.Equal(t, []float64{2, 3}, v)
}
