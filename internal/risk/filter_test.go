package risk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantdesk/internal/domain/models"
	"quantdesk/pkg/cache"
	"quantdesk/pkg/logger"
)

func sig(symbol string, strength, confidence float64) *models.Signal {
	return &models.Signal{
		Symbol:     symbol,
		Type:       models.SignalBuy,
		Strength:   strength,
		Confidence: confidence,
		Price:      100,
	}
}

func tick(price float64) *models.Tick {
	return &models.Tick{Price: price, Timestamp: time.Now()}
}

func TestFilterConfidenceFloor(t *testing.T) {
	f := NewThresholdFilter(Options{MinConfidence: 0.5}, nil, logger.Nop())

	signals := map[string]*models.Signal{
		"BTC/USDT": sig("BTC/USDT", 0.8, 0.6),
		"ETH/USDT": sig("ETH/USDT", 0.9, 0.4),
	}
	ticks := map[string]*models.Tick{
		"BTC/USDT": tick(50000),
		"ETH/USDT": tick(3000),
	}

	out := f.Filter(context.Background(), signals, ticks)
	require.Len(t, out, 1)
	assert.Contains(t, out, "BTC/USDT")
	assert.Len(t, signals, 2, "input must not be mutated")
}

func TestFilterDropsWithoutMarketData(t *testing.T) {
	f := NewThresholdFilter(Options{}, nil, logger.Nop())

	signals := map[string]*models.Signal{
		"BTC/USDT": sig("BTC/USDT", 0.8, 0.9),
		"ETH/USDT": sig("ETH/USDT", 0.8, 0.9),
		"XRP/USDT": sig("XRP/USDT", 0.8, 0.9),
	}
	ticks := map[string]*models.Tick{
		"BTC/USDT": tick(50000),
		"ETH/USDT": tick(0),
	}

	out := f.Filter(context.Background(), signals, ticks)
	require.Len(t, out, 1)
	assert.Contains(t, out, "BTC/USDT")
}

func TestFilterCapsBatchAtStrongest(t *testing.T) {
	f := NewThresholdFilter(Options{MaxSignals: 2}, nil, logger.Nop())

	signals := map[string]*models.Signal{
		"AAA": sig("AAA", 0.9, 0.9), // 0.81
		"BBB": sig("BBB", 0.5, 0.5), // 0.25
		"CCC": sig("CCC", 0.8, 0.8), // 0.64
	}
	ticks := map[string]*models.Tick{
		"AAA": tick(1), "BBB": tick(1), "CCC": tick(1),
	}

	out := f.Filter(context.Background(), signals, ticks)
	require.Len(t, out, 2)
	assert.Contains(t, out, "AAA")
	assert.Contains(t, out, "CCC")
}

func TestFilterSymbolCooldown(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()

	f := NewThresholdFilter(Options{SymbolCooldown: time.Minute}, mem, logger.Nop())
	ctx := context.Background()

	signals := map[string]*models.Signal{"BTC/USDT": sig("BTC/USDT", 0.8, 0.9)}
	ticks := map[string]*models.Tick{"BTC/USDT": tick(50000)}

	first := f.Filter(ctx, signals, ticks)
	require.Len(t, first, 1)

	second := f.Filter(ctx, signals, ticks)
	assert.Empty(t, second, "second pass within the cooldown window is dropped")
}

func TestFilterPassesAllWhenDisabled(t *testing.T) {
	f := NewThresholdFilter(Options{}, nil, logger.Nop())

	signals := map[string]*models.Signal{
		"BTC/USDT": sig("BTC/USDT", 0.1, 0.1),
		"ETH/USDT": nil,
	}
	ticks := map[string]*models.Tick{"BTC/USDT": tick(50000), "ETH/USDT": tick(3000)}

	out := f.Filter(context.Background(), signals, ticks)
	require.Len(t, out, 1)
	assert.Contains(t, out, "BTC/USDT")
}
