package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalcache "quantdesk/internal/cache"
	"quantdesk/internal/domain/models"
	"quantdesk/pkg/logger"
)

func TestAlgoSignalHandlerCachesValidSignal(t *testing.T) {
	cache := internalcache.NewSignalCache()
	h := NewAlgoSignalHandler("algo.signals", cache, time.Minute, logger.Nop())

	assert.Equal(t, "algo.signals", h.Topic())

	payload := []byte(`{"symbol":"BTC/USDT","type":"buy","strength":0.8,"confidence":0.9,"price":50000}`)
	require.NoError(t, h.Handle(context.Background(), payload))

	got, ok := cache.Get("BTC/USDT")
	require.True(t, ok)
	assert.Equal(t, models.SignalBuy, got.Type)
	assert.Equal(t, "algo", got.Source)
	assert.False(t, got.Timestamp.IsZero())
}

func TestAlgoSignalHandlerRejectsMalformed(t *testing.T) {
	cache := internalcache.NewSignalCache()
	h := NewAlgoSignalHandler("algo.signals", cache, time.Minute, logger.Nop())
	ctx := context.Background()

	cases := map[string]string{
		"not json":       `{`,
		"missing symbol": `{"type":"buy","strength":0.5,"confidence":0.5}`,
		"bad type":       `{"symbol":"BTC/USDT","type":"hold","strength":0.5,"confidence":0.5}`,
		"out of range":   `{"symbol":"BTC/USDT","type":"buy","strength":1.5,"confidence":0.5}`,
	}
	for name, payload := range cases {
		assert.Error(t, h.Handle(ctx, []byte(payload)), name)
	}
	assert.Empty(t, cache.All())
}

func TestAlgoSignalHandlerKeepsFreshest(t *testing.T) {
	cache := internalcache.NewSignalCache()
	h := NewAlgoSignalHandler("algo.signals", cache, time.Minute, logger.Nop())
	ctx := context.Background()

	require.NoError(t, h.Handle(ctx, []byte(`{"symbol":"BTC/USDT","type":"buy","strength":0.6,"confidence":0.6}`)))
	require.NoError(t, h.Handle(ctx, []byte(`{"symbol":"BTC/USDT","type":"sell","strength":0.9,"confidence":0.8}`)))

	got, ok := cache.Get("BTC/USDT")
	require.True(t, ok)
	assert.Equal(t, models.SignalSell, got.Type)
	assert.Equal(t, 0.9, got.Strength)
}
