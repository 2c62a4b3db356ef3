package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantdesk/internal/domain/models"
)

func TestSignalCachePutGet(t *testing.T) {
	c := NewSignalCache()

	s := &models.Signal{Symbol: "BTC/USDT", Type: models.SignalBuy, Strength: 0.8}
	c.Put("BTC/USDT", s, 0)

	got, ok := c.Get("BTC/USDT")
	require.True(t, ok)
	assert.Equal(t, s, got)

	_, ok = c.Get("ETH/USDT")
	assert.False(t, ok)
}

func TestSignalCacheExpiry(t *testing.T) {
	c := NewSignalCache()

	c.Put("BTC/USDT", &models.Signal{Symbol: "BTC/USDT"}, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("BTC/USDT")
	assert.False(t, ok)
	assert.Empty(t, c.All())
}

func TestSignalCacheAllPrunes(t *testing.T) {
	c := NewSignalCache()

	c.Put("BTC/USDT", &models.Signal{Symbol: "BTC/USDT"}, time.Hour)
	c.Put("ETH/USDT", &models.Signal{Symbol: "ETH/USDT"}, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	all := c.All()
	require.Len(t, all, 1)
	assert.Contains(t, all, "BTC/USDT")
}
