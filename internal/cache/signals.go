package cache

import (
	"sync"
	"time"

	"quantdesk/internal/domain/models"
)

type entry struct {
	signal *models.Signal
	exp    time.Time
}

// SignalCache keeps the most recent aggregated signal per symbol with a
// per-entry TTL. Expired entries are dropped lazily on read.
type SignalCache struct {
	mu sync.RWMutex
	m  map[string]entry
}

func NewSignalCache() *SignalCache {
	return &SignalCache{m: make(map[string]entry)}
}

func (c *SignalCache) Put(symbol string, s *models.Signal, ttl time.Duration) {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.m[symbol] = entry{signal: s, exp: exp}
	c.mu.Unlock()
}

func (c *SignalCache) Get(symbol string) (*models.Signal, bool) {
	c.mu.RLock()
	e, ok := c.m[symbol]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		c.mu.Lock()
		delete(c.m, symbol)
		c.mu.Unlock()
		return nil, false
	}
	return e.signal, true
}

// All returns the live entries, pruning anything expired.
func (c *SignalCache) All() map[string]*models.Signal {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]*models.Signal, len(c.m))
	for symbol, e := range c.m {
		if !e.exp.IsZero() && now.After(e.exp) {
			delete(c.m, symbol)
			continue
		}
		out[symbol] = e.signal
	}
	return out
}
