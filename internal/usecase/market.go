package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quantdesk/internal/broker"
	"quantdesk/internal/domain/models"
	"quantdesk/pkg/logger"
)

const defaultTickTTL = 5 * time.Second

type cachedTick struct {
	tick *models.Tick
	exp  time.Time
}

// MarketProvider serves current ticks out of the connected brokers,
// with a short TTL cache so one loop iteration and the request path
// share a single fetch.
type MarketProvider struct {
	brokers *broker.Service
	ttl     time.Duration
	logger  *logger.Logger

	mu    sync.Mutex
	ticks map[string]cachedTick
}

func NewMarketProvider(brokers *broker.Service, ttl time.Duration, lgr *logger.Logger) *MarketProvider {
	if ttl <= 0 {
		ttl = defaultTickTTL
	}
	return &MarketProvider{
		brokers: brokers,
		ttl:     ttl,
		logger:  lgr,
		ticks:   make(map[string]cachedTick),
	}
}

// GetTick returns the current tick for one symbol.
func (m *MarketProvider) GetTick(ctx context.Context, symbol string) (*models.Tick, error) {
	snap := m.Snapshot(ctx, []string{symbol})
	tick, ok := snap[symbol]
	if !ok {
		return nil, fmt.Errorf("no market data for %s", symbol)
	}
	return tick, nil
}

// Snapshot returns ticks for the requested symbols. Cached entries are
// reused; the rest are fetched from each active broker in turn until a
// quote is found. Symbols nobody can quote are absent from the result.
func (m *MarketProvider) Snapshot(ctx context.Context, symbols []string) map[string]*models.Tick {
	now := time.Now()
	out := make(map[string]*models.Tick, len(symbols))
	missing := make([]string, 0, len(symbols))

	m.mu.Lock()
	for _, symbol := range symbols {
		if c, ok := m.ticks[symbol]; ok && now.Before(c.exp) {
			out[symbol] = c.tick
		} else {
			missing = append(missing, symbol)
		}
	}
	m.mu.Unlock()

	if len(missing) == 0 {
		return out
	}

	for _, conn := range m.brokers.Connections() {
		if len(missing) == 0 {
			break
		}

		fetched, err := m.brokers.GetMarketData(ctx, conn.Name, missing)
		if err != nil {
			m.logger.Warn("market data fetch failed",
				logger.String("broker", conn.Name),
				logger.Error(err))
			continue
		}

		still := missing[:0]
		for _, symbol := range missing {
			if tick, ok := fetched[symbol]; ok && tick != nil && tick.Price > 0 {
				out[symbol] = tick
			} else {
				still = append(still, symbol)
			}
		}
		missing = still
	}

	m.mu.Lock()
	exp := now.Add(m.ttl)
	for symbol, tick := range out {
		m.ticks[symbol] = cachedTick{tick: tick, exp: exp}
	}
	m.mu.Unlock()

	return out
}
