package repository

import (
	"context"
	"time"

	"quantdesk/internal/domain/models"
)

// HistoryStore persists signals, trade executions and sessions.
type HistoryStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	StoreSignal(ctx context.Context, sessionID string, s *models.Signal) error
	StoreExecution(ctx context.Context, e *models.TradeExecution) error
	StoreSession(ctx context.Context, s *models.Session) error
	QuerySignals(ctx context.Context, symbol string, limit int) ([]*models.Signal, error)
	QueryExecutions(ctx context.Context, broker string, limit int) ([]*models.TradeExecution, error)
	QuerySessions(ctx context.Context, limit int) ([]*models.Session, error)
	// PriceWindow returns the latest n observed prices for a symbol,
	// oldest first. An empty slice means no real history is available.
	PriceWindow(ctx context.Context, symbol string, n int) ([]float64, error)
	Health(ctx context.Context) error
	Close() error
}

// Broadcaster publishes trading updates to subscribers.
type Broadcaster interface {
	BroadcastSignal(ctx context.Context, s *models.Signal) error
	BroadcastExecution(ctx context.Context, e *models.TradeExecution) error
	BroadcastStatus(ctx context.Context, event string, payload interface{}) error
	Close() error
}

// SignalCache holds the most recent aggregated signal per symbol.
type SignalCache interface {
	Put(symbol string, s *models.Signal, ttl time.Duration)
	Get(symbol string) (*models.Signal, bool)
	All() map[string]*models.Signal
}

// Metrics records operational counters for observability.
type Metrics interface {
	RecordSignal(symbol, signalType string)
	RecordTrade(broker, symbol string, success bool)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordLoopIteration()
}
