package service

import (
	"context"

	"quantdesk/internal/domain/models"
)

// SignalSource produces aggregated signals for a set of symbols.
type SignalSource interface {
	GenerateSignals(ctx context.Context, symbols []string) (map[string]*models.Signal, error)
}

// RiskFilter screens signals before execution. It must be idempotent.
type RiskFilter interface {
	Filter(ctx context.Context, signals map[string]*models.Signal, ticks map[string]*models.Tick) map[string]*models.Signal
}

// MarketData fetches current ticks for symbols.
type MarketData interface {
	GetTick(ctx context.Context, symbol string) (*models.Tick, error)
}

// Notifier delivers human-facing alerts about execution events.
type Notifier interface {
	NotifyTrade(e *models.TradeExecution)
	NotifyStatus(event, detail string)
}
