package broker

import (
	"context"
	"fmt"

	"quantdesk/internal/domain/models"
)

// StubConnector covers catalog brokers without a live integration.
// Every operation deterministically reports "not implemented" instead
// of silently succeeding.
type StubConnector struct {
	info models.BrokerInfo
}

// NewStubConnector creates a stub for a declared but unimplemented broker.
func NewStubConnector(info models.BrokerInfo) *StubConnector {
	return &StubConnector{info: info}
}

func (c *StubConnector) Connect(_ context.Context) error {
	return fmt.Errorf("%w: %s", ErrNotImplemented, c.info.Name)
}

func (c *StubConnector) Disconnect(_ context.Context) error {
	return fmt.Errorf("%w: %s", ErrNotImplemented, c.info.Name)
}

func (c *StubConnector) IsConnected() bool { return false }

func (c *StubConnector) ExecuteTrade(_ context.Context, symbol string, signal *models.Signal) *models.TradeResult {
	return failedTrade(symbol, signal.Type, fmt.Errorf("%w: %s", ErrNotImplemented, c.info.Name))
}

func (c *StubConnector) GetAccountInfo(_ context.Context) (*models.AccountInfo, error) {
	return nil, fmt.Errorf("%w: %s", ErrNotImplemented, c.info.Name)
}

func (c *StubConnector) GetPositions(_ context.Context) ([]models.Position, error) {
	return nil, fmt.Errorf("%w: %s", ErrNotImplemented, c.info.Name)
}

func (c *StubConnector) GetMarketData(_ context.Context, _ []string) (map[string]*models.Tick, error) {
	return nil, fmt.Errorf("%w: %s", ErrNotImplemented, c.info.Name)
}
