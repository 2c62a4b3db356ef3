package broker

import (
	"context"
	"errors"
	"fmt"

	"quantdesk/internal/domain/models"
)

var (
	// ErrCredential means credentials are malformed or missing. No
	// network I/O is attempted after this error.
	ErrCredential = errors.New("invalid broker credentials")
	// ErrNotImplemented is reported by stub connectors for broker
	// families without a live integration.
	ErrNotImplemented = errors.New("connector not implemented")
	// ErrNotConnected means the connector has no live session.
	ErrNotConnected = errors.New("broker not connected")
)

// Connector is the uniform capability set one broker family implements.
// ExecuteTrade never returns an error; failures are carried inside the
// TradeResult.
type Connector interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	ExecuteTrade(ctx context.Context, symbol string, signal *models.Signal) *models.TradeResult
	GetAccountInfo(ctx context.Context) (*models.AccountInfo, error)
	GetPositions(ctx context.Context) ([]models.Position, error)
	GetMarketData(ctx context.Context, symbols []string) (map[string]*models.Tick, error)
	IsConnected() bool
}

// ValidateCredentials checks the fields a broker family requires.
// Validation happens before any connector is constructed.
func ValidateCredentials(info models.BrokerInfo, creds models.Credentials) error {
	switch info.Family {
	case models.FamilyMT5:
		if creds.Login == "" || creds.Password == "" || creds.Server == "" {
			return fmt.Errorf("%w: %s requires login, password and server", ErrCredential, info.Name)
		}
	case models.FamilyExchange:
		if creds.APIKey == "" || creds.Secret == "" {
			return fmt.Errorf("%w: %s requires api_key and secret", ErrCredential, info.Name)
		}
	default:
		if creds.APIKey == "" {
			return fmt.Errorf("%w: %s requires api_key", ErrCredential, info.Name)
		}
	}
	return nil
}

func failedTrade(symbol string, sigType models.SignalType, err error) *models.TradeResult {
	return &models.TradeResult{
		Success: false,
		Symbol:  symbol,
		Type:    sigType,
		Error:   err.Error(),
	}
}
