package broker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"quantdesk/internal/domain/models"
	"quantdesk/internal/domain/repository"
	xhttp "quantdesk/pkg/http"
	"quantdesk/pkg/logger"
)

// ErrNoConnection means the named broker has no active connection.
var ErrNoConnection = errors.New("no connection to broker")

// Factory builds a connector for a catalog entry. Injected so tests can
// substitute fakes.
type Factory func(info models.BrokerInfo, creds models.Credentials) (Connector, error)

// Config holds connector construction settings.
type Config struct {
	BridgeURL      string
	BaseVolume     float64
	BaseNotional   float64
	RequestTimeout time.Duration
}

// DefaultFactory selects the connector implementation by family tag.
func DefaultFactory(cfg Config, lgr *logger.Logger) Factory {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := xhttp.NewClient(xhttp.WithTimeout(timeout))

	return func(info models.BrokerInfo, creds models.Credentials) (Connector, error) {
		switch info.Family {
		case models.FamilyMT5:
			return NewMT5Connector(info, creds, client, cfg.BridgeURL, cfg.BaseVolume, lgr), nil
		case models.FamilyExchange:
			return NewExchangeConnector(info, creds, cfg.BaseNotional, lgr), nil
		case models.FamilyStub:
			return NewStubConnector(info), nil
		default:
			return nil, fmt.Errorf("unknown broker family %q", info.Family)
		}
	}
}

// ConnectionInfo is the externally visible state of one connection.
type ConnectionInfo struct {
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	ConnectedAt time.Time `json:"connected_at"`
	Active      bool      `json:"active"`
}

type connection struct {
	info        models.BrokerInfo
	connector   Connector
	connectedAt time.Time
	active      bool
}

// Service owns named broker connections and routes execution, account
// and market data calls to the right connector.
type Service struct {
	mu      sync.RWMutex
	conns   map[string]*connection
	factory Factory
	store   repository.HistoryStore
	metrics repository.Metrics
	logger  *logger.Logger

	histMu  sync.Mutex
	history []models.TradeExecution
}

// NewService creates a broker service. store and metrics may be nil.
func NewService(factory Factory, store repository.HistoryStore, metrics repository.Metrics, lgr *logger.Logger) *Service {
	return &Service{
		conns:   make(map[string]*connection),
		factory: factory,
		store:   store,
		metrics: metrics,
		logger:  lgr,
	}
}

// SupportedBrokers lists the static catalog sorted by name.
func (s *Service) SupportedBrokers() []models.BrokerInfo {
	out := SupportedBrokers()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ConnectBroker validates credentials, builds the connector and opens
// the session. A prior entry under the same name is replaced, never
// duplicated.
func (s *Service) ConnectBroker(ctx context.Context, name string, creds models.Credentials) error {
	info, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("broker %q not supported", name)
	}

	if err := ValidateCredentials(info, creds); err != nil {
		s.logger.Warn("credential validation failed", logger.String("broker", name))
		return err
	}

	conn, err := s.factory(info, creds)
	if err != nil {
		return err
	}

	if err := conn.Connect(ctx); err != nil {
		s.logger.Error("broker connect failed",
			logger.String("broker", name),
			logger.Error(err))
		return err
	}

	s.mu.Lock()
	if prev, exists := s.conns[name]; exists && prev.active {
		// reconnect replaces the mapping; tear down the old session
		_ = prev.connector.Disconnect(ctx)
	}
	s.conns[name] = &connection{
		info:        info,
		connector:   conn,
		connectedAt: time.Now().UTC(),
		active:      true,
	}
	s.mu.Unlock()

	s.logger.Info("broker connected", logger.String("broker", name))
	return nil
}

// DisconnectBroker tears down the named connection. Returns false
// without mutating state when no active connection exists.
func (s *Service) DisconnectBroker(ctx context.Context, name string) bool {
	s.mu.Lock()
	conn, ok := s.conns[name]
	if !ok {
		s.mu.Unlock()
		s.logger.Warn("no active connection", logger.String("broker", name))
		return false
	}
	conn.active = false
	delete(s.conns, name)
	s.mu.Unlock()

	if err := conn.connector.Disconnect(ctx); err != nil {
		s.logger.Warn("broker disconnect error",
			logger.String("broker", name),
			logger.Error(err))
	}

	s.logger.Info("broker disconnected", logger.String("broker", name))
	return true
}

// Connections lists active connections.
func (s *Service) Connections() []ConnectionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ConnectionInfo, 0, len(s.conns))
	for name, c := range s.conns {
		out = append(out, ConnectionInfo{
			Name:        name,
			Type:        c.info.Type,
			ConnectedAt: c.connectedAt,
			Active:      c.active,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ExecuteSignals executes one signal per symbol on the named broker.
// Failures are isolated per symbol; the batch never aborts.
func (s *Service) ExecuteSignals(ctx context.Context, name string, signals map[string]*models.Signal) (map[string]*models.TradeResult, error) {
	conn, err := s.activeConnection(name)
	if err != nil {
		return nil, err
	}

	results := make(map[string]*models.TradeResult, len(signals))
	for symbol, signal := range signals {
		if signal == nil {
			continue
		}

		result := conn.connector.ExecuteTrade(ctx, symbol, signal)
		results[symbol] = result

		if s.metrics != nil {
			s.metrics.RecordTrade(name, symbol, result.Success)
		}
		s.recordExecution(ctx, name, symbol, signal, result)
	}

	return results, nil
}

func (s *Service) recordExecution(ctx context.Context, broker, symbol string, signal *models.Signal, result *models.TradeResult) {
	exec := models.TradeExecution{
		ID:         uuid.NewString(),
		BrokerName: broker,
		Symbol:     symbol,
		SignalType: signal.Type,
		Quantity:   result.Quantity,
		Price:      result.Price,
		OrderID:    result.OrderID,
		Success:    result.Success,
		Error:      result.Error,
		ExecutedAt: time.Now().UTC(),
	}

	s.histMu.Lock()
	s.history = append(s.history, exec)
	if len(s.history) > 1000 {
		s.history = s.history[len(s.history)-1000:]
	}
	s.histMu.Unlock()

	if s.store != nil {
		if err := s.store.StoreExecution(ctx, &exec); err != nil {
			s.logger.Warn("execution persist failed",
				logger.String("broker", broker),
				logger.String("symbol", symbol),
				logger.Error(err))
		}
	}
}

// TradeHistory returns the most recent executions, newest last.
func (s *Service) TradeHistory(limit int) []models.TradeExecution {
	s.histMu.Lock()
	defer s.histMu.Unlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	out := make([]models.TradeExecution, limit)
	copy(out, s.history[len(s.history)-limit:])
	return out
}

// GetAccountInfo proxies to the named connector.
func (s *Service) GetAccountInfo(ctx context.Context, name string) (*models.AccountInfo, error) {
	conn, err := s.activeConnection(name)
	if err != nil {
		return nil, err
	}
	return conn.connector.GetAccountInfo(ctx)
}

// GetPositions proxies to the named connector.
func (s *Service) GetPositions(ctx context.Context, name string) ([]models.Position, error) {
	conn, err := s.activeConnection(name)
	if err != nil {
		return nil, err
	}
	return conn.connector.GetPositions(ctx)
}

// GetMarketData proxies to the named connector.
func (s *Service) GetMarketData(ctx context.Context, name string, symbols []string) (map[string]*models.Tick, error) {
	conn, err := s.activeConnection(name)
	if err != nil {
		return nil, err
	}
	return conn.connector.GetMarketData(ctx, symbols)
}

func (s *Service) activeConnection(name string) (*connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conn, ok := s.conns[name]
	if !ok || !conn.active {
		return nil, fmt.Errorf("%w: %s", ErrNoConnection, name)
	}
	return conn, nil
}
