package broker

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantdesk/internal/domain/models"
	"quantdesk/pkg/logger"
)

type fakeConnector struct {
	info          models.BrokerInfo
	connectErr    error
	failSymbols   map[string]bool
	disconnected  atomic.Bool
	executedCount atomic.Int64
}

func (f *fakeConnector) Connect(ctx context.Context) error { return f.connectErr }

func (f *fakeConnector) Disconnect(ctx context.Context) error {
	f.disconnected.Store(true)
	return nil
}

func (f *fakeConnector) ExecuteTrade(ctx context.Context, symbol string, signal *models.Signal) *models.TradeResult {
	f.executedCount.Add(1)
	if f.failSymbols[symbol] {
		return failedTrade(symbol, signal.Type, fmt.Errorf("order rejected"))
	}
	return &models.TradeResult{
		Success:  true,
		OrderID:  "ord-" + symbol,
		Quantity: 0.5,
		Price:    signal.Price,
		Symbol:   symbol,
		Type:     signal.Type,
	}
}

func (f *fakeConnector) GetAccountInfo(ctx context.Context) (*models.AccountInfo, error) {
	return &models.AccountInfo{Balance: 1000}, nil
}

func (f *fakeConnector) GetPositions(ctx context.Context) ([]models.Position, error) {
	return nil, nil
}

func (f *fakeConnector) GetMarketData(ctx context.Context, symbols []string) (map[string]*models.Tick, error) {
	return map[string]*models.Tick{}, nil
}

func (f *fakeConnector) IsConnected() bool { return !f.disconnected.Load() }

type fakeFactory struct {
	calls int
	last  *fakeConnector
	next  func(info models.BrokerInfo) *fakeConnector
}

func (ff *fakeFactory) build(info models.BrokerInfo, creds models.Credentials) (Connector, error) {
	ff.calls++
	if ff.next != nil {
		ff.last = ff.next(info)
	} else {
		ff.last = &fakeConnector{info: info}
	}
	return ff.last, nil
}

func newTestService(ff *fakeFactory) *Service {
	return NewService(ff.build, nil, nil, logger.Nop())
}

func TestConnectBrokerRejectsWrongCredentialShape(t *testing.T) {
	ff := &fakeFactory{}
	svc := newTestService(ff)

	// XM is an MT5 broker; api_key alone must be rejected before any
	// connector is even constructed.
	err := svc.ConnectBroker(context.Background(), "XM", models.Credentials{APIKey: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCredential)
	assert.Equal(t, 0, ff.calls)
	assert.Empty(t, svc.Connections())
}

func TestConnectBrokerUnknownName(t *testing.T) {
	ff := &fakeFactory{}
	svc := newTestService(ff)

	err := svc.ConnectBroker(context.Background(), "NoSuchBroker", models.Credentials{APIKey: "x"})
	require.Error(t, err)
	assert.Equal(t, 0, ff.calls)
}

func TestConnectBrokerSuccess(t *testing.T) {
	ff := &fakeFactory{}
	svc := newTestService(ff)

	err := svc.ConnectBroker(context.Background(), "Binance", models.Credentials{APIKey: "k", Secret: "s"})
	require.NoError(t, err)
	require.Equal(t, 1, ff.calls)

	conns := svc.Connections()
	require.Len(t, conns, 1)
	assert.Equal(t, "Binance", conns[0].Name)
	assert.True(t, conns[0].Active)
}

func TestReconnectReplacesExisting(t *testing.T) {
	ff := &fakeFactory{}
	svc := newTestService(ff)
	ctx := context.Background()

	require.NoError(t, svc.ConnectBroker(ctx, "Binance", models.Credentials{APIKey: "k", Secret: "s"}))
	first := ff.last

	require.NoError(t, svc.ConnectBroker(ctx, "Binance", models.Credentials{APIKey: "k2", Secret: "s2"}))
	assert.True(t, first.disconnected.Load(), "previous session should be torn down")
	assert.Len(t, svc.Connections(), 1)
	assert.Equal(t, 2, ff.calls)
}

func TestDisconnectUnknownReturnsFalse(t *testing.T) {
	ff := &fakeFactory{}
	svc := newTestService(ff)
	ctx := context.Background()

	require.NoError(t, svc.ConnectBroker(ctx, "Binance", models.Credentials{APIKey: "k", Secret: "s"}))

	assert.False(t, svc.DisconnectBroker(ctx, "Kraken"))
	assert.Len(t, svc.Connections(), 1, "unrelated connection must be untouched")

	assert.True(t, svc.DisconnectBroker(ctx, "Binance"))
	assert.Empty(t, svc.Connections())
	assert.False(t, svc.DisconnectBroker(ctx, "Binance"))
}

func TestExecuteSignalsRequiresConnection(t *testing.T) {
	ff := &fakeFactory{}
	svc := newTestService(ff)

	_, err := svc.ExecuteSignals(context.Background(), "Binance", map[string]*models.Signal{
		"BTC/USDT": {Symbol: "BTC/USDT", Type: models.SignalBuy, Strength: 0.8, Confidence: 0.9, Price: 50000},
	})
	require.ErrorIs(t, err, ErrNoConnection)
}

func TestExecuteSignalsIsolatesPerSymbolFailures(t *testing.T) {
	ff := &fakeFactory{next: func(info models.BrokerInfo) *fakeConnector {
		return &fakeConnector{info: info, failSymbols: map[string]bool{"ETH/USDT": true}}
	}}
	svc := newTestService(ff)
	ctx := context.Background()

	require.NoError(t, svc.ConnectBroker(ctx, "Binance", models.Credentials{APIKey: "k", Secret: "s"}))

	results, err := svc.ExecuteSignals(ctx, "Binance", map[string]*models.Signal{
		"BTC/USDT": {Symbol: "BTC/USDT", Type: models.SignalBuy, Strength: 0.8, Confidence: 0.9, Price: 50000},
		"ETH/USDT": {Symbol: "ETH/USDT", Type: models.SignalSell, Strength: 0.6, Confidence: 0.7, Price: 3000},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results["BTC/USDT"].Success)
	assert.Equal(t, "ord-BTC/USDT", results["BTC/USDT"].OrderID)

	assert.False(t, results["ETH/USDT"].Success)
	assert.Contains(t, results["ETH/USDT"].Error, "order rejected")

	history := svc.TradeHistory(0)
	assert.Len(t, history, 2, "both attempts are recorded")
}

func TestExecuteSignalsSkipsNilEntries(t *testing.T) {
	ff := &fakeFactory{}
	svc := newTestService(ff)
	ctx := context.Background()

	require.NoError(t, svc.ConnectBroker(ctx, "Binance", models.Credentials{APIKey: "k", Secret: "s"}))

	results, err := svc.ExecuteSignals(ctx, "Binance", map[string]*models.Signal{
		"BTC/USDT": nil,
	})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, int64(0), ff.last.executedCount.Load())
}

func TestTradeHistoryLimit(t *testing.T) {
	ff := &fakeFactory{}
	svc := newTestService(ff)
	ctx := context.Background()

	require.NoError(t, svc.ConnectBroker(ctx, "Binance", models.Credentials{APIKey: "k", Secret: "s"}))
	for i := 0; i < 5; i++ {
		_, err := svc.ExecuteSignals(ctx, "Binance", map[string]*models.Signal{
			"BTC/USDT": {Symbol: "BTC/USDT", Type: models.SignalBuy, Strength: 0.8, Confidence: 0.9, Price: 50000},
		})
		require.NoError(t, err)
	}

	assert.Len(t, svc.TradeHistory(3), 3)
	assert.Len(t, svc.TradeHistory(0), 5)
	assert.Len(t, svc.TradeHistory(100), 5)
}
