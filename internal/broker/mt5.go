package broker

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"quantdesk/internal/domain/models"
	xhttp "quantdesk/pkg/http"
	"quantdesk/pkg/logger"
)

// MT5Connector talks to a MetaTrader 5 terminal through its HTTP
// bridge. Lot volume scales linearly with signal strength against the
// configured base volume; orders go out at best ask (buy) or bid (sell).
type MT5Connector struct {
	info       models.BrokerInfo
	creds      models.Credentials
	client     *xhttp.Client
	bridgeURL  string
	baseVolume float64
	logger     *logger.Logger
	connected  atomic.Bool
}

// NewMT5Connector creates a connector against the MT5 HTTP bridge.
func NewMT5Connector(info models.BrokerInfo, creds models.Credentials, client *xhttp.Client, bridgeURL string, baseVolume float64, lgr *logger.Logger) *MT5Connector {
	if baseVolume <= 0 {
		baseVolume = 0.1
	}
	return &MT5Connector{
		info:       info,
		creds:      creds,
		client:     client,
		bridgeURL:  strings.TrimRight(bridgeURL, "/"),
		baseVolume: baseVolume,
		logger:     lgr,
	}
}

type mt5LoginResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (c *MT5Connector) Connect(ctx context.Context) error {
	var resp mt5LoginResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.bridgeURL + "/login",
		Body: map[string]string{
			"login":    c.creds.Login,
			"password": c.creds.Password,
			"server":   c.creds.Server,
		},
	}, &resp)
	if err != nil {
		return fmt.Errorf("mt5 bridge login: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("mt5 login rejected: %s", resp.Error)
	}

	c.connected.Store(true)
	c.logger.Info("mt5 connected",
		logger.String("broker", c.info.Name),
		logger.String("server", c.creds.Server))
	return nil
}

func (c *MT5Connector) Disconnect(ctx context.Context) error {
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.bridgeURL + "/logout",
	}, nil)
	c.connected.Store(false)
	if err != nil {
		return fmt.Errorf("mt5 bridge logout: %w", err)
	}
	return nil
}

func (c *MT5Connector) IsConnected() bool {
	return c.connected.Load()
}

type mt5Tick struct {
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	Last   float64 `json:"last"`
	Volume float64 `json:"volume"`
	Time   int64   `json:"time"`
}

type mt5OrderResponse struct {
	Success bool    `json:"success"`
	OrderID string  `json:"order_id"`
	Price   float64 `json:"price"`
	Error   string  `json:"error"`
}

func (c *MT5Connector) ExecuteTrade(ctx context.Context, symbol string, signal *models.Signal) *models.TradeResult {
	if !c.connected.Load() {
		return failedTrade(symbol, signal.Type, ErrNotConnected)
	}

	tick, err := c.fetchTick(ctx, symbol)
	if err != nil {
		return failedTrade(symbol, signal.Type, fmt.Errorf("no price data for %s: %w", symbol, err))
	}

	volume := c.baseVolume * signal.Strength
	price := tick.Ask
	if signal.Type == models.SignalSell {
		price = tick.Bid
	}

	var resp mt5OrderResponse
	err = c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.bridgeURL + "/order",
		Body: map[string]interface{}{
			"symbol":    symbol,
			"type":      string(signal.Type),
			"volume":    volume,
			"price":     price,
			"deviation": 20,
			"comment":   "bot signal - " + signal.Source,
		},
	}, &resp)
	if err != nil {
		return failedTrade(symbol, signal.Type, err)
	}
	if !resp.Success {
		return failedTrade(symbol, signal.Type, fmt.Errorf("order failed: %s", resp.Error))
	}

	filled := resp.Price
	if filled == 0 {
		filled = price
	}
	return &models.TradeResult{
		Success:  true,
		OrderID:  resp.OrderID,
		Quantity: volume,
		Price:    filled,
		Symbol:   symbol,
		Type:     signal.Type,
	}
}

func (c *MT5Connector) GetAccountInfo(ctx context.Context) (*models.AccountInfo, error) {
	if !c.connected.Load() {
		return nil, ErrNotConnected
	}

	var acc struct {
		Balance  float64 `json:"balance"`
		Equity   float64 `json:"equity"`
		Margin   float64 `json:"margin"`
		Currency string  `json:"currency"`
		Leverage int     `json:"leverage"`
		Login    string  `json:"login"`
	}
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.bridgeURL + "/account",
	}, &acc)
	if err != nil {
		return nil, fmt.Errorf("mt5 account info: %w", err)
	}

	return &models.AccountInfo{
		Balance:   acc.Balance,
		Equity:    acc.Equity,
		Margin:    acc.Margin,
		Currency:  acc.Currency,
		Leverage:  acc.Leverage,
		AccountID: acc.Login,
	}, nil
}

func (c *MT5Connector) GetPositions(ctx context.Context) ([]models.Position, error) {
	if !c.connected.Load() {
		return nil, ErrNotConnected
	}

	var raw []struct {
		Symbol       string  `json:"symbol"`
		Type         string  `json:"type"`
		Volume       float64 `json:"volume"`
		PriceOpen    float64 `json:"price_open"`
		PriceCurrent float64 `json:"price_current"`
		Profit       float64 `json:"profit"`
	}
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.bridgeURL + "/positions",
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("mt5 positions: %w", err)
	}

	positions := make([]models.Position, 0, len(raw))
	for _, p := range raw {
		positions = append(positions, models.Position{
			Symbol:        p.Symbol,
			Side:          p.Type,
			Quantity:      p.Volume,
			EntryPrice:    p.PriceOpen,
			CurrentPrice:  p.PriceCurrent,
			UnrealizedPnL: p.Profit,
		})
	}
	return positions, nil
}

func (c *MT5Connector) GetMarketData(ctx context.Context, symbols []string) (map[string]*models.Tick, error) {
	if !c.connected.Load() {
		return nil, ErrNotConnected
	}

	out := make(map[string]*models.Tick, len(symbols))
	for _, symbol := range symbols {
		tick, err := c.fetchTick(ctx, symbol)
		if err != nil {
			c.logger.Warn("mt5 tick fetch failed",
				logger.String("symbol", symbol),
				logger.Error(err))
			continue
		}
		out[symbol] = tick
	}
	return out, nil
}

func (c *MT5Connector) fetchTick(ctx context.Context, symbol string) (*models.Tick, error) {
	var raw mt5Tick
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.bridgeURL + "/tick",
		QueryParams: map[string][]string{"symbol": {symbol}},
	}, &raw)
	if err != nil {
		return nil, err
	}
	if raw.Bid == 0 && raw.Ask == 0 {
		return nil, fmt.Errorf("empty tick for %s", symbol)
	}

	price := raw.Last
	if price == 0 {
		price = (raw.Bid + raw.Ask) / 2
	}
	return &models.Tick{
		Symbol:    symbol,
		Price:     price,
		Bid:       raw.Bid,
		Ask:       raw.Ask,
		Volume:    raw.Volume,
		Timestamp: time.Unix(raw.Time, 0),
	}, nil
}
