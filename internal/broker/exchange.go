package broker

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"

	"quantdesk/internal/domain/models"
	"quantdesk/pkg/logger"
)

// ExchangeConnector trades spot markets on a unified exchange API.
// Market buys are sized by USD notional divided by last price; market
// sells by available free balance scaled by signal strength.
type ExchangeConnector struct {
	info         models.BrokerInfo
	creds        models.Credentials
	client       *binance.Client
	baseNotional float64
	logger       *logger.Logger
	connected    atomic.Bool
}

// NewExchangeConnector creates a spot exchange connector.
func NewExchangeConnector(info models.BrokerInfo, creds models.Credentials, baseNotional float64, lgr *logger.Logger) *ExchangeConnector {
	if baseNotional <= 0 {
		baseNotional = 100
	}
	return &ExchangeConnector{
		info:         info,
		creds:        creds,
		baseNotional: baseNotional,
		logger:       lgr,
	}
}

func (c *ExchangeConnector) Connect(ctx context.Context) error {
	c.client = binance.NewClient(c.creds.APIKey, c.creds.Secret)

	// authenticated call verifies both connectivity and credentials
	if _, err := c.client.NewGetAccountService().Do(ctx); err != nil {
		return fmt.Errorf("exchange connect %s: %w", c.info.Name, err)
	}

	c.connected.Store(true)
	c.logger.Info("exchange connected", logger.String("broker", c.info.Name))
	return nil
}

func (c *ExchangeConnector) Disconnect(_ context.Context) error {
	c.connected.Store(false)
	c.client = nil
	return nil
}

func (c *ExchangeConnector) IsConnected() bool {
	return c.connected.Load()
}

func (c *ExchangeConnector) ExecuteTrade(ctx context.Context, symbol string, signal *models.Signal) *models.TradeResult {
	if !c.connected.Load() {
		return failedTrade(symbol, signal.Type, ErrNotConnected)
	}

	pair := normalizePair(symbol)

	var quantity decimal.Decimal
	switch signal.Type {
	case models.SignalBuy:
		last, err := c.lastPrice(ctx, pair)
		if err != nil {
			return failedTrade(symbol, signal.Type, err)
		}
		notional := decimal.NewFromFloat(c.baseNotional).Mul(decimal.NewFromFloat(signal.Strength))
		quantity = notional.Div(last).Round(6)
	case models.SignalSell:
		free, err := c.freeBalance(ctx, baseAsset(symbol))
		if err != nil {
			return failedTrade(symbol, signal.Type, err)
		}
		if !free.IsPositive() {
			return failedTrade(symbol, signal.Type, fmt.Errorf("insufficient balance"))
		}
		quantity = free.Mul(decimal.NewFromFloat(signal.Strength)).Round(6)
	default:
		return failedTrade(symbol, signal.Type, fmt.Errorf("unknown signal type: %s", signal.Type))
	}

	if !quantity.IsPositive() {
		return failedTrade(symbol, signal.Type, fmt.Errorf("computed zero quantity"))
	}

	side := binance.SideTypeBuy
	if signal.Type == models.SignalSell {
		side = binance.SideTypeSell
	}

	order, err := c.client.NewCreateOrderService().
		Symbol(pair).
		Side(side).
		Type(binance.OrderTypeMarket).
		Quantity(quantity.String()).
		Do(ctx)
	if err != nil {
		return failedTrade(symbol, signal.Type, err)
	}

	executed, _ := decimal.NewFromString(order.ExecutedQuantity)
	if executed.IsZero() {
		executed = quantity
	}

	return &models.TradeResult{
		Success:  true,
		OrderID:  fmt.Sprintf("%d", order.OrderID),
		Quantity: executed.InexactFloat64(),
		Price:    fillPrice(order),
		Symbol:   symbol,
		Type:     signal.Type,
	}
}

func (c *ExchangeConnector) GetAccountInfo(ctx context.Context) (*models.AccountInfo, error) {
	if !c.connected.Load() {
		return nil, ErrNotConnected
	}

	acc, err := c.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("exchange account info: %w", err)
	}

	// spot accounts have no margin concept; report the quote balance
	total := decimal.Zero
	for _, b := range acc.Balances {
		if b.Asset != "USDT" && b.Asset != "USD" {
			continue
		}
		free, _ := decimal.NewFromString(b.Free)
		locked, _ := decimal.NewFromString(b.Locked)
		total = total.Add(free).Add(locked)
	}

	return &models.AccountInfo{
		Balance:  total.InexactFloat64(),
		Equity:   total.InexactFloat64(),
		Currency: "USDT",
	}, nil
}

func (c *ExchangeConnector) GetPositions(ctx context.Context) ([]models.Position, error) {
	if !c.connected.Load() {
		return nil, ErrNotConnected
	}

	acc, err := c.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("exchange positions: %w", err)
	}

	// spot: non-zero balances stand in for positions
	var positions []models.Position
	for _, b := range acc.Balances {
		free, _ := decimal.NewFromString(b.Free)
		locked, _ := decimal.NewFromString(b.Locked)
		total := free.Add(locked)
		if !total.IsPositive() {
			continue
		}
		positions = append(positions, models.Position{
			Symbol:   b.Asset,
			Side:     "long",
			Quantity: total.InexactFloat64(),
		})
	}
	return positions, nil
}

func (c *ExchangeConnector) GetMarketData(ctx context.Context, symbols []string) (map[string]*models.Tick, error) {
	if !c.connected.Load() {
		return nil, ErrNotConnected
	}

	out := make(map[string]*models.Tick, len(symbols))
	for _, symbol := range symbols {
		pair := normalizePair(symbol)

		books, err := c.client.NewListBookTickersService().Symbol(pair).Do(ctx)
		if err != nil || len(books) == 0 {
			c.logger.Warn("exchange book ticker failed",
				logger.String("symbol", symbol),
				logger.Error(err))
			continue
		}

		bid, _ := decimal.NewFromString(books[0].BidPrice)
		ask, _ := decimal.NewFromString(books[0].AskPrice)

		last, err := c.lastPrice(ctx, pair)
		if err != nil {
			last = bid.Add(ask).Div(decimal.NewFromInt(2))
		}

		out[symbol] = &models.Tick{
			Symbol:    symbol,
			Price:     last.InexactFloat64(),
			Bid:       bid.InexactFloat64(),
			Ask:       ask.InexactFloat64(),
			Timestamp: time.Now().UTC(),
		}
	}
	return out, nil
}

func (c *ExchangeConnector) lastPrice(ctx context.Context, pair string) (decimal.Decimal, error) {
	prices, err := c.client.NewListPricesService().Symbol(pair).Do(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch ticker %s: %w", pair, err)
	}
	if len(prices) == 0 {
		return decimal.Zero, fmt.Errorf("no ticker for %s", pair)
	}
	last, err := decimal.NewFromString(prices[0].Price)
	if err != nil || !last.IsPositive() {
		return decimal.Zero, fmt.Errorf("bad ticker price for %s", pair)
	}
	return last, nil
}

func (c *ExchangeConnector) freeBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	acc, err := c.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch balance: %w", err)
	}
	for _, b := range acc.Balances {
		if b.Asset == asset {
			free, err := decimal.NewFromString(b.Free)
			if err != nil {
				return decimal.Zero, err
			}
			return free, nil
		}
	}
	return decimal.Zero, nil
}

func fillPrice(order *binance.CreateOrderResponse) float64 {
	if len(order.Fills) > 0 {
		p, err := decimal.NewFromString(order.Fills[0].Price)
		if err == nil {
			return p.InexactFloat64()
		}
	}
	p, _ := decimal.NewFromString(order.Price)
	return p.InexactFloat64()
}

// normalizePair converts "BTC/USDT" into the exchange's "BTCUSDT" form.
func normalizePair(symbol string) string {
	return strings.ReplaceAll(strings.ToUpper(symbol), "/", "")
}

// baseAsset returns the asset before the slash, or the symbol itself.
func baseAsset(symbol string) string {
	if i := strings.Index(symbol, "/"); i > 0 {
		return strings.ToUpper(symbol[:i])
	}
	return strings.ToUpper(symbol)
}
