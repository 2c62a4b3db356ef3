package models

import "time"

// BrokerFamily selects the connector implementation for a broker.
type BrokerFamily string

const (
	FamilyMT5      BrokerFamily = "mt5"
	FamilyExchange BrokerFamily = "exchange"
	FamilyStub     BrokerFamily = "stub"
)

// BrokerInfo is a static catalog entry describing a supported broker.
type BrokerInfo struct {
	Name            string       `json:"name"`
	Type            string       `json:"type"`
	Family          BrokerFamily `json:"family"`
	SupportedAssets []string     `json:"supported_assets"`
	Features        []string     `json:"features"`
	MinDeposit      float64      `json:"min_deposit"`
	MaxLeverage     int          `json:"max_leverage"`
}

// Credentials holds broker authentication fields. Only the fields
// relevant to a broker family are populated.
type Credentials struct {
	Login      string `json:"login,omitempty"`
	Password   string `json:"password,omitempty"`
	Server     string `json:"server,omitempty"`
	APIKey     string `json:"api_key,omitempty"`
	Secret     string `json:"secret,omitempty"`
	Passphrase string `json:"passphrase,omitempty"`
}

// TradeResult is the outcome of one execute-trade call. Connectors
// never raise past this boundary; failures land in Error.
type TradeResult struct {
	Success  bool       `json:"success"`
	OrderID  string     `json:"order_id,omitempty"`
	Quantity float64    `json:"quantity,omitempty"`
	Price    float64    `json:"price,omitempty"`
	Symbol   string     `json:"symbol,omitempty"`
	Type     SignalType `json:"type,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// Position is an open position reported by a broker.
type Position struct {
	Symbol        string  `json:"symbol"`
	Side          string  `json:"side"`
	Quantity      float64 `json:"quantity"`
	EntryPrice    float64 `json:"entry_price"`
	CurrentPrice  float64 `json:"current_price"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
}

// AccountInfo is a broker account snapshot.
type AccountInfo struct {
	Balance   float64 `json:"balance"`
	Equity    float64 `json:"equity"`
	Margin    float64 `json:"margin"`
	Currency  string  `json:"currency"`
	Leverage  int     `json:"leverage,omitempty"`
	AccountID string  `json:"account_id,omitempty"`
}

// TradeExecution is an append-only record of one executed order.
type TradeExecution struct {
	ID         string                 `json:"id"`
	BrokerName string                 `json:"broker_name"`
	Symbol     string                 `json:"symbol"`
	SignalType SignalType             `json:"signal_type"`
	Quantity   float64                `json:"quantity"`
	Price      float64                `json:"price"`
	OrderID    string                 `json:"order_id"`
	Success    bool                   `json:"success"`
	Error      string                 `json:"error,omitempty"`
	ExecutedAt time.Time              `json:"executed_at"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}
