package models

import "time"

// Tick is a normalized market data snapshot for a symbol.
type Tick struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Change    float64   `json:"change"`
	ChangePct float64   `json:"change_percent"`
	Timestamp time.Time `json:"timestamp"`
}

// Spread returns ask minus bid.
func (t Tick) Spread() float64 {
	return t.Ask - t.Bid
}

// Mid returns the bid/ask midpoint.
func (t Tick) Mid() float64 {
	return (t.Ask + t.Bid) / 2
}
