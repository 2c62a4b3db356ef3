package models

import "time"

// SignalType is the direction of a trading signal.
type SignalType string

const (
	SignalBuy  SignalType = "buy"
	SignalSell SignalType = "sell"
)

// RawSignal is a single model's vote before aggregation. RawPrediction
// keeps the model's untransformed output (label, value or vector) for
// observability.
type RawSignal struct {
	Model         string      `json:"model"`
	Algorithm     string      `json:"algorithm,omitempty"`
	Type          SignalType  `json:"type"`
	Strength      float64     `json:"strength"`
	Confidence    float64     `json:"confidence"`
	RawPrediction interface{} `json:"raw_prediction,omitempty"`
}

// Signal is the consensus output of the signal pipeline for one symbol.
type Signal struct {
	Symbol     string      `json:"symbol"`
	Type       SignalType  `json:"type"`
	Strength   float64     `json:"strength"`
	Confidence float64     `json:"confidence"`
	Price      float64     `json:"price"`
	Models     []RawSignal `json:"models,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Source     string      `json:"source,omitempty"`
}
