package usecase

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"quantdesk/internal/domain/models"
	"quantdesk/internal/domain/repository"
	"quantdesk/pkg/logger"
)

const defaultAlgoTTL = 5 * time.Minute

// algoSignal is the wire format published by external algorithm runners.
type algoSignal struct {
	Symbol     string    `json:"symbol"`
	Type       string    `json:"type"`
	Strength   float64   `json:"strength"`
	Confidence float64   `json:"confidence"`
	Price      float64   `json:"price"`
	Algorithm  string    `json:"algorithm,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// AlgoSignalHandler consumes externally produced algorithm signals and
// keeps the freshest one per symbol for the trading loop to merge in.
type AlgoSignalHandler struct {
	topic  string
	cache  repository.SignalCache
	ttl    time.Duration
	logger *logger.Logger
}

func NewAlgoSignalHandler(topic string, cache repository.SignalCache, ttl time.Duration, lgr *logger.Logger) *AlgoSignalHandler {
	if ttl <= 0 {
		ttl = defaultAlgoTTL
	}
	return &AlgoSignalHandler{topic: topic, cache: cache, ttl: ttl, logger: lgr}
}

func (h *AlgoSignalHandler) Topic() string { return h.topic }

// Handle validates one message and caches it. Malformed payloads are
// rejected permanently (the consumer routes them to the DLQ).
func (h *AlgoSignalHandler) Handle(ctx context.Context, value []byte) error {
	var in algoSignal
	if err := json.Unmarshal(value, &in); err != nil {
		return fmt.Errorf("decode algo signal: %w", err)
	}

	if in.Symbol == "" {
		return fmt.Errorf("algo signal missing symbol")
	}
	sigType := models.SignalType(in.Type)
	if sigType != models.SignalBuy && sigType != models.SignalSell {
		return fmt.Errorf("algo signal has invalid type %q", in.Type)
	}
	if in.Strength < 0 || in.Strength > 1 || in.Confidence < 0 || in.Confidence > 1 {
		return fmt.Errorf("algo signal out of range: strength=%v confidence=%v", in.Strength, in.Confidence)
	}

	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	h.cache.Put(in.Symbol, &models.Signal{
		Symbol:     in.Symbol,
		Type:       sigType,
		Strength:   in.Strength,
		Confidence: in.Confidence,
		Price:      in.Price,
		Timestamp:  ts,
		Source:     "algo",
	}, h.ttl)

	h.logger.Debug("algo signal cached",
		logger.String("symbol", in.Symbol),
		logger.String("type", in.Type),
		logger.Float64("strength", in.Strength))
	return nil
}
