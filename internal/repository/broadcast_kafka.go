package repository

import (
	"context"
	"fmt"
	"time"

	"quantdesk/internal/domain/models"
	pkgkafka "quantdesk/pkg/kafka"
	applogger "quantdesk/pkg/logger"
)

// update is the envelope every trading-updates message is wrapped in.
type update struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	Ts      time.Time   `json:"ts"`
}

// KafkaBroadcaster publishes trading updates on a single topic, keyed
// by symbol or broker so consumers see per-key ordering.
type KafkaBroadcaster struct {
	producer *pkgkafka.Producer
	topic    string
	l        *applogger.Logger
}

func NewKafkaBroadcaster(producer *pkgkafka.Producer, topic string, l *applogger.Logger) *KafkaBroadcaster {
	return &KafkaBroadcaster{producer: producer, topic: topic, l: l}
}

func (b *KafkaBroadcaster) BroadcastSignal(ctx context.Context, s *models.Signal) error {
	msg := update{Event: "signal", Payload: s, Ts: time.Now().UTC()}
	if err := b.producer.Publish(ctx, b.topic, []byte(s.Symbol), msg); err != nil {
		b.l.Warn("broadcast signal failed",
			applogger.String("symbol", s.Symbol),
			applogger.Error(err))
		return fmt.Errorf("broadcast signal: %w", err)
	}
	return nil
}

func (b *KafkaBroadcaster) BroadcastExecution(ctx context.Context, e *models.TradeExecution) error {
	msg := update{Event: "execution", Payload: e, Ts: time.Now().UTC()}
	if err := b.producer.Publish(ctx, b.topic, []byte(e.BrokerName), msg); err != nil {
		b.l.Warn("broadcast execution failed",
			applogger.String("broker", e.BrokerName),
			applogger.Error(err))
		return fmt.Errorf("broadcast execution: %w", err)
	}
	return nil
}

func (b *KafkaBroadcaster) BroadcastStatus(ctx context.Context, event string, payload interface{}) error {
	msg := update{Event: event, Payload: payload, Ts: time.Now().UTC()}
	if err := b.producer.Publish(ctx, b.topic, []byte(event), msg); err != nil {
		b.l.Warn("broadcast status failed",
			applogger.String("event", event),
			applogger.Error(err))
		return fmt.Errorf("broadcast status: %w", err)
	}
	return nil
}

func (b *KafkaBroadcaster) Close() error {
	return b.producer.Close()
}
