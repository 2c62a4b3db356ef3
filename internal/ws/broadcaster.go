package ws

import (
	"context"
	"time"

	"quantdesk/internal/domain/models"
)

// Broadcaster adapts the hub to the trading-updates publisher port.
type Broadcaster struct {
	hub *Hub
}

func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

type message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	Ts      time.Time   `json:"ts"`
}

func (b *Broadcaster) BroadcastSignal(ctx context.Context, s *models.Signal) error {
	b.hub.Broadcast(message{Event: "signal", Payload: s, Ts: time.Now().UTC()})
	return nil
}

func (b *Broadcaster) BroadcastExecution(ctx context.Context, e *models.TradeExecution) error {
	b.hub.Broadcast(message{Event: "execution", Payload: e, Ts: time.Now().UTC()})
	return nil
}

func (b *Broadcaster) BroadcastStatus(ctx context.Context, event string, payload interface{}) error {
	b.hub.Broadcast(message{Event: event, Payload: payload, Ts: time.Now().UTC()})
	return nil
}

func (b *Broadcaster) Close() error { return nil }
