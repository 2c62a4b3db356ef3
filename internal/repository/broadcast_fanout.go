package repository

import (
	"context"
	"errors"

	"quantdesk/internal/domain/models"
	domrepo "quantdesk/internal/domain/repository"
)

// Fanout replicates every broadcast to all underlying publishers. A
// failing publisher never blocks the others.
type Fanout struct {
	targets []domrepo.Broadcaster
}

func NewFanout(targets ...domrepo.Broadcaster) *Fanout {
	return &Fanout{targets: targets}
}

func (f *Fanout) BroadcastSignal(ctx context.Context, s *models.Signal) error {
	var errs []error
	for _, t := range f.targets {
		errs = append(errs, t.BroadcastSignal(ctx, s))
	}
	return errors.Join(errs...)
}

func (f *Fanout) BroadcastExecution(ctx context.Context, e *models.TradeExecution) error {
	var errs []error
	for _, t := range f.targets {
		errs = append(errs, t.BroadcastExecution(ctx, e))
	}
	return errors.Join(errs...)
}

func (f *Fanout) BroadcastStatus(ctx context.Context, event string, payload interface{}) error {
	var errs []error
	for _, t := range f.targets {
		errs = append(errs, t.BroadcastStatus(ctx, event, payload))
	}
	return errors.Join(errs...)
}

func (f *Fanout) Close() error {
	var errs []error
	for _, t := range f.targets {
		errs = append(errs, t.Close())
	}
	return errors.Join(errs...)
}
