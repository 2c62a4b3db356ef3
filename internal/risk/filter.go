package risk

import (
	"context"
	"sort"
	"time"

	"quantdesk/internal/domain/models"
	"quantdesk/pkg/cache"
	"quantdesk/pkg/logger"
)

const cooldownKeyPrefix = "risk:cooldown:"

// Options configure the threshold filter. Zero values disable the
// corresponding check.
type Options struct {
	MinConfidence  float64
	MaxSignals     int
	SymbolCooldown time.Duration
}

// ThresholdFilter screens aggregated signals before execution: stale
// ticks and low-confidence signals are dropped, the batch is capped at
// the strongest N and each symbol is rate limited through a cache lock.
type ThresholdFilter struct {
	opts   Options
	locks  cache.Service
	logger *logger.Logger
}

// NewThresholdFilter builds a filter. locks may be nil to disable the
// per-symbol cooldown.
func NewThresholdFilter(opts Options, locks cache.Service, lgr *logger.Logger) *ThresholdFilter {
	return &ThresholdFilter{opts: opts, locks: locks, logger: lgr}
}

// Filter returns the subset of signals that pass all checks. Input maps
// are never mutated.
func (f *ThresholdFilter) Filter(ctx context.Context, signals map[string]*models.Signal, ticks map[string]*models.Tick) map[string]*models.Signal {
	passed := make(map[string]*models.Signal, len(signals))

	for symbol, signal := range signals {
		if signal == nil {
			continue
		}
		if tick, ok := ticks[symbol]; !ok || tick == nil || tick.Price <= 0 {
			f.logger.Debug("signal dropped, no market data", logger.String("symbol", symbol))
			continue
		}
		if f.opts.MinConfidence > 0 && signal.Confidence < f.opts.MinConfidence {
			f.logger.Debug("signal dropped, confidence below floor",
				logger.String("symbol", symbol),
				logger.Float64("confidence", signal.Confidence))
			continue
		}
		passed[symbol] = signal
	}

	if f.opts.MaxSignals > 0 && len(passed) > f.opts.MaxSignals {
		passed = f.strongest(passed)
	}

	if f.opts.SymbolCooldown > 0 && f.locks != nil {
		passed = f.applyCooldown(ctx, passed)
	}

	return passed
}

// strongest keeps the MaxSignals entries with the highest weighted
// score, with the symbol name as a deterministic tiebreak.
func (f *ThresholdFilter) strongest(signals map[string]*models.Signal) map[string]*models.Signal {
	symbols := make([]string, 0, len(signals))
	for symbol := range signals {
		symbols = append(symbols, symbol)
	}
	sort.Slice(symbols, func(i, j int) bool {
		a, b := signals[symbols[i]], signals[symbols[j]]
		wa, wb := a.Strength*a.Confidence, b.Strength*b.Confidence
		if wa != wb {
			return wa > wb
		}
		return symbols[i] < symbols[j]
	})

	out := make(map[string]*models.Signal, f.opts.MaxSignals)
	for _, symbol := range symbols[:f.opts.MaxSignals] {
		out[symbol] = signals[symbol]
	}
	return out
}

func (f *ThresholdFilter) applyCooldown(ctx context.Context, signals map[string]*models.Signal) map[string]*models.Signal {
	out := make(map[string]*models.Signal, len(signals))
	for symbol, signal := range signals {
		acquired, err := f.locks.TryLock(ctx, cooldownKeyPrefix+symbol, f.opts.SymbolCooldown)
		if err != nil {
			// lock backend failure must not block trading
			f.logger.Warn("cooldown check failed", logger.String("symbol", symbol), logger.Error(err))
			out[symbol] = signal
			continue
		}
		if !acquired {
			f.logger.Debug("signal dropped, symbol in cooldown", logger.String("symbol", symbol))
			continue
		}
		out[symbol] = signal
	}
	return out
}
