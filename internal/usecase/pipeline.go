package usecase

import (
	"context"
	"time"

	"quantdesk/internal/domain/models"
	"quantdesk/internal/domain/repository"
	"quantdesk/internal/domain/service"
	"quantdesk/internal/ml"
	"quantdesk/internal/ml/features"
	"quantdesk/pkg/logger"
)

// SignalPipeline turns market ticks into aggregated trading signals:
// feature vector per model, prediction, normalization, then a
// confidence-weighted consensus per symbol.
type SignalPipeline struct {
	registry *ml.Registry
	builder  *features.Builder
	market   service.MarketData
	metrics  repository.Metrics
	logger   *logger.Logger
}

func NewSignalPipeline(registry *ml.Registry, builder *features.Builder, market service.MarketData, metrics repository.Metrics, lgr *logger.Logger) *SignalPipeline {
	return &SignalPipeline{
		registry: registry,
		builder:  builder,
		market:   market,
		metrics:  metrics,
		logger:   lgr,
	}
}

// GenerateSignals produces at most one signal per symbol. Symbols with
// no market data, no model votes or no consensus are simply absent from
// the result; one bad symbol never aborts the batch.
func (p *SignalPipeline) GenerateSignals(ctx context.Context, symbols []string) (map[string]*models.Signal, error) {
	out := make(map[string]*models.Signal, len(symbols))

	for _, symbol := range symbols {
		tick, err := p.market.GetTick(ctx, symbol)
		if err != nil {
			p.logger.Warn("market data unavailable",
				logger.String("symbol", symbol),
				logger.Error(err))
			p.metrics.RecordError("market_data")
			continue
		}

		signal := p.generateForTick(ctx, symbol, tick, nil)
		if signal != nil {
			out[symbol] = signal
		}
	}

	return out, nil
}

// GenerateForSymbol runs the pipeline for a single symbol on demand.
// A non-empty only list restricts the vote to the named models.
func (p *SignalPipeline) GenerateForSymbol(ctx context.Context, symbol string, only []string) (*models.Signal, error) {
	tick, err := p.market.GetTick(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return p.generateForTick(ctx, symbol, tick, only), nil
}

func (p *SignalPipeline) generateForTick(ctx context.Context, symbol string, tick *models.Tick, only []string) *models.Signal {
	start := time.Now()

	allowed := make(map[string]bool, len(only))
	for _, name := range only {
		allowed[name] = true
	}

	votes := make(map[string]*models.RawSignal)
	for _, pred := range p.registry.Predictors() {
		info := pred.Info()
		if len(allowed) > 0 && !allowed[info.Name] {
			continue
		}

		vec, synthetic, err := p.builder.Build(ctx, tick, pred.Scaler())
		if err != nil {
			p.logger.Warn("feature build failed",
				logger.String("symbol", symbol),
				logger.String("model", info.Name),
				logger.Error(err))
			p.metrics.RecordError("feature_build")
			continue
		}
		if synthetic {
			p.metrics.RecordError("synthetic_history")
		}

		output, err := pred.Predict(ctx, vec)
		if err != nil {
			// one broken model must not silence the rest
			p.logger.Warn("prediction failed",
				logger.String("symbol", symbol),
				logger.String("model", info.Name),
				logger.Error(err))
			p.metrics.RecordError("prediction")
			continue
		}

		if raw := ml.Normalize(info, output); raw != nil {
			votes[info.Name] = raw
		}
	}

	p.metrics.RecordLatency("signal_pipeline", time.Since(start).Seconds())
	p.metrics.RecordLastPrice(symbol, tick.Price)

	signal := ml.Aggregate(symbol, tick.Price, votes)
	if signal == nil {
		p.logger.Debug("no consensus",
			logger.String("symbol", symbol),
			logger.Int("votes", len(votes)))
		return nil
	}

	p.metrics.RecordSignal(symbol, string(signal.Type))
	p.logger.Info("signal generated",
		logger.String("symbol", symbol),
		logger.String("type", string(signal.Type)),
		logger.Float64("strength", signal.Strength),
		logger.Float64("confidence", signal.Confidence),
		logger.Int("models", len(signal.Models)))
	return signal
}
