package features

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"

	"quantdesk/internal/domain/models"
	"quantdesk/pkg/logger"
)

// ErrFeatureBuild signals insufficient or malformed tick data. The
// caller skips that symbol/model pair and continues the batch.
var ErrFeatureBuild = errors.New("feature build failed")

// VectorLength is the fixed feature vector length:
// 10 basic values, 10 indicator values, 3 time encodings.
const VectorLength = 23

const defaultWindowSize = 50

// HistoryProvider supplies observed price windows, oldest first.
type HistoryProvider interface {
	PriceWindow(ctx context.Context, symbol string, n int) ([]float64, error)
}

// Scaler applies a fitted standardization to a feature vector.
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Transform standardizes v in place using fitted mean/std.
func (s *Scaler) Transform(v []float64) {
	for i := range v {
		if i >= len(s.Mean) || i >= len(s.Std) {
			return
		}
		if s.Std[i] > 0 {
			v[i] = (v[i] - s.Mean[i]) / s.Std[i]
		} else {
			v[i] = v[i] - s.Mean[i]
		}
	}
}

// Builder converts market ticks into fixed-length feature vectors.
type Builder struct {
	history    HistoryProvider
	logger     *logger.Logger
	windowSize int
}

// NewBuilder creates a feature builder. history may be nil, in which
// case every build uses the synthetic window fallback.
func NewBuilder(history HistoryProvider, lgr *logger.Logger) *Builder {
	return &Builder{
		history:    history,
		logger:     lgr,
		windowSize: defaultWindowSize,
	}
}

// Build converts a tick into a feature vector. The second return value
// reports whether the indicator window was synthesized rather than
// observed. scaler may be nil.
func (b *Builder) Build(ctx context.Context, tick *models.Tick, scaler *Scaler) ([]float64, bool, error) {
	if tick == nil || tick.Price <= 0 || math.IsNaN(tick.Price) {
		return nil, false, fmt.Errorf("%w: no usable price for %q", ErrFeatureBuild, symbolOf(tick))
	}

	window, synthetic := b.priceWindow(ctx, tick)

	vec := make([]float64, 0, VectorLength)

	// basic block
	vec = append(vec,
		tick.Price,
		tick.Volume,
		tick.Bid,
		tick.Ask,
		tick.Spread(),
		tick.Mid(),
		tick.High,
		tick.Low,
		tick.Change,
		tick.ChangePct,
	)

	// indicator block
	macd, macdSig, macdHist := MACD(window, 12, 26, 9)
	stochK, stochD := Stochastic(window, 14, 3)
	vec = append(vec,
		SMA(window, 10),
		SMA(window, 20),
		EMA(window, 12),
		RSI(window, 14),
		macd,
		macdSig,
		macdHist,
		BollingerPosition(window, 20, 2.0),
		stochK,
		stochD,
	)

	// time encodings, normalized to [0,1]
	ts := tick.Timestamp
	vec = append(vec,
		float64(ts.Hour())/24.0,
		float64(ts.Weekday())/6.0,
		float64(ts.Month())/12.0,
	)

	sanitize(vec)

	if scaler != nil {
		scaler.Transform(vec)
	}

	return vec, synthetic, nil
}

// priceWindow returns real history when available, otherwise a seeded
// synthetic random walk anchored at the current price. The fallback
// manufactures indicator inputs and is logged every time it fires.
func (b *Builder) priceWindow(ctx context.Context, tick *models.Tick) ([]float64, bool) {
	if b.history != nil {
		window, err := b.history.PriceWindow(ctx, tick.Symbol, b.windowSize)
		if err != nil {
			b.logger.Warn("price window fetch failed",
				logger.String("symbol", tick.Symbol),
				logger.Error(err))
		} else if len(window) > 1 {
			return append(window, tick.Price), false
		}
	}

	b.logger.Warn("no observed history, using synthetic window",
		logger.String("symbol", tick.Symbol),
		logger.Int("window", b.windowSize))
	return syntheticWindow(tick.Symbol, tick.Price, b.windowSize), true
}

// syntheticWindow reconstructs a deterministic random walk that ends at
// the anchor price. The seed derives from the symbol so repeated builds
// for the same symbol produce identical windows.
func syntheticWindow(symbol string, anchor float64, n int) []float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	window := make([]float64, n)
	price := anchor
	for i := n - 1; i >= 0; i-- {
		window[i] = price
		price *= 1 + rng.NormFloat64()*0.002
		if price <= 0 {
			price = anchor
		}
	}
	window[n-1] = anchor
	return window
}

func sanitize(vec []float64) {
	for i, v := range vec {
		switch {
		case math.IsNaN(v):
			vec[i] = 0.0
		case math.IsInf(v, 1):
			vec[i] = 1.0
		case math.IsInf(v, -1):
			vec[i] = -1.0
		}
	}
}

func symbolOf(tick *models.Tick) string {
	if tick == nil {
		return ""
	}
	return tick.Symbol
}
