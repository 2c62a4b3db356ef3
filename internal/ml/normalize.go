package ml

import (
	"math"
	"strings"

	"quantdesk/internal/domain/models"
)

const (
	classifierGate = 0.6
	regressionDead = 0.1
	categoricalFix = 0.7
)

// Normalize converts a raw model output into a canonical signal, or nil
// when the output does not justify one. Pure function, no side effects.
// Malformed outputs degrade to nil rather than erroring.
func Normalize(info models.ModelInfo, out *Output) *models.RawSignal {
	if out == nil {
		return nil
	}

	switch info.Kind {
	case models.KindClassifier:
		return normalizeClassifier(info, out)
	case models.KindRegressor:
		return normalizeRegressor(info, out)
	case models.KindCategorical:
		return normalizeCategorical(info, out)
	case models.KindVector:
		return normalizeVector(info, out)
	default:
		return nil
	}
}

func normalizeClassifier(info models.ModelInfo, out *Output) *models.RawSignal {
	if len(out.Probabilities) == 0 {
		return nil
	}

	var bestLabel string
	best := math.Inf(-1)
	for label, p := range out.Probabilities {
		if p > best {
			best = p
			bestLabel = label
		}
	}

	sigType, ok := labelToType(bestLabel)
	if !ok || best <= classifierGate {
		return nil
	}

	return &models.RawSignal{
		Model:         info.Name,
		Algorithm:     info.Algorithm,
		Type:          sigType,
		Strength:      math.Min(best, 1.0),
		Confidence:    math.Min(best, 1.0),
		RawPrediction: bestLabel,
	}
}

func normalizeRegressor(info models.ModelInfo, out *Output) *models.RawSignal {
	v := out.Value
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	var sigType models.SignalType
	switch {
	case v > regressionDead:
		sigType = models.SignalBuy
	case v < -regressionDead:
		sigType = models.SignalSell
	default:
		return nil
	}

	strength := math.Min(math.Abs(v), 1.0)
	return &models.RawSignal{
		Model:         info.Name,
		Algorithm:     info.Algorithm,
		Type:          sigType,
		Strength:      strength,
		Confidence:    strength * 0.8,
		RawPrediction: v,
	}
}

func normalizeCategorical(info models.ModelInfo, out *Output) *models.RawSignal {
	sigType, ok := labelToType(out.Label)
	if !ok {
		return nil
	}

	return &models.RawSignal{
		Model:         info.Name,
		Algorithm:     info.Algorithm,
		Type:          sigType,
		Strength:      categoricalFix,
		Confidence:    categoricalFix,
		RawPrediction: out.Label,
	}
}

func normalizeVector(info models.ModelInfo, out *Output) *models.RawSignal {
	switch len(out.Vector) {
	case 0:
		return nil
	case 1:
		v := out.Vector[0]
		if math.IsNaN(v) {
			return nil
		}
		var sigType models.SignalType
		var strength float64
		switch {
		case v > 0.6:
			sigType = models.SignalBuy
			strength = math.Min(v, 1.0)
		case v < 0.4:
			sigType = models.SignalSell
			strength = math.Min(1.0-v, 1.0)
		default:
			return nil
		}
		return &models.RawSignal{
			Model:         info.Name,
			Algorithm:     info.Algorithm,
			Type:          sigType,
			Strength:      strength,
			Confidence:    strength,
			RawPrediction: v,
		}
	default:
		idx, best := argmax(out.Vector)
		if best <= classifierGate {
			return nil
		}
		var sigType models.SignalType
		switch idx {
		case 0:
			sigType = models.SignalSell
		case 1:
			return nil // hold
		default:
			sigType = models.SignalBuy
		}
		return &models.RawSignal{
			Model:         info.Name,
			Algorithm:     info.Algorithm,
			Type:          sigType,
			Strength:      math.Min(best, 1.0),
			Confidence:    math.Min(best, 1.0),
			RawPrediction: out.Vector,
		}
	}
}

func argmax(v []float64) (int, float64) {
	idx, best := 0, v[0]
	for i, x := range v {
		if x > best {
			idx, best = i, x
		}
	}
	return idx, best
}

// labelToType maps heterogeneous class labels onto signal directions.
func labelToType(label string) (models.SignalType, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "buy", "long", "1", "up", "bullish":
		return models.SignalBuy, true
	case "sell", "short", "0", "-1", "down", "bearish":
		return models.SignalSell, true
	default:
		return "", false
	}
}
