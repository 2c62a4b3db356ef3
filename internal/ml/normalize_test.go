package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantdesk/internal/domain/models"
)

func info(name string, kind models.ModelKind) models.ModelInfo {
	return models.ModelInfo{Name: name, Kind: kind, Algorithm: "test"}
}

func TestNormalizeRegressorDeadZone(t *testing.T) {
	m := info("reg", models.KindRegressor)

	assert.Nil(t, Normalize(m, &Output{Value: 0.05}), "inside dead zone")
	assert.Nil(t, Normalize(m, &Output{Value: -0.09}), "inside dead zone")

	s := Normalize(m, &Output{Value: 0.15})
	require.NotNil(t, s)
	assert.Equal(t, models.SignalBuy, s.Type)
	assert.InDelta(t, 0.15, s.Strength, 1e-9)
	assert.InDelta(t, 0.12, s.Confidence, 1e-9)

	s = Normalize(m, &Output{Value: -2.5})
	require.NotNil(t, s)
	assert.Equal(t, models.SignalSell, s.Type)
	assert.Equal(t, 1.0, s.Strength, "strength capped at 1")
}

func TestNormalizeClassifier(t *testing.T) {
	m := info("clf", models.KindClassifier)

	s := Normalize(m, &Output{Probabilities: map[string]float64{"buy": 0.85, "sell": 0.15}})
	require.NotNil(t, s)
	assert.Equal(t, models.SignalBuy, s.Type)
	assert.InDelta(t, 0.85, s.Confidence, 1e-9)

	assert.Nil(t, Normalize(m, &Output{Probabilities: map[string]float64{"buy": 0.55, "sell": 0.45}}),
		"below confidence gate")
	assert.Nil(t, Normalize(m, &Output{Probabilities: map[string]float64{"sideways": 0.9, "buy": 0.1}}),
		"unknown label wins argmax")
}

func TestNormalizeClassifierLexicon(t *testing.T) {
	m := info("clf", models.KindClassifier)

	for label, want := range map[string]models.SignalType{
		"long": models.SignalBuy, "UP": models.SignalBuy, "1": models.SignalBuy, "bullish": models.SignalBuy,
		"short": models.SignalSell, "down": models.SignalSell, "0": models.SignalSell, "-1": models.SignalSell,
	} {
		s := Normalize(m, &Output{Probabilities: map[string]float64{label: 0.9}})
		require.NotNil(t, s, "label %q", label)
		assert.Equal(t, want, s.Type, "label %q", label)
	}
}

func TestNormalizeCategorical(t *testing.T) {
	m := info("cat", models.KindCategorical)

	s := Normalize(m, &Output{Label: "bearish"})
	require.NotNil(t, s)
	assert.Equal(t, models.SignalSell, s.Type)
	assert.Equal(t, 0.7, s.Strength)
	assert.Equal(t, 0.7, s.Confidence)

	assert.Nil(t, Normalize(m, &Output{Label: "hold"}))
}

func TestNormalizeVectorScalar(t *testing.T) {
	m := info("nn", models.KindVector)

	s := Normalize(m, &Output{Vector: []float64{0.8}})
	require.NotNil(t, s)
	assert.Equal(t, models.SignalBuy, s.Type)
	assert.InDelta(t, 0.8, s.Strength, 1e-9)

	s = Normalize(m, &Output{Vector: []float64{0.2}})
	require.NotNil(t, s)
	assert.Equal(t, models.SignalSell, s.Type)
	assert.InDelta(t, 0.8, s.Strength, 1e-9)

	assert.Nil(t, Normalize(m, &Output{Vector: []float64{0.5}}), "between thresholds")
}

func TestNormalizeVectorArgmax(t *testing.T) {
	m := info("nn", models.KindVector)

	s := Normalize(m, &Output{Vector: []float64{0.1, 0.1, 0.8}})
	require.NotNil(t, s)
	assert.Equal(t, models.SignalBuy, s.Type)

	s = Normalize(m, &Output{Vector: []float64{0.9, 0.05, 0.05}})
	require.NotNil(t, s)
	assert.Equal(t, models.SignalSell, s.Type)

	assert.Nil(t, Normalize(m, &Output{Vector: []float64{0.1, 0.8, 0.1}}), "hold class wins")
	assert.Nil(t, Normalize(m, &Output{Vector: []float64{0.4, 0.3, 0.3}}), "below confidence gate")
}

func TestNormalizeCarriesProvenance(t *testing.T) {
	reg := models.ModelInfo{Name: "reg", Kind: models.KindRegressor, Algorithm: "gradient_boost"}
	s := Normalize(reg, &Output{Value: -0.4})
	require.NotNil(t, s)
	assert.Equal(t, "gradient_boost", s.Algorithm)
	assert.Equal(t, -0.4, s.RawPrediction, "signed value survives pre-clamp")

	clf := models.ModelInfo{Name: "clf", Kind: models.KindClassifier, Algorithm: "random_forest"}
	s = Normalize(clf, &Output{Probabilities: map[string]float64{"buy": 0.9, "sell": 0.1}})
	require.NotNil(t, s)
	assert.Equal(t, "random_forest", s.Algorithm)
	assert.Equal(t, "buy", s.RawPrediction)

	nn := models.ModelInfo{Name: "nn", Kind: models.KindVector, Algorithm: "neural_network"}
	s = Normalize(nn, &Output{Vector: []float64{0.1, 0.1, 0.8}})
	require.NotNil(t, s)
	assert.Equal(t, []float64{0.1, 0.1, 0.8}, s.RawPrediction)

	cat := models.ModelInfo{Name: "cat", Kind: models.KindCategorical, Algorithm: "rules"}
	s = Normalize(cat, &Output{Label: "bullish"})
	require.NotNil(t, s)
	assert.Equal(t, "bullish", s.RawPrediction)
}

func TestNormalizeDegradesToNil(t *testing.T) {
	assert.Nil(t, Normalize(info("x", models.KindClassifier), nil))
	assert.Nil(t, Normalize(info("x", models.KindClassifier), &Output{}))
	assert.Nil(t, Normalize(info("x", models.KindVector), &Output{}))
	assert.Nil(t, Normalize(info("x", "bogus"), &Output{Value: 1}))
}
