package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantdesk/internal/domain/models"
)

func raw(t models.SignalType, strength, confidence float64) *models.RawSignal {
	return &models.RawSignal{Type: t, Strength: strength, Confidence: confidence}
}

func TestAggregateNoConsensusBelowThreshold(t *testing.T) {
	// weighted = 0.5 each side? no: both buy 0.5*0.5=0.25, mean 0.25 < 0.4
	signals := map[string]*models.RawSignal{
		"m1": raw(models.SignalBuy, 0.5, 0.5),
		"m2": raw(models.SignalBuy, 0.5, 0.5),
	}
	assert.Nil(t, Aggregate("EURUSD", 1.1, signals))
}

func TestAggregatePositiveConsensus(t *testing.T) {
	signals := map[string]*models.RawSignal{
		"m1": raw(models.SignalBuy, 0.9, 0.9),
		"m2": raw(models.SignalBuy, 0.8, 0.9),
	}
	s := Aggregate("EURUSD", 1.1, signals)
	require.NotNil(t, s)
	assert.Equal(t, models.SignalBuy, s.Type)
	assert.InDelta(t, 0.765, s.Strength, 1e-9)
	assert.InDelta(t, 0.9, s.Confidence, 1e-9)
	assert.Equal(t, "EURUSD", s.Symbol)
	assert.Len(t, s.Models, 2)
}

func TestAggregateOrderIndependent(t *testing.T) {
	base := map[string]*models.RawSignal{
		"m1": raw(models.SignalBuy, 0.9, 0.9),
		"m2": raw(models.SignalSell, 0.6, 0.7),
		"m3": raw(models.SignalBuy, 0.8, 0.95),
		"m4": raw(models.SignalBuy, 0.7, 0.8),
	}

	first := Aggregate("BTCUSD", 50000, base)
	require.NotNil(t, first)

	// map iteration order varies between runs; repeated aggregation
	// over the same mapping must be identical
	for i := 0; i < 20; i++ {
		again := Aggregate("BTCUSD", 50000, base)
		require.NotNil(t, again)
		assert.Equal(t, first.Type, again.Type)
		assert.InDelta(t, first.Strength, again.Strength, 1e-12)
		assert.InDelta(t, first.Confidence, again.Confidence, 1e-12)
	}
}

func TestAggregateTieYieldsNoSignal(t *testing.T) {
	signals := map[string]*models.RawSignal{
		"m1": raw(models.SignalBuy, 0.9, 0.9),
		"m2": raw(models.SignalSell, 0.9, 0.9),
	}
	assert.Nil(t, Aggregate("EURUSD", 1.1, signals))
}

func TestAggregateSellSide(t *testing.T) {
	signals := map[string]*models.RawSignal{
		"m1": raw(models.SignalSell, 0.9, 0.8),
		"m2": raw(models.SignalSell, 0.7, 0.9),
		"m3": raw(models.SignalBuy, 0.2, 0.5),
	}
	s := Aggregate("EURUSD", 1.1, signals)
	require.NotNil(t, s)
	assert.Equal(t, models.SignalSell, s.Type)
	// sell weighted: 0.72, 0.63 -> mean 0.675
	assert.InDelta(t, 0.675, s.Strength, 1e-9)
	// avg confidence over all three models
	assert.InDelta(t, (0.8+0.9+0.5)/3.0, s.Confidence, 1e-9)
}

func TestAggregateEmptyAndNil(t *testing.T) {
	assert.Nil(t, Aggregate("EURUSD", 1.1, nil))
	assert.Nil(t, Aggregate("EURUSD", 1.1, map[string]*models.RawSignal{}))
	assert.Nil(t, Aggregate("EURUSD", 1.1, map[string]*models.RawSignal{"m1": nil}))
}
