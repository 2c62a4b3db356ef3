package ml

import (
	"time"

	"quantdesk/internal/domain/models"
)

// consensusThreshold is the minimum mean weighted strength for one side
// to win the vote.
const consensusThreshold = 0.4

// Aggregate merges per-model signals for one symbol into a consensus
// signal via confidence-weighted voting. Returns nil when no side
// reaches the consensus threshold or the vote ties. The reduction uses
// means so the input ordering is irrelevant.
func Aggregate(symbol string, price float64, signals map[string]*models.RawSignal) *models.Signal {
	if len(signals) == 0 {
		return nil
	}

	var (
		buyVotes, sellVotes   []float64
		totalConfidence       float64
		individual            []models.RawSignal
		buySum, sellSum, mean float64
	)

	for _, s := range signals {
		if s == nil {
			continue
		}
		weighted := s.Strength * s.Confidence
		switch s.Type {
		case models.SignalBuy:
			buyVotes = append(buyVotes, weighted)
			buySum += weighted
		case models.SignalSell:
			sellVotes = append(sellVotes, weighted)
			sellSum += weighted
		default:
			continue
		}
		totalConfidence += s.Confidence
		individual = append(individual, *s)
	}

	count := len(individual)
	if count == 0 {
		return nil
	}

	var buyStrength, sellStrength float64
	if len(buyVotes) > 0 {
		buyStrength = buySum / float64(len(buyVotes))
	}
	if len(sellVotes) > 0 {
		sellStrength = sellSum / float64(len(sellVotes))
	}

	var sigType models.SignalType
	switch {
	case buyStrength > sellStrength && buyStrength > consensusThreshold:
		sigType = models.SignalBuy
		mean = buyStrength
	case sellStrength > buyStrength && sellStrength > consensusThreshold:
		sigType = models.SignalSell
		mean = sellStrength
	default:
		// tie or below threshold: no consensus
		return nil
	}

	return &models.Signal{
		Symbol:     symbol,
		Type:       sigType,
		Strength:   mean,
		Confidence: totalConfidence / float64(count),
		Price:      price,
		Models:     individual,
		Timestamp:  time.Now().UTC(),
		Source:     "ml",
	}
}
