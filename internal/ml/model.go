package ml

import (
	"context"

	"quantdesk/internal/domain/models"
	"quantdesk/internal/ml/features"
)

// Output is the raw result of one prediction call. Which field is
// meaningful depends on the model kind tagged at registration.
type Output struct {
	Probabilities map[string]float64 `json:"probabilities,omitempty"` // classifier
	Value         float64            `json:"value,omitempty"`         // regressor
	Label         string             `json:"label,omitempty"`         // categorical
	Vector        []float64          `json:"vector,omitempty"`        // neural net style
}

// Predictor produces raw outputs from feature vectors.
type Predictor interface {
	Info() models.ModelInfo
	Predict(ctx context.Context, featureVec []float64) (*Output, error)
	Scaler() *features.Scaler
}
