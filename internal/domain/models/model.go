package models

import "time"

// ModelKind tags how a model's raw output must be interpreted.
// The kind is fixed at registration time.
type ModelKind string

const (
	// KindClassifier emits class probabilities.
	KindClassifier ModelKind = "classifier"
	// KindRegressor emits a single numeric value.
	KindRegressor ModelKind = "regressor"
	// KindCategorical emits a class label without probabilities.
	KindCategorical ModelKind = "categorical"
	// KindVector emits a numeric vector (neural net style output).
	KindVector ModelKind = "vector"
)

// ModelInfo describes a registered predictive model.
type ModelInfo struct {
	Name        string                 `json:"name"`
	Kind        ModelKind              `json:"kind"`
	Algorithm   string                 `json:"algorithm"`
	Accuracy    float64                `json:"accuracy,omitempty"`
	Features    []string               `json:"features,omitempty"`
	Target      string                 `json:"target,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
	Description string                 `json:"description,omitempty"`
	CreatedAt   time.Time              `json:"created_at,omitempty"`
}
