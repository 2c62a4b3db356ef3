package ml

import (
	"context"
	"fmt"
	"math"

	"quantdesk/internal/domain/models"
	"quantdesk/internal/ml/features"
	xhttp "quantdesk/pkg/http"
)

// PredictorSpec is the sidecar description of how a model predicts.
// Exactly one family of fields applies depending on Type.
type PredictorSpec struct {
	Type     string    `json:"type"` // linear | logistic | rule | http
	Weights  []float64 `json:"weights,omitempty"`
	Bias     float64   `json:"bias,omitempty"`
	Classes  []string  `json:"classes,omitempty"`
	Endpoint string    `json:"endpoint,omitempty"`
	Rules    []Rule    `json:"rules,omitempty"`
}

// Rule compares a single feature against a threshold.
type Rule struct {
	Feature int     `json:"feature"`
	Op      string  `json:"op"` // gt | lt
	Value   float64 `json:"value"`
	Label   string  `json:"label"`
}

// NewPredictor constructs a predictor from its sidecar spec.
func NewPredictor(info models.ModelInfo, spec PredictorSpec, scaler *features.Scaler, client *xhttp.Client) (Predictor, error) {
	switch spec.Type {
	case "linear":
		if len(spec.Weights) == 0 {
			return nil, fmt.Errorf("linear predictor %q: weights required", info.Name)
		}
		return &linearPredictor{info: info, spec: spec, scaler: scaler}, nil
	case "logistic":
		if len(spec.Weights) == 0 || len(spec.Classes) != 2 {
			return nil, fmt.Errorf("logistic predictor %q: weights and two classes required", info.Name)
		}
		return &logisticPredictor{info: info, spec: spec, scaler: scaler}, nil
	case "rule":
		if len(spec.Rules) == 0 {
			return nil, fmt.Errorf("rule predictor %q: rules required", info.Name)
		}
		return &rulePredictor{info: info, spec: spec, scaler: scaler}, nil
	case "http":
		if spec.Endpoint == "" {
			return nil, fmt.Errorf("http predictor %q: endpoint required", info.Name)
		}
		return &httpPredictor{info: info, spec: spec, scaler: scaler, client: client}, nil
	default:
		return nil, fmt.Errorf("unknown predictor type %q for model %q", spec.Type, info.Name)
	}
}

// linearPredictor emits dot(weights, features) + bias as a regression
// value.
type linearPredictor struct {
	info   models.ModelInfo
	spec   PredictorSpec
	scaler *features.Scaler
}

func (p *linearPredictor) Info() models.ModelInfo { return p.info }
func (p *linearPredictor) Scaler() *features.Scaler { return p.scaler }

func (p *linearPredictor) Predict(_ context.Context, featureVec []float64) (*Output, error) {
	return &Output{Value: dot(p.spec.Weights, featureVec) + p.spec.Bias}, nil
}

// logisticPredictor emits two-class probabilities via a sigmoid over a
// linear score. Classes[1] gets the positive probability.
type logisticPredictor struct {
	info   models.ModelInfo
	spec   PredictorSpec
	scaler *features.Scaler
}

func (p *logisticPredictor) Info() models.ModelInfo { return p.info }
func (p *logisticPredictor) Scaler() *features.Scaler { return p.scaler }

func (p *logisticPredictor) Predict(_ context.Context, featureVec []float64) (*Output, error) {
	score := dot(p.spec.Weights, featureVec) + p.spec.Bias
	pos := 1.0 / (1.0 + math.Exp(-score))
	return &Output{
		Probabilities: map[string]float64{
			p.spec.Classes[0]: 1.0 - pos,
			p.spec.Classes[1]: pos,
		},
	}, nil
}

// rulePredictor emits the label of the first matching rule.
type rulePredictor struct {
	info   models.ModelInfo
	spec   PredictorSpec
	scaler *features.Scaler
}

func (p *rulePredictor) Info() models.ModelInfo { return p.info }
func (p *rulePredictor) Scaler() *features.Scaler { return p.scaler }

func (p *rulePredictor) Predict(_ context.Context, featureVec []float64) (*Output, error) {
	for _, r := range p.spec.Rules {
		if r.Feature < 0 || r.Feature >= len(featureVec) {
			continue
		}
		v := featureVec[r.Feature]
		matched := (r.Op == "gt" && v > r.Value) || (r.Op == "lt" && v < r.Value)
		if matched {
			return &Output{Label: r.Label}, nil
		}
	}
	return &Output{Label: "hold"}, nil
}

// httpPredictor delegates inference to an external model server.
type httpPredictor struct {
	info   models.ModelInfo
	spec   PredictorSpec
	scaler *features.Scaler
	client *xhttp.Client
}

func (p *httpPredictor) Info() models.ModelInfo { return p.info }
func (p *httpPredictor) Scaler() *features.Scaler { return p.scaler }

func (p *httpPredictor) Predict(ctx context.Context, featureVec []float64) (*Output, error) {
	var out Output
	err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    p.spec.Endpoint,
		Body: map[string]interface{}{
			"model":    p.info.Name,
			"features": featureVec,
		},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("model server predict: %w", err)
	}
	return &out, nil
}

func dot(w, x []float64) float64 {
	n := len(w)
	if len(x) < n {
		n = len(x)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += w[i] * x[i]
	}
	return sum
}
