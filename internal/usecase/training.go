package usecase

import (
	"context"
	"fmt"
	"time"

	"quantdesk/internal/domain/models"
	"quantdesk/internal/ml"
	"quantdesk/internal/ml/features"
	xhttp "quantdesk/pkg/http"
	"quantdesk/pkg/logger"
	"quantdesk/pkg/queue"
)

// TrainModelType is the queue message type for training jobs.
const TrainModelType = "model.train"

// trainResponse is what the model server returns for a finished run.
type trainResponse struct {
	Accuracy float64          `json:"accuracy"`
	Spec     ml.PredictorSpec `json:"spec"`
	Scaler   *features.Scaler `json:"scaler,omitempty"`
	Features []string         `json:"features,omitempty"`
}

// TrainJob runs model training through the external model server and
// registers the result. Executed by queue workers so the request path
// never blocks on a training run.
type TrainJob struct {
	serverURL string
	client    *xhttp.Client
	registry  *ml.Registry
	logger    *logger.Logger
}

func NewTrainJob(serverURL string, client *xhttp.Client, registry *ml.Registry, lgr *logger.Logger) *TrainJob {
	return &TrainJob{serverURL: serverURL, client: client, registry: registry, logger: lgr}
}

func (j *TrainJob) Name() string { return "train-model" }

func (j *TrainJob) Type() string { return TrainModelType }

func (j *TrainJob) Handle(ctx context.Context, payload interface{}) error {
	req, err := queue.ParsePayload[models.TrainModelRequest](payload)
	if err != nil {
		return fmt.Errorf("parse training payload: %w", err)
	}

	j.logger.Info("training started",
		logger.String("model", req.Name),
		logger.String("algorithm", req.Algorithm),
		logger.String("symbol", req.Symbol))

	start := time.Now()
	var resp trainResponse
	if err := j.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    j.serverURL + "/train",
		Body:   req,
	}, &resp); err != nil {
		j.logger.Error("training failed",
			logger.String("model", req.Name),
			logger.Error(err))
		return fmt.Errorf("train %s: %w", req.Name, err)
	}

	info := models.ModelInfo{
		Name:        req.Name,
		Kind:        req.Kind,
		Algorithm:   req.Algorithm,
		Accuracy:    resp.Accuracy,
		Features:    resp.Features,
		Target:      req.Target,
		Parameters:  req.Params,
		CreatedAt:   time.Now().UTC(),
		Description: fmt.Sprintf("trained on %s", req.Symbol),
	}

	if err := j.registry.Register(info, resp.Spec, resp.Scaler); err != nil {
		return fmt.Errorf("register %s: %w", req.Name, err)
	}

	j.logger.Info("training finished",
		logger.String("model", req.Name),
		logger.Float64("accuracy", resp.Accuracy),
		logger.Duration("duration_ms", time.Since(start)))
	return nil
}
