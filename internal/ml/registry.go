package ml

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"quantdesk/internal/domain/models"
	"quantdesk/internal/ml/features"
	xhttp "quantdesk/pkg/http"
	"quantdesk/pkg/logger"
)

// modelConfig is the on-disk sidecar for one model.
type modelConfig struct {
	Info      models.ModelInfo `json:"info"`
	Predictor PredictorSpec    `json:"predictor"`
	Scaler    *features.Scaler `json:"scaler,omitempty"`
}

// Registry owns the loaded predictors. The model kind is tagged in the
// sidecar at registration time; it is never re-detected per call.
type Registry struct {
	mu         sync.RWMutex
	dir        string
	predictors map[string]Predictor
	logger     *logger.Logger
	client     *xhttp.Client
}

// NewRegistry creates a registry backed by a sidecar config directory.
func NewRegistry(dir string, client *xhttp.Client, lgr *logger.Logger) *Registry {
	return &Registry{
		dir:        dir,
		predictors: make(map[string]Predictor),
		logger:     lgr,
		client:     client,
	}
}

// LoadAll scans the config directory and loads every model sidecar.
// Individual load failures are logged and skipped.
func (r *Registry) LoadAll() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(r.dir, 0o755)
		}
		return fmt.Errorf("read models dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".json")
		if err := r.load(name); err != nil {
			r.logger.Warn("model load failed",
				logger.String("model", name),
				logger.Error(err))
		}
	}

	r.logger.Info("models loaded", logger.Int("count", r.Count()))
	return nil
}

func (r *Registry) load(name string) error {
	data, err := os.ReadFile(r.path(name))
	if err != nil {
		return err
	}

	var cfg modelConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse sidecar: %w", err)
	}
	if cfg.Info.Name == "" {
		cfg.Info.Name = name
	}

	p, err := NewPredictor(cfg.Info, cfg.Predictor, cfg.Scaler, r.client)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.predictors[cfg.Info.Name] = p
	r.mu.Unlock()
	return nil
}

// Register persists a model sidecar and loads its predictor.
func (r *Registry) Register(info models.ModelInfo, spec PredictorSpec, scaler *features.Scaler) error {
	if info.Name == "" {
		return fmt.Errorf("model name required")
	}
	if info.CreatedAt.IsZero() {
		info.CreatedAt = time.Now().UTC()
	}

	p, err := NewPredictor(info, spec, scaler, r.client)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(modelConfig{Info: info, Predictor: spec, Scaler: scaler}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sidecar: %w", err)
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(r.path(info.Name), data, 0o644); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}

	r.mu.Lock()
	r.predictors[info.Name] = p
	r.mu.Unlock()

	r.logger.Info("model registered",
		logger.String("model", info.Name),
		logger.String("kind", string(info.Kind)))
	return nil
}

// Get returns the predictor for name.
func (r *Registry) Get(name string) (Predictor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.predictors[name]
	return p, ok
}

// List returns model infos sorted by name.
func (r *Registry) List() []models.ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]models.ModelInfo, 0, len(r.predictors))
	for _, p := range r.predictors {
		infos = append(infos, p.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Predictors returns a snapshot of all loaded predictors.
func (r *Registry) Predictors() []Predictor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Predictor, 0, len(r.predictors))
	for _, p := range r.predictors {
		out = append(out, p)
	}
	return out
}

// Count returns the number of loaded models.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.predictors)
}

// UpdateDescription edits a model's description, the only mutable
// field after registration.
func (r *Registry) UpdateDescription(name, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.predictors[name]; !ok {
		return fmt.Errorf("model %q not found", name)
	}

	data, err := os.ReadFile(r.path(name))
	if err != nil {
		return err
	}
	var cfg modelConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse sidecar: %w", err)
	}

	cfg.Info.Description = description
	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(r.path(name), out, 0o644); err != nil {
		return err
	}

	np, err := NewPredictor(cfg.Info, cfg.Predictor, cfg.Scaler, r.client)
	if err != nil {
		return err
	}
	r.predictors[name] = np
	return nil
}

// Delete removes a model and its sidecar.
func (r *Registry) Delete(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.predictors[name]; !ok {
		return fmt.Errorf("model %q not found", name)
	}

	delete(r.predictors, name)
	if err := os.Remove(r.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove sidecar: %w", err)
	}

	r.logger.Info("model deleted", logger.String("model", name))
	return nil
}

func (r *Registry) path(name string) string {
	return filepath.Join(r.dir, name+".json")
}
