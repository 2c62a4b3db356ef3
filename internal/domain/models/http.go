package models

// ConnectBrokerRequest connects a named broker with credentials.
type ConnectBrokerRequest struct {
	Name        string      `json:"name" validate:"required"`
	Credentials Credentials `json:"credentials"`
}

// GenerateSignalRequest requests an on-demand signal for one symbol,
// optionally restricted to the named models.
type GenerateSignalRequest struct {
	Symbol string   `json:"symbol" validate:"required"`
	Models []string `json:"models,omitempty"`
}

// ExecuteSignalsRequest submits aggregated signals to a broker.
type ExecuteSignalsRequest struct {
	Broker  string            `json:"broker" validate:"required"`
	Signals map[string]Signal `json:"signals" validate:"required,min=1"`
}

// TrainModelRequest enqueues a model training job.
type TrainModelRequest struct {
	Name      string                 `json:"name" validate:"required"`
	Kind      ModelKind              `json:"kind" validate:"required,oneof=classifier regressor categorical vector"`
	Algorithm string                 `json:"algorithm" validate:"required"`
	Symbol    string                 `json:"symbol" validate:"required"`
	Target    string                 `json:"target" default:"direction"`
	Window    int                    `json:"window" default:"500" validate:"min=50"`
	Params    map[string]interface{} `json:"params,omitempty"`
}

// UpdateModelRequest edits a model's description.
type UpdateModelRequest struct {
	Description string `json:"description" validate:"required"`
}

// StartTradingRequest starts the background trading loop. UseML is a
// pointer so an explicit false is distinguishable from an omitted
// field; the handler defaults it to true when absent.
type StartTradingRequest struct {
	Symbols       []string `json:"symbols" validate:"omitempty,min=1"`
	Interval      int      `json:"interval" default:"60" validate:"min=1"`
	MaxIterations int      `json:"max_iterations"`
	UseML         *bool    `json:"use_ml"`
	UseAlgo       bool     `json:"use_algo"`
	Execute       bool     `json:"execute"`
	Broker        string   `json:"broker"`
}

// SignalHistoryQuery filters persisted signals.
type SignalHistoryQuery struct {
	Symbol string `query:"symbol"`
	Limit  int    `query:"limit" default:"50" validate:"min=1,max=1000"`
}
