package models

import "time"

// SessionStatus is the lifecycle state of a trading session.
type SessionStatus string

const (
	SessionRunning SessionStatus = "running"
	SessionStopped SessionStatus = "stopped"
	SessionFailed  SessionStatus = "failed"
)

// Session is one run of the background trading loop.
type Session struct {
	ID           string        `json:"id"`
	Symbols      []string      `json:"symbols"`
	Status       SessionStatus `json:"status"`
	Iterations   int           `json:"iterations"`
	SignalCount  int           `json:"signal_count"`
	TradeCount   int           `json:"trade_count"`
	ErrorCount   int           `json:"error_count"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   *time.Time    `json:"finished_at,omitempty"`
	LastError    string        `json:"last_error,omitempty"`
	UsedML       bool          `json:"used_ml"`
	UsedAlgo     bool          `json:"used_algo"`
	ExecuteLive  bool          `json:"execute_live"`
	BrokerTarget string        `json:"broker_target,omitempty"`
}
