package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	signalsGenerated *prometheus.CounterVec
	tradesExecuted   *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	lastPrice        *prometheus.GaugeVec
	latency          *prometheus.HistogramVec
	loopIterations   prometheus.Counter
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsGenerated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantdesk_signals_generated_total",
				Help: "Total number of trading signals generated",
			},
			[]string{"symbol", "type"},
		),
		tradesExecuted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantdesk_trades_executed_total",
				Help: "Total number of trades executed per broker",
			},
			[]string{"broker", "symbol", "result"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantdesk_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "quantdesk_last_price",
				Help: "Last observed price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quantdesk_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		loopIterations: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "quantdesk_trading_loop_iterations_total",
				Help: "Total trading loop iterations completed",
			},
		),
	}
}

// RecordSignal records a generated signal.
func (r *Recorder) RecordSignal(symbol, signalType string) {
	r.signalsGenerated.WithLabelValues(symbol, signalType).Inc()
}

// RecordTrade records a trade execution attempt.
func (r *Recorder) RecordTrade(broker, symbol string, success bool) {
	result := "ok"
	if !success {
		result = "error"
	}
	r.tradesExecuted.WithLabelValues(broker, symbol, result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordLoopIteration records a completed trading loop iteration.
func (r *Recorder) RecordLoopIteration() {
	r.loopIterations.Inc()
}
