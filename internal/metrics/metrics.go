// Package metrics implements the dashboard metrics aggregator: a
// prometheus.Registry plus typed accessors each pipeline stage writes
// to, per SPEC_FULL.md §4.9. Grounded on NikeGunn-tutu's observability
// package's promauto-constructed metric style, scoped here to one
// Aggregator per process rather than global package vars so tests can
// spin up independent instances.
package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Aggregator owns every metric the pipeline publishes and the
// prometheus.Registry readers gather them from. Each producer
// (preprocess gate, decision gate, trainer) writes only its own
// counters — the single-writer invariant of SPEC_FULL.md §5 — while
// reads go through the registry's lock-free gatherer.
type Aggregator struct {
	Registry *prometheus.Registry

	ObservationsProcessed prometheus.Counter
	ObservationsSkipped   prometheus.Counter
	GateDecisions         *prometheus.CounterVec
	TrainingLoss          prometheus.Gauge
	BufferFillRatio       prometheus.Gauge
	TrainingStepsPerSec   prometheus.Gauge
	ModelVersion          prometheus.Gauge

	mu       sync.Mutex
	degraded atomic.Bool

	lossEMA     float64
	lossEMAInit bool
	emaAlpha    float64

	stepsPerSec float64
}

// New builds an Aggregator registered against a fresh prometheus.Registry.
func New() *Aggregator {
	reg := prometheus.NewRegistry()
	a := &Aggregator{
		Registry: reg,
		emaAlpha: 0.1,

		ObservationsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "queenai",
			Subsystem: "pipeline",
			Name:      "observations_processed_total",
			Help:      "Total observations that passed the preprocess-gate activity check.",
		}),
		ObservationsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "queenai",
			Subsystem: "pipeline",
			Name:      "observations_skipped_total",
			Help:      "Total observations skipped by the preprocess gate (no activity).",
		}),
		GateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "queenai",
			Subsystem: "gate",
			Name:      "decisions_total",
			Help:      "Total gate decisions by tag (SEND, WAIT, CORRECT_WAIT, SHOULD_SPAWN).",
		}, []string{"decision"}),
		TrainingLoss: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "queenai",
			Subsystem: "trainer",
			Name:      "loss_ema",
			Help:      "Exponential moving average of the trainer's combined loss.",
		}),
		BufferFillRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "queenai",
			Subsystem: "replay",
			Name:      "buffer_fill_ratio",
			Help:      "Replay buffer size divided by capacity.",
		}),
		TrainingStepsPerSec: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "queenai",
			Subsystem: "trainer",
			Name:      "steps_per_second",
			Help:      "Training steps performed per second, measured over the last interval.",
		}),
		ModelVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "queenai",
			Subsystem: "policy",
			Name:      "model_version",
			Help:      "Currently published policy network version.",
		}),
	}

	reg.MustRegister(
		a.ObservationsProcessed,
		a.ObservationsSkipped,
		a.GateDecisions,
		a.TrainingLoss,
		a.BufferFillRatio,
		a.TrainingStepsPerSec,
		a.ModelVersion,
	)

	return a
}

// RecordObservation increments the processed or skipped counter.
func (a *Aggregator) RecordObservation(skipped bool) {
	if skipped {
		a.ObservationsSkipped.Inc()
		return
	}
	a.ObservationsProcessed.Inc()
}

// RecordGateDecision increments the named decision tag's counter.
func (a *Aggregator) RecordGateDecision(decision string) {
	a.GateDecisions.WithLabelValues(decision).Inc()
}

// RecordTrainingStep updates the loss EMA and model version gauges
// after one trainer optimizer step.
func (a *Aggregator) RecordTrainingStep(loss float64, modelVersion int64) {
	a.mu.Lock()
	if !a.lossEMAInit {
		a.lossEMA = loss
		a.lossEMAInit = true
	} else {
		a.lossEMA = a.emaAlpha*loss + (1-a.emaAlpha)*a.lossEMA
	}
	ema := a.lossEMA
	a.mu.Unlock()

	a.TrainingLoss.Set(ema)
	a.ModelVersion.Set(float64(modelVersion))
}

// RecordBufferState updates the buffer-fill-ratio gauge.
func (a *Aggregator) RecordBufferState(size, capacity int) {
	if capacity <= 0 {
		a.BufferFillRatio.Set(0)
		return
	}
	a.BufferFillRatio.Set(float64(size) / float64(capacity))
}

// RecordThroughput updates steps-per-second.
func (a *Aggregator) RecordThroughput(stepsPerSec float64) {
	a.mu.Lock()
	a.stepsPerSec = stepsPerSec
	a.mu.Unlock()
	a.TrainingStepsPerSec.Set(stepsPerSec)
}

// LossEMA returns the trainer's current loss exponential moving
// average, for the training_status_request wire response.
func (a *Aggregator) LossEMA() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lossEMA
}

// ThroughputStepsPerSec returns the trainer's last-measured training
// throughput, for the background_training_stats_request wire response.
func (a *Aggregator) ThroughputStepsPerSec() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stepsPerSec
}

// MarkDegraded flags the service as degraded (e.g. ModelNotInitialized
// observed on the request path, per SPEC_FULL.md §7).
func (a *Aggregator) MarkDegraded() {
	a.degraded.Store(true)
}

// ClearDegraded clears the degraded flag, e.g. once a model publishes.
func (a *Aggregator) ClearDegraded() {
	a.degraded.Store(false)
}

// Degraded reports whether the service is currently flagged degraded.
func (a *Aggregator) Degraded() bool {
	return a.degraded.Load()
}
