package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordObservationIncrementsCorrectCounter(t *testing.T) {
	a := New()
	a.RecordObservation(true)
	a.RecordObservation(false)
	a.RecordObservation(false)

	if got := testutil.ToFloat64(a.ObservationsSkipped); got != 1 {
		t.Errorf("ObservationsSkipped = %v, want 1", got)
	}
	if got := testutil.ToFloat64(a.ObservationsProcessed); got != 2 {
		t.Errorf("ObservationsProcessed = %v, want 2", got)
	}
}

func TestRecordGateDecisionLabelsCorrectly(t *testing.T) {
	a := New()
	a.RecordGateDecision("SEND")
	a.RecordGateDecision("SEND")
	a.RecordGateDecision("WAIT")

	if got := testutil.ToFloat64(a.GateDecisions.WithLabelValues("SEND")); got != 2 {
		t.Errorf("SEND count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(a.GateDecisions.WithLabelValues("WAIT")); got != 1 {
		t.Errorf("WAIT count = %v, want 1", got)
	}
}

func TestRecordTrainingStepTracksEMA(t *testing.T) {
	a := New()
	a.RecordTrainingStep(1.0, 1)
	if got := testutil.ToFloat64(a.TrainingLoss); got != 1.0 {
		t.Errorf("first loss EMA = %v, want 1.0", got)
	}
	if got := testutil.ToFloat64(a.ModelVersion); got != 1 {
		t.Errorf("ModelVersion = %v, want 1", got)
	}

	a.RecordTrainingStep(0.0, 2)
	got := testutil.ToFloat64(a.TrainingLoss)
	if got <= 0 || got >= 1.0 {
		t.Errorf("second loss EMA = %v, want strictly between 0 and 1", got)
	}
}

func TestRecordBufferStateComputesRatio(t *testing.T) {
	a := New()
	a.RecordBufferState(500, 1000)
	if got := testutil.ToFloat64(a.BufferFillRatio); got != 0.5 {
		t.Errorf("BufferFillRatio = %v, want 0.5", got)
	}
}

func TestDegradedFlagTogglesIndependently(t *testing.T) {
	a := New()
	if a.Degraded() {
		t.Fatal("new Aggregator should not start degraded")
	}
	a.MarkDegraded()
	if !a.Degraded() {
		t.Fatal("MarkDegraded() did not set the flag")
	}
	a.ClearDegraded()
	if a.Degraded() {
		t.Fatal("ClearDegraded() did not clear the flag")
	}
}
