// Package trainer implements the continuous background trainer: a
// single goroutine that samples the replay buffer, performs reward-
// shaped policy updates, checkpoints periodically and publishes
// metrics, per SPEC_FULL.md §4.6.
//
// Its start/stop lifecycle is grounded on the teacher's
// alphaMonteCarloVanillaTrain done-channel guard (a closed-once done
// channel checked via select before and after blocking work), and its
// sleep/tick cadence on channerics.NewTicker's done-aware ticker used
// in main.go and server/server.go.
package trainer

import (
	"context"
	"errors"
	"sync"
	"time"

	channerics "github.com/niceyeti/channerics/channels"

	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/metrics"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/policy"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/replay"
)

// ErrDivergence is logged (never returned to a caller, never crashes
// the process) when a training step produces a non-finite loss or weight.
var ErrDivergence = errors.New("trainer: training step diverged")

// Logger is the minimal structured-logging surface the trainer needs;
// satisfied by the standard library's *slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config tunes the trainer's cadence and checkpointing.
type Config struct {
	TrainingInterval   time.Duration
	MinBatch           int
	BatchSize          int
	LearningRate       float64
	CheckpointInterval int // in training steps
	CheckpointPath     string
}

// Trainer owns the training loop. Start launches exactly one goroutine;
// Stop (or context cancellation) ends it. Both are idempotent.
type Trainer struct {
	cfg     Config
	network *policy.Network
	buffer  *replay.Buffer
	axis    int
	metrics *metrics.Aggregator
	logger  Logger

	mu       sync.Mutex
	running  bool
	done     chan struct{}
	cancel   context.CancelFunc
	stepsTot int64
}

// New builds a Trainer wired to network, buffer and an aggregator for metrics.
func New(cfg Config, network *policy.Network, buffer *replay.Buffer, axis int, agg *metrics.Aggregator, logger Logger) *Trainer {
	return &Trainer{cfg: cfg, network: network, buffer: buffer, axis: axis, metrics: agg, logger: logger}
}

// Start launches the trainer's goroutine if it isn't already running.
// Calling Start on an already-running Trainer is a no-op.
func (t *Trainer) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.running = true
	t.done = make(chan struct{})
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	go t.run(ctx, t.done)
}

// Stop ends the trainer's goroutine and blocks until it has exited,
// draining any in-flight step first. Calling Stop when not running is
// a no-op.
func (t *Trainer) Stop() {
	t.mu.Lock()
	running := t.running
	done := t.done
	cancel := t.cancel
	t.mu.Unlock()
	if !running {
		return
	}
	cancel()
	<-done
}

func (t *Trainer) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer func() {
		t.mu.Lock()
		t.running = false
		t.mu.Unlock()
	}()

	lastThroughputCheck := time.Now()
	stepsSinceCheck := int64(0)
	lastCheckpoint := int64(0)

	ticker := channerics.NewTicker(ctx.Done(), t.cfg.TrainingInterval)
	for range ticker {
		select {
		case <-ctx.Done():
			return
		default:
		}

		size, err := t.buffer.Size()
		if err != nil {
			t.logger.Warn("trainer: buffer size check failed", "error", err)
			continue
		}
		t.metrics.RecordBufferState(size, t.buffer.Capacity())

		if size < t.cfg.MinBatch {
			continue
		}

		batch, err := t.buffer.Sample(t.cfg.BatchSize)
		if err != nil {
			t.logger.Warn("trainer: sample failed", "error", err)
			continue
		}
		if len(batch) == 0 {
			continue
		}

		t.step(batch)
		stepsSinceCheck++

		if elapsed := time.Since(lastThroughputCheck); elapsed >= time.Second {
			t.metrics.RecordThroughput(float64(stepsSinceCheck) / elapsed.Seconds())
			stepsSinceCheck = 0
			lastThroughputCheck = time.Now()
		}

		if t.cfg.CheckpointInterval > 0 && t.stepsTot-lastCheckpoint >= int64(t.cfg.CheckpointInterval) && t.cfg.CheckpointPath != "" {
			lastCheckpoint = t.stepsTot
			if err := policy.SaveCheckpoint(t.network, t.cfg.CheckpointPath); err != nil {
				t.logger.Error("trainer: checkpoint failed", "error", err)
			}
		}
	}
}

// step trains on every experience in batch using its ActualReward,
// falling back to ExpectedReward for a row that has none. Sampled rows
// are always resolved: the handler resolves no-spawn rows too, and
// reward.Calculate passes the gate's expected reward through for them,
// so those rows train on the gate's ExpectedReward value.
func (t *Trainer) step(batch []replay.Experience) {
	for _, exp := range batch {
		reward := exp.ExpectedReward
		if exp.ActualReward != nil {
			reward = *exp.ActualReward
		}

		info := t.network.TrainWithReward(exp.Features, exp.Chunk, exp.SpawnType, reward, t.cfg.LearningRate)
		t.stepsTot++

		if info.Diverged {
			t.logger.Warn("trainer: diverged, skipping publish", "error", ErrDivergence, "experience_chunk", exp.Chunk)
			continue
		}

		t.metrics.RecordTrainingStep(info.Loss, t.network.Weights().Version)
	}
}

