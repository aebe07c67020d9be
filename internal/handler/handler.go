// Package handler implements the message-handler facade: one entry
// point that dispatches an inbound wire.Envelope by its Type and wires
// together the preprocess gate, feature extractor, policy network,
// decision gate, reward calculator and replay buffer, per
// SPEC_FULL.md §6.
//
// Grounded on the teacher's server/fastview client dispatch loop (one
// message in, one type switch, one response out) generalized from a
// single fastview message family to the full wire protocol table.
package handler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/features"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/gate"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/grid"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/metrics"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/observation"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/policy"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/replay"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/reward"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/wire"
)

// Logger is the minimal structured-logging surface the handler needs;
// satisfied by the standard library's *slog.Logger, same shape as
// internal/trainer.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Hooks are the callbacks a handler delegates the out-of-core-scope
// message types to, per spec.md §6 ("forwarded to higher-level
// subsystems"). Any nil hook is simply not called.
type Hooks struct {
	OnSpawnResult  func(territoryID string, success bool, chunk int)
	OnQueenDeath   func(payload wire.ForwardedPayload)
	OnQueenSuccess func(payload wire.ForwardedPayload)
	OnGameOutcome  func(payload wire.ForwardedPayload)
}

// spawnFailurePenalty is the reward a failed spawn_result resolves the
// territory's pending experience with, independent of the next
// observation's organic reward (spec.md §6: "failed -> penalty
// reward").
const spawnFailurePenalty = -0.5

// pendingDecision is the bookkeeping a handler keeps per territory
// between observations, so the reward calculator can see the
// transition its own previous decision produced.
type pendingDecision struct {
	obs            *observation.Observation
	chunk          grid.ID
	expectedReward float64
}

// Handler owns references to every pipeline stage and the per-territory
// state the reward calculator needs across observations. Safe for
// concurrent use across territories: its own mutex guards the
// per-territory maps, while the gate, network and buffer each already
// guard their own state per SPEC_FULL.md §5.
type Handler struct {
	gate      *gate.Gate
	network   *policy.Network
	buffer    *replay.Buffer
	rewardCfg reward.Config
	axis      int
	metrics   *metrics.Aggregator
	logger    Logger
	hooks     Hooks

	tick atomic.Int64

	mu           sync.Mutex
	lastDecision map[string]pendingDecision
	gateTally    map[string]int64
}

// New builds a Handler wired to the given pipeline stages.
func New(g *gate.Gate, network *policy.Network, buffer *replay.Buffer, rewardCfg reward.Config, axis int, agg *metrics.Aggregator, logger Logger, hooks Hooks) *Handler {
	return &Handler{
		gate:         g,
		network:      network,
		buffer:       buffer,
		rewardCfg:    rewardCfg,
		axis:         axis,
		metrics:      agg,
		logger:       logger,
		hooks:        hooks,
		lastDecision: make(map[string]pendingDecision),
		gateTally:    make(map[string]int64),
	}
}

// Handle dispatches env by its Type and returns the response envelope
// to send back, or nil when the message type has no response (per
// spec.md §6's wire protocol table).
func (h *Handler) Handle(ctx context.Context, env wire.Envelope) (*wire.Envelope, error) {
	if verr := wire.ValidateEnvelope(env); verr != nil {
		return h.validationErrorEnvelope(env, verr), nil
	}

	switch env.Type {
	case wire.TypeObservationData:
		return h.handleObservation(env)
	case wire.TypeSpawnResult:
		return h.handleSpawnResult(env)
	case wire.TypeQueenDeath:
		return h.handleForwarded(env, h.hooks.OnQueenDeath)
	case wire.TypeQueenSuccess:
		return h.handleForwarded(env, h.hooks.OnQueenSuccess)
	case wire.TypeGameOutcome:
		return h.handleForwarded(env, h.hooks.OnGameOutcome)
	case wire.TypePing:
		return h.handlePing(env)
	case wire.TypeHealthCheck:
		return h.handleHealthCheck(env)
	case wire.TypeResetNN:
		return h.handleResetNN(env)
	case wire.TypeGateStatsRequest:
		return h.handleGateStatsRequest(env)
	case wire.TypeTrainingStatusRequest:
		return h.handleTrainingStatusRequest(env)
	case wire.TypeBackgroundTrainingStatsRequest:
		return h.handleBackgroundTrainingStatsRequest(env)
	default:
		// ValidateEnvelope already rejects unrecognized types, so this
		// is reachable only for recognized types this switch has no
		// case for yet (e.g. response-only types arriving inbound).
		verr := &wire.ValidationError{Field: "type", Reason: "no handler for type " + string(env.Type), Retryable: false}
		return h.validationErrorEnvelope(env, verr), nil
	}
}

func (h *Handler) handleObservation(env wire.Envelope) (*wire.Envelope, error) {
	payload, verr := wire.DecodeObservationPayload(env.Data)
	if verr != nil {
		return h.validationErrorEnvelope(env, verr), nil
	}
	obs := payload.ToObservation()
	territory := obs.Territory
	tick := h.tick.Add(1)

	skip, _ := gate.Preprocess(obs)
	h.metrics.RecordObservation(skip)

	var feats [features.Size]float64
	var gd gate.GateDecision
	nnDecision := "no_spawn"
	confidence := 0.0

	if skip {
		gd = h.gate.Evaluate(obs, gate.Candidate{Chunk: -1}, tick)
		nnDecision = "skipped"
	} else {
		f, err := features.Extract(obs, h.axis)
		if err != nil {
			verr := &wire.ValidationError{Field: "observation", Reason: err.Error(), Retryable: false}
			return h.validationErrorEnvelope(env, verr), nil
		}
		feats = f

		decision := h.network.GetSpawnDecision(feats)
		confidence = decision.Confidence
		nnDecision = decision.NNDecision

		candidate := gate.Candidate{Chunk: decision.SpawnChunk, Confidence: decision.Confidence}
		if decision.SpawnType != nil {
			candidate.Type = *decision.SpawnType
		}
		gd = h.gate.Evaluate(obs, candidate, tick)
	}

	h.metrics.RecordGateDecision(gd.Decision.String())
	h.tallyGateDecision(gd.Decision.String())
	h.resolvePendingReward(territory, obs)

	// A SHOULD_SPAWN row records the no-spawn action the network took,
	// not the gate's alternative chunk.
	recChunk, recType := gd.Chunk, gd.Type
	if gd.Decision == gate.ShouldSpawn {
		recChunk, recType = -1, observation.SpawnTypeNone
	}
	exp := replay.Experience{
		Features:       feats,
		Chunk:          recChunk,
		SpawnType:      recType,
		ExpectedReward: gd.ExpectedReward,
		Territory:      territory,
		Timestamp:      time.Now(),
		ModelVersion:   h.network.Weights().Version,
	}
	if err := h.buffer.Add(exp); err != nil {
		h.logger.Warn("handler: buffer add failed", "error", err, "territory", territory)
	}

	h.mu.Lock()
	h.lastDecision[territory] = pendingDecision{obs: obs, chunk: recChunk, expectedReward: gd.ExpectedReward}
	h.mu.Unlock()

	var spawnType *string
	if gd.Chunk >= 0 {
		s := gd.Type.String()
		spawnType = &s
	}

	resp := wire.ObservationResponsePayload{
		SpawnChunk:     int(gd.Chunk),
		SpawnType:      spawnType,
		Confidence:     confidence,
		NNDecision:     nnDecision,
		GateDecision:   gd.Decision.String(),
		ExpectedReward: gd.ExpectedReward,
	}
	respEnv, err := wire.NewEnvelope(wire.TypeObservationResponse, env.MessageID, resp)
	if err != nil {
		return nil, err
	}
	return &respEnv, nil
}

// resolvePendingReward closes out the territory's previous decision
// against the observation that just arrived, before that observation's
// own decision is recorded as the new pending row.
func (h *Handler) resolvePendingReward(territory string, curr *observation.Observation) {
	h.mu.Lock()
	prev, ok := h.lastDecision[territory]
	h.mu.Unlock()
	if !ok {
		return
	}

	spawnChunk := prev.chunk
	if spawnChunk < 0 {
		spawnChunk = grid.NoSpawn(h.axis)
	}
	outcome := reward.Calculate(prev.obs, curr, spawnChunk, h.axis, prev.expectedReward, h.rewardCfg)
	if err := h.buffer.UpdatePendingReward(territory, outcome.Reward); err != nil && err != replay.ErrNoPending {
		h.logger.Warn("handler: resolve pending reward failed", "error", err, "territory", territory)
	}
}

func (h *Handler) handleSpawnResult(env wire.Envelope) (*wire.Envelope, error) {
	payload, verr := wire.DecodeSpawnResultPayload(env.Data)
	if verr != nil {
		return h.validationErrorEnvelope(env, verr), nil
	}

	if !payload.Success {
		if err := h.buffer.UpdatePendingReward(payload.TerritoryID, spawnFailurePenalty); err != nil && err != replay.ErrNoPending {
			h.logger.Warn("handler: spawn failure penalty not recorded", "error", err, "territory", payload.TerritoryID)
		}
	}

	if h.hooks.OnSpawnResult != nil {
		h.hooks.OnSpawnResult(payload.TerritoryID, payload.Success, payload.Chunk)
	}
	return nil, nil
}

func (h *Handler) handleForwarded(env wire.Envelope, hook func(wire.ForwardedPayload)) (*wire.Envelope, error) {
	payload, verr := wire.DecodeForwardedPayload(env.Data)
	if verr != nil {
		return h.validationErrorEnvelope(env, verr), nil
	}
	if hook != nil {
		hook(payload)
	}
	return nil, nil
}

func (h *Handler) handlePing(env wire.Envelope) (*wire.Envelope, error) {
	respEnv, err := wire.NewEnvelope(wire.TypePong, env.MessageID, wire.PongPayload{Timestamp: time.Now()})
	if err != nil {
		return nil, err
	}
	return &respEnv, nil
}

func (h *Handler) handleHealthCheck(env wire.Envelope) (*wire.Envelope, error) {
	degraded := h.metrics.Degraded()
	status := "ok"
	if degraded {
		status = "degraded"
	}
	respEnv, err := wire.NewEnvelope(wire.TypeHealthResponse, env.MessageID, wire.HealthResponsePayload{Status: status, Degraded: degraded})
	if err != nil {
		return nil, err
	}
	return &respEnv, nil
}

func (h *Handler) handleResetNN(env wire.Envelope) (*wire.Envelope, error) {
	_, verr := wire.DecodeResetNNPayload(env.Data)
	if verr != nil {
		return h.validationErrorEnvelope(env, verr), nil
	}

	h.network.Reinitialize(time.Now().UnixNano())
	if err := h.buffer.Clear(); err != nil {
		h.logger.Warn("handler: buffer clear on reset_nn failed", "error", err)
	}
	h.metrics.RecordTrainingStep(0, h.network.Weights().Version)

	h.mu.Lock()
	h.lastDecision = make(map[string]pendingDecision)
	h.mu.Unlock()

	respEnv, err := wire.NewEnvelope(wire.TypeResetNNResponse, env.MessageID, wire.ResetNNResponsePayload{Success: true})
	if err != nil {
		return nil, err
	}
	return &respEnv, nil
}

func (h *Handler) handleGateStatsRequest(env wire.Envelope) (*wire.Envelope, error) {
	h.mu.Lock()
	decisions := make(map[string]float64, len(h.gateTally))
	for k, v := range h.gateTally {
		decisions[k] = float64(v)
	}
	h.mu.Unlock()

	respEnv, err := wire.NewEnvelope(wire.TypeGateStatsResponse, env.MessageID, wire.GateStatsResponsePayload{Decisions: decisions})
	if err != nil {
		return nil, err
	}
	return &respEnv, nil
}

func (h *Handler) handleTrainingStatusRequest(env wire.Envelope) (*wire.Envelope, error) {
	w := h.network.Weights()
	respEnv, err := wire.NewEnvelope(wire.TypeTrainingStatusResponse, env.MessageID, wire.TrainingStatusResponsePayload{
		ModelVersion: w.Version,
		TrainingLoss: h.metrics.LossEMA(),
	})
	if err != nil {
		return nil, err
	}
	return &respEnv, nil
}

func (h *Handler) handleBackgroundTrainingStatsRequest(env wire.Envelope) (*wire.Envelope, error) {
	size, err := h.buffer.Size()
	if err != nil {
		h.logger.Warn("handler: buffer size unavailable for stats", "error", err)
	}
	capacity := h.buffer.Capacity()
	fillRatio := 0.0
	if capacity > 0 {
		fillRatio = float64(size) / float64(capacity)
	}

	respEnv, encErr := wire.NewEnvelope(wire.TypeBackgroundTrainingStatsResponse, env.MessageID, wire.BackgroundTrainingStatsResponsePayload{
		StepsPerSecond:  h.metrics.ThroughputStepsPerSec(),
		BufferFillRatio: fillRatio,
	})
	if encErr != nil {
		return nil, encErr
	}
	return &respEnv, nil
}

func (h *Handler) tallyGateDecision(decision string) {
	h.mu.Lock()
	h.gateTally[decision]++
	h.mu.Unlock()
}

// validationErrorEnvelope builds the typed VALIDATION_ERROR response
// spec.md §7 requires, carrying the retryable flag the client uses to
// decide whether to resend as-is or with corrected fields.
func (h *Handler) validationErrorEnvelope(env wire.Envelope, verr *wire.ValidationError) *wire.Envelope {
	respEnv, err := wire.NewEnvelope(wire.TypeError, env.MessageID, wire.ErrorPayload{
		Code:      "VALIDATION_ERROR",
		Field:     verr.Field,
		Reason:    verr.Reason,
		Retryable: verr.Retryable,
	})
	if err != nil {
		// Marshaling a fixed, known-good struct cannot fail; fall back to
		// an empty envelope of the same type rather than panicking.
		return &wire.Envelope{Type: wire.TypeError, MessageID: env.MessageID}
	}
	return &respEnv
}
