// Package policy implements the split-head feed-forward network that
// proposes a spawn chunk and type from a feature vector, per
// SPEC_FULL.md §4.2.
//
// The architecture (28 -> 32 -> 16, chunk head 16 -> 32 -> (axis*axis+1)
// softmax, type head 16 -> 1 sigmoid) and train_with_reward's target
// construction are taken verbatim in semantics from original_source's
// nn_model_v2.py, generalized from its hardcoded 256-wide chunk head to
// axis*axis+1. There is no tensor/autodiff library in the example
// corpus to build on, so forward and backward passes are hand-rolled
// over plain [][]float64 weight matrices, in the same flat-slice,
// manual-gradient style as other_examples' dqagent.go neural net.
package policy

import (
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/grid"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/observation"
)

// InputSize is the feature-vector width the network accepts.
const InputSize = 28

// Hidden1Size and Hidden2Size are the two shared-trunk layer widths.
const (
	Hidden1Size = 32
	Hidden2Size = 16
)

// ChunkExpandSize is the chunk head's hidden expansion width.
const ChunkExpandSize = 32

// TypeLossWeight weights the type head's loss against the chunk head's
// in the combined training objective (chunk head weight is implicitly 1.0).
const TypeLossWeight = 0.5

const epsilon = 1e-8

// Weights is one immutable snapshot of all trainable parameters.
// Network publishes a new *Weights after every training step; readers
// load the pointer once per call (SPEC_FULL.md §5's read-copy scheme).
type Weights struct {
	Axis int

	W1 [][]float64 // Hidden1Size x InputSize
	B1 []float64    // Hidden1Size

	W2 [][]float64 // Hidden2Size x Hidden1Size
	B2 []float64    // Hidden2Size

	WChunkExpand [][]float64 // ChunkExpandSize x Hidden2Size
	BChunkExpand []float64   // ChunkExpandSize

	WChunkOut [][]float64 // ChunkOutputSize x ChunkExpandSize
	BChunkOut []float64   // ChunkOutputSize

	WType []float64 // Hidden2Size
	BType float64

	Version int64
}

// ChunkOutputSize is G^2+1: the grid's chunk count plus one slot for
// the "no spawn" sentinel, resolving the Open Question of a fixed
// 256-wide chunk head in favor of configuration-driven grid size.
func ChunkOutputSize(axis int) int {
	return axis*axis + 1
}

func (w *Weights) clone() *Weights {
	c := &Weights{Axis: w.Axis, Version: w.Version, BType: w.BType}
	c.W1 = cloneMatrix(w.W1)
	c.B1 = cloneVec(w.B1)
	c.W2 = cloneMatrix(w.W2)
	c.B2 = cloneVec(w.B2)
	c.WChunkExpand = cloneMatrix(w.WChunkExpand)
	c.BChunkExpand = cloneVec(w.BChunkExpand)
	c.WChunkOut = cloneMatrix(w.WChunkOut)
	c.BChunkOut = cloneVec(w.BChunkOut)
	c.WType = cloneVec(w.WType)
	return c
}

// Network holds the policy's weight pointer and exposes lock-free
// inference with a single-writer training step.
type Network struct {
	axis int
	ptr  atomic.Pointer[Weights]
}

// NewNetwork builds a freshly initialized network for a grid of the
// given axis size. rng drives the he_normal/glorot_uniform-style
// initializations, matching nn_model_v2's per-layer initializer choice.
func NewNetwork(axis int, rng *rand.Rand) *Network {
	n := &Network{axis: axis}
	n.ptr.Store(randomWeights(axis, rng))
	return n
}

// LoadWeights builds a network around an already-trained snapshot,
// used by checkpoint restore.
func LoadWeights(w *Weights) *Network {
	n := &Network{axis: w.Axis}
	n.ptr.Store(w)
	return n
}

func randomWeights(axis int, rng *rand.Rand) *Weights {
	chunkOut := ChunkOutputSize(axis)
	return &Weights{
		Axis:         axis,
		W1:           heNormal(Hidden1Size, InputSize, rng),
		B1:           make([]float64, Hidden1Size),
		W2:           heNormal(Hidden2Size, Hidden1Size, rng),
		B2:           make([]float64, Hidden2Size),
		WChunkExpand: heNormal(ChunkExpandSize, Hidden2Size, rng),
		BChunkExpand: make([]float64, ChunkExpandSize),
		WChunkOut:    glorotUniform(chunkOut, ChunkExpandSize, rng),
		BChunkOut:    make([]float64, chunkOut),
		WType:        glorotUniformVec(Hidden2Size, rng),
		BType:        0,
		Version:      0,
	}
}

// Decision is the network's raw proposal before the gate's veto.
// SpawnChunk is -1 and SpawnType is nil when the argmax lands on the
// sentinel no-spawn slot, matching get_spawn_decision's wire contract.
type Decision struct {
	SpawnChunk     grid.ID
	SpawnType      *observation.SpawnType
	Confidence     float64
	TypeConfidence float64
	NNDecision     string
}

type forwardCache struct {
	x          []float64
	h1Pre, h1  []float64
	h2Pre, h2  []float64
	cePre, ce  []float64
	chunkProbs []float64
	typeProb   float64
}

func forward(w *Weights, features [InputSize]float64) forwardCache {
	x := features[:]
	h1Pre := addVec(matVec(w.W1, x), w.B1)
	h1 := relu(h1Pre)
	h2Pre := addVec(matVec(w.W2, h1), w.B2)
	h2 := relu(h2Pre)

	cePre := addVec(matVec(w.WChunkExpand, h2), w.BChunkExpand)
	ce := relu(cePre)
	coLogits := addVec(matVec(w.WChunkOut, ce), w.BChunkOut)
	chunkProbs := softmax(coLogits)

	typeLogit := dot(w.WType, h2) + w.BType
	typeProb := sigmoid(typeLogit)

	return forwardCache{x: x, h1Pre: h1Pre, h1: h1, h2Pre: h2Pre, h2: h2, cePre: cePre, ce: ce, chunkProbs: chunkProbs, typeProb: typeProb}
}

// Predict runs inference only, returning the chunk-probability
// distribution and the type-head's sigmoid output.
func (n *Network) Predict(features [InputSize]float64) (chunkProbs []float64, typeProb float64) {
	w := n.ptr.Load()
	fc := forward(w, features)
	return fc.chunkProbs, fc.typeProb
}

// GetSpawnDecision mirrors nn_model_v2.get_spawn_decision: argmax over
// the chunk head selects the location, and a 0.5 threshold over the
// type head selects energy vs. combat. When the argmax lands on the
// sentinel no-spawn slot, SpawnChunk is -1, SpawnType is nil and
// NNDecision is "no_spawn", per spec's literal get_spawn_decision
// contract.
func (n *Network) GetSpawnDecision(features [InputSize]float64) Decision {
	chunkProbs, typeProb := n.Predict(features)

	best := 0
	for i, p := range chunkProbs {
		if p > chunkProbs[best] {
			best = i
		}
	}

	if best == len(chunkProbs)-1 {
		return Decision{
			SpawnChunk: -1,
			SpawnType:  nil,
			Confidence: chunkProbs[best],
			NNDecision: "no_spawn",
		}
	}

	spawnType := observation.SpawnTypeEnergy
	typeConfidence := 1.0 - typeProb
	if typeProb >= 0.5 {
		spawnType = observation.SpawnTypeCombat
		typeConfidence = typeProb
	}

	return Decision{
		SpawnChunk:     grid.ID(best),
		SpawnType:      &spawnType,
		Confidence:     chunkProbs[best],
		TypeConfidence: typeConfidence,
		NNDecision:     "spawn",
	}
}

// Weights returns the currently published snapshot (read-only; callers
// must not mutate the slices within).
func (n *Network) Weights() *Weights {
	return n.ptr.Load()
}

// Reinitialize replaces the published weights with a fresh random
// initialization, published as the next Version so versions never go
// backwards. Used by the reset_nn wire message; not safe to call
// concurrently with TrainWithReward.
func (n *Network) Reinitialize(seed int64) {
	w := randomWeights(n.axis, rand.New(rand.NewSource(seed)))
	w.Version = n.ptr.Load().Version + 1
	n.ptr.Store(w)
}

// TrainInfo reports a single reward-driven training step's outcome.
// Diverged is true when the step produced a NaN/Inf loss or weight and
// was rejected before publishing; Loss/ChunkLoss/TypeLoss still report
// the (non-finite) values that triggered the rejection, for logging.
type TrainInfo struct {
	Loss      float64
	ChunkLoss float64
	TypeLoss  float64
	Reward    float64
	ScaledLR  float64
	Diverged  bool
}

func nonFiniteVec(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return true
		}
	}
	return false
}

func nonFiniteMat(m [][]float64) bool {
	for _, row := range m {
		if nonFiniteVec(row) {
			return true
		}
	}
	return false
}

// hasNonFiniteWeights reports whether any weight or bias in w is NaN or
// infinite, the signal that a gradient step diverged.
func hasNonFiniteWeights(w *Weights) bool {
	return nonFiniteMat(w.W1) || nonFiniteVec(w.B1) ||
		nonFiniteMat(w.W2) || nonFiniteVec(w.B2) ||
		nonFiniteMat(w.WChunkExpand) || nonFiniteVec(w.BChunkExpand) ||
		nonFiniteMat(w.WChunkOut) || nonFiniteVec(w.BChunkOut) ||
		nonFiniteVec(w.WType) || math.IsNaN(w.BType) || math.IsInf(w.BType, 0)
}

// chunkIndex maps a candidate chunk to its slot in the chunk head's
// output vector. The NO_SPAWN sentinel and the -1 no-spawn encoding
// persisted experiences use (spec.md §3) both land on the same final
// slot, axis*axis.
func chunkIndex(chunk grid.ID, axis int) int {
	if chunk < 0 || chunk == grid.NoSpawn(axis) {
		return axis * axis
	}
	return int(chunk)
}

// TrainWithReward performs one reward-scaled gradient step, following
// nn_model_v2.train_with_reward's target construction verbatim: a
// positive reward reinforces the taken chunk/type as a one-hot/hard
// target; a negative reward spreads probability mass away from the
// taken chunk (renormalized) and flips the type target. The learning
// rate is scaled by |reward| (so a zero reward gives a zero learning
// rate), and the new weights are published
// atomically, incrementing Version — unless the step diverged (a
// NaN/Inf loss or weight), in which case nothing is published, Version
// does not advance, and TrainInfo.Diverged is true. TrainWithReward is
// intended for a single trainer goroutine; it is not safe to call
// concurrently with itself.
func (n *Network) TrainWithReward(
	features [InputSize]float64,
	chunk grid.ID,
	spawnType observation.SpawnType,
	reward float64,
	learningRate float64,
) TrainInfo {
	w := n.ptr.Load()
	fc := forward(w, features)

	idx := chunkIndex(chunk, n.axis)
	chunkOut := ChunkOutputSize(n.axis)

	chunkTarget := make([]float64, chunkOut)
	if reward > 0 {
		chunkTarget[idx] = 1.0
	} else {
		copy(chunkTarget, fc.chunkProbs)
		chunkTarget[idx] = math.Max(0.0, chunkTarget[idx]-math.Abs(reward)*0.5)
		sum := 0.0
		for _, v := range chunkTarget {
			sum += v
		}
		for i := range chunkTarget {
			chunkTarget[i] /= sum + epsilon
		}
	}

	typeTarget := 0.0
	if spawnType == observation.SpawnTypeCombat {
		typeTarget = 1.0
	}
	if reward < 0 {
		typeTarget = 1.0 - typeTarget
	}

	scaledLR := learningRate * math.Abs(reward)

	chunkLoss := categoricalCrossEntropy(chunkTarget, fc.chunkProbs)
	typeLoss := binaryCrossEntropy(typeTarget, fc.typeProb)
	totalLoss := chunkLoss + TypeLossWeight*typeLoss

	if math.IsNaN(totalLoss) || math.IsInf(totalLoss, 0) {
		return TrainInfo{Loss: totalLoss, ChunkLoss: chunkLoss, TypeLoss: typeLoss, Reward: reward, ScaledLR: scaledLR, Diverged: true}
	}

	grads := backward(w, fc, chunkTarget, typeTarget)
	newW := w.clone()
	newW.Version = w.Version + 1
	applyGradients(newW, grads, scaledLR)

	if hasNonFiniteWeights(newW) {
		return TrainInfo{Loss: totalLoss, ChunkLoss: chunkLoss, TypeLoss: typeLoss, Reward: reward, ScaledLR: scaledLR, Diverged: true}
	}

	n.ptr.Store(newW)

	return TrainInfo{
		Loss:      totalLoss,
		ChunkLoss: chunkLoss,
		TypeLoss:  typeLoss,
		Reward:    reward,
		ScaledLR:  scaledLR,
	}
}

func categoricalCrossEntropy(target, probs []float64) float64 {
	loss := 0.0
	for i, t := range target {
		if t == 0 {
			continue
		}
		loss -= t * math.Log(probs[i]+epsilon)
	}
	return loss
}

func binaryCrossEntropy(target, prob float64) float64 {
	return -(target*math.Log(prob+epsilon) + (1-target)*math.Log(1-prob+epsilon))
}

// String summarizes the architecture for logging, in the spirit of
// nn_model_v2's get_model_summary.
func (w *Weights) String() string {
	return fmt.Sprintf(
		"policy v%d: %d->%d->%d, chunk head %d->%d->%d (softmax), type head %d->1 (sigmoid)",
		w.Version, InputSize, Hidden1Size, Hidden2Size, Hidden2Size, ChunkExpandSize, len(w.BChunkOut), Hidden2Size,
	)
}
