package policy

// gradients holds the per-parameter gradients of the combined loss for
// a single example, mirroring Weights' shape.
type gradients struct {
	dW1, dW2, dWChunkExpand, dWChunkOut [][]float64
	dB1, dB2, dBChunkExpand, dBChunkOut []float64
	dWType                              []float64
	dBType                              float64
}

// backward computes the combined loss's gradient w.r.t. every weight,
// via manual reverse-mode differentiation through the two shared
// layers and the two heads. The chunk head uses the standard
// softmax+categorical-crossentropy gradient (probs - target); the type
// head uses the standard sigmoid+binary-crossentropy gradient
// (prob - target), scaled by TypeLossWeight per the combined
// objective's loss_weights.
func backward(w *Weights, fc forwardCache, chunkTarget []float64, typeTarget float64) gradients {
	dCOLogits := make([]float64, len(fc.chunkProbs))
	for i := range dCOLogits {
		dCOLogits[i] = fc.chunkProbs[i] - chunkTarget[i]
	}
	dTypeLogit := (fc.typeProb - typeTarget) * TypeLossWeight

	dWChunkOut := outer(dCOLogits, fc.ce)
	dBChunkOut := cloneVec(dCOLogits)

	dce := matVecT(w.WChunkOut, dCOLogits)
	dcePre := hadamard(dce, reluGrad(fc.cePre))

	dWChunkExpand := outer(dcePre, fc.h2)
	dBChunkExpand := cloneVec(dcePre)

	dh2FromChunk := matVecT(w.WChunkExpand, dcePre)

	dWType := scaleVec(fc.h2, dTypeLogit)
	dBType := dTypeLogit
	dh2FromType := scaleVec(w.WType, dTypeLogit)

	dh2 := addVec(dh2FromChunk, dh2FromType)
	dh2Pre := hadamard(dh2, reluGrad(fc.h2Pre))

	dW2 := outer(dh2Pre, fc.h1)
	dB2 := cloneVec(dh2Pre)

	dh1 := matVecT(w.W2, dh2Pre)
	dh1Pre := hadamard(dh1, reluGrad(fc.h1Pre))

	dW1 := outer(dh1Pre, fc.x)
	dB1 := cloneVec(dh1Pre)

	return gradients{
		dW1: dW1, dB1: dB1,
		dW2: dW2, dB2: dB2,
		dWChunkExpand: dWChunkExpand, dBChunkExpand: dBChunkExpand,
		dWChunkOut: dWChunkOut, dBChunkOut: dBChunkOut,
		dWType: dWType, dBType: dBType,
	}
}

// outer returns the outer product col * row^T as a rows-of-row-vectors
// matrix shaped like a Dense layer's weight matrix (len(col) x len(row)).
func outer(col, row []float64) [][]float64 {
	m := make([][]float64, len(col))
	for i, c := range col {
		r := make([]float64, len(row))
		for j, v := range row {
			r[j] = c * v
		}
		m[i] = r
	}
	return m
}

// matVecT multiplies w^T (cols x rows) by v (rows), i.e. backprops a
// downstream gradient v through a forward Dense layer whose weight
// matrix is w (rows x cols).
func matVecT(w [][]float64, v []float64) []float64 {
	if len(w) == 0 {
		return nil
	}
	cols := len(w[0])
	out := make([]float64, cols)
	for i, row := range w {
		vi := v[i]
		if vi == 0 {
			continue
		}
		for j, wij := range row {
			out[j] += wij * vi
		}
	}
	return out
}

func scaleVec(v []float64, s float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x * s
	}
	return out
}

// applyGradients performs a single vanilla SGD step: w -= lr*grad. The
// Python source scales Adam's learning rate by |reward| and restores it
// afterward; without an Adam dependency in the corpus, a single
// reward-scaled SGD step serves the same "bigger reward moves weights
// further" intent.
func applyGradients(w *Weights, g gradients, lr float64) {
	subMatrix(w.W1, g.dW1, lr)
	subVec(w.B1, g.dB1, lr)
	subMatrix(w.W2, g.dW2, lr)
	subVec(w.B2, g.dB2, lr)
	subMatrix(w.WChunkExpand, g.dWChunkExpand, lr)
	subVec(w.BChunkExpand, g.dBChunkExpand, lr)
	subMatrix(w.WChunkOut, g.dWChunkOut, lr)
	subVec(w.BChunkOut, g.dBChunkOut, lr)
	subVec(w.WType, g.dWType, lr)
	w.BType -= lr * g.dBType
}

func subMatrix(w, d [][]float64, lr float64) {
	for i := range w {
		for j := range w[i] {
			w[i][j] -= lr * d[i][j]
		}
	}
}

func subVec(w, d []float64, lr float64) {
	for i := range w {
		w[i] -= lr * d[i]
	}
}
