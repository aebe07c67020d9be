package policy

import (
	"math"
	"math/rand"
)

func matVec(w [][]float64, x []float64) []float64 {
	out := make([]float64, len(w))
	for i, row := range w {
		s := 0.0
		for j, v := range row {
			s += v * x[j]
		}
		out[i] = s
	}
	return out
}

func addVec(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func relu(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		if v > 0 {
			out[i] = v
		}
	}
	return out
}

// reluGrad returns the 0/1 derivative mask of relu evaluated at preact.
func reluGrad(preact []float64) []float64 {
	out := make([]float64, len(preact))
	for i, v := range preact {
		if v > 0 {
			out[i] = 1
		}
	}
	return out
}

func hadamard(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] * b[i]
	}
	return out
}

func softmax(logits []float64) []float64 {
	max := logits[0]
	for _, v := range logits {
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(logits))
	sum := 0.0
	for i, v := range logits {
		e := math.Exp(v - max)
		out[i] = e
		sum += e
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func cloneVec(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

func cloneMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = cloneVec(row)
	}
	return out
}

// heNormal draws a rows x cols matrix from N(0, sqrt(2/cols)), matching
// keras' he_normal initializer used on the trunk and chunk-expand layers.
func heNormal(rows, cols int, rng *rand.Rand) [][]float64 {
	std := math.Sqrt(2.0 / float64(cols))
	m := make([][]float64, rows)
	for i := range m {
		row := make([]float64, cols)
		for j := range row {
			row[j] = rng.NormFloat64() * std
		}
		m[i] = row
	}
	return m
}

// glorotUniform draws a rows x cols matrix from U(-limit, limit) with
// limit = sqrt(6/(fanIn+fanOut)), matching keras' glorot_uniform
// initializer used on the output layers.
func glorotUniform(rows, cols int, rng *rand.Rand) [][]float64 {
	limit := math.Sqrt(6.0 / float64(rows+cols))
	m := make([][]float64, rows)
	for i := range m {
		row := make([]float64, cols)
		for j := range row {
			row[j] = (rng.Float64()*2 - 1) * limit
		}
		m[i] = row
	}
	return m
}

func glorotUniformVec(cols int, rng *rand.Rand) []float64 {
	limit := math.Sqrt(6.0 / float64(1+cols))
	row := make([]float64, cols)
	for j := range row {
		row[j] = (rng.Float64()*2 - 1) * limit
	}
	return row
}
