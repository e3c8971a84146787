// Package vecmath holds the small amount of vector arithmetic the engine needs:
// L2 normalisation, degeneracy checks and cosine similarity over float32 slices.
package vecmath

import "math"

// IsDegenerate reports whether v cannot be meaningfully compared:
// it is empty, all zero, or contains NaN or Inf.
func IsDegenerate(v []float32) bool {
	if len(v) == 0 {
		return true
	}
	nonZero := false
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return true
		}
		if x != 0 {
			nonZero = true
		}
	}
	return !nonZero
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Normalize returns an L2-normalised copy of v.
// Degenerate vectors are returned as nil.
func Normalize(v []float32) []float32 {
	if IsDegenerate(v) {
		return nil
	}
	n := Norm(v)
	if n == 0 || math.IsInf(n, 0) {
		return nil
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out
}

// Dot returns the dot product of a and b, or 0 when the lengths differ.
func Dot(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Cosine returns the cosine similarity of a and b in [-1, 1].
// Mismatched lengths or zero vectors yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	c := Dot(a, b) / (na * nb)
	return Clamp(c, -1, 1)
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
