// Package metric provides the similarity metrics and float32 vector math
// used for scoring.
//
// All scores follow a single convention: higher is better, under every
// metric. Euclidean distances are negated to fit that convention.
package metric

import (
	"math"
	"slices"
	"strings"
)

// degenerateMagnitude is the threshold below which a vector is treated as
// zero-length and returned unchanged by Normalize.
const degenerateMagnitude = 1e-10

// Metric identifies the similarity metric used for ranking.
type Metric int

const (
	// Cosine ranks by cosine similarity. Stored vectors and queries are
	// expected to be unit length; Score then reduces to a dot product.
	Cosine Metric = iota
	// Euclidean ranks by negated Euclidean distance.
	Euclidean
	// Dot ranks by raw inner product.
	Dot
)

// Parse maps a metric name to a Metric, case-insensitively.
// Unrecognized names fall back to Cosine.
func Parse(s string) Metric {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "euclidean":
		return Euclidean
	case "dot":
		return Dot
	default:
		return Cosine
	}
}

func (m Metric) String() string {
	switch m {
	case Euclidean:
		return "euclidean"
	case Dot:
		return "dot"
	default:
		return "cosine"
	}
}

// Magnitude returns the Euclidean norm of v.
func Magnitude(v []float32) float32 {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	return float32(math.Sqrt(float64(sum)))
}

// Normalize returns a unit-length copy of v. Vectors with magnitude below
// 1e-10 are returned as an unchanged copy rather than divided toward Inf.
func Normalize(v []float32) []float32 {
	out := slices.Clone(v)
	NormalizeInPlace(out)
	return out
}

// NormalizeInPlace scales v to unit length in place. Degenerate vectors
// (magnitude below 1e-10) are left untouched. Reports whether v was scaled.
func NormalizeInPlace(v []float32) bool {
	mag := Magnitude(v)
	if mag < degenerateMagnitude {
		return false
	}
	inv := 1 / mag
	for i := range v {
		v[i] *= inv
	}
	return true
}

// DotProduct returns the inner product of a and b, zipping over the shorter
// of the two lengths. Length agreement is the caller's boundary to enforce.
func DotProduct(a, b []float32) float32 {
	n := min(len(a), len(b))
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// CosineSimilarity returns the cosine of the angle between a and b,
// clamped to [-1, 1] to absorb float32 rounding past the bounds.
func CosineSimilarity(a, b []float32) float32 {
	sim := DotProduct(Normalize(a), Normalize(b))
	if sim > 1 {
		return 1
	}
	if sim < -1 {
		return -1
	}
	return sim
}

// EuclideanDistanceSq returns the squared Euclidean distance between a and b,
// zipping over the shorter length like DotProduct.
func EuclideanDistanceSq(a, b []float32) float32 {
	n := min(len(a), len(b))
	var sum float32
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// EuclideanDistance returns the Euclidean distance between a and b.
func EuclideanDistance(a, b []float32) float32 {
	return float32(math.Sqrt(float64(EuclideanDistanceSq(a, b))))
}

// Score ranks candidate against query under m. Higher is always better.
//
// For Cosine the inputs are assumed pre-normalized (the store normalizes
// vectors on insert and queries on search), so the score is the raw dot
// product; Score does not re-normalize. Dot scores the inner product of the
// vectors as given. Euclidean scores the negated distance.
func Score(m Metric, query, candidate []float32) float32 {
	switch m {
	case Euclidean:
		return -EuclideanDistance(query, candidate)
	default:
		return DotProduct(query, candidate)
	}
}
