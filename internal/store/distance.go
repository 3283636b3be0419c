package store

import (
	"fmt"
	"math"

	"github.com/roach88/vecsynth/internal/ir"
	"github.com/roach88/vecsynth/internal/queryast"
)

// Distance computes a pgvector-compatible distance between two vectors.
//
// ok is false when the distance is undefined (cosine against a zero
// vector); pgvector yields NaN there and the SQL functions yield NULL.
// Vectors of different dimensions are an error, as in pgvector.
//
// Hamming and Jaccard are defined on bit vectors in pgvector; here a
// component is a set bit when it is non-zero, which agrees with pgvector
// on 0/1 vectors.
func Distance(op queryast.DistanceOp, a, b ir.Vector) (d float64, ok bool, err error) {
	if a.Dim() != b.Dim() {
		return 0, false, fmt.Errorf("different vector dimensions %d and %d", a.Dim(), b.Dim())
	}

	switch op {
	case queryast.L2:
		var sum float64
		for i := 0; i < a.Dim(); i++ {
			diff := float64(a.At(i)) - float64(b.At(i))
			sum += diff * diff
		}
		return math.Sqrt(sum), true, nil

	case queryast.Cosine:
		var dot, na, nb float64
		for i := 0; i < a.Dim(); i++ {
			x, y := float64(a.At(i)), float64(b.At(i))
			dot += x * y
			na += x * x
			nb += y * y
		}
		if na == 0 || nb == 0 {
			return 0, false, nil
		}
		sim := dot / math.Sqrt(na*nb)
		// Clamp rounding drift so identical vectors give exactly 0.
		sim = math.Max(-1, math.Min(1, sim))
		return 1 - sim, true, nil

	case queryast.NegativeInnerProduct:
		var dot float64
		for i := 0; i < a.Dim(); i++ {
			dot += float64(a.At(i)) * float64(b.At(i))
		}
		return -dot, true, nil

	case queryast.L1:
		var sum float64
		for i := 0; i < a.Dim(); i++ {
			sum += math.Abs(float64(a.At(i)) - float64(b.At(i)))
		}
		return sum, true, nil

	case queryast.Hamming:
		var n float64
		for i := 0; i < a.Dim(); i++ {
			if (a.At(i) != 0) != (b.At(i) != 0) {
				n++
			}
		}
		return n, true, nil

	case queryast.Jaccard:
		var inter, union float64
		for i := 0; i < a.Dim(); i++ {
			x, y := a.At(i) != 0, b.At(i) != 0
			if x && y {
				inter++
			}
			if x || y {
				union++
			}
		}
		if union == 0 {
			return 0, true, nil
		}
		return 1 - inter/union, true, nil

	default:
		return 0, false, fmt.Errorf("unknown distance operator %d", int(op))
	}
}
