// Package predictor implements the predictor family (spec component 4.B):
// Lorenzo order-1, Lorenzo order-2, linear regression, polynomial
// regression, and a composed predictor that probes each enabled member and
// selects the cheapest per block.
package predictor

import (
	"math"

	"github.com/jtian0/szgo/block"
)

// Tag identifies a predictor variant. It is emitted per block so the
// decoder knows which predictor produced the block's residuals.
type Tag uint8

const (
	Lorenzo1 Tag = iota
	Lorenzo2
	Regression
	PolyRegression
)

// Names gives the diagnostic name of each Tag, in Tag order.
var Names = [...]string{"Lorenzo1", "Lorenzo2", "Regression", "PolyRegression"}

func (t Tag) String() string {
	if int(t) < 0 || int(t) >= len(Names) {
		return "unknown"
	}
	return Names[t]
}

// Predictor estimates each sample of a block from already-decoded
// neighbors. Lorenzo predictors are stateless (Fit is a no-op); regression
// predictors derive coefficients from the block's original values during
// Fit and have those coefficients quantized and replayed on decode via
// SetCoeffs, so the decoder reconstructs them exactly without ever calling
// Fit itself.
type Predictor interface {
	Tag() Tag

	// Bind caches dims and its row-major strides so Predict does not
	// recompute or reallocate them on every call; it must be called once
	// before Fit/Predict whenever the array shape changes.
	Bind(dims []int)

	// Fit derives the predictor's parameters from the block's original
	// values. It is a no-op for the Lorenzo predictors.
	Fit(blk block.Block, data []float64)

	// Predict returns the predicted value at idx (absolute per-dimension
	// indices, with linear offset off into decoded) using only samples of
	// decoded at offsets less than off in iteration order (already-decoded
	// neighbors). Neighbors outside the array contribute zero.
	Predict(decoded []float64, idx []int, off int) float64

	// NumCoeffs returns the number of coefficients Coeffs/SetCoeffs carry
	// (zero for the Lorenzo predictors).
	NumCoeffs() int
	// Coeffs returns the coefficients derived by the most recent Fit.
	Coeffs() []float64
	// SetCoeffs installs coefficients read back from the compressed
	// stream, in place of calling Fit.
	SetCoeffs(c []float64)
}

// NumCoeffsForTag returns the coefficient count a predictor of the given
// tag carries for an ndims-dimensional array, without needing an instance.
// The compressor's format uses this to size the coefficient stream on
// decode before any predictor object exists for the block.
func NumCoeffsForTag(tag Tag, ndims int) int {
	switch tag {
	case Regression:
		return ndims + 1
	case PolyRegression:
		return numPolyCoeffs(ndims)
	default:
		return 0
	}
}

// MinNeighbors returns the minimum number of already-decoded neighbors a
// predictor needs to be considered for a block at blockStart within an
// array shaped dims; predictors below this threshold (a block on an array
// corner or edge) are excluded from selection, except Lorenzo1, which is
// always a valid fallback.
func MinNeighbors(tag Tag, dims []int, blockStart []int) int {
	switch tag {
	case Lorenzo1, Lorenzo2:
		return 0
	case Regression, PolyRegression:
		// Regression needs a clear interior point to fit a stable affine
		// (or quadratic) surface; require the block not to start at the
		// very first index of every dimension simultaneously, i.e. allow
		// the very first block (which has no prior neighbors at all) to
		// demote to Lorenzo1.
		allZero := true
		for _, s := range blockStart {
			if s != 0 {
				allZero = false
			}
		}
		if allZero {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// EstimateBits returns the number of bits a zigzag + Rice-style coding of
// residuals would cost, searching Rice parameters 0..14 for the minimum, the
// same heuristic the teacher's fixed-predictor analysis used to rank
// candidate prediction orders before an entropy coder's exact cost is known.
// It is the cost function Composed.estimateCandidateCost ranks candidates by.
func EstimateBits(residuals []float64, eps float64) int {
	bestBits := int(^uint(0) >> 1)
	for k := uint(0); k < 15; k++ {
		bits := 0
		for _, r := range residuals {
			folded := zigzagBin(r, eps)
			quo := folded >> k
			bits += int(quo) + 1 + int(k)
		}
		if bits < bestBits {
			bestBits = bits
		}
	}
	return bestBits
}

// zigzagBin folds a residual into the same non-negative integer domain the
// quantizer's bin indices live in, rounding to the nearest multiple of
// 2*eps, without needing a quantizer instance.
func zigzagBin(r, eps float64) uint64 {
	bin := int64(math.RoundToEven(r / (2 * eps)))
	if bin < 0 {
		return uint64(-bin)<<1 - 1
	}
	return uint64(bin) << 1
}
