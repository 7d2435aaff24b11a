package predictor

import "github.com/jtian0/szgo/block"

// Lorenzo1Predictor is the order-1 Lorenzo predictor: a signed sum of
// immediate neighbor decoded values with coefficients +-1 derived from
// inclusion-exclusion over the n-D corner neighbors, (2^n - 1) terms. It is
// stateless and always valid, even at an array corner where every neighbor
// is absent (all terms then contribute zero, predicting zero).
type Lorenzo1Predictor struct {
	dims    []int
	strides []int
}

// NewLorenzo1 returns a Lorenzo1Predictor.
func NewLorenzo1() *Lorenzo1Predictor { return &Lorenzo1Predictor{} }

func (p *Lorenzo1Predictor) Tag() Tag { return Lorenzo1 }

func (p *Lorenzo1Predictor) Bind(dims []int) {
	p.dims = dims
	p.strides = block.Strides(dims)
}

func (p *Lorenzo1Predictor) Fit(blk block.Block, data []float64) {}

func (p *Lorenzo1Predictor) NumCoeffs() int        { return 0 }
func (p *Lorenzo1Predictor) Coeffs() []float64     { return nil }
func (p *Lorenzo1Predictor) SetCoeffs(c []float64) {}

// Predict implements the inclusion-exclusion corner formula, hand
// specialized per dimension count to avoid a generic N-D combinatorial
// loop in the hot path.
func (p *Lorenzo1Predictor) Predict(decoded []float64, idx []int, off int) float64 {
	dims, strides := p.dims, p.strides
	switch len(dims) {
	case 1:
		return at1(decoded, dims, strides, idx[0]-1)
	case 2:
		i, j := idx[0], idx[1]
		return at2(decoded, dims, strides, i-1, j) +
			at2(decoded, dims, strides, i, j-1) -
			at2(decoded, dims, strides, i-1, j-1)
	case 3:
		i, j, k := idx[0], idx[1], idx[2]
		return at3(decoded, dims, strides, i-1, j, k) +
			at3(decoded, dims, strides, i, j-1, k) +
			at3(decoded, dims, strides, i, j, k-1) -
			at3(decoded, dims, strides, i-1, j-1, k) -
			at3(decoded, dims, strides, i-1, j, k-1) -
			at3(decoded, dims, strides, i, j-1, k-1) +
			at3(decoded, dims, strides, i-1, j-1, k-1)
	case 4:
		i, j, k, l := idx[0], idx[1], idx[2], idx[3]
		var sum float64
		// Inclusion-exclusion over all 15 non-empty subsets of the 4 axes:
		// sign = (-1)^(|S|+1), offset -1 on every axis in S.
		for s := 1; s < 16; s++ {
			di, dj, dk, dl := 0, 0, 0, 0
			popcount := 0
			if s&1 != 0 {
				di = -1
				popcount++
			}
			if s&2 != 0 {
				dj = -1
				popcount++
			}
			if s&4 != 0 {
				dk = -1
				popcount++
			}
			if s&8 != 0 {
				dl = -1
				popcount++
			}
			sign := 1.0
			if popcount%2 == 0 {
				sign = -1.0
			}
			sum += sign * at4(decoded, dims, strides, i+di, j+dj, k+dk, l+dl)
		}
		return sum
	default:
		return 0
	}
}
