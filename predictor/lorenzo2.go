package predictor

import "github.com/jtian0/szgo/block"

// Lorenzo2Predictor is the order-2 Lorenzo predictor. Its stencil is the
// tensor product, across axes, of the 1D second-order backward
// extrapolation operator (2*f(i-1) - f(i-2)) combined via the same
// inclusion-exclusion structure as Lorenzo1. Wherever a -2 neighbor would
// fall outside the array (any index below 2) it reduces to Lorenzo1's
// corner formula, whose missing neighbors contribute zero.
type Lorenzo2Predictor struct {
	dims    []int
	strides []int
}

// NewLorenzo2 returns a Lorenzo2Predictor.
func NewLorenzo2() *Lorenzo2Predictor { return &Lorenzo2Predictor{} }

func (p *Lorenzo2Predictor) Tag() Tag { return Lorenzo2 }

func (p *Lorenzo2Predictor) Bind(dims []int) {
	p.dims = dims
	p.strides = block.Strides(dims)
}

func (p *Lorenzo2Predictor) Fit(blk block.Block, data []float64) {}

func (p *Lorenzo2Predictor) NumCoeffs() int        { return 0 }
func (p *Lorenzo2Predictor) Coeffs() []float64     { return nil }
func (p *Lorenzo2Predictor) SetCoeffs(c []float64) {}

// lorenzo2Weight1D is the coefficient of the 1D second-order extrapolation
// operator 2*f(i-1) - f(i-2) at lag 1 and lag 2.
func lorenzo2Weight1D(lag int) float64 {
	if lag == 1 {
		return 2
	}
	return -1 // lag == 2
}

// Predict sums, over every offset vector d in {0,1,2}^n \ {0}^n (n =
// len(dims), hand-unrolled per n to avoid a generic recursive combinatorial
// walk), the term weight(d)*decoded(idx-d), where weight(d) is the product
// of lorenzo2Weight1D over the non-zero lags of d, signed by
// (-1)^(popcount(d)+1). At an index below 2 on any axis it returns
// Lorenzo1's prediction instead.
func (p *Lorenzo2Predictor) Predict(decoded []float64, idx []int, off int) float64 {
	dims, strides := p.dims, p.strides
	for _, x := range idx {
		if x < 2 {
			l1 := Lorenzo1Predictor{dims: dims, strides: strides}
			return l1.Predict(decoded, idx, off)
		}
	}
	switch len(dims) {
	case 1:
		i := idx[0]
		return 2*at1(decoded, dims, strides, i-1) - at1(decoded, dims, strides, i-2)
	case 2:
		i, j := idx[0], idx[1]
		var sum float64
		for di := 0; di <= 2; di++ {
			for dj := 0; dj <= 2; dj++ {
				if di == 0 && dj == 0 {
					continue
				}
				sum += lorenzo2Term2(decoded, dims, strides, i, j, di, dj)
			}
		}
		return sum
	case 3:
		i, j, k := idx[0], idx[1], idx[2]
		var sum float64
		for di := 0; di <= 2; di++ {
			for dj := 0; dj <= 2; dj++ {
				for dk := 0; dk <= 2; dk++ {
					if di == 0 && dj == 0 && dk == 0 {
						continue
					}
					sum += lorenzo2Term3(decoded, dims, strides, i, j, k, di, dj, dk)
				}
			}
		}
		return sum
	case 4:
		i, j, k, l := idx[0], idx[1], idx[2], idx[3]
		var sum float64
		for di := 0; di <= 2; di++ {
			for dj := 0; dj <= 2; dj++ {
				for dk := 0; dk <= 2; dk++ {
					for dl := 0; dl <= 2; dl++ {
						if di == 0 && dj == 0 && dk == 0 && dl == 0 {
							continue
						}
						sum += lorenzo2Term4(decoded, dims, strides, i, j, k, l, di, dj, dk, dl)
					}
				}
			}
		}
		return sum
	default:
		return 0
	}
}

func lorenzo2SignAndWeight(lags ...int) float64 {
	popcount := 0
	weight := 1.0
	for _, lag := range lags {
		if lag != 0 {
			popcount++
			weight *= lorenzo2Weight1D(lag)
		}
	}
	if popcount%2 == 0 {
		return -weight
	}
	return weight
}

func lorenzo2Term2(decoded []float64, dims, strides []int, i, j, di, dj int) float64 {
	coef := lorenzo2SignAndWeight(di, dj)
	return coef * at2(decoded, dims, strides, i-di, j-dj)
}

func lorenzo2Term3(decoded []float64, dims, strides []int, i, j, k, di, dj, dk int) float64 {
	coef := lorenzo2SignAndWeight(di, dj, dk)
	return coef * at3(decoded, dims, strides, i-di, j-dj, k-dk)
}

func lorenzo2Term4(decoded []float64, dims, strides []int, i, j, k, l, di, dj, dk, dl int) float64 {
	coef := lorenzo2SignAndWeight(di, dj, dk, dl)
	return coef * at4(decoded, dims, strides, i-di, j-dj, k-dk, l-dl)
}
