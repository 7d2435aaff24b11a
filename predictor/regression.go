package predictor

import (
	"github.com/jtian0/szgo/block"
	"gonum.org/v1/gonum/mat"
)

// RegressionPredictor fits an affine function
// f(x1,...,xn) = c0 + sum ci*xi across a block by least squares. Its
// coefficients are quantized by the caller to a fraction of the main error
// bound (see Config.RegressionCoeffBoundRatio) so coefficient error stays
// subordinate to the residual error bound; SetCoeffs installs that
// quantized-and-reconstructed value so the decoder, which never calls Fit,
// reproduces the encoder's exact predictions.
type RegressionPredictor struct {
	dims    []int
	strides []int
	coeffs  []float64 // len(dims)+1: [c0, c1, ..., cn]
}

// NewRegression returns a RegressionPredictor.
func NewRegression() *RegressionPredictor { return &RegressionPredictor{} }

func (p *RegressionPredictor) Tag() Tag { return Regression }

func (p *RegressionPredictor) Bind(dims []int) {
	p.dims = dims
	p.strides = block.Strides(dims)
	p.coeffs = make([]float64, len(dims)+1)
}

func (p *RegressionPredictor) NumCoeffs() int    { return len(p.dims) + 1 }
func (p *RegressionPredictor) Coeffs() []float64 { return p.coeffs }
func (p *RegressionPredictor) SetCoeffs(c []float64) {
	copy(p.coeffs, c)
}

// Fit solves the block's least-squares affine fit over its original values.
func (p *RegressionPredictor) Fit(blk block.Block, data []float64) {
	n := len(p.dims)
	m := blk.NElements()
	if m < n+1 {
		// Too few samples for a stable fit; leave coefficients at zero so
		// Predict degrades to a constant-zero prediction. The selector
		// excludes Regression from consideration in this case via
		// MinNeighbors/estimate-cost demotion.
		for i := range p.coeffs {
			p.coeffs[i] = 0
		}
		return
	}

	aData := make([]float64, m*(n+1))
	yData := make([]float64, m)
	e := block.NewElem(p.dims, blk)
	row := 0
	for e.Next() {
		idx := e.Index()
		off := e.Offset()
		base := row * (n + 1)
		aData[base] = 1
		for d := 0; d < n; d++ {
			aData[base+1+d] = float64(idx[d])
		}
		yData[row] = data[off]
		row++
	}

	a := mat.NewDense(m, n+1, aData)
	y := mat.NewDense(m, 1, yData)
	var c mat.Dense
	if err := c.Solve(a, y); err != nil {
		for i := range p.coeffs {
			p.coeffs[i] = 0
		}
		return
	}
	for i := 0; i < n+1; i++ {
		p.coeffs[i] = c.At(i, 0)
	}
}

// Predict evaluates the fitted (or decode-side, installed-via-SetCoeffs)
// affine function at idx.
func (p *RegressionPredictor) Predict(decoded []float64, idx []int, off int) float64 {
	sum := p.coeffs[0]
	for d, x := range idx {
		sum += p.coeffs[1+d] * float64(x)
	}
	return sum
}
