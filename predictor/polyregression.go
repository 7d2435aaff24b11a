package predictor

import (
	"github.com/jtian0/szgo/block"
	"gonum.org/v1/gonum/mat"
)

// PolyRegressionPredictor is the second-degree extension of
// RegressionPredictor: it fits f(x) = c0 + sum ci*xi + sum_{i<=j} cij*xi*xj
// across a block by least squares. Coefficient count is
// 1 + n + n(n+1)/2.
type PolyRegressionPredictor struct {
	dims    []int
	strides []int
	coeffs  []float64
}

// NewPolyRegression returns a PolyRegressionPredictor.
func NewPolyRegression() *PolyRegressionPredictor { return &PolyRegressionPredictor{} }

func (p *PolyRegressionPredictor) Tag() Tag { return PolyRegression }

func numPolyCoeffs(n int) int {
	return 1 + n + n*(n+1)/2
}

func (p *PolyRegressionPredictor) Bind(dims []int) {
	p.dims = dims
	p.strides = block.Strides(dims)
	p.coeffs = make([]float64, numPolyCoeffs(len(dims)))
}

func (p *PolyRegressionPredictor) NumCoeffs() int    { return numPolyCoeffs(len(p.dims)) }
func (p *PolyRegressionPredictor) Coeffs() []float64 { return p.coeffs }
func (p *PolyRegressionPredictor) SetCoeffs(c []float64) {
	copy(p.coeffs, c)
}

// polyTerms writes the regressor row [1, x1..xn, x1^2, x1*x2, ..., xn^2]
// (every i<=j pair) for idx into dst, which must have length
// numPolyCoeffs(len(idx)).
func polyTerms(idx []int, dst []float64) {
	n := len(idx)
	dst[0] = 1
	for i := 0; i < n; i++ {
		dst[1+i] = float64(idx[i])
	}
	pos := 1 + n
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			dst[pos] = float64(idx[i]) * float64(idx[j])
			pos++
		}
	}
}

// Fit solves the block's least-squares quadratic fit over its original
// values.
func (p *PolyRegressionPredictor) Fit(blk block.Block, data []float64) {
	n := len(p.dims)
	numCoeffs := numPolyCoeffs(n)
	m := blk.NElements()
	if m < numCoeffs {
		for i := range p.coeffs {
			p.coeffs[i] = 0
		}
		return
	}

	aData := make([]float64, m*numCoeffs)
	yData := make([]float64, m)
	e := block.NewElem(p.dims, blk)
	row := 0
	rowTerms := make([]float64, numCoeffs)
	for e.Next() {
		idx := e.Index()
		off := e.Offset()
		polyTerms(idx, rowTerms)
		copy(aData[row*numCoeffs:(row+1)*numCoeffs], rowTerms)
		yData[row] = data[off]
		row++
	}

	a := mat.NewDense(m, numCoeffs, aData)
	y := mat.NewDense(m, 1, yData)
	var c mat.Dense
	if err := c.Solve(a, y); err != nil {
		for i := range p.coeffs {
			p.coeffs[i] = 0
		}
		return
	}
	for i := 0; i < numCoeffs; i++ {
		p.coeffs[i] = c.At(i, 0)
	}
}

// Predict evaluates the fitted (or installed) quadratic at idx.
func (p *PolyRegressionPredictor) Predict(decoded []float64, idx []int, off int) float64 {
	terms := make([]float64, len(p.coeffs))
	polyTerms(idx, terms)
	var sum float64
	for i, t := range terms {
		sum += p.coeffs[i] * t
	}
	return sum
}
