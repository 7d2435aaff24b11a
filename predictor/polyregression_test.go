package predictor

import (
	"math"
	"testing"

	"github.com/jtian0/szgo/block"
)

func TestPolyRegressionFitsExactQuadratic1D(t *testing.T) {
	dims := []int{10}
	blk := block.Block{Start: []int{0}, Shape: dims}
	data := make([]float64, 10)
	for i := range data {
		x := float64(i)
		data[i] = 1 - 2*x + 0.5*x*x
	}

	p := NewPolyRegression()
	p.Bind(dims)
	p.Fit(blk, data)

	e := block.NewElem(dims, blk)
	for e.Next() {
		idx := e.Index()
		off := e.Offset()
		got := p.Predict(data, idx, off)
		want := data[off]
		if math.Abs(got-want) > 1e-6 {
			t.Errorf("Predict(%v) = %v, want %v", idx, got, want)
		}
	}
}

func TestPolyRegressionNumCoeffsCountsCrossTerms(t *testing.T) {
	p := NewPolyRegression()
	p.Bind([]int{4, 4})
	// n=2: 1 + 2 + 3 (x1^2, x1*x2, x2^2) = 6
	if got := p.NumCoeffs(); got != 6 {
		t.Errorf("NumCoeffs() = %d, want 6", got)
	}
}

func TestPolyRegressionTooFewSamplesFallsBackToZero(t *testing.T) {
	dims := []int{2}
	blk := block.Block{Start: []int{0}, Shape: []int{2}}
	data := []float64{1, 2}

	p := NewPolyRegression()
	p.Bind(dims)
	p.Fit(blk, data)

	for _, c := range p.Coeffs() {
		if c != 0 {
			t.Errorf("coefficient = %v, want 0 for under-determined fit", c)
		}
	}
}
