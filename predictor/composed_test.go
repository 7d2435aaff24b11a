package predictor

import (
	"testing"

	"github.com/jtian0/szgo/block"
)

func TestComposedTieBreaksToLowestTagOnAffineBlock(t *testing.T) {
	dims := []int{8, 8}
	blk := block.Block{Start: []int{2, 2}, Shape: []int{6, 6}}
	data := make([]float64, 64)
	e := block.NewElem(dims, block.Block{Start: []int{0, 0}, Shape: dims})
	for e.Next() {
		idx := e.Index()
		data[e.Offset()] = 4 + 2*float64(idx[0]) + 3*float64(idx[1])
	}

	// An affine field filling the whole array is reproduced exactly by
	// Lorenzo1's inclusion-exclusion formula, Lorenzo2's stencil and
	// Regression's least-squares fit, so all reach zero estimated cost; the
	// tie-break favors the lowest tag, Lorenzo1.
	c := NewComposed([]Predictor{NewLorenzo1(), NewLorenzo2(), NewRegression()}, 1e-6)
	c.Bind(dims)
	c.Fit(blk, data)

	if c.Tag() != Lorenzo1 {
		t.Errorf("chosen = %v, want Lorenzo1 (lowest tag on a cost tie)", c.Tag())
	}
}

func TestComposedPicksRegressionOverLorenzoForQuadraticBlock(t *testing.T) {
	dims := []int{10, 10}
	blk := block.Block{Start: []int{2, 2}, Shape: []int{6, 6}}
	data := make([]float64, 100)
	e := block.NewElem(dims, blk)
	for e.Next() {
		idx := e.Index()
		x, y := float64(idx[0]), float64(idx[1])
		data[e.Offset()] = 100 + x*x + y*y
	}

	// Only the block holds data. Lorenzo1's stencil reads the zeros outside
	// it along the block's first row and column, which costs more than
	// Regression's curvature residuals.
	c := NewComposed([]Predictor{NewLorenzo1(), NewRegression()}, 1e-6)
	c.Bind(dims)
	c.Fit(blk, data)

	if c.Tag() != Regression {
		t.Errorf("chosen = %v, want Regression: its least-squares fit costs less than Lorenzo1 at the block's zero-valued borders", c.Tag())
	}
}

func TestComposedFallsBackToLorenzo1AtOrigin(t *testing.T) {
	dims := []int{8, 8}
	blk := block.Block{Start: []int{0, 0}, Shape: []int{1, 1}}
	data := make([]float64, 64)

	c := NewComposed([]Predictor{NewLorenzo1(), NewRegression()}, 1e-6)
	c.Bind(dims)
	c.Fit(blk, data)

	if c.Tag() != Lorenzo1 {
		t.Errorf("chosen = %v, want Lorenzo1 fallback at array origin", c.Tag())
	}
}

func TestComposedDelegatesPredictAndCoeffs(t *testing.T) {
	dims := []int{4}
	c := NewComposed([]Predictor{NewLorenzo1(), NewRegression()}, 1e-6)
	c.Bind(dims)

	blk := block.Block{Start: []int{1}, Shape: []int{3}}
	data := []float64{0, 1, 2, 3}
	c.Fit(blk, data)

	if c.NumCoeffs() == 0 && c.Tag() == Regression {
		t.Errorf("Regression chosen but NumCoeffs reports 0")
	}
	_ = c.Predict(data, []int{2}, 2)
	_ = c.Coeffs()
}

func TestComposedSelectByTagMirrorsFit(t *testing.T) {
	dims := []int{4}
	c := NewComposed([]Predictor{NewLorenzo1(), NewRegression()}, 1e-6)
	c.Bind(dims)

	if err := c.SelectByTag(Regression); err != nil {
		t.Fatalf("SelectByTag: %v", err)
	}
	if c.Tag() != Regression {
		t.Errorf("Tag() = %v, want Regression", c.Tag())
	}

	if err := c.SelectByTag(PolyRegression); err == nil {
		t.Error("SelectByTag(PolyRegression) should fail: not among candidates")
	}
}
