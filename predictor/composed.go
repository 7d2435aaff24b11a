package predictor

import (
	"github.com/jtian0/szgo/block"
	"github.com/mewkiz/pkg/errutil"
)

// Composed holds an ordered list of candidate predictors and, per block,
// probes each enabled one's estimated residual cost against the block's
// original values (used as a proxy for not-yet-decoded neighbors, the same
// approximation the teacher's fixed-predictor analysis made before an
// entropy coder's exact cost was available) and picks the cheapest. Ties
// are broken by lowest Tag value. Lorenzo1 is always included as a
// fallback, since MinNeighbors never excludes it.
type Composed struct {
	candidates []Predictor
	dims       []int
	eps        float64
	chosen     Predictor
}

// NewComposed returns a Composed predictor over candidates, in the order
// they should be tried on a tie. candidates must include a Lorenzo1Predictor.
// eps is the error bound used to estimate each candidate's residual cost.
func NewComposed(candidates []Predictor, eps float64) *Composed {
	return &Composed{candidates: candidates, eps: eps}
}

func (c *Composed) Tag() Tag {
	if c.chosen == nil {
		return Lorenzo1
	}
	return c.chosen.Tag()
}

func (c *Composed) Bind(dims []int) {
	c.dims = dims
	for _, p := range c.candidates {
		p.Bind(dims)
	}
}

// Fit selects, for this block, the cheapest eligible candidate and fits it;
// the winner is remembered for Predict/Coeffs/NumCoeffs.
func (c *Composed) Fit(blk block.Block, data []float64) {
	var best Predictor
	bestCost := int(^uint(0) >> 1)

	for _, p := range c.candidates {
		if MinNeighbors(p.Tag(), c.dims, blk.Start) > 0 {
			continue
		}
		p.Fit(blk, data)
		cost := c.estimateCandidateCost(p, blk, data)
		if cost < bestCost || (cost == bestCost && (best == nil || p.Tag() < best.Tag())) {
			bestCost = cost
			best = p
		}
	}
	if best == nil {
		for _, p := range c.candidates {
			if p.Tag() == Lorenzo1 {
				best = p
				break
			}
		}
	}
	c.chosen = best
}

// estimateCandidateCost predicts every element of blk against data (the
// block's own original values, standing in for already-decoded neighbors,
// since the real decoded buffer does not exist yet at selection time) and
// estimates the resulting residual bit cost.
func (c *Composed) estimateCandidateCost(p Predictor, blk block.Block, data []float64) int {
	residuals := make([]float64, 0, blk.NElements())
	e := block.NewElem(c.dims, blk)
	for e.Next() {
		idx := e.Index()
		off := e.Offset()
		pred := p.Predict(data, idx, off)
		residuals = append(residuals, data[off]-pred)
	}
	return EstimateBits(residuals, c.eps)
}

// SelectByTag sets the chosen candidate to the one with the given tag,
// without fitting it. This is the decode-side counterpart of Fit: the
// decoder never has original block values to fit against, only the tag and
// coefficients read back from the stream, which it installs with
// SetCoeffs.
func (c *Composed) SelectByTag(tag Tag) error {
	for _, p := range c.candidates {
		if p.Tag() == tag {
			c.chosen = p
			return nil
		}
	}
	return errutil.Newf("predictor: tag %v not among composed candidates", tag)
}

func (c *Composed) NumCoeffs() int {
	if c.chosen == nil {
		return 0
	}
	return c.chosen.NumCoeffs()
}

func (c *Composed) Coeffs() []float64 {
	if c.chosen == nil {
		return nil
	}
	return c.chosen.Coeffs()
}

func (c *Composed) SetCoeffs(coeffs []float64) {
	if c.chosen != nil {
		c.chosen.SetCoeffs(coeffs)
	}
}

// Predict delegates to the chosen predictor for this block.
func (c *Composed) Predict(decoded []float64, idx []int, off int) float64 {
	if c.chosen == nil {
		return 0
	}
	return c.chosen.Predict(decoded, idx, off)
}
