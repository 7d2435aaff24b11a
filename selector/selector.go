// Package selector implements the adaptive method selector (spec component
// 4.I): it trial-compresses a small sample of a time-series array under
// each candidate frontend and picks the one with the smallest compressed
// size, re-probing on a configurable cadence.
package selector

import (
	sz "github.com/jtian0/szgo"
	"github.com/jtian0/szgo/collab"
	"github.com/jtian0/szgo/frontend"
)

// SelectionReport is Select's diagnostic output: the winning method and
// every candidate's trial-compressed size, indexed in sz.Method order (-1
// for a candidate that was not applicable, e.g. VQ/VQT with no levels).
type SelectionReport struct {
	Chosen         sz.Method
	CandidateSizes []int
}

// Adaptive runs the selector across a sequence of time-step batches,
// re-probing every cfg.MethodBatch batches and reusing the previous choice
// otherwise; MethodBatch <= 0 locks to the method chosen on the first call.
type Adaptive struct {
	rowCfg  *sz.Config // Dims == []int{m}, used for LR and as TimeBased's row compressor
	batchCfg *sz.Config // Dims == []int{sampleLen, m}, used for TS
	batch   int
	locked  bool
	report  SelectionReport
}

// NewAdaptive returns an Adaptive selector. rowCfg configures the spatial
// compressor used per row (Dims must be []int{m}); sampleLen is the number
// of rows probed per batch (spec recommends min(10, batch size)).
func NewAdaptive(rowCfg *sz.Config, sampleLen int) *Adaptive {
	batchCfg := *rowCfg
	batchCfg.Dims = []int{sampleLen, rowCfg.Dims[0]}
	return &Adaptive{rowCfg: rowCfg, batchCfg: &batchCfg}
}

// Select returns the method to use for the batch of sampleLen rows starting
// at time step t within full (shape (T, M), row-major). levels is nil if no
// clustering collaborator was run for this batch, which excludes VQ/VQT
// from consideration.
func (a *Adaptive) Select(full []float64, t, m, sampleLen int, levels *collab.LevelParams) (SelectionReport, error) {
	if a.locked {
		if a.rowCfg.MethodBatch <= 0 {
			return a.report, nil
		}
		if a.batch%a.rowCfg.MethodBatch != 0 {
			a.batch++
			return a.report, nil
		}
	}
	a.batch++

	sample := full[t*m : (t+sampleLen)*m]
	sizes := make([]int, len(sz.MethodNames))
	for i := range sizes {
		sizes[i] = -1
	}

	if n, err := trialLR(a.rowCfg, sample, m, sampleLen); err == nil {
		sizes[sz.MethodLR] = n
	}
	if n, err := trialTS(a.batchCfg, sample); err == nil {
		sizes[sz.MethodTS] = n
	}
	if n, err := trialMT(a.rowCfg, sample, sampleLen, m); err == nil {
		sizes[sz.MethodMT] = n
	}
	if levels != nil {
		if n, err := trialVQ(a.rowCfg, sample, m, *levels); err == nil {
			sizes[sz.MethodVQ] = n
		}
		if n, err := trialVQT(a.rowCfg, sample, m, *levels); err == nil {
			sizes[sz.MethodVQT] = n
		}
	}

	chosen := -1
	best := int(^uint(0) >> 1)
	for i, s := range sizes {
		if s < 0 {
			continue
		}
		if s < best {
			best = s
			chosen = i
		}
	}
	report := SelectionReport{Chosen: sz.Method(chosen), CandidateSizes: sizes}
	a.report = report
	a.locked = true
	return report, nil
}

func trialLR(rowCfg *sz.Config, sample []float64, m, rows int) (int, error) {
	c, err := sz.NewCompressor(rowCfg)
	if err != nil {
		return 0, err
	}
	total := 0
	for r := 0; r < rows; r++ {
		b, _, err := c.Compress(sample[r*m : (r+1)*m])
		if err != nil {
			return 0, err
		}
		total += len(b)
	}
	return total, nil
}

func trialTS(batchCfg *sz.Config, sample []float64) (int, error) {
	c, err := sz.NewCompressor(batchCfg)
	if err != nil {
		return 0, err
	}
	b, _, err := c.Compress(sample)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

func trialMT(rowCfg *sz.Config, sample []float64, rows, m int) (int, error) {
	tb, err := frontend.NewTimeBased(rowCfg, rows, m)
	if err != nil {
		return 0, err
	}
	b, _, err := tb.Compress(sample)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

func trialVQ(rowCfg *sz.Config, sample []float64, sampleCount int, levels collab.LevelParams) (int, error) {
	f, err := frontend.NewVQ(rowCfg.ErrorBound, rowCfg.Radius(), sampleCount, levels)
	if err != nil {
		return 0, err
	}
	b, _, err := f.Compress(sample)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

func trialVQT(rowCfg *sz.Config, sample []float64, sampleCount int, levels collab.LevelParams) (int, error) {
	f, err := frontend.NewVQT(rowCfg.ErrorBound, rowCfg.Radius(), sampleCount, levels)
	if err != nil {
		return 0, err
	}
	b, _, err := f.Compress(sample)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

// SampleLen returns min(10, batchSize), the sample length spec 4.I
// recommends for trial compression.
func SampleLen(batchSize int) int {
	if batchSize < 10 {
		return batchSize
	}
	return 10
}
