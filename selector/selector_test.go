package selector_test

import (
	"testing"

	sz "github.com/jtian0/szgo"
	"github.com/jtian0/szgo/collab"
	"github.com/jtian0/szgo/selector"
	"github.com/stretchr/testify/require"
)

func selectorRowConfig(m, methodBatch int) *sz.Config {
	return &sz.Config{
		Dims:           []int{m},
		ErrorBoundMode: sz.AbsoluteErrorBound,
		ErrorBound:     0.01,
		BlockSize:      4,
		Stride:         4,
		QuantBinCnt:    256,
		Predictors:     sz.PredictorSet{Lorenzo: true, Regression: true},
		MethodBatch:    methodBatch,
	}
}

// constantBatch builds T*M samples, each row constant over space and equal
// to its row index over time: the baseline/diff structure TimeBased and TS
// both exploit heavily, so this favors a time-based method over plain LR.
func constantBatch(t, m int) []float64 {
	data := make([]float64, t*m)
	for ti := 0; ti < t; ti++ {
		for i := 0; i < m; i++ {
			data[ti*m+i] = float64(ti)
		}
	}
	return data
}

func TestSelectReturnsAKnownMethodWithPlausibleSizes(t *testing.T) {
	const m, sampleLen = 8, 6
	data := constantBatch(20, m)

	a := selector.NewAdaptive(selectorRowConfig(m, 0), sampleLen)
	report, err := a.Select(data, 0, m, sampleLen, nil)
	require.NoError(t, err)

	require.True(t, report.Chosen >= sz.MethodVQ && report.Chosen <= sz.MethodTS)
	require.Len(t, report.CandidateSizes, len(sz.MethodNames))
	// VQ/VQT were not offered a levels collaborator, so they must be marked
	// inapplicable rather than silently defaulted to zero.
	require.Equal(t, -1, report.CandidateSizes[sz.MethodVQ])
	require.Equal(t, -1, report.CandidateSizes[sz.MethodVQT])
	// LR, TS and MT were all attempted and must report a real size.
	require.Greater(t, report.CandidateSizes[sz.MethodLR], 0)
	require.Greater(t, report.CandidateSizes[sz.MethodTS], 0)
	require.Greater(t, report.CandidateSizes[sz.MethodMT], 0)

	best := report.CandidateSizes[report.Chosen]
	for i, s := range report.CandidateSizes {
		if s < 0 {
			continue
		}
		require.LessOrEqualf(t, best, s, "chosen method %s (%d) is not the minimum candidate; method %d scored smaller", report.Chosen, best, i)
	}
}

func TestSelectConsidersVQWhenLevelsSupplied(t *testing.T) {
	const m, sampleLen = 8, 6
	data := constantBatch(20, m)
	levels := collab.LevelParams{LevelStart: 0, LevelOffset: 1, LevelCount: 2}

	a := selector.NewAdaptive(selectorRowConfig(m, 0), sampleLen)
	report, err := a.Select(data, 0, m, sampleLen, &levels)
	require.NoError(t, err)

	require.GreaterOrEqual(t, report.CandidateSizes[sz.MethodVQ], 0)
	require.GreaterOrEqual(t, report.CandidateSizes[sz.MethodVQT], 0)
}

func TestSelectLocksToFirstChoiceWhenMethodBatchIsZero(t *testing.T) {
	const m, sampleLen = 8, 6
	data := constantBatch(40, m)

	a := selector.NewAdaptive(selectorRowConfig(m, 0), sampleLen)
	first, err := a.Select(data, 0, m, sampleLen, nil)
	require.NoError(t, err)

	// A very different sample region would otherwise change the winner, but
	// MethodBatch <= 0 must lock to the first decision regardless.
	second, err := a.Select(data, sampleLen, m, sampleLen, nil)
	require.NoError(t, err)
	require.Equal(t, first.Chosen, second.Chosen)
	require.Equal(t, first.CandidateSizes, second.CandidateSizes)
}

func TestSelectReprobesOnConfiguredCadence(t *testing.T) {
	const m, sampleLen = 8, 6
	data := constantBatch(80, m)

	a := selector.NewAdaptive(selectorRowConfig(m, 2), sampleLen)
	first, err := a.Select(data, 0, m, sampleLen, nil)
	require.NoError(t, err)

	// batch counter is now 1; MethodBatch=2 means this call must reuse the
	// cached report rather than re-probe.
	skipped, err := a.Select(data, sampleLen, m, sampleLen, nil)
	require.NoError(t, err)
	require.Equal(t, first, skipped)

	// batch counter is now 2; 2%2==0, so this call re-probes.
	reprobed, err := a.Select(data, 2*sampleLen, m, sampleLen, nil)
	require.NoError(t, err)
	require.Len(t, reprobed.CandidateSizes, len(sz.MethodNames))
}

func TestSampleLenCapsAtTen(t *testing.T) {
	require.Equal(t, 5, selector.SampleLen(5))
	require.Equal(t, 10, selector.SampleLen(10))
	require.Equal(t, 10, selector.SampleLen(100))
}
