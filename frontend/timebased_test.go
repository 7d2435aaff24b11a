package frontend_test

import (
	"math"
	"testing"

	sz "github.com/jtian0/szgo"
	"github.com/jtian0/szgo/frontend"
	"github.com/stretchr/testify/require"
)

func rowConfig(m int) *sz.Config {
	return &sz.Config{
		Dims:           []int{m},
		ErrorBoundMode: sz.AbsoluteErrorBound,
		ErrorBound:     0.01,
		BlockSize:      4,
		Stride:         4,
		QuantBinCnt:    256,
		Predictors:     sz.PredictorSet{Lorenzo: true, Regression: true},
	}
}

func TestTimeBasedRoundTripWithinErrorBound(t *testing.T) {
	const T, M = 6, 12
	data := make([]float64, T*M)
	for ti := 0; ti < T; ti++ {
		for i := 0; i < M; i++ {
			data[ti*M+i] = float64(i) + 0.05*float64(ti) + 0.2*math.Sin(float64(i))
		}
	}

	tb, err := frontend.NewTimeBased(rowConfig(M), T, M)
	require.NoError(t, err)

	compressed, _, err := tb.Compress(data)
	require.NoError(t, err)

	got, stats, err := tb.Decompress(compressed)
	require.NoError(t, err)
	require.Len(t, got, T*M)
	for i := range data {
		require.InDelta(t, data[i], got[i], stats.Eps+1e-9)
	}
}

func TestNewTimeBasedRejectsMismatchedRowDims(t *testing.T) {
	_, err := frontend.NewTimeBased(rowConfig(8), 4, 12)
	require.Error(t, err)
}
