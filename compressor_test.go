package sz_test

import (
	"math"
	"testing"

	sz "github.com/jtian0/szgo"
)

func defaultConfig(dims []int) *sz.Config {
	return &sz.Config{
		Dims:           dims,
		ErrorBoundMode: sz.AbsoluteErrorBound,
		ErrorBound:     0.01,
		BlockSize:      4,
		Stride:         4,
		QuantBinCnt:    256,
		Predictors:     sz.PredictorSet{Lorenzo: true, Lorenzo2: true, Regression: true},
	}
}

func roundTrip(t *testing.T, cfg *sz.Config, data []float64) ([]float64, sz.Stats) {
	t.Helper()
	c, err := sz.NewCompressor(cfg)
	if err != nil {
		t.Fatalf("NewCompressor: %v", err)
	}
	compressed, _, err := c.Compress(data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	got, stats, err := c.Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if len(got) != len(data) {
		t.Fatalf("decompressed length %d, want %d", len(got), len(data))
	}
	return got, stats
}

func TestRoundTripWithinErrorBound1D(t *testing.T) {
	cfg := defaultConfig([]int{37})
	data := make([]float64, 37)
	for i := range data {
		data[i] = math.Sin(float64(i)*0.3) * 10
	}

	got, stats := roundTrip(t, cfg, data)
	for i := range data {
		if math.Abs(got[i]-data[i]) > stats.Eps+1e-9 {
			t.Fatalf("index %d: got %v, want %v within eps %v", i, got[i], data[i], stats.Eps)
		}
	}
}

func TestRoundTripWithinErrorBound2D(t *testing.T) {
	cfg := defaultConfig([]int{9, 11})
	data := make([]float64, 9*11)
	for i := range data {
		x, y := float64(i/11), float64(i%11)
		data[i] = x*x - 2*y + math.Cos(x+y)
	}

	got, stats := roundTrip(t, cfg, data)
	for i := range data {
		if math.Abs(got[i]-data[i]) > stats.Eps+1e-9 {
			t.Fatalf("index %d: got %v, want %v within eps %v", i, got[i], data[i], stats.Eps)
		}
	}
}

func TestRoundTripConstantArrayUsesSingleSymbolHuffman(t *testing.T) {
	cfg := defaultConfig([]int{16})
	data := make([]float64, 16)
	for i := range data {
		data[i] = 42.0
	}

	got, stats := roundTrip(t, cfg, data)
	for i := range data {
		if math.Abs(got[i]-data[i]) > stats.Eps+1e-9 {
			t.Fatalf("index %d: got %v, want %v", i, got[i], data[i])
		}
	}
	// Every element after the very first predicts exactly from its already-
	// decoded neighbor (constant data), so at most the origin element, which
	// has no neighbors to predict from, needs to escape.
	if stats.UnpredictableCount > 1 {
		t.Errorf("constant array should need at most one escape (the origin element), got %d", stats.UnpredictableCount)
	}
}

func TestRoundTripEdgeBlocksNotMultipleOfBlockSize(t *testing.T) {
	cfg := defaultConfig([]int{10})
	cfg.BlockSize = 4
	cfg.Stride = 4
	data := make([]float64, 10)
	for i := range data {
		data[i] = float64(i) * 1.5
	}

	got, stats := roundTrip(t, cfg, data)
	for i := range data {
		if math.Abs(got[i]-data[i]) > stats.Eps+1e-9 {
			t.Fatalf("index %d: got %v, want %v", i, got[i], data[i])
		}
	}
}

func TestDecompressRejectsPredictorBitmapNotASuperset(t *testing.T) {
	encCfg := defaultConfig([]int{20})
	encCfg.Predictors = sz.PredictorSet{Lorenzo: true, Regression: true}
	data := make([]float64, 20)
	for i := range data {
		data[i] = float64(i)
	}

	enc, err := sz.NewCompressor(encCfg)
	if err != nil {
		t.Fatalf("NewCompressor: %v", err)
	}
	compressed, _, err := enc.Compress(data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	decCfg := defaultConfig([]int{20})
	decCfg.Predictors = sz.PredictorSet{Lorenzo: true} // missing Regression
	dec, err := sz.NewCompressor(decCfg)
	if err != nil {
		t.Fatalf("NewCompressor: %v", err)
	}
	if _, _, err := dec.Decompress(compressed); err == nil {
		t.Fatal("expected Decompress to reject a predictor set that is not a superset of the stream's")
	} else if de, ok := err.(*sz.DecodingError); !ok || de.Kind != sz.Corrupt {
		t.Fatalf("expected a Corrupt DecodingError, got %v", err)
	}
}

func TestDecompressRejectsMismatchedDims(t *testing.T) {
	cfg := defaultConfig([]int{20})
	data := make([]float64, 20)
	for i := range data {
		data[i] = float64(i)
	}
	c, err := sz.NewCompressor(cfg)
	if err != nil {
		t.Fatalf("NewCompressor: %v", err)
	}
	compressed, _, err := c.Compress(data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	wrongCfg := defaultConfig([]int{21})
	wrongC, err := sz.NewCompressor(wrongCfg)
	if err != nil {
		t.Fatalf("NewCompressor: %v", err)
	}
	if _, _, err := wrongC.Decompress(compressed); err == nil {
		t.Fatal("expected Decompress to reject mismatched dims")
	}
}

func TestCompressRejectsWrongElementCount(t *testing.T) {
	cfg := defaultConfig([]int{10})
	c, err := sz.NewCompressor(cfg)
	if err != nil {
		t.Fatalf("NewCompressor: %v", err)
	}
	if _, _, err := c.Compress(make([]float64, 9)); err == nil {
		t.Fatal("expected Compress to reject a data slice of the wrong length")
	}
}
