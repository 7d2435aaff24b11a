package quantizer

import (
	"math"
	"testing"
)

func TestQuantizeWithinBoundRoundTrips(t *testing.T) {
	q := New(0.1, 32768)
	for _, residual := range []float64{0, 0.05, -0.05, 1.3, -1.3, 3.14} {
		idx, recon, ok := q.Quantize(residual)
		if !ok {
			t.Fatalf("Quantize(%v) escaped unexpectedly", residual)
		}
		if math.Abs(residual-recon) > q.Eps {
			t.Errorf("Quantize(%v) reconstructed %v, error exceeds eps %v", residual, recon, q.Eps)
		}
		if got := q.Reconstruct(idx); got != recon {
			t.Errorf("Reconstruct(%d) = %v, want %v", idx, got, recon)
		}
		if idx < 0 || idx >= q.NumBins() {
			t.Errorf("index %d out of range [0, %d)", idx, q.NumBins())
		}
	}
}

func TestQuantizeEscapesBeyondRadius(t *testing.T) {
	q := New(0.1, 4)
	_, _, ok := q.Quantize(1000)
	if ok {
		t.Fatalf("expected escape for residual far beyond radius")
	}
}

func TestQuantizeZeroMapsToCenterBin(t *testing.T) {
	q := New(1e-3, 1000)
	idx, recon, ok := q.Quantize(0)
	if !ok {
		t.Fatal("zero residual should never escape")
	}
	if idx != q.Radius {
		t.Errorf("zero residual bin = %d, want center bin %d", idx, q.Radius)
	}
	if recon != 0 {
		t.Errorf("zero residual reconstruction = %v, want 0", recon)
	}
}
