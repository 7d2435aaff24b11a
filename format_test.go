package sz

import (
	"bytes"
	"testing"

	"github.com/jtian0/szgo/huffman"
	"github.com/jtian0/szgo/internal/bitstream"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := header{dims: []int{12, 7, 3}, eps: 0.015625, radius: 128, bitmap: bitLorenzo | bitRegression}

	var buf bytes.Buffer
	w := bitstream.NewWriter(&buf)
	if err := writeHeader(w, h); err != nil {
		t.Fatalf("writeHeader: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := readHeader(bitstream.NewReader(bytes.NewReader(buf.Bytes())))
	if err != nil {
		t.Fatalf("readHeader: %v", err)
	}
	if len(got.dims) != len(h.dims) {
		t.Fatalf("dims length = %d, want %d", len(got.dims), len(h.dims))
	}
	for i := range h.dims {
		if got.dims[i] != h.dims[i] {
			t.Errorf("dims[%d] = %d, want %d", i, got.dims[i], h.dims[i])
		}
	}
	if float32(got.eps) != float32(h.eps) {
		t.Errorf("eps = %v, want %v", got.eps, h.eps)
	}
	if got.radius != h.radius {
		t.Errorf("radius = %d, want %d", got.radius, h.radius)
	}
	if got.bitmap != h.bitmap {
		t.Errorf("bitmap = %08b, want %08b", got.bitmap, h.bitmap)
	}
}

func TestReadHeaderRejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	w := bitstream.NewWriter(&buf)
	w.Write([]byte("XXXX"))
	w.WriteByte(formatVersion)
	w.Close()

	_, err := readHeader(bitstream.NewReader(bytes.NewReader(buf.Bytes())))
	de, ok := err.(*DecodingError)
	if !ok || de.Kind != Magic {
		t.Fatalf("expected a Magic DecodingError, got %v", err)
	}
}

func TestReadHeaderRejectsTruncatedStream(t *testing.T) {
	_, err := readHeader(bitstream.NewReader(bytes.NewReader(nil)))
	de, ok := err.(*DecodingError)
	if !ok || de.Kind != Truncated {
		t.Fatalf("expected a Truncated DecodingError, got %v", err)
	}
}

func TestPredictorBitmapRoundTrip(t *testing.T) {
	p := PredictorSet{Lorenzo: true, Regression: true}
	got := bitmapPredictors(predictorBitmap(p))
	if got != p {
		t.Errorf("bitmapPredictors(predictorBitmap(p)) = %+v, want %+v", got, p)
	}
}

func TestHuffmanTableSegmentRoundTrip(t *testing.T) {
	freqs := []uint64{10, 0, 3, 1, 1, 40}
	table, err := huffman.Build(freqs)
	if err != nil {
		t.Fatalf("huffman.Build: %v", err)
	}

	var buf bytes.Buffer
	w := bitstream.NewWriter(&buf)
	if err := writeHuffmanTable(w, table); err != nil {
		t.Fatalf("writeHuffmanTable: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := readHuffmanTable(bitstream.NewReader(bytes.NewReader(buf.Bytes())), len(freqs))
	if err != nil {
		t.Fatalf("readHuffmanTable: %v", err)
	}
	for i, l := range table.Lengths {
		if got.Lengths[i] != l {
			t.Errorf("Lengths[%d] = %d, want %d", i, got.Lengths[i], l)
		}
	}
}
