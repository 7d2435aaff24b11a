package sz

import (
	"bytes"
	"math"

	"github.com/jtian0/szgo/huffman"
	"github.com/jtian0/szgo/internal/bitstream"
)

// magic identifies a compressed stream produced by this package; it is
// checked verbatim on decode before anything else is parsed.
var magic = [4]byte{'S', 'Z', 'G', '1'}

// formatVersion is incremented whenever the byte layout changes
// incompatibly.
const formatVersion = 1

// predictor-set bitmap bits, written in Config.Predictors field order.
const (
	bitLorenzo = 1 << iota
	bitLorenzo2
	bitRegression
	bitPolyRegress
)

func predictorBitmap(p PredictorSet) byte {
	var b byte
	if p.Lorenzo {
		b |= bitLorenzo
	}
	if p.Lorenzo2 {
		b |= bitLorenzo2
	}
	if p.Regression {
		b |= bitRegression
	}
	if p.PolyRegress {
		b |= bitPolyRegress
	}
	return b
}

func bitmapPredictors(b byte) PredictorSet {
	return PredictorSet{
		Lorenzo:     b&bitLorenzo != 0,
		Lorenzo2:    b&bitLorenzo2 != 0,
		Regression:  b&bitRegression != 0,
		PolyRegress: b&bitPolyRegress != 0,
	}
}

// header is the parsed form of format §6 items 1-5: everything up to and
// including the predictor bitmap. It is written and read outside the
// lossless back-end, the way the teacher's stream metadata blocks precede
// the frame data.
type header struct {
	dims   []int
	eps    float64
	radius int
	bitmap byte
}

func writeHeader(w *bitstream.Writer, h header) error {
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if err := w.WriteByte(formatVersion); err != nil {
		return err
	}
	if err := w.WriteByte(byte(len(h.dims))); err != nil {
		return err
	}
	for _, d := range h.dims {
		if err := w.WriteBits(uint64(d), 64); err != nil {
			return err
		}
	}
	if err := w.WriteBits(uint64(math.Float32bits(float32(h.eps))), 32); err != nil {
		return err
	}
	if err := w.WriteBits(uint64(uint32(h.radius)), 32); err != nil {
		return err
	}
	return w.WriteByte(h.bitmap)
}

func readHeader(r *bitstream.Reader) (header, error) {
	var h header

	got := make([]byte, len(magic))
	if _, err := r.Read(got); err != nil {
		return h, newDecodingError(Truncated, "reading magic: %v", err)
	}
	if !bytes.Equal(got, magic[:]) {
		return h, newDecodingError(Magic, "bad magic %x", got)
	}

	version, err := r.ReadByte()
	if err != nil {
		return h, newDecodingError(Truncated, "reading version: %v", err)
	}
	if version != formatVersion {
		return h, newDecodingError(Magic, "unsupported format version %d", version)
	}

	ndims, err := r.ReadByte()
	if err != nil {
		return h, newDecodingError(Truncated, "reading dim count: %v", err)
	}
	if ndims < 1 || ndims > 4 {
		return h, newDecodingError(Corrupt, "dim count %d out of range [1,4]", ndims)
	}
	h.dims = make([]int, ndims)
	for i := range h.dims {
		v, err := r.ReadBits(64)
		if err != nil {
			return h, newDecodingError(Truncated, "reading dims[%d]: %v", i, err)
		}
		h.dims[i] = int(v)
	}

	epsBits, err := r.ReadBits(32)
	if err != nil {
		return h, newDecodingError(Truncated, "reading eps: %v", err)
	}
	h.eps = float64(math.Float32frombits(uint32(epsBits)))

	radBits, err := r.ReadBits(32)
	if err != nil {
		return h, newDecodingError(Truncated, "reading radius: %v", err)
	}
	h.radius = int(uint32(radBits))

	bitmap, err := r.ReadByte()
	if err != nil {
		return h, newDecodingError(Truncated, "reading predictor bitmap: %v", err)
	}
	h.bitmap = bitmap

	return h, nil
}

// writeHuffmanTable writes a length-prefixed canonical Huffman table
// segment (format §6 item 6): a 4-byte big-endian-via-WriteBits byte count,
// followed by the run-length-coded length table itself.
func writeHuffmanTable(w *bitstream.Writer, t *huffman.Table) error {
	var buf bytes.Buffer
	tw := bitstream.NewWriter(&buf)
	if err := t.WriteLengths(tw); err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return err
	}
	if err := w.WriteBits(uint64(buf.Len()), 32); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func readHuffmanTable(r *bitstream.Reader, numSymbols int) (*huffman.Table, error) {
	n, err := r.ReadBits(32)
	if err != nil {
		return nil, newDecodingError(Truncated, "reading huffman table length: %v", err)
	}
	buf := make([]byte, n)
	if _, err := r.Read(buf); err != nil {
		return nil, newDecodingError(Truncated, "reading huffman table: %v", err)
	}
	tr := bitstream.NewReader(bytes.NewReader(buf))
	t, err := huffman.ReadLengths(tr, numSymbols)
	if err != nil {
		return nil, newDecodingError(Corrupt, "parsing huffman table: %v", err)
	}
	return t, nil
}
