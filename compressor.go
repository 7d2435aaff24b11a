package sz

import (
	"bytes"
	"math"

	"github.com/jtian0/szgo/block"
	"github.com/jtian0/szgo/huffman"
	"github.com/jtian0/szgo/internal/bitstream"
	"github.com/jtian0/szgo/lossless"
	"github.com/jtian0/szgo/predictor"
	"github.com/jtian0/szgo/quantizer"
)

// Compressor is the general block compressor (spec component 4.F): it
// decomposes an array into blocks, predicts each sample from
// already-decoded neighbors, quantizes the residual, and finishes the
// bitstream with canonical Huffman plus a lossless back-end.
type Compressor struct {
	cfg *Config
}

// NewCompressor validates cfg and returns a Compressor bound to it.
func NewCompressor(cfg *Config) (*Compressor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Compressor{cfg: cfg}, nil
}

// buildPredictors returns the candidate list Composed selects among.
// Lorenzo order-1 is always included, even if Config.Predictors.Lorenzo is
// false, since it is the fallback the selector can always fall back to
// (spec 4.B); the other members are added per the enabled flags.
func buildPredictors(p PredictorSet) []predictor.Predictor {
	preds := []predictor.Predictor{predictor.NewLorenzo1()}
	if p.Lorenzo2 {
		preds = append(preds, predictor.NewLorenzo2())
	}
	if p.Regression {
		preds = append(preds, predictor.NewRegression())
	}
	if p.PolyRegress {
		preds = append(preds, predictor.NewPolyRegression())
	}
	return preds
}

func minMax(data []float64) (float64, float64) {
	min, max := data[0], data[0]
	for _, v := range data[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

func freqTable(symbols []int, alphabet int) []uint64 {
	freqs := make([]uint64, alphabet)
	for _, s := range symbols {
		freqs[s]++
	}
	return freqs
}

// Compress runs the full pipeline over data (row-major, matching
// c.cfg.Dims) and returns the compressed byte stream and diagnostics.
func (c *Compressor) Compress(data []float64) ([]byte, Stats, error) {
	cfg := c.cfg
	if len(data) != cfg.NElements() {
		return nil, Stats{}, newConfigError("data has %d elements, want %d for dims %v", len(data), cfg.NElements(), cfg.Dims)
	}

	min, max := minMax(data)
	// The header stores eps as a float32; quantizing with that same value
	// lets Decompress rebuild coefficients and samples bit-exactly.
	eps := float64(float32(cfg.AbsErrorBound(min, max)))
	radius := cfg.Radius()
	q := quantizer.New(eps, radius)
	coeffQ := quantizer.New(eps*cfg.CoeffBoundRatio(), radius)

	preds := buildPredictors(cfg.Predictors)
	comp := predictor.NewComposed(preds, eps)
	comp.Bind(cfg.Dims)

	decoded := make([]float64, len(data))
	indexStream := make([]int, 0, len(data))
	var tagStream []int
	var coeffIdxStream []int
	var unpredictable []float32
	var coeffRaw []float32
	var stats Stats

	it := block.NewIter(cfg.Dims, cfg.BlockSize, cfg.Stride)
	elem := &block.Elem{}
	for it.Next() {
		blk := it.Block()
		comp.Fit(blk, data)
		tag := comp.Tag()
		tagStream = append(tagStream, int(tag))
		stats.PredictorTagCounts[tag]++

		if nc := comp.NumCoeffs(); nc > 0 {
			orig := append([]float64(nil), comp.Coeffs()...)
			recon := make([]float64, nc)
			for i, cf := range orig {
				idx, rc, ok := coeffQ.Quantize(cf)
				coeffIdxStream = append(coeffIdxStream, idx)
				if ok {
					recon[i] = rc
				} else {
					f32 := float32(cf)
					coeffRaw = append(coeffRaw, f32)
					recon[i] = float64(f32)
				}
			}
			comp.SetCoeffs(recon)
		}

		elem.Bind(cfg.Dims, blk)
		for elem.Next() {
			idx := elem.Index()
			off := elem.Offset()
			pred := comp.Predict(decoded, idx, off)
			residual := data[off] - pred
			qi, recon, ok := q.Quantize(residual)
			indexStream = append(indexStream, qi)
			if ok {
				decoded[off] = pred + recon
			} else {
				f32 := float32(data[off])
				unpredictable = append(unpredictable, f32)
				decoded[off] = float64(f32)
			}
		}
	}
	stats.UnpredictableCount = len(unpredictable)
	stats.CoeffEscapeCount = len(coeffRaw)
	stats.Eps = eps

	tagTable, err := huffman.Build(freqTable(tagStream, len(predictor.Names)))
	if err != nil {
		return nil, Stats{}, newEncodingError(LengthOverflow, "tag table: %v", err)
	}
	coeffTable, err := huffman.Build(freqTable(coeffIdxStream, q.NumBins()))
	if err != nil {
		return nil, Stats{}, newEncodingError(LengthOverflow, "coefficient table: %v", err)
	}
	residualTable, err := huffman.Build(freqTable(indexStream, q.NumBins()))
	if err != nil {
		return nil, Stats{}, newEncodingError(LengthOverflow, "residual table: %v", err)
	}

	var payloadBuf bytes.Buffer
	pw := bitstream.NewWriter(&payloadBuf)
	for _, tag := range tagStream {
		if err := tagTable.Encode(pw, tag); err != nil {
			return nil, Stats{}, newEncodingError(BufferOverflow, "encoding tag stream: %v", err)
		}
	}
	for _, ci := range coeffIdxStream {
		if err := coeffTable.Encode(pw, ci); err != nil {
			return nil, Stats{}, newEncodingError(BufferOverflow, "encoding coefficient stream: %v", err)
		}
	}
	for _, qi := range indexStream {
		if err := residualTable.Encode(pw, qi); err != nil {
			return nil, Stats{}, newEncodingError(BufferOverflow, "encoding residual stream: %v", err)
		}
	}
	for _, v := range coeffRaw {
		if err := pw.WriteBits(uint64(math.Float32bits(v)), 32); err != nil {
			return nil, Stats{}, newEncodingError(BufferOverflow, "writing coefficient escapes: %v", err)
		}
	}
	for _, v := range unpredictable {
		if err := pw.WriteBits(uint64(math.Float32bits(v)), 32); err != nil {
			return nil, Stats{}, newEncodingError(BufferOverflow, "writing unpredictable values: %v", err)
		}
	}
	if err := pw.Close(); err != nil {
		return nil, Stats{}, newEncodingError(BufferOverflow, "closing payload: %v", err)
	}

	var out bytes.Buffer
	hw := bitstream.NewWriter(&out)
	h := header{dims: cfg.Dims, eps: eps, radius: radius, bitmap: predictorBitmap(cfg.Predictors)}
	if err := writeHeader(hw, h); err != nil {
		return nil, Stats{}, newEncodingError(BufferOverflow, "writing header: %v", err)
	}
	if err := writeHuffmanTable(hw, tagTable); err != nil {
		return nil, Stats{}, newEncodingError(BufferOverflow, "writing tag table: %v", err)
	}
	if err := writeHuffmanTable(hw, coeffTable); err != nil {
		return nil, Stats{}, newEncodingError(BufferOverflow, "writing coefficient table: %v", err)
	}
	if err := writeHuffmanTable(hw, residualTable); err != nil {
		return nil, Stats{}, newEncodingError(BufferOverflow, "writing residual table: %v", err)
	}
	if err := hw.Close(); err != nil {
		return nil, Stats{}, newEncodingError(BufferOverflow, "closing header: %v", err)
	}

	compressedPayload, err := lossless.Compress(payloadBuf.Bytes(), cfg.LosslessLevel)
	if err != nil {
		return nil, Stats{}, newEncodingError(BufferOverflow, "lossless back-end: %v", err)
	}
	out.Write(compressedPayload)

	stats.UncompressedSize = 4 * len(data)
	stats.CompressedSize = out.Len()
	if stats.CompressedSize > 0 {
		stats.Ratio = float64(stats.UncompressedSize) / float64(stats.CompressedSize)
	}

	return out.Bytes(), stats, nil
}

// Decompress inverts Compress. cfg must describe the same block geometry
// (BlockSize, Stride, predictor set) used to produce p; the stream's own
// header is used only to recover dims/eps/radius and to check that cfg's
// enabled predictor set is a superset of the set the encoder had enabled
// (the header's predictor bitmap; the Lorenzo order-1 bit is not checked,
// since buildPredictors always includes that predictor).
func (c *Compressor) Decompress(p []byte) ([]float64, Stats, error) {
	cfg := c.cfg

	hr := bitstream.NewReader(bytes.NewReader(p))
	h, err := readHeader(hr)
	if err != nil {
		return nil, Stats{}, err
	}
	if len(h.dims) != len(cfg.Dims) {
		return nil, Stats{}, newDecodingError(Corrupt, "stream has %d dims, config has %d", len(h.dims), len(cfg.Dims))
	}
	for i := range h.dims {
		if h.dims[i] != cfg.Dims[i] {
			return nil, Stats{}, newDecodingError(Corrupt, "stream dims[%d]=%d, config dims[%d]=%d", i, h.dims[i], i, cfg.Dims[i])
		}
	}
	streamPredictors := bitmapPredictors(h.bitmap)
	if (streamPredictors.Lorenzo2 && !cfg.Predictors.Lorenzo2) ||
		(streamPredictors.Regression && !cfg.Predictors.Regression) ||
		(streamPredictors.PolyRegress && !cfg.Predictors.PolyRegress) {
		return nil, Stats{}, newDecodingError(Corrupt, "decoder's enabled predictor set is not a superset of the stream's (%08b vs %08b)", h.bitmap, predictorBitmap(cfg.Predictors))
	}

	numSymbolsAlphabet := h.radius * 2
	tagTable, err := readHuffmanTable(hr, len(predictor.Names))
	if err != nil {
		return nil, Stats{}, err
	}
	coeffTable, err := readHuffmanTable(hr, numSymbolsAlphabet)
	if err != nil {
		return nil, Stats{}, err
	}
	residualTable, err := readHuffmanTable(hr, numSymbolsAlphabet)
	if err != nil {
		return nil, Stats{}, err
	}

	remaining, err := readAllRemaining(hr)
	if err != nil {
		return nil, Stats{}, newDecodingError(Truncated, "reading lossless payload: %v", err)
	}
	n := cfg.NElements()
	payload, err := lossless.Decompress(remaining, lossless.EstimateSize(4*n))
	if err != nil {
		return nil, Stats{}, newDecodingError(Corrupt, "lossless back-end: %v", err)
	}
	pr := bitstream.NewReader(bytes.NewReader(payload))

	it := block.NewIter(cfg.Dims, cfg.BlockSize, cfg.Stride)
	var blocks []block.Block
	for it.Next() {
		blocks = append(blocks, it.Block())
	}

	tagStream := make([]predictor.Tag, len(blocks))
	totalCoeffs := 0
	for i := range blocks {
		sym, err := tagTable.Decode(pr)
		if err != nil {
			return nil, Stats{}, newDecodingError(Corrupt, "decoding tag stream: %v", err)
		}
		if sym < 0 || sym >= len(predictor.Names) {
			return nil, Stats{}, newDecodingError(Corrupt, "unknown predictor tag %d", sym)
		}
		tag := predictor.Tag(sym)
		tagStream[i] = tag
		totalCoeffs += predictor.NumCoeffsForTag(tag, len(cfg.Dims))
	}

	coeffIdxStream := make([]int, totalCoeffs)
	coeffEscapes := 0
	for i := range coeffIdxStream {
		sym, err := coeffTable.Decode(pr)
		if err != nil {
			return nil, Stats{}, newDecodingError(Corrupt, "decoding coefficient stream: %v", err)
		}
		coeffIdxStream[i] = sym
		if sym == quantizer.EscapeIndex {
			coeffEscapes++
		}
	}

	indexStream := make([]int, n)
	valueEscapes := 0
	for i := range indexStream {
		sym, err := residualTable.Decode(pr)
		if err != nil {
			return nil, Stats{}, newDecodingError(Corrupt, "decoding residual stream: %v", err)
		}
		if sym < 0 || sym >= numSymbolsAlphabet {
			return nil, Stats{}, newDecodingError(Corrupt, "bin index %d out of range [0,%d)", sym, numSymbolsAlphabet)
		}
		indexStream[i] = sym
		if sym == quantizer.EscapeIndex {
			valueEscapes++
		}
	}

	coeffRaw := make([]float32, coeffEscapes)
	for i := range coeffRaw {
		bits, err := pr.ReadBits(32)
		if err != nil {
			return nil, Stats{}, newDecodingError(Truncated, "reading coefficient escapes: %v", err)
		}
		coeffRaw[i] = math.Float32frombits(uint32(bits))
	}
	unpredictable := make([]float32, valueEscapes)
	for i := range unpredictable {
		bits, err := pr.ReadBits(32)
		if err != nil {
			return nil, Stats{}, newDecodingError(Truncated, "reading unpredictable values: %v", err)
		}
		unpredictable[i] = math.Float32frombits(uint32(bits))
	}

	preds := buildPredictors(cfg.Predictors)
	comp := predictor.NewComposed(preds, h.eps)
	comp.Bind(cfg.Dims)
	q := quantizer.New(h.eps, h.radius)
	coeffQ := quantizer.New(h.eps*cfg.CoeffBoundRatio(), h.radius)

	decoded := make([]float64, n)
	coeffCursor, idxCursor := 0, 0
	coeffRawCursor, rawCursor := 0, 0
	elem := &block.Elem{}
	for bi, blk := range blocks {
		tag := tagStream[bi]
		if err := comp.SelectByTag(tag); err != nil {
			return nil, Stats{}, newDecodingError(Corrupt, "%v", err)
		}
		nc := predictor.NumCoeffsForTag(tag, len(cfg.Dims))
		if nc > 0 {
			recon := make([]float64, nc)
			for i := 0; i < nc; i++ {
				idx := coeffIdxStream[coeffCursor]
				coeffCursor++
				if idx == quantizer.EscapeIndex {
					recon[i] = float64(coeffRaw[coeffRawCursor])
					coeffRawCursor++
				} else {
					recon[i] = coeffQ.Reconstruct(idx)
				}
			}
			comp.SetCoeffs(recon)
		}

		elem.Bind(cfg.Dims, blk)
		for elem.Next() {
			idx := elem.Index()
			off := elem.Offset()
			qi := indexStream[idxCursor]
			idxCursor++
			if qi == quantizer.EscapeIndex {
				decoded[off] = float64(unpredictable[rawCursor])
				rawCursor++
			} else {
				pred := comp.Predict(decoded, idx, off)
				decoded[off] = pred + q.Reconstruct(qi)
			}
		}
	}

	stats := Stats{
		UncompressedSize:   4 * n,
		CompressedSize:     len(p),
		Eps:                h.eps,
		UnpredictableCount: valueEscapes,
		CoeffEscapeCount:   coeffEscapes,
	}
	for _, tag := range tagStream {
		stats.PredictorTagCounts[tag]++
	}
	if stats.CompressedSize > 0 {
		stats.Ratio = float64(stats.UncompressedSize) / float64(stats.CompressedSize)
	}
	return decoded, stats, nil
}

// readAllRemaining drains everything left in r; r must be byte-aligned
// (true immediately after readHuffmanTable, since every table segment is
// written as a whole number of bytes). The underlying source is always a
// fixed byte slice here, so any read error means the stream is exhausted,
// not a genuine I/O failure.
func readAllRemaining(r *bitstream.Reader) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, 4096)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}
		if err != nil {
			break
		}
	}
	return buf.Bytes(), nil
}
