package frontend

import (
	"bytes"
	"math"

	sz "github.com/jtian0/szgo"
	"github.com/jtian0/szgo/collab"
	"github.com/jtian0/szgo/huffman"
	"github.com/jtian0/szgo/internal/bitstream"
	"github.com/jtian0/szgo/lossless"
	"github.com/jtian0/szgo/quantizer"
	"github.com/mewkiz/pkg/errutil"
)

// maxLevelFraction is the spec 4.H limit: a cluster result with more levels
// than this fraction of the per-step sample count is rejected, since a
// level table that large is no longer a useful compression aid.
const maxLevelFraction = 0.25

// Exaalt is the clustered-level frontend (spec 4.H): each element is
// quantized to its nearest of levelCount discrete, evenly-spaced levels,
// and the residual offset from that level is quantized under the usual
// error bound. VQ emits level indices independently; VQT instead stores
// the zigzag delta from the previous element's level index, predicting it
// from its immediate 1-D neighbor the way Lorenzo order-1 predicts spatial
// neighbors in 4.B, so a run of same-level samples costs almost nothing.
type Exaalt struct {
	levels   collab.LevelParams
	eps      float64
	radius   int
	temporal bool
}

// NewVQ returns the independent-level-index variant of the frontend.
func NewVQ(eps float64, radius int, sampleCount int, levels collab.LevelParams) (*Exaalt, error) {
	return newExaalt(eps, radius, sampleCount, levels, false)
}

// NewVQT returns the level-index-predicting variant of the frontend.
func NewVQT(eps float64, radius int, sampleCount int, levels collab.LevelParams) (*Exaalt, error) {
	return newExaalt(eps, radius, sampleCount, levels, true)
}

func newExaalt(eps float64, radius int, sampleCount int, levels collab.LevelParams, temporal bool) (*Exaalt, error) {
	if levels.LevelCount <= 0 {
		return nil, &sz.ConfigError{Msg: "frontend: exaalt requires at least one level"}
	}
	if sampleCount > 0 && float64(levels.LevelCount) > maxLevelFraction*float64(sampleCount) {
		return nil, &sz.ConfigError{Msg: errutil.Newf("frontend: level count %d exceeds %.0f%% of sample count %d", levels.LevelCount, maxLevelFraction*100, sampleCount).Error()}
	}
	if eps <= 0 || radius < 1 {
		return nil, &sz.ConfigError{Msg: "frontend: exaalt requires a positive error bound and radius >= 1"}
	}
	if levels.LevelOffset == 0 {
		return nil, &sz.ConfigError{Msg: "frontend: exaalt requires a nonzero level offset"}
	}
	return &Exaalt{levels: levels, eps: eps, radius: radius, temporal: temporal}, nil
}

func (f *Exaalt) levelIndex(v float64) int {
	idx := int(math.RoundToEven((v - f.levels.LevelStart) / f.levels.LevelOffset))
	if idx < 0 {
		idx = 0
	}
	if idx > f.levels.LevelCount-1 {
		idx = f.levels.LevelCount - 1
	}
	return idx
}

func (f *Exaalt) levelValue(idx int) float64 {
	return f.levels.LevelStart + float64(idx)*f.levels.LevelOffset
}

func (f *Exaalt) levelAlphabet() int {
	if f.temporal {
		return 2*f.levels.LevelCount - 1
	}
	return f.levels.LevelCount
}

func freqTableN(symbols []int, alphabet int) []uint64 {
	freqs := make([]uint64, alphabet)
	for _, s := range symbols {
		freqs[s]++
	}
	return freqs
}

func writeHuffmanSegment(w *bitstream.Writer, t *huffman.Table) error {
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

func readHuffmanSegment(r *bitstream.Reader, numSymbols int) (*huffman.Table, error) {
	n, err := r.ReadBits(32)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := r.Read(buf); err != nil {
		return nil, err
	}
	return huffman.ReadLengths(bitstream.NewReader(bytes.NewReader(buf)), numSymbols)
}

// Compress quantizes every element of data to (level index, offset index),
// entropy-codes both streams, and finishes with the lossless back-end.
func (f *Exaalt) Compress(data []float64) ([]byte, sz.Stats, error) {
	offQ := quantizer.New(f.eps, f.radius)

	levelSyms := make([]int, len(data))
	offIdx := make([]int, len(data))
	var offRaw []float32

	prevLevel := 0
	for i, v := range data {
		lvl := f.levelIndex(v)
		if f.temporal {
			levelSyms[i] = int(bitstream.EncodeZigZag(int64(lvl - prevLevel)))
			prevLevel = lvl
		} else {
			levelSyms[i] = lvl
		}

		off := v - f.levelValue(lvl)
		idx, _, ok := offQ.Quantize(off)
		offIdx[i] = idx
		if !ok {
			offRaw = append(offRaw, float32(v))
		}
	}

	levelTable, err := huffman.Build(freqTableN(levelSyms, f.levelAlphabet()))
	if err != nil {
		return nil, sz.Stats{}, &sz.EncodingError{Kind: sz.LengthOverflow, Msg: err.Error()}
	}
	offTable, err := huffman.Build(freqTableN(offIdx, offQ.NumBins()))
	if err != nil {
		return nil, sz.Stats{}, &sz.EncodingError{Kind: sz.LengthOverflow, Msg: err.Error()}
	}

	var payload bytes.Buffer
	pw := bitstream.NewWriter(&payload)
	for _, s := range levelSyms {
		if err := levelTable.Encode(pw, s); err != nil {
			return nil, sz.Stats{}, &sz.EncodingError{Kind: sz.BufferOverflow, Msg: err.Error()}
		}
	}
	for _, s := range offIdx {
		if err := offTable.Encode(pw, s); err != nil {
			return nil, sz.Stats{}, &sz.EncodingError{Kind: sz.BufferOverflow, Msg: err.Error()}
		}
	}
	for _, v := range offRaw {
		if err := pw.WriteBits(uint64(math.Float32bits(v)), 32); err != nil {
			return nil, sz.Stats{}, &sz.EncodingError{Kind: sz.BufferOverflow, Msg: err.Error()}
		}
	}
	if err := pw.Close(); err != nil {
		return nil, sz.Stats{}, &sz.EncodingError{Kind: sz.BufferOverflow, Msg: err.Error()}
	}

	var out bytes.Buffer
	hw := bitstream.NewWriter(&out)
	if err := hw.WriteBits(uint64(len(data)), 32); err != nil {
		return nil, sz.Stats{}, err
	}
	if err := writeHuffmanSegment(hw, levelTable); err != nil {
		return nil, sz.Stats{}, err
	}
	if err := writeHuffmanSegment(hw, offTable); err != nil {
		return nil, sz.Stats{}, err
	}
	if err := hw.Close(); err != nil {
		return nil, sz.Stats{}, err
	}

	compressedPayload, err := lossless.Compress(payload.Bytes(), lossless.DefaultLevel)
	if err != nil {
		return nil, sz.Stats{}, &sz.EncodingError{Kind: sz.BufferOverflow, Msg: err.Error()}
	}
	out.Write(compressedPayload)

	stats := sz.Stats{
		UncompressedSize:   4 * len(data),
		CompressedSize:     out.Len(),
		Eps:                f.eps,
		UnpredictableCount: len(offRaw),
	}
	if stats.CompressedSize > 0 {
		stats.Ratio = float64(stats.UncompressedSize) / float64(stats.CompressedSize)
	}
	return out.Bytes(), stats, nil
}

// Decompress inverts Compress.
func (f *Exaalt) Decompress(p []byte) ([]float64, sz.Stats, error) {
	r := bitstream.NewReader(bytes.NewReader(p))
	nBits, err := r.ReadBits(32)
	if err != nil {
		return nil, sz.Stats{}, &sz.DecodingError{Kind: sz.Truncated, Msg: err.Error()}
	}
	n := int(nBits)

	levelTable, err := readHuffmanSegment(r, f.levelAlphabet())
	if err != nil {
		return nil, sz.Stats{}, &sz.DecodingError{Kind: sz.Corrupt, Msg: err.Error()}
	}
	offQ := quantizer.New(f.eps, f.radius)
	offTable, err := readHuffmanSegment(r, offQ.NumBins())
	if err != nil {
		return nil, sz.Stats{}, &sz.DecodingError{Kind: sz.Corrupt, Msg: err.Error()}
	}

	remaining, err := readAllRemaining(r)
	if err != nil {
		return nil, sz.Stats{}, &sz.DecodingError{Kind: sz.Truncated, Msg: err.Error()}
	}
	payload, err := lossless.Decompress(remaining, lossless.EstimateSize(2*n))
	if err != nil {
		return nil, sz.Stats{}, &sz.DecodingError{Kind: sz.Corrupt, Msg: err.Error()}
	}
	pr := bitstream.NewReader(bytes.NewReader(payload))

	levelSyms := make([]int, n)
	for i := range levelSyms {
		sym, err := levelTable.Decode(pr)
		if err != nil {
			return nil, sz.Stats{}, &sz.DecodingError{Kind: sz.Corrupt, Msg: err.Error()}
		}
		levelSyms[i] = sym
	}
	offIdx := make([]int, n)
	escapes := 0
	for i := range offIdx {
		sym, err := offTable.Decode(pr)
		if err != nil {
			return nil, sz.Stats{}, &sz.DecodingError{Kind: sz.Corrupt, Msg: err.Error()}
		}
		offIdx[i] = sym
		if sym == quantizer.EscapeIndex {
			escapes++
		}
	}
	offRaw := make([]float32, escapes)
	for i := range offRaw {
		bits, err := pr.ReadBits(32)
		if err != nil {
			return nil, sz.Stats{}, &sz.DecodingError{Kind: sz.Truncated, Msg: err.Error()}
		}
		offRaw[i] = math.Float32frombits(uint32(bits))
	}

	out := make([]float64, n)
	rawCursor := 0
	prevLevel := 0
	for i := range out {
		lvl := levelSyms[i]
		if f.temporal {
			lvl = prevLevel + int(bitstream.DecodeZigZag(uint64(levelSyms[i])))
			prevLevel = lvl
		}
		if offIdx[i] == quantizer.EscapeIndex {
			out[i] = float64(offRaw[rawCursor])
			rawCursor++
		} else {
			out[i] = f.levelValue(lvl) + offQ.Reconstruct(offIdx[i])
		}
	}

	stats := sz.Stats{
		UncompressedSize:   4 * n,
		CompressedSize:     len(p),
		Eps:                f.eps,
		UnpredictableCount: escapes,
	}
	if stats.CompressedSize > 0 {
		stats.Ratio = float64(stats.UncompressedSize) / float64(stats.CompressedSize)
	}
	return out, stats, nil
}

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
