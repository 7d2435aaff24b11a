// Package frontend implements the frontend variants the general block
// compressor is wrapped in for time-series and clustered-level data (spec
// components 4.G, 4.H): time-based prediction from the previous decoded
// row, and the Exaalt/VQ/VQT clustered-level frontends.
package frontend

import (
	"bytes"

	sz "github.com/jtian0/szgo"
	"github.com/jtian0/szgo/internal/bitstream"
	"github.com/mewkiz/pkg/errutil"
)

// TimeBased compresses a (T, M)-shaped time-series array: the first row (the
// baseline) is stored through the plain block compressor, and every later
// row is stored as the spatial compression of its difference from the
// previous *decoded* row (not the original, so encode and decode stay
// bit-exact), combining temporal and within-row spatial prediction the way
// spec 4.G describes.
type TimeBased struct {
	row  *sz.Compressor
	t, m int
}

// NewTimeBased returns a TimeBased frontend for a (t, m)-shaped array. rowCfg
// configures the per-row spatial compressor and its Dims must be []int{m}.
func NewTimeBased(rowCfg *sz.Config, t, m int) (*TimeBased, error) {
	if len(rowCfg.Dims) != 1 || rowCfg.Dims[0] != m {
		return nil, &sz.ConfigError{Msg: errutil.Newf("frontend: row config dims must be [%d], got %v", m, rowCfg.Dims).Error()}
	}
	if t < 1 {
		return nil, &sz.ConfigError{Msg: "frontend: time-series must have at least one time step"}
	}
	row, err := sz.NewCompressor(rowCfg)
	if err != nil {
		return nil, err
	}
	return &TimeBased{row: row, t: t, m: m}, nil
}

func writeSegment(w *bitstream.Writer, p []byte) error {
	if err := w.WriteBits(uint64(len(p)), 32); err != nil {
		return err
	}
	_, err := w.Write(p)
	return err
}

func readSegment(r *bitstream.Reader) ([]byte, error) {
	n, err := r.ReadBits(32)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := r.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Compress runs the time-based pipeline over data (row-major, T rows of M
// samples each) and returns the compressed byte stream and aggregate stats.
func (f *TimeBased) Compress(data []float64) ([]byte, sz.Stats, error) {
	if len(data) != f.t*f.m {
		return nil, sz.Stats{}, &sz.ConfigError{Msg: errutil.Newf("frontend: data has %d elements, want %d for (%d,%d)", len(data), f.t*f.m, f.t, f.m).Error()}
	}

	var buf bytes.Buffer
	w := bitstream.NewWriter(&buf)
	if err := w.WriteBits(uint64(f.t), 32); err != nil {
		return nil, sz.Stats{}, err
	}
	if err := w.WriteBits(uint64(f.m), 32); err != nil {
		return nil, sz.Stats{}, err
	}

	baseline := data[0:f.m]
	baselineBytes, stats, err := f.row.Compress(baseline)
	if err != nil {
		return nil, sz.Stats{}, err
	}
	if err := writeSegment(w, baselineBytes); err != nil {
		return nil, sz.Stats{}, err
	}
	decodedPrev, _, err := f.row.Decompress(baselineBytes)
	if err != nil {
		return nil, sz.Stats{}, err
	}

	total := stats
	for t := 1; t < f.t; t++ {
		row := data[t*f.m : (t+1)*f.m]
		diff := make([]float64, f.m)
		for i := range diff {
			diff[i] = row[i] - decodedPrev[i]
		}
		rowBytes, rowStats, err := f.row.Compress(diff)
		if err != nil {
			return nil, sz.Stats{}, err
		}
		if err := writeSegment(w, rowBytes); err != nil {
			return nil, sz.Stats{}, err
		}
		decodedDiff, _, err := f.row.Decompress(rowBytes)
		if err != nil {
			return nil, sz.Stats{}, err
		}
		next := make([]float64, f.m)
		for i := range next {
			next[i] = decodedPrev[i] + decodedDiff[i]
		}
		decodedPrev = next

		total.CompressedSize += rowStats.CompressedSize
		total.UnpredictableCount += rowStats.UnpredictableCount
		total.CoeffEscapeCount += rowStats.CoeffEscapeCount
		for tag, n := range rowStats.PredictorTagCounts {
			total.PredictorTagCounts[tag] += n
		}
	}
	if err := w.Close(); err != nil {
		return nil, sz.Stats{}, err
	}

	total.UncompressedSize = 4 * f.t * f.m
	total.CompressedSize = buf.Len()
	if total.CompressedSize > 0 {
		total.Ratio = float64(total.UncompressedSize) / float64(total.CompressedSize)
	}
	return buf.Bytes(), total, nil
}

// Decompress inverts Compress.
func (f *TimeBased) Decompress(p []byte) ([]float64, sz.Stats, error) {
	r := bitstream.NewReader(bytes.NewReader(p))
	tBits, err := r.ReadBits(32)
	if err != nil {
		return nil, sz.Stats{}, err
	}
	mBits, err := r.ReadBits(32)
	if err != nil {
		return nil, sz.Stats{}, err
	}
	t, m := int(tBits), int(mBits)
	if t != f.t || m != f.m {
		return nil, sz.Stats{}, &sz.DecodingError{Kind: sz.Corrupt, Msg: errutil.Newf("frontend: stream is (%d,%d), frontend configured for (%d,%d)", t, m, f.t, f.m).Error()}
	}

	baselineBytes, err := readSegment(r)
	if err != nil {
		return nil, sz.Stats{}, err
	}
	decodedPrev, stats, err := f.row.Decompress(baselineBytes)
	if err != nil {
		return nil, sz.Stats{}, err
	}

	out := make([]float64, t*m)
	copy(out[0:m], decodedPrev)

	total := stats
	for ti := 1; ti < t; ti++ {
		rowBytes, err := readSegment(r)
		if err != nil {
			return nil, sz.Stats{}, err
		}
		decodedDiff, rowStats, err := f.row.Decompress(rowBytes)
		if err != nil {
			return nil, sz.Stats{}, err
		}
		next := make([]float64, m)
		for i := range next {
			next[i] = decodedPrev[i] + decodedDiff[i]
		}
		copy(out[ti*m:(ti+1)*m], next)
		decodedPrev = next

		total.CompressedSize += rowStats.CompressedSize
		total.UnpredictableCount += rowStats.UnpredictableCount
		total.CoeffEscapeCount += rowStats.CoeffEscapeCount
		for tag, n := range rowStats.PredictorTagCounts {
			total.PredictorTagCounts[tag] += n
		}
	}

	total.UncompressedSize = 4 * t * m
	total.CompressedSize = len(p)
	if total.CompressedSize > 0 {
		total.Ratio = float64(total.UncompressedSize) / float64(total.CompressedSize)
	}
	return out, total, nil
}
