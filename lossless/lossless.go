// Package lossless adapts klauspost/compress/zstd as the lossless back-end
// stage of the pipeline (spec component 4.E): it compresses the already
// entropy-coded bitstream one more time to mop up any residual redundancy
// (run-length structure in the predictor-tag stream, repeated header
// fields across blocks) that the Huffman stage does not model.
package lossless

import (
	"github.com/klauspost/compress/zstd"
	"github.com/mewkiz/pkg/errutil"
)

// DefaultLevel is the zstd compression level used when a caller does not
// override Config.LosslessLevel.
const DefaultLevel = 3

// levelForN maps the small integer level knob the rest of the package
// exposes onto zstd's EncoderLevel enum.
func levelForN(n int) zstd.EncoderLevel {
	switch {
	case n <= 0:
		return zstd.SpeedDefault
	case n == 1:
		return zstd.SpeedFastest
	case n == 2, n == 3:
		return zstd.SpeedDefault
	case n == 4:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

// Compress returns the zstd-compressed form of p at the given level (use
// DefaultLevel if the caller has no preference).
func Compress(p []byte, level int) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(levelForN(level)))
	if err != nil {
		return nil, errutil.Err(err)
	}
	defer enc.Close()
	return enc.EncodeAll(p, make([]byte, 0, EstimateSize(len(p)))), nil
}

// Decompress reverses Compress. expectedSize is a hint (the uncompressed
// length recorded in the stream header) used to preallocate the output
// buffer; it is not required to be exact.
func Decompress(p []byte, expectedSize int) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errutil.Err(err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(p, make([]byte, 0, expectedSize))
	if err != nil {
		return nil, errutil.Err(err)
	}
	return out, nil
}

// EstimateSize returns a conservative upper bound on the compressed size of
// an n-byte input, used to size the output buffer so Compress rarely needs
// to grow it.
func EstimateSize(n int) int {
	est := int(float64(n) * 1.2)
	if est < 200 {
		return 200
	}
	return est
}
