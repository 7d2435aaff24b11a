package sz

// Stats reports per-call diagnostics for a single Compress or Decompress
// invocation. The source kept equivalent figures in process-wide mutable
// counters; here they are relocated into an explicit value the caller
// owns, so the core retains no state between calls.
type Stats struct {
	// UncompressedSize is the size, in bytes, the input array would occupy
	// as packed 32-bit floats (4*N).
	UncompressedSize int
	// CompressedSize is the size of the byte stream Compress returned.
	CompressedSize int
	// Ratio is UncompressedSize/CompressedSize (zero if CompressedSize is
	// zero).
	Ratio float64

	// Eps is the absolute error bound actually used (after any
	// relative-to-absolute conversion).
	Eps float64
	// UnpredictableCount is the number of residuals that escaped the
	// quantizer and were stored as raw floats.
	UnpredictableCount int
	// CoeffEscapeCount is the number of predictor coefficients that escaped
	// their quantizer.
	CoeffEscapeCount int
	// PredictorTagCounts tallies how many blocks were emitted under each
	// predictor.Tag, indexed by tag value.
	PredictorTagCounts [4]int
}
