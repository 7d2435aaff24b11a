// Package sz implements an error-bounded lossy compressor for dense
// multi-dimensional floating-point arrays. It decomposes the array into
// fixed-size blocks (package block), predicts each sample from
// already-decoded neighbors (package predictor), quantizes the residual to a
// small signed bin index under an absolute error bound (package quantizer),
// entropy-codes the resulting index stream with canonical Huffman (package
// huffman), and finishes the byte stream with a generic LZ-style lossless
// back-end (package lossless).
package sz

import "math"

// ErrorBoundMode selects whether Config.ErrorBound is interpreted as an
// absolute bound or as a fraction of the array's value range.
type ErrorBoundMode int

const (
	// AbsoluteErrorBound interprets Config.ErrorBound directly as epsilon.
	AbsoluteErrorBound ErrorBoundMode = iota
	// RelativeErrorBound interprets Config.ErrorBound as a fraction of
	// (max-min) over the array; it is converted to an absolute bound by a
	// max-min pass before compression.
	RelativeErrorBound
)

// PredictorSet enables or disables individual predictors considered by the
// block-level predictor selector (package predictor). At least one flag
// must be set.
type PredictorSet struct {
	Lorenzo     bool
	Lorenzo2    bool
	Regression  bool
	PolyRegress bool
}

// Enabled reports whether any predictor is enabled.
func (p PredictorSet) Enabled() bool {
	return p.Lorenzo || p.Lorenzo2 || p.Regression || p.PolyRegress
}

// Method names the frontend/pipeline variant chosen for a time-step batch by
// the adaptive selector (package selector).
type Method int

const (
	// MethodVQ quantizes each element to its nearest cluster level
	// independently (frontend.VQ).
	MethodVQ Method = iota
	// MethodVQT additionally predicts the level index from neighbors
	// (frontend.VQT).
	MethodVQT
	// MethodMT is the time-based frontend, predicting from the previous
	// decoded row (frontend.TimeBased).
	MethodMT
	// MethodLR is the plain general block compressor (Compressor).
	MethodLR
	// MethodTS is the time-series variant without a baseline row.
	MethodTS
)

// MethodNames gives the diagnostic name of each Method, in Method order.
var MethodNames = [...]string{"VQ", "VQT", "MT", "LR", "TS"}

func (m Method) String() string {
	if int(m) < 0 || int(m) >= len(MethodNames) {
		return "unknown"
	}
	return MethodNames[m]
}

// Config holds every parameter the core needs to compress or decompress an
// array. It is supplied by the caller (CLI, library user); the core never
// mutates it and never retains process-wide state derived from it.
type Config struct {
	// Dims holds 1 to 4 positive per-dimension extents, row-major (slowest
	// varying dimension first).
	Dims []int

	// ErrorBoundMode selects how ErrorBound is interpreted.
	ErrorBoundMode ErrorBoundMode
	// ErrorBound is epsilon (AbsoluteErrorBound) or epsilon/range
	// (RelativeErrorBound).
	ErrorBound float64

	// BlockSize is the edge length B of a (truncated at array edges) block.
	BlockSize int
	// Stride is the inter-block step; equal to BlockSize tiles the array,
	// greater than BlockSize samples it.
	Stride int

	// QuantBinCnt is the total number of quantizer bins (must be even); the
	// quantizer radius is QuantBinCnt/2.
	QuantBinCnt int

	// Predictors enables the predictor family members considered at each
	// block.
	Predictors PredictorSet
	// RegressionCoeffBoundRatio scales ErrorBound down for quantizing
	// regression/poly-regression coefficients, so coefficient error stays
	// subordinate to the main error bound. Defaults to 0.1 when zero.
	RegressionCoeffBoundRatio float64

	// MethodBatch controls how often the adaptive selector (package
	// selector) re-probes candidate methods, in units of time-step batches.
	// MethodBatch <= 0 locks to the method chosen for the first batch.
	MethodBatch int

	// LosslessLevel is the compression level passed to the lossless
	// back-end (package lossless). Zero selects the back-end's default.
	LosslessLevel int
}

// NElements returns the total element count N = prod(Dims).
func (c *Config) NElements() int {
	n := 1
	for _, d := range c.Dims {
		n *= d
	}
	return n
}

// AbsErrorBound returns epsilon in absolute terms, deriving it from a
// relative bound and the supplied [min, max] range when ErrorBoundMode is
// RelativeErrorBound.
func (c *Config) AbsErrorBound(min, max float64) float64 {
	if c.ErrorBoundMode == AbsoluteErrorBound {
		return c.ErrorBound
	}
	return c.ErrorBound * (max - min)
}

// Radius returns the quantizer radius R = QuantBinCnt/2.
func (c *Config) Radius() int {
	return c.QuantBinCnt / 2
}

// CoeffBoundRatio returns RegressionCoeffBoundRatio, defaulting to 0.1.
func (c *Config) CoeffBoundRatio() float64 {
	if c.RegressionCoeffBoundRatio <= 0 {
		return 0.1
	}
	return c.RegressionCoeffBoundRatio
}

// Validate checks every invariant Config must satisfy before it can be used
// to compress or decompress, returning the first violation found. There is
// no partial validation: either Validate succeeds and every field below is
// known-good, or it reports exactly one *ConfigError.
func (c *Config) Validate() error {
	if len(c.Dims) < 1 || len(c.Dims) > 4 {
		return newConfigError("dims count must be 1-4, got %d", len(c.Dims))
	}
	for i, d := range c.Dims {
		if d <= 0 {
			return newConfigError("dims[%d] must be positive, got %d", i, d)
		}
	}
	if c.ErrorBoundMode != AbsoluteErrorBound && c.ErrorBoundMode != RelativeErrorBound {
		return newConfigError("unknown error bound mode %d", c.ErrorBoundMode)
	}
	if c.ErrorBound <= 0 || math.IsNaN(c.ErrorBound) || math.IsInf(c.ErrorBound, 0) {
		return newConfigError("error bound must be positive and finite, got %v", c.ErrorBound)
	}
	if c.BlockSize < 1 {
		return newConfigError("block size must be >= 1, got %d", c.BlockSize)
	}
	if c.Stride < 1 {
		return newConfigError("stride must be >= 1, got %d", c.Stride)
	}
	if c.QuantBinCnt < 2 || c.QuantBinCnt%2 != 0 {
		return newConfigError("quantbinCnt must be even and >= 2, got %d", c.QuantBinCnt)
	}
	if !c.Predictors.Enabled() {
		return newConfigError("at least one predictor must be enabled")
	}
	return nil
}
