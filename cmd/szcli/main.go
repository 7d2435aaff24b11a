// Command szcli drives the sz compressor over raw little-endian float32
// array files. It owns the collaborators the core package does not
// implement itself (array file I/O, verification), exactly the split the
// teacher's cmd/wav2flac and cmd/flac2wav maintain between file I/O and the
// flac codec.
package main

import (
	"flag"
	"log"
	"strconv"
	"strings"

	sz "github.com/jtian0/szgo"
	"github.com/pkg/errors"
)

func main() {
	var (
		dimsFlag   string
		eps        float64
		relative   bool
		blockSize  int
		stride     int
		quantBins  int
		lorenzo    bool
		lorenzo2   bool
		regression bool
		poly       bool
		n          int
	)
	flag.StringVar(&dimsFlag, "dims", "", "comma-separated array dimensions, e.g. 100,100")
	flag.Float64Var(&eps, "eps", 0.01, "error bound (absolute, or a fraction of range with -relative)")
	flag.BoolVar(&relative, "relative", false, "interpret -eps as a fraction of the array's value range")
	flag.IntVar(&blockSize, "block", 8, "block edge length")
	flag.IntVar(&stride, "stride", 0, "inter-block stride (defaults to -block)")
	flag.IntVar(&quantBins, "quantbins", 256, "quantizer bin count (must be even)")
	flag.BoolVar(&lorenzo, "lorenzo", true, "enable Lorenzo order-1 predictor")
	flag.BoolVar(&lorenzo2, "lorenzo2", true, "enable Lorenzo order-2 predictor")
	flag.BoolVar(&regression, "regression", true, "enable regression predictor")
	flag.BoolVar(&poly, "poly", false, "enable polynomial regression predictor")
	flag.IntVar(&n, "n", 0, "element count for verify (required by verify)")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		log.Fatal("usage: szcli [flags] compress|decompress|verify <args...>")
	}
	cmd := args[0]
	args = args[1:]

	if stride == 0 {
		stride = blockSize
	}

	switch cmd {
	case "compress":
		if len(args) != 2 {
			log.Fatal("usage: szcli compress [flags] <in.f32> <out.sz>")
		}
		cfg, err := buildConfig(dimsFlag, eps, relative, blockSize, stride, quantBins, lorenzo, lorenzo2, regression, poly)
		if err != nil {
			log.Fatalf("%+v", err)
		}
		if err := runCompress(cfg, args[0], args[1]); err != nil {
			log.Fatalf("%+v", err)
		}
	case "decompress":
		if len(args) != 2 {
			log.Fatal("usage: szcli decompress [flags] <in.sz> <out.f32>")
		}
		cfg, err := buildConfig(dimsFlag, eps, relative, blockSize, stride, quantBins, lorenzo, lorenzo2, regression, poly)
		if err != nil {
			log.Fatalf("%+v", err)
		}
		if err := runDecompress(cfg, args[0], args[1]); err != nil {
			log.Fatalf("%+v", err)
		}
	case "verify":
		if len(args) != 2 {
			log.Fatal("usage: szcli verify [flags] -n <count> <orig.f32> <decoded.f32>")
		}
		if err := runVerify(args[0], args[1], n); err != nil {
			log.Fatalf("%+v", err)
		}
	default:
		log.Fatalf("unknown command %q", cmd)
	}
}

func buildConfig(dimsFlag string, eps float64, relative bool, blockSize, stride, quantBins int, lorenzo, lorenzo2, regression, poly bool) (*sz.Config, error) {
	dims, err := parseDims(dimsFlag)
	if err != nil {
		return nil, err
	}
	mode := sz.AbsoluteErrorBound
	if relative {
		mode = sz.RelativeErrorBound
	}
	return &sz.Config{
		Dims:           dims,
		ErrorBoundMode: mode,
		ErrorBound:     eps,
		BlockSize:      blockSize,
		Stride:         stride,
		QuantBinCnt:    quantBins,
		Predictors: sz.PredictorSet{
			Lorenzo:     lorenzo,
			Lorenzo2:    lorenzo2,
			Regression:  regression,
			PolyRegress: poly,
		},
	}, nil
}

func parseDims(s string) ([]int, error) {
	if s == "" {
		return nil, errors.New("missing -dims")
	}
	parts := strings.Split(s, ",")
	dims := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, errors.Wrapf(err, "parsing -dims %q", s)
		}
		dims[i] = v
	}
	return dims, nil
}

func runCompress(cfg *sz.Config, inPath, outPath string) error {
	var fa fileArray
	data, err := fa.ReadArray(inPath, 0, cfg.NElements())
	if err != nil {
		return errors.WithStack(err)
	}
	c, err := sz.NewCompressor(cfg)
	if err != nil {
		return errors.WithStack(err)
	}
	out, stats, err := c.Compress(data)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := writeRawBytes(outPath, out); err != nil {
		return errors.WithStack(err)
	}
	log.Printf("compressed %d -> %d bytes (ratio %.2fx, eps %g, unpredictable %d)",
		stats.UncompressedSize, stats.CompressedSize, stats.Ratio, stats.Eps, stats.UnpredictableCount)
	return nil
}

func runDecompress(cfg *sz.Config, inPath, outPath string) error {
	raw, err := readRawBytes(inPath)
	if err != nil {
		return errors.WithStack(err)
	}
	c, err := sz.NewCompressor(cfg)
	if err != nil {
		return errors.WithStack(err)
	}
	data, stats, err := c.Decompress(raw)
	if err != nil {
		return errors.WithStack(err)
	}
	var fa fileArray
	if err := fa.WriteArray(outPath, data, len(data)); err != nil {
		return errors.WithStack(err)
	}
	log.Printf("decompressed %d bytes -> %d elements (eps %g)", stats.CompressedSize, len(data), stats.Eps)
	return nil
}

func runVerify(origPath, decodedPath string, n int) error {
	var fa fileArray
	if n == 0 {
		return errors.New("verify requires -n <element count>")
	}
	orig, err := fa.ReadArray(origPath, 0, n)
	if err != nil {
		return errors.WithStack(err)
	}
	decoded, err := fa.ReadArray(decodedPath, 0, n)
	if err != nil {
		return errors.WithStack(err)
	}
	report, err := fa.Verify(orig, decoded, n)
	if err != nil {
		return errors.WithStack(err)
	}
	log.Printf("PSNR=%.2f dB NRMSE=%.6g MaxDiff=%.6g", report.PSNR, report.NRMSE, report.MaxDiff)
	return nil
}
