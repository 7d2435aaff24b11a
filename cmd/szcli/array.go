package main

import (
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/jtian0/szgo/collab"
	"github.com/pkg/errors"
)

var (
	_ collab.ArrayReader = fileArray{}
	_ collab.ArrayWriter = fileArray{}
	_ collab.Verifier    = fileArray{}
)

// fileArray implements collab.ArrayReader/ArrayWriter/Verifier over raw
// little-endian float32 ".f32" files, the CLI-layer collaborator the core
// package does not implement itself (spec §6), grounded on the teacher's
// own cmd/wav2flac and cmd/flac2wav owning file I/O outside the codec.
type fileArray struct{}

func (fileArray) ReadArray(path string, offset, count int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()
	if _, err := f.Seek(int64(offset)*4, os.SEEK_SET); err != nil {
		return nil, errors.WithStack(err)
	}
	raw := make([]byte, count*4)
	if _, err := io.ReadFull(f, raw); err != nil {
		return nil, errors.Wrapf(err, "reading %d float32 samples from %q", count, path)
	}
	out := make([]float64, count)
	for i := range out {
		bits := binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
		out[i] = float64(math.Float32frombits(bits))
	}
	return out, nil
}

func (fileArray) WriteArray(path string, array []float64, count int) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()
	raw := make([]byte, count*4)
	for i := 0; i < count; i++ {
		binary.LittleEndian.PutUint32(raw[i*4:i*4+4], math.Float32bits(float32(array[i])))
	}
	if _, err := f.Write(raw); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (fileArray) Verify(orig, decoded []float64, n int) (collab.VerifyReport, error) {
	if len(orig) < n || len(decoded) < n {
		return collab.VerifyReport{}, errors.Errorf("verify: need %d samples, got orig=%d decoded=%d", n, len(orig), len(decoded))
	}
	var sumSq, maxDiff, maxAbs float64
	for i := 0; i < n; i++ {
		d := orig[i] - decoded[i]
		if d < 0 {
			d = -d
		}
		sumSq += d * d
		if d > maxDiff {
			maxDiff = d
		}
		if a := math.Abs(orig[i]); a > maxAbs {
			maxAbs = a
		}
	}
	mse := sumSq / float64(n)
	nrmse := 0.0
	if maxAbs > 0 {
		nrmse = math.Sqrt(mse) / maxAbs
	}
	psnr := math.Inf(1)
	if mse > 0 {
		psnr = 20*math.Log10(maxAbs) - 10*math.Log10(mse)
	}
	return collab.VerifyReport{PSNR: psnr, NRMSE: nrmse, MaxDiff: maxDiff}, nil
}

// readRawBytes and writeRawBytes move the opaque compressed byte stream to
// and from disk; unlike the .f32 array format there is no per-sample
// structure to interpret here.
func readRawBytes(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return b, nil
}

func writeRawBytes(path string, b []byte) error {
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
