package bitstream

import (
	"io"

	"github.com/icza/bitio"
	"github.com/mewkiz/pkg/errutil"
)

// Reader is an MSB-first bit reader, the decode-side counterpart of Writer.
type Reader struct {
	br *bitio.Reader
}

// NewReader returns a Reader that reads bits from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bitio.NewReader(r)}
}

// ReadBits reads and returns the next n bits as the low bits of a uint64.
func (r *Reader) ReadBits(n uint8) (uint64, error) {
	x, err := r.br.ReadBits(n)
	if err != nil {
		return 0, errutil.Err(err)
	}
	return x, nil
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.br.ReadByte()
	if err != nil {
		return 0, errutil.Err(err)
	}
	return b, nil
}

// Read reads len(p) bytes into p, byte-aligned.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := io.ReadFull(r.br, p)
	if err != nil {
		return n, errutil.Err(err)
	}
	return n, nil
}

// Align discards any remaining bits of the current byte.
func (r *Reader) Align() {
	r.br.Align()
}

// ReadUvarint reads a value written by Writer.WriteUvarint.
func (r *Reader) ReadUvarint() (uint64, error) {
	b0, err := r.ReadBits(8)
	if err != nil {
		return 0, err
	}
	var l int
	var x uint64
	switch {
	case b0&utf8tx == 0:
		return b0, nil
	case b0&utf8t3 == utf8t2:
		l, x = 1, b0&utf8mask2
	case b0&utf8t4 == utf8t3:
		l, x = 2, b0&utf8mask3
	case b0&utf8t5 == utf8t4:
		l, x = 3, b0&utf8mask4
	case b0&utf8t6 == utf8t5:
		l, x = 4, b0&utf8mask5
	case b0 == utf8t6:
		l, x = 6, 0
	default:
		return 0, errutil.Newf("bitstream.ReadUvarint: invalid leading byte %#02x", b0)
	}
	for i := 0; i < l; i++ {
		cb, err := r.ReadBits(8)
		if err != nil {
			return 0, err
		}
		if cb&utf8t2 != utf8tx {
			return 0, errutil.Newf("bitstream.ReadUvarint: invalid continuation byte %#02x", cb)
		}
		x = x<<6 | (cb & utf8maskx)
	}
	return x, nil
}
