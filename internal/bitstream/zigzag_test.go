package bitstream

import "testing"

func TestZigZagRoundTrip(t *testing.T) {
	vals := []int64{0, -1, 1, -2, 2, -3, 3, 1 << 40, -(1 << 40)}
	for _, v := range vals {
		got := DecodeZigZag(EncodeZigZag(v))
		if got != v {
			t.Errorf("zigzag round-trip mismatch: EncodeZigZag(%d)=%d, DecodeZigZag=%d", v, EncodeZigZag(v), got)
		}
	}
}

func TestEncodeZigZagValues(t *testing.T) {
	cases := []struct {
		in   int64
		want uint64
	}{
		{0, 0},
		{-1, 1},
		{1, 2},
		{-2, 3},
		{2, 4},
	}
	for _, c := range cases {
		if got := EncodeZigZag(c.in); got != c.want {
			t.Errorf("EncodeZigZag(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}
