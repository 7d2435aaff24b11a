// Package bitstream implements the MSB-first bit-level plumbing shared by
// the Huffman coder and the compressed-stream header: zigzag folding of
// signed deltas and a thin wrapper around github.com/icza/bitio for reading
// and writing the compressed format.
package bitstream

// DecodeZigZag decodes a ZigZag encoded integer and returns it.
//
// Examples of ZigZag encoded values on the left and decoded values on the
// right:
//
//	0 =>  0
//	1 => -1
//	2 =>  1
//	3 => -2
//	4 =>  2
//
// ref: https://developers.google.com/protocol-buffers/docs/encoding
func DecodeZigZag(x uint64) int64 {
	return int64(x>>1) ^ -int64(x&1)
}

// EncodeZigZag encodes a given integer to ZigZag-encoding, so that small
// negative residuals cost as few bits as small positive ones.
//
// Examples of integer input on the left and corresponding ZigZag encoded
// values on the right:
//
//	 0 => 0
//	-1 => 1
//	 1 => 2
//	-2 => 3
//	 2 => 4
func EncodeZigZag(x int64) uint64 {
	return uint64((x << 1) ^ (x >> 63))
}
