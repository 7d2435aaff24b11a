// Package huffman builds and replays canonical Huffman codes over the
// residual bin-index streams the quantizer produces (spec component 4.D).
// Code construction is a plain binary-heap Huffman merge; canonicalization
// and the length-table wire format are the part that matters for
// interoperability between encode and decode.
package huffman

import (
	"container/heap"
	"sort"

	"github.com/jtian0/szgo/internal/bitstream"
	"github.com/mewkiz/pkg/errutil"
)

// MaxCodeLen is the longest canonical code length this package will
// produce; Build reports ErrLengthOverflow if the natural Huffman tree
// would need more.
const MaxCodeLen = 32

// ErrLengthOverflow is returned by Build when a symbol's code would exceed
// MaxCodeLen bits (an extremely skewed frequency table, such as one
// dominated by a single symbol with a long tail of singletons).
var ErrLengthOverflow = errutil.Newf("huffman: code length exceeds %d bits", MaxCodeLen)

// Table holds a canonical Huffman code for a fixed alphabet of size
// len(Lengths), built from a per-symbol frequency table.
type Table struct {
	Lengths []uint8 // per symbol, 0 if the symbol never occurs
	codes   []uint64

	// decode side: symsByLen lists every used symbol sorted by (length,
	// symbol), and firstCode/firstIndex give, per length, the first
	// canonical code value and its starting index into symsByLen.
	maxLen     uint8
	symsByLen  []int
	firstCode  [MaxCodeLen + 1]uint64
	firstIndex [MaxCodeLen + 1]int
	countAtLen [MaxCodeLen + 1]int
}

type heapNode struct {
	freq   uint64
	symbol int // -1 for internal nodes
	seq    int // insertion order, for a deterministic tie-break
	left   *heapNode
	right  *heapNode
}

type nodeHeap []*heapNode

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].freq != h[j].freq {
		return h[i].freq < h[j].freq
	}
	return h[i].seq < h[j].seq
}
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x interface{}) { *h = append(*h, x.(*heapNode)) }
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Build constructs a canonical Huffman table over freqs, indexed by symbol.
// Symbols with zero frequency never occur in the table (Lengths[sym] stays
// 0) and cannot be encoded. If only one symbol has nonzero frequency it is
// assigned a 1-bit code so Encode/Decode still work.
func Build(freqs []uint64) (*Table, error) {
	n := len(freqs)
	t := &Table{Lengths: make([]uint8, n), codes: make([]uint64, n)}

	h := &nodeHeap{}
	seq := 0
	nonZero := 0
	for sym, f := range freqs {
		if f == 0 {
			continue
		}
		heap.Push(h, &heapNode{freq: f, symbol: sym, seq: seq})
		seq++
		nonZero++
	}
	if nonZero == 0 {
		return t, nil
	}
	if nonZero == 1 {
		only := (*h)[0].symbol
		t.Lengths[only] = 1
		t.build()
		return t, nil
	}

	for h.Len() > 1 {
		a := heap.Pop(h).(*heapNode)
		b := heap.Pop(h).(*heapNode)
		parent := &heapNode{freq: a.freq + b.freq, symbol: -1, seq: seq, left: a, right: b}
		seq++
		heap.Push(h, parent)
	}
	root := heap.Pop(h).(*heapNode)
	if err := assignDepths(root, 0, t.Lengths); err != nil {
		return nil, err
	}
	t.build()
	return t, nil
}

func assignDepths(n *heapNode, depth int, lengths []uint8) error {
	if n.symbol >= 0 {
		if depth > MaxCodeLen {
			return ErrLengthOverflow
		}
		lengths[n.symbol] = uint8(depth)
		return nil
	}
	if err := assignDepths(n.left, depth+1, lengths); err != nil {
		return err
	}
	return assignDepths(n.right, depth+1, lengths)
}

// build derives canonical codes and the decode-side length index from
// t.Lengths, which must already be populated.
func (t *Table) build() {
	var count [MaxCodeLen + 1]int
	for _, l := range t.Lengths {
		count[l]++
	}
	count[0] = 0

	// Canonical codes: symbols are ordered first by length, then by symbol
	// index; codes at each length start right after the previous length's
	// codes, left-shifted by one bit per extra length level.
	syms := make([]int, 0, len(t.Lengths))
	for sym, l := range t.Lengths {
		if l > 0 {
			syms = append(syms, sym)
		}
	}
	sort.Slice(syms, func(i, j int) bool {
		li, lj := t.Lengths[syms[i]], t.Lengths[syms[j]]
		if li != lj {
			return li < lj
		}
		return syms[i] < syms[j]
	})

	var code uint64
	var l uint8
	idx := 0
	for _, sym := range syms {
		sl := t.Lengths[sym]
		for l < sl {
			code <<= 1
			l++
		}
		t.codes[sym] = code
		if t.firstIndex[sl] == 0 && t.countAtLen[sl] == 0 {
			t.firstCode[sl] = code
			t.firstIndex[sl] = idx
		}
		t.countAtLen[sl]++
		code++
		idx++
		if sl > t.maxLen {
			t.maxLen = sl
		}
	}
	t.symsByLen = syms
}

// Encode writes symbol's canonical code to w.
func (t *Table) Encode(w *bitstream.Writer, symbol int) error {
	l := t.Lengths[symbol]
	if l == 0 {
		return errutil.Newf("huffman: symbol %d has no assigned code", symbol)
	}
	return w.WriteBits(t.codes[symbol], l)
}

// Decode reads one canonical code from r and returns its symbol. It reads a
// bit at a time and compares the accumulated value against the first code
// of each length, the standard canonical-Huffman decode without a
// multi-level lookup table.
func (t *Table) Decode(r *bitstream.Reader) (int, error) {
	var code uint64
	for l := uint8(1); l <= t.maxLen; l++ {
		bit, err := r.ReadBits(1)
		if err != nil {
			return 0, errutil.Err(err)
		}
		code = code<<1 | bit
		cnt := t.countAtLen[l]
		if cnt == 0 {
			continue
		}
		if code >= t.firstCode[l] && code-t.firstCode[l] < uint64(cnt) {
			symIdx := t.firstIndex[l] + int(code-t.firstCode[l])
			return t.symsByLen[symIdx], nil
		}
	}
	return 0, errutil.Newf("huffman: no matching code after %d bits", t.maxLen)
}

// WriteLengths serializes the code-length table as a run-length stream:
// each run is a (length value, run count) pair, both written with
// WriteUvarint, terminated implicitly once every symbol has been accounted
// for. Runs of the common case, length 0 (unused symbols), are cheap since
// WriteUvarint costs a single byte for values under 128.
func (t *Table) WriteLengths(w *bitstream.Writer) error {
	n := len(t.Lengths)
	i := 0
	for i < n {
		l := t.Lengths[i]
		j := i + 1
		for j < n && t.Lengths[j] == l {
			j++
		}
		if err := w.WriteUvarint(uint64(l)); err != nil {
			return err
		}
		if err := w.WriteUvarint(uint64(j - i)); err != nil {
			return err
		}
		i = j
	}
	return nil
}

// ReadLengths reads a length table written by WriteLengths for an alphabet
// of numSymbols symbols and returns the rebuilt Table.
func ReadLengths(r *bitstream.Reader, numSymbols int) (*Table, error) {
	t := &Table{Lengths: make([]uint8, numSymbols), codes: make([]uint64, numSymbols)}
	i := 0
	for i < numSymbols {
		l, err := r.ReadUvarint()
		if err != nil {
			return nil, errutil.Err(err)
		}
		run, err := r.ReadUvarint()
		if err != nil {
			return nil, errutil.Err(err)
		}
		if i+int(run) > numSymbols {
			return nil, errutil.Newf("huffman: length run overruns alphabet size %d", numSymbols)
		}
		for k := 0; k < int(run); k++ {
			t.Lengths[i+k] = uint8(l)
		}
		i += int(run)
	}
	t.build()
	return t, nil
}
