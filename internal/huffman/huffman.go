// Package huffman builds and queries canonical Huffman decoding tables for
// DEFLATE (RFC 1951 §3.2.2). Construction follows the three-step algorithm
// from the RFC: count codes per length, compute the smallest code for each
// length, then assign consecutive codes to symbols in order.
//
// The lookup structure is a direct table indexed by the next chunkBits
// peeked bits (spec §4.2's "direct lookup table" alternative to the
// source's 8192-slot hash-with-chaining design), with an overflow link
// table for codes longer than chunkBits, the same two-level shape
// compress/flate uses internally. Table entries store the reversed code so
// that a caller's LSB-first Peek can be compared directly, without
// reversing on every lookup.
package huffman

import (
	"math/bits"

	"github.com/tzneal/degulate/internal/bitio"
	"github.com/tzneal/degulate/internal/errs"
)

const (
	// MaxCodeLen is the longest code length DEFLATE permits in any of its
	// alphabets (literal/length, distance, code-length).
	MaxCodeLen = 15

	chunkBits  = 9
	numChunks  = 1 << chunkBits
	countMask  = 0x1F
	valueShift = 5
)

// Table is a canonical Huffman decoding table built from a code-length
// vector. The zero Table is empty and decodes nothing.
type Table struct {
	min      int
	max      int
	chunks   [numChunks]uint32
	links    [][]uint32
	linkMask uint32
}

// Build constructs a canonical Huffman table from lengths, where
// lengths[i] is the code length assigned to symbol i (0 meaning unused).
// It reports an error if the code is oversubscribed (spec §4.2) — codes of
// length l would need to exceed 2^l-1 distinct values. An all-zero lengths
// vector is valid and produces a Table that cannot decode anything; DEFLATE
// only permits this for the distance alphabet when no back-references
// occur in the block.
func Build(lengths []int) (*Table, error) {
	var count [MaxCodeLen + 1]int
	min, max := 0, 0
	for _, n := range lengths {
		if n == 0 {
			continue
		}
		if n < 0 || n > MaxCodeLen {
			return nil, errs.Newf(errs.OversubscribedHuffman, "code length %d out of range [0,%d]", n, MaxCodeLen)
		}
		if min == 0 || n < min {
			min = n
		}
		if n > max {
			max = n
		}
		count[n]++
	}

	h := &Table{}
	if max == 0 {
		// Empty tree: valid to construct, fails later if ever decoded from.
		return h, nil
	}

	code := 0
	var nextCode [MaxCodeLen + 1]int
	for length := min; length <= max; length++ {
		code <<= 1
		nextCode[length] = code
		code += count[length]
	}

	// The DEFLATE/zlib convention accepts a single degenerate code (one
	// symbol, length 1) as complete even though it only uses half the
	// code space; any other incomplete assignment is oversubscribed.
	if code != 1<<uint(max) && !(code == 1 && max == 1) {
		return nil, errs.Newf(errs.OversubscribedHuffman, "code space not exactly filled (got %d codes, want %d)", code, 1<<uint(max))
	}

	h.min, h.max = min, max
	if max > chunkBits {
		numLinks := 1 << (uint(max) - chunkBits)
		h.linkMask = uint32(numLinks - 1)
		firstLinked := nextCode[chunkBits+1] >> 1
		h.links = make([][]uint32, numChunks-firstLinked)
		for j := firstLinked; j < numChunks; j++ {
			reverse := int(bits.Reverse16(uint16(j))) >> (16 - chunkBits)
			off := j - firstLinked
			h.chunks[reverse] = uint32(off<<valueShift | (chunkBits + 1))
			h.links[off] = make([]uint32, numLinks)
		}
	}

	for symbol, length := range lengths {
		if length == 0 {
			continue
		}
		assigned := nextCode[length]
		nextCode[length]++
		chunk := uint32(symbol<<valueShift | length)
		reverse := int(bits.Reverse16(uint16(assigned))) >> (16 - length)
		if length <= chunkBits {
			for off := reverse; off < len(h.chunks); off += 1 << uint(length) {
				h.chunks[off] = chunk
			}
		} else {
			j := reverse & (numChunks - 1)
			linkIdx := h.chunks[j] >> valueShift
			linktab := h.links[linkIdx]
			reverse >>= chunkBits
			for off := reverse; off < len(linktab); off += 1 << uint(length-chunkBits) {
				linktab[off] = chunk
			}
		}
	}

	return h, nil
}

// Empty reports whether the table was built from an all-zero length
// vector and therefore cannot decode any symbol.
func (h *Table) Empty() bool { return h.max == 0 }

// MinCodeLen reports the shortest code length present in the table, or
// the larger value set by SetMinCodeLen. Decode does not consult it: it
// always peeks maxPeekWidth bits, zero-padded at the end of the stream.
func (h *Table) MinCodeLen() int { return h.min }

// SetMinCodeLen raises the recorded minimum code length; it is never
// lowered. The DEFLATE engine raises the literal/length table's value to
// the length of the end-of-block code. Decode does not read this value.
func (h *Table) SetMinCodeLen(n int) {
	if n > h.min {
		h.min = n
	}
}

// Decode reads one Huffman symbol from r using h. It returns an error if
// the tree is empty, if no code matches the upcoming bits, or if the
// stream runs out before a valid code is assembled.
func (h *Table) Decode(r *bitio.Reader) (symbol int, err error) {
	if h.max == 0 {
		return 0, errs.New(errs.InvalidSymbol, "empty huffman table")
	}

	peeked, avail := r.PeekPadded(maxPeekWidth)
	chunk := h.chunks[peeked&(numChunks-1)]
	codeLen := uint(chunk & countMask)
	if codeLen > chunkBits {
		chunk = h.links[chunk>>valueShift][(peeked>>chunkBits)&h.linkMask]
		codeLen = uint(chunk & countMask)
	}
	if codeLen == 0 {
		return 0, errs.New(errs.InvalidSymbol, "no huffman code matches the next bits")
	}
	if codeLen > avail {
		return 0, errs.New(errs.InputTruncated, "ran out of input decoding huffman symbol")
	}
	r.Discard(codeLen)
	return int(chunk >> valueShift), nil
}

// maxPeekWidth covers the full chunk table (chunkBits) plus the widest
// possible link-table index (MaxCodeLen-chunkBits), so a single
// PeekPadded call always has enough bits buffered for either path.
const maxPeekWidth = chunkBits + (MaxCodeLen - chunkBits)
