// Package bitio implements the little-endian, bit-granular cursor that
// DEFLATE (RFC 1951) reads its header fields and Huffman codes from.
//
// Bits are consumed least-significant-bit first within each byte. A
// Huffman code, by contrast, is packed most-significant-bit first on the
// wire, so callers that decode a canonical Huffman symbol must either
// bit-reverse the peeked value or (faster, and what internal/huffman does)
// pre-reverse the stored code keys at table-build time and compare
// directly against the LSB-first peek.
package bitio

// Reader is a borrowed view over a byte slice plus a residual bit buffer
// wide enough to hold a full 32-bit peek plus up to 7 carried-over bits.
// It never allocates and never copies the underlying slice.
type Reader struct {
	data []byte // unread bytes; data[0] is the next byte to fold into buf
	buf  uint64 // residual bits, held in the low-order bits
	n    uint   // number of valid bits in buf
}

// New wraps b. The returned Reader borrows b; b must not be modified while
// the Reader is in use.
func New(b []byte) *Reader {
	return &Reader{data: b}
}

// Len reports the number of whole bytes not yet folded into the residual
// bit buffer. It does not count residual bits.
func (r *Reader) Len() int { return len(r.data) }

// BitsAvailable reports an upper bound on the number of bits left to read.
func (r *Reader) BitsAvailable() int { return len(r.data)*8 + int(r.n) }

// fill ensures at least n bits are buffered, pulling whole bytes from data
// one byte at a time. It reports false if the stream runs out first.
func (r *Reader) fill(n uint) bool {
	for r.n < n {
		if len(r.data) == 0 {
			return false
		}
		r.buf |= uint64(r.data[0]) << r.n
		r.data = r.data[1:]
		r.n += 8
	}
	return true
}

// fillMax buffers as many bits as available, up to n, without failing.
// It returns the number of real bits now available (<= n).
func (r *Reader) fillMax(n uint) uint {
	for r.n < n && len(r.data) != 0 {
		r.buf |= uint64(r.data[0]) << r.n
		r.data = r.data[1:]
		r.n += 8
	}
	if r.n < n {
		return r.n
	}
	return n
}

// Peek returns the next n bits (1 <= n <= 32) without advancing the
// cursor. The first bit read becomes the least-significant bit of the
// result. ok is false if fewer than n bits remain in the stream.
func (r *Reader) Peek(n uint) (v uint32, ok bool) {
	if n == 0 || n > 32 {
		panic("bitio: Peek bit count out of range")
	}
	if !r.fill(n) {
		return 0, false
	}
	return uint32(r.buf & ((1 << n) - 1)), true
}

// PeekPadded returns the next min(n, 32) bits, zero-padded if the stream
// runs out early, along with avail, the number of those bits that were
// real (not padding). It never fails. DEFLATE's Huffman decoder uses this:
// a lookup made from fewer real bits than its code length turns out to
// require is simply rejected by the caller, exactly as if the table had
// been consulted with the true (larger) bit count.
func (r *Reader) PeekPadded(n uint) (v uint32, avail uint) {
	if n == 0 || n > 32 {
		panic("bitio: PeekPadded bit count out of range")
	}
	avail = r.fillMax(n)
	return uint32(r.buf & ((1 << n) - 1)), avail
}

// Discard advances the cursor by n bits (1 <= n <= 32), pulling further
// bytes from the stream as needed. It reports false if the stream ran out
// first.
func (r *Reader) Discard(n uint) bool {
	if n == 0 || n > 32 {
		panic("bitio: Discard bit count out of range")
	}
	if !r.fill(n) {
		return false
	}
	r.buf >>= n
	r.n -= n
	return true
}

// Consume is Peek followed by Discard of the same width.
func (r *Reader) Consume(n uint) (v uint32, ok bool) {
	v, ok = r.Peek(n)
	if !ok {
		return 0, false
	}
	r.Discard(n)
	return v, true
}

// AlignToByte discards any residual bits so the next Peek/Consume begins
// on a byte boundary. It is a no-op if the cursor is already aligned.
func (r *Reader) AlignToByte() {
	drop := r.n % 8
	r.buf >>= drop
	r.n -= drop
}

// ReadBytes copies the next len(p) whole bytes verbatim into p. The cursor
// must be byte-aligned (call AlignToByte first); it reports false if the
// stream runs out first.
func (r *Reader) ReadBytes(p []byte) bool {
	if r.n%8 != 0 {
		panic("bitio: ReadBytes called with residual bits pending")
	}
	if len(r.data)+int(r.n/8) < len(p) {
		return false
	}
	// Whole bytes already pulled into buf come first.
	i := 0
	for ; i < len(p) && r.n > 0; i++ {
		p[i] = byte(r.buf)
		r.buf >>= 8
		r.n -= 8
	}
	copy(p[i:], r.data)
	r.data = r.data[len(p)-i:]
	return true
}
