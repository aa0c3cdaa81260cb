package deflate

import (
	"bytes"
	"testing"

	"github.com/tzneal/degulate/internal/errs"
)

func TestEmptyStoredBlock(t *testing.T) {
	in := []byte{0x01, 0x00, 0x00, 0xFF, 0xFF}
	out := make([]byte, 0)
	n, err := Inflate(out, nil, in)
	if err != nil {
		t.Fatalf("Inflate: %v", err)
	}
	if n != 0 {
		t.Fatalf("n = %d; want 0", n)
	}
}

func TestStoredHi(t *testing.T) {
	in := []byte{0x01, 0x02, 0x00, 0xFD, 0xFF, 0x48, 0x69}
	out := make([]byte, 2)
	n, err := Inflate(out, nil, in)
	if err != nil {
		t.Fatalf("Inflate: %v", err)
	}
	if n != 2 || !bytes.Equal(out[:n], []byte("Hi")) {
		t.Fatalf("output = %q; want %q", out[:n], "Hi")
	}
}

func TestStoredLengthMismatch(t *testing.T) {
	// NLEN is not the one's complement of LEN.
	in := []byte{0x01, 0x02, 0x00, 0x00, 0x00}
	out := make([]byte, 2)
	_, err := Inflate(out, nil, in)
	if err == nil {
		t.Fatal("Inflate: want error for mismatched NLEN")
	}
	if code, ok := errs.CodeOf(err); !ok || code != errs.MalformedSignature {
		t.Fatalf("CodeOf = %v, %v; want MalformedSignature, true", code, ok)
	}
}

// fixedBitWriter accumulates bits LSB-first within each byte, the same
// convention bitio.Reader consumes, so tests can hand-assemble a DEFLATE
// stream one field at a time.
type fixedBitWriter struct {
	bytes []byte
	cur   uint32
	n     uint
}

func (w *fixedBitWriter) writeBits(v uint32, n uint) {
	w.cur |= v << w.n
	w.n += n
	for w.n >= 8 {
		w.bytes = append(w.bytes, byte(w.cur))
		w.cur >>= 8
		w.n -= 8
	}
}

// writeReversed writes the low n bits of v most-significant-bit first,
// i.e. it bit-reverses v before handing it to writeBits, matching how a
// canonical Huffman code is packed on the wire.
func (w *fixedBitWriter) writeReversed(v uint32, n uint) {
	var r uint32
	for i := uint(0); i < n; i++ {
		r = (r << 1) | (v & 1)
		v >>= 1
	}
	w.writeBits(r, n)
}

func (w *fixedBitWriter) finish() []byte {
	if w.n > 0 {
		w.bytes = append(w.bytes, byte(w.cur))
		w.cur = 0
		w.n = 0
	}
	return w.bytes
}

func TestFixedHuffmanLiteralA(t *testing.T) {
	w := &fixedBitWriter{}
	w.writeBits(1, 1) // BFINAL=1
	w.writeBits(1, 2) // BTYPE=01, fixed Huffman

	// Symbol 65 ('A') falls in [0,143], an 8-bit code starting at 0x30.
	w.writeReversed(0x30+65, 8)
	// End-of-block, symbol 256, 7-bit code 0x0000000.
	w.writeReversed(0x0000000, 7)
	in := w.finish()

	out := make([]byte, 1)
	n, err := Inflate(out, nil, in)
	if err != nil {
		t.Fatalf("Inflate: %v", err)
	}
	if n != 1 || out[0] != 'A' {
		t.Fatalf("output = %v; want ['A']", out[:n])
	}
}

// fixedCode returns the canonical code (not yet bit-reversed) RFC 1951
// §3.2.6 assigns to literal/length symbol sym in the fixed Huffman tree,
// and its code length.
func fixedCode(sym int) (code uint32, length uint) {
	switch {
	case sym < 144:
		return uint32(48 + sym), 8
	case sym < 256:
		return uint32(352 + (sym - 144)), 9
	case sym < 280:
		return uint32(sym - 256), 7
	default:
		return uint32(192 + (sym - 280)), 8
	}
}

func TestBackReferenceAbabab(t *testing.T) {
	w := &fixedBitWriter{}
	w.writeBits(1, 1) // BFINAL=1
	w.writeBits(1, 2) // BTYPE=01, fixed Huffman

	emit := func(sym int) {
		code, length := fixedCode(sym)
		w.writeReversed(code, length)
	}
	emit('a')
	emit('b')
	emit(258) // length symbol: base 4, 0 extra bits
	w.writeReversed(1, 5) // distance: 5 raw bits, symbol 1 -> base 2, 0 extra
	emit(256)             // end of block

	in := w.finish()
	out := make([]byte, 6)
	n, err := Inflate(out, nil, in)
	if err != nil {
		t.Fatalf("Inflate: %v", err)
	}
	want := []byte("ababab")
	if n != len(want) || !bytes.Equal(out[:n], want) {
		t.Fatalf("output = %q; want %q", out[:n], want)
	}
}

func TestBackReferenceOutOfRange(t *testing.T) {
	// A fixed block whose first operation is a back-reference before any
	// literal has been written must fail, not read out of bounds.
	w := &fixedBitWriter{}
	w.writeBits(1, 1) // BFINAL
	w.writeBits(1, 2) // fixed Huffman
	// Length symbol 257 (base 3, 0 extra), code 0b0000001 in the fixed
	// table: symbols 256-279 have 7-bit codes starting at 0,
	// where symbol 256 is code 0, so 257 is code 1.
	w.writeReversed(1, 7)
	// Distance: 5 raw bits, any value decodes to distance >= 1 > bytes
	// written so far (0).
	w.writeReversed(0, 5)
	in := w.finish()

	out := make([]byte, 8)
	_, err := Inflate(out, nil, in)
	if err == nil {
		t.Fatal("Inflate: want error for back-reference before output start")
	}
	if code, ok := errs.CodeOf(err); !ok || code != errs.BackReferenceOutOfRange {
		t.Fatalf("CodeOf = %v, %v; want BackReferenceOutOfRange, true", code, ok)
	}
}

func TestOutputOverflow(t *testing.T) {
	in := []byte{0x01, 0x02, 0x00, 0xFD, 0xFF, 0x48, 0x69}
	out := make([]byte, 1) // too small for "Hi"
	_, err := Inflate(out, nil, in)
	if err == nil {
		t.Fatal("Inflate: want error for output overflow")
	}
	if code, ok := errs.CodeOf(err); !ok || code != errs.OutputOverflow {
		t.Fatalf("CodeOf = %v, %v; want OutputOverflow, true", code, ok)
	}
}

func TestReservedBTYPE(t *testing.T) {
	w := &fixedBitWriter{}
	w.writeBits(1, 1) // BFINAL
	w.writeBits(3, 2) // BTYPE=11, reserved
	in := w.finish()

	out := make([]byte, 1)
	_, err := Inflate(out, nil, in)
	if err == nil {
		t.Fatal("Inflate: want error for reserved BTYPE")
	}
	if code, ok := errs.CodeOf(err); !ok || code != errs.UnsupportedFormat {
		t.Fatalf("CodeOf = %v, %v; want UnsupportedFormat, true", code, ok)
	}
}
