// Package deflate implements the DEFLATE block-level state machine (RFC
// 1951 §3.2): stored, fixed-Huffman, and dynamic-Huffman blocks, and the
// length/distance back-reference copy that ties them together. It is the
// one component every caller ultimately bottoms out in, whether the
// compressed bytes came from a raw DEFLATE stream or a PNG IDAT payload
// with its zlib wrapper already stripped.
package deflate

import (
	"sync"

	"github.com/tzneal/degulate/internal/bitio"
	"github.com/tzneal/degulate/internal/errs"
	"github.com/tzneal/degulate/internal/huffman"
)

const (
	maxNumLit  = 286
	maxNumDist = 30
	numCLCodes = 19
	endOfBlock = 256

	// maxMatchOffset bounds how far back a back-reference may read. DEFLATE
	// caps distance codes at 32768; a back-reference past that is
	// malformed regardless of how large the caller's output region is.
	maxMatchOffset = 1 << 15
)

// codeOrder is the fixed order in which a dynamic block's 19 code-length
// Huffman code lengths are transmitted (RFC 1951 §3.2.7).
var codeOrder = [numCLCodes]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// lengthBase and lengthExtra give the (base, extra-bits) pair for
// literal/length symbols 257..285 (RFC 1951 §3.2.5).
var lengthBase = [29]int{3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31, 35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258}
var lengthExtra = [29]uint{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0}

// distBase and distExtra give the (base, extra-bits) pair for the 30
// distance symbols (RFC 1951 §3.2.5).
var distBase = [30]int{1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193, 257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577}
var distExtra = [30]uint{0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6, 7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13}

// fixedLitLen is the fixed literal/length Huffman table used by BTYPE=01
// blocks (RFC 1951 §3.2.6); their distances are 5 raw bits and need no
// table. It is built once, lazily, and shared read-only by every fixed
// block decoded by this process.
var (
	fixedLitLen     *huffman.Table
	fixedLitLenOnce sync.Once
)

func fixedLitLenTable() *huffman.Table {
	fixedLitLenOnce.Do(buildFixedLitLen)
	return fixedLitLen
}

func buildFixedLitLen() {
	lengths := make([]int, 288)
	i := 0
	for ; i < 144; i++ {
		lengths[i] = 8
	}
	for ; i < 256; i++ {
		lengths[i] = 9
	}
	for ; i < 280; i++ {
		lengths[i] = 7
	}
	for ; i < 288; i++ {
		lengths[i] = 8
	}
	tbl, err := huffman.Build(lengths)
	if err != nil {
		// lengths is a fixed RFC 1951 constant; this can never fail.
		panic(err)
	}
	tbl.SetMinCodeLen(lengths[endOfBlock])
	fixedLitLen = tbl
}

// Inflate decodes a raw DEFLATE stream (no zlib wrapper) from in, writing
// decompressed bytes starting at out[0]. It returns the number of bytes
// written. scratch is accepted for signature parity with the rest of the
// decode pipeline (spec §5's caller-owned working-memory region, sized by
// internal/arena or png.ScratchSize) but is not needed by this package:
// the dynamic-block code-length vector is small and fixed-size, so it is
// allocated normally rather than carved out of the caller's byte buffer.
func Inflate(out, scratch, in []byte) (int, error) {
	_ = scratch
	d := &decoder{
		r:     bitio.New(in),
		out:   out,
		clBuf: make([]int, maxNumLit+maxNumDist),
	}
	for {
		final, err := d.block()
		if err != nil {
			return d.n, err
		}
		if final {
			return d.n, nil
		}
	}
}

type decoder struct {
	r     *bitio.Reader
	out   []byte
	n     int   // bytes written to out so far
	clBuf []int // scratch for the combined lit/len+dist length vector
}

func (d *decoder) block() (final bool, err error) {
	bfinal, ok := d.r.Consume(1)
	if !ok {
		return false, errs.New(errs.InputTruncated, "ran out of input reading BFINAL")
	}
	btype, ok := d.r.Consume(2)
	if !ok {
		return false, errs.New(errs.InputTruncated, "ran out of input reading BTYPE")
	}

	switch btype {
	case 0:
		err = d.storedBlock()
	case 1:
		err = d.huffmanBlock(fixedLitLenTable(), nil)
	case 2:
		hlit, hdist, err2 := d.readDynamicTables()
		if err2 != nil {
			return false, err2
		}
		err = d.huffmanBlock(hlit, hdist)
	default:
		err = errs.New(errs.UnsupportedFormat, "BTYPE 3 is reserved")
	}
	return bfinal == 1, err
}

func (d *decoder) storedBlock() error {
	d.r.AlignToByte()
	var hdr [4]byte
	if !d.r.ReadBytes(hdr[:]) {
		return errs.New(errs.InputTruncated, "ran out of input reading stored-block header")
	}
	length := int(hdr[0]) | int(hdr[1])<<8
	nlength := int(hdr[2]) | int(hdr[3])<<8
	if uint16(nlength) != uint16(^length) {
		return errs.Newf(errs.MalformedSignature, "stored block NLEN %#x is not the complement of LEN %#x", nlength, length)
	}
	if d.n+length > len(d.out) {
		return errs.New(errs.OutputOverflow, "stored block would write past end of output")
	}
	if !d.r.ReadBytes(d.out[d.n : d.n+length]) {
		return errs.New(errs.InputTruncated, "ran out of input copying stored block")
	}
	d.n += length
	return nil
}

func (d *decoder) readDynamicTables() (litlen, dist *huffman.Table, err error) {
	hlitRaw, ok := d.r.Consume(5)
	if !ok {
		return nil, nil, errs.New(errs.InputTruncated, "ran out of input reading HLIT")
	}
	hdistRaw, ok := d.r.Consume(5)
	if !ok {
		return nil, nil, errs.New(errs.InputTruncated, "ran out of input reading HDIST")
	}
	hclenRaw, ok := d.r.Consume(4)
	if !ok {
		return nil, nil, errs.New(errs.InputTruncated, "ran out of input reading HCLEN")
	}
	hlit := int(hlitRaw) + 257
	hdist := int(hdistRaw) + 1
	hclen := int(hclenRaw) + 4
	if hlit > maxNumLit {
		return nil, nil, errs.Newf(errs.MalformedSignature, "HLIT %d exceeds %d", hlit, maxNumLit)
	}
	if hdist > maxNumDist {
		return nil, nil, errs.Newf(errs.MalformedSignature, "HDIST %d exceeds %d", hdist, maxNumDist)
	}

	var clLengths [numCLCodes]int
	for i := 0; i < hclen; i++ {
		v, ok := d.r.Consume(3)
		if !ok {
			return nil, nil, errs.New(errs.InputTruncated, "ran out of input reading code-length codes")
		}
		clLengths[codeOrder[i]] = int(v)
	}

	clTable, err := huffman.Build(clLengths[:])
	if err != nil {
		return nil, nil, err
	}

	total := hlit + hdist
	lengths := d.clBuf[:total]
	for i := 0; i < total; {
		sym, err := clTable.Decode(d.r)
		if err != nil {
			return nil, nil, err
		}
		if sym < 16 {
			lengths[i] = sym
			i++
			continue
		}
		var repeat int
		var extraBits uint
		var value int
		switch sym {
		case 16:
			if i == 0 {
				return nil, nil, errs.New(errs.MalformedSignature, "repeat code 16 with no previous length")
			}
			repeat, extraBits, value = 3, 2, lengths[i-1]
		case 17:
			repeat, extraBits, value = 3, 3, 0
		case 18:
			repeat, extraBits, value = 11, 7, 0
		default:
			return nil, nil, errs.Newf(errs.InvalidSymbol, "code-length symbol %d out of range", sym)
		}
		extra, ok := d.r.Consume(extraBits)
		if !ok {
			return nil, nil, errs.New(errs.InputTruncated, "ran out of input reading repeat count")
		}
		repeat += int(extra)
		if i+repeat > total {
			return nil, nil, errs.Newf(errs.MalformedSignature, "code-length repeat overruns vector (i=%d, repeat=%d, total=%d)", i, repeat, total)
		}
		for j := 0; j < repeat; j++ {
			lengths[i] = value
			i++
		}
	}

	litlenTable, err := huffman.Build(lengths[:hlit])
	if err != nil {
		return nil, nil, err
	}
	distTable, err := huffman.Build(lengths[hlit : hlit+hdist])
	if err != nil {
		return nil, nil, err
	}
	if litlenTable.MinCodeLen() < lengths[endOfBlock] {
		litlenTable.SetMinCodeLen(lengths[endOfBlock])
	}
	return litlenTable, distTable, nil
}

// huffmanBlock decodes symbols from litlen/dist until the end-of-block
// marker. dist == nil selects the fixed block's 5-raw-bit distance
// encoding (BTYPE=01); otherwise distances are Huffman-decoded (BTYPE=10).
func (d *decoder) huffmanBlock(litlen, dist *huffman.Table) error {
	for {
		sym, err := litlen.Decode(d.r)
		if err != nil {
			return err
		}
		switch {
		case sym < 256:
			if d.n >= len(d.out) {
				return errs.New(errs.OutputOverflow, "literal would write past end of output")
			}
			d.out[d.n] = byte(sym)
			d.n++
			continue
		case sym == endOfBlock:
			return nil
		case sym <= 285:
			if err := d.copyMatch(sym, litlen, dist); err != nil {
				return err
			}
			continue
		default:
			return errs.Newf(errs.InvalidSymbol, "literal/length symbol %d out of range", sym)
		}
	}
}

func (d *decoder) copyMatch(lenSym int, litlen, distTable *huffman.Table) error {
	idx := lenSym - 257
	if idx < 0 || idx >= len(lengthBase) {
		return errs.Newf(errs.InvalidSymbol, "length symbol %d out of range", lenSym)
	}
	length := lengthBase[idx]
	if n := lengthExtra[idx]; n > 0 {
		extra, ok := d.r.Consume(n)
		if !ok {
			return errs.New(errs.InputTruncated, "ran out of input reading length extra bits")
		}
		length += int(extra)
	}

	var distSym int
	if distTable == nil {
		raw, ok := d.r.Consume(5)
		if !ok {
			return errs.New(errs.InputTruncated, "ran out of input reading fixed distance code")
		}
		distSym = reverse5(int(raw))
	} else {
		sym, err := distTable.Decode(d.r)
		if err != nil {
			return err
		}
		distSym = sym
	}
	if distSym < 0 || distSym >= len(distBase) {
		return errs.Newf(errs.InvalidSymbol, "distance symbol %d out of range", distSym)
	}
	distance := distBase[distSym]
	if n := distExtra[distSym]; n > 0 {
		extra, ok := d.r.Consume(n)
		if !ok {
			return errs.New(errs.InputTruncated, "ran out of input reading distance extra bits")
		}
		distance += int(extra)
	}
	if distance > maxMatchOffset || distance > d.n {
		return errs.Newf(errs.BackReferenceOutOfRange, "distance %d exceeds %d bytes of output written so far", distance, d.n)
	}
	if d.n+length > len(d.out) {
		return errs.New(errs.OutputOverflow, "back-reference would write past end of output")
	}

	// The source region may overlap the destination (distance < length),
	// so this must be a byte-by-byte forward copy, not copy()/memmove.
	src := d.n - distance
	for i := 0; i < length; i++ {
		d.out[d.n+i] = d.out[src+i]
	}
	d.n += length
	return nil
}

// reverse5 bit-reverses the low 5 bits of v. Fixed blocks encode distance
// codes as 5 raw MSB-first bits; bitio.Consume already delivered them
// LSB-first, so the value must be reversed before use as a table index.
func reverse5(v int) int {
	var out int
	for i := 0; i < 5; i++ {
		out = (out << 1) | (v & 1)
		v >>= 1
	}
	return out
}
