// Package png implements the PNG chunk-level state machine (RFC 2083 /
// ISO 15948): signature validation, chunk iteration and CRC checking,
// IHDR/PLTE/IDAT/IEND dispatch, and the scanline filter reconstruction
// that turns a DEFLATE-decompressed byte stream into RGBA pixels. Only
// truecolor (color type 2), indexed (3), and truecolor+alpha (6) images
// at 8 bits per channel, non-interlaced, are supported.
package png

import (
	"encoding/binary"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tzneal/degulate/internal/deflate"
	"github.com/tzneal/degulate/internal/errs"
)

var signature = [8]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// ColorType enumerates the PNG color types this package understands.
type ColorType uint8

const (
	ColorTruecolor      ColorType = 2
	ColorIndexed        ColorType = 3
	ColorTruecolorAlpha ColorType = 6
)

// Header is a parsed IHDR chunk.
type Header struct {
	Width, Height int
	BitDepth      uint8
	ColorType     ColorType
}

// BytesPerPixel reports the bytes-per-channel-group (spec term "bpc") for
// h's color type: 1 for indexed, 3 for truecolor, 4 for truecolor+alpha.
func (h Header) BytesPerPixel() int {
	switch h.ColorType {
	case ColorIndexed:
		return 1
	case ColorTruecolor:
		return 3
	case ColorTruecolorAlpha:
		return 4
	default:
		return 0
	}
}

// Options configures a decode. The zero value matches the most
// conservative defaults: no extra skip patterns, Adler-32 unverified,
// CRC mismatches fatal.
type Options struct {
	// SkipChunks are doublestar glob patterns matched against a chunk's
	// 4-byte type name; a matching ancillary chunk's payload is skipped
	// without being copied or examined. Critical chunks are never
	// skippable regardless of a match.
	SkipChunks []string

	// VerifyAdler32 enables verification of the zlib trailer following
	// the concatenated IDAT payload. The trailer is always read; the
	// checksum of the decompressed data is computed and compared only
	// when this is set.
	VerifyAdler32 bool

	// TolerateCRCMismatch turns a chunk CRC mismatch from fatal into a
	// best-effort continuation (spec §4.4: "may be made a warning behind
	// a build option").
	TolerateCRCMismatch bool
}

// GetSize parses only the signature and IHDR chunk, for callers that need
// to size an output buffer before decoding.
func GetSize(compressed []byte) (width, height int, err error) {
	hdr, _, err := readIHDR(compressed)
	if err != nil {
		return 0, 0, err
	}
	return hdr.Width, hdr.Height, nil
}

// ScratchSize returns the exact size of the DEFLATE output region for an
// image with the given header: height scanlines, each one filter byte
// plus width*bpc pixel bytes, per spec §5/§13 (not the source's
// width*height*4+height+1 overestimate/underestimate).
func ScratchSize(h Header) int {
	return h.Height * (1 + h.Width*h.BytesPerPixel())
}

func readIHDR(compressed []byte) (Header, int, error) {
	if len(compressed) < 8 || [8]byte(compressed[:8]) != signature {
		return Header{}, 0, errs.New(errs.MalformedSignature, "missing PNG signature")
	}
	if len(compressed) < 8+8+13+4 {
		return Header{}, 0, errs.New(errs.InputTruncated, "input too short to contain IHDR")
	}
	length := binary.BigEndian.Uint32(compressed[8:12])
	typ := [4]byte(compressed[12:16])
	if typ != [4]byte{'I', 'H', 'D', 'R'} {
		return Header{}, 0, errs.New(errs.ChunkOrderViolation, "first chunk is not IHDR")
	}
	if length != 13 {
		return Header{}, 0, errs.Newf(errs.MalformedSignature, "IHDR length %d, want 13", length)
	}
	data := compressed[16 : 16+13]

	width := int(binary.BigEndian.Uint32(data[0:4]))
	height := int(binary.BigEndian.Uint32(data[4:8]))
	bitDepth := data[8]
	colorType := ColorType(data[9])
	compression := data[10]
	filter := data[11]
	interlace := data[12]

	if width <= 0 || height <= 0 {
		return Header{}, 0, errs.New(errs.UnsupportedFormat, "width and height must be positive")
	}
	if bitDepth != 8 {
		return Header{}, 0, errs.Newf(errs.UnsupportedFormat, "bit depth %d unsupported, only 8 is", bitDepth)
	}
	if colorType != ColorTruecolor && colorType != ColorIndexed && colorType != ColorTruecolorAlpha {
		return Header{}, 0, errs.Newf(errs.UnsupportedFormat, "color type %d unsupported", colorType)
	}
	if compression != 0 {
		return Header{}, 0, errs.Newf(errs.UnsupportedFormat, "compression method %d unsupported", compression)
	}
	if filter != 0 {
		return Header{}, 0, errs.Newf(errs.UnsupportedFormat, "filter method %d unsupported", filter)
	}
	if interlace != 0 {
		return Header{}, 0, errs.New(errs.UnsupportedFormat, "interlaced PNGs are unsupported")
	}

	return Header{Width: width, Height: height, BitDepth: bitDepth, ColorType: colorType}, 16 + 13 + 4, nil
}

// ancillary reports whether typ names an ancillary (safe-to-skip-if-
// unknown) chunk, per bit 5 of the first type byte, rather than the
// source's ASCII '>Z' comparison (spec §13/§9 REDESIGN FLAG).
func ancillary(typ [4]byte) bool {
	return typ[0]&0x20 != 0
}

func skipMatches(patterns []string, typ [4]byte) bool {
	name := string(typ[:])
	for _, pat := range patterns {
		if ok, _ := doublestar.Match(pat, name); ok {
			return true
		}
	}
	return false
}

// Image is the outcome of chunk parsing: everything the reconstructor
// needs to turn a decompressed filtered scanline stream into RGBA.
type Image struct {
	Header  Header
	Palette []byte // RGB triples, len = 3*numColors; only set for ColorIndexed
	Adler32 uint32 // trailing 4 bytes of the zlib stream, as read (unverified unless requested)
}

// parse walks compressed's chunks, validating structure/CRC and
// aggregating IDAT payloads. It returns the parsed Image metadata and the
// concatenated, zlib-unwrapped DEFLATE stream ready for internal/deflate.
func parse(compressed []byte, opts Options) (Image, []byte, error) {
	hdr, off, err := readIHDR(compressed)
	if err != nil {
		return Image{}, nil, err
	}
	ihdrCRC := binary.BigEndian.Uint32(compressed[off-4 : off])
	if got := crc32Chunk([4]byte{'I', 'H', 'D', 'R'}, compressed[16:off-4]); got != ihdrCRC && !opts.TolerateCRCMismatch {
		return Image{}, nil, errs.Newf(errs.CrcMismatch, "chunk \"IHDR\": got CRC %#x, want %#x", got, ihdrCRC)
	}

	img := Image{Header: hdr}
	var idat []byte
	sawIDAT := false
	sawIEND := false
	sawPLTE := false
	first := true

	for off < len(compressed) {
		if sawIEND {
			break
		}
		if len(compressed)-off < 8 {
			return Image{}, nil, errs.New(errs.InputTruncated, "truncated chunk header")
		}
		length := binary.BigEndian.Uint32(compressed[off : off+4])
		typ := [4]byte(compressed[off+4 : off+8])
		dataStart := off + 8
		dataEnd := dataStart + int(length)
		if dataEnd+4 > len(compressed) || dataEnd < dataStart {
			return Image{}, nil, errs.New(errs.InputTruncated, "chunk data runs past end of input")
		}
		data := compressed[dataStart:dataEnd]
		storedCRC := binary.BigEndian.Uint32(compressed[dataEnd : dataEnd+4])

		if ancillary(typ) && skipMatches(opts.SkipChunks, typ) {
			// Caller asked to skip this ancillary type outright: no CRC
			// check, no payload inspection.
			off = dataEnd + 4
			continue
		}

		if got := crc32Chunk(typ, data); got != storedCRC && !opts.TolerateCRCMismatch {
			return Image{}, nil, errs.Newf(errs.CrcMismatch, "chunk %q: got CRC %#x, want %#x", typ, got, storedCRC)
		}

		switch typ {
		case [4]byte{'I', 'H', 'D', 'R'}:
			return Image{}, nil, errs.New(errs.ChunkOrderViolation, "duplicate IHDR")
		case [4]byte{'P', 'L', 'T', 'E'}:
			if sawIDAT {
				return Image{}, nil, errs.New(errs.ChunkOrderViolation, "PLTE after IDAT")
			}
			if len(data)%3 != 0 || len(data)/3 > 256 {
				return Image{}, nil, errs.Newf(errs.MalformedSignature, "PLTE length %d invalid", len(data))
			}
			img.Palette = append([]byte(nil), data...)
			sawPLTE = true
		case [4]byte{'I', 'D', 'A', 'T'}:
			if hdr.ColorType == ColorIndexed && !sawPLTE {
				return Image{}, nil, errs.New(errs.ChunkOrderViolation, "IDAT before required PLTE")
			}
			chunk := data
			if first {
				stripped, err := stripZlibHeader(data)
				if err != nil {
					return Image{}, nil, err
				}
				chunk = stripped
				first = false
			}
			idat = append(idat, chunk...)
			sawIDAT = true
		case [4]byte{'I', 'E', 'N', 'D'}:
			if !sawIDAT {
				return Image{}, nil, errs.New(errs.ChunkOrderViolation, "IEND with no IDAT")
			}
			sawIEND = true
		default:
			if !ancillary(typ) {
				return Image{}, nil, errs.Newf(errs.ChunkOrderViolation, "unknown critical chunk %q", typ)
			}
			// Unknown ancillary chunk: safe to ignore even without an
			// explicit skip-list entry (spec §4.4/glossary).
		}

		off = dataEnd + 4
	}

	if !sawIEND {
		return Image{}, nil, errs.New(errs.ChunkOrderViolation, "missing IEND")
	}
	if hdr.ColorType == ColorIndexed && img.Palette == nil {
		return Image{}, nil, errs.New(errs.ChunkOrderViolation, "indexed image missing required PLTE")
	}

	if len(idat) < 4 {
		return Image{}, nil, errs.New(errs.InputTruncated, "IDAT payload shorter than Adler-32 trailer")
	}
	img.Adler32 = binary.BigEndian.Uint32(idat[len(idat)-4:])
	deflateStream := idat[:len(idat)-4]

	return img, deflateStream, nil
}

// stripZlibHeader validates and removes the 2-byte zlib header (RFC 1950)
// from the start of the first IDAT payload. FDICT is rejected, matching
// the source.
func stripZlibHeader(data []byte) ([]byte, error) {
	if len(data) < 2 {
		return nil, errs.New(errs.InputTruncated, "IDAT too short for zlib header")
	}
	cmf, flg := data[0], data[1]
	if cmf&0x0F != 8 {
		return nil, errs.Newf(errs.UnsupportedFormat, "zlib CM %d, only DEFLATE (8) is supported", cmf&0x0F)
	}
	if (uint16(cmf)<<8|uint16(flg))%31 != 0 {
		return nil, errs.New(errs.MalformedSignature, "zlib header FCHECK failed")
	}
	if flg&0x20 != 0 {
		return nil, errs.New(errs.UnsupportedFormat, "zlib FDICT is unsupported")
	}
	return data[2:], nil
}

// Decode parses compressed as a complete PNG file and writes RGBA pixels
// into output, which must be exactly width*height*4 bytes. scratch is
// optional caller-owned working memory for the DEFLATE pass (spec §5):
// when it holds at least ScratchSize(header) bytes the decompressed
// scanlines are written into it; a nil or shorter scratch causes the
// decoder to allocate its own.
func Decode(compressed []byte, output, scratch []byte, opts Options) error {
	img, deflateStream, err := parse(compressed, opts)
	if err != nil {
		return err
	}
	hdr := img.Header
	want := hdr.Width * hdr.Height * 4
	if len(output) != want {
		return errs.Newf(errs.OutputOverflow, "output is %d bytes, want exactly %d", len(output), want)
	}

	size := ScratchSize(hdr)
	filtered := scratch
	if len(filtered) < size {
		filtered = make([]byte, size)
	}
	filtered = filtered[:size]
	if _, err := deflate.Inflate(filtered, nil, deflateStream); err != nil {
		return err
	}

	if opts.VerifyAdler32 {
		if got := adler32Sum(filtered); got != img.Adler32 {
			return errs.Newf(errs.CrcMismatch, "Adler-32 mismatch: got %#x, want %#x", got, img.Adler32)
		}
	}

	return reconstruct(hdr, img.Palette, filtered, output)
}
