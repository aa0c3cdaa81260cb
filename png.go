package degulate

import "github.com/tzneal/degulate/internal/png"

// PNGOption configures a DecodePNG call, following the same functional-
// options shape the teacher uses for its own filesystem construction.
type PNGOption func(*png.Options)

// WithSkipChunks forces additional ancillary chunk types to be skipped
// without their payload being read or CRC-checked, matched against each
// chunk's 4-byte type name as a doublestar glob (e.g. "tEXt", "zTXt",
// "iCCP", or a pattern like "*TXt"). Critical chunks can never be
// skipped this way.
func WithSkipChunks(patterns ...string) PNGOption {
	return func(o *png.Options) {
		o.SkipChunks = append(o.SkipChunks, patterns...)
	}
}

// WithVerifyAdler32 enables verification of the zlib Adler-32 trailer
// following the concatenated IDAT payload. It is off by default, matching
// the source, but unlike the source the check is always available.
func WithVerifyAdler32() PNGOption {
	return func(o *png.Options) { o.VerifyAdler32 = true }
}

// WithTolerateCRCMismatch downgrades a PNG chunk CRC mismatch from a
// fatal error to a best-effort continuation (spec §4.4/§7).
func WithTolerateCRCMismatch() PNGOption {
	return func(o *png.Options) { o.TolerateCRCMismatch = true }
}

// GetPNGSize parses only the PNG signature and IHDR chunk of compressed,
// returning the image's pixel dimensions without decoding any pixel
// data.
func GetPNGSize(compressed []byte) (width, height int, err error) {
	return png.GetSize(compressed)
}

// ScratchSize returns the exact DEFLATE scratch size DecodePNG needs for
// a PNG with the given dimensions and color type, per spec §5/§13.
func ScratchSize(width, height int, colorType uint8) int {
	return png.ScratchSize(png.Header{Width: width, Height: height, ColorType: png.ColorType(colorType)})
}

// DecodePNG decodes a complete PNG file (signature + chunks, RFC 2083)
// into output, which must be exactly width*height*4 bytes (RGBA),
// where width/height come from GetPNGSize. scratch is optional
// caller-owned working memory for the DEFLATE pass, used when it holds at
// least ScratchSize bytes; a nil or shorter scratch causes the decoder to
// allocate its own.
func DecodePNG(compressed []byte, output, scratch []byte, opts ...PNGOption) error {
	var o png.Options
	for _, opt := range opts {
		opt(&o)
	}
	return png.Decode(compressed, output, scratch, o)
}
