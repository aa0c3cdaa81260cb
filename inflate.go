package degulate

import "github.com/tzneal/degulate/internal/deflate"

// Inflate decompresses a raw DEFLATE stream (RFC 1951, no zlib wrapper)
// from input into output, returning the number of bytes written. output
// must already be sized to hold the decompressed data. scratch is
// accepted but not used: the Huffman tables and the dynamic-block
// code-length vector are allocated by Inflate on every call, whether or
// not scratch is nil.
func Inflate(output, scratch, input []byte) (int, error) {
	return deflate.Inflate(output, scratch, input)
}
