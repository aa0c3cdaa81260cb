package png

import "hash/adler32"

// adler32 computes the zlib-stream checksum trailing the concatenated
// IDAT payload. Unlike CRC-32 (spec §4.6, a named core component this
// package hand-rolls), Adler-32 verification is an open question the
// spec leaves optional (§13) — there is no domain-stack library in the
// corpus for it and no component budget allotted to reimplementing it,
// so the standard library's implementation is used directly.
func adler32Sum(b []byte) uint32 {
	return adler32.Checksum(b)
}
