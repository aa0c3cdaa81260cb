package png

// crcTable is the standard reflected CRC-32 table PNG chunks use
// (polynomial 0xEDB88320), generated once at package init the way spec
// §4.6 describes rather than hardcoded, so the generation algorithm
// itself is part of what this package demonstrates.
var crcTable [256]uint32

func init() {
	for n := uint32(0); n < 256; n++ {
		c := n
		for i := 0; i < 8; i++ {
			if c&1 != 0 {
				c = 0xEDB88320 ^ (c >> 1)
			} else {
				c >>= 1
			}
		}
		crcTable[n] = c
	}
}

// crc32Update folds b into the running CRC crc, continuing a computation
// started with crc=0xFFFFFFFF. Callers XOR the final value with
// 0xFFFFFFFF to get the stored/comparable checksum.
func crc32Update(crc uint32, b []byte) uint32 {
	for _, v := range b {
		crc = crcTable[byte(crc)^v] ^ (crc >> 8)
	}
	return crc
}

// crc32Chunk computes a chunk's CRC-32 over its type and data, per PNG's
// convention: seed 0xFFFFFFFF, fold type then data, final XOR
// 0xFFFFFFFF.
func crc32Chunk(typ [4]byte, data []byte) uint32 {
	crc := crc32Update(0xFFFFFFFF, typ[:])
	crc = crc32Update(crc, data)
	return crc ^ 0xFFFFFFFF
}
