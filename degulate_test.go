package degulate

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestInflateStoredHi(t *testing.T) {
	in := []byte{0x01, 0x02, 0x00, 0xFD, 0xFF, 0x48, 0x69}
	out := make([]byte, 2)
	n, err := Inflate(out, nil, in)
	if err != nil {
		t.Fatalf("Inflate: %v", err)
	}
	if n != 2 || !bytes.Equal(out, []byte("Hi")) {
		t.Fatalf("output = %q; want %q", out[:n], "Hi")
	}
}

const rgba1x1Hex = "89504e470d0a1a0a0000000d49484452000000010000000108060000001f15c4890000000d4944415478da63f8cfc0f01f00050001ff56c72f0d0000000049454e44ae426082"

func TestDecodePNGRoundTrip(t *testing.T) {
	compressed, err := hex.DecodeString(rgba1x1Hex)
	if err != nil {
		t.Fatalf("hex.DecodeString: %v", err)
	}
	w, h, err := GetPNGSize(compressed)
	if err != nil {
		t.Fatalf("GetPNGSize: %v", err)
	}
	if w != 1 || h != 1 {
		t.Fatalf("GetPNGSize = %d,%d; want 1,1", w, h)
	}
	out := make([]byte, w*h*4)
	if err := DecodePNG(compressed, out, nil); err != nil {
		t.Fatalf("DecodePNG: %v", err)
	}
	want := []byte{0xFF, 0x00, 0x00, 0xFF}
	if !bytes.Equal(out, want) {
		t.Fatalf("output = % x; want % x", out, want)
	}
}

func TestDecodePNGWithSkipChunksOption(t *testing.T) {
	compressed, err := hex.DecodeString(rgba1x1Hex)
	if err != nil {
		t.Fatalf("hex.DecodeString: %v", err)
	}
	out := make([]byte, 4)
	// No tEXt chunk is present in this fixture; the option must be a
	// harmless no-op rather than an error.
	if err := DecodePNG(compressed, out, nil, WithSkipChunks("tEXt", "zTXt")); err != nil {
		t.Fatalf("DecodePNG with WithSkipChunks: %v", err)
	}
}

func TestCodeOfRoundTrip(t *testing.T) {
	in := []byte{0x01, 0x02, 0x00, 0x00, 0x00} // malformed NLEN
	out := make([]byte, 2)
	_, err := Inflate(out, nil, in)
	if err == nil {
		t.Fatal("Inflate: want error")
	}
	if code, ok := CodeOf(err); !ok || code != CodeMalformedSignature {
		t.Fatalf("CodeOf = %v, %v; want CodeMalformedSignature, true", code, ok)
	}
}
