package bitio

import "testing"

func TestPeekConsumeLSBFirst(t *testing.T) {
	// byte 0: 1011 0010 (bit 0 = 0, consumed first)
	r := New([]byte{0b1011_0010, 0b0000_0001})

	v, ok := r.Peek(4)
	if !ok || v != 0b0010 {
		t.Fatalf("Peek(4) = %#x, %v; want 0x2, true", v, ok)
	}
	// Peek must not advance.
	v, ok = r.Peek(4)
	if !ok || v != 0b0010 {
		t.Fatalf("second Peek(4) = %#x, %v; want 0x2, true", v, ok)
	}

	r.Discard(4)
	v, ok = r.Consume(4)
	if !ok || v != 0b1011 {
		t.Fatalf("Consume(4) = %#x, %v; want 0xb, true", v, ok)
	}

	v, ok = r.Consume(8)
	if !ok || v != 1 {
		t.Fatalf("Consume(8) = %#x, %v; want 1, true", v, ok)
	}
}

func TestConsumeAcrossByteBoundary(t *testing.T) {
	r := New([]byte{0xFF, 0x00, 0xFF})
	v, ok := r.Consume(12)
	if !ok {
		t.Fatal("Consume(12) failed")
	}
	if v != 0x0FF {
		t.Fatalf("Consume(12) = %#x; want 0x0ff", v)
	}
}

func TestAlignToByte(t *testing.T) {
	r := New([]byte{0xAB, 0xCD})
	r.Consume(3)
	r.AlignToByte()
	v, ok := r.Consume(8)
	if !ok || v != 0xCD {
		t.Fatalf("after align, Consume(8) = %#x, %v; want 0xcd, true", v, ok)
	}
	// Idempotent once aligned.
	r.AlignToByte()
	if r.BitsAvailable() != 0 {
		t.Fatalf("BitsAvailable() = %d; want 0", r.BitsAvailable())
	}
}

func TestExhaustion(t *testing.T) {
	r := New([]byte{0x01})
	if _, ok := r.Peek(16); ok {
		t.Fatal("Peek(16) on a single byte should fail")
	}
	if _, ok := r.Consume(16); ok {
		t.Fatal("Consume(16) on a single byte should fail")
	}
}

func TestReadBytes(t *testing.T) {
	r := New([]byte{1, 2, 3, 4})
	buf := make([]byte, 3)
	if !r.ReadBytes(buf) {
		t.Fatal("ReadBytes failed")
	}
	if buf[0] != 1 || buf[1] != 2 || buf[2] != 3 {
		t.Fatalf("ReadBytes got %v", buf)
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d; want 1", r.Len())
	}
}

func Test32BitConsume(t *testing.T) {
	r := New([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F})
	v, ok := r.Consume(32)
	if !ok || v != 0xFFFFFFFF {
		t.Fatalf("Consume(32) = %#x, %v; want 0xffffffff, true", v, ok)
	}
	v, ok = r.Consume(4)
	if !ok || v != 0xF {
		t.Fatalf("Consume(4) = %#x, %v; want 0xf, true", v, ok)
	}
}
