package arena

import "testing"

func TestNewSizesAtLeastRequested(t *testing.T) {
	r, err := New(4096)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Release()
	if got := len(r.Bytes()); got < 4096 {
		t.Fatalf("len(Bytes()) = %d; want >= 4096", got)
	}
}

func TestNewZeroSize(t *testing.T) {
	r, err := New(0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Release()
	if r.Bytes() == nil {
		t.Fatal("Bytes() = nil; want non-nil buffer")
	}
}

func TestReleaseIdempotent(t *testing.T) {
	r, err := New(64)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.Release()
	r.Release()
}
