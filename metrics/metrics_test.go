package metrics

import (
	"encoding/hex"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const rgba1x1Hex = "89504e470d0a1a0a0000000d49484452000000010000000108060000001f15c4890000000d4944415478da63f8cfc0f01f00050001ff56c72f0d0000000049454e44ae426082"

func TestRegisterAndInstrument(t *testing.T) {
	c := NewCollectors()
	reg := prometheus.NewRegistry()
	if err := c.Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}

	compressed, err := hex.DecodeString(rgba1x1Hex)
	if err != nil {
		t.Fatalf("hex.DecodeString: %v", err)
	}
	out := make([]byte, 4)
	if err := Instrument(c, compressed, out, nil); err != nil {
		t.Fatalf("Instrument: %v", err)
	}

	var m dto.Metric
	if err := c.DecodeLatency.Write(&m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if m.Histogram == nil || m.Histogram.GetSampleCount() != 1 {
		t.Fatalf("DecodeLatency sample count = %v; want 1", m.Histogram)
	}
}

func TestDoubleRegisterFails(t *testing.T) {
	c := NewCollectors()
	reg := prometheus.NewRegistry()
	if err := c.Register(reg); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := c.Register(reg); err == nil {
		t.Fatal("second Register: want error for duplicate registration")
	}
}
