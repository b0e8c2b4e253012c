package store

import (
	"math"
	"testing"
)

func TestVectorRoundTrip(t *testing.T) {
	original := []float32{1.0, -0.5, 0.333, math.Pi, 0.0, -1e-7}
	blob := EncodeVector(original)

	if len(blob) != 4*len(original) {
		t.Fatalf("blob length = %d, want %d", len(blob), 4*len(original))
	}

	decoded := DecodeVector(blob)
	if len(decoded) != len(original) {
		t.Fatalf("length mismatch: %d vs %d", len(decoded), len(original))
	}
	for i := range original {
		if decoded[i] != original[i] {
			t.Errorf("index %d: got %f, want %f", i, decoded[i], original[i])
		}
	}
}

func TestEncodeVectorEmpty(t *testing.T) {
	if blob := EncodeVector(nil); blob != nil {
		t.Errorf("EncodeVector(nil) = %v, want nil", blob)
	}
	if blob := EncodeVector([]float32{}); blob != nil {
		t.Errorf("EncodeVector(empty) = %v, want nil", blob)
	}
}

func TestDecodeVectorDegradesGracefully(t *testing.T) {
	tests := []struct {
		name string
		blob []byte
	}{
		{"nil", nil},
		{"empty", []byte{}},
		{"three bytes", []byte{0x01, 0x02, 0x03}},
		{"five bytes", []byte{0x01, 0x02, 0x03, 0x04, 0x05}},
	}

	for _, tt := range tests {
		if vec := DecodeVector(tt.blob); len(vec) != 0 {
			t.Errorf("DecodeVector(%s) = %v, want empty", tt.name, vec)
		}
	}
}
