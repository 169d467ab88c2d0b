package embeddings

import (
	"errors"
	"math"
	"reflect"
	"testing"

	interrors "github.com/riskymind/nkem-ai-note/internal/errors"
)

func TestVectorCodecRoundTrip(t *testing.T) {
	vector := []float64{0.0, 1.5, -2.25, math.Pi, math.MaxFloat64}

	decoded, err := BytesToVector(VectorToBytes(vector))
	if err != nil {
		t.Fatalf("Failed to decode vector: %v", err)
	}

	if !reflect.DeepEqual(decoded, vector) {
		t.Errorf("Round trip mismatch: %v != %v", decoded, vector)
	}
}

func TestBytesToVector_InvalidLength(t *testing.T) {
	_, err := BytesToVector(make([]byte, 13))
	if !errors.Is(err, interrors.ErrInvalidEmbeddingLength) {
		t.Errorf("Expected ErrInvalidEmbeddingLength, got %v", err)
	}
}

func TestBytesToVector_Empty(t *testing.T) {
	vector, err := BytesToVector(nil)
	if err != nil {
		t.Fatalf("Empty blob should decode: %v", err)
	}
	if len(vector) != 0 {
		t.Errorf("Expected empty vector, got %v", vector)
	}
}

func TestVectorToFloat32(t *testing.T) {
	narrowed := VectorToFloat32([]float64{1.5, -2.5})
	if len(narrowed) != 2 || narrowed[0] != 1.5 || narrowed[1] != -2.5 {
		t.Errorf("Unexpected narrowing result: %v", narrowed)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float64
		expected float64
	}{
		{"identical", []float64{1, 0}, []float64{1, 0}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"length mismatch", []float64{1, 0}, []float64{1}, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}
