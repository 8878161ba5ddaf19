package domain

import (
	"errors"
	"math"
	"testing"
)

func TestCosineSimilarity_SelfIsOne(t *testing.T) {
	vectors := [][]float32{
		{1, 0, 0, 0},
		{0.3, -0.7, 0.2, 0.9},
		{5, 5, 5},
	}
	for _, v := range vectors {
		sim, err := CosineSimilarity(v, v)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(sim-1.0) > 1e-9 {
			t.Errorf("cosine(v, v) = %f, want 1.0", sim)
		}
	}
}

func TestCosineSimilarity_Symmetric(t *testing.T) {
	a := []float32{0.9, 0.1, 0, 0}
	b := []float32{0.2, 0.5, 0.8, 0.1}

	ab, err := CosineSimilarity(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ba, err := CosineSimilarity(b, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ab != ba {
		t.Errorf("cosine(a,b) = %f != cosine(b,a) = %f", ab, ba)
	}
}

func TestCosineSimilarity_Bounds(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"parallel", []float32{2, 0}, []float32{7, 0}, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sim, err := CosineSimilarity(tc.a, tc.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(sim-tc.want) > 1e-9 {
				t.Errorf("got %f, want %f", sim, tc.want)
			}
			if sim < -1 || sim > 1 {
				t.Errorf("similarity %f outside [-1, 1]", sim)
			}
		})
	}
}

func TestCosineSimilarity_DimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}

	var de *DimensionError
	if !errors.As(err, &de) {
		t.Fatal("expected *DimensionError")
	}
	if de.Got != 2 || de.Want != 3 {
		t.Errorf("got %d/%d, want 2/3", de.Got, de.Want)
	}
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	sim, err := CosineSimilarity([]float32{0, 0}, []float32{1, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sim != 0 {
		t.Errorf("got %f, want 0 for zero vector", sim)
	}
}

func TestClampSimilarity(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.0000001, 1},
	}
	for _, tc := range tests {
		if got := ClampSimilarity(tc.in); got != tc.want {
			t.Errorf("ClampSimilarity(%f) = %f, want %f", tc.in, got, tc.want)
		}
	}
}

func TestConfidencePercent(t *testing.T) {
	tests := []struct {
		sim  float64
		want int
	}{
		{1.0, 100},
		{0.85, 85},
		{0.994, 99},
		{0.996, 100},
		{-0.3, 0},
		{0, 0},
	}
	for _, tc := range tests {
		if got := ConfidencePercent(tc.sim); got != tc.want {
			t.Errorf("ConfidencePercent(%f) = %d, want %d", tc.sim, got, tc.want)
		}
	}
}

func TestConfidencePercent_NearIdenticalVoiceprint(t *testing.T) {
	registered := []float32{1, 0, 0, 0}
	sample := []float32{0.99, 0.01, 0, 0}

	sim, err := CosineSimilarity(registered, sample)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ConfidencePercent(sim); got != 100 {
		// cos([1,0,0,0], [0.99,0.01,0,0]) = 0.99/|0.99,0.01| ≈ 0.99995
		t.Errorf("confidence = %d, want 100", got)
	}
}
