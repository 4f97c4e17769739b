package utils

import (
	"math"
	"testing"
)

func TestDot(t *testing.T) {
	if got := Dot([]float64{1, 2, 3}, []float64{4, 5, 6}); got != 32 {
		t.Errorf("Dot = %v, want 32", got)
	}
	if got := Dot([]float64{1, 2}, []float64{3}); got != 3 {
		t.Errorf("Dot over common length = %v, want 3", got)
	}
}

func TestNormalizeL2(t *testing.T) {
	x := []float64{3, 4}
	NormalizeL2(x)
	if math.Abs(x[0]-0.6) > 1e-12 || math.Abs(x[1]-0.8) > 1e-12 {
		t.Errorf("got %v, want [0.6 0.8]", x)
	}

	zero := []float64{0, 0}
	NormalizeL2(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector changed: %v", zero)
	}
}

func TestNormalized_doesNotMutate(t *testing.T) {
	x := []float64{0, 2}
	out := Normalized(x)
	if x[1] != 2 {
		t.Error("input mutated")
	}
	if out[1] != 1 {
		t.Errorf("got %v", out)
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2}, []float64{1, 2}, 1},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"zero", []float64{0, 0}, []float64{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Cosine = %v, want %v", got, tt.want)
			}
		})
	}
}
