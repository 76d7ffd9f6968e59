package fontogether

import (
	"math"
	"testing"
)

func TestMatrix_Transform(t *testing.T) {
	tests := []struct {
		name   string
		m      Matrix
		in     Point
		expect Point
	}{
		{"identity", Identity(), Pt(3, 4), Pt(3, 4)},
		{"translate", Translate(10, -5), Pt(1, 1), Pt(11, -4)},
		{"scale", Scale(2, -1), Pt(3, 4), Pt(6, -4)},
		{"rotate 90", Rotate(math.Pi / 2), Pt(1, 0), Pt(0, 1)},
		// Multiply applies its argument first.
		{"scale then translate", Translate(10, 0).Multiply(Scale(2, 2)), Pt(1, 1), Pt(12, 2)},
		{"translate then scale", Scale(2, 2).Multiply(Translate(10, 0)), Pt(1, 1), Pt(22, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.TransformPoint(tt.in); !got.Approx(tt.expect, 1e-12) {
				t.Errorf("TransformPoint(%v) = %v, want %v", tt.in, got, tt.expect)
			}
		})
	}
}

func TestMatrix_TransformVectorIgnoresTranslation(t *testing.T) {
	m := Translate(100, 100).Multiply(Scale(3, 3))
	if got := m.TransformVector(V2(1, -1)); got != V2(3, -3) {
		t.Errorf("TransformVector = %v, want (3,-3)", got)
	}
}

func TestMatrix_InvertSingular(t *testing.T) {
	if got := Scale(0, 1).Invert(); !got.IsIdentity() {
		t.Errorf("Invert of singular matrix = %+v, want identity", got)
	}
	m := Rotate(0.3).Multiply(Scale(2, 0.5))
	if got := m.Multiply(m.Invert()); !pointsEqual(got.TransformPoint(Pt(5, 7)), Pt(5, 7), 1e-9) {
		t.Errorf("m * m^-1 = %+v", got)
	}
	if Translate(1, 0).IsIdentity() || !Scale(1, 1).IsIdentity() {
		t.Error("IsIdentity misclassified")
	}
}
