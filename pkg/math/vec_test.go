package math

import (
	"testing"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Normalize(t *testing.T) {
	v := Vec3{3, 0, 4}
	n := v.Normalize()
	l := n.Length()
	if l < 0.999 || l > 1.001 {
		t.Errorf("Vec3.Normalize().Length() = %v, want ~1", l)
	}
	if (Vec3{}).Normalize() != (Vec3{}) {
		t.Error("Normalize of zero vector should stay zero")
	}
}

func TestVec3MinMax(t *testing.T) {
	a := Vec3{1, -2, 3}
	b := Vec3{-1, 2, 3}

	if got, want := a.Min(b), (Vec3{-1, -2, 3}); got != want {
		t.Errorf("Min() = %v, want %v", got, want)
	}
	if got, want := a.Max(b), (Vec3{1, 2, 3}); got != want {
		t.Errorf("Max() = %v, want %v", got, want)
	}
}

func TestTriangleNormal(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c Vec3
		want    Vec3
	}{
		{"counter-clockwise XY", Vec3{0, 0, 0}, Vec3{1, 0, 0}, Vec3{0, 1, 0}, Vec3{0, 0, 1}},
		{"clockwise XY", Vec3{0, 0, 0}, Vec3{0, 1, 0}, Vec3{1, 0, 0}, Vec3{0, 0, -1}},
		{"scaled triangle", Vec3{0, 0, 0}, Vec3{0, 0, 5}, Vec3{5, 0, 0}, Vec3{0, 1, 0}},
		{"degenerate", Vec3{1, 1, 1}, Vec3{1, 1, 1}, Vec3{2, 2, 2}, Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TriangleNormal(tt.a, tt.b, tt.c); got != tt.want {
				t.Errorf("TriangleNormal() = %v, want %v", got, tt.want)
			}
		})
	}
}
