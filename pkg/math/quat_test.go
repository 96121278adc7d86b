package math

import (
	"testing"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
	if !q.IsIdentity() {
		t.Error("IsIdentity() = false for QuatIdentity()")
	}
}

func TestQuatNormalize(t *testing.T) {
	q := Quat{X: 1, Y: 2, Z: 3, W: 4}
	n := q.Normalize()

	length := n.X*n.X + n.Y*n.Y + n.Z*n.Z + n.W*n.W
	if abs(length-1.0) > 0.0001 {
		t.Errorf("Normalized quaternion length should be 1, got %v", length)
	}
}

func TestQuatNormalizeDegenerate(t *testing.T) {
	if got := (Quat{}).Normalize(); !got.IsIdentity() {
		t.Errorf("Normalize of zero quaternion = %v, want identity", got)
	}
}

func TestQuatToMat4MatchesRotateX(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{X: 1}, Radians(-90))
	a := q.ToMat4()
	b := RotateX(Radians(-90))
	for i := range a {
		if abs(a[i]-b[i]) > 1e-5 {
			t.Fatalf("element %d: quat = %f, RotateX = %f", i, a[i], b[i])
		}
	}
}

func TestQuatArrayRoundTrip(t *testing.T) {
	raw := [4]float32{0.1, 0.2, 0.3, 0.9}
	if got := QuatFromArray(raw).Array(); got != raw {
		t.Errorf("Array() = %v, want %v", got, raw)
	}
}

func TestQuatMulIdentity(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{Y: 1}, Radians(45))
	if got := q.Mul(QuatIdentity()); got != q {
		t.Errorf("q * identity = %v, want %v", got, q)
	}
}
