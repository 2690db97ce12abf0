package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestQuaternionRotatePointIdentity(t *testing.T) {
	q := Quaternion{Real: 1}
	v := r3.Vector{X: 1, Y: 2, Z: 3}
	got := q.RotatePoint(v)
	test.That(t, got.X, test.ShouldAlmostEqual, v.X)
	test.That(t, got.Y, test.ShouldAlmostEqual, v.Y)
	test.That(t, got.Z, test.ShouldAlmostEqual, v.Z)
}

func TestQuaternionRotatePoint90DegAboutZ(t *testing.T) {
	q := NewQuaternionFromAxisAngle(r3.Vector{Z: 1}, math.Pi/2)
	got := q.RotatePoint(r3.Vector{X: 1})
	test.That(t, got.X, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, got.Y, test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, got.Z, test.ShouldAlmostEqual, 0, 1e-9)
}

func TestQuaternionRoundTripThroughRotationMatrix(t *testing.T) {
	q := NewQuaternionFromAxisAngle(r3.Vector{X: 0.3, Y: 0.7, Z: -0.2}, 1.234)
	m := q.ToRotationMatrix()
	back := QuaternionFromRotationMatrix(m)

	// Quaternions double-cover rotations; q and -q represent the same
	// rotation, so compare via the rotated result of a test vector.
	v := r3.Vector{X: 1, Y: 2, Z: 3}
	a := q.RotatePoint(v)
	b := back.RotatePoint(v)
	test.That(t, a.X, test.ShouldAlmostEqual, b.X, 1e-8)
	test.That(t, a.Y, test.ShouldAlmostEqual, b.Y, 1e-8)
	test.That(t, a.Z, test.ShouldAlmostEqual, b.Z, 1e-8)
}

func TestQuaternionFromRotationBetweenVectorsAntiparallel(t *testing.T) {
	from := r3.Vector{X: 1}
	to := r3.Vector{X: -1}
	q := QuaternionFromRotationBetweenVectors(from, to)
	got := q.RotatePoint(from)
	test.That(t, got.X, test.ShouldAlmostEqual, to.X, 1e-9)
	test.That(t, got.Y, test.ShouldAlmostEqual, to.Y, 1e-9)
	test.That(t, got.Z, test.ShouldAlmostEqual, to.Z, 1e-9)
}

func TestQuaternionNormalized(t *testing.T) {
	q := Quaternion{Real: 2, Imag: 0, Jmag: 0, Kmag: 0}.Normalized()
	test.That(t, q.Norm(), test.ShouldAlmostEqual, 1, 1e-12)
}

func TestQuaternionInvIsConjForUnit(t *testing.T) {
	q := NewQuaternionFromAxisAngle(r3.Vector{X: 1, Y: 1, Z: 1}, 0.5)
	inv := q.Inv()
	conj := q.Conj()
	test.That(t, inv.Real, test.ShouldAlmostEqual, conj.Real, 1e-9)
	test.That(t, inv.Imag, test.ShouldAlmostEqual, conj.Imag, 1e-9)
	test.That(t, inv.Jmag, test.ShouldAlmostEqual, conj.Jmag, 1e-9)
	test.That(t, inv.Kmag, test.ShouldAlmostEqual, conj.Kmag, 1e-9)
}
