package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestPoseComposeIdentity(t *testing.T) {
	p := NewPoseFromPoint(r3.Vector{X: 1, Y: 2, Z: 3})
	id := NewZeroPose()
	got := Compose(id, p)
	test.That(t, got.Point().X, test.ShouldAlmostEqual, 1)
	test.That(t, got.Point().Y, test.ShouldAlmostEqual, 2)
	test.That(t, got.Point().Z, test.ShouldAlmostEqual, 3)
}

func TestPoseComposeInverseIsIdentity(t *testing.T) {
	q := NewQuaternionFromAxisAngle(r3.Vector{X: 0.2, Y: 1, Z: 0.4}, 0.9)
	p := NewPoseFromOrientation(r3.Vector{X: 5, Y: -2, Z: 1}, q)
	inv := PoseInverse(p)
	composed := Compose(p, inv)

	test.That(t, composed.Point().X, test.ShouldAlmostEqual, 0, 1e-8)
	test.That(t, composed.Point().Y, test.ShouldAlmostEqual, 0, 1e-8)
	test.That(t, composed.Point().Z, test.ShouldAlmostEqual, 0, 1e-8)

	cq := composed.Quaternion()
	test.That(t, math.Abs(cq.Real), test.ShouldAlmostEqual, 1, 1e-8)
}

func TestOrientationVectorRoundTrip(t *testing.T) {
	ov := &OrientationVector{Theta: 0.7, OX: 0, OY: 0, OZ: 1}
	q := ov.Quaternion()
	back := q.OrientationVectorRadians()

	test.That(t, back.OX, test.ShouldAlmostEqual, ov.OX, 1e-8)
	test.That(t, back.OY, test.ShouldAlmostEqual, ov.OY, 1e-8)
	test.That(t, back.OZ, test.ShouldAlmostEqual, ov.OZ, 1e-8)
	test.That(t, back.Theta, test.ShouldAlmostEqual, ov.Theta, 1e-8)
}
