package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// Orientation is implemented by every rotation representation that can be
// converted to a Quaternion, following the go.viam.com/rdk/spatialmath
// convention where Pose.Orientation() returns this interface rather than a
// concrete quaternion or Euler type.
type Orientation interface {
	Quaternion() Quaternion
	OrientationVectorRadians() *OrientationVector
}

// OrientationVector describes an orientation as a unit direction vector
// (OX, OY, OZ) the +Z axis of the frame points along, plus a Theta rotation
// about that direction -- the representation go.viam.com/rdk/spatialmath
// exposes as OrientationVectorDegrees/Radians and that motionplan's IK
// tests build goals with directly.
type OrientationVector struct {
	Theta  float64
	OX, OY, OZ float64
}

// OrientationVectorDegrees is OrientationVector with Theta in degrees, the
// form user-facing configuration uses.
type OrientationVectorDegrees struct {
	Theta      float64
	OX, OY, OZ float64
}

// Quaternion implements Orientation.
func (ov *OrientationVector) Quaternion() Quaternion {
	dir := r3.Vector{X: ov.OX, Y: ov.OY, Z: ov.OZ}
	n := dir.Norm()
	if n < 1e-12 {
		dir = r3.Vector{Z: 1}
	} else {
		dir = dir.Mul(1 / n)
	}
	zAxis := r3.Vector{Z: 1}
	alignment := QuaternionFromRotationBetweenVectors(zAxis, dir)
	spin := NewQuaternionFromAxisAngle(dir, ov.Theta)
	return spin.Mul(alignment)
}

// OrientationVectorRadians implements Orientation.
func (ov *OrientationVector) OrientationVectorRadians() *OrientationVector { return ov }

// Quaternion implements Orientation.
func (ov *OrientationVectorDegrees) Quaternion() Quaternion {
	r := &OrientationVector{Theta: ov.Theta * math.Pi / 180, OX: ov.OX, OY: ov.OY, OZ: ov.OZ}
	return r.Quaternion()
}

// OrientationVectorRadians implements Orientation.
func (ov *OrientationVectorDegrees) OrientationVectorRadians() *OrientationVector {
	return &OrientationVector{Theta: ov.Theta * math.Pi / 180, OX: ov.OX, OY: ov.OY, OZ: ov.OZ}
}

// Quaternion implements Orientation (identity conversion).
func (q Quaternion) Quaternion() Quaternion { return q }

// OrientationVectorRadians implements Orientation by converting the
// quaternion's rotated +Z axis and swing angle into the (OX,OY,OZ,Theta)
// representation.
func (q Quaternion) OrientationVectorRadians() *OrientationVector {
	dir := q.RotatePoint(r3.Vector{Z: 1})
	// Theta is recovered as the residual rotation about dir after aligning
	// +Z to dir: compose q with the inverse of the alignment-only rotation.
	alignment := QuaternionFromRotationBetweenVectors(r3.Vector{Z: 1}, dir)
	spin := q.Mul(alignment.Inv())
	theta := 2 * math.Atan2(spin.Imag*dir.X+spin.Jmag*dir.Y+spin.Kmag*dir.Z, spin.Real)
	return &OrientationVector{Theta: theta, OX: dir.X, OY: dir.Y, OZ: dir.Z}
}
