package spatialmath

import "github.com/golang/geo/r3"

// Pose is a rigid transform: a position plus an orientation, following
// go.viam.com/rdk/spatialmath.Pose. Viewpoints (§3) and the alignment /
// two-view / PnP / vanishing-point packages all build and consume Poses
// rather than raw position+quaternion pairs.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
	Quaternion() Quaternion
}

type pose struct {
	point       r3.Vector
	orientation Orientation
}

// NewPose builds a Pose from an explicit point and orientation.
func NewPose(point r3.Vector, o Orientation) Pose {
	if o == nil {
		o = Quaternion{Real: 1}
	}
	return &pose{point: point, orientation: o}
}

// NewPoseFromPoint builds a Pose with identity orientation.
func NewPoseFromPoint(point r3.Vector) Pose {
	return &pose{point: point, orientation: Quaternion{Real: 1}}
}

// NewPoseFromOrientation builds a Pose from a point and an Orientation
// value (quaternion, OrientationVector, or OrientationVectorDegrees).
func NewPoseFromOrientation(point r3.Vector, o Orientation) Pose {
	return NewPose(point, o)
}

// NewZeroPose returns the identity pose at the origin.
func NewZeroPose() Pose {
	return &pose{orientation: Quaternion{Real: 1}}
}

func (p *pose) Point() r3.Vector         { return p.point }
func (p *pose) Orientation() Orientation { return p.orientation }
func (p *pose) Quaternion() Quaternion   { return p.orientation.Quaternion() }

// Compose returns the pose equivalent to applying `b` in `a`'s frame, i.e.
// a * b.
func Compose(a, b Pose) Pose {
	aq := a.Quaternion()
	rotated := aq.RotatePoint(b.Point())
	return NewPose(a.Point().Add(rotated), aq.Mul(b.Quaternion()))
}

// PoseInverse returns the pose that undoes p.
func PoseInverse(p Pose) Pose {
	qInv := p.Quaternion().Inv()
	return NewPose(qInv.RotatePoint(p.Point()).Mul(-1), qInv)
}
