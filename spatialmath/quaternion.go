package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Quaternion is a unit-norm rotation represented in [w, x, y, z] order,
// matching spec.md §3's "Quaternion order is [w, x, y, z]." It is a thin
// wrapper over gonum's quat.Number so the Hamilton-product algebra below
// can reuse quat.Mul/quat.Conj the way go.viam.com/rdk/kinematics/kinmath
// does, instead of hand-rolling a second quaternion type.
type Quaternion quat.Number

// W, X, Y, Z report the scalar and vector components.
func (q Quaternion) W() float64 { return q.Real }
func (q Quaternion) X() float64 { return q.Imag }
func (q Quaternion) Y() float64 { return q.Jmag }
func (q Quaternion) Z() float64 { return q.Kmag }

func toQuatNumber(q Quaternion) quat.Number { return quat.Number(q) }

// Norm returns the Euclidean norm of the quaternion's four components.
func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
}

// Normalized returns q / ||q||. If q is the zero quaternion, the identity
// rotation is returned rather than dividing by zero.
func (q Quaternion) Normalized() Quaternion {
	n := q.Norm()
	if n < 1e-15 {
		return Quaternion{Real: 1}
	}
	return Quaternion(quat.Scale(1/n, toQuatNumber(q)))
}

// Mul computes the Hamilton product q * r.
func (q Quaternion) Mul(r Quaternion) Quaternion {
	return Quaternion(quat.Mul(toQuatNumber(q), toQuatNumber(r)))
}

// Conj returns the conjugate [w, -x, -y, -z].
func (q Quaternion) Conj() Quaternion {
	return Quaternion(quat.Conj(toQuatNumber(q)))
}

// Inv returns the inverse rotation. For a unit quaternion this equals the
// conjugate; for a non-unit one it is conj(q)/||q||^2, matching spec.md
// §4.1's "inverse (conjugate for unit q)."
func (q Quaternion) Inv() Quaternion {
	n2 := q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag
	if n2 < 1e-30 {
		return Quaternion{Real: 1}
	}
	c := q.Conj()
	return Quaternion(quat.Scale(1/n2, toQuatNumber(c)))
}

// RotatePoint rotates v by this quaternion using the closed-form
//
//	v' = v + 2w(q_vec x v) + 2(q_vec x (q_vec x v))
//
// per spec.md §4.1, avoiding the cost of two full quaternion products.
func (q Quaternion) RotatePoint(v r3.Vector) r3.Vector {
	qv := r3.Vector{X: q.Imag, Y: q.Jmag, Z: q.Kmag}
	t := qv.Cross(v).Mul(2)
	return v.Add(t.Mul(q.Real)).Add(qv.Cross(t))
}

// NewQuaternion builds a Quaternion from explicit components, normalizing
// it so callers never have to remember to.
func NewQuaternion(w, x, y, z float64) Quaternion {
	return Quaternion{Real: w, Imag: x, Jmag: y, Kmag: z}.Normalized()
}

// NewQuaternionFromAxisAngle builds the rotation of theta radians about the
// (not necessarily unit) axis.
func NewQuaternionFromAxisAngle(axis r3.Vector, theta float64) Quaternion {
	n := axis.Norm()
	if n < 1e-15 {
		return Quaternion{Real: 1}
	}
	axis = axis.Mul(1 / n)
	half := theta / 2
	s := math.Sin(half)
	return Quaternion{Real: math.Cos(half), Imag: axis.X * s, Jmag: axis.Y * s, Kmag: axis.Z * s}
}

// QuaternionFromRotationBetweenVectors returns the shortest-arc rotation
// taking (a normalized) `from` onto `to`. The antiparallel case (from ==
// -to) has no unique axis; spec.md §4.1 calls for picking any orthogonal
// axis, so one is constructed from whichever world axis is least aligned
// with `from`.
func QuaternionFromRotationBetweenVectors(from, to r3.Vector) Quaternion {
	from = from.Normalize()
	to = to.Normalize()
	d := from.Dot(to)
	if d > 1-1e-12 {
		return Quaternion{Real: 1}
	}
	if d < -1+1e-12 {
		axis := r3.Vector{X: 1}.Cross(from)
		if axis.Norm() < 1e-6 {
			axis = r3.Vector{Y: 1}.Cross(from)
		}
		return NewQuaternionFromAxisAngle(axis, math.Pi)
	}
	axis := from.Cross(to)
	w := 1 + d
	return Quaternion{Real: w, Imag: axis.X, Jmag: axis.Y, Kmag: axis.Z}.Normalized()
}

// ToRotationMatrix converts this quaternion to a 3x3 rotation matrix using
// the standard quaternion-to-matrix expansion.
func (q Quaternion) ToRotationMatrix() *RotationMatrix {
	q = q.Normalized()
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return &RotationMatrix{mat: [9]float64{
		1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w),
		2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w),
		2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y),
	}}
}

// QuaternionFromRotationMatrix converts a 3x3 rotation matrix to a
// quaternion using the trace-branching formulation: pick whichever of
// (trace, m00, m11, m22) is largest as the numerically stable pivot, per
// spec.md §4.1.
func QuaternionFromRotationMatrix(m *RotationMatrix) Quaternion {
	m00, m01, m02 := m.mat[0], m.mat[1], m.mat[2]
	m10, m11, m12 := m.mat[3], m.mat[4], m.mat[5]
	m20, m21, m22 := m.mat[6], m.mat[7], m.mat[8]
	trace := m00 + m11 + m22

	var w, x, y, z float64
	switch {
	case trace > 0:
		s := math.Sqrt(trace+1) * 2
		w = s / 4
		x = (m21 - m12) / s
		y = (m02 - m20) / s
		z = (m10 - m01) / s
	case m00 > m11 && m00 > m22:
		s := math.Sqrt(1+m00-m11-m22) * 2
		w = (m21 - m12) / s
		x = s / 4
		y = (m01 + m10) / s
		z = (m02 + m20) / s
	case m11 > m22:
		s := math.Sqrt(1+m11-m00-m22) * 2
		w = (m02 - m20) / s
		x = (m01 + m10) / s
		y = s / 4
		z = (m12 + m21) / s
	default:
		s := math.Sqrt(1+m22-m00-m11) * 2
		w = (m10 - m01) / s
		x = (m02 + m20) / s
		y = (m12 + m21) / s
		z = s / 4
	}
	return Quaternion{Real: w, Imag: x, Jmag: y, Kmag: z}.Normalized()
}
