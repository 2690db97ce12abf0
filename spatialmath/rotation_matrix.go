package spatialmath

import (
	"math"

	"github.com/pkg/errors"
)

// RotationMatrix is a 3x3 rotation matrix, stored row-major.
type RotationMatrix struct {
	mat [9]float64
}

// NewRotationMatrix builds a RotationMatrix from nine row-major values,
// rejecting inputs that are not (approximately) orthonormal with
// determinant +1 -- the same validation spec.md §7 calls out ("rotation
// matrix not orthonormal" is a degenerate-geometry failure).
func NewRotationMatrix(vals []float64) (*RotationMatrix, error) {
	if len(vals) != 9 {
		return nil, errors.Errorf("rotation matrix requires 9 values, got %d", len(vals))
	}
	m := &RotationMatrix{}
	copy(m.mat[:], vals)
	if !m.isOrthonormal(1e-4) {
		return nil, errors.New("rotation matrix is not orthonormal")
	}
	return m, nil
}

// At returns the entry at (row, col), 0-indexed.
func (m *RotationMatrix) At(row, col int) float64 { return m.mat[row*3+col] }

func (m *RotationMatrix) isOrthonormal(tol float64) bool {
	// columns should be unit length and mutually orthogonal; determinant +1.
	cols := [3][3]float64{
		{m.mat[0], m.mat[3], m.mat[6]},
		{m.mat[1], m.mat[4], m.mat[7]},
		{m.mat[2], m.mat[5], m.mat[8]},
	}
	for i := 0; i < 3; i++ {
		n := math.Sqrt(cols[i][0]*cols[i][0] + cols[i][1]*cols[i][1] + cols[i][2]*cols[i][2])
		if math.Abs(n-1) > tol {
			return false
		}
	}
	det := m.mat[0]*(m.mat[4]*m.mat[8]-m.mat[5]*m.mat[7]) -
		m.mat[1]*(m.mat[3]*m.mat[8]-m.mat[5]*m.mat[6]) +
		m.mat[2]*(m.mat[3]*m.mat[7]-m.mat[4]*m.mat[6])
	return math.Abs(det-1) < tol*10
}

// Quaternion converts this rotation matrix to a quaternion.
func (m *RotationMatrix) Quaternion() Quaternion {
	return QuaternionFromRotationMatrix(m)
}

// Transpose returns the transpose, which for an orthonormal matrix is also
// its inverse.
func (m *RotationMatrix) Transpose() *RotationMatrix {
	return &RotationMatrix{mat: [9]float64{
		m.mat[0], m.mat[3], m.mat[6],
		m.mat[1], m.mat[4], m.mat[7],
		m.mat[2], m.mat[5], m.mat[8],
	}}
}
