package spatialmath

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestNewRotationMatrixRejectsNonOrthonormal(t *testing.T) {
	_, err := NewRotationMatrix([]float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 2,
	})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNewRotationMatrixRejectsWrongLength(t *testing.T) {
	_, err := NewRotationMatrix([]float64{1, 0, 0})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNewRotationMatrixAcceptsIdentity(t *testing.T) {
	m, err := NewRotationMatrix([]float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.At(0, 0), test.ShouldAlmostEqual, 1)
}

func TestRotationMatrixTransposeIsInverse(t *testing.T) {
	q := NewQuaternionFromAxisAngle(r3.Vector{X: 1, Y: 0.5, Z: -0.3}, 1.1)
	m := q.ToRotationMatrix()
	mt := m.Transpose()

	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += m.At(r, k) * mt.At(k, c)
			}
			expected := 0.0
			if r == c {
				expected = 1.0
			}
			test.That(t, sum, test.ShouldAlmostEqual, expected, 1e-8)
		}
	}
}
