package linalg

import (
	"testing"

	"go.viam.com/test"
)

func TestJacobiEigenDiagonal(t *testing.T) {
	a := []float64{
		3, 0, 0,
		0, 1, 0,
		0, 0, 2,
	}
	values, _ := JacobiEigen(a, 3)
	test.That(t, values[0], test.ShouldAlmostEqual, 3, 1e-8)
	test.That(t, values[1], test.ShouldAlmostEqual, 2, 1e-8)
	test.That(t, values[2], test.ShouldAlmostEqual, 1, 1e-8)
}

func TestJacobiEigenSymmetric(t *testing.T) {
	a := []float64{
		2, 1,
		1, 2,
	}
	values, vectors := JacobiEigen(a, 2)
	test.That(t, values[0], test.ShouldAlmostEqual, 3, 1e-8)
	test.That(t, values[1], test.ShouldAlmostEqual, 1, 1e-8)

	// Av = lambda v for the top eigenpair.
	v0 := []float64{vectors[0*2+0], vectors[1*2+0]}
	av0 := []float64{a[0]*v0[0] + a[1]*v0[1], a[2]*v0[0] + a[3]*v0[1]}
	test.That(t, av0[0], test.ShouldAlmostEqual, values[0]*v0[0], 1e-6)
	test.That(t, av0[1], test.ShouldAlmostEqual, values[0]*v0[1], 1e-6)
}

func TestSmallestEigenvectorN(t *testing.T) {
	a := []float64{
		5, 0, 0,
		0, 1, 0,
		0, 0, 9,
	}
	v := SmallestEigenvectorN(a, 3)
	test.That(t, v[1]*v[1], test.ShouldAlmostEqual, 1, 1e-8)
}
