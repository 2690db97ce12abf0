package linalg

import (
	"testing"

	"go.viam.com/test"
)

func TestCholeskySolveDampedIdentity(t *testing.T) {
	a := []float64{1, 0, 0, 1}
	b := []float64{2, 3}
	x, ok := CholeskySolveDamped(a, 2, 0, b)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, x[0], test.ShouldAlmostEqual, 2, 1e-8)
	test.That(t, x[1], test.ShouldAlmostEqual, 3, 1e-8)
}

func TestCholeskySolveDampedGeneral(t *testing.T) {
	a := []float64{
		4, 1,
		1, 3,
	}
	b := []float64{1, 2}
	x, ok := CholeskySolveDamped(a, 2, 0, b)
	test.That(t, ok, test.ShouldBeTrue)

	r0 := a[0]*x[0] + a[1]*x[1]
	r1 := a[2]*x[0] + a[3]*x[1]
	test.That(t, r0, test.ShouldAlmostEqual, b[0], 1e-6)
	test.That(t, r1, test.ShouldAlmostEqual, b[1], 1e-6)
}

func TestCholeskySolveDampedNonPositivePivotFails(t *testing.T) {
	a := []float64{
		0, 0,
		0, 0,
	}
	b := []float64{1, 1}
	_, ok := CholeskySolveDamped(a, 2, 0, b)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestCholeskySolveDampedLambdaFixesIndefinite(t *testing.T) {
	a := []float64{
		0, 0,
		0, 0,
	}
	b := []float64{1, 1}
	x, ok := CholeskySolveDamped(a, 2, 1, b)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, x[0], test.ShouldAlmostEqual, 1, 1e-8)
	test.That(t, x[1], test.ShouldAlmostEqual, 1, 1e-8)
}
