package linalg

import (
	"testing"

	"go.viam.com/test"
)

func TestCGSolveDampedDiagonal(t *testing.T) {
	m := NewCSRFromTriplets(2, 2, []int{0, 1}, []int{0, 1}, []float64{4, 9})
	x := CGSolveDamped(m, 0, []float64{8, 18})
	test.That(t, x[0], test.ShouldAlmostEqual, 2, 1e-6)
	test.That(t, x[1], test.ShouldAlmostEqual, 2, 1e-6)
}

func TestCGSolveDampedGeneral(t *testing.T) {
	m := NewCSRFromTriplets(2, 2,
		[]int{0, 0, 1, 1},
		[]int{0, 1, 0, 1},
		[]float64{4, 1, 1, 3})
	b := []float64{1, 2}
	x := CGSolveDamped(m, 0, b)

	r0 := 4*x[0] + 1*x[1]
	r1 := 1*x[0] + 3*x[1]
	test.That(t, r0, test.ShouldAlmostEqual, b[0], 1e-4)
	test.That(t, r1, test.ShouldAlmostEqual, b[1], 1e-4)
}

func TestCGSolveDampedZeroRHS(t *testing.T) {
	m := NewCSRFromTriplets(2, 2, []int{0, 1}, []int{0, 1}, []float64{1, 1})
	x := CGSolveDamped(m, 0, []float64{0, 0})
	test.That(t, x[0], test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, x[1], test.ShouldAlmostEqual, 0, 1e-12)
}
