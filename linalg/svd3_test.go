package linalg

import (
	"testing"

	"go.viam.com/test"
)

func TestSVD3Identity(t *testing.T) {
	a := Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
	r := SVD3(a)
	test.That(t, r.S[0], test.ShouldAlmostEqual, 1, 1e-8)
	test.That(t, r.S[1], test.ShouldAlmostEqual, 1, 1e-8)
	test.That(t, r.S[2], test.ShouldAlmostEqual, 1, 1e-8)
}

func TestSVD3Diagonal(t *testing.T) {
	a := Mat3{3, 0, 0, 0, 2, 0, 0, 0, 1}
	r := SVD3(a)
	test.That(t, r.S[0], test.ShouldAlmostEqual, 3, 1e-6)
	test.That(t, r.S[1], test.ShouldAlmostEqual, 2, 1e-6)
	test.That(t, r.S[2], test.ShouldAlmostEqual, 1, 1e-6)
}

func TestSVD3Reconstruction(t *testing.T) {
	a := Mat3{
		1, 2, 3,
		0, 1, 4,
		5, 6, 0,
	}
	r := SVD3(a)

	var recon Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += r.U[i*3+k] * r.S[k] * r.Vt[k*3+j]
			}
			recon[i*3+j] = sum
		}
	}
	for i := range a {
		test.That(t, recon[i], test.ShouldAlmostEqual, a[i], 1e-6)
	}
}

func TestSVD3RankDeficient(t *testing.T) {
	// A rank-2 matrix: third row is the sum of the first two.
	a := Mat3{
		1, 0, 0,
		0, 1, 0,
		1, 1, 0,
	}
	r := SVD3(a)
	test.That(t, r.S[2], test.ShouldAlmostEqual, 0, 1e-6)

	// u2 must still be a unit vector completing a right-handed basis.
	u2Norm := r.U[2]*r.U[2] + r.U[5]*r.U[5] + r.U[8]*r.U[8]
	test.That(t, u2Norm, test.ShouldAlmostEqual, 1, 1e-6)
}

func TestSmallestTwoEigenvectorsN(t *testing.T) {
	a := []float64{
		9, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 4, 0,
		0, 0, 0, 0.5,
	}
	f1, f2 := SmallestTwoEigenvectorsN(a, 4)
	// The two smallest eigenvalues are 0.5 (index 3) and 1 (index 1); check
	// that the returned pair carries the index-3 axis.
	test.That(t, f1[3]*f1[3]+f2[3]*f2[3], test.ShouldBeGreaterThan, 0.9)
}
