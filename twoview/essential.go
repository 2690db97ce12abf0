package twoview

import (
	"math"

	"github.com/pkg/errors"

	"go.viam.com/rotera/linalg"
)

// essentialCandidatesFromSeven runs the 7-point algorithm: the 2D null
// space of the 7x9 constraint matrix gives two basis matrices F1, F2; E(a) =
// a*F1 + (1-a)*F2 must satisfy det(E(a)) = 0, a cubic in a with up to 3 real
// roots, each yielding one candidate Essential Matrix.
func essentialCandidatesFromSeven(corr []Correspondence) ([]Mat3x3, error) {
	if len(corr) != 7 {
		return nil, errors.New("seven-point algorithm requires exactly 7 correspondences")
	}
	ata := constraintGramMatrix(corr)
	f1, f2 := linalg.SmallestTwoEigenvectorsN(ata, 9)

	var F1, F2 Mat3x3
	copy(F1[:], f1)
	copy(F2[:], f2)

	roots := solveCubicForEssential(F1, F2)
	out := make([]Mat3x3, 0, len(roots))
	for _, a := range roots {
		e := combineAndEnforceRank2(F1, F2, a)
		out = append(out, e)
	}
	return out, nil
}

// essentialFromEight runs the linear 8-point algorithm: the single smallest
// eigenvector of AᵀA of the 8x9 (or larger) constraint matrix, followed by
// rank-2 enforcement.
func essentialFromEight(corr []Correspondence) Mat3x3 {
	ata := constraintGramMatrix(corr)
	f := linalg.SmallestEigenvectorN(ata, 9)
	var raw Mat3x3
	copy(raw[:], f)
	return enforceRank2(raw)
}

// constraintGramMatrix builds AᵀA for the epipolar constraint matrix A
// (n x 9, one row per correspondence: x2x1, x2y1, x2, y2x1, y2y1, y2, x1,
// y1, 1), without materializing A itself.
func constraintGramMatrix(corr []Correspondence) []float64 {
	ata := make([]float64, 81)
	for _, c := range corr {
		row := [9]float64{
			c.X2 * c.X1, c.X2 * c.Y1, c.X2,
			c.Y2 * c.X1, c.Y2 * c.Y1, c.Y2,
			c.X1, c.Y1, 1,
		}
		for i := 0; i < 9; i++ {
			for j := 0; j < 9; j++ {
				ata[i*9+j] += row[i] * row[j]
			}
		}
	}
	return ata
}

// combineAndEnforceRank2 forms E(a) = a*F1 + (1-a)*F2 and snaps it to rank 2.
func combineAndEnforceRank2(f1, f2 Mat3x3, a float64) Mat3x3 {
	var e Mat3x3
	for i := range e {
		e[i] = a*f1[i] + (1-a)*f2[i]
	}
	return enforceRank2(e)
}

// enforceRank2 replaces the singular values of e with [(s0+s1)/2, (s0+s1)/2,
// 0], the standard Essential Matrix projection.
func enforceRank2(e Mat3x3) Mat3x3 {
	svd := linalg.SVD3(e)
	avg := (svd.S[0] + svd.S[1]) / 2
	sigma := Mat3x3{avg, 0, 0, 0, avg, 0, 0, 0, 0}
	return mat3Mul(mat3Mul(svd.U, sigma), svd.Vt)
}

func mat3Mul(a, b Mat3x3) Mat3x3 {
	var out Mat3x3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += a[i*3+k] * b[k*3+j]
			}
			out[i*3+j] = sum
		}
	}
	return out
}

// det3 returns the determinant of a row-major 3x3 matrix.
func det3(m Mat3x3) float64 {
	return m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
}

// solveCubicForEssential finds the real roots in [0,1]-agnostic a of
// det(a*F1 + (1-a)*F2) = 0 via the closed-form Cardano solution.
func solveCubicForEssential(f1, f2 Mat3x3) []float64 {
	// Sample det(E(a)) at 4 points to fit the cubic c3 a^3 + c2 a^2 + c1 a + c0.
	eval := func(a float64) float64 {
		var e Mat3x3
		for i := range e {
			e[i] = a*f1[i] + (1-a)*f2[i]
		}
		return det3(e)
	}
	d0 := eval(0)
	d1 := eval(1)
	dm1 := eval(-1)
	d2 := eval(2)

	// Lagrange-interpolate the cubic through a = -1, 0, 1, 2.
	c0 := d0
	c3 := (d2 - 3*d1 + 3*d0 - dm1) / 6
	c1 := (d1 - dm1) / 2 - c3
	c2 := (d1 + dm1)/2 - d0

	return realCubicRoots(c3, c2, c1, c0)
}

// realCubicRoots returns the real roots of c3 x^3 + c2 x^2 + c1 x + c0 via
// Cardano's formula.
func realCubicRoots(c3, c2, c1, c0 float64) []float64 {
	if math.Abs(c3) < 1e-12 {
		return realQuadraticRoots(c2, c1, c0)
	}
	a := c2 / c3
	b := c1 / c3
	c := c0 / c3

	p := b - a*a/3
	q := 2*a*a*a/27 - a*b/3 + c

	disc := (q*q)/4 + (p*p*p)/27
	shift := -a / 3

	if disc > 0 {
		sq := math.Sqrt(disc)
		u := math.Cbrt(-q/2 + sq)
		v := math.Cbrt(-q/2 - sq)
		return []float64{u + v + shift}
	}
	if disc == 0 {
		u := math.Cbrt(-q / 2)
		return []float64{2*u + shift, -u + shift}
	}

	r := math.Sqrt(-p * p * p / 27)
	phi := math.Acos(clamp(-q/(2*r), -1, 1))
	m := 2 * math.Sqrt(-p/3)
	return []float64{
		m*math.Cos(phi/3) + shift,
		m*math.Cos((phi+2*math.Pi)/3) + shift,
		m*math.Cos((phi+4*math.Pi)/3) + shift,
	}
}

func realQuadraticRoots(a, b, c float64) []float64 {
	if math.Abs(a) < 1e-12 {
		if math.Abs(b) < 1e-12 {
			return nil
		}
		return []float64{-c / b}
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return nil
	}
	sq := math.Sqrt(disc)
	return []float64{(-b + sq) / (2 * a), (-b - sq) / (2 * a)}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
