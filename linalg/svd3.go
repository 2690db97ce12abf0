package linalg

import "math"

// Mat3 is a row-major 3x3 matrix.
type Mat3 [9]float64

// SVD3Result holds the singular value decomposition A = U * diag(S) * Vt.
type SVD3Result struct {
	U  Mat3
	S  [3]float64
	Vt Mat3
}

// SVD3 computes the singular value decomposition of a 3x3 matrix by forming
// AtA, running Jacobi eigendecomposition on it (tolerance 1e-10, max 100
// sweeps), sorting singular values descending, and recovering U = A V
// Sigma^-1 with modified Gram-Schmidt orthonormalization. If the third
// singular value collapses to (near) zero, u2 is replaced by u0 x u1 so U
// stays right-handed.
func SVD3(a Mat3) SVD3Result {
	ata := mat3TransposeMul(a, a)
	values, vectors := JacobiEigen(ata[:], 3)

	var v Mat3
	copy(v[:], vectors)

	var s [3]float64
	for i := 0; i < 3; i++ {
		s[i] = math.Sqrt(math.Max(values[i], 0))
	}

	u0 := mat3MulCol(a, v, 0)
	u1 := mat3MulCol(a, v, 1)

	u0 = normalizeOrZero(u0, s[0])
	u1 = normalizeOrZero(u1, s[1])
	u1 = gramSchmidtOrthogonalize(u1, u0)

	var u2 [3]float64
	if s[2] > 1e-9 {
		raw := mat3MulCol(a, v, 2)
		u2 = normalizeOrZero(raw, s[2])
		u2 = gramSchmidtOrthogonalize(u2, u0)
		u2 = gramSchmidtOrthogonalize(u2, u1)
	} else {
		u2 = cross(u0, u1)
	}

	var u Mat3
	setCol(&u, 0, u0)
	setCol(&u, 1, u1)
	setCol(&u, 2, u2)

	return SVD3Result{U: u, S: s, Vt: mat3Transpose(v)}
}

func mat3TransposeMul(a, b Mat3) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += a[k*3+i] * b[k*3+j]
			}
			out[i*3+j] = sum
		}
	}
	return out
}

func mat3Transpose(a Mat3) Mat3 {
	return Mat3{a[0], a[3], a[6], a[1], a[4], a[7], a[2], a[5], a[8]}
}

func mat3MulCol(a, v Mat3, col int) [3]float64 {
	vc := [3]float64{v[0*3+col], v[1*3+col], v[2*3+col]}
	var out [3]float64
	for i := 0; i < 3; i++ {
		out[i] = a[i*3+0]*vc[0] + a[i*3+1]*vc[1] + a[i*3+2]*vc[2]
	}
	return out
}

func setCol(m *Mat3, col int, v [3]float64) {
	m[0*3+col] = v[0]
	m[1*3+col] = v[1]
	m[2*3+col] = v[2]
}

func normalizeOrZero(v [3]float64, sigma float64) [3]float64 {
	if sigma < 1e-9 {
		return [3]float64{}
	}
	return [3]float64{v[0] / sigma, v[1] / sigma, v[2] / sigma}
}

func gramSchmidtOrthogonalize(v, against [3]float64) [3]float64 {
	d := v[0]*against[0] + v[1]*against[1] + v[2]*against[2]
	out := [3]float64{v[0] - d*against[0], v[1] - d*against[1], v[2] - d*against[2]}
	n := math.Sqrt(out[0]*out[0] + out[1]*out[1] + out[2]*out[2])
	if n < 1e-9 {
		return out
	}
	return [3]float64{out[0] / n, out[1] / n, out[2] / n}
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// SmallestEigenvectorN returns the eigenvector of the smallest eigenvalue of
// the symmetric n x n matrix ata (row-major), the null-space recovery step
// shared by the eight-point essential-matrix estimator (n=9) and the DLT
// triangulation / PnP solvers (n=4, n=12 generalized via JacobiEigen).
func SmallestEigenvectorN(ata []float64, n int) []float64 {
	values, vectors := JacobiEigen(ata, n)
	minIdx := 0
	for i := 1; i < n; i++ {
		if values[i] < values[minIdx] {
			minIdx = i
		}
	}
	col := make([]float64, n)
	for row := 0; row < n; row++ {
		col[row] = vectors[row*n+minIdx]
	}
	return col
}

// SmallestTwoEigenvectorsN returns the eigenvectors of the two smallest
// eigenvalues of the symmetric n x n matrix ata, used by the seven-point
// essential-matrix estimator's two-dimensional null space.
func SmallestTwoEigenvectorsN(ata []float64, n int) (f1, f2 []float64) {
	values, vectors := JacobiEigen(ata, n)
	first, second := 0, 1
	if values[second] < values[first] {
		first, second = second, first
	}
	for i := 2; i < n; i++ {
		if values[i] < values[first] {
			second = first
			first = i
		} else if values[i] < values[second] {
			second = i
		}
	}
	f1 = make([]float64, n)
	f2 = make([]float64, n)
	for row := 0; row < n; row++ {
		f1[row] = vectors[row*n+first]
		f2[row] = vectors[row*n+second]
	}
	return f1, f2
}
