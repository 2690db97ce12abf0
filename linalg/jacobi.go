// Package linalg provides the small, hand-rolled linear-algebra kernels the
// solver and geometry packages build on: 3x3 SVD, Jacobi eigendecomposition
// at a handful of fixed dimensions, dense Cholesky for the damped normal
// equations, a CSR sparse matrix type, and a Fletcher-Reeves conjugate
// gradient solver for the sparse path. gonum's own decompositions are not
// used here because the solver needs direct access to pivot failure (to
// signal the outer damping loop) and to the undamped JtJ/CG inner products,
// which gonum's mat.Cholesky and its CG implementations do not expose in the
// shape this package needs.
package linalg

import "math"

const (
	jacobiTol      = 1e-10
	jacobiMaxSweep = 100
)

// JacobiEigen runs cyclic Jacobi eigendecomposition on the symmetric n x n
// matrix a (row-major, n*n entries). It returns eigenvalues and the matching
// eigenvectors (columns of the returned n*n matrix, row-major), both sorted
// by descending eigenvalue. a is not modified.
func JacobiEigen(a []float64, n int) (values []float64, vectors []float64) {
	m := make([]float64, len(a))
	copy(m, a)

	v := make([]float64, n*n)
	for i := 0; i < n; i++ {
		v[i*n+i] = 1
	}

	for sweep := 0; sweep < jacobiMaxSweep; sweep++ {
		off := offDiagonalNorm(m, n)
		if off < jacobiTol {
			break
		}
		for p := 0; p < n-1; p++ {
			for q := p + 1; q < n; q++ {
				apq := m[p*n+q]
				if math.Abs(apq) < jacobiTol {
					continue
				}
				jacobiRotate(m, v, n, p, q)
			}
		}
	}

	values = make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = m[i*n+i]
	}
	vectors = v

	sortEigenDescending(values, vectors, n)
	return values, vectors
}

func offDiagonalNorm(m []float64, n int) float64 {
	var sum float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sum += m[i*n+j] * m[i*n+j]
		}
	}
	return math.Sqrt(2 * sum)
}

// jacobiRotate annihilates m[p][q] (and m[q][p]) via a single Givens
// rotation, updating m in place and accumulating the rotation into v.
func jacobiRotate(m, v []float64, n, p, q int) {
	app := m[p*n+p]
	aqq := m[q*n+q]
	apq := m[p*n+q]

	theta := (aqq - app) / (2 * apq)
	t := math.Copysign(1, theta) / (math.Abs(theta) + math.Sqrt(1+theta*theta))
	if theta == 0 {
		t = 1
	}
	c := 1 / math.Sqrt(1+t*t)
	s := t * c

	for i := 0; i < n; i++ {
		aip := m[i*n+p]
		aiq := m[i*n+q]
		m[i*n+p] = c*aip - s*aiq
		m[i*n+q] = s*aip + c*aiq
	}
	for j := 0; j < n; j++ {
		apj := m[p*n+j]
		aqj := m[q*n+j]
		m[p*n+j] = c*apj - s*aqj
		m[q*n+j] = s*apj + c*aqj
	}
	for i := 0; i < n; i++ {
		vip := v[i*n+p]
		viq := v[i*n+q]
		v[i*n+p] = c*vip - s*viq
		v[i*n+q] = s*vip + c*viq
	}
}

func sortEigenDescending(values, vectors []float64, n int) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 1; i < n; i++ {
		for j := i; j > 0 && values[idx[j-1]] < values[idx[j]]; j-- {
			idx[j-1], idx[j] = idx[j], idx[j-1]
		}
	}

	sortedValues := make([]float64, n)
	sortedVectors := make([]float64, n*n)
	for newCol, oldCol := range idx {
		sortedValues[newCol] = values[oldCol]
		for row := 0; row < n; row++ {
			sortedVectors[row*n+newCol] = vectors[row*n+oldCol]
		}
	}
	copy(values, sortedValues)
	copy(vectors, sortedVectors)
}
