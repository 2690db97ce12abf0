package linalg

import "math"

// CholeskySolveDamped solves (A + lambda*I) x = b for dense, symmetric A
// (row-major n*n) via Cholesky decomposition. Following spec.md §4.1, a
// non-positive pivot is not an error the caller needs to inspect -- it is
// the outer damping loop's signal to increase lambda -- so this returns
// ok=false with a nil x rather than an error.
func CholeskySolveDamped(a []float64, n int, lambda float64, b []float64) (x []float64, ok bool) {
	l := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := a[i*n+j]
			if i == j {
				sum += lambda
			}
			for k := 0; k < j; k++ {
				sum -= l[i*n+k] * l[j*n+k]
			}
			if i == j {
				if sum <= 0 {
					return nil, false
				}
				l[i*n+j] = math.Sqrt(sum)
			} else {
				l[i*n+j] = sum / l[j*n+j]
			}
		}
	}

	y := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for k := 0; k < i; k++ {
			sum -= l[i*n+k] * y[k]
		}
		y[i] = sum / l[i*n+i]
	}

	x = make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := y[i]
		for k := i + 1; k < n; k++ {
			sum -= l[k*n+i] * x[k]
		}
		x[i] = sum / l[i*n+i]
	}
	return x, true
}
