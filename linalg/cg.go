package linalg

import "math"

const cgTolerance = 1e-10

// CGSolveDamped solves (M + lambda*I) x = b for symmetric positive
// (semi)definite sparse M via a damped Fletcher-Reeves conjugate gradient
// loop, for max(10*n, 1000) iterations or until the residual norm drops
// below 1e-10, per spec.md §4.1. x starts at the zero vector.
func CGSolveDamped(m *CSR, lambda float64, b []float64) []float64 {
	n := len(b)
	maxIter := n * 10
	if maxIter < 1000 {
		maxIter = 1000
	}

	x := make([]float64, n)
	r := make([]float64, n)
	copy(r, b)

	p := make([]float64, n)
	copy(p, r)

	rsOld := dot(r, r)
	if math.Sqrt(rsOld) < cgTolerance {
		return x
	}

	for iter := 0; iter < maxIter; iter++ {
		ap := applyDamped(m, lambda, p)
		denom := dot(p, ap)
		if math.Abs(denom) < 1e-300 {
			break
		}
		alpha := rsOld / denom

		for i := range x {
			x[i] += alpha * p[i]
			r[i] -= alpha * ap[i]
		}

		rsNew := dot(r, r)
		if math.Sqrt(rsNew) < cgTolerance {
			break
		}

		beta := rsNew / rsOld
		for i := range p {
			p[i] = r[i] + beta*p[i]
		}
		rsOld = rsNew
	}
	return x
}

func applyDamped(m *CSR, lambda float64, v []float64) []float64 {
	out := m.MulVec(v)
	for i := range out {
		out[i] += lambda * v[i]
	}
	return out
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
