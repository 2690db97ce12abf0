// Package solver implements a transparent Levenberg-Marquardt engine: every
// intermediate quantity (the Jacobian, the normal equations, the damping
// factor, the per-iteration cost) is available to the caller rather than
// hidden behind an opaque Solve() call, the way go.viam.com/rdk/motionplan
// separates its generic nlopt/IK solver from the frame-specific problem it
// is handed. The engine itself has no dependency on package project or
// valuemap; valuemap adapts a Layout into a Problem for the photogrammetry
// use.
package solver

import (
	"math"

	"go.viam.com/rotera/linalg"
)

// Jacobian is either a dense row-major matrix or a sparse CSR matrix of a
// problem's residuals with respect to its variables. Exactly one of Dense
// or Sparse is set.
type Jacobian struct {
	Dense      []float64
	Sparse     *linalg.CSR
	NResiduals int
	NVars      int
}

// Problem is the interface the LM engine optimizes. A Problem is
// responsible for its own variable semantics (what each index means) and
// for quaternion renormalization; the engine only ever manipulates the
// flat variable vector.
type Problem interface {
	// NVars returns the number of optimization variables.
	NVars() int

	// Evaluate computes the residual vector and its Jacobian at vars.
	Evaluate(vars []float64) (residuals []float64, jacobian *Jacobian)

	// RenormalizeQuaternions rescales every unlocked quaternion in vars to
	// unit norm in place, run after every accepted LM step.
	RenormalizeQuaternions(vars []float64)
}

// normalEquations computes JtJ (dense, row-major n*n) and -Jtr (length n)
// from a Jacobian and residual vector.
func normalEquations(j *Jacobian, r []float64) (jtjDense []float64, jtjSparse *linalg.CSR, negJtr []float64) {
	n := j.NVars
	negJtr = make([]float64, n)

	if j.Dense != nil {
		jtjDense = make([]float64, n*n)
		m := j.NResiduals
		for row := 0; row < m; row++ {
			for a := 0; a < n; a++ {
				jva := j.Dense[row*n+a]
				if jva == 0 {
					continue
				}
				negJtr[a] -= jva * r[row]
				for b := 0; b < n; b++ {
					jtjDense[a*n+b] += jva * j.Dense[row*n+b]
				}
			}
		}
		return jtjDense, nil, negJtr
	}

	jtjSparse = linalg.ComputeJtJ(j.Sparse)
	jtr := j.Sparse.Transpose().MulVec(r)
	for i := range negJtr {
		negJtr[i] = -jtr[i]
	}
	return nil, jtjSparse, negJtr
}

func sumSquares(r []float64) float64 {
	var sum float64
	for _, v := range r {
		sum += v * v
	}
	return sum
}

func norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return 0
	}
	return math.Sqrt(sum)
}
