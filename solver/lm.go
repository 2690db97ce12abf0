package solver

import "go.viam.com/rotera/linalg"

// Options configures the LM engine, matching spec.md §4.4's defaults.
type Options struct {
	MaxIterations     int
	InitialDamping    float64
	CostTolerance     float64
	ParamTolerance    float64
	GradientTolerance float64
}

// DefaultOptions returns spec.md §4.4's default tolerances.
func DefaultOptions() Options {
	return Options{
		MaxIterations:     500,
		InitialDamping:    1e-3,
		CostTolerance:     1e-6,
		ParamTolerance:    1e-6,
		GradientTolerance: 1e-6,
	}
}

const (
	dampingFloor = 1e-10
	dampingCeil  = 1e10
	maxInnerIter = 10
)

// Reason explains why Solve stopped.
type Reason string

const (
	ReasonGradientBelowTolerance Reason = "gradient_below_tolerance"
	ReasonCostBelowTolerance     Reason = "cost_below_tolerance"
	ReasonCostStagnant           Reason = "cost_stagnant"
	ReasonParamBelowTolerance    Reason = "param_below_tolerance"
	ReasonMaxIterations          Reason = "max_iterations"
	ReasonLinearSolveFailed      Reason = "linear_solve_failed"
)

// Result carries every quantity the transparent engine can report.
type Result struct {
	Converged  bool
	Iterations int
	FinalCost  float64
	Reason     Reason
	Jacobian   *Jacobian
	Residuals  []float64
	Variables  []float64
}

// Solve runs the damped Gauss-Newton outer loop on problem, starting from
// initial (copied, never mutated).
func Solve(problem Problem, initial []float64, opts Options) Result {
	n := problem.NVars()
	vars := make([]float64, n)
	copy(vars, initial)

	lambda := opts.InitialDamping
	residuals, jac := problem.Evaluate(vars)
	cost := sumSquares(residuals)

	for iter := 0; iter < opts.MaxIterations; iter++ {
		jtjDense, jtjSparse, negJtr := normalEquations(jac, residuals)

		if norm(negJtr) < opts.GradientTolerance {
			return Result{true, iter, cost, ReasonGradientBelowTolerance, jac, residuals, vars}
		}

		accepted := false
		var newVars []float64
		var newResiduals []float64
		var newJac *Jacobian
		var newCost float64
		var converged bool
		var reason Reason

		for inner := 0; inner < maxInnerIter; inner++ {
			var delta []float64
			var ok bool
			if jtjDense != nil {
				delta, ok = linalg.CholeskySolveDamped(jtjDense, n, lambda, negJtr)
			} else {
				delta = linalg.CGSolveDamped(jtjSparse, lambda, negJtr)
				ok = true
			}
			if !ok {
				lambda = minF(lambda*10, dampingCeil)
				continue
			}

			if norm(delta) < opts.ParamTolerance {
				converged = true
				reason = ReasonParamBelowTolerance
				break
			}

			candidate := make([]float64, n)
			for i := range candidate {
				candidate[i] = vars[i] + delta[i]
			}
			problem.RenormalizeQuaternions(candidate)

			candResiduals, candJac := problem.Evaluate(candidate)
			candCost := sumSquares(candResiduals)

			if candCost < cost {
				newVars, newResiduals, newJac, newCost = candidate, candResiduals, candJac, candCost
				accepted = true
				lambda = maxF(lambda/10, dampingFloor)
				break
			}
			lambda = minF(lambda*10, dampingCeil)
		}

		if converged {
			return Result{true, iter, cost, reason, jac, residuals, vars}
		}

		if !accepted {
			// Inner loop exhausted without an accepted step or an early
			// convergence signal: the damping ladder has topped out.
			return Result{false, iter, cost, ReasonLinearSolveFailed, jac, residuals, vars}
		}

		if absF(cost-newCost) < opts.CostTolerance || newCost < opts.CostTolerance {
			vars, residuals, jac, cost = newVars, newResiduals, newJac, newCost
			return Result{true, iter + 1, cost, ReasonCostBelowTolerance, jac, residuals, vars}
		}

		vars, residuals, jac, cost = newVars, newResiduals, newJac, newCost
	}

	return Result{false, opts.MaxIterations, cost, ReasonMaxIterations, jac, residuals, vars}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func absF(a float64) float64 {
	if a < 0 {
		return -a
	}
	return a
}
