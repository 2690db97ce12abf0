// Package candidate runs the candidate orchestrator (§4.10): it tries
// several (seed, branch, alignment-sign) combinations with a short probe
// solve each, restoring the project to its pristine state between tries so
// every candidate sees the same starting point, then replays the winner for
// a full-iteration-budget final solve.
package candidate

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/rotera/align"
	"go.viam.com/rotera/branching"
	"go.viam.com/rotera/initialization"
	"go.viam.com/rotera/lifecycle"
	"go.viam.com/rotera/logging"
	"go.viam.com/rotera/project"
	"go.viam.com/rotera/solver"
	"go.viam.com/rotera/valuemap"
)

// errNoCandidateSurvived is returned when every candidate's probe failed
// outright (e.g. a precondition failure building its Layout), leaving
// nothing to replay for the final solve.
var errNoCandidateSurvived = errors.New("no candidate survived probing")

// DefaultSeeds are the per-attempt seeds spec.md §4.10 assigns to attempts
// {1, 2, 3}.
var DefaultSeeds = []int64{42, 12345, 98770}

// ProbeCostThreshold is the sum-of-squared-residuals cost below which a
// probe solve counts as an early win, skipping the remaining candidates.
const ProbeCostThreshold = 10.0

// ProbeIterations bounds each candidate's probe solve.
const ProbeIterations = 200

// Options configures one orchestrator run.
type Options struct {
	AutoInitializeCameras     bool
	AutoInitializeWorldPoints bool
	MaxIterations             int
	Seeds                     []int64
	ProbeIterations           int
	ProbeCostThreshold        float64
	PerturbCameras            bool

	// Tolerance, when non-zero, overrides solver.DefaultOptions' shared
	// cost/param/gradient tolerance. Damping, when non-zero, overrides the
	// initial LM damping.
	Tolerance float64
	Damping   float64

	// ForcedSeed, ForcedBranch, and ForcedAlignmentSign are read only when
	// SkipCandidateTesting is set -- the `_seed`/`_branch`/`_alignmentSign`
	// internal hooks of spec.md §6. The run then uses ForcedSeed (the first
	// seed when it is 0), the single branch at index ForcedBranch, and
	// ForcedAlignmentSign (both signs when it is 0).
	ForcedSeed           int64
	ForcedBranch         int
	ForcedAlignmentSign  int
	SkipCandidateTesting bool
}

// DefaultOptions returns spec.md §6's defaults for the fields candidate owns.
func DefaultOptions() Options {
	return Options{
		AutoInitializeCameras:     true,
		AutoInitializeWorldPoints: true,
		MaxIterations:             500,
		Seeds:                     DefaultSeeds,
		ProbeIterations:           ProbeIterations,
		ProbeCostThreshold:        ProbeCostThreshold,
	}
}

// Outcome is the winning candidate's identity plus its final, full-budget
// solve result.
type Outcome struct {
	Result        solver.Result
	Seed          int64
	BranchIndex   int
	AlignmentSign int
	Attempts      int
	EarlyExit     bool
}

// trial is one (seed, branch, sign) combination and its probe cost.
type trial struct {
	seed   int64
	branch int
	sign   int
	cost   float64
}

// Run tries every candidate in the (seeds x branches x signs) space,
// calling progress(current, total) synchronously after each probe so a host
// UI can refresh between attempts -- the only cooperative suspension point
// in the core (§5). It returns the replayed winner's full solve.
func Run(proj *project.Project, opts Options, log *logging.ObserverLogger, progress func(current, total int)) (Outcome, error) {
	pristine := lifecycle.Save(proj)
	branches := branching.Enumerate(proj)
	seeds := opts.Seeds
	if len(seeds) == 0 {
		seeds = DefaultSeeds
	}
	signs := []int{1, -1}

	if opts.SkipCandidateTesting {
		seeds = []int64{firstNonzero(opts.ForcedSeed, seeds[0])}
		branches = branches[opts.ForcedBranch : opts.ForcedBranch+1]
		if opts.ForcedAlignmentSign != 0 {
			signs = []int{opts.ForcedAlignmentSign}
		}
	}

	total := len(seeds) * len(branches) * len(signs)
	var errs error
	var best *trial
	current := 0
	earlyWin := false

	for bi, branch := range branches {
		for _, seed := range seeds {
			for _, sign := range signs {
				if earlyWin {
					break
				}
				current++
				lifecycle.Restore(proj, pristine)
				cost, err := probe(proj, branch, seed, sign, opts, log)
				if progress != nil {
					progress(current, total)
				}
				if err != nil {
					errs = multierr.Append(errs, err)
					continue
				}
				if best == nil || cost < best.cost {
					best = &trial{seed: seed, branch: bi, sign: sign, cost: cost}
				}
				if cost < opts.ProbeCostThreshold {
					earlyWin = true
				}
			}
			if earlyWin {
				break
			}
		}
		if earlyWin {
			break
		}
	}

	if best == nil {
		lifecycle.Restore(proj, pristine)
		return Outcome{}, multierr.Append(errs, errNoCandidateSurvived)
	}

	lifecycle.Restore(proj, pristine)
	result, err := solveCandidate(proj, branches[best.branch], best.seed, best.sign, opts.MaxIterations, opts, log)
	if err != nil {
		return Outcome{}, multierr.Append(errs, err)
	}

	return Outcome{
		Result:        result,
		Seed:          best.seed,
		BranchIndex:   best.branch,
		AlignmentSign: best.sign,
		Attempts:      current,
		EarlyExit:     best.cost < opts.ProbeCostThreshold,
	}, nil
}

func firstNonzero(a, b int64) int64 {
	if a != 0 {
		return a
	}
	return b
}

// probe prepares proj for one candidate and runs a short solve, returning
// just its final cost.
func probe(proj *project.Project, branch branching.Branch, seed int64, sign int, opts Options, log *logging.ObserverLogger) (float64, error) {
	result, err := solveCandidate(proj, branch, seed, sign, opts.ProbeIterations, opts, log)
	if err != nil {
		return math.Inf(1), err
	}
	return result.FinalCost, nil
}

// solveCandidate prepares proj for one (branch, seed, sign) candidate --
// reset, branch application, camera pose init, world-point seeding,
// alignment -- then runs an LM solve for maxIterations and writes the
// solved variables back onto proj.
func solveCandidate(
	proj *project.Project,
	branch branching.Branch,
	seed int64,
	sign int,
	maxIterations int,
	opts Options,
	log *logging.ObserverLogger,
) (solver.Result, error) {
	lifecycle.ResetForAttempt(proj, lifecycle.ResetOptions{ClearUserOptimized: opts.AutoInitializeWorldPoints})
	if opts.AutoInitializeCameras {
		lifecycle.ResetCamerasForInitialization(proj)
	}
	applyBranch(proj, branch)

	if opts.AutoInitializeCameras {
		if opts.PerturbCameras {
			perturbCameras(proj, seed)
		}
		initializeCameraPoses(proj, seed)
	}
	if opts.AutoInitializeWorldPoints {
		initialization.Seed(proj, seed, log)
	}

	align.ToLockedPoints(proj, log)
	align.ToLineDirection(proj, align.DefaultProbeSolve, sign, log)

	layout, err := valuemap.BuildLayout(proj)
	if err != nil {
		return solver.Result{}, err
	}
	problem := valuemap.NewProblem(proj, layout)
	solverOpts := solver.DefaultOptions()
	solverOpts.MaxIterations = maxIterations
	if opts.Tolerance != 0 {
		solverOpts.CostTolerance = opts.Tolerance
		solverOpts.ParamTolerance = opts.Tolerance
		solverOpts.GradientTolerance = opts.Tolerance
	}
	if opts.Damping != 0 {
		solverOpts.InitialDamping = opts.Damping
	}

	result := solver.Solve(problem, layout.Initial, solverOpts)
	valuemap.ApplyVariables(proj, layout, result.Variables)
	return result, nil
}

// applyBranch writes a branch's resolved axis coordinates onto proj's
// world points as inferred values, so initialization.Seed's first phase
// picks them up alongside any user locks.
func applyBranch(proj *project.Project, branch branching.Branch) {
	for id, coords := range branch.Coords {
		wp := proj.WorldPoint(id)
		if wp == nil {
			continue
		}
		for a := 0; a < 3; a++ {
			if coords[a] != nil {
				wp.SetInferredAxis(project.Axis(a), *coords[a])
			}
		}
	}
}

// perturbCameras nudges every enabled, non-pose-locked camera's position by
// a small seeded random offset, the `_perturbCameras` internal hook of
// spec.md §6 used when an otherwise-tied candidate needs a tiebreaker.
func perturbCameras(proj *project.Project, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	const jitter = 0.01
	for _, vp := range proj.Viewpoints() {
		if !vp.EnabledInSolve || vp.IsPoseLocked {
			continue
		}
		for a := 0; a < 3; a++ {
			vp.Position[a] += (rng.Float64()*2 - 1) * jitter
		}
	}
}
