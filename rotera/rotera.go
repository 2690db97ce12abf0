// Package rotera is the top-level entry point: OptimizeProject runs a full
// solve -- readiness check, reset, camera/world-point initialization,
// alignment, candidate search, final LM solve, outlier detection, and
// quality grading -- and reports a SolverResult plus the log lines it
// emitted along the way.
package rotera

import (
	"os"
	"sort"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/stat"

	"go.viam.com/rotera/candidate"
	"go.viam.com/rotera/logging"
	"go.viam.com/rotera/project"
	"go.viam.com/rotera/projection"
	"go.viam.com/rotera/readiness"
	"go.viam.com/rotera/spatialmath"
)

// outlierMADMultiplier is the number of median absolute deviations beyond
// which an image point's reprojection residual is flagged an outlier.
const outlierMADMultiplier = 3.0

// SolveOptions mirrors spec.md §6's optimizeProject options.
type SolveOptions struct {
	AutoInitializeCameras     bool
	AutoInitializeWorldPoints bool
	DetectOutliers            bool
	MaxIterations             int
	MaxAttempts               int
	Tolerance                 float64
	Damping                   float64
	Verbose                   bool
}

// DefaultSolveOptions returns spec.md §6's defaults.
func DefaultSolveOptions() SolveOptions {
	return SolveOptions{
		AutoInitializeCameras:     true,
		AutoInitializeWorldPoints: true,
		DetectOutliers:            true,
		MaxIterations:             500,
		MaxAttempts:               3,
		Tolerance:                 1e-6,
		Damping:                   1e-3,
	}
}

// CameraResult is one viewpoint's final pose and intrinsics.
type CameraResult struct {
	ID         project.ViewpointID
	Name       string
	Position   r3.Vector
	Quaternion spatialmath.Quaternion
	Intrinsics project.Intrinsics
}

// WorldPointResult is one world point's final 3D estimate.
type WorldPointResult struct {
	ID   project.WorldPointID
	Name string
	XYZ  r3.Vector
}

// SolverResult is the outcome of one top-level solve, per spec.md §6.
type SolverResult struct {
	Converged               bool
	Iterations              int
	Residual                float64
	MedianReprojectionError float64
	HasReprojectionError    bool
	Quality                 Quality
	Cameras                 []CameraResult
	WorldPoints             []WorldPointResult
	Issues                  []readiness.Issue
	Logs                    []string
}

// OptimizeProject runs readiness -> reset -> initialization -> alignment ->
// candidate search -> final solve -> outlier detection -> quality grading,
// in that deterministic order (§5), and returns the best result it saw even
// if the solve never converged. proj must not be mutated by another
// goroutine while a solve is in flight.
func OptimizeProject(proj *project.Project, opts SolveOptions) SolverResult {
	log := logging.NewObserverLogger(logging.NewLogger("rotera"))
	log.Reset()
	if opts.Verbose || vpDebugEnabled() {
		log.SetLevel(logging.DEBUG)
	}

	check := readiness.Analyze(proj)
	if !check.CanOptimize {
		return SolverResult{
			Quality: QualityUnknown,
			Issues:  check.Issues,
			Logs:    log.Lines(),
		}
	}

	candOpts := candidate.DefaultOptions()
	candOpts.AutoInitializeCameras = opts.AutoInitializeCameras
	candOpts.AutoInitializeWorldPoints = opts.AutoInitializeWorldPoints
	candOpts.MaxIterations = opts.MaxIterations
	candOpts.Tolerance = opts.Tolerance
	candOpts.Damping = opts.Damping
	if opts.MaxAttempts > 0 && opts.MaxAttempts < len(candOpts.Seeds) {
		candOpts.Seeds = candOpts.Seeds[:opts.MaxAttempts]
	}

	outcome, err := candidate.Run(proj, candOpts, log, nil)
	if err != nil {
		log.Tag("Candidate", "every candidate failed: %v", err)
		return SolverResult{
			Quality: QualityUnknown,
			Issues:  check.Issues,
			Logs:    log.Lines(),
		}
	}

	var medianErr float64
	hasMedian := false
	if opts.DetectOutliers {
		medianErr, hasMedian = detectOutliers(proj)
	} else {
		medianErr, hasMedian = reprojectionRMS(proj)
	}

	result := SolverResult{
		Converged:               outcome.Result.Converged,
		Iterations:              outcome.Result.Iterations,
		Residual:                outcome.Result.FinalCost,
		MedianReprojectionError: medianErr,
		HasReprojectionError:    hasMedian,
		Quality:                 gradeQuality(medianErr, hasMedian),
		Cameras:                 collectCameras(proj),
		WorldPoints:             collectWorldPoints(proj),
		Issues:                  check.Issues,
		Logs:                    log.Lines(),
	}

	log.Tag("Report", "converged=%v iterations=%d residual=%.6f quality=%s",
		result.Converged, result.Iterations, result.Residual, result.Quality)
	result.Logs = log.Lines()
	return result
}

func collectCameras(proj *project.Project) []CameraResult {
	var out []CameraResult
	for _, vp := range proj.Viewpoints() {
		out = append(out, CameraResult{
			ID:         vp.ID,
			Name:       vp.Name,
			Position:   r3.Vector{X: vp.Position[0], Y: vp.Position[1], Z: vp.Position[2]},
			Quaternion: vp.Quaternion,
			Intrinsics: vp.Intrinsics,
		})
	}
	return out
}

// collectWorldPoints reports every world point the solve actually produced
// a 3D estimate for, omitting points that were never optimized (e.g.
// disabled or unconstrained) rather than reporting them as a phantom point
// at the origin.
func collectWorldPoints(proj *project.Project) []WorldPointResult {
	var out []WorldPointResult
	for _, wp := range proj.WorldPoints() {
		xyz, ok := wp.Optimized()
		if !ok {
			continue
		}
		out = append(out, WorldPointResult{
			ID:   wp.ID,
			Name: wp.Name,
			XYZ:  r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]},
		})
	}
	return out
}

// reprojectionSample pairs an image point with its freshly computed
// reprojection residual magnitude.
type reprojectionSample struct {
	ip  *project.ImagePoint
	mag float64
}

// computeReprojectionSamples reprojects every enabled, solved image point
// and writes ReprojectedU/V and LastResiduals onto it -- spec.md's
// "derived outputs ... filled after solve" -- regardless of whether outlier
// detection is enabled for this solve.
func computeReprojectionSamples(proj *project.Project) []reprojectionSample {
	var samples []reprojectionSample
	for _, vp := range proj.Viewpoints() {
		if !vp.EnabledInSolve {
			continue
		}
		for _, id := range vp.ImagePoints() {
			ip := proj.ImagePoint(id)
			wp := proj.WorldPoint(ip.WorldPoint)
			xyz, ok := wp.Optimized()
			if !ok {
				continue
			}
			r := projection.Project(
				r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]},
				r3.Vector{X: vp.Position[0], Y: vp.Position[1], Z: vp.Position[2]},
				vp.Quaternion, vp.IsZReflected, vp.Intrinsics,
			)
			if !r.Valid {
				continue
			}
			ru, rv := projection.Residual(r, ip.U, ip.V)
			ip.ReprojectedU, ip.ReprojectedV = r.U, r.V
			ip.LastResiduals = [2]float64{ru, rv}
			samples = append(samples, reprojectionSample{ip: ip, mag: r3.Vector{X: ru, Y: rv}.Norm()})
		}
	}
	return samples
}

// reprojectionRMS computes every enabled image point's reprojection error
// magnitude and returns its median, without flagging outliers.
func reprojectionRMS(proj *project.Project) (float64, bool) {
	samples := computeReprojectionSamples(proj)
	if len(samples) == 0 {
		return 0, false
	}
	mags := make([]float64, len(samples))
	for i, s := range samples {
		mags[i] = s.mag
	}
	sort.Float64s(mags)
	return stat.Quantile(0.5, stat.Empirical, mags, nil), true
}

// detectOutliers computes the median and median-absolute-deviation of every
// image point's reprojection error, flags every point beyond
// outlierMADMultiplier*MAD as IsOutlier, and returns the median.
func detectOutliers(proj *project.Project) (float64, bool) {
	samples := computeReprojectionSamples(proj)
	if len(samples) == 0 {
		return 0, false
	}

	mags := make([]float64, len(samples))
	for i, s := range samples {
		mags[i] = s.mag
	}
	sort.Float64s(mags)
	median := stat.Quantile(0.5, stat.Empirical, mags, nil)

	deviations := make([]float64, len(samples))
	for i, s := range samples {
		d := s.mag - median
		if d < 0 {
			d = -d
		}
		deviations[i] = d
	}
	sort.Float64s(deviations)
	mad := stat.Quantile(0.5, stat.Empirical, deviations, nil)

	threshold := median + outlierMADMultiplier*mad
	for _, s := range samples {
		s.ip.IsOutlier = s.mag > threshold
	}
	return median, true
}

// vpDebugEnabled reports whether vanishing-point debug logging is requested,
// per spec.md §6's VP_DEBUG environment variable (ROTERA_VP_DEBUG here).
func vpDebugEnabled() bool {
	return os.Getenv("ROTERA_VP_DEBUG") == "1"
}
