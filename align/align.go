// Package align places an initialized scene into the user's world frame
// (§4.9): a similarity transform (translate, uniform scale, rotate) to
// locked anchor points, and a rotation to match axis-aligned line
// directions when the scene has no locked anchors to align to.
package align

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/rotera/logging"
	"go.viam.com/rotera/project"
	"go.viam.com/rotera/solver"
	"go.viam.com/rotera/spatialmath"
	"go.viam.com/rotera/valuemap"
)

// ProbeSolve runs a short LM solve over proj and returns its final cost,
// the signal AlignToLineDirections uses to disambiguate a sign choice when
// the dot-product heuristic is degenerate.
type ProbeSolve func(proj *project.Project, maxIterations int) float64

// DefaultProbeSolve builds a fresh Layout/Problem over proj and runs
// solver.Solve for maxIterations, the probe every candidate/alignment call
// uses unless a test substitutes a cheaper stand-in.
func DefaultProbeSolve(proj *project.Project, maxIterations int) float64 {
	layout, err := valuemap.BuildLayout(proj)
	if err != nil {
		return math.Inf(1)
	}
	problem := valuemap.NewProblem(proj, layout)
	opts := solver.DefaultOptions()
	opts.MaxIterations = maxIterations
	result := solver.Solve(problem, layout.Initial, opts)
	return result.FinalCost
}

// ToLockedPoints computes and applies the similarity transform (translate,
// scale, rotate) that best maps every point's current optimizedXyz onto its
// locked target, using >=2 anchor points (fully-locked points that already
// carry an optimizedXyz estimate). The rotation is built from the longest
// anchor pair's direction via spatialmath.QuaternionFromRotationBetweenVectors
// rather than a full least-squares Procrustes fit, matching spec.md §4.9's
// "find rotation via computeRotationBetweenVectors on the longest
// anchor-pair direction." After the transform, every locked point's
// optimizedXyz is snapped exactly to its EffectiveXyz. Returns false (no-op)
// if fewer than 2 anchors are available.
func ToLockedPoints(proj *project.Project, log *logging.ObserverLogger) bool {
	type anchor struct {
		wp  *project.WorldPoint
		src r3.Vector
		dst r3.Vector
	}
	var anchors []anchor
	for _, wp := range proj.WorldPoints() {
		if !wp.IsLocked() {
			continue
		}
		opt, ok := wp.Optimized()
		if !ok {
			continue
		}
		eff := wp.EffectiveXyz()
		anchors = append(anchors, anchor{
			wp:  wp,
			src: r3.Vector{X: opt[0], Y: opt[1], Z: opt[2]},
			dst: r3.Vector{X: *eff[0], Y: *eff[1], Z: *eff[2]},
		})
	}
	if len(anchors) < 2 {
		return false
	}

	var srcCentroid, dstCentroid r3.Vector
	for _, a := range anchors {
		srcCentroid = srcCentroid.Add(a.src)
		dstCentroid = dstCentroid.Add(a.dst)
	}
	n := float64(len(anchors))
	srcCentroid = srcCentroid.Mul(1 / n)
	dstCentroid = dstCentroid.Mul(1 / n)

	bestI, bestJ, bestDist := 0, 1, -1.0
	for i := 0; i < len(anchors); i++ {
		for j := i + 1; j < len(anchors); j++ {
			d := anchors[i].dst.Sub(anchors[j].dst).Norm()
			if d > bestDist {
				bestDist = d
				bestI, bestJ = i, j
			}
		}
	}
	srcDir := anchors[bestJ].src.Sub(anchors[bestI].src)
	dstDir := anchors[bestJ].dst.Sub(anchors[bestI].dst)
	srcLen, dstLen := srcDir.Norm(), dstDir.Norm()
	if srcLen < 1e-9 || dstLen < 1e-9 {
		return false
	}
	scale := dstLen / srcLen
	rot := spatialmath.QuaternionFromRotationBetweenVectors(srcDir, dstDir)

	if log != nil {
		log.Tag("Align", "locked-point similarity: scale=%.4f anchors=%d", scale, len(anchors))
	}

	applySimilarity(proj, srcCentroid, dstCentroid, scale, rot)

	for _, a := range anchors {
		a.wp.SetOptimized([3]float64{a.dst.X, a.dst.Y, a.dst.Z})
	}
	return true
}

// applySimilarity maps every world point that has an optimized estimate and
// every non-pose-locked camera's pose through
// p' = dstCentroid + scale*rot(p - srcCentroid).
func applySimilarity(proj *project.Project, srcCentroid, dstCentroid r3.Vector, scale float64, rot spatialmath.Quaternion) {
	transform := func(p r3.Vector) r3.Vector {
		return dstCentroid.Add(rot.RotatePoint(p.Sub(srcCentroid)).Mul(scale))
	}

	for _, wp := range proj.WorldPoints() {
		opt, ok := wp.Optimized()
		if !ok {
			continue
		}
		out := transform(r3.Vector{X: opt[0], Y: opt[1], Z: opt[2]})
		wp.SetOptimized([3]float64{out.X, out.Y, out.Z})
	}
	for _, vp := range proj.Viewpoints() {
		if vp.IsPoseLocked {
			continue
		}
		pos := r3.Vector{X: vp.Position[0], Y: vp.Position[1], Z: vp.Position[2]}
		out := transform(pos)
		vp.Position = [3]float64{out.X, out.Y, out.Z}
		vp.Quaternion = rot.Mul(vp.Quaternion).Normalized()
	}
}

// axisUnitVector returns the world-frame unit vector for an axis-aligned
// Direction (DirectionX/Y/Z only).
func axisUnitVector(a project.Axis) r3.Vector {
	switch a {
	case project.AxisX:
		return r3.Vector{X: 1}
	case project.AxisY:
		return r3.Vector{Y: 1}
	default:
		return r3.Vector{Z: 1}
	}
}

// LineDirectionResult reports the outcome of ToLineDirection.
type LineDirectionResult struct {
	Applied   bool
	Sign      int // +1 or -1, whichever orientation was applied.
	Ambiguous bool
}

// ToLineDirection rotates the scene (about the first axis-aligned line's
// current midpoint) so that line's endpoint-to-endpoint direction matches
// its declared world axis, trying both +axis and -axis orientations and
// picking between them per spec.md §4.9: a short LM probe solve when a
// second axis is absent or degenerate, else the second-axis dot-product
// heuristic comparing against any other axis-aligned line. forcedSign, when
// non-zero, skips disambiguation and applies that sign directly (the
// candidate orchestrator's _alignmentSign hook, used on a retry after an
// ambiguous first attempt).
func ToLineDirection(proj *project.Project, probe ProbeSolve, forcedSign int, log *logging.ObserverLogger) LineDirectionResult {
	line := firstAxisAlignedLine(proj)
	if line == nil {
		return LineDirectionResult{}
	}
	along := line.Direction.AlongAxes()
	axis := along[0]
	target := axisUnitVector(axis)

	a := proj.WorldPoint(line.Endpoints[0])
	b := proj.WorldPoint(line.Endpoints[1])
	aOpt, okA := a.Optimized()
	bOpt, okB := b.Optimized()
	if !okA || !okB {
		return LineDirectionResult{}
	}
	av := r3.Vector{X: aOpt[0], Y: aOpt[1], Z: aOpt[2]}
	bv := r3.Vector{X: bOpt[0], Y: bOpt[1], Z: bOpt[2]}
	current := bv.Sub(av)
	if current.Norm() < 1e-9 {
		return LineDirectionResult{}
	}
	midpoint := av.Add(bv).Mul(0.5)

	rotPlus := spatialmath.QuaternionFromRotationBetweenVectors(current, target)
	rotMinus := spatialmath.QuaternionFromRotationBetweenVectors(current, target.Mul(-1))

	if forcedSign != 0 {
		rot := rotPlus
		if forcedSign < 0 {
			rot = rotMinus
		}
		applySimilarity(proj, midpoint, midpoint, 1, rot)
		return LineDirectionResult{Applied: true, Sign: forcedSign}
	}

	second := secondAxisAlignedLine(proj, line)
	if second == nil || isDegenerateForHeuristic(proj, second, axis) {
		return decideByProbe(proj, probe, midpoint, rotPlus, rotMinus, log)
	}
	return decideByDotProduct(proj, second, axis, midpoint, rotPlus, rotMinus)
}

func firstAxisAlignedLine(proj *project.Project) *project.Line {
	for _, l := range proj.Lines() {
		if l.IsAxisAligned() {
			return l
		}
	}
	return nil
}

func secondAxisAlignedLine(proj *project.Project, first *project.Line) *project.Line {
	for _, l := range proj.Lines() {
		if l.ID != first.ID && l.IsAxisAligned() {
			return l
		}
	}
	return nil
}

func isDegenerateForHeuristic(proj *project.Project, line *project.Line, primaryAxis project.Axis) bool {
	along := line.Direction.AlongAxes()
	return along[0] == primaryAxis
}

func decideByProbe(proj *project.Project, probe ProbeSolve, midpoint r3.Vector, rotPlus, rotMinus spatialmath.Quaternion, log *logging.ObserverLogger) LineDirectionResult {
	if probe == nil {
		probe = DefaultProbeSolve
	}
	for _, iters := range []int{30, 300, 500} {
		plusCost := probeWithRotation(proj, probe, midpoint, rotPlus, iters)
		minusCost := probeWithRotation(proj, probe, midpoint, rotMinus, iters)

		if log != nil {
			log.Tag("Align", "probe@%d iters: +axis cost=%.6g -axis cost=%.6g", iters, plusCost, minusCost)
		}

		lo, hi := plusCost, minusCost
		if hi < lo {
			lo, hi = hi, lo
		}
		if lo == 0 || (hi-lo)/maxF(lo, 1e-12) > 0.01 {
			sign := 1
			rot := rotPlus
			if minusCost < plusCost {
				sign = -1
				rot = rotMinus
			}
			applySimilarity(proj, midpoint, midpoint, 1, rot)
			return LineDirectionResult{Applied: true, Sign: sign}
		}
	}
	// Both orientations converge within 1% of each other even at the full
	// iteration budget (spec.md §9 leaves this case open). The +axis
	// rotation is applied and the result is reported with Ambiguous set.
	applySimilarity(proj, midpoint, midpoint, 1, rotPlus)
	return LineDirectionResult{Applied: true, Sign: 1, Ambiguous: true}
}

func probeWithRotation(proj *project.Project, probe ProbeSolve, midpoint r3.Vector, rot spatialmath.Quaternion, iters int) float64 {
	saved := snapshotPoses(proj)
	applySimilarity(proj, midpoint, midpoint, 1, rot)
	cost := probe(proj, iters)
	restorePoses(proj, saved)
	return cost
}

type poseState struct {
	worldPoints map[project.WorldPointID][3]float64
	cameras     map[project.ViewpointID]struct {
		pos [3]float64
		q   spatialmath.Quaternion
	}
}

func snapshotPoses(proj *project.Project) poseState {
	s := poseState{
		worldPoints: map[project.WorldPointID][3]float64{},
		cameras: map[project.ViewpointID]struct {
			pos [3]float64
			q   spatialmath.Quaternion
		}{},
	}
	for _, wp := range proj.WorldPoints() {
		if opt, ok := wp.Optimized(); ok {
			s.worldPoints[wp.ID] = opt
		}
	}
	for _, vp := range proj.Viewpoints() {
		s.cameras[vp.ID] = struct {
			pos [3]float64
			q   spatialmath.Quaternion
		}{vp.Position, vp.Quaternion}
	}
	return s
}

func restorePoses(proj *project.Project, s poseState) {
	for id, xyz := range s.worldPoints {
		proj.WorldPoint(id).SetOptimized(xyz)
	}
	for id, cam := range s.cameras {
		vp := proj.Viewpoint(id)
		vp.Position = cam.pos
		vp.Quaternion = cam.q
	}
}

func decideByDotProduct(proj *project.Project, second *project.Line, primaryAxis project.Axis, midpoint r3.Vector, rotPlus, rotMinus spatialmath.Quaternion) LineDirectionResult {
	secondAxis := second.Direction.AlongAxes()[0]
	a := proj.WorldPoint(second.Endpoints[0])
	b := proj.WorldPoint(second.Endpoints[1])
	aOpt, _ := a.Optimized()
	bOpt, _ := b.Optimized()
	av := r3.Vector{X: aOpt[0], Y: aOpt[1], Z: aOpt[2]}
	bv := r3.Vector{X: bOpt[0], Y: bOpt[1], Z: bOpt[2]}
	current := bv.Sub(av)
	target := axisUnitVector(secondAxis)

	rotatedPlus := rotPlus.RotatePoint(current)
	dot := rotatedPlus.Dot(target)

	sign := 1
	rot := rotPlus
	if dot < 0 {
		sign = -1
		rot = rotMinus
	}
	applySimilarity(proj, midpoint, midpoint, 1, rot)
	return LineDirectionResult{Applied: true, Sign: sign}
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
