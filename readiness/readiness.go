// Package readiness analyzes a Project's degrees of freedom and gates
// whether a solve can proceed (§4.11). A solve is blocked (error issues)
// without an enabled camera, at least one free entity, at least one
// constraint or observation, or at least one viable initialization path
// (PnP, VP, or two-view Essential Matrix). A missing scale reference, a
// missing axis reference, a world point with ambiguous depth, and
// duplicate anchor positions are reported as warnings and do not block.
package readiness

import (
	"go.viam.com/rotera/pnp"
	"go.viam.com/rotera/project"
	"go.viam.com/rotera/vanishing"
)

// Severity classifies an Issue.
type Severity string

// Severities, matching spec.md §4.11's "typed {error|warning|info}".
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Stable issue codes.
const (
	CodeNoFreeEntity        = "NO_FREE_ENTITY"
	CodeNoConstraints       = "NO_CONSTRAINTS_OR_OBSERVATIONS"
	CodeNoInitPath          = "NO_INITIALIZATION_PATH"
	CodeNoScaleReference    = "NO_SCALE_REFERENCE"
	CodeNoAxisReference     = "NO_AXIS_REFERENCE"
	CodeAmbiguousDepth      = "AMBIGUOUS_DEPTH"
	CodeDuplicateAnchor     = "DUPLICATE_ANCHOR_POSITION"
	CodeNoEnabledCamera     = "NO_ENABLED_CAMERA"
	CodeInsufficientSamples = "INSUFFICIENT_CORRESPONDENCES"
)

// Issue is one finding from Analyze, carrying a stable code a caller can
// switch on plus a human-readable message.
type Issue struct {
	Code     string
	Severity Severity
	Message  string

	// WorldPoint is set for per-point issues (e.g. AMBIGUOUS_DEPTH),
	// project.invalidID (-1) otherwise.
	WorldPoint project.WorldPointID
}

// Result is the full readiness report for a Project.
type Result struct {
	CanOptimize   bool
	CanInitialize bool
	TotalDOF      int
	ConstraintDOF int
	NetDOF        int
	Issues        []Issue
}

const emMinCorrespondences = 7
const duplicateAnchorEpsilon = 1e-6

// Analyze runs every readiness check from spec.md §4.11 over proj.
func Analyze(proj *project.Project) Result {
	var issues []Issue

	enabledCameras := enabledViewpoints(proj)
	if len(enabledCameras) == 0 {
		issues = append(issues, Issue{Code: CodeNoEnabledCamera, Severity: SeverityError,
			Message: "no viewpoint is enabled in solve", WorldPoint: -1})
	}

	if !hasFreeEntity(proj) {
		issues = append(issues, Issue{Code: CodeNoFreeEntity, Severity: SeverityError,
			Message: "every world point and camera is fully locked; nothing to optimize", WorldPoint: -1})
	}

	if !hasConstraintsOrObservations(proj) {
		issues = append(issues, Issue{Code: CodeNoConstraints, Severity: SeverityError,
			Message: "no constraints or image-point observations in project", WorldPoint: -1})
	}

	canPnP, canVP, canEM := initializationPaths(proj, enabledCameras)
	canInitialize := canPnP || canVP || canEM
	if !canInitialize {
		issues = append(issues, Issue{Code: CodeNoInitPath, Severity: SeverityError,
			Message: "no camera has enough constrained points for PnP, vanishing lines for VP, " +
				"or shared correspondences with another camera for two-view geometry", WorldPoint: -1})
	}

	if !hasScaleReference(proj) {
		issues = append(issues, Issue{Code: CodeNoScaleReference, Severity: SeverityWarning,
			Message: "no fixed-length line or locked-point pair establishes scale; result will be scale-free", WorldPoint: -1})
	}

	if !hasAxisReference(proj) {
		issues = append(issues, Issue{Code: CodeNoAxisReference, Severity: SeverityWarning,
			Message: "no axis-aligned line or vanishing lines establish world axes; result orientation will be arbitrary", WorldPoint: -1})
	}

	issues = append(issues, ambiguousDepthIssues(proj)...)
	issues = append(issues, duplicateAnchorIssues(proj)...)

	totalDOF, constraintDOF := degreesOfFreedom(proj)

	canOptimize := hasFreeEntity(proj) && hasConstraintsOrObservations(proj) && len(enabledCameras) > 0
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			canOptimize = false
		}
	}

	return Result{
		CanOptimize:   canOptimize,
		CanInitialize: canInitialize,
		TotalDOF:      totalDOF,
		ConstraintDOF: constraintDOF,
		NetDOF:        totalDOF - constraintDOF,
		Issues:        issues,
	}
}

func enabledViewpoints(proj *project.Project) []*project.Viewpoint {
	var out []*project.Viewpoint
	for _, vp := range proj.Viewpoints() {
		if vp.EnabledInSolve {
			out = append(out, vp)
		}
	}
	return out
}

func hasFreeEntity(proj *project.Project) bool {
	for _, wp := range proj.WorldPoints() {
		if !wp.IsLocked() {
			return true
		}
	}
	for _, vp := range proj.Viewpoints() {
		if vp.EnabledInSolve && !vp.IsPoseLocked {
			return true
		}
	}
	return false
}

func hasConstraintsOrObservations(proj *project.Project) bool {
	return len(proj.ImagePoints()) > 0 || len(proj.Constraints()) > 0
}

// initializationPaths reports, per spec.md §4.11, whether at least one
// camera qualifies for PnP, at least one for VP, or two cameras share
// enough correspondences for Essential Matrix recovery.
func initializationPaths(proj *project.Project, cameras []*project.Viewpoint) (canPnP, canVP, canEM bool) {
	lockedPoints := 0
	hasFixedLengthLine := false
	for _, wp := range proj.WorldPoints() {
		if wp.IsLocked() {
			lockedPoints++
		}
	}
	for _, l := range proj.Lines() {
		if l.HasFixedLength() {
			hasFixedLengthLine = true
			break
		}
	}

	for _, vp := range cameras {
		if pnp.VisibleConstrainedPoints(proj, vp) >= 3 {
			canPnP = true
		}
		linesByAxis := map[project.Axis][]*project.VanishingLine{}
		for _, id := range vp.VanishingLines() {
			vl := proj.VanishingLine(id)
			linesByAxis[vl.Axis] = append(linesByAxis[vl.Axis], vl)
		}
		if vanishing.CanInitializeWithVP(linesByAxis, lockedPoints, hasFixedLengthLine) {
			canVP = true
		}
	}

	for i := 0; i < len(cameras); i++ {
		for j := i + 1; j < len(cameras); j++ {
			if sharedCorrespondences(proj, cameras[i], cameras[j]) >= emMinCorrespondences {
				canEM = true
			}
		}
	}
	return
}

func sharedCorrespondences(proj *project.Project, a, b *project.Viewpoint) int {
	seenA := map[project.WorldPointID]bool{}
	for _, id := range a.ImagePoints() {
		seenA[proj.ImagePoint(id).WorldPoint] = true
	}
	count := 0
	for _, id := range b.ImagePoints() {
		if seenA[proj.ImagePoint(id).WorldPoint] {
			count++
		}
	}
	return count
}

func hasScaleReference(proj *project.Project) bool {
	for _, l := range proj.Lines() {
		if l.HasFixedLength() {
			return true
		}
	}
	locked := 0
	for _, wp := range proj.WorldPoints() {
		if wp.IsLocked() {
			locked++
		}
	}
	return locked >= 2
}

func hasAxisReference(proj *project.Project) bool {
	for _, l := range proj.Lines() {
		if l.IsAxisAligned() {
			return true
		}
	}
	for _, vp := range proj.Viewpoints() {
		if len(vp.VanishingLines()) >= 2 {
			return true
		}
	}
	return false
}

// ambiguousDepthIssues finds world points with no path, through the line
// graph, to a point visible in 2+ cameras (a "multi-camera anchor"): such a
// point's depth along its one observing ray is unconstrained.
func ambiguousDepthIssues(proj *project.Project) []Issue {
	var anchors []project.WorldPointID
	for _, wp := range proj.WorldPoints() {
		if countVisibleCameras(proj, wp.ID) >= 2 || wp.IsFullyConstrained() {
			anchors = append(anchors, wp.ID)
		}
	}
	if len(anchors) == 0 {
		return nil
	}
	reachable := buildLineGraph(proj).reachableFrom(anchors)

	var issues []Issue
	for _, wp := range proj.WorldPoints() {
		if !reachable[wp.ID] && countVisibleCameras(proj, wp.ID) < 2 && !wp.IsFullyConstrained() {
			issues = append(issues, Issue{
				Code: CodeAmbiguousDepth, Severity: SeverityWarning,
				Message:    "world point \"" + wp.Name + "\" is visible in only one camera and not connected by a line to any multi-camera or fully-constrained anchor",
				WorldPoint: wp.ID,
			})
		}
	}
	return issues
}

func countVisibleCameras(proj *project.Project, id project.WorldPointID) int {
	seen := map[project.ViewpointID]bool{}
	for _, ipID := range proj.ImagePointsOf(id) {
		seen[proj.ImagePoint(ipID).Viewpoint] = true
	}
	return len(seen)
}

// duplicateAnchorIssues flags pairs of fully-constrained world points whose
// effective positions coincide within duplicateAnchorEpsilon, a sign of a
// data-entry mistake the solver cannot recover from (it would treat the two
// names as the same point but keep separate observations).
func duplicateAnchorIssues(proj *project.Project) []Issue {
	var anchors []*project.WorldPoint
	for _, wp := range proj.WorldPoints() {
		if wp.IsFullyConstrained() {
			anchors = append(anchors, wp)
		}
	}
	var issues []Issue
	for i := 0; i < len(anchors); i++ {
		for j := i + 1; j < len(anchors); j++ {
			if sameEffectivePosition(anchors[i], anchors[j]) {
				issues = append(issues, Issue{
					Code: CodeDuplicateAnchor, Severity: SeverityWarning,
					Message:    "world points \"" + anchors[i].Name + "\" and \"" + anchors[j].Name + "\" share the same constrained position",
					WorldPoint: anchors[i].ID,
				})
			}
		}
	}
	return issues
}

func sameEffectivePosition(a, b *project.WorldPoint) bool {
	ea, eb := a.EffectiveXyz(), b.EffectiveXyz()
	for axis := 0; axis < 3; axis++ {
		if ea[axis] == nil || eb[axis] == nil {
			return false
		}
		if absDiff(*ea[axis], *eb[axis]) > duplicateAnchorEpsilon {
			return false
		}
	}
	return true
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

// degreesOfFreedom counts total unknowns (3 per unlocked world point, 7 per
// unlocked-pose enabled camera) against the constraint DOF fixed-length
// lines, direction constraints, and explicit constraints remove.
func degreesOfFreedom(proj *project.Project) (total, constraintDOF int) {
	for _, wp := range proj.WorldPoints() {
		eff := wp.EffectiveXyz()
		for a := 0; a < 3; a++ {
			if eff[a] == nil {
				total++
			} else {
				constraintDOF++
			}
		}
	}
	for _, vp := range proj.Viewpoints() {
		if !vp.EnabledInSolve {
			continue
		}
		if vp.IsPoseLocked {
			constraintDOF += 7
		} else {
			total += 7
		}
	}
	for _, l := range proj.Lines() {
		constraintDOF += len(l.Direction.SharedAxes())
		if l.HasFixedLength() {
			constraintDOF++
		}
	}
	for _, c := range proj.Constraints() {
		constraintDOF += len(c.InvolvedWorldPoints())
	}
	return total, constraintDOF
}
