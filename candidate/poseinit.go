package candidate

import (
	"math/rand"

	"github.com/golang/geo/r3"

	"go.viam.com/rotera/pnp"
	"go.viam.com/rotera/project"
	"go.viam.com/rotera/spatialmath"
	"go.viam.com/rotera/twoview"
	"go.viam.com/rotera/vanishing"
)

const emMinCorrespondences = 7

// initializeCameraPoses assigns every enabled, not-pose-locked,
// uninitialized camera a pose via the VP -> PnP -> EM fallback chain
// (§9's failure semantics): vanishing points recover orientation and focal
// length without needing any other camera; PnP needs 3+ already-constrained
// points in view; two-view Essential Matrix recovery needs a partner camera
// sharing 7+ correspondences and yields only a relative pose, so the first
// pair anchors itself at the world origin when neither side has a pose yet.
func initializeCameraPoses(proj *project.Project, seed int64) {
	for _, vp := range proj.Viewpoints() {
		if !vp.EnabledInSolve {
			continue
		}
		if vp.IsPoseLocked {
			vp.InitStatus = project.Refined
			continue
		}
		if vp.InitStatus != project.Uninitialized {
			continue
		}
		if tryVP(proj, vp) {
			continue
		}
		if tryPnP(proj, vp) {
			continue
		}
		tryEM(proj, vp, seed)
	}
}

// tryVP estimates orientation and focal length from the camera's own
// vanishing lines, grouped by axis, needing 2+ lines on each of 2+ axes.
func tryVP(proj *project.Project, vp *project.Viewpoint) bool {
	linesByAxis := map[project.Axis][]*project.VanishingLine{}
	for _, id := range vp.VanishingLines() {
		vl := proj.VanishingLine(id)
		linesByAxis[vl.Axis] = append(linesByAxis[vl.Axis], vl)
	}

	vps := map[project.Axis]vanishing.Point{}
	for axis, lines := range linesByAxis {
		if len(lines) < 2 {
			continue
		}
		pt, ok := vanishing.EstimateVanishingPoint(lines)
		if !ok {
			continue
		}
		vps[axis] = pt
	}
	if len(vps) < 2 {
		return false
	}

	cx, cy := vp.EffectivePrincipalPoint()
	pp := vanishing.Point{X: cx, Y: cy}

	var first, second project.Axis
	found := 0
	for _, axis := range []project.Axis{project.AxisX, project.AxisY, project.AxisZ} {
		if _, ok := vps[axis]; !ok {
			continue
		}
		if found == 0 {
			first = axis
		} else if found == 1 {
			second = axis
		}
		found++
	}
	f, ok := vanishing.FocalLengthFromOrthogonalVPs(vps[first], vps[second], pp)
	if !ok || f <= 0 {
		return false
	}

	candidates := vanishing.RotationCandidatesFromVPs(vps, pp, f)
	if len(candidates) == 0 {
		return false
	}

	vp.Intrinsics.FocalLength = f
	vp.Quaternion = candidates[0].Quaternion()
	vp.InitStatus = project.VPInitialized
	return true
}

// tryPnP recovers pose from the camera's fully-constrained visible points.
func tryPnP(proj *project.Project, vp *project.Viewpoint) bool {
	var corr []pnp.Correspondence
	cx, cy := vp.EffectivePrincipalPoint()
	f := vp.Intrinsics.FocalLength
	if f == 0 {
		f = 1
	}
	for _, id := range vp.ImagePoints() {
		ip := proj.ImagePoint(id)
		wp := proj.WorldPoint(ip.WorldPoint)
		if !wp.IsFullyConstrained() {
			continue
		}
		eff := wp.EffectiveXyz()
		corr = append(corr, pnp.Correspondence{
			World: r3.Vector{X: *eff[0], Y: *eff[1], Z: *eff[2]},
			X:     (ip.U - cx) / f,
			Y:     (ip.V - cy) / f,
		})
	}
	if len(corr) < 3 {
		return false
	}
	res, err := pnp.Estimate(corr)
	if err != nil || !pnp.Reliable(corr, res) {
		return false
	}
	vp.Position = [3]float64{res.Position.X, res.Position.Y, res.Position.Z}
	vp.Quaternion = res.Quaternion
	vp.InitStatus = project.PnPInitialized
	return true
}

// tryEM recovers vp's pose relative to the first partner camera sharing
// enough correspondences, anchoring both cameras at the world origin when
// neither already carries a pose, or composing onto the partner's existing
// world pose otherwise.
func tryEM(proj *project.Project, vp *project.Viewpoint, seed int64) bool {
	for _, other := range proj.Viewpoints() {
		if other.ID == vp.ID || !other.EnabledInSolve {
			continue
		}
		corr, ok := sharedEMCorrespondences(proj, vp, other)
		if !ok {
			continue
		}
		rng := rand.New(rand.NewSource(seed))
		res, err := twoview.Estimate(corr, rng)
		if err != nil {
			continue
		}

		if other.InitStatus == project.Uninitialized {
			other.Position = [3]float64{}
			other.Quaternion = spatialmath.Quaternion{Real: 1}
			other.InitStatus = project.EMInitialized
		}
		refPos := r3.Vector{X: other.Position[0], Y: other.Position[1], Z: other.Position[2]}
		worldPos := refPos.Add(other.Quaternion.RotatePoint(res.Position))
		vp.Position = [3]float64{worldPos.X, worldPos.Y, worldPos.Z}
		vp.Quaternion = other.Quaternion.Mul(res.Quaternion).Normalized()
		vp.InitStatus = project.EMInitialized
		return true
	}
	return false
}

// sharedEMCorrespondences builds normalized-coordinate correspondences from
// every world point both cameras observe, in two-view's cam1=a, cam2=b
// convention.
func sharedEMCorrespondences(proj *project.Project, b, a *project.Viewpoint) ([]twoview.Correspondence, bool) {
	aByPoint := map[project.WorldPointID]*project.ImagePoint{}
	for _, id := range a.ImagePoints() {
		ip := proj.ImagePoint(id)
		aByPoint[ip.WorldPoint] = ip
	}

	cxA, cyA := a.EffectivePrincipalPoint()
	fA := a.Intrinsics.FocalLength
	if fA == 0 {
		fA = 1
	}
	cxB, cyB := b.EffectivePrincipalPoint()
	fB := b.Intrinsics.FocalLength
	if fB == 0 {
		fB = 1
	}

	var corr []twoview.Correspondence
	for _, id := range b.ImagePoints() {
		ipB := proj.ImagePoint(id)
		ipA, ok := aByPoint[ipB.WorldPoint]
		if !ok {
			continue
		}
		corr = append(corr, twoview.Correspondence{
			X1: (ipA.U - cxA) / fA, Y1: (ipA.V - cyA) / fA,
			X2: (ipB.U - cxB) / fB, Y2: (ipB.V - cyB) / fB,
		})
	}
	if len(corr) < emMinCorrespondences {
		return nil, false
	}
	return corr, true
}
