// Package lifecycle snapshots and restores Project state across candidate
// attempts (§4.12), and resets solve-scoped caches (residuals, outlier
// flags, inferred coordinates) between attempts without touching
// user-supplied data the next attempt still needs.
package lifecycle

import "go.viam.com/rotera/project"

// WorldPointSnapshot captures one world point's mutable solve state.
type WorldPointSnapshot struct {
	Optimized    *[3]float64
	HasOptimized bool
	Inferred     [3]*float64
}

// ViewpointSnapshot captures one viewpoint's pose, intrinsics, and
// z-reflection flag -- spec.md §9's open question flags IsZReflected as
// subtle across candidate attempts, so it is snapshotted alongside pose.
type ViewpointSnapshot struct {
	Position     [3]float64
	Quaternion   [4]float64 // w, x, y, z
	Intrinsics   project.Intrinsics
	IsZReflected bool
	InitStatus   project.InitStatus
}

// Snapshot is an immutable point-in-time copy of every Project field the
// solve lifecycle mutates, per spec.md §4.12's snapshot format.
type Snapshot struct {
	worldPoints map[project.WorldPointID]WorldPointSnapshot
	viewpoints  map[project.ViewpointID]ViewpointSnapshot
}

// Save captures the current mutable solve state of every entity in proj.
func Save(proj *project.Project) *Snapshot {
	s := &Snapshot{
		worldPoints: map[project.WorldPointID]WorldPointSnapshot{},
		viewpoints:  map[project.ViewpointID]ViewpointSnapshot{},
	}
	for _, wp := range proj.WorldPoints() {
		opt, hasOpt := wp.Optimized()
		var inferred [3]*float64
		for a := project.Axis(0); a < 3; a++ {
			if v, ok := wp.InferredAxis(a); ok {
				vv := v
				inferred[a] = &vv
			}
		}
		snap := WorldPointSnapshot{Inferred: inferred}
		if hasOpt {
			o := opt
			snap.Optimized = &o
			snap.HasOptimized = true
		}
		s.worldPoints[wp.ID] = snap
	}
	for _, vp := range proj.Viewpoints() {
		s.viewpoints[vp.ID] = ViewpointSnapshot{
			Position:     vp.Position,
			Quaternion:   [4]float64{vp.Quaternion.W(), vp.Quaternion.X(), vp.Quaternion.Y(), vp.Quaternion.Z()},
			Intrinsics:   vp.Intrinsics,
			IsZReflected: vp.IsZReflected,
			InitStatus:   vp.InitStatus,
		}
	}
	return s
}

// Restore writes every captured field back onto proj, bit-identical to the
// values Save observed; idempotent (save -> mutate -> restore returns every
// tracked field to its saved value, per spec.md §8's round-trip property).
func Restore(proj *project.Project, s *Snapshot) {
	for _, wp := range proj.WorldPoints() {
		snap, ok := s.worldPoints[wp.ID]
		if !ok {
			continue
		}
		wp.ClearInferred()
		for a := project.Axis(0); a < 3; a++ {
			if snap.Inferred[a] != nil {
				wp.SetInferredAxis(a, *snap.Inferred[a])
			}
		}
		if snap.HasOptimized {
			wp.SetOptimized(*snap.Optimized)
		} else {
			wp.ClearOptimized()
		}
	}
	for _, vp := range proj.Viewpoints() {
		snap, ok := s.viewpoints[vp.ID]
		if !ok {
			continue
		}
		vp.Position = snap.Position
		vp.Quaternion.Real = snap.Quaternion[0]
		vp.Quaternion.Imag = snap.Quaternion[1]
		vp.Quaternion.Jmag = snap.Quaternion[2]
		vp.Quaternion.Kmag = snap.Quaternion[3]
		vp.Intrinsics = snap.Intrinsics
		vp.IsZReflected = snap.IsZReflected
		vp.InitStatus = snap.InitStatus
	}
}

// ResetOptions configures ResetForAttempt.
type ResetOptions struct {
	// ClearUserOptimized, when true, also clears world points' optimizedXyz
	// even if the user supplied one from a prior run, matching spec.md
	// §4.12's "does not clear user-supplied optimizedXyz unless
	// autoInitializeWorldPoints is set."
	ClearUserOptimized bool
}

// ResetForAttempt clears per-attempt solve caches before a fresh candidate
// attempt: image-point residuals/outlier flags/reprojected pixels, and
// (when requested) world points' optimized coordinates. Inferred
// coordinates are always cleared since PropagateInferences/branching
// recomputes them fresh for every attempt.
func ResetForAttempt(proj *project.Project, opts ResetOptions) {
	for _, ip := range proj.ImagePoints() {
		ip.ReprojectedU, ip.ReprojectedV = 0, 0
		ip.IsOutlier = false
		ip.LastResiduals = [2]float64{}
	}
	for _, wp := range proj.WorldPoints() {
		wp.ClearInferred()
		if opts.ClearUserOptimized {
			wp.ClearOptimized()
		}
	}
}

// ResetCamerasForInitialization resets each viewpoint's distortion/skew to
// zero, aspect to 1, focal length to max(w,h) if the current value is
// outside [0.3*min(w,h), 5*max(w,h)], and snaps the principal point to the
// image center if it lies outside the image bounds, per spec.md §4.12.
func ResetCamerasForInitialization(proj *project.Project) {
	for _, vp := range proj.Viewpoints() {
		w, h := vp.ImageWidth, vp.ImageHeight
		vp.Intrinsics.Skew = 0
		vp.Intrinsics.RadialK1, vp.Intrinsics.RadialK2, vp.Intrinsics.RadialK3 = 0, 0, 0
		vp.Intrinsics.TangentialP1, vp.Intrinsics.TangentialP2 = 0, 0
		vp.Intrinsics.AspectRatio = 1

		maxDim, minDim := w, h
		if h > w {
			maxDim, minDim = h, w
		}
		lower, upper := 0.3*minDim, 5*maxDim
		if vp.Intrinsics.FocalLength < lower || vp.Intrinsics.FocalLength > upper {
			vp.Intrinsics.FocalLength = maxDim
		}

		if vp.Intrinsics.PrincipalX < 0 || vp.Intrinsics.PrincipalX > w ||
			vp.Intrinsics.PrincipalY < 0 || vp.Intrinsics.PrincipalY > h {
			vp.Intrinsics.PrincipalX = w / 2
			vp.Intrinsics.PrincipalY = h / 2
		}
	}
}
