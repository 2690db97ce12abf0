// Package initialization runs the six-phase unified world-point seeding
// pipeline (§4.8): locked points first, then propagated/triangulated/BFS'd/
// coplanar-laid-out/randomly-filled, in that priority order, so every
// downstream LM solve starts from a usable first guess regardless of how
// sparsely the user annotated the scene.
package initialization

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r3"

	"go.viam.com/rotera/linalg"
	"go.viam.com/rotera/logging"
	"go.viam.com/rotera/project"
)

const (
	defaultSceneScale   = 10.0
	coplanarZSeparation = 0.3
	bfsStepFraction     = 0.5
)

// Seed runs all six phases over proj, writing optimizedXyz for every world
// point it can determine and leaving any point Phase 6 cannot avoid
// randomizing at a seeded-random position so the solve always has a
// starting point for every variable.
func Seed(proj *project.Project, seed int64, log *logging.ObserverLogger) {
	tag := func(f string, args ...interface{}) {
		if log != nil {
			log.Tag("Init", f, args...)
		}
	}

	n1 := phaseSeedFullyConstrained(proj)
	tag("phase 1: seeded %d fully-constrained points", n1)

	n2 := phasePropagateLines(proj)
	tag("phase 2: propagated %d additional points through fixed-length lines", n2)

	n3 := phaseTriangulate(proj)
	tag("phase 3: triangulated %d points from multi-camera observations", n3)

	scale := sceneScale(proj)
	n4 := phaseBFSLineGraph(proj, scale)
	tag("phase 4: propagated %d points across the line graph (scene scale %.3f)", n4, scale)

	n5 := phaseCoplanarGrid(proj, scale)
	tag("phase 5: laid out %d points in coplanar groups", n5)

	n6 := phaseRandomFill(proj, scale, seed)
	tag("phase 6: randomly placed %d still-unseeded points (seed %d)", n6, seed)
}

// phaseSeedFullyConstrained sets optimizedXyz = EffectiveXyz for every
// world point whose locked+inferred axes are all known, preserving any
// point that already carries an optimizedXyz from a prior attempt.
func phaseSeedFullyConstrained(proj *project.Project) int {
	count := 0
	for _, wp := range proj.WorldPoints() {
		if _, ok := wp.Optimized(); ok {
			continue
		}
		eff := wp.EffectiveXyz()
		if eff[0] == nil || eff[1] == nil || eff[2] == nil {
			continue
		}
		wp.SetOptimized([3]float64{*eff[0], *eff[1], *eff[2]})
		count++
	}
	return count
}

// phasePropagateLines runs the project's deterministic propagation to a
// fixpoint (at most 10 sweeps, via Project.PropagateInferences)
// and seeds any point newly fully-constrained as a result.
func phasePropagateLines(proj *project.Project) int {
	proj.PropagateInferences()
	return phaseSeedFullyConstrained(proj)
}

// phaseTriangulate seeds any point visible in 2+ already-initialized
// cameras (EnabledInSolve, InitStatus != Uninitialized) via DLT ray-ray
// triangulation; the first valid camera pair for a point wins.
func phaseTriangulate(proj *project.Project) int {
	count := 0
	for _, wp := range proj.WorldPoints() {
		if _, ok := wp.Optimized(); ok {
			continue
		}
		obs := initializedObservations(proj, wp.ID)
		if len(obs) < 2 {
			continue
		}
		for i := 0; i < len(obs); i++ {
			found := false
			for j := i + 1; j < len(obs); j++ {
				p, ok := triangulateRayRay(proj, obs[i], obs[j])
				if !ok {
					continue
				}
				wp.SetOptimized([3]float64{p.X, p.Y, p.Z})
				count++
				found = true
				break
			}
			if found {
				break
			}
		}
	}
	return count
}

type observation struct {
	vp   *project.Viewpoint
	ip   *project.ImagePoint
}

func initializedObservations(proj *project.Project, wpID project.WorldPointID) []observation {
	var out []observation
	for _, ipID := range proj.ImagePointsOf(wpID) {
		ip := proj.ImagePoint(ipID)
		vp := proj.Viewpoint(ip.Viewpoint)
		if vp.EnabledInSolve && vp.InitStatus != project.Uninitialized {
			out = append(out, observation{vp: vp, ip: ip})
		}
	}
	return out
}

// triangulateRayRay recovers a world point from two cameras' observations
// via the homogeneous DLT linear system (the same 4x4-smallest-eigenvector
// construction twoview's pose-candidate triangulator uses, generalized
// here to world-frame cameras instead of a relative pose pair).
func triangulateRayRay(proj *project.Project, a, b observation) (r3.Vector, bool) {
	p1, ok1 := projectionMatrix(a.vp)
	p2, ok2 := projectionMatrix(b.vp)
	if !ok1 || !ok2 {
		return r3.Vector{}, false
	}

	u1 := normalizedPixel(a.vp, a.ip.U, a.ip.V)
	u2 := normalizedPixel(b.vp, b.ip.U, b.ip.V)

	m := make([]float64, 16)
	fillDLTRow(m, 0, u1.X, p1[0], p1[2])
	fillDLTRow(m, 1, u1.Y, p1[1], p1[2])
	fillDLTRow(m, 2, u2.X, p2[0], p2[2])
	fillDLTRow(m, 3, u2.Y, p2[1], p2[2])

	ata := make([]float64, 16)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[k*4+i] * m[k*4+j]
			}
			ata[i*4+j] = sum
		}
	}
	values, vectors := linalg.JacobiEigen(ata, 4)
	minIdx := 0
	for i := 1; i < 4; i++ {
		if values[i] < values[minIdx] {
			minIdx = i
		}
	}
	w := vectors[3*4+minIdx]
	if math.Abs(w) < 1e-12 {
		return r3.Vector{}, false
	}
	point := r3.Vector{
		X: vectors[0*4+minIdx] / w,
		Y: vectors[1*4+minIdx] / w,
		Z: vectors[2*4+minIdx] / w,
	}
	if !inFrontOf(a.vp, point) || !inFrontOf(b.vp, point) {
		return r3.Vector{}, false
	}
	return point, true
}

// projectionMatrix builds the 3x4 world-to-camera-normalized-coordinates
// matrix [R^-1 | -R^-1*C] for vp, the row form fillDLTRow expects.
func projectionMatrix(vp *project.Viewpoint) ([3][4]float64, bool) {
	rInv := vp.Quaternion.Inv()
	c := r3.Vector{X: vp.Position[0], Y: vp.Position[1], Z: vp.Position[2]}
	t := rInv.RotatePoint(c.Mul(-1))

	rows := rotationRows(rInv)
	var out [3][4]float64
	for row := 0; row < 3; row++ {
		out[row][0], out[row][1], out[row][2] = rows[row][0], rows[row][1], rows[row][2]
	}
	out[0][3], out[1][3], out[2][3] = t.X, t.Y, t.Z
	return out, true
}

func rotationRows(q interface{ RotatePoint(r3.Vector) r3.Vector }) [3][3]float64 {
	x := q.RotatePoint(r3.Vector{X: 1})
	y := q.RotatePoint(r3.Vector{Y: 1})
	z := q.RotatePoint(r3.Vector{Z: 1})
	return [3][3]float64{
		{x.X, y.X, z.X},
		{x.Y, y.Y, z.Y},
		{x.Z, y.Z, z.Z},
	}
}

func normalizedPixel(vp *project.Viewpoint, u, v float64) r3.Vector {
	cx, cy := vp.EffectivePrincipalPoint()
	f := vp.Intrinsics.FocalLength
	if f == 0 {
		f = 1
	}
	return r3.Vector{X: (u - cx) / f, Y: -(v - cy) / vp.Intrinsics.FocalLengthY(), Z: 1}
}

func fillDLTRow(a []float64, row int, coord float64, pRow, pLast [4]float64) {
	for i := 0; i < 4; i++ {
		a[row*4+i] = coord*pLast[i] - pRow[i]
	}
}

func inFrontOf(vp *project.Viewpoint, p r3.Vector) bool {
	c := r3.Vector{X: vp.Position[0], Y: vp.Position[1], Z: vp.Position[2]}
	rel := vp.Quaternion.Inv().RotatePoint(p.Sub(c))
	return rel.Z > 0.1
}

// phaseBFSLineGraph walks outward from every already-seeded point across
// the lines touching it, placing each newly-reached neighbor stepLength
// away along the line's constrained direction (or an arbitrary direction
// for a free line), disambiguating axis sign by reprojection error in any
// VP-initialized camera that observes both endpoints.
func phaseBFSLineGraph(proj *project.Project, scale float64) int {
	incident := map[project.WorldPointID][]*project.Line{}
	for _, l := range proj.Lines() {
		a, b := l.Endpoints[0], l.Endpoints[1]
		incident[a] = append(incident[a], l)
		incident[b] = append(incident[b], l)
	}

	seeded := map[project.WorldPointID]bool{}
	var queue []project.WorldPointID
	for _, wp := range proj.WorldPoints() {
		if _, ok := wp.Optimized(); ok {
			seeded[wp.ID] = true
			queue = append(queue, wp.ID)
		}
	}

	count := 0
	for len(queue) > 0 {
		curID := queue[0]
		queue = queue[1:]
		curWP := proj.WorldPoint(curID)
		curPos, _ := curWP.Optimized()
		curVec := r3.Vector{X: curPos[0], Y: curPos[1], Z: curPos[2]}

		for _, l := range incident[curID] {
			otherID := l.Endpoints[0]
			if otherID == curID {
				otherID = l.Endpoints[1]
			}
			if seeded[otherID] {
				continue
			}
			otherWP := proj.WorldPoint(otherID)

			length := scale * bfsStepFraction
			if tl, ok := l.TargetLength(); ok {
				length = tl
			}
			dir, free := bfsDirection(l)

			sign := 1.0
			if !free {
				sign = disambiguateSign(proj, curID, otherID, curVec, dir, length)
			}
			newPos := curVec.Add(dir.Mul(sign * length))
			otherWP.SetOptimized([3]float64{newPos.X, newPos.Y, newPos.Z})

			seeded[otherID] = true
			queue = append(queue, otherID)
			count++
		}
	}
	return count
}

// bfsDirection returns the unit direction a line's far endpoint should be
// stepped along from its near endpoint, and whether that direction is
// unconstrained (a free line, so the sign carries no geometric meaning).
func bfsDirection(l *project.Line) (r3.Vector, bool) {
	switch l.Direction {
	case project.DirectionX:
		return r3.Vector{X: 1}, false
	case project.DirectionY:
		return r3.Vector{Y: 1}, false
	case project.DirectionZ:
		return r3.Vector{Z: 1}, false
	case project.DirectionXY:
		return r3.Vector{X: 1, Y: 1}.Normalize(), false
	case project.DirectionXZ:
		return r3.Vector{X: 1, Z: 1}.Normalize(), false
	case project.DirectionYZ:
		return r3.Vector{Y: 1, Z: 1}.Normalize(), false
	default:
		return r3.Vector{X: 1, Y: 1, Z: 1}.Normalize(), true
	}
}

// disambiguateSign picks +1 or -1 for the step from curID to otherID along
// dir by comparing reprojection error in any camera, initialized via
// vanishing points, that observes both endpoints; defaults to +1 when no
// such camera exists.
func disambiguateSign(proj *project.Project, curID, otherID project.WorldPointID, curVec, dir r3.Vector, length float64) float64 {
	cams := sharedVPCameras(proj, curID, otherID)
	if len(cams) == 0 {
		return 1
	}

	errFor := func(sign float64) float64 {
		p := curVec.Add(dir.Mul(sign * length))
		total := 0.0
		for _, vp := range cams {
			u, v, ok := projectPoint(vp, p)
			if !ok {
				total += 1e6
				continue
			}
			ou, ov, found := observedPixel(proj, vp.ID, otherID)
			if !found {
				continue
			}
			du, dv := u-ou, v-ov
			total += du*du + dv*dv
		}
		return total
	}

	if errFor(-1) < errFor(1) {
		return -1
	}
	return 1
}

func sharedVPCameras(proj *project.Project, a, b project.WorldPointID) []*project.Viewpoint {
	aCams := map[project.ViewpointID]bool{}
	for _, ipID := range proj.ImagePointsOf(a) {
		aCams[proj.ImagePoint(ipID).Viewpoint] = true
	}
	var out []*project.Viewpoint
	for _, ipID := range proj.ImagePointsOf(b) {
		vp := proj.Viewpoint(proj.ImagePoint(ipID).Viewpoint)
		if aCams[vp.ID] && vp.InitStatus == project.VPInitialized {
			out = append(out, vp)
		}
	}
	return out
}

func observedPixel(proj *project.Project, vpID project.ViewpointID, wpID project.WorldPointID) (float64, float64, bool) {
	for _, ipID := range proj.ImagePointsOf(wpID) {
		ip := proj.ImagePoint(ipID)
		if ip.Viewpoint == vpID {
			return ip.U, ip.V, true
		}
	}
	return 0, 0, false
}

// projectPoint applies the pinhole model (no distortion) to map a world
// point into vp's image, used only for the coarse sign-disambiguation
// reprojection comparison -- the LM solve refines the real projection.
func projectPoint(vp *project.Viewpoint, p r3.Vector) (float64, float64, bool) {
	cam := r3.Vector{X: vp.Position[0], Y: vp.Position[1], Z: vp.Position[2]}
	rel := vp.Quaternion.Inv().RotatePoint(p.Sub(cam))
	if rel.Z <= 1e-9 {
		return 0, 0, false
	}
	cx, cy := vp.EffectivePrincipalPoint()
	fx := vp.Intrinsics.FocalLength
	fy := vp.Intrinsics.FocalLengthY()
	u := cx + fx*rel.X/rel.Z
	v := cy - fy*rel.Y/rel.Z
	return u, v, true
}

// phaseCoplanarGrid lays out the still-unseeded points of every coplanar
// constraint with at least 4 members in a square grid in the x-y plane at
// z = coplanarZSeparation*scale*groupIdx (groups numbered from 1), so
// distinct groups don't collapse onto each other.
func phaseCoplanarGrid(proj *project.Project, scale float64) int {
	count := 0
	groupIdx := 0
	for _, c := range proj.Constraints() {
		cop, ok := c.(*project.CoplanarPointsConstraint)
		if !ok || len(cop.Points) < 4 {
			continue
		}
		groupIdx++

		var pending []project.WorldPointID
		for _, id := range cop.Points {
			if _, ok := proj.WorldPoint(id).Optimized(); !ok {
				pending = append(pending, id)
			}
		}
		if len(pending) == 0 {
			continue
		}

		cols := int(math.Ceil(math.Sqrt(float64(len(pending)))))
		spacing := scale / float64(cols+1)
		z := coplanarZSeparation * scale * float64(groupIdx)
		for i, id := range pending {
			row, col := i/cols, i%cols
			x := float64(col) * spacing
			y := float64(row) * spacing
			proj.WorldPoint(id).SetOptimized([3]float64{x, y, z})
			count++
		}
	}
	return count
}

// phaseRandomFill scatters every world point still missing optimizedXyz
// uniformly inside a cube of side scale centered on the origin, using a
// seeded RNG so repeated attempts with the same seed are reproducible.
func phaseRandomFill(proj *project.Project, scale float64, seed int64) int {
	rng := rand.New(rand.NewSource(seed))
	count := 0
	for _, wp := range proj.WorldPoints() {
		if _, ok := wp.Optimized(); ok {
			continue
		}
		x := (rng.Float64()*2 - 1) * scale / 2
		y := (rng.Float64()*2 - 1) * scale / 2
		z := (rng.Float64()*2 - 1) * scale / 2
		wp.SetOptimized([3]float64{x, y, z})
		count++
	}
	return count
}

// sceneScale estimates a characteristic scene size from the spread of
// already-seeded points/cameras, falling back to defaultSceneScale when
// nothing is seeded yet.
func sceneScale(proj *project.Project) float64 {
	var pts []r3.Vector
	for _, wp := range proj.WorldPoints() {
		if opt, ok := wp.Optimized(); ok {
			pts = append(pts, r3.Vector{X: opt[0], Y: opt[1], Z: opt[2]})
		}
	}
	for _, vp := range proj.Viewpoints() {
		if vp.InitStatus != project.Uninitialized {
			pts = append(pts, r3.Vector{X: vp.Position[0], Y: vp.Position[1], Z: vp.Position[2]})
		}
	}
	if len(pts) < 2 {
		return defaultSceneScale
	}
	maxDist := 0.0
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			d := pts[i].Sub(pts[j]).Norm()
			if d > maxDist {
				maxDist = d
			}
		}
	}
	if maxDist < 1e-6 {
		return defaultSceneScale
	}
	return maxDist
}
