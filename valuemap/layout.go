// Package valuemap assembles the optimization variable vector and the
// aggregated residual vector for a Project. It replaces the mutable
// per-entity push/pop pattern described by the data model with a stateless
// pair: BuildLayout walks the project once to assign every entity's
// variable-vector slice and residual-buffer width, and EvaluateResiduals
// computes residuals from a Layout and a variable vector with no shared
// mutable state, so the push/pop symmetry invariant becomes a static
// property of the Layout rather than something tracked at runtime.
package valuemap

import "go.viam.com/rotera/project"

const noVar = -1

// worldPointLayout records, per axis, either a live variable index or a
// constant value (locked or inferred).
type worldPointLayout struct {
	varIdx [3]int
	value  [3]float64
}

// intrinsicsLayout maps each of the 10 intrinsics slots (f, aspect, cx, cy,
// skew, k1, k2, k3, p1, p2) to a live variable index (noVar if constant) and
// its current value.
type intrinsicsLayout struct {
	varIdx [10]int
	value  [10]float64
}

// viewpointLayout records a camera's pose (position + quaternion) and
// intrinsics slots.
type viewpointLayout struct {
	poseVarIdx [7]int // px, py, pz, qw, qx, qy, qz
	poseValue  [7]float64
	intr       intrinsicsLayout
}

// lineLayout records how many residuals a line contributes and which
// shared axes it checks.
type lineLayout struct {
	sharedAxes   []project.Axis
	hasLength    bool
	targetLength float64
}

// Layout is the precomputed mapping from a Project's entities onto a flat
// variable vector and a flat residual vector. It is immutable once built;
// EvaluateResiduals never mutates it.
type Layout struct {
	Initial []float64

	worldPoints map[project.WorldPointID]*worldPointLayout
	viewpoints  map[project.ViewpointID]*viewpointLayout
	lines       map[project.LineID]*lineLayout

	imagePoints []project.ImagePointID
	constraints []project.Constraint

	// constraintVarRange records, per entry in constraints, the [start, end)
	// slice of the variable vector that constraint's own Push call added.
	// Jacobian assembly combines this with InvolvedWorldPoints to find the
	// full set of variables a constraint's residual block depends on.
	constraintVarRange [][2]int

	// residualWidth records, in push order, how many residuals each
	// contributor produces -- the static record of the symmetry invariant.
	residualWidth []int
}

// PushScalar implements project.VariableSink.
func (l *Layout) PushScalar(ownerKind string, ownerID int, component string, initial float64) int {
	idx := len(l.Initial)
	l.Initial = append(l.Initial, initial)
	return idx
}

// NVars returns the number of live optimization variables.
func (l *Layout) NVars() int { return len(l.Initial) }

// NResiduals returns the total width of the aggregated residual vector.
func (l *Layout) NResiduals() int {
	total := 0
	for _, w := range l.residualWidth {
		total += w
	}
	return total
}

// BuildLayout walks every entity in proj once, in a fixed order (world
// points, viewpoints, lines, image points, constraints), assigning each a
// slice of the variable vector (for entities that own live variables) and
// recording its residual-buffer width.
func BuildLayout(proj *project.Project) (*Layout, error) {
	l := &Layout{
		worldPoints: map[project.WorldPointID]*worldPointLayout{},
		viewpoints:  map[project.ViewpointID]*viewpointLayout{},
		lines:       map[project.LineID]*lineLayout{},
	}

	for _, wp := range proj.WorldPoints() {
		wpl := &worldPointLayout{}
		eff := wp.EffectiveXyz()
		opt, hasOpt := wp.Optimized()
		for a := project.Axis(0); a < 3; a++ {
			if eff[a] != nil {
				wpl.varIdx[a] = noVar
				wpl.value[a] = *eff[a]
				continue
			}
			initial := 0.0
			if hasOpt {
				initial = opt[a]
			}
			wpl.varIdx[a] = l.PushScalar("worldpoint", int(wp.ID), axisName(a), initial)
		}
		l.worldPoints[wp.ID] = wpl
	}

	for _, vp := range proj.Viewpoints() {
		if !vp.EnabledInSolve {
			continue
		}
		vpl := &viewpointLayout{}
		poseVals := [7]float64{
			vp.Position[0], vp.Position[1], vp.Position[2],
			vp.Quaternion.W(), vp.Quaternion.X(), vp.Quaternion.Y(), vp.Quaternion.Z(),
		}
		poseNames := [7]string{"px", "py", "pz", "qw", "qx", "qy", "qz"}
		for i := 0; i < 7; i++ {
			if vp.IsPoseLocked {
				vpl.poseVarIdx[i] = noVar
				vpl.poseValue[i] = poseVals[i]
				continue
			}
			vpl.poseVarIdx[i] = l.PushScalar("viewpoint", int(vp.ID), poseNames[i], poseVals[i])
		}

		intrVals := [10]float64{
			vp.Intrinsics.FocalLength, vp.Intrinsics.AspectRatio,
			vp.Intrinsics.PrincipalX, vp.Intrinsics.PrincipalY, vp.Intrinsics.Skew,
			vp.Intrinsics.RadialK1, vp.Intrinsics.RadialK2, vp.Intrinsics.RadialK3,
			vp.Intrinsics.TangentialP1, vp.Intrinsics.TangentialP2,
		}
		intrNames := [10]string{"f", "aspect", "cx", "cy", "skew", "k1", "k2", "k3", "p1", "p2"}
		simpleMobile := map[int]bool{0: true, 2: true, 3: true} // f, cx, cy
		for i := 0; i < 10; i++ {
			movable := !vp.UseSimpleIntrinsics || simpleMobile[i]
			if !movable {
				vpl.intr.varIdx[i] = noVar
				vpl.intr.value[i] = intrVals[i]
				continue
			}
			vpl.intr.varIdx[i] = l.PushScalar("viewpoint", int(vp.ID), intrNames[i], intrVals[i])
		}
		l.viewpoints[vp.ID] = vpl

		// Soft unit-quaternion residual, §4.3.
		l.residualWidth = append(l.residualWidth, 1)
	}

	for _, ln := range proj.Lines() {
		ll := &lineLayout{sharedAxes: ln.Direction.SharedAxes()}
		if length, ok := ln.TargetLength(); ok {
			ll.hasLength = true
			ll.targetLength = length
		}
		l.lines[ln.ID] = ll
		width := len(ll.sharedAxes)
		if ll.hasLength {
			width++
		}
		l.residualWidth = append(l.residualWidth, width)
	}

	for _, ip := range proj.ImagePoints() {
		vp := proj.Viewpoint(ip.Viewpoint)
		if vp == nil || !vp.EnabledInSolve {
			continue
		}
		l.imagePoints = append(l.imagePoints, ip.ID)
		l.residualWidth = append(l.residualWidth, 2)
	}

	for _, c := range proj.Constraints() {
		start := len(l.Initial)
		c.Push(l)
		l.constraintVarRange = append(l.constraintVarRange, [2]int{start, len(l.Initial)})
		l.constraints = append(l.constraints, c)
	}

	values := newValues(l, l.Initial)
	for _, c := range l.constraints {
		l.residualWidth = append(l.residualWidth, len(c.Residuals(values)))
	}

	return l, nil
}

func axisName(a project.Axis) string {
	switch a {
	case project.AxisX:
		return "x"
	case project.AxisY:
		return "y"
	default:
		return "z"
	}
}
