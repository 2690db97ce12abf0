package valuemap

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/rotera/project"
	"go.viam.com/rotera/projection"
	"go.viam.com/rotera/spatialmath"
)

func vec3(xyz [3]float64) r3.Vector {
	return r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]}
}

// Values resolves the current value of every variable in a Layout, given a
// concrete variable vector. It implements project.ValueSource so
// project.Constraint implementations can be written directly against world
// points without knowing about variable indices.
type Values struct {
	layout    *Layout
	variables []float64
}

// newValues pairs a Layout with a concrete variable vector.
func newValues(layout *Layout, variables []float64) *Values {
	return &Values{layout: layout, variables: variables}
}

// Value implements project.ValueSource.
func (v *Values) Value(idx int) float64 {
	if idx == noVar {
		return 0
	}
	return v.variables[idx]
}

func (v *Values) resolve(varIdx int, constant float64) float64 {
	if varIdx == noVar {
		return constant
	}
	return v.variables[varIdx]
}

// WorldPointXYZ implements project.ValueSource.
func (v *Values) WorldPointXYZ(id project.WorldPointID) [3]float64 {
	wpl := v.layout.worldPoints[id]
	var out [3]float64
	for a := 0; a < 3; a++ {
		out[a] = v.resolve(wpl.varIdx[a], wpl.value[a])
	}
	return out
}

// ViewpointPose returns a camera's current position, quaternion, and
// whether it is z-reflected.
func (v *Values) ViewpointPose(id project.ViewpointID, zReflected bool) (r3xyz [3]float64, q spatialmath.Quaternion) {
	vpl := v.layout.viewpoints[id]
	for i := 0; i < 3; i++ {
		r3xyz[i] = v.resolve(vpl.poseVarIdx[i], vpl.poseValue[i])
	}
	w := v.resolve(vpl.poseVarIdx[3], vpl.poseValue[3])
	x := v.resolve(vpl.poseVarIdx[4], vpl.poseValue[4])
	y := v.resolve(vpl.poseVarIdx[5], vpl.poseValue[5])
	z := v.resolve(vpl.poseVarIdx[6], vpl.poseValue[6])
	q = spatialmath.Quaternion{Real: w, Imag: x, Jmag: y, Kmag: z}
	return
}

// ViewpointIntrinsics returns a camera's current intrinsics.
func (v *Values) ViewpointIntrinsics(id project.ViewpointID) project.Intrinsics {
	vpl := v.layout.viewpoints[id]
	get := func(i int) float64 { return v.resolve(vpl.intr.varIdx[i], vpl.intr.value[i]) }
	return project.Intrinsics{
		FocalLength:  get(0),
		AspectRatio:  get(1),
		PrincipalX:   get(2),
		PrincipalY:   get(3),
		Skew:         get(4),
		RadialK1:     get(5),
		RadialK2:     get(6),
		RadialK3:     get(7),
		TangentialP1: get(8),
		TangentialP2: get(9),
	}
}

// ApplyVariables writes a solved variable vector back onto proj's world
// points and viewpoints -- the inverse of BuildLayout's initial-value
// extraction, run once after solver.Solve returns so the project reflects
// the refined estimate instead of just the Layout/Result pair.
func ApplyVariables(proj *project.Project, layout *Layout, variables []float64) {
	values := newValues(layout, variables)

	for _, wp := range proj.WorldPoints() {
		xyz := values.WorldPointXYZ(wp.ID)
		wp.SetOptimized(xyz)
	}

	for _, vp := range proj.Viewpoints() {
		if !vp.EnabledInSolve {
			continue
		}
		pos, q := values.ViewpointPose(vp.ID, vp.IsZReflected)
		vp.Position = pos
		vp.Quaternion = q
		vp.Intrinsics = values.ViewpointIntrinsics(vp.ID)
	}
}

// EvaluateResiduals computes the full aggregated residual vector for proj
// given layout and a concrete variable vector, in the same fixed order
// BuildLayout walked: viewpoint quaternion-norm residuals, line residuals,
// image-point reprojection residuals, then constraint residuals.
func EvaluateResiduals(proj *project.Project, layout *Layout, variables []float64) []float64 {
	values := newValues(layout, variables)
	var out []float64

	for _, vp := range proj.Viewpoints() {
		if !vp.EnabledInSolve {
			continue
		}
		_, q := values.ViewpointPose(vp.ID, vp.IsZReflected)
		norm := q.W()*q.W() + q.X()*q.X() + q.Y()*q.Y() + q.Z()*q.Z()
		out = append(out, norm-1)
	}

	for _, ln := range proj.Lines() {
		out = append(out, lineResiduals(values, ln)...)
	}

	for _, id := range layout.imagePoints {
		ip := proj.ImagePoint(id)
		out = append(out, imagePointResiduals(proj, values, ip)...)
	}

	for _, c := range layout.constraints {
		out = append(out, c.Residuals(values)...)
	}

	return out
}

func lineResiduals(values *Values, ln *project.Line) []float64 {
	a := values.WorldPointXYZ(ln.Endpoints[0])
	b := values.WorldPointXYZ(ln.Endpoints[1])

	var out []float64
	for _, axis := range ln.Direction.SharedAxes() {
		out = append(out, a[axis]-b[axis])
	}
	if length, ok := ln.TargetLength(); ok {
		dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
		dist := math.Sqrt(dx*dx + dy*dy + dz*dz)
		out = append(out, dist-length)
	}
	return out
}

func imagePointResiduals(proj *project.Project, values *Values, ip *project.ImagePoint) []float64 {
	vp := proj.Viewpoint(ip.Viewpoint)
	pos, q := values.ViewpointPose(vp.ID, vp.IsZReflected)
	intr := values.ViewpointIntrinsics(vp.ID)
	wp := values.WorldPointXYZ(ip.WorldPoint)

	r := projection.Project(
		vec3(wp), vec3(pos), q, vp.IsZReflected, intr,
	)
	if !r.Valid {
		// A point behind the near plane cannot contribute a meaningful
		// reprojection residual; report zero rather than an arbitrary
		// large number so the solver doesn't chase a discontinuity.
		return []float64{0, 0}
	}
	ru, rv := projection.Residual(r, ip.U, ip.V)
	return []float64{ru, rv}
}
