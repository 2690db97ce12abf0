package valuemap

import (
	"math"

	"go.viam.com/rotera/linalg"
	"go.viam.com/rotera/project"
	"go.viam.com/rotera/projection"
	"go.viam.com/rotera/solver"
)

// denseVarThreshold chooses between solver's dense-Cholesky and sparse-CG
// inner solves: small projects assemble faster as a dense matrix, large ones
// (many cameras/points) are overwhelmingly zero off the image-point blocks
// and benefit from the sparse path.
const denseVarThreshold = 64

const finiteDiffStep = 1e-6

// Problem adapts a Project and its Layout into solver.Problem. Image-point
// reprojection residuals, the dominant cost in any nontrivial project, use
// package projection's analytical Jacobians directly, and the quaternion
// norm residual uses its closed-form gradient (2q); the remaining small
// residual blocks (line direction/length, constraints) are differentiated
// with central finite differences scoped to just the variables each block
// depends on.
type Problem struct {
	proj   *project.Project
	layout *Layout
	dense  bool
}

// NewProblem builds a solver.Problem over proj using layout.
func NewProblem(proj *project.Project, layout *Layout) *Problem {
	return &Problem{proj: proj, layout: layout, dense: layout.NVars() <= denseVarThreshold}
}

// NVars implements solver.Problem.
func (p *Problem) NVars() int { return p.layout.NVars() }

// RenormalizeQuaternions implements solver.Problem.
func (p *Problem) RenormalizeQuaternions(vars []float64) {
	for _, vp := range p.proj.Viewpoints() {
		if !vp.EnabledInSolve {
			continue
		}
		vpl := p.layout.viewpoints[vp.ID]
		if vpl == nil {
			continue
		}
		get := func(i int) float64 {
			if vpl.poseVarIdx[i] == noVar {
				return vpl.poseValue[i]
			}
			return vars[vpl.poseVarIdx[i]]
		}
		w, x, y, z := get(3), get(4), get(5), get(6)
		n := math.Sqrt(w*w + x*x + y*y + z*z)
		if n == 0 {
			continue
		}
		set := func(i int, val float64) {
			if vpl.poseVarIdx[i] != noVar {
				vars[vpl.poseVarIdx[i]] = val
			}
		}
		set(3, w/n)
		set(4, x/n)
		set(5, y/n)
		set(6, z/n)
	}
}

// Evaluate implements solver.Problem.
func (p *Problem) Evaluate(vars []float64) ([]float64, *solver.Jacobian) {
	residuals := EvaluateResiduals(p.proj, p.layout, vars)
	n := p.layout.NVars()
	m := len(residuals)
	values := newValues(p.layout, vars)

	var dense []float64
	var rowIdx, colIdx []int
	var triplets []float64
	if p.dense {
		dense = make([]float64, m*n)
	}

	set := func(row, col int, val float64) {
		if col == noVar || val == 0 {
			return
		}
		if p.dense {
			dense[row*n+col] = val
			return
		}
		rowIdx = append(rowIdx, row)
		colIdx = append(colIdx, col)
		triplets = append(triplets, val)
	}

	row := 0

	for _, vp := range p.proj.Viewpoints() {
		if !vp.EnabledInSolve {
			continue
		}
		vpl := p.layout.viewpoints[vp.ID]
		_, q := values.ViewpointPose(vp.ID, vp.IsZReflected)
		set(row, vpl.poseVarIdx[3], 2*q.W())
		set(row, vpl.poseVarIdx[4], 2*q.X())
		set(row, vpl.poseVarIdx[5], 2*q.Y())
		set(row, vpl.poseVarIdx[6], 2*q.Z())
		row++
	}

	for _, ln := range p.proj.Lines() {
		ll := p.layout.lines[ln.ID]
		width := len(ll.sharedAxes)
		if ll.hasLength {
			width++
		}
		varIdxs := p.lineVarIndices(ln)
		block := centralDiffBlock(vars, varIdxs, width, func(scoped []float64) []float64 {
			return lineResiduals(newValues(p.layout, scoped), ln)
		})
		for r := 0; r < width; r++ {
			for ci, col := range varIdxs {
				set(row+r, col, block[r][ci])
			}
		}
		row += width
	}

	for _, id := range p.layout.imagePoints {
		ip := p.proj.ImagePoint(id)
		p.fillImagePointJacobian(values, ip, row, set)
		row += 2
	}

	for ci, c := range p.layout.constraints {
		width := len(c.Residuals(values))
		varIdxs := p.constraintVarIndices(ci, c)
		block := centralDiffBlock(vars, varIdxs, width, func(scoped []float64) []float64 {
			return c.Residuals(newValues(p.layout, scoped))
		})
		for r := 0; r < width; r++ {
			for vi, col := range varIdxs {
				set(row+r, col, block[r][vi])
			}
		}
		row += width
	}

	jac := &solver.Jacobian{NResiduals: m, NVars: n}
	if p.dense {
		jac.Dense = dense
	} else {
		jac.Sparse = linalg.NewCSRFromTriplets(m, n, rowIdx, colIdx, triplets)
	}
	return residuals, jac
}

func (p *Problem) fillImagePointJacobian(values *Values, ip *project.ImagePoint, row int, set func(row, col int, val float64)) {
	vp := p.proj.Viewpoint(ip.Viewpoint)
	vpl := p.layout.viewpoints[vp.ID]
	pos, q := values.ViewpointPose(vp.ID, vp.IsZReflected)
	intr := values.ViewpointIntrinsics(vp.ID)
	wpXYZ := values.WorldPointXYZ(ip.WorldPoint)

	camPos := vec3(pos)
	worldPos := vec3(wpXYZ)
	r := projection.Project(worldPos, camPos, q, vp.IsZReflected, intr)
	if !r.Valid {
		return
	}

	camJac := projection.CamFrameJacobian(r, intr)
	worldJac := projection.WorldPointJacobianOf(camJac, q, vp.IsZReflected)
	posJac := projection.PositionJacobianOf(worldJac)
	quatJac := projection.QuaternionJacobianOf(camJac, q, worldPos, camPos, vp.IsZReflected)
	intrJac := projection.IntrinsicsJacobianOf(r, intr)

	wpl := p.layout.worldPoints[ip.WorldPoint]
	for rr := 0; rr < 2; rr++ {
		for a := 0; a < 3; a++ {
			set(row+rr, wpl.varIdx[a], worldJac[rr][a])
		}
		for i := 0; i < 3; i++ {
			set(row+rr, vpl.poseVarIdx[i], posJac[rr][i])
		}
		for i := 0; i < 4; i++ {
			set(row+rr, vpl.poseVarIdx[3+i], quatJac[rr][i])
		}
		for i := 0; i < 10; i++ {
			set(row+rr, vpl.intr.varIdx[i], intrJac[rr][i])
		}
	}
}

// lineVarIndices returns the (up to 6) global variable indices a line's
// residuals may depend on: both endpoints' x, y, z.
func (p *Problem) lineVarIndices(ln *project.Line) []int {
	var out []int
	for _, end := range ln.Endpoints {
		wpl := p.layout.worldPoints[end]
		out = append(out, wpl.varIdx[0], wpl.varIdx[1], wpl.varIdx[2])
	}
	return out
}

// constraintVarIndices returns the global variable indices the idx-th
// constraint's residuals may depend on: its own pushed scalars, plus the x,
// y, z of every world point it reads.
func (p *Problem) constraintVarIndices(idx int, c project.Constraint) []int {
	var out []int
	rng := p.layout.constraintVarRange[idx]
	for v := rng[0]; v < rng[1]; v++ {
		out = append(out, v)
	}
	for _, id := range c.InvolvedWorldPoints() {
		wpl := p.layout.worldPoints[id]
		out = append(out, wpl.varIdx[0], wpl.varIdx[1], wpl.varIdx[2])
	}
	return out
}

// centralDiffBlock computes a width x len(varIdxs) local Jacobian of f by
// central differences, perturbing one variable at a time. varIdxs entries
// equal to noVar contribute an all-zero column (the variable is constant).
func centralDiffBlock(vars []float64, varIdxs []int, width int, f func(scoped []float64) []float64) [][]float64 {
	block := make([][]float64, width)
	for r := range block {
		block[r] = make([]float64, len(varIdxs))
	}

	scoped := append([]float64(nil), vars...)
	for ci, idx := range varIdxs {
		if idx == noVar {
			continue
		}
		orig := scoped[idx]
		scoped[idx] = orig + finiteDiffStep
		plus := f(scoped)
		scoped[idx] = orig - finiteDiffStep
		minus := f(scoped)
		scoped[idx] = orig

		for r := 0; r < width; r++ {
			block[r][ci] = (plus[r] - minus[r]) / (2 * finiteDiffStep)
		}
	}
	return block
}
