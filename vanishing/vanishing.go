// Package vanishing estimates camera orientation and focal length from
// user-marked vanishing lines: axis-aligned world directions that converge
// to a single pixel (the vanishing point) under perspective projection.
package vanishing

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/rotera/linalg"
	"go.viam.com/rotera/project"
	"go.viam.com/rotera/spatialmath"
)

// Point is a 2D pixel location.
type Point struct{ X, Y float64 }

// EstimateVanishingPoint intersects 2 or more vanishing lines in
// homogeneous image coordinates by least squares: each line contributes a
// homogeneous line equation a*x+b*y+c=0, and the vanishing point is the
// null vector of the stacked constraint matrix.
func EstimateVanishingPoint(lines []*project.VanishingLine) (Point, bool) {
	if len(lines) < 2 {
		return Point{}, false
	}
	ata := make([]float64, 9)
	for _, l := range lines {
		a, b, c := lineCoeffs(l.X1, l.Y1, l.X2, l.Y2)
		row := [3]float64{a, b, c}
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				ata[i*3+j] += row[i] * row[j]
			}
		}
	}
	vec := linalg.SmallestEigenvectorN(ata, 3)
	if math.Abs(vec[2]) < 1e-9 {
		return Point{}, false
	}
	return Point{X: vec[0] / vec[2], Y: vec[1] / vec[2]}, true
}

// lineCoeffs returns the normalized homogeneous line (a, b, c) through
// (x1,y1)-(x2,y2): a*x + b*y + c = 0.
func lineCoeffs(x1, y1, x2, y2 float64) (a, b, c float64) {
	a = y2 - y1
	b = x1 - x2
	c = -(a*x1 + b*y1)
	n := math.Hypot(a, b)
	if n > 1e-12 {
		a, b, c = a/n, b/n, c/n
	}
	return
}

// FocalLengthFromOrthogonalVPs estimates focal length from two vanishing
// points known to correspond to orthogonal world axes and the principal
// point: f = sqrt(-(v1-pp).(v2-pp)), discarded if the radicand is not
// positive.
func FocalLengthFromOrthogonalVPs(v1, v2, pp Point) (float64, bool) {
	dot := (v1.X-pp.X)*(v2.X-pp.X) + (v1.Y-pp.Y)*(v2.Y-pp.Y)
	radicand := -dot
	if radicand <= 0 {
		return 0, false
	}
	return math.Sqrt(radicand), true
}

// directionFromVP converts a vanishing point into a unit 3D ray through the
// pinhole model, flipping the y sign to match image-down/camera-up
// convention.
func directionFromVP(v, pp Point, f float64) r3.Vector {
	d := r3.Vector{X: (v.X - pp.X) / f, Y: -(v.Y - pp.Y) / f, Z: 1}
	return d.Normalize()
}

// RotationCandidatesFromVPs builds camera-to-world rotation candidates from
// up to 3 vanishing points (indexed by world axis), snapping the raw
// direction matrix to the nearest orthonormal rotation via SVD. Each axis's
// vanishing point is ambiguous up to sign (the line could point toward or
// away from the camera), so up to 4 independent sign choices are returned.
func RotationCandidatesFromVPs(vps map[project.Axis]Point, pp Point, f float64) []*spatialmath.RotationMatrix {
	dirs := map[project.Axis]r3.Vector{}
	for axis, vp := range vps {
		dirs[axis] = directionFromVP(vp, pp, f)
	}

	present := presentAxes(dirs)
	if len(present) < 2 {
		return nil
	}

	var candidates []*spatialmath.RotationMatrix
	signSets := [][2]float64{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	for _, signs := range signSets {
		cols := map[project.Axis]r3.Vector{}
		cols[present[0]] = dirs[present[0]].Mul(signs[0])
		cols[present[1]] = dirs[present[1]].Mul(signs[1])
		if len(present) == 3 {
			cols[present[2]] = dirs[present[2]]
		} else {
			missing := thirdAxis(present[0], present[1])
			// e_x x e_y = e_z cyclically; when the missing axis is Y the
			// present pair (X, Z) is the reverse of that cycle, so the
			// cross product must be taken in the other order to land on a
			// right-handed (det = +1) basis instead of a left-handed one.
			if missing == project.AxisY {
				cols[missing] = cols[present[1]].Cross(cols[present[0]])
			} else {
				cols[missing] = cols[present[0]].Cross(cols[present[1]])
			}
		}

		raw := [9]float64{
			cols[project.AxisX].X, cols[project.AxisY].X, cols[project.AxisZ].X,
			cols[project.AxisX].Y, cols[project.AxisY].Y, cols[project.AxisZ].Y,
			cols[project.AxisX].Z, cols[project.AxisY].Z, cols[project.AxisZ].Z,
		}
		rm := orthonormalize(raw)
		if rm != nil {
			candidates = append(candidates, rm)
		}
	}
	return candidates
}

// orthonormalize snaps a raw 3x3 matrix to the nearest orthonormal rotation
// via SVD: R = U * Vt.
func orthonormalize(raw [9]float64) *spatialmath.RotationMatrix {
	svd := linalg.SVD3(linalg.Mat3(raw))
	var r linalg.Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += svd.U[i*3+k] * svd.Vt[k*3+j]
			}
			r[i*3+j] = sum
		}
	}
	rm, err := spatialmath.NewRotationMatrix(r[:])
	if err != nil {
		return nil
	}
	return rm
}

func presentAxes(dirs map[project.Axis]r3.Vector) []project.Axis {
	var out []project.Axis
	for _, a := range []project.Axis{project.AxisX, project.AxisY, project.AxisZ} {
		if _, ok := dirs[a]; ok {
			out = append(out, a)
		}
	}
	return out
}

func thirdAxis(a, b project.Axis) project.Axis {
	for _, c := range []project.Axis{project.AxisX, project.AxisY, project.AxisZ} {
		if c != a && c != b {
			return c
		}
	}
	return project.AxisZ
}

// CanInitializeWithVP implements the readiness check: at least two axes
// present with 2+ lines each, plus either 2 fully-locked points (strict) or
// 1 fully-locked point with a fixed-length line elsewhere (relaxed).
func CanInitializeWithVP(linesByAxis map[project.Axis][]*project.VanishingLine, lockedPoints int, hasFixedLengthLineElsewhere bool) bool {
	axesWithEnoughLines := 0
	for _, lines := range linesByAxis {
		if len(lines) >= 2 {
			axesWithEnoughLines++
		}
	}
	if axesWithEnoughLines < 2 {
		return false
	}
	if lockedPoints >= 2 {
		return true
	}
	return lockedPoints >= 1 && hasFixedLengthLineElsewhere
}
