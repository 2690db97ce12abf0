package twoview

import (
	"github.com/golang/geo/r3"

	"go.viam.com/rotera/linalg"
	"go.viam.com/rotera/spatialmath"
)

// poseCandidate is one of the four (R, t) ambiguities an Essential Matrix
// decomposes into.
type poseCandidate struct {
	r *spatialmath.RotationMatrix
	t r3.Vector
}

var w3 = linalg.Mat3{0, -1, 0, 1, 0, 0, 0, 0, 1}
var w3t = linalg.Mat3{0, 1, 0, -1, 0, 0, 0, 0, 1}

// decomposeEssential returns the four (R, t) candidates E = U diag(1,1,0) Vt
// decomposes into: R in {U W Vt, U Wt Vt}, t = +-u2 (U's third column), with
// any R of negative determinant sign-flipped.
func decomposeEssential(e Mat3x3) []poseCandidate {
	svd := linalg.SVD3(e)
	u2 := r3.Vector{X: svd.U[2], Y: svd.U[5], Z: svd.U[8]}

	r1 := mat3Mul(mat3Mul(svd.U, w3), svd.Vt)
	r2 := mat3Mul(mat3Mul(svd.U, w3t), svd.Vt)

	fixDet := func(m Mat3x3) Mat3x3 {
		if det3(m) < 0 {
			for i := range m {
				m[i] = -m[i]
			}
		}
		return m
	}
	r1 = fixDet(r1)
	r2 = fixDet(r2)

	out := make([]poseCandidate, 0, 4)
	for _, r := range []Mat3x3{r1, r2} {
		rm, err := spatialmath.NewRotationMatrix(r[:])
		if err != nil {
			continue
		}
		out = append(out, poseCandidate{r: rm, t: u2})
		out = append(out, poseCandidate{r: rm, t: u2.Mul(-1)})
	}
	return out
}

// countCheirality triangulates every correspondence under cand and counts
// how many land in front of both cameras (cam1 at identity, cam2 at
// (cand.r, cand.t)).
func countCheirality(cand poseCandidate, corr []Correspondence) int {
	count := 0
	for _, c := range corr {
		p, ok := triangulate(c, cand)
		if !ok {
			continue
		}
		if p.Z > 0 {
			inCam2 := rotateByTranspose(cand.r, p.Sub(cand.t))
			if inCam2.Z > 0 {
				count++
			}
		}
	}
	return count
}

func rotateByTranspose(r *spatialmath.RotationMatrix, v r3.Vector) r3.Vector {
	rt := r.Transpose()
	return r3.Vector{
		X: rt.At(0, 0)*v.X + rt.At(0, 1)*v.Y + rt.At(0, 2)*v.Z,
		Y: rt.At(1, 0)*v.X + rt.At(1, 1)*v.Y + rt.At(1, 2)*v.Z,
		Z: rt.At(2, 0)*v.X + rt.At(2, 1)*v.Y + rt.At(2, 2)*v.Z,
	}
}

// triangulate recovers the 3D point for correspondence c under candidate
// pose cand via the DLT ray-ray method: build the 4x4 homogeneous linear
// system from both cameras' projection equations and take the smallest
// right singular vector.
func triangulate(c Correspondence, cand poseCandidate) (r3.Vector, bool) {
	// Camera 1 at identity: P1 = [I | 0]. Camera 2: P2 = [R | t_cam] where
	// t_cam is t expressed so that p_cam2 = R^T(p_world - t).
	p1 := [3][4]float64{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
	}
	rt := cand.r.Transpose()
	var p2 [3][4]float64
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			p2[row][col] = rt.At(row, col)
		}
	}
	tcam := rotateByTranspose(cand.r, cand.t.Mul(-1))
	p2[0][3] = tcam.X
	p2[1][3] = tcam.Y
	p2[2][3] = tcam.Z

	a := make([]float64, 16) // 4x4, rows stacked
	fillDLTRow(a, 0, c.X1, p1[0], p1[2])
	fillDLTRow(a, 1, c.Y1, p1[1], p1[2])
	fillDLTRow(a, 2, c.X2, p2[0], p2[2])
	fillDLTRow(a, 3, c.Y2, p2[1], p2[2])

	var ata [16]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += a[k*4+i] * a[k*4+j]
			}
			ata[i*4+j] = sum
		}
	}
	values, vectors := linalg.JacobiEigen(ata[:], 4)
	minIdx := 0
	for i := 1; i < 4; i++ {
		if values[i] < values[minIdx] {
			minIdx = i
		}
	}
	w := vectors[3*4+minIdx]
	if w == 0 {
		return r3.Vector{}, false
	}
	x := vectors[0*4+minIdx] / w
	y := vectors[1*4+minIdx] / w
	z := vectors[2*4+minIdx] / w
	return r3.Vector{X: x, Y: y, Z: z}, true
}

func fillDLTRow(a []float64, row int, coord float64, pRow, pLast [4]float64) {
	for i := 0; i < 4; i++ {
		a[row*4+i] = coord*pLast[i] - pRow[i]
	}
}
