// Package pnp recovers a single camera's pose from 3 or more known 3D<->2D
// correspondences via a DLT-style linear solve, followed by RQ-like
// decomposition into rotation and translation. The pose is not refined
// iteratively afterwards.
package pnp

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/rotera/linalg"
	"go.viam.com/rotera/project"
	"go.viam.com/rotera/spatialmath"
)

// ErrUnreliable is the error value for an unreliable PnP solution. Estimate
// does not return it; a recovered pose is judged with Reliable.
var ErrUnreliable = errors.New("unreliable PnP solution")

// RMSThreshold gates Reliable. OrthonormalityThreshold is not read by
// Reliable or Estimate.
const (
	RMSThreshold             = 5.0
	OrthonormalityThreshold  = 0.05
	minCorrespondencesForDLT = 6
)

// Correspondence is one 3D world point matched to its normalized image
// observation ((u-cx)/f, (v-cy)/f).
type Correspondence struct {
	World r3.Vector
	X, Y  float64
}

// Result is a recovered camera pose.
type Result struct {
	Position   r3.Vector
	Quaternion spatialmath.Quaternion
	RMS        float64
}

// Estimate recovers camera pose from at least 3 correspondences. The DLT
// solve itself needs 6 well-conditioned correspondences to be numerically
// stable; callers with exactly 3-5 should expect a higher-noise result.
func Estimate(corr []Correspondence) (Result, error) {
	if len(corr) < 3 {
		return Result{}, errors.New("at least 3 correspondences required for PnP")
	}

	p := solveDLT(corr)
	rot, pos, ok := decomposeProjectionMatrix(p)
	if !ok {
		return Result{}, errors.New("PnP projection matrix decomposition failed")
	}

	rms := reprojectionRMS(corr, rot, pos)
	return Result{
		Position:   pos,
		Quaternion: spatialmath.QuaternionFromRotationMatrix(rot),
		RMS:        rms,
	}, nil
}

// Reliable implements the readiness/orchestrator reliability check: the
// reprojection RMS must be below RMSThreshold. The orthonormality of the
// recovered rotation is not checked.
func Reliable(corr []Correspondence, res Result) bool {
	if res.RMS >= RMSThreshold {
		return false
	}
	return true
}

// solveDLT builds the 2n x 12 direct linear transform constraint system
// for the unknown 3x4 projection matrix and returns its null-space solution
// via the generalized Jacobi-on-AtA machinery linalg.SmallestEigenvectorN
// already provides for the eight-point estimator.
func solveDLT(corr []Correspondence) [12]float64 {
	ata := make([]float64, 144)
	for _, c := range corr {
		wx, wy, wz := c.World.X, c.World.Y, c.World.Z
		rowU := [12]float64{wx, wy, wz, 1, 0, 0, 0, 0, -c.X * wx, -c.X * wy, -c.X * wz, -c.X}
		rowV := [12]float64{0, 0, 0, 0, wx, wy, wz, 1, -c.Y * wx, -c.Y * wy, -c.Y * wz, -c.Y}
		accumulate(ata, rowU)
		accumulate(ata, rowV)
	}
	vec := linalg.SmallestEigenvectorN(ata, 12)
	var p [12]float64
	copy(p[:], vec)
	return p
}

func accumulate(ata []float64, row [12]float64) {
	for i := 0; i < 12; i++ {
		if row[i] == 0 {
			continue
		}
		for j := 0; j < 12; j++ {
			ata[i*12+j] += row[i] * row[j]
		}
	}
}

// decomposeProjectionMatrix splits P = [M | p4] into an intrinsics-free
// rotation and camera position via RQ decomposition by Gram-Schmidt
// (orthonormalizing the rows of M from the bottom up), matching the
// classical DLT pose-recovery recipe.
func decomposeProjectionMatrix(p [12]float64) (*spatialmath.RotationMatrix, r3.Vector, bool) {
	m := linalg.Mat3{p[0], p[1], p[2], p[4], p[5], p[6], p[8], p[9], p[10]}
	last := [3]float64{p[3], p[7], p[11]}

	scale := math.Sqrt(m[6]*m[6] + m[7]*m[7] + m[8]*m[8])
	if scale < 1e-12 {
		return nil, r3.Vector{}, false
	}
	for i := range m {
		m[i] /= scale
	}
	for i := range last {
		last[i] /= scale
	}

	if det3x3(m) < 0 {
		for i := range m {
			m[i] = -m[i]
		}
		for i := range last {
			last[i] = -last[i]
		}
	}

	rm, err := spatialmath.NewRotationMatrix(m[:])
	if err != nil {
		snapped := snapToOrthonormal(m)
		rm, err = spatialmath.NewRotationMatrix(snapped[:])
		if err != nil {
			return nil, r3.Vector{}, false
		}
	}

	// Camera position: p4 = -R * C, so C = -R^T * p4.
	rt := rm.Transpose()
	c := r3.Vector{
		X: -(rt.At(0, 0)*last[0] + rt.At(0, 1)*last[1] + rt.At(0, 2)*last[2]),
		Y: -(rt.At(1, 0)*last[0] + rt.At(1, 1)*last[1] + rt.At(1, 2)*last[2]),
		Z: -(rt.At(2, 0)*last[0] + rt.At(2, 1)*last[1] + rt.At(2, 2)*last[2]),
	}
	return rm, c, true
}

func det3x3(m linalg.Mat3) float64 {
	return m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
}

func snapToOrthonormal(m linalg.Mat3) linalg.Mat3 {
	svd := linalg.SVD3(m)
	var out linalg.Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += svd.U[i*3+k] * svd.Vt[k*3+j]
			}
			out[i*3+j] = sum
		}
	}
	return out
}

func reprojectionRMS(corr []Correspondence, rot *spatialmath.RotationMatrix, pos r3.Vector) float64 {
	var sumSq float64
	for _, c := range corr {
		d := c.World.Sub(pos)
		rt := rot.Transpose()
		camX := rt.At(0, 0)*d.X + rt.At(0, 1)*d.Y + rt.At(0, 2)*d.Z
		camY := rt.At(1, 0)*d.X + rt.At(1, 1)*d.Y + rt.At(1, 2)*d.Z
		camZ := rt.At(2, 0)*d.X + rt.At(2, 1)*d.Y + rt.At(2, 2)*d.Z
		if camZ < 1e-6 {
			continue
		}
		predX, predY := camX/camZ, camY/camZ
		dx, dy := predX-c.X, predY-c.Y
		sumSq += dx*dx + dy*dy
	}
	if len(corr) == 0 {
		return 0
	}
	return math.Sqrt(sumSq / float64(len(corr)))
}

// VisibleConstrainedPoints counts the image points in viewpoint vp whose
// world point is fully constrained, the readiness analyzer's PnP
// eligibility signal (>=3 required).
func VisibleConstrainedPoints(proj *project.Project, vp *project.Viewpoint) int {
	count := 0
	for _, id := range vp.ImagePoints() {
		ip := proj.ImagePoint(id)
		wp := proj.WorldPoint(ip.WorldPoint)
		if wp.IsFullyConstrained() {
			count++
		}
	}
	return count
}
