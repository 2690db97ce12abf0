// Package projection implements the pinhole-plus-distortion camera model
// and its analytical residual Jacobians, the quantities package solver's
// analytical path needs to assemble JtJ and -Jtr directly instead of going
// through autodiff.
package projection

import (
	"github.com/golang/geo/r3"

	"go.viam.com/rotera/project"
	"go.viam.com/rotera/spatialmath"
)

// NearPlane is the minimum camera-frame z a point may have before it is
// rejected as behind (or too close to) the camera.
const NearPlane = 0.1

// Result is the outcome of projecting one world point into one camera.
type Result struct {
	Cam   r3.Vector // camera-frame coordinates, post z-reflection
	XDist float64   // distorted normalized x
	YDist float64   // distorted normalized y
	U, V  float64
	Valid bool // false if the point is behind the near plane
}

// ToCameraFrame converts a world point into camera-frame coordinates:
// p_cam = R^-1 (p_world - cameraPos), negated if the camera is flagged
// isZReflected to account for the front/back ambiguity two-view geometry
// can leave unresolved.
func ToCameraFrame(worldPoint, cameraPos r3.Vector, q spatialmath.Quaternion, isZReflected bool) r3.Vector {
	d := worldPoint.Sub(cameraPos)
	camFrame := q.Inv().RotatePoint(d)
	if isZReflected {
		camFrame = camFrame.Mul(-1)
	}
	return camFrame
}

// Project runs the full pinhole-plus-distortion model on a world point
// observed by a camera at (cameraPos, q) with the given intrinsics.
func Project(worldPoint, cameraPos r3.Vector, q spatialmath.Quaternion, isZReflected bool, intr project.Intrinsics) Result {
	cam := ToCameraFrame(worldPoint, cameraPos, q, isZReflected)
	if cam.Z < NearPlane {
		return Result{Cam: cam, Valid: false}
	}

	xp := cam.X / cam.Z
	yp := cam.Y / cam.Z
	xd, yd := Distort(xp, yp, intr)

	fx := intr.FocalLength
	fy := intr.FocalLengthY()
	u := intr.PrincipalX + fx*xd + intr.Skew*yd
	v := intr.PrincipalY - fy*yd

	return Result{Cam: cam, XDist: xd, YDist: yd, U: u, V: v, Valid: true}
}

// Distort applies Brown-Conrady radial and tangential distortion to
// normalized coordinates (xp, yp).
func Distort(xp, yp float64, intr project.Intrinsics) (xd, yd float64) {
	r2 := xp*xp + yp*yp
	radial := 1 + intr.RadialK1*r2 + intr.RadialK2*r2*r2 + intr.RadialK3*r2*r2*r2
	tangX := 2*intr.TangentialP1*xp*yp + intr.TangentialP2*(r2+2*xp*xp)
	tangY := intr.TangentialP1*(r2+2*yp*yp) + 2*intr.TangentialP2*xp*yp
	return xp*radial + tangX, yp*radial + tangY
}

// Residual returns (u_pred - u_obs, v_pred - v_obs) for a valid projection.
func Residual(r Result, uObs, vObs float64) (ru, rv float64) {
	return r.U - uObs, r.V - vObs
}
