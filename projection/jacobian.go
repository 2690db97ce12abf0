package projection

import (
	"github.com/golang/geo/r3"

	"go.viam.com/rotera/project"
	"go.viam.com/rotera/spatialmath"
)

// CamJacobian is d(u,v)/d(x,y,z) at the current camera-frame coordinates,
// row 0 for u, row 1 for v.
type CamJacobian [2][3]float64

// PoseJacobian is d(u,v)/d(px,py,pz,qw,qx,qy,qz) -- 3 position columns then
// 4 quaternion columns.
type PoseJacobian [2][7]float64

// WorldPointJacobian is d(u,v)/d(x,y,z) of the world point, which for a
// rigid transform is CamJacobian composed with R^-1; the camera-position
// Jacobian is its negation (the world point and camera position enter
// p_cam with opposite sign).
type WorldPointJacobian [2][3]float64

// IntrinsicsJacobian is d(u,v)/d(f, aspect, cx, cy, skew, k1, k2, k3, p1, p2).
type IntrinsicsJacobian [2][10]float64

// distortionDerivs holds d(x_dist,y_dist)/d(xp,yp), the 2x2 block shared by
// every downstream Jacobian that flows through the distortion model.
func distortionDerivs(xp, yp float64, intr project.Intrinsics) (dxdxp, dxdyp, dydxp, dydyp float64) {
	r2 := xp*xp + yp*yp
	radial := 1 + intr.RadialK1*r2 + intr.RadialK2*r2*r2 + intr.RadialK3*r2*r2*r2
	radialDr2 := intr.RadialK1 + 2*intr.RadialK2*r2 + 3*intr.RadialK3*r2*r2

	dxdxp = radial + xp*radialDr2*2*xp + (2*intr.TangentialP1*yp + 6*intr.TangentialP2*xp)
	dxdyp = xp*radialDr2*2*yp + (2*intr.TangentialP1*xp + 2*intr.TangentialP2*yp)
	dydxp = yp*radialDr2*2*xp + (2*intr.TangentialP1*xp + 2*intr.TangentialP2*yp)
	dydyp = radial + yp*radialDr2*2*yp + (6*intr.TangentialP1*yp + 2*intr.TangentialP2*xp)
	return
}

// CamFrameJacobian computes d(u,v)/d(camera-frame x,y,z) at a valid
// projection result.
func CamFrameJacobian(r Result, intr project.Intrinsics) CamJacobian {
	x, y, z := r.Cam.X, r.Cam.Y, r.Cam.Z
	xp, yp := x/z, y/z

	dxpdx, dxpdy, dxpdz := 1/z, 0.0, -x/(z*z)
	dypdx, dypdy, dypdz := 0.0, 1/z, -y/(z*z)

	dxdxp, dxdyp, dydxp, dydyp := distortionDerivs(xp, yp, intr)

	// d(x_dist)/d(x,y,z) = dxdxp*dxpd* + dxdyp*dypd*
	dxdist := [3]float64{
		dxdxp*dxpdx + dxdyp*dypdx,
		dxdxp*dxpdy + dxdyp*dypdy,
		dxdxp*dxpdz + dxdyp*dypdz,
	}
	dydist := [3]float64{
		dydxp*dxpdx + dydyp*dypdx,
		dydxp*dxpdy + dydyp*dypdy,
		dydxp*dxpdz + dydyp*dypdz,
	}

	fx := intr.FocalLength
	fy := intr.FocalLengthY()

	var j CamJacobian
	for i := 0; i < 3; i++ {
		j[0][i] = fx*dxdist[i] + intr.Skew*dydist[i]
		j[1][i] = -fy * dydist[i]
	}
	return j
}

// WorldPointJacobianOf derives d(u,v)/d(world point xyz) from the
// camera-frame Jacobian: p_cam = R^-1 (p_world - camPos), so
// d(p_cam)/d(p_world) = R^-1, hence d(u,v)/d(p_world) = camJacobian * R^-1.
func WorldPointJacobianOf(camJac CamJacobian, q spatialmath.Quaternion, isZReflected bool) WorldPointJacobian {
	rInv := q.Inv().ToRotationMatrix()
	sign := 1.0
	if isZReflected {
		sign = -1.0
	}
	var out WorldPointJacobian
	for row := 0; row < 2; row++ {
		for col := 0; col < 3; col++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += camJac[row][k] * rInv.At(k, col)
			}
			out[row][col] = sign * sum
		}
	}
	return out
}

// PositionJacobianOf derives d(u,v)/d(camera position) = -1 *
// WorldPointJacobianOf's result, since p_cam depends on (p_world - camPos).
func PositionJacobianOf(worldJac WorldPointJacobian) [2][3]float64 {
	var out [2][3]float64
	for row := 0; row < 2; row++ {
		for col := 0; col < 3; col++ {
			out[row][col] = -worldJac[row][col]
		}
	}
	return out
}

// dRdq returns the four 3x3 partials of the rotation matrix built from
// quaternion (w, x, y, z) with respect to each component, following the
// standard quaternion-to-matrix expansion.
func dRdq(w, x, y, z float64) (dw, dx, dy, dz [9]float64) {
	dw = [9]float64{0, -2 * z, 2 * y, 2 * z, 0, -2 * x, -2 * y, 2 * x, 0}
	dx = [9]float64{0, 2 * y, 2 * z, 2 * y, -4 * x, -2 * w, 2 * z, 2 * w, -4 * x}
	dy = [9]float64{-4 * y, 2 * x, 2 * w, 2 * x, 0, 2 * z, -2 * w, 2 * z, -4 * y}
	dz = [9]float64{-4 * z, -2 * w, 2 * x, 2 * w, -4 * z, 2 * y, 2 * x, 2 * y, 0}
	return
}

// QuaternionJacobianOf derives d(u,v)/d(qw,qx,qy,qz). p_cam = R(q)^T * d
// where d = p_world - camPos is independent of q, so d(p_cam)/dq_i =
// (dR/dq_i)^T * d.
func QuaternionJacobianOf(camJac CamJacobian, q spatialmath.Quaternion, worldPoint, cameraPos r3.Vector, isZReflected bool) [2][4]float64 {
	d := worldPoint.Sub(cameraPos)
	dw, dx, dy, dz := dRdq(q.W(), q.X(), q.Y(), q.Z())

	sign := 1.0
	if isZReflected {
		sign = -1.0
	}

	cols := [4][3]float64{
		mulTransposeVec(dw, d),
		mulTransposeVec(dx, d),
		mulTransposeVec(dy, d),
		mulTransposeVec(dz, d),
	}

	var out [2][4]float64
	for qi := 0; qi < 4; qi++ {
		dp := [3]float64{sign * cols[qi][0], sign * cols[qi][1], sign * cols[qi][2]}
		for row := 0; row < 2; row++ {
			out[row][qi] = camJac[row][0]*dp[0] + camJac[row][1]*dp[1] + camJac[row][2]*dp[2]
		}
	}
	return out
}

// mulTransposeVec computes m^T * v for a row-major 3x3 matrix m.
func mulTransposeVec(m [9]float64, v r3.Vector) [3]float64 {
	vv := [3]float64{v.X, v.Y, v.Z}
	var out [3]float64
	for col := 0; col < 3; col++ {
		var sum float64
		for row := 0; row < 3; row++ {
			sum += m[row*3+col] * vv[row]
		}
		out[col] = sum
	}
	return out
}

// PoseJacobianOf assembles the full 2x7 pose Jacobian (position then
// quaternion columns).
func PoseJacobianOf(camJac CamJacobian, q spatialmath.Quaternion, worldPoint, cameraPos r3.Vector, isZReflected bool) PoseJacobian {
	worldJac := WorldPointJacobianOf(camJac, q, isZReflected)
	posJac := PositionJacobianOf(worldJac)
	quatJac := QuaternionJacobianOf(camJac, q, worldPoint, cameraPos, isZReflected)

	var out PoseJacobian
	for row := 0; row < 2; row++ {
		out[row][0] = posJac[row][0]
		out[row][1] = posJac[row][1]
		out[row][2] = posJac[row][2]
		out[row][3] = quatJac[row][0]
		out[row][4] = quatJac[row][1]
		out[row][5] = quatJac[row][2]
		out[row][6] = quatJac[row][3]
	}
	return out
}

// IntrinsicsJacobianOf computes d(u,v)/d(f, aspect, cx, cy, skew, k1, k2,
// k3, p1, p2) at a valid projection result.
func IntrinsicsJacobianOf(r Result, intr project.Intrinsics) IntrinsicsJacobian {
	x, y, z := r.Cam.X, r.Cam.Y, r.Cam.Z
	xp, yp := x/z, y/z
	r2 := xp*xp + yp*yp

	fx := intr.FocalLength
	fy := intr.FocalLengthY()

	dxd_dk1 := xp * r2
	dxd_dk2 := xp * r2 * r2
	dxd_dk3 := xp * r2 * r2 * r2
	dxd_dp1 := 2 * xp * yp
	dxd_dp2 := r2 + 2*xp*xp

	dyd_dk1 := yp * r2
	dyd_dk2 := yp * r2 * r2
	dyd_dk3 := yp * r2 * r2 * r2
	dyd_dp1 := r2 + 2*yp*yp
	dyd_dp2 := 2 * xp * yp

	var j IntrinsicsJacobian
	// column order: f, aspect, cx, cy, skew, k1, k2, k3, p1, p2
	j[0][0] = r.XDist                     // du/df
	j[0][1] = 0                           // du/daspect (fx doesn't depend on aspect)
	j[0][2] = 1                           // du/dcx
	j[0][3] = 0                           // du/dcy
	j[0][4] = r.YDist                     // du/dskew
	j[0][5] = fx * dxd_dk1                // du/dk1
	j[0][6] = fx * dxd_dk2                // du/dk2
	j[0][7] = fx * dxd_dk3                // du/dk3
	j[0][8] = fx * dxd_dp1                // du/dp1
	j[0][9] = fx * dxd_dp2                // du/dp2

	j[1][0] = -intr.AspectRatio * r.YDist // dv/df
	j[1][1] = -intr.FocalLength * r.YDist // dv/daspect
	j[1][2] = 0                           // dv/dcx
	j[1][3] = 1                           // dv/dcy
	j[1][4] = 0                           // dv/dskew
	j[1][5] = -fy * dyd_dk1
	j[1][6] = -fy * dyd_dk2
	j[1][7] = -fy * dyd_dk3
	j[1][8] = -fy * dyd_dp1
	j[1][9] = -fy * dyd_dp2

	return j
}
