package rotera

import (
	"math"
	"math/rand"
	"testing"

	"go.viam.com/test"

	"go.viam.com/rotera/branching"
	"go.viam.com/rotera/project"
	"go.viam.com/rotera/readiness"
	"go.viam.com/rotera/twoview"
)

// Scenario 1: single-camera VP calibration. One viewpoint at (-30,20,-40)
// looking at the origin, intrinsics f=1000,(cx,cy)=(500,400), four world
// points at the origin and 10 units along each axis with observations
// computed from the
// true pose, three axis-aligned target-length-10 lines, and vanishing
// lines along X and Z. Pixel coordinates below were computed offline from
// the ground-truth pose.
func TestScenarioSingleCameraVPCalibration(t *testing.T) {
	p := project.New()
	vp := p.AddViewpoint("cam")
	vp.ImageWidth, vp.ImageHeight = 1000, 800
	vp.IsPossiblyCropped = true
	vp.Intrinsics.PrincipalX, vp.Intrinsics.PrincipalY = 500, 400

	origin := p.AddWorldPoint("O")
	origin.LockAxis(project.AxisX, 0)
	origin.LockAxis(project.AxisY, 0)
	origin.LockAxis(project.AxisZ, 0)
	px := p.AddWorldPoint("X")
	py := p.AddWorldPoint("Y")
	pz := p.AddWorldPoint("Z")

	p.AddImagePoint(origin.ID, vp.ID, 500.000, 400.000)
	p.AddImagePoint(px.ID, vp.ID, 638.319, 380.022)
	p.AddImagePoint(py.ID, vp.ID, 523.678, 216.335)
	p.AddImagePoint(pz.ID, vp.ID, 409.091, 339.394)

	lineX := p.AddLine(origin.ID, px.ID)
	lineX.Direction = project.DirectionX
	lineX.SetTargetLength(10)
	lineY := p.AddLine(origin.ID, py.ID)
	lineY.Direction = project.DirectionY
	lineY.SetTargetLength(10)
	lineZ := p.AddLine(origin.ID, pz.ID)
	lineZ.Direction = project.DirectionZ
	lineZ.SetTargetLength(10)

	// A second line segment per vanishing axis, offset from the first so
	// EstimateVanishingPoint has two non-degenerate lines to intersect.
	p.AddVanishingLine(vp.ID, project.AxisX, 500.000, 400.000, 638.319, 380.022)
	p.AddVanishingLine(vp.ID, project.AxisX, 460.655, 284.017, 598.359, 275.188)
	p.AddVanishingLine(vp.ID, project.AxisZ, 500.000, 400.000, 409.091, 339.394)
	p.AddVanishingLine(vp.ID, project.AxisZ, 585.856, 305.114, 486.052, 256.742)

	result := OptimizeProject(p, DefaultSolveOptions())

	test.That(t, result.Residual < 1.0, test.ShouldBeTrue)
	test.That(t, len(result.Cameras), test.ShouldEqual, 1)

	cam := result.Cameras[0]
	truePos := [3]float64{-30, 20, -40}
	trueNorm := math.Sqrt(truePos[0]*truePos[0] + truePos[1]*truePos[1] + truePos[2]*truePos[2])
	dx := cam.Position.X - truePos[0]
	dy := cam.Position.Y - truePos[1]
	dz := cam.Position.Z - truePos[2]
	errNorm := math.Sqrt(dx*dx + dy*dy + dz*dz)
	test.That(t, errNorm < 0.05*trueNorm, test.ShouldBeTrue)
}

// Scenario 2: two-view Essential Matrix initialization from eight
// coplanar-but-not-collinear correspondences with a non-axis-aligned
// baseline of magnitude 10 or so between the two cameras.
func TestScenarioTwoViewEssentialMatrix(t *testing.T) {
	p := project.New()
	cam1 := p.AddViewpoint("cam1")
	cam1.ImageWidth, cam1.ImageHeight = 640, 480
	cam1.Intrinsics = project.DefaultIntrinsics(500, 320, 240)
	cam1.IsPoseLocked = true

	cam2 := p.AddViewpoint("cam2")
	cam2.ImageWidth, cam2.ImageHeight = 640, 480
	cam2.Intrinsics = project.DefaultIntrinsics(500, 320, 240)

	pixels := [][4]float64{
		{320.000, 240.000, 42.222, 156.667},
		{445.000, 240.000, 181.111, 156.667},
		{206.364, 240.000, -55.000, 165.000},
		{320.000, 359.048, 56.842, 292.632},
		{320.000, 108.421, 25.882, 4.706},
		{428.696, 348.696, 200.952, 287.619},
		{181.111, 101.111, -148.750, -10.000},
		{380.000, 180.000, 167.826, 109.565},
	}
	for _, px := range pixels {
		wp := p.AddWorldPoint("p")
		p.AddImagePoint(wp.ID, cam1.ID, px[0], px[1])
		p.AddImagePoint(wp.ID, cam2.ID, px[2], px[3])
	}

	opts := DefaultSolveOptions()
	result := OptimizeProject(p, opts)

	test.That(t, result.Residual < 1.0, test.ShouldBeTrue)
}

// Scenario 3: coordinate-sign invariance. Scenario 1's points and lines,
// with one vanishing line per axis instead of two, built once as is and
// once with every Y coordinate (camera and observations) negated; both the
// original and reflected fixture should converge with comparable residual
// and opposite-signed recovered camera Y.
func TestScenarioCoordinateSignInvariance(t *testing.T) {
	build := func(yA, yB, yC float64) *project.Project {
		p := project.New()
		vp := p.AddViewpoint("cam")
		vp.ImageWidth, vp.ImageHeight = 1000, 800
		vp.IsPossiblyCropped = true
		vp.Intrinsics.PrincipalX, vp.Intrinsics.PrincipalY = 500, 400

		origin := p.AddWorldPoint("O")
		origin.LockAxis(project.AxisX, 0)
		origin.LockAxis(project.AxisY, 0)
		origin.LockAxis(project.AxisZ, 0)
		px := p.AddWorldPoint("X")
		py := p.AddWorldPoint("Y")
		pz := p.AddWorldPoint("Z")

		p.AddImagePoint(origin.ID, vp.ID, 500.000, 400.000)
		p.AddImagePoint(px.ID, vp.ID, 638.319, yA)
		p.AddImagePoint(py.ID, vp.ID, 523.678, yB)
		p.AddImagePoint(pz.ID, vp.ID, 409.091, yC)

		lineX := p.AddLine(origin.ID, px.ID)
		lineX.Direction = project.DirectionX
		lineX.SetTargetLength(10)
		lineY := p.AddLine(origin.ID, py.ID)
		lineY.Direction = project.DirectionY
		lineY.SetTargetLength(10)
		lineZ := p.AddLine(origin.ID, pz.ID)
		lineZ.Direction = project.DirectionZ
		lineZ.SetTargetLength(10)

		p.AddVanishingLine(vp.ID, project.AxisX, 500.000, 400.000, 638.319, yA)
		p.AddVanishingLine(vp.ID, project.AxisZ, 500.000, 400.000, 409.091, yC)
		return p
	}

	good := build(380.022, 216.335, 339.394)
	reflected := build(419.978, 583.665, 460.606)

	goodResult := OptimizeProject(good, DefaultSolveOptions())
	reflectedResult := OptimizeProject(reflected, DefaultSolveOptions())

	test.That(t, len(goodResult.Cameras), test.ShouldEqual, 1)
	test.That(t, len(reflectedResult.Cameras), test.ShouldEqual, 1)

	ratio := reflectedResult.Residual / math.Max(goodResult.Residual, 1e-12)
	if ratio < 1 {
		ratio = 1 / ratio
	}
	test.That(t, ratio < 10, test.ShouldBeTrue)

	goodY := goodResult.Cameras[0].Position.Y
	reflectedY := reflectedResult.Cameras[0].Position.Y
	test.That(t, goodY*reflectedY <= 0, test.ShouldBeTrue)
}

// Scenario 4: branching enumeration over three axis-aligned fixed-length
// lines from a single locked origin should return up to 8 branches, at
// least 1, and every surviving branch should share the same magnitudes
// (differing only in sign).
func TestScenarioBranchingEnumeration(t *testing.T) {
	p := project.New()
	origin := p.AddWorldPoint("O")
	origin.LockAxis(project.AxisX, 0)
	origin.LockAxis(project.AxisY, 0)
	origin.LockAxis(project.AxisZ, 0)

	axes := []project.Direction{project.DirectionX, project.DirectionY, project.DirectionZ}
	var tips []*project.WorldPoint
	for i, dir := range axes {
		tip := p.AddWorldPoint("tip")
		tips = append(tips, tip)
		line := p.AddLine(origin.ID, tip.ID)
		line.Direction = dir
		line.SetTargetLength(float64(i + 1))
	}

	branches := branching.Enumerate(p)
	test.That(t, len(branches) >= 1, test.ShouldBeTrue)
	test.That(t, len(branches) <= 8, test.ShouldBeTrue)

	for i, dir := range axes {
		axis := dir.AlongAxes()[0]
		var magnitude float64
		for bi, branch := range branches {
			coords, ok := branch.Coords[tips[i].ID]
			if !ok || coords[axis] == nil {
				continue
			}
			v := math.Abs(*coords[axis])
			if bi == 0 {
				magnitude = v
			} else {
				test.That(t, math.Abs(v-magnitude) < 1e-6, test.ShouldBeTrue)
			}
		}
	}
}

// Scenario 5: a world point visible in a single camera with no line
// connecting it to a multi-camera point is flagged AMBIGUOUS_DEPTH, and the
// solve still completes rather than panicking.
func TestScenarioUnderconstrainedAmbiguousDepth(t *testing.T) {
	p := project.New()
	anchor := p.AddWorldPoint("anchor")
	anchor.LockAxis(project.AxisX, 0)
	anchor.LockAxis(project.AxisY, 0)
	anchor.LockAxis(project.AxisZ, 0)

	cam1 := p.AddViewpoint("cam1")
	cam1.ImageWidth, cam1.ImageHeight = 640, 480
	cam1.Intrinsics = project.DefaultIntrinsics(500, 320, 240)
	cam1.IsPoseLocked = true
	cam2 := p.AddViewpoint("cam2")
	cam2.ImageWidth, cam2.ImageHeight = 640, 480
	cam2.Intrinsics = project.DefaultIntrinsics(500, 320, 240)
	cam2.IsPoseLocked = true
	cam2.Position = [3]float64{5, 0, 0}

	shared := p.AddWorldPoint("shared")
	p.AddImagePoint(shared.ID, cam1.ID, 320, 240)
	p.AddImagePoint(shared.ID, cam2.ID, 280, 240)

	lonely := p.AddWorldPoint("lonely")
	p.AddImagePoint(lonely.ID, cam1.ID, 400, 300)

	check := readiness.Analyze(p)
	found := false
	for _, issue := range check.Issues {
		if issue.Code == readiness.CodeAmbiguousDepth && issue.WorldPoint == lonely.ID {
			found = true
		}
	}
	test.That(t, found, test.ShouldBeTrue)

	result := OptimizeProject(p, DefaultSolveOptions())
	test.That(t, result.Quality != "", test.ShouldBeTrue)
}

// Scenario 6: two cameras observing correspondences related by a purely
// translational, optical-axis-aligned baseline. The essential-matrix
// estimator must report the degenerate translation rather than returning a
// bogus pose.
func TestScenarioDegenerateEssentialMatrix(t *testing.T) {
	corr := []twoview.Correspondence{
		{X1: 0.10, Y1: 0.10, X2: 0.09, Y2: 0.09},
		{X1: -0.10, Y1: 0.10, X2: -0.11, Y2: 0.11},
		{X1: 0.10, Y1: -0.10, X2: 0.11, Y2: -0.11},
		{X1: -0.10, Y1: -0.10, X2: -0.09, Y2: -0.09},
		{X1: 0.20, Y1: 0.05, X2: 0.18, Y2: 0.045},
		{X1: -0.20, Y1: 0.05, X2: -0.22, Y2: 0.055},
		{X1: 0.05, Y1: 0.20, X2: 0.045, Y2: 0.18},
		{X1: -0.05, Y1: -0.20, X2: -0.055, Y2: -0.22},
	}
	rng := rand.New(rand.NewSource(1))
	_, err := twoview.Estimate(corr, rng)
	test.That(t, err, test.ShouldNotBeNil)
}
