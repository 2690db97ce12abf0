package valuemap

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/rotera/project"
)

func buildSimpleProject() *project.Project {
	p := project.New()
	a := p.AddWorldPoint("a")
	b := p.AddWorldPoint("b")
	a.LockAxis(project.AxisX, 0)
	a.LockAxis(project.AxisY, 0)
	a.LockAxis(project.AxisZ, 0)
	b.SetOptimized([3]float64{1, 0, 0})

	vp := p.AddViewpoint("cam0")
	vp.Position = [3]float64{0, 0, -5}
	p.AddImagePoint(a.ID, vp.ID, 320, 240)
	p.AddImagePoint(b.ID, vp.ID, 400, 240)

	line := p.AddLine(a.ID, b.ID)
	line.Direction = project.DirectionX
	line.SetTargetLength(1)

	return p
}

func TestBuildLayoutLockedPointPushesNoVariables(t *testing.T) {
	p := buildSimpleProject()
	layout, err := BuildLayout(p)
	test.That(t, err, test.ShouldBeNil)

	// a is fully locked: 0 variables. b is free: 3 variables. Camera pose
	// (unlocked): 7. Camera intrinsics, full (not simple): 10.
	test.That(t, layout.NVars(), test.ShouldEqual, 0+3+7+10)
}

func TestBuildLayoutSimpleIntrinsicsReducesVariables(t *testing.T) {
	p := buildSimpleProject()
	p.Viewpoints()[0].UseSimpleIntrinsics = true
	layout, err := BuildLayout(p)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, layout.NVars(), test.ShouldEqual, 0+3+7+3)
}

func TestBuildLayoutLockedPoseOwnsNoPoseVariables(t *testing.T) {
	p := buildSimpleProject()
	p.Viewpoints()[0].IsPoseLocked = true
	layout, err := BuildLayout(p)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, layout.NVars(), test.ShouldEqual, 0+3+0+10)
}

func TestEvaluateResidualsLineLengthMatchesTarget(t *testing.T) {
	p := buildSimpleProject()
	layout, err := BuildLayout(p)
	test.That(t, err, test.ShouldBeNil)

	res := EvaluateResiduals(p, layout, layout.Initial)
	// b starts at (1,0,0), a at (0,0,0): distance 1, target 1 -> residual 0.
	// line direction x shares axes y,z, both zero on both ends -> 0,0.
	// res[0] is the camera's quaternion-norm residual; the line's follow.
	test.That(t, len(res) > 0, test.ShouldBeTrue)
	test.That(t, res[1], test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, res[2], test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, res[3], test.ShouldAlmostEqual, 0, 1e-12)
}

func TestEvaluateResidualsQuaternionNormIsZeroForIdentity(t *testing.T) {
	p := buildSimpleProject()
	layout, err := BuildLayout(p)
	test.That(t, err, test.ShouldBeNil)

	res := EvaluateResiduals(p, layout, layout.Initial)
	// first residual is the camera's quaternion-norm residual.
	test.That(t, res[0], test.ShouldAlmostEqual, 0, 1e-9)
}
