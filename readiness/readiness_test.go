package readiness

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/rotera/project"
)

func lockXYZ(wp *project.WorldPoint, x, y, z float64) {
	wp.LockAxis(project.AxisX, x)
	wp.LockAxis(project.AxisY, y)
	wp.LockAxis(project.AxisZ, z)
}

func TestAnalyzeEmptyProjectFlagsErrors(t *testing.T) {
	p := project.New()
	res := Analyze(p)
	test.That(t, res.CanOptimize, test.ShouldBeFalse)

	codes := issueCodes(res.Issues)
	test.That(t, codes[CodeNoEnabledCamera], test.ShouldBeTrue)
	test.That(t, codes[CodeNoConstraints], test.ShouldBeTrue)
}

func TestAnalyzePnPPathEnablesInitialize(t *testing.T) {
	p := project.New()
	vp := p.AddViewpoint("cam0")
	for i := 0; i < 3; i++ {
		wp := p.AddWorldPoint("p")
		lockXYZ(wp, float64(i), float64(i), 5)
		p.AddImagePoint(wp.ID, vp.ID, float64(100+i), float64(100+i))
	}

	res := Analyze(p)
	test.That(t, res.CanInitialize, test.ShouldBeTrue)
}

func TestAnalyzeAmbiguousDepthFlagsSingleCameraPoint(t *testing.T) {
	p := project.New()
	vp0 := p.AddViewpoint("cam0")
	vp1 := p.AddViewpoint("cam1")

	anchor := p.AddWorldPoint("anchor")
	p.AddImagePoint(anchor.ID, vp0.ID, 1, 1)
	p.AddImagePoint(anchor.ID, vp1.ID, 2, 2)

	lonely := p.AddWorldPoint("lonely")
	p.AddImagePoint(lonely.ID, vp0.ID, 5, 5)

	res := Analyze(p)
	codes := issueCodes(res.Issues)
	test.That(t, codes[CodeAmbiguousDepth], test.ShouldBeTrue)

	found := false
	for _, iss := range res.Issues {
		if iss.Code == CodeAmbiguousDepth && iss.WorldPoint == lonely.ID {
			found = true
		}
	}
	test.That(t, found, test.ShouldBeTrue)
}

func TestAnalyzeLineConnectsToAnchorClearsAmbiguity(t *testing.T) {
	p := project.New()
	vp0 := p.AddViewpoint("cam0")
	vp1 := p.AddViewpoint("cam1")

	anchor := p.AddWorldPoint("anchor")
	p.AddImagePoint(anchor.ID, vp0.ID, 1, 1)
	p.AddImagePoint(anchor.ID, vp1.ID, 2, 2)

	connected := p.AddWorldPoint("connected")
	p.AddImagePoint(connected.ID, vp0.ID, 5, 5)
	p.AddLine(anchor.ID, connected.ID)

	res := Analyze(p)
	for _, iss := range res.Issues {
		if iss.Code == CodeAmbiguousDepth && iss.WorldPoint == connected.ID {
			t.Fatalf("connected point should not be flagged ambiguous")
		}
	}
}

func TestAnalyzeDuplicateAnchorPositions(t *testing.T) {
	p := project.New()
	a := p.AddWorldPoint("a")
	lockXYZ(a, 1, 2, 3)
	b := p.AddWorldPoint("b")
	lockXYZ(b, 1, 2, 3)

	res := Analyze(p)
	codes := issueCodes(res.Issues)
	test.That(t, codes[CodeDuplicateAnchor], test.ShouldBeTrue)
}

func TestDegreesOfFreedomCountsUnlockedAxes(t *testing.T) {
	p := project.New()
	wp := p.AddWorldPoint("a")
	wp.LockAxis(project.AxisX, 1)

	res := Analyze(p)
	test.That(t, res.TotalDOF, test.ShouldEqual, 2)
	test.That(t, res.ConstraintDOF, test.ShouldEqual, 1)
}

func issueCodes(issues []Issue) map[string]bool {
	out := map[string]bool{}
	for _, iss := range issues {
		out[iss.Code] = true
	}
	return out
}
