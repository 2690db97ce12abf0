package candidate

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/rotera/project"
)

func TestRunConvergesOnAlreadyConsistentScene(t *testing.T) {
	p := project.New()

	vp := p.AddViewpoint("cam")
	vp.ImageWidth, vp.ImageHeight = 640, 480
	vp.Intrinsics = project.DefaultIntrinsics(500, 320, 240)
	vp.IsPoseLocked = true

	pts := [][3]float64{
		{0, 0, 10}, {5, 0, 12}, {0, 5, 11}, {5, 5, 13}, {-3, 2, 15},
	}
	for _, xyz := range pts {
		wp := p.AddWorldPoint("p")
		wp.LockAxis(project.AxisX, xyz[0])
		wp.LockAxis(project.AxisY, xyz[1])
		wp.LockAxis(project.AxisZ, xyz[2])
		u := 320 + 500*xyz[0]/xyz[2]
		v := 240 - 500*xyz[1]/xyz[2]
		p.AddImagePoint(wp.ID, vp.ID, u, v)
	}

	var progressCalls int
	outcome, err := Run(p, DefaultOptions(), nil, func(current, total int) {
		progressCalls++
		test.That(t, current <= total, test.ShouldBeTrue)
	})

	test.That(t, err, test.ShouldBeNil)
	test.That(t, outcome.Result.FinalCost < 1e-6, test.ShouldBeTrue)
	test.That(t, progressCalls > 0, test.ShouldBeTrue)
}

func TestRunHonorsSkipCandidateTestingHook(t *testing.T) {
	// An empty project builds a trivially empty, already-converged Layout,
	// so this only exercises that SkipCandidateTesting pins the run to the
	// forced seed and branch instead of searching. ForcedAlignmentSign is
	// left at 0, so both signs stay in play; the first probe's zero cost is
	// an early win, which makes it the only attempt.
	p := project.New()
	opts := DefaultOptions()
	opts.SkipCandidateTesting = true
	opts.ForcedBranch = 0
	opts.ForcedSeed = 42

	outcome, err := Run(p, opts, nil, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, outcome.Seed, test.ShouldEqual, int64(42))
	test.That(t, outcome.Attempts, test.ShouldEqual, 1)
}
