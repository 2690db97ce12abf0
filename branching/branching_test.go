package branching

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/rotera/project"
)

func TestEnumerateSingleLineTwoBranches(t *testing.T) {
	p := project.New()
	origin := p.AddWorldPoint("origin")
	origin.LockAxis(project.AxisX, 0)
	origin.LockAxis(project.AxisY, 0)
	origin.LockAxis(project.AxisZ, 0)
	far := p.AddWorldPoint("far")

	line := p.AddLine(origin.ID, far.ID)
	line.Direction = project.DirectionX
	line.SetTargetLength(10)

	branches := Enumerate(p)
	test.That(t, len(branches), test.ShouldEqual, 2)

	var xs []float64
	for _, b := range branches {
		xs = append(xs, *b.Coords[far.ID][project.AxisX])
	}
	test.That(t, (xs[0] == 10 && xs[1] == -10) || (xs[0] == -10 && xs[1] == 10), test.ShouldBeTrue)
}

func TestEnumerateNoAmbiguityYieldsOneBranch(t *testing.T) {
	p := project.New()
	a := p.AddWorldPoint("a")
	a.LockAxis(project.AxisX, 0)
	a.LockAxis(project.AxisY, 0)
	a.LockAxis(project.AxisZ, 0)
	b := p.AddWorldPoint("b")
	b.LockAxis(project.AxisX, 5)
	b.LockAxis(project.AxisY, 0)
	b.LockAxis(project.AxisZ, 0)

	line := p.AddLine(a.ID, b.ID)
	line.Direction = project.DirectionX
	line.SetTargetLength(5)

	branches := Enumerate(p)
	test.That(t, len(branches), test.ShouldEqual, 1)
	test.That(t, len(branches[0].Choices), test.ShouldEqual, 0)
}

func TestEnumerateContradictionPrunes(t *testing.T) {
	p := project.New()
	a := p.AddWorldPoint("a")
	a.LockAxis(project.AxisX, 0)
	a.LockAxis(project.AxisY, 0)
	a.LockAxis(project.AxisZ, 0)
	b := p.AddWorldPoint("b")
	b.LockAxis(project.AxisX, 999) // contradicts the line's target length below.
	b.LockAxis(project.AxisY, 0)
	b.LockAxis(project.AxisZ, 0)

	line := p.AddLine(a.ID, b.ID)
	line.Direction = project.DirectionX
	line.SetTargetLength(5)

	branches := Enumerate(p)
	// No fork is possible (both endpoints' x are already known and
	// disagree), so the deterministic seed is returned unforked rather
	// than silently vanishing.
	test.That(t, len(branches), test.ShouldEqual, 1)
}

func TestEnumerateBranchCountBoundedBy2N(t *testing.T) {
	p := project.New()
	origin := p.AddWorldPoint("origin")
	origin.LockAxis(project.AxisX, 0)
	origin.LockAxis(project.AxisY, 0)
	origin.LockAxis(project.AxisZ, 0)

	n := 3
	for i := 0; i < n; i++ {
		far := p.AddWorldPoint("far")
		line := p.AddLine(origin.ID, far.ID)
		line.Direction = project.DirectionX
		line.SetTargetLength(float64(i + 1))
	}

	branches := Enumerate(p)
	test.That(t, len(branches) >= 1, test.ShouldBeTrue)
	test.That(t, len(branches) <= 1<<uint(n), test.ShouldBeTrue)
}
