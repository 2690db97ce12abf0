package project

import (
	"testing"

	"go.viam.com/test"
)

func TestAddAndResolveEntities(t *testing.T) {
	p := New()
	wpA := p.AddWorldPoint("A")
	wpB := p.AddWorldPoint("B")
	vp := p.AddViewpoint("cam0")
	ip := p.AddImagePoint(wpA.ID, vp.ID, 100, 200)
	line := p.AddLine(wpA.ID, wpB.ID)

	test.That(t, p.WorldPoint(wpA.ID), test.ShouldEqual, wpA)
	test.That(t, p.Viewpoint(vp.ID), test.ShouldEqual, vp)
	test.That(t, p.ImagePoint(ip.ID), test.ShouldEqual, ip)
	test.That(t, p.Line(line.ID), test.ShouldEqual, line)
}

func TestBackReferencesReindexed(t *testing.T) {
	p := New()
	wpA := p.AddWorldPoint("A")
	wpB := p.AddWorldPoint("B")
	vp := p.AddViewpoint("cam0")
	ip := p.AddImagePoint(wpA.ID, vp.ID, 1, 2)
	line := p.AddLine(wpA.ID, wpB.ID)

	ips := p.ImagePointsOf(wpA.ID)
	test.That(t, len(ips), test.ShouldEqual, 1)
	test.That(t, ips[0], test.ShouldEqual, ip.ID)

	lines := p.LinesOf(wpB.ID)
	test.That(t, len(lines), test.ShouldEqual, 1)
	test.That(t, lines[0], test.ShouldEqual, line.ID)
}

func TestWorldPointEffectiveXyzPrefersLocked(t *testing.T) {
	wp := NewWorldPoint(0, "p")
	wp.SetInferredAxis(AxisX, 5)
	wp.LockAxis(AxisX, 9)

	eff := wp.EffectiveXyz()
	test.That(t, *eff[AxisX], test.ShouldAlmostEqual, 9)
}

func TestWorldPointIsFullyConstrained(t *testing.T) {
	wp := NewWorldPoint(0, "p")
	test.That(t, wp.IsFullyConstrained(), test.ShouldBeFalse)
	wp.LockAxis(AxisX, 1)
	wp.LockAxis(AxisY, 2)
	wp.LockAxis(AxisZ, 3)
	test.That(t, wp.IsFullyConstrained(), test.ShouldBeTrue)
	test.That(t, wp.IsLocked(), test.ShouldBeTrue)
}

func TestPropagateInferencesCopiesSharedAxis(t *testing.T) {
	p := New()
	a := p.AddWorldPoint("a")
	b := p.AddWorldPoint("b")
	a.LockAxis(AxisY, 3)
	line := p.AddLine(a.ID, b.ID)
	line.Direction = DirectionX

	ok := p.PropagateInferences()
	test.That(t, ok, test.ShouldBeTrue)

	v, present := b.InferredAxis(AxisY)
	test.That(t, present, test.ShouldBeTrue)
	test.That(t, v, test.ShouldAlmostEqual, 3)
}

func TestPropagateInferencesDetectsContradiction(t *testing.T) {
	p := New()
	a := p.AddWorldPoint("a")
	b := p.AddWorldPoint("b")
	a.LockAxis(AxisY, 3)
	b.LockAxis(AxisY, 10)
	line := p.AddLine(a.ID, b.ID)
	line.Direction = DirectionX

	ok := p.PropagateInferences()
	test.That(t, ok, test.ShouldBeFalse)
}

func TestLineHelpers(t *testing.T) {
	l := NewLine(0, 0, 1)
	test.That(t, l.IsAxisAligned(), test.ShouldBeFalse)
	test.That(t, l.HasFixedLength(), test.ShouldBeFalse)

	l.Direction = DirectionX
	l.SetTargetLength(2.5)
	test.That(t, l.IsAxisAligned(), test.ShouldBeTrue)
	test.That(t, l.HasFixedLength(), test.ShouldBeTrue)
	length, ok := l.TargetLength()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, length, test.ShouldAlmostEqual, 2.5)
}
