package vanishing

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/rotera/project"
)

func TestEstimateVanishingPointIntersectsLines(t *testing.T) {
	lines := []*project.VanishingLine{
		project.NewVanishingLine(0, 0, project.AxisX, 100, 100, 300, 120),
		project.NewVanishingLine(1, 0, project.AxisX, 100, 300, 300, 280),
	}
	vp, ok := EstimateVanishingPoint(lines)
	test.That(t, ok, test.ShouldBeTrue)
	// Both lines converge somewhere to the right of x=300 at around y=200;
	// just check the result is finite and roughly between the endpoints' y.
	test.That(t, vp.X > 0, test.ShouldBeTrue)
	test.That(t, vp.Y > 100 && vp.Y < 300, test.ShouldBeTrue)
}

func TestFocalLengthFromOrthogonalVPsPositiveCase(t *testing.T) {
	pp := Point{X: 500, Y: 400}
	v1 := Point{X: 1500, Y: 400}
	v2 := Point{X: -500, Y: -600}
	f, ok := FocalLengthFromOrthogonalVPs(v1, v2, pp)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, f > 0, test.ShouldBeTrue)
}

func TestFocalLengthFromOrthogonalVPsDiscardsNonPositive(t *testing.T) {
	pp := Point{X: 500, Y: 400}
	v1 := Point{X: 1500, Y: 400}
	v2 := Point{X: 1600, Y: 400}
	_, ok := FocalLengthFromOrthogonalVPs(v1, v2, pp)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestRotationCandidatesFromVPsReturnsFourForTwoAxes(t *testing.T) {
	pp := Point{X: 500, Y: 400}
	vps := map[project.Axis]Point{
		project.AxisX: {X: 1500, Y: 400},
		project.AxisZ: {X: 500, Y: 400},
	}
	candidates := RotationCandidatesFromVPs(vps, pp, 1000)
	test.That(t, len(candidates), test.ShouldEqual, 4)
}

func TestCanInitializeWithVPStrict(t *testing.T) {
	linesByAxis := map[project.Axis][]*project.VanishingLine{
		project.AxisX: {project.NewVanishingLine(0, 0, project.AxisX, 0, 0, 1, 1), project.NewVanishingLine(1, 0, project.AxisX, 0, 0, 1, 1)},
		project.AxisZ: {project.NewVanishingLine(2, 0, project.AxisZ, 0, 0, 1, 1), project.NewVanishingLine(3, 0, project.AxisZ, 0, 0, 1, 1)},
	}
	test.That(t, CanInitializeWithVP(linesByAxis, 2, false), test.ShouldBeTrue)
	test.That(t, CanInitializeWithVP(linesByAxis, 0, false), test.ShouldBeFalse)
	test.That(t, CanInitializeWithVP(linesByAxis, 1, true), test.ShouldBeTrue)
}
