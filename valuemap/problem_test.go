package valuemap

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/rotera/solver"
)

func TestProblemEvaluateMatchesResidualCount(t *testing.T) {
	p := buildSimpleProject()
	layout, err := BuildLayout(p)
	test.That(t, err, test.ShouldBeNil)

	problem := NewProblem(p, layout)
	residuals, jac := problem.Evaluate(layout.Initial)

	test.That(t, len(residuals), test.ShouldEqual, layout.NResiduals())
	test.That(t, jac.NVars, test.ShouldEqual, layout.NVars())
	test.That(t, jac.NResiduals, test.ShouldEqual, len(residuals))
	test.That(t, jac.Dense, test.ShouldNotBeNil)
}

func TestProblemSolvesSimpleProject(t *testing.T) {
	p := buildSimpleProject()
	layout, err := BuildLayout(p)
	test.That(t, err, test.ShouldBeNil)

	problem := NewProblem(p, layout)
	result := solver.Solve(problem, layout.Initial, solver.DefaultOptions())

	// LM only accepts steps that lower the cost, so the solved residual
	// cost cannot exceed the cost at the starting variables.
	initialResiduals, _ := problem.Evaluate(layout.Initial)
	finalResiduals, _ := problem.Evaluate(result.Variables)
	test.That(t, sumSquaresTest(finalResiduals) <= sumSquaresTest(initialResiduals), test.ShouldBeTrue)
}

func sumSquaresTest(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return sum
}

func TestProblemRenormalizeQuaternionsFixesDrift(t *testing.T) {
	p := buildSimpleProject()
	layout, err := BuildLayout(p)
	test.That(t, err, test.ShouldBeNil)

	problem := NewProblem(p, layout)
	vars := append([]float64(nil), layout.Initial...)

	vp := p.Viewpoints()[0]
	vpl := layout.viewpoints[vp.ID]
	if vpl.poseVarIdx[3] != noVar {
		vars[vpl.poseVarIdx[3]] = 2 // drift qw away from unit norm
	}
	problem.RenormalizeQuaternions(vars)

	values := newValues(layout, vars)
	_, q := values.ViewpointPose(vp.ID, vp.IsZReflected)
	norm := q.W()*q.W() + q.X()*q.X() + q.Y()*q.Y() + q.Z()*q.Z()
	test.That(t, norm, test.ShouldAlmostEqual, 1, 1e-9)
}
