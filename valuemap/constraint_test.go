package valuemap

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/rotera/project"
)

func TestCoplanarConstraintWiredThroughLayout(t *testing.T) {
	p := project.New()
	a := p.AddWorldPoint("a")
	b := p.AddWorldPoint("b")
	c := p.AddWorldPoint("c")
	a.LockAxis(project.AxisX, 0)
	a.LockAxis(project.AxisY, 0)
	a.LockAxis(project.AxisZ, 0)
	b.LockAxis(project.AxisX, 1)
	b.LockAxis(project.AxisY, 0)
	b.LockAxis(project.AxisZ, 0)
	c.LockAxis(project.AxisX, 0)
	c.LockAxis(project.AxisY, 1)
	c.LockAxis(project.AxisZ, 0)

	p.AddConstraint(&project.CoplanarPointsConstraint{
		ID:     0,
		Points: []project.WorldPointID{a.ID, b.ID, c.ID},
	})

	layout, err := BuildLayout(p)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, layout.NVars(), test.ShouldEqual, 4) // the plane's own 4 scalars

	res := EvaluateResiduals(p, layout, layout.Initial)
	test.That(t, len(res), test.ShouldEqual, 1+3) // unit-norm + 3 points
}
