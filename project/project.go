package project

// Project owns every entity in a scene. Cross-entity references are typed
// indices resolved through the accessor methods below; back-references
// (e.g. which image points observe a world point) are side tables rebuilt
// by reindex rather than stored pointers, so the entity graph never
// contains a cycle.
type Project struct {
	worldPoints    []*WorldPoint
	viewpoints     []*Viewpoint
	imagePoints    []*ImagePoint
	lines          []*Line
	vanishingLines []*VanishingLine
	constraints    []Constraint

	imagePointsByWorldPoint map[WorldPointID][]ImagePointID
	linesByWorldPoint       map[WorldPointID][]LineID
}

// New returns an empty project.
func New() *Project {
	return &Project{
		imagePointsByWorldPoint: map[WorldPointID][]ImagePointID{},
		linesByWorldPoint:       map[WorldPointID][]LineID{},
	}
}

// AddWorldPoint appends a new world point named name and returns it.
func (p *Project) AddWorldPoint(name string) *WorldPoint {
	id := WorldPointID(len(p.worldPoints))
	wp := NewWorldPoint(id, name)
	p.worldPoints = append(p.worldPoints, wp)
	return wp
}

// AddViewpoint appends a new viewpoint named name and returns it.
func (p *Project) AddViewpoint(name string) *Viewpoint {
	id := ViewpointID(len(p.viewpoints))
	vp := NewViewpoint(id, name)
	p.viewpoints = append(p.viewpoints, vp)
	return vp
}

// AddImagePoint appends a new observation of wp in vp at (u, v) and
// reindexes the back-reference table.
func (p *Project) AddImagePoint(wp WorldPointID, vp ViewpointID, u, v float64) *ImagePoint {
	id := ImagePointID(len(p.imagePoints))
	ip := NewImagePoint(id, wp, vp, u, v)
	p.imagePoints = append(p.imagePoints, ip)
	p.viewpoints[vp].imagePoints = append(p.viewpoints[vp].imagePoints, id)
	p.reindex()
	return ip
}

// AddLine appends a new line between a and b and reindexes.
func (p *Project) AddLine(a, b WorldPointID) *Line {
	id := LineID(len(p.lines))
	l := NewLine(id, a, b)
	p.lines = append(p.lines, l)
	p.reindex()
	return l
}

// AddVanishingLine appends a new vanishing line owned by vp.
func (p *Project) AddVanishingLine(vp ViewpointID, axis Axis, x1, y1, x2, y2 float64) *VanishingLine {
	id := VanishingLineID(len(p.vanishingLines))
	vl := NewVanishingLine(id, vp, axis, x1, y1, x2, y2)
	p.vanishingLines = append(p.vanishingLines, vl)
	p.viewpoints[vp].vanishingLines = append(p.viewpoints[vp].vanishingLines, id)
	return vl
}

// AddConstraint appends a constraint. Its ID is left as the caller set it.
func (p *Project) AddConstraint(c Constraint) {
	p.constraints = append(p.constraints, c)
}

// WorldPoint resolves id to its WorldPoint.
func (p *Project) WorldPoint(id WorldPointID) *WorldPoint { return p.worldPoints[id] }

// Viewpoint resolves id to its Viewpoint.
func (p *Project) Viewpoint(id ViewpointID) *Viewpoint { return p.viewpoints[id] }

// ImagePoint resolves id to its ImagePoint.
func (p *Project) ImagePoint(id ImagePointID) *ImagePoint { return p.imagePoints[id] }

// Line resolves id to its Line.
func (p *Project) Line(id LineID) *Line { return p.lines[id] }

// VanishingLine resolves id to its VanishingLine.
func (p *Project) VanishingLine(id VanishingLineID) *VanishingLine { return p.vanishingLines[id] }

// WorldPoints returns every world point in the project.
func (p *Project) WorldPoints() []*WorldPoint { return p.worldPoints }

// Viewpoints returns every viewpoint in the project.
func (p *Project) Viewpoints() []*Viewpoint { return p.viewpoints }

// ImagePoints returns every image point in the project.
func (p *Project) ImagePoints() []*ImagePoint { return p.imagePoints }

// Lines returns every line in the project.
func (p *Project) Lines() []*Line { return p.lines }

// VanishingLines returns every vanishing line in the project.
func (p *Project) VanishingLines() []*VanishingLine { return p.vanishingLines }

// Constraints returns every constraint in the project.
func (p *Project) Constraints() []Constraint { return p.constraints }

// ImagePointsOf returns the image points observing world point id.
func (p *Project) ImagePointsOf(id WorldPointID) []ImagePointID {
	return p.imagePointsByWorldPoint[id]
}

// LinesOf returns the lines touching world point id.
func (p *Project) LinesOf(id WorldPointID) []LineID {
	return p.linesByWorldPoint[id]
}

// reindex rebuilds the back-reference side tables from scratch. Called
// after any mutation that could change a referential-closure relationship,
// keeping the graph free of stored pointer cycles per the data model's
// arena design.
func (p *Project) reindex() {
	p.imagePointsByWorldPoint = map[WorldPointID][]ImagePointID{}
	for _, ip := range p.imagePoints {
		p.imagePointsByWorldPoint[ip.WorldPoint] = append(p.imagePointsByWorldPoint[ip.WorldPoint], ip.ID)
	}
	p.linesByWorldPoint = map[WorldPointID][]LineID{}
	for _, l := range p.lines {
		p.linesByWorldPoint[l.Endpoints[0]] = append(p.linesByWorldPoint[l.Endpoints[0]], l.ID)
		p.linesByWorldPoint[l.Endpoints[1]] = append(p.linesByWorldPoint[l.Endpoints[1]], l.ID)
	}
}

// PropagateInferences runs the deterministic half of the branching
// algorithm (§4.7 step 2): for every line whose direction has shared axes
// (axis- or plane-constrained), copy a known shared-axis coordinate from
// one endpoint to the other, to a fixpoint (at most 10 sweeps).
// This is the part of branching.Enumerate's propagation step that never
// needs to fork, so Project can run it directly without depending on
// package branching (which depends on project, to enumerate candidates
// for the orchestrator -- keeping Project itself fork-free avoids that
// import cycle). Returns false if a contradiction (two known values for
// the same axis differing by more than 0.001) was found; propagation stops
// at the first contradiction, leaving partial results in place.
func (p *Project) PropagateInferences() bool {
	const epsilon = 0.001
	for sweep := 0; sweep < 10; sweep++ {
		changed := false
		for _, l := range p.lines {
			axes := l.Direction.SharedAxes()
			if len(axes) == 0 {
				continue
			}
			a := p.worldPoints[l.Endpoints[0]]
			b := p.worldPoints[l.Endpoints[1]]
			for _, axis := range axes {
				av := effectiveAxis(a, axis)
				bv := effectiveAxis(b, axis)
				switch {
				case av != nil && bv != nil:
					if absDiff(*av, *bv) > epsilon {
						return false
					}
				case av != nil && bv == nil:
					b.SetInferredAxis(axis, *av)
					changed = true
				case bv != nil && av == nil:
					a.SetInferredAxis(axis, *bv)
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}
	return true
}

// ApplyInferredCoords overwrites the inferred (not locked) axis values of
// the project's world points with a branch's resolved coordinates. The
// candidate orchestrator does not call it; its own applyBranch performs the
// same SetInferredAxis writes.
func (p *Project) ApplyInferredCoords(coords map[WorldPointID][3]*float64) {
	for id, axes := range coords {
		wp := p.worldPoints[id]
		for a := Axis(0); a < 3; a++ {
			if axes[a] != nil {
				wp.SetInferredAxis(a, *axes[a])
			}
		}
	}
}

func effectiveAxis(wp *WorldPoint, a Axis) *float64 {
	eff := wp.EffectiveXyz()
	return eff[a]
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
