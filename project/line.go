package project

// Direction is the axis-alignment or plane constraint a Line's endpoints
// must satisfy.
type Direction int

const (
	DirectionFree Direction = iota
	DirectionX
	DirectionY
	DirectionZ
	DirectionXY
	DirectionXZ
	DirectionYZ
)

// AlongAxes returns the axis (or, for a plane direction, the two axes) the
// line's direction vector is allowed to vary along -- x for DirectionX,
// {x,y} for DirectionXY, and so on.
func (d Direction) AlongAxes() []Axis {
	switch d {
	case DirectionX:
		return []Axis{AxisX}
	case DirectionY:
		return []Axis{AxisY}
	case DirectionZ:
		return []Axis{AxisZ}
	case DirectionXY:
		return []Axis{AxisX, AxisY}
	case DirectionXZ:
		return []Axis{AxisX, AxisZ}
	case DirectionYZ:
		return []Axis{AxisY, AxisZ}
	default:
		return nil
	}
}

// SharedAxes returns the complement of AlongAxes: the axes a line's two
// endpoints must agree on. A line with DirectionX runs along x, so its
// endpoints share the same y and z; a line with DirectionXY lies in the xy
// plane, so its endpoints share the same z. This is the set branching's
// deterministic propagation (§4.7 step 2) copies between endpoints, and the
// set valuemap's direction residual penalizes when they disagree.
func (d Direction) SharedAxes() []Axis {
	along := d.AlongAxes()
	if along == nil {
		return nil
	}
	inAlong := map[Axis]bool{}
	for _, a := range along {
		inAlong[a] = true
	}
	var shared []Axis
	for a := Axis(0); a < 3; a++ {
		if !inAlong[a] {
			shared = append(shared, a)
		}
	}
	return shared
}

// Line connects two world points with an optional direction constraint and
// target length.
type Line struct {
	ID   LineID
	Name string

	Endpoints [2]WorldPointID
	Direction Direction

	targetLength   *float64
	IsConstruction bool
}

// NewLine constructs a free (unconstrained) line between a and b.
func NewLine(id LineID, a, b WorldPointID) *Line {
	return &Line{ID: id, Endpoints: [2]WorldPointID{a, b}}
}

// SetTargetLength pins the line's length residual to length.
func (l *Line) SetTargetLength(length float64) {
	v := length
	l.targetLength = &v
}

// TargetLength reports the pinned length, if any.
func (l *Line) TargetLength() (float64, bool) {
	if l.targetLength == nil {
		return 0, false
	}
	return *l.targetLength, true
}

// IsAxisAligned reports whether direction is one of {x, y, z}.
func (l *Line) IsAxisAligned() bool {
	return l.Direction == DirectionX || l.Direction == DirectionY || l.Direction == DirectionZ
}

// HasFixedLength reports whether a target length has been set.
func (l *Line) HasFixedLength() bool {
	return l.targetLength != nil
}
