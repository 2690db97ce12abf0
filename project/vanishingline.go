package project

// VanishingLine is an image-space line segment annotated with the scene
// axis it is parallel to, owned by a Viewpoint and used by package
// vanishing to estimate that axis's vanishing point.
type VanishingLine struct {
	ID        VanishingLineID
	Viewpoint ViewpointID
	Axis      Axis

	X1, Y1 float64
	X2, Y2 float64
}

// NewVanishingLine constructs a vanishing line annotated for axis a,
// running from (x1,y1) to (x2,y2) in image space.
func NewVanishingLine(id VanishingLineID, vp ViewpointID, a Axis, x1, y1, x2, y2 float64) *VanishingLine {
	return &VanishingLine{ID: id, Viewpoint: vp, Axis: a, X1: x1, Y1: y1, X2: x2, Y2: y2}
}
