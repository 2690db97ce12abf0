package project

// ImagePoint is a 2D observation of a WorldPoint in a Viewpoint's image.
type ImagePoint struct {
	ID ImagePointID

	U, V float64

	WorldPoint WorldPointID
	Viewpoint  ViewpointID

	ReprojectedU, ReprojectedV float64
	IsOutlier                  bool
	LastResiduals              [2]float64
}

// NewImagePoint constructs an observation at (u, v) in viewpoint vp of
// world point wp.
func NewImagePoint(id ImagePointID, wp WorldPointID, vp ViewpointID, u, v float64) *ImagePoint {
	return &ImagePoint{ID: id, WorldPoint: wp, Viewpoint: vp, U: u, V: v}
}
