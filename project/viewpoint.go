package project

import "go.viam.com/rotera/spatialmath"

// Intrinsics holds a pinhole camera's focal length, principal point, skew,
// and the Brown-Conrady radial/tangential distortion coefficients used by
// package projection.
type Intrinsics struct {
	FocalLength   float64
	AspectRatio   float64
	PrincipalX    float64
	PrincipalY    float64
	Skew          float64
	RadialK1      float64
	RadialK2      float64
	RadialK3      float64
	TangentialP1  float64
	TangentialP2  float64
}

// FocalLengthY returns fy = focalLength * aspectRatio.
func (in Intrinsics) FocalLengthY() float64 { return in.FocalLength * in.AspectRatio }

// InitStatus is a Viewpoint's position in the initialization state machine:
// Uninitialized -> {VPInitialized, PnPInitialized, EMInitialized} ->
// Refined. Transitions are terminal within one solve run.
type InitStatus int

// Viewpoint initialization states.
const (
	Uninitialized InitStatus = iota
	VPInitialized
	PnPInitialized
	EMInitialized
	Refined
)

func (s InitStatus) String() string {
	switch s {
	case VPInitialized:
		return "VPInitialized"
	case PnPInitialized:
		return "PnPInitialized"
	case EMInitialized:
		return "EMInitialized"
	case Refined:
		return "Refined"
	default:
		return "Uninitialized"
	}
}

// DefaultIntrinsics returns an undistorted camera with unit aspect ratio
// centered at (cx, cy).
func DefaultIntrinsics(focalLength, cx, cy float64) Intrinsics {
	return Intrinsics{FocalLength: focalLength, AspectRatio: 1, PrincipalX: cx, PrincipalY: cy}
}

// Viewpoint is a camera: a pose plus intrinsics, and the owned sets of
// image-point observations and vanishing lines.
type Viewpoint struct {
	ID   ViewpointID
	Name string

	Position   [3]float64
	Quaternion spatialmath.Quaternion

	Intrinsics Intrinsics

	// ImageWidth/Height are used to derive the forced principal point when
	// IsPossiblyCropped is false, and as the scale for virtual vanishing
	// lines built from direction-constrained lines (§4.6).
	ImageWidth  float64
	ImageHeight float64

	UseSimpleIntrinsics bool
	IsPossiblyCropped   bool
	IsPoseLocked        bool
	EnabledInSolve      bool
	IsZReflected        bool

	InitStatus InitStatus

	imagePoints    []ImagePointID
	vanishingLines []VanishingLineID
}

// NewViewpoint constructs a viewpoint at the origin with identity
// orientation, enabled in solves by default.
func NewViewpoint(id ViewpointID, name string) *Viewpoint {
	return &Viewpoint{
		ID:             id,
		Name:           name,
		Quaternion:     spatialmath.Quaternion{Real: 1},
		Intrinsics:     DefaultIntrinsics(1000, 0, 0),
		EnabledInSolve: true,
	}
}

// EffectivePrincipalPoint returns (cx, cy), forcing it to image center when
// IsPossiblyCropped is false.
func (v *Viewpoint) EffectivePrincipalPoint() (float64, float64) {
	if !v.IsPossiblyCropped {
		return v.ImageWidth / 2, v.ImageHeight / 2
	}
	return v.Intrinsics.PrincipalX, v.Intrinsics.PrincipalY
}

// ImagePoints returns the IDs of image points owned by this viewpoint.
func (v *Viewpoint) ImagePoints() []ImagePointID { return v.imagePoints }

// VanishingLines returns the IDs of vanishing lines owned by this viewpoint.
func (v *Viewpoint) VanishingLines() []VanishingLineID { return v.vanishingLines }
