// Package project implements the data model of the photogrammetry scene:
// world points, camera viewpoints, image observations, lines, vanishing
// lines, and constraints, stored in a Project arena and addressed by typed
// indices rather than pointers. Cross-entity references (an image point's
// world point, a line's endpoints) are newtype indices resolved through the
// owning Project, so the graph never contains a pointer cycle -- the same
// shape go.viam.com/rdk's referenceframe package uses for frame trees
// addressed by name instead of pointer.
package project

// WorldPointID indexes into Project.worldPoints.
type WorldPointID int

// ViewpointID indexes into Project.viewpoints.
type ViewpointID int

// ImagePointID indexes into Project.imagePoints.
type ImagePointID int

// LineID indexes into Project.lines.
type LineID int

// VanishingLineID indexes into Project.vanishingLines.
type VanishingLineID int

// ConstraintID indexes into Project.constraints.
type ConstraintID int

// invalidID marks an unset typed index.
const invalidID = -1
