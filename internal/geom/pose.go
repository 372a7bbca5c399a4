package geom

import "math"

// Canonical wall segment dimensions. The segment model is a unit cube
// scaled to 2 x 2 x 0.5 world units (width x height x depth); the
// pose's Scale multiplies width only.
const (
	SegmentWidth  = 2.0
	SegmentHeight = 2.0
	SegmentDepth  = 0.5

	// MountHeight is the canonical height of a tower firing position
	// above the ground plane (top of the wall).
	MountHeight = SegmentHeight
)

// Pose describes a wall segment's placement: position on the ground
// plane, yaw about the vertical axis (radians), and horizontal scale.
// The simulation is 2.5D — no pitch or roll.
type Pose struct {
	Position Vec3
	Yaw      float64
	Scale    float64
}

// NewPose creates a Pose at the given position with yaw and scale.
func NewPose(position Vec3, yaw, scale float64) Pose {
	return Pose{Position: position, Yaw: yaw, Scale: scale}
}

// RightAxis returns the unit vector along the segment's width axis.
func (p Pose) RightAxis() Vec3 {
	return Vec3{X: math.Cos(p.Yaw), Z: -math.Sin(p.Yaw)}
}

// ForwardAxis returns the unit vector along the segment's depth axis.
func (p Pose) ForwardAxis() Vec3 {
	return Vec3{X: math.Sin(p.Yaw), Z: math.Cos(p.Yaw)}
}

// HalfWidth returns half the scaled horizontal span of the segment.
func (p Pose) HalfWidth() float64 {
	return SegmentWidth / 2 * p.Scale
}

// HalfDepth returns half the segment's depth (unaffected by scale).
func (p Pose) HalfDepth() float64 {
	return SegmentDepth / 2
}

// Corners returns the segment's four ground-plane corner points in the
// order front-left, back-left, front-right, back-right. Recompute after
// any pose or scale mutation — results are never cached.
func Corners(p Pose) [4]Vec3 {
	right := p.RightAxis().Scale(p.HalfWidth())
	forward := p.ForwardAxis().Scale(p.HalfDepth())
	return [4]Vec3{
		p.Position.Add(forward).Sub(right),
		p.Position.Sub(forward).Sub(right),
		p.Position.Add(forward).Add(right),
		p.Position.Sub(forward).Add(right),
	}
}

// EndCenter returns the midpoint of one end face of the segment.
// sign selects the end along the right axis: -1 for left, +1 for right.
// End-centers are the anchor points walls join at.
func EndCenter(p Pose, sign int) Vec3 {
	return p.Position.Add(p.RightAxis().Scale(p.HalfWidth() * float64(sign)))
}

// YawFromRight returns the yaw whose right axis points along dir.
// dir need not be normalized; a degenerate dir yields yaw 0.
func YawFromRight(dir Vec3) float64 {
	if dir.Length() < Epsilon {
		return 0
	}
	return math.Atan2(-dir.Z, dir.X)
}
