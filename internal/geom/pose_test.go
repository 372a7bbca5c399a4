package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndCenters_ZeroYaw(t *testing.T) {
	p := NewPose(NewVec3(10, 0, 5), 0, 1)

	left := EndCenter(p, -1)
	right := EndCenter(p, +1)

	assert.InDelta(t, 9, left.X, 1e-9)
	assert.InDelta(t, 5, left.Z, 1e-9)
	assert.InDelta(t, 11, right.X, 1e-9)
	assert.InDelta(t, 5, right.Z, 1e-9)
}

func TestEndCenters_ScaleAffectsWidthOnly(t *testing.T) {
	p := NewPose(NewVec3(0, 0, 0), 0, 3)

	left := EndCenter(p, -1)
	right := EndCenter(p, +1)

	assert.InDelta(t, 6, right.Sub(left).Length(), 1e-9, "span should be width*scale")
	assert.InDelta(t, SegmentDepth/2, p.HalfDepth(), 1e-9, "depth ignores scale")
}

func TestCorners_SpanAndOrder(t *testing.T) {
	p := NewPose(NewVec3(0, 0, 0), 0, 1)
	c := Corners(p)

	// [front-left, back-left, front-right, back-right]
	assert.InDelta(t, -1, c[0].X, 1e-9)
	assert.InDelta(t, 0.25, c[0].Z, 1e-9)
	assert.InDelta(t, -1, c[1].X, 1e-9)
	assert.InDelta(t, -0.25, c[1].Z, 1e-9)
	assert.InDelta(t, 1, c[2].X, 1e-9)
	assert.InDelta(t, 0.25, c[2].Z, 1e-9)
	assert.InDelta(t, 1, c[3].X, 1e-9)
	assert.InDelta(t, -0.25, c[3].Z, 1e-9)
}

func TestCorners_Rotated(t *testing.T) {
	// Quarter turn: width axis rotates from +X onto -Z.
	p := NewPose(NewVec3(0, 0, 0), math.Pi/2, 1)
	right := EndCenter(p, +1)

	assert.InDelta(t, 0, right.X, 1e-9)
	assert.InDelta(t, -1, right.Z, 1e-9)
}

func TestYawFromRight_RoundTrip(t *testing.T) {
	for _, yaw := range []float64{0, 0.3, -1.2, math.Pi / 2, 3.0} {
		p := NewPose(Vec3{}, yaw, 1)
		got := YawFromRight(p.RightAxis())

		require.InDelta(t, math.Mod(yaw+math.Pi, 2*math.Pi)-math.Pi, math.Mod(got+math.Pi, 2*math.Pi)-math.Pi, 1e-9,
			"yaw %v should survive right-axis round trip", yaw)
	}
}

func TestYawFromRight_Degenerate(t *testing.T) {
	assert.Zero(t, YawFromRight(Vec3{}))
}

func TestDistXZ_IgnoresHeight(t *testing.T) {
	a := NewVec3(0, 0, 0)
	b := NewVec3(3, 100, 4)

	assert.InDelta(t, 5, a.DistXZ(b), 1e-9)
}
