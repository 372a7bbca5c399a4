package nav

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbs4385/Orc-sub003/internal/geom"
)

func newTestGrid() *Grid {
	// 16x16 world units centered on the origin, half-unit cells.
	return NewGrid(-8, -8, 0.5, 32, 32)
}

func wallCorners(pos geom.Vec3, yaw, scale float64) [4]geom.Vec3 {
	return geom.Corners(geom.NewPose(pos, yaw, scale))
}

// ringStamps registers a closed square of four wall footprints around
// the origin, ids 1..4.
func ringStamps(g *Grid) {
	g.SetWallStamp(1, wallCorners(geom.Vec3{Z: -2}, 0, 2), true)
	g.SetWallStamp(2, wallCorners(geom.Vec3{Z: 2}, 0, 2), true)
	g.SetWallStamp(3, wallCorners(geom.Vec3{X: -2}, math.Pi/2, 2), true)
	g.SetWallStamp(4, wallCorners(geom.Vec3{X: 2}, math.Pi/2, 2), true)
}

func TestRebuild_UnknownClass(t *testing.T) {
	g := newTestGrid()
	assert.Error(t, g.Rebuild(AgentClass("burrowing")))
	assert.Zero(t, g.RebuildCount(AgentClass("burrowing")))
}

func TestRebuild_CountsPerClass(t *testing.T) {
	g := newTestGrid()
	require.NoError(t, g.Rebuild(ClassGround))
	require.NoError(t, g.Rebuild(ClassGround))
	require.NoError(t, g.Rebuild(ClassAerial))
	assert.Equal(t, 2, g.RebuildCount(ClassGround))
	assert.Equal(t, 1, g.RebuildCount(ClassAerial))
}

func TestWallStamp_BlocksAndToggles(t *testing.T) {
	g := newTestGrid()
	under := geom.Vec3{}
	g.SetWallStamp(7, wallCorners(under, 0, 1), true)

	require.NoError(t, g.Rebuild(ClassGround))
	assert.False(t, g.Walkable(ClassGround, under))

	g.SetWallStampActive(7, false)
	require.NoError(t, g.Rebuild(ClassGround))
	assert.True(t, g.Walkable(ClassGround, under))

	// Toggling an unregistered id is a no-op.
	g.SetWallStampActive(99, true)
	require.NoError(t, g.Rebuild(ClassGround))
	assert.True(t, g.Walkable(ClassGround, under))
}

func TestAerialSurface_IgnoresStamps(t *testing.T) {
	g := newTestGrid()
	ringStamps(g)
	g.SetTowerStamp(10, geom.Vec3{X: 4}, true)

	require.NoError(t, g.Rebuild(ClassAerial))
	assert.True(t, g.Walkable(ClassAerial, geom.Vec3{Z: -2}))
	assert.True(t, g.Walkable(ClassAerial, geom.Vec3{X: 4}))
	assert.True(t, g.Reachable(ClassAerial, geom.Vec3{}))
}

func TestReachability_OpensAtBreach(t *testing.T) {
	g := newTestGrid()
	ringStamps(g)
	require.NoError(t, g.Rebuild(ClassGround))

	inside := geom.Vec3{}
	outside := geom.Vec3{X: 6, Z: 6}
	assert.True(t, g.Walkable(ClassGround, inside))
	assert.False(t, g.Reachable(ClassGround, inside),
		"an intact ring seals the interior from the border")
	assert.True(t, g.Reachable(ClassGround, outside))

	// Collapse the north wall and the interior opens up.
	g.SetWallStampActive(2, false)
	require.NoError(t, g.Rebuild(ClassGround))
	assert.True(t, g.Reachable(ClassGround, inside))
}

func TestTowerStamp_BlocksDisc(t *testing.T) {
	g := newTestGrid()
	at := geom.Vec3{X: 3, Z: -1}
	g.SetTowerStamp(1, at, true)

	require.NoError(t, g.Rebuild(ClassGround))
	assert.False(t, g.Walkable(ClassGround, at))
	assert.True(t, g.Walkable(ClassGround, at.Add(geom.Vec3{X: 1.5})))

	g.SetTowerStampActive(1, false)
	require.NoError(t, g.Rebuild(ClassGround))
	assert.True(t, g.Walkable(ClassGround, at))
}

func TestNearestWalkable(t *testing.T) {
	g := newTestGrid()
	at := geom.Vec3{X: 1, Z: 1, Y: 0.2}
	g.SetTowerStamp(1, at, true)
	require.NoError(t, g.Rebuild(ClassGround))

	free := geom.Vec3{X: -4, Z: -4}
	assert.Equal(t, free, g.NearestWalkable(ClassGround, free),
		"already-walkable points come back untouched")

	snapped := g.NearestWalkable(ClassGround, at)
	assert.True(t, g.Walkable(ClassGround, snapped))
	assert.Less(t, snapped.DistXZ(at), 2.0)
	assert.Equal(t, at.Y, snapped.Y, "height carries through the snap")
}

func TestWalkable_OutOfBounds(t *testing.T) {
	g := newTestGrid()
	require.NoError(t, g.Rebuild(ClassGround))
	assert.False(t, g.Walkable(ClassGround, geom.Vec3{X: 50}))
	assert.False(t, g.Reachable(ClassGround, geom.Vec3{Z: -50}))
}

func TestClearStamps(t *testing.T) {
	g := newTestGrid()
	ringStamps(g)
	require.NoError(t, g.Rebuild(ClassGround))
	require.False(t, g.Reachable(ClassGround, geom.Vec3{}))

	g.ClearStamps()
	require.NoError(t, g.Rebuild(ClassGround))
	assert.True(t, g.Reachable(ClassGround, geom.Vec3{}))
}

func TestRetargetFunc_Adapter(t *testing.T) {
	var got []AgentClass
	var rt Retargeter = RetargetFunc(func(class AgentClass) {
		got = append(got, class)
	})
	rt.RetargetAll(ClassGround)
	rt.RetargetAll(ClassAerial)
	assert.Equal(t, []AgentClass{ClassGround, ClassAerial}, got)
}
