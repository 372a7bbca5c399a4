package wall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbs4385/Orc-sub003/internal/geom"
)

func newTestSegment(id int) *Segment {
	pose := geom.NewPose(geom.NewVec3(0, 0, 0), 0, 1)
	return NewSegment(id, pose, 100)
}

func TestSegment_DamageToDestroyed(t *testing.T) {
	s := newTestSegment(1)

	var events []Event
	s.onLifecycle = func(_ *Segment, e Event) { events = append(events, e) }

	s.TakeDamage(40)
	assert.Equal(t, 60, s.CurrentHP())
	assert.Equal(t, StateIntact, s.State())
	assert.True(t, s.ObstacleActive())
	assert.Empty(t, events)

	s.TakeDamage(75)
	assert.Equal(t, 0, s.CurrentHP())
	assert.Equal(t, StateDestroyed, s.State())
	assert.False(t, s.ObstacleActive())
	require.Equal(t, []Event{EventDestroyed}, events)

	// Destroyed segments ignore further damage.
	s.TakeDamage(10)
	assert.Equal(t, 0, s.CurrentHP())
	require.Len(t, events, 1)
}

func TestSegment_UnderConstructionImmuneToDamage(t *testing.T) {
	s := newTestSegment(2)
	s.SetUnderConstruction()

	assert.Equal(t, 0, s.CurrentHP())
	assert.False(t, s.ObstacleActive())

	s.TakeDamage(50)
	assert.Equal(t, StateUnderConstruction, s.State())
	assert.Equal(t, 0, s.CurrentHP())
}

func TestSegment_RepairLifecycle(t *testing.T) {
	s := newTestSegment(3)

	var events []Event
	s.onLifecycle = func(_ *Segment, e Event) { events = append(events, e) }

	s.SetUnderConstruction()
	s.Repair(30)
	assert.Equal(t, StateIntact, s.State())
	assert.True(t, s.ObstacleActive())
	require.Equal(t, []Event{EventConstructionComplete}, events)

	s.TakeDamage(100)
	require.Equal(t, StateDestroyed, s.State())

	s.Repair(10)
	assert.Equal(t, StateIntact, s.State())
	assert.Equal(t, 10, s.CurrentHP())
	assert.Equal(t, []Event{EventConstructionComplete, EventDestroyed, EventRebuilt}, events)
}

func TestSegment_RepairMonotonicSaturating(t *testing.T) {
	s := newTestSegment(4)
	s.TakeDamage(90)

	prev := s.CurrentHP()
	for i := 0; i < 50; i++ {
		s.Repair(7)
		require.GreaterOrEqual(t, s.CurrentHP(), prev, "repair must never decrease HP")
		prev = s.CurrentHP()
	}
	assert.Equal(t, s.MaxHP(), s.CurrentHP())

	// Non-positive amounts are no-ops.
	s.Repair(0)
	s.Repair(-5)
	assert.Equal(t, s.MaxHP(), s.CurrentHP())
}

func TestSegment_RenderTint(t *testing.T) {
	s := newTestSegment(5)
	assert.Equal(t, tintBase, s.RenderTint(), "full HP renders base tint")

	s.TakeDamage(100)
	assert.Equal(t, tintDamaged, s.RenderTint(), "zero HP renders full damaged tint")

	s.Repair(50)
	mid := s.RenderTint()
	assert.Greater(t, mid.R, tintDamaged.R)
	assert.Less(t, mid.R, tintBase.R)

	s.SetUnderConstruction()
	assert.Equal(t, tintConstruction, s.RenderTint(), "in-progress tint overrides HP ratio")
}

func TestSegment_DerivedGeometryFollowsPose(t *testing.T) {
	s := newTestSegment(6)
	before := s.EndCenter(+1)

	p := s.Pose()
	p.Position = geom.NewVec3(5, 0, 5)
	s.SetPose(p)

	after := s.EndCenter(+1)
	assert.Greater(t, after.Dist(before), 1.0, "end centers recompute after pose mutation")
}
