package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbs4385/Orc-sub003/internal/config"
	"github.com/cbs4385/Orc-sub003/internal/defender"
	"github.com/cbs4385/Orc-sub003/internal/geom"
	"github.com/cbs4385/Orc-sub003/internal/nav"
	"github.com/cbs4385/Orc-sub003/internal/scenario"
)

func testConfig() config.Sim {
	cfg := config.Default()
	cfg.Defender.SeekIntervalTicks = 1
	cfg.Defender.ReassessIntervalTicks = 5
	cfg.Defender.StuckTimeoutTicks = 10
	cfg.Defender.ArriveThreshold = 0.3
	cfg.Defender.InteriorOffset = 0.5
	cfg.Defender.WalkSpeed = 1.0
	cfg.Nav.OriginX = -8
	cfg.Nav.OriginZ = -8
	cfg.Nav.Cols = 32
	cfg.Nav.Rows = 32
	return cfg
}

// ringScenario is a closed square courtyard: four walls of width 4
// joined at (+-2, +-2), sealing the origin from the map border.
func ringScenario() scenario.Scenario {
	return scenario.Scenario{
		Name: "courtyard",
		Walls: []scenario.Wall{
			{Z: 2, Scale: 2},                // id 0, north
			{Z: -2, Scale: 2},               // id 1, south
			{X: -2, YawDeg: 90, Scale: 2},   // id 2, west
			{X: 2, YawDeg: 90, Scale: 2},    // id 3, east
		},
	}
}

func TestEngine_ScenarioDerivesLatticeAndSlots(t *testing.T) {
	e := New(testConfig())
	e.LoadScenario(ringScenario())

	require.Len(t, e.Walls().Segments(), 4)
	require.Len(t, e.Towers().Slots(), 4,
		"shared corners merge into one slot each")

	e.Step()

	assert.Equal(t, 1, e.Grid().RebuildCount(nav.ClassGround),
		"all four placements collapse into one rebuild")
	assert.False(t, e.Grid().Reachable(nav.ClassGround, geom.Vec3{}),
		"intact courtyard seals the interior")
	assert.True(t, e.Grid().Reachable(nav.ClassGround, geom.Vec3{X: 6, Z: 6}))
}

func TestEngine_QueuedMutationsDebounceToOneRebuild(t *testing.T) {
	e := New(testConfig())
	e.LoadScenario(ringScenario())
	e.Step()
	base := e.Grid().RebuildCount(nav.ClassGround)
	baseRT := e.RetargetCount(nav.ClassGround)

	e.QueueDamage(0, 100)
	e.QueueDamage(1, 100)
	e.Step()

	assert.Equal(t, base+1, e.Grid().RebuildCount(nav.ClassGround),
		"two collapses in one tick still rebuild once")
	assert.Equal(t, baseRT+1, e.RetargetCount(nav.ClassGround),
		"retarget fires with the rebuild")
	assert.True(t, e.Walls().HasBreach())
	assert.Len(t, e.Walls().BreachedSegments(), 2)
}

func TestEngine_BreachOpensInterior(t *testing.T) {
	e := New(testConfig())
	e.LoadScenario(ringScenario())
	e.Step()
	require.False(t, e.Grid().Reachable(nav.ClassGround, geom.Vec3{}))

	e.QueueDamage(0, 100)
	e.Step()
	assert.True(t, e.Grid().Reachable(nav.ClassGround, geom.Vec3{}),
		"a destroyed wall opens a path from the border")

	e.QueueRepair(0, 100)
	e.Step()
	assert.False(t, e.Grid().Reachable(nav.ClassGround, geom.Vec3{}),
		"rebuilding the wall seals the courtyard again")
	assert.False(t, e.Walls().HasBreach())
}

func TestEngine_ForcedDismountReachesController(t *testing.T) {
	cfg := testConfig()
	cfg.Defender.SeekIntervalTicks = 5
	e := New(cfg)

	sc := ringScenario()
	sc.Defenders = []scenario.Agent{{ID: 1, X: 1.5, Z: 1.5}}
	e.LoadScenario(sc)

	ctl, ok := e.Defenders().Get(1)
	require.True(t, ok)
	for i := 0; i < 20 && ctl.Defender().Mode() != defender.ModeOnTower; i++ {
		e.Step()
	}
	require.Equal(t, defender.ModeOnTower, ctl.Defender().Mode())
	mounted := ctl.Defender().Slot()
	require.NotNil(t, mounted)

	// Collapse both walls the occupied corner stands on.
	var contributing []int
	for _, s := range e.Walls().Segments() {
		if mounted.Contributes(s.ID()) {
			contributing = append(contributing, s.ID())
		}
	}
	require.Len(t, contributing, 2)
	for _, id := range contributing {
		e.QueueDamage(id, 100)
	}
	e.Step()

	assert.Equal(t, defender.ModeGrounded, ctl.Defender().Mode())
	assert.Nil(t, ctl.Defender().Slot())
	assert.True(t, ctl.Defender().MoveEnabled())
	assert.Zero(t, ctl.Defender().Position().Y, "descend puts the agent on the ground")
	assert.False(t, mounted.Occupied())
}

func TestEngine_ScriptedSpawnsEventsAndGuard(t *testing.T) {
	e := New(testConfig())
	sc := ringScenario()
	sc.Defenders = []scenario.Agent{{ID: 1, X: 1, Z: 1}}
	sc.Hostiles = []scenario.Hostile{
		{ID: 10, X: 20, Z: 0, Tick: 2},
		{ID: 11, X: 22, Z: 2, Tick: 2},
	}
	sc.Events = []scenario.Event{
		{Tick: 3, Action: scenario.ActionGuard, Agent: 1},
		{Tick: 4, Action: scenario.ActionKill, Agent: 10},
		{Tick: 5, Action: scenario.ActionUnguard, Agent: 1},
	}
	e.LoadScenario(sc)

	ctl, _ := e.Defenders().Get(1)

	e.Step() // tick 0
	e.Step() // tick 1
	assert.Zero(t, e.Hostiles().Count())

	e.Step() // tick 2: wave arrives
	assert.Equal(t, 2, e.Hostiles().Count())

	e.Step() // tick 3: guard duty preempts tower seeking
	assert.Equal(t, defender.ModeGuarding, ctl.Defender().Mode())
	assert.Nil(t, ctl.Defender().Slot())

	e.Step() // tick 4
	assert.Equal(t, 1, e.Hostiles().Count())

	e.Step() // tick 5: released from guard, seeks next tick
	e.Step()
	assert.NotEqual(t, defender.ModeGuarding, ctl.Defender().Mode())
	assert.NotEqual(t, defender.ModeGrounded, ctl.Defender().Mode())
}

type testTreasury struct {
	gold     int
	refunded int
}

func (tr *testTreasury) Charge(amount int) error {
	if amount > tr.gold {
		return errors.New("not enough gold")
	}
	tr.gold -= amount
	return nil
}

func (tr *testTreasury) Refund(amount int) {
	tr.gold += amount
	tr.refunded += amount
}

func TestEngine_PlacementSessionExtendsLattice(t *testing.T) {
	e := New(testConfig())
	e.LoadScenario(ringScenario())
	e.Step()
	slotsBefore := len(e.Towers().Slots())

	tr := &testTreasury{gold: 100}
	sess := e.NewPlacementSession(tr, 1)
	require.True(t, sess.Begin())
	assert.Equal(t, 75, tr.gold)

	// Aim just past the north-east corner: the new segment snaps its
	// end onto the (2, 2) joint.
	sess.UpdatePointer(geom.Vec3{X: 3.2, Z: 2}, 0)
	require.True(t, sess.Preview().DidSnap)

	seg := sess.Confirm()
	require.NotNil(t, seg)
	assert.InDelta(t, 0.0, seg.EndCenter(-1).Dist(geom.Vec3{X: 2, Z: 2}), 1e-6)

	assert.Len(t, e.Towers().Slots(), slotsBefore+1,
		"one end merges into the corner joint, the other opens a new slot")

	// Construction completes at full HP and the footprint activates.
	e.Step()
	e.QueueRepair(seg.ID(), seg.MaxHP())
	e.Step()
	assert.True(t, e.Grid().Walkable(nav.ClassGround, geom.Vec3{X: 6, Z: 6}))
	assert.False(t, e.Grid().Walkable(nav.ClassGround, geom.Vec3{X: 3, Z: 2}),
		"the finished wall blocks the cells under it")
}

func TestEngine_LoadScenarioResetsWorld(t *testing.T) {
	e := New(testConfig())
	sc := ringScenario()
	sc.Defenders = []scenario.Agent{{ID: 1, X: 1, Z: 1}}
	e.LoadScenario(sc)
	e.Step()
	e.Step()

	e.LoadScenario(scenario.Scenario{Name: "empty"})
	assert.Empty(t, e.Walls().Segments())
	assert.Empty(t, e.Towers().Slots())
	assert.Empty(t, e.Defenders().Controllers())
	assert.Zero(t, e.Tick())

	e.Step()
	assert.True(t, e.Grid().Reachable(nav.ClassGround, geom.Vec3{}),
		"no walls, everything reachable")
}
