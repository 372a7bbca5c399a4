package sim

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/cbs4385/Orc-sub003/internal/config"
	"github.com/cbs4385/Orc-sub003/internal/defender"
	"github.com/cbs4385/Orc-sub003/internal/geom"
	"github.com/cbs4385/Orc-sub003/internal/hostile"
	"github.com/cbs4385/Orc-sub003/internal/nav"
	"github.com/cbs4385/Orc-sub003/internal/placement"
	"github.com/cbs4385/Orc-sub003/internal/scenario"
	"github.com/cbs4385/Orc-sub003/internal/tower"
	"github.com/cbs4385/Orc-sub003/internal/wall"
)

// engageRange is how close a hostile must be before a mounted defender
// locks on and stops reassessing its slot.
const engageRange = 8.0

// Engine owns the fixed-tick simulation loop and the wiring between the
// wall registry, tower allocator, defender manager, hostile registry,
// and the navigable-area grid. Each tick runs in a fixed order: queued
// mutations first, then the single debounced navigable-area rebuild,
// then agent control. Retargeting fires inside the rebuild, so agents
// never path against stale data.
//
// Not safe for concurrent use: drive it from one goroutine via Step or
// Run.
type Engine struct {
	cfg      config.Sim
	fortress geom.Vec3

	grid      *nav.Grid
	walls     *wall.Registry
	towers    *tower.Allocator
	defenders *defender.Manager
	hostiles  *hostile.Registry
	solver    *placement.Solver

	sc          scenario.Scenario
	hasScenario bool

	tick     int
	commands []func(*Engine)

	retargets map[nav.AgentClass]int
}

// New creates a fully wired engine. The fortress point (interior the
// lattice protects) sits at the world origin.
func New(cfg config.Sim) *Engine {
	e := &Engine{
		cfg:       cfg,
		retargets: make(map[nav.AgentClass]int),
	}

	e.grid = nav.NewGrid(cfg.Nav.OriginX, cfg.Nav.OriginZ, cfg.Nav.CellSize, cfg.Nav.Cols, cfg.Nav.Rows)
	e.hostiles = hostile.NewRegistry()

	e.walls = wall.NewRegistry(cfg.Wall.MaxHP, cfg.Wall.BreachClearRadius, e.grid)
	e.walls.SetObstacleSink(e.grid)

	e.towers = tower.NewAllocator(cfg.Tower.DedupRadius, cfg.Tower.MinSpacing, cfg.Tower.RequesterPenalty)
	e.towers.SetHostileSource(e.hostiles)
	e.towers.SetObstacleMarks(e.grid)

	e.walls.SetSlotObstacles(e.towers)
	e.walls.AddPlacedHook(e.towers.RegisterOne)
	e.walls.AddLifecycleHook(e.towers.OnSegmentLifecycle)

	e.defenders = defender.NewManager()
	e.towers.SetForcedDismountHook(e.defenders.ForceDescend)
	e.towers.SetRelinkHook(e.defenders.Relink)

	e.walls.SetRetargeter(nav.RetargetFunc(func(class nav.AgentClass) {
		e.retargets[class]++
		slog.Debug("retarget broadcast", "class", class, "tick", e.tick)
	}))

	e.solver = placement.NewSolver(cfg.Snap)
	return e
}

// Accessors for collaborators and tooling.

func (e *Engine) Walls() *wall.Registry        { return e.walls }
func (e *Engine) Towers() *tower.Allocator     { return e.towers }
func (e *Engine) Defenders() *defender.Manager { return e.defenders }
func (e *Engine) Hostiles() *hostile.Registry  { return e.hostiles }
func (e *Engine) Grid() *nav.Grid              { return e.grid }
func (e *Engine) Tick() int                    { return e.tick }

// RetargetCount returns how many retarget broadcasts have fired for a
// class since the engine was created.
func (e *Engine) RetargetCount(class nav.AgentClass) int {
	return e.retargets[class]
}

// NewPlacementSession creates a player wall-building session against
// this engine's lattice, charging the configured segment cost.
func (e *Engine) NewPlacementSession(treasury placement.Treasury, scale float64) *placement.Session {
	tmpl := &placement.Template{Scale: scale, Cost: e.cfg.Wall.Cost}
	return placement.NewSession(e.solver, e.walls, treasury, tmpl)
}

// AddDefender spawns a defender at pos and registers its controller.
func (e *Engine) AddDefender(id int, pos geom.Vec3) *defender.PlacementAI {
	d := defender.NewDefender(id, pos)
	ai := defender.NewPlacementAI(d, e.towers, e.cfg.Defender, e.fortress)
	ai.SetGroundSnapFunc(func(p geom.Vec3) geom.Vec3 {
		return e.grid.NearestWalkable(nav.ClassGround, p)
	})
	ai.SetTargetFunc(func(agentID int) (geom.Vec3, bool) {
		ctl, ok := e.defenders.Get(agentID)
		if !ok {
			return geom.Vec3{}, false
		}
		hp, ok := e.hostiles.NearestTo(ctl.Defender().Position())
		if !ok || ctl.Defender().Position().DistXZ(hp) > engageRange {
			return geom.Vec3{}, false
		}
		return hp, true
	})
	e.defenders.Register(ai)
	return ai
}

// QueueDamage schedules wall damage for the start of the next Step.
// The combat entry point: mutations queue, they never run mid-tick.
func (e *Engine) QueueDamage(segmentID, amount int) {
	e.commands = append(e.commands, func(e *Engine) {
		e.walls.TakeDamage(segmentID, amount)
	})
}

// QueueRepair schedules wall repair for the start of the next Step.
func (e *Engine) QueueRepair(segmentID, amount int) {
	e.commands = append(e.commands, func(e *Engine) {
		e.walls.Repair(segmentID, amount)
	})
}

// LoadScenario resets the engine's world and applies a scenario: walls
// and defenders immediately, hostiles and events on their scheduled
// ticks as Step reaches them.
func (e *Engine) LoadScenario(sc scenario.Scenario) {
	e.grid.ClearStamps()
	e.walls.Clear()
	e.towers.Clear()
	for _, ctl := range append([]*defender.PlacementAI(nil), e.defenders.Controllers()...) {
		e.defenders.Unregister(ctl.Defender().ID())
	}
	e.tick = 0
	e.commands = nil

	for _, w := range sc.Walls {
		scale := w.Scale
		if scale == 0 {
			scale = 1
		}
		pose := geom.NewPose(geom.Vec3{X: w.X, Z: w.Z}, w.YawDeg*math.Pi/180, scale)
		if w.UnderConstruction {
			e.walls.Place(pose)
		} else {
			e.walls.PlaceIntact(pose)
		}
	}
	for _, a := range sc.Defenders {
		e.AddDefender(a.ID, geom.Vec3{X: a.X, Z: a.Z})
	}

	e.sc = sc
	e.hasScenario = true

	slog.Info("scenario loaded",
		"name", sc.Name,
		"walls", len(sc.Walls),
		"defenders", len(sc.Defenders),
		"hostiles", len(sc.Hostiles),
		"events", len(sc.Events))
}

// Step advances the simulation one tick: scripted spawns and events,
// queued mutations, at most one navigable-area rebuild, then agents.
func (e *Engine) Step() {
	if e.hasScenario {
		e.applyScheduled(e.tick)
	}

	cmds := e.commands
	e.commands = nil
	for _, c := range cmds {
		c(e)
	}

	e.walls.Tick()
	e.defenders.TickAll()
	e.tick++
}

func (e *Engine) applyScheduled(tick int) {
	for _, h := range e.sc.HostilesAt(tick) {
		e.hostiles.Spawn(h.ID, geom.Vec3{X: h.X, Z: h.Z})
	}
	for _, ev := range e.sc.EventsAt(tick) {
		switch ev.Action {
		case scenario.ActionDamage:
			e.walls.TakeDamage(ev.Segment, ev.Amount)
		case scenario.ActionRepair:
			e.walls.Repair(ev.Segment, ev.Amount)
		case scenario.ActionGuard:
			e.defenders.SetGuarding(ev.Agent, true)
		case scenario.ActionUnguard:
			e.defenders.SetGuarding(ev.Agent, false)
		case scenario.ActionKill:
			e.hostiles.Kill(ev.Agent)
		}
	}
}

// Run drives Step on the configured tick interval until ctx is
// cancelled.
func (e *Engine) Run(ctx context.Context) error {
	interval := time.Duration(e.cfg.TickMS) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("simulation loop started", "tick_interval", interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation loop stopped", "ticks", e.tick)
			return ctx.Err()
		case <-ticker.C:
			e.Step()
		}
	}
}
