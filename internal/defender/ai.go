package defender

import (
	"log/slog"
	"math"

	"github.com/cbs4385/Orc-sub003/internal/config"
	"github.com/cbs4385/Orc-sub003/internal/geom"
	"github.com/cbs4385/Orc-sub003/internal/tower"
)

// Slots is the allocator surface the placement state machine drives.
type Slots interface {
	GetBestSlot(requester geom.Vec3) *tower.Slot
	GetBestSlotNeutral() *tower.Slot
	SlotThreatDistance(s *tower.Slot) (float64, bool)
	Claim(s *tower.Slot, agentID int)
	Release(s *tower.Slot)
}

// GroundSnapFunc returns the nearest valid ground point to p.
// Injected by the simulation wiring (backed by the navigable grid).
type GroundSnapFunc func(p geom.Vec3) geom.Vec3

// TargetFunc returns the agent's current combat target position, or
// false if no target is in range. Injected by the combat system.
type TargetFunc func(agentID int) (geom.Vec3, bool)

// progressEpsilon is the minimum per-tick movement that counts as
// path progress for the stuck timeout.
const progressEpsilon = 1e-4

// PlacementAI runs one defender's tower placement state machine:
// seek, walk, mount, reassess, forced descent, and guard preemption.
//
// Not safe for concurrent use: ticked by the Manager in stable agent
// order, which serializes claim attempts between contending agents.
type PlacementAI struct {
	d     *Defender
	slots Slots
	cfg   config.DefenderConfig

	// fortress is the interior point approach offsets pull toward, so
	// agents walk to towers from inside the lattice.
	fortress geom.Vec3

	groundSnap GroundSnapFunc
	targetFunc TargetFunc

	running bool

	walkTarget    geom.Vec3
	seekTimer     int
	reassessTimer int
	stuckTicks    int
	lastPos       geom.Vec3
}

// NewPlacementAI creates a placement controller for one defender.
func NewPlacementAI(d *Defender, slots Slots, cfg config.DefenderConfig, fortress geom.Vec3) *PlacementAI {
	return &PlacementAI{
		d:        d,
		slots:    slots,
		cfg:      cfg,
		fortress: fortress,
	}
}

// SetGroundSnapFunc sets the nearest-valid-ground callback.
func (ai *PlacementAI) SetGroundSnapFunc(fn GroundSnapFunc) { ai.groundSnap = fn }

// SetTargetFunc sets the combat target lookup callback.
func (ai *PlacementAI) SetTargetFunc(fn TargetFunc) { ai.targetFunc = fn }

// Defender returns the controlled agent.
func (ai *PlacementAI) Defender() *Defender { return ai.d }

// Start starts the controller.
func (ai *PlacementAI) Start() {
	ai.running = true
	if IsDebugEnabled() {
		slog.Debug("placement AI started", "agent", ai.d.id, "mode", ai.d.mode)
	}
}

// Stop stops the controller and releases any held slot.
func (ai *PlacementAI) Stop() {
	ai.running = false
	ai.releaseOwnSlot()
	ai.setMode(ModeGrounded)
}

// Tick advances the state machine by one simulation tick.
func (ai *PlacementAI) Tick() {
	if !ai.running {
		return
	}

	switch ai.d.mode {
	case ModeGuarding:
		// Held externally; nothing to do until guard release.
	case ModeGrounded:
		ai.seekTimer++
		if ai.seekTimer >= ai.cfg.SeekIntervalTicks {
			ai.seekTimer = 0
			ai.seek()
		}
	case ModeWalkingToTower:
		ai.walk()
	case ModeOnTower:
		ai.onTower()
	}
}

// seek requests the best available slot and starts walking to it.
func (ai *PlacementAI) seek() {
	ai.setMode(ModeSeekingTower)

	slot := ai.slots.GetBestSlot(ai.d.pos)
	if slot == nil {
		ai.setMode(ModeGrounded)
		return
	}

	ai.slots.Claim(slot, ai.d.id)
	ai.d.slot = slot
	ai.walkTarget = ai.approachPoint(slot)
	ai.stuckTicks = 0
	ai.lastPos = ai.d.pos
	ai.setMode(ModeWalkingToTower)

	if IsDebugEnabled() {
		slog.Debug("defender claimed tower",
			"agent", ai.d.id,
			"slot", slot.ID(),
			"approachX", ai.walkTarget.X,
			"approachZ", ai.walkTarget.Z)
	}
}

// walk moves toward the approach point; arrival mounts, stalling past
// the stuck timeout abandons the claim and re-seeks.
func (ai *PlacementAI) walk() {
	if ai.d.slot == nil {
		ai.setMode(ModeGrounded)
		return
	}

	if ai.d.moveEnabled {
		to := ai.walkTarget.Sub(ai.d.pos).WithY(0)
		step := to.Length()
		if step > ai.cfg.WalkSpeed {
			ai.d.pos = ai.d.pos.Add(to.Scale(ai.cfg.WalkSpeed / step))
		} else {
			ai.d.pos = ai.d.pos.Add(to)
		}
	}

	// Stuck detection: no measurable progress for too long means the
	// approach point is unreachable; give the slot back and try again.
	if ai.d.pos.Dist(ai.lastPos) < progressEpsilon {
		ai.stuckTicks++
		if ai.stuckTicks >= ai.cfg.StuckTimeoutTicks {
			slog.Debug("defender stuck walking to tower, abandoning claim",
				"agent", ai.d.id,
				"slot", ai.d.slot.ID(),
				"ticks", ai.stuckTicks)
			ai.releaseOwnSlot()
			ai.setMode(ModeGrounded)
			return
		}
	} else {
		ai.stuckTicks = 0
	}
	ai.lastPos = ai.d.pos

	if ai.d.pos.DistXZ(ai.walkTarget) < ai.cfg.ArriveThreshold {
		ai.mount()
	}
}

// mount verifies occupancy one last time, then teleports onto the
// slot. A slot stolen since claim time sends the agent straight back
// to seeking (the occupancy race is resolved here, never surfaced).
func (ai *PlacementAI) mount() {
	slot := ai.d.slot

	if occ := slot.Occupant(); occ != 0 && occ != ai.d.id {
		slog.Debug("tower taken during approach, re-seeking",
			"agent", ai.d.id,
			"slot", slot.ID(),
			"occupant", occ)
		ai.d.slot = nil
		ai.setMode(ModeGrounded)
		ai.seek()
		return
	}

	ai.slots.Claim(slot, ai.d.id)
	ai.d.moveEnabled = false
	ai.d.pos = slot.Position()
	ai.reassessTimer = 0
	ai.setMode(ModeOnTower)

	if IsDebugEnabled() {
		slog.Debug("defender mounted tower", "agent", ai.d.id, "slot", slot.ID())
	}
}

// onTower faces the current combat target, or reassesses the position
// at a limited rate while no target is in range.
func (ai *PlacementAI) onTower() {
	if ai.targetFunc != nil {
		if target, ok := ai.targetFunc(ai.d.id); ok {
			ai.faceToward(target)
			return
		}
	}

	ai.reassessTimer++
	if ai.reassessTimer >= ai.cfg.ReassessIntervalTicks {
		ai.reassessTimer = 0
		ai.reassess()
	}
}

// reassess compares the held slot against the requester-neutral best
// alternative and switches only when the alternative is strictly
// closer to the threat.
func (ai *PlacementAI) reassess() {
	current := ai.d.slot
	ai.setMode(ModeReassessingTower)

	alt := ai.slots.GetBestSlotNeutral()
	if alt == nil || alt == current {
		ai.setMode(ModeOnTower)
		return
	}

	curDist, okCur := ai.slots.SlotThreatDistance(current)
	altDist, okAlt := ai.slots.SlotThreatDistance(alt)
	if !okCur || !okAlt || altDist >= curDist {
		ai.setMode(ModeOnTower)
		return
	}

	if IsDebugEnabled() {
		slog.Debug("defender switching towers",
			"agent", ai.d.id,
			"from", current.ID(),
			"to", alt.ID(),
			"fromThreatDist", curDist,
			"toThreatDist", altDist)
	}

	ai.slots.Release(current)
	ai.slots.Claim(alt, ai.d.id)
	ai.d.slot = alt
	ai.d.moveEnabled = true
	ai.d.pos = ai.snapGround(current.GroundPosition())
	ai.walkTarget = ai.approachPoint(alt)
	ai.stuckTicks = 0
	ai.lastPos = ai.d.pos
	ai.setMode(ModeWalkingToTower)
}

// ForceDescend handles the allocator's forced-dismount: the slot lost
// its last intact segment under the agent. Idempotent and safe in any
// state.
func (ai *PlacementAI) ForceDescend() {
	slot := ai.d.slot
	if slot == nil {
		return
	}

	wasMounted := ai.d.mode == ModeOnTower
	ai.releaseOwnSlot()
	ai.d.moveEnabled = true
	if wasMounted {
		ai.d.pos = ai.snapGround(slot.GroundPosition())
	}
	ai.setMode(ModeGrounded)

	slog.Debug("defender forced off tower", "agent", ai.d.id, "slot", slot.ID())
}

// SetGuarding enters or leaves guard duty. Entering releases any tower
// activity; leaving resets the seek timer so tower acquisition retries
// on the very next tick.
func (ai *PlacementAI) SetGuarding(guarding bool) {
	if guarding {
		if ai.d.mode == ModeOnTower {
			ai.d.pos = ai.snapGround(ai.d.pos)
		}
		ai.releaseOwnSlot()
		ai.d.moveEnabled = true
		ai.setMode(ModeGuarding)
		return
	}

	if ai.d.mode != ModeGuarding {
		return
	}
	ai.setMode(ModeGrounded)
	ai.seekTimer = ai.cfg.SeekIntervalTicks
}

// Relink rebinds the agent to a slot recovered by spatial proximity
// after a full slot rebuild.
func (ai *PlacementAI) Relink(slot *tower.Slot) {
	ai.d.slot = slot
	if ai.d.mode == ModeOnTower {
		ai.d.pos = slot.Position()
	}
}

// releaseOwnSlot releases the held slot if the agent still owns it and
// always clears the assignment. Safe to call repeatedly.
func (ai *PlacementAI) releaseOwnSlot() {
	slot := ai.d.slot
	if slot == nil {
		return
	}
	if slot.Occupant() == ai.d.id {
		ai.slots.Release(slot)
	}
	ai.d.slot = nil
}

// approachPoint is the slot's ground position pulled toward the
// fortress interior, so the agent approaches from inside the lattice
// instead of through the wall.
func (ai *PlacementAI) approachPoint(slot *tower.Slot) geom.Vec3 {
	ground := slot.GroundPosition()
	inward := ai.fortress.Sub(ground).WithY(0).Normalized()
	return ai.snapGround(ground.Add(inward.Scale(ai.cfg.InteriorOffset)))
}

func (ai *PlacementAI) snapGround(p geom.Vec3) geom.Vec3 {
	p = p.WithY(0)
	if ai.groundSnap != nil {
		return ai.groundSnap(p)
	}
	return p
}

func (ai *PlacementAI) faceToward(target geom.Vec3) {
	to := target.Sub(ai.d.pos)
	if to.WithY(0).Length() < geom.Epsilon {
		return
	}
	ai.d.yaw = math.Atan2(to.X, to.Z)
}

func (ai *PlacementAI) setMode(m Mode) {
	if ai.d.mode == m {
		return
	}
	old := ai.d.mode
	ai.d.mode = m

	if IsDebugEnabled() {
		slog.Debug("defender mode changed",
			"agent", ai.d.id,
			"from", old,
			"to", m)
	}
}
