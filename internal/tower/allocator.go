package tower

import (
	"log/slog"
	"math"

	"github.com/cbs4385/Orc-sub003/internal/geom"
	"github.com/cbs4385/Orc-sub003/internal/wall"
)

// SegmentSource enumerates registered wall segments in registration
// order. Implemented by the wall registry.
type SegmentSource interface {
	Segments() []*wall.Segment
}

// HostileSource is the read-only hostile enumeration used for slot
// scoring. Implemented by the hostile registry.
type HostileSource interface {
	// NearestTo returns the position of the nearest alive hostile,
	// or false if none exist.
	NearestTo(p geom.Vec3) (geom.Vec3, bool)
}

// ObstacleMarks receives tower marker stamps for the navigable-area
// grid. Implemented by nav.Grid.
type ObstacleMarks interface {
	SetTowerStamp(id int, pos geom.Vec3, active bool)
	SetTowerStampActive(id int, active bool)
}

// Allocator derives tower slots from segment endpoints, deduplicating
// endpoints shared between neighbors, and tracks occupancy. Claim does
// not guard against double-claiming: the defender state machine
// verifies occupancy again at mount time (the occupancy race is
// resolved there, not here).
//
// Not safe for concurrent use.
type Allocator struct {
	slots  []*Slot
	nextID int

	dedupRadius      float64
	minSpacing       float64
	requesterPenalty float64

	hostiles HostileSource
	marks    ObstacleMarks

	// onForcedDismount is invoked when a slot's last intact contributor
	// collapses under an occupant.
	onForcedDismount func(slot *Slot, agentID int)

	// onRelink is invoked when BuildSlots reassigns a mounted agent to
	// the nearest slot of the rebuilt set.
	onRelink func(agentID int, slot *Slot)
}

// NewAllocator creates an empty slot allocator.
func NewAllocator(dedupRadius, minSpacing, requesterPenalty float64) *Allocator {
	return &Allocator{
		dedupRadius:      dedupRadius,
		minSpacing:       minSpacing,
		requesterPenalty: requesterPenalty,
	}
}

// SetHostileSource sets the hostile enumeration used for scoring.
func (a *Allocator) SetHostileSource(h HostileSource) { a.hostiles = h }

// SetObstacleMarks sets the navigable-area stamp sink.
func (a *Allocator) SetObstacleMarks(m ObstacleMarks) { a.marks = m }

// SetForcedDismountHook sets the occupant forced-descend callback.
func (a *Allocator) SetForcedDismountHook(fn func(slot *Slot, agentID int)) {
	a.onForcedDismount = fn
}

// SetRelinkHook sets the proximity re-link callback used by BuildSlots.
func (a *Allocator) SetRelinkHook(fn func(agentID int, slot *Slot)) {
	a.onRelink = fn
}

// Slots returns all slots in creation order. Callers must not mutate
// the slice.
func (a *Allocator) Slots() []*Slot { return a.slots }

// SlotByID returns the slot with the given handle.
func (a *Allocator) SlotByID(id int) (*Slot, bool) {
	for _, s := range a.slots {
		if s.id == id {
			return s, true
		}
	}
	return nil, false
}

// RegisterOne merges a single newly placed segment's endpoints into the
// slot set. The incremental primary path; BuildSlots is the rare full
// recovery rebuild.
func (a *Allocator) RegisterOne(seg *wall.Segment) {
	for _, sign := range []int{-1, +1} {
		a.mergeEndpoint(seg, seg.EndCenter(sign))
	}
}

// BuildSlots tears down and re-derives the whole slot set from the
// segment source, then re-links any mounted agent to the nearest slot
// of the rebuilt set by position (best-effort identity recovery, not by
// stored reference).
func (a *Allocator) BuildSlots(src SegmentSource) {
	type mounted struct {
		agentID int
		pos     geom.Vec3
	}
	var mountedAgents []mounted
	for _, s := range a.slots {
		if s.Occupied() {
			mountedAgents = append(mountedAgents, mounted{agentID: s.occupant, pos: s.position})
		}
		if a.marks != nil {
			a.marks.SetTowerStamp(s.id, s.position, false)
		}
	}

	a.slots = nil
	a.nextID = 0

	for _, seg := range src.Segments() {
		a.RegisterOne(seg)
	}

	for _, m := range mountedAgents {
		slot := a.nearestSlot(m.pos)
		if slot == nil {
			continue
		}
		slot.occupant = m.agentID
		if a.onRelink != nil {
			a.onRelink(m.agentID, slot)
		}
		slog.Debug("mounted agent re-linked after slot rebuild",
			"agent", m.agentID,
			"slot", slot.id)
	}

	slog.Debug("tower slots rebuilt", "slots", len(a.slots))
}

// Clear removes every slot (scenario reset).
func (a *Allocator) Clear() {
	if a.marks != nil {
		for _, s := range a.slots {
			a.marks.SetTowerStamp(s.id, s.position, false)
		}
	}
	a.slots = nil
	a.nextID = 0
}

// GetBestSlot selects the best unclaimed intact slot for a requester at
// the given position, or nil if no eligible slot exists.
//
// With hostiles present, slots closest to the nearest hostile win, with
// a small walking-distance penalty as tie-break. With no hostiles,
// slots spread away from occupied slots win; before any slot is
// occupied, the closest slot to the requester wins.
func (a *Allocator) GetBestSlot(requester geom.Vec3) *Slot {
	return a.bestSlot(requester, false)
}

// GetBestSlotNeutral selects the best slot with the requester position
// neutralized, for OnTower reassessment (so proximity bias cannot
// favor the incumbent slot). Returns nil when no hostiles exist:
// without a threat axis there is nothing to reassess against.
func (a *Allocator) GetBestSlotNeutral() *Slot {
	return a.bestSlot(geom.Vec3{}, true)
}

// SlotThreatDistance returns a slot's distance to the nearest alive
// hostile, or false if no hostiles exist.
func (a *Allocator) SlotThreatDistance(s *Slot) (float64, bool) {
	if a.hostiles == nil {
		return 0, false
	}
	hostilePos, ok := a.hostiles.NearestTo(s.position)
	if !ok {
		return 0, false
	}
	return s.position.DistXZ(hostilePos), true
}

func (a *Allocator) bestSlot(requester geom.Vec3, neutral bool) *Slot {
	var best *Slot
	bestScore := math.MaxFloat64

	anyHostile := false
	if a.hostiles != nil {
		_, anyHostile = a.hostiles.NearestTo(requester)
	}
	if neutral && !anyHostile {
		return nil
	}

	for _, s := range a.slots {
		if s.Occupied() || !s.Intact() || a.nearOccupied(s) {
			continue
		}

		var score float64
		if anyHostile {
			hostilePos, _ := a.hostiles.NearestTo(s.position)
			score = s.position.DistXZ(hostilePos)
			if !neutral {
				score += a.requesterPenalty * s.position.DistXZ(requester)
			}
		} else if occ := a.minDistToOccupied(s); occ >= 0 {
			score = -occ
		} else {
			score = s.position.DistXZ(requester)
		}

		// Strict comparison keeps the first candidate in creation
		// order on ties.
		if score < bestScore {
			bestScore = score
			best = s
		}
	}
	return best
}

// Claim marks the slot occupied by the agent. The caller is
// responsible for not double-claiming; the mount-time identity check
// in the defender state machine corrects transient races.
func (a *Allocator) Claim(s *Slot, agentID int) {
	s.occupant = agentID
	slog.Debug("tower slot claimed", "slot", s.id, "agent", agentID)
}

// Release clears the slot's occupant. Idempotent: releasing an empty
// slot is a no-op.
func (a *Allocator) Release(s *Slot) {
	if s.occupant == 0 {
		return
	}
	slog.Debug("tower slot released", "slot", s.id, "agent", s.occupant)
	s.occupant = 0
}

// OnSegmentLifecycle reacts to wall segment lifecycle transitions:
// a collapse that leaves a slot with no intact contributor forces its
// occupant down and deactivates its obstacle; a repair reactivates the
// obstacles of every slot the segment contributes to.
func (a *Allocator) OnSegmentLifecycle(seg *wall.Segment, e wall.Event) {
	switch e {
	case wall.EventDestroyed:
		for _, s := range a.slots {
			if !s.Contributes(seg.ID()) || s.Intact() {
				continue
			}
			if a.marks != nil {
				a.marks.SetTowerStampActive(s.id, false)
			}
			if s.Occupied() {
				agent := s.occupant
				slog.Debug("forcing occupant off collapsed tower",
					"slot", s.id,
					"agent", agent,
					"segment", seg.ID())
				if a.onForcedDismount != nil {
					a.onForcedDismount(s, agent)
				}
			}
		}
	case wall.EventRebuilt, wall.EventConstructionComplete:
		for _, s := range a.slots {
			if s.Contributes(seg.ID()) && s.Intact() && a.marks != nil {
				a.marks.SetTowerStampActive(s.id, true)
			}
		}
	}
}

// DeactivateNear deactivates active tower obstacles within radius of p
// and returns their slot ids. Part of the registry's breach-widening
// pass; implements wall.SlotObstacles.
func (a *Allocator) DeactivateNear(p geom.Vec3, radius float64) []int {
	var ids []int
	for _, s := range a.slots {
		if s.position.DistXZ(p) <= radius {
			if a.marks != nil {
				a.marks.SetTowerStampActive(s.id, false)
			}
			ids = append(ids, s.id)
		}
	}
	return ids
}

// Reactivate restores tower obstacles lifted by DeactivateNear.
// Slots that lost their last intact contributor stay inactive.
func (a *Allocator) Reactivate(ids []int) {
	if a.marks == nil {
		return
	}
	for _, id := range ids {
		if s, ok := a.SlotByID(id); ok && s.Intact() {
			a.marks.SetTowerStampActive(id, true)
		}
	}
}

func (a *Allocator) mergeEndpoint(seg *wall.Segment, endCenter geom.Vec3) {
	for _, s := range a.slots {
		if s.position.DistXZ(endCenter) <= a.dedupRadius {
			s.addSegment(seg)
			return
		}
	}

	s := newSlot(a.nextID, endCenter)
	a.nextID++
	s.addSegment(seg)
	a.slots = append(a.slots, s)

	if a.marks != nil {
		a.marks.SetTowerStamp(s.id, s.position, s.Intact())
	}
}

func (a *Allocator) nearOccupied(candidate *Slot) bool {
	for _, s := range a.slots {
		if s == candidate || !s.Occupied() {
			continue
		}
		if s.position.DistXZ(candidate.position) < a.minSpacing {
			return true
		}
	}
	return false
}

// minDistToOccupied returns the distance to the nearest occupied slot,
// or -1 if no slot is occupied.
func (a *Allocator) minDistToOccupied(candidate *Slot) float64 {
	best := -1.0
	for _, s := range a.slots {
		if s == candidate || !s.Occupied() {
			continue
		}
		d := s.position.DistXZ(candidate.position)
		if best < 0 || d < best {
			best = d
		}
	}
	return best
}

func (a *Allocator) nearestSlot(p geom.Vec3) *Slot {
	var best *Slot
	bestDist := math.MaxFloat64
	for _, s := range a.slots {
		d := s.position.DistXZ(p)
		if d < bestDist {
			bestDist = d
			best = s
		}
	}
	return best
}
