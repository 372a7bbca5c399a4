package tower

import (
	"github.com/cbs4385/Orc-sub003/internal/geom"
	"github.com/cbs4385/Orc-sub003/internal/wall"
)

// Slot is a merged point where one or more wall segment end-centers
// coincide: a firing position for at most one defender. Slots are
// never deleted; a slot with no intact contributing segment is simply
// unclaimable until a contributor is rebuilt.
type Slot struct {
	id       int
	position geom.Vec3

	// segments contributing an endpoint to this slot, by handle.
	segments map[int]*wall.Segment

	// occupant is the claiming agent id, 0 when empty. Non-owning
	// back-reference: the defender owns the claim and clears it via
	// Release.
	occupant int
}

func newSlot(id int, groundPos geom.Vec3) *Slot {
	return &Slot{
		id:       id,
		position: groundPos.WithY(geom.MountHeight),
		segments: make(map[int]*wall.Segment),
	}
}

// ID returns the slot's stable handle.
func (s *Slot) ID() int { return s.id }

// Position returns the slot's world position at mount height.
func (s *Slot) Position() geom.Vec3 { return s.position }

// GroundPosition returns the slot's position projected to the ground.
func (s *Slot) GroundPosition() geom.Vec3 { return s.position.WithY(0) }

// Occupant returns the claiming agent id, 0 when empty.
func (s *Slot) Occupant() int { return s.occupant }

// Occupied reports whether the slot has a live occupant.
func (s *Slot) Occupied() bool { return s.occupant != 0 }

// Intact reports whether at least one contributing segment is intact.
// Only intact slots are valid firing positions.
func (s *Slot) Intact() bool {
	for _, seg := range s.segments {
		if seg.State() == wall.StateIntact {
			return true
		}
	}
	return false
}

// Contributes reports whether the segment with the given handle
// contributes an endpoint to this slot.
func (s *Slot) Contributes(segmentID int) bool {
	_, ok := s.segments[segmentID]
	return ok
}

// ContributorCount returns the number of contributing segments.
func (s *Slot) ContributorCount() int { return len(s.segments) }

func (s *Slot) addSegment(seg *wall.Segment) {
	s.segments[seg.ID()] = seg
}
