package defender

import (
	"github.com/cbs4385/Orc-sub003/internal/geom"
	"github.com/cbs4385/Orc-sub003/internal/tower"
)

// Defender is the placement-relevant state of one defending agent:
// ground pose, movement gate, and the slot it exclusively owns (the
// slot's occupant field is only a back-reference).
type Defender struct {
	id   int
	pos  geom.Vec3
	yaw  float64
	mode Mode

	// slot is the claimed tower assignment, nil when unassigned.
	slot *tower.Slot

	// moveEnabled gates ground locomotion; mounting disables it.
	moveEnabled bool
}

// NewDefender creates a grounded defender at the given position.
// id must be non-zero: slot occupancy uses 0 as "empty".
func NewDefender(id int, pos geom.Vec3) *Defender {
	return &Defender{
		id:          id,
		pos:         pos,
		mode:        ModeGrounded,
		moveEnabled: true,
	}
}

// ID returns the defender's agent id.
func (d *Defender) ID() int { return d.id }

// Position returns the defender's current position.
func (d *Defender) Position() geom.Vec3 { return d.pos }

// SetPosition moves the defender (scenario setup / external movement).
func (d *Defender) SetPosition(p geom.Vec3) { d.pos = p }

// Yaw returns the defender's facing.
func (d *Defender) Yaw() float64 { return d.yaw }

// Mode returns the current placement mode.
func (d *Defender) Mode() Mode { return d.mode }

// Slot returns the claimed tower slot, nil when unassigned.
func (d *Defender) Slot() *tower.Slot { return d.slot }

// MoveEnabled reports whether ground locomotion is active.
func (d *Defender) MoveEnabled() bool { return d.moveEnabled }
