package wall

import (
	"github.com/cbs4385/Orc-sub003/internal/geom"
)

// State represents a wall segment's lifecycle state.
type State int32

const (
	// StateUnderConstruction - segment placed but not yet built, no HP,
	// no collision or obstacle contribution.
	StateUnderConstruction State = iota
	// StateIntact - segment standing, blocks movement, contributes towers.
	StateIntact
	// StateDestroyed - segment collapsed into a breach.
	StateDestroyed
)

// String returns human-readable state name.
func (s State) String() string {
	switch s {
	case StateUnderConstruction:
		return "UNDER_CONSTRUCTION"
	case StateIntact:
		return "INTACT"
	case StateDestroyed:
		return "DESTROYED"
	default:
		return "UNKNOWN"
	}
}

// Event is a segment lifecycle transition reported to the registry.
type Event int32

const (
	// EventDestroyed - intact segment dropped to 0 HP.
	EventDestroyed Event = iota
	// EventConstructionComplete - under-construction segment reached >0 HP.
	EventConstructionComplete
	// EventRebuilt - destroyed segment repaired back above 0 HP.
	EventRebuilt
)

// String returns human-readable event name.
func (e Event) String() string {
	switch e {
	case EventDestroyed:
		return "DESTROYED"
	case EventConstructionComplete:
		return "CONSTRUCTION_COMPLETE"
	case EventRebuilt:
		return "REBUILT"
	default:
		return "UNKNOWN"
	}
}

// Tint is an RGB render tint in [0,1] per channel.
type Tint struct {
	R, G, B float64
}

// Render tints. Damage interpolates from base toward damaged as HP drops;
// under-construction segments always use the ghost tint.
var (
	tintBase         = Tint{R: 1.0, G: 1.0, B: 1.0}
	tintDamaged      = Tint{R: 0.45, G: 0.2, B: 0.15}
	tintConstruction = Tint{R: 0.55, G: 0.7, B: 1.0}
)

// Segment is a single placed wall piece: pose, hit points, and
// lifecycle state. End-centers derived from its pose anchor tower
// slots and neighbor joins.
//
// Not safe for concurrent use: all mutation happens inside the
// single-threaded simulation tick.
type Segment struct {
	id        int
	pose      geom.Pose
	maxHP     int
	currentHP int
	state     State

	// obstacleActive mirrors whether this segment currently blocks
	// movement and stamps the navigable-area grid.
	obstacleActive bool

	// onLifecycle is set by the registry at Register time and invoked
	// synchronously by the mutating operation.
	onLifecycle func(*Segment, Event)
}

// NewSegment creates an intact segment at full HP.
func NewSegment(id int, pose geom.Pose, maxHP int) *Segment {
	return &Segment{
		id:             id,
		pose:           pose,
		maxHP:          maxHP,
		currentHP:      maxHP,
		state:          StateIntact,
		obstacleActive: true,
	}
}

// ID returns the segment's stable handle.
func (s *Segment) ID() int { return s.id }

// Pose returns the segment's current pose.
func (s *Segment) Pose() geom.Pose { return s.pose }

// SetPose replaces the segment's pose. Derived geometry is always
// computed on demand, so no refresh step is needed.
func (s *Segment) SetPose(p geom.Pose) { s.pose = p }

// State returns the current lifecycle state.
func (s *Segment) State() State { return s.state }

// MaxHP returns the segment's maximum hit points.
func (s *Segment) MaxHP() int { return s.maxHP }

// CurrentHP returns the segment's current hit points.
func (s *Segment) CurrentHP() int { return s.currentHP }

// HPRatio returns currentHP/maxHP in [0,1].
func (s *Segment) HPRatio() float64 {
	if s.maxHP <= 0 {
		return 0
	}
	return float64(s.currentHP) / float64(s.maxHP)
}

// ObstacleActive reports whether the segment currently contributes
// collision and navigable-area obstacle geometry.
func (s *Segment) ObstacleActive() bool { return s.obstacleActive }

// Corners returns the four ground-plane corners of the segment.
func (s *Segment) Corners() [4]geom.Vec3 {
	return geom.Corners(s.pose)
}

// EndCenter returns the anchor point at one end of the segment,
// sign -1 or +1 along the right axis.
func (s *Segment) EndCenter(sign int) geom.Vec3 {
	return geom.EndCenter(s.pose, sign)
}

// SetUnderConstruction forces the segment into the in-progress state:
// zero HP, no collision or obstacle contribution.
func (s *Segment) SetUnderConstruction() {
	s.currentHP = 0
	s.state = StateUnderConstruction
	s.obstacleActive = false
}

// TakeDamage applies damage to an intact segment. Destroyed and
// under-construction segments ignore damage. Reaching 0 HP collapses
// the segment into a breach and reports EventDestroyed.
func (s *Segment) TakeDamage(amount int) {
	if s.state != StateIntact || amount <= 0 {
		return
	}

	s.currentHP -= amount
	if s.currentHP > 0 {
		return
	}

	s.currentHP = 0
	s.state = StateDestroyed
	s.obstacleActive = false
	s.emit(EventDestroyed)
}

// Repair adds hit points, saturating at maxHP. Crossing above 0 HP
// completes construction or rebuilds a breach, reactivating the
// segment's collision and obstacle presence.
func (s *Segment) Repair(amount int) {
	if amount <= 0 {
		return
	}

	prevState := s.state
	s.currentHP = min(s.maxHP, s.currentHP+amount)

	if s.currentHP <= 0 || prevState == StateIntact {
		return
	}

	s.state = StateIntact
	s.obstacleActive = true

	switch prevState {
	case StateUnderConstruction:
		s.emit(EventConstructionComplete)
	case StateDestroyed:
		s.emit(EventRebuilt)
	}
}

// RenderTint returns the segment's current render tint: the in-progress
// tint while under construction, otherwise a blend from damaged to base
// by HP ratio.
func (s *Segment) RenderTint() Tint {
	if s.state == StateUnderConstruction {
		return tintConstruction
	}
	t := s.HPRatio()
	return Tint{
		R: tintDamaged.R + (tintBase.R-tintDamaged.R)*t,
		G: tintDamaged.G + (tintBase.G-tintDamaged.G)*t,
		B: tintDamaged.B + (tintBase.B-tintDamaged.B)*t,
	}
}

func (s *Segment) emit(e Event) {
	if s.onLifecycle != nil {
		s.onLifecycle(s, e)
	}
}
