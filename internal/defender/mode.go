package defender

// Mode represents a defender's placement state.
type Mode int32

const (
	// ModeGrounded - defender is on the ground with no tower assignment.
	ModeGrounded Mode = iota
	// ModeSeekingTower - transient: requesting a slot this tick.
	ModeSeekingTower
	// ModeWalkingToTower - defender walks to its claimed slot's approach point.
	ModeWalkingToTower
	// ModeOnTower - defender is mounted on its slot.
	ModeOnTower
	// ModeReassessingTower - transient: comparing the held slot against
	// the current best alternative.
	ModeReassessingTower
	// ModeGuarding - externally triggered guard duty; preempts all
	// tower activity.
	ModeGuarding
)

// String returns human-readable mode name.
func (m Mode) String() string {
	switch m {
	case ModeGrounded:
		return "GROUNDED"
	case ModeSeekingTower:
		return "SEEKING_TOWER"
	case ModeWalkingToTower:
		return "WALKING_TO_TOWER"
	case ModeOnTower:
		return "ON_TOWER"
	case ModeReassessingTower:
		return "REASSESSING_TOWER"
	case ModeGuarding:
		return "GUARDING"
	default:
		return "UNKNOWN"
	}
}
