package nav

// AgentClass selects which navigable surface an agent moves on.
// Ground agents are blocked by walls and towers; aerial agents
// overfly both and only respect the map bounds.
type AgentClass string

const (
	ClassGround AgentClass = "ground"
	ClassAerial AgentClass = "aerial"
)

// Rebuilder recomputes the navigable surface for one agent class.
// Rebuilds are expensive by contract: callers must debounce and invoke
// at most one rebuild per simulation tick.
type Rebuilder interface {
	Rebuild(class AgentClass) error
}

// Retargeter forces all in-flight agents of a class to recompute their
// routes. Called after a rebuild so no agent paths against stale data.
type Retargeter interface {
	RetargetAll(class AgentClass)
}

// RetargetFunc adapts a plain function to the Retargeter interface.
type RetargetFunc func(class AgentClass)

// RetargetAll invokes the wrapped function.
func (f RetargetFunc) RetargetAll(class AgentClass) { f(class) }
