package defender

import (
	"log/slog"
	"sort"

	"github.com/cbs4385/Orc-sub003/internal/tower"
)

// Manager ticks every placement controller in ascending agent id
// order. The stable order serializes slot claim attempts between
// contending agents within a tick; the mount-time occupancy check
// corrects any transient double-claim that slips through.
type Manager struct {
	ais  []*PlacementAI
	byID map[int]*PlacementAI
}

// NewManager creates an empty controller manager.
func NewManager() *Manager {
	return &Manager{byID: make(map[int]*PlacementAI)}
}

// Register adds and starts a controller. Re-registering an agent id
// replaces its controller.
func (m *Manager) Register(ai *PlacementAI) {
	id := ai.Defender().ID()
	if _, exists := m.byID[id]; exists {
		m.remove(id)
	}

	m.byID[id] = ai
	m.ais = append(m.ais, ai)
	sort.Slice(m.ais, func(i, j int) bool {
		return m.ais[i].Defender().ID() < m.ais[j].Defender().ID()
	})
	ai.Start()

	slog.Debug("placement controller registered", "agent", id)
}

// Unregister stops and removes a controller.
func (m *Manager) Unregister(agentID int) {
	ai, ok := m.byID[agentID]
	if !ok {
		return
	}
	ai.Stop()
	m.remove(agentID)

	slog.Debug("placement controller unregistered", "agent", agentID)
}

func (m *Manager) remove(agentID int) {
	delete(m.byID, agentID)
	for i, ai := range m.ais {
		if ai.Defender().ID() == agentID {
			m.ais = append(m.ais[:i], m.ais[i+1:]...)
			return
		}
	}
}

// Get returns the controller for an agent id.
func (m *Manager) Get(agentID int) (*PlacementAI, bool) {
	ai, ok := m.byID[agentID]
	return ai, ok
}

// Controllers returns all controllers in tick order.
func (m *Manager) Controllers() []*PlacementAI { return m.ais }

// TickAll advances every controller one tick in stable agent order.
func (m *Manager) TickAll() {
	for _, ai := range m.ais {
		ai.Tick()
	}
}

// ForceDescend dispatches the allocator's forced-dismount callback to
// the occupant's controller. Unknown agents are ignored.
func (m *Manager) ForceDescend(_ *tower.Slot, agentID int) {
	if ai, ok := m.byID[agentID]; ok {
		ai.ForceDescend()
	}
}

// Relink dispatches a post-rebuild slot rebind to the agent's
// controller.
func (m *Manager) Relink(agentID int, slot *tower.Slot) {
	if ai, ok := m.byID[agentID]; ok {
		ai.Relink(slot)
	}
}

// SetGuarding toggles guard duty for an agent.
func (m *Manager) SetGuarding(agentID int, guarding bool) {
	if ai, ok := m.byID[agentID]; ok {
		ai.SetGuarding(guarding)
	}
}
