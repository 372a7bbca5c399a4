package hostile

import (
	"math"

	"github.com/cbs4385/Orc-sub003/internal/geom"
)

// Hostile is one alive attacker: its id and last known position.
type Hostile struct {
	ID       int
	Position geom.Vec3
}

// Registry tracks currently-alive hostile agents. Tower scoring and
// defender reassessment read it; only the scenario driver and combat
// systems mutate it.
//
// Not safe for concurrent use.
type Registry struct {
	hostiles []Hostile
	byID     map[int]int // id -> index in hostiles
}

// NewRegistry creates an empty hostile registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[int]int)}
}

// Spawn adds or repositions a hostile.
func (r *Registry) Spawn(id int, pos geom.Vec3) {
	if idx, ok := r.byID[id]; ok {
		r.hostiles[idx].Position = pos
		return
	}
	r.byID[id] = len(r.hostiles)
	r.hostiles = append(r.hostiles, Hostile{ID: id, Position: pos})
}

// Kill removes a hostile. Unknown ids are ignored.
func (r *Registry) Kill(id int) {
	idx, ok := r.byID[id]
	if !ok {
		return
	}
	last := len(r.hostiles) - 1
	if idx != last {
		r.hostiles[idx] = r.hostiles[last]
		r.byID[r.hostiles[idx].ID] = idx
	}
	r.hostiles = r.hostiles[:last]
	delete(r.byID, id)
}

// Count returns the number of alive hostiles.
func (r *Registry) Count() int { return len(r.hostiles) }

// NearestTo returns the position of the nearest alive hostile,
// or false if none exist.
func (r *Registry) NearestTo(p geom.Vec3) (geom.Vec3, bool) {
	if len(r.hostiles) == 0 {
		return geom.Vec3{}, false
	}

	best := r.hostiles[0].Position
	bestDist := math.MaxFloat64
	for _, h := range r.hostiles {
		d := h.Position.DistSquared(p)
		if d < bestDist {
			bestDist = d
			best = h.Position
		}
	}
	return best, true
}

// ForEach visits every alive hostile; return false to stop early.
func (r *Registry) ForEach(fn func(Hostile) bool) {
	for _, h := range r.hostiles {
		if !fn(h) {
			return
		}
	}
}
