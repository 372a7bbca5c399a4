package wall

import (
	"log/slog"
	"math"

	"github.com/cbs4385/Orc-sub003/internal/geom"
	"github.com/cbs4385/Orc-sub003/internal/nav"
)

// ObstacleSink receives wall footprint stamps for the navigable-area
// grid. Implemented by nav.Grid.
type ObstacleSink interface {
	SetWallStamp(id int, corners [4]geom.Vec3, active bool)
	SetWallStampActive(id int, active bool)
}

// SlotObstacles is the tower-side obstacle surface the registry
// temporarily lifts around a breach so the rebuilt navigable area gets
// a full-width gap. Implemented by the tower allocator.
type SlotObstacles interface {
	// DeactivateNear deactivates tower obstacles within radius of p and
	// returns their slot ids for reactivation.
	DeactivateNear(p geom.Vec3, radius float64) []int
	// Reactivate restores previously deactivated tower obstacles.
	Reactivate(ids []int)
}

// Registry owns every wall segment: registration, breach queries, and
// the debounced navigable-area rebuild. Constructed explicitly and
// passed to collaborators; there is no ambient instance.
//
// Not safe for concurrent use: all mutation happens inside the
// single-threaded simulation tick.
type Registry struct {
	segments []*Segment
	byID     map[int]*Segment
	nextID   int

	defaultMaxHP      int
	breachClearRadius float64

	rebuilder     nav.Rebuilder
	retarget      nav.Retargeter
	obstacles     ObstacleSink
	slotObstacles SlotObstacles

	// rebuildClass is the agent class whose surface walls reshape.
	rebuildClass nav.AgentClass

	// dirty batches mutations: at most one rebuild runs per Tick.
	dirty bool

	placedHooks    []func(*Segment)
	lifecycleHooks []func(*Segment, Event)
}

// NewRegistry creates an empty wall registry.
func NewRegistry(defaultMaxHP int, breachClearRadius float64, rebuilder nav.Rebuilder) *Registry {
	return &Registry{
		byID:              make(map[int]*Segment),
		defaultMaxHP:      defaultMaxHP,
		breachClearRadius: breachClearRadius,
		rebuilder:         rebuilder,
		rebuildClass:      nav.ClassGround,
	}
}

// SetRetargeter sets the post-rebuild force-retarget hook.
func (r *Registry) SetRetargeter(rt nav.Retargeter) { r.retarget = rt }

// SetObstacleSink sets the navigable-area stamp sink.
func (r *Registry) SetObstacleSink(sink ObstacleSink) { r.obstacles = sink }

// SetSlotObstacles sets the tower obstacle surface used for
// breach widening.
func (r *Registry) SetSlotObstacles(so SlotObstacles) { r.slotObstacles = so }

// AddPlacedHook registers a callback invoked when a segment is placed.
func (r *Registry) AddPlacedHook(fn func(*Segment)) {
	r.placedHooks = append(r.placedHooks, fn)
}

// AddLifecycleHook registers a callback invoked synchronously whenever
// a segment collapses, completes construction, or is rebuilt.
func (r *Registry) AddLifecycleHook(fn func(*Segment, Event)) {
	r.lifecycleHooks = append(r.lifecycleHooks, fn)
}

// Place creates a new segment at the pose in the under-construction
// state, registers it, and notifies placement hooks.
func (r *Registry) Place(pose geom.Pose) *Segment {
	s := NewSegment(r.nextID, pose, r.defaultMaxHP)
	r.nextID++
	s.SetUnderConstruction()
	r.Register(s)

	for _, fn := range r.placedHooks {
		fn(s)
	}

	slog.Debug("wall segment placed",
		"segment", s.ID(),
		"x", pose.Position.X,
		"z", pose.Position.Z,
		"yaw", pose.Yaw,
		"scale", pose.Scale)
	return s
}

// PlaceIntact creates a registered segment at full HP (scenario setup).
func (r *Registry) PlaceIntact(pose geom.Pose) *Segment {
	s := NewSegment(r.nextID, pose, r.defaultMaxHP)
	r.nextID++
	r.Register(s)

	for _, fn := range r.placedHooks {
		fn(s)
	}
	return s
}

// Register adds a segment to the registry. Idempotent: re-registering
// the same segment is a no-op.
func (r *Registry) Register(s *Segment) {
	if _, exists := r.byID[s.ID()]; exists {
		return
	}
	if s.ID() >= r.nextID {
		r.nextID = s.ID() + 1
	}

	r.byID[s.ID()] = s
	r.segments = append(r.segments, s)
	s.onLifecycle = r.onSegmentEvent

	if r.obstacles != nil {
		r.obstacles.SetWallStamp(s.ID(), s.Corners(), s.ObstacleActive())
	}
	r.dirty = true
}

// Get returns the segment with the given handle.
func (r *Registry) Get(id int) (*Segment, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// Segments returns all registered segments in registration order.
// Callers must not mutate the slice.
func (r *Registry) Segments() []*Segment {
	return r.segments
}

// Clear removes every segment (scenario reset). The only way segments
// are ever removed.
func (r *Registry) Clear() {
	r.segments = nil
	r.byID = make(map[int]*Segment)
	r.nextID = 0
	r.dirty = true
}

// TakeDamage applies damage to a segment by handle. Unknown handles
// are ignored (combat entry point, spec'd non-fatal).
func (r *Registry) TakeDamage(id, amount int) {
	if s, ok := r.byID[id]; ok {
		s.TakeDamage(amount)
	}
}

// Repair repairs a segment by handle. Unknown handles are ignored.
func (r *Registry) Repair(id, amount int) {
	if s, ok := r.byID[id]; ok {
		s.Repair(amount)
	}
}

// FindNearest returns the registered segment nearest to point that
// satisfies the predicate, or nil. A nil predicate matches everything.
func (r *Registry) FindNearest(point geom.Vec3, predicate func(*Segment) bool) *Segment {
	var best *Segment
	bestDist := math.MaxFloat64

	for _, s := range r.segments {
		if predicate != nil && !predicate(s) {
			continue
		}
		d := s.Pose().Position.DistSquared(point)
		if d < bestDist {
			bestDist = d
			best = s
		}
	}
	return best
}

// FindMostDamaged returns the segment most in need of repair:
// destroyed segments first (ranked as HP ratio -1), then ascending HP
// ratio. Intact segments at full HP are excluded. Returns nil if
// nothing needs repair.
func (r *Registry) FindMostDamaged() *Segment {
	var best *Segment
	bestRatio := math.MaxFloat64

	for _, s := range r.segments {
		if s.State() == StateIntact && s.CurrentHP() >= s.MaxHP() {
			continue
		}
		ratio := s.HPRatio()
		if s.State() == StateDestroyed {
			ratio = -1
		}
		if ratio < bestRatio {
			bestRatio = ratio
			best = s
		}
	}
	return best
}

// HasBreach reports whether any registered segment is destroyed.
func (r *Registry) HasBreach() bool {
	for _, s := range r.segments {
		if s.State() == StateDestroyed {
			return true
		}
	}
	return false
}

// BreachedSegments returns all destroyed segments in registration
// order.
func (r *Registry) BreachedSegments() []*Segment {
	var out []*Segment
	for _, s := range r.segments {
		if s.State() == StateDestroyed {
			out = append(out, s)
		}
	}
	return out
}

// Dirty reports whether a rebuild is pending for the next Tick.
func (r *Registry) Dirty() bool { return r.dirty }

// MarkDirty requests a rebuild on the next Tick.
func (r *Registry) MarkDirty() { r.dirty = true }

// Tick runs the deferred navigable-area rebuild if any mutation marked
// the registry dirty this tick. No matter how many segments changed,
// at most one rebuild executes.
func (r *Registry) Tick() {
	if !r.dirty {
		return
	}
	r.dirty = false
	r.rebuild()
}

// RebuildImmediateAndRetarget cancels any pending deferred rebuild,
// rebuilds synchronously, and forces all agents to retarget. For
// callers needing same-frame consistency.
func (r *Registry) RebuildImmediateAndRetarget() {
	r.dirty = false
	r.rebuild()
}

// rebuild lifts tower obstacles around breach endpoints, runs the
// external rebuild, restores them, then fires the retarget hook so no
// agent paths against stale data.
func (r *Registry) rebuild() {
	var lifted []int
	if r.slotObstacles != nil {
		for _, s := range r.BreachedSegments() {
			for _, sign := range []int{-1, +1} {
				ids := r.slotObstacles.DeactivateNear(s.EndCenter(sign), r.breachClearRadius)
				lifted = append(lifted, ids...)
			}
		}
	}

	if r.rebuilder != nil {
		if err := r.rebuilder.Rebuild(r.rebuildClass); err != nil {
			slog.Warn("navigable-area rebuild skipped",
				"class", r.rebuildClass,
				"err", err)
		}
	}

	if r.slotObstacles != nil && len(lifted) > 0 {
		r.slotObstacles.Reactivate(lifted)
	}

	if r.retarget != nil {
		r.retarget.RetargetAll(r.rebuildClass)
	}
}

// onSegmentEvent is wired into every registered segment and invoked
// synchronously by the mutating operation.
func (r *Registry) onSegmentEvent(s *Segment, e Event) {
	if r.obstacles != nil {
		r.obstacles.SetWallStampActive(s.ID(), s.ObstacleActive())
	}
	r.dirty = true

	slog.Debug("wall segment lifecycle",
		"segment", s.ID(),
		"event", e,
		"state", s.State(),
		"hp", s.CurrentHP())

	for _, fn := range r.lifecycleHooks {
		fn(s, e)
	}
}
