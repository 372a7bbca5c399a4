package placement

import (
	"log/slog"

	"github.com/cbs4385/Orc-sub003/internal/geom"
	"github.com/cbs4385/Orc-sub003/internal/wall"
)

// Treasury is the external economy collaborator. Charge returns an
// error when the player cannot afford the placement.
type Treasury interface {
	Charge(amount int) error
	Refund(amount int)
}

// Template is the configured wall prefab a session places: its
// default horizontal scale and the cost charged per placement.
type Template struct {
	Scale float64
	Cost  int
}

// Session drives one player's placement flow: begin, pointer updates
// with live snap preview, then confirm or cancel. Cancellation refunds
// the charge. A session with no configured template degrades every
// operation to a logged no-op.
type Session struct {
	solver   *Solver
	registry *wall.Registry
	treasury Treasury
	template *Template

	active    bool
	rotOffset float64
	pointer   geom.Vec3
	preview   SnapResult
}

// NewSession creates a placement session. template may be nil, in
// which case every operation no-ops.
func NewSession(solver *Solver, registry *wall.Registry, treasury Treasury, template *Template) *Session {
	return &Session{
		solver:   solver,
		registry: registry,
		treasury: treasury,
		template: template,
	}
}

// Active reports whether a placement is in progress.
func (s *Session) Active() bool { return s.active }

// Preview returns the current snap preview. Meaningful only while
// active.
func (s *Session) Preview() SnapResult { return s.preview }

// Begin starts a placement, charging the template cost. No-ops when no
// template is configured, the treasury refuses the charge, or a
// placement is already in progress.
func (s *Session) Begin() bool {
	if s.template == nil {
		slog.Warn("placement ignored: no wall template configured")
		return false
	}
	if s.active {
		return false
	}
	if s.treasury != nil {
		if err := s.treasury.Charge(s.template.Cost); err != nil {
			slog.Info("placement refused", "cost", s.template.Cost, "err", err)
			return false
		}
	}

	s.active = true
	s.rotOffset = 0
	s.preview = SnapResult{}
	return true
}

// UpdatePointer recomputes the snap preview for the pointer position
// and rotation offset. No-op while inactive.
func (s *Session) UpdatePointer(pointer geom.Vec3, rotOffset float64) {
	if !s.active {
		return
	}
	s.pointer = pointer
	s.rotOffset = rotOffset
	s.preview = s.solver.Solve(pointer, rotOffset, s.template.Scale, s.registry.Segments())
}

// Confirm places the previewed segment under construction and ends the
// session. Falls back to the raw pointer pose when nothing snapped.
// Returns nil while inactive.
func (s *Session) Confirm() *wall.Segment {
	if !s.active {
		return nil
	}
	s.active = false

	pose := s.preview.Pose
	if !s.preview.DidSnap {
		pose = geom.NewPose(s.pointer, s.rotOffset, s.template.Scale)
	}

	seg := s.registry.Place(pose)
	slog.Debug("placement confirmed",
		"segment", seg.ID(),
		"snapped", s.preview.DidSnap,
		"ring_closed", s.preview.RingClosed)
	return seg
}

// Cancel abandons the placement and refunds the charge. Idempotent.
func (s *Session) Cancel() {
	if !s.active {
		return
	}
	s.active = false
	if s.treasury != nil {
		s.treasury.Refund(s.template.Cost)
	}
	slog.Debug("placement cancelled", "refund", s.template.Cost)
}
