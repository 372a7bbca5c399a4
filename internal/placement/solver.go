package placement

import (
	"math"

	"github.com/cbs4385/Orc-sub003/internal/config"
	"github.com/cbs4385/Orc-sub003/internal/geom"
	"github.com/cbs4385/Orc-sub003/internal/wall"
)

// SnapResult is the placement solver's answer for one pointer update.
// When DidSnap is false the caller places at the raw pointer pose.
// Pose.Scale carries the (possibly ring-close rescaled) span.
type SnapResult struct {
	DidSnap    bool
	RingClosed bool
	Pose       geom.Pose
	Score      float64
}

// Solver computes the best snapped pose for a free-floating wall
// candidate against the existing lattice. Pure: it holds only tuning
// and never mutates the segments it reads.
type Solver struct {
	cfg config.SnapConfig
}

// NewSolver creates a solver with the given snap tuning.
func NewSolver(cfg config.SnapConfig) *Solver {
	return &Solver{cfg: cfg}
}

// Solve finds the highest-scoring candidate pose that joins the new
// segment's end to an existing end-center near the pointer.
//
// Candidates are enumerated in segment registration order, anchor end
// sign -1 before +1, then new-segment end sign -1 before +1; ties on
// score keep the first candidate, making the solver deterministic.
func (sv *Solver) Solve(pointer geom.Vec3, rotOffset, scale float64, segments []*wall.Segment) SnapResult {
	best := SnapResult{Score: math.Inf(-1)}

	for _, seg := range segments {
		segYaw := seg.Pose().Yaw

		for _, anchorSign := range []int{-1, +1} {
			anchor := seg.EndCenter(anchorSign)

			// Broad phase: only anchors near the pointer participate.
			if anchor.DistXZ(pointer) > sv.cfg.BroadRadius {
				continue
			}

			for _, newSign := range []int{-1, +1} {
				cand, ok := sv.candidate(pointer, anchor, segYaw+rotOffset, scale, newSign)
				if !ok {
					continue
				}

				if ring, ok := sv.tryRingClose(pointer, anchor, cand.Pose, newSign, seg.ID(), segments); ok {
					cand = ring
				}

				if cand.Score > best.Score {
					best = cand
				}
			}
		}
	}

	if !best.DidSnap {
		return SnapResult{}
	}
	return best
}

// candidate places the new segment's chosen end exactly on the anchor
// at the given yaw and rejects results drifting too far from the
// pointer.
func (sv *Solver) candidate(pointer, anchor geom.Vec3, yaw, scale float64, newSign int) (SnapResult, bool) {
	pose := geom.Pose{Yaw: yaw, Scale: scale}
	halfSpan := pose.HalfWidth()
	center := anchor.Sub(pose.RightAxis().Scale(halfSpan * float64(newSign)))

	dist := center.DistXZ(pointer)
	if dist > sv.cfg.AcceptRadius {
		return SnapResult{}, false
	}

	pose.Position = center.WithY(anchor.Y)
	return SnapResult{
		DidSnap: true,
		Pose:    pose,
		Score:   sv.cfg.AcceptRadius - dist,
	}, true
}

// tryRingClose searches near the candidate's far end for a second
// anchor on a different segment. On a hit the segment is re-aimed
// along the straight line between the two anchors and rescaled so both
// ends land exactly, closing a loop in the lattice. Ring closes earn a
// fixed score bonus: they produce structurally cleaner lattices.
func (sv *Solver) tryRingClose(pointer, anchor geom.Vec3, candPose geom.Pose, newSign, anchorSegID int, segments []*wall.Segment) (SnapResult, bool) {
	far := geom.EndCenter(candPose, -newSign)

	var (
		bestAnchor geom.Vec3
		bestDist   = math.MaxFloat64
		found      bool
	)

	for _, other := range segments {
		if other.ID() == anchorSegID {
			continue
		}
		for _, sign := range []int{-1, +1} {
			second := other.EndCenter(sign)

			if second.DistXZ(far) > sv.cfg.RingRadius {
				continue
			}
			// Coincident anchors would make a zero-length bridge.
			if anchor.Dist(second) < geom.Epsilon {
				continue
			}

			d := second.DistXZ(far)
			if d < bestDist {
				bestDist = d
				bestAnchor = second
				found = true
			}
		}
	}

	if !found {
		return SnapResult{}, false
	}

	// Re-aim along the anchor line and rescale to span it exactly.
	span := anchor.Dist(bestAnchor)
	rightDir := anchor.Sub(bestAnchor).Scale(float64(newSign) / span)
	center := anchor.Add(bestAnchor).Scale(0.5)

	pose := geom.NewPose(center, geom.YawFromRight(rightDir), span/geom.SegmentWidth)
	return SnapResult{
		DidSnap:    true,
		RingClosed: true,
		Pose:       pose,
		Score:      sv.cfg.AcceptRadius - center.DistXZ(pointer) + sv.cfg.RingCloseBonus,
	}, true
}
