package nav

import (
	"fmt"
	"log/slog"

	"github.com/cbs4385/Orc-sub003/internal/geom"
)

// towerStampRadius is the blocked footprint around a tower marker.
const towerStampRadius = 0.5

// Grid is a coarse XZ walkability grid holding one surface per agent
// class. Obstacle stamps (wall footprints, tower markers) are
// registered once and toggled active/inactive as segments collapse and
// are rebuilt; Rebuild restamps a class's surface and floods
// reachability from the map border.
//
// Not safe for concurrent use.
type Grid struct {
	originX  float64
	originZ  float64
	cellSize float64
	cols     int
	rows     int

	wallStamps  map[int]*wallStamp
	towerStamps map[int]*towerStamp

	surfaces map[AgentClass]*surface
}

type wallStamp struct {
	corners [4]geom.Vec3
	active  bool
}

type towerStamp struct {
	pos    geom.Vec3
	active bool
}

type surface struct {
	walkable  []bool
	reachable []bool
	rebuilds  int
}

// NewGrid creates a grid with ground and aerial surfaces.
func NewGrid(originX, originZ, cellSize float64, cols, rows int) *Grid {
	g := &Grid{
		originX:     originX,
		originZ:     originZ,
		cellSize:    cellSize,
		cols:        cols,
		rows:        rows,
		wallStamps:  make(map[int]*wallStamp),
		towerStamps: make(map[int]*towerStamp),
		surfaces:    make(map[AgentClass]*surface),
	}
	g.surfaces[ClassGround] = newSurface(cols, rows)
	g.surfaces[ClassAerial] = newSurface(cols, rows)
	return g
}

func newSurface(cols, rows int) *surface {
	n := cols * rows
	s := &surface{
		walkable:  make([]bool, n),
		reachable: make([]bool, n),
	}
	for i := range s.walkable {
		s.walkable[i] = true
		s.reachable[i] = true
	}
	return s
}

// SetWallStamp registers or updates a wall segment's footprint.
func (g *Grid) SetWallStamp(id int, corners [4]geom.Vec3, active bool) {
	g.wallStamps[id] = &wallStamp{corners: corners, active: active}
}

// SetWallStampActive toggles a registered wall stamp. Unknown ids are
// ignored.
func (g *Grid) SetWallStampActive(id int, active bool) {
	if st, ok := g.wallStamps[id]; ok {
		st.active = active
	}
}

// SetTowerStamp registers or updates a tower marker footprint.
func (g *Grid) SetTowerStamp(id int, pos geom.Vec3, active bool) {
	g.towerStamps[id] = &towerStamp{pos: pos, active: active}
}

// SetTowerStampActive toggles a registered tower stamp. Unknown ids are
// ignored.
func (g *Grid) SetTowerStampActive(id int, active bool) {
	if st, ok := g.towerStamps[id]; ok {
		st.active = active
	}
}

// ClearStamps removes every registered stamp (scenario reset).
func (g *Grid) ClearStamps() {
	g.wallStamps = make(map[int]*wallStamp)
	g.towerStamps = make(map[int]*towerStamp)
}

// Rebuild restamps the surface for the given agent class and floods
// reachability from the map border. Returns an error for agent classes
// with no registered surface.
func (g *Grid) Rebuild(class AgentClass) error {
	surf, ok := g.surfaces[class]
	if !ok {
		return fmt.Errorf("no navigable surface for agent class %q", class)
	}

	surf.rebuilds++

	for i := range surf.walkable {
		surf.walkable[i] = true
	}

	// Aerial agents overfly obstacles entirely.
	if class != ClassAerial {
		for _, st := range g.wallStamps {
			if st.active {
				g.stampQuad(surf, st.corners)
			}
		}
		for _, st := range g.towerStamps {
			if st.active {
				g.stampDisc(surf, st.pos, towerStampRadius)
			}
		}
	}

	g.flood(surf)

	slog.Debug("navigable area rebuilt",
		"class", class,
		"rebuilds", surf.rebuilds)
	return nil
}

// RebuildCount returns how many times the class's surface has been
// rebuilt. Zero for unknown classes.
func (g *Grid) RebuildCount(class AgentClass) int {
	if surf, ok := g.surfaces[class]; ok {
		return surf.rebuilds
	}
	return 0
}

// Walkable reports whether the cell containing p is unblocked for the
// class. Out-of-bounds points are not walkable.
func (g *Grid) Walkable(class AgentClass, p geom.Vec3) bool {
	surf, ok := g.surfaces[class]
	if !ok {
		return false
	}
	c, r, ok := g.cellAt(p)
	if !ok {
		return false
	}
	return surf.walkable[r*g.cols+c]
}

// Reachable reports whether the cell containing p can be reached from
// the map border on the class's surface, per the last Rebuild.
func (g *Grid) Reachable(class AgentClass, p geom.Vec3) bool {
	surf, ok := g.surfaces[class]
	if !ok {
		return false
	}
	c, r, ok := g.cellAt(p)
	if !ok {
		return false
	}
	return surf.reachable[r*g.cols+c]
}

// NearestWalkable returns the closest walkable point to p on the
// class's surface, searching outward ring by ring. Falls back to p
// itself if nothing walkable is found nearby.
func (g *Grid) NearestWalkable(class AgentClass, p geom.Vec3) geom.Vec3 {
	surf, ok := g.surfaces[class]
	if !ok {
		return p
	}
	c, r, inBounds := g.cellAt(p)
	if !inBounds {
		return p
	}
	if surf.walkable[r*g.cols+c] {
		return p
	}

	for radius := 1; radius <= 8; radius++ {
		for dr := -radius; dr <= radius; dr++ {
			for dc := -radius; dc <= radius; dc++ {
				if max(abs(dr), abs(dc)) != radius {
					continue
				}
				nc, nr := c+dc, r+dr
				if nc < 0 || nc >= g.cols || nr < 0 || nr >= g.rows {
					continue
				}
				if surf.walkable[nr*g.cols+nc] {
					return g.cellCenter(nc, nr).WithY(p.Y)
				}
			}
		}
	}
	return p
}

func (g *Grid) cellAt(p geom.Vec3) (col, row int, ok bool) {
	col = int((p.X - g.originX) / g.cellSize)
	row = int((p.Z - g.originZ) / g.cellSize)
	if col < 0 || col >= g.cols || row < 0 || row >= g.rows {
		return 0, 0, false
	}
	return col, row, true
}

func (g *Grid) cellCenter(col, row int) geom.Vec3 {
	return geom.Vec3{
		X: g.originX + (float64(col)+0.5)*g.cellSize,
		Z: g.originZ + (float64(row)+0.5)*g.cellSize,
	}
}

// stampQuad blocks every cell whose center lies inside the convex quad
// given as [front-left, back-left, front-right, back-right].
func (g *Grid) stampQuad(surf *surface, corners [4]geom.Vec3) {
	// Winding order for the containment test: fl, fr, br, bl.
	quad := [4]geom.Vec3{corners[0], corners[2], corners[3], corners[1]}

	minX, maxX := quad[0].X, quad[0].X
	minZ, maxZ := quad[0].Z, quad[0].Z
	for _, q := range quad[1:] {
		minX = min(minX, q.X)
		maxX = max(maxX, q.X)
		minZ = min(minZ, q.Z)
		maxZ = max(maxZ, q.Z)
	}

	c0, r0, _ := g.clampedCell(minX, minZ)
	c1, r1, _ := g.clampedCell(maxX, maxZ)

	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			if pointInQuad(g.cellCenter(c, r), quad) {
				surf.walkable[r*g.cols+c] = false
			}
		}
	}
}

func (g *Grid) stampDisc(surf *surface, pos geom.Vec3, radius float64) {
	c0, r0, _ := g.clampedCell(pos.X-radius, pos.Z-radius)
	c1, r1, _ := g.clampedCell(pos.X+radius, pos.Z+radius)

	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			if g.cellCenter(c, r).DistXZ(pos) <= radius {
				surf.walkable[r*g.cols+c] = false
			}
		}
	}
}

func (g *Grid) clampedCell(x, z float64) (col, row int, ok bool) {
	col = int((x - g.originX) / g.cellSize)
	row = int((z - g.originZ) / g.cellSize)
	col = min(max(col, 0), g.cols-1)
	row = min(max(row, 0), g.rows-1)
	return col, row, true
}

// flood computes reachability from the map border (attacker approach)
// with a 4-neighbor BFS over walkable cells.
func (g *Grid) flood(surf *surface) {
	for i := range surf.reachable {
		surf.reachable[i] = false
	}

	queue := make([]int, 0, g.cols*2+g.rows*2)
	push := func(c, r int) {
		idx := r*g.cols + c
		if surf.walkable[idx] && !surf.reachable[idx] {
			surf.reachable[idx] = true
			queue = append(queue, idx)
		}
	}

	for c := 0; c < g.cols; c++ {
		push(c, 0)
		push(c, g.rows-1)
	}
	for r := 0; r < g.rows; r++ {
		push(0, r)
		push(g.cols-1, r)
	}

	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		c, r := idx%g.cols, idx/g.cols

		if c > 0 {
			push(c-1, r)
		}
		if c < g.cols-1 {
			push(c+1, r)
		}
		if r > 0 {
			push(c, r-1)
		}
		if r < g.rows-1 {
			push(c, r+1)
		}
	}
}

// pointInQuad tests containment in a convex quad (XZ plane, consistent
// winding).
func pointInQuad(p geom.Vec3, quad [4]geom.Vec3) bool {
	sign := 0
	for i := range quad {
		a := quad[i]
		b := quad[(i+1)%4]
		cross := (b.X-a.X)*(p.Z-a.Z) - (b.Z-a.Z)*(p.X-a.X)
		switch {
		case cross > 0:
			if sign < 0 {
				return false
			}
			sign = 1
		case cross < 0:
			if sign > 0 {
				return false
			}
			sign = -1
		}
	}
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
