package navigation

import (
	"slices"

	"github.com/bascanada/alacod-sub000/vmath"
)

// Direction sentinels; values 0..7 index neighborOffsets
const (
	DirNone   int8 = -1 // Not covered by the field
	DirTarget int8 = -2 // At target cell
	DirCount  int8 = 8
)

// Opposite direction lookup matching neighborOffsets order
var DirOpposite = [8]int8{1, 0, 3, 2, 7, 6, 5, 4}

// DirOffset returns the cell delta of a direction index
func DirOffset(d int8) (dx, dy int32) {
	return neighborOffsets[d][0], neighborOffsets[d][1]
}

// FlowField stores next-step directions toward a target over a square window
// of side 2*Radius+1 centered on the target. Cells are stored x-major so index
// order equals GridPos order.
type FlowField struct {
	Profile Profile `msgpack:"profile"`
	Target  GridPos `msgpack:"target"`
	Radius  int32   `msgpack:"radius"`
	Dirs    []int8  `msgpack:"dirs"`  // Per-cell direction index, DirNone if uncovered
	Costs   []int32 `msgpack:"costs"` // Hop count from target, -1 if uncovered
	Count   int32   `msgpack:"count"`
	// DiagonalCost is the configured diagonal weight, zero on 4-connected
	// fields; Costs stay hop counts either way
	DiagonalCost int32 `msgpack:"diag"`
}

// BuildStats reports the work done by one Build
type BuildStats struct {
	CellsProcessed int
	Truncated      bool // Cell cap reached before the frontier emptied
}

// Entry is one covered cell in the debug view
type Entry struct {
	Cell GridPos `json:"cell"`
	Next GridPos `json:"next"`
	Cost int32   `json:"cost"`
}

func (f *FlowField) side() int32 { return 2*f.Radius + 1 }

func (f *FlowField) index(c GridPos) (int, bool) {
	if f == nil {
		return 0, false
	}
	dx := c.X - f.Target.X + f.Radius
	dy := c.Y - f.Target.Y + f.Radius
	s := f.side()
	if dx < 0 || dy < 0 || dx >= s || dy >= s {
		return 0, false
	}
	return int(dx*s + dy), true
}

func (f *FlowField) cellAt(i int) GridPos {
	s := int(f.side())
	return GridPos{
		X: f.Target.X - f.Radius + int32(i/s),
		Y: f.Target.Y - f.Radius + int32(i%s),
	}
}

// Contains reports whether the BFS reached the cell
func (f *FlowField) Contains(c GridPos) bool {
	i, ok := f.index(c)
	return ok && f.Costs[i] >= 0
}

// Len returns the number of covered cells
func (f *FlowField) Len() int {
	if f == nil {
		return 0
	}
	return int(f.Count)
}

// Direction returns the raw direction index, DirNone if uncovered
func (f *FlowField) Direction(c GridPos) int8 {
	i, ok := f.index(c)
	if !ok {
		return DirNone
	}
	return f.Dirs[i]
}

// Next returns the neighbor one step closer to the target; the target maps to itself
func (f *FlowField) Next(c GridPos) (GridPos, bool) {
	switch d := f.Direction(c); d {
	case DirNone:
		return GridPos{}, false
	case DirTarget:
		return c, true
	default:
		dx, dy := DirOffset(d)
		return c.Add(dx, dy), true
	}
}

// Cost returns the hop count from the target
func (f *FlowField) Cost(c GridPos) (int32, bool) {
	i, ok := f.index(c)
	if !ok || f.Costs[i] < 0 {
		return 0, false
	}
	return f.Costs[i], true
}

// Entries lists covered cells in GridPos order
func (f *FlowField) Entries() []Entry {
	if f == nil {
		return nil
	}
	out := make([]Entry, 0, f.Count)
	for i, cost := range f.Costs {
		if cost < 0 {
			continue
		}
		c := f.cellAt(i)
		next, _ := f.Next(c)
		out = append(out, Entry{Cell: c, Next: next, Cost: cost})
	}
	return out
}

// DirectionVector maps a world position to its cell and returns the unit
// vector from that cell's center to the next cell's center. The target cell
// yields a zero vector with ok set.
func (f *FlowField) DirectionVector(pos vmath.Vec2, cellSize vmath.Fixed, eps vmath.Wide) (vmath.Vec2, bool) {
	c := CellAt(pos, cellSize)
	next, ok := f.Next(c)
	if !ok {
		return vmath.Vec2{}, false
	}
	return next.Center(cellSize).Sub(c.Center(cellSize)).NormalizeWithin(eps), true
}

// NeighborDirections returns unit vectors toward covered neighbors of the
// position's cell, lowest cost first
func (f *FlowField) NeighborDirections(pos vmath.Vec2, cellSize vmath.Fixed, eps vmath.Wide) []vmath.Vec2 {
	type candidate struct {
		cost int32
		dir  vmath.Vec2
	}
	var cands []candidate
	for _, nb := range CellAt(pos, cellSize).Neighbors8() {
		cost, ok := f.Cost(nb)
		if !ok {
			continue
		}
		dir := nb.Center(cellSize).Sub(pos).NormalizeWithin(eps)
		if dir.IsZero() {
			continue
		}
		cands = append(cands, candidate{cost, dir})
	}
	slices.SortStableFunc(cands, func(a, b candidate) int { return int(a.cost) - int(b.cost) })

	out := make([]vmath.Vec2, len(cands))
	for i, c := range cands {
		out[i] = c.dir
	}
	return out
}

// NearestCovered returns a unit vector toward the closest covered cell for an
// agent outside the field. Immediate neighbors win first; wider rings pick the
// lowest cost, ties going to the first cell scanned.
func (f *FlowField) NearestCovered(pos vmath.Vec2, cellSize vmath.Fixed, maxSearch int, eps vmath.Wide) (vmath.Vec2, bool) {
	origin := CellAt(pos, cellSize)
	toward := func(c GridPos) (vmath.Vec2, bool) {
		dir := c.Center(cellSize).Sub(pos).NormalizeWithin(eps)
		return dir, !dir.IsZero()
	}

	for _, nb := range origin.Neighbors8() {
		if f.Contains(nb) {
			if dir, ok := toward(nb); ok {
				return dir, true
			}
		}
	}

	for r := int32(2); r <= int32(maxSearch); r++ {
		best, bestCost, found := GridPos{}, int32(0), false
		for dx := -r; dx <= r; dx++ {
			for dy := -r; dy <= r; dy++ {
				if dx != -r && dx != r && dy != -r && dy != r {
					continue
				}
				c := origin.Add(dx, dy)
				if cost, ok := f.Cost(c); ok && (!found || cost < bestCost) {
					best, bestCost, found = c, cost, true
				}
			}
		}
		if found {
			if dir, ok := toward(best); ok {
				return dir, true
			}
		}
	}
	return vmath.Vec2{}, false
}

// Build runs a breadth-first search from target. Neighbors beyond MaxRadius
// (Manhattan) or blocked for the profile are skipped; each accepted neighbor
// points back at the cell that discovered it. The search stops once it has
// processed more than 4*r*r cells.
func Build(target GridPos, profile Profile, blocked *Blocked, p Params) (*FlowField, BuildStats) {
	r := int32(max(p.MaxRadius, 0))
	f := &FlowField{Profile: profile, Target: target, Radius: r}
	size := int(f.side()) * int(f.side())
	f.Dirs = make([]int8, size)
	f.Costs = make([]int32, size)
	for i := range size {
		f.Dirs[i] = DirNone
		f.Costs[i] = -1
	}

	ti, _ := f.index(target)
	f.Dirs[ti] = DirTarget
	f.Costs[ti] = 0
	f.Count = 1

	dirs := DirCount
	if p.Connectivity == 4 {
		dirs = 4
	} else {
		f.DiagonalCost = int32(p.DiagonalCost)
	}
	maxCells := 4 * int(r) * int(r)

	var stats BuildStats
	queue := make([]int32, 0, size)
	queue = append(queue, int32(ti))
	for head := 0; head < len(queue); head++ {
		stats.CellsProcessed++
		if stats.CellsProcessed > maxCells {
			stats.Truncated = true
			break
		}

		cur := int(queue[head])
		cell := f.cellAt(cur)
		for d := int8(0); d < dirs; d++ {
			dx, dy := DirOffset(d)
			nb := cell.Add(dx, dy)
			ni, ok := f.index(nb)
			if !ok || f.Costs[ni] >= 0 {
				continue
			}
			if nb.Manhattan(target) > int(r) {
				continue
			}
			if blocked != nil && blocked.IsBlocked(nb, profile) {
				continue
			}
			f.Dirs[ni] = DirOpposite[d]
			f.Costs[ni] = f.Costs[cur] + 1
			f.Count++
			queue = append(queue, int32(ni))
		}
	}
	return f, stats
}

// Clone deep-copies the field
func (f *FlowField) Clone() *FlowField {
	if f == nil {
		return nil
	}
	out := *f
	out.Dirs = slices.Clone(f.Dirs)
	out.Costs = slices.Clone(f.Costs)
	return &out
}
