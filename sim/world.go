package sim

import (
	"github.com/bascanada/alacod-sub000/navigation"
	"github.com/bascanada/alacod-sub000/netid"
	"github.com/bascanada/alacod-sub000/physics"
	"github.com/bascanada/alacod-sub000/vmath"
)

// SpawnPoint is a static location where the spawner may place agents
type SpawnPoint struct {
	ID      netid.NetID
	Pos     vmath.Vec2
	Profile navigation.Profile
}

func spawnID(sp SpawnPoint) netid.NetID { return sp.ID }

// World is the static level and rules; it never changes during a match and
// stays outside the snapshot
type World struct {
	Rules       Rules
	StaticWalls navigation.CellSet
	Walls       []physics.Placed
	SpawnPoints []SpawnPoint

	spawnIDs  netid.Factory
	wallIndex map[navigation.GridPos][]int
	wallCell  map[int]navigation.GridPos // Cell of each single-cell wall, by wall index
}

// NewWorld validates rules and returns an empty level
func NewWorld(rules Rules) (*World, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &World{
		Rules:     rules,
		wallIndex: make(map[navigation.GridPos][]int),
		wallCell:  make(map[int]navigation.GridPos),
	}, nil
}

func (w *World) cellSize() vmath.Fixed { return w.Rules.Navigation.CellSize }

// AddWall registers a hard collider and indexes it by covered cells
func (w *World) AddWall(p physics.Placed) {
	idx := len(w.Walls)
	w.Walls = append(w.Walls, p)
	for _, c := range navigation.ColliderCells(p.Pos, p.Collider, w.cellSize()) {
		w.wallIndex[c] = append(w.wallIndex[c], idx)
	}
}

// AddWallCells marks cells as permanent walls for navigation and collision
func (w *World) AddWallCells(cells ...navigation.GridPos) {
	cs := w.cellSize()
	for _, c := range cells {
		if w.StaticWalls.Contains(c) {
			continue
		}
		w.StaticWalls.Add(c)
		w.wallCell[len(w.Walls)] = c
		w.AddWall(physics.Placed{Pos: c.Center(cs), Collider: physics.Rect(cs, cs)})
	}
}

// AddIntGrid loads an editor wall mask with its y flip
func (w *World) AddIntGrid(mask [][]bool, level navigation.LevelGrid) {
	w.AddWallCells(navigation.IntGridWalls(mask, level, w.cellSize()).Cells()...)
}

// AddSpawnPoint registers a spawner location
func (w *World) AddSpawnPoint(pos vmath.Vec2, profile navigation.Profile) netid.NetID {
	id := w.spawnIDs.Next("spawn")
	w.SpawnPoints = append(w.SpawnPoints, SpawnPoint{ID: id, Pos: pos, Profile: profile})
	return id
}

// WindowHoles returns the static wall cells opened by window obstacles. The
// hole stays open after the window breaks; the window itself blocks while intact.
func (w *World) WindowHoles(s *State) navigation.CellSet {
	var holes navigation.CellSet
	for _, o := range s.Obstacles {
		if o.State.Type != navigation.ObstacleWindow {
			continue
		}
		c := navigation.CellAt(o.Pos.Add(o.Collider.Offset), w.cellSize())
		if w.StaticWalls.Contains(c) {
			holes.Add(c)
		}
	}
	return holes
}

// Solid reports whether body at pos hits a static wall; cell walls listed in
// holes are skipped
func (w *World) Solid(body physics.Collider, pos vmath.Vec2, holes navigation.CellSet) bool {
	for _, c := range navigation.ColliderCells(pos, body, w.cellSize()) {
		for _, i := range w.wallIndex[c] {
			if cell, ok := w.wallCell[i]; ok && holes.Contains(cell) {
				continue
			}
			if physics.Overlaps(pos, body, w.Walls[i].Pos, w.Walls[i].Collider) {
				return true
			}
		}
	}
	return false
}
