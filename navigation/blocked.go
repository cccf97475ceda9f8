package navigation

import (
	"github.com/bascanada/alacod-sub000/physics"
	"github.com/bascanada/alacod-sub000/vmath"
)

// Blocked partitions blocked cells into permanent walls and per-type sets
type Blocked struct {
	Walls  CellSet                    `msgpack:"walls"`
	ByType [obstacleTypeCount]CellSet `msgpack:"by_type"`
}

// IsBlocked reports whether a profile may not enter the cell; walls always block
func (b *Blocked) IsBlocked(c GridPos, p Profile) bool {
	if b.Walls.Contains(c) {
		return true
	}
	for t := range b.ByType {
		if b.ByType[t].Contains(c) && !p.CanPass(ObstacleType(t)) {
			return true
		}
	}
	return false
}

// Of returns the cells blocked by one obstacle type
func (b *Blocked) Of(t ObstacleType) CellSet {
	if t >= obstacleTypeCount {
		return CellSet{}
	}
	return b.ByType[t]
}

func (b *Blocked) Clone() Blocked {
	out := Blocked{Walls: b.Walls.Clone()}
	for t := range b.ByType {
		out.ByType[t] = b.ByType[t].Clone()
	}
	return out
}

func (b *Blocked) Equal(o *Blocked) bool {
	if !b.Walls.Equal(o.Walls) {
		return false
	}
	for t := range b.ByType {
		if !b.ByType[t].Equal(o.ByType[t]) {
			return false
		}
	}
	return true
}

// PlacedObstacle is an obstacle instance with its world geometry
type PlacedObstacle struct {
	Pos      vmath.Vec2
	Collider physics.Collider
	Obstacle Obstacle
}

// Geometry is the input of a blocked-cell rebuild
type Geometry struct {
	// StaticWalls comes from the level grid and never changes after load
	StaticWalls CellSet
	Obstacles   []PlacedObstacle
}

// Rebuild recomputes every set from scratch and returns the number of window
// holes punched into the static walls
func (b *Blocked) Rebuild(g Geometry, cellSize vmath.Fixed) int {
	b.Walls = g.StaticWalls.Clone()
	for t := range b.ByType {
		b.ByType[t] = CellSet{}
	}

	holes := 0
	for _, po := range g.Obstacles {
		ob := po.Obstacle

		// Windows open their center cell in the wall and block it only while intact
		if ob.Type == ObstacleWindow {
			center := CellAt(po.Pos.Add(po.Collider.Offset), cellSize)
			if b.Walls.Remove(center) {
				holes++
			}
			if ob.BlocksMovement {
				b.ByType[ObstacleWindow].Add(center)
			}
			continue
		}

		if !ob.BlocksMovement || ob.Type >= obstacleTypeCount {
			continue
		}
		for _, c := range ColliderCells(po.Pos, po.Collider, cellSize) {
			b.ByType[ob.Type].Add(c)
		}
	}
	return holes
}

// ColliderCells returns every cell covered by the collider's bounding box;
// a box ending exactly on a cell boundary does not claim the next cell
func ColliderCells(pos vmath.Vec2, c physics.Collider, cellSize vmath.Fixed) []GridPos {
	lo, hi := c.Bounds(pos)
	minX := vmath.FloorDiv(lo.X, cellSize)
	minY := vmath.FloorDiv(lo.Y, cellSize)
	maxX := max(vmath.FloorDiv(hi.X-1, cellSize), minX)
	maxY := max(vmath.FloorDiv(hi.Y-1, cellSize), minY)

	cells := make([]GridPos, 0, (maxX-minX+1)*(maxY-minY+1))
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			cells = append(cells, Cell(x, y))
		}
	}
	return cells
}

// LevelGrid places an editor tile grid whose row 0 is the top row
type LevelGrid struct {
	OffsetX  int `yaml:"offset_x"` // world x of the left edge
	OffsetY  int `yaml:"offset_y"` // world y of the bottom edge
	Width    int `yaml:"width"`
	Height   int `yaml:"height"`
	TileSize int `yaml:"tile_size"`
}

// TileCell maps a tile to the cell holding its center, flipping y
func (l LevelGrid) TileCell(tx, ty int, cellSize vmath.Fixed) GridPos {
	ts := l.TileSize
	cx := l.OffsetX + tx*ts + ts/2
	cy := l.OffsetY + l.Height*ts - (ty*ts + ts/2)
	return CellAt(vmath.V2Int(cx, cy), cellSize)
}

// TileCenter returns the world center of a tile, flipping y
func (l LevelGrid) TileCenter(tx, ty int) vmath.Vec2 {
	ts := l.TileSize
	return vmath.V2Int(l.OffsetX+tx*ts+ts/2, l.OffsetY+l.Height*ts-(ty*ts+ts/2))
}

// IntGridWalls converts a row-major wall mask (row 0 at the top) into cells
func IntGridWalls(mask [][]bool, level LevelGrid, cellSize vmath.Fixed) CellSet {
	walls := CellSet{}
	for ty, row := range mask {
		for tx, wall := range row {
			if wall {
				walls.Add(level.TileCell(tx, ty, cellSize))
			}
		}
	}
	return walls
}
