package navigation

import (
	"cmp"
	"fmt"

	"github.com/bascanada/alacod-sub000/vmath"
)

// GridPos is an integer cell coordinate; y grows upward like world space
type GridPos struct {
	X int32 `msgpack:"x" json:"x"`
	Y int32 `msgpack:"y" json:"y"`
}

func Cell(x, y int) GridPos { return GridPos{X: int32(x), Y: int32(y)} }

func (g GridPos) String() string { return fmt.Sprintf("(%d,%d)", g.X, g.Y) }

// CellAt floors a world position into its cell
func CellAt(p vmath.Vec2, cellSize vmath.Fixed) GridPos {
	return GridPos{
		X: int32(vmath.FloorDiv(p.X, cellSize)),
		Y: int32(vmath.FloorDiv(p.Y, cellSize)),
	}
}

// Center returns the world-space center of the cell
func (g GridPos) Center(cellSize vmath.Fixed) vmath.Vec2 {
	half := cellSize.DivInt(2)
	return vmath.Vec2{
		X: cellSize.MulInt(int(g.X)).Add(half),
		Y: cellSize.MulInt(int(g.Y)).Add(half),
	}
}

func (g GridPos) Add(dx, dy int32) GridPos { return GridPos{g.X + dx, g.Y + dy} }

// Offsets in neighbor enumeration order: cardinals first, then diagonals
var neighborOffsets = [8][2]int32{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {-1, 1}, {1, -1}, {-1, -1},
}

// Neighbors4 returns the cardinal neighbors in fixed order
func (g GridPos) Neighbors4() [4]GridPos {
	var out [4]GridPos
	for i := range out {
		out[i] = g.Add(neighborOffsets[i][0], neighborOffsets[i][1])
	}
	return out
}

// Neighbors8 returns cardinal then diagonal neighbors in fixed order
func (g GridPos) Neighbors8() [8]GridPos {
	var out [8]GridPos
	for i := range out {
		out[i] = g.Add(neighborOffsets[i][0], neighborOffsets[i][1])
	}
	return out
}

func (g GridPos) Manhattan(o GridPos) int {
	return absInt(int(g.X)-int(o.X)) + absInt(int(g.Y)-int(o.Y))
}

// Chebyshev returns the ring distance used by covered-cell searches
func (g GridPos) Chebyshev(o GridPos) int {
	return max(absInt(int(g.X)-int(o.X)), absInt(int(g.Y)-int(o.Y)))
}

// Compare is the lexicographic total order, x then y
func (g GridPos) Compare(o GridPos) int {
	if c := cmp.Compare(g.X, o.X); c != 0 {
		return c
	}
	return cmp.Compare(g.Y, o.Y)
}

func ComparePos(a, b GridPos) int { return a.Compare(b) }

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
