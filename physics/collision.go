package physics

import (
	"github.com/bascanada/alacod-sub000/vmath"
)

// ShapeKind selects the collider geometry
type ShapeKind uint8

const (
	ShapeCircle ShapeKind = iota
	ShapeRect
)

// Collider is a circle (Radius) or an axis-aligned rectangle (Width x Height)
// centered on the owner's position plus Offset
type Collider struct {
	Shape  ShapeKind   `msgpack:"shape" json:"shape"`
	Radius vmath.Fixed `msgpack:"r,omitempty" json:"radius,omitempty"`
	Width  vmath.Fixed `msgpack:"w,omitempty" json:"width,omitempty"`
	Height vmath.Fixed `msgpack:"h,omitempty" json:"height,omitempty"`
	Offset vmath.Vec2  `msgpack:"off" json:"offset"`
}

func Circle(radius vmath.Fixed) Collider {
	return Collider{Shape: ShapeCircle, Radius: radius}
}

func Rect(width, height vmath.Fixed) Collider {
	return Collider{Shape: ShapeRect, Width: width, Height: height}
}

// Placed is a collider at a world position
type Placed struct {
	Pos      vmath.Vec2 `msgpack:"pos" json:"pos"`
	Collider Collider   `msgpack:"col" json:"collider"`
}

// Bounds returns the world AABB of the collider at pos
func (c Collider) Bounds(pos vmath.Vec2) (lo, hi vmath.Vec2) {
	center := pos.Add(c.Offset)
	var ext vmath.Vec2
	switch c.Shape {
	case ShapeCircle:
		ext = vmath.Vec2{X: c.Radius, Y: c.Radius}
	case ShapeRect:
		ext = vmath.Vec2{X: c.Width.DivInt(2), Y: c.Height.DivInt(2)}
	}
	return center.Sub(ext), center.Add(ext)
}

// Overlaps tests two colliders; touching edges do not overlap
func Overlaps(posA vmath.Vec2, a Collider, posB vmath.Vec2, b Collider) bool {
	ca := posA.Add(a.Offset)
	cb := posB.Add(b.Offset)

	switch {
	case a.Shape == ShapeCircle && b.Shape == ShapeCircle:
		r := a.Radius.Add(b.Radius)
		return ca.DistanceSquared(cb) < vmath.MulFixed(r, r)

	case a.Shape == ShapeRect && b.Shape == ShapeRect:
		loA, hiA := a.Bounds(posA)
		loB, hiB := b.Bounds(posB)
		return loA.X < hiB.X && hiA.X > loB.X && loA.Y < hiB.Y && hiA.Y > loB.Y

	case a.Shape == ShapeCircle:
		return circleRect(ca, a.Radius, cb, b)
	default:
		return circleRect(cb, b.Radius, ca, a)
	}
}

// circleRect tests against the closest point of the rectangle
func circleRect(center vmath.Vec2, radius vmath.Fixed, rectCenter vmath.Vec2, rect Collider) bool {
	hw, hh := rect.Width.DivInt(2), rect.Height.DivInt(2)
	closest := vmath.Vec2{
		X: center.X.Clamp(rectCenter.X.Sub(hw), rectCenter.X.Add(hw)),
		Y: center.Y.Clamp(rectCenter.Y.Sub(hh), rectCenter.Y.Add(hh)),
	}
	return center.DistanceSquared(closest) < vmath.MulFixed(radius, radius)
}

// OverlapsAny reports whether the collider at pos hits any placed collider
func OverlapsAny(pos vmath.Vec2, c Collider, others []Placed) bool {
	for _, o := range others {
		if Overlaps(pos, c, o.Pos, o.Collider) {
			return true
		}
	}
	return false
}
