package physics

import (
	"github.com/bascanada/alacod-sub000/vmath"
)

// Integrate advances a position: p = p + v*dt
func Integrate(pos, vel vmath.Vec2, dt vmath.Fixed) vmath.Vec2 {
	return pos.Add(vel.Scale(dt))
}

// Blocker reports whether a collider placed at pos hits hard geometry
type Blocker func(pos vmath.Vec2) bool

// SlideResult is the outcome of an axis-separated move
type SlideResult struct {
	Pos     vmath.Vec2
	Vel     vmath.Vec2
	Blocked bool // no axis could move
}

// MoveAndSlide integrates vel*dt with axis-separated resolution: try the full
// move, else X only, else Y only, else stay put with zero velocity
func MoveAndSlide(pos, vel vmath.Vec2, dt vmath.Fixed, blocked Blocker) SlideResult {
	delta := vel.Scale(dt)
	if delta.IsZero() {
		return SlideResult{Pos: pos, Vel: vel}
	}

	full := pos.Add(delta)
	if !blocked(full) {
		return SlideResult{Pos: full, Vel: vel}
	}

	if delta.X != 0 {
		xOnly := vmath.Vec2{X: pos.X.Add(delta.X), Y: pos.Y}
		if !blocked(xOnly) {
			return SlideResult{Pos: xOnly, Vel: vmath.Vec2{X: vel.X}}
		}
	}

	if delta.Y != 0 {
		yOnly := vmath.Vec2{X: pos.X, Y: pos.Y.Add(delta.Y)}
		if !blocked(yOnly) {
			return SlideResult{Pos: yOnly, Vel: vmath.Vec2{Y: vel.Y}}
		}
	}

	return SlideResult{Pos: pos, Blocked: true}
}

// AgainstColliders builds a Blocker testing body against static geometry
func AgainstColliders(body Collider, walls []Placed) Blocker {
	return func(pos vmath.Vec2) bool {
		return OverlapsAny(pos, body, walls)
	}
}
