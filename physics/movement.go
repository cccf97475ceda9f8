package physics

import (
	"github.com/bascanada/alacod-sub000/vmath"
)

// ClampSpeed limits the velocity magnitude to maxSpeed
// Returns true if velocity was clamped
func ClampSpeed(vel vmath.Vec2, maxSpeed vmath.Fixed) (vmath.Vec2, bool) {
	if vel.LengthSquared() <= vmath.MulFixed(maxSpeed, maxSpeed) {
		return vel, false
	}
	return vel.ClampLength(maxSpeed), true
}

// CrowdSlowdown scales speed down per touching agent, never below floor
func CrowdSlowdown(contacts int, perContact, floor vmath.Fixed) vmath.Fixed {
	if contacts <= 0 {
		return vmath.One
	}
	return vmath.One.Sub(perContact.MulInt(contacts)).Max(floor)
}
