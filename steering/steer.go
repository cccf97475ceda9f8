package steering

import (
	"github.com/bascanada/alacod-sub000/navigation"
	"github.com/bascanada/alacod-sub000/physics"
	"github.com/bascanada/alacod-sub000/vmath"
)

// FieldSource returns the flow field for a profile, nil when none is built
type FieldSource interface {
	Field(p navigation.Profile) *navigation.FlowField
}

// Solid reports whether an agent's body placed at pos hits hard geometry
type Solid func(a *Agent, pos vmath.Vec2) bool

// Env is the read-only world view for one steering tick
type Env struct {
	Fields        FieldSource
	Players       []vmath.Vec2 // Arrival reference points
	Solid         Solid
	CellSize      vmath.Fixed
	NearestSearch int
}

// Source records where a direction came from
type Source uint8

const (
	SourceNone    Source = iota
	SourceField          // Flow field lookup
	SourceNearest        // Heading back toward the closest covered cell
	SourceDirect         // Straight at the last known target position
)

// StepStats counts per-tick steering outcomes
type StepStats struct {
	Field   int
	Nearest int
	Direct  int
	Blocked int
}

// Separation averages unit repulsion / distance over neighbors inside the
// radius and scales it by the separation force. others must be in NetID order.
func Separation(self Agent, others []Agent, cfg Config) vmath.Vec2 {
	eps := cfg.Epsilon()
	var sum vmath.Vec2
	count := 0
	for _, o := range others {
		if o.ID == self.ID {
			continue
		}
		dist := self.Pos.Distance(o.Pos)
		if dist >= cfg.SeparationRadius || dist <= cfg.MinSeparation {
			continue
		}
		sum = sum.Add(self.Pos.Sub(o.Pos).NormalizeWithin(eps).Div(dist))
		count++
	}
	if count == 0 {
		return vmath.Vec2{}
	}
	return sum.Div(vmath.FromInt(count)).Scale(cfg.SeparationForce)
}

// Arrival is 0 inside the optimal ring, ramps linearly across the slow-down
// band and is 1 beyond it
func Arrival(dist vmath.Fixed, cfg Config) vmath.Fixed {
	switch {
	case dist < cfg.OptimalDistance:
		return vmath.Zero
	case dist < cfg.SlowdownDistance:
		band := cfg.SlowdownDistance.Sub(cfg.OptimalDistance)
		if band <= 0 {
			return vmath.One
		}
		return dist.Sub(cfg.OptimalDistance).Div(band).Clamp(vmath.Zero, vmath.One)
	default:
		return vmath.One
	}
}

// Desired combines direction * speed * arrival with separation
func Desired(dir vmath.Vec2, arrival vmath.Fixed, separation vmath.Vec2, cfg Config) vmath.Vec2 {
	return dir.Scale(cfg.Speed).Scale(arrival).Add(separation)
}

// NearestDistance returns the distance from pos to the closest point
func NearestDistance(pos vmath.Vec2, points []vmath.Vec2) (vmath.Fixed, bool) {
	if len(points) == 0 {
		return 0, false
	}
	best := vmath.MaxFixed
	for _, p := range points {
		best = best.Min(pos.Distance(p))
	}
	return best, true
}

// Direction resolves the unit heading of a chasing agent for any target kind:
// the profile's flow field first, then the nearest covered cell, then the
// last known target position.
func Direction(a *Agent, env Env, cfg Config) (vmath.Vec2, Source) {
	eps := cfg.Epsilon()

	if env.Fields != nil {
		if field := env.Fields.Field(a.Profile); field != nil {
			dir, ok := field.DirectionVector(a.Pos, env.CellSize, eps)
			if ok && !dir.IsZero() {
				return dir, SourceField
			}
			if !ok {
				if dir, ok := field.NearestCovered(a.Pos, env.CellSize, env.NearestSearch, eps); ok {
					return dir, SourceNearest
				}
			}
		}
	}

	if a.Target.Kind == TargetNone {
		return vmath.Vec2{}, SourceNone
	}
	dir := a.Target.LastKnown.Sub(a.Pos).NormalizeWithin(eps)
	if dir.IsZero() {
		return dir, SourceNone
	}
	return dir, SourceDirect
}

// Step advances every agent one tick. The read phase computes all velocities
// from pre-tick positions; the write phase integrates with axis-separated
// collision in slice order, which callers keep sorted by NetID.
func Step(agents []Agent, env Env, cfg Config) StepStats {
	var stats StepStats
	vels := make([]vmath.Vec2, len(agents))

	for i := range agents {
		a := &agents[i]
		if a.Mode != ModeChasing {
			continue
		}
		dir, src := Direction(a, env, cfg)
		switch src {
		case SourceField:
			stats.Field++
		case SourceNearest:
			stats.Nearest++
		case SourceDirect:
			stats.Direct++
		}

		arrival := vmath.One
		if d, ok := NearestDistance(a.Pos, env.Players); ok {
			arrival = Arrival(d, cfg)
		}
		vels[i] = Desired(dir, arrival, Separation(*a, agents, cfg), cfg)
	}

	minSpeedSq := cfg.VelocityEpsilon.Widen()
	for i := range agents {
		a := &agents[i]
		v := vels[i]
		if v.LengthSquared() <= minSpeedSq {
			a.Vel = vmath.Vec2{}
			continue
		}

		r := physics.MoveAndSlide(a.Pos, v, cfg.Timestep, func(p vmath.Vec2) bool {
			return env.Solid != nil && env.Solid(a, p)
		})
		a.Pos, a.Vel = r.Pos, r.Vel
		if r.Blocked {
			stats.Blocked++
		}
		a.UpdateFacing(cfg.FacingThreshold)
	}
	return stats
}
