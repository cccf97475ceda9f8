package steering

import (
	"github.com/bascanada/alacod-sub000/netid"
	"github.com/bascanada/alacod-sub000/vmath"
)

// Candidate is something an agent may chase
type Candidate struct {
	ID  netid.NetID
	Pos vmath.Vec2
}

func candidateID(c Candidate) netid.NetID { return c.ID }

// nearestWithin returns the closest candidate strictly inside rng, ties by NetID
func nearestWithin(from vmath.Vec2, cands []Candidate, rng vmath.Fixed) (Candidate, vmath.Wide, bool) {
	limit := vmath.MulFixed(rng, rng)
	var inRange []Candidate
	for _, c := range cands {
		if from.DistanceSquared(c.Pos) < limit {
			inRange = append(inRange, c)
		}
	}
	best, ok := netid.Nearest(inRange, candidateID, func(c Candidate) vmath.Wide {
		return from.DistanceSquared(c.Pos)
	})
	if !ok {
		return Candidate{}, 0, false
	}
	return best, from.DistanceSquared(best.Pos), true
}

// SelectTarget picks the agent's goal: a player within twice the attack range
// wins outright, otherwise a breakable obstacle closer than the nearest player,
// otherwise the nearest player. Nothing in aggro range leaves the agent idle.
// obstacles must already be filtered to ones the agent can break.
func SelectTarget(a *Agent, players, obstacles []Candidate, cfg Config) {
	player, playerDist, hasPlayer := nearestWithin(a.Pos, players, cfg.AggroRange)
	if hasPlayer {
		reach := cfg.AttackRange.MulInt(2)
		if playerDist < vmath.MulFixed(reach, reach) {
			a.chase(TargetPlayer, player)
			return
		}
	}

	if ob, obDist, ok := nearestWithin(a.Pos, obstacles, cfg.AggroRange); ok {
		if !hasPlayer || obDist < playerDist {
			a.chase(TargetObstacle, ob)
			return
		}
	}

	if hasPlayer {
		a.chase(TargetPlayer, player)
		return
	}
	a.Mode = ModeIdle
	a.Target = Target{}
}

func (a *Agent) chase(kind TargetKind, c Candidate) {
	a.Mode = ModeChasing
	a.Target = Target{Kind: kind, ID: c.ID, LastKnown: c.Pos}
}
