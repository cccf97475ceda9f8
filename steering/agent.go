package steering

import (
	"github.com/bascanada/alacod-sub000/navigation"
	"github.com/bascanada/alacod-sub000/netid"
	"github.com/bascanada/alacod-sub000/physics"
	"github.com/bascanada/alacod-sub000/vmath"
)

// Mode is the agent behavior state
type Mode uint8

const (
	ModeIdle Mode = iota
	ModeChasing
)

func (m Mode) String() string {
	if m == ModeChasing {
		return "chasing"
	}
	return "idle"
}

// TargetKind tells what an agent is chasing
type TargetKind uint8

const (
	TargetNone TargetKind = iota
	TargetPlayer
	TargetObstacle
)

// Target is the agent's current goal and where it was last seen
type Target struct {
	Kind      TargetKind  `msgpack:"kind"`
	ID        netid.NetID `msgpack:"id"`
	LastKnown vmath.Vec2  `msgpack:"last"`
}

// Facing is the horizontal sprite orientation
type Facing int8

const (
	FacingRight Facing = 1
	FacingLeft  Facing = -1
)

// Agent is one steered entity; slices of agents are kept in NetID order
type Agent struct {
	ID         netid.NetID        `msgpack:"id"`
	Pos        vmath.Vec2         `msgpack:"pos"`
	Vel        vmath.Vec2         `msgpack:"vel"`
	Profile    navigation.Profile `msgpack:"profile"`
	Body       physics.Collider   `msgpack:"body"`
	Mode       Mode               `msgpack:"mode"`
	Target     Target             `msgpack:"target"`
	Facing     Facing             `msgpack:"facing"`
	NextAttack uint32             `msgpack:"next_attack"` // First frame a new attack is allowed
}

func (a Agent) NetID() netid.NetID { return a.ID }

// UpdateFacing flips orientation once horizontal speed passes the threshold
func (a *Agent) UpdateFacing(threshold vmath.Fixed) {
	switch {
	case a.Vel.X > threshold:
		a.Facing = FacingRight
	case a.Vel.X < threshold.Neg():
		a.Facing = FacingLeft
	}
}
