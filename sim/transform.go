package sim

import (
	"github.com/bascanada/alacod-sub000/netid"
	"github.com/bascanada/alacod-sub000/steering"
	"github.com/bascanada/alacod-sub000/vmath"
)

// EntityKind tags a published transform
type EntityKind uint8

const (
	KindPlayer EntityKind = iota
	KindAgent
	KindObstacle
)

func (k EntityKind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindAgent:
		return "agent"
	default:
		return "obstacle"
	}
}

// EntityTransform is the read-only pose handed to the presentation layer
type EntityTransform struct {
	ID        netid.NetID     `json:"id"`
	Kind      EntityKind      `json:"kind"`
	Transform vmath.Transform `json:"transform"`
}

func facingTransform(pos vmath.Vec2, f steering.Facing) vmath.Transform {
	t := vmath.FromTranslation2D(pos)
	if f == steering.FacingLeft {
		t.Scale.X = vmath.One.Neg()
	}
	return t
}

// Transforms lists every entity pose in NetID order per kind
func Transforms(s *State) []EntityTransform {
	out := make([]EntityTransform, 0, len(s.Players)+len(s.Agents)+len(s.Obstacles))
	for _, p := range s.Players {
		out = append(out, EntityTransform{ID: p.ID, Kind: KindPlayer, Transform: facingTransform(p.Pos, p.Facing)})
	}
	for _, a := range s.Agents {
		out = append(out, EntityTransform{ID: a.ID, Kind: KindAgent, Transform: facingTransform(a.Pos, a.Facing)})
	}
	for _, o := range s.Obstacles {
		if !o.State.Intact() {
			continue
		}
		out = append(out, EntityTransform{ID: o.ID, Kind: KindObstacle, Transform: vmath.FromTranslation2D(o.Pos)})
	}
	return out
}
