package navigation

import (
	"fmt"
	"strings"
)

// ObstacleType is the closed set of obstacle classes
type ObstacleType uint8

const (
	ObstacleWall ObstacleType = iota
	ObstacleWindow
	ObstacleBarricade
	ObstacleWater
	ObstaclePit
	ObstacleLowCover

	obstacleTypeCount
)

// ObstacleTypes lists every type in declaration order
var ObstacleTypes = [obstacleTypeCount]ObstacleType{
	ObstacleWall, ObstacleWindow, ObstacleBarricade, ObstacleWater, ObstaclePit, ObstacleLowCover,
}

var obstacleNames = [obstacleTypeCount]string{
	"wall", "window", "barricade", "water", "pit", "low_cover",
}

func (t ObstacleType) String() string {
	if t < obstacleTypeCount {
		return obstacleNames[t]
	}
	return fmt.Sprintf("obstacle(%d)", uint8(t))
}

// ParseObstacleType accepts the names printed by String
func ParseObstacleType(s string) (ObstacleType, error) {
	for i, n := range obstacleNames {
		if strings.EqualFold(s, n) {
			return ObstacleType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown obstacle type %q", s)
}

// Breakable reports types that can typically be destroyed
func (t ObstacleType) Breakable() bool {
	return t == ObstacleWindow || t == ObstacleBarricade
}

// AllowsAttackThrough reports types that projectiles cross
func (t ObstacleType) AllowsAttackThrough() bool {
	return t == ObstacleWindow || t == ObstacleLowCover
}

// BlocksGround reports types blocking ground movement by default
func (t ObstacleType) BlocksGround() bool {
	return t != ObstacleLowCover
}

// BlocksFlying reports types blocking flying movement
func (t ObstacleType) BlocksFlying() bool {
	return t == ObstacleWall
}

// Obstacle is the per-instance state of a blocking entity
// MaxHealth zero means the obstacle has no health and cannot be destroyed
type Obstacle struct {
	Type                ObstacleType `msgpack:"type" json:"type"`
	BlocksMovement      bool         `msgpack:"blocks" json:"blocks_movement"`
	AllowsAttackThrough bool         `msgpack:"attack" json:"allows_attack_through"`
	Breakable           bool         `msgpack:"breakable" json:"breakable"`
	Health              uint32       `msgpack:"hp" json:"health"`
	MaxHealth           uint32       `msgpack:"max_hp" json:"max_health"`
}

// NewObstacle returns the default properties for a type
func NewObstacle(t ObstacleType) Obstacle {
	o := Obstacle{Type: t, BlocksMovement: true}
	switch t {
	case ObstacleWall:
	case ObstacleWindow:
		o.AllowsAttackThrough, o.Breakable = true, true
		o.Health, o.MaxHealth = 3, 3
	case ObstacleBarricade:
		o.Breakable = true
		o.Health, o.MaxHealth = 5, 5
	case ObstacleWater, ObstaclePit:
		o.AllowsAttackThrough = true
	case ObstacleLowCover:
		o.AllowsAttackThrough, o.Breakable = true, true
		o.Health, o.MaxHealth = 2, 2
	}
	return o
}

// WithHealth overrides health and makes the obstacle breakable
func (o Obstacle) WithHealth(hp uint32) Obstacle {
	o.Health, o.MaxHealth = hp, hp
	o.Breakable = true
	return o
}

// TakeDamage saturates health at zero, returns true when this hit destroyed it
func (o *Obstacle) TakeDamage(dmg uint32) bool {
	if o.MaxHealth == 0 || o.Health == 0 {
		return false
	}
	if dmg >= o.Health {
		o.Health = 0
	} else {
		o.Health -= dmg
	}
	if o.Health == 0 {
		o.BlocksMovement = false
		return true
	}
	return false
}

func (o Obstacle) Destroyed() bool { return o.MaxHealth > 0 && o.Health == 0 }

// Intact is true while health remains, non-breakable obstacles are always intact
func (o Obstacle) Intact() bool { return o.MaxHealth == 0 || o.Health > 0 }

// Repair restores health up to MaxHealth, returns true when a destroyed
// obstacle blocks movement again
func (o *Obstacle) Repair(hp uint32) bool {
	if o.MaxHealth == 0 || hp == 0 || o.Health == o.MaxHealth {
		return false
	}
	wasDestroyed := o.Health == 0
	o.Health = min(o.Health+hp, o.MaxHealth)
	if wasDestroyed {
		o.BlocksMovement = true
		return true
	}
	return false
}
