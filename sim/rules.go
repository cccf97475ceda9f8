package sim

import (
	"errors"
	"fmt"

	"github.com/bascanada/alacod-sub000/navigation"
	"github.com/bascanada/alacod-sub000/parameter"
	"github.com/bascanada/alacod-sub000/steering"
	"github.com/bascanada/alacod-sub000/vmath"
)

var ErrInvalidRules = errors.New("invalid simulation rules")

// PlayerRules tunes player movement and interaction
type PlayerRules struct {
	Speed            vmath.Fixed `yaml:"speed"`
	SprintMultiplier vmath.Fixed `yaml:"sprint_multiplier"`
	Friction         vmath.Fixed `yaml:"friction"`
	Radius           vmath.Fixed `yaml:"radius"`
	Health           int32       `yaml:"health"`
	CrowdSlowdown    vmath.Fixed `yaml:"crowd_slowdown"`
	CrowdFloor       vmath.Fixed `yaml:"crowd_floor"`
	InteractRange    vmath.Fixed `yaml:"interact_range"`
	RepairAmount     uint32      `yaml:"repair_amount"`
	RepairInterval   uint32      `yaml:"repair_interval"`
}

// AgentRules tunes agent bodies and attacks
type AgentRules struct {
	Radius         vmath.Fixed `yaml:"radius"`
	AttackCooldown uint32      `yaml:"attack_cooldown"`
	AttackDamage   int32       `yaml:"attack_damage"`
	ObstacleDamage uint32      `yaml:"obstacle_damage"`
}

// SpawnRules drives the wave spawner; a zero interval disables it
type SpawnRules struct {
	Interval  uint32 `yaml:"interval"`
	MaxAgents int    `yaml:"max_agents"`
}

// Rules is the static configuration every peer must share
type Rules struct {
	Navigation navigation.Params `yaml:"navigation"`
	Steering   steering.Config   `yaml:"steering"`
	Player     PlayerRules       `yaml:"player"`
	Agent      AgentRules        `yaml:"agent"`
	Spawn      SpawnRules        `yaml:"spawn"`
}

func DefaultRules() Rules {
	return Rules{
		Navigation: navigation.DefaultParams(),
		Steering:   steering.DefaultConfig(),
		Player: PlayerRules{
			Speed:            vmath.FromInt(parameter.PlayerSpeed),
			SprintMultiplier: vmath.FromRatio(3, 2),
			Friction:         vmath.FromInt(10),
			Radius:           vmath.FromInt(parameter.PlayerColliderRadius),
			Health:           parameter.PlayerHealth,
			CrowdSlowdown:    vmath.FromRatio(parameter.PlayerCrowdSlowdownPercent, 100),
			CrowdFloor:       vmath.FromRatio(parameter.PlayerCrowdSlowdownFloorPercent, 100),
			InteractRange:    vmath.FromInt(50),
			RepairAmount:     1,
			RepairInterval:   30,
		},
		Agent: AgentRules{
			Radius:         vmath.FromInt(parameter.EnemyColliderRadius),
			AttackCooldown: parameter.EnemyAttackCooldownFrames,
			AttackDamage:   parameter.EnemyAttackDamage,
			ObstacleDamage: parameter.EnemyObstacleDamage,
		},
	}
}

func (r Rules) Validate() error {
	if err := r.Navigation.Validate(); err != nil {
		return err
	}
	if err := r.Steering.Validate(); err != nil {
		return err
	}
	if r.Player.Speed < 0 || r.Player.Radius <= 0 {
		return fmt.Errorf("%w: player speed and radius must be positive", ErrInvalidRules)
	}
	if r.Agent.Radius <= 0 {
		return fmt.Errorf("%w: agent radius must be positive", ErrInvalidRules)
	}
	if r.Spawn.Interval > 0 && r.Spawn.MaxAgents <= 0 {
		return fmt.Errorf("%w: spawn max_agents must be positive when interval is set", ErrInvalidRules)
	}
	return nil
}
