package steering

import (
	"errors"
	"fmt"

	"github.com/bascanada/alacod-sub000/parameter"
	"github.com/bascanada/alacod-sub000/vmath"
)

var ErrInvalidConfig = errors.New("invalid steering config")

// Config is static tuning shared by every peer
type Config struct {
	Speed            vmath.Fixed `yaml:"speed"`
	SeparationRadius vmath.Fixed `yaml:"separation_radius"`
	SeparationForce  vmath.Fixed `yaml:"separation_force"`
	OptimalDistance  vmath.Fixed `yaml:"optimal_distance"`
	SlowdownDistance vmath.Fixed `yaml:"slowdown_distance"`
	MinSeparation    vmath.Fixed `yaml:"min_separation"`
	// VelocityEpsilon is the squared speed at or below which an agent does not move
	VelocityEpsilon vmath.Fixed `yaml:"velocity_epsilon"`
	// FacingThreshold is the horizontal speed needed to flip facing
	FacingThreshold vmath.Fixed `yaml:"facing_threshold"`
	Timestep        vmath.Fixed `yaml:"timestep"`
	// NormalizeEpsilon is the squared length below which directions collapse to zero
	NormalizeEpsilon vmath.Fixed `yaml:"normalize_epsilon"`
	AggroRange       vmath.Fixed `yaml:"aggro_range"`
	AttackRange      vmath.Fixed `yaml:"attack_range"`
}

func DefaultConfig() Config {
	return Config{
		Speed:            vmath.FromInt(parameter.EnemySpeed),
		SeparationRadius: vmath.FromInt(parameter.EnemySeparationRadius),
		SeparationForce:  vmath.FromInt(parameter.EnemySeparationForce),
		OptimalDistance:  vmath.FromInt(parameter.EnemyOptimalDistance),
		SlowdownDistance: vmath.FromInt(parameter.EnemySlowdownDistance),
		MinSeparation:    vmath.FromRatio(parameter.EnemyMinSeparationDistanceTenths, 10),
		VelocityEpsilon:  vmath.FromRatio(1, 100),
		FacingThreshold:  vmath.FromRatio(1, 10),
		Timestep:         vmath.FromRatio(1, parameter.TickRate),
		NormalizeEpsilon: vmath.FromRaw(1 << (vmath.Shift - parameter.NormalizeEpsilonShift)),
		AggroRange:       vmath.FromInt(parameter.EnemyAggroRange),
		AttackRange:      vmath.FromInt(parameter.EnemyAttackRange),
	}
}

// Epsilon returns NormalizeEpsilon in the wide squared-length domain
func (c Config) Epsilon() vmath.Wide { return c.NormalizeEpsilon.Widen() }

func (c Config) Validate() error {
	switch {
	case c.Speed < 0:
		return fmt.Errorf("%w: speed must not be negative", ErrInvalidConfig)
	case c.Timestep <= 0:
		return fmt.Errorf("%w: timestep must be positive", ErrInvalidConfig)
	case c.SlowdownDistance < c.OptimalDistance:
		return fmt.Errorf("%w: slowdown_distance %s below optimal_distance %s",
			ErrInvalidConfig, c.SlowdownDistance, c.OptimalDistance)
	case c.NormalizeEpsilon < 0:
		return fmt.Errorf("%w: normalize_epsilon must not be negative", ErrInvalidConfig)
	}
	return nil
}
