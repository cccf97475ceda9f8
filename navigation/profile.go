package navigation

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownProfile is returned when parsing an unrecognized profile name
var ErrUnknownProfile = errors.New("unknown navigation profile")

// Profile is a movement class defined by which obstacle types it passes
type Profile uint8

const (
	// ProfileGround respects every obstacle
	ProfileGround Profile = iota
	// ProfileGroundBreaker paths through breakable obstacles, still attacks them
	ProfileGroundBreaker
	// ProfileFlying ignores water and pits
	ProfileFlying
	// ProfilePhasing ignores everything except solid walls
	ProfilePhasing

	profileCount
)

// Profiles lists every profile in declaration order
var Profiles = [profileCount]Profile{ProfileGround, ProfileGroundBreaker, ProfileFlying, ProfilePhasing}

var profileNames = [profileCount]string{"ground", "ground_breaker", "flying", "phasing"}

func (p Profile) String() string {
	if p < profileCount {
		return profileNames[p]
	}
	return fmt.Sprintf("profile(%d)", uint8(p))
}

func ParseProfile(s string) (Profile, error) {
	for i, n := range profileNames {
		if strings.EqualFold(s, n) {
			return Profile(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownProfile, s)
}

func (p Profile) Valid() bool { return p < profileCount }

// CanPass is the exhaustive capability table
func (p Profile) CanPass(t ObstacleType) bool {
	switch p {
	case ProfileGround:
		return false
	case ProfileGroundBreaker:
		return t.Breakable()
	case ProfileFlying:
		return t == ObstacleWater || t == ObstaclePit
	case ProfilePhasing:
		return t != ObstacleWall
	}
	return false
}

// CanCross reports physical passage; breakers path through breakables but
// must still destroy them before moving on
func (p Profile) CanCross(t ObstacleType) bool {
	if p == ProfileGroundBreaker {
		return false
	}
	return p.CanPass(t)
}

func (p *Profile) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseProfile(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*p = v
	return nil
}

func (p Profile) MarshalYAML() (any, error) { return p.String(), nil }
