package parameter

// Player movement
const (
	// PlayerSpeed is the input-driven move speed in world units per second
	PlayerSpeed = 100

	// PlayerColliderRadius is the player body radius
	PlayerColliderRadius = 8

	// PlayerHealth is the starting health
	PlayerHealth = 100

	// PlayerCrowdSlowdownPercent is speed lost per touching enemy
	PlayerCrowdSlowdownPercent = 20

	// PlayerCrowdSlowdownFloorPercent is the minimum remaining speed under a crowd
	PlayerCrowdSlowdownFloorPercent = 30
)
