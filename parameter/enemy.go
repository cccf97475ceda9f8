package parameter

// Agent steering, in world units per second unless noted
const (
	// EnemySpeed is the base chase speed
	EnemySpeed = 80

	// EnemySeparationRadius is the neighbor distance that contributes repulsion
	EnemySeparationRadius = 40

	// EnemySeparationForce scales the averaged repulsion
	EnemySeparationForce = 2

	// EnemyOptimalDistance is the ring around the target where agents stop
	EnemyOptimalDistance = 30

	// EnemySlowdownDistance is the band beyond the optimal ring where speed ramps up
	EnemySlowdownDistance = 50

	// EnemyMinSeparationDistanceTenths is the distance, in tenths of a unit, below which repulsion is ignored
	EnemyMinSeparationDistanceTenths = 1

	// EnemyColliderRadius is the default agent body radius
	EnemyColliderRadius = 6

	// EnemyAggroRange is the distance within which players and obstacles are noticed
	EnemyAggroRange = 300

	// EnemyAttackRange is the reach of a melee attack measured between positions
	EnemyAttackRange = 35

	// EnemyAttackCooldownFrames is the delay between two attacks of one agent
	EnemyAttackCooldownFrames = 60

	// EnemyAttackDamage is health removed from a player per hit
	EnemyAttackDamage = 10

	// EnemyObstacleDamage is damage dealt per hit to a breakable obstacle
	EnemyObstacleDamage = 1
)
