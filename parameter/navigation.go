package parameter

// Navigation - Flow Field
const (
	// NavCellSize is the world size of one navigation cell
	NavCellSize = 20

	// NavMaxRadius is the Manhattan search radius around the target (cells)
	NavMaxRadius = 40

	// NavMaxRadiusLimit bounds max_radius so (2r+1)^2 window indexes fit in int32
	NavMaxRadiusLimit = 1 << 12

	// NavConnectivity is 4 or 8 neighbor expansion
	NavConnectivity = 8

	// NavDiagonalCost is the recorded diagonal weight; BFS costs stay hop counts
	NavDiagonalCost = 14

	// NavUpdateInterval is the minimum frames between flow field refreshes
	NavUpdateInterval = 30

	// NavNearestSearch is the ring radius scanned when an agent is outside the field (cells)
	NavNearestSearch = 5
)
