package navigation

import (
	"errors"
	"fmt"

	"github.com/bascanada/alacod-sub000/parameter"
	"github.com/bascanada/alacod-sub000/vmath"
)

var ErrInvalidParams = errors.New("invalid navigation params")

// Params is static configuration shared by every peer
type Params struct {
	CellSize       vmath.Fixed `yaml:"cell_size"`
	MaxRadius      int         `yaml:"max_radius"`
	Connectivity   int         `yaml:"connectivity"`
	DiagonalCost   int         `yaml:"diagonal_cost"`
	UpdateInterval uint32      `yaml:"update_interval"`
	NearestSearch  int         `yaml:"nearest_search"`
	Profiles       []Profile   `yaml:"profiles"`
	// Parallel builds one field per profile concurrently
	Parallel bool `yaml:"parallel"`
}

func DefaultParams() Params {
	return Params{
		CellSize:       vmath.FromInt(parameter.NavCellSize),
		MaxRadius:      parameter.NavMaxRadius,
		Connectivity:   parameter.NavConnectivity,
		DiagonalCost:   parameter.NavDiagonalCost,
		UpdateInterval: parameter.NavUpdateInterval,
		NearestSearch:  parameter.NavNearestSearch,
		Profiles:       []Profile{ProfileGround},
		Parallel:       true,
	}
}

func (p Params) Validate() error {
	if p.CellSize <= 0 {
		return fmt.Errorf("%w: cell_size must be positive, got %s", ErrInvalidParams, p.CellSize)
	}
	if p.MaxRadius < 0 || p.MaxRadius > parameter.NavMaxRadiusLimit {
		return fmt.Errorf("%w: max_radius must be in [0, %d], got %d",
			ErrInvalidParams, parameter.NavMaxRadiusLimit, p.MaxRadius)
	}
	if p.DiagonalCost < 0 {
		return fmt.Errorf("%w: diagonal_cost must not be negative, got %d", ErrInvalidParams, p.DiagonalCost)
	}
	if p.Connectivity != 4 && p.Connectivity != 8 {
		return fmt.Errorf("%w: connectivity must be 4 or 8, got %d", ErrInvalidParams, p.Connectivity)
	}
	seen := make(map[Profile]bool, len(p.Profiles))
	for _, pr := range p.Profiles {
		if !pr.Valid() {
			return fmt.Errorf("%w: %w: %d", ErrInvalidParams, ErrUnknownProfile, pr)
		}
		if seen[pr] {
			return fmt.Errorf("%w: duplicate profile %s", ErrInvalidParams, pr)
		}
		seen[pr] = true
	}
	return nil
}
