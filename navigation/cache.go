package navigation

import (
	"golang.org/x/sync/errgroup"
)

// Cache holds one flow field per active profile plus the blocked cells they were
// built from. It lives inside the simulation snapshot, so every field is state.
type Cache struct {
	Target       GridPos                  `msgpack:"target"`
	LastUpdate   uint32                   `msgpack:"last_update"`
	Primed       bool                     `msgpack:"primed"` // First refresh may run immediately
	Layers       [profileCount]*FlowField `msgpack:"layers"`
	Blocked      Blocked                  `msgpack:"blocked"`
	BlockedDirty bool                     `msgpack:"blocked_dirty"`
	Rebuilds     uint32                   `msgpack:"rebuilds"`
}

// RefreshReport describes what one Refresh call did
type RefreshReport struct {
	Throttled bool
	Rebuilt   bool
	Holes     int // Window cells opened in the static walls
	Stats     [profileCount]BuildStats
}

// CellsProcessed sums BFS work across profiles
func (r RefreshReport) CellsProcessed() int {
	n := 0
	for _, s := range r.Stats {
		n += s.CellsProcessed
	}
	return n
}

// Truncated reports whether any profile hit the cell cap
func (r RefreshReport) Truncated() bool {
	for _, s := range r.Stats {
		if s.Truncated {
			return true
		}
	}
	return false
}

// MarkBlockedDirty forces a rebuild on the next eligible frame even if the target holds still
func (c *Cache) MarkBlockedDirty() {
	c.BlockedDirty = true
}

// Field returns the layer for a profile, nil if not built
func (c *Cache) Field(p Profile) *FlowField {
	if !p.Valid() {
		return nil
	}
	return c.Layers[p]
}

func (c *Cache) empty(profiles []Profile) bool {
	for _, p := range profiles {
		if c.Layers[p] == nil {
			return true
		}
	}
	return false
}

// Refresh rebuilds all active layers at most once per UpdateInterval frames,
// and only when the target changed cell, a layer is missing or blocked cells
// changed. Passing the interval gate consumes it even when nothing is rebuilt.
func (c *Cache) Refresh(frame uint32, target GridPos, geo Geometry, p Params) RefreshReport {
	if c.Primed && frame >= c.LastUpdate && frame-c.LastUpdate < p.UpdateInterval {
		return RefreshReport{Throttled: true}
	}
	c.Primed = true
	c.LastUpdate = frame

	if target == c.Target && !c.empty(p.Profiles) && !c.BlockedDirty {
		return RefreshReport{}
	}

	report := RefreshReport{Rebuilt: true}
	c.Target = target
	report.Holes = c.Blocked.Rebuild(geo, p.CellSize)
	c.BlockedDirty = false

	var layers [profileCount]*FlowField
	if p.Parallel && len(p.Profiles) > 1 {
		// Each goroutine owns its slot; Blocked is read-only here
		var g errgroup.Group
		for _, pr := range p.Profiles {
			g.Go(func() error {
				layers[pr], report.Stats[pr] = Build(target, pr, &c.Blocked, p)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for _, pr := range p.Profiles {
			layers[pr], report.Stats[pr] = Build(target, pr, &c.Blocked, p)
		}
	}
	c.Layers = layers
	c.Rebuilds++
	return report
}

// Clone deep-copies the cache for snapshots
func (c *Cache) Clone() Cache {
	out := *c
	out.Blocked = c.Blocked.Clone()
	for i, l := range c.Layers {
		out.Layers[i] = l.Clone()
	}
	return out
}
