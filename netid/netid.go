// Package netid provides rollback-stable entity identity and the deterministic
// orderings built on it
package netid

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/bascanada/alacod-sub000/vmath"
)

// NetID is a monotonically assigned identifier plus a debug label
type NetID struct {
	ID    uint64 `msgpack:"id" json:"id"`
	Label string `msgpack:"label" json:"label"`
}

func (n NetID) String() string {
	return fmt.Sprintf("(%s-%d)", n.Label, n.ID)
}

// IsZero reports an unassigned id, the factory never hands out zero
func (n NetID) IsZero() bool { return n.ID == 0 }

// Compare orders by ID, then Label
func Compare(a, b NetID) int {
	if c := cmp.Compare(a.ID, b.ID); c != 0 {
		return c
	}
	return cmp.Compare(a.Label, b.Label)
}

func Less(a, b NetID) bool { return Compare(a, b) < 0 }

// Factory hands out ids; it is a value field of simulation state so rollback
// restores the counter with everything else
type Factory struct {
	Counter uint64 `msgpack:"counter"`
}

// Next increments before assigning, first id is 1
func (f *Factory) Next(label string) NetID {
	f.Counter++
	return NetID{ID: f.Counter, Label: label}
}

// Identified is implemented by anything carrying a NetID
type Identified interface {
	NetID() NetID
}

// Sort orders items by NetID in place
func Sort[T any](items []T, key func(T) NetID) {
	slices.SortStableFunc(items, func(a, b T) int {
		return Compare(key(a), key(b))
	})
}

// SortIdentified orders items exposing NetID()
func SortIdentified[T Identified](items []T) {
	Sort(items, func(it T) NetID { return it.NetID() })
}

// Sorted returns a sorted copy, leaving the input untouched
func Sorted[T any](items []T, key func(T) NetID) []T {
	out := slices.Clone(items)
	Sort(out, key)
	return out
}

// Lowest returns the element with the lowest NetID
func Lowest[T any](items []T, key func(T) NetID) (T, bool) {
	var best T
	if len(items) == 0 {
		return best, false
	}
	best = items[0]
	for _, it := range items[1:] {
		if Less(key(it), key(best)) {
			best = it
		}
	}
	return best, true
}

// Nearest returns the element with the smallest distance, ties broken by lowest
// NetID, so the result does not depend on the order of items
func Nearest[T any](items []T, key func(T) NetID, dist func(T) vmath.Wide) (T, bool) {
	var best T
	if len(items) == 0 {
		return best, false
	}
	best = items[0]
	bestDist := dist(best)
	for _, it := range items[1:] {
		d := dist(it)
		if d < bestDist || (d == bestDist && Less(key(it), key(best))) {
			best, bestDist = it, d
		}
	}
	return best, true
}

// Pick sorts a copy by NetID and draws one element from the rollback generator
func Pick[T any](items []T, key func(T) NetID, rng *vmath.Rand) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	sorted := Sorted(items, key)
	return sorted[rng.Intn(len(sorted))], true
}

// Shuffle permutes a sorted copy with Fisher-Yates drawn from the rollback generator
func Shuffle[T any](items []T, key func(T) NetID, rng *vmath.Rand) []T {
	out := Sorted(items, key)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
