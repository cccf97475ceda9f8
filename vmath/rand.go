package vmath

// Rand is a xorshift64 generator whose whole state is one exported word,
// so it travels inside simulation snapshots
type Rand struct {
	State uint64 `msgpack:"state"`
}

// NewRand seeds the generator, zero seed is replaced since xorshift sticks at zero
func NewRand(seed uint64) Rand {
	if seed == 0 {
		seed = 1
	}
	return Rand{State: seed}
}

func (r *Rand) Next() uint64 {
	x := r.State
	if x == 0 {
		x = 1
	}
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	r.State = x
	return x
}

func (r *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Next() % uint64(n))
}

// Fixed01 returns a value in [0, One)
func (r *Rand) Fixed01() Fixed {
	return Fixed(r.Next() >> (64 - Shift))
}

// FixedRange returns a value in [lo, hi)
func (r *Rand) FixedRange(lo, hi Fixed) Fixed {
	if hi <= lo {
		return lo
	}
	span := uint64(int64(hi) - int64(lo))
	return Fixed(int64(lo) + int64(r.Next()%span))
}

// FixedSymmetric returns a value in [-r, r)
func (r *Rand) FixedSymmetric(radius Fixed) Fixed {
	return r.FixedRange(radius.Neg(), radius)
}
