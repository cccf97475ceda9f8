package vmath

import (
	"math"
	"math/bits"
)

// Q32.32 wide constants
const (
	WideShift = 32
	WideScale = 1 << WideShift
)

// Wide is a signed Q32.32 scalar for squared lengths and other intermediates
// that would lose precision in Q16.16
type Wide int64

const (
	WideZero Wide = 0
	WideOne  Wide = WideScale
	MaxWide  Wide = math.MaxInt64
	MinWide  Wide = math.MinInt64
)

// WideFromInt converts an integer, saturating outside the int32 range
func WideFromInt(i int) Wide {
	if i > math.MaxInt32 {
		return MaxWide
	}
	if i < math.MinInt32 {
		return MinWide
	}
	return Wide(int64(i) << WideShift)
}

// Narrow converts to Q16.16, rounding toward negative infinity and saturating
func (w Wide) Narrow() Fixed {
	return sat(int64(w) >> (WideShift - Shift))
}

func (w Wide) Float() float64 { return float64(w) / WideScale }

func (w Wide) Add(o Wide) Wide {
	r := w + o
	// Overflow when operands share a sign that the result lost
	if (w >= 0) == (o >= 0) && (r >= 0) != (w >= 0) {
		if w >= 0 {
			return MaxWide
		}
		return MinWide
	}
	return r
}

func (w Wide) Sub(o Wide) Wide {
	if o == MinWide {
		if w >= 0 {
			return MaxWide
		}
		return w - o
	}
	return w.Add(-o)
}

func (w Wide) Neg() Wide {
	if w == MinWide {
		return MaxWide
	}
	return -w
}

func (w Wide) Abs() Wide {
	if w < 0 {
		return w.Neg()
	}
	return w
}

// uabs returns |x| as uint64, valid for MinInt64
func uabs(x int64) uint64 {
	if x < 0 {
		return uint64(-(x + 1)) + 1
	}
	return uint64(x)
}

// Mul multiplies with a 128-bit intermediate, saturating
func (w Wide) Mul(o Wide) Wide {
	if w == 0 || o == 0 {
		return 0
	}
	negative := (w < 0) != (o < 0)
	hi, lo := bits.Mul64(uabs(int64(w)), uabs(int64(o)))
	// Q32.32 * Q32.32 = Q64.64, shift right 32 for Q32.32
	if hi>>31 != 0 {
		if negative {
			return MinWide
		}
		return MaxWide
	}
	result := int64((hi << 32) | (lo >> 32))
	if negative {
		return Wide(-result)
	}
	return Wide(result)
}

// Div divides with a 128-bit intermediate, saturating; division by zero yields zero
func (w Wide) Div(o Wide) Wide {
	if o == 0 {
		return 0
	}
	negative := (w < 0) != (o < 0)
	ua, ub := uabs(int64(w)), uabs(int64(o))

	// a << 32 as 128-bit: hi = a >> 32, lo = a << 32
	hi := ua >> 32
	lo := ua << 32

	// Quotient does not fit in 64 bits
	if hi >= ub {
		if negative {
			return MinWide
		}
		return MaxWide
	}

	quo, _ := bits.Div64(hi, lo, ub)
	if quo > math.MaxInt64 {
		if negative {
			return MinWide
		}
		return MaxWide
	}
	if negative {
		return Wide(-int64(quo))
	}
	return Wide(quo)
}

// Sqrt returns the Q32.32 square root, zero for non-positive input
func (w Wide) Sqrt() Wide {
	if w <= 0 {
		return 0
	}
	// sqrt(raw / 2^32) * 2^32 = sqrt(raw * 2^32)
	return Wide(isqrt128(uint64(w)>>32, uint64(w)<<32))
}

// Cmp returns -1, 0 or 1
func (w Wide) Cmp(o Wide) int {
	switch {
	case w < o:
		return -1
	case w > o:
		return 1
	}
	return 0
}

// MulFixed multiplies two Q16.16 values into an exact Q32.32 product
func MulFixed(a, b Fixed) Wide {
	return Wide(int64(a) * int64(b))
}

// isqrt64 returns floor(sqrt(n))
func isqrt64(n uint64) uint64 {
	if n < 2 {
		return n
	}
	x := uint64(1) << ((bits.Len64(n) + 1) / 2)
	for {
		y := (x + n/x) >> 1
		if y >= x {
			return x
		}
		x = y
	}
}

// isqrt128 returns floor(sqrt(hi<<64 | lo)) for inputs below 2^126
func isqrt128(hi, lo uint64) uint64 {
	if hi == 0 {
		return isqrt64(lo)
	}
	n := bits.Len64(hi) + 64
	x := uint64(1) << ((n + 1) / 2)
	for {
		q, _ := bits.Div64(hi, lo, x)
		y := (x >> 1) + (q >> 1) + (x & q & 1)
		if y >= x {
			return x
		}
		x = y
	}
}
