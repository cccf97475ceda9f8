package vmath

import (
	"math"
)

// Q16.16 Fixed Point constants
const (
	Shift   = 16
	Scale   = 1 << Shift
	Mask    = Scale - 1
	LUTSize = 1024
	LUTMask = LUTSize - 1
)

// Fixed is a signed Q16.16 scalar; every operation saturates to [MinFixed, MaxFixed]
type Fixed int32

const (
	Zero     Fixed = 0
	One      Fixed = Scale
	Half     Fixed = Scale / 2
	MaxFixed Fixed = math.MaxInt32
	MinFixed Fixed = math.MinInt32

	// Angles in radians, rounded to nearest raw value
	Pi     Fixed = 205887
	Tau    Fixed = 411775
	HalfPi Fixed = 102944
)

// sat clamps a 64-bit intermediate into the Fixed range
func sat(v int64) Fixed {
	if v > math.MaxInt32 {
		return MaxFixed
	}
	if v < math.MinInt32 {
		return MinFixed
	}
	return Fixed(v)
}

// --- Construction ---

// FromInt converts an integer, saturating outside ±32767
func FromInt(i int) Fixed {
	if i > math.MaxInt16 {
		return MaxFixed
	}
	if i < math.MinInt16 {
		return MinFixed
	}
	return Fixed(int32(i) << Shift)
}

// FromRaw wraps raw Q16.16 bits
func FromRaw(raw int32) Fixed { return Fixed(raw) }

// FromRatio returns num/den, zero when den is zero
func FromRatio(num, den int) Fixed {
	if den == 0 {
		return 0
	}
	return sat((int64(num) << Shift) / int64(den))
}

// Raw returns the underlying bits
func (a Fixed) Raw() int32 { return int32(a) }

// Int returns the integer part rounded toward negative infinity
func (a Fixed) Int() int { return int(a >> Shift) }

// Float is for display and debug output only, never for simulation state
func (a Fixed) Float() float64 { return float64(a) / Scale }

// Widen converts to Q32.32 without loss
func (a Fixed) Widen() Wide { return Wide(int64(a) << (WideShift - Shift)) }

// --- Arithmetic ---

func (a Fixed) Add(b Fixed) Fixed { return sat(int64(a) + int64(b)) }
func (a Fixed) Sub(b Fixed) Fixed { return sat(int64(a) - int64(b)) }
func (a Fixed) Neg() Fixed        { return sat(-int64(a)) }

// Mul rounds toward negative infinity
func (a Fixed) Mul(b Fixed) Fixed {
	return sat((int64(a) * int64(b)) >> Shift)
}

// Div truncates toward zero; division by zero yields zero
func (a Fixed) Div(b Fixed) Fixed {
	if b == 0 {
		return 0
	}
	return sat((int64(a) << Shift) / int64(b))
}

// MulInt scales by an integer
func (a Fixed) MulInt(n int) Fixed { return sat(int64(a) * int64(n)) }

// DivInt divides by an integer; division by zero yields zero
func (a Fixed) DivInt(n int) Fixed {
	if n == 0 {
		return 0
	}
	return sat(int64(a) / int64(n))
}

// Abs returns absolute value, MinFixed saturates to MaxFixed
func (a Fixed) Abs() Fixed {
	if a < 0 {
		return a.Neg()
	}
	return a
}

// Sign returns -One, 0, or One
func (a Fixed) Sign() Fixed {
	if a < 0 {
		return -One
	}
	if a > 0 {
		return One
	}
	return 0
}

// Floor clears the fractional bits
func (a Fixed) Floor() Fixed { return a &^ Mask }

// Ceil rounds up to the next integer, saturating
func (a Fixed) Ceil() Fixed { return sat((int64(a) + Mask) &^ Mask) }

func (a Fixed) Min(b Fixed) Fixed {
	if a < b {
		return a
	}
	return b
}

func (a Fixed) Max(b Fixed) Fixed {
	if a > b {
		return a
	}
	return b
}

// Clamp limits a to [lo, hi]
func (a Fixed) Clamp(lo, hi Fixed) Fixed {
	if a < lo {
		return lo
	}
	if a > hi {
		return hi
	}
	return a
}

// Lerp interpolates a toward b by t in [0, One]
func (a Fixed) Lerp(b, t Fixed) Fixed {
	return a.Add(b.Sub(a).Mul(t))
}

// MulDiv computes (a * b) / c with a 64-bit intermediate, zero when c is zero
func MulDiv(a, b, c Fixed) Fixed {
	if c == 0 {
		return 0
	}
	return sat(int64(a) * int64(b) / int64(c))
}

// floorDiv divides rounding toward negative infinity
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// FloorDiv returns floor(a / b) as an integer, zero when b is zero
func FloorDiv(a, b Fixed) int {
	if b == 0 {
		return 0
	}
	return int(floorDiv(int64(a), int64(b)))
}

// --- Square root ---

// Sqrt returns the square root, zero for non-positive input
func (a Fixed) Sqrt() Fixed {
	if a <= 0 {
		return 0
	}
	// sqrt(raw / 2^16) * 2^16 = sqrt(raw * 2^16)
	return sat(int64(isqrt64(uint64(a) << Shift)))
}
