package vmath

// Tables are generated from integer series in Q32.32 so every platform builds
// bit-identical values
func init() {
	var quarter [quarterLUT + 1]Fixed
	for i := 0; i <= quarterLUT; i++ {
		x := Wide(int64(wideHalfPi) * int64(i) / quarterLUT)
		quarter[i] = roundWide(sinSeries(x))
	}
	for i := 0; i <= LUTSize; i++ {
		r := i % quarterLUT
		switch (i / quarterLUT) & 3 {
		case 0:
			sinLUT[i] = quarter[r]
		case 1:
			sinLUT[i] = quarter[quarterLUT-r]
		case 2:
			sinLUT[i] = -quarter[r]
		case 3:
			sinLUT[i] = -quarter[quarterLUT-r]
		}
	}

	// Atan LUT: ratio [0,1] -> angle [0, π/4]
	for i := 0; i <= atanLUTSize; i++ {
		ratio := Wide(int64(i) << WideShift / atanLUTSize)
		atanLUT[i] = roundWide(atanSeries(ratio))
	}
}

const (
	quarterLUT  = LUTSize / 4
	atanLUTSize = 256

	wideHalfPi Wide = 6746518852 // π/2 in Q32.32
)

var (
	// sinLUT covers [0, 2π] in LUTSize steps, last entry closes the period
	sinLUT [LUTSize + 1]Fixed

	// atanLUT maps ratio [0,1] to angle [0, π/4]
	atanLUT [atanLUTSize + 1]Fixed
)

// roundWide narrows to Q16.16 rounding half up
func roundWide(w Wide) Fixed {
	return sat((int64(w) + 1<<(WideShift-Shift-1)) >> (WideShift - Shift))
}

// sinSeries evaluates the Taylor series for x in [0, π/2]
func sinSeries(x Wide) Wide {
	x2 := x.Mul(x)
	term, sum := x, x
	for k := int64(1); k <= 10; k++ {
		term = Wide(int64(term.Mul(x2)) / ((2 * k) * (2*k + 1))).Neg()
		sum = sum.Add(term)
	}
	return sum
}

// atanSeries halves the argument twice via atan(r) = 2·atan(r / (1 + √(1+r²)))
// so the alternating series converges quickly, for r in [0, 1]
func atanSeries(r Wide) Wide {
	t := r
	for h := 0; h < 2; h++ {
		t = t.Div(WideOne.Add(WideOne.Add(t.Mul(t)).Sqrt()))
	}
	t2 := t.Mul(t)
	term, sum := t, t
	for k := int64(1); k <= 12; k++ {
		term = term.Mul(t2).Neg()
		sum = sum.Add(Wide(int64(term) / (2*k + 1)))
	}
	return Wide(int64(sum) << 2)
}

// lutPos maps radians onto table positions with 16 fractional bits
func lutPos(a Fixed) int64 {
	r := int64(a) % int64(Tau)
	if r < 0 {
		r += int64(Tau)
	}
	return (r << Shift) * LUTSize / int64(Tau)
}

// lutAt interpolates the sine table at a position, wrapping at one period
func lutAt(pos int64) Fixed {
	pos &= LUTSize<<Shift - 1
	idx := pos >> Shift
	frac := pos & Mask
	v0, v1 := sinLUT[idx], sinLUT[idx+1]
	return v0 + Fixed((int64(v1-v0)*frac)>>Shift)
}

// --- Trigonometry ---

// Sin returns the sine of an angle in radians
func Sin(a Fixed) Fixed { return lutAt(lutPos(a)) }

// Cos returns the cosine of an angle in radians, a quarter period ahead of Sin
func Cos(a Fixed) Fixed { return lutAt(lutPos(a) + quarterLUT<<Shift) }

// Atan2 returns the angle of (x, y) in radians within [-π, π], zero for the origin
func Atan2(y, x Fixed) Fixed {
	if x == 0 && y == 0 {
		return 0
	}
	ax, ay := uabs(int64(x)), uabs(int64(y))

	// Octant reduction: ratio always in [0,1]
	swap := ay > ax
	num, den := ay, ax
	if swap {
		num, den = ax, ay
	}

	pos := int64((num << Shift) * atanLUTSize / den)
	idx := pos >> Shift
	frac := pos & Mask
	angle := atanLUT[idx]
	if idx < atanLUTSize {
		angle += Fixed((int64(atanLUT[idx+1]-angle) * frac) >> Shift)
	}

	if swap {
		angle = HalfPi - angle
	}
	if x < 0 {
		angle = Pi - angle
	}
	if y < 0 {
		angle = -angle
	}
	return angle
}
