package vmath

// DefaultNormalizeEpsilon is the squared length (2^-8) below which
// NormalizeOrZero returns the zero vector
const DefaultNormalizeEpsilon Wide = 1 << (WideShift - 8)

// Vec2 is a 2D vector in Q16.16 fixed-point
type Vec2 struct {
	X Fixed `msgpack:"x" json:"x"`
	Y Fixed `msgpack:"y" json:"y"`
}

func V2(x, y Fixed) Vec2 { return Vec2{X: x, Y: y} }

// V2Int builds a vector from integer components
func V2Int(x, y int) Vec2 { return Vec2{X: FromInt(x), Y: FromInt(y)} }

func (v Vec2) Add(o Vec2) Vec2     { return Vec2{v.X.Add(o.X), v.Y.Add(o.Y)} }
func (v Vec2) Sub(o Vec2) Vec2     { return Vec2{v.X.Sub(o.X), v.Y.Sub(o.Y)} }
func (v Vec2) Neg() Vec2           { return Vec2{v.X.Neg(), v.Y.Neg()} }
func (v Vec2) Scale(s Fixed) Vec2  { return Vec2{v.X.Mul(s), v.Y.Mul(s)} }
func (v Vec2) Div(s Fixed) Vec2    { return Vec2{v.X.Div(s), v.Y.Div(s)} }
func (v Vec2) MulElem(o Vec2) Vec2 { return Vec2{v.X.Mul(o.X), v.Y.Mul(o.Y)} }
func (v Vec2) IsZero() bool        { return v.X == 0 && v.Y == 0 }

// Extend lifts the vector into 3D with the given z
func (v Vec2) Extend(z Fixed) Vec3 { return Vec3{v.X, v.Y, z} }

// Dot returns x1*x2 + y1*y2 in Q32.32
func (v Vec2) Dot(o Vec2) Wide {
	return MulFixed(v.X, o.X).Add(MulFixed(v.Y, o.Y))
}

// Cross returns the z component of the 3D cross product in Q32.32
func (v Vec2) Cross(o Vec2) Wide {
	return MulFixed(v.X, o.Y).Sub(MulFixed(v.Y, o.X))
}

// LengthSquared returns squared magnitude without sqrt
func (v Vec2) LengthSquared() Wide { return v.Dot(v) }

// Length returns Euclidean magnitude via wide sqrt
func (v Vec2) Length() Fixed { return v.LengthSquared().Sqrt().Narrow() }

func (v Vec2) DistanceSquared(o Vec2) Wide { return v.Sub(o).LengthSquared() }
func (v Vec2) Distance(o Vec2) Fixed       { return v.Sub(o).Length() }

// Normalize returns unit vector, zero-safe
func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X.Div(l), v.Y.Div(l)}
}

// NormalizeOrZero normalizes with DefaultNormalizeEpsilon
func (v Vec2) NormalizeOrZero() Vec2 {
	return v.NormalizeWithin(DefaultNormalizeEpsilon)
}

// NormalizeWithin returns the zero vector when squared length is at or below eps
func (v Vec2) NormalizeWithin(eps Wide) Vec2 {
	if v.LengthSquared() <= eps {
		return Vec2{}
	}
	return v.Normalize()
}

// ClampLength limits vector to maxLen while preserving direction
func (v Vec2) ClampLength(maxLen Fixed) Vec2 {
	if maxLen <= 0 {
		return Vec2{}
	}
	if v.LengthSquared() <= MulFixed(maxLen, maxLen) {
		return v
	}
	return v.Normalize().Scale(maxLen)
}

// Rotate rotates vector by angle in radians using the Sin/Cos LUT
func (v Vec2) Rotate(angle Fixed) Vec2 {
	return FromAngle(angle).MulVec2(v)
}

// Perpendicular returns vector rotated 90° counter-clockwise
func (v Vec2) Perpendicular() Vec2 { return Vec2{v.Y.Neg(), v.X} }

// Angle returns the heading of the vector in radians
func (v Vec2) Angle() Fixed { return Atan2(v.Y, v.X) }

// Reflect returns v reflected off a surface with unit normal n
// v' = v - 2 * dot(v, n) * n
func (v Vec2) Reflect(n Vec2) Vec2 {
	dot2 := v.Dot(n).Narrow().MulInt(2)
	return v.Sub(n.Scale(dot2))
}
