package vmath

// Vec3 is a 3D vector in Q16.16 fixed-point
type Vec3 struct {
	X Fixed `msgpack:"x" json:"x"`
	Y Fixed `msgpack:"y" json:"y"`
	Z Fixed `msgpack:"z" json:"z"`
}

// V3One is the unit scale vector
var V3One = Vec3{One, One, One}

func V3(x, y, z Fixed) Vec3 { return Vec3{x, y, z} }

func (v Vec3) Add(o Vec3) Vec3    { return Vec3{v.X.Add(o.X), v.Y.Add(o.Y), v.Z.Add(o.Z)} }
func (v Vec3) Sub(o Vec3) Vec3    { return Vec3{v.X.Sub(o.X), v.Y.Sub(o.Y), v.Z.Sub(o.Z)} }
func (v Vec3) Neg() Vec3          { return Vec3{v.X.Neg(), v.Y.Neg(), v.Z.Neg()} }
func (v Vec3) Scale(s Fixed) Vec3 { return Vec3{v.X.Mul(s), v.Y.Mul(s), v.Z.Mul(s)} }
func (v Vec3) Div(s Fixed) Vec3   { return Vec3{v.X.Div(s), v.Y.Div(s), v.Z.Div(s)} }

// MulElem multiplies component-wise
func (v Vec3) MulElem(o Vec3) Vec3 { return Vec3{v.X.Mul(o.X), v.Y.Mul(o.Y), v.Z.Mul(o.Z)} }

// Truncate drops z
func (v Vec3) Truncate() Vec2 { return Vec2{v.X, v.Y} }

func (v Vec3) Dot(o Vec3) Wide {
	return MulFixed(v.X, o.X).Add(MulFixed(v.Y, o.Y)).Add(MulFixed(v.Z, o.Z))
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		MulFixed(v.Y, o.Z).Sub(MulFixed(v.Z, o.Y)).Narrow(),
		MulFixed(v.Z, o.X).Sub(MulFixed(v.X, o.Z)).Narrow(),
		MulFixed(v.X, o.Y).Sub(MulFixed(v.Y, o.X)).Narrow(),
	}
}

func (v Vec3) LengthSquared() Wide { return v.Dot(v) }
func (v Vec3) Length() Fixed       { return v.LengthSquared().Sqrt().Narrow() }

func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return Vec3{v.X.Div(l), v.Y.Div(l), v.Z.Div(l)}
}

func (v Vec3) NormalizeOrZero() Vec3 {
	return v.NormalizeWithin(DefaultNormalizeEpsilon)
}

func (v Vec3) NormalizeWithin(eps Wide) Vec3 {
	if v.LengthSquared() <= eps {
		return Vec3{}
	}
	return v.Normalize()
}

// ClampLength limits vector magnitude
func (v Vec3) ClampLength(maxLen Fixed) Vec3 {
	if maxLen <= 0 {
		return Vec3{}
	}
	if v.LengthSquared() <= MulFixed(maxLen, maxLen) {
		return v
	}
	return v.Normalize().Scale(maxLen)
}
