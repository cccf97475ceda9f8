package vmath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ulp tolerance for LUT interpolation
const trigDelta = 8

func TestTrigLUT(t *testing.T) {
	assert.Equal(t, Fixed(0), Sin(0))
	assert.Equal(t, One, Cos(0))
	assert.InDelta(t, int64(One), int64(Sin(HalfPi)), trigDelta)
	assert.InDelta(t, 0, int64(Sin(Pi)), trigDelta)
	assert.InDelta(t, int64(-One), int64(Cos(Pi)), trigDelta)
	assert.InDelta(t, int64(-One), int64(Sin(-HalfPi)), trigDelta)

	// sin² + cos² stays near one across the period
	for a := -Tau; a < Tau; a += Tau / 97 {
		s, c := Sin(a), Cos(a)
		sum := s.Mul(s).Add(c.Mul(c))
		assert.InDelta(t, int64(One), int64(sum), 64, "angle %v", a)
	}
}

func TestAtan2(t *testing.T) {
	assert.Equal(t, Fixed(0), Atan2(0, 0))
	assert.Equal(t, Fixed(0), Atan2(0, One))
	assert.Equal(t, Pi, Atan2(0, -One))
	assert.Equal(t, HalfPi, Atan2(One, 0))
	assert.Equal(t, -HalfPi, Atan2(-One, 0))

	quarterPi := Pi.DivInt(4)
	assert.InDelta(t, int64(quarterPi), int64(Atan2(One, One)), trigDelta)
	assert.InDelta(t, int64(-quarterPi), int64(Atan2(-One, One)), trigDelta)
	assert.InDelta(t, int64(Pi-quarterPi), int64(Atan2(One, -One)), trigDelta)

	// Atan2 inverts Sin/Cos
	for a := -Pi + Pi/8; a <= Pi-Pi/8; a += Pi / 8 {
		assert.InDelta(t, int64(a), int64(Atan2(Sin(a), Cos(a))), 32, "angle %v", a)
	}
}

func TestVec2Length(t *testing.T) {
	v := V2Int(3, 4)

	assert.Equal(t, WideFromInt(25), v.LengthSquared())
	assert.Equal(t, FromInt(5), v.Length())
	assert.Equal(t, FromInt(5), V2Int(1, 1).Distance(V2Int(4, 5)))
	assert.Equal(t, WideFromInt(11), v.Dot(V2Int(1, 2)))
	assert.Equal(t, WideFromInt(2), v.Cross(V2Int(1, 2)))
}

func TestVec2Normalize(t *testing.T) {
	n := V2Int(3, 4).Normalize()
	assert.Equal(t, Vec2{X: 39321, Y: 52428}, n)

	assert.Equal(t, Vec2{}, Vec2{}.Normalize())
	assert.Equal(t, Vec2{}, Vec2{}.NormalizeOrZero())

	// Squared length 2^-8 exactly is at the epsilon
	atEps := Vec2{X: FromRatio(1, 16)}
	assert.Equal(t, DefaultNormalizeEpsilon, atEps.LengthSquared())
	assert.Equal(t, Vec2{}, atEps.NormalizeOrZero())
	assert.Equal(t, Vec2{}, Vec2{X: 3, Y: -2}.NormalizeOrZero())

	above := Vec2{X: FromRatio(7, 100)}
	assert.Equal(t, Vec2{X: One}, above.NormalizeOrZero())

	// A configured epsilon overrides the default
	assert.Equal(t, Vec2{}, V2Int(1, 0).NormalizeWithin(WideFromInt(2)))
	assert.Equal(t, Vec2{X: One}, V2Int(1, 0).NormalizeWithin(0))
}

func TestVec2SaturatingOps(t *testing.T) {
	big := Vec2{X: MaxFixed, Y: MinFixed}

	assert.Equal(t, Vec2{X: MaxFixed, Y: MinFixed}, big.Add(V2Int(1, -1)))
	assert.Equal(t, Vec2{X: MaxFixed, Y: MinFixed}, big.Scale(FromInt(2)))
	assert.Equal(t, Vec2{}, V2Int(3, 4).Div(0))
	assert.Equal(t, V2Int(-3, 4), V2Int(3, -4).Neg())
}

func TestVec2ClampLength(t *testing.T) {
	v := V2Int(30, 40)

	assert.Equal(t, V2Int(3, 4), V2Int(3, 4).ClampLength(FromInt(10)))
	clamped := v.ClampLength(FromInt(5))
	assert.InDelta(t, int64(FromInt(5)), int64(clamped.Length()), 4)
	assert.Equal(t, Vec2{}, v.ClampLength(0))
}

func TestVec2Rotate(t *testing.T) {
	r := V2Int(1, 0).Rotate(HalfPi)
	assert.InDelta(t, 0, int64(r.X), trigDelta)
	assert.InDelta(t, int64(One), int64(r.Y), trigDelta)

	assert.Equal(t, V2Int(-4, 3), V2Int(3, 4).Perpendicular())
}

func TestVec3(t *testing.T) {
	a := V3(FromInt(1), FromInt(2), FromInt(2))

	assert.Equal(t, FromInt(3), a.Length())
	assert.Equal(t, V3(FromInt(0), FromInt(0), One), V3(One, 0, 0).Cross(V3(0, One, 0)))
	assert.Equal(t, Vec3{}, Vec3{}.NormalizeOrZero())
	assert.Equal(t, V2Int(1, 2), a.Truncate())
	assert.Equal(t, a, a.Truncate().Extend(FromInt(2)))
}

func TestMat3Identity(t *testing.T) {
	p := V3(FromInt(7), FromInt(-3), FromInt(2))

	assert.Equal(t, p, Mat3Identity.MulVec3(p))
	assert.Equal(t, Mat3Identity, FromRotationZ(0))
	assert.Equal(t, Mat3Identity, FromEulerYXZ(0, 0, 0))
	assert.Equal(t, Mat3Identity, Mat3Identity.MulMat3(Mat3Identity))
}

func TestMat3RotationZ(t *testing.T) {
	r := FromRotationZ(HalfPi).MulVec3(V3(One, 0, 0))

	assert.InDelta(t, 0, int64(r.X), trigDelta)
	assert.InDelta(t, int64(One), int64(r.Y), trigDelta)
	assert.Equal(t, Fixed(0), r.Z)
}

func TestTransformOrder(t *testing.T) {
	tr := Transform{
		Translation: V3(FromInt(10), 0, 0),
		Rotation:    Mat3Identity,
		Scale:       V3(FromInt(2), FromInt(2), One),
	}
	assert.Equal(t, V3(FromInt(12), FromInt(2), 0), tr.TransformPoint(V3(One, One, 0)))

	// Scale, then rotate, then translate
	tr.Rotation = FromRotationZ(HalfPi)
	p := tr.TransformPoint(V3(One, 0, 0))
	assert.InDelta(t, int64(FromInt(10)), int64(p.X), 2*trigDelta)
	assert.InDelta(t, int64(FromInt(2)), int64(p.Y), 2*trigDelta)

	assert.Equal(t, V3(FromInt(4), FromInt(5), 0), FromTranslation2D(V2Int(4, 5)).TransformPoint(Vec3{}))
}

func BenchmarkNormalizeWithin(b *testing.B) {
	r := NewRand(1)
	vs := make([]Vec2, 1024)
	for i := range vs {
		vs[i] = V2(r.FixedRange(FromInt(-500), FromInt(500)), r.FixedRange(FromInt(-500), FromInt(500)))
	}
	b.ResetTimer()
	for i := range b.N {
		_ = vs[i%len(vs)].NormalizeWithin(DefaultNormalizeEpsilon)
	}
}
