package vmath

// Mat2 is a 2x2 matrix stored as column axes
type Mat2 struct {
	XAxis Vec2 `msgpack:"x"`
	YAxis Vec2 `msgpack:"y"`
}

// FromAngle builds a counter-clockwise rotation
func FromAngle(angle Fixed) Mat2 {
	c, s := Cos(angle), Sin(angle)
	return Mat2{XAxis: Vec2{c, s}, YAxis: Vec2{s.Neg(), c}}
}

func (m Mat2) MulVec2(v Vec2) Vec2 {
	return m.XAxis.Scale(v.X).Add(m.YAxis.Scale(v.Y))
}

// Mat3 is a 3x3 matrix stored as column axes
type Mat3 struct {
	XAxis Vec3 `msgpack:"x"`
	YAxis Vec3 `msgpack:"y"`
	ZAxis Vec3 `msgpack:"z"`
}

// Mat3Identity is the identity rotation
var Mat3Identity = Mat3{
	XAxis: Vec3{One, 0, 0},
	YAxis: Vec3{0, One, 0},
	ZAxis: Vec3{0, 0, One},
}

func FromRotationX(angle Fixed) Mat3 {
	c, s := Cos(angle), Sin(angle)
	return Mat3{
		XAxis: Vec3{One, 0, 0},
		YAxis: Vec3{0, c, s},
		ZAxis: Vec3{0, s.Neg(), c},
	}
}

func FromRotationY(angle Fixed) Mat3 {
	c, s := Cos(angle), Sin(angle)
	return Mat3{
		XAxis: Vec3{c, 0, s.Neg()},
		YAxis: Vec3{0, One, 0},
		ZAxis: Vec3{s, 0, c},
	}
}

func FromRotationZ(angle Fixed) Mat3 {
	c, s := Cos(angle), Sin(angle)
	return Mat3{
		XAxis: Vec3{c, s, 0},
		YAxis: Vec3{s.Neg(), c, 0},
		ZAxis: Vec3{0, 0, One},
	}
}

// FromEulerYXZ composes yaw, then pitch, then roll: Ry * Rx * Rz
func FromEulerYXZ(yaw, pitch, roll Fixed) Mat3 {
	return FromRotationY(yaw).MulMat3(FromRotationX(pitch)).MulMat3(FromRotationZ(roll))
}

func (m Mat3) MulVec3(v Vec3) Vec3 {
	return m.XAxis.Scale(v.X).Add(m.YAxis.Scale(v.Y)).Add(m.ZAxis.Scale(v.Z))
}

func (m Mat3) MulMat3(o Mat3) Mat3 {
	return Mat3{
		XAxis: m.MulVec3(o.XAxis),
		YAxis: m.MulVec3(o.YAxis),
		ZAxis: m.MulVec3(o.ZAxis),
	}
}

// Transform bundles translation, rotation and scale
type Transform struct {
	Translation Vec3 `msgpack:"t" json:"translation"`
	Rotation    Mat3 `msgpack:"r" json:"rotation"`
	Scale       Vec3 `msgpack:"s" json:"scale"`
}

// IdentityTransform has no translation, no rotation and unit scale
var IdentityTransform = Transform{Rotation: Mat3Identity, Scale: V3One}

// FromTranslation2D places a 2D position on the z=0 plane
func FromTranslation2D(p Vec2) Transform {
	t := IdentityTransform
	t.Translation = p.Extend(0)
	return t
}

// TransformPoint applies scale, then rotation, then translation
func (t Transform) TransformPoint(p Vec3) Vec3 {
	return t.Rotation.MulVec3(p.MulElem(t.Scale)).Add(t.Translation)
}
