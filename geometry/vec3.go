package geometry

import "math"

// Vec3 is a plain 3D vector in millimeters.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Norm() float64 { return math.Sqrt(v.Dot(v)) }

// Quat is a unit quaternion rotation, (w, x, y, z).
type Quat struct {
	W, X, Y, Z float64
}

// IdentityQuat is the identity rotation.
var IdentityQuat = Quat{W: 1}

// Rotate applies q to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	// t = 2 * cross(q.xyz, v)
	qv := Vec3{q.X, q.Y, q.Z}
	t := cross(qv, v).Scale(2)
	// v' = v + w*t + cross(q.xyz, t)
	return v.Add(t.Scale(q.W)).Add(cross(qv, t))
}

func cross(a, b Vec3) Vec3 {
	return Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

// Conjugate returns the inverse rotation of a unit quaternion.
func (q Quat) Conjugate() Quat {
	return Quat{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

// QuatFromEulerZYZ builds a rotation quaternion from ZYZ Euler angles
// (radians), matching the convention used to build a device's rotation
// from its mounting angles.
func QuatFromEulerZYZ(z1, y, z2 float64) Quat {
	return quatFromAxisAngle(Vec3{Z: 1}, z1).
		Mul(quatFromAxisAngle(Vec3{Y: 1}, y)).
		Mul(quatFromAxisAngle(Vec3{Z: 1}, z2))
}

func quatFromAxisAngle(axis Vec3, angle float64) Quat {
	h := angle / 2
	s := math.Sin(h)
	return Quat{W: math.Cos(h), X: axis.X * s, Y: axis.Y * s, Z: axis.Z * s}
}

func (q Quat) Mul(o Quat) Quat {
	return Quat{
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
	}
}
