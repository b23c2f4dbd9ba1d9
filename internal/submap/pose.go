package submap

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Pose is a rigid-body transform: a translation plus a unit quaternion
// rotation, double precision throughout.
type Pose struct {
	Translation r3.Vec
	Rotation    quat.Number
}

// IdentityPose returns the identity transform.
func IdentityPose() Pose {
	return Pose{Rotation: quat.Number{Real: 1}}
}

// NewPose builds a pose from a translation and a yaw angle around Z.
func NewPose(translation r3.Vec, yaw float64) Pose {
	return Pose{Translation: translation, Rotation: RotationZ(yaw)}
}

// RotationZ returns the unit quaternion for a rotation of yaw radians
// around the Z axis.
func RotationZ(yaw float64) quat.Number {
	half := yaw / 2
	return quat.Number{Real: math.Cos(half), Kmag: math.Sin(half)}
}

// Rotate applies only the rotational part of the pose to v.
func (p Pose) Rotate(v r3.Vec) r3.Vec {
	pv := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(p.Rotation, quat.Mul(pv, quat.Conj(p.Rotation)))
	return r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// Apply transforms v by the pose: rotation first, then translation.
func (p Pose) Apply(v r3.Vec) r3.Vec {
	return r3.Add(p.Rotate(v), p.Translation)
}

// Yaw returns the heading angle of the pose around the Z axis.
func (p Pose) Yaw() float64 {
	q := p.Rotation
	return math.Atan2(2*(q.Real*q.Kmag+q.Imag*q.Jmag), 1-2*(q.Jmag*q.Jmag+q.Kmag*q.Kmag))
}

// TransformCloud returns a new cloud with every point of pc transformed
// by the pose. Coordinates are carried through float64 and truncated back
// to the cloud's float32 storage.
func (p Pose) TransformCloud(pc *PointCloud) *PointCloud {
	out := NewPointCloud(pc.Len())
	for i := 0; i < pc.Len(); i++ {
		v := p.Apply(r3.Vec{X: float64(pc.X[i]), Y: float64(pc.Y[i]), Z: float64(pc.Z[i])})
		out.Append(float32(v.X), float32(v.Y), float32(v.Z))
	}
	return out
}
