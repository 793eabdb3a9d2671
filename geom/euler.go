package geom

import "math"

// RotationOrder names the matrix product order, e.g. RotationOrderXYZ is Rx * Ry * Rz.
type RotationOrder int

const (
	RotationOrderXYZ RotationOrder = iota
	RotationOrderYXZ
	RotationOrderZXY
	RotationOrderZYX
)

var rotationAxes = map[RotationOrder][3]int{
	RotationOrderXYZ: {0, 1, 2},
	RotationOrderYXZ: {1, 0, 2},
	RotationOrderZXY: {2, 0, 1},
	RotationOrderZYX: {2, 1, 0},
}

type EulerAngles struct {
	Vector3
	Order RotationOrder
}

func NewEuler(x, y, z float32, order RotationOrder) *EulerAngles {
	return &EulerAngles{Vector3: Vector3{x, y, z}, Order: order}
}

// NewEulerDegrees is NewEuler with angles in degrees.
func NewEulerDegrees(v *Vector3, order RotationOrder) *EulerAngles {
	return &EulerAngles{Vector3: *v.Scale(math.Pi / 180), Order: order}
}

func (v *EulerAngles) ToQuaternion() *Quaternion {
	axes, ok := rotationAxes[v.Order]
	if !ok {
		return &Quaternion{W: 1}
	}
	angles := [3]Element{v.X, v.Y, v.Z}
	q := &Quaternion{W: 1}
	for _, i := range axes {
		var axis Vector3
		switch i {
		case 0:
			axis.X = 1
		case 1:
			axis.Y = 1
		case 2:
			axis.Z = 1
		}
		q = q.Mul(NewAxisAngleQuaternion(&axis, angles[i]))
	}
	return q
}

// NewAxisAngleQuaternion returns a rotation of angle radians around axis.
func NewAxisAngleQuaternion(axis *Vector3, angle float32) *Quaternion {
	a := *axis
	a.Normalize()
	s := Element(math.Sin(float64(angle / 2)))
	return &Quaternion{X: a.X * s, Y: a.Y * s, Z: a.Z * s, W: Element(math.Cos(float64(angle / 2)))}
}
