package fbx

import (
	"log"

	"github.com/binzume/pokeview/geom"
)

type Model struct {
	Obj
	Parent *Model
}

func (m *Model) GetTranslation() *geom.Vector3 {
	return m.GetProperty("Lcl Translation").ToVector3(0, 0, 0)
}

// GetRotation returns euler angles in degrees.
func (m *Model) GetRotation() *geom.Vector3 {
	return m.GetProperty("Lcl Rotation").ToVector3(0, 0, 0)
}

func (m *Model) GetPreRotation() *geom.Vector3 {
	return m.GetProperty("PreRotation").ToVector3(0, 0, 0)
}

func (m *Model) GetScaling() *geom.Vector3 {
	return m.GetProperty("Lcl Scaling").ToVector3(1, 1, 1)
}

// fbx EOrder to matrix product order.
var rotationOrders = map[int]geom.RotationOrder{
	0: geom.RotationOrderZYX, // eEulerXYZ
	3: geom.RotationOrderZXY, // eEulerYXZ
	4: geom.RotationOrderYXZ, // eEulerZXY
	5: geom.RotationOrderXYZ, // eEulerZYX
}

func (m *Model) RotationOrder() geom.RotationOrder {
	v := m.GetProperty("RotationOrder").ToInt(0)
	if order, ok := rotationOrders[v]; ok {
		return order
	}
	log.Println("fbx: unsupported rotation order", v, m.Name())
	return geom.RotationOrderZYX
}

// GetQuaternion returns PreRotation * Lcl Rotation.
func (m *Model) GetQuaternion() *geom.Quaternion {
	rot := geom.NewEulerDegrees(m.GetRotation(), m.RotationOrder()).ToQuaternion()
	pre := m.GetPreRotation()
	if pre.LenSqr() == 0 {
		return rot
	}
	return geom.NewEulerDegrees(pre, geom.RotationOrderZYX).ToQuaternion().Mul(rot)
}

func (m *Model) GetMatrix() *geom.Matrix4 {
	return geom.NewTRSMatrix4(m.GetTranslation(), m.GetQuaternion(), m.GetScaling())
}

func (m *Model) GetWorldMatrix() *geom.Matrix4 {
	if m.Parent == nil {
		return m.GetMatrix()
	}
	return m.Parent.GetWorldMatrix().Mul(m.GetMatrix())
}

func (m *Model) GetChildModels() []*Model {
	var r []*Model
	for _, o := range m.FindRefs("Model") {
		if c, ok := o.(*Model); ok {
			r = append(r, c)
		}
	}
	return r
}

func (m *Model) GetGeometry() *Geometry {
	for _, o := range m.FindRefs("Geometry") {
		if g, ok := o.(*Geometry); ok && g.Kind() == "Mesh" {
			return g
		}
	}
	return nil
}

// GetMaterials returns materials in connection order, which is what
// LayerElementMaterial indices refer to.
func (m *Model) GetMaterials() []*Material {
	var r []*Material
	for _, o := range m.FindRefs("Material") {
		if mat, ok := o.(*Material); ok {
			r = append(r, mat)
		}
	}
	return r
}
