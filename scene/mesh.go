package scene

import "github.com/binzume/pokeview/geom"

// MeshData holds the geometry and materials of a Mesh node.
//
// Materials come in one of two shapes: a single Material, or a Materials
// list indexed by geometry groups. Exactly one of them is used.
type MeshData struct {
	Geometry  *Geometry
	Material  Material
	Materials []Material
	Skin      *Skin
}

func (m *MeshData) IsMultiMaterial() bool {
	return m.Materials != nil
}

// EachMaterial calls fn for every material slot, whichever shape the mesh uses.
func (m *MeshData) EachMaterial(fn func(index int, mat Material)) {
	if m.IsMultiMaterial() {
		for i, mat := range m.Materials {
			fn(i, mat)
		}
		return
	}
	if m.Material != nil {
		fn(0, m.Material)
	}
}

// MaterialAt returns the material used by the given group index.
func (m *MeshData) MaterialAt(index int) Material {
	if !m.IsMultiMaterial() {
		return m.Material
	}
	if index < 0 || index >= len(m.Materials) {
		return nil
	}
	return m.Materials[index]
}

// Skin binds a skinned mesh to bone nodes.
type Skin struct {
	Bones               []*Node
	InverseBindMatrices []*geom.Matrix4
}
