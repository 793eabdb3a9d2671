package scene

import "github.com/binzume/pokeview/geom"

type cloner struct {
	nodes     map[*Node]*Node
	materials map[Material]Material
	textures  map[*Texture]*Texture
}

// Clone deep-copies the subtree rooted at root.
//
// Skins of the copy point at the copied bones, not the originals. Materials
// and textures are copied once each, so sharing inside the subtree is kept.
// Geometry buffers are shared with the source and must be treated as read-only.
// The copy has no parent.
func Clone(root *Node) *Node {
	if root == nil {
		return nil
	}
	c := &cloner{
		nodes:     map[*Node]*Node{},
		materials: map[Material]Material{},
		textures:  map[*Texture]*Texture{},
	}
	dst := c.node(root, nil)
	for src, n := range c.nodes {
		if src.Mesh != nil && src.Mesh.Skin != nil {
			n.Mesh.Skin = c.skin(src.Mesh.Skin)
		}
	}
	return dst
}

func (c *cloner) node(src, parent *Node) *Node {
	n := &Node{
		Name:     src.Name,
		Kind:     src.Kind,
		Position: src.Position,
		Rotation: src.Rotation,
		Scale:    src.Scale,
		Parent:   parent,
	}
	c.nodes[src] = n
	if src.Mesh != nil {
		n.Mesh = c.mesh(src.Mesh)
	}
	for _, ch := range src.Children {
		n.Children = append(n.Children, c.node(ch, n))
	}
	return n
}

func (c *cloner) mesh(src *MeshData) *MeshData {
	m := &MeshData{Geometry: src.Geometry}
	if src.Materials != nil {
		m.Materials = make([]Material, len(src.Materials))
		for i, mat := range src.Materials {
			m.Materials[i] = c.material(mat)
		}
	} else {
		m.Material = c.material(src.Material)
	}
	return m
}

func (c *cloner) material(src Material) Material {
	if src == nil {
		return nil
	}
	if m, ok := c.materials[src]; ok {
		return m
	}
	m := src.Clone()
	m.Base().Map = c.texture(src.Base().Map)
	switch dst := m.(type) {
	case *StandardMaterial:
		dst.EnvMap = c.texture(src.(*StandardMaterial).EnvMap)
	case *PhongMaterial:
		dst.EnvMap = c.texture(src.(*PhongMaterial).EnvMap)
	case *LambertMaterial:
		dst.EnvMap = c.texture(src.(*LambertMaterial).EnvMap)
	case *BasicMaterial:
		dst.EnvMap = c.texture(src.(*BasicMaterial).EnvMap)
	case *ParamMaterial:
		for k, v := range src.(*ParamMaterial).Params {
			if t, ok := v.(*Texture); ok {
				dst.Params[k] = c.texture(t)
			}
		}
	}
	c.materials[src] = m
	return m
}

func (c *cloner) texture(src *Texture) *Texture {
	if src == nil {
		return nil
	}
	if t, ok := c.textures[src]; ok {
		return t
	}
	t := src.Clone()
	c.textures[src] = t
	return t
}

func (c *cloner) skin(src *Skin) *Skin {
	s := &Skin{
		Bones:               make([]*Node, len(src.Bones)),
		InverseBindMatrices: make([]*geom.Matrix4, len(src.InverseBindMatrices)),
	}
	for i, b := range src.Bones {
		if nb, ok := c.nodes[b]; ok {
			s.Bones[i] = nb
		} else {
			// bone outside the cloned subtree
			s.Bones[i] = b
		}
	}
	for i, m := range src.InverseBindMatrices {
		if m != nil {
			s.InverseBindMatrices[i] = m.Clone()
		}
	}
	return s
}
