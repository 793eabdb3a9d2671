package scene

// Image is the source of a texture. Src is a path or URL; Data holds inline bytes when embedded.
type Image struct {
	Src      string
	MimeType string
	Data     []byte
}

type Texture struct {
	Name  string
	Image *Image
}

func NewTexture(src string) *Texture {
	return &Texture{Name: src, Image: &Image{Src: src}}
}

// Src returns the image source, or "" when the texture has no image.
func (t *Texture) Src() string {
	if t == nil || t.Image == nil {
		return ""
	}
	return t.Image.Src
}

func (t *Texture) Clone() *Texture {
	if t == nil {
		return nil
	}
	c := *t
	if t.Image != nil {
		img := *t.Image
		c.Image = &img
	}
	return &c
}

// MaterialTextures returns the non-nil textures referenced by m.
func MaterialTextures(m Material) []*Texture {
	if m == nil {
		return nil
	}
	textures := []*Texture{m.Base().Map}
	switch m := m.(type) {
	case *StandardMaterial:
		textures = append(textures, m.EnvMap)
	case *PhongMaterial:
		textures = append(textures, m.EnvMap)
	case *LambertMaterial:
		textures = append(textures, m.EnvMap)
	case *BasicMaterial:
		textures = append(textures, m.EnvMap)
	case *ParamMaterial:
		for _, p := range m.ParamNames() {
			if t, ok := m.Params[p].(*Texture); ok {
				textures = append(textures, t)
			}
		}
	}
	var result []*Texture
	for _, t := range textures {
		if t != nil {
			result = append(result, t)
		}
	}
	return result
}

// EachTexture calls fn once for every texture used by meshes in the subtree.
func EachTexture(root *Node, fn func(*Texture)) {
	seen := map[*Texture]bool{}
	root.Traverse(func(n *Node) {
		if n.Mesh == nil {
			return
		}
		n.Mesh.EachMaterial(func(_ int, m Material) {
			for _, t := range MaterialTextures(m) {
				if !seen[t] {
					seen[t] = true
					fn(t)
				}
			}
		})
	})
}
