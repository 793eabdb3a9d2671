package fbx

import "github.com/binzume/pokeview/geom"

type Material struct {
	Obj
}

func (m *Material) ShadingModel() string {
	if s := m.FindChild("ShadingModel").GetString(); s != "" {
		return s
	}
	return m.GetProperty("ShadingModel").ToString()
}

func (m *Material) GetColor(name string, def *geom.Vector3) *geom.Vector3 {
	if def == nil {
		def = &geom.Vector3{}
	}
	return m.GetProperty(name).ToVector3(def.X, def.Y, def.Z)
}

func (m *Material) GetFactor(name string, def float32) float32 {
	return m.GetProperty(name).ToFloat32(def)
}

// GetTexture returns the texture connected to the property, falling back to
// the first texture for files that use plain OO connections.
func (m *Material) GetTexture(prop string) *Texture {
	if t, ok := m.FindPropertyRef(prop).(*Texture); ok {
		return t
	}
	if prop != "DiffuseColor" {
		return nil
	}
	for _, o := range m.FindRefs("Texture") {
		if t, ok := o.(*Texture); ok {
			return t
		}
	}
	return nil
}

type Texture struct {
	Obj
}

// FileName prefers the path relative to the fbx file.
func (t *Texture) FileName() string {
	if name := t.FindChild("RelativeFilename").GetString(); name != "" {
		return name
	}
	return t.FindChild("FileName").GetString()
}
