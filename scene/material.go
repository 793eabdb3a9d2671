package scene

// Param names a physical material parameter that lighting depends on.
type Param string

const (
	ParamMetalness    Param = "metalness"
	ParamRoughness    Param = "roughness"
	ParamShininess    Param = "shininess"
	ParamSpecular     Param = "specular"
	ParamEnvMap       Param = "envMap"
	ParamReflectivity Param = "reflectivity"
)

// MaterialBase holds what every material kind has.
type MaterialBase struct {
	Name        string
	Color       Color
	Map         *Texture
	Opacity     float32
	DoubleSided bool
}

type Material interface {
	Base() *MaterialBase
	Clone() Material
}

// Optional capabilities. A material kind implements only the ones it has.
type (
	Metallic interface {
		Material
		SetMetalness(v float32)
	}
	Rough interface {
		Material
		SetRoughness(v float32)
	}
	Shiny interface {
		Material
		SetShininess(v float32)
	}
	Specular interface {
		Material
		SetSpecular(c Color)
	}
	EnvMapped interface {
		Material
		SetEnvMap(t *Texture)
	}
	Reflective interface {
		Material
		SetReflectivity(v float32)
	}
)

// ParamSet is implemented by materials whose parameter set is only known at runtime.
type ParamSet interface {
	HasParam(p Param) bool
}

// Supports reports whether m exposes the parameter p.
func Supports(m Material, p Param) bool {
	if m == nil {
		return false
	}
	if ps, ok := m.(ParamSet); ok && !ps.HasParam(p) {
		return false
	}
	switch p {
	case ParamMetalness:
		_, ok := m.(Metallic)
		return ok
	case ParamRoughness:
		_, ok := m.(Rough)
		return ok
	case ParamShininess:
		_, ok := m.(Shiny)
		return ok
	case ParamSpecular:
		_, ok := m.(Specular)
		return ok
	case ParamEnvMap:
		_, ok := m.(EnvMapped)
		return ok
	case ParamReflectivity:
		_, ok := m.(Reflective)
		return ok
	}
	return false
}

func (b *MaterialBase) Base() *MaterialBase {
	return b
}

func (b MaterialBase) clone() MaterialBase {
	b.Map = b.Map.Clone()
	return b
}

// StandardMaterial is a metallic-roughness PBR material.
type StandardMaterial struct {
	MaterialBase
	Metalness float32
	Roughness float32
	Emissive  Color
	EnvMap    *Texture
}

func NewStandardMaterial(name string) *StandardMaterial {
	return &StandardMaterial{
		MaterialBase: MaterialBase{Name: name, Color: White, Opacity: 1},
		Roughness:    1,
	}
}

func (m *StandardMaterial) SetMetalness(v float32)  { m.Metalness = v }
func (m *StandardMaterial) SetRoughness(v float32)  { m.Roughness = v }
func (m *StandardMaterial) SetEnvMap(t *Texture)    { m.EnvMap = t }
func (m *StandardMaterial) Clone() Material {
	c := *m
	c.MaterialBase = m.MaterialBase.clone()
	c.EnvMap = m.EnvMap.Clone()
	return &c
}

// PhongMaterial is a Blinn-Phong material with specular highlights.
type PhongMaterial struct {
	MaterialBase
	Specular     Color
	Shininess    float32
	Reflectivity float32
	Emissive     Color
	EnvMap       *Texture
}

func NewPhongMaterial(name string) *PhongMaterial {
	return &PhongMaterial{
		MaterialBase: MaterialBase{Name: name, Color: White, Opacity: 1},
		Specular:     NewColorHex(0x111111),
		Shininess:    30,
		Reflectivity: 1,
	}
}

func (m *PhongMaterial) SetSpecular(c Color)       { m.Specular = c }
func (m *PhongMaterial) SetShininess(v float32)    { m.Shininess = v }
func (m *PhongMaterial) SetReflectivity(v float32) { m.Reflectivity = v }
func (m *PhongMaterial) SetEnvMap(t *Texture)      { m.EnvMap = t }
func (m *PhongMaterial) Clone() Material {
	c := *m
	c.MaterialBase = m.MaterialBase.clone()
	c.EnvMap = m.EnvMap.Clone()
	return &c
}

// LambertMaterial is a diffuse-only material.
type LambertMaterial struct {
	MaterialBase
	Reflectivity float32
	Emissive     Color
	EnvMap       *Texture
}

func NewLambertMaterial(name string) *LambertMaterial {
	return &LambertMaterial{
		MaterialBase: MaterialBase{Name: name, Color: White, Opacity: 1},
		Reflectivity: 1,
	}
}

func (m *LambertMaterial) SetReflectivity(v float32) { m.Reflectivity = v }
func (m *LambertMaterial) SetEnvMap(t *Texture)      { m.EnvMap = t }
func (m *LambertMaterial) Clone() Material {
	c := *m
	c.MaterialBase = m.MaterialBase.clone()
	c.EnvMap = m.EnvMap.Clone()
	return &c
}

// BasicMaterial is unlit.
type BasicMaterial struct {
	MaterialBase
	Reflectivity float32
	EnvMap       *Texture
}

func NewBasicMaterial(name string) *BasicMaterial {
	return &BasicMaterial{
		MaterialBase: MaterialBase{Name: name, Color: White, Opacity: 1},
		Reflectivity: 1,
	}
}

func (m *BasicMaterial) SetReflectivity(v float32) { m.Reflectivity = v }
func (m *BasicMaterial) SetEnvMap(t *Texture)      { m.EnvMap = t }
func (m *BasicMaterial) Clone() Material {
	c := *m
	c.MaterialBase = m.MaterialBase.clone()
	c.EnvMap = m.EnvMap.Clone()
	return &c
}
