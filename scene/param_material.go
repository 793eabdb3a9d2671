package scene

import "sort"

// ParamMaterial keeps an open set of named parameters, as read from formats
// whose shading models are not fixed. Values are float32, Color or *Texture.
// Setters only touch parameters that are already present.
type ParamMaterial struct {
	MaterialBase
	ShadingModel string
	Params       map[Param]interface{}
}

func NewParamMaterial(name, shadingModel string) *ParamMaterial {
	return &ParamMaterial{
		MaterialBase: MaterialBase{Name: name, Color: White, Opacity: 1},
		ShadingModel: shadingModel,
		Params:       map[Param]interface{}{},
	}
}

func (m *ParamMaterial) HasParam(p Param) bool {
	_, ok := m.Params[p]
	return ok
}

// ParamNames returns the present parameters in sorted order.
func (m *ParamMaterial) ParamNames() []Param {
	var names []Param
	for p := range m.Params {
		names = append(names, p)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

func (m *ParamMaterial) Float(p Param, def float32) float32 {
	if v, ok := m.Params[p].(float32); ok {
		return v
	}
	return def
}

func (m *ParamMaterial) ColorParam(p Param, def Color) Color {
	if v, ok := m.Params[p].(Color); ok {
		return v
	}
	return def
}

func (m *ParamMaterial) set(p Param, v interface{}) {
	if m.HasParam(p) {
		m.Params[p] = v
	}
}

func (m *ParamMaterial) SetMetalness(v float32)    { m.set(ParamMetalness, v) }
func (m *ParamMaterial) SetRoughness(v float32)    { m.set(ParamRoughness, v) }
func (m *ParamMaterial) SetShininess(v float32)    { m.set(ParamShininess, v) }
func (m *ParamMaterial) SetSpecular(c Color)       { m.set(ParamSpecular, c) }
func (m *ParamMaterial) SetReflectivity(v float32) { m.set(ParamReflectivity, v) }
func (m *ParamMaterial) SetEnvMap(t *Texture)      { m.set(ParamEnvMap, t) }

func (m *ParamMaterial) Clone() Material {
	c := *m
	c.MaterialBase = m.MaterialBase.clone()
	c.Params = make(map[Param]interface{}, len(m.Params))
	for k, v := range m.Params {
		if t, ok := v.(*Texture); ok {
			v = t.Clone()
		}
		c.Params[k] = v
	}
	return &c
}
