package loader

import "github.com/binzume/pokeview/scene"

// MakeMatte removes the lighting response of m. Only parameters the material
// exposes are touched.
func MakeMatte(m scene.Material) {
	if m == nil {
		return
	}
	if scene.Supports(m, scene.ParamMetalness) {
		m.(scene.Metallic).SetMetalness(0)
	}
	if scene.Supports(m, scene.ParamRoughness) {
		m.(scene.Rough).SetRoughness(1)
	}
	if scene.Supports(m, scene.ParamShininess) {
		m.(scene.Shiny).SetShininess(0)
	}
	if scene.Supports(m, scene.ParamSpecular) {
		m.(scene.Specular).SetSpecular(scene.Black)
	}
	if scene.Supports(m, scene.ParamEnvMap) {
		m.(scene.EnvMapped).SetEnvMap(nil)
	}
	if scene.Supports(m, scene.ParamReflectivity) {
		m.(scene.Reflective).SetReflectivity(0)
	}
}

// FlattenMaterials applies MakeMatte to every material of every mesh under root.
func FlattenMaterials(root *scene.Node) {
	root.Traverse(func(n *scene.Node) {
		if !n.IsMesh() {
			return
		}
		n.Mesh.EachMaterial(func(_ int, m scene.Material) {
			MakeMatte(m)
		})
	})
}
