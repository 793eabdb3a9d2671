package converter

import (
	"math"

	"github.com/binzume/pokeview/fbx"
	"github.com/binzume/pokeview/geom"
	"github.com/binzume/pokeview/scene"
	"go.uber.org/zap"
)

type FBXToSceneOption struct {
	// IgnoreSkin drops skin deformers and builds plain meshes.
	IgnoreSkin bool
	Logger     *zap.Logger
}

type fbxToScene struct {
	options   *FBXToSceneOption
	nodes     map[*fbx.Model]*scene.Node
	materials map[*fbx.Material]scene.Material
	skinned   []*fbx.Model
	builders  map[*fbx.Model]*meshBuilder
}

func NewFBXToSceneConverter(options *FBXToSceneOption) *fbxToScene {
	if options == nil {
		options = &FBXToSceneOption{}
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	return &fbxToScene{
		options:   options,
		nodes:     map[*fbx.Model]*scene.Node{},
		materials: map[*fbx.Material]scene.Material{},
	}
}

func (c *fbxToScene) convertColor(v *geom.Vector3) scene.Color {
	return scene.Color{R: v.X, G: v.Y, B: v.Z}
}

func (c *fbxToScene) convertMaterial(m *fbx.Material) scene.Material {
	if mat, ok := c.materials[m]; ok {
		return mat
	}
	var mat scene.Material
	switch m.ShadingModel() {
	case "phong", "Phong":
		phong := scene.NewPhongMaterial(m.ShortName())
		phong.Specular = c.convertColor(m.GetColor("SpecularColor", geom.NewVector3(0.2, 0.2, 0.2)))
		phong.Shininess = m.GetFactor("Shininess", m.GetFactor("ShininessExponent", 20))
		phong.Reflectivity = m.GetFactor("ReflectionFactor", 1)
		phong.Emissive = c.convertColor(m.GetColor("EmissiveColor", nil))
		mat = phong
	case "lambert", "Lambert":
		lambert := scene.NewLambertMaterial(m.ShortName())
		lambert.Reflectivity = m.GetFactor("ReflectionFactor", 1)
		lambert.Emissive = c.convertColor(m.GetColor("EmissiveColor", nil))
		mat = lambert
	default:
		pm := scene.NewParamMaterial(m.ShortName(), m.ShadingModel())
		if m.HasProperty("Shininess") || m.HasProperty("ShininessExponent") {
			pm.Params[scene.ParamShininess] = m.GetFactor("Shininess", m.GetFactor("ShininessExponent", 0))
		}
		if m.HasProperty("SpecularColor") {
			pm.Params[scene.ParamSpecular] = c.convertColor(m.GetColor("SpecularColor", nil))
		}
		if m.HasProperty("ReflectionFactor") {
			pm.Params[scene.ParamReflectivity] = m.GetFactor("ReflectionFactor", 0)
		}
		if m.HasProperty("Metalness") {
			pm.Params[scene.ParamMetalness] = m.GetFactor("Metalness", 0)
		}
		if m.HasProperty("Roughness") {
			pm.Params[scene.ParamRoughness] = m.GetFactor("Roughness", 1)
		}
		mat = pm
	}
	base := mat.Base()
	base.Color = c.convertColor(m.GetColor("DiffuseColor", geom.NewVector3(1, 1, 1)))
	if m.HasProperty("Opacity") {
		base.Opacity = m.GetFactor("Opacity", 1)
	} else if m.HasProperty("TransparencyFactor") {
		base.Opacity = 1 - m.GetFactor("TransparencyFactor", 0)
	}
	if tex := m.GetTexture("DiffuseColor"); tex != nil && tex.FileName() != "" {
		base.Map = scene.NewTexture(tex.FileName())
		base.Map.Name = tex.ShortName()
	}
	c.materials[m] = mat
	return mat
}

func (c *fbxToScene) convertGeometry(g *fbx.Geometry, materials []scene.Material) (*meshBuilder, *scene.MeshData) {
	b := newMeshBuilder()
	verts := g.GetVertices()

	normalEl := g.GetLayerElementNormal()
	normals := normalEl.Array.GetVec3Array()
	normalIndex := normalEl.Resolver()
	uvEl := g.GetLayerElementUV()
	uvs := uvEl.Array.GetVec2Array()
	uvIndex := uvEl.Resolver()
	materialIndex := g.GetLayerElementMaterial().Resolver()

	pv := 0
	for pi, poly := range g.GetPolygons() {
		var face []uint32
		for _, cp := range poly {
			if cp >= len(verts) {
				pv++
				continue
			}
			var n *geom.Vector3
			if i := normalIndex(pi, pv, cp); i >= 0 && i < len(normals) {
				n = normals[i]
			}
			var uv *geom.Vector2
			if i := uvIndex(pi, pv, cp); i >= 0 && i < len(uvs) {
				uv = &geom.Vector2{X: uvs[i].X, Y: 1 - uvs[i].Y}
			}
			face = append(face, b.addVertex(verts[cp], n, uv, cp))
			pv++
		}
		mi := materialIndex(pi, pv-len(poly), poly[0])
		if mi < 0 {
			mi = 0
		}
		b.addPolygon(face, mi)
	}
	return b, b.build(materials)
}

func (c *fbxToScene) convertModel(m *fbx.Model) *scene.Node {
	var node *scene.Node
	g := m.GetGeometry()
	switch {
	case g != nil:
		var materials []scene.Material
		for _, mat := range m.GetMaterials() {
			materials = append(materials, c.convertMaterial(mat))
		}
		b, mesh := c.convertGeometry(g, materials)
		node = scene.NewMeshNode(m.ShortName(), mesh)
		if !c.options.IgnoreSkin && len(g.GetClusters()) > 0 {
			c.skinned = append(c.skinned, m)
			c.builders[m] = b
		}
	case m.Kind() == "LimbNode" || m.Kind() == "Root":
		node = scene.NewNode(m.ShortName(), scene.Bone)
	default:
		node = scene.NewGroup(m.ShortName())
	}
	node.Position = *m.GetTranslation()
	node.Rotation = *m.GetQuaternion()
	node.Scale = *m.GetScaling()
	c.nodes[m] = node
	for _, child := range m.GetChildModels() {
		node.Add(c.convertModel(child))
	}
	return node
}

func (c *fbxToScene) bindSkin(m *fbx.Model) {
	node := c.nodes[m]
	b := c.builders[m]
	clusters := m.GetGeometry().GetClusters()
	skin := &scene.Skin{}
	influences := make([][]influence, len(m.GetGeometry().GetVertices()))
	for _, cluster := range clusters {
		bone := c.nodes[cluster.GetTarget()]
		if bone == nil {
			c.options.Logger.Warn("fbx: cluster target not in scene", zap.String("cluster", cluster.ShortName()))
			continue
		}
		joint := len(skin.Bones)
		skin.Bones = append(skin.Bones, bone)
		skin.InverseBindMatrices = append(skin.InverseBindMatrices, cluster.GetTransformLink().Inverse().Mul(cluster.GetTransform()))
		weights := cluster.GetWeights()
		for i, cp := range cluster.GetIndexes() {
			if int(cp) < len(influences) && i < len(weights) {
				influences[cp] = append(influences[cp], influence{joint: joint, weight: weights[i]})
			}
		}
	}
	if len(skin.Bones) == 0 {
		c.options.Logger.Warn("fbx: skin without bones", zap.String("model", m.ShortName()))
		return
	}
	b.setSkinWeights(influences)
	node.Mesh.Skin = skin
	node.Kind = scene.SkinnedMesh
}

// Convert builds a scene under an identity root group.
func (c *fbxToScene) Convert(doc *fbx.Document) (*scene.Node, error) {
	c.builders = map[*fbx.Model]*meshBuilder{}
	root := scene.NewGroup("fbx")
	content := root
	if doc.UpAxis() == 2 {
		content = scene.NewGroup("Z_UP")
		content.Rotation = *geom.NewAxisAngleQuaternion(geom.NewVector3(1, 0, 0), -math.Pi/2)
		root.Add(content)
	}
	for _, m := range doc.Scene.GetChildModels() {
		content.Add(c.convertModel(m))
	}
	for _, m := range c.skinned {
		c.bindSkin(m)
	}
	return root, nil
}
