package converter

import (
	"github.com/binzume/pokeview/geom"
	"github.com/binzume/pokeview/gltfutil"
	"github.com/binzume/pokeview/scene"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
)

const unlitMaterialExt = "KHR_materials_unlit"

type GLTFToSceneOption struct {
	IgnoreSkin bool
	Logger     *zap.Logger
}

type gltfToScene struct {
	options   *GLTFToSceneOption
	doc       *gltf.Document
	nodes     []*scene.Node
	materials map[uint32]scene.Material
	textures  map[uint32]*scene.Texture
}

func NewGLTFToSceneConverter(options *GLTFToSceneOption) *gltfToScene {
	if options == nil {
		options = &GLTFToSceneOption{}
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	return &gltfToScene{options: options}
}

func (c *gltfToScene) convertTexture(index uint32) *scene.Texture {
	if t, ok := c.textures[index]; ok {
		return t
	}
	var tex *scene.Texture
	if int(index) < len(c.doc.Textures) && c.doc.Textures[index].Source != nil && int(*c.doc.Textures[index].Source) < len(c.doc.Images) {
		img := c.doc.Images[*c.doc.Textures[index].Source]
		tex = &scene.Texture{Name: img.Name, Image: &scene.Image{Src: img.URI, MimeType: img.MimeType}}
		data, err := gltfutil.ImageData(c.doc, img)
		if err != nil {
			c.options.Logger.Warn("gltf: image read error", zap.Error(err))
		} else if data != nil {
			tex.Image.Src = ""
			tex.Image.Data = data
		}
		if tex.Name == "" {
			tex.Name = img.URI
		}
	} else {
		c.options.Logger.Warn("gltf: texture not found", zap.Uint32("index", index))
	}
	c.textures[index] = tex
	return tex
}

func (c *gltfToScene) convertMaterial(index uint32) scene.Material {
	if mat, ok := c.materials[index]; ok {
		return mat
	}
	if int(index) >= len(c.doc.Materials) {
		c.options.Logger.Warn("gltf: material not found", zap.Uint32("index", index))
		return nil
	}
	m := c.doc.Materials[index]
	pbr := m.PBRMetallicRoughness
	if pbr == nil {
		pbr = &gltf.PBRMetallicRoughness{}
	}

	var mat scene.Material
	if _, ok := m.Extensions[unlitMaterialExt]; ok {
		mat = scene.NewBasicMaterial(m.Name)
	} else {
		std := scene.NewStandardMaterial(m.Name)
		std.Metalness = pbr.MetallicFactorOrDefault()
		std.Roughness = pbr.RoughnessFactorOrDefault()
		std.Emissive = scene.Color{R: m.EmissiveFactor[0], G: m.EmissiveFactor[1], B: m.EmissiveFactor[2]}
		mat = std
	}
	base := mat.Base()
	color := pbr.BaseColorFactorOrDefault()
	base.Color = scene.Color{R: color[0], G: color[1], B: color[2]}
	base.Opacity = color[3]
	base.DoubleSided = m.DoubleSided
	if pbr.BaseColorTexture != nil {
		base.Map = c.convertTexture(pbr.BaseColorTexture.Index)
	}
	c.materials[index] = mat
	return mat
}

// convertMesh merges all triangle primitives of a mesh into one geometry.
// Each primitive becomes a material group.
func (c *gltfToScene) convertMesh(mesh *gltf.Mesh, skinned bool) (*scene.MeshData, error) {
	g := &scene.Geometry{}
	var materials []scene.Material
	bases := map[uint32]int{} // position accessor -> first vertex
	for _, p := range mesh.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			c.options.Logger.Warn("gltf: unsupported primitive mode", zap.Any("mode", p.Mode))
			continue
		}
		posIndex, ok := p.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		base, seen := bases[posIndex]
		if !seen {
			var err error
			if base, err = c.readAttributes(g, p, skinned); err != nil {
				return nil, err
			}
			bases[posIndex] = base
		}
		count := int(c.doc.Accessors[posIndex].Count)

		start := len(g.Indices)
		if p.Indices != nil {
			indices, err := modeler.ReadIndices(c.doc, c.doc.Accessors[*p.Indices], []uint32{})
			if err != nil {
				return nil, err
			}
			for _, i := range indices {
				g.Indices = append(g.Indices, uint32(base)+i)
			}
		} else {
			for i := 0; i < count; i++ {
				g.Indices = append(g.Indices, uint32(base+i))
			}
		}

		var mat scene.Material
		if p.Material != nil {
			mat = c.convertMaterial(*p.Material)
		}
		g.AddGroup(start, len(g.Indices)-start, len(materials))
		materials = append(materials, mat)
	}
	if g.Normals != nil {
		g.Normals = padVec3(g.Normals, len(g.Positions))
	}
	if g.UVs != nil {
		g.UVs = padVec2(g.UVs, len(g.Positions))
	}
	for g.Joints != nil && len(g.Joints) < len(g.Positions) {
		g.Joints = append(g.Joints, [4]uint16{})
		g.Weights = append(g.Weights, [4]float32{})
	}

	data := &scene.MeshData{Geometry: g}
	if len(materials) > 1 {
		data.Materials = materials
	} else {
		g.Groups = nil
		if len(materials) == 1 {
			data.Material = materials[0]
		}
	}
	return data, nil
}

// readAttributes appends the vertex attributes of p to g and returns the
// index of its first vertex.
func (c *gltfToScene) readAttributes(g *scene.Geometry, p *gltf.Primitive, skinned bool) (int, error) {
	base := len(g.Positions)
	pos, err := modeler.ReadPosition(c.doc, c.doc.Accessors[p.Attributes[gltf.POSITION]], [][3]float32{})
	if err != nil {
		return 0, err
	}
	for _, v := range pos {
		g.Positions = append(g.Positions, geom.Vector3{X: v[0], Y: v[1], Z: v[2]})
	}
	if i, ok := p.Attributes[gltf.NORMAL]; ok {
		normals, err := modeler.ReadNormal(c.doc, c.doc.Accessors[i], [][3]float32{})
		if err != nil {
			return 0, err
		}
		g.Normals = padVec3(g.Normals, base)
		for _, v := range normals {
			g.Normals = append(g.Normals, geom.Vector3{X: v[0], Y: v[1], Z: v[2]})
		}
	}
	if i, ok := p.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, err := modeler.ReadTextureCoord(c.doc, c.doc.Accessors[i], [][2]float32{})
		if err != nil {
			return 0, err
		}
		g.UVs = padVec2(g.UVs, base)
		for _, v := range uvs {
			g.UVs = append(g.UVs, geom.Vector2{X: v[0], Y: v[1]})
		}
	}
	j, okj := p.Attributes[gltf.JOINTS_0]
	w, okw := p.Attributes[gltf.WEIGHTS_0]
	if skinned && okj && okw {
		joints, err := modeler.ReadJoints(c.doc, c.doc.Accessors[j], [][4]uint16{})
		if err != nil {
			return 0, err
		}
		weights, err := modeler.ReadWeights(c.doc, c.doc.Accessors[w], [][4]float32{})
		if err != nil {
			return 0, err
		}
		for len(g.Joints) < base {
			g.Joints = append(g.Joints, [4]uint16{})
			g.Weights = append(g.Weights, [4]float32{})
		}
		g.Joints = append(g.Joints, joints...)
		g.Weights = append(g.Weights, weights...)
	}
	return base, nil
}

func padVec3(a []geom.Vector3, n int) []geom.Vector3 {
	for len(a) < n {
		a = append(a, geom.Vector3{})
	}
	return a
}

func padVec2(a []geom.Vector2, n int) []geom.Vector2 {
	for len(a) < n {
		a = append(a, geom.Vector2{})
	}
	return a
}

func (c *gltfToScene) convertNode(n *gltf.Node) *scene.Node {
	node := scene.NewGroup(n.Name)
	if m := n.MatrixOrDefault(); m != gltf.DefaultMatrix && m != [16]float32{} {
		node.SetTransform(geom.NewMatrix4FromSlice(m[:]))
	} else {
		node.Position = *geom.NewVector3FromArray(n.Translation)
		if n.Rotation != [4]float32{} {
			node.Rotation = *geom.NewQuaternionFromArray(n.Rotation)
		}
		if n.Scale != [3]float32{} {
			node.Scale = *geom.NewVector3FromArray(n.Scale)
		}
	}
	return node
}

func (c *gltfToScene) readInverseBindMatrices(skin *gltf.Skin) ([]*geom.Matrix4, error) {
	mats := make([]*geom.Matrix4, len(skin.Joints))
	for i := range mats {
		mats[i] = geom.NewMatrix4()
	}
	if skin.InverseBindMatrices == nil {
		return mats, nil
	}
	if int(*skin.InverseBindMatrices) >= len(c.doc.Accessors) {
		return nil, errors.Errorf("gltf: accessor %d out of range", *skin.InverseBindMatrices)
	}
	acr := c.doc.Accessors[*skin.InverseBindMatrices]
	data, err := modeler.ReadAccessor(c.doc, acr, nil)
	if err != nil {
		return nil, err
	}
	src, ok := data.([][4][4]float32)
	if !ok {
		return nil, errors.Errorf("gltf: unexpected inverse bind matrix type %T", data)
	}
	for i := 0; i < len(src) && i < len(mats); i++ {
		m := mats[i]
		// src is indexed [row][col]; m is column-major.
		for col := 0; col < 4; col++ {
			for row := 0; row < 4; row++ {
				m[col*4+row] = src[i][row][col]
			}
		}
	}
	return mats, nil
}

func (c *gltfToScene) Convert(doc *gltf.Document) (*scene.Node, error) {
	c.doc = doc
	c.nodes = make([]*scene.Node, len(doc.Nodes))
	c.materials = map[uint32]scene.Material{}
	c.textures = map[uint32]*scene.Texture{}

	for i, n := range doc.Nodes {
		c.nodes[i] = c.convertNode(n)
	}
	for i, n := range doc.Nodes {
		for _, child := range n.Children {
			if int(child) >= len(c.nodes) || int(child) == i || c.nodes[child].Parent != nil {
				continue
			}
			c.nodes[i].Add(c.nodes[child])
		}
	}

	for _, s := range doc.Skins {
		for _, j := range s.Joints {
			if int(j) < len(c.nodes) && c.nodes[j].Kind == scene.Group {
				c.nodes[j].Kind = scene.Bone
			}
		}
	}

	for i, n := range doc.Nodes {
		if n.Mesh == nil || int(*n.Mesh) >= len(doc.Meshes) {
			continue
		}
		skinned := n.Skin != nil && !c.options.IgnoreSkin && int(*n.Skin) < len(doc.Skins)
		mesh, err := c.convertMesh(doc.Meshes[*n.Mesh], skinned)
		if err != nil {
			return nil, errors.Wrapf(err, "gltf: mesh %d", *n.Mesh)
		}
		node := c.nodes[i]
		node.Mesh = mesh
		node.Kind = scene.Mesh
		if skinned {
			skin := doc.Skins[*n.Skin]
			ibm, err := c.readInverseBindMatrices(skin)
			if err != nil {
				return nil, errors.Wrapf(err, "gltf: skin %d", *n.Skin)
			}
			s := &scene.Skin{InverseBindMatrices: ibm}
			for _, j := range skin.Joints {
				s.Bones = append(s.Bones, c.nodes[j])
			}
			mesh.Skin = s
			node.Kind = scene.SkinnedMesh
		} else {
			mesh.Geometry.Joints = nil
			mesh.Geometry.Weights = nil
		}
	}

	root := scene.NewGroup("gltf")
	var sceneNodes []uint32
	if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
		sceneNodes = doc.Scenes[*doc.Scene].Nodes
	} else if len(doc.Scenes) > 0 {
		sceneNodes = doc.Scenes[0].Nodes
	} else {
		for i, n := range c.nodes {
			if n.Parent == nil {
				sceneNodes = append(sceneNodes, uint32(i))
			}
		}
	}
	for _, i := range sceneNodes {
		if int(i) < len(c.nodes) && c.nodes[i].Parent == nil {
			root.Add(c.nodes[i])
		}
	}
	return root, nil
}
