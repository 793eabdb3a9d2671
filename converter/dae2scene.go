package converter

import (
	"math"

	"github.com/binzume/pokeview/collada"
	"github.com/binzume/pokeview/geom"
	"github.com/binzume/pokeview/scene"
	"go.uber.org/zap"
)

type DAEToSceneOption struct {
	IgnoreSkin bool
	Logger     *zap.Logger
}

type daeToScene struct {
	options   *DAEToSceneOption
	doc       *collada.Document
	materials map[string]scene.Material
	byID      map[string]*scene.Node
	bySID     map[string]*scene.Node
	byName    map[string]*scene.Node
	pending   []pendingController
}

type pendingController struct {
	node *scene.Node
	inst *collada.ControllerInstance
}

func NewDAEToSceneConverter(options *DAEToSceneOption) *daeToScene {
	if options == nil {
		options = &DAEToSceneOption{}
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	return &daeToScene{options: options}
}

func rgb(c [4]float32) scene.Color {
	return scene.Color{R: c[0], G: c[1], B: c[2]}
}

func (c *daeToScene) convertMaterial(id string) scene.Material {
	if mat, ok := c.materials[id]; ok {
		return mat
	}
	m := c.doc.Material(id)
	if m == nil {
		c.options.Logger.Warn("collada: material not found", zap.String("id", id))
		c.materials[id] = nil
		return nil
	}
	name := m.Name
	if name == "" {
		name = m.ID
	}
	effect := c.doc.Effect(m.InstanceEffect.URL)
	if effect == nil {
		mat := scene.NewLambertMaterial(name)
		c.materials[id] = mat
		return mat
	}
	shader, model := effect.Profile.Technique.Shader()

	var mat scene.Material
	switch model {
	case collada.ShadingPhong, collada.ShadingBlinn:
		phong := scene.NewPhongMaterial(name)
		if v, ok := shader.Specular.RGBA(); ok {
			phong.Specular = rgb(v)
		}
		if v, ok := shader.Shininess.Value(); ok {
			phong.Shininess = v
		}
		if v, ok := shader.Reflectivity.Value(); ok {
			phong.Reflectivity = v
		}
		if v, ok := shader.Emission.RGBA(); ok {
			phong.Emissive = rgb(v)
		}
		mat = phong
	case collada.ShadingConstant:
		basic := scene.NewBasicMaterial(name)
		if v, ok := shader.Emission.RGBA(); ok {
			basic.Color = rgb(v)
		}
		if v, ok := shader.Reflectivity.Value(); ok {
			basic.Reflectivity = v
		}
		mat = basic
	default:
		lambert := scene.NewLambertMaterial(name)
		if v, ok := shader.Reflectivity.Value(); ok {
			lambert.Reflectivity = v
		}
		if v, ok := shader.Emission.RGBA(); ok {
			lambert.Emissive = rgb(v)
		}
		mat = lambert
	}

	base := mat.Base()
	if v, ok := shader.Diffuse.RGBA(); ok {
		base.Color = rgb(v)
	}
	if shader.Diffuse != nil && shader.Diffuse.Texture != nil {
		if path := c.doc.TexturePath(effect, shader.Diffuse.Texture.Texture); path != "" {
			base.Map = scene.NewTexture(path)
		}
	}
	if v, ok := shader.Transparency.Value(); ok && v > 0 && v < 1 {
		base.Opacity = v
	}
	c.materials[id] = mat
	return mat
}

// convertMesh unrolls the primitives of a mesh. bindShape is applied to
// positions and may be nil.
func (c *daeToScene) convertMesh(mesh *collada.Mesh, bind *collada.BindMaterial, bindShape *geom.Matrix4) (*meshBuilder, *scene.MeshData) {
	b := newMeshBuilder()
	var positions, normals *collada.Source
	for _, in := range mesh.Vertices.Inputs {
		switch in.Semantic {
		case "POSITION":
			positions = mesh.Source(in.Source)
		case "NORMAL":
			normals = mesh.Source(in.Source)
		}
	}
	posData := positions.Floats()
	posStride := positions.Stride()
	var materials []scene.Material

	for mi, prim := range mesh.Primitives() {
		materials = append(materials, c.convertMaterial(bind.Target(prim.Material)))

		vertexOffset, normalOffset, uvOffset := -1, -1, -1
		primNormals := normals
		var uvs *collada.Source
		for _, in := range prim.Inputs {
			switch in.Semantic {
			case "VERTEX":
				vertexOffset = in.Offset
			case "NORMAL":
				normalOffset = in.Offset
				primNormals = mesh.Source(in.Source)
			case "TEXCOORD":
				if uvs == nil || in.Set == 0 {
					uvOffset = in.Offset
					uvs = mesh.Source(in.Source)
				}
			}
		}
		if vertexOffset < 0 {
			continue
		}
		normalData, normalStride := primNormals.Floats(), primNormals.Stride()
		uvData, uvStride := uvs.Floats(), uvs.Stride()

		p := collada.ParseInts(prim.P)
		stride := prim.Stride()
		k := 0
		for _, size := range prim.PolygonSizes() {
			var face []uint32
			for i := 0; i < size; i++ {
				base := (k + i) * stride
				if base+stride > len(p) {
					break
				}
				cp := p[base+vertexOffset]
				if (cp+1)*posStride > len(posData) || posStride < 3 {
					continue
				}
				pos := geom.NewVector3FromSlice(posData[cp*posStride:])
				if bindShape != nil {
					pos = bindShape.ApplyTo(pos)
				}
				var n *geom.Vector3
				ni := cp
				if normalOffset >= 0 {
					ni = p[base+normalOffset]
				}
				if normalData != nil && (ni+1)*normalStride <= len(normalData) && normalStride >= 3 {
					n = geom.NewVector3FromSlice(normalData[ni*normalStride:])
				}
				var uv *geom.Vector2
				if uvOffset >= 0 {
					ti := p[base+uvOffset]
					if (ti+1)*uvStride <= len(uvData) && uvStride >= 2 {
						uv = &geom.Vector2{X: uvData[ti*uvStride], Y: 1 - uvData[ti*uvStride+1]}
					}
				}
				face = append(face, b.addVertex(pos, n, uv, cp))
			}
			k += size
			b.addPolygon(face, mi)
		}
	}
	return b, b.build(materials)
}

func (c *daeToScene) convertNode(n *collada.Node) *scene.Node {
	name := n.Name
	if name == "" {
		name = n.ID
	}
	var node *scene.Node
	if n.IsJoint() {
		node = scene.NewNode(name, scene.Bone)
	} else {
		node = scene.NewGroup(name)
	}
	node.SetTransform(n.Matrix())
	if n.ID != "" {
		c.byID[n.ID] = node
	}
	if n.SID != "" {
		c.bySID[n.SID] = node
	}
	c.byName[name] = node

	for i := range n.InstanceGeometry {
		inst := &n.InstanceGeometry[i]
		g := c.doc.Geometry(inst.URL)
		if g == nil || g.Mesh == nil {
			c.options.Logger.Warn("collada: geometry not found", zap.String("url", inst.URL))
			continue
		}
		_, mesh := c.convertMesh(g.Mesh, &inst.BindMaterial, nil)
		node.Add(scene.NewMeshNode(name+"_mesh", mesh))
	}
	for i := range n.InstanceController {
		c.pending = append(c.pending, pendingController{node: node, inst: &n.InstanceController[i]})
	}
	for i := range n.Nodes {
		node.Add(c.convertNode(&n.Nodes[i]))
	}
	return node
}

func (c *daeToScene) findJoint(name string) *scene.Node {
	if n, ok := c.bySID[name]; ok {
		return n
	}
	if n, ok := c.byID[name]; ok {
		return n
	}
	return c.byName[name]
}

func (c *daeToScene) convertController(p pendingController) {
	ctrl := c.doc.Controller(p.inst.URL)
	if ctrl == nil || ctrl.Skin == nil {
		c.options.Logger.Warn("collada: controller not found", zap.String("url", p.inst.URL))
		return
	}
	skin := ctrl.Skin
	g := c.doc.Geometry(skin.Source)
	if g == nil || g.Mesh == nil {
		c.options.Logger.Warn("collada: skin source not found", zap.String("source", skin.Source))
		return
	}
	var bindShape *geom.Matrix4
	if v := collada.ParseFloats(skin.BindShapeMatrix); len(v) == 16 {
		bindShape = collada.RowMajorMatrix(v)
	}
	b, mesh := c.convertMesh(g.Mesh, &p.inst.BindMaterial, bindShape)
	node := scene.NewMeshNode(p.node.Name+"_mesh", mesh)
	p.node.Add(node)
	if c.options.IgnoreSkin {
		return
	}

	names := skin.JointInput("JOINT").Names()
	invBind := skin.JointInput("INV_BIND_MATRIX").Floats()
	joints := make([]int, len(names)) // joint index in the skin, or -1
	s := &scene.Skin{}
	for i, name := range names {
		bone := c.findJoint(name)
		if bone == nil {
			c.options.Logger.Warn("collada: joint not found", zap.String("joint", name))
			joints[i] = -1
			continue
		}
		joints[i] = len(s.Bones)
		s.Bones = append(s.Bones, bone)
		if len(invBind) >= (i+1)*16 {
			s.InverseBindMatrices = append(s.InverseBindMatrices, collada.RowMajorMatrix(invBind[i*16:(i+1)*16]))
		} else {
			s.InverseBindMatrices = append(s.InverseBindMatrices, geom.NewMatrix4())
		}
	}
	if len(s.Bones) == 0 {
		return
	}

	vw := &skin.VertexWeights
	jointOffset, weightOffset := -1, -1
	var weights []float32
	stride := 0
	for _, in := range vw.Inputs {
		switch in.Semantic {
		case "JOINT":
			jointOffset = in.Offset
		case "WEIGHT":
			weightOffset = in.Offset
			weights = skin.FindSource(in.Source).Floats()
		}
		if in.Offset+1 > stride {
			stride = in.Offset + 1
		}
	}
	if jointOffset < 0 || weightOffset < 0 {
		return
	}
	v := collada.ParseInts(vw.V)
	vcount := collada.ParseInts(vw.VCount)
	influences := make([][]influence, len(vcount))
	k := 0
	for cp, count := range vcount {
		for i := 0; i < count; i++ {
			base := (k + i) * stride
			if base+stride > len(v) {
				break
			}
			j, w := v[base+jointOffset], v[base+weightOffset]
			if j < 0 || j >= len(joints) || joints[j] < 0 || w >= len(weights) {
				continue
			}
			influences[cp] = append(influences[cp], influence{joint: joints[j], weight: weights[w]})
		}
		k += count
	}
	b.setSkinWeights(influences)
	mesh.Skin = s
	node.Kind = scene.SkinnedMesh
}

// Convert builds the main visual scene under an identity root group.
// Z_UP documents and non-meter units are corrected by an inner group.
func (c *daeToScene) Convert(doc *collada.Document) (*scene.Node, error) {
	vs, err := doc.MainScene()
	if err != nil {
		return nil, err
	}
	c.doc = doc
	c.materials = map[string]scene.Material{}
	c.byID = map[string]*scene.Node{}
	c.bySID = map[string]*scene.Node{}
	c.byName = map[string]*scene.Node{}
	c.pending = nil

	root := scene.NewGroup("collada")
	content := root
	if doc.Asset.UpAxis == "Z_UP" || (doc.Asset.Unit.Meter > 0 && doc.Asset.Unit.Meter != 1) {
		content = scene.NewGroup(vs.Name)
		if doc.Asset.UpAxis == "Z_UP" {
			content.Rotation = *geom.NewAxisAngleQuaternion(geom.NewVector3(1, 0, 0), -math.Pi/2)
		}
		if m := doc.Asset.Unit.Meter; m > 0 {
			content.Scale = *geom.NewVector3(m, m, m)
		}
		root.Add(content)
	}
	for i := range vs.Nodes {
		content.Add(c.convertNode(&vs.Nodes[i]))
	}
	for _, p := range c.pending {
		c.convertController(p)
	}
	return root, nil
}
