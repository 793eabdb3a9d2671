package converter

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"io/fs"
	"math"
	"path"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/binzume/pokeview/geom"
	"github.com/binzume/pokeview/gltfutil"
	"github.com/binzume/pokeview/scene"
	"github.com/blezek/tga"
	_ "github.com/oov/psd"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

type SceneToGLTFOption struct {
	// TextureSource resolves texture sources. Nil leaves every texture as a URI.
	TextureSource fs.FS
	// TextureDir is the base directory for relative texture sources.
	TextureDir             string
	TextureResolutionLimit int
	Logger                 *zap.Logger
}

type sceneToGltf struct {
	*SceneToGLTFOption
	*gltf.Document
	nodeIndex map[*scene.Node]uint32
	materials map[scene.Material]uint32
	textures  *textureCache
	useUnlit  bool
}

func NewSceneToGLTFConverter(options *SceneToGLTFOption) *sceneToGltf {
	if options == nil {
		options = &SceneToGLTFOption{}
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	return &sceneToGltf{
		SceneToGLTFOption: options,
		Document:          gltf.NewDocument(),
		nodeIndex:         map[*scene.Node]uint32{},
		materials:         map[scene.Material]uint32{},
		textures:          &textureCache{fsys: options.TextureSource, textures: map[string]*textureInfo{}},
	}
}

type textureCache struct {
	fsys     fs.FS
	textures map[string]*textureInfo
}

type textureInfo struct {
	name string
	id   *uint32
	data []byte
	img  image.Image
	err  error
}

func (c *textureCache) get(name string) *textureInfo {
	if t, ok := c.textures[name]; ok {
		return t
	}
	t := &textureInfo{name: name}
	c.textures[name] = t
	return t
}

func (c *textureCache) getData(name string) ([]byte, error) {
	t := c.get(name)
	if t.data != nil || t.err != nil {
		return t.data, t.err
	}
	if c.fsys == nil {
		t.err = fs.ErrNotExist
		return nil, t.err
	}
	t.data, t.err = fs.ReadFile(c.fsys, name)
	return t.data, t.err
}

func (c *textureCache) getImage(name string) (image.Image, error) {
	t := c.get(name)
	if t.img != nil {
		return t.img, nil
	}
	data, err := c.getData(name)
	if err != nil {
		return nil, err
	}
	t.img, _, err = image.Decode(bytes.NewReader(data))
	if err != nil && strings.ToLower(path.Ext(name)) == ".tga" {
		// retry
		t.img, err = tga.Decode(bytes.NewReader(data))
	}
	return t.img, err
}

// texturePath maps a texture source to a path inside the texture FS.
// It returns "" for remote sources.
func (m *sceneToGltf) texturePath(src string) string {
	if strings.HasPrefix(src, "http:") || strings.HasPrefix(src, "https:") {
		return ""
	}
	src = strings.ReplaceAll(src, "\\", "/")
	if strings.HasPrefix(src, "/") {
		return path.Clean(strings.TrimLeft(src, "/"))
	}
	return path.Join(m.TextureDir, src)
}

func scaleTexture(img image.Image, limit int) image.Image {
	rect := img.Bounds()
	sz := rect.Dx()
	if rect.Dy() > sz {
		sz = rect.Dy()
	}
	if limit <= 0 || sz <= limit {
		return img
	}
	scale := float32(limit) / float32(sz)
	dst := image.NewRGBA(image.Rect(0, 0, int(float32(rect.Dx())*scale), int(float32(rect.Dy())*scale)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, rect, draw.Over, nil)
	return dst
}

func (m *sceneToGltf) encodeTexture(name string) (io.Reader, string, error) {
	mimeType := gltfutil.MimeType(name)
	if (mimeType == "image/png" || mimeType == "image/jpeg") && m.TextureResolutionLimit <= 0 {
		data, err := m.textures.getData(name)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), mimeType, nil
	}
	img, err := m.textures.getImage(name)
	if err != nil {
		return nil, "", err
	}
	w := new(bytes.Buffer)
	if err := png.Encode(w, scaleTexture(img, m.TextureResolutionLimit)); err != nil {
		return nil, "", err
	}
	return w, "image/png", nil
}

func (m *sceneToGltf) addImage(name, mimeType string, r io.Reader) (uint32, error) {
	img, err := modeler.WriteImage(m.Document, path.Base(name), mimeType, r)
	if err != nil {
		return 0, err
	}
	m.Buffers[0].ByteLength = uint32(len(m.Buffers[0].Data)) // avoid AddImage bug
	return img, nil
}

func (m *sceneToGltf) addTexture(tex *scene.Texture) *uint32 {
	if tex == nil || tex.Image == nil {
		return nil
	}
	key := tex.Image.Src
	if tex.Image.Data != nil {
		key = fmt.Sprintf("data:%p", tex.Image)
	}
	t := m.textures.get(key)
	if t.id != nil {
		return t.id
	}

	var img uint32
	var err error
	if tex.Image.Data != nil {
		mimeType := tex.Image.MimeType
		if mimeType == "" {
			mimeType = gltfutil.MimeType(tex.Name)
		}
		img, err = m.addImage(tex.Name, mimeType, bytes.NewReader(tex.Image.Data))
	} else if p := m.texturePath(key); p != "" && fs.ValidPath(p) {
		var r io.Reader
		var mimeType string
		if r, mimeType, err = m.encodeTexture(p); err == nil {
			img, err = m.addImage(p, mimeType, r)
		}
	} else {
		err = errors.New("remote texture")
	}
	if err != nil {
		m.Logger.Debug("texture kept as uri", zap.String("src", key), zap.Error(err))
		m.Images = append(m.Images, &gltf.Image{Name: tex.Name, URI: key})
		img = uint32(len(m.Images) - 1)
	}
	m.Textures = append(m.Textures, &gltf.Texture{Sampler: gltf.Index(0), Source: gltf.Index(img)})
	t.id = gltf.Index(uint32(len(m.Textures) - 1))
	return t.id
}

func phongRoughness(shininess float32) float32 {
	return float32(math.Sqrt(2 / (float64(shininess) + 2)))
}

func (m *sceneToGltf) convertMaterial(mat scene.Material) uint32 {
	if i, ok := m.materials[mat]; ok {
		return i
	}
	base := mat.Base()
	var metallic, roughness float32 = 0, 1
	var emissive scene.Color
	unlit := false
	switch mat := mat.(type) {
	case *scene.StandardMaterial:
		metallic, roughness, emissive = mat.Metalness, mat.Roughness, mat.Emissive
	case *scene.PhongMaterial:
		roughness, emissive = phongRoughness(mat.Shininess), mat.Emissive
	case *scene.LambertMaterial:
		emissive = mat.Emissive
	case *scene.BasicMaterial:
		unlit = true
	case *scene.ParamMaterial:
		metallic = mat.Float(scene.ParamMetalness, 0)
		roughness = mat.Float(scene.ParamRoughness, 1)
	}

	mm := &gltf.Material{
		Name: base.Name,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float32{base.Color.R, base.Color.G, base.Color.B, base.Opacity},
			MetallicFactor:  &metallic,
			RoughnessFactor: &roughness,
		},
		EmissiveFactor: emissive.Array(),
		DoubleSided:    base.DoubleSided,
	}
	if base.Opacity < 0.99 {
		mm.AlphaMode = gltf.AlphaBlend
	}
	if unlit {
		mm.Extensions = map[string]interface{}{unlitMaterialExt: map[string]string{}}
		m.useUnlit = true
	}
	if tex := m.addTexture(base.Map); tex != nil {
		mm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: *tex}
	}
	m.Materials = append(m.Materials, mm)
	i := uint32(len(m.Materials) - 1)
	m.materials[mat] = i
	return i
}

func (m *sceneToGltf) addMatrices(mat []*geom.Matrix4) uint32 {
	a := make([][4]float32, len(mat)*4)
	for i, m := range mat {
		for col := 0; col < 4; col++ {
			copy(a[i*4+col][:], m[col*4:col*4+4])
		}
	}
	acc := modeler.WriteTangent(m.Document, a)
	m.Accessors[acc].Type = gltf.AccessorMat4
	m.Accessors[acc].Count /= 4
	m.BufferViews[*m.Accessors[acc].BufferView].ByteStride *= 4
	return acc
}

func (m *sceneToGltf) convertMesh(node *scene.Node) *gltf.Mesh {
	g := node.Mesh.Geometry
	n := len(g.Positions)
	pos := make([][3]float32, n)
	for i, v := range g.Positions {
		pos[i] = v.Array()
	}
	attributes := map[string]uint32{gltf.POSITION: modeler.WritePosition(m.Document, pos)}
	if len(g.Normals) == n {
		normals := make([][3]float32, n)
		for i, v := range g.Normals {
			normals[i] = v.Array()
		}
		attributes[gltf.NORMAL] = modeler.WriteNormal(m.Document, normals)
	}
	if len(g.UVs) == n {
		uvs := make([][2]float32, n)
		for i, v := range g.UVs {
			uvs[i] = v.Array()
		}
		attributes[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(m.Document, uvs)
	}
	if node.Mesh.Skin != nil && len(g.Joints) == n && len(g.Weights) == n {
		attributes[gltf.JOINTS_0] = modeler.WriteJoints(m.Document, g.Joints)
		attributes[gltf.WEIGHTS_0] = modeler.WriteWeights(m.Document, g.Weights)
	}

	indices := g.Indices
	if indices == nil {
		indices = make([]uint32, n)
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	groups := g.Groups
	if !node.Mesh.IsMultiMaterial() || len(groups) == 0 {
		groups = []scene.GeometryGroup{{Start: 0, Count: len(indices), MaterialIndex: 0}}
	}

	mesh := &gltf.Mesh{Name: node.Name}
	for _, grp := range groups {
		end := grp.Start + grp.Count
		if grp.Start < 0 || end > len(indices) || grp.Count <= 0 {
			continue
		}
		p := &gltf.Primitive{
			Attributes: attributes,
			Indices:    gltf.Index(modeler.WriteIndices(m.Document, indices[grp.Start:end])),
		}
		if mat := node.Mesh.MaterialAt(grp.MaterialIndex); mat != nil {
			p.Material = gltf.Index(m.convertMaterial(mat))
		}
		mesh.Primitives = append(mesh.Primitives, p)
	}
	return mesh
}

func (m *sceneToGltf) addSkin(skin *scene.Skin) uint32 {
	s := &gltf.Skin{}
	for _, b := range skin.Bones {
		j, ok := m.nodeIndex[b]
		if !ok {
			m.Logger.Warn("bone outside exported tree", zap.String("bone", b.Name))
		}
		s.Joints = append(s.Joints, j)
	}
	ibm := skin.InverseBindMatrices
	for len(ibm) < len(skin.Bones) {
		ibm = append(ibm, geom.NewMatrix4())
	}
	s.InverseBindMatrices = gltf.Index(m.addMatrices(ibm[:len(skin.Bones)]))
	m.Skins = append(m.Skins, s)
	return uint32(len(m.Skins) - 1)
}

// Convert builds a glTF document whose single scene contains root.
func (m *sceneToGltf) Convert(root *scene.Node) (*gltf.Document, error) {
	if root == nil {
		return nil, errors.New("gltf: nil scene")
	}
	var nodes []*scene.Node
	root.Traverse(func(n *scene.Node) {
		m.nodeIndex[n] = uint32(len(nodes))
		nodes = append(nodes, n)
	})

	m.Nodes = make([]*gltf.Node, len(nodes))
	for i, n := range nodes {
		m.Nodes[i] = &gltf.Node{
			Name:        n.Name,
			Translation: n.Position.Array(),
			Rotation:    n.Rotation.Array(),
			Scale:       n.Scale.Array(),
		}
		for _, c := range n.Children {
			m.Nodes[i].Children = append(m.Nodes[i].Children, m.nodeIndex[c])
		}
	}
	for i, n := range nodes {
		if !n.IsMesh() || n.Mesh.Geometry == nil || len(n.Mesh.Geometry.Positions) == 0 {
			continue
		}
		mesh := m.convertMesh(n)
		if len(mesh.Primitives) == 0 {
			continue
		}
		m.Meshes = append(m.Meshes, mesh)
		m.Nodes[i].Mesh = gltf.Index(uint32(len(m.Meshes) - 1))
		if n.Mesh.Skin != nil && len(n.Mesh.Skin.Bones) > 0 {
			m.Nodes[i].Skin = gltf.Index(m.addSkin(n.Mesh.Skin))
		}
	}
	m.Scenes[0].Nodes = []uint32{0}

	if m.useUnlit {
		m.ExtensionsUsed = append(m.ExtensionsUsed, unlitMaterialExt)
	}
	if len(m.Textures) > 0 {
		m.Samplers = []*gltf.Sampler{{}}
	}
	for _, b := range m.Buffers {
		b.ByteLength = uint32(len(b.Data))
	}
	return m.Document, nil
}

// WriteGLB converts root and writes it to w as a binary glTF.
func WriteGLB(w io.Writer, root *scene.Node, options *SceneToGLTFOption) error {
	doc, err := NewSceneToGLTFConverter(options).Convert(root)
	if err != nil {
		return err
	}
	return gltfutil.EncodeBinary(w, doc)
}
