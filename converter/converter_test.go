package converter

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/binzume/pokeview/collada"
	"github.com/binzume/pokeview/fbx"
	"github.com/binzume/pokeview/geom"
	"github.com/binzume/pokeview/gltfutil"
	"github.com/binzume/pokeview/scene"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/image/bmp"
)

const eps = 1e-4

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func TestFBXToScene(t *testing.T) {
	doc, err := fbx.Load("../testdata/box.fbx")
	if err != nil {
		t.Fatal(err)
	}
	root, err := NewFBXToSceneConverter(nil).Convert(doc)
	if err != nil {
		t.Fatal(err)
	}
	if root.Name != "fbx" || root.Scale != (geom.Vector3{X: 1, Y: 1, Z: 1}) {
		t.Error("unexpected root", root.Name, root.Scale)
	}

	box := root.Find("box")
	if box == nil || !box.IsMesh() {
		t.Fatal("box mesh not found")
	}
	if box.Kind != scene.SkinnedMesh {
		t.Error("box should be skinned", box.Kind)
	}
	if box.Position != (geom.Vector3{X: 1}) {
		t.Error("position", box.Position)
	}
	g := box.Mesh.Geometry
	if g.VertexCount() != 24 || g.TriangleCount() != 12 {
		t.Error("geometry", g.VertexCount(), g.TriangleCount())
	}
	if len(g.Normals) != 24 || len(g.UVs) != 24 {
		t.Error("attributes", len(g.Normals), len(g.UVs))
	}
	if g.UVs[0] != (geom.Vector2{X: 0, Y: 1}) {
		t.Error("uv should be flipped", g.UVs[0])
	}

	if !box.Mesh.IsMultiMaterial() || len(box.Mesh.Materials) != 2 {
		t.Fatal("expected two materials", box.Mesh.Materials)
	}
	if len(g.Groups) != 2 || g.Groups[0].Count != 24 || g.Groups[1].Count != 12 || g.Groups[1].MaterialIndex != 1 {
		t.Error("groups", g.Groups)
	}
	body, ok := box.Mesh.Materials[0].(*scene.PhongMaterial)
	if !ok {
		t.Fatalf("body material %T", box.Mesh.Materials[0])
	}
	if body.Name != "body" || body.Color.Hex() != 0xff0000 || body.Specular.Hex() != 0xffffff || body.Shininess != 20 {
		t.Error("body", body.Name, body.Color, body.Specular, body.Shininess)
	}
	if body.Map.Src() != `tex\body.png` {
		t.Error("body texture", body.Map.Src())
	}
	if _, ok := box.Mesh.Materials[1].(*scene.LambertMaterial); !ok {
		t.Errorf("eye material %T", box.Mesh.Materials[1])
	}

	hip := root.Find("hip")
	if hip == nil || hip.Kind != scene.Bone {
		t.Fatal("hip bone not found")
	}
	skin := box.Mesh.Skin
	if len(skin.Bones) != 1 || skin.Bones[0] != hip {
		t.Error("skin bones", skin.Bones)
	}
	if abs(skin.InverseBindMatrices[0][13]+1.5) > eps {
		t.Error("inverse bind matrix", skin.InverseBindMatrices[0])
	}
	if g.Joints[5] != [4]uint16{0, 0, 0, 0} || g.Weights[5] != [4]float32{1, 0, 0, 0} {
		t.Error("weights", g.Joints[5], g.Weights[5])
	}
}

func TestFBXToSceneIgnoreSkin(t *testing.T) {
	doc, err := fbx.Load("../testdata/box.fbx")
	if err != nil {
		t.Fatal(err)
	}
	root, _ := NewFBXToSceneConverter(&FBXToSceneOption{IgnoreSkin: true}).Convert(doc)
	box := root.Find("box")
	if box.Kind != scene.Mesh || box.Mesh.Skin != nil || box.Mesh.Geometry.Joints != nil {
		t.Error("skin should be ignored")
	}
}

func TestFBXToSceneUnboundCluster(t *testing.T) {
	src, err := os.ReadFile("../testdata/box.fbx")
	if err != nil {
		t.Fatal(err)
	}
	unbound := strings.Replace(string(src), "C: \"OO\",2001,5001\n", "", 1)
	doc, err := fbx.Parse(strings.NewReader(unbound))
	if err != nil {
		t.Fatal(err)
	}
	core, logs := observer.New(zap.WarnLevel)
	root, err := NewFBXToSceneConverter(&FBXToSceneOption{Logger: zap.New(core)}).Convert(doc)
	if err != nil {
		t.Fatal(err)
	}
	box := root.Find("box")
	if box.Kind != scene.Mesh || box.Mesh.Skin != nil {
		t.Error("box should stay unskinned", box.Kind)
	}
	if logs.FilterMessage("fbx: cluster target not in scene").Len() != 1 {
		t.Error("cluster warning", logs.All())
	}
	if logs.FilterMessage("fbx: skin without bones").Len() != 1 {
		t.Error("skin warning", logs.All())
	}
}

func TestDAEToScene(t *testing.T) {
	doc, err := collada.Load("../testdata/pokemon/5/lizardo.dae")
	if err != nil {
		t.Fatal(err)
	}
	root, err := NewDAEToSceneConverter(nil).Convert(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(root.Children) != 2 {
		t.Fatal("expected Armature and Lizardo", len(root.Children))
	}
	mesh := root.Find("Lizardo_mesh")
	if mesh == nil || mesh.Kind != scene.SkinnedMesh {
		t.Fatal("skinned mesh not found")
	}
	g := mesh.Mesh.Geometry
	if g.TriangleCount() != 12 || g.VertexCount() != 34 {
		t.Error("geometry", g.TriangleCount(), g.VertexCount())
	}
	if len(mesh.Mesh.Materials) != 2 {
		t.Fatal("materials", mesh.Mesh.Materials)
	}
	body := mesh.Mesh.Materials[0].(*scene.PhongMaterial)
	if body.Map.Src() != "tex/body.png" || abs(body.Reflectivity-0.3) > eps || body.Shininess != 20 {
		t.Error("body", body.Map.Src(), body.Reflectivity, body.Shininess)
	}
	eye := mesh.Mesh.Materials[1].(*scene.LambertMaterial)
	if eye.Map.Src() != "/abs/eye.png" || eye.Opacity != 0.5 {
		t.Error("eye", eye.Map.Src(), eye.Opacity)
	}

	head := root.Find("head")
	skin := mesh.Mesh.Skin
	if len(skin.Bones) != 2 || skin.Bones[0] != root.Find("hip") || skin.Bones[1] != head {
		t.Fatal("bones", skin.Bones)
	}
	if abs(skin.InverseBindMatrices[1][13]+2) > eps {
		t.Error("inverse bind matrix", skin.InverseBindMatrices[1])
	}
	if abs(head.WorldMatrix()[13]-2) > eps {
		t.Error("head position", head.WorldMatrix())
	}
	// vertex 2 comes from control point 2, shared by both joints
	if g.Joints[2] != [4]uint16{0, 1, 0, 0} || abs(g.Weights[2][0]-0.5) > eps || abs(g.Weights[2][1]-0.5) > eps {
		t.Error("weights", g.Joints[2], g.Weights[2])
	}
}

func pngBytes(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testScene(tex *scene.Texture) *scene.Node {
	root := scene.NewGroup("root")
	bone := scene.NewNode("bone", scene.Bone)
	bone.Position = geom.Vector3{Y: 1}
	root.Add(bone)

	mat := scene.NewStandardMaterial("skin")
	mat.Metalness = 0.25
	mat.Roughness = 0.5
	mat.Color = scene.NewColorHex(0x4080ff)
	mat.Map = tex
	mesh := &scene.MeshData{
		Geometry: &scene.Geometry{
			Positions: []geom.Vector3{{}, {X: 1}, {Y: 1}},
			Normals:   []geom.Vector3{{Z: 1}, {Z: 1}, {Z: 1}},
			UVs:       []geom.Vector2{{}, {X: 1}, {Y: 1}},
			Indices:   []uint32{0, 1, 2},
			Joints:    [][4]uint16{{}, {}, {}},
			Weights:   [][4]float32{{1}, {1}, {1}},
		},
		Material: mat,
		Skin:     &scene.Skin{Bones: []*scene.Node{bone}, InverseBindMatrices: []*geom.Matrix4{geom.NewTranslateMatrix4(0, -1, 0)}},
	}
	root.Add(scene.NewMeshNode("tri", mesh))
	return root
}

func TestSceneToGLTFRoundTrip(t *testing.T) {
	fsys := fstest.MapFS{"pokemon/5/body.png": {Data: pngBytes(t)}}
	src := testScene(scene.NewTexture("/pokemon/5/body.png"))

	doc, err := NewSceneToGLTFConverter(&SceneToGLTFOption{TextureSource: fsys}).Convert(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Nodes) != 3 || len(doc.Meshes) != 1 || len(doc.Skins) != 1 || len(doc.Images) != 1 {
		t.Fatal("document", len(doc.Nodes), len(doc.Meshes), len(doc.Skins), len(doc.Images))
	}
	if doc.Images[0].BufferView == nil || doc.Images[0].MimeType != "image/png" {
		t.Error("texture should be embedded", doc.Images[0])
	}

	var buf bytes.Buffer
	if err := gltfutil.EncodeBinary(&buf, doc); err != nil {
		t.Fatal(err)
	}
	decoded, err := gltfutil.Decode(fstest.MapFS{"out.glb": {Data: buf.Bytes()}}, "out.glb")
	if err != nil {
		t.Fatal(err)
	}
	root, err := NewGLTFToSceneConverter(nil).Convert(decoded)
	if err != nil {
		t.Fatal(err)
	}

	tri := root.Find("tri")
	if tri == nil || tri.Kind != scene.SkinnedMesh {
		t.Fatal("tri not found")
	}
	g := tri.Mesh.Geometry
	if g.VertexCount() != 3 || g.TriangleCount() != 1 || g.Positions[1] != (geom.Vector3{X: 1}) || g.UVs[2] != (geom.Vector2{Y: 1}) {
		t.Error("geometry", g.Positions, g.UVs)
	}
	mat, ok := tri.Mesh.Material.(*scene.StandardMaterial)
	if !ok {
		t.Fatalf("material %T", tri.Mesh.Material)
	}
	if mat.Metalness != 0.25 || mat.Roughness != 0.5 || mat.Color.Hex() != 0x4080ff {
		t.Error("material", mat.Metalness, mat.Roughness, mat.Color)
	}
	if mat.Map == nil || mat.Map.Image.Data == nil {
		t.Error("embedded texture lost")
	} else if _, err := png.Decode(bytes.NewReader(mat.Map.Image.Data)); err != nil {
		t.Error(err)
	}

	bone := root.Find("bone")
	if bone == nil || bone.Kind != scene.Bone || bone.Position != (geom.Vector3{Y: 1}) {
		t.Fatal("bone", bone)
	}
	skin := tri.Mesh.Skin
	if len(skin.Bones) != 1 || skin.Bones[0] != bone {
		t.Error("skin bones", skin.Bones)
	}
	if *skin.InverseBindMatrices[0] != *geom.NewTranslateMatrix4(0, -1, 0) {
		t.Error("inverse bind matrix", skin.InverseBindMatrices[0])
	}
}

func TestGLTFInverseBindMatrices(t *testing.T) {
	doc := gltf.NewDocument()
	// [row][col]: translation (2, -1, 3) with the x axis scaled by 4.
	acc := modeler.WriteAccessor(doc, gltf.TargetNone, [][4][4]float32{
		{{4, 0, 0, 2}, {0, 1, 0, -1}, {0, 0, 1, 3}, {0, 0, 0, 1}},
	})
	doc.Nodes = []*gltf.Node{{Name: "bone"}}
	doc.Skins = []*gltf.Skin{{Joints: []uint32{0}, InverseBindMatrices: gltf.Index(acc)}}

	c := NewGLTFToSceneConverter(nil)
	c.doc = doc
	mats, err := c.readInverseBindMatrices(doc.Skins[0])
	if err != nil {
		t.Fatal(err)
	}
	expected := geom.Matrix4{4, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 2, -1, 3, 1}
	if len(mats) != 1 || *mats[0] != expected {
		t.Error("inverse bind matrix", mats)
	}

	doc.Skins[0].InverseBindMatrices = gltf.Index(99)
	if _, err := c.readInverseBindMatrices(doc.Skins[0]); err == nil {
		t.Error("out of range accessor should fail")
	}
}

func TestSceneToGLTFTextures(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 2))
	for x := 0; x < 8; x++ {
		img.Set(x, 0, color.RGBA{B: 255, A: 255})
		img.Set(x, 1, color.RGBA{G: 255, A: 255})
	}
	var bmpData bytes.Buffer
	if err := bmp.Encode(&bmpData, img); err != nil {
		t.Fatal(err)
	}
	fsys := fstest.MapFS{"models/tex/skin.bmp": {Data: bmpData.Bytes()}}

	cases := []struct {
		src      string
		embedded bool
	}{
		{`tex\skin.bmp`, true},
		{"http://cdn/x.png", false},
		{"/missing.png", false},
	}
	for _, c := range cases {
		conv := NewSceneToGLTFConverter(&SceneToGLTFOption{TextureSource: fsys, TextureDir: "models", TextureResolutionLimit: 4})
		doc, err := conv.Convert(testScene(scene.NewTexture(c.src)))
		if err != nil {
			t.Fatal(err)
		}
		if len(doc.Images) != 1 {
			t.Fatal("images", len(doc.Images))
		}
		im := doc.Images[0]
		if c.embedded {
			if im.BufferView == nil || im.MimeType != "image/png" {
				t.Error("not embedded", c.src)
				continue
			}
			data, _ := gltfutil.ImageData(doc, im)
			decoded, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatal(err)
			}
			if decoded.Bounds().Dx() != 4 || decoded.Bounds().Dy() != 1 {
				t.Error("texture should be scaled", decoded.Bounds())
			}
		} else if im.URI != c.src || im.BufferView != nil {
			t.Error("uri should be kept", c.src, im.URI)
		}
	}
}

func TestSceneToGLTFMultiMaterial(t *testing.T) {
	doc, err := fbx.Load("../testdata/box.fbx")
	if err != nil {
		t.Fatal(err)
	}
	root, _ := NewFBXToSceneConverter(nil).Convert(doc)
	out, err := NewSceneToGLTFConverter(nil).Convert(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Meshes) != 1 || len(out.Meshes[0].Primitives) != 2 || len(out.Materials) != 2 {
		t.Fatal("primitives", len(out.Meshes), len(out.Materials))
	}
	back, err := NewGLTFToSceneConverter(nil).Convert(out)
	if err != nil {
		t.Fatal(err)
	}
	box := back.Find("box")
	if box == nil || len(box.Mesh.Materials) != 2 || len(box.Mesh.Geometry.Groups) != 2 {
		t.Fatal("multi material lost")
	}
	if box.Mesh.Materials[0].Base().Name != "body" || box.Mesh.Materials[1].Base().Name != "eye" {
		t.Error("material order", box.Mesh.Materials[0].Base().Name, box.Mesh.Materials[1].Base().Name)
	}
}
