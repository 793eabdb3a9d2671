package fbx

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"os"
	"strings"
	"testing"

	"github.com/binzume/pokeview/geom"
)

const eps = 1e-5

func TestLoadASCII(t *testing.T) {
	doc, err := Load("../testdata/box.fbx")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Creator != "pokeview test fixture" {
		t.Error("Creator", doc.Creator)
	}
	if doc.UpAxis() != 1 || doc.UnitScaleFactor() != 2.5 {
		t.Error("GlobalSettings", doc.UpAxis(), doc.UnitScaleFactor())
	}

	models := doc.Scene.GetChildModels()
	if len(models) != 2 {
		t.Fatal("child models", len(models))
	}
	box := models[0]
	if box.ShortName() != "box" || box.Kind() != "Mesh" {
		t.Error("model", box.Name(), box.Kind())
	}
	if box.Parent != doc.Scene {
		t.Error("parent not linked")
	}
	if *box.GetScaling() != *geom.NewVector3(1, 1, 1) {
		t.Error("template scaling", box.GetScaling())
	}

	// 90 degrees around Y maps +X to -Z
	p := box.GetQuaternion().ApplyTo(geom.NewVector3(1, 0, 0))
	if p.X > eps || p.Z > -1+eps {
		t.Error("rotation", p)
	}

	g := box.GetGeometry()
	if g == nil {
		t.Fatal("no geometry")
	}
	if len(g.GetVertices()) != 8 {
		t.Error("vertices", len(g.GetVertices()))
	}
	polys := g.GetPolygons()
	if len(polys) != 6 || len(polys[0]) != 4 || polys[0][3] != 1 {
		t.Error("polygons", polys)
	}

	uv := g.GetLayerElementUV()
	resolve := uv.Resolver()
	if resolve(1, 6, 6) != 2 {
		t.Error("uv index", resolve(1, 6, 6))
	}
	mat := g.GetLayerElementMaterial().Resolver()
	if mat(4, 16, 2) != 1 || mat(0, 0, 0) != 0 {
		t.Error("material index")
	}
	if g.GetLayerElement("LayerElementColor", "Colors", "ColorIndex").Resolver()(0, 0, 0) != -1 {
		t.Error("missing element should resolve to -1")
	}

	mats := box.GetMaterials()
	if len(mats) != 2 || mats[0].ShadingModel() != "phong" || mats[1].ShadingModel() != "lambert" {
		t.Fatal("materials", len(mats))
	}
	if c := mats[0].GetColor("DiffuseColor", nil); c.X != 1 || c.Y != 0 {
		t.Error("DiffuseColor", c)
	}
	if mats[0].GetFactor("Shininess", 0) != 20 {
		t.Error("Shininess")
	}
	if mats[1].HasProperty("Shininess") {
		t.Error("lambert should not have shininess")
	}
	tex := mats[0].GetTexture("DiffuseColor")
	if tex == nil || tex.FileName() != `tex\body.png` {
		t.Error("texture", tex)
	}
	if mats[1].GetTexture("DiffuseColor") != nil {
		t.Error("eye has no texture")
	}

	clusters := g.GetClusters()
	if len(clusters) != 1 {
		t.Fatal("clusters", len(clusters))
	}
	if clusters[0].GetTarget() != models[1] {
		t.Error("cluster target")
	}
	if len(clusters[0].GetWeights()) != 8 || clusters[0].GetTransformLink()[13] != 1.5 {
		t.Error("cluster data")
	}
}

func TestParseUnknown(t *testing.T) {
	_, err := Parse(bytes.NewReader([]byte{0, 1, 2, 3}))
	if err != ErrUnknownFormat {
		t.Error("expected ErrUnknownFormat", err)
	}
}

func TestParseBinary(t *testing.T) {
	src, err := os.ReadFile("../testdata/box.fbx")
	if err != nil {
		t.Fatal(err)
	}
	root, err := ParseNodes(bytes.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}

	for _, version := range []uint32{7400, 7500} {
		data := encodeBinary(root, version)
		broot, err := ParseNodes(bytes.NewReader(data))
		if err != nil {
			t.Fatal(version, err)
		}
		var a, b strings.Builder
		for _, n := range root.Children {
			n.Dump(&a, 0, true)
		}
		for _, n := range broot.Children {
			n.Dump(&b, 0, true)
		}
		if a.String() != b.String() {
			t.Errorf("binary %d differs from ascii:\n%s\n---\n%s", version, b.String(), a.String())
		}

		doc, err := BuildDocument(broot)
		if err != nil {
			t.Fatal(err)
		}
		if len(doc.Materials) != 2 || doc.Scene.GetChildModels()[0].GetGeometry() == nil {
			t.Error("binary document", version)
		}
	}
}

func TestDump(t *testing.T) {
	n := NewNode("Vertices", []int32{1, 2, 3})
	n.Attributes[0].ArraySize = 3
	var b strings.Builder
	n.Dump(&b, 0, true)
	if b.String() != "Vertices: *3 { a:1,2,3}\n" {
		t.Errorf("Dump: %q", b.String())
	}
}

func TestShiftJISString(t *testing.T) {
	// "テスト" in Shift_JIS
	a := &Attribute{Value: string([]byte{0x83, 0x65, 0x83, 0x58, 0x83, 0x67})}
	if a.ToString() != "テスト" {
		t.Error("ToString", a.ToString())
	}
}

// encodeBinary writes nodes in the binary format. Float64 arrays are zlib compressed.
func encodeBinary(root *Node, version uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString(binaryMagic)
	buf.Write([]byte{0, 0x1a, 0})
	binary.Write(&buf, binary.LittleEndian, version)
	offsetSize := 4
	if version >= 7500 {
		offsetSize = 8
	}
	putOffset := func(b []byte, v uint64) {
		if offsetSize == 8 {
			binary.LittleEndian.PutUint64(b, v)
		} else {
			binary.LittleEndian.PutUint32(b, uint32(v))
		}
	}
	var writeNode func(n *Node)
	writeNode = func(n *Node) {
		start := buf.Len()
		buf.Write(make([]byte, offsetSize*3))
		buf.WriteByte(byte(len(n.Name)))
		buf.WriteString(n.Name)
		propStart := buf.Len()
		for _, a := range n.Attributes {
			writeAttribute(&buf, a)
		}
		propLen := buf.Len() - propStart
		if len(n.Children) > 0 {
			for _, c := range n.Children {
				writeNode(c)
			}
			buf.Write(make([]byte, offsetSize*3+1))
		}
		b := buf.Bytes()
		putOffset(b[start:], uint64(buf.Len()))
		putOffset(b[start+offsetSize:], uint64(len(n.Attributes)))
		putOffset(b[start+offsetSize*2:], uint64(propLen))
	}
	for _, n := range root.Children {
		writeNode(n)
	}
	buf.Write(make([]byte, offsetSize*3+1))
	return buf.Bytes()
}

func writeAttribute(buf *bytes.Buffer, a *Attribute) {
	le := binary.LittleEndian
	switch v := a.Value.(type) {
	case int64:
		buf.WriteByte('L')
		binary.Write(buf, le, v)
	case float64:
		buf.WriteByte('D')
		binary.Write(buf, le, v)
	case string:
		buf.WriteByte('S')
		binary.Write(buf, le, uint32(len(v)))
		buf.WriteString(v)
	case []int32:
		buf.WriteByte('i')
		binary.Write(buf, le, uint32(len(v)))
		binary.Write(buf, le, uint32(0))
		binary.Write(buf, le, uint32(len(v)*4))
		binary.Write(buf, le, v)
	case []float64:
		var z bytes.Buffer
		w := zlib.NewWriter(&z)
		binary.Write(w, le, v)
		w.Close()
		buf.WriteByte('d')
		binary.Write(buf, le, uint32(len(v)))
		binary.Write(buf, le, uint32(1))
		binary.Write(buf, le, uint32(z.Len()))
		buf.Write(z.Bytes())
	}
}

func TestTextParser(t *testing.T) {
	src := `; FBX 7.3.0 project file
FBXHeaderExtension:  {
	FBXVersion: 7300
}
Objects:  {
	Geometry: 100, "Geometry::box", "Mesh" {
		Vertices: *6 {
			a: 0,1.5,-2,
			3e1,4,5
		}
		PolygonVertexIndex: *3 {
			a: 0,1,-3
		}
	}
}
`
	root, err := ParseNodes(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(root.Children) != 2 {
		t.Fatal("children", len(root.Children))
	}
	if v := root.Children[0].Children[0].Attributes[0].Value; v != int64(7300) {
		t.Errorf("FBXVersion %#v", v)
	}
	g := root.Children[1].Children[0]
	if g.Name != "Geometry" || len(g.Attributes) != 3 || g.Attributes[1].Value != "Geometry::box" {
		t.Error("geometry", g.Name, g.Attributes)
	}
	verts, ok := g.Children[0].Attributes[0].Value.([]float64)
	if !ok || len(verts) != 6 || verts[1] != 1.5 || verts[2] != -2 || verts[3] != 30 {
		t.Errorf("vertices %#v", g.Children[0].Attributes[0].Value)
	}
	idx, ok := g.Children[1].Attributes[0].Value.([]int32)
	if !ok || len(idx) != 3 || idx[2] != -3 {
		t.Errorf("indices %#v", g.Children[1].Attributes[0].Value)
	}

	if _, err := ParseNodes(strings.NewReader("Vertices: *4 {\n a: 1,2\n}\n")); err == nil {
		t.Error("array size mismatch should fail")
	}
}

func TestParseASCIIWithoutFileId(t *testing.T) {
	src := "; FBX 7.3.0 project file\nCreator: \"minimal\"\nObjects:  {\n\tModel: 1, \"Model::a\", \"Null\" {\n\t}\n}\n"
	doc, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if doc.FileId != nil || doc.Creator != "minimal" {
		t.Error("header", doc.FileId, doc.Creator)
	}
	if _, ok := doc.Objects[1].(*Model); !ok {
		t.Error("model not built", doc.Objects)
	}

	withID := "FileId: \"abc\"\n"
	doc, err = Parse(strings.NewReader(withID))
	if err != nil {
		t.Fatal(err)
	}
	if string(doc.FileId) != "abc" {
		t.Error("FileId", doc.FileId)
	}
}
