package loader

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/binzume/pokeview/converter"
	"github.com/binzume/pokeview/geom"
	"github.com/binzume/pokeview/gltfutil"
	"github.com/binzume/pokeview/scene"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const eps = 1e-4

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func vecNear(a, b geom.Vector3) bool {
	return abs(a.X-b.X) < eps && abs(a.Y-b.Y) < eps && abs(a.Z-b.Z) < eps
}

func TestDetectFormat(t *testing.T) {
	cases := map[string]Format{
		"/pokemon/5/lizardo.dae":     FormatCollada,
		"/pokemon/5/LIZARDO.DAE":     FormatCollada,
		"/pokemon/25/pikachu.fbx":    FormatFBX,
		"a.b.Fbx":                    FormatFBX,
		"/pokemon/6/model.glb":       FormatGLTF,
		"/pokemon/6/model.gltf":      FormatGLTF,
		"/pokemon/143/snorlax.obj":   FormatGLTF,
		"/pokemon/1/noext":           FormatGLTF,
		"fbx":                        FormatFBX,
		"/pokemon/7/model.dae.bak":   FormatGLTF,
		"/pokemon/7/model.bak/x.dae": FormatCollada,
	}
	for p, expected := range cases {
		if f := DetectFormat(p); f != expected || !f.Valid() {
			t.Error("DetectFormat", p, f, expected)
		}
	}
}

func TestAdapterForEveryFormat(t *testing.T) {
	for _, f := range Formats {
		a, err := NewAdapter(f, fstest.MapFS{}, nil)
		if err != nil {
			t.Fatal(f, err)
		}
		if a.Format() != f {
			t.Error("adapter format", a.Format(), f)
		}
	}
	if _, err := NewAdapter(Format(99), fstest.MapFS{}, nil); !errors.Is(err, ErrUnknownFormat) {
		t.Error("expected ErrUnknownFormat", err)
	}
	if Format(99).Valid() || Format(99).String() != "unknown" {
		t.Error("Format(99) should be invalid")
	}
}

func TestTexturePath(t *testing.T) {
	cases := []struct {
		model, src, expected string
	}{
		{"/pokemon/5/lizardo.dae", "tex/body.png", "/pokemon/5/body.png"},
		{"/pokemon/5/lizardo.dae", "body.png", "/pokemon/5/body.png"},
		{"/pokemon/5/lizardo.dae", "http://cdn/x.png", "http://cdn/x.png"},
		{"/pokemon/5/lizardo.dae", "/abs/x.png", "/abs/x.png"},
		{"lizardo.dae", "tex/body.png", "/body.png"},
		{"/pokemon/5/lizardo.dae", "tex/", "/pokemon/5/tex/"},
		{"/pokemon/5/lizardo.dae", `..\tex\body.png`, `/pokemon/5/..\tex\body.png`},
	}
	for _, c := range cases {
		if p := TexturePath(c.model, c.src); p != c.expected {
			t.Error("TexturePath", c.model, c.src, p, c.expected)
		}
	}
}

func TestModelDir(t *testing.T) {
	cases := map[string]string{
		"/pokemon/5/lizardo.dae":         "pokemon/5",
		"pokemon/12/Male/butterfree.dae": "pokemon/12/Male",
		"/box.fbx":                       ".",
	}
	for p, expected := range cases {
		if d := ModelDir(p); d != expected {
			t.Errorf("ModelDir(%q) = %q", p, d)
		}
	}
}

func TestColladaAdapter(t *testing.T) {
	a := newColladaAdapter(os.DirFS("../testdata"), zap.NewNop())
	ctx := context.Background()
	root, err := a.Load(ctx, "/pokemon/5/lizardo.dae")
	if err != nil {
		t.Fatal(err)
	}
	mesh := root.Find("Lizardo_mesh")
	if mesh == nil {
		t.Fatal("mesh not found")
	}
	if src := mesh.Mesh.Materials[0].Base().Map.Src(); src != "/pokemon/5/body.png" {
		t.Error("body texture", src)
	}
	if src := mesh.Mesh.Materials[1].Base().Map.Src(); src != "/abs/eye.png" {
		t.Error("eye texture", src)
	}

	again, err := a.Load(ctx, "/pokemon/5/lizardo.dae")
	if err != nil {
		t.Fatal(err)
	}
	if again == root || again.Find("Lizardo_mesh").Mesh.Materials[0] == mesh.Mesh.Materials[0] {
		t.Error("each load should return a clone")
	}
	if src := again.Find("Lizardo_mesh").Mesh.Materials[0].Base().Map.Src(); src != "/pokemon/5/body.png" {
		t.Error("rewrite should not accumulate", src)
	}
	if a.cache.len() != 1 {
		t.Error("parse should be cached", a.cache.len())
	}
	if _, err := a.Load(ctx, "/pokemon/999/pm0999_00_00.dae"); !errors.Is(err, fs.ErrNotExist) {
		t.Error("expected not exist", err)
	}
	if a.cache.len() != 1 {
		t.Error("failures should not be cached", a.cache.len())
	}
}

func TestFBXAdapter(t *testing.T) {
	a := newFBXAdapter(os.DirFS("../testdata"), zap.NewNop())
	root, err := a.Load(context.Background(), "box.fbx")
	if err != nil {
		t.Fatal(err)
	}
	box := root.Find("box")
	if box == nil || box.Kind != scene.SkinnedMesh {
		t.Fatal("skinned box not found")
	}
	if box.Mesh.Skin.Bones[0] != root.Find("hip") {
		t.Error("bones should point into the clone")
	}
	if box.Mesh.Materials[0].Base().Map.Src() != `tex\body.png` {
		t.Error("fbx textures are not rewritten", box.Mesh.Materials[0].Base().Map.Src())
	}
}

func TestFBXAdapterLogger(t *testing.T) {
	src, err := os.ReadFile("../testdata/box.fbx")
	if err != nil {
		t.Fatal(err)
	}
	unbound := bytes.Replace(src, []byte("C: \"OO\",2001,5001\n"), nil, 1)
	core, logs := observer.New(zap.WarnLevel)
	a := newFBXAdapter(fstest.MapFS{"box.fbx": {Data: unbound}}, zap.New(core))
	if _, err := a.Load(context.Background(), "/box.fbx"); err != nil {
		t.Fatal(err)
	}
	if logs.FilterMessage("fbx: cluster target not in scene").Len() != 1 {
		t.Error("converter warnings should reach the adapter logger", logs.All())
	}
}

func TestParseCacheShared(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	model := scene.NewGroup("model")
	c := newParseCache(func(p string) (*scene.Node, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return model, nil
	})

	var wg sync.WaitGroup
	results := make([]*scene.Node, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.get(context.Background(), "/a.glb")
		}(i)
	}
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Error("parse should run once", n)
	}
	for _, r := range results {
		if r != model {
			t.Error("unexpected result", r)
		}
	}
}

func TestParseCacheRetry(t *testing.T) {
	var calls int
	c := newParseCache(func(p string) (*scene.Node, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("network")
		}
		return scene.NewGroup("ok"), nil
	})
	ctx := context.Background()
	if _, err := c.get(ctx, "/a.glb"); err == nil {
		t.Error("first parse should fail")
	}
	if root, err := c.get(ctx, "/a.glb"); err != nil || root.Name != "ok" {
		t.Error("retry should succeed", root, err)
	}
	if calls != 2 {
		t.Error("calls", calls)
	}
}

func TestParseCacheContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	c := newParseCache(func(p string) (*scene.Node, error) {
		<-release
		return scene.NewGroup("late"), nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.get(ctx, "/slow.glb"); err != context.Canceled {
		t.Error("expected context.Canceled", err)
	}
}

func TestParseCachePanic(t *testing.T) {
	c := newParseCache(func(p string) (*scene.Node, error) {
		panic("broken file")
	})
	if _, err := c.get(context.Background(), "/broken.glb"); err == nil {
		t.Error("panic should become an error")
	}
	if c.len() != 0 {
		t.Error("failed entry should be removed")
	}
}

func TestMakeMatteParamMaterial(t *testing.T) {
	m := scene.NewParamMaterial("toon", "toon")
	m.Params[scene.ParamRoughness] = float32(0.2)
	m.Params[scene.ParamMetalness] = float32(0.8)
	m.Params[scene.ParamSpecular] = scene.NewColorHex(0xff0000)
	MakeMatte(m)

	if m.Float(scene.ParamRoughness, -1) != 1 || m.Float(scene.ParamMetalness, -1) != 0 {
		t.Error("roughness/metalness", m.Params)
	}
	if m.ColorParam(scene.ParamSpecular, scene.White).Hex() != 0x000000 {
		t.Error("specular", m.Params)
	}
	if len(m.Params) != 3 {
		t.Error("parameters should not be added", m.ParamNames())
	}
}

func TestMakeMatte(t *testing.T) {
	env := scene.NewTexture("env.hdr")

	std := scene.NewStandardMaterial("std")
	std.Metalness, std.Roughness, std.EnvMap = 0.9, 0.1, env
	MakeMatte(std)
	if std.Metalness != 0 || std.Roughness != 1 || std.EnvMap != nil {
		t.Error("standard", std)
	}

	phong := scene.NewPhongMaterial("phong")
	phong.Color = scene.NewColorHex(0x123456)
	phong.Map = scene.NewTexture("body.png")
	phong.EnvMap = env
	MakeMatte(phong)
	if phong.Shininess != 0 || phong.Specular.Hex() != 0 || phong.Reflectivity != 0 || phong.EnvMap != nil {
		t.Error("phong", phong)
	}
	if phong.Color.Hex() != 0x123456 || phong.Map == nil {
		t.Error("base colour and map should be kept")
	}

	lambert := scene.NewLambertMaterial("lambert")
	lambert.Reflectivity = 0.5
	MakeMatte(lambert)
	if lambert.Reflectivity != 0 {
		t.Error("lambert", lambert)
	}

	basic := scene.NewBasicMaterial("basic")
	basic.EnvMap = env
	MakeMatte(basic)
	if basic.Reflectivity != 0 || basic.EnvMap != nil {
		t.Error("basic", basic)
	}

	MakeMatte(nil)
}

func TestFlattenMaterials(t *testing.T) {
	a, b := scene.NewPhongMaterial("a"), scene.NewStandardMaterial("b")
	root := scene.NewGroup("root")
	multi := scene.NewMeshNode("multi", &scene.MeshData{Geometry: &scene.Geometry{}, Materials: []scene.Material{a, nil, b}})
	single := scene.NewMeshNode("single", &scene.MeshData{Geometry: &scene.Geometry{}, Material: scene.NewPhongMaterial("c")})
	root.Add(multi)
	multi.Add(single)
	FlattenMaterials(root)

	if len(multi.Mesh.Materials) != 3 || multi.Mesh.Material != nil {
		t.Error("material arity changed")
	}
	if single.Mesh.Materials != nil || single.Mesh.Material == nil {
		t.Error("material arity changed")
	}
	if a.Shininess != 0 || b.Roughness != 1 || single.Mesh.Material.(*scene.PhongMaterial).Shininess != 0 {
		t.Error("not flattened")
	}
}

func boxModel(size float32) *scene.Node {
	g := &scene.Geometry{Positions: []geom.Vector3{{}, {X: size, Y: size, Z: size}}}
	root := scene.NewGroup("root")
	root.Add(scene.NewMeshNode("box", &scene.MeshData{Geometry: g}))
	return root
}

func TestNormalize(t *testing.T) {
	root := boxModel(10)
	scale := Normalize(root, NormalizeOptions{})
	if abs(scale-0.4) > eps {
		t.Error("scale", scale)
	}
	box := scene.ComputeBoundingBox(root)
	if !vecNear(box.Min, geom.Vector3{X: -2, Y: -2, Z: -2}) || !vecNear(box.Max, geom.Vector3{X: 2, Y: 2, Z: 2}) {
		t.Error("first pass", box)
	}
	if abs(box.Size().MaxElement()-DefaultTargetSize) > eps {
		t.Error("max dimension", box.Size())
	}

	// the second pass sees a box of size 4 and resets the scale to 1
	scale = Normalize(root, NormalizeOptions{})
	if abs(scale-1) > eps {
		t.Error("second scale", scale)
	}
	box = scene.ComputeBoundingBox(root)
	if !vecNear(box.Min, geom.Vector3{X: -2, Y: -2, Z: -2}) || !vecNear(box.Max, geom.Vector3{X: 8, Y: 8, Z: 8}) {
		t.Error("second pass", box)
	}
}

func TestNormalizeYOffset(t *testing.T) {
	root := boxModel(10)
	Normalize(root, NormalizeOptions{TargetSize: 4, YOffset: -1})
	box := scene.ComputeBoundingBox(root)
	c := box.Center()
	if abs(c.X) > eps || abs(c.Y+1) > eps || abs(c.Z) > eps {
		t.Error("centre", c)
	}
	if abs(box.Size().MaxElement()-4) > eps {
		t.Error("size", box.Size())
	}

	Normalize(root, NormalizeOptions{TargetSize: 4, YOffset: -1})
	box = scene.ComputeBoundingBox(root)
	if !vecNear(box.Min, geom.Vector3{X: -2, Y: -3, Z: -2}) || !vecNear(box.Max, geom.Vector3{X: 8, Y: 7, Z: 8}) {
		t.Error("second pass", box)
	}
}

func TestNormalizeDegenerate(t *testing.T) {
	empty := scene.NewGroup("empty")
	if s := Normalize(empty, NormalizeOptions{TargetSize: 2}); s != 2 {
		t.Error("empty scene scale", s)
	}
	if empty.Position != (geom.Vector3{}) {
		t.Error("empty scene position", empty.Position)
	}

	flat := boxModel(0)
	flat.Position = geom.Vector3{X: 3}
	if s := Normalize(flat, NormalizeOptions{}); s != DefaultTargetSize {
		t.Error("point scale", s)
	}
	if !vecNear(flat.Position, geom.Vector3{X: 3 - 3*DefaultTargetSize}) {
		t.Error("point position", flat.Position)
	}
}

func TestFallbackModel(t *testing.T) {
	root := FallbackModel()
	if len(root.Children) != 1 {
		t.Fatal("children", len(root.Children))
	}
	sphere := root.Children[0]
	if sphere.Position != (geom.Vector3{Y: 0.5}) {
		t.Error("position", sphere.Position)
	}
	g := sphere.Mesh.Geometry
	if g.VertexCount() != 33*33 || g.TriangleCount() != 32*31*2 {
		t.Error("sphere", g.VertexCount(), g.TriangleCount())
	}
	for i := range g.Positions {
		if abs(g.Positions[i].Len()-1.5) > eps {
			t.Fatal("radius", g.Positions[i])
		}
	}
	mat := sphere.Mesh.Material.(*scene.StandardMaterial)
	if mat.Color.Hex() != 0x4a90e2 || mat.Metalness != 0 || mat.Roughness != 1 {
		t.Error("material", mat.Color, mat.Metalness, mat.Roughness)
	}
}

func TestBoundary(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	b := NewBoundary(zap.New(core), nil)
	ctx := context.Background()

	ok := scene.NewGroup("ok")
	if r := b.Render(ctx, func(context.Context) (*scene.Node, error) { return ok, nil }); r != ok || b.State() != StateNormal {
		t.Error("success should pass through")
	}

	r := b.Render(ctx, func(context.Context) (*scene.Node, error) { return nil, errors.New("fetch failed") })
	if r == nil || r.Name != "fallback" || b.State() != StateFailed {
		t.Error("failure should render fallback", r, b.State())
	}
	if logs.Len() != 1 || logs.All()[0].Level != zap.WarnLevel {
		t.Error("warning not logged", logs.All())
	}

	called := false
	r = b.Render(ctx, func(context.Context) (*scene.Node, error) { called = true; return ok, nil })
	if called || r.Name != "fallback" {
		t.Error("failed boundary should not run the child again")
	}
	if b.Err() == nil || b.Err().Error() != "fetch failed" {
		t.Error("err", b.Err())
	}
}

func TestBoundaryPanic(t *testing.T) {
	custom := scene.NewGroup("custom")
	b := NewBoundary(nil, func() *scene.Node { return custom })
	r := b.Render(context.Background(), func(context.Context) (*scene.Node, error) {
		var n *scene.Node
		n.Traverse(func(*scene.Node) {})
		return n, nil
	})
	if r != custom || b.State() != StateFailed {
		t.Error("panic should render fallback", r, b.State())
	}
}

func TestModelLoaderMissingModel(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	l, err := NewModelLoader(fstest.MapFS{}, WithLogger(zap.New(core)))
	if err != nil {
		t.Fatal(err)
	}
	root := l.Load(context.Background(), "/pokemon/999/pm0999_00_00.dae")
	if root == nil || root.Name != "fallback" {
		t.Fatal("fallback not rendered", root)
	}
	entries := logs.All()
	if len(entries) != 1 || entries[0].ContextMap()["path"] != "/pokemon/999/pm0999_00_00.dae" {
		t.Error("warning", entries)
	}

	if _, err := l.LoadResult(context.Background(), "/pokemon/999/pm0999_00_00.dae"); !errors.Is(err, fs.ErrNotExist) {
		t.Error("LoadResult should return the error", err)
	}
}

func TestModelLoaderCollada(t *testing.T) {
	l, err := NewModelLoader(os.DirFS("../testdata"), WithYOffset(-1))
	if err != nil {
		t.Fatal(err)
	}
	root, err := l.LoadResult(context.Background(), "/pokemon/5/lizardo.dae")
	if err != nil {
		t.Fatal(err)
	}
	body := root.Find("Lizardo_mesh").Mesh.Materials[0].(*scene.PhongMaterial)
	if body.Shininess != 0 || body.Specular.Hex() != 0 || body.Reflectivity != 0 {
		t.Error("not flattened", body)
	}
	if body.Map.Src() != "/pokemon/5/body.png" {
		t.Error("texture", body.Map.Src())
	}
	box := scene.ComputeBoundingBox(root)
	c := box.Center()
	if abs(box.Size().MaxElement()-4) > eps || abs(c.X) > eps || abs(c.Y+1) > eps || abs(c.Z) > eps {
		t.Error("not normalized", box)
	}
}

func glbFixture(t *testing.T) []byte {
	doc, err := converter.NewSceneToGLTFConverter(nil).Convert(FallbackModel())
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := gltfutil.EncodeBinary(&buf, doc); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestModelLoaderGLTF(t *testing.T) {
	fsys := fstest.MapFS{"models/ball.glb": {Data: glbFixture(t)}}
	l, err := NewModelLoader(fsys, WithTargetSize(6))
	if err != nil {
		t.Fatal(err)
	}
	root := l.Load(context.Background(), "/models/ball.glb")
	if root.Name != "gltf" {
		t.Fatal("unexpected root", root.Name)
	}
	if abs(root.Scale.X-2) > eps {
		t.Error("scale", root.Scale)
	}
	mat := root.Find("fallback-sphere").Mesh.Material.(*scene.StandardMaterial)
	if mat.Roughness != 1 || mat.Metalness != 0 {
		t.Error("material", mat)
	}
}

func TestPreload(t *testing.T) {
	l, err := NewModelLoader(os.DirFS("../testdata"), WithBatchSize(2))
	if err != nil {
		t.Fatal(err)
	}
	paths := []string{"/pokemon/5/lizardo.dae", "/box.fbx", "/missing.glb", "/pokemon/5/lizardo.dae", "/missing.dae"}
	results, err := l.Preload(context.Background(), paths)
	if len(results) != len(paths) {
		t.Fatal("results", len(results))
	}
	if err == nil || err != results[2].Err {
		t.Error("first failure should be reported", err)
	}
	for i, r := range results {
		if r.Path != paths[i] {
			t.Error("order", i, r.Path)
		}
		failed := r.Err != nil
		if expected := i == 2 || i == 4; failed != expected || (r.Root == nil) != expected {
			t.Error("result", r.Path, r.Err)
		}
	}
	if results[0].Root == results[3].Root {
		t.Error("preload results should be independent clones")
	}
}

func TestPreloadAllLoaded(t *testing.T) {
	l, err := NewModelLoader(os.DirFS("../testdata"))
	if err != nil {
		t.Fatal(err)
	}
	results, err := l.Preload(context.Background(), []string{"/box.fbx", "/pokemon/5/lizardo.dae"})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.Err != nil || r.Root == nil {
			t.Error("result", r.Path, r.Err)
		}
	}
}
