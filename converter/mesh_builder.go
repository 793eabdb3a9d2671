package converter

import (
	"sort"

	"github.com/binzume/pokeview/geom"
	"github.com/binzume/pokeview/scene"
)

// meshBuilder unrolls polygon vertices into an indexed triangle list with
// one group per material.
type meshBuilder struct {
	geometry      *scene.Geometry
	controlPoints []int
	hasNormal     bool
	hasUV         bool
	triangles     map[int][]uint32
}

func newMeshBuilder() *meshBuilder {
	return &meshBuilder{geometry: &scene.Geometry{}, triangles: map[int][]uint32{}}
}

func (b *meshBuilder) addVertex(pos *geom.Vector3, normal *geom.Vector3, uv *geom.Vector2, controlPoint int) uint32 {
	g := b.geometry
	g.Positions = append(g.Positions, *pos)
	if normal != nil {
		b.hasNormal = true
		g.Normals = append(g.Normals, *normal)
	} else {
		g.Normals = append(g.Normals, geom.Vector3{})
	}
	if uv != nil {
		b.hasUV = true
		g.UVs = append(g.UVs, *uv)
	} else {
		g.UVs = append(g.UVs, geom.Vector2{})
	}
	b.controlPoints = append(b.controlPoints, controlPoint)
	return uint32(len(g.Positions) - 1)
}

func (b *meshBuilder) addPolygon(verts []uint32, material int) {
	if len(verts) < 3 {
		return
	}
	if len(verts) == 3 {
		b.triangles[material] = append(b.triangles[material], verts...)
		return
	}
	poly := make([]*geom.Vector3, len(verts))
	for i, v := range verts {
		poly[i] = &b.geometry.Positions[v]
	}
	for _, t := range geom.Triangulate(poly) {
		b.triangles[material] = append(b.triangles[material], verts[t[0]], verts[t[1]], verts[t[2]])
	}
}

// influence is one bone weight of a control point.
type influence struct {
	joint  int
	weight float32
}

// setSkinWeights assigns the four strongest influences of each control point
// to the vertices made from it.
func (b *meshBuilder) setSkinWeights(influences [][]influence) {
	g := b.geometry
	g.Joints = make([][4]uint16, len(g.Positions))
	g.Weights = make([][4]float32, len(g.Positions))
	for v, cp := range b.controlPoints {
		if cp < 0 || cp >= len(influences) {
			continue
		}
		inf := append([]influence(nil), influences[cp]...)
		sort.SliceStable(inf, func(i, j int) bool { return inf[i].weight > inf[j].weight })
		if len(inf) > 4 {
			inf = inf[:4]
		}
		var sum float32
		for _, w := range inf {
			sum += w.weight
		}
		for i, w := range inf {
			g.Joints[v][i] = uint16(w.joint)
			if sum > 0 {
				g.Weights[v][i] = w.weight / sum
			}
		}
	}
}

// build returns the mesh. More than one used material gives a multi-material
// mesh with geometry groups indexing into materials.
func (b *meshBuilder) build(materials []scene.Material) *scene.MeshData {
	g := b.geometry
	if !b.hasNormal {
		g.Normals = nil
	}
	if !b.hasUV {
		g.UVs = nil
	}
	var keys []int
	for k := range b.triangles {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	mesh := &scene.MeshData{Geometry: g}
	if len(keys) == 1 || len(materials) <= 1 {
		for _, k := range keys {
			g.Indices = append(g.Indices, b.triangles[k]...)
		}
		if len(keys) > 0 {
			mesh.Material = materialAt(materials, keys[0])
		}
		return mesh
	}
	for _, k := range keys {
		g.AddGroup(len(g.Indices), len(b.triangles[k]), k)
		g.Indices = append(g.Indices, b.triangles[k]...)
	}
	mesh.Materials = materials
	return mesh
}

func materialAt(materials []scene.Material, i int) scene.Material {
	if i < 0 || i >= len(materials) {
		return nil
	}
	return materials[i]
}
