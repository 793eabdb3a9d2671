package scene

import "github.com/binzume/pokeview/geom"

type GeometryGroup struct {
	Start         int
	Count         int
	MaterialIndex int
}

// Geometry is an indexed triangle list. Indices may be nil for non-indexed geometry.
type Geometry struct {
	Positions []geom.Vector3
	Normals   []geom.Vector3
	UVs       []geom.Vector2
	Indices   []uint32
	Groups    []GeometryGroup
	Joints    [][4]uint16
	Weights   [][4]float32
}

func (g *Geometry) VertexCount() int {
	return len(g.Positions)
}

func (g *Geometry) TriangleCount() int {
	if g.Indices != nil {
		return len(g.Indices) / 3
	}
	return len(g.Positions) / 3
}

// AddGroup appends a material group covering count indices.
func (g *Geometry) AddGroup(start, count, materialIndex int) {
	g.Groups = append(g.Groups, GeometryGroup{Start: start, Count: count, MaterialIndex: materialIndex})
}
