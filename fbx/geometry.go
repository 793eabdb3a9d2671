package fbx

import (
	"github.com/binzume/pokeview/geom"
)

type Geometry struct {
	Obj
}

type MappingType string

const (
	AllSame         MappingType = "AllSame"
	ByPolygon       MappingType = "ByPolygon"
	ByVertice       MappingType = "ByVertice"
	ByPolygonVertex MappingType = "ByPolygonVertex"
	ByControlPoint  MappingType = "ByControlPoint"
)

func (g *Geometry) GetVertices() []*geom.Vector3 {
	return g.FindChild("Vertices").GetVec3Array()
}

// GetPolygons splits PolygonVertexIndex into polygons. The last index of
// each polygon is stored bit-inverted.
func (g *Geometry) GetPolygons() [][]int {
	var polygons [][]int
	var poly []int
	for _, index := range g.FindChild("PolygonVertexIndex").GetInt32Array() {
		if index < 0 {
			polygons = append(polygons, append(poly, int(^index)))
			poly = nil
			continue
		}
		poly = append(poly, int(index))
	}
	return polygons
}

// GetClusters returns the clusters of every skin deformer bound to the geometry.
func (g *Geometry) GetClusters() []*Deformer {
	var r []*Deformer
	for _, skin := range g.FindRefs("Deformer") {
		if skin.Kind() != "Skin" {
			continue
		}
		for _, sub := range skin.FindRefs("Deformer") {
			if d, ok := sub.(*Deformer); ok {
				r = append(r, d)
			}
		}
	}
	return r
}

type LayerElement struct {
	*Node
	Array     *Node
	IndexNode *Node
}

func (g *Geometry) GetLayerElement(name string, arrayName string, indexName string) *LayerElement {
	node := g.FindChild(name)
	return &LayerElement{node, node.FindChild(arrayName), node.FindChild(indexName)}
}

func (g *Geometry) GetLayerElementUV() *LayerElement {
	return g.GetLayerElement("LayerElementUV", "UV", "UVIndex")
}

func (g *Geometry) GetLayerElementMaterial() *LayerElement {
	return g.GetLayerElement("LayerElementMaterial", "", "Materials")
}

func (g *Geometry) GetLayerElementNormal() *LayerElement {
	return g.GetLayerElement("LayerElementNormal", "Normals", "NormalsIndex")
}

func (e *LayerElement) Exists() bool {
	return e.Node != nil
}

func (e *LayerElement) GetMappingInformationType() MappingType {
	return MappingType(e.FindChild("MappingInformationType").GetString())
}

func (e *LayerElement) GetReferenceInformationType() string {
	return e.FindChild("ReferenceInformationType").GetString()
}

func (e *LayerElement) GetIndexes() []int32 {
	return e.IndexNode.GetInt32Array()
}

// Resolver returns a function mapping (polygon, polygon vertex, control point)
// to an index into the element's value array, or -1.
func (e *LayerElement) Resolver() func(poly, polyVertex, controlPoint int) int {
	if !e.Exists() {
		return func(int, int, int) int { return -1 }
	}
	var indexes []int32
	// LayerElementMaterial has only the index array
	if e.IndexNode != nil && (e.GetReferenceInformationType() == "IndexToDirect" || e.Array == nil) {
		indexes = e.GetIndexes()
	}
	mapping := e.GetMappingInformationType()
	return func(poly, polyVertex, controlPoint int) int {
		var i int
		switch mapping {
		case AllSame:
			i = 0
		case ByPolygon:
			i = poly
		case ByPolygonVertex:
			i = polyVertex
		case ByVertice, ByControlPoint:
			i = controlPoint
		default:
			return -1
		}
		if indexes != nil {
			if i >= len(indexes) {
				return -1
			}
			i = int(indexes[i])
		}
		return i
	}
}

// Deformer is a Skin or one of its Clusters.
type Deformer struct {
	Obj
}

func (d *Deformer) GetWeights() []float32 {
	return d.FindChild("Weights").GetFloat32Array()
}

func (d *Deformer) GetIndexes() []int32 {
	return d.FindChild("Indexes").GetInt32Array()
}

func (d *Deformer) GetTransform() *geom.Matrix4 {
	m := d.FindChild("Transform").GetFloat32Array()
	if len(m) != 16 {
		return geom.NewMatrix4()
	}
	return geom.NewMatrix4FromSlice(m)
}

func (d *Deformer) GetTransformLink() *geom.Matrix4 {
	m := d.FindChild("TransformLink").GetFloat32Array()
	if len(m) != 16 {
		return geom.NewMatrix4()
	}
	return geom.NewMatrix4FromSlice(m)
}

// GetTarget returns the bone the cluster binds to.
func (d *Deformer) GetTarget() *Model {
	nodes := d.FindRefs("Model")
	if len(nodes) == 0 {
		return nil
	}
	m, _ := nodes[0].(*Model)
	return m
}
