package loader

import (
	"math"

	"github.com/binzume/pokeview/geom"
	"github.com/binzume/pokeview/scene"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	fallbackRadius   = 1.5
	fallbackSegments = 32
	fallbackColor    = 0x4A90E2
)

// SphereGeometry builds a UV sphere with the same vertex layout as the usual
// latitude/longitude sphere: (widthSegments+1)*(heightSegments+1) vertices,
// degenerate pole triangles omitted.
func SphereGeometry(radius float32, widthSegments, heightSegments int) *scene.Geometry {
	g := &scene.Geometry{}
	grid := make([][]uint32, heightSegments+1)
	for iy := 0; iy <= heightSegments; iy++ {
		v := float32(iy) / float32(heightSegments)
		for ix := 0; ix <= widthSegments; ix++ {
			u := float32(ix) / float32(widthSegments)
			phi, theta := float64(u)*2*math.Pi, float64(v)*math.Pi
			p := mgl32.Vec3{
				float32(-math.Cos(phi) * math.Sin(theta)),
				float32(math.Cos(theta)),
				float32(math.Sin(phi) * math.Sin(theta)),
			}
			n := p
			if p.Len() > 0 {
				n = p.Normalize()
			}
			p = p.Mul(radius)
			grid[iy] = append(grid[iy], uint32(len(g.Positions)))
			g.Positions = append(g.Positions, geom.Vector3{X: p.X(), Y: p.Y(), Z: p.Z()})
			g.Normals = append(g.Normals, geom.Vector3{X: n.X(), Y: n.Y(), Z: n.Z()})
			g.UVs = append(g.UVs, geom.Vector2{X: u, Y: v})
		}
	}
	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a, b := grid[iy][ix+1], grid[iy][ix]
			c, d := grid[iy+1][ix], grid[iy+1][ix+1]
			if iy != 0 {
				g.Indices = append(g.Indices, a, b, d)
			}
			if iy != heightSegments-1 {
				g.Indices = append(g.Indices, b, c, d)
			}
		}
	}
	return g
}

// FallbackModel is the placeholder shown when a model cannot be loaded.
func FallbackModel() *scene.Node {
	mat := scene.NewStandardMaterial("fallback")
	mat.Color = scene.NewColorHex(fallbackColor)
	mat.Metalness = 0
	mat.Roughness = 1
	mesh := scene.NewMeshNode("fallback-sphere", &scene.MeshData{
		Geometry: SphereGeometry(fallbackRadius, fallbackSegments, fallbackSegments),
		Material: mat,
	})
	mesh.Position = geom.Vector3{Y: 0.5}
	root := scene.NewGroup("fallback")
	root.Add(mesh)
	return root
}
