package scene

import "github.com/binzume/pokeview/geom"

// ComputeBoundingBox returns the world-space box of every mesh vertex in the
// subtree. The transforms of root and its ancestors are applied.
func ComputeBoundingBox(root *Node) *geom.Box3 {
	box := geom.NewEmptyBox3()
	root.WalkWorld(func(n *Node, world *geom.Matrix4) {
		if !n.IsMesh() || n.Mesh.Geometry == nil {
			return
		}
		for i := range n.Mesh.Geometry.Positions {
			box.ExpandByPoint(world.ApplyTo(&n.Mesh.Geometry.Positions[i]))
		}
	})
	return box
}
