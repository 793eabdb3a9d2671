package scene

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes an indented outline of the subtree.
func Dump(w io.Writer, root *Node) {
	dump(w, root, 0)
}

func dump(w io.Writer, n *Node, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s%s %q pos=(%g,%g,%g) scale=(%g,%g,%g)\n", indent, n.Kind, n.Name,
		n.Position.X, n.Position.Y, n.Position.Z, n.Scale.X, n.Scale.Y, n.Scale.Z)
	if n.Mesh != nil {
		if g := n.Mesh.Geometry; g != nil {
			fmt.Fprintf(w, "%s  geometry: %d vertices, %d triangles, %d groups\n", indent, g.VertexCount(), g.TriangleCount(), len(g.Groups))
		}
		n.Mesh.EachMaterial(func(i int, mat Material) {
			if mat == nil {
				fmt.Fprintf(w, "%s  material[%d]: <nil>\n", indent, i)
				return
			}
			b := mat.Base()
			fmt.Fprintf(w, "%s  material[%d]: %T %q color=%v", indent, i, mat, b.Name, b.Color)
			if src := b.Map.Src(); src != "" {
				fmt.Fprintf(w, " map=%s", src)
			}
			fmt.Fprintln(w)
		})
		if s := n.Mesh.Skin; s != nil {
			fmt.Fprintf(w, "%s  skin: %d bones\n", indent, len(s.Bones))
		}
	}
	for _, c := range n.Children {
		dump(w, c, depth+1)
	}
}
