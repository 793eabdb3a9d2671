package collada

import (
	"log"
	"math"

	"github.com/binzume/pokeview/geom"
)

// Matrix returns the node's local transform, composed from its transform
// elements in document order.
func (n *Node) Matrix() *geom.Matrix4 {
	m := geom.NewMatrix4()
	for _, t := range n.Transforms {
		v := ParseFloats(t.Data)
		switch t.XMLName.Local {
		case "matrix":
			if len(v) != 16 {
				log.Println("collada: bad matrix in", n.ID)
				continue
			}
			m = m.Mul(RowMajorMatrix(v))
		case "translate":
			if len(v) == 3 {
				m = m.Mul(geom.NewTranslateMatrix4(v[0], v[1], v[2]))
			}
		case "rotate":
			if len(v) == 4 {
				q := geom.NewAxisAngleQuaternion(geom.NewVector3(v[0], v[1], v[2]), v[3]*math.Pi/180)
				m = m.Mul(geom.NewRotationMatrix4FromQuaternion(q))
			}
		case "scale":
			if len(v) == 3 {
				m = m.Mul(geom.NewScaleMatrix4(v[0], v[1], v[2]))
			}
		}
	}
	return m
}

// RowMajorMatrix converts COLLADA's row-major matrix layout.
func RowMajorMatrix(v []float32) *geom.Matrix4 {
	return geom.NewMatrix4FromSlice(v).Transposed()
}
