package fbx

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/binzume/pokeview/geom"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

type Node struct {
	Name       string
	Attributes AttributeList
	Children   []*Node
}

func NewNode(name string, values ...interface{}) *Node {
	node := &Node{Name: name}
	for _, v := range values {
		node.Attributes = append(node.Attributes, &Attribute{Value: v})
	}
	return node
}

func (n *Node) FindChild(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (n *Node) GetChildren() []*Node {
	if n == nil {
		return nil
	}
	return n.Children
}

func (n *Node) Attr(i int) *Attribute {
	if n == nil {
		return nil
	}
	return n.Attributes.Get(i)
}

func (n *Node) GetString() string {
	return n.Attr(0).ToString()
}

func (n *Node) GetInt32Array() []int32 {
	return n.Attr(0).ToInt32Array()
}

func (n *Node) GetFloat32Array() []float32 {
	return n.Attr(0).ToFloat32Array()
}

func (n *Node) GetVec3Array() []*geom.Vector3 {
	return n.Attr(0).ToVec3Array()
}

func (n *Node) GetVec2Array() []*geom.Vector2 {
	return n.Attr(0).ToVec2Array()
}

type Attribute struct {
	Value     interface{}
	ArraySize uint
}

type AttributeList []*Attribute

func (l AttributeList) Get(i int) *Attribute {
	if i < 0 || i >= len(l) {
		return nil
	}
	return l[i]
}

func (l AttributeList) ToVector3(x, y, z float32) *geom.Vector3 {
	return &geom.Vector3{X: l.Get(0).ToFloat32(x), Y: l.Get(1).ToFloat32(y), Z: l.Get(2).ToFloat32(z)}
}

func (l AttributeList) ToFloat32(def float32) float32 {
	return l.Get(0).ToFloat32(def)
}

func (l AttributeList) ToInt(def int) int {
	return l.Get(0).ToInt(def)
}

func (l AttributeList) ToString() string {
	return l.Get(0).ToString()
}

func (a *Attribute) ToInt(def int) int {
	return int(a.ToInt64(int64(def)))
}

func (a *Attribute) ToInt64(def int64) int64 {
	if a == nil {
		return def
	}
	switch v := a.Value.(type) {
	case byte:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return def
}

func (a *Attribute) ToFloat32(def float32) float32 {
	if a == nil {
		return def
	}
	switch v := a.Value.(type) {
	case float32:
		return v
	case float64:
		return float32(v)
	case int16:
		return float32(v)
	case int32:
		return float32(v)
	case int64:
		return float32(v)
	}
	return def
}

func (a *Attribute) ToBytes() []byte {
	if a == nil {
		return nil
	}
	switch v := a.Value.(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	}
	return nil
}

// ToString returns the attribute as UTF-8. Strings written by Japanese
// tools are often Shift_JIS and are converted.
func (a *Attribute) ToString() string {
	if a == nil {
		return ""
	}
	var s string
	switch v := a.Value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return ""
	}
	if !utf8.ValidString(s) {
		if d, _, err := transform.String(japanese.ShiftJIS.NewDecoder(), s); err == nil {
			return d
		}
	}
	return s
}

func (a *Attribute) ToInt32Array() []int32 {
	if a == nil {
		return nil
	}
	var r []int32
	switch vv := a.Value.(type) {
	case []int32:
		return vv
	case []byte:
		for _, v := range vv {
			r = append(r, int32(v))
		}
	case []int64:
		for _, v := range vv {
			r = append(r, int32(v))
		}
	case []float64:
		for _, v := range vv {
			r = append(r, int32(v))
		}
	}
	return r
}

func (a *Attribute) ToFloat32Array() []float32 {
	if a == nil {
		return nil
	}
	var r []float32
	switch vv := a.Value.(type) {
	case []float32:
		return vv
	case []float64:
		for _, v := range vv {
			r = append(r, float32(v))
		}
	case []int32:
		for _, v := range vv {
			r = append(r, float32(v))
		}
	case []int64:
		for _, v := range vv {
			r = append(r, float32(v))
		}
	}
	return r
}

func (a *Attribute) ToVec3Array() []*geom.Vector3 {
	v := a.ToFloat32Array()
	var vv []*geom.Vector3
	for i := 0; i+2 < len(v); i += 3 {
		vv = append(vv, &geom.Vector3{X: v[i], Y: v[i+1], Z: v[i+2]})
	}
	return vv
}

func (a *Attribute) ToVec2Array() []*geom.Vector2 {
	v := a.ToFloat32Array()
	var vv []*geom.Vector2
	for i := 0; i+1 < len(v); i += 2 {
		vv = append(vv, &geom.Vector2{X: v[i], Y: v[i+1]})
	}
	return vv
}

func (a *Attribute) String() string {
	switch v := a.Value.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case []byte:
		return fmt.Sprintf("\"%v\"", v)
	default:
		return fmt.Sprint(v)
	}
}

// Dump writes the node tree in ASCII FBX notation. Large arrays are
// elided unless full is set.
func (n *Node) Dump(w io.Writer, d int, full bool) {
	fmt.Fprint(w, strings.Repeat("  ", d), n.Name, ":")
	var arrayReplacer = strings.NewReplacer("[", "{ a:", "]", "}", " ", ",")
	for i, p := range n.Attributes {
		if !full && p.ArraySize > 16 {
			fmt.Fprintf(w, " *%d { SKIPPED }", p.ArraySize)
			continue
		}
		s := p.String()
		if p.ArraySize > 0 {
			s = fmt.Sprint("*", p.ArraySize, " ", arrayReplacer.Replace(s))
		}
		if i == 0 {
			fmt.Fprint(w, " ", s)
		} else {
			fmt.Fprint(w, ", ", s)
		}
	}
	if len(n.Children) > 0 || len(n.Attributes) == 0 {
		fmt.Fprintln(w, " {")
		for _, c := range n.Children {
			c.Dump(w, d+1, full)
		}
		fmt.Fprintln(w, strings.Repeat("  ", d)+"}")
	} else {
		fmt.Fprintln(w, "")
	}
}
