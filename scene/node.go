// Package scene is the in-memory scene graph shared by every model format.
package scene

import (
	"github.com/binzume/pokeview/geom"
)

type NodeKind int

const (
	Group NodeKind = iota
	Mesh
	SkinnedMesh
	Bone
)

func (k NodeKind) String() string {
	switch k {
	case Mesh:
		return "Mesh"
	case SkinnedMesh:
		return "SkinnedMesh"
	case Bone:
		return "Bone"
	}
	return "Group"
}

type Node struct {
	Name     string
	Kind     NodeKind
	Position geom.Vector3
	Rotation geom.Quaternion
	Scale    geom.Vector3
	Parent   *Node
	Children []*Node

	// Mesh is set for Mesh and SkinnedMesh nodes.
	Mesh *MeshData
}

func NewNode(name string, kind NodeKind) *Node {
	return &Node{
		Name:     name,
		Kind:     kind,
		Rotation: geom.Quaternion{W: 1},
		Scale:    geom.Vector3{X: 1, Y: 1, Z: 1},
	}
}

func NewGroup(name string) *Node {
	return NewNode(name, Group)
}

func NewMeshNode(name string, mesh *MeshData) *Node {
	kind := Mesh
	if mesh != nil && mesh.Skin != nil {
		kind = SkinnedMesh
	}
	n := NewNode(name, kind)
	n.Mesh = mesh
	return n
}

func (n *Node) IsMesh() bool {
	return n.Mesh != nil && (n.Kind == Mesh || n.Kind == SkinnedMesh)
}

func (n *Node) Add(children ...*Node) {
	for _, c := range children {
		if c.Parent != nil {
			c.Parent.Remove(c)
		}
		c.Parent = n
		n.Children = append(n.Children, c)
	}
}

func (n *Node) Remove(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i:i], n.Children[i+1:]...)
			child.Parent = nil
			return
		}
	}
}

// Traverse calls fn for n and every descendant, parents first.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Traverse(fn)
	}
}

// Find returns the first node in the subtree with the given name.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Traverse(func(c *Node) {
		if found == nil && c.Name == name {
			found = c
		}
	})
	return found
}

func (n *Node) SetTransform(m *geom.Matrix4) {
	pos, rot, scale := m.Decompose()
	n.Position, n.Rotation, n.Scale = *pos, *rot, *scale
}

func (n *Node) Matrix() *geom.Matrix4 {
	return geom.NewTRSMatrix4(&n.Position, &n.Rotation, &n.Scale)
}

func (n *Node) WorldMatrix() *geom.Matrix4 {
	if n.Parent == nil {
		return n.Matrix()
	}
	return n.Parent.WorldMatrix().Mul(n.Matrix())
}

// WalkWorld visits the subtree with each node's world matrix.
func (n *Node) WalkWorld(fn func(node *Node, world *geom.Matrix4)) {
	var parent *geom.Matrix4
	if n.Parent != nil {
		parent = n.Parent.WorldMatrix()
	} else {
		parent = geom.NewMatrix4()
	}
	n.walkWorld(parent, fn)
}

func (n *Node) walkWorld(parent *geom.Matrix4, fn func(*Node, *geom.Matrix4)) {
	world := parent.Mul(n.Matrix())
	fn(n, world)
	for _, c := range n.Children {
		c.walkWorld(world, fn)
	}
}

// CountKind returns how many nodes of each kind the subtree has.
func (n *Node) CountKind() map[NodeKind]int {
	counts := map[NodeKind]int{}
	n.Traverse(func(c *Node) {
		counts[c.Kind]++
	})
	return counts
}
