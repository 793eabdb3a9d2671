package geom

import "math"

// Box3 is an axis-aligned bounding box. A box with Min > Max on any axis is empty.
type Box3 struct {
	Min Vector3
	Max Vector3
}

func NewEmptyBox3() *Box3 {
	return &Box3{
		Min: Vector3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: Vector3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
}

func (b *Box3) IsEmpty() bool {
	return b.Max.X < b.Min.X || b.Max.Y < b.Min.Y || b.Max.Z < b.Min.Z
}

func (b *Box3) ExpandByPoint(p *Vector3) {
	b.Min = *b.Min.Min(p)
	b.Max = *b.Max.Max(p)
}

func (b *Box3) Union(o *Box3) {
	if o.IsEmpty() {
		return
	}
	b.ExpandByPoint(&o.Min)
	b.ExpandByPoint(&o.Max)
}

// Size returns zero for an empty box.
func (b *Box3) Size() *Vector3 {
	if b.IsEmpty() {
		return &Vector3{}
	}
	return b.Max.Sub(&b.Min)
}

// Center returns zero for an empty box.
func (b *Box3) Center() *Vector3 {
	if b.IsEmpty() {
		return &Vector3{}
	}
	return b.Min.Add(&b.Max).Scale(0.5)
}

// ApplyMatrix4 returns the box enclosing the eight transformed corners.
func (b *Box3) ApplyMatrix4(m *Matrix4) *Box3 {
	r := NewEmptyBox3()
	if b.IsEmpty() {
		return r
	}
	for i := 0; i < 8; i++ {
		c := b.Min
		if i&1 != 0 {
			c.X = b.Max.X
		}
		if i&2 != 0 {
			c.Y = b.Max.Y
		}
		if i&4 != 0 {
			c.Z = b.Max.Z
		}
		r.ExpandByPoint(m.ApplyTo(&c))
	}
	return r
}
