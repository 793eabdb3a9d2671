package loader

import (
	"github.com/binzume/pokeview/geom"
	"github.com/binzume/pokeview/scene"
)

const DefaultTargetSize = 4

type NormalizeOptions struct {
	// TargetSize is the largest dimension after scaling. Zero means DefaultTargetSize.
	TargetSize float32
	YOffset    float32
}

// Normalize scales root so that its world bounding box has TargetSize as its
// largest dimension and moves it so the box is centred on (0, YOffset, 0).
// It returns the scale set on root.
//
// The scale is set rather than multiplied, so a second call measures the
// already scaled box and does not give the same result.
func Normalize(root *scene.Node, opts NormalizeOptions) float32 {
	target := opts.TargetSize
	if target == 0 {
		target = DefaultTargetSize
	}
	box := scene.ComputeBoundingBox(root)
	size, center := box.Size(), box.Center()

	maxDim := size.MaxElement()
	if maxDim == 0 || box.IsEmpty() {
		maxDim = 1
	}
	scale := target / maxDim

	root.Scale = geom.Vector3{X: scale, Y: scale, Z: scale}
	root.Position = *root.Position.Sub(center.Scale(scale))
	root.Position.Y += opts.YOffset
	return scale
}
