package scene

import "fmt"

// Color is a linear RGB colour with components in [0, 1].
type Color struct {
	R, G, B float32
}

func NewColorHex(hex uint32) Color {
	return Color{
		R: float32(hex>>16&0xff) / 255,
		G: float32(hex>>8&0xff) / 255,
		B: float32(hex&0xff) / 255,
	}
}

func (c Color) Hex() uint32 {
	clamp := func(v float32) uint32 {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return uint32(v*255 + 0.5)
	}
	return clamp(c.R)<<16 | clamp(c.G)<<8 | clamp(c.B)
}

func (c Color) Array() [3]float32 {
	return [3]float32{c.R, c.G, c.B}
}

func (c Color) String() string {
	return fmt.Sprintf("#%06x", c.Hex())
}

var (
	Black = Color{}
	White = Color{1, 1, 1}
)
