package raytrace

// RGB is a 3-component float color. Components are not restricted to [0,1]:
// the shading evaluator produces unclamped output and leaves range handling
// to the presentation stage.
type RGB struct {
	R, G, B float32
}

// Add returns the componentwise sum of two colors.
func (c RGB) Add(d RGB) RGB {
	return RGB{R: c.R + d.R, G: c.G + d.G, B: c.B + d.B}
}

// Scale returns the color scaled by a scalar.
func (c RGB) Scale(s float32) RGB {
	return RGB{R: c.R * s, G: c.G * s, B: c.B * s}
}

// Common colors.
var (
	Black = RGB{}
	White = RGB{R: 1, G: 1, B: 1}
)
