package raytrace

// Framebuffer is the renderer's output image: a 2D grid of 4-component
// float32 pixels (RGBA32F semantics). Pixel values are whatever the kernel
// wrote, unclamped.
//
// The framebuffer is owned exclusively by its renderer. Kernel pixel tasks
// write disjoint slots, so a frame's writes need no locking; readers must
// wait for the renderer's synchronization point before touching the data.
type Framebuffer struct {
	width  int
	height int
	pix    []float32 // RGBA, 4 floats per pixel, row-major
}

// NewFramebuffer allocates a framebuffer with the given dimensions.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		width:  width,
		height: height,
		pix:    make([]float32, width*height*4),
	}
}

// Width returns the framebuffer width in pixels.
func (f *Framebuffer) Width() int { return f.width }

// Height returns the framebuffer height in pixels.
func (f *Framebuffer) Height() int { return f.height }

// Pix returns the raw pixel storage: 4 float32 per pixel, row-major.
func (f *Framebuffer) Pix() []float32 { return f.pix }

// At returns the RGBA value of pixel (x, y).
func (f *Framebuffer) At(x, y int) [4]float32 {
	i := (y*f.width + x) * 4
	return [4]float32{f.pix[i], f.pix[i+1], f.pix[i+2], f.pix[i+3]}
}

// setPixel stores an RGB color with alpha 1 at (x, y).
func (f *Framebuffer) setPixel(x, y int, c RGB) {
	i := (y*f.width + x) * 4
	f.pix[i+0] = c.R
	f.pix[i+1] = c.G
	f.pix[i+2] = c.B
	f.pix[i+3] = 1
}

// Resize reallocates the backing storage for new dimensions. The old
// contents are discarded, not scaled: the next dispatch rewrites the full
// grid, so nothing stale survives a resize.
func (f *Framebuffer) Resize(width, height int) {
	if width == f.width && height == f.height {
		return
	}
	f.width = width
	f.height = height
	f.pix = make([]float32, width*height*4)
}
