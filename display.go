package raytrace

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// bayer4 is the 4x4 ordered-dithering threshold matrix, normalized to
// [0, 1) and centered so the dither adds at most +-0.5 of one quantization
// step.
var bayer4 = [4][4]float32{
	{0, 8, 2, 10},
	{12, 4, 14, 6},
	{3, 11, 1, 9},
	{15, 7, 13, 5},
}

// Display converts a renderer's float framebuffer to 8-bit RGBA and draws
// it into a destination image, scaling to the destination bounds with
// nearest-neighbor filtering (the software analog of a textured
// full-screen quad sampled with nearest filtering).
//
// Display consumes the framebuffer read-only. Clamping to [0,1] happens
// here and only here: the kernel's output is unclamped by design.
type Display struct {
	// Dithering enables 4x4 ordered dithering during quantization.
	// Off by default.
	Dithering bool
}

// NewDisplay creates a display with dithering disabled.
func NewDisplay() *Display {
	return &Display{}
}

// Draw quantizes fb and blits it into dst, scaled to dst's bounds.
func (d *Display) Draw(fb *Framebuffer, dst *image.RGBA) {
	src := d.Quantize(fb)
	if src.Bounds() == dst.Bounds() {
		xdraw.Draw(dst, dst.Bounds(), src, image.Point{}, xdraw.Src)
		return
	}
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
}

// Quantize converts the framebuffer to an 8-bit RGBA image at the
// framebuffer's own resolution, clamping to [0,1] and applying ordered
// dithering when enabled.
func (d *Display) Quantize(fb *Framebuffer) *image.RGBA {
	w, h := fb.Width(), fb.Height()
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := fb.At(x, y)
			var bias float32
			if d.Dithering {
				bias = bayer4[y&3][x&3]/16 - 0.5
			}
			img.SetRGBA(x, y, color.RGBA{
				R: quantize(px[0], bias),
				G: quantize(px[1], bias),
				B: quantize(px[2], bias),
				A: quantize(px[3], 0),
			})
		}
	}
	return img
}

// quantize maps a float channel to 8 bits with an optional dither bias of
// at most half a quantization step.
func quantize(v, bias float32) uint8 {
	s := v*255 + bias
	if s <= 0 {
		return 0
	}
	if s >= 255 {
		return 255
	}
	return uint8(s + 0.5)
}
