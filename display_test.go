package raytrace

import (
	"image"
	"testing"
)

func TestQuantizeClamps(t *testing.T) {
	tests := []struct {
		name string
		v    float32
		want uint8
	}{
		{"zero", 0, 0},
		{"negative clamps to zero", -2.5, 0},
		{"mid gray", 0.5, 128},
		{"one", 1, 255},
		{"overbright clamps to 255", 3.7, 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := quantize(tt.v, 0); got != tt.want {
				t.Errorf("quantize(%v) = %d, want %d", tt.v, got, tt.want)
			}
		})
	}
}

func TestDisplayQuantizeImage(t *testing.T) {
	fb := NewFramebuffer(2, 2)
	fb.setPixel(0, 0, RGB{R: 1, G: 0, B: 0})
	fb.setPixel(1, 0, RGB{R: 0, G: 1, B: 0})
	fb.setPixel(0, 1, RGB{R: 0, G: 0, B: 1})
	fb.setPixel(1, 1, RGB{R: 2, G: -1, B: 0.5}) // out of range on purpose

	img := NewDisplay().Quantize(fb)
	if got := img.RGBAAt(0, 0); got.R != 255 || got.G != 0 || got.B != 0 || got.A != 255 {
		t.Errorf("(0,0) = %+v, want opaque red", got)
	}
	if got := img.RGBAAt(1, 1); got.R != 255 || got.G != 0 || got.B != 128 {
		t.Errorf("(1,1) = %+v, want clamped (255,0,128)", got)
	}
}

func TestDisplayDitherPattern(t *testing.T) {
	// A uniform mid-gray field sits exactly between two quantization
	// levels; ordered dithering resolves it per pixel by the Bayer matrix,
	// negative bias rounding down and non-negative up.
	fb := NewFramebuffer(4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			fb.setPixel(x, y, RGB{R: 0.5, G: 0.5, B: 0.5})
		}
	}

	d := NewDisplay()
	d.Dithering = true
	img := d.Quantize(fb)

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := uint8(128)
			if bayer4[y][x]/16-0.5 < 0 {
				want = 127
			}
			if got := img.RGBAAt(x, y).R; got != want {
				t.Errorf("(%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestDisplayDitherOffIsUniform(t *testing.T) {
	fb := NewFramebuffer(4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			fb.setPixel(x, y, RGB{R: 0.5, G: 0.5, B: 0.5})
		}
	}

	img := NewDisplay().Quantize(fb)
	first := img.RGBAAt(0, 0)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if img.RGBAAt(x, y) != first {
				t.Fatalf("(%d,%d) = %+v differs from (0,0) = %+v without dithering",
					x, y, img.RGBAAt(x, y), first)
			}
		}
	}
}

func TestDisplayDrawSameSize(t *testing.T) {
	fb := NewFramebuffer(2, 2)
	fb.setPixel(0, 0, White)

	dst := image.NewRGBA(image.Rect(0, 0, 2, 2))
	NewDisplay().Draw(fb, dst)

	if got := dst.RGBAAt(0, 0); got.R != 255 || got.G != 255 || got.B != 255 {
		t.Errorf("(0,0) = %+v, want white", got)
	}
	if got := dst.RGBAAt(1, 1); got.R != 0 {
		t.Errorf("(1,1) = %+v, want black", got)
	}
}

func TestDisplayDrawScalesNearest(t *testing.T) {
	// 2x2 source blitted to 4x4: each source pixel covers a 2x2 block with
	// no filtering between blocks.
	fb := NewFramebuffer(2, 2)
	fb.setPixel(0, 0, White)
	fb.setPixel(1, 1, RGB{R: 1})

	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	NewDisplay().Draw(fb, dst)

	if got := dst.RGBAAt(1, 1); got.R != 255 || got.G != 255 {
		t.Errorf("top-left block = %+v, want white", got)
	}
	if got := dst.RGBAAt(3, 3); got.R != 255 || got.G != 0 {
		t.Errorf("bottom-right block = %+v, want pure red", got)
	}
	if got := dst.RGBAAt(3, 0); got.R != 0 {
		t.Errorf("top-right block = %+v, want black", got)
	}
}
