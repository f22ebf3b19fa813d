package raytrace

import (
	"errors"
	"image"
	"testing"

	"github.com/chewxy/math32"
)

// testScene is a single sphere straight ahead of the test camera with one
// overhead light, small enough to verify pixels by hand.
func testScene() *Scene {
	return &Scene{
		Materials: []Material{
			{Specular: 0.5, Diffuse: 0.5, Ambient: 1, Shininess: 2},
		},
		Spheres: []Sphere{
			{Position: V3(0, 0, -2), Radius: 1, Material: 0},
		},
		Lights: []OmniLight{
			{Position: V3(0, 1, 0), Color: RGB{R: 0.9, G: 1, B: 0.9}},
		},
	}
}

func newTestRenderer(t *testing.T, width, height int) *Renderer {
	t.Helper()
	r, err := NewRenderer(testScene(), RendererConfig{Width: width, Height: height})
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	t.Cleanup(r.Close)
	r.Cam = testCamera()
	r.AmbientColor = RGB{R: 0.1, G: 0.1, B: 0.1}
	r.BlankColor = RGB{R: 0.05, G: 0.05, B: 0.1}
	return r
}

func TestNewRendererRejectsBadInput(t *testing.T) {
	if _, err := NewRenderer(nil, RendererConfig{Width: 4, Height: 4}); !errors.Is(err, ErrNilScene) {
		t.Errorf("nil scene: err = %v, want ErrNilScene", err)
	}
	if _, err := NewRenderer(testScene(), RendererConfig{Width: 0, Height: 4}); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("zero width: err = %v, want ErrInvalidSize", err)
	}
	if _, err := NewRenderer(testScene(), RendererConfig{Width: 4, Height: -1}); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("negative height: err = %v, want ErrInvalidSize", err)
	}

	broken := testScene()
	broken.Spheres[0].Radius = 0
	if _, err := NewRenderer(broken, RendererConfig{Width: 4, Height: 4}); err == nil {
		t.Error("broken scene: expected validation error")
	}
}

func TestRenderCenterPixelHitsSphere(t *testing.T) {
	// On a 5x5 grid the straight-ahead ray lands on pixel (3,3) (the grid
	// is shifted by one by the ray table's indexing). It hits the sphere
	// at (0,0,-1); the shading there is the hand-computed analytic value.
	r := newTestRenderer(t, 5, 5)
	if err := r.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}

	px := r.Result().At(3, 3)

	invSqrt2 := 1 / math32.Sqrt(2)
	diff := 0.5 * invSqrt2
	spec := float32(0.25)
	want := [4]float32{
		0.1 + diff*0.9 + spec,
		0.1 + diff*1.0 + spec,
		0.1 + diff*0.9 + spec,
		1,
	}
	for c := range want {
		if !approx(px[c], want[c]) {
			t.Errorf("channel %d = %v, want %v (pixel %v)", c, px[c], want[c], px)
		}
	}
}

func TestRenderMissedPixelsTakeBlank(t *testing.T) {
	r := newTestRenderer(t, 5, 5)
	if err := r.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}

	// Pixel (1,1) looks along (1,-1,-1): well clear of the unit sphere.
	px := r.Result().At(1, 1)
	want := [4]float32{0.05, 0.05, 0.1, 1}
	if px != want {
		t.Errorf("miss pixel = %v, want blank %v", px, want)
	}
}

func TestRenderTinyGrid(t *testing.T) {
	// On a 2x2 grid every ray is oblique enough to miss the unit sphere,
	// so the whole frame is the blank color.
	r := newTestRenderer(t, 2, 2)
	if err := r.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := [4]float32{0.05, 0.05, 0.1, 1}
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if got := r.Result().At(x, y); got != want {
				t.Errorf("pixel (%d,%d) = %v, want blank %v", x, y, got, want)
			}
		}
	}
}

func TestRenderDeterministic(t *testing.T) {
	r1 := newTestRenderer(t, 16, 12)
	r2 := newTestRenderer(t, 16, 12)
	if err := r1.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if err := r2.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}

	a, b := r1.Result().Pix(), r2.Result().Pix()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("pixel float %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestRenderRerunAfterCameraMove(t *testing.T) {
	r := newTestRenderer(t, 5, 5)
	if err := r.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	first := r.Result().At(3, 3)

	// Turn the camera around: the sphere is now behind, so the former hit
	// pixel must become blank.
	r.Cam.Forward = V3(0, 0, 1)
	if err := r.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	second := r.Result().At(3, 3)

	if first == second {
		t.Error("camera move did not change the frame")
	}
	want := [4]float32{0.05, 0.05, 0.1, 1}
	if second != want {
		t.Errorf("reversed view pixel = %v, want blank %v", second, want)
	}
}

func TestFrameStateMachine(t *testing.T) {
	r := newTestRenderer(t, 4, 4)
	if r.State() != StateIdle {
		t.Fatalf("initial state = %v, want idle", r.State())
	}

	if err := r.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if r.State() != StateSynchronized {
		t.Fatalf("state after Render = %v, want synchronized", r.State())
	}

	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if err := r.Present(NewDisplay(), dst); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if r.State() != StatePresented {
		t.Fatalf("state after Present = %v, want presented", r.State())
	}

	if err := r.Resize(8, 8); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if r.State() != StateIdle {
		t.Fatalf("state after Resize = %v, want idle", r.State())
	}
}

func TestPresentBeforeRenderFails(t *testing.T) {
	r := newTestRenderer(t, 4, 4)
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))

	if err := r.Present(NewDisplay(), dst); !errors.Is(err, ErrNotRendered) {
		t.Errorf("Present before Render: err = %v, want ErrNotRendered", err)
	}

	// Presenting the same frame twice also fails: the second call sees
	// state presented, not synchronized.
	if err := r.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if err := r.Present(NewDisplay(), dst); err != nil {
		t.Fatalf("first Present: %v", err)
	}
	if err := r.Present(NewDisplay(), dst); !errors.Is(err, ErrNotRendered) {
		t.Errorf("second Present: err = %v, want ErrNotRendered", err)
	}
}

func TestResizeChangesOutputResolution(t *testing.T) {
	r := newTestRenderer(t, 4, 4)
	if err := r.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if err := r.Resize(10, 6); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if err := r.Render(); err != nil {
		t.Fatalf("Render after resize: %v", err)
	}

	fb := r.Result()
	if fb.Width() != 10 || fb.Height() != 6 {
		t.Fatalf("framebuffer = %dx%d, want 10x6", fb.Width(), fb.Height())
	}
	// Every pixel was rewritten: alpha is 1 across the whole new grid.
	for y := 0; y < 6; y++ {
		for x := 0; x < 10; x++ {
			if fb.At(x, y)[3] != 1 {
				t.Fatalf("pixel (%d,%d) not written after resize", x, y)
			}
		}
	}

	if err := r.Resize(0, 5); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("Resize(0,5): err = %v, want ErrInvalidSize", err)
	}
}

func TestClosedRendererRefusesWork(t *testing.T) {
	r := newTestRenderer(t, 4, 4)
	r.Close()
	r.Close() // idempotent

	if err := r.Render(); !errors.Is(err, ErrClosed) {
		t.Errorf("Render after Close: err = %v, want ErrClosed", err)
	}
	if err := r.Resize(8, 8); !errors.Is(err, ErrClosed) {
		t.Errorf("Resize after Close: err = %v, want ErrClosed", err)
	}
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if err := r.Present(NewDisplay(), dst); !errors.Is(err, ErrClosed) {
		t.Errorf("Present after Close: err = %v, want ErrClosed", err)
	}
}

func TestRenderEndToEndPresent(t *testing.T) {
	r := newTestRenderer(t, 5, 5)
	if err := r.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, 5, 5))
	if err := r.Present(NewDisplay(), dst); err != nil {
		t.Fatalf("Present: %v", err)
	}

	// Hit pixel is brighter than a miss pixel after quantization.
	hit := dst.RGBAAt(3, 3)
	miss := dst.RGBAAt(1, 1)
	if hit.G <= miss.G {
		t.Errorf("hit pixel %+v not brighter than miss pixel %+v", hit, miss)
	}
	if miss.B != quantize(0.1, 0) {
		t.Errorf("miss blue = %d, want %d", miss.B, quantize(0.1, 0))
	}
}
