package raytrace

import (
	"fmt"
	"image"

	"github.com/gogpu/raytrace/internal/parallel"
)

// FrameState tracks where the renderer is in the per-frame lifecycle.
//
// A frame moves Idle -> Dispatched -> Synchronized -> Presented; Presented
// is equivalent to Idle for the purpose of starting the next frame. The
// host loop is strictly sequential, so the next dispatch can never begin
// before the previous frame's reads have finished.
type FrameState int

const (
	// StateIdle means the scene buffers and camera are valid from
	// construction or a previous frame, and no dispatch is in flight.
	StateIdle FrameState = iota

	// StateDispatched means the kernel has been invoked over the pixel grid.
	StateDispatched

	// StateSynchronized means the barrier has been passed: all pixel writes
	// are visible and the framebuffer may be read.
	StateSynchronized

	// StatePresented means the output image has been consumed by the
	// presentation stage.
	StatePresented
)

// String returns the state name.
func (s FrameState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDispatched:
		return "dispatched"
	case StateSynchronized:
		return "synchronized"
	case StatePresented:
		return "presented"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// RendererConfig configures a Renderer.
type RendererConfig struct {
	// Width and Height are the output resolution in pixels.
	Width  int
	Height int

	// Workers is the number of kernel worker goroutines.
	// If 0, GOMAXPROCS is used.
	Workers int
}

// Renderer runs the raytracing kernel on the CPU: one independent task per
// scanline over a work-stealing pool, which is the parallel-for port of
// the GPU's per-pixel compute dispatch. The join at the end of Render is
// the port of the GPU memory barrier.
//
// The renderer exclusively owns its framebuffer. The scene is validated
// and captured at construction and never mutated afterwards, so the
// parallel pixel tasks read it without locking.
//
// Renderer is not safe for concurrent use; the frame loop is single-
// threaded by design.
type Renderer struct {
	scene *Scene

	// AmbientColor is the global ambient light color.
	AmbientColor RGB

	// BlankColor is the background color for rays that hit nothing.
	BlankColor RGB

	// Cam is the mutable camera state, re-read on every Render call.
	Cam Camera

	fb    *Framebuffer
	pool  *parallel.WorkerPool
	state FrameState

	closed bool
}

// NewRenderer creates a renderer for the given scene and configuration.
// The scene is validated; a broken scene (non-positive radius, material
// index out of bounds) aborts construction.
func NewRenderer(scene *Scene, cfg RendererConfig) (*Renderer, error) {
	if scene == nil {
		return nil, ErrNilScene
	}
	if err := scene.Validate(); err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, cfg.Width, cfg.Height)
	}

	r := &Renderer{
		scene: scene,
		fb:    NewFramebuffer(cfg.Width, cfg.Height),
		pool:  parallel.NewWorkerPool(cfg.Workers),
	}

	Logger().Debug("raytrace: renderer created",
		"size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"spheres", len(scene.Spheres),
		"lights", len(scene.Lights),
		"workers", r.pool.Workers())

	return r, nil
}

// Result returns the renderer's framebuffer. The contents are only
// meaningful after Render has returned for the current dimensions.
func (r *Renderer) Result() *Framebuffer { return r.fb }

// State returns the current frame state.
func (r *Renderer) State() FrameState { return r.state }

// Resize changes the output resolution. The framebuffer is reallocated;
// the next Render writes the full new grid. Resizing between frames is
// always safe.
func (r *Renderer) Resize(width, height int) error {
	if r.closed {
		return ErrClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	r.fb.Resize(width, height)
	r.state = StateIdle
	return nil
}

// Render runs one full-frame kernel invocation: ray generation,
// intersection, and shading for every pixel of the framebuffer. Scanlines
// are dispatched to the worker pool; Render blocks until every pixel write
// has completed, so on return the frame is synchronized and the
// framebuffer is readable.
func (r *Renderer) Render() error {
	if r.closed {
		return ErrClosed
	}

	width, height := r.fb.Width(), r.fb.Height()
	table := NewRayTable(&r.Cam, width, height)
	fb := r.fb

	r.state = StateDispatched
	r.pool.For(height, func(j int) {
		for i := 0; i < width; i++ {
			fb.setPixel(i, j, castPixel(r.scene, table, i, j, r.AmbientColor, r.BlankColor))
		}
	})
	// The parallel-for join above is the barrier: every pixel write is
	// visible once For returns.
	r.state = StateSynchronized

	return nil
}

// Present hands the synchronized framebuffer to the display stage, which
// draws it into dst. It fails with ErrNotRendered unless the current frame
// has been rendered and synchronized.
func (r *Renderer) Present(d *Display, dst *image.RGBA) error {
	if r.closed {
		return ErrClosed
	}
	if r.state != StateSynchronized {
		return ErrNotRendered
	}
	d.Draw(r.fb, dst)
	r.state = StatePresented
	return nil
}

// Close stops the worker pool. The renderer cannot be used afterwards.
func (r *Renderer) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.pool.Close()
}
