package raytrace

import (
	"errors"
	"fmt"
)

var (
	// ErrNilScene is returned when a renderer is constructed without a scene.
	ErrNilScene = errors.New("raytrace: scene is nil")

	// ErrInvalidSize is returned for non-positive framebuffer dimensions.
	ErrInvalidSize = errors.New("raytrace: invalid framebuffer size")

	// ErrNotRendered is returned when Present is called before a frame has
	// been rendered and synchronized.
	ErrNotRendered = errors.New("raytrace: no synchronized frame to present")

	// ErrClosed is returned when a closed renderer is used.
	ErrClosed = errors.New("raytrace: renderer is closed")
)

// BindingNotFoundError reports that the kernel source defines no storage
// block with the requested name. This means the kernel source and the host
// buffer names have silently diverged; it is a fatal configuration error
// and aborts renderer construction.
type BindingNotFoundError struct {
	// Block is the symbolic storage block name that failed to resolve.
	Block string
}

func (e *BindingNotFoundError) Error() string {
	return fmt.Sprintf("raytrace: no storage block named %q in kernel source", e.Block)
}
