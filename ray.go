package raytrace

import "github.com/chewxy/math32"

// Ray is a half-line from Origin along Dir. Dir is not necessarily
// normalized; the intersection solver handles arbitrary lengths.
type Ray struct {
	Origin Vec3
	Dir    Vec3
}

// At returns the point Origin + t*Dir.
func (r Ray) At(t float32) Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// RayTable holds the per-frame geometry shared by every pixel's ray:
// the camera basis, the per-pixel step vectors, and the direction of the
// bottom-left ray. Building it once per frame keeps the per-pixel work to
// two scaled vector adds, on the CPU exactly as in the compute kernel.
//
// The viewplane half-height is gx * (m-1)/(k-1): the aspect ratio comes
// from the pixel-count ratio rather than a physical width/height ratio.
// On viewports with non-square pixels this distorts the image, but it is
// the reference kernel's documented behavior and is preserved as is.
type RayTable struct {
	origin Vec3

	// p1m is the direction of the bottom-left ray.
	p1m Vec3

	// qx, qy are the per-pixel step vectors along the viewplane.
	qx, qy Vec3
}

// NewRayTable computes the frame geometry for a camera and an output
// resolution of width x height pixels. The viewplane sits at distance 1
// along the normalized forward vector (a pinhole perspective projection).
//
// A 1-pixel-wide or 1-pixel-tall viewport divides by zero and produces
// non-finite rays; guarding against it is out of scope, matching the
// reference kernel.
func NewRayTable(cam *Camera, width, height int) RayTable {
	k := float32(width)
	m := float32(height)

	vn := cam.Up.Normalize()
	tn := cam.Forward.Normalize()
	bn := cam.Up.Cross(cam.Forward).Normalize()

	gx := math32.Tan(cam.FOV / 2)
	gy := gx * (m - 1) / (k - 1)

	qx := bn.Mul(2 * gx / (k - 1))
	qy := vn.Mul(2 * gy / (m - 1))
	p1m := tn.Sub(bn.Mul(gx)).Sub(vn.Mul(gy))

	return RayTable{origin: cam.Position, p1m: p1m, qx: qx, qy: qy}
}

// At returns the camera ray for pixel (i, j), 0-based.
func (t RayTable) At(i, j int) Ray {
	dir := t.p1m.
		Add(t.qx.Mul(float32(i) - 1)).
		Add(t.qy.Mul(float32(j) - 1))
	return Ray{Origin: t.origin, Dir: dir}
}
