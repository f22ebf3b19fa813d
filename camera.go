package raytrace

// Camera is the mutable host-side view state. Unlike the scene buffers,
// which are uploaded once, the camera is re-sent to the kernel every frame
// as uniform parameters, so it can be changed freely between frames.
//
// Forward and Up should be non-parallel and FOV should lie in (0, pi);
// neither is enforced, matching the reference kernel.
type Camera struct {
	// Position is the eye position, the origin of every camera ray.
	Position Vec3

	// Forward is the view direction. Normalized by the kernel.
	Forward Vec3

	// Up is the camera's up vector. Normalized by the kernel.
	Up Vec3

	// FOV is the horizontal field of view in radians.
	FOV float32
}
