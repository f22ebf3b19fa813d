package raytrace

import "fmt"

// Material describes Phong reflection behavior for a sphere surface.
//
// The reflection coefficients are conceptually in [0,1] but are not
// enforced; Shininess controls the specular falloff (higher values give a
// smaller highlight) and must be positive for a meaningful falloff.
//
// The wire format for a Material is 7 consecutive float32 values:
// specular, diffuse, ambient, shininess, color R, G, B (28 bytes).
type Material struct {
	// Specular is the specular reflection constant.
	Specular float32

	// Diffuse is the diffuse reflection constant.
	Diffuse float32

	// Ambient is the ambient reflection constant.
	Ambient float32

	// Shininess controls the size of the specular highlight.
	Shininess float32

	// Color is the material's surface color.
	Color RGB
}

// Sphere is a scene object: a sphere with a material.
//
// The wire format for a Sphere is 3 float32 (position), 1 float32 (radius),
// and 1 int32 (material index): 20 bytes.
type Sphere struct {
	// Position is the center of the sphere.
	Position Vec3

	// Radius is the sphere radius. Must be positive.
	Radius float32

	// Material indexes into the scene's Materials sequence.
	Material int32
}

// OmniLight is an omnidirectional point light.
//
// The wire format for an OmniLight is 6 consecutive float32 values:
// position X, Y, Z, color R, G, B (24 bytes).
type OmniLight struct {
	// Position is the center of the light.
	Position Vec3

	// Color is the light's color at unit intensity.
	Color RGB
}

// Scene holds everything the renderer needs to draw a frame. The three
// sequences are keyed by position: insertion order defines the material
// indices referenced by spheres, and the sphere order is the deterministic
// tie-break order for equal-distance intersections.
//
// A Scene is read-only input: it is copied into kernel-visible buffers at
// renderer construction and never consulted again, so the caller may
// discard it afterwards. It must not be mutated while a renderer is being
// constructed from it.
type Scene struct {
	Materials []Material
	Spheres   []Sphere
	Lights    []OmniLight
}

// Validate checks the scene's structural invariants: every sphere has a
// positive radius and a material index within the Materials sequence.
// Renderer constructors call this and refuse to build from a broken scene.
func (s *Scene) Validate() error {
	for i, sp := range s.Spheres {
		if sp.Radius <= 0 {
			return fmt.Errorf("raytrace: sphere %d has non-positive radius %g", i, sp.Radius)
		}
		if sp.Material < 0 || int(sp.Material) >= len(s.Materials) {
			return fmt.Errorf("raytrace: sphere %d references material %d, scene has %d materials",
				i, sp.Material, len(s.Materials))
		}
	}
	return nil
}
