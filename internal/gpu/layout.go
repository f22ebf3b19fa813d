// layout.go defines the binary contract between the host and the compute
// kernel: the packed record layouts for the three scene storage blocks,
// the uniform parameter block, and the name-to-slot binding table that
// replaces shader reflection.

package gpu

import (
	"encoding/binary"
	"math"
	"regexp"

	"github.com/gogpu/raytrace"
)

// Record strides in bytes. These must match the scalar-field struct
// declarations in shaders/raytrace.wgsl exactly; records are packed with
// no padding beyond natural 4-byte alignment.
const (
	// MaterialStride is specular, diffuse, ambient, shininess + RGB color.
	MaterialStride = 7 * 4

	// SphereStride is position XYZ, radius + material index (int32).
	SphereStride = 5 * 4

	// LightStride is position XYZ + RGB color.
	LightStride = 6 * 4

	// paramsSize is the uniform block: five vec4 slots (ambient, blank,
	// eye position, forward, up) + width, height, fov, pad.
	paramsSize = 5*16 + 4*4
)

// Binding slots for the kernel's single bind group. Slot 0 is the uniform
// parameter block, slots 1-3 the scene storage blocks, slot 4 the output
// image buffer.
const (
	bindingParams    = 0
	bindingSpheres   = 1
	bindingMaterials = 2
	bindingLights    = 3
	bindingOutput    = 4
)

// storageBlocks maps the symbolic storage block names of the kernel
// interface to their binding slots. The original kernel resolved these by
// shader reflection at runtime; with a fixed WGSL kernel the mapping is
// static and is validated against the source once at construction.
var storageBlocks = map[string]uint32{
	"Spheres":   bindingSpheres,
	"Materials": bindingMaterials,
	"Lights":    bindingLights,
}

// resolveBinding resolves a symbolic storage block name to its binding
// slot, verifying that the kernel source actually declares a storage
// variable of that name. A missing declaration means host and kernel have
// silently diverged; that is fatal and reported as BindingNotFoundError.
func resolveBinding(source, name string) (uint32, error) {
	slot, ok := storageBlocks[name]
	if !ok {
		return 0, &raytrace.BindingNotFoundError{Block: name}
	}
	decl := regexp.MustCompile(`var<storage[^>]*>\s+` + regexp.QuoteMeta(name) + `\s*:`)
	if !decl.MatchString(source) {
		return 0, &raytrace.BindingNotFoundError{Block: name}
	}
	return slot, nil
}

// putFloat32 appends a float32 in little-endian IEEE-754 form.
func putFloat32(buf []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
}

// packMaterials serializes the material sequence in scene order:
// 7 float32 per record, 28 bytes each.
func packMaterials(mats []raytrace.Material) []byte {
	buf := make([]byte, len(mats)*MaterialStride)
	for i, m := range mats {
		off := i * MaterialStride
		putFloat32(buf, off+0, m.Specular)
		putFloat32(buf, off+4, m.Diffuse)
		putFloat32(buf, off+8, m.Ambient)
		putFloat32(buf, off+12, m.Shininess)
		putFloat32(buf, off+16, m.Color.R)
		putFloat32(buf, off+20, m.Color.G)
		putFloat32(buf, off+24, m.Color.B)
	}
	return buf
}

// packSpheres serializes the sphere sequence in scene order:
// 4 float32 + 1 int32 per record, 20 bytes each.
func packSpheres(spheres []raytrace.Sphere) []byte {
	buf := make([]byte, len(spheres)*SphereStride)
	for i, s := range spheres {
		off := i * SphereStride
		putFloat32(buf, off+0, s.Position.X)
		putFloat32(buf, off+4, s.Position.Y)
		putFloat32(buf, off+8, s.Position.Z)
		putFloat32(buf, off+12, s.Radius)
		binary.LittleEndian.PutUint32(buf[off+16:], uint32(s.Material))
	}
	return buf
}

// packLights serializes the light sequence in scene order:
// 6 float32 per record, 24 bytes each.
func packLights(lights []raytrace.OmniLight) []byte {
	buf := make([]byte, len(lights)*LightStride)
	for i, l := range lights {
		off := i * LightStride
		putFloat32(buf, off+0, l.Position.X)
		putFloat32(buf, off+4, l.Position.Y)
		putFloat32(buf, off+8, l.Position.Z)
		putFloat32(buf, off+12, l.Color.R)
		putFloat32(buf, off+16, l.Color.G)
		putFloat32(buf, off+20, l.Color.B)
	}
	return buf
}

// packParams serializes the per-frame uniform block. Vector parameters
// occupy vec4 slots (the uniform address space requires 16-byte alignment
// for vec3); the w components are padding the kernel never reads.
func packParams(cam *raytrace.Camera, ambient, blank raytrace.RGB, width, height int) []byte {
	buf := make([]byte, paramsSize)

	putVec3 := func(off int, x, y, z float32) {
		putFloat32(buf, off+0, x)
		putFloat32(buf, off+4, y)
		putFloat32(buf, off+8, z)
	}

	putVec3(0, ambient.R, ambient.G, ambient.B)
	putVec3(16, blank.R, blank.G, blank.B)
	putVec3(32, cam.Position.X, cam.Position.Y, cam.Position.Z)
	putVec3(48, cam.Forward.X, cam.Forward.Y, cam.Forward.Z)
	putVec3(64, cam.Up.X, cam.Up.Y, cam.Up.Z)
	binary.LittleEndian.PutUint32(buf[80:], uint32(width))
	binary.LittleEndian.PutUint32(buf[84:], uint32(height))
	putFloat32(buf, 88, cam.FOV)

	return buf
}

// unpackPixels converts readback bytes (little-endian f32 RGBA) into the
// framebuffer's float storage.
func unpackPixels(raw []byte, dst []float32) {
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
}
