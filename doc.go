// Package raytrace renders small sphere scenes with a per-pixel raytracing
// kernel dispatched as a GPU compute shader, or with a bit-identical CPU
// reference kernel when no GPU is available.
//
// # Overview
//
// A Scene is an immutable set of materials, spheres, and omnidirectional
// lights. A Renderer owns an RGBA32F Framebuffer and runs the kernel once
// per pixel each frame: generate a camera ray, find the nearest ray-sphere
// intersection, evaluate Phong illumination at the hit point. Pixels that
// hit nothing take the renderer's blank color.
//
// # Quick Start
//
//	scene := &raytrace.Scene{
//	    Materials: []raytrace.Material{{Specular: 1, Diffuse: 1, Ambient: 1, Shininess: 15, Color: raytrace.RGB{R: 1, G: 1, B: 1}}},
//	    Spheres:   []raytrace.Sphere{{Position: raytrace.V3(0, 0, -2), Radius: 1}},
//	    Lights:    []raytrace.OmniLight{{Position: raytrace.V3(0, 1, 0), Color: raytrace.RGB{R: 0.9, G: 1, B: 0.9}}},
//	}
//
//	r, err := raytrace.NewRenderer(scene, raytrace.RendererConfig{Width: 640, Height: 480})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	if err := r.Render(); err != nil {
//	    log.Fatal(err)
//	}
//	dst := image.NewRGBA(image.Rect(0, 0, 640, 480))
//	r.Present(raytrace.NewDisplay(), dst)
//
// The GPU path lives in internal/gpu and runs the same kernel as a WGSL
// compute shader through gogpu/wgpu; see examples/spheres for wiring both
// paths and comparing their output.
//
// # Logging
//
// By default the package produces no log output. Call [SetLogger] to enable
// structured logging via log/slog.
package raytrace
