package raytrace

import "github.com/chewxy/math32"

// Shade evaluates the Phong illumination model at a hit point.
//
// The result starts from the ambient term material.Ambient * ambient and
// accumulates, for every light in the scene, a diffuse term
// material.Diffuse * max(0, dot(L,N)) * lightColor and a specular term
// material.Specular * max(0, dot(R,V))^shininess against white. Every
// light always contributes: there is no shadow test and no light culling.
//
// The returned color is not clamped to [0,1]; out-of-range values are a
// presentation concern.
func Shade(scene *Scene, hit Hit, eye Vec3, ambient RGB) RGB {
	mat := &scene.Materials[scene.Spheres[hit.Sphere].Material]

	out := ambient.Scale(mat.Ambient)

	n := hit.Normal.Normalize()
	v := eye.Sub(hit.Position).Normalize()

	for li := range scene.Lights {
		light := &scene.Lights[li]

		l := light.Position.Sub(hit.Position).Normalize()
		r := l.Reflect(n).Neg()

		diff := mat.Diffuse * math32.Max(0, l.Dot(n))
		out = out.Add(light.Color.Scale(diff))

		spec := mat.Specular * math32.Pow(math32.Max(0, r.Dot(v)), mat.Shininess)
		out = out.Add(White.Scale(spec))
	}

	return out
}

// castPixel runs the full per-pixel kernel on the CPU: generate the camera
// ray for (i, j), intersect it with the scene, and shade the nearest hit.
// Misses take the blank background color. This is the reference
// implementation mirrored by the WGSL kernel in internal/gpu.
func castPixel(scene *Scene, table RayTable, i, j int, ambient, blank RGB) RGB {
	ray := table.At(i, j)
	hit, ok := TraceRay(scene, ray)
	if !ok {
		return blank
	}
	return Shade(scene, hit, ray.Origin, ambient)
}
