package raytrace

import "github.com/chewxy/math32"

// Hit is a valid ray-sphere intersection: the hit point, the surface
// normal at that point, and the index of the sphere that was hit.
//
// Normal is not normalized; it is the raw offset from the sphere center to
// the hit point. Consumers normalize it when they need a unit normal.
type Hit struct {
	Position Vec3
	Normal   Vec3
	Sphere   int
}

// intersectSphere solves the quadratic line-sphere intersection for one
// sphere and reports the nearest parameter t >= 0, if any.
//
// With d the ray direction, o the origin and c the sphere center:
//
//	A = dot(d,d), B = 2*dot(d, o-c), C = dot(o-c, o-c) - r^2
//
// A negative discriminant means the line misses the sphere. Otherwise both
// roots are candidates; a root is valid only if t >= 0 (the ray moves
// forward from its origin). A zero discriminant (tangent ray) collapses
// both roots into one and is handled by the same path.
func intersectSphere(r Ray, center Vec3, radius float32) (float32, bool) {
	oc := r.Origin.Sub(center)
	a := r.Dir.Dot(r.Dir)
	b := 2 * r.Dir.Dot(oc)
	c := oc.Dot(oc) - radius*radius

	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}

	sq := math32.Sqrt(disc)
	t1 := (-b + sq) / (2 * a)
	t2 := (-b - sq) / (2 * a)

	switch {
	case t1 >= 0 && t2 >= 0:
		return math32.Min(t1, t2), true
	case t1 >= 0:
		return t1, true
	case t2 >= 0:
		return t2, true
	}
	return 0, false
}

// TraceRay finds the nearest intersection of r with the scene's spheres.
// It is a linear scan over the whole sphere set; scene sizes are small and
// simplicity is preferred over an acceleration structure.
//
// When two spheres intersect at exactly equal t, the sphere earlier in the
// scene's sequence wins: the scan compares with strict less-than, so a
// later equal hit never replaces an earlier one. This determinism is load-
// bearing for reproducible output and for tests.
func TraceRay(scene *Scene, r Ray) (Hit, bool) {
	var (
		best    float32
		bestIdx = -1
	)
	for i := range scene.Spheres {
		sp := &scene.Spheres[i]
		t, ok := intersectSphere(r, sp.Position, sp.Radius)
		if !ok {
			continue
		}
		if bestIdx < 0 || t < best {
			best = t
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return Hit{}, false
	}

	pos := r.At(best)
	return Hit{
		Position: pos,
		Normal:   pos.Sub(scene.Spheres[bestIdx].Position),
		Sphere:   bestIdx,
	}, true
}
