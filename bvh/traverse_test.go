package bvh

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/chewxy/math32"

	"github.com/achilleasa/polaris-accel/parallel"
	"github.com/achilleasa/polaris-accel/types"
)

func TestScatteredTrianglesScenario(t *testing.T) {
	rng := rand.New(rand.NewSource(1000))
	tris := randomAxisAlignedTriangles(rng, 1000, 100)

	for _, method := range buildMethods {
		accel, soup := buildSoup(t, method, tris)

		checked := 0
		for i, tri := range tris {
			// Aim at the triangle centroid along its normal axis.
			normal := tri[2].Sub(tri[0]).Cross(tri[1].Sub(tri[0])).Normalize()
			target := types.Barycentric3(tri[0], tri[1], tri[2], types.Vec2{0.3, 0.3})
			ray := types.NewRay(target.Sub(normal.Mul(250)), normal)

			expected := bruteForce(soup, ray)
			if expected.hits != 1 {
				continue
			}
			checked++

			var isect Interaction
			if !accel.IntersectHit(&ray, &isect) {
				t.Fatalf("[%s] expected ray aimed at triangle %d to hit", method, i)
			}
			if isect.Mesh != 0 || isect.Triangle != i {
				t.Fatalf("[%s] expected hit on triangle %d; got mesh %d triangle %d", method, i, isect.Mesh, isect.Triangle)
			}
			if math32.Abs(ray.TMax-250) > 1e-3 {
				t.Fatalf("[%s] expected hit distance 250; got %f", method, ray.TMax)
			}
			if isect.P.Sub(target).Len() > 1e-3 {
				t.Fatalf("[%s] expected hit point %v; got %v", method, target, isect.P)
			}
		}

		if checked < 900 {
			t.Fatalf("[%s] expected most aimed rays to hit exactly one triangle; only %d did", method, checked)
		}
	}
}

func TestIntersectMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	meshA := randomAxisAlignedTriangles(rng, 1500, 20)
	meshB := randomAxisAlignedTriangles(rng, 1500, 20)

	for _, method := range buildMethods {
		accel, soup := buildSoup(t, method, meshA, meshB)

		for i := 0; i < 2000; i++ {
			origin := types.Vec3{rng.Float32()*40 - 10, rng.Float32()*40 - 10, rng.Float32()*40 - 10}
			dir := types.Vec3{rng.Float32()*2 - 1, rng.Float32()*2 - 1, rng.Float32()*2 - 1}
			tMax := math32.Inf(1)
			if i%2 == 0 {
				tMax = rng.Float32() * 30
			}
			ray := types.Ray{Origin: origin, Dir: dir, TMax: tMax}
			expected := bruteForce(soup, ray)

			shadowRay := ray
			anyHit := accel.Intersect(&shadowRay)
			if shadowRay != ray {
				t.Fatalf("[%s] expected any-hit query to leave the ray untouched", method)
			}

			var isect Interaction
			closest := ray
			closestHit := accel.IntersectHit(&closest, &isect)

			if anyHit != closestHit {
				t.Fatalf("[%s] ray %d: any-hit returned %t but closest-hit returned %t", method, i, anyHit, closestHit)
			}
			if closestHit != expected.hit {
				t.Fatalf("[%s] ray %d: expected hit to be %t; got %t", method, i, expected.hit, closestHit)
			}
			if !closestHit {
				if closest.TMax != tMax {
					t.Fatalf("[%s] ray %d: expected TMax to be unchanged on a miss", method, i)
				}
				continue
			}

			if closest.TMax > tMax || closest.TMax != expected.dist {
				t.Fatalf("[%s] ray %d: expected closest distance %f; got %f", method, i, expected.dist, closest.TMax)
			}
			mesh, tri := accel.registry.resolve(expected.prim)
			if isect.Mesh != mesh || isect.Triangle != tri {
				t.Fatalf("[%s] ray %d: expected hit on (%d, %d); got (%d, %d)", method, i, mesh, tri, isect.Mesh, isect.Triangle)
			}
		}
	}
}

func TestTraversalSkipsMissedSubtrees(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	tris := randomAxisAlignedTriangles(rng, 5000, 100)

	for _, method := range buildMethods {
		accel, _ := buildSoup(t, method, tris)
		hook := &countingHook{}
		accel.SetTraversalHook(hook)

		// Outside the scene, pointing away from it.
		ray := types.NewRay(types.Vec3{-50, -50, -50}, types.Vec3{-1, -0.5, -0.25})
		var isect Interaction
		if accel.IntersectHit(&ray, &isect) || accel.Intersect(&ray) {
			t.Fatalf("[%s] expected ray pointing away from the scene to miss", method)
		}
		if hook.nodesVisited != 2 || hook.nodesHit != 0 || hook.primsTested != 0 {
			t.Fatalf("[%s] expected only the root to be tested; got %d visits, %d box hits and %d primitive tests", method, hook.nodesVisited, hook.nodesHit, hook.primsTested)
		}

		// A ray aimed at one triangle visits only children of boxes it hits.
		*hook = countingHook{}
		tri := tris[0]
		normal := tri[2].Sub(tri[0]).Cross(tri[1].Sub(tri[0])).Normalize()
		target := types.Barycentric3(tri[0], tri[1], tri[2], types.Vec2{0.3, 0.3})
		ray = types.NewRay(target.Sub(normal.Mul(250)), normal)
		if !accel.IntersectHit(&ray, &isect) {
			t.Fatalf("[%s] expected ray aimed at a triangle to hit", method)
		}
		if hook.primsTested == 0 || hook.primsTested > int64(len(tris)/10) {
			t.Fatalf("[%s] expected traversal to test a small fraction of primitives; tested %d", method, hook.primsTested)
		}
		if hook.nodesVisited > 1+2*hook.nodesHit {
			t.Fatalf("[%s] expected every visited node to be the root or a child of a hit node; got %d visits and %d hits", method, hook.nodesVisited, hook.nodesHit)
		}
		accel.SetTraversalHook(nil)
	}
}

func TestConcurrentQueries(t *testing.T) {
	parallel.InitWorkers(4)
	defer parallel.Shutdown()

	rng := rand.New(rand.NewSource(9))
	tris := randomAxisAlignedTriangles(rng, 4000, 50)

	for _, method := range buildMethods {
		accel, soup := buildSoup(t, method, tris)

		const rays = 512
		origins := make([]types.Vec3, rays)
		for i := range origins {
			origins[i] = types.Vec3{rng.Float32() * 50, rng.Float32() * 50, -5}
		}

		var mu sync.Mutex
		mismatches := 0
		parallel.For(rays, 16, func(i int) {
			ray := types.NewRay(origins[i], types.Vec3{0, 0, 1})
			expected := bruteForce(soup, ray)

			var isect Interaction
			hit := accel.IntersectHit(&ray, &isect)
			if hit != expected.hit || (hit && ray.TMax != expected.dist) {
				mu.Lock()
				mismatches++
				mu.Unlock()
			}
		})

		if mismatches != 0 {
			t.Fatalf("[%s] expected concurrent queries to match brute force; got %d mismatches", method, mismatches)
		}
	}
}

func BenchmarkIntersectHit(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	tris := randomAxisAlignedTriangles(rng, 100000, 100)
	accel, _ := buildSoup(b, BuildSAH, tris)

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		ray := types.NewRay(types.Vec3{rng.Float32() * 100, rng.Float32() * 100, -1}, types.Vec3{0, 0, 1})
		var isect Interaction
		accel.IntersectHit(&ray, &isect)
	}
}
