// Package walker implements the element walker tool of spec.md S4.7: a
// simulation-grade tracker that advances non-interacting particles through a
// volume's tetrahedral mesh, sampling collision distances the way the
// teacher's world simulation samples spawn positions (math/rand, seeded for
// reproducibility — internal/world/world.go, cmd/physics_stress/main.go).
package walker

import (
	"math"
	"math/rand"
	"sync"

	"github.com/xdg-org/xdg-sub000/accel"
	"github.com/xdg-org/xdg-sub000/geom"
	"github.com/xdg-org/xdg-sub000/mesh"
	"github.com/xdg-org/xdg-sub000/primitive"
	"github.com/xdg-org/xdg-sub000/raytracer"
	"github.com/xdg-org/xdg-sub000/xdgerr"
)

// Particle is one tracked history: its current position, direction, the
// element it currently occupies, and whether it is still inside the model.
type Particle struct {
	Position  geom.Vec3
	Direction geom.Vec3
	Element   mesh.MeshID
	Alive     bool

	// Steps records every (element, distance) span the particle crossed,
	// in order, for callers that want the full history rather than just
	// the final state.
	Steps []Step
}

// Step is one element crossing of a tracked particle's history.
type Step struct {
	Element  mesh.MeshID
	Distance float64
}

// Walker drives particle histories over one volume's surface and element
// trees.
type Walker struct {
	rt          *raytracer.RayTracer
	provider    mesh.Provider
	surfaceTree primitive.TreeID
	elementTree primitive.TreeID
	rng         *rand.Rand
}

// New builds a Walker over the surface/element tree pair register_volume
// produced for one volume. elementTree must not be NoTree. seed makes a run
// reproducible, matching the teacher's rand.Seed(42) convention for
// deterministic stress runs (cmd/physics_stress/main.go).
func New(rt *raytracer.RayTracer, provider mesh.Provider, surfaceTree, elementTree primitive.TreeID, seed int64) *Walker {
	if elementTree == primitive.NoTree {
		panic("walker: volume has no element tree")
	}
	return &Walker{rt: rt, provider: provider, surfaceTree: surfaceTree, elementTree: elementTree, rng: rand.New(rand.NewSource(seed))}
}

// isotropicDirection samples a direction uniformly on the unit sphere by
// drawing cos(theta) uniformly on [-1,1] and phi uniformly on [0,2pi).
func (w *Walker) isotropicDirection() geom.Vec3 {
	cosTheta := 2*w.rng.Float64() - 1
	sinTheta := math.Sqrt(1 - cosTheta*cosTheta)
	phi := 2 * math.Pi * w.rng.Float64()
	return geom.Vec3{
		X: sinTheta * math.Cos(phi),
		Y: sinTheta * math.Sin(phi),
		Z: cosTheta,
	}
}

// spawn samples an origin uniformly in the model's global bounding box,
// rejecting until find_element reports a valid containing element
// (spec.md S4.7).
func (w *Walker) spawn() (geom.Vec3, mesh.MeshID) {
	bb := w.provider.GlobalBoundingBox()
	for {
		p := geom.Vec3{
			X: bb.Min.X + w.rng.Float64()*(bb.Max.X-bb.Min.X),
			Y: bb.Min.Y + w.rng.Float64()*(bb.Max.Y-bb.Min.Y),
			Z: bb.Min.Z + w.rng.Float64()*(bb.Max.Z-bb.Min.Z),
		}
		if elem := w.rt.FindElement(w.elementTree, p); elem != mesh.IDNone {
			return p, elem
		}
	}
}

// Track simulates one non-interacting particle for mean free path mfp,
// following spec.md S4.7's loop: advance to the current element's exit or a
// sampled collision distance, whichever is shorter, resampling direction
// after a collision and keeping it when crossing into the next element; on
// exiting the mesh, re-enter through the boundary or terminate.
func (w *Walker) Track(mfp float64) Particle {
	pos, elem := w.spawn()
	dir := w.isotropicDirection()
	p := Particle{Position: pos, Direction: dir, Element: elem, Alive: true}

	for p.Alive {
		nextElem, exitDist := w.provider.NextElement(p.Element, p.Position, p.Direction)
		dc := -math.Log(1-w.rng.Float64()) * mfp

		if dc < exitDist {
			p.Position = p.Position.Add(p.Direction.Scale(dc))
			p.Steps = append(p.Steps, Step{Element: p.Element, Distance: dc})
			p.Direction = w.isotropicDirection()
			continue
		}

		p.Position = p.Position.Add(p.Direction.Scale(exitDist))
		p.Steps = append(p.Steps, Step{Element: p.Element, Distance: exitDist})

		if nextElem != mesh.IDNone {
			p.Element = nextElem
			continue
		}

		if !w.reenter(&p) {
			p.Alive = false
		}
	}
	return p
}

// TrackMany runs n independent particle histories across threads worker
// goroutines (spec.md S7's --threads flag), each with its own Walker whose
// RNG is reseeded per particle from a seed drawn off w's source for that
// particle index, so histories stay reproducible regardless of how the work
// is divided. A non-positive threads is coerced to 1 with a warning
// (xdgerr.CoerceThreads), the same policy spec.md S4.9 requires of any
// thread-count input. Queries on w's RayTracer scenes are safe to issue
// concurrently (spec.md S5); only the RNG state is per-worker.
func (w *Walker) TrackMany(n int, mfp float64, threads int) []Particle {
	threads = xdgerr.CoerceThreads(threads)
	if n <= 0 {
		return nil
	}
	if threads > n {
		threads = n
	}

	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = w.rng.Int63()
	}

	out := make([]Particle, n)
	var wg sync.WaitGroup
	perWorker := (n + threads - 1) / threads

	for worker := 0; worker < threads; worker++ {
		start := worker * perWorker
		end := start + perWorker
		if start >= n {
			break
		}
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			local := &Walker{rt: w.rt, provider: w.provider, surfaceTree: w.surfaceTree, elementTree: w.elementTree, rng: rand.New(rand.NewSource(seeds[start]))}
			for i := start; i < end; i++ {
				local.rng.Seed(seeds[i])
				out[i] = local.Track(mfp)
			}
		}(start, end)
	}
	wg.Wait()
	return out
}

// reenter implements spec.md S4.7's mesh re-entry: it looks for the next
// point, along the particle's current direction, where the ray crosses back
// into the volume (an ENTERING hit on the volume's own surface tree — the
// complement of "exiting the implicit complement" the source describes).
// The boundary triangle just crossed is skipped by stepping TinyBit past it
// before firing, since MeshProvider's NextElement does not expose that
// triangle's id for an explicit exclude list.
func (w *Walker) reenter(p *Particle) bool {
	probe := p.Position.Add(p.Direction.Scale(primitive.TinyBit))
	t, surfaceID := w.rt.RayFire(w.surfaceTree, probe, p.Direction, math.Inf(1), accel.OrientationEntering, nil)
	if surfaceID == mesh.IDNone {
		return false
	}

	p.Position = probe.Add(p.Direction.Scale(t + primitive.TinyBit))
	elem := w.rt.FindElement(w.elementTree, p.Position)
	if elem == mesh.IDNone {
		return false
	}
	p.Element = elem
	return true
}
