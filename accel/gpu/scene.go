package gpu

import (
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/xdg-org/xdg-sub000/accel"
	"github.com/xdg-org/xdg-sub000/geom"
	"github.com/xdg-org/xdg-sub000/primitive"
)

// Backend dispatches scenes against the process-wide System. Initialize
// must be called once before the first NewScene.
type Backend struct {
	sys *System
}

// New wraps the already-initialized process-wide device. It returns an
// error if Initialize has not run (or failed).
func New() (*Backend, error) {
	sys := Get()
	if sys == nil {
		return nil, fmt.Errorf("gpu: Initialize has not been called")
	}
	return &Backend{sys: sys}, nil
}

func (b *Backend) NewScene() (accel.Scene, error) {
	return &Scene{sys: b.sys}, nil
}

func (b *Backend) Release() {}

type geometryBatch struct {
	primCount  int
	bounds     accel.BoundsFunc
	intersect  accel.IntersectFunc
	occlude    accel.OccludeFunc
	pointQuery accel.PointQueryFunc
	base       int // offset into Scene.boxes
}

// Scene culls candidates for a ray in one GPU dispatch and then runs the
// caller's narrow-phase callback, in double precision, over exactly the
// primitives the GPU reported as plausible. There is no BVH on this path:
// the broad phase is O(n) per ray by design, trading per-ray setup for
// throughput across many simultaneous rays (spec.md S6's "GPU-assisted"
// backend is meant for firing large batches at once).
type Scene struct {
	sys       *System
	batches   []*geometryBatch
	boxes     []box
	committed bool

	gpuBoxes *wgpu.Buffer
}

func (s *Scene) AttachGeometry(primCount int, bounds accel.BoundsFunc, intersect accel.IntersectFunc, occlude accel.OccludeFunc, pointQuery accel.PointQueryFunc) error {
	if s.committed {
		return fmt.Errorf("gpu: cannot attach geometry after commit")
	}
	batch := &geometryBatch{primCount: primCount, bounds: bounds, intersect: intersect, occlude: occlude, pointQuery: pointQuery, base: len(s.boxes)}
	for i := 0; i < primCount; i++ {
		bb := bounds(i)
		s.boxes = append(s.boxes, box{
			MinX: float32(bb.Min.X), MinY: float32(bb.Min.Y), MinZ: float32(bb.Min.Z),
			MaxX: float32(bb.Max.X), MaxY: float32(bb.Max.Y), MaxZ: float32(bb.Max.Z),
		})
	}
	s.batches = append(s.batches, batch)
	return nil
}

func (s *Scene) Commit() error {
	if s.committed {
		return fmt.Errorf("gpu: scene already committed")
	}
	if len(s.boxes) > 0 {
		buf, err := s.sys.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    "scene_boxes",
			Contents: wgpu.ToBytes(s.boxes),
			Usage:    wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("gpu: upload scene boxes: %w", err)
		}
		s.gpuBoxes = buf
	}
	s.committed = true
	return nil
}

// cull dispatches the broad-phase shader and returns the flat primitive
// indices (into s.boxes) the GPU reported as candidates.
func (s *Scene) cull(payload *accel.Payload) ([]int, error) {
	if len(s.boxes) == 0 {
		return nil, nil
	}

	pipeline, layout, err := s.sys.cullPipeline()
	if err != nil {
		return nil, err
	}

	ray := rayUniform{
		OriginX: float32(payload.Origin.X), OriginY: float32(payload.Origin.Y), OriginZ: float32(payload.Origin.Z),
		DirX: float32(payload.Dir.X), DirY: float32(payload.Dir.Y), DirZ: float32(payload.Dir.Z),
		TNear: float32(payload.TNear), TFar: float32(clampFar(payload.TFar)),
		Count: uint32(len(s.boxes)),
	}
	rayBuf, err := s.sys.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "cull_ray",
		Contents: wgpu.ToBytes([]rayUniform{ray}),
		Usage:    wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: upload ray uniform: %w", err)
	}
	defer rayBuf.Release()

	maxHits := uint64(len(s.boxes))
	hitsBuf, err := s.sys.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "cull_hits",
		Size:  maxHits * 4,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create hits buffer: %w", err)
	}
	defer hitsBuf.Release()

	countBuf, err := s.sys.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "cull_hit_count",
		Contents: wgpu.ToBytes([]uint32{0}),
		Usage:    wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create hit count buffer: %w", err)
	}
	defer countBuf.Release()

	bindGroup, err := s.sys.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "cull_bind_group",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: s.gpuBoxes, Size: uint64(len(s.boxes)) * 32},
			{Binding: 1, Buffer: rayBuf, Size: 32},
			{Binding: 2, Buffer: hitsBuf, Size: maxHits * 4},
			{Binding: 3, Buffer: countBuf, Size: 4},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create cull bind group: %w", err)
	}
	defer bindGroup.Release()

	encoder, err := s.sys.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("gpu: create command encoder: %w", err)
	}
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	workgroups := (uint32(len(s.boxes)) + 255) / 256
	pass.DispatchWorkgroups(workgroups, 1, 1)
	pass.End()
	pass.Release()

	commands, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("gpu: finish encoder: %w", err)
	}
	s.sys.queue.Submit(commands)
	commands.Release()

	countData, err := s.readBuffer(countBuf, 4)
	if err != nil {
		return nil, err
	}
	count := wgpu.FromBytes[uint32](countData)[0]
	if count == 0 {
		return nil, nil
	}
	if uint64(count) > maxHits {
		count = uint32(maxHits)
	}

	hitData, err := s.readBuffer(hitsBuf, uint64(count)*4)
	if err != nil {
		return nil, err
	}
	raw := wgpu.FromBytes[uint32](hitData)
	out := make([]int, count)
	for i := range out {
		out[i] = int(raw[i])
	}
	return out, nil
}

func (s *Scene) readBuffer(buf *wgpu.Buffer, size uint64) ([]byte, error) {
	staging, err := s.sys.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "gpu_readback",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create staging buffer: %w", err)
	}
	defer staging.Release()

	encoder, err := s.sys.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("gpu: create readback encoder: %w", err)
	}
	encoder.CopyBufferToBuffer(buf, 0, staging, 0, size)
	commands, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("gpu: finish readback encoder: %w", err)
	}
	s.sys.queue.Submit(commands)
	commands.Release()

	done := make(chan error, 1)
	err = staging.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			done <- fmt.Errorf("gpu: map buffer failed: %v", status)
			return
		}
		done <- nil
	})
	if err != nil {
		return nil, err
	}
	s.sys.device.Poll(true, nil)
	if err := <-done; err != nil {
		return nil, err
	}

	mapped := staging.GetMappedRange(0, uint(size))
	result := make([]byte, len(mapped))
	copy(result, mapped)
	staging.Unmap()
	return result, nil
}

func clampFar(tFar float64) float64 {
	const max32 = 3.4e38
	if tFar > max32 {
		return max32
	}
	return tFar
}

// resolve maps a flat box index back to its owning batch and local index.
func (s *Scene) resolve(flat int) (*geometryBatch, int) {
	for i := len(s.batches) - 1; i >= 0; i-- {
		b := s.batches[i]
		if flat >= b.base {
			return b, flat - b.base
		}
	}
	return nil, 0
}

func (s *Scene) Intersect1(payload *accel.Payload) {
	candidates, err := s.cull(payload)
	if err != nil {
		// A culling failure degrades to "no candidates" rather than a panic:
		// this is a broad-phase accelerator, never the source of truth for
		// correctness (spec.md S9's "graceful GPU degradation" note).
		return
	}
	for _, flat := range candidates {
		batch, local := s.resolve(flat)
		if batch == nil {
			continue
		}
		batch.intersect(local, payload)
	}
}

func (s *Scene) Occluded1(payload *accel.Payload) bool {
	candidates, err := s.cull(payload)
	if err != nil {
		return false
	}
	for _, flat := range candidates {
		batch, local := s.resolve(flat)
		if batch == nil {
			continue
		}
		if batch.occlude(local, payload) {
			payload.Terminated = true
			return true
		}
	}
	return false
}

// PointQuery has no natural ray to cull against, so it runs entirely on the
// CPU: every primitive's own pointQuery callback is invoked directly. A
// point query that needs to scale the way ray fires do belongs on the cpu
// backend's BVH instead (spec.md S6 notes PointQuery is optional per
// backend).
func (s *Scene) PointQuery(p geom.Vec3) accel.PointQueryState {
	state := accel.PointQueryState{BestDist: math.Inf(1), BestPrim: primitive.IDNone}
	for _, batch := range s.batches {
		if batch.pointQuery == nil {
			continue
		}
		for i := 0; i < batch.primCount; i++ {
			batch.pointQuery(i, p, &state)
			if state.Terminated {
				return state
			}
		}
	}
	return state
}

func (s *Scene) Release() {
	if s.gpuBoxes != nil {
		s.gpuBoxes.Release()
	}
	s.boxes = nil
	s.batches = nil
}
