package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// box is the single-precision AABB uploaded per primitive for broad-phase
// culling. Packed as two vec4s so WGSL's array<Box> has natural alignment.
type box struct {
	MinX, MinY, MinZ, _pad0 float32
	MaxX, MaxY, MaxZ, _pad1 float32
}

// cullShader is adapted from the teacher's broadPhaseShader
// (internal/compute/broadphase.go): same structure (one thread per
// candidate, storage buffers for input/output, an atomic counter for the
// compacted result), but a ray/AABB slab test in place of a sphere/sphere
// distance test.
const cullShader = `
struct Box {
    lo: vec4<f32>,
    hi: vec4<f32>,
}

struct Ray {
    origin: vec4<f32>,
    dir: vec4<f32>,
    tNear: f32,
    tFar: f32,
    count: u32,
    _pad: u32,
}

@group(0) @binding(0) var<storage, read> boxes: array<Box>;
@group(0) @binding(1) var<uniform> ray: Ray;
@group(0) @binding(2) var<storage, read_write> hits: array<u32>;
@group(0) @binding(3) var<storage, read_write> hitCount: atomic<u32>;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x;
    if (i >= ray.count) {
        return;
    }

    let lo = boxes[i].lo.xyz;
    let hi = boxes[i].hi.xyz;

    var tmin = ray.tNear;
    var tmax = ray.tFar;

    for (var axis = 0u; axis < 3u; axis = axis + 1u) {
        let o = ray.origin[axis];
        let d = ray.dir[axis];
        let blo = lo[axis];
        let bhi = hi[axis];
        if (d == 0.0) {
            if (o < blo || o > bhi) {
                return;
            }
            continue;
        }
        var t1 = (blo - o) / d;
        var t2 = (bhi - o) / d;
        if (t1 > t2) {
            let tmp = t1;
            t1 = t2;
            t2 = tmp;
        }
        tmin = max(tmin, t1);
        tmax = min(tmax, t2);
        if (tmin > tmax) {
            return;
        }
    }

    let idx = atomicAdd(&hitCount, 1u);
    if (idx < arrayLength(&hits)) {
        hits[idx] = i;
    }
}
`

type rayUniform struct {
	OriginX, OriginY, OriginZ, _pad0 float32
	DirX, DirY, DirZ, _pad1          float32
	TNear, TFar                      float32
	Count, _pad2                     uint32
}

// cullPipeline compiles (once) and caches the culling compute pipeline and
// its bind group layout on the System, matching compute.System.pipelines.
func (s *System) cullPipeline() (*wgpu.ComputePipeline, *wgpu.BindGroupLayout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pipelines["cull"]; ok {
		return p, s.layouts["cull"], nil
	}

	shader, err := s.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "ray_aabb_cull",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: cullShader},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("gpu: compile cull shader: %w", err)
	}

	layout, err := s.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "cull_layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage}},
			{Binding: 1, Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}},
			{Binding: 2, Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage}},
			{Binding: 3, Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		shader.Release()
		return nil, nil, fmt.Errorf("gpu: cull bind group layout: %w", err)
	}

	pipelineLayout, err := s.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "cull_pipeline_layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{layout},
	})
	if err != nil {
		shader.Release()
		layout.Release()
		return nil, nil, fmt.Errorf("gpu: cull pipeline layout: %w", err)
	}
	defer pipelineLayout.Release()

	pipeline, err := s.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  "cull_pipeline",
		Layout: pipelineLayout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     shader,
			EntryPoint: "main",
		},
	})
	if err != nil {
		shader.Release()
		layout.Release()
		return nil, nil, fmt.Errorf("gpu: create cull pipeline: %w", err)
	}

	s.pipelines["cull"] = pipeline
	s.layouts["cull"] = layout
	return pipeline, layout, nil
}
