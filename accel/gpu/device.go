// Package gpu implements accel.Backend as a GPU-assisted broad phase:
// candidate primitives are culled in bulk on the GPU with a single-precision
// ray/AABB slab test compute shader, and the surviving candidates are handed
// to the caller's narrow-phase callback (the same double-precision Plucker
// and tetrahedron tests the cpu backend uses) one at a time. Grounded
// directly on the teacher's internal/compute package: System mirrors
// compute.System's process-wide sync.Once device (compute.go), and the
// culling shader is adapted from compute.BroadPhase's sphere-pair WGSL
// kernel (broadphase.go) into a ray-vs-box kernel.
package gpu

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// System owns the process-wide WebGPU device. Exactly one is ever created,
// same as the teacher's compute.System/globalSystem/initOnce.
type System struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	mu        sync.Mutex
	pipelines map[string]*wgpu.ComputePipeline
	layouts   map[string]*wgpu.BindGroupLayout
}

var (
	globalSystem *System
	initOnce     sync.Once
	initErr      error
)

// AdapterInfo reports which GPU backs the process-wide device.
type AdapterInfo struct {
	Name       string
	Backend    string
	DeviceType string
}

// Initialize sets up the process-wide compute device. Safe to call from
// multiple goroutines or multiple times; only the first call does any work.
func Initialize() (AdapterInfo, error) {
	initOnce.Do(func() {
		globalSystem, initErr = newSystem()
	})
	if initErr != nil {
		return AdapterInfo{}, initErr
	}
	info := globalSystem.adapter.GetInfo()
	return AdapterInfo{
		Name:       info.Name,
		Backend:    info.BackendType.String(),
		DeviceType: info.AdapterType.String(),
	}, nil
}

// Get returns the process-wide device. Callers must call Initialize first;
// Get returns nil if it has not been called or failed.
func Get() *System {
	return globalSystem
}

func newSystem() (*System, error) {
	instance := wgpu.CreateInstance(nil)

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("gpu: request adapter: %w", err)
	}

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("gpu: request device: %w", err)
	}

	return &System{
		instance:  instance,
		adapter:   adapter,
		device:    device,
		queue:     device.GetQueue(),
		pipelines: make(map[string]*wgpu.ComputePipeline),
		layouts:   make(map[string]*wgpu.BindGroupLayout),
	}, nil
}

// Release tears down the process-wide device. Only call this at process
// shutdown; no scene may be used afterward.
func (s *System) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pipelines {
		p.Release()
	}
	for _, l := range s.layouts {
		l.Release()
	}
	s.pipelines = nil
	s.layouts = nil
	s.queue.Release()
	s.device.Release()
	s.adapter.Release()
	s.instance.Release()
}
