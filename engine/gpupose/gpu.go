package gpupose

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// GPU holds the WebGPU handles the preview needs to stream bone poses.
type GPU struct {
	Instance *wgpu.Instance
	Surface  *wgpu.Surface
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
}

// OpenGPU creates an instance, adapter, device and queue.
// When surfaceDescriptor is non-nil the adapter is requested compatible with that surface.
//
// Parameters:
//   - surfaceDescriptor: the window surface, or nil for a headless device
//   - forceFallbackAdapter: request the software adapter
//
// Returns:
//   - *GPU: the opened handles
//   - error: adapter or device request failure
func OpenGPU(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool) (*GPU, error) {
	runtime.LockOSThread()
	g := &GPU{Instance: wgpu.CreateInstance(nil)}
	if surfaceDescriptor != nil {
		g.Surface = g.Instance.CreateSurface(surfaceDescriptor)
	}

	a, err := g.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    g.Surface,
	})
	if err != nil {
		g.Release()
		return nil, fmt.Errorf("gpupose: request adapter: %w", err)
	}
	g.Adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Motion Preview Device",
	})
	if err != nil {
		g.Release()
		return nil, fmt.Errorf("gpupose: request device: %w", err)
	}
	g.Device = d
	g.Queue = d.GetQueue()
	return g, nil
}

// Release frees every handle in reverse creation order.
func (g *GPU) Release() {
	if g == nil {
		return
	}
	if g.Queue != nil {
		g.Queue.Release()
		g.Queue = nil
	}
	if g.Device != nil {
		g.Device.Release()
		g.Device = nil
	}
	if g.Adapter != nil {
		g.Adapter.Release()
		g.Adapter = nil
	}
	if g.Surface != nil {
		g.Surface.Release()
		g.Surface = nil
	}
	if g.Instance != nil {
		g.Instance.Release()
		g.Instance = nil
	}
}
