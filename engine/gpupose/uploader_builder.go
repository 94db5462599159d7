package gpupose

import "github.com/cogentcore/webgpu/wgpu"

// UploaderBuilderOption is a functional option for configuring an Uploader.
type UploaderBuilderOption func(u *uploader)

// WithDevice sets the device used to create the storage buffer.
func WithDevice(device *wgpu.Device) UploaderBuilderOption {
	return func(u *uploader) {
		u.device = device
	}
}

// WithQueue sets the queue the palette is written through.
func WithQueue(queue *wgpu.Queue) UploaderBuilderOption {
	return func(u *uploader) {
		u.queue = queue
	}
}

// WithGPU sets both the device and queue from an opened GPU.
func WithGPU(gpu *GPU) UploaderBuilderOption {
	return func(u *uploader) {
		if gpu == nil {
			return
		}
		u.device = gpu.Device
		u.queue = gpu.Queue
	}
}

// WithLabel sets the debug label of the storage buffer.
func WithLabel(label string) UploaderBuilderOption {
	return func(u *uploader) {
		u.label = label
	}
}
