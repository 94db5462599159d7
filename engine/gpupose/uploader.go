package gpupose

import (
	"errors"
	"sync"

	"github.com/Carmen-Shannon/oxy-motion/engine/rig"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNotInitialized is returned by Upload when the uploader has no device or queue.
var ErrNotInitialized = errors.New("gpupose: device or queue not initialized")

// Uploader streams a rig's bone pose palette into a GPU storage buffer once per frame.
type Uploader interface {
	// Upload packs the rig and writes the palette to the storage buffer, growing the buffer when
	// the rig has more nodes than the current capacity. A nil or released rig uploads nothing.
	//
	// Parameters:
	//   - r: the rig whose current local transforms are uploaded
	//
	// Returns:
	//   - error: ErrNotInitialized without a device and queue, or the buffer creation error
	Upload(r rig.Rig) error

	// Buffer returns the storage buffer, or nil before the first successful upload.
	Buffer() *wgpu.Buffer

	// Capacity returns how many bone poses the current buffer holds.
	Capacity() int

	// Release frees the storage buffer.
	Release()
}

type uploader struct {
	mu       *sync.Mutex
	label    string
	device   *wgpu.Device
	queue    *wgpu.Queue
	buffer   *wgpu.Buffer
	capacity int
}

var _ Uploader = &uploader{}

// NewUploader creates an Uploader. The storage buffer is created lazily on the first Upload.
//
// Parameters:
//   - options: functional options (device, queue, label)
//
// Returns:
//   - Uploader: the uploader
func NewUploader(options ...UploaderBuilderOption) Uploader {
	u := &uploader{
		mu:    &sync.Mutex{},
		label: "Bone Pose Buffer",
	}
	for _, opt := range options {
		opt(u)
	}
	return u
}

func (u *uploader) Upload(r rig.Rig) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.device == nil || u.queue == nil {
		return ErrNotInitialized
	}
	poses := Pack(r)
	if len(poses) == 0 {
		return nil
	}
	if len(poses) > u.capacity || u.buffer == nil {
		if u.buffer != nil {
			u.buffer.Release()
			u.buffer = nil
			u.capacity = 0
		}
		buf, err := u.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            u.label,
			Size:             uint64(len(poses) * GPUBonePoseSize),
			Usage:            wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			return err
		}
		u.buffer = buf
		u.capacity = len(poses)
	}

	// wgpu's queue.WriteBuffer copies data internally before returning.
	u.queue.WriteBuffer(u.buffer, 0, MarshalPalette(poses))
	return nil
}

func (u *uploader) Buffer() *wgpu.Buffer {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.buffer
}

func (u *uploader) Capacity() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.capacity
}

func (u *uploader) Release() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.buffer != nil {
		u.buffer.Release()
		u.buffer = nil
	}
	u.capacity = 0
}
