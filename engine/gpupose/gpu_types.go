package gpupose

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-motion/engine/rig"
)

// GPUBonePoseSource is the canonical WGSL definition of the BonePose struct.
// Matches GPUBonePose layout exactly (48 bytes, std430 aligned).
//
//go:embed assets/bone_pose.wgsl
var GPUBonePoseSource string

// GPUBonePoseSize is the byte size of one packed bone pose.
const GPUBonePoseSize = 48

// GPUBonePose is the GPU-aligned representation of one rig node's local transform.
// Size: 48 bytes (3 × vec4, std430 aligned).
type GPUBonePose struct {
	Rotation [4]float32 // offset 0: local rotation quaternion (x, y, z, w)
	Position [3]float32 // offset 16: local translation
	Parent   int32      // offset 28: parent node index, -1 for roots
	Scale    [3]float32 // offset 32: local scale
	_pad0    float32    // offset 44: implicit vec3 pad
}

// Size returns the size of the GPUBonePose struct in bytes.
//
// Returns:
//   - int: The size of the struct in bytes.
func (g *GPUBonePose) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUBonePose struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload.
func (g *GPUBonePose) Marshal() []byte {
	buf := make([]byte, GPUBonePoseSize)
	g.marshalInto(buf)
	return buf
}

func (g *GPUBonePose) marshalInto(buf []byte) {
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Rotation[i]))
	}
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(g.Position[i]))
	}
	binary.LittleEndian.PutUint32(buf[28:], uint32(g.Parent))
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[32+i*4:], math.Float32bits(g.Scale[i]))
	}
	binary.LittleEndian.PutUint32(buf[44:], 0)
}

// Pack copies every node of the rig into a bone pose palette ordered by node index.
// Returns nil for a nil or released rig.
//
// Parameters:
//   - r: the rig to read
//
// Returns:
//   - []GPUBonePose: one entry per rig node
func Pack(r rig.Rig) []GPUBonePose {
	if r == nil || !r.Valid() {
		return nil
	}
	nodes := r.Nodes()
	out := make([]GPUBonePose, len(nodes))
	for i, n := range nodes {
		out[i] = GPUBonePose{
			Rotation: n.Rotation,
			Position: n.Position,
			Parent:   n.ParentIndex(),
			Scale:    n.Scale,
		}
	}
	return out
}

// MarshalPalette serializes a palette into one contiguous buffer.
//
// Parameters:
//   - poses: the palette to serialize
//
// Returns:
//   - []byte: len(poses)*48 bytes
func MarshalPalette(poses []GPUBonePose) []byte {
	buf := make([]byte, len(poses)*GPUBonePoseSize)
	for i := range poses {
		poses[i].marshalInto(buf[i*GPUBonePoseSize:])
	}
	return buf
}
