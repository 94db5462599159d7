package model

import "strings"

// --- Transform & Skeleton Types ---

// Transform represents a decomposed transform for animation interpolation.
type Transform struct {
	// Translation is the position offset.
	Translation [3]float32

	// Rotation is the orientation as a quaternion (x, y, z, w).
	Rotation [4]float32

	// Scale is the scale factor along each axis.
	Scale [3]float32
}

// Bone represents a single bone in a skeleton hierarchy.
type Bone struct {
	// Name is the bone's identifier (for debugging and animation targeting).
	Name string

	// ParentIndex is the index of the parent bone (-1 for root bones).
	// Parents always precede their children in Skeleton.Bones.
	ParentIndex int32

	// LocalTransform is the bone's bind transform relative to its parent.
	LocalTransform Transform
}

// Skeleton represents a bone hierarchy as handed over by the asset loader.
type Skeleton struct {
	// Bones is the array of all bones in the skeleton, topologically sorted.
	Bones []Bone

	// RootBoneIndices are indices of bones with no parent.
	RootBoneIndices []int32

	// BoneNameToIndex maps bone names to their indices for quick lookup.
	BoneNameToIndex map[string]int32
}

// BoneIndex returns the index of the bone with the given name, or -1 if the skeleton has no such bone.
// Falls back to a linear scan when BoneNameToIndex was not populated by the loader.
//
// Parameters:
//   - name: the bone name to look up
//
// Returns:
//   - int32: the bone index, or -1 if not found
func (s *Skeleton) BoneIndex(name string) int32 {
	if s == nil {
		return -1
	}
	if s.BoneNameToIndex != nil {
		if idx, ok := s.BoneNameToIndex[name]; ok {
			return idx
		}
		return -1
	}
	for i := range s.Bones {
		if s.Bones[i].Name == name {
			return int32(i)
		}
	}
	return -1
}

// --- Animation Types ---

// AnimationClip represents a single pre-authored animation (idle, walk, wave, etc.).
// Clips are compared by pointer identity; the engine never mutates a clip.
type AnimationClip struct {
	// Name is the animation identifier.
	Name string

	// Duration is the total length of the animation in seconds.
	Duration float32

	// TicksPerSecond is the sample rate of the animation.
	TicksPerSecond float32

	// Channels contains animation data for each animated bone.
	Channels []AnimationChannel
}

// AnimationChannel contains keyframe data for a single bone.
type AnimationChannel struct {
	// BoneName binds the channel to a rig node by name. When empty, BoneIndex is used instead.
	// Clips imported from a separate file bind by name.
	BoneName string

	// BoneIndex is the index of the bone this channel animates in the skeleton it was authored for.
	BoneIndex int32

	// PositionKeys are keyframes for translation.
	PositionKeys []VectorKeyframe

	// RotationKeys are keyframes for rotation (quaternion).
	RotationKeys []QuaternionKeyframe

	// ScaleKeys are keyframes for scale.
	ScaleKeys []VectorKeyframe
}

// VectorKeyframe stores a 3D vector value at a specific time.
type VectorKeyframe struct {
	// Time is the keyframe timestamp in seconds.
	Time float32

	// Value is the 3D vector value at this keyframe.
	Value [3]float32
}

// QuaternionKeyframe stores a quaternion rotation at a specific time.
type QuaternionKeyframe struct {
	// Time is the keyframe timestamp in seconds.
	Time float32

	// Value is the quaternion value at this keyframe (x, y, z, w).
	Value [4]float32
}

// HasKeys reports whether the channel carries at least one keyframe of any kind.
func (c *AnimationChannel) HasKeys() bool {
	return len(c.PositionKeys) > 0 || len(c.RotationKeys) > 0 || len(c.ScaleKeys) > 0
}

// Playable reports whether the clip can produce a usable track at all: it must be non-nil,
// have a positive duration and at least one channel carrying keyframes. Whether the channels
// bind to a particular rig is decided by the clip player.
//
// Returns:
//   - bool: true if the clip is structurally playable
func (c *AnimationClip) Playable() bool {
	if c == nil || c.Duration <= 0 {
		return false
	}
	for i := range c.Channels {
		if c.Channels[i].HasKeys() {
			return true
		}
	}
	return false
}

// NameContains reports whether the clip's name contains any of the given keywords (case-insensitive).
//
// Parameters:
//   - keywords: lowercase substrings to look for
//
// Returns:
//   - bool: true if any keyword matches
func (c *AnimationClip) NameContains(keywords ...string) bool {
	if c == nil {
		return false
	}
	name := strings.ToLower(c.Name)
	for _, k := range keywords {
		if strings.Contains(name, k) {
			return true
		}
	}
	return false
}
