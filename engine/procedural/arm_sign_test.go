package procedural

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-motion/common"
	"github.com/Carmen-Shannon/oxy-motion/engine/model"
	"github.com/Carmen-Shannon/oxy-motion/engine/rig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRig(t *testing.T) rig.Rig {
	t.Helper()
	r, err := rig.NewRig(rig.NewHumanoidSkeleton())
	require.NoError(t, err)
	return r
}

// mirroredLeftArmRig flips the left upper arm's local frame 180 degrees about Y,
// the way some exporters mirror one side of the skeleton.
func mirroredLeftArmRig(t *testing.T) rig.Rig {
	t.Helper()
	skel := rig.NewHumanoidSkeleton()
	upper := skel.BoneIndex(string(rig.LeftUpperArm))
	lower := skel.BoneIndex(string(rig.LeftLowerArm))
	hand := skel.BoneIndex(string(rig.LeftHand))
	skel.Bones[upper].LocalTransform.Rotation = [4]float32{0, 1, 0, 0}
	skel.Bones[lower].LocalTransform.Translation = [3]float32{-0.26, 0, 0}
	skel.Bones[hand].LocalTransform.Translation = [3]float32{0.24, 0, 0}
	r, err := rig.NewRig(skel)
	require.NoError(t, err)
	return r
}

func TestDetectArmSignStandardRig(t *testing.T) {
	r := newTestRig(t)
	assert.Equal(t, float32(-1), DetectArmSign(r, SideLeft))
	assert.Equal(t, float32(1), DetectArmSign(r, SideRight))
}

func TestDetectArmSignMirroredRig(t *testing.T) {
	r := mirroredLeftArmRig(t)
	assert.Equal(t, float32(1), DetectArmSign(r, SideLeft))
	assert.Equal(t, float32(1), DetectArmSign(r, SideRight))
}

func TestDetectArmSignRestoresRotations(t *testing.T) {
	r := newTestRig(t)
	shoulder := r.Humanoid(rig.LeftShoulder)
	upper := r.Humanoid(rig.LeftUpperArm)
	shoulder.Rotation = common.QuatFromEuler(0.1, 0.2, -0.05)
	upper.Rotation = common.QuatFromEuler(-0.3, 0.05, 0.4)
	savedShoulder, savedUpper := shoulder.Rotation, upper.Rotation

	DetectArmSign(r, SideLeft)

	assert.Equal(t, savedShoulder, shoulder.Rotation)
	assert.Equal(t, savedUpper, upper.Rotation)
}

func TestDetectArmSignIsDeterministic(t *testing.T) {
	r := newTestRig(t)
	first := DetectArmSign(r, SideRight)
	for range 5 {
		assert.Equal(t, first, DetectArmSign(r, SideRight))
	}
}

func TestDetectArmSignFallsBackWhenBonesMissing(t *testing.T) {
	skel := &model.Skeleton{Bones: []model.Bone{{
		Name:        "root",
		ParentIndex: -1,
		LocalTransform: model.Transform{
			Rotation: common.QuatIdentity(),
			Scale:    [3]float32{1, 1, 1},
		},
	}}}
	r, err := rig.NewRig(skel)
	require.NoError(t, err)

	assert.Equal(t, DefaultLeftArmSign, DetectArmSign(r, SideLeft))
	assert.Equal(t, DefaultRightArmSign, DetectArmSign(r, SideRight))
	assert.Equal(t, DefaultLeftArmSign, DetectArmSign(nil, SideLeft))
}
