package pose

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-motion/common"
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

func TestWeightZeroConvergesToRest(t *testing.T) {
	r := newTestRig(t)
	spine := r.Humanoid(rig.Spine)
	b := NewBlender(spine)
	rest, ok := b.Rest(spine)
	require.True(t, ok)

	spine.Rotation = common.QuatFromEuler(0.9, -0.4, 0.3)
	spine.Position = common.Vec3Add(spine.Position, [3]float32{0.2, -0.1, 0.05})

	for range 600 {
		b.Rotate(spine, [3]float32{0.5, 0, 0}, 0, 6, 0.016)
		b.Translate(spine, [3]float32{0, 0.3, 0}, 0, 6, 0.016)
	}
	assert.Less(t, common.QuatAngle(rest.Rotation, spine.Rotation), float32(2e-3))
	assert.Less(t, common.Vec3Distance(rest.Position, spine.Position), float32(1e-4))
}

func TestFullWeightReachesOffset(t *testing.T) {
	r := newTestRig(t)
	head := r.Humanoid(rig.Head)
	b := NewBlender(head)

	for range 600 {
		b.Rotate(head, [3]float32{0, 0.4, 0}, 1, 8, 0.016)
	}
	assert.InDelta(t, 0.4, common.QuatAngle(common.QuatIdentity(), head.Rotation), 1e-3)
}

func TestDampingIsFrameRateIndependent(t *testing.T) {
	stepped := newTestRig(t).Humanoid(rig.Chest)
	once := newTestRig(t).Humanoid(rig.Chest)
	bs := NewBlender(stepped)
	bo := NewBlender(once)

	offset := [3]float32{0, 0, 0.6}
	for range 100 {
		bs.Rotate(stepped, offset, 1, 5, 0.016)
		bs.Translate(stepped, [3]float32{0, 0.1, 0}, 1, 5, 0.016)
	}
	bo.Rotate(once, offset, 1, 5, 1.6)
	bo.Translate(once, [3]float32{0, 0.1, 0}, 1, 5, 1.6)

	assert.Less(t, common.QuatAngle(stepped.Rotation, once.Rotation), float32(2e-3))
	assert.Less(t, common.Vec3Distance(stepped.Position, once.Position), float32(1e-4))
}

func TestWeightChangeGlidesInsteadOfJumping(t *testing.T) {
	r := newTestRig(t)
	neck := r.Humanoid(rig.Neck)
	b := NewBlender(neck)
	offset := [3]float32{0.8, 0, 0}
	const lambda, dt = 6, 0.016

	for range 200 {
		b.Rotate(neck, offset, 0.2, lambda, dt)
	}
	before := neck.Rotation
	b.Rotate(neck, offset, 0.8, lambda, dt)

	// The largest legal move is alpha times the distance to the new target.
	bound := common.DampAlpha(lambda, dt) * (0.8 - 0.2) * 0.8
	assert.LessOrEqual(t, common.QuatAngle(before, neck.Rotation), bound+1e-4)
	assert.Greater(t, common.QuatAngle(before, neck.Rotation), float32(0))
}

func TestNilNodeIsNoop(t *testing.T) {
	b := NewBlender(nil)
	assert.NotPanics(t, func() {
		b.Rotate(nil, [3]float32{1, 0, 0}, 1, 5, 0.1)
		b.Translate(nil, [3]float32{1, 0, 0}, 1, 5, 0.1)
	})
	_, ok := b.Rest(nil)
	assert.False(t, ok)
}

func TestUncapturedNodeIsCapturedOnFirstUse(t *testing.T) {
	r := newTestRig(t)
	foot := r.Humanoid(rig.LeftFoot)
	foot.Rotation = common.QuatFromEuler(0.3, 0, 0)
	b := NewBlender()

	b.Rotate(foot, [3]float32{}, 0, 10, 0.016)
	rest, ok := b.Rest(foot)
	require.True(t, ok)
	assert.Equal(t, common.QuatFromEuler(0.3, 0, 0), rest.Rotation)
}

func TestStagedOffsetsCompose(t *testing.T) {
	r := newTestRig(t)
	upper := r.Humanoid(rig.LeftUpperArm)
	b := NewBlender(upper)
	drop := [3]float32{0, 0, 1.0}
	swing := [3]float32{0, 0.3, 0}

	for range 600 {
		b.AddRotation(upper, drop, 1, 8)
		b.AddRotation(upper, swing, 1, 9)
		b.Flush(0.016, nil)
	}
	want := common.QuatMul(common.QuatFromEuler(0, 0, 1.0), common.QuatFromEuler(0, 0.3, 0))
	assert.Less(t, common.QuatAngle(want, upper.Rotation), float32(2e-3))

	// A zero-weight second layer leaves the first one in charge.
	for range 600 {
		b.AddRotation(upper, drop, 1, 8)
		b.AddRotation(upper, swing, 0, 9)
		b.Flush(0.016, nil)
	}
	assert.Less(t, common.QuatAngle(common.QuatFromEuler(0, 0, 1.0), upper.Rotation), float32(2e-3))
}

func TestStagedTranslationsAdd(t *testing.T) {
	r := newTestRig(t)
	hips := r.Humanoid(rig.Hips)
	b := NewBlender(hips)
	rest, _ := b.Rest(hips)

	for range 600 {
		b.AddTranslation(hips, [3]float32{0, 0.02, 0}, 1, 8)
		b.AddTranslation(hips, [3]float32{0, 0.04, 0}, 0.5, 8)
		b.Flush(0.016, nil)
	}
	assert.InDelta(t, rest.Position[1]+0.04, hips.Position[1], 1e-4)
}

func TestOverlayZeroOffsetKeepsClipPose(t *testing.T) {
	r := newTestRig(t)
	spine := r.Humanoid(rig.Spine)
	b := NewBlender(spine)
	clipPose := common.QuatFromEuler(0, 0.5, 0)
	driven := func(*rig.Node) bool { return true }

	for range 120 {
		spine.Rotation = clipPose
		b.AddRotation(spine, [3]float32{}, 1, 8)
		b.Flush(0.016, driven)
	}
	for i := range clipPose {
		assert.InDelta(t, clipPose[i], spine.Rotation[i], 1e-5)
	}
}

func TestOverlayAddsOnTopOfClipPose(t *testing.T) {
	r := newTestRig(t)
	spine := r.Humanoid(rig.Spine)
	b := NewBlender(spine)
	clipPose := common.QuatFromEuler(0, 0.5, 0)
	driven := func(*rig.Node) bool { return true }

	for range 600 {
		spine.Rotation = clipPose
		b.AddRotation(spine, [3]float32{0.2, 0, 0}, 1, 8)
		b.Flush(0.016, driven)
	}
	want := common.QuatMul(clipPose, common.QuatFromEuler(0.2, 0, 0))
	assert.Less(t, common.QuatAngle(want, spine.Rotation), float32(2e-3))
}

func TestOverlayDoesNotAccumulateWhenNodeIsNotRewritten(t *testing.T) {
	r := newTestRig(t)
	chest := r.Humanoid(rig.Chest)
	b := NewBlender(chest)
	base := common.QuatFromEuler(0.1, 0, 0)
	chest.Rotation = base
	driven := func(*rig.Node) bool { return true }

	// Nothing rewrites the chest between flushes, so the offset applies to the same base each frame.
	for range 600 {
		b.AddRotation(chest, [3]float32{0, 0, 0.3}, 1, 8)
		b.Flush(0.016, driven)
	}
	want := common.QuatMul(base, common.QuatFromEuler(0, 0, 0.3))
	assert.Less(t, common.QuatAngle(want, chest.Rotation), float32(2e-3))
}

func TestFlushClearsTheStage(t *testing.T) {
	r := newTestRig(t)
	neck := r.Humanoid(rig.Neck)
	b := NewBlender(neck)

	b.AddRotation(neck, [3]float32{0.5, 0, 0}, 1, 8)
	b.Flush(0.016, nil)
	moved := neck.Rotation
	b.Flush(0.016, nil)
	assert.Equal(t, moved, neck.Rotation)
}
