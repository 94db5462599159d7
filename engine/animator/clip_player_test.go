package animator

import (
	"math"
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

// turnClip rotates the spine from rest to angle radians about Y over one second.
func turnClip(name string, angle float32) *model.AnimationClip {
	return &model.AnimationClip{
		Name:     name,
		Duration: 1,
		Channels: []model.AnimationChannel{{
			BoneName: string(rig.Spine),
			RotationKeys: []model.QuaternionKeyframe{
				{Time: 0, Value: common.QuatIdentity()},
				{Time: 1, Value: common.QuatFromEuler(0, angle, 0)},
			},
		}},
	}
}

// hipClip holds the hips at a constant height that differs from the rig's rest height.
func hipClip(name string, height float32) *model.AnimationClip {
	return &model.AnimationClip{
		Name:     name,
		Duration: 1,
		Channels: []model.AnimationChannel{{
			BoneName: string(rig.Hips),
			PositionKeys: []model.VectorKeyframe{
				{Time: 0, Value: [3]float32{0, height, 0}},
				{Time: 1, Value: [3]float32{0, height, 0.2}},
			},
		}},
	}
}

func spineAngle(r rig.Rig) float32 {
	return common.QuatAngle(common.QuatIdentity(), r.Humanoid(rig.Spine).Rotation)
}

func TestPlaySamplesKeyframes(t *testing.T) {
	r := newTestRig(t)
	p := NewClipPlayer(r)

	require.True(t, p.Play(turnClip("turn", math.Pi/2), true))
	p.PrepareFrame(0.5)

	assert.InDelta(t, math.Pi/4, spineAngle(r), 1e-3)
	assert.Equal(t, "turn", p.Current().Name)
}

func TestLoopingClipWraps(t *testing.T) {
	r := newTestRig(t)
	p := NewClipPlayer(r)
	p.Play(turnClip("turn", 1), true)

	for range 5 {
		assert.False(t, p.PrepareFrame(0.5))
	}
	// 2.5s into a 1s loop samples the midpoint.
	assert.InDelta(t, 0.5, spineAngle(r), 1e-3)
}

func TestOneShotReportsCompletionOnce(t *testing.T) {
	r := newTestRig(t)
	p := NewClipPlayer(r)
	p.Play(turnClip("wave", 1), false)

	assert.False(t, p.PrepareFrame(0.6))
	assert.True(t, p.PrepareFrame(0.6))
	assert.False(t, p.PrepareFrame(0.6))
	assert.InDelta(t, 1, spineAngle(r), 1e-3)
}

func TestHipTranslationIsReanchored(t *testing.T) {
	r := newTestRig(t)
	hips := r.Humanoid(rig.Hips)
	start := hips.Position

	p := NewClipPlayer(r)
	require.True(t, p.Play(hipClip("raised", 3), true))
	p.PrepareFrame(0.5)

	assert.InDelta(t, start[1], hips.Position[1], 1e-5)
	assert.InDelta(t, start[2]+0.1, hips.Position[2], 1e-5)
}

func TestBlendFromSnapshotWhenIdle(t *testing.T) {
	r := newTestRig(t)
	spine := r.Humanoid(rig.Spine)
	spine.Rotation = common.QuatFromEuler(0, -0.4, 0)

	p := NewClipPlayer(r)
	hold := &model.AnimationClip{Name: "hold", Duration: 1, Channels: []model.AnimationChannel{{
		BoneName:     string(rig.Spine),
		RotationKeys: []model.QuaternionKeyframe{{Time: 0, Value: common.QuatFromEuler(0, 0.4, 0)}},
	}}}
	require.True(t, p.BlendTo(hold, true, 0.2))
	assert.True(t, p.IsBlending())
	assert.Equal(t, hold, p.Current())

	p.PrepareFrame(0.1)
	assert.InDelta(t, 0.5, p.BlendProgress(), 1e-5)
	assert.InDelta(t, 0, spineAngle(r), 2e-3)

	p.PrepareFrame(0.15)
	assert.False(t, p.IsBlending())
	assert.InDelta(t, 0.4, spineAngle(r), 1e-3)
}

func TestCrossfadeBetweenClipsKeepsHipsContinuous(t *testing.T) {
	r := newTestRig(t)
	hips := r.Humanoid(rig.Hips)
	p := NewClipPlayer(r)

	p.Play(hipClip("low", 0.2), true)
	p.PrepareFrame(0.3)
	before := hips.Position[1]

	require.True(t, p.BlendTo(hipClip("high", 4.0), true, 0.22))
	for range 20 {
		p.PrepareFrame(1.0 / 60)
		assert.InDelta(t, before, hips.Position[1], 1e-4)
	}
}

func TestCancelBlendKeepsPrimary(t *testing.T) {
	r := newTestRig(t)
	p := NewClipPlayer(r)
	first := turnClip("first", 1)
	p.Play(first, true)
	p.BlendTo(turnClip("second", -1), true, 0.5)

	p.CancelBlend()
	assert.False(t, p.IsBlending())
	assert.Zero(t, p.BlendProgress())
	assert.Equal(t, first, p.Current())
}

func TestUnbindableClipIsRejected(t *testing.T) {
	r := newTestRig(t)
	p := NewClipPlayer(r)
	orphan := &model.AnimationClip{Name: "orphan", Duration: 1, Channels: []model.AnimationChannel{{
		BoneName:     "tail_03",
		RotationKeys: []model.QuaternionKeyframe{{Time: 0, Value: common.QuatIdentity()}},
	}}}

	assert.False(t, p.Playable(orphan))
	assert.False(t, p.Play(orphan, true))
	assert.False(t, p.Playable(nil))
	assert.False(t, p.Playable(&model.AnimationClip{Name: "empty", Duration: 1}))
	assert.Nil(t, p.Current())
}

func TestChannelsBindByNormalizedNameOrIndex(t *testing.T) {
	r := newTestRig(t)
	p := NewClipPlayer(r)
	headIndex := r.Humanoid(rig.Head).Index()
	clip := &model.AnimationClip{Name: "look", Duration: 1, Channels: []model.AnimationChannel{
		{BoneName: "mixamorig:Spine", RotationKeys: []model.QuaternionKeyframe{{Value: common.QuatFromEuler(0, 0.3, 0)}}},
		{BoneIndex: headIndex, RotationKeys: []model.QuaternionKeyframe{{Value: common.QuatFromEuler(0.2, 0, 0)}}},
	}}

	require.True(t, p.Play(clip, true))
	p.PrepareFrame(0.1)

	assert.InDelta(t, 0.3, spineAngle(r), 1e-3)
	assert.InDelta(t, 0.2, common.QuatAngle(common.QuatIdentity(), r.Humanoid(rig.Head).Rotation), 1e-3)
}

func TestSpeedAndSeek(t *testing.T) {
	r := newTestRig(t)
	p := NewClipPlayer(r, WithSpeed(0))
	p.Play(turnClip("turn", 1), true)

	p.PrepareFrame(0.5)
	assert.InDelta(t, 0, spineAngle(r), 2e-3)

	p.SetAnimationTime(0.25)
	p.SetAnimationSpeed(2)
	p.PrepareFrame(0.25)
	assert.InDelta(t, 0.75, spineAngle(r), 1e-3)
}

func TestResetClearsTrackCache(t *testing.T) {
	r := newTestRig(t)
	p := NewClipPlayer(r)
	p.Play(turnClip("a", 1), true)
	p.Playable(turnClip("b", 1))
	assert.Equal(t, 2, p.CachedTracks())

	p.Reset()
	assert.Zero(t, p.CachedTracks())
	assert.Nil(t, p.Current())
}

func TestDrivesFollowsPlaybackAndBlend(t *testing.T) {
	r := newTestRig(t)
	spine := r.Humanoid(rig.Spine)
	hips := r.Humanoid(rig.Hips)
	p := NewClipPlayer(r)
	assert.False(t, p.Drives(spine), "nothing playing")

	require.True(t, p.Play(turnClip("turn", 1), true))
	assert.True(t, p.Drives(spine))
	assert.False(t, p.Drives(hips))

	// While blending, the snapshot covers the union of both clips.
	require.True(t, p.BlendTo(hipClip("hips", 1.2), true, 0.5))
	assert.True(t, p.Drives(spine))
	assert.True(t, p.Drives(hips))

	p.PrepareFrame(1)
	assert.False(t, p.Drives(spine))
	assert.True(t, p.Drives(hips))

	p.Stop()
	assert.False(t, p.Drives(hips))
}
