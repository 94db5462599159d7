package motion

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-motion/common"
	"github.com/Carmen-Shannon/oxy-motion/engine/model"
	"github.com/Carmen-Shannon/oxy-motion/engine/procedural"
	"github.com/Carmen-Shannon/oxy-motion/engine/rig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frame = float32(1.0 / 60)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAttached(t *testing.T, embedded []*model.AnimationClip, options ...CoordinatorBuilderOption) (Coordinator, rig.Rig) {
	t.Helper()
	r, err := rig.NewRig(rig.NewHumanoidSkeleton(), rig.WithName("test"))
	require.NoError(t, err)
	c := NewCoordinator(append([]CoordinatorBuilderOption{WithLogger(quietLogger())}, options...)...)
	c.Attach(r, embedded)
	return c, r
}

// clock drives a coordinator at a fixed frame rate.
type clock struct {
	c   Coordinator
	now float32
}

func (k *clock) run(frames int, sig Signals) MotionState {
	var st MotionState
	for range frames {
		k.now += frame
		st = k.c.Tick(frame, k.now, sig)
	}
	return st
}

func spineClip(name string, duration float32) *model.AnimationClip {
	return &model.AnimationClip{Name: name, Duration: duration, Channels: []model.AnimationChannel{{
		BoneName: string(rig.Spine),
		RotationKeys: []model.QuaternionKeyframe{
			{Time: 0, Value: common.QuatIdentity()},
			{Time: duration, Value: common.QuatFromEuler(0, 0.5, 0)},
		},
	}}}
}

// bobClip raises the hips by rise over one looping second, starting from height.
func bobClip(name string, height, rise float32) *model.AnimationClip {
	return &model.AnimationClip{Name: name, Duration: 1, Channels: []model.AnimationChannel{{
		BoneName: string(rig.Hips),
		PositionKeys: []model.VectorKeyframe{
			{Time: 0, Value: [3]float32{0, height, 0}},
			{Time: 1, Value: [3]float32{0, height + rise, 0}},
		},
	}}}
}

// holdClip keeps the spine at a fixed yaw.
func holdClip(name string, yaw float32) *model.AnimationClip {
	q := common.QuatFromEuler(0, yaw, 0)
	return &model.AnimationClip{Name: name, Duration: 1, Channels: []model.AnimationChannel{{
		BoneName:     string(rig.Spine),
		RotationKeys: []model.QuaternionKeyframe{{Time: 0, Value: q}, {Time: 1, Value: q}},
	}}}
}

func assign(t *testing.T, c Coordinator, slot Slot, clip *model.AnimationClip) {
	t.Helper()
	require.True(t, c.ImportClip(clip))
	require.True(t, c.AssignLastLoadedToSlot(slot))
}

func TestActionClipOverridesEverySource(t *testing.T) {
	c, _ := newAttached(t, nil)
	k := &clock{c: c}
	assign(t, c, SlotIdle, spineClip("idle", 2))
	assign(t, c, SlotWalk, spineClip("walk", 1))

	assert.Equal(t, SourceIdle, k.run(1, Signals{}).Animation)

	c.SetActionClip(spineClip("wave", 1), true)
	st := k.run(1, Signals{})
	assert.Equal(t, SourceAction, st.Animation)
	assert.Equal(t, "wave", st.Clip)

	c.StartAction(5)
	st = k.run(10, Signals{})
	assert.Equal(t, SourceAction, st.Animation)
	assert.Equal(t, LocomotionWalk, st.Locomotion)

	c.SetActionClip(nil, false)
	st = k.run(1, Signals{})
	assert.Equal(t, SourceWalk, st.Animation)
	assert.Equal(t, "walk", st.Clip)
}

func TestWalkChainFallsThroughToProcedural(t *testing.T) {
	c, _ := newAttached(t, nil)
	k := &clock{c: c}
	assign(t, c, SlotIdle, spineClip("idle", 2))

	k.run(1, Signals{})
	c.StartAction(3)
	st := k.run(1, Signals{})
	assert.Equal(t, LocomotionWalk, st.Locomotion)
	assert.Equal(t, SourceNone, st.Animation)
	assert.Empty(t, st.Clip)
}

func TestDragMovingWithoutWalkClipPrefersIdleClip(t *testing.T) {
	c, _ := newAttached(t, nil)
	k := &clock{c: c}
	assign(t, c, SlotIdle, spineClip("idle", 2))

	k.run(1, Signals{})
	c.StartAction(3)
	st := k.run(5, Signals{Dragging: true, DragDelta: 4})
	assert.Equal(t, LocomotionWalk, st.Locomotion)
	assert.Equal(t, SourceIdle, st.Animation)
}

func TestEmbeddedClipsAreAutoPicked(t *testing.T) {
	embedded := []*model.AnimationClip{
		spineClip("Wave", 1),
		spineClip("Armature|Idle_Breathing", 2),
		spineClip("Walk_Cycle", 1),
	}
	c, _ := newAttached(t, embedded)
	k := &clock{c: c}

	st := k.run(1, Signals{})
	assert.Equal(t, SourceIdle, st.Animation)
	assert.Equal(t, "Armature|Idle_Breathing", st.Clip)

	c.StartAction(2)
	st = k.run(1, Signals{})
	assert.Equal(t, SourceWalk, st.Animation)
	assert.Equal(t, "Walk_Cycle", st.Clip)

	// An assigned slot clip wins over the embedded one.
	assign(t, c, SlotWalk, spineClip("custom", 1))
	st = k.run(1, Signals{})
	assert.Equal(t, "custom", st.Clip)
}

func TestUnplayableClipCountsAsEmptySlot(t *testing.T) {
	c, _ := newAttached(t, nil)
	k := &clock{c: c}
	orphan := &model.AnimationClip{Name: "orphan", Duration: 1, Channels: []model.AnimationChannel{{
		BoneName:     "tail",
		RotationKeys: []model.QuaternionKeyframe{{Value: common.QuatIdentity()}},
	}}}

	assert.False(t, c.ImportClip(orphan))
	require.True(t, c.AssignLastLoadedToSlot(SlotIdle))
	c.SetActionClip(orphan, true)

	assert.Equal(t, SourceNone, k.run(3, Signals{}).Animation)
}

func TestDraggingAloneDoesNotWalk(t *testing.T) {
	c, _ := newAttached(t, nil)
	k := &clock{c: c}
	assign(t, c, SlotWalk, spineClip("walk", 1))

	st := k.run(30, Signals{Dragging: true, DragDelta: 6})
	assert.Equal(t, LocomotionIdle, st.Locomotion)
	assert.Equal(t, SourceNone, st.Animation)
	assert.Greater(t, st.MoveIntensity, float32(0.9))

	// Holding still while dragging lets the intensity decay after the recent-move window.
	st = k.run(120, Signals{Dragging: true})
	assert.Less(t, st.MoveIntensity, float32(0.01))
}

func TestMoveIntensityFollowsActionWindow(t *testing.T) {
	c, _ := newAttached(t, nil)
	k := &clock{c: c}
	k.run(1, Signals{})

	c.StartAction(0.5)
	prev := c.MoveIntensity()
	for range 20 {
		k.run(1, Signals{})
		assert.GreaterOrEqual(t, c.MoveIntensity(), prev)
		prev = c.MoveIntensity()
	}

	k.run(30, Signals{})
	assert.Equal(t, LocomotionIdle, c.MotionState().Locomotion)
	k.run(120, Signals{})
	assert.Less(t, c.MoveIntensity(), float32(0.01))
}

func TestWalkClipSwitchKeepsHipHeight(t *testing.T) {
	c, r := newAttached(t, nil)
	hips := r.Humanoid(rig.Hips)
	k := &clock{c: c}
	assign(t, c, SlotWalk, bobClip("walk_a", 0.1, 0.05))

	k.run(1, Signals{})
	c.StartAction(10)
	st := k.run(60, Signals{})
	require.Equal(t, SourceWalk, st.Animation)
	before := r.WorldPosition(hips)[1]

	// The lock window is 0.26s: 15 frames stay inside it.
	assign(t, c, SlotWalk, bobClip("walk_b", 3.7, 0.08))
	for range 15 {
		st = k.run(1, Signals{})
		assert.Equal(t, "walk_b", st.Clip)
		assert.True(t, st.HipLocked)
		assert.InDelta(t, before, r.WorldPosition(hips)[1], 1e-4)
	}

	// Once released the new clip bobs from the locked height, not from its authored 3.7.
	st = k.run(30, Signals{})
	assert.False(t, st.HipLocked)
	y := r.WorldPosition(hips)[1]
	assert.NotEqual(t, before, y)
	assert.InDelta(t, before, y, 0.1)
}

func TestSwitchLockEngagesAndExpires(t *testing.T) {
	c, _ := newAttached(t, nil)
	k := &clock{c: c}
	assign(t, c, SlotIdle, spineClip("idle", 2))

	assert.True(t, k.run(1, Signals{}).HipLocked)
	assert.True(t, k.run(10, Signals{}).HipLocked)
	assert.False(t, k.run(10, Signals{}).HipLocked)
}

func TestDragLockHoldsHipsUntilRelease(t *testing.T) {
	c, r := newAttached(t, nil)
	hips := r.Humanoid(rig.Hips)
	k := &clock{c: c}
	assign(t, c, SlotIdle, bobClip("idle", 0.95, 0.3))

	k.run(30, Signals{})
	k.run(1, Signals{Dragging: true})
	locked := hips.Position[1]
	for range 29 {
		st := k.run(1, Signals{Dragging: true})
		assert.True(t, st.HipLocked)
		assert.Equal(t, locked, hips.Position[1])
	}

	st := k.run(1, Signals{})
	assert.False(t, st.HipLocked)
	assert.Greater(t, float32(math.Abs(float64(hips.Position[1]-locked))), float32(0.01))
}

func TestOneShotActionClearsItself(t *testing.T) {
	var finished []*model.AnimationClip
	c, _ := newAttached(t, nil, WithActionFinishedCallback(func(clip *model.AnimationClip) {
		finished = append(finished, clip)
	}))
	k := &clock{c: c}
	wave := spineClip("wave", 0.5)
	c.SetActionClip(wave, false)

	assert.Equal(t, SourceAction, k.run(1, Signals{}).Animation)
	k.run(40, Signals{})

	require.Len(t, finished, 1)
	assert.Same(t, wave, finished[0])
	assert.Equal(t, SourceNone, c.MotionState().Animation)
}

func TestSlotAssignment(t *testing.T) {
	c := NewCoordinator(WithLogger(quietLogger()))
	assert.False(t, c.AssignLastLoadedToSlot(SlotIdle))

	clip := spineClip("idle", 1)
	assert.True(t, c.ImportClip(clip))
	assert.True(t, c.AssignLastLoadedToSlot(SlotWalk))
	assert.Same(t, clip, c.SlotClip(SlotWalk))
	assert.Nil(t, c.SlotClip(SlotIdle))

	// The last loaded clip is consumed by the promotion.
	assert.False(t, c.AssignLastLoadedToSlot(SlotIdle))

	c.ClearSlot(SlotWalk)
	assert.Nil(t, c.SlotClip(SlotWalk))
}

func TestDetachDropsRig(t *testing.T) {
	c, r := newAttached(t, nil)
	k := &clock{c: c}
	assign(t, c, SlotIdle, spineClip("idle", 1))
	assert.Equal(t, SourceIdle, k.run(2, Signals{}).Animation)

	c.Detach()
	assert.Nil(t, c.Rig())
	st := k.run(2, Signals{})
	assert.Equal(t, SourceNone, st.Animation)
	assert.False(t, st.Blending)
	assert.Nil(t, c.SlotClip(SlotIdle))
	assert.Nil(t, c.SlotClip(SlotWalk))

	c.Attach(r, nil)
	assert.Equal(t, SourceNone, k.run(1, Signals{}).Animation)
}

func TestDetachEmptiesEverySlot(t *testing.T) {
	c, r := newAttached(t, nil)
	k := &clock{c: c}
	assign(t, c, SlotIdle, spineClip("idle", 1))
	assign(t, c, SlotWalk, spineClip("walk", 1))
	c.SetActionClip(spineClip("wave", 1), true)
	require.True(t, c.ImportClip(spineClip("pending", 1)))
	assert.Equal(t, SourceAction, k.run(1, Signals{}).Animation)

	c.Detach()
	assert.Nil(t, c.SlotClip(SlotIdle))
	assert.Nil(t, c.SlotClip(SlotWalk))
	assert.False(t, c.AssignLastLoadedToSlot(SlotIdle), "the last imported clip is dropped too")

	// The action clip does not survive a re-attach either.
	c.Attach(r, nil)
	assert.Equal(t, SourceNone, k.run(1, Signals{}).Animation)
}

func TestTickWithoutRigOnlyTracksSignals(t *testing.T) {
	c := NewCoordinator(WithLogger(quietLogger()))
	k := &clock{c: c}
	k.run(1, Signals{})
	c.StartAction(1)

	st := k.run(5, Signals{})
	assert.Equal(t, LocomotionWalk, st.Locomotion)
	assert.Equal(t, SourceNone, st.Animation)
	assert.Greater(t, st.MoveIntensity, float32(0))
}

func TestConfigPatchesReachGenerators(t *testing.T) {
	c, r := newAttached(t, nil)
	k := &clock{c: c}
	upper := r.Humanoid(rig.LeftUpperArm)

	k.run(240, Signals{})
	assert.Greater(t, common.QuatAngle(common.QuatIdentity(), upper.Rotation), float32(0.5))

	cfg := c.SetIdleConfig(procedural.IdlePatch{Strength: procedural.Float(0), Speed: procedural.Float(-3)})
	assert.Equal(t, float32(0), cfg.Strength)
	assert.Equal(t, float32(procedural.MinSpeed), cfg.Speed)
	assert.Equal(t, cfg, c.IdleConfig())

	k.run(900, Signals{})
	assert.Less(t, common.QuatAngle(common.QuatIdentity(), upper.Rotation), float32(2e-3))

	wcfg := c.SetWalkConfig(procedural.WalkPatch{Stride: procedural.Float(2)})
	assert.Equal(t, float32(1), wcfg.Stride)
	assert.Equal(t, wcfg, c.WalkConfig())
}

func TestAttachModelUsesEmbeddedClips(t *testing.T) {
	m := model.NewModel(
		model.WithName("avatar.vrm"),
		model.WithSkeleton(rig.NewHumanoidSkeleton()),
		model.WithAnimations([]*model.AnimationClip{spineClip("idle", 1)}),
	)
	c := NewCoordinator(WithLogger(quietLogger()))
	r, err := c.AttachModel(m)
	require.NoError(t, err)
	assert.Equal(t, "avatar.vrm", r.Name())

	k := &clock{c: c}
	assert.Equal(t, SourceIdle, k.run(1, Signals{}).Animation)

	_, err = c.AttachModel(model.NewModel())
	assert.ErrorIs(t, err, rig.ErrNilSkeleton)
}

func TestArmsStayDownWhileWalking(t *testing.T) {
	c, r := newAttached(t, nil)
	k := &clock{c: c}
	upper := r.Humanoid(rig.LeftUpperArm)
	rest := upper.Rotation

	k.run(240, Signals{})
	idle := common.QuatAngle(rest, upper.Rotation)
	require.Greater(t, idle, float32(0.9))

	// Walking swings the arms on top of the idle drop; it never lifts them back toward rest.
	c.StartAction(2)
	for range 110 {
		st := k.run(1, Signals{})
		require.Equal(t, LocomotionWalk, st.Locomotion)
		assert.GreaterOrEqual(t, common.QuatAngle(rest, upper.Rotation), idle-0.05)
	}

	// Covers the settle window after the action closes.
	for range 90 {
		k.run(1, Signals{})
		assert.GreaterOrEqual(t, common.QuatAngle(rest, upper.Rotation), idle-0.05)
	}
	assert.Equal(t, LocomotionIdle, c.MotionState().Locomotion)
}

func TestWalkMovesLegsOverIdle(t *testing.T) {
	c, r := newAttached(t, nil)
	k := &clock{c: c}
	leg := r.Humanoid(rig.LeftUpperLeg)
	rest := leg.Rotation

	k.run(60, Signals{})
	assert.Less(t, common.QuatAngle(rest, leg.Rotation), float32(1e-3))

	c.StartAction(3)
	var peak float32
	for range 150 {
		k.run(1, Signals{})
		peak = max(peak, common.QuatAngle(rest, leg.Rotation))
	}
	assert.Greater(t, peak, float32(0.15))
}

func TestIdleOverlayLeavesClipPoseWithoutBreatheOrSway(t *testing.T) {
	c, r := newAttached(t, nil, WithIdleConfig(procedural.IdleConfig{
		Enabled:            true,
		OverlayOnAnimation: true,
		Strength:           1,
		Speed:              1,
		ArmsDown:           0.85,
	}))
	k := &clock{c: c}
	spine := r.Humanoid(rig.Spine)
	assign(t, c, SlotIdle, holdClip("hold", 0.5))

	k.run(60, Signals{})
	want := common.QuatFromEuler(0, 0.5, 0)
	for range 120 {
		require.Equal(t, SourceIdle, k.run(1, Signals{}).Animation)
		for i := range want {
			assert.InDelta(t, want[i], spine.Rotation[i], 1e-4)
		}
	}
}

func TestIdleOverlayAddsToClipPose(t *testing.T) {
	c, r := newAttached(t, nil, WithIdleConfig(procedural.IdleConfig{
		Enabled:            true,
		OverlayOnAnimation: true,
		Strength:           1,
		Speed:              1,
		Breathe:            1,
		Sway:               1,
	}))
	k := &clock{c: c}
	spine := r.Humanoid(rig.Spine)
	assign(t, c, SlotIdle, holdClip("hold", 0.5))

	k.run(60, Signals{})
	want := common.QuatFromEuler(0, 0.5, 0)
	var peak float32
	for range 240 {
		k.run(1, Signals{})
		d := common.QuatAngle(want, spine.Rotation)
		// Idle spine offsets stay within a few hundredths of a radian of the clip pose.
		assert.Less(t, d, float32(0.05))
		peak = max(peak, d)
	}
	assert.Greater(t, peak, float32(1e-3), "breathing and sway are visible on top of the clip")
}

func TestActionLoopChangeOnSameClipTakesEffect(t *testing.T) {
	var finished []*model.AnimationClip
	c, _ := newAttached(t, nil, WithActionFinishedCallback(func(clip *model.AnimationClip) {
		finished = append(finished, clip)
	}))
	k := &clock{c: c}
	wave := spineClip("wave", 0.5)

	c.SetActionClip(wave, true)
	k.run(90, Signals{})
	assert.Empty(t, finished)

	c.SetActionClip(wave, false)
	k.run(60, Signals{})
	require.Len(t, finished, 1)
	assert.Same(t, wave, finished[0])
	assert.Equal(t, SourceNone, c.MotionState().Animation)

	c.SetActionClip(wave, false)
	k.run(5, Signals{})
	c.SetActionClip(wave, true)
	st := k.run(120, Signals{})
	assert.Len(t, finished, 1)
	assert.Equal(t, SourceAction, st.Animation)
}
