package main

import (
	"github.com/Carmen-Shannon/oxy-motion/common"
	"github.com/Carmen-Shannon/oxy-motion/engine/model"
	"github.com/Carmen-Shannon/oxy-motion/engine/rig"
)

// Built-in clips let the preview exercise clip selection without an asset loader.

// lookAroundClip slowly turns the head and upper body; assigned to the idle slot.
func lookAroundClip() *model.AnimationClip {
	return &model.AnimationClip{
		Name:     "look-around",
		Duration: 4,
		Channels: []model.AnimationChannel{
			{
				BoneName: string(rig.Head),
				RotationKeys: []model.QuaternionKeyframe{
					{Time: 0, Value: common.QuatIdentity()},
					{Time: 1, Value: common.QuatFromEuler(0, 0.35, 0)},
					{Time: 3, Value: common.QuatFromEuler(0, -0.35, 0)},
					{Time: 4, Value: common.QuatIdentity()},
				},
			},
			{
				BoneName: string(rig.Chest),
				RotationKeys: []model.QuaternionKeyframe{
					{Time: 0, Value: common.QuatIdentity()},
					{Time: 2, Value: common.QuatFromEuler(0.04, 0, 0)},
					{Time: 4, Value: common.QuatIdentity()},
				},
			},
		},
	}
}

// strideClip bobs the hips around hipHeight with a raw offset baked into its translation track,
// which the clip player re-anchors on playback.
func strideClip(hipHeight float32) *model.AnimationClip {
	const baked = 0.3
	return &model.AnimationClip{
		Name:     "stride",
		Duration: 0.74,
		Channels: []model.AnimationChannel{{
			BoneName: string(rig.Hips),
			PositionKeys: []model.VectorKeyframe{
				{Time: 0, Value: [3]float32{0, hipHeight + baked, 0}},
				{Time: 0.185, Value: [3]float32{0, hipHeight + baked + 0.03, 0}},
				{Time: 0.37, Value: [3]float32{0, hipHeight + baked, 0}},
				{Time: 0.555, Value: [3]float32{0, hipHeight + baked + 0.03, 0}},
				{Time: 0.74, Value: [3]float32{0, hipHeight + baked, 0}},
			},
		}},
	}
}

// waveClip raises the right arm and waves the forearm once.
func waveClip() *model.AnimationClip {
	return &model.AnimationClip{
		Name:     "wave",
		Duration: 1.6,
		Channels: []model.AnimationChannel{
			{
				BoneName: string(rig.RightUpperArm),
				RotationKeys: []model.QuaternionKeyframe{
					{Time: 0, Value: common.QuatIdentity()},
					{Time: 0.3, Value: common.QuatFromEuler(0, 0, 1.1)},
					{Time: 1.3, Value: common.QuatFromEuler(0, 0, 1.1)},
					{Time: 1.6, Value: common.QuatIdentity()},
				},
			},
			{
				BoneName: string(rig.RightLowerArm),
				RotationKeys: []model.QuaternionKeyframe{
					{Time: 0.3, Value: common.QuatIdentity()},
					{Time: 0.55, Value: common.QuatFromEuler(0, 0.5, 0)},
					{Time: 0.8, Value: common.QuatFromEuler(0, -0.3, 0)},
					{Time: 1.05, Value: common.QuatFromEuler(0, 0.5, 0)},
					{Time: 1.3, Value: common.QuatIdentity()},
				},
			},
		},
	}
}
