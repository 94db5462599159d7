package rig

import (
	"github.com/Carmen-Shannon/oxy-motion/common"
	"github.com/Carmen-Shannon/oxy-motion/engine/model"
)

// HumanBone names a humanoid bone slot independent of the asset's own bone naming.
type HumanBone string

const (
	Hips          HumanBone = "hips"
	Spine         HumanBone = "spine"
	Chest         HumanBone = "chest"
	UpperChest    HumanBone = "upperChest"
	Neck          HumanBone = "neck"
	Head          HumanBone = "head"
	LeftShoulder  HumanBone = "leftShoulder"
	LeftUpperArm  HumanBone = "leftUpperArm"
	LeftLowerArm  HumanBone = "leftLowerArm"
	LeftHand      HumanBone = "leftHand"
	RightShoulder HumanBone = "rightShoulder"
	RightUpperArm HumanBone = "rightUpperArm"
	RightLowerArm HumanBone = "rightLowerArm"
	RightHand     HumanBone = "rightHand"
	LeftUpperLeg  HumanBone = "leftUpperLeg"
	LeftLowerLeg  HumanBone = "leftLowerLeg"
	LeftFoot      HumanBone = "leftFoot"
	RightUpperLeg HumanBone = "rightUpperLeg"
	RightLowerLeg HumanBone = "rightLowerLeg"
	RightFoot     HumanBone = "rightFoot"
)

// AllHumanBones lists every humanoid slot in hierarchy order.
var AllHumanBones = []HumanBone{
	Hips, Spine, Chest, UpperChest, Neck, Head,
	LeftShoulder, LeftUpperArm, LeftLowerArm, LeftHand,
	RightShoulder, RightUpperArm, RightLowerArm, RightHand,
	LeftUpperLeg, LeftLowerLeg, LeftFoot,
	RightUpperLeg, RightLowerLeg, RightFoot,
}

// humanAliases covers VRM-normalized names, VRoid J_Bip names, Mixamo names (namespace stripped)
// and Blender rigify-style names. Matching is done on normalized names.
var humanAliases = map[HumanBone][]string{
	Hips:          {"hips", "J_Bip_C_Hips", "pelvis", "hip"},
	Spine:         {"spine", "J_Bip_C_Spine"},
	Chest:         {"chest", "J_Bip_C_Chest", "spine1"},
	UpperChest:    {"upperChest", "J_Bip_C_UpperChest", "spine2"},
	Neck:          {"neck", "J_Bip_C_Neck"},
	Head:          {"head", "J_Bip_C_Head"},
	LeftShoulder:  {"leftShoulder", "J_Bip_L_Shoulder", "shoulder.L"},
	LeftUpperArm:  {"leftUpperArm", "J_Bip_L_UpperArm", "LeftArm", "upper_arm.L"},
	LeftLowerArm:  {"leftLowerArm", "J_Bip_L_LowerArm", "LeftForeArm", "forearm.L"},
	LeftHand:      {"leftHand", "J_Bip_L_Hand", "hand.L"},
	RightShoulder: {"rightShoulder", "J_Bip_R_Shoulder", "shoulder.R"},
	RightUpperArm: {"rightUpperArm", "J_Bip_R_UpperArm", "RightArm", "upper_arm.R"},
	RightLowerArm: {"rightLowerArm", "J_Bip_R_LowerArm", "RightForeArm", "forearm.R"},
	RightHand:     {"rightHand", "J_Bip_R_Hand", "hand.R"},
	LeftUpperLeg:  {"leftUpperLeg", "J_Bip_L_UpperLeg", "LeftUpLeg", "thigh.L"},
	LeftLowerLeg:  {"leftLowerLeg", "J_Bip_L_LowerLeg", "LeftLeg", "shin.L"},
	LeftFoot:      {"leftFoot", "J_Bip_L_Foot", "foot.L"},
	RightUpperLeg: {"rightUpperLeg", "J_Bip_R_UpperLeg", "RightUpLeg", "thigh.R"},
	RightLowerLeg: {"rightLowerLeg", "J_Bip_R_LowerLeg", "RightLeg", "shin.R"},
	RightFoot:     {"rightFoot", "J_Bip_R_Foot", "foot.R"},
}

// NewHumanoidSkeleton builds a T-pose humanoid skeleton with VRM-normalized bone names.
// Y is up, the character faces +Z and the left arm extends along +X. Units are meters.
// Used by the preview host and as a reference rig for tests.
//
// Returns:
//   - *model.Skeleton: the skeleton
func NewHumanoidSkeleton() *model.Skeleton {
	type def struct {
		bone   HumanBone
		parent int32
		pos    [3]float32
	}
	defs := []def{
		{Hips, -1, [3]float32{0, 0.95, 0}},
		{Spine, 0, [3]float32{0, 0.1, 0}},
		{Chest, 1, [3]float32{0, 0.12, 0}},
		{UpperChest, 2, [3]float32{0, 0.12, 0}},
		{Neck, 3, [3]float32{0, 0.12, 0}},
		{Head, 4, [3]float32{0, 0.1, 0}},
		{LeftShoulder, 3, [3]float32{0.04, 0.08, 0}},
		{LeftUpperArm, 6, [3]float32{0.1, 0, 0}},
		{LeftLowerArm, 7, [3]float32{0.26, 0, 0}},
		{LeftHand, 8, [3]float32{0.24, 0, 0}},
		{RightShoulder, 3, [3]float32{-0.04, 0.08, 0}},
		{RightUpperArm, 10, [3]float32{-0.1, 0, 0}},
		{RightLowerArm, 11, [3]float32{-0.26, 0, 0}},
		{RightHand, 12, [3]float32{-0.24, 0, 0}},
		{LeftUpperLeg, 0, [3]float32{0.09, -0.05, 0}},
		{LeftLowerLeg, 14, [3]float32{0, -0.42, 0}},
		{LeftFoot, 15, [3]float32{0, -0.4, 0}},
		{RightUpperLeg, 0, [3]float32{-0.09, -0.05, 0}},
		{RightLowerLeg, 17, [3]float32{0, -0.42, 0}},
		{RightFoot, 18, [3]float32{0, -0.4, 0}},
	}

	skel := &model.Skeleton{
		Bones:           make([]model.Bone, len(defs)),
		RootBoneIndices: []int32{0},
		BoneNameToIndex: make(map[string]int32, len(defs)),
	}
	for i, d := range defs {
		skel.Bones[i] = model.Bone{
			Name:        string(d.bone),
			ParentIndex: d.parent,
			LocalTransform: model.Transform{
				Translation: d.pos,
				Rotation:    common.QuatIdentity(),
				Scale:       [3]float32{1, 1, 1},
			},
		}
		skel.BoneNameToIndex[string(d.bone)] = int32(i)
	}
	return skel
}
