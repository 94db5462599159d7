package procedural

import (
	"github.com/Carmen-Shannon/oxy-motion/common"
	"github.com/Carmen-Shannon/oxy-motion/engine/rig"
)

// Side selects the left or right arm.
type Side int

const (
	SideLeft Side = iota
	SideRight
)

// String returns the side name.
func (s Side) String() string {
	if s == SideRight {
		return "right"
	}
	return "left"
}

// Fallback signs for a T-pose rig facing +Z with the left arm along +X.
const (
	DefaultLeftArmSign  float32 = -1
	DefaultRightArmSign float32 = 1
)

// Trial rotations about local Z used to probe which sign lowers an arm.
const (
	trialShoulderAngle = 0.15
	trialUpperArmAngle = 1.0
)

func defaultArmSign(side Side) float32 {
	if side == SideRight {
		return DefaultRightArmSign
	}
	return DefaultLeftArmSign
}

func armSlots(side Side) (shoulder, upper, lower rig.HumanBone) {
	if side == SideRight {
		return rig.RightShoulder, rig.RightUpperArm, rig.RightLowerArm
	}
	return rig.LeftShoulder, rig.LeftUpperArm, rig.LeftLowerArm
}

// DetectArmSign finds which rotation sign about local Z moves an arm downward on this rig.
//
// Rigs disagree on local axis conventions, so the sign is measured instead of assumed: the
// shoulder and upper arm are trial-rotated with +1 and then -1, the elbow's height relative to
// the shoulder joint is measured each time, and the sign that puts the elbow lower wins. The
// original rotations are restored exactly before returning. When the upper or lower arm is
// missing, or both trials measure the same, the side's default sign is returned.
//
// Parameters:
//   - r: the rig to probe
//   - side: which arm to probe
//
// Returns:
//   - float32: +1 or -1
func DetectArmSign(r rig.Rig, side Side) float32 {
	def := defaultArmSign(side)
	if r == nil {
		return def
	}

	shoulderSlot, upperSlot, lowerSlot := armSlots(side)
	upper := r.Humanoid(upperSlot)
	lower := r.Humanoid(lowerSlot)
	if upper == nil || lower == nil {
		return def
	}
	shoulder := r.Humanoid(shoulderSlot)

	savedUpper := upper.Rotation
	var savedShoulder [4]float32
	if shoulder != nil {
		savedShoulder = shoulder.Rotation
	}

	measure := func(sign float32) float32 {
		if shoulder != nil {
			shoulder.Rotation = common.QuatMul(savedShoulder, common.QuatFromEuler(0, 0, sign*trialShoulderAngle))
		}
		upper.Rotation = common.QuatMul(savedUpper, common.QuatFromEuler(0, 0, sign*trialUpperArmAngle))
		return r.WorldPosition(lower)[1] - r.WorldPosition(upper)[1]
	}
	plus := measure(1)
	minus := measure(-1)

	upper.Rotation = savedUpper
	if shoulder != nil {
		shoulder.Rotation = savedShoulder
	}

	switch {
	case plus < minus:
		return 1
	case minus < plus:
		return -1
	default:
		return def
	}
}
