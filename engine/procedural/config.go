package procedural

import "github.com/Carmen-Shannon/oxy-motion/common"

// Speed multipliers never reach zero so the phase keeps advancing.
const (
	MinSpeed = 0.01
	MaxSpeed = 5
)

// IdleConfig parameterizes the idle generator. Every numeric field is clamped independently.
type IdleConfig struct {
	// Enabled turns the generator on or off. A disabled generator leaves bones untouched.
	Enabled bool `koanf:"enabled" json:"enabled"`
	// Strength is the overall blend amount in [0, 1].
	Strength float32 `koanf:"strength" json:"strength"`
	// Speed is the time multiplier in [MinSpeed, MaxSpeed].
	Speed float32 `koanf:"speed" json:"speed"`
	// Breathe is the breathing amplitude in [0, 1].
	Breathe float32 `koanf:"breathe" json:"breathe"`
	// Sway is the idle-sway amplitude in [0, 1].
	Sway float32 `koanf:"sway" json:"sway"`
	// ArmsDown pulls the arms from the bind pose into a relaxed hands-down pose, in [0, 1].
	ArmsDown float32 `koanf:"arms_down" json:"armsDown"`
	// ElbowBend is extra elbow bend layered on top of ArmsDown, in [0, 1].
	ElbowBend float32 `koanf:"elbow_bend" json:"elbowBend"`
	// OverlayOnAnimation layers idle motion on top of a playing clip instead of yielding to it.
	OverlayOnAnimation bool `koanf:"overlay_on_animation" json:"overlayOnAnimation"`
}

// IdlePatch carries a partial idle config update. Nil fields keep their previous value.
type IdlePatch struct {
	Enabled            *bool
	Strength           *float32
	Speed              *float32
	Breathe            *float32
	Sway               *float32
	ArmsDown           *float32
	ElbowBend          *float32
	OverlayOnAnimation *bool
}

// DefaultIdleConfig returns the idle configuration used when the host supplies none.
func DefaultIdleConfig() IdleConfig {
	return IdleConfig{
		Enabled:   true,
		Strength:  1,
		Speed:     1,
		Breathe:   0.6,
		Sway:      0.5,
		ArmsDown:  0.85,
		ElbowBend: 0.25,
	}
}

// Clamped returns a copy with every numeric field forced into its valid range.
func (c IdleConfig) Clamped() IdleConfig {
	c.Strength = common.Clamp(c.Strength, 0, 1)
	c.Speed = common.Clamp(c.Speed, MinSpeed, MaxSpeed)
	c.Breathe = common.Clamp(c.Breathe, 0, 1)
	c.Sway = common.Clamp(c.Sway, 0, 1)
	c.ArmsDown = common.Clamp(c.ArmsDown, 0, 1)
	c.ElbowBend = common.Clamp(c.ElbowBend, 0, 1)
	return c
}

// Apply returns a clamped copy of c with the patch's set fields overwritten.
//
// Parameters:
//   - p: the partial update
//
// Returns:
//   - IdleConfig: the updated config
func (c IdleConfig) Apply(p IdlePatch) IdleConfig {
	setBool(&c.Enabled, p.Enabled)
	setFloat(&c.Strength, p.Strength)
	setFloat(&c.Speed, p.Speed)
	setFloat(&c.Breathe, p.Breathe)
	setFloat(&c.Sway, p.Sway)
	setFloat(&c.ArmsDown, p.ArmsDown)
	setFloat(&c.ElbowBend, p.ElbowBend)
	setBool(&c.OverlayOnAnimation, p.OverlayOnAnimation)
	return c.Clamped()
}

// WalkConfig parameterizes the walk generator. Every numeric field is clamped independently.
type WalkConfig struct {
	// Enabled turns the gait on or off. Disabling eases the rig back to rest instead of freezing it.
	Enabled bool `koanf:"enabled" json:"enabled"`
	// Speed is the cadence multiplier in [MinSpeed, MaxSpeed].
	Speed float32 `koanf:"speed" json:"speed"`
	// Stride scales leg swing and knee bend, in [0, 1].
	Stride float32 `koanf:"stride" json:"stride"`
	// ArmSwing scales the arm counter-swing, in [0, 1].
	ArmSwing float32 `koanf:"arm_swing" json:"armSwing"`
	// Bounce scales the vertical hip bob, in [0, 1].
	Bounce float32 `koanf:"bounce" json:"bounce"`
	// Lean scales the forward torso lean, in [0, 1].
	Lean float32 `koanf:"lean" json:"lean"`
}

// WalkPatch carries a partial walk config update. Nil fields keep their previous value.
type WalkPatch struct {
	Enabled  *bool
	Speed    *float32
	Stride   *float32
	ArmSwing *float32
	Bounce   *float32
	Lean     *float32
}

// DefaultWalkConfig returns the walk configuration used when the host supplies none.
func DefaultWalkConfig() WalkConfig {
	return WalkConfig{
		Enabled:  true,
		Speed:    1,
		Stride:   0.7,
		ArmSwing: 0.6,
		Bounce:   0.5,
		Lean:     0.4,
	}
}

// Clamped returns a copy with every numeric field forced into its valid range.
func (c WalkConfig) Clamped() WalkConfig {
	c.Speed = common.Clamp(c.Speed, MinSpeed, MaxSpeed)
	c.Stride = common.Clamp(c.Stride, 0, 1)
	c.ArmSwing = common.Clamp(c.ArmSwing, 0, 1)
	c.Bounce = common.Clamp(c.Bounce, 0, 1)
	c.Lean = common.Clamp(c.Lean, 0, 1)
	return c
}

// Apply returns a clamped copy of c with the patch's set fields overwritten.
//
// Parameters:
//   - p: the partial update
//
// Returns:
//   - WalkConfig: the updated config
func (c WalkConfig) Apply(p WalkPatch) WalkConfig {
	setBool(&c.Enabled, p.Enabled)
	setFloat(&c.Speed, p.Speed)
	setFloat(&c.Stride, p.Stride)
	setFloat(&c.ArmSwing, p.ArmSwing)
	setFloat(&c.Bounce, p.Bounce)
	setFloat(&c.Lean, p.Lean)
	return c.Clamped()
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float32, v *float32) {
	if v != nil {
		*dst = *v
	}
}

// Float returns a pointer to v for building patches.
func Float(v float32) *float32 {
	return &v
}

// Bool returns a pointer to v for building patches.
func Bool(v bool) *bool {
	return &v
}
