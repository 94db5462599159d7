package procedural

import "github.com/Carmen-Shannon/oxy-motion/engine/pose"

// IdleBuilderOption is a functional option for configuring an IdleGenerator during construction.
type IdleBuilderOption func(*idleGenerator)

// WithIdleConfig sets the initial idle configuration. The value is clamped.
//
// Parameters:
//   - cfg: the initial config
//
// Returns:
//   - IdleBuilderOption: a function that applies the config option to an idle generator
func WithIdleConfig(cfg IdleConfig) IdleBuilderOption {
	return func(g *idleGenerator) {
		g.cfg = cfg
	}
}

// WithIdleArmSigns skips arm sign detection and uses the given signs instead.
//
// Parameters:
//   - left: sign that lowers the left arm
//   - right: sign that lowers the right arm
//
// Returns:
//   - IdleBuilderOption: a function that applies the sign option to an idle generator
func WithIdleArmSigns(left, right float32) IdleBuilderOption {
	return func(g *idleGenerator) {
		g.leftSign, g.rightSign = left, right
		g.signsSet = true
	}
}

// WithIdleBlender stages offsets on a blender shared with other generators. The caller flushes
// it once per frame after every generator has applied, so offsets on common bones compose.
//
// Parameters:
//   - b: the shared blender
//
// Returns:
//   - IdleBuilderOption: a function that applies the blender option to an idle generator
func WithIdleBlender(b pose.Blender) IdleBuilderOption {
	return func(g *idleGenerator) {
		if b == nil {
			return
		}
		g.blender = b
		g.sharedBlender = true
	}
}
