package procedural

import "github.com/Carmen-Shannon/oxy-motion/engine/pose"

// WalkBuilderOption is a functional option for configuring a WalkGenerator during construction.
type WalkBuilderOption func(*walkGenerator)

// WithWalkConfig sets the initial walk configuration. The value is clamped.
//
// Parameters:
//   - cfg: the initial config
//
// Returns:
//   - WalkBuilderOption: a function that applies the config option to a walk generator
func WithWalkConfig(cfg WalkConfig) WalkBuilderOption {
	return func(g *walkGenerator) {
		g.cfg = cfg
	}
}

// WithWalkArmSigns skips arm sign detection, typically to reuse the signs an idle generator found.
//
// Parameters:
//   - left: sign that lowers the left arm
//   - right: sign that lowers the right arm
//
// Returns:
//   - WalkBuilderOption: a function that applies the sign option to a walk generator
func WithWalkArmSigns(left, right float32) WalkBuilderOption {
	return func(g *walkGenerator) {
		g.leftSign, g.rightSign = left, right
		g.signsSet = true
	}
}

// WithWalkBlender stages offsets on a blender shared with the idle generator. The caller flushes
// it once per frame, so walk offsets compose on top of idle offsets.
//
// Parameters:
//   - b: the shared blender
//
// Returns:
//   - WalkBuilderOption: a function that applies the blender option to a walk generator
func WithWalkBlender(b pose.Blender) WalkBuilderOption {
	return func(g *walkGenerator) {
		if b == nil {
			return
		}
		g.blender = b
		g.sharedBlender = true
	}
}
