package animator

import "github.com/Carmen-Shannon/oxy-motion/engine/rig"

// ClipPlayerBuilderOption is a functional option for configuring a ClipPlayer during construction.
type ClipPlayerBuilderOption func(*clipPlayer)

// WithHipsNode overrides the node treated as the hips for translation re-anchoring.
// By default the rig's humanoid hips are used.
//
// Parameters:
//   - n: the hips node, or nil to disable re-anchoring
//
// Returns:
//   - ClipPlayerBuilderOption: a function that applies the hips option to a clip player
func WithHipsNode(n *rig.Node) ClipPlayerBuilderOption {
	return func(p *clipPlayer) {
		p.hips = n
	}
}

// WithSpeed sets the initial playback rate multiplier.
//
// Parameters:
//   - speed: the rate multiplier (1 = authored speed)
//
// Returns:
//   - ClipPlayerBuilderOption: a function that applies the speed option to a clip player
func WithSpeed(speed float32) ClipPlayerBuilderOption {
	return func(p *clipPlayer) {
		p.speed = max(0, speed)
	}
}
