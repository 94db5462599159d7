package motion

import (
	"github.com/Carmen-Shannon/oxy-motion/common"
)

// Locomotion is whether the avatar is meant to be walking, derived only from movement signals.
type Locomotion int

const (
	LocomotionIdle Locomotion = iota
	LocomotionWalk
)

func (l Locomotion) String() string {
	if l == LocomotionWalk {
		return "WALK"
	}
	return "IDLE"
}

// AnimationSource is the clip role currently driving the rig. SourceNone means no clip is
// playing and the procedural generators are authoritative.
type AnimationSource int

const (
	SourceNone AnimationSource = iota
	SourceIdle
	SourceWalk
	SourceAction
)

func (s AnimationSource) String() string {
	switch s {
	case SourceIdle:
		return "IDLE"
	case SourceWalk:
		return "WALK"
	case SourceAction:
		return "ACTION"
	default:
		return "NONE"
	}
}

// Slot is an assignable clip role.
type Slot int

const (
	SlotIdle Slot = iota
	SlotWalk
)

func (s Slot) String() string {
	if s == SlotWalk {
		return "walk"
	}
	return "idle"
}

// Signals are the per-frame movement inputs supplied by the host.
type Signals struct {
	// Dragging is true while the user is dragging the avatar's window.
	Dragging bool
	// DragDelta is the pointer movement magnitude since the previous frame, in pixels.
	DragDelta float32
}

// MotionState is the coordinator's state after a tick.
type MotionState struct {
	Animation     AnimationSource
	Locomotion    Locomotion
	MoveIntensity float32
	// Clip is the name of the clip playback is heading to, empty in SourceNone.
	Clip      string
	Blending  bool
	HipLocked bool
}

// Settings are the coordinator's timing constants.
type Settings struct {
	// CrossfadeSeconds is the blend length when the active clip changes.
	CrossfadeSeconds float32 `koanf:"crossfade_seconds" json:"crossfadeSeconds"`
	// SwitchLockSeconds is how long the hip height stays pinned after a clip switch.
	SwitchLockSeconds float32 `koanf:"switch_lock_seconds" json:"switchLockSeconds"`
	// IntensityRate is the convergence rate of MoveIntensity toward its target, per second.
	IntensityRate float32 `koanf:"intensity_rate" json:"intensityRate"`
	// DragRecentSeconds is how long after the last drag movement dragging still counts as moving.
	DragRecentSeconds float32 `koanf:"drag_recent_seconds" json:"dragRecentSeconds"`
	// DragMoveThreshold is the minimum DragDelta that counts as movement.
	DragMoveThreshold float32 `koanf:"drag_move_threshold" json:"dragMoveThreshold"`
	// WalkSettleSeconds keeps the procedural walk ticking after locomotion ends so it can ease out.
	WalkSettleSeconds float32 `koanf:"walk_settle_seconds" json:"walkSettleSeconds"`
}

// DefaultSettings returns the coordinator timing used when the host supplies none.
func DefaultSettings() Settings {
	return Settings{
		CrossfadeSeconds:  0.22,
		SwitchLockSeconds: 0.26,
		IntensityRate:     14,
		DragRecentSeconds: 0.15,
		DragMoveThreshold: 0.5,
		WalkSettleSeconds: 0.8,
	}
}

// Clamped returns a copy with every field forced into its valid range.
func (s Settings) Clamped() Settings {
	s.CrossfadeSeconds = common.Clamp(s.CrossfadeSeconds, 0, 5)
	s.SwitchLockSeconds = common.Clamp(s.SwitchLockSeconds, 0, 5)
	s.IntensityRate = common.Clamp(s.IntensityRate, 0.1, 100)
	s.DragRecentSeconds = common.Clamp(s.DragRecentSeconds, 0, 5)
	s.DragMoveThreshold = common.Clamp(s.DragMoveThreshold, 0, 1000)
	s.WalkSettleSeconds = common.Clamp(s.WalkSettleSeconds, 0, 10)
	return s
}
