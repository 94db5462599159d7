// Package config loads the motion engine's configuration.
//
// Values are layered low to high: Default(), then an optional YAML file, then environment
// variables prefixed OXY_MOTION_ with "__" separating nested keys
// (OXY_MOTION_IDLE__ARMS_DOWN=0.5). Out-of-range numbers are clamped, never rejected.
package config

import (
	"log/slog"
	"strings"

	"github.com/Carmen-Shannon/oxy-motion/engine/motion"
	"github.com/Carmen-Shannon/oxy-motion/engine/procedural"
)

// Config contains the motion engine and preview host configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsAddr is the listen address of the Prometheus endpoint, e.g. ":9464". Empty disables it.
	MetricsAddr string `koanf:"metrics_addr"`

	// Idle configures the procedural idle generator.
	Idle procedural.IdleConfig `koanf:"idle"`

	// Walk configures the procedural walk generator.
	Walk procedural.WalkConfig `koanf:"walk"`

	// Motion holds the coordinator's timing constants.
	Motion motion.Settings `koanf:"motion"`
}

// Default returns the configuration used when no file or environment overrides are present.
func Default() *Config {
	return &Config{
		LogLevel:    "info",
		MetricsAddr: ":9464",
		Idle:        procedural.DefaultIdleConfig(),
		Walk:        procedural.DefaultWalkConfig(),
		Motion:      motion.DefaultSettings(),
	}
}

// Clamped returns a copy with every numeric field forced into its valid range.
func (c Config) Clamped() Config {
	c.Idle = c.Idle.Clamped()
	c.Walk = c.Walk.Clamped()
	c.Motion = c.Motion.Clamped()
	return c
}

// SlogLevel maps LogLevel to a slog level. Unknown values map to Info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IdlePatch converts the idle section into a patch that sets every field.
func (c Config) IdlePatch() procedural.IdlePatch {
	i := c.Idle
	return procedural.IdlePatch{
		Enabled:            &i.Enabled,
		Strength:           &i.Strength,
		Speed:              &i.Speed,
		Breathe:            &i.Breathe,
		Sway:               &i.Sway,
		ArmsDown:           &i.ArmsDown,
		ElbowBend:          &i.ElbowBend,
		OverlayOnAnimation: &i.OverlayOnAnimation,
	}
}

// WalkPatch converts the walk section into a patch that sets every field.
func (c Config) WalkPatch() procedural.WalkPatch {
	w := c.Walk
	return procedural.WalkPatch{
		Enabled:  &w.Enabled,
		Speed:    &w.Speed,
		Stride:   &w.Stride,
		ArmSwing: &w.ArmSwing,
		Bounce:   &w.Bounce,
		Lean:     &w.Lean,
	}
}
