package motion

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-motion/engine/metrics"
	"github.com/Carmen-Shannon/oxy-motion/engine/model"
	"github.com/Carmen-Shannon/oxy-motion/engine/procedural"
)

// CoordinatorBuilderOption is a functional option for configuring a Coordinator during construction.
type CoordinatorBuilderOption func(*coordinator)

// WithName sets the coordinator's identifier, used in logs and as the metrics label.
//
// Parameters:
//   - name: the identifier
//
// Returns:
//   - CoordinatorBuilderOption: a function that applies the name option to a coordinator
func WithName(name string) CoordinatorBuilderOption {
	return func(c *coordinator) {
		if name != "" {
			c.name = name
		}
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - CoordinatorBuilderOption: a function that applies the logger option to a coordinator
func WithLogger(logger *slog.Logger) CoordinatorBuilderOption {
	return func(c *coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics attaches a metrics manager. Without it no metrics are recorded.
//
// Parameters:
//   - m: the manager
//
// Returns:
//   - CoordinatorBuilderOption: a function that applies the metrics option to a coordinator
func WithMetrics(m *metrics.Manager) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.metrics = m
	}
}

// WithSettings sets the timing constants. The value is clamped.
//
// Parameters:
//   - s: the settings
//
// Returns:
//   - CoordinatorBuilderOption: a function that applies the settings option to a coordinator
func WithSettings(s Settings) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.settings = s
	}
}

// WithIdleConfig sets the idle configuration used for every attached rig.
//
// Parameters:
//   - cfg: the idle config
//
// Returns:
//   - CoordinatorBuilderOption: a function that applies the idle config option to a coordinator
func WithIdleConfig(cfg procedural.IdleConfig) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.idleCfg = cfg
	}
}

// WithWalkConfig sets the walk configuration used for every attached rig.
//
// Parameters:
//   - cfg: the walk config
//
// Returns:
//   - CoordinatorBuilderOption: a function that applies the walk config option to a coordinator
func WithWalkConfig(cfg procedural.WalkConfig) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.walkCfg = cfg
	}
}

// WithActionFinishedCallback registers a function called after a one-shot action clip reaches its
// end and is cleared from the action role. It runs on the ticking goroutine, outside the lock.
//
// Parameters:
//   - fn: the callback
//
// Returns:
//   - CoordinatorBuilderOption: a function that applies the callback option to a coordinator
func WithActionFinishedCallback(fn func(clip *model.AnimationClip)) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.onActionFinished = fn
	}
}
