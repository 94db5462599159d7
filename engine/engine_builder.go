package engine

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-motion/engine/stage"
	"github.com/Carmen-Shannon/oxy-motion/engine/window"
)

// EngineBuilderOption is a functional option for configuring an engine.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables the once-per-second stats line.
//
// Parameters:
//   - enabled: true to log profiler stats
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the motion tick rate in frames per second.
//
// Parameters:
//   - fps: target frames per second (defaults to 60 if <= 0)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithWindow sets the host window. Its clock drives the ticks unless WithClock overrides it.
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithStage registers a stage at the given key.
func WithStage(key int, s stage.Stage) EngineBuilderOption {
	return func(e *engine) {
		e.stages[key] = s
	}
}

// WithClock sets the monotonic clock (seconds) the engine derives dt and t from.
func WithClock(clock func() float64) EngineBuilderOption {
	return func(e *engine) {
		e.clock = clock
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}
