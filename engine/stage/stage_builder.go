package stage

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-motion/engine/metrics"
)

// StageBuilderOption is a functional option for configuring a Stage during construction.
type StageBuilderOption func(*stage)

// WithTickWorkers sets the number of worker goroutines that tick avatars in parallel.
// Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of tick workers (minimum 1)
//
// Returns:
//   - StageBuilderOption: option function to apply
func WithTickWorkers(n int) StageBuilderOption {
	return func(s *stage) {
		if n < 1 {
			n = 1
		}
		s.tickWorkers = n
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - StageBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) StageBuilderOption {
	return func(s *stage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches a metrics manager for the avatar count gauge.
//
// Parameters:
//   - m: the manager
//
// Returns:
//   - StageBuilderOption: option function to apply
func WithMetrics(m *metrics.Manager) StageBuilderOption {
	return func(s *stage) {
		s.metrics = m
	}
}
