// Package metrics provides Prometheus instrumentation for the motion engine.
//
// Every Record/Set method is safe to call on a nil *Manager, so engine components can hold an
// optional manager without guarding each call site.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Hip lock reasons.
const (
	LockSwitch = "switch"
	LockDrag   = "drag"
)

// Manager owns the motion engine's Prometheus collectors.
type Manager struct {
	namespace   string
	subsystem   string
	tickBuckets []float64
	registry    *prometheus.Registry

	tickDuration  *prometheus.HistogramVec
	ticks         *prometheus.CounterVec
	clipSwitches  *prometheus.CounterVec
	hipLocks      *prometheus.CounterVec
	armSigns      *prometheus.GaugeVec
	animation     *prometheus.GaugeVec
	moveIntensity *prometheus.GaugeVec
	avatars       prometheus.Gauge
}

// NewManager creates a metrics manager. Without WithRegistry a fresh registry is used, so
// several managers can coexist in one process.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:   "oxy",
		subsystem:   "motion",
		tickBuckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.tickDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tick_duration_seconds",
		Help:      "Time spent in one coordinator tick",
		Buckets:   m.tickBuckets,
	}, []string{"avatar"})

	m.ticks = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ticks_total",
		Help:      "Total number of coordinator ticks",
	}, []string{"avatar"})

	m.clipSwitches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "clip_switches_total",
		Help:      "Animation source switches by destination state",
	}, []string{"avatar", "to"})

	m.hipLocks = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "hip_locks_total",
		Help:      "Hip height locks engaged, by reason",
	}, []string{"avatar", "reason"})

	m.armSigns = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "arm_sign",
		Help:      "Detected arm-down rotation sign per side",
	}, []string{"avatar", "side"})

	m.animation = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "animation_state",
		Help:      "1 for the active animation source, absent otherwise",
	}, []string{"avatar", "state"})

	m.moveIntensity = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "move_intensity",
		Help:      "Current locomotion intensity in [0, 1]",
	}, []string{"avatar"})

	m.avatars = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "avatars",
		Help:      "Number of avatars on the stage",
	})
}

// Registry returns the registry the collectors live on, for exposing through promhttp.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordTick records one coordinator tick and its cost.
func (m *Manager) RecordTick(avatar string, cost time.Duration) {
	if m == nil {
		return
	}
	m.ticks.WithLabelValues(avatar).Inc()
	m.tickDuration.WithLabelValues(avatar).Observe(cost.Seconds())
}

// RecordSwitch counts an animation source switch.
func (m *Manager) RecordSwitch(avatar, to string) {
	if m == nil {
		return
	}
	m.clipSwitches.WithLabelValues(avatar, to).Inc()
}

// RecordHipLock counts a hip lock engagement. reason is LockSwitch or LockDrag.
func (m *Manager) RecordHipLock(avatar, reason string) {
	if m == nil {
		return
	}
	m.hipLocks.WithLabelValues(avatar, reason).Inc()
}

// RecordArmSign publishes a detected arm sign.
func (m *Manager) RecordArmSign(avatar, side string, sign float32) {
	if m == nil {
		return
	}
	m.armSigns.WithLabelValues(avatar, side).Set(float64(sign))
}

// SetState marks state as the avatar's active animation source, clearing the previous one.
func (m *Manager) SetState(avatar, state string) {
	if m == nil {
		return
	}
	m.animation.DeletePartialMatch(prometheus.Labels{"avatar": avatar})
	m.animation.WithLabelValues(avatar, state).Set(1)
}

// SetMoveIntensity publishes the avatar's locomotion intensity.
func (m *Manager) SetMoveIntensity(avatar string, v float32) {
	if m == nil {
		return
	}
	m.moveIntensity.WithLabelValues(avatar).Set(float64(v))
}

// SetAvatars sets the number of avatars on the stage.
func (m *Manager) SetAvatars(n int) {
	if m == nil {
		return
	}
	m.avatars.Set(float64(n))
}

// Forget drops every series labelled with the avatar, used when it leaves the stage.
func (m *Manager) Forget(avatar string) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{"avatar": avatar}
	m.tickDuration.DeletePartialMatch(labels)
	m.ticks.DeletePartialMatch(labels)
	m.clipSwitches.DeletePartialMatch(labels)
	m.hipLocks.DeletePartialMatch(labels)
	m.armSigns.DeletePartialMatch(labels)
	m.animation.DeletePartialMatch(labels)
	m.moveIntensity.DeletePartialMatch(labels)
}
