package stage

import (
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-motion/engine/metrics"
	"github.com/Carmen-Shannon/oxy-motion/engine/motion"
	"github.com/google/uuid"
)

// avatar is one coordinator on the stage and the signals it will be ticked with.
type avatar struct {
	id      string
	c       motion.Coordinator
	signals motion.Signals
	state   motion.MotionState
}

// stage is the implementation of the Stage interface.
type stage struct {
	mu *sync.RWMutex

	name    string
	logger  *slog.Logger
	metrics *metrics.Manager

	avatars map[string]*avatar
	order   []string

	// tickPool runs each avatar's coordinator tick on a persistent worker so per-frame
	// fan-out does not spawn goroutines.
	tickPool    worker.DynamicWorkerPool
	tickWorkers int
}

// Stage hosts several independent avatars and ticks all of their coordinators once per frame.
//
// Coordinators share nothing: each owns its rig, generators and track cache, so the stage runs
// them concurrently and waits for all of them before returning from Tick.
type Stage interface {
	// Name returns the stage name.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Add places a coordinator on the stage.
	//
	// Parameters:
	//   - c: the coordinator, already attached to its rig
	//
	// Returns:
	//   - string: the avatar id assigned by the stage
	Add(c motion.Coordinator) string

	// Get returns the coordinator with the given id.
	//
	// Parameters:
	//   - id: the avatar id
	//
	// Returns:
	//   - motion.Coordinator: the coordinator, or nil if no such avatar exists
	Get(id string) motion.Coordinator

	// Remove takes an avatar off the stage and detaches its rig.
	//
	// Parameters:
	//   - id: the avatar id
	//
	// Returns:
	//   - bool: false if no such avatar exists
	Remove(id string) bool

	// IDs returns the avatar ids in insertion order.
	//
	// Returns:
	//   - []string: the ids
	IDs() []string

	// Count returns the number of avatars on the stage.
	//
	// Returns:
	//   - int: the avatar count
	Count() int

	// SetSignals stores the movement signals an avatar is ticked with. Dragging persists until
	// changed; DragDelta is consumed by the next Tick.
	//
	// Parameters:
	//   - id: the avatar id
	//   - sig: the signals
	SetSignals(id string, sig motion.Signals)

	// Tick advances every avatar by one frame in parallel and blocks until all are done.
	//
	// Parameters:
	//   - dt: elapsed seconds since the previous frame
	//   - t: monotonic time in seconds
	Tick(dt, t float32)

	// States returns each avatar's state after the last Tick, keyed by avatar id.
	//
	// Returns:
	//   - map[string]motion.MotionState: the states
	States() map[string]motion.MotionState
}

var _ Stage = &stage{}

// NewStage creates an empty Stage.
//
// Parameters:
//   - name: the stage name
//   - options: variadic list of StageBuilderOption functions to configure the stage
//
// Returns:
//   - Stage: the stage
func NewStage(name string, options ...StageBuilderOption) Stage {
	s := &stage{
		mu:          &sync.RWMutex{},
		name:        name,
		logger:      slog.Default(),
		avatars:     make(map[string]*avatar),
		tickWorkers: max(runtime.NumCPU()-1, 1),
	}
	for _, option := range options {
		option(s)
	}

	// Created after options so WithTickWorkers can override the default.
	s.tickPool = worker.NewDynamicWorkerPool(s.tickWorkers, 256, 1*time.Second)
	return s
}

func (s *stage) Name() string {
	return s.name
}

func (s *stage) Add(c motion.Coordinator) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	s.avatars[id] = &avatar{id: id, c: c}
	s.order = append(s.order, id)
	s.metrics.SetAvatars(len(s.avatars))
	s.logger.Info("avatar added", "stage", s.name, "id", id, "avatar", c.Name())
	return id
}

func (s *stage) Get(id string) motion.Coordinator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.avatars[id]; ok {
		return a.c
	}
	return nil
}

func (s *stage) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.avatars[id]
	if !ok {
		return false
	}
	a.c.Detach()
	delete(s.avatars, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	s.metrics.SetAvatars(len(s.avatars))
	s.metrics.Forget(a.c.Name())
	s.logger.Info("avatar removed", "stage", s.name, "id", id, "avatar", a.c.Name())
	return true
}

func (s *stage) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

func (s *stage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.avatars)
}

func (s *stage) SetSignals(id string, sig motion.Signals) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.avatars[id]; ok {
		a.signals = sig
	}
}

func (s *stage) Tick(dt, t float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A WaitGroup is the per-frame barrier; the pool's own Wait blocks until workers idle out.
	var wg sync.WaitGroup
	for i, id := range s.order {
		a := s.avatars[id]
		sig := a.signals
		a.signals.DragDelta = 0

		wg.Add(1)
		s.tickPool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				a.state = a.c.Tick(dt, t, sig)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

func (s *stage) States() map[string]motion.MotionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]motion.MotionState, len(s.avatars))
	for id, a := range s.avatars {
		out[id] = a.state
	}
	return out
}
