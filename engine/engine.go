package engine

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-motion/engine/profiler"
	"github.com/Carmen-Shannon/oxy-motion/engine/stage"
	"github.com/Carmen-Shannon/oxy-motion/engine/window"
)

// engine implements the Engine interface.
// Coordinates the fixed-rate motion tick goroutine and the window thread.
type engine struct {
	mu *sync.Mutex

	tickRateChannel chan time.Duration

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once

	window window.Window
	logger *slog.Logger

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(dt, t float32)

	// clock returns monotonic seconds; defaults to the window clock, or process time without a window.
	clock      func() float64
	lastClock  float64
	startClock float64
	started    bool

	stages map[int]stage.Stage
}

// Engine drives every registered stage once per tick from a monotonic clock.
type Engine interface {
	// Window returns the host window, or nil for a headless engine.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the motion tick rate in frames per second.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called after every stage has ticked.
	// Use this to publish bone poses to the renderer.
	//
	// Parameters:
	//   - callback: function receiving the frame's delta time and the seconds since the first step
	SetTickCallback(callback func(dt, t float32))

	// AddStage registers a stage at the given key. Stages tick in ascending key order.
	//
	// Parameters:
	//   - key: the ordering key
	//   - s: the Stage to register
	AddStage(key int, s stage.Stage)

	// RemoveStage removes the stage at the given key.
	RemoveStage(key int)

	// Stage retrieves the stage registered at the given key, or nil.
	Stage(key int) stage.Stage

	// Stages returns a copy of all registered stages keyed by order.
	Stages() map[int]stage.Stage

	// Step reads the clock and runs one tick: every stage, the profiler, then the tick callback.
	// Run calls it from the tick goroutine; tests call it directly.
	//
	// Returns:
	//   - float32: the delta time used, 0 on the first step
	Step() float32

	// Run starts the tick loop and blocks until the window closes, or until Quit without a window.
	Run()

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
//
// Parameters:
//   - options: functional options for engine configuration (profiling, tick rate, window, stages)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:              &sync.Mutex{},
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		stages:          make(map[int]stage.Stage),
		logger:          slog.Default(),
		profiler:        profiler.NewProfiler(),
		engineTickRate:  time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.clock == nil {
		if e.window != nil {
			e.clock = e.window.Time
		} else {
			start := time.Now()
			e.clock = func() float64 { return time.Since(start).Seconds() }
		}
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Run() {
	e.running = true
	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()
	e.running = false
}

func (e *engine) Quit() {
	e.signalQuit()
}

func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handle launches the tick and quit goroutines.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleQuit()
}

// handleEngine runs the fixed-rate tick loop in its own goroutine.
func (e *engine) handleEngine() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tick goroutine recovered from panic", "panic", r)
			e.signalQuit()
		}
	}()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			e.Step()
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

func (e *engine) Step() float32 {
	e.mu.Lock()
	now := e.clock()
	var dt float32
	if e.started {
		dt = float32(now - e.lastClock)
	} else {
		e.startClock = now
	}
	if dt < 0 {
		dt = 0
	}
	e.lastClock = now
	e.started = true

	keys := make([]int, 0, len(e.stages))
	for k := range e.stages {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	stages := make([]stage.Stage, 0, len(keys))
	for _, k := range keys {
		stages = append(stages, e.stages[k])
	}
	callback := e.tickCallback
	profiling := e.profilingEnabled
	e.mu.Unlock()

	// Motion time is rebased to the first step so float32 keeps sub-millisecond precision on
	// clocks with a large epoch.
	t := float32(now - e.startClock)
	begin := time.Now()
	for _, s := range stages {
		s.Tick(dt, t)
	}
	cost := time.Since(begin)

	if profiling && e.profiler != nil {
		e.profiler.Tick(cost)
	}
	if callback != nil {
		callback(dt, t)
	}
	return dt
}

func (e *engine) EnableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = false
}

func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if e.running {
		// Replace any pending rate so the newest one wins.
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

func (e *engine) SetTickCallback(callback func(dt, t float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

func (e *engine) AddStage(key int, s stage.Stage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stages[key] = s
}

func (e *engine) RemoveStage(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.stages, key)
}

func (e *engine) Stage(key int) stage.Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stages[key]
}

func (e *engine) Stages() map[int]stage.Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := make(map[int]stage.Stage, len(e.stages))
	for k, v := range e.stages {
		cp[k] = v
	}
	return cp
}
