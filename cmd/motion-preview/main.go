// Command motion-preview opens a transparent always-on-top window, drives a humanoid rig with the
// motion engine and streams its bone poses to the GPU every tick.
//
// Keys: space opens a 2s action window, 1/2 assign the built-in idle/walk clips, 0 clears them,
// E plays the wave action, X stops actions, I/O/L toggle idle, idle overlay and walk, P toggles
// the profiler. Dragging the window feeds drag signals. Esc quits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Carmen-Shannon/oxy-motion/engine"
	"github.com/Carmen-Shannon/oxy-motion/engine/config"
	"github.com/Carmen-Shannon/oxy-motion/engine/gpupose"
	"github.com/Carmen-Shannon/oxy-motion/engine/metrics"
	"github.com/Carmen-Shannon/oxy-motion/engine/model"
	"github.com/Carmen-Shannon/oxy-motion/engine/motion"
	"github.com/Carmen-Shannon/oxy-motion/engine/rig"
	"github.com/Carmen-Shannon/oxy-motion/engine/stage"
	"github.com/Carmen-Shannon/oxy-motion/engine/window"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (default $"+config.EnvPath+")")
		tickRate   = flag.Float64("tick-rate", 60, "Motion ticks per second")
		profile    = flag.Bool("profile", false, "Log profiler stats every second")
		fallback   = flag.Bool("fallback-adapter", false, "Request the software GPU adapter")
		action     = flag.Duration("action", 2*time.Second, "Length of the action window opened by space")
	)
	flag.Parse()

	path := *configPath
	if path == "" {
		path = os.Getenv(config.EnvPath)
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "motion-preview: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mm := metrics.NewManager()
	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, mm, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	r, err := rig.NewRig(rig.NewHumanoidSkeleton(), rig.WithName("avatar"))
	if err != nil {
		logger.Error("rig", "error", err)
		os.Exit(1)
	}
	if missing := r.MissingHumanoid(); len(missing) > 0 {
		logger.Warn("rig is missing humanoid bones", "bones", missing)
	}
	var hipHeight float32
	if hips := r.Humanoid(rig.Hips); hips != nil {
		hipHeight = hips.Position[1]
	}

	coord := motion.NewCoordinator(
		motion.WithName("avatar"),
		motion.WithLogger(logger),
		motion.WithMetrics(mm),
		motion.WithSettings(cfg.Motion),
		motion.WithIdleConfig(cfg.Idle),
		motion.WithWalkConfig(cfg.Walk),
		motion.WithActionFinishedCallback(func(clip *model.AnimationClip) {
			logger.Info("action finished", "clip", clip.Name)
		}),
	)
	coord.Attach(r, nil)

	st := stage.NewStage("preview", stage.WithLogger(logger), stage.WithMetrics(mm))
	id := st.Add(coord)

	if path != "" {
		err := config.Watch(ctx, path, func(c *config.Config) {
			coord.SetIdleConfig(c.IdlePatch())
			coord.SetWalkConfig(c.WalkPatch())
			logger.Info("config reloaded", "path", path)
		}, func(err error) {
			logger.Warn("config reload failed", "error", err)
		})
		if err != nil {
			logger.Warn("config watch disabled", "error", err)
		}
	}

	win := window.NewWindow(
		window.WithTitle("oxy motion preview"),
		window.WithTransparent(true),
		window.WithFloating(true),
	)

	gpu, err := gpupose.OpenGPU(win.SurfaceDescriptor(), *fallback)
	if err != nil {
		logger.Warn("gpu unavailable, bone poses will not be uploaded", "error", err)
	}
	defer gpu.Release()
	uploader := gpupose.NewUploader(gpupose.WithGPU(gpu), gpupose.WithLabel("Avatar Bone Poses"))
	defer uploader.Release()

	eng := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithTickRate(*tickRate),
		engine.WithProfiling(*profile),
		engine.WithStage(0, st),
		engine.WithLogger(logger),
	)

	ctl := &controls{
		coord:         coord,
		stage:         st,
		id:            id,
		logger:        logger,
		hipHeight:     hipHeight,
		actionSeconds: float32(action.Seconds()),
		profiling:     *profile,
		setProfiling: func(enabled bool) {
			if enabled {
				eng.EnableProfiler()
			} else {
				eng.DisableProfiler()
			}
		},
	}
	win.SetKeyDownCallback(ctl.handleKey)
	win.SetDragStartCallback(ctl.dragStart)
	win.SetDragCallback(ctl.drag)
	win.SetDragEndCallback(ctl.dragEnd)

	// Tick goroutine publishes the state; the window thread owns the title.
	var (
		titleMu sync.Mutex
		title   string
	)
	eng.SetTickCallback(func(dt, t float32) {
		if err := uploader.Upload(r); err != nil && !errors.Is(err, gpupose.ErrNotInitialized) {
			logger.Warn("bone pose upload failed", "error", err)
		}
		s := st.States()[id]
		titleMu.Lock()
		title = fmt.Sprintf("oxy motion preview | %s %s %.2f", s.Animation, s.Locomotion, s.MoveIntensity)
		titleMu.Unlock()
	})

	var shown string
	win.SetUpdateCallback(func() {
		if ctx.Err() != nil {
			_ = win.Close()
			return
		}
		titleMu.Lock()
		next := title
		titleMu.Unlock()
		if next != shown && next != "" {
			win.SetTitle(next)
			shown = next
		}
	})

	logger.Info("motion preview running", "tick_rate", *tickRate, "metrics", cfg.MetricsAddr)
	eng.Run()

	st.Remove(id)
	r.Release()
	if win.IsRunning() {
		_ = win.Close()
	}
}

func serveMetrics(addr string, mm *metrics.Manager, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(mm.Registry(), promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()
	return srv
}
