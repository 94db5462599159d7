package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-motion/engine/config"
	"github.com/Carmen-Shannon/oxy-motion/engine/procedural"
	"github.com/smartystreets/goconvey/convey"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "motion.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		t.Setenv(config.EnvPath, "")

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load("")

			convey.Convey("Then the defaults come back unchanged", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(*cfg, convey.ShouldResemble, *config.Default())
				convey.So(cfg.Motion.CrossfadeSeconds, convey.ShouldEqual, float32(0.22))
				convey.So(cfg.Motion.SwitchLockSeconds, convey.ShouldEqual, float32(0.26))
			})
		})

		convey.Convey("When loading a YAML file", func() {
			path := writeConfig(t, `
log_level: debug
idle:
  arms_down: 0.4
  overlay_on_animation: true
walk:
  stride: 0.9
motion:
  crossfade_seconds: 0.5
`)
			cfg, err := config.Load(path)

			convey.Convey("Then file values override defaults and the rest is kept", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.Idle.ArmsDown, convey.ShouldEqual, float32(0.4))
				convey.So(cfg.Idle.OverlayOnAnimation, convey.ShouldBeTrue)
				convey.So(cfg.Idle.Breathe, convey.ShouldEqual, procedural.DefaultIdleConfig().Breathe)
				convey.So(cfg.Walk.Stride, convey.ShouldEqual, float32(0.9))
				convey.So(cfg.Motion.CrossfadeSeconds, convey.ShouldEqual, float32(0.5))
			})
		})

		convey.Convey("When the file path comes from the environment", func() {
			path := writeConfig(t, "walk:\n  lean: 0.1\n")
			t.Setenv(config.EnvPath, path)
			cfg, err := config.Load("")

			convey.Convey("Then that file is loaded", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Walk.Lean, convey.ShouldEqual, float32(0.1))
			})
		})

		convey.Convey("When environment variables are set", func() {
			path := writeConfig(t, "idle:\n  sway: 0.2\n")
			t.Setenv("OXY_MOTION_IDLE__SWAY", "0.7")
			t.Setenv("OXY_MOTION_WALK__ENABLED", "false")
			t.Setenv("OXY_MOTION_METRICS_ADDR", "127.0.0.1:9000")
			cfg, err := config.Load(path)

			convey.Convey("Then they win over the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Idle.Sway, convey.ShouldEqual, float32(0.7))
				convey.So(cfg.Walk.Enabled, convey.ShouldBeFalse)
				convey.So(cfg.MetricsAddr, convey.ShouldEqual, "127.0.0.1:9000")
			})
		})

		convey.Convey("When values are out of range", func() {
			path := writeConfig(t, `
idle:
  strength: 4
  speed: 0
walk:
  arm_swing: -1
motion:
  intensity_rate: 0
`)
			cfg, err := config.Load(path)

			convey.Convey("Then they are clamped instead of rejected", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Idle.Strength, convey.ShouldEqual, float32(1))
				convey.So(cfg.Idle.Speed, convey.ShouldEqual, float32(procedural.MinSpeed))
				convey.So(cfg.Walk.ArmSwing, convey.ShouldEqual, float32(0))
				convey.So(cfg.Motion.IntensityRate, convey.ShouldEqual, float32(0.1))
			})
		})

		convey.Convey("When the file cannot be read", func() {
			_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestConfigPatches(t *testing.T) {
	convey.Convey("Given a loaded config", t, func() {
		cfg := config.Default()
		cfg.Idle.ArmsDown = 0.3
		cfg.Walk.Bounce = 0.1

		convey.Convey("When it is turned into patches", func() {
			idle := procedural.DefaultIdleConfig().Apply(cfg.IdlePatch())
			walk := procedural.DefaultWalkConfig().Apply(cfg.WalkPatch())

			convey.Convey("Then applying them reproduces the config", func() {
				convey.So(idle, convey.ShouldResemble, cfg.Idle)
				convey.So(walk, convey.ShouldResemble, cfg.Walk)
			})
		})
	})
}

func TestConfigWatch(t *testing.T) {
	convey.Convey("Given a watched config file", t, func() {
		t.Setenv(config.EnvPath, "")
		path := writeConfig(t, "idle:\n  breathe: 0.1\n")
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		reloaded := make(chan *config.Config, 16)
		err := config.Watch(ctx, path, func(c *config.Config) {
			select {
			case reloaded <- c:
			default:
			}
		}, nil)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When the file changes", func() {
			convey.So(os.WriteFile(path, []byte("idle:\n  breathe: 0.9\n"), 0o600), convey.ShouldBeNil)

			convey.Convey("Then the new values are delivered", func() {
				// A single write can surface as several events, some seeing a truncated file.
				var breathe float32
				timeout := time.After(5 * time.Second)
			wait:
				for {
					select {
					case c := <-reloaded:
						breathe = c.Idle.Breathe
						if breathe == 0.9 {
							break wait
						}
					case <-timeout:
						break wait
					}
				}
				convey.So(breathe, convey.ShouldEqual, float32(0.9))
			})
		})
	})

	convey.Convey("Given no path", t, func() {
		err := config.Watch(context.Background(), "", func(*config.Config) {}, nil)

		convey.Convey("Then watching fails", func() {
			convey.So(errors.Is(err, config.ErrWatchConfig), convey.ShouldBeTrue)
		})
	})
}
