package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment keys read by Load.
const (
	EnvPrefix = "OXY_MOTION_"
	EnvPath   = "OXY_MOTION_CONFIG"
)

// Load builds a Config by layering defaults, an optional YAML file and env vars.
// Order of precedence (low -> high):
//  1. defaults (Default())
//  2. file (YAML) at path, or at $OXY_MOTION_CONFIG when path is empty
//  3. env (prefix OXY_MOTION_, "__" between nested keys)
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrLoadConfig, path, err)
		}
	}

	// OXY_MOTION_IDLE__ARMS_DOWN -> idle.arms_down. Single underscores are kept to match koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: environment: %w", ErrLoadConfig, err)
	}

	cfg := *Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrLoadConfig, err)
	}
	cfg = cfg.Clamped()
	return &cfg, nil
}

// Watch reloads the config every time the YAML file at path changes and hands the result to fn.
// Reload failures go to onErr when it is non-nil and leave the previous config in effect.
// Watching stops when ctx is cancelled.
//
// Parameters:
//   - ctx: controls the watch lifetime
//   - path: the YAML file to watch
//   - fn: receives each successfully reloaded config
//   - onErr: receives reload errors, may be nil
//
// Returns:
//   - error: ErrWatchConfig if the watcher could not be started
func Watch(ctx context.Context, path string, fn func(*Config), onErr func(error)) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrWatchConfig)
	}

	f := file.Provider(path)
	err := f.Watch(func(_ interface{}, werr error) {
		if werr != nil {
			if onErr != nil {
				onErr(fmt.Errorf("%w: %w", ErrWatchConfig, werr))
			}
			return
		}
		cfg, lerr := Load(path)
		if lerr != nil {
			if onErr != nil {
				onErr(lerr)
			}
			return
		}
		fn(cfg)
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWatchConfig, path, err)
	}

	go func() {
		<-ctx.Done()
		_ = f.Unwatch()
	}()
	return nil
}
