package config

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrLoadConfig  = errors.New("load config failed")
	ErrWatchConfig = errors.New("watch config failed")
)
