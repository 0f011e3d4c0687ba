// Package config holds the settings of the immutext tools.
//
// Settings come from three places, later ones winning:
//
//  1. Built-in defaults (Default)
//  2. A TOML file (Loader.LoadFile)
//  3. IMMUTEXT_* environment variables (Loader.ApplyEnv)
//
// A missing file is not an error; the defaults apply.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the full set of settings.
type Config struct {
	Log    LogConfig    `toml:"log"`
	Script ScriptConfig `toml:"script"`
	Replay ReplayConfig `toml:"replay"`
	Watch  WatchConfig  `toml:"watch"`
}

// LogConfig controls diagnostic output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
	// Prefix is prepended to each log line.
	Prefix string `toml:"prefix"`
}

// ScriptConfig controls the Lua host.
type ScriptConfig struct {
	// Timeout bounds a single script run. Zero disables the bound.
	Timeout Duration `toml:"timeout"`
	// MaxOutput caps the length in characters of a script's result. Zero disables the cap.
	MaxOutput int `toml:"max_output"`
}

// ReplayConfig controls edit-script replay.
type ReplayConfig struct {
	// KeepVersions is how many versions of the chain to retain. Zero keeps all.
	KeepVersions int `toml:"keep_versions"`
}

// WatchConfig controls script watching.
type WatchConfig struct {
	// Debounce is the quiet period after a change before it is reported.
	Debounce Duration `toml:"debounce"`
}

// Duration is a time.Duration written as a Go duration string ("2s", "150ms").
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Prefix: "immutext",
		},
		Script: ScriptConfig{
			Timeout:   Duration(5 * time.Second),
			MaxOutput: 1 << 24,
		},
		Replay: ReplayConfig{
			KeepVersions: 0,
		},
		Watch: WatchConfig{
			Debounce: Duration(200 * time.Millisecond),
		},
	}
}

var logLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// Validate checks every setting and returns the first problem found.
func (c *Config) Validate() error {
	if !logLevels[strings.ToLower(strings.TrimSpace(c.Log.Level))] {
		return &ValueError{Key: "log.level", Value: c.Log.Level, Message: "must be one of debug, info, warn, error"}
	}
	if c.Script.Timeout < 0 {
		return &ValueError{Key: "script.timeout", Value: c.Script.Timeout.Std(), Message: "must not be negative"}
	}
	if c.Script.MaxOutput < 0 {
		return &ValueError{Key: "script.max_output", Value: c.Script.MaxOutput, Message: "must not be negative"}
	}
	if c.Replay.KeepVersions < 0 {
		return &ValueError{Key: "replay.keep_versions", Value: c.Replay.KeepVersions, Message: "must not be negative"}
	}
	if c.Watch.Debounce < 0 {
		return &ValueError{Key: "watch.debounce", Value: c.Watch.Debounce.Std(), Message: "must not be negative"}
	}
	return nil
}

// String renders the settings in a single line, for debug logging.
func (c *Config) String() string {
	return fmt.Sprintf("log.level=%s log.prefix=%q script.timeout=%s script.max_output=%d replay.keep_versions=%d watch.debounce=%s",
		c.Log.Level, c.Log.Prefix, c.Script.Timeout.Std(), c.Script.MaxOutput, c.Replay.KeepVersions, c.Watch.Debounce.Std())
}
