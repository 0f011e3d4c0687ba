package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix is the prefix of environment variables that override settings.
const EnvPrefix = "IMMUTEXT_"

// FileSystem is an abstraction for reading configuration files.
// This allows for easy testing with in-memory file systems.
type FileSystem interface {
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// ReadFile implements FileSystem.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Loader builds a Config from a TOML file and the environment.
type Loader struct {
	fs      FileSystem
	environ func() []string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFileSystem sets the file system files are read from.
func WithFileSystem(fsys FileSystem) LoaderOption {
	return func(l *Loader) {
		l.fs = fsys
	}
}

// WithEnviron sets the source of environment variables, in os.Environ form.
func WithEnviron(environ func() []string) LoaderOption {
	return func(l *Loader) {
		l.environ = environ
	}
}

// NewLoader creates a loader reading from the OS.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		fs:      OSFS{},
		environ: os.Environ,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the defaults overlaid by the file at path (if any) and then
// by the environment. An empty path skips the file.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := l.LoadFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := l.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes the TOML file at path over cfg.
// Settings absent from the file keep their current values.
// A missing file leaves cfg untouched and is not an error.
func (l *Loader) LoadFile(cfg *Config, path string) error {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return decode(cfg, path, data)
}

// decode parses TOML data into cfg, rejecting unknown keys.
func decode(cfg *Config, source string, data []byte) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		pe := &ParseError{
			Path:    source,
			Message: err.Error(),
			Err:     err,
		}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			pe.Line, pe.Column = de.Position()
		}
		var se *toml.StrictMissingError
		if errors.As(err, &se) && len(se.Errors) > 0 {
			pe.Line, pe.Column = se.Errors[0].Position()
			pe.Message = "unknown setting " + strings.Join(se.Errors[0].Key(), ".")
		}
		return pe
	}
	return nil
}

// envSetter applies one environment value to a config.
type envSetter func(cfg *Config, value string) error

// envSettings maps variable names (without prefix) to their setters.
var envSettings = map[string]envSetter{
	"LOG_LEVEL": func(cfg *Config, v string) error {
		cfg.Log.Level = v
		return nil
	},
	"LOG_PREFIX": func(cfg *Config, v string) error {
		cfg.Log.Prefix = v
		return nil
	},
	"SCRIPT_TIMEOUT": func(cfg *Config, v string) error {
		return parseDuration("script.timeout", v, &cfg.Script.Timeout)
	},
	"SCRIPT_MAX_OUTPUT": func(cfg *Config, v string) error {
		return parseInt("script.max_output", v, &cfg.Script.MaxOutput)
	},
	"REPLAY_KEEP_VERSIONS": func(cfg *Config, v string) error {
		return parseInt("replay.keep_versions", v, &cfg.Replay.KeepVersions)
	},
	"WATCH_DEBOUNCE": func(cfg *Config, v string) error {
		return parseDuration("watch.debounce", v, &cfg.Watch.Debounce)
	},
}

// ApplyEnv overrides settings from IMMUTEXT_* environment variables,
// e.g. IMMUTEXT_SCRIPT_TIMEOUT=10s sets script.timeout.
// Unrecognized variables with the prefix are ignored.
// Empty values are treated as valid values, not as unset.
func (l *Loader) ApplyEnv(cfg *Config) error {
	vars := make(map[string]string)
	for _, kv := range l.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		vars[strings.TrimPrefix(name, EnvPrefix)] = value
	}

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		set, ok := envSettings[name]
		if !ok {
			continue
		}
		if err := set(cfg, vars[name]); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
	}
	return nil
}

func parseDuration(key, s string, dst *Duration) error {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return &ValueError{Key: key, Value: s, Message: "not a duration"}
	}
	*dst = Duration(d)
	return nil
}

func parseInt(key, s string, dst *int) error {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return &ValueError{Key: key, Value: s, Message: "not an integer"}
	}
	*dst = i
	return nil
}
