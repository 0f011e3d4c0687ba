// Package script runs Lua programs that build and edit texts.
//
// Each run gets a fresh sandboxed gopher-lua state with a global text module
// (see registerTextModule) and the global input bound to the caller's text.
// The run's result is the text the chunk returns, or else the global result.
//
//	host := script.NewHost(script.WithTimeout(time.Second))
//	out, err := host.Run(ctx, `return input:insert(0, "> ")`, text.FromString("hi"))
package script

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/immutext/internal/logging"
	"github.com/dshills/immutext/internal/text"
)

// Default limits for a script run.
const (
	DefaultTimeout   = 5 * time.Second
	DefaultMaxOutput = 1 << 24
)

// Host runs scripts against texts.
// A Host is safe for concurrent use; every run has its own Lua state.
type Host struct {
	timeout   time.Duration
	maxOutput int
	logger    *logging.Logger
}

// Option configures a Host.
type Option func(*Host)

// WithTimeout bounds each run. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(h *Host) {
		h.timeout = d
	}
}

// WithMaxOutput caps the number of characters a run may produce. Zero disables the cap.
func WithMaxOutput(n int) Option {
	return func(h *Host) {
		h.maxOutput = n
	}
}

// WithLogger sets the logger that receives print output and run diagnostics.
func WithLogger(logger *logging.Logger) Option {
	return func(h *Host) {
		h.logger = logger
	}
}

// NewHost creates a host with the given options.
func NewHost(opts ...Option) *Host {
	h := &Host{
		timeout:   DefaultTimeout,
		maxOutput: DefaultMaxOutput,
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.WithComponent("script")
	return h
}

// Run executes code with the global input bound to input and returns the resulting text.
func (h *Host) Run(ctx context.Context, code string, input text.Text) (text.Text, error) {
	return h.run(ctx, "<script>", code, input)
}

// RunFile executes the Lua file at path like Run.
func (h *Host) RunFile(ctx context.Context, path string, input text.Text) (text.Text, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return text.Text{}, fmt.Errorf("reading script: %w", err)
	}
	return h.run(ctx, filepath.Base(path), string(code), input)
}

func (h *Host) run(ctx context.Context, name, code string, input text.Text) (text.Text, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	state, err := NewState(WithStateLogger(h.logger.WithField("chunk", name)))
	if err != nil {
		return text.Text{}, err
	}
	defer state.Close()

	state.SetText("input", input)

	start := time.Now()
	rets, err := state.Exec(ctx, name, code)
	if err != nil {
		h.logger.Debug("run %s failed after %s: %v", name, time.Since(start), err)
		return text.Text{}, err
	}

	result := lua.LValue(lua.LNil)
	if len(rets) > 0 {
		result = rets[0]
	}
	if result == lua.LNil {
		result = state.GetGlobal("result")
	}
	if result == lua.LNil {
		return text.Text{}, ErrNoResult
	}

	out, ok := toText(result)
	if !ok {
		return text.Text{}, fmt.Errorf("%w: got %s", ErrNoResult, result.Type())
	}
	if h.maxOutput > 0 && out.Len() > h.maxOutput {
		return text.Text{}, fmt.Errorf("%w: %d characters, limit %d", ErrOutputTooLarge, out.Len(), h.maxOutput)
	}

	h.logger.Debug("run %s: %d characters, depth %d, %s", name, out.Len(), out.Depth(), time.Since(start))
	return out, nil
}
