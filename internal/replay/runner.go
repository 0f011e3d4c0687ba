package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/immutext/internal/logging"
	"github.com/dshills/immutext/internal/script"
	"github.com/dshills/immutext/internal/text"
)

// Version is one state of the text in a replay.
type Version struct {
	// ID uniquely identifies the version.
	ID string
	// ParentID is the ID of the version this one was derived from.
	// It is empty for the initial version.
	ParentID string
	// Step is the index of the step that produced the version, or -1 for the initial text.
	Step int
	// Op describes the edit, e.g. "insert 6 at 5".
	Op string
	// Text is the content. It shares unchanged regions with its parent.
	Text text.Text
}

// StepStat records the cost and shape of one step.
type StepStat struct {
	Index    int
	Op       Op
	Applied  int
	Duration time.Duration
	Len      int
	Depth    int
}

// Result is the outcome of running a script.
type Result struct {
	// Final is the text after the last step.
	Final text.Text
	// Versions is the version chain, oldest first. It may be trimmed to the
	// most recent versions; see WithKeepVersions.
	Versions []Version
	// Saved maps the names given by save to their texts.
	Saved map[string]text.Text
	// Steps has one entry per step.
	Steps []StepStat
}

// Runner executes edit scripts.
type Runner struct {
	logger *logging.Logger
	host   *script.Host
	keep   int
	newID  func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithScriptHost sets the host used by lua steps.
func WithScriptHost(host *script.Host) Option {
	return func(r *Runner) {
		r.host = host
	}
}

// WithKeepVersions limits the version chain in a Result to the n most
// recent versions. Zero keeps all.
func WithKeepVersions(n int) Option {
	return func(r *Runner) {
		r.keep = n
	}
}

// NewRunner creates a runner with the given options.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		logger: logging.Nop(),
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent("replay")
	if r.host == nil {
		r.host = script.NewHost(script.WithLogger(r.logger))
	}
	return r
}

// run is the mutable state of one script execution.
type run struct {
	current  Version
	versions []Version
	saved    map[string]text.Text
}

// Run executes s and returns the resulting version chain.
// The context is checked between steps and bounds lua steps.
func (r *Runner) Run(ctx context.Context, s *Script) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	initial := Version{
		ID:   r.newID(),
		Step: -1,
		Op:   "initial",
		Text: text.FromString(s.Initial),
	}
	st := &run{
		current:  initial,
		versions: []Version{initial},
		saved:    make(map[string]text.Text),
	}
	res := &Result{Saved: st.saved}

	log := r.logger.WithField("script", s.Name)
	log.Debug("start: %d characters, %d steps", initial.Text.Len(), len(s.Steps))

	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		next, desc, err := r.apply(ctx, st, step)
		if err != nil {
			return nil, &StepError{Index: i, Op: step.Op, Err: err}
		}
		if step.Expect != nil && next.String() != *step.Expect {
			return nil, &StepError{
				Index: i,
				Op:    step.Op,
				Err:   fmt.Errorf("%w: got %q, expected %q", ErrExpectation, truncate(next.String()), truncate(*step.Expect)),
			}
		}

		v := Version{
			ID:       r.newID(),
			ParentID: st.current.ID,
			Step:     i,
			Op:       desc,
			Text:     next,
		}
		st.current = v
		st.versions = append(st.versions, v)
		if step.Save != "" {
			st.saved[step.Save] = next
		}

		stat := StepStat{
			Index:    i,
			Op:       step.Op,
			Applied:  step.times(),
			Duration: time.Since(start),
			Len:      next.Len(),
			Depth:    next.Depth(),
		}
		res.Steps = append(res.Steps, stat)
		log.Debug("step %d: %s -> %d characters, depth %d", i, desc, stat.Len, stat.Depth)
	}

	res.Final = st.current.Text
	res.Versions = st.versions
	if r.keep > 0 && len(res.Versions) > r.keep {
		res.Versions = res.Versions[len(res.Versions)-r.keep:]
	}
	log.Info("done: %d steps, %d characters", len(s.Steps), res.Final.Len())
	return res, nil
}

// apply runs one step, with its repetitions, against the current text.
func (r *Runner) apply(ctx context.Context, st *run, step Step) (text.Text, string, error) {
	t := st.current.Text
	at := step.At
	var desc string

	for n := 0; n < step.times(); n++ {
		var err error
		t, desc, err = r.applyOnce(ctx, st, step, t, at)
		if err != nil {
			return text.Text{}, "", err
		}
		at += step.Stride
	}
	if step.Repeat > 1 {
		desc = fmt.Sprintf("%s (x%d, stride %d)", desc, step.Repeat, step.Stride)
	}
	return t, desc, nil
}

func (r *Runner) applyOnce(ctx context.Context, st *run, step Step, t text.Text, at int) (text.Text, string, error) {
	switch step.Op {
	case OpInsert:
		operand, err := st.operand(step)
		if err != nil {
			return text.Text{}, "", err
		}
		out, err := t.Insert(at, operand)
		return out, fmt.Sprintf("insert %d at %d", operand.Len(), at), err

	case OpRemove:
		out, err := t.Remove(at, step.Count)
		return out, fmt.Sprintf("remove %d at %d", step.Count, at), err

	case OpSlice:
		out, err := t.Slice(at, step.Count)
		return out, fmt.Sprintf("slice %d at %d", step.Count, at), err

	case OpAppend:
		operand, err := st.operand(step)
		if err != nil {
			return text.Text{}, "", err
		}
		return t.Concat(operand), fmt.Sprintf("append %d", operand.Len()), nil

	case OpPrepend:
		operand, err := st.operand(step)
		if err != nil {
			return text.Text{}, "", err
		}
		return operand.Concat(t), fmt.Sprintf("prepend %d", operand.Len()), nil

	case OpConcat:
		parts := make([]text.Text, 0, len(step.Refs))
		for _, name := range step.Refs {
			p, err := st.lookup(name)
			if err != nil {
				return text.Text{}, "", err
			}
			parts = append(parts, p)
		}
		return text.Join(parts, text.FromString(step.Text)), fmt.Sprintf("concat %v", step.Refs), nil

	case OpLua:
		out, err := r.host.Run(ctx, step.Code, t)
		return out, "lua", err
	}
	return text.Text{}, "", fmt.Errorf("%w %q", ErrUnknownOp, step.Op)
}

// operand returns the text a step inserts or attaches.
func (st *run) operand(step Step) (text.Text, error) {
	if step.Ref != "" {
		return st.lookup(step.Ref)
	}
	return text.FromString(step.Text), nil
}

func (st *run) lookup(name string) (text.Text, error) {
	t, ok := st.saved[name]
	if !ok {
		return text.Text{}, fmt.Errorf("%w %q", ErrUnknownRef, name)
	}
	return t, nil
}

// truncate shortens s for error messages.
func truncate(s string) string {
	const limit = 64
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit]) + "..."
}
