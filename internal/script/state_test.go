package script

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	glua "github.com/yuin/gopher-lua"

	"github.com/dshills/immutext/internal/logging"
)

func newTestState(t *testing.T, opts ...StateOption) *State {
	t.Helper()
	state, err := NewState(opts...)
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	t.Cleanup(func() { state.Close() })
	return state
}

func TestStateExec(t *testing.T) {
	state := newTestState(t)

	rets, err := state.Exec(context.Background(), "test", `x = 1 + 1; return x, "two"`)
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if len(rets) != 2 {
		t.Fatalf("Exec() returned %d values, want 2", len(rets))
	}
	if num, ok := rets[0].(glua.LNumber); !ok || float64(num) != 2 {
		t.Errorf("first return = %v, want 2", rets[0])
	}
	if s := rets[1].String(); s != "two" {
		t.Errorf("second return = %q, want two", s)
	}
	if v := state.GetGlobal("x"); v.String() != "2" {
		t.Errorf("GetGlobal(x) = %v, want 2", v)
	}
}

func TestStateExecErrors(t *testing.T) {
	state := newTestState(t)

	if _, err := state.Exec(context.Background(), "bad", `invalid lua code !!!`); err == nil {
		t.Error("Exec() with syntax error should fail")
	}

	_, err := state.Exec(context.Background(), "raise", `error("boom")`)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("Exec() error = %v, want boom", err)
	}

	// The state stays usable after an error.
	if _, err := state.Exec(context.Background(), "ok", `return 1`); err != nil {
		t.Errorf("Exec() after error = %v", err)
	}
}

func TestStateSandbox(t *testing.T) {
	state := newTestState(t)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "io", "os", "debug"} {
		if v := state.GetGlobal(name); v != glua.LNil {
			t.Errorf("global %s is available in the sandbox", name)
		}
	}
	for _, name := range []string{"string", "table", "math", "text", "pairs"} {
		if v := state.GetGlobal(name); v == glua.LNil {
			t.Errorf("global %s is missing", name)
		}
	}
}

func TestStatePrint(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelInfo, Output: &buf})
	state := newTestState(t, WithStateLogger(logger))

	if _, err := state.Exec(context.Background(), "print", `print("hello", 42, text.new("rope"))`); err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if !strings.Contains(buf.String(), "hello\t42\trope") {
		t.Errorf("print output = %q", buf.String())
	}
}

func TestStateCancel(t *testing.T) {
	state := newTestState(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := state.Exec(ctx, "loop", `while true do end`)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Exec() error = %v, want context.Canceled", err)
	}
}

func TestStateClose(t *testing.T) {
	state, err := NewState()
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	if err := state.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !state.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}
	if err := state.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := state.Exec(context.Background(), "x", `return 1`); !errors.Is(err, ErrStateClosed) {
		t.Errorf("Exec() after Close error = %v, want ErrStateClosed", err)
	}
	if v := state.GetGlobal("text"); v != glua.LNil {
		t.Error("GetGlobal() after Close should return nil")
	}
}
