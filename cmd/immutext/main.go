// Package main is the entry point for the immutext edit-script tool.
//
// It replays a YAML edit script, or runs a Lua script, against an
// immutable text and writes the result:
//
//	immutext -script edits.yaml -out result.txt
//	immutext -lua transform.lua -input in.txt -stats
//	immutext -script edits.yaml -watch
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dshills/immutext/internal/config"
	"github.com/dshills/immutext/internal/logging"
	"github.com/dshills/immutext/internal/replay"
	"github.com/dshills/immutext/internal/script"
	"github.com/dshills/immutext/internal/text"
	"github.com/dshills/immutext/internal/watch"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errUsage marks a command line the tool cannot act on.
var errUsage = errors.New("usage error")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options holds the parsed command line.
type options struct {
	configPath  string
	scriptPath  string
	luaPath     string
	inputPath   string
	outPath     string
	logLevel    string
	watch       bool
	stats       bool
	showVersion bool
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if opts.showVersion {
		fmt.Fprintf(stdout, "immutext %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return 0
	}

	cfg, err := config.NewLoader().Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to load config: %v\n", err)
		return 1
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Output: stderr,
		Prefix: cfg.Log.Prefix,
	})
	logger.Debug("config: %s", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	host := script.NewHost(
		script.WithTimeout(cfg.Script.Timeout.Std()),
		script.WithMaxOutput(cfg.Script.MaxOutput),
		script.WithLogger(logger),
	)
	j := &job{
		opts:   opts,
		host:   host,
		runner: replay.NewRunner(replay.WithLogger(logger), replay.WithScriptHost(host), replay.WithKeepVersions(cfg.Replay.KeepVersions)),
		logger: logger,
		stdout: stdout,
		stderr: stderr,
	}

	if err := j.execute(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if !opts.watch {
			return 1
		}
	}
	if !opts.watch {
		return 0
	}

	if err := j.watch(ctx, cfg.Watch.Debounce.Std()); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("immutext", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", "", "Path to configuration file (TOML)")
	fs.StringVar(&opts.scriptPath, "script", "", "YAML edit script to replay")
	fs.StringVar(&opts.luaPath, "lua", "", "Lua script to run")
	fs.StringVar(&opts.inputPath, "input", "", "Initial text for -lua (file path, or - for stdin)")
	fs.StringVar(&opts.outPath, "out", "", "Write the result to this file instead of stdout")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	fs.BoolVar(&opts.watch, "watch", false, "Re-run whenever the script file changes")
	fs.BoolVar(&opts.stats, "stats", false, "Print the shape of the result to stderr")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version information")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "immutext - edit immutable texts with scripts\n\n")
		fmt.Fprintf(stderr, "Usage: immutext (-script edits.yaml | -lua script.lua) [options]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nEnvironment variables IMMUTEXT_LOG_LEVEL, IMMUTEXT_SCRIPT_TIMEOUT, ... override the config file.\n")
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.showVersion {
		return opts, nil
	}

	if fs.NArg() > 0 {
		return opts, fmt.Errorf("%w: unexpected arguments %v", errUsage, fs.Args())
	}
	if (opts.scriptPath == "") == (opts.luaPath == "") {
		return opts, fmt.Errorf("%w: exactly one of -script or -lua is required", errUsage)
	}
	if opts.inputPath != "" && opts.luaPath == "" {
		return opts, fmt.Errorf("%w: -input applies to -lua only", errUsage)
	}
	if opts.watch && opts.inputPath == "-" {
		return opts, fmt.Errorf("%w: -watch cannot read input from stdin", errUsage)
	}
	switch opts.logLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return opts, fmt.Errorf("%w: invalid log level %q (must be debug, info, warn, or error)", errUsage, opts.logLevel)
	}
	return opts, nil
}

// job runs the selected script and writes its result.
type job struct {
	opts   options
	host   *script.Host
	runner *replay.Runner
	logger *logging.Logger
	stdout io.Writer
	stderr io.Writer
}

// scriptFile returns the script the job runs.
func (j *job) scriptFile() string {
	if j.opts.scriptPath != "" {
		return j.opts.scriptPath
	}
	return j.opts.luaPath
}

func (j *job) execute(ctx context.Context) error {
	var (
		result text.Text
		err    error
	)
	if j.opts.scriptPath != "" {
		result, err = j.replay(ctx)
	} else {
		result, err = j.lua(ctx)
	}
	if err != nil {
		return err
	}

	if err := j.write(result); err != nil {
		return err
	}
	if j.opts.stats {
		s := result.Stats()
		fmt.Fprintf(j.stderr, "length=%d depth=%d leaves=%d composites=%d max_leaf=%d compact_leaves=%d\n",
			s.Len, s.Depth, s.Leaves, s.Composites, s.MaxLeafLen, s.CompactLeaves)
	}
	return nil
}

func (j *job) replay(ctx context.Context) (text.Text, error) {
	s, err := replay.LoadFile(j.opts.scriptPath)
	if err != nil {
		return text.Text{}, err
	}
	res, err := j.runner.Run(ctx, s)
	if err != nil {
		return text.Text{}, err
	}
	if j.opts.stats {
		for _, st := range res.Steps {
			fmt.Fprintf(j.stderr, "step %d %s x%d: length=%d depth=%d time=%s\n",
				st.Index, st.Op, st.Applied, st.Len, st.Depth, st.Duration)
		}
	}
	return res.Final, nil
}

func (j *job) lua(ctx context.Context) (text.Text, error) {
	input := text.Empty()
	switch j.opts.inputPath {
	case "":
	case "-":
		t, err := text.FromReader(os.Stdin)
		if err != nil {
			return text.Text{}, fmt.Errorf("reading stdin: %w", err)
		}
		input = t
	default:
		f, err := os.Open(j.opts.inputPath)
		if err != nil {
			return text.Text{}, err
		}
		defer f.Close()
		t, err := text.FromReader(f)
		if err != nil {
			return text.Text{}, fmt.Errorf("reading %s: %w", j.opts.inputPath, err)
		}
		input = t
	}
	return j.host.RunFile(ctx, j.opts.luaPath, input)
}

// write sends the result to -out, or stdout.
func (j *job) write(t text.Text) error {
	if j.opts.outPath == "" {
		_, err := t.WriteTo(j.stdout)
		return err
	}
	f, err := os.Create(j.opts.outPath)
	if err != nil {
		return err
	}
	if _, err := t.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// watch re-runs the job each time the script file changes, until ctx is done.
// Failed runs are reported and watching continues.
func (j *job) watch(ctx context.Context, debounce time.Duration) error {
	w, err := watch.New(ctx, j.scriptFile(), watch.WithDebounce(debounce), watch.WithLogger(j.logger))
	if err != nil {
		return err
	}
	defer w.Close()

	j.logger.Info("watching %s", w.Path())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-w.Errors():
			if !ok {
				return ctx.Err()
			}
			j.logger.Warn("watch: %v", err)
		case ev, ok := <-w.Events():
			if !ok {
				return ctx.Err()
			}
			if ev.Op.Has(watch.OpRemove) && !ev.Op.Has(watch.OpCreate) {
				j.logger.Warn("%s was removed", ev.Path)
				continue
			}
			j.logger.Info("%s changed (%s), re-running", ev.Path, ev.Op)
			if err := j.execute(ctx); err != nil {
				fmt.Fprintf(j.stderr, "Error: %v\n", err)
			}
		}
	}
}
