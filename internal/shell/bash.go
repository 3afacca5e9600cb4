// Package shell wires mvdan.cc/sh/v3's parser and interpreter into the
// sandboxed, embeddable Bash runtime SPEC_FULL.md §4.4/§6 describes: the
// public Bash type re-exported at the module root, its construction
// options, and the single Exec entry point every other capability (awk,
// the builtin registry, the VFS, the resource-limit supervisor) is wired
// through.
package shell

import (
	"bytes"
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/kazz187/vbash/internal/builtin"
	"github.com/kazz187/vbash/internal/envstore"
	"github.com/kazz187/vbash/internal/limits"
	"github.com/kazz187/vbash/internal/netfetch"
	"github.com/kazz187/vbash/internal/vfs"
	"github.com/kazz187/vbash/pkg/cerr"
)

// Result is the outcome of one Exec call: both output streams, the exit
// code, and the exported-variable snapshot the call ended with (per
// spec.md §6/§3 — the only channel through which env/cwd changes are ever
// observable outside the call that made them; see internal/envstore's
// package doc for the isolation rule this enforces).
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Env      map[string]string
	Cwd      string
}

// Bash is one embeddable shell instance: a VFS, a baseline environment and
// working directory fixed at construction, a resource-limit configuration,
// an optional network allow-list, and a builtin registry an embedder can
// extend via RegisterCommand. Per spec.md §5, neither the baseline env/cwd
// nor the VFS-external state are ever mutated by a call to Exec — only the
// VFS itself is shared, mutable, multi-writer state.
type Bash struct {
	fs       *vfs.FS
	baseline *envstore.Store
	cwd      string

	limitsCfg limits.Config
	network   netfetch.AllowList
	sleep     func(time.Duration)
	trace     func(TraceEvent)
	logger    *slog.Logger

	registry *builtin.Registry
	procSub  *procSubRegistry

	seedFiles map[string][]byte
	seedEnv   map[string]string

	inFlight atomic.Int64
}

// New constructs a Bash instance from options, per SPEC_FULL.md §6.
func New(opts ...Option) (*Bash, error) {
	b := &Bash{
		cwd:       "/",
		limitsCfg: limits.DefaultConfig(),
		network:   netfetch.DefaultAllowList(),
		sleep:     time.Sleep,
		logger:    slog.Default(),
		registry:  builtin.NewRegistry(),
		procSub:   newProcSubRegistry(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.seedFiles != nil {
		b.fs = vfs.NewWithFiles(b.seedFiles)
	} else {
		b.fs = vfs.New()
	}
	b.baseline = envstore.NewFromMap(b.seedEnv)
	b.registry.Register("http_get", builtin.NewHTTPGetHandler(b.network))
	b.registry.Register("fetch", builtin.NewFetchHandler(b.network))
	return b, nil
}

// RegisterCommand adds or overrides a builtin, letting an embedder plug in
// a host-specific tool without touching internal/builtin's defaults.
func (b *Bash) RegisterCommand(name string, h builtin.Handler) {
	b.registry.Register(name, h)
}

// GetEnv returns the instance's baseline exported-variable snapshot — not
// any in-flight Exec call's clone.
func (b *Bash) GetEnv() map[string]string { return b.baseline.Snapshot() }

// GetCwd returns the instance's baseline working directory.
func (b *Bash) GetCwd() string { return b.cwd }

// ReadFile/WriteFile expose the shared VFS directly, for an embedder that
// wants to seed or inspect files without round-tripping through a shell
// command.
func (b *Bash) ReadFile(path string) ([]byte, error) { return b.fs.Read(path) }
func (b *Bash) WriteFile(path string, content []byte) error {
	return b.fs.Write(path, content)
}

// Exec parses and runs commandLine against a fresh clone of the baseline
// environment and a fresh interp.Runner, per SPEC_FULL.md §4.4's five-step
// description. The clone (and any ExecOption overlay applied to it) is
// discarded once Exec returns; Result.Env/Result.Cwd is the only way its
// final state is ever observed.
func (b *Bash) Exec(ctx context.Context, commandLine string, opts ...ExecOption) (*Result, error) {
	start := time.Now()
	b.inFlight.Add(1)
	defer b.inFlight.Add(-1)

	cfg := execConfig{}
	for _, o := range opts {
		o(&cfg)
	}

	env := b.baseline.Clone()
	for k, v := range cfg.env {
		if err := env.SetString(k, v, true); err != nil {
			return nil, err
		}
	}
	cwd := b.cwd
	if cfg.cwd != "" {
		cwd = cfg.cwd
	}
	if err := env.SetString("PWD", cwd, true); err != nil {
		return nil, err
	}

	counters := limits.New(b.limitsCfg)

	parser := syntax.NewParser(syntax.Variant(syntax.LangBash), syntax.KeepComments(true))
	file, err := parser.Parse(bytesReader(commandLine), "")
	if err != nil {
		wrapped := cerr.New(cerr.ParseError, "bash", "", err.Error(), err)
		b.emitTrace(commandLine, 1, start, wrapped)
		return &Result{Stderr: wrapped.Error() + "\n", ExitCode: cerr.ParseError.ExitCode()}, nil
	}

	var stdout, stderr bytes.Buffer
	reenter := func(cmd string, o *builtin.ExecOpts) (*builtin.Result, error) {
		callOpts := []ExecOption{}
		if o != nil {
			if o.Env != nil {
				callOpts = append(callOpts, WithExecEnv(o.Env))
			}
			if o.Cwd != "" {
				callOpts = append(callOpts, WithExecCwd(o.Cwd))
			} else {
				callOpts = append(callOpts, WithExecCwd(cwd))
			}
		} else {
			callOpts = append(callOpts, WithExecCwd(cwd))
		}
		res, err := b.Exec(ctx, cmd, callOpts...)
		if err != nil {
			return nil, err
		}
		return &builtin.Result{Stdout: res.Stdout, Stderr: res.Stderr, ExitCode: res.ExitCode}, nil
	}

	runner, err := interp.New(
		interp.Env(env),
		interp.Dir(cwd),
		interp.StdIO(new(bytes.Buffer), &stdout, &stderr),
		interp.OpenHandler(openHandler(b.fs, b.procSub)),
		interp.ReadDirHandler2(readDirHandler(b.fs)),
		interp.StatHandler(statHandler(b.fs, b.procSub)),
		interp.CallHandler(callLimitHandler(counters)),
		interp.ExecHandlers(builtinMiddleware(b.registry, b.fs, env, counters, reenter)),
	)
	if err != nil {
		return nil, err
	}

	runErr := runner.Run(ctx, file)
	exitCode := 0
	if code, ok := interp.IsExitStatus(runErr); ok {
		exitCode = int(code)
		runErr = nil
	} else if runErr != nil {
		// A fatal error raised by one of our own handlers (CallHandler's
		// resource-limit check, OpenHandler's sandbox check, ...) surfaces
		// as an exit code plus a stderr line, the same contract as
		// CommandNotFound/NotExecutable above — not as a Go-level error
		// from Exec, since it's an ordinary (if severe) script outcome.
		exitCode = cerr.ExitCodeOf(runErr)
		stderr.WriteString(runErr.Error() + "\n")
		runErr = nil
	}

	finalCwd := cwd
	if pwd := env.Get("PWD"); pwd.Set {
		finalCwd = pwd.Str
	}

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
		Env:      env.Snapshot(),
		Cwd:      finalCwd,
	}
	b.emitTrace(commandLine, exitCode, start, runErr)
	return result, runErr
}

func (b *Bash) emitTrace(commandLine string, exitCode int, start time.Time, err error) {
	if b.trace == nil {
		return
	}
	b.trace(TraceEvent{
		CommandLine: commandLine,
		Formatted:   formatTraceCommand(commandLine),
		ExitCode:    exitCode,
		Duration:    time.Since(start),
		Err:         err,
	})
}

func bytesReader(s string) *bytes.Reader { return bytes.NewReader([]byte(s)) }
