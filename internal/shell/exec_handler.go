package shell

import (
	"context"
	"io"

	"mvdan.cc/sh/v3/interp"

	"github.com/kazz187/vbash/internal/builtin"
	"github.com/kazz187/vbash/internal/envstore"
	"github.com/kazz187/vbash/internal/limits"
	"github.com/kazz187/vbash/internal/vfs"
	"github.com/kazz187/vbash/pkg/cerr"
)

// callLimitHandler is wired as interp.CallHandler, the one hook
// mvdan.cc/sh/v3's Runner.call invokes before it ever checks r.Funcs or
// IsBuiltin (see the pack's sandboxed-bash-exec buildSecurityHandlers for
// the pattern this is grounded on). That dispatch order means a shell
// function or a native builtin loop (`f(){ f; }; f`, `while true; do
// :; done`) never reaches the ExecHandlers chain at all, so the
// command-count cap has to live here — not in builtinMiddleware below —
// to actually bound those scripts instead of just external/registry
// commands.
func callLimitHandler(counters *limits.Counters) func(ctx context.Context, args []string) ([]string, error) {
	return func(ctx context.Context, args []string) ([]string, error) {
		if counters != nil {
			if err := counters.IncCommand(); err != nil {
				return nil, cerr.New(cerr.ExecutionLimitError, "bash", "", err.Error(), err)
			}
		}
		return args, nil
	}
}

// builtinMiddleware is the sole ExecHandlers entry interp.Runner is given:
// it never calls the wrapped `next` handler, realizing SPEC_FULL.md §4.4's
// "external commands are, by design, absent" — a resolved builtin runs and
// reports its own exit code; anything unresolved is CommandNotFound (127),
// exactly as if a real PATH lookup had failed, without this repo ever
// touching os/exec. env is the same per-call envstore.Store clone passed to
// interp.Env, read directly here instead of through hc.Env so builtins see
// the exact Snapshot format internal/envstore already defines. Command
// counting itself lives in callLimitHandler, not here — this chain is only
// reached for commands that aren't a shell function or a native builtin.
func builtinMiddleware(reg *builtin.Registry, fsys *vfs.FS, env *envstore.Store, counters *limits.Counters, reenter func(cmdLine string, opts *builtin.ExecOpts) (*builtin.Result, error)) func(interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(_ interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return interp.NewExitStatus(1)
			}

			handler, ok := reg.Lookup(args[0])
			if !ok {
				return interp.NewExitStatus(127)
			}

			hc := interp.HandlerCtx(ctx)
			stdin, _ := io.ReadAll(hc.Stdin)

			cctx := &builtin.CommandContext{
				Stdin:  string(stdin),
				Env:    env.Snapshot(),
				Cwd:    hc.Dir,
				FS:     fsys,
				Exec:   reenter,
				Limits: counters,
			}
			res := handler.Execute(ctx, args[1:], cctx)
			if res.Stdout != "" {
				io.WriteString(hc.Stdout, res.Stdout)
			}
			if res.Stderr != "" {
				io.WriteString(hc.Stderr, res.Stderr)
			}
			if res.ExitCode != 0 {
				return interp.NewExitStatus(uint8(res.ExitCode))
			}
			return nil
		}
	}
}
