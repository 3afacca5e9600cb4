// Package builtin implements the curated set of non-native commands spec.md
// §4.6 lists: tools interp.Runner has no built-in notion of (echo, cat, wc,
// grep, awk, jq, sqlite3, ...), dispatched through a single Registry that
// internal/shell's ExecHandlers middleware consults before ever considering
// a host process (which this repo never spawns).
//
// Grounded on the teacher's agentmanager.Registry (name -> value map behind
// a single RWMutex, Register/Unregister-shaped API) generalized from
// connection objects to command handlers.
package builtin

import (
	"context"
	"errors"
	"fmt"

	"github.com/kazz187/vbash/internal/limits"
	"github.com/kazz187/vbash/internal/vfs"
)

// ErrNotImplemented is returned by contract-only collaborators (sed, yq,
// xan) that exist to satisfy spec.md §4.6's curated command surface but
// have no real implementation in this runtime.
var ErrNotImplemented = errors.New("not implemented in this runtime")

// Result is a builtin's outcome: the two output streams plus an exit code.
// internal/shell folds this into the Result it returns from Exec for a
// simple command whose name resolved to a builtin.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ExecOpts mirrors internal/shell's ExecOption surface for the re-entrant
// Exec callback CommandContext carries (used by xargs, find -exec, and
// awk's system()/getline-from-command/print-to-command forms).
type ExecOpts struct {
	Env map[string]string
	Cwd string
}

// CommandContext is everything a Handler needs to run one invocation,
// matching spec.md §4.6 exactly: a stdin blob, a process-environment-shaped
// snapshot, cwd, the shared VFS, a re-entrant Exec callback, and the
// resource-limit supervisor for the current top-level Exec call.
type CommandContext struct {
	Stdin  string
	Env    map[string]string
	Cwd    string
	FS     *vfs.FS
	Exec   func(cmd string, opts *ExecOpts) (*Result, error)
	Limits *limits.Counters
}

// Handler is one registered command. Execute never panics on bad input —
// it reports failure through Result.ExitCode and Result.Stderr, the same
// contract a real external command would have over a pipe.
type Handler interface {
	Execute(ctx context.Context, args []string, cctx *CommandContext) Result
}

// HandlerFunc adapts a plain function to Handler, for the many builtins
// that need no state beyond their closure.
type HandlerFunc func(ctx context.Context, args []string, cctx *CommandContext) Result

func (f HandlerFunc) Execute(ctx context.Context, args []string, cctx *CommandContext) Result {
	return f(ctx, args, cctx)
}

func errResult(prog string, err error) Result {
	return Result{Stderr: fmt.Sprintf("%s: %s\n", prog, err), ExitCode: 1}
}

func usageResult(prog, msg string) Result {
	return Result{Stderr: fmt.Sprintf("%s: %s\n", prog, msg), ExitCode: 2}
}
