// Package limits implements the resource-limit supervisor: the counters
// mvdan.cc/sh/v3/interp.Runner has no native concept of (command count,
// call depth, loop/awk iterations) but that spec.md requires to bound a
// runaway or adversarial script running inside an embedding host.
package limits

import (
	"fmt"
	"sync/atomic"
)

// Config holds the caps a Bash instance enforces for the lifetime of one
// Exec call. Zero means "unlimited" for that counter.
type Config struct {
	MaxCommandCount  int64
	MaxCallDepth     int64
	MaxAwkIterations int64
}

// DefaultConfig mirrors internal/config.LimitsEnv's defaults, so a Bash
// instance constructed without WithLimits still has a runaway-script
// backstop.
func DefaultConfig() Config {
	return Config{
		MaxCommandCount:  200_000,
		MaxCallDepth:     256,
		MaxAwkIterations: 5_000_000,
	}
}

// ErrExecutionLimit is returned (and mapped to cerr's dedicated execution-
// limit exit code) when a counter exceeds its configured cap.
type ErrExecutionLimit struct {
	Counter string
	Cap     int64
}

func (e ErrExecutionLimit) Error() string {
	return fmt.Sprintf("execution limit exceeded: %s capped at %d", e.Counter, e.Cap)
}

// Counters is the live, per-Exec-call supervisor: one instance is created
// fresh by internal/shell.Bash.Exec and threaded through the builtin-
// dispatch middleware and, separately, into internal/awk for its own
// exact loop-iteration count.
type Counters struct {
	cfg Config

	commandCount int64
	callDepth    int64
	awkIter      int64
}

// New builds a Counters for one Exec call.
func New(cfg Config) *Counters {
	return &Counters{cfg: cfg}
}

// IncCommand increments the command counter. internal/shell's
// callLimitHandler runs it once per simple command, shell functions and
// native builtins included, and the sqlite3 builtin once per statement
// (approximating loop-iteration
// counting shell-side, since interp.Runner exposes no per-iteration hook;
// see SPEC_FULL.md §4.7 / DESIGN.md Open Questions for why this
// approximation was chosen over patching the vendored interpreter).
func (c *Counters) IncCommand() error {
	if c == nil {
		return nil
	}
	n := atomic.AddInt64(&c.commandCount, 1)
	if c.cfg.MaxCommandCount > 0 && n > c.cfg.MaxCommandCount {
		return ErrExecutionLimit{Counter: "command_count", Cap: c.cfg.MaxCommandCount}
	}
	return nil
}

// EnterCall increments call depth on function/subshell entry and returns a
// matching exit func; callers defer the returned func to decrement again.
func (c *Counters) EnterCall() (func(), error) {
	if c == nil {
		return func() {}, nil
	}
	n := atomic.AddInt64(&c.callDepth, 1)
	if c.cfg.MaxCallDepth > 0 && n > c.cfg.MaxCallDepth {
		atomic.AddInt64(&c.callDepth, -1)
		return func() {}, ErrExecutionLimit{Counter: "call_depth", Cap: c.cfg.MaxCallDepth}
	}
	return func() { atomic.AddInt64(&c.callDepth, -1) }, nil
}

// IncAwkIteration is the exact (non-approximated) loop-iteration counter
// internal/awk increments on every for/while/do-while/getline loop step.
func (c *Counters) IncAwkIteration() error {
	if c == nil {
		return nil
	}
	n := atomic.AddInt64(&c.awkIter, 1)
	if c.cfg.MaxAwkIterations > 0 && n > c.cfg.MaxAwkIterations {
		return ErrExecutionLimit{Counter: "awk_iterations", Cap: c.cfg.MaxAwkIterations}
	}
	return nil
}

// CommandCount reports the current command count. Only tests read it;
// TraceEvent does not carry it.
func (c *Counters) CommandCount() int64 {
	if c == nil {
		return 0
	}
	return atomic.LoadInt64(&c.commandCount)
}
