// Package vbash re-exports internal/shell's embeddable Bash runtime at the
// module root, the one place this repo has a root package at all — a thin
// façade, matching how the teacher's cmd/taskguild re-exports its
// daemon/client wiring rather than exposing those packages directly.
package vbash

import (
	"github.com/kazz187/vbash/internal/builtin"
	"github.com/kazz187/vbash/internal/limits"
	"github.com/kazz187/vbash/internal/netfetch"
	"github.com/kazz187/vbash/internal/shell"
)

// Bash is an embeddable POSIX/Bash-compatible shell instance running
// against an in-memory virtual filesystem and environment.
type Bash = shell.Bash

// Result is the outcome of one Exec call.
type Result = shell.Result

// TraceEvent is emitted once per Exec call when WithTrace is set.
type TraceEvent = shell.TraceEvent

// Option configures a Bash instance at construction time.
type Option = shell.Option

// ExecOption applies for a single Exec call only.
type ExecOption = shell.ExecOption

// Handler is one registered builtin command.
type Handler = builtin.Handler

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc = builtin.HandlerFunc

// New constructs a Bash instance from options.
func New(opts ...Option) (*Bash, error) { return shell.New(opts...) }

// Rehydrate reconstructs a Bash instance from a Serialize snapshot.
func Rehydrate(data []byte) (*Bash, error) { return shell.Rehydrate(data) }

var (
	WithFiles   = shell.WithFiles
	WithEnv     = shell.WithEnv
	WithCwd     = shell.WithCwd
	WithLimits  = shell.WithLimits
	WithNetwork = shell.WithNetwork
	WithSleep   = shell.WithSleep
	WithTrace   = shell.WithTrace
	WithLogger  = shell.WithLogger

	WithExecEnv = shell.WithExecEnv
	WithExecCwd = shell.WithExecCwd
)

// LimitsConfig is internal/limits.Config re-exported for WithLimits callers
// that don't want to import internal/limits directly.
type LimitsConfig = limits.Config

// NetworkAllowList is internal/netfetch.AllowList re-exported for
// WithNetwork callers that don't want to import internal/netfetch directly.
type NetworkAllowList = netfetch.AllowList

// NetworkEntry is one allow-list triple.
type NetworkEntry = netfetch.Entry
