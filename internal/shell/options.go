package shell

import (
	"log/slog"
	"time"

	"github.com/kazz187/vbash/internal/limits"
	"github.com/kazz187/vbash/internal/netfetch"
)

// Option configures a Bash instance at construction time, grounded on the
// functional-options pattern internal/shellfmt's formatter already uses in
// this repo (WithIndent/WithMaxWidth/WithVariant) — generalized from a
// private config struct to Bash's own fields.
type Option func(*Bash)

// WithFiles seeds the instance's VFS from a path->bytes map.
func WithFiles(files map[string][]byte) Option {
	return func(b *Bash) { b.seedFiles = files }
}

// WithEnv seeds the baseline environment every Exec call clones from.
func WithEnv(env map[string]string) Option {
	return func(b *Bash) { b.seedEnv = env }
}

// WithCwd sets the instance's initial working directory.
func WithCwd(cwd string) Option {
	return func(b *Bash) { b.cwd = cwd }
}

// WithLimits overrides the default resource-limit configuration.
func WithLimits(cfg limits.Config) Option {
	return func(b *Bash) { b.limitsCfg = cfg }
}

// WithNetwork installs the allow-list internal/netfetch's secure fetch
// checks every request against; without this option the instance has no
// network reach at all.
func WithNetwork(list netfetch.AllowList) Option {
	return func(b *Bash) { b.network = list }
}

// WithSleep stores fn on the instance. Nothing reads the stored function:
// no `sleep` builtin is registered, and no other builtin waits on a clock.
func WithSleep(fn func(time.Duration)) Option {
	return func(b *Bash) { b.sleep = fn }
}

// WithTrace installs a hook invoked once per Exec call with a TraceEvent.
func WithTrace(fn func(TraceEvent)) Option {
	return func(b *Bash) { b.trace = fn }
}

// WithLogger stores a structured logger on the instance, matching pkg/clog's
// slog.Logger-based logger shape used elsewhere in this repo. Exec and the
// builtins do not log through it, and a script's own stdout/stderr never
// go to it.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bash) { b.logger = logger }
}

// ExecOption applies for a single Exec call only; it is never written back
// to Bash's baseline state on any exit path.
type ExecOption func(*execConfig)

type execConfig struct {
	env map[string]string
	cwd string
}

// WithExecEnv overlays additional/overriding environment variables for one
// Exec call.
func WithExecEnv(env map[string]string) ExecOption {
	return func(c *execConfig) { c.env = env }
}

// WithExecCwd overrides the working directory for one Exec call.
func WithExecCwd(cwd string) ExecOption {
	return func(c *execConfig) { c.cwd = cwd }
}
