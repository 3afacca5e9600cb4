package shell

import (
	"time"

	shellformat "github.com/kazz187/vbash/internal/shellfmt"
)

// TraceEvent is emitted once per Exec call to a WithTrace hook, for
// embedders that want lightweight observability without full logging —
// grounded on the teacher's pkg/clog structured-attribute style, but kept
// as a plain struct here since a trace hook, unlike a logger, is meant to
// be cheap to construct and match against in tests. Formatted is the
// pretty-printed rendering of CommandLine via internal/shellfmt, so a trace
// consumer logging multi-line pipelines doesn't have to re-parse the raw
// one-liner itself; it falls back to CommandLine verbatim on parse failure.
type TraceEvent struct {
	CommandLine string
	Formatted   string
	ExitCode    int
	Duration    time.Duration
	Err         error
}

func formatTraceCommand(commandLine string) string {
	out, err := shellformat.Format(commandLine)
	if err != nil || out == "" {
		return commandLine
	}
	return out
}
