package builtin

import (
	"context"

	shellformat "github.com/kazz187/vbash/internal/shellfmt"
)

// runFmt backs the `fmt` builtin: pretty-prints a shell one-liner (read from
// stdin, or joined from argv if given) using internal/shellfmt, the
// teacher's own shfmt-based formatter — repurposed here from a task-
// description formatter into a shell-script pretty-printer, since that's
// all it ever actually touched (mvdan.cc/sh/v3/syntax).
func runFmt(_ context.Context, args []string, cctx *CommandContext) Result {
	src := cctx.Stdin
	if len(args) > 0 {
		src = joinArgs(args)
	}
	out, err := shellformat.Format(src)
	if err != nil {
		return errResult("fmt", err)
	}
	if out == "" {
		return Result{ExitCode: 0}
	}
	return Result{Stdout: out + "\n", ExitCode: 0}
}

func joinArgs(args []string) string {
	s := ""
	for i, a := range args {
		if i > 0 {
			s += " "
		}
		s += a
	}
	return s
}
