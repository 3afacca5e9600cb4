package builtin

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// runGrep implements the -i (ignore-case), -v (invert), -n (line-number),
// -c (count) subset of grep against stdin or file arguments.
func runGrep(_ context.Context, args []string, cctx *CommandContext) Result {
	var ignoreCase, invert, lineNumber, countOnly bool
	var rest []string
	for _, a := range args {
		switch a {
		case "-i":
			ignoreCase = true
		case "-v":
			invert = true
		case "-n":
			lineNumber = true
		case "-c":
			countOnly = true
		default:
			rest = append(rest, a)
		}
	}
	if len(rest) == 0 {
		return usageResult("grep", "missing pattern")
	}
	pattern := rest[0]
	files := rest[1:]
	if ignoreCase {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return errResult("grep", fmt.Errorf("invalid pattern: %w", err))
	}
	in, err := readInput(files, cctx)
	if err != nil {
		return errResult("grep", err)
	}
	var out strings.Builder
	matches := 0
	for i, line := range linesOf(in) {
		if re.MatchString(line) == invert {
			continue
		}
		matches++
		if countOnly {
			continue
		}
		if lineNumber {
			fmt.Fprintf(&out, "%d:%s\n", i+1, line)
		} else {
			out.WriteString(line)
			out.WriteByte('\n')
		}
	}
	if countOnly {
		return Result{Stdout: fmt.Sprintf("%d\n", matches)}
	}
	exit := 1
	if matches > 0 {
		exit = 0
	}
	return Result{Stdout: out.String(), ExitCode: exit}
}
