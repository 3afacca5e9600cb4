package builtin

import (
	"context"
	"strings"

	"github.com/kazz187/vbash/internal/awk"
)

// runAwk delegates to the self-contained internal/awk runtime, translating
// the registry's (args, CommandContext) shape into awk.Config: the
// -F separator flag, -v name=value pre-assignments, the program text (first
// non-flag argument), and any further arguments as ARGV input filenames.
func runAwk(_ context.Context, args []string, cctx *CommandContext) Result {
	vars := map[string]string{}
	fieldSep := ""
	var rest []string
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-F" && i+1 < len(args):
			fieldSep = args[i+1]
			i++
		case args[i] == "-v" && i+1 < len(args):
			if name, val, ok := strings.Cut(args[i+1], "="); ok {
				vars[name] = val
			}
			i++
		default:
			rest = append(rest, args[i])
		}
	}
	if len(rest) == 0 {
		return usageResult("awk", "usage: awk [-F fs] [-v var=val] 'program' [file ...]")
	}
	if fieldSep != "" {
		vars["FS"] = fieldSep
	}
	src := rest[0]
	prog, err := awk.ParseProgram(src)
	if err != nil {
		return errResult("awk", err)
	}

	input := cctx.Stdin
	if len(rest) > 1 {
		var b strings.Builder
		for _, f := range rest[1:] {
			data, rerr := cctx.FS.Read(resolveArg(cctx, f))
			if rerr != nil {
				return errResult("awk", rerr)
			}
			b.Write(data)
		}
		input = b.String()
	}

	environ := make(map[string]string, len(cctx.Env))
	for k, v := range cctx.Env {
		environ[k] = v
	}

	var out strings.Builder
	exitCode, runErr := awk.Run(prog, awk.Config{
		Stdin:   strings.NewReader(input),
		Output:  &out,
		Error:   &out,
		Args:    rest[1:],
		Vars:    vars,
		Environ: environ,
		FS:      cctx.FS,
		Cwd:     cctx.Cwd,
		Limits:  cctx.Limits,
		Exec: func(cmdLine string) (string, int, error) {
			res, err := cctx.Exec(cmdLine, nil)
			if err != nil {
				return "", -1, err
			}
			return res.Stdout, res.ExitCode, nil
		},
	})
	if runErr != nil {
		return errResult("awk", runErr)
	}
	return Result{Stdout: out.String(), ExitCode: exitCode}
}
