package builtin

import (
	"context"
	"path"
	"strings"

	"github.com/kazz187/vbash/internal/vfs"
)

// runXargs reads whitespace-separated tokens from stdin, appends them to
// the given command template, and re-enters the shell via cctx.Exec — the
// same callback find -exec and awk's system()/command pipes use to call
// back into internal/shell.Bash.Exec rather than computing a result locally.
func runXargs(_ context.Context, args []string, cctx *CommandContext) Result {
	if len(args) == 0 {
		return usageResult("xargs", "missing command")
	}
	tokens := strings.Fields(cctx.Stdin)
	cmdLine := strings.Join(args, " ")
	if len(tokens) > 0 {
		cmdLine += " " + strings.Join(tokens, " ")
	}
	res, err := cctx.Exec(cmdLine, nil)
	if err != nil {
		return errResult("xargs", err)
	}
	return Result{Stdout: res.Stdout, Stderr: res.Stderr, ExitCode: res.ExitCode}
}

// runFind implements a small subset over the VFS: `find <path> [-name
// pattern] [-type f|d] [-exec cmd {} \;]`.
func runFind(_ context.Context, args []string, cctx *CommandContext) Result {
	if len(args) == 0 {
		return usageResult("find", "missing path")
	}
	root := resolveArg(cctx, args[0])
	var namePattern, typeFilter string
	var execTemplate []string
	i := 1
	for i < len(args) {
		switch args[i] {
		case "-name":
			if i+1 < len(args) {
				namePattern = args[i+1]
				i++
			}
		case "-type":
			if i+1 < len(args) {
				typeFilter = args[i+1]
				i++
			}
		case "-exec":
			j := i + 1
			for j < len(args) && args[j] != ";" && args[j] != "\\;" {
				j++
			}
			execTemplate = args[i+1 : j]
			i = j
		}
		i++
	}

	var matches []string
	if err := walkVFS(cctx.FS, root, &matches); err != nil {
		return errResult("find", err)
	}

	var out strings.Builder
	for _, p := range matches {
		info, err := cctx.FS.Stat(p)
		if err != nil {
			continue
		}
		if namePattern != "" {
			if ok, _ := path.Match(namePattern, path.Base(p)); !ok {
				continue
			}
		}
		if typeFilter == "f" && info.IsDir() {
			continue
		}
		if typeFilter == "d" && !info.IsDir() {
			continue
		}
		if len(execTemplate) > 0 {
			cmdLine := substitutePlaceholder(execTemplate, p)
			res, err := cctx.Exec(cmdLine, nil)
			if err != nil {
				return errResult("find", err)
			}
			out.WriteString(res.Stdout)
			continue
		}
		out.WriteString(p)
		out.WriteByte('\n')
	}
	return Result{Stdout: out.String()}
}

func substitutePlaceholder(template []string, value string) string {
	parts := make([]string, len(template))
	for i, t := range template {
		parts[i] = strings.ReplaceAll(t, "{}", value)
	}
	return strings.Join(parts, " ")
}

func walkVFS(fs *vfs.FS, root string, out *[]string) error {
	info, err := fs.Stat(root)
	if err != nil {
		return err
	}
	*out = append(*out, root)
	if !info.IsDir() {
		return nil
	}
	children, err := fs.ReadDir(root)
	if err != nil {
		return err
	}
	for _, c := range children {
		childPath := path.Join(root, c.Name())
		if err := walkVFS(fs, childPath, out); err != nil {
			return err
		}
	}
	return nil
}
