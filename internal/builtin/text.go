package builtin

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
)

// runEcho implements the POSIX-ish echo spec.md §4.6 names: a trailing
// newline by default, -n to suppress it, -e to interpret backslash escapes.
func runEcho(_ context.Context, args []string, _ *CommandContext) Result {
	noNewline := false
	interpret := false
	i := 0
	for i < len(args) {
		switch args[i] {
		case "-n":
			noNewline = true
		case "-e":
			interpret = true
		case "-E":
			interpret = false
		default:
			goto done
		}
		i++
	}
done:
	parts := args[i:]
	out := strings.Join(parts, " ")
	if interpret {
		out = interpretEchoEscapes(out)
	}
	if !noNewline {
		out += "\n"
	}
	return Result{Stdout: out}
}

func interpretEchoEscapes(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// runCat concatenates its file arguments (read through the shared VFS) or,
// with none given, echoes stdin unchanged.
func runCat(_ context.Context, args []string, cctx *CommandContext) Result {
	files := stripFlags(args)
	if len(files) == 0 {
		return Result{Stdout: cctx.Stdin}
	}
	var out strings.Builder
	for _, f := range files {
		data, err := cctx.FS.Read(resolveArg(cctx, f))
		if err != nil {
			return Result{Stdout: out.String(), Stderr: fmt.Sprintf("cat: %s\n", err), ExitCode: 1}
		}
		out.Write(data)
	}
	return Result{Stdout: out.String()}
}

func resolveArg(cctx *CommandContext, p string) string {
	resolved, err := cctx.FS.ResolvePath(p, cctx.Cwd)
	if err != nil {
		return p
	}
	return resolved
}

func stripFlags(args []string) []string {
	var out []string
	for _, a := range args {
		if strings.HasPrefix(a, "-") && a != "-" {
			continue
		}
		out = append(out, a)
	}
	return out
}

func linesOf(s string) []string {
	if s == "" {
		return nil
	}
	trimmed := strings.TrimSuffix(s, "\n")
	return strings.Split(trimmed, "\n")
}

func readInput(args []string, cctx *CommandContext) (string, error) {
	files := stripFlags(args)
	if len(files) == 0 {
		return cctx.Stdin, nil
	}
	var out strings.Builder
	for _, f := range files {
		data, err := cctx.FS.Read(resolveArg(cctx, f))
		if err != nil {
			return "", err
		}
		out.Write(data)
	}
	return out.String(), nil
}

// runHead prints the first N lines (default 10, -n to override).
func runHead(_ context.Context, args []string, cctx *CommandContext) Result {
	n := 10
	var rest []string
	for i := 0; i < len(args); i++ {
		if args[i] == "-n" && i+1 < len(args) {
			n, _ = strconv.Atoi(args[i+1])
			i++
			continue
		}
		if strings.HasPrefix(args[i], "-n") && len(args[i]) > 2 {
			n, _ = strconv.Atoi(args[i][2:])
			continue
		}
		rest = append(rest, args[i])
	}
	in, err := readInput(rest, cctx)
	if err != nil {
		return errResult("head", err)
	}
	lines := linesOf(in)
	if n < len(lines) {
		lines = lines[:n]
	}
	return Result{Stdout: joinLines(lines)}
}

// runTail prints the last N lines (default 10, -n to override).
func runTail(_ context.Context, args []string, cctx *CommandContext) Result {
	n := 10
	var rest []string
	for i := 0; i < len(args); i++ {
		if args[i] == "-n" && i+1 < len(args) {
			n, _ = strconv.Atoi(args[i+1])
			i++
			continue
		}
		if strings.HasPrefix(args[i], "-n") && len(args[i]) > 2 {
			n, _ = strconv.Atoi(args[i][2:])
			continue
		}
		rest = append(rest, args[i])
	}
	in, err := readInput(rest, cctx)
	if err != nil {
		return errResult("tail", err)
	}
	lines := linesOf(in)
	if n < len(lines) {
		lines = lines[len(lines)-n:]
	}
	return Result{Stdout: joinLines(lines)}
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// runWc counts lines/words/bytes; -l/-w/-c select one count, default prints
// all three.
func runWc(_ context.Context, args []string, cctx *CommandContext) Result {
	var lines, words, chars bool
	var rest []string
	for _, a := range args {
		switch a {
		case "-l":
			lines = true
		case "-w":
			words = true
		case "-c":
			chars = true
		default:
			rest = append(rest, a)
		}
	}
	if !lines && !words && !chars {
		lines, words, chars = true, true, true
	}
	in, err := readInput(rest, cctx)
	if err != nil {
		return errResult("wc", err)
	}
	nl := strings.Count(in, "\n")
	nw := len(strings.Fields(in))
	nc := len(in)
	var parts []string
	if lines {
		parts = append(parts, strconv.Itoa(nl))
	}
	if words {
		parts = append(parts, strconv.Itoa(nw))
	}
	if chars {
		parts = append(parts, strconv.Itoa(nc))
	}
	return Result{Stdout: strings.Join(parts, " ") + "\n"}
}

// runCut implements the -d/-f (delimiter/field-list) subset of cut.
func runCut(_ context.Context, args []string, cctx *CommandContext) Result {
	delim := "\t"
	var fieldSpec string
	var rest []string
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-d" && i+1 < len(args):
			delim = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-d") && len(args[i]) > 2:
			delim = args[i][2:]
		case args[i] == "-f" && i+1 < len(args):
			fieldSpec = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-f") && len(args[i]) > 2:
			fieldSpec = args[i][2:]
		default:
			rest = append(rest, args[i])
		}
	}
	if fieldSpec == "" {
		return usageResult("cut", "you must specify a list of fields")
	}
	fields := parseFieldList(fieldSpec)
	in, err := readInput(rest, cctx)
	if err != nil {
		return errResult("cut", err)
	}
	var out strings.Builder
	for _, line := range linesOf(in) {
		cols := strings.Split(line, delim)
		var picked []string
		for _, f := range fields {
			if f >= 1 && f <= len(cols) {
				picked = append(picked, cols[f-1])
			}
		}
		out.WriteString(strings.Join(picked, delim))
		out.WriteByte('\n')
	}
	return Result{Stdout: out.String()}
}

func parseFieldList(spec string) []int {
	var out []int
	for _, part := range strings.Split(spec, ",") {
		if strings.Contains(part, "-") {
			bounds := strings.SplitN(part, "-", 2)
			lo, _ := strconv.Atoi(bounds[0])
			hi, _ := strconv.Atoi(bounds[1])
			for i := lo; i <= hi; i++ {
				out = append(out, i)
			}
			continue
		}
		n, err := strconv.Atoi(part)
		if err == nil {
			out = append(out, n)
		}
	}
	return out
}

// runTr implements the single-set-to-single-set transliteration form and -d
// (delete characters in the first set).
func runTr(_ context.Context, args []string, cctx *CommandContext) Result {
	deleteMode := false
	var sets []string
	for _, a := range args {
		if a == "-d" {
			deleteMode = true
			continue
		}
		sets = append(sets, a)
	}
	if len(sets) == 0 {
		return usageResult("tr", "missing operand")
	}
	from := expandTrSet(sets[0])
	in := cctx.Stdin
	if deleteMode {
		var b strings.Builder
		for _, r := range in {
			if strings.ContainsRune(from, r) {
				continue
			}
			b.WriteRune(r)
		}
		return Result{Stdout: b.String()}
	}
	if len(sets) < 2 {
		return usageResult("tr", "missing operand after the first set")
	}
	to := expandTrSet(sets[1])
	var b strings.Builder
	for _, r := range in {
		idx := strings.IndexRune(from, r)
		if idx >= 0 && len(to) > 0 {
			replacement := []rune(to)
			if idx >= len(replacement) {
				idx = len(replacement) - 1
			}
			b.WriteRune(replacement[idx])
			continue
		}
		b.WriteRune(r)
	}
	return Result{Stdout: b.String()}
}

func expandTrSet(s string) string {
	switch s {
	case "[:upper:]":
		return "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	case "[:lower:]":
		return "abcdefghijklmnopqrstuvwxyz"
	case "[:digit:]":
		return "0123456789"
	default:
		return s
	}
}

// runSort sorts input lines lexically (-r reverses, -n sorts numerically,
// -u dedupes after sorting).
func runSort(_ context.Context, args []string, cctx *CommandContext) Result {
	var reverse, numeric, unique bool
	var rest []string
	for _, a := range args {
		switch a {
		case "-r":
			reverse = true
		case "-n":
			numeric = true
		case "-u":
			unique = true
		default:
			rest = append(rest, a)
		}
	}
	in, err := readInput(rest, cctx)
	if err != nil {
		return errResult("sort", err)
	}
	lines := linesOf(in)
	sortLines(lines, numeric)
	if reverse {
		reverseStrings(lines)
	}
	if unique {
		lines = dedupeAdjacent(lines)
	}
	return Result{Stdout: joinLines(lines)}
}

func sortLines(lines []string, numeric bool) {
	if !numeric {
		simpleSort(lines, func(a, b string) bool { return a < b })
		return
	}
	simpleSort(lines, func(a, b string) bool {
		na, _ := strconv.ParseFloat(strings.TrimSpace(a), 64)
		nb, _ := strconv.ParseFloat(strings.TrimSpace(b), 64)
		return na < nb
	})
}

func simpleSort(lines []string, less func(a, b string) bool) {
	for i := 1; i < len(lines); i++ {
		for j := i; j > 0 && less(lines[j], lines[j-1]); j-- {
			lines[j], lines[j-1] = lines[j-1], lines[j]
		}
	}
}

func reverseStrings(lines []string) {
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
}

func dedupeAdjacent(lines []string) []string {
	var out []string
	for i, l := range lines {
		if i == 0 || l != lines[i-1] {
			out = append(out, l)
		}
	}
	return out
}

// runUniq collapses adjacent duplicate lines; -c prefixes each with its count.
func runUniq(_ context.Context, args []string, cctx *CommandContext) Result {
	var count bool
	var rest []string
	for _, a := range args {
		if a == "-c" {
			count = true
			continue
		}
		rest = append(rest, a)
	}
	in, err := readInput(rest, cctx)
	if err != nil {
		return errResult("uniq", err)
	}
	lines := linesOf(in)
	var out strings.Builder
	i := 0
	for i < len(lines) {
		j := i + 1
		for j < len(lines) && lines[j] == lines[i] {
			j++
		}
		if count {
			fmt.Fprintf(&out, "%6d %s\n", j-i, lines[i])
		} else {
			out.WriteString(lines[i])
			out.WriteByte('\n')
		}
		i = j
	}
	return Result{Stdout: out.String()}
}

// runBasename/runDirname mirror path.Base/path.Dir.
func runBasename(_ context.Context, args []string, _ *CommandContext) Result {
	files := stripFlags(args)
	if len(files) == 0 {
		return usageResult("basename", "missing operand")
	}
	base := path.Base(files[0])
	if len(files) > 1 {
		base = strings.TrimSuffix(base, files[1])
	}
	return Result{Stdout: base + "\n"}
}

func runDirname(_ context.Context, args []string, _ *CommandContext) Result {
	files := stripFlags(args)
	if len(files) == 0 {
		return usageResult("dirname", "missing operand")
	}
	return Result{Stdout: path.Dir(files[0]) + "\n"}
}
