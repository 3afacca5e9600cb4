package builtin

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// runPrintf implements the shell `printf` builtin's format-string subset
// (%d %s %f %% plus width/precision), recycling arguments over the format
// string when there are more arguments than conversions — POSIX printf's
// defining quirk that fmt.Sprintf doesn't have.
func runPrintf(_ context.Context, args []string, _ *CommandContext) Result {
	if len(args) == 0 {
		return usageResult("printf", "usage: printf format [arguments]")
	}
	format := unescapePrintfFormat(args[0])
	vals := args[1:]

	var out strings.Builder
	if len(vals) == 0 {
		rendered, err := renderPrintf(format, &vals)
		if err != nil {
			return errResult("printf", err)
		}
		out.WriteString(rendered)
		return Result{Stdout: out.String()}
	}
	for len(vals) > 0 {
		before := len(vals)
		rendered, err := renderPrintf(format, &vals)
		if err != nil {
			return errResult("printf", err)
		}
		out.WriteString(rendered)
		if len(vals) == before {
			break // format consumed no conversions; avoid looping forever
		}
	}
	return Result{Stdout: out.String()}
}

func unescapePrintfFormat(f string) string {
	replacer := strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\r`, "\r", `\\`, "\\")
	return replacer.Replace(f)
}

func renderPrintf(format string, vals *[]string) (string, error) {
	var out strings.Builder
	next := func() string {
		if len(*vals) == 0 {
			return ""
		}
		v := (*vals)[0]
		*vals = (*vals)[1:]
		return v
	}
	i := 0
	for i < len(format) {
		c := format[i]
		if c != '%' {
			out.WriteByte(c)
			i++
			continue
		}
		i++
		if i < len(format) && format[i] == '%' {
			out.WriteByte('%')
			i++
			continue
		}
		start := i
		for i < len(format) && strings.ContainsRune("-+0123456789.", rune(format[i])) {
			i++
		}
		if i >= len(format) {
			return "", fmt.Errorf("incomplete format specifier")
		}
		spec := format[start:i]
		verb := format[i]
		i++
		goFmt := "%" + spec
		switch verb {
		case 'd', 'i':
			n, _ := strconv.ParseInt(strings.TrimSpace(next()), 10, 64)
			fmt.Fprintf(&out, goFmt+"d", n)
		case 'f':
			n, _ := strconv.ParseFloat(strings.TrimSpace(next()), 64)
			fmt.Fprintf(&out, goFmt+"f", n)
		case 's':
			fmt.Fprintf(&out, goFmt+"s", next())
		default:
			return "", fmt.Errorf("unsupported format verb %%%c", verb)
		}
	}
	return out.String(), nil
}
