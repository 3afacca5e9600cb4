package awk

import (
	"fmt"
	"strconv"
	"strings"
)

// sprintf implements awk's printf/sprintf format directives (%d %i %o %x
// %X %u %c %s %e %E %f %g %G %%), including the width/precision/flag
// syntax and "*" for a width or precision taken from the argument list,
// matching the table spec.md §4.5 enumerates for the full printf
// implementation (distinct from the thin shell `printf` builtin in
// internal/builtin, which has its own smaller formatter).
func (ip *interp) sprintf(format string, args []value) (string, error) {
	var out strings.Builder
	argi := 0
	nextArg := func() value {
		if argi < len(args) {
			v := args[argi]
			argi++
			return v
		}
		argi++
		return value{}
	}

	i := 0
	for i < len(format) {
		c := format[i]
		if c != '%' {
			out.WriteByte(c)
			i++
			continue
		}
		start := i
		i++
		if i < len(format) && format[i] == '%' {
			out.WriteByte('%')
			i++
			continue
		}
		spec, rest, err := parseFormatSpec(format[i:], nextArg)
		if err != nil {
			return "", err
		}
		i += rest
		_ = start
		val := nextArg()
		piece, err := formatOne(spec, val, ip.convfmt)
		if err != nil {
			return "", err
		}
		out.WriteString(piece)
	}
	return out.String(), nil
}

type formatSpec struct {
	flags     string
	width     int
	hasWidth  bool
	precision int
	hasPrec   bool
	verb      byte
}

func parseFormatSpec(s string, nextArg func() value) (formatSpec, int, error) {
	var spec formatSpec
	i := 0
	for i < len(s) && strings.ContainsRune("-+ 0#", rune(s[i])) {
		spec.flags += string(s[i])
		i++
	}
	if i < len(s) && s[i] == '*' {
		spec.width = int(nextArg().num())
		spec.hasWidth = true
		i++
	} else {
		j := i
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		if j > i {
			spec.width, _ = strconv.Atoi(s[i:j])
			spec.hasWidth = true
			i = j
		}
	}
	if i < len(s) && s[i] == '.' {
		i++
		if i < len(s) && s[i] == '*' {
			spec.precision = int(nextArg().num())
			spec.hasPrec = true
			i++
		} else {
			j := i
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			spec.precision, _ = strconv.Atoi(s[i:j])
			spec.hasPrec = true
			i = j
		}
	}
	if i >= len(s) {
		return spec, i, fmt.Errorf("awk: printf: incomplete format specifier")
	}
	spec.verb = s[i]
	i++
	return spec, i, nil
}

func formatOne(spec formatSpec, v value, convfmt string) (string, error) {
	goFmt := "%" + spec.flags
	if spec.hasWidth {
		goFmt += strconv.Itoa(spec.width)
	}
	if spec.hasPrec {
		goFmt += "." + strconv.Itoa(spec.precision)
	}

	switch spec.verb {
	case 'd', 'i':
		return fmt.Sprintf(goFmt+"d", int64(v.num())), nil
	case 'o':
		return fmt.Sprintf(goFmt+"o", int64(v.num())), nil
	case 'x':
		return fmt.Sprintf(goFmt+"x", int64(v.num())), nil
	case 'X':
		return fmt.Sprintf(goFmt+"X", int64(v.num())), nil
	case 'u':
		return fmt.Sprintf(goFmt+"d", uint64(v.num())), nil
	case 'c':
		s := v.str(convfmt)
		if v.isNum && s == "" {
			return fmt.Sprintf(goFmt+"c", rune(int(v.num()))), nil
		}
		if len(s) == 0 {
			return "", nil
		}
		return fmt.Sprintf(goFmt+"c", []rune(s)[0]), nil
	case 's':
		return fmt.Sprintf(goFmt+"s", v.str(convfmt)), nil
	case 'e':
		return fmt.Sprintf(goFmt+"e", v.num()), nil
	case 'E':
		return fmt.Sprintf(goFmt+"E", v.num()), nil
	case 'f', 'F':
		return fmt.Sprintf(goFmt+"f", v.num()), nil
	case 'g':
		return fmt.Sprintf(goFmt+"g", v.num()), nil
	case 'G':
		return fmt.Sprintf(goFmt+"G", v.num()), nil
	default:
		return "", fmt.Errorf("awk: printf: unknown verb %%%c", spec.verb)
	}
}

// sprintfOne renders a single float with a convfmt-style ("%.6g") format
// string — the narrow case value.str/formatNum need without pulling in
// the full printf argument-list machinery above.
func sprintfOne(format string, n float64) string {
	return fmt.Sprintf(format, n)
}
