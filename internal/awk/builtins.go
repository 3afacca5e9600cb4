package awk

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

func awkMod(a, b float64) float64 {
	if b == 0 {
		return math.NaN()
	}
	return math.Mod(a, b)
}

func awkPow(a, b float64) float64 { return math.Pow(a, b) }

// evalCall dispatches a CallExpr to either a built-in function or a
// user-defined one (spec.md §4.5's full built-in list plus user
// functions with call-by-value scalars / call-by-reference arrays,
// grounded on goawk's nativeFuncs + compiler.Function split, collapsed
// here into one dispatch table since this tree-walker has no bytecode
// compile step to separate them at).
func (ip *interp) evalCall(n CallExpr) (value, error) {
	if fn, ok := ip.prog.Functions[n.Name]; ok {
		return ip.callUserFunc(fn, n.Args)
	}
	return ip.callBuiltin(n.Name, n.Args)
}

func (ip *interp) callUserFunc(fn *FuncDecl, argExprs []Expr) (value, error) {
	if ip.cfg.Limits != nil {
		exit, err := ip.cfg.Limits.EnterCall()
		if err != nil {
			return value{}, err
		}
		defer exit()
	}

	scalarFrame := make(map[string]*value)
	arrayFrame := make(map[string]map[string]value)

	for i, param := range fn.Params {
		if i >= len(argExprs) {
			v := value{}
			scalarFrame[param] = &v
			continue
		}
		// An argument passed as a bare array name is call-by-reference;
		// everything else (scalars, expressions) is call-by-value.
		if ve, ok := argExprs[i].(VarExpr); ok && ip.isArrayName(ve.Name) {
			arrayFrame[param] = ip.array(ve.Name)
			continue
		}
		// A bare name not yet used as anything (`fill(m)` on a fresh m) may be
		// filled in as an array by the callee: bind it by reference to a new
		// global array, with an empty scalar slot in case it is used as one.
		if ve, ok := argExprs[i].(VarExpr); ok {
			_, special := ip.getSpecialVar(ve.Name)
			_, global := ip.globals[ve.Name]
			local := len(ip.locals) > 0 && ip.locals[len(ip.locals)-1][ve.Name] != nil
			if !special && !global && !local {
				arrayFrame[param] = ip.array(ve.Name)
				v := value{}
				scalarFrame[param] = &v
				continue
			}
		}
		v, err := ip.eval(argExprs[i])
		if err != nil {
			return value{}, err
		}
		vv := v
		scalarFrame[param] = &vv
	}

	ip.locals = append(ip.locals, scalarFrame)
	ip.localAr = append(ip.localAr, arrayFrame)
	ip.ctrl = signalNone
	err := ip.execList(fn.Body)
	ip.locals = ip.locals[:len(ip.locals)-1]
	ip.localAr = ip.localAr[:len(ip.localAr)-1]

	ret := ip.returnVal
	ip.returnVal = value{}
	if ip.ctrl == signalReturn {
		ip.ctrl = signalNone
	}
	if err != nil {
		return value{}, err
	}
	return ret, nil
}

// isArrayName reports whether name is already known to be an array
// (either globally or via an enclosing call's by-reference frame) — used
// to decide call-by-reference at a call site where the callee's own
// parameter usage hasn't been analyzed ahead of time.
func (ip *interp) isArrayName(name string) bool {
	if len(ip.localAr) > 0 {
		if _, ok := ip.localAr[len(ip.localAr)-1][name]; ok {
			return true
		}
	}
	if len(ip.locals) > 0 {
		if _, ok := ip.locals[len(ip.locals)-1][name]; ok {
			return false
		}
	}
	_, ok := ip.arrays[name]
	return ok
}

func (ip *interp) callBuiltin(name string, argExprs []Expr) (value, error) {
	// sub/gsub evaluate their own arguments (including the lvalue target)
	// exactly once inside callSubGsub; pre-evaluating them here too would
	// double any side effects a call-site expression carries.
	if name == "sub" || name == "gsub" {
		return ip.callSubGsub(name, argExprs)
	}

	args := make([]value, len(argExprs))
	for i, a := range argExprs {
		// split's second argument is an array name taken by lvalue;
		// evaluated specially below instead of here.
		if i > 0 && (name == "split") && i == 1 {
			continue
		}
		v, err := ip.eval(a)
		if err != nil {
			return value{}, err
		}
		args[i] = v
	}

	switch name {
	case "length":
		if len(argExprs) == 0 {
			return num(float64(len([]rune(ip.line)))), nil
		}
		if ve, ok := argExprs[0].(VarExpr); ok && ip.isArrayName(ve.Name) {
			return num(float64(len(ip.array(ve.Name)))), nil
		}
		return num(float64(len([]rune(args[0].str(ip.convfmt))))), nil

	case "substr":
		s := []rune(args[0].str(ip.convfmt))
		start := int(args[1].num())
		length := len(s) - start + 1
		if len(args) > 2 {
			length = int(args[2].num())
		}
		return str(substrRunes(s, start, length)), nil

	case "index":
		s := args[0].str(ip.convfmt)
		sub := args[1].str(ip.convfmt)
		return num(float64(strings.Index(s, sub) + 1)), nil

	case "split":
		s := args[0].str(ip.convfmt)
		arrExpr, ok := argExprs[1].(VarExpr)
		if !ok {
			return value{}, fmt.Errorf("awk: split's second argument must be an array name")
		}
		sep := ip.fieldSep
		if len(argExprs) > 2 {
			v, err := ip.eval(argExprs[2])
			if err != nil {
				return value{}, err
			}
			sep = v.str(ip.convfmt)
		}
		parts := splitAwk(s, sep, ip)
		arr := ip.array(arrExpr.Name)
		for k := range arr {
			delete(arr, k)
		}
		for i, p := range parts {
			arr[strconv.Itoa(i+1)] = numStr(p)
		}
		return num(float64(len(parts))), nil

	case "match":
		s := args[0].str(ip.convfmt)
		pattern := args[1].str(ip.convfmt)
		re, err := ip.compileRegex(pattern)
		if err != nil {
			return value{}, err
		}
		loc := re.FindStringIndex(s)
		if loc == nil {
			ip.rstart, ip.rlength = 0, -1
		} else {
			ip.rstart = len([]rune(s[:loc[0]])) + 1
			ip.rlength = len([]rune(s[loc[0]:loc[1]]))
		}
		return num(float64(ip.rstart)), nil

	case "sprintf":
		if len(args) == 0 {
			return str(""), nil
		}
		out, err := ip.sprintf(args[0].str(ip.convfmt), args[1:])
		if err != nil {
			return value{}, err
		}
		return str(out), nil

	case "sin":
		return num(math.Sin(args[0].num())), nil
	case "cos":
		return num(math.Cos(args[0].num())), nil
	case "atan2":
		return num(math.Atan2(args[0].num(), args[1].num())), nil
	case "exp":
		return num(math.Exp(args[0].num())), nil
	case "log":
		return num(math.Log(args[0].num())), nil
	case "sqrt":
		return num(math.Sqrt(args[0].num())), nil
	case "int":
		return num(math.Trunc(args[0].num())), nil
	case "rand":
		return num(ip.random.Float64()), nil
	case "srand":
		prev := ip.randSeed
		if len(args) > 0 {
			ip.randSeed = args[0].num()
		} else {
			ip.randSeed = float64(ip.nr)
		}
		ip.random.Seed(int64(ip.randSeed))
		return num(prev), nil
	case "tolower":
		return str(strings.ToLower(args[0].str(ip.convfmt))), nil
	case "toupper":
		return str(strings.ToUpper(args[0].str(ip.convfmt))), nil
	case "system":
		if ip.cfg.Exec == nil {
			return num(-1), nil
		}
		_, code, err := ip.cfg.Exec(args[0].str(ip.convfmt))
		if err != nil {
			return num(-1), nil
		}
		return num(float64(code)), nil
	case "close":
		name := args[0].str(ip.convfmt)
		if w, ok := ip.outStreams[name]; ok {
			delete(ip.outStreams, name)
			return num(0), w.Close()
		}
		for k := range ip.inStreams {
			if strings.HasSuffix(k, ":"+name) {
				delete(ip.inStreams, k)
				return num(0), nil
			}
		}
		return num(-1), nil
	case "fflush":
		return num(0), nil
	default:
		return value{}, fmt.Errorf("awk: unknown function %q", name)
	}
}

func substrRunes(s []rune, start, length int) string {
	if start < 1 {
		length += start - 1
		start = 1
	}
	if length < 0 {
		length = 0
	}
	begin := start - 1
	if begin > len(s) {
		return ""
	}
	end := begin + length
	if end > len(s) {
		end = len(s)
	}
	if begin < 0 {
		begin = 0
	}
	if end < begin {
		return ""
	}
	return string(s[begin:end])
}

func splitAwk(s, sep string, ip *interp) []string {
	if s == "" {
		return nil
	}
	switch {
	case sep == " ":
		return strings.Fields(s)
	case sep == "":
		return strings.Split(s, "")
	case len(sep) == 1:
		return strings.Split(s, sep)
	default:
		re, err := ip.compileRegex(sep)
		if err != nil {
			return strings.Split(s, sep)
		}
		return re.Split(s, -1)
	}
}

// callSubGsub implements sub()/gsub(), whose third argument (defaulting
// to $0) is an lvalue that the match result is written back into.
func (ip *interp) callSubGsub(name string, argExprs []Expr) (value, error) {
	if len(argExprs) < 2 {
		return value{}, fmt.Errorf("awk: %s requires at least 2 arguments", name)
	}
	var pattern string
	if lit, ok := argExprs[0].(RegexLit); ok {
		pattern = lit.Pattern
	} else {
		patV, err := ip.eval(argExprs[0])
		if err != nil {
			return value{}, err
		}
		pattern = patV.str(ip.convfmt)
	}
	replV, err := ip.eval(argExprs[1])
	if err != nil {
		return value{}, err
	}
	var target Expr = FieldExpr{Index: NumberLit{Value: 0}}
	if len(argExprs) > 2 {
		target = argExprs[2]
	}
	cur, err := ip.eval(target)
	if err != nil {
		return value{}, err
	}
	re, err := ip.compileRegex(pattern)
	if err != nil {
		return value{}, err
	}
	src := cur.str(ip.convfmt)
	repl := replV.str(ip.convfmt)
	count := 0
	all := name == "gsub"

	out := replaceMatches(re, src, repl, all, &count)
	if count > 0 {
		if err := ip.assignTo(target, str(out)); err != nil {
			return value{}, err
		}
	}
	return num(float64(count)), nil
}

// replaceMatches performs awk-style replacement where "&" in repl is the
// matched text and "\\&" is a literal ampersand.
func replaceMatches(re interface{ FindAllStringIndex(string, int) [][]int }, src, repl string, all bool, count *int) string {
	limit := -1
	if !all {
		limit = 1
	}
	matches := re.FindAllStringIndex(src, limit)
	if len(matches) == 0 {
		return src
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(src[last:m[0]])
		b.WriteString(expandAmpersand(repl, src[m[0]:m[1]]))
		last = m[1]
		*count++
	}
	b.WriteString(src[last:])
	return b.String()
}

func expandAmpersand(repl, matched string) string {
	var b strings.Builder
	for i := 0; i < len(repl); i++ {
		c := repl[i]
		if c == '\\' && i+1 < len(repl) && repl[i+1] == '&' {
			b.WriteByte('&')
			i++
			continue
		}
		if c == '&' {
			b.WriteString(matched)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
