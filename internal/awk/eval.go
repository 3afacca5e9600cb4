package awk

import (
	"fmt"
	"strings"
)

func (ip *interp) eval(e Expr) (value, error) {
	switch n := e.(type) {
	case NumberLit:
		return num(n.Value), nil
	case StringLit:
		return str(n.Value), nil
	case RegexLit:
		re, err := ip.compileRegex(n.Pattern)
		if err != nil {
			return value{}, err
		}
		if re.MatchString(ip.line) {
			return num(1), nil
		}
		return num(0), nil
	case GroupExpr:
		return ip.eval(n.X)
	case FieldExpr:
		idx, err := ip.eval(n.Index)
		if err != nil {
			return value{}, err
		}
		return ip.getField(int(idx.num())), nil
	case VarExpr:
		return ip.getScalar(n.Name), nil
	case ArrayIndexExpr:
		key, err := ip.evalSubscript(n.Index)
		if err != nil {
			return value{}, err
		}
		arr := ip.array(n.Name)
		return arr[key], nil
	case AssignExpr:
		return ip.evalAssign(n)
	case IncDecExpr:
		return ip.evalIncDec(n)
	case UnaryExpr:
		return ip.evalUnary(n)
	case BinaryExpr:
		return ip.evalBinary(n)
	case TernaryExpr:
		c, err := ip.eval(n.Cond)
		if err != nil {
			return value{}, err
		}
		if c.boolean() {
			return ip.eval(n.Then)
		}
		return ip.eval(n.Else)
	case MatchExpr:
		return ip.evalMatch(n)
	case InExpr:
		key, err := ip.evalSubscript(n.Index)
		if err != nil {
			return value{}, err
		}
		arr := ip.array(n.ArrayName)
		_, ok := arr[key]
		return boolVal(ok), nil
	case CallExpr:
		return ip.evalCall(n)
	case GetlineExpr:
		return ip.evalGetline(n.Target, n.Source)
	default:
		return value{}, fmt.Errorf("awk: unhandled expression %T", e)
	}
}

func boolVal(b bool) value {
	if b {
		return num(1)
	}
	return num(0)
}

func (ip *interp) evalSubscript(idx []Expr) (string, error) {
	parts := make([]string, len(idx))
	for i, e := range idx {
		v, err := ip.eval(e)
		if err != nil {
			return "", err
		}
		parts[i] = v.str(ip.convfmt)
	}
	return strings.Join(parts, ip.subsep), nil
}

// ---- Scalar / array storage, with local-frame shadowing for user
// functions (grounded on goawk's p.frame / p.arrays-by-scope split). ----

func (ip *interp) getScalar(name string) value {
	if special, ok := ip.getSpecialVar(name); ok {
		return special
	}
	if len(ip.locals) > 0 {
		if v, ok := ip.locals[len(ip.locals)-1][name]; ok {
			return *v
		}
	}
	return ip.globals[name]
}

func (ip *interp) setScalar(name string, v value) {
	if ip.setSpecialVar(name, v) {
		return
	}
	if len(ip.locals) > 0 {
		if slot, ok := ip.locals[len(ip.locals)-1][name]; ok {
			*slot = v
			return
		}
	}
	ip.globals[name] = v
}

func (ip *interp) array(name string) map[string]value {
	if len(ip.localAr) > 0 {
		if arr, ok := ip.localAr[len(ip.localAr)-1][name]; ok {
			return arr
		}
	}
	arr, ok := ip.arrays[name]
	if !ok {
		arr = make(map[string]value)
		ip.arrays[name] = arr
	}
	return arr
}

func (ip *interp) getSpecialVar(name string) (value, bool) {
	switch name {
	case "NF":
		return num(float64(ip.numFields)), true
	case "NR":
		return num(float64(ip.nr)), true
	case "FNR":
		return num(float64(ip.fnr)), true
	case "FS":
		return str(ip.fieldSep), true
	case "OFS":
		return str(ip.outFieldSep), true
	case "ORS":
		return str(ip.outRecordSep), true
	case "RS":
		return str(ip.recordSep), true
	case "SUBSEP":
		return str(ip.subsep), true
	case "CONVFMT":
		return str(ip.convfmt), true
	case "OFMT":
		return str(ip.ofmt), true
	case "RSTART":
		return num(float64(ip.rstart)), true
	case "RLENGTH":
		return num(float64(ip.rlength)), true
	case "FILENAME":
		return str(ip.filename), true
	}
	return value{}, false
}

func (ip *interp) setSpecialVar(name string, v value) bool {
	switch name {
	case "NF":
		ip.setNF(int(v.num()))
	case "NR":
		ip.nr = int(v.num())
	case "FNR":
		ip.fnr = int(v.num())
	case "FS":
		ip.fieldSep = v.str(ip.convfmt)
		ip.fieldSepRegex = nil
	case "OFS":
		ip.outFieldSep = v.str(ip.convfmt)
	case "ORS":
		ip.outRecordSep = v.str(ip.convfmt)
	case "RS":
		ip.recordSep = v.str(ip.convfmt)
	case "SUBSEP":
		ip.subsep = v.str(ip.convfmt)
	case "CONVFMT":
		ip.convfmt = v.str(ip.convfmt)
	case "OFMT":
		ip.ofmt = v.str(ip.convfmt)
	case "RSTART":
		ip.rstart = int(v.num())
	case "RLENGTH":
		ip.rlength = int(v.num())
	case "FILENAME":
		ip.filename = v.str(ip.convfmt)
	default:
		return false
	}
	return true
}

func (ip *interp) evalAssign(n AssignExpr) (value, error) {
	rhs, err := ip.eval(n.Value)
	if err != nil {
		return value{}, err
	}
	if n.Op != "=" {
		cur, err := ip.eval(n.Target)
		if err != nil {
			return value{}, err
		}
		rhs = arith(strings.TrimSuffix(n.Op, "="), cur, rhs)
	}
	if err := ip.assignTo(n.Target, rhs); err != nil {
		return value{}, err
	}
	return rhs, nil
}

func (ip *interp) assignTo(target Expr, v value) error {
	switch t := target.(type) {
	case VarExpr:
		ip.setScalar(t.Name, v)
		return nil
	case FieldExpr:
		idx, err := ip.eval(t.Index)
		if err != nil {
			return err
		}
		return ip.setField(int(idx.num()), v.str(ip.convfmt))
	case ArrayIndexExpr:
		key, err := ip.evalSubscript(t.Index)
		if err != nil {
			return err
		}
		ip.array(t.Name)[key] = v
		return nil
	default:
		return fmt.Errorf("awk: invalid assignment target %T", target)
	}
}

func (ip *interp) evalIncDec(n IncDecExpr) (value, error) {
	cur, err := ip.eval(n.Target)
	if err != nil {
		return value{}, err
	}
	delta := 1.0
	if n.Op == "--" {
		delta = -1.0
	}
	next := num(cur.num() + delta)
	if err := ip.assignTo(n.Target, next); err != nil {
		return value{}, err
	}
	if n.Prefix {
		return next, nil
	}
	return num(cur.num()), nil
}

func (ip *interp) evalUnary(n UnaryExpr) (value, error) {
	x, err := ip.eval(n.X)
	if err != nil {
		return value{}, err
	}
	switch n.Op {
	case "-":
		return num(-x.num()), nil
	case "+":
		return num(x.num()), nil
	case "!":
		return boolVal(!x.boolean()), nil
	}
	return value{}, fmt.Errorf("awk: unknown unary operator %q", n.Op)
}

func (ip *interp) evalBinary(n BinaryExpr) (value, error) {
	switch n.Op {
	case "&&":
		x, err := ip.eval(n.X)
		if err != nil {
			return value{}, err
		}
		if !x.boolean() {
			return num(0), nil
		}
		y, err := ip.eval(n.Y)
		if err != nil {
			return value{}, err
		}
		return boolVal(y.boolean()), nil
	case "||":
		x, err := ip.eval(n.X)
		if err != nil {
			return value{}, err
		}
		if x.boolean() {
			return num(1), nil
		}
		y, err := ip.eval(n.Y)
		if err != nil {
			return value{}, err
		}
		return boolVal(y.boolean()), nil
	}

	x, err := ip.eval(n.X)
	if err != nil {
		return value{}, err
	}
	y, err := ip.eval(n.Y)
	if err != nil {
		return value{}, err
	}

	switch n.Op {
	case "concat":
		return str(x.str(ip.convfmt) + y.str(ip.convfmt)), nil
	case "<", "<=", ">", ">=", "==", "!=":
		return boolVal(compare(n.Op, x, y)), nil
	default:
		return arith(n.Op, x, y), nil
	}
}

func arith(op string, x, y value) value {
	a, b := x.num(), y.num()
	switch op {
	case "+":
		return num(a + b)
	case "-":
		return num(a - b)
	case "*":
		return num(a * b)
	case "/":
		return num(a / b)
	case "%":
		return num(awkMod(a, b))
	case "^":
		return num(awkPow(a, b))
	}
	return num(0)
}

// compare implements awk's dual string/numeric comparison rule: numeric
// if both sides are numbers or numeric strings, string comparison
// otherwise.
func compare(op string, x, y value) bool {
	var less, equal bool
	if isNumericContext(x) && isNumericContext(y) {
		a, b := x.num(), y.num()
		less, equal = a < b, a == b
	} else {
		a, b := x.s, y.s
		if !x.isStr && !x.isNumStr {
			a = x.str("%.6g")
		}
		if !y.isStr && !y.isNumStr {
			b = y.str("%.6g")
		}
		less, equal = a < b, a == b
	}
	switch op {
	case "<":
		return less
	case "<=":
		return less || equal
	case ">":
		return !less && !equal
	case ">=":
		return !less
	case "==":
		return equal
	case "!=":
		return !equal
	}
	return false
}

func isNumericContext(v value) bool {
	return v.isNum || v.isNumStr || isNull(v)
}

func (ip *interp) evalMatch(n MatchExpr) (value, error) {
	x, err := ip.eval(n.X)
	if err != nil {
		return value{}, err
	}
	var pattern string
	if lit, ok := n.Y.(RegexLit); ok {
		pattern = lit.Pattern
	} else {
		y, err := ip.eval(n.Y)
		if err != nil {
			return value{}, err
		}
		pattern = y.str(ip.convfmt)
	}
	re, err := ip.compileRegex(pattern)
	if err != nil {
		return value{}, err
	}
	matched := re.MatchString(x.str(ip.convfmt))
	if n.Negate {
		matched = !matched
	}
	return boolVal(matched), nil
}

func (ip *interp) evalGetline(target Expr, src *GetlineSource) (value, error) {
	var line string
	var ok bool

	if src == nil || src.Kind == "" {
		if ip.cfg.Stdin == nil {
			return num(0), nil
		}
		sc, scErr := ip.getlineScanner("stdin", "")
		if scErr != nil {
			return num(-1), nil
		}
		ok = sc.Scan()
		line = sc.Text()
	} else {
		name := ""
		if src.Expr != nil {
			v, evErr := ip.eval(src.Expr)
			if evErr != nil {
				return value{}, evErr
			}
			name = v.str(ip.convfmt)
		}
		sc, scErr := ip.getlineScanner(src.Kind, name)
		if scErr != nil {
			if scErr == errGetlineIOError {
				return num(-1), nil
			}
			return value{}, scErr
		}
		ok = sc.Scan()
		line = sc.Text()
	}
	if !ok {
		return num(0), nil
	}

	if src != nil && src.Kind != "" {
		ip.fnr++
	}
	ip.nr++

	if target == nil {
		ip.setRecord(line)
	} else if err := ip.assignTo(target, numStr(line)); err != nil {
		return value{}, err
	}
	return num(1), nil
}

