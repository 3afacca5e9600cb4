package awk

import (
	"fmt"
)

// parser is a recursive-descent parser producing a *Program from awk
// source text. Grounded on the grammar shape (BEGIN/END/pattern-action,
// full C-like expression precedence, getline in all its forms) spec.md
// §4.5 enumerates; goawk's parser.go confirms the same rule structure
// (range patterns, no-pattern-means-print-$0) this parser implements
// directly against its own AST rather than goawk's compiled one.
type parser struct {
	lex  *lexer
	tok  token
	prev token
	src  string
}

// checkpoint captures enough state to rewind the parser, including the
// lexer's own cursor (not just the lookahead token) so backtracking never
// silently drops tokens the lexer had already consumed past the saved point.
type checkpoint struct {
	lexPos      int
	lexLine     int
	lexLastKind tokenKind
	lexLastText string
	tok         token
	prev        token
}

func (p *parser) mark() checkpoint {
	return checkpoint{
		lexPos: p.lex.pos, lexLine: p.lex.line,
		lexLastKind: p.lex.lastKind, lexLastText: p.lex.lastText,
		tok: p.tok, prev: p.prev,
	}
}

func (p *parser) reset(cp checkpoint) {
	p.lex.pos = cp.lexPos
	p.lex.line = cp.lexLine
	p.lex.lastKind = cp.lexLastKind
	p.lex.lastText = cp.lexLastText
	p.tok = cp.tok
	p.prev = cp.prev
}

// ParseProgram parses awk source into a Program ready for Run.
func ParseProgram(src string) (*Program, error) {
	p := &parser{lex: newLexer(src), src: src}
	if err := p.advance(); err != nil {
		return nil, err
	}
	prog := &Program{Functions: make(map[string]*FuncDecl)}
	for !p.is(tEOF) {
		p.skipNewlines()
		if p.is(tEOF) {
			break
		}
		switch {
		case p.isKeyword("BEGIN"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			body, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			prog.Begin = append(prog.Begin, body)
		case p.isKeyword("END"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			body, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			prog.End = append(prog.End, body)
		case p.isKeyword("function") || p.isKeyword("func"):
			fn, err := p.parseFunction()
			if err != nil {
				return nil, err
			}
			prog.Functions[fn.Name] = fn
		default:
			rule, err := p.parseRule()
			if err != nil {
				return nil, err
			}
			prog.Actions = append(prog.Actions, rule)
		}
		p.skipTerminators()
	}
	return prog, nil
}

func (p *parser) advance() error {
	p.prev = p.tok
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) is(k tokenKind) bool { return p.tok.kind == k }
func (p *parser) isPunct(s string) bool {
	return p.tok.kind == tPunct && p.tok.text == s
}
func (p *parser) isKeyword(s string) bool {
	return p.tok.kind == tKeyword && p.tok.text == s
}

func (p *parser) skipNewlines() {
	for p.is(tNewline) {
		p.advance()
	}
}

// skipOptNewlines skips newlines in positions the grammar allows them
// after (e.g. after '{', '&&', '||', ',', 'do', 'else').
func (p *parser) skipOptNewlines() { p.skipNewlines() }

func (p *parser) skipTerminators() {
	for p.is(tNewline) || p.isPunct(";") {
		p.advance()
	}
}

func (p *parser) expectPunct(s string) error {
	if !p.isPunct(s) {
		return p.errf("expected %q, got %q", s, p.tok.text)
	}
	return p.advance()
}

func (p *parser) errf(format string, args ...interface{}) error {
	return fmt.Errorf("awk: line %d: %s", p.tok.line, fmt.Sprintf(format, args...))
}

func (p *parser) parseRule() (Rule, error) {
	var rule Rule
	if !p.isPunct("{") {
		pat, err := p.parseExpr()
		if err != nil {
			return rule, err
		}
		rule.Pattern = pat
		if p.isPunct(",") {
			p.advance()
			p.skipOptNewlines()
			end, err := p.parseExpr()
			if err != nil {
				return rule, err
			}
			rule.PatternEnd = end
		}
	}
	if p.isPunct("{") {
		body, err := p.parseBlock()
		if err != nil {
			return rule, err
		}
		rule.Body = body
	}
	return rule, nil
}

func (p *parser) parseFunction() (*FuncDecl, error) {
	if err := p.advance(); err != nil { // consume 'function'
		return nil, err
	}
	if !(p.is(tIdent) || p.is(tFuncName)) {
		return nil, p.errf("expected function name")
	}
	name := p.tok.text
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var params []string
	for !p.isPunct(")") {
		if !p.is(tIdent) {
			return nil, p.errf("expected parameter name")
		}
		params = append(params, p.tok.text)
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.isPunct(",") {
			p.advance()
			p.skipOptNewlines()
		}
	}
	if err := p.advance(); err != nil { // consume ')'
		return nil, err
	}
	p.skipOptNewlines()
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &FuncDecl{Name: name, Params: params, Body: body}, nil
}

func (p *parser) parseBlock() ([]Stmt, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	p.skipTerminators()
	var stmts []Stmt
	for !p.isPunct("}") {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		if s != nil {
			stmts = append(stmts, s)
		}
		p.skipTerminators()
	}
	if err := p.advance(); err != nil { // consume '}'
		return nil, err
	}
	return stmts, nil
}

func (p *parser) parseSimpleOrBlockStmt() ([]Stmt, error) {
	p.skipOptNewlines()
	if p.isPunct("{") {
		return p.parseBlock()
	}
	s, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}
	return []Stmt{s}, nil
}

func (p *parser) parseStmt() (Stmt, error) {
	switch {
	case p.isPunct(";"):
		return nil, nil
	case p.isPunct("{"):
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return BlockStmt{Body: body}, nil
	case p.isKeyword("if"):
		return p.parseIf()
	case p.isKeyword("while"):
		return p.parseWhile()
	case p.isKeyword("do"):
		return p.parseDoWhile()
	case p.isKeyword("for"):
		return p.parseFor()
	case p.isKeyword("print"):
		return p.parsePrint(false)
	case p.isKeyword("printf"):
		return p.parsePrint(true)
	case p.isKeyword("next"):
		p.advance()
		return NextStmt{}, nil
	case p.isKeyword("nextfile"):
		p.advance()
		return NextFileStmt{}, nil
	case p.isKeyword("break"):
		p.advance()
		return BreakStmt{}, nil
	case p.isKeyword("continue"):
		p.advance()
		return ContinueStmt{}, nil
	case p.isKeyword("exit"):
		p.advance()
		if p.stmtEnds() {
			return ExitStmt{}, nil
		}
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ExitStmt{Status: v}, nil
	case p.isKeyword("return"):
		p.advance()
		if p.stmtEnds() {
			return ReturnStmt{}, nil
		}
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ReturnStmt{Value: v}, nil
	case p.isKeyword("delete"):
		return p.parseDelete()
	case p.is(tGetline):
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ExprStmt{X: x}, nil
	default:
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ExprStmt{X: x}, nil
	}
}

func (p *parser) stmtEnds() bool {
	return p.is(tNewline) || p.isPunct(";") || p.isPunct("}") || p.is(tEOF)
}

func (p *parser) parseIf() (Stmt, error) {
	p.advance()
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	thenBody, err := p.parseSimpleOrBlockStmt()
	if err != nil {
		return nil, err
	}
	stmt := IfStmt{Cond: cond, Then: thenBody}
	cp := p.mark()
	p.skipTerminators()
	if p.isKeyword("else") {
		p.advance()
		elseBody, err := p.parseSimpleOrBlockStmt()
		if err != nil {
			return nil, err
		}
		stmt.Else = elseBody
		return stmt, nil
	}
	p.reset(cp)
	return stmt, nil
}

func (p *parser) parseWhile() (Stmt, error) {
	p.advance()
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	body, err := p.parseSimpleOrBlockStmt()
	if err != nil {
		return nil, err
	}
	return WhileStmt{Cond: cond, Body: body}, nil
}

func (p *parser) parseDoWhile() (Stmt, error) {
	p.advance()
	body, err := p.parseSimpleOrBlockStmt()
	if err != nil {
		return nil, err
	}
	p.skipTerminators()
	if !p.isKeyword("while") {
		return nil, p.errf("expected 'while' after do-body")
	}
	p.advance()
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return DoWhileStmt{Body: body, Cond: cond}, nil
}

func (p *parser) parseFor() (Stmt, error) {
	p.advance()
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	// for (k in arr) form.
	if p.is(tIdent) {
		cp := p.mark()
		name := p.tok.text
		if err := p.advance(); err == nil && p.isKeyword("in") {
			p.advance()
			if !p.is(tIdent) {
				return nil, p.errf("expected array name after 'in'")
			}
			arrName := p.tok.text
			p.advance()
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			body, err := p.parseSimpleOrBlockStmt()
			if err != nil {
				return nil, err
			}
			return ForInStmt{VarName: name, ArrayName: arrName, Body: body}, nil
		}
		p.reset(cp)
	}
	var init Stmt
	if !p.isPunct(";") {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		init = s
	}
	if err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	var cond Expr
	if !p.isPunct(";") {
		c, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		cond = c
	}
	if err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	var post Stmt
	if !p.isPunct(")") {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		post = s
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	body, err := p.parseSimpleOrBlockStmt()
	if err != nil {
		return nil, err
	}
	return ForStmt{Init: init, Cond: cond, Post: post, Body: body}, nil
}

func (p *parser) parsePrint(isPrintf bool) (Stmt, error) {
	p.advance()
	var args []Expr
	for !p.stmtEnds() && !p.isPunct(">") && !p.isPunct(">>") && !p.isPunct("|") {
		e, err := p.parseTernary(true)
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if p.isPunct(",") {
			p.advance()
			p.skipOptNewlines()
			continue
		}
		break
	}
	var redirect *OutputRedirect
	if p.isPunct(">") || p.isPunct(">>") || p.isPunct("|") {
		op := p.tok.text
		p.advance()
		target, err := p.parseTernary(true)
		if err != nil {
			return nil, err
		}
		redirect = &OutputRedirect{Op: op, Target: target}
	}
	if isPrintf {
		return PrintfStmt{Args: args, Dest: redirect}, nil
	}
	return PrintStmt{Args: args, Dest: redirect}, nil
}

func (p *parser) parseDelete() (Stmt, error) {
	p.advance()
	if !p.is(tIdent) {
		return nil, p.errf("expected array name after 'delete'")
	}
	name := p.tok.text
	p.advance()
	var idx []Expr
	if p.isPunct("[") {
		p.advance()
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			idx = append(idx, e)
			if p.isPunct(",") {
				p.advance()
				continue
			}
			break
		}
		if err := p.expectPunct("]"); err != nil {
			return nil, err
		}
	} else if p.isPunct("(") {
		// `delete arr()` gawk extension for whole-array delete; tolerate it.
		p.advance()
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
	}
	return DeleteStmt{ArrayName: name, Index: idx}, nil
}

// ---- Expressions, precedence-climbing ----
//
// Lowest to highest: ternary/assignment, ||, &&, in, match (~ !~),
// relational, concatenation, additive, multiplicative, unary, power,
// postfix (++/--), primary ($, (), literals, calls, getline).

func (p *parser) parseExpr() (Expr, error) {
	return p.parseTernary(false)
}

// noGT is used inside print's argument list where a bare '>'
// must be read as output redirection rather than the relational operator
// — the single genuine ambiguity in awk's grammar that needs explicit
// parser cooperation rather than a lexer trick.
func (p *parser) parseTernary(noGT bool) (Expr, error) {
	cond, err := p.parseAssign(noGT)
	if err != nil {
		return nil, err
	}
	if p.isPunct("?") {
		p.advance()
		p.skipOptNewlines()
		thenE, err := p.parseTernary(noGT)
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		p.skipOptNewlines()
		elseE, err := p.parseTernary(noGT)
		if err != nil {
			return nil, err
		}
		return TernaryExpr{Cond: cond, Then: thenE, Else: elseE}, nil
	}
	return cond, nil
}

var assignOps = map[string]bool{"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true, "^=": true, "**=": true}

func (p *parser) parseAssign(noGT bool) (Expr, error) {
	lhs, err := p.parseOr(noGT)
	if err != nil {
		return nil, err
	}
	if p.tok.kind == tPunct && assignOps[p.tok.text] && isLvalue(lhs) {
		op := p.tok.text
		if op == "**=" {
			op = "^="
		}
		p.advance()
		p.skipOptNewlines()
		rhs, err := p.parseTernary(noGT)
		if err != nil {
			return nil, err
		}
		return AssignExpr{Op: op, Target: lhs, Value: rhs}, nil
	}
	return lhs, nil
}

func isLvalue(e Expr) bool {
	switch e.(type) {
	case VarExpr, FieldExpr, ArrayIndexExpr:
		return true
	}
	return false
}

func (p *parser) parseOr(noGT bool) (Expr, error) {
	x, err := p.parseAnd(noGT)
	if err != nil {
		return nil, err
	}
	for p.isPunct("||") {
		p.advance()
		p.skipOptNewlines()
		y, err := p.parseAnd(noGT)
		if err != nil {
			return nil, err
		}
		x = BinaryExpr{Op: "||", X: x, Y: y}
	}
	return x, nil
}

func (p *parser) parseAnd(noGT bool) (Expr, error) {
	x, err := p.parseIn(noGT)
	if err != nil {
		return nil, err
	}
	for p.isPunct("&&") {
		p.advance()
		p.skipOptNewlines()
		y, err := p.parseIn(noGT)
		if err != nil {
			return nil, err
		}
		x = BinaryExpr{Op: "&&", X: x, Y: y}
	}
	return x, nil
}

func (p *parser) parseIn(noGT bool) (Expr, error) {
	x, err := p.parseMatch(noGT)
	if err != nil {
		return nil, err
	}
	for p.isKeyword("in") {
		p.advance()
		if !p.is(tIdent) {
			return nil, p.errf("expected array name after 'in'")
		}
		name := p.tok.text
		p.advance()
		x = InExpr{Index: []Expr{x}, ArrayName: name}
	}
	return x, nil
}

func (p *parser) parseMatch(noGT bool) (Expr, error) {
	x, err := p.parseRel(noGT)
	if err != nil {
		return nil, err
	}
	for p.isPunct("~") || p.isPunct("!~") {
		neg := p.tok.text == "!~"
		p.advance()
		y, err := p.parseRel(noGT)
		if err != nil {
			return nil, err
		}
		x = MatchExpr{Negate: neg, X: x, Y: y}
	}
	return x, nil
}

var relOps = map[string]bool{"<": true, "<=": true, "==": true, "!=": true, ">=": true}

func (p *parser) parseRel(noGT bool) (Expr, error) {
	x, err := p.parseConcat(noGT)
	if err != nil {
		return nil, err
	}
	// `cmd | getline [var]`: pipe a command's output into getline.
	if p.isPunct("|") {
		cp := p.mark()
		p.advance()
		if p.is(tGetline) {
			p.advance()
			var target Expr
			if p.is(tIdent) || p.isPunct("$") {
				t, err := p.parseField(noGT)
				if err != nil {
					return nil, err
				}
				if isLvalue(t) {
					target = t
				}
			}
			return GetlineExpr{Target: target, Source: &GetlineSource{Kind: "cmd", Expr: x}}, nil
		}
		p.reset(cp)
	}
	if p.tok.kind == tPunct && (relOps[p.tok.text] || (p.tok.text == ">" && !noGT)) {
		op := p.tok.text
		p.advance()
		y, err := p.parseConcat(noGT)
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: op, X: x, Y: y}, nil
	}
	return x, nil
}

// parseConcat implements string concatenation by juxtaposition: two
// additive expressions with nothing binding between them concatenate.
func (p *parser) parseConcat(noGT bool) (Expr, error) {
	x, err := p.parseAdditive(noGT)
	if err != nil {
		return nil, err
	}
	for p.startsUnaryOrPrimary(noGT) {
		y, err := p.parseAdditive(noGT)
		if err != nil {
			return nil, err
		}
		x = BinaryExpr{Op: "concat", X: x, Y: y}
	}
	return x, nil
}

func (p *parser) startsUnaryOrPrimary(noGT bool) bool {
	switch p.tok.kind {
	case tNumber, tString, tRegex, tIdent, tFuncName, tBuiltinFunc, tGetline:
		return true
	case tPunct:
		switch p.tok.text {
		case "(", "$", "!", "-", "+", "++", "--":
			return true
		}
	}
	return false
}

func (p *parser) parseAdditive(noGT bool) (Expr, error) {
	x, err := p.parseMultiplicative(noGT)
	if err != nil {
		return nil, err
	}
	for p.isPunct("+") || p.isPunct("-") {
		op := p.tok.text
		p.advance()
		y, err := p.parseMultiplicative(noGT)
		if err != nil {
			return nil, err
		}
		x = BinaryExpr{Op: op, X: x, Y: y}
	}
	return x, nil
}

func (p *parser) parseMultiplicative(noGT bool) (Expr, error) {
	x, err := p.parseUnary(noGT)
	if err != nil {
		return nil, err
	}
	for p.isPunct("*") || p.isPunct("/") || p.isPunct("%") {
		op := p.tok.text
		p.advance()
		y, err := p.parseUnary(noGT)
		if err != nil {
			return nil, err
		}
		x = BinaryExpr{Op: op, X: x, Y: y}
	}
	return x, nil
}

func (p *parser) parseUnary(noGT bool) (Expr, error) {
	if p.isPunct("!") || p.isPunct("-") || p.isPunct("+") {
		op := p.tok.text
		p.advance()
		x, err := p.parseUnary(noGT)
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: op, X: x}, nil
	}
	return p.parsePower(noGT)
}

func (p *parser) parsePower(noGT bool) (Expr, error) {
	x, err := p.parsePostfix(noGT)
	if err != nil {
		return nil, err
	}
	if p.isPunct("^") || p.isPunct("**") {
		p.advance()
		y, err := p.parseUnary(noGT) // right-associative, allows -x on rhs
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: "^", X: x, Y: y}, nil
	}
	return x, nil
}

func (p *parser) parsePostfix(noGT bool) (Expr, error) {
	x, err := p.parsePrefix(noGT)
	if err != nil {
		return nil, err
	}
	for (p.isPunct("++") || p.isPunct("--")) && isLvalue(x) {
		op := p.tok.text
		p.advance()
		x = IncDecExpr{Op: op, Prefix: false, Target: x}
	}
	return x, nil
}

func (p *parser) parsePrefix(noGT bool) (Expr, error) {
	if p.isPunct("++") || p.isPunct("--") {
		op := p.tok.text
		p.advance()
		target, err := p.parsePrefix(noGT)
		if err != nil {
			return nil, err
		}
		return IncDecExpr{Op: op, Prefix: true, Target: target}, nil
	}
	return p.parseField(noGT)
}

func (p *parser) parseField(noGT bool) (Expr, error) {
	if p.isPunct("$") {
		p.advance()
		idx, err := p.parsePrefix(noGT)
		if err != nil {
			return nil, err
		}
		return FieldExpr{Index: idx}, nil
	}
	return p.parsePrimary(noGT)
}

func (p *parser) parsePrimary(noGT bool) (Expr, error) {
	switch {
	case p.is(tNumber):
		v := p.tok.num
		p.advance()
		return NumberLit{Value: v}, nil
	case p.is(tString):
		s := p.tok.text
		p.advance()
		return StringLit{Value: s}, nil
	case p.is(tRegex):
		s := p.tok.text
		p.advance()
		return RegexLit{Pattern: s}, nil
	case p.isPunct("("):
		p.advance()
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		// A parenthesized comma list is only meaningful as the LHS of `in`
		// for multi-dimensional membership tests: `(i, j) in arr`.
		if p.isPunct(",") {
			idx := []Expr{x}
			for p.isPunct(",") {
				p.advance()
				e, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				idx = append(idx, e)
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			if !p.isKeyword("in") {
				return nil, p.errf("expected 'in' after index tuple")
			}
			p.advance()
			if !p.is(tIdent) {
				return nil, p.errf("expected array name after 'in'")
			}
			name := p.tok.text
			p.advance()
			return InExpr{Index: idx, ArrayName: name}, nil
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return GroupExpr{X: x}, nil
	case p.is(tBuiltinFunc):
		return p.parseCall(p.tok.text, noGT)
	case p.is(tFuncName):
		return p.parseCall(p.tok.text, noGT)
	case p.is(tGetline):
		return p.parseGetline(noGT)
	case p.is(tIdent):
		name := p.tok.text
		p.advance()
		if p.isPunct("[") {
			p.advance()
			var idx []Expr
			for {
				e, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				idx = append(idx, e)
				if p.isPunct(",") {
					p.advance()
					continue
				}
				break
			}
			if err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			return ArrayIndexExpr{Name: name, Index: idx}, nil
		}
		return VarExpr{Name: name}, nil
	}
	return nil, p.errf("unexpected token %q", p.tok.text)
}

func (p *parser) parseCall(name string, noGT bool) (Expr, error) {
	p.advance() // consume function name
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var args []Expr
	for !p.isPunct(")") {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if p.isPunct(",") {
			p.advance()
			p.skipOptNewlines()
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	call := CallExpr{Name: name, Args: args}
	// `cmd | getline [var]` is handled in parseRel, the level above
	// parseConcat; a plain function call just returns here.
	return call, nil
}

func (p *parser) parseGetline(noGT bool) (Expr, error) {
	p.advance() // consume 'getline'
	var target Expr
	if p.is(tIdent) || p.isPunct("$") {
		t, err := p.parseField(noGT)
		if err != nil {
			return nil, err
		}
		if isLvalue(t) {
			target = t
		}
	}
	src := &GetlineSource{}
	if p.isPunct("<") {
		p.advance()
		e, err := p.parseConcat(noGT)
		if err != nil {
			return nil, err
		}
		src.Kind = "file"
		src.Expr = e
	}
	return GetlineExpr{Target: target, Source: src}, nil
}
