package awk

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tEOF tokenKind = iota
	tNewline
	tNumber
	tString
	tRegex
	tIdent
	tFuncName // identifier immediately followed by '(' with no space
	tBuiltinFunc
	tGetline
	tPunct
	tKeyword
)

type token struct {
	kind tokenKind
	text string
	num  float64
	line int
}

var keywords = map[string]bool{
	"BEGIN": true, "END": true, "function": true, "func": true,
	"if": true, "else": true, "while": true, "for": true, "do": true,
	"break": true, "continue": true, "next": true, "nextfile": true,
	"exit": true, "return": true, "delete": true, "in": true,
	"print": true, "printf": true, "getline": true,
}

var builtinFuncs = map[string]bool{
	"length": true, "substr": true, "index": true, "split": true,
	"sub": true, "gsub": true, "match": true, "sprintf": true,
	"sin": true, "cos": true, "atan2": true, "exp": true, "log": true,
	"sqrt": true, "int": true, "rand": true, "srand": true,
	"tolower": true, "toupper": true, "system": true, "close": true,
	"fflush": true, "gensub": true, "index_of": true,
}

// lexer tokenizes awk source. Grounded on the field/token shape goawk's
// own lexer exposes (number/string/regex/ident/keyword classes), adapted
// to this runtime's own recursive-descent parser rather than goawk's
// yacc-generated one.
type lexer struct {
	src      string
	pos      int
	line     int
	lastKind tokenKind
	lastText string
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1}
}

func (l *lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peekByteAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

// regexAllowed reports whether a '/' at the current position should be
// lexed as a regex literal rather than division, based on the previous
// token (the standard awk disambiguation rule).
func (l *lexer) regexAllowed() bool {
	switch l.lastKind {
	case tNumber, tString, tIdent, tFuncName:
		return false
	case tPunct:
		switch l.lastText {
		case ")", "]", "$":
			return false
		}
		return true
	default:
		return true
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpaceAndComments()
	if l.pos >= len(l.src) {
		return l.emit(tEOF, "")
	}
	c := l.peekByte()

	if c == '\n' {
		l.pos++
		l.line++
		return l.emit(tNewline, "\n")
	}
	if c == '\\' && l.peekByteAt(1) == '\n' {
		l.pos += 2
		l.line++
		return l.next()
	}

	if isDigit(c) || (c == '.' && isDigit(l.peekByteAt(1))) {
		return l.lexNumber()
	}
	if c == '"' {
		return l.lexString()
	}
	if c == '/' && l.regexAllowed() {
		return l.lexRegex()
	}
	if isIdentStart(c) {
		return l.lexIdent()
	}
	return l.lexPunct()
}

func (l *lexer) emit(kind tokenKind, text string) (token, error) {
	l.lastKind = kind
	l.lastText = text
	return token{kind: kind, text: text, line: l.line}, nil
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		c := l.peekByte()
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentCont(c byte) bool  { return isIdentStart(c) || isDigit(c) }

func (l *lexer) lexNumber() (token, error) {
	start := l.pos
	for isDigit(l.peekByte()) {
		l.pos++
	}
	if l.peekByte() == '.' {
		l.pos++
		for isDigit(l.peekByte()) {
			l.pos++
		}
	}
	if l.peekByte() == 'e' || l.peekByte() == 'E' {
		save := l.pos
		l.pos++
		if l.peekByte() == '+' || l.peekByte() == '-' {
			l.pos++
		}
		if isDigit(l.peekByte()) {
			for isDigit(l.peekByte()) {
				l.pos++
			}
		} else {
			l.pos = save
		}
	}
	// Hex literals (gawk extension; harmless to support).
	if l.pos-start == 1 && l.src[start] == '0' && (l.peekByte() == 'x' || l.peekByte() == 'X') {
		l.pos++
		for isHex(l.peekByte()) {
			l.pos++
		}
	}
	text := l.src[start:l.pos]
	n, err := parseNumberLiteral(text)
	if err != nil {
		return token{}, fmt.Errorf("line %d: invalid number %q", l.line, text)
	}
	l.lastKind = tNumber
	l.lastText = text
	return token{kind: tNumber, text: text, num: n, line: l.line}, nil
}

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func parseNumberLiteral(text string) (float64, error) {
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		var n int64
		_, err := fmt.Sscanf(text, "0x%x", &n)
		return float64(n), err
	}
	var f float64
	_, err := fmt.Sscanf(text, "%g", &f)
	return f, err
}

func (l *lexer) lexString() (token, error) {
	l.pos++ // opening quote
	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return token{}, fmt.Errorf("line %d: unterminated string", l.line)
		}
		c := l.src[l.pos]
		if c == '"' {
			l.pos++
			break
		}
		if c == '\\' {
			l.pos++
			if l.pos >= len(l.src) {
				return token{}, fmt.Errorf("line %d: unterminated string escape", l.line)
			}
			esc := l.src[l.pos]
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			case '/':
				b.WriteByte('/')
			default:
				b.WriteByte('\\')
				b.WriteByte(esc)
			}
			l.pos++
			continue
		}
		if c == '\n' {
			return token{}, fmt.Errorf("line %d: newline in string literal", l.line)
		}
		b.WriteByte(c)
		l.pos++
	}
	return l.emit(tString, b.String())
}

func (l *lexer) lexRegex() (token, error) {
	l.pos++ // opening slash
	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return token{}, fmt.Errorf("line %d: unterminated regex", l.line)
		}
		c := l.src[l.pos]
		if c == '/' {
			l.pos++
			break
		}
		if c == '\\' && l.pos+1 < len(l.src) {
			b.WriteByte(c)
			b.WriteByte(l.src[l.pos+1])
			l.pos += 2
			continue
		}
		if c == '\n' {
			return token{}, fmt.Errorf("line %d: newline in regex literal", l.line)
		}
		b.WriteByte(c)
		l.pos++
	}
	return l.emit(tRegex, b.String())
}

func (l *lexer) lexIdent() (token, error) {
	start := l.pos
	for isIdentCont(l.peekByte()) {
		l.pos++
	}
	text := l.src[start:l.pos]
	if keywords[text] {
		if text == "getline" {
			return l.emit(tGetline, text)
		}
		return l.emit(tKeyword, text)
	}
	if builtinFuncs[text] {
		return l.emit(tBuiltinFunc, text)
	}
	// A user function name is distinguished from a bare identifier by an
	// immediately-following '(' with no intervening space, per POSIX awk
	// grammar (this is what makes `f (x)` a syntax error but `f(x)` a call).
	if l.peekByte() == '(' {
		return l.emit(tFuncName, text)
	}
	return l.emit(tIdent, text)
}

var threeCharPuncts = []string{"**=", "!~="}
var twoCharPuncts = []string{
	"+=", "-=", "*=", "/=", "%=", "^=", "==", "!=", "<=", ">=",
	"&&", "||", "++", "--", ">>", "!~", "**",
}

func (l *lexer) lexPunct() (token, error) {
	rest := l.src[l.pos:]
	for _, p := range threeCharPuncts {
		if strings.HasPrefix(rest, p) {
			l.pos += len(p)
			return l.emit(tPunct, p)
		}
	}
	for _, p := range twoCharPuncts {
		if strings.HasPrefix(rest, p) {
			l.pos += len(p)
			return l.emit(tPunct, p)
		}
	}
	c := l.src[l.pos]
	l.pos++
	return l.emit(tPunct, string(c))
}
