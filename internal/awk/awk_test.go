package awk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runAwk(t *testing.T, src, input string, vars map[string]string) string {
	t.Helper()
	prog, err := ParseProgram(src)
	require.NoError(t, err)
	var out strings.Builder
	_, err = Run(prog, Config{
		Stdin:  strings.NewReader(input),
		Output: &out,
		Vars:   vars,
	})
	require.NoError(t, err)
	return out.String()
}

func TestPrintFields(t *testing.T) {
	out := runAwk(t, `{ print $1, $3 }`, "a b c\nd e f\n", nil)
	assert.Equal(t, "a c\nd f\n", out)
}

func TestBeginEnd(t *testing.T) {
	out := runAwk(t, `BEGIN { print "start" } { n++ } END { print "n=" n }`, "x\ny\nz\n", nil)
	assert.Equal(t, "start\nn=3\n", out)
}

func TestFieldSeparator(t *testing.T) {
	out := runAwk(t, `{ print $2 }`, "a:b:c\n", map[string]string{"FS": ":"})
	assert.Equal(t, "b\n", out)
}

func TestPatternAction(t *testing.T) {
	out := runAwk(t, `/b/ { print NR, $0 }`, "a\nb\nc\nab\n", nil)
	assert.Equal(t, "2 b\n4 ab\n", out)
}

func TestRangePattern(t *testing.T) {
	out := runAwk(t, `/start/,/end/`, "x\nstart\na\nb\nend\ny\n", nil)
	assert.Equal(t, "start\na\nb\nend\n", out)
}

func TestArithmeticAndConcat(t *testing.T) {
	out := runAwk(t, `BEGIN { x = 2 + 3 * 4; print "val=" x }`, "", nil)
	assert.Equal(t, "val=14\n", out)
}

func TestArraysAndForIn(t *testing.T) {
	out := runAwk(t, `BEGIN {
		a["x"] = 1
		a["y"] = 2
		n = 0
		for (k in a) n++
		print n
	}`, "", nil)
	assert.Equal(t, "2\n", out)
}

func TestUserFunctionCallByValueAndReference(t *testing.T) {
	out := runAwk(t, `
	function addone(n) { n = n + 1; return n }
	function fill(arr) { arr["k"] = "v" }
	BEGIN {
		x = 5
		print addone(x)
		print x
		fill(m)
		print m["k"]
	}`, "", nil)
	assert.Equal(t, "6\n5\nv\n", out)
}

func TestGsub(t *testing.T) {
	out := runAwk(t, `BEGIN {
		s = "foo bar foo"
		n = gsub(/foo/, "baz", s)
		print n, s
	}`, "", nil)
	assert.Equal(t, "2 baz bar baz\n", out)
}

func TestSplit(t *testing.T) {
	out := runAwk(t, `BEGIN {
		n = split("a,b,c", parts, ",")
		print n, parts[1], parts[2], parts[3]
	}`, "", nil)
	assert.Equal(t, "3 a b c\n", out)
}

func TestPrintfFormatting(t *testing.T) {
	out := runAwk(t, `BEGIN { printf "%05d|%.2f|%s\n", 42, 3.14159, "hi" }`, "", nil)
	assert.Equal(t, "00042|3.14|hi\n", out)
}

func TestNumericVsStringComparison(t *testing.T) {
	out := runAwk(t, `{ if ($1 == 10) print "eq" ; else print "ne" }`, "10\n", nil)
	assert.Equal(t, "eq\n", out)
}

func TestJSPrototypeLikeArrayKeysStoredAsOrdinaryData(t *testing.T) {
	out := runAwk(t, `BEGIN { a["__proto__"] = 1; print a["__proto__"] }`, "", nil)
	assert.Equal(t, "1\n", out)
}

func TestTernaryAndLogical(t *testing.T) {
	out := runAwk(t, `BEGIN { x = 5; print (x > 3 && x < 10) ? "mid" : "out" }`, "", nil)
	assert.Equal(t, "mid\n", out)
}
