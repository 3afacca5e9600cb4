package builtin

import (
	"context"
	"net/http"
	"net/http/httptest"
	neturl "net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/vbash/internal/netfetch"
	"github.com/kazz187/vbash/internal/vfs"
)

func newTestCtx(stdin string) *CommandContext {
	return &CommandContext{
		Stdin: stdin,
		Env:   map[string]string{},
		Cwd:   "/",
		FS:    vfs.New(),
	}
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	h, ok := r.Lookup("echo")
	require.True(t, ok)
	res := h.Execute(context.Background(), []string{"hi"}, newTestCtx(""))
	assert.Equal(t, "hi\n", res.Stdout)

	_, ok = r.Lookup("nope")
	assert.False(t, ok)
}

func TestEchoFlags(t *testing.T) {
	assert.Equal(t, "a b\n", runEcho(context.Background(), []string{"a", "b"}, nil).Stdout)
	assert.Equal(t, "a b", runEcho(context.Background(), []string{"-n", "a", "b"}, nil).Stdout)
	assert.Equal(t, "a\tb\n", runEcho(context.Background(), []string{"-e", `a\tb`}, nil).Stdout)
}

func TestWcCounts(t *testing.T) {
	res := runWc(context.Background(), nil, newTestCtx("a b\nc\n"))
	assert.Equal(t, "2 3 6\n", res.Stdout)
}

func TestCutFields(t *testing.T) {
	cctx := newTestCtx("a:b:c\nd:e:f\n")
	res := runCut(context.Background(), []string{"-d", ":", "-f", "1,3"}, cctx)
	assert.Equal(t, "a:c\nd:f\n", res.Stdout)
}

func TestSortNumericUnique(t *testing.T) {
	cctx := newTestCtx("3\n1\n2\n1\n")
	res := runSort(context.Background(), []string{"-n", "-u"}, cctx)
	assert.Equal(t, "1\n2\n3\n", res.Stdout)
}

func TestGrepInvertCount(t *testing.T) {
	cctx := newTestCtx("foo\nbar\nfoobar\n")
	res := runGrep(context.Background(), []string{"-v", "-c", "foo"}, cctx)
	assert.Equal(t, "1\n", res.Stdout)
}

func TestJQFieldAccess(t *testing.T) {
	cctx := newTestCtx(`{"a": {"b": 42}}`)
	res := runJQ(context.Background(), []string{".a.b"}, cctx)
	assert.Equal(t, "42\n", res.Stdout)
}

func TestJQToEntries(t *testing.T) {
	cctx := newTestCtx(`{"x": 1, "y": 2}`)
	res := runJQ(context.Background(), []string{"to_entries"}, cctx)
	assert.Contains(t, res.Stdout, `"key": "x"`)
	assert.Contains(t, res.Stdout, `"key": "y"`)
}

func TestAwkDelegation(t *testing.T) {
	cctx := newTestCtx("1 2\n3 4\n")
	res := runAwk(context.Background(), []string{`{ print $1 + $2 }`}, cctx)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "3\n7\n", res.Stdout)
}

func TestHTTPGetAllowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	}))
	defer srv.Close()

	u, err := neturl.Parse(srv.URL)
	require.NoError(t, err)
	list := netfetch.AllowList{
		Entries: []netfetch.Entry{{Scheme: u.Scheme, Host: u.Host, PathPrefix: "/"}},
		Methods: []string{"GET"},
		Timeout: time.Second,
	}
	h := NewHTTPGetHandler(list)
	res := h.Execute(context.Background(), []string{srv.URL}, newTestCtx(""))
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "pong", res.Stdout)
}

func TestHTTPGetDenied(t *testing.T) {
	h := NewHTTPGetHandler(netfetch.DefaultAllowList())
	res := h.Execute(context.Background(), []string{"https://example.com"}, newTestCtx(""))
	assert.NotEqual(t, 0, res.ExitCode)
	assert.Contains(t, res.Stderr, "http_get")
}

func TestFmtPrettyPrintsIfClause(t *testing.T) {
	cctx := newTestCtx(`if true; then echo hi; fi`)
	res := runFmt(context.Background(), nil, cctx)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Stdout, "if true; then\n")
	assert.Contains(t, res.Stdout, "echo hi")
	assert.Contains(t, res.Stdout, "fi")
}

func TestNotImplementedStub(t *testing.T) {
	res := notImplemented("sed")(context.Background(), nil, nil)
	assert.Equal(t, 1, res.ExitCode)
	assert.Contains(t, res.Stderr, "not implemented")
}
