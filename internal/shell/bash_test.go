package shell

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/vbash/internal/limits"
	"github.com/kazz187/vbash/pkg/cerr"
)

func TestExecEchoRoundTrip(t *testing.T) {
	b, err := New()
	require.NoError(t, err)

	res, err := b.Exec(context.Background(), "echo hello world")
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)
}

func TestExecUnresolvedCommandIsCommandNotFound(t *testing.T) {
	b, err := New()
	require.NoError(t, err)

	res, err := b.Exec(context.Background(), "totally-not-a-real-command")
	require.NoError(t, err)
	assert.Equal(t, 127, res.ExitCode)
}

func TestExecIsolatedAcrossCalls(t *testing.T) {
	b, err := New(WithEnv(map[string]string{"FOO": "baseline"}), WithCwd("/"))
	require.NoError(t, err)

	res1, err := b.Exec(context.Background(), "export FOO=changed; echo $FOO")
	require.NoError(t, err)
	assert.Equal(t, "changed\n", res1.Stdout)
	assert.Equal(t, "changed", res1.Env["FOO"])

	// Baseline must be untouched: a fresh Exec sees the original value.
	res2, err := b.Exec(context.Background(), "echo $FOO")
	require.NoError(t, err)
	assert.Equal(t, "baseline\n", res2.Stdout)
	assert.Equal(t, "baseline", b.GetEnv()["FOO"])
}

func TestExecCwdChangeDoesNotLeak(t *testing.T) {
	b, err := New(WithFiles(map[string][]byte{"/sub/file.txt": []byte("hi")}), WithCwd("/"))
	require.NoError(t, err)

	res1, err := b.Exec(context.Background(), "cd /sub && pwd")
	require.NoError(t, err)
	assert.Equal(t, "/sub\n", res1.Stdout)
	assert.Equal(t, "/sub", res1.Cwd)
	assert.Equal(t, "/", b.GetCwd())

	res2, err := b.Exec(context.Background(), "pwd")
	require.NoError(t, err)
	assert.Equal(t, "/\n", res2.Stdout)
}

func TestExecBuiltinPipeline(t *testing.T) {
	b, err := New()
	require.NoError(t, err)

	res, err := b.Exec(context.Background(), "printf 'b\\na\\nc\\n' | sort")
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\n", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)
}

func TestExecGrepOverVFSFile(t *testing.T) {
	b, err := New(WithFiles(map[string][]byte{"/data.txt": []byte("apple\nbanana\ncherry\n")}))
	require.NoError(t, err)

	res, err := b.Exec(context.Background(), "grep an /data.txt")
	require.NoError(t, err)
	assert.Equal(t, "banana\n", res.Stdout)
}

func TestReadWriteFile(t *testing.T) {
	b, err := New()
	require.NoError(t, err)

	require.NoError(t, b.WriteFile("/greeting.txt", []byte("hi there")))
	data, err := b.ReadFile("/greeting.txt")
	require.NoError(t, err)
	assert.Equal(t, "hi there", string(data))
}

func TestSerializeRehydrateRoundTrip(t *testing.T) {
	b, err := New(WithFiles(map[string][]byte{"/a.txt": []byte("original")}), WithEnv(map[string]string{"FOO": "bar"}), WithCwd("/"))
	require.NoError(t, err)

	data, err := b.Serialize()
	require.NoError(t, err)

	b2, err := Rehydrate(data)
	require.NoError(t, err)
	assert.Equal(t, "bar", b2.GetEnv()["FOO"])
	assert.Equal(t, "/", b2.GetCwd())

	content, err := b2.ReadFile("/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "original", string(content))
}

func TestTraceHookReceivesFormattedCommand(t *testing.T) {
	var events []TraceEvent
	b, err := New(WithTrace(func(ev TraceEvent) { events = append(events, ev) }))
	require.NoError(t, err)

	_, err = b.Exec(context.Background(), "if true; then echo hi; fi")
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Contains(t, events[0].Formatted, "if true; then\n")
	assert.Equal(t, 0, events[0].ExitCode)
}

func TestExecRecursiveFunctionTripsCommandLimit(t *testing.T) {
	b, err := New(WithLimits(limits.Config{MaxCommandCount: 50, MaxCallDepth: 1000}))
	require.NoError(t, err)

	res, err := b.Exec(context.Background(), "f() { f; }; f")
	require.NoError(t, err)
	assert.Equal(t, cerr.ExecutionLimitExitCode, res.ExitCode)
}

func TestExecNativeBuiltinLoopTripsCommandLimit(t *testing.T) {
	b, err := New(WithLimits(limits.Config{MaxCommandCount: 50}))
	require.NoError(t, err)

	res, err := b.Exec(context.Background(), "while true; do :; done")
	require.NoError(t, err)
	assert.Equal(t, cerr.ExecutionLimitExitCode, res.ExitCode)
}

func TestParseErrorReturnsGenericFailureExit(t *testing.T) {
	b, err := New()
	require.NoError(t, err)

	res, err := b.Exec(context.Background(), "if then")
	require.NoError(t, err)
	assert.NotEqual(t, 0, res.ExitCode)
	assert.NotEmpty(t, res.Stderr)
}
