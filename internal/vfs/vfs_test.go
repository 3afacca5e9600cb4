package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithFiles_CreatesParents(t *testing.T) {
	f := NewWithFiles(map[string][]byte{
		"/data/a.txt":     []byte("hello\n"),
		"/data/sub/b.txt": []byte("world\n"),
	})

	data, err := f.Read("/data/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))

	info, err := f.Stat("/data")
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	entries, err := f.ReadDir("/data")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.txt", entries[0].Name())
	assert.Equal(t, "sub", entries[1].Name())
}

func TestWrite_RequiresExistingParent(t *testing.T) {
	f := New()
	err := f.Write("/nope/file.txt", []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWriteThenAppend(t *testing.T) {
	f := New()
	require.NoError(t, f.Mkdir("/tmp", 0o755))
	require.NoError(t, f.Write("/tmp/f", []byte("a")))
	require.NoError(t, f.Append("/tmp/f", []byte("b")))

	data, err := f.Read("/tmp/f")
	require.NoError(t, err)
	assert.Equal(t, "ab", string(data))
}

func TestWrite_OverwriteTruncates(t *testing.T) {
	f := New()
	require.NoError(t, f.Mkdir("/tmp", 0o755))
	require.NoError(t, f.Write("/tmp/f", []byte("aaaaaa")))
	require.NoError(t, f.Write("/tmp/f", []byte("b")))

	data, err := f.Read("/tmp/f")
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))
}

func TestRemove_NonEmptyDirFails(t *testing.T) {
	f := NewWithFiles(map[string][]byte{"/d/f": []byte("x")})
	err := f.Remove("/d")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotEmpty)

	require.NoError(t, f.RemoveAll("/d"))
	assert.False(t, f.Exists("/d"))
	assert.False(t, f.Exists("/d/f"))
}

func TestSymlinkResolution(t *testing.T) {
	f := NewWithFiles(map[string][]byte{"/real/target.txt": []byte("payload")})
	require.NoError(t, f.Symlink("/real/target.txt", "/link.txt"))

	data, err := f.Read("/link.txt")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	// Lstat sees the link itself, Stat follows it.
	lst, err := f.Lstat("/link.txt")
	require.NoError(t, err)
	assert.Equal(t, KindSymlink, lst.Kind())

	st, err := f.Stat("/link.txt")
	require.NoError(t, err)
	assert.Equal(t, KindFile, st.Kind())
}

func TestSymlinkCycleDetected(t *testing.T) {
	f := New()
	require.NoError(t, f.Symlink("/b", "/a"))
	require.NoError(t, f.Symlink("/a", "/b"))

	_, err := f.Read("/a")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooManySymlinks)
}

func TestPermissionDenied(t *testing.T) {
	f := New()
	require.NoError(t, f.Mkdir("/tmp", 0o755))
	require.NoError(t, f.Write("/tmp/f", []byte("x")))

	st, err := f.Stat("/tmp/f")
	require.NoError(t, err)
	_ = st

	// Directly poke the node's mode to simulate a read-only file.
	f.mu.Lock()
	f.nodes["/tmp/f"].Mode = 0o000
	f.mu.Unlock()

	_, err = f.Read("/tmp/f")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermission)

	err = f.Write("/tmp/f", []byte("y"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermission)
}

func TestResolvePath_RelativeJoinsCwd(t *testing.T) {
	f := New()
	require.NoError(t, f.MkdirAll("/a/b", 0o755))

	resolved, err := f.ResolvePath("c", "/a/b")
	require.NoError(t, err)
	assert.Equal(t, "/a/b/c", resolved)

	resolved, err = f.ResolvePath("../x", "/a/b")
	require.NoError(t, err)
	assert.Equal(t, "/a/x", resolved)
}
