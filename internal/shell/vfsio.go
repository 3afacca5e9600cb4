package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"time"

	"mvdan.cc/sh/v3/interp"

	"github.com/kazz187/vbash/internal/vfs"
)

// vfsFile adapts internal/vfs's whole-blob Read/Write to the streaming
// io.ReadWriteCloser interp.OpenHandlerFunc must return: reads are served
// from a snapshot taken at open time, writes accumulate in a buffer and
// flush back to the VFS on Close, matching how the teacher's in-memory
// pkg/storage-backed file handles behave (buffer in, atomic write on
// Close) rather than streaming byte-by-byte into the map.
type vfsFile struct {
	fs       *vfs.FS
	path     string
	reader   *bytes.Reader
	buf      *bytes.Buffer
	appendTo bool
	writable bool
}

func (f *vfsFile) Read(p []byte) (int, error) {
	if f.reader == nil {
		return 0, io.EOF
	}
	return f.reader.Read(p)
}

func (f *vfsFile) Write(p []byte) (int, error) {
	if !f.writable {
		return 0, fmt.Errorf("%s: file not opened for writing", f.path)
	}
	return f.buf.Write(p)
}

func (f *vfsFile) Close() error {
	if !f.writable || f.buf == nil {
		return nil
	}
	if f.appendTo {
		return f.fs.Append(f.path, f.buf.Bytes())
	}
	return f.fs.Write(f.path, f.buf.Bytes())
}

// pipeReadWriteCloser adapts a process-substitution pipe end to
// io.ReadWriteCloser — only the end matching the open flags is usable, the
// other side simply returns an error, matching how a real `/dev/fd/N` node
// behaves when opened for the wrong direction.
type pipeReadWriteCloser struct {
	r io.ReadCloser
	w io.WriteCloser
}

func (p pipeReadWriteCloser) Read(b []byte) (int, error) {
	if p.r == nil {
		return 0, fmt.Errorf("process substitution endpoint is not readable")
	}
	return p.r.Read(b)
}

func (p pipeReadWriteCloser) Write(b []byte) (int, error) {
	if p.w == nil {
		return 0, fmt.Errorf("process substitution endpoint is not writable")
	}
	return p.w.Write(b)
}

func (p pipeReadWriteCloser) Close() error {
	if p.r != nil {
		return p.r.Close()
	}
	if p.w != nil {
		return p.w.Close()
	}
	return nil
}

// openHandler returns an interp.OpenHandlerFunc bound to fs, implementing
// the open-flag combinations interp.Runner actually issues for redirection
// targets and `< file` / `> file` / `>> file` / `source`. Paths previously
// minted by procSubRegistry.synthPath resolve to the live pipe instead of
// falling through to VFS-backed storage.
func openHandler(fsys *vfs.FS, psr *procSubRegistry) interp.OpenHandlerFunc {
	return func(ctx context.Context, p string, flag int, perm fs.FileMode) (io.ReadWriteCloser, error) {
		if ps, ok := psr.lookup(p); ok {
			writable := flag&(os.O_WRONLY|os.O_RDWR) != 0
			if writable {
				return pipeReadWriteCloser{w: ps.w}, nil
			}
			return pipeReadWriteCloser{r: ps.r}, nil
		}

		hc := interp.HandlerCtx(ctx)
		resolved, err := fsys.ResolvePath(p, hc.Dir)
		if err != nil {
			return nil, err
		}

		writable := flag&(os.O_WRONLY|os.O_RDWR) != 0
		creating := flag&os.O_CREATE != 0
		appendMode := flag&os.O_APPEND != 0
		truncMode := flag&os.O_TRUNC != 0

		if !fsys.Exists(resolved) {
			if !creating {
				return nil, fmt.Errorf("%s: %w", p, vfs.ErrNotFound)
			}
			if err := fsys.Write(resolved, nil); err != nil {
				return nil, err
			}
		}

		f := &vfsFile{fs: fsys, path: resolved, writable: writable, appendTo: appendMode}
		if !writable || !truncMode {
			data, err := fsys.Read(resolved)
			if err != nil {
				return nil, err
			}
			f.reader = bytes.NewReader(data)
		}
		if writable {
			f.buf = &bytes.Buffer{}
		}
		return f, nil
	}
}

// dirEntry adapts vfs.Info to fs.DirEntry for interp.ReadDirHandlerFunc2.
type dirEntry struct{ info vfs.Info }

func (d dirEntry) Name() string               { return d.info.Name() }
func (d dirEntry) IsDir() bool                { return d.info.IsDir() }
func (d dirEntry) Type() fs.FileMode          { return d.info.Mode().Type() }
func (d dirEntry) Info() (fs.FileInfo, error) { return d.info, nil }

func readDirHandler(fsys *vfs.FS) interp.ReadDirHandlerFunc2 {
	return func(ctx context.Context, p string) ([]fs.DirEntry, error) {
		hc := interp.HandlerCtx(ctx)
		resolved, err := fsys.ResolvePath(p, hc.Dir)
		if err != nil {
			return nil, err
		}
		infos, err := fsys.ReadDir(resolved)
		if err != nil {
			return nil, err
		}
		entries := make([]fs.DirEntry, len(infos))
		for i, info := range infos {
			entries[i] = dirEntry{info: info}
		}
		return entries, nil
	}
}

// namedPipeInfo is the synthetic fs.FileInfo StatHandler reports for a
// process-substitution endpoint, so `[ -p <(cmd) ]`-style tests see a named
// pipe rather than an error.
type namedPipeInfo struct{ name string }

func (n namedPipeInfo) Name() string       { return n.name }
func (n namedPipeInfo) Size() int64        { return 0 }
func (n namedPipeInfo) Mode() fs.FileMode  { return fs.ModeNamedPipe }
func (n namedPipeInfo) ModTime() time.Time { return time.Time{} }
func (n namedPipeInfo) IsDir() bool        { return false }
func (n namedPipeInfo) Sys() any           { return nil }

func statHandler(fsys *vfs.FS, psr *procSubRegistry) interp.StatHandlerFunc {
	return func(ctx context.Context, p string, followSymlinks bool) (fs.FileInfo, error) {
		if _, ok := psr.lookup(p); ok {
			return namedPipeInfo{name: path.Base(p)}, nil
		}
		hc := interp.HandlerCtx(ctx)
		resolved, err := fsys.ResolvePath(p, hc.Dir)
		if err != nil {
			return nil, err
		}
		if followSymlinks {
			return fsys.Stat(resolved)
		}
		return fsys.Lstat(resolved)
	}
}
