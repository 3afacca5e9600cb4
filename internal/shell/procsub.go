package shell

import (
	"fmt"
	"io"
	"path"
	"sync"
	"sync/atomic"
)

// procSubRegistry maps synthetic `/proc/fd/N`-shaped paths to in-memory
// pipes; openHandler and statHandler consult lookup before the VFS. Paths
// are registered only by synthPath, which nothing in this package calls, so
// a `<(…)`/`>(…)` path interp.Runner hands to those handlers is not found
// here and is resolved against the VFS like any other path.
type procSubRegistry struct {
	mu      sync.Mutex
	counter int64
	pipes   map[string]*procSubPipe
}

type procSubPipe struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func newProcSubRegistry() *procSubRegistry {
	return &procSubRegistry{pipes: make(map[string]*procSubPipe)}
}

// synthPath mints the next `/proc/fd/N`-shaped path and registers its pipe
// ends; the caller is responsible for closing whichever end it doesn't
// hand off to the substituted command.
func (r *procSubRegistry) synthPath() (string, *procSubPipe) {
	n := atomic.AddInt64(&r.counter, 1)
	p := path.Join("/proc/fd", fmt.Sprintf("%d", n))
	pr, pw := io.Pipe()
	ps := &procSubPipe{r: pr, w: pw}
	r.mu.Lock()
	r.pipes[p] = ps
	r.mu.Unlock()
	return p, ps
}

// lookup resolves a previously minted synthetic path back to its pipe, for
// the VFS open handler to special-case before falling through to ordinary
// file storage.
func (r *procSubRegistry) lookup(p string) (*procSubPipe, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ps, ok := r.pipes[p]
	return ps, ok
}

// release closes and forgets a synthetic path once the surrounding command
// has finished, so the registry doesn't grow unbounded across a long-lived
// Bash instance's lifetime.
func (r *procSubRegistry) release(p string) {
	r.mu.Lock()
	ps, ok := r.pipes[p]
	delete(r.pipes, p)
	r.mu.Unlock()
	if ok {
		ps.r.Close()
		ps.w.Close()
	}
}
