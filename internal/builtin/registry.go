package builtin

import (
	"sync"

	"github.com/kazz187/vbash/internal/netfetch"
)

// Registry is the name -> Handler table, grounded on the teacher's
// agentmanager.Registry shape: a flat map behind a single RWMutex, safe for
// one Bash instance's lifetime (RegisterCommand can run concurrently with
// an in-flight Exec's lookups).
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry returns a Registry pre-populated with every built-in command
// from spec.md §4.6's pure and contract-only collaborator lists.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]Handler)}
	r.registerDefaults()
	return r
}

// Register adds or replaces the handler for name. Used both by
// registerDefaults and by (*shell.Bash).RegisterCommand for embedder-
// supplied overrides.
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Lookup returns the handler registered for name, if any.
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

func (r *Registry) registerDefaults() {
	r.Register("echo", HandlerFunc(runEcho))
	r.Register("cat", HandlerFunc(runCat))
	r.Register("head", HandlerFunc(runHead))
	r.Register("tail", HandlerFunc(runTail))
	r.Register("wc", HandlerFunc(runWc))
	r.Register("cut", HandlerFunc(runCut))
	r.Register("tr", HandlerFunc(runTr))
	r.Register("sort", HandlerFunc(runSort))
	r.Register("uniq", HandlerFunc(runUniq))
	r.Register("grep", HandlerFunc(runGrep))
	r.Register("printf", HandlerFunc(runPrintf))
	r.Register("basename", HandlerFunc(runBasename))
	r.Register("dirname", HandlerFunc(runDirname))
	r.Register("xargs", HandlerFunc(runXargs))
	r.Register("find", HandlerFunc(runFind))
	r.Register("awk", HandlerFunc(runAwk))
	r.Register("jq", HandlerFunc(runJQ))
	r.Register("fmt", HandlerFunc(runFmt))
	r.Register("sqlite3", newSQLite3Handler())
	r.Register("sed", HandlerFunc(notImplemented("sed")))
	r.Register("yq", HandlerFunc(notImplemented("yq")))
	r.Register("xan", HandlerFunc(notImplemented("xan")))

	// Bound to the deny-everything default; internal/shell.New re-registers
	// both against the instance's actual WithNetwork allow-list.
	r.Register("http_get", NewHTTPGetHandler(netfetch.DefaultAllowList()))
	r.Register("fetch", NewFetchHandler(netfetch.DefaultAllowList()))
}
