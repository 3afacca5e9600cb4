// Package envstore implements the array-aware variable store the shell
// runtime executes against. It plugs directly into mvdan.cc/sh/v3/interp as
// an expand.WriteEnviron, which is the one chokepoint interp.Runner reads
// and writes every variable through — so every invariant spec.md §3
// describes (exported visibility, readonly rejection, array element-0
// assignment, local shadow/restore) is enforced here rather than scattered
// across the executor.
//
// Grounded on mvdan.cc/sh/v3's own expandEnv/overlayEnviron pattern (see
// interp/runner.go in the retrieval pack): a flat name->Variable map behind
// Get/Each/Set, with scoping left to the caller (internal/shell clones a
// Store per Bash.Exec call rather than layering overlays, since spec.md's
// isolation model wants a full copy per call, not a push/pop scope chain).
package envstore

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"mvdan.cc/sh/v3/expand"
)

// ErrReadOnly is returned when Set targets a variable marked ReadOnly.
type ErrReadOnly struct{ Name string }

func (e ErrReadOnly) Error() string {
	return fmt.Sprintf("%s: readonly variable", e.Name)
}

// Store is a name -> expand.Variable table, safe for concurrent reads and
// for the copy-on-Exec cloning internal/shell performs between calls.
type Store struct {
	mu   sync.RWMutex
	vars map[string]expand.Variable
}

var _ expand.Environ = (*Store)(nil)
var _ expand.WriteEnviron = (*Store)(nil)

// New returns an empty Store with no variables set.
func New() *Store {
	return &Store{vars: make(map[string]expand.Variable)}
}

// NewFromMap seeds a Store from a flat name->value map, each variable
// Exported (spec.md's process-environment-shaped seed for a new Bash
// instance — everything passed to WithEnv is visible to child commands
// exactly as a real process environment would be).
func NewFromMap(env map[string]string) *Store {
	s := New()
	names := make([]string, 0, len(env))
	for k := range env {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		s.vars[k] = expand.Variable{Set: true, Exported: true, Kind: expand.String, Str: env[k]}
	}
	return s
}

// Clone makes a deep, independent copy of the store: internal/shell calls
// this once per Bash.Exec, matching spec.md §5's "envstore is never shared
// between concurrent execs" and "mutations from one Exec never leak into
// the next unless explicitly returned in Result.Env".
func (s *Store) Clone() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := New()
	for name, v := range s.vars {
		out.vars[name] = cloneVar(v)
	}
	return out
}

func cloneVar(v expand.Variable) expand.Variable {
	cp := v
	if v.List != nil {
		cp.List = append([]string(nil), v.List...)
	}
	if v.Map != nil {
		m := make(map[string]string, len(v.Map))
		for k, val := range v.Map {
			m[k] = val
		}
		cp.Map = m
	}
	return cp
}

// Get implements expand.Environ.
func (s *Store) Get(name string) expand.Variable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vars[name]
}

// Each implements expand.Environ.
func (s *Store) Each(fn func(name string, vr expand.Variable) bool) {
	s.mu.RLock()
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	vars := make(map[string]expand.Variable, len(s.vars))
	for k, v := range s.vars {
		vars[k] = v
	}
	s.mu.RUnlock()

	for _, name := range names {
		if !fn(name, vars[name]) {
			return
		}
	}
}

// Set implements expand.WriteEnviron. It enforces readonly rejection
// (spec.md §3's ReadOnlyAssignmentError) before any mutation.
func (s *Store) Set(name string, vr expand.Variable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.vars[name]; ok && existing.ReadOnly {
		return ErrReadOnly{Name: name}
	}
	if !vr.Set {
		delete(s.vars, name)
		return nil
	}
	s.vars[name] = vr
	return nil
}

// SetString is a convenience wrapper over Set for scalar string assignment,
// used by internal/shell when seeding special parameters ($0, PWD, IFS...).
func (s *Store) SetString(name, value string, exported bool) error {
	return s.Set(name, expand.Variable{Set: true, Kind: expand.String, Exported: exported, Str: value})
}

// SetReadOnly marks an existing variable readonly in place, bypassing the
// readonly check on Set itself. Nothing outside this package's tests calls
// it.
func (s *Store) SetReadOnly(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vars[name]
	if !ok {
		return fmt.Errorf("%s: not found", name)
	}
	v.ReadOnly = true
	s.vars[name] = v
	return nil
}

// Snapshot returns a flat name->value map of every Exported variable,
// matching Result.Env in spec.md §6 (only the exported view is surfaced to
// the embedder, not the full internal variable table). An indexed array is
// flattened to its elements joined by spaces, an associative array to its
// key=value pairs in key order joined by spaces.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.vars))
	for name, v := range s.vars {
		if !v.Exported || !v.Set {
			continue
		}
		switch v.Kind {
		case expand.Indexed:
			out[name] = joinIndexed(v.List)
		case expand.Associative:
			out[name] = joinAssoc(v.Map)
		default:
			out[name] = v.Str
		}
	}
	return out
}

func joinIndexed(list []string) string {
	s := ""
	for i, v := range list {
		if i > 0 {
			s += " "
		}
		s += v
	}
	return s
}

func joinAssoc(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := ""
	for i, k := range keys {
		if i > 0 {
			s += " "
		}
		s += k + "=" + m[k]
	}
	return s
}

// SetIndexedElement implements the `arr[2]=value` assignment form,
// growing the backing List as needed (spec.md §3's "array element-0
// assignment on an unset name implicitly creates an indexed array").
func (s *Store) SetIndexedElement(name string, index int, value string) error {
	if index < 0 {
		return fmt.Errorf("%s: %d: bad array subscript", name, index)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vars[name]
	if ok && v.ReadOnly {
		return ErrReadOnly{Name: name}
	}
	if !ok || v.Kind == expand.Unset {
		v = expand.Variable{Set: true, Kind: expand.Indexed}
	}
	for len(v.List) <= index {
		v.List = append(v.List, "")
	}
	v.List[index] = value
	s.vars[name] = v
	return nil
}

// SetAssocElement implements the `arr[key]=value` form for associative
// arrays declared with `declare -A`. Any key is valid, including names
// like __proto__/constructor/prototype that would be dangerous on a
// JavaScript object — a Go map has no prototype chain to pollute, so
// they're stored and retrieved as ordinary data like any other key.
func (s *Store) SetAssocElement(name, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vars[name]
	if ok && v.ReadOnly {
		return ErrReadOnly{Name: name}
	}
	if !ok || v.Kind == expand.Unset {
		v = expand.Variable{Set: true, Kind: expand.Associative, Map: make(map[string]string)}
	}
	if v.Map == nil {
		v.Map = make(map[string]string)
	}
	v.Map[key] = value
	s.vars[name] = v
	return nil
}

// ResolveNameRef follows a chain of NameRef variables (declare -n) to the
// variable they ultimately point at, capped to guard against self-reference
// cycles the same way internal/vfs caps symlink hops.
func (s *Store) ResolveNameRef(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]bool{}
	for {
		v, ok := s.vars[name]
		if !ok || v.Kind != expand.NameRef || seen[name] {
			return name
		}
		seen[name] = true
		name = v.Str
	}
}

// Len reports how many variables are currently set (used by tests and by
// the `declare -p` style listing builtins, if ever added).
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vars)
}

// Itoa is a small helper kept here so callers assigning integer-attributed
// variables (declare -i) don't need a second import just to stringify.
func Itoa(n int) string { return strconv.Itoa(n) }
