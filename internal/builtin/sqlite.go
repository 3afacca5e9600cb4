package builtin

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// sqlite3Handler is the one stateful builtin in this registry: spec.md
// §4.6 wants sqlite3 backed by a real, pure-Go engine (modernc.org/sqlite,
// already in the teacher/pack dependency graph) against an in-memory
// database scoped to the lifetime of the owning Bash instance, not to a
// single invocation — so `sqlite3 mem.db "create table..."` followed by a
// later `sqlite3 mem.db "select..."` sees the same data.
type sqlite3Handler struct {
	mu  sync.Mutex
	dbs map[string]*sql.DB
}

func newSQLite3Handler() *sqlite3Handler {
	return &sqlite3Handler{dbs: make(map[string]*sql.DB)}
}

func (h *sqlite3Handler) dbFor(name string) (*sql.DB, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if db, ok := h.dbs[name]; ok {
		return db, nil
	}
	// The handler's address keeps same-named databases of two Bash instances
	// apart: a shared-cache memory database is otherwise visible process-wide.
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%p-%s?mode=memory&cache=shared", h, name))
	if err != nil {
		return nil, err
	}
	h.dbs[name] = db
	return db, nil
}

// Execute implements `sqlite3 <name> <statement>`: name picks (or creates)
// an in-memory database keyed by that name, statement runs against it.
// SELECT statements render a "|"-separated row format matching the real
// sqlite3 CLI's default non-interactive output mode.
func (h *sqlite3Handler) Execute(ctx context.Context, args []string, cctx *CommandContext) Result {
	if len(args) < 2 {
		return usageResult("sqlite3", "usage: sqlite3 <database> <statement>")
	}
	if cctx.Limits != nil {
		if err := cctx.Limits.IncCommand(); err != nil {
			return errResult("sqlite3", err)
		}
	}
	db, err := h.dbFor(args[0])
	if err != nil {
		return errResult("sqlite3", err)
	}
	stmt := strings.Join(args[1:], " ")
	if isSelect(stmt) {
		return runSQLiteQuery(ctx, db, stmt)
	}
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return errResult("sqlite3", err)
	}
	return Result{}
}

func isSelect(stmt string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(stmt)), "SELECT")
}

func runSQLiteQuery(ctx context.Context, db *sql.DB, stmt string) Result {
	rows, err := db.QueryContext(ctx, stmt)
	if err != nil {
		return errResult("sqlite3", err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return errResult("sqlite3", err)
	}
	var out strings.Builder
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return errResult("sqlite3", err)
		}
		strs := make([]string, len(vals))
		for i, v := range vals {
			strs[i] = fmt.Sprintf("%v", v)
		}
		out.WriteString(strings.Join(strs, "|"))
		out.WriteByte('\n')
	}
	if err := rows.Err(); err != nil {
		return errResult("sqlite3", err)
	}
	return Result{Stdout: out.String()}
}
