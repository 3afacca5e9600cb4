package awk

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/kazz187/vbash/internal/vfs"
)

func (ip *interp) execList(stmts []Stmt) error {
	for _, s := range stmts {
		if err := ip.exec(s); err != nil {
			return err
		}
		if ip.ctrl != signalNone {
			return nil
		}
	}
	return nil
}

func (ip *interp) exec(s Stmt) error {
	switch n := s.(type) {
	case ExprStmt:
		_, err := ip.eval(n.X)
		return err

	case BlockStmt:
		return ip.execList(n.Body)

	case PrintStmt:
		return ip.execPrint(n)

	case PrintfStmt:
		return ip.execPrintf(n)

	case IfStmt:
		v, err := ip.eval(n.Cond)
		if err != nil {
			return err
		}
		if v.boolean() {
			return ip.execList(n.Then)
		}
		return ip.execList(n.Else)

	case WhileStmt:
		for {
			v, err := ip.eval(n.Cond)
			if err != nil {
				return err
			}
			if !v.boolean() {
				return nil
			}
			if err := ip.limitIter(); err != nil {
				return err
			}
			if err := ip.execList(n.Body); err != nil {
				return err
			}
			if stop, err := ip.handleLoopSignal(); stop {
				return err
			}
		}

	case DoWhileStmt:
		for {
			if err := ip.limitIter(); err != nil {
				return err
			}
			if err := ip.execList(n.Body); err != nil {
				return err
			}
			if stop, err := ip.handleLoopSignal(); stop {
				return err
			}
			v, err := ip.eval(n.Cond)
			if err != nil {
				return err
			}
			if !v.boolean() {
				return nil
			}
		}

	case ForStmt:
		if n.Init != nil {
			if err := ip.exec(n.Init); err != nil {
				return err
			}
		}
		for {
			if n.Cond != nil {
				v, err := ip.eval(n.Cond)
				if err != nil {
					return err
				}
				if !v.boolean() {
					return nil
				}
			}
			if err := ip.limitIter(); err != nil {
				return err
			}
			if err := ip.execList(n.Body); err != nil {
				return err
			}
			if stop, err := ip.handleLoopSignal(); stop {
				return err
			}
			if n.Post != nil {
				if err := ip.exec(n.Post); err != nil {
					return err
				}
			}
		}

	case ForInStmt:
		arr := ip.array(n.ArrayName)
		for _, k := range sortedKeys(arr) {
			if err := ip.limitIter(); err != nil {
				return err
			}
			ip.setScalar(n.VarName, str(k))
			if err := ip.execList(n.Body); err != nil {
				return err
			}
			if stop, err := ip.handleLoopSignal(); stop {
				return err
			}
		}
		return nil

	case NextStmt:
		ip.ctrl = signalNext
		return errNextSignal

	case NextFileStmt:
		ip.ctrl = signalNext
		return errNextSignal

	case ExitStmt:
		status := 0
		if n.Status != nil {
			v, err := ip.eval(n.Status)
			if err != nil {
				return err
			}
			status = int(v.num())
		}
		ip.exitStatus = status
		ip.ctrl = signalExit
		return ErrExit{Status: status}

	case ReturnStmt:
		var v value
		if n.Value != nil {
			var err error
			v, err = ip.eval(n.Value)
			if err != nil {
				return err
			}
		}
		ip.returnVal = v
		ip.ctrl = signalReturn
		return nil

	case BreakStmt:
		ip.ctrl = signalBreak
		return nil

	case ContinueStmt:
		ip.ctrl = signalContinue
		return nil

	case DeleteStmt:
		arr := ip.array(n.ArrayName)
		if len(n.Index) == 0 {
			for k := range arr {
				delete(arr, k)
			}
			return nil
		}
		key, err := ip.evalSubscript(n.Index)
		if err != nil {
			return err
		}
		delete(arr, key)
		return nil

	case GetlineStmt:
		_, err := ip.evalGetline(n.Target, n.Source)
		return err

	default:
		return fmt.Errorf("awk: unhandled statement %T", s)
	}
}

// handleLoopSignal consumes a break/continue signal at the loop boundary
// it belongs to; it returns stop=true only for break (caller returns nil)
// or for a propagating exit/return/next (caller returns the zero error,
// which is handled by Run/execList noticing ip.ctrl is still set).
func (ip *interp) handleLoopSignal() (stop bool, err error) {
	switch ip.ctrl {
	case signalBreak:
		ip.ctrl = signalNone
		return true, nil
	case signalContinue:
		ip.ctrl = signalNone
		return false, nil
	case signalReturn, signalExit, signalNext, signalNextFile:
		return true, nil
	default:
		return false, nil
	}
}

func (ip *interp) execPrint(n PrintStmt) error {
	w, err := ip.resolveOutput(n.Dest)
	if err != nil {
		return err
	}
	if len(n.Args) == 0 {
		_, err = fmt.Fprintf(w, "%s%s", ip.line, ip.outRecordSep)
		return err
	}
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		v, err := ip.eval(a)
		if err != nil {
			return err
		}
		parts[i] = ip.outputStr(v)
	}
	_, err = fmt.Fprintf(w, "%s%s", strings.Join(parts, ip.outFieldSep), ip.outRecordSep)
	return err
}

// outputStr formats a value for print using OFMT for non-integral
// numbers, distinct from CONVFMT used by string-context coercions.
func (ip *interp) outputStr(v value) string {
	if v.isStr || v.isNumStr {
		return v.s
	}
	return formatNum(v.n, ip.ofmt)
}

func (ip *interp) execPrintf(n PrintfStmt) error {
	w, err := ip.resolveOutput(n.Dest)
	if err != nil {
		return err
	}
	if len(n.Args) == 0 {
		return fmt.Errorf("awk: printf requires a format argument")
	}
	vals := make([]value, len(n.Args))
	for i, a := range n.Args {
		v, err := ip.eval(a)
		if err != nil {
			return err
		}
		vals[i] = v
	}
	out, err := ip.sprintf(vals[0].str(ip.convfmt), vals[1:])
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func (ip *interp) resolveOutput(dest *OutputRedirect) (io.Writer, error) {
	if dest == nil {
		return ip.cfg.Output, nil
	}
	target, err := ip.eval(dest.Target)
	if err != nil {
		return nil, err
	}
	name := target.str(ip.convfmt)

	if dest.Op == "|" {
		// Piping print output to a command is realized as: buffer the
		// writes, then flush the accumulated text through cfg.Exec once
		// the stream is closed (on program exit) — see closeStreams.
		if w, ok := ip.outStreams[name]; ok {
			return w, nil
		}
		buf := &cmdPipeWriter{interp: ip, cmd: name}
		ip.outStreams[name] = buf
		return buf, nil
	}

	if w, ok := ip.outStreams[name]; ok {
		return w, nil
	}
	if ip.cfg.FS == nil {
		return nil, fmt.Errorf("awk: no filesystem configured for output redirection to %q", name)
	}
	path := ip.resolvePath(name)
	if dest.Op == ">>" {
		if !ip.cfg.FS.Exists(path) {
			if err := ip.cfg.FS.Write(path, nil); err != nil {
				return nil, err
			}
		}
	} else {
		if err := ip.cfg.FS.Write(path, nil); err != nil {
			return nil, err
		}
	}
	w := &vfsWriter{fs: ip.cfg.FS, path: path, appendMode: dest.Op == ">>"}
	ip.outStreams[name] = w
	return w, nil
}

func (ip *interp) resolvePath(p string) string {
	if ip.cfg.FS == nil {
		return p
	}
	resolved, err := ip.cfg.FS.ResolvePath(p, ip.cfg.Cwd)
	if err != nil {
		return p
	}
	return resolved
}

// vfsWriter is the writer behind print/printf redirection to a file. The
// VFS has no streaming append-handle concept, only whole-value Write/Append,
// so each Write call appends to the VFS file immediately and Close has
// nothing left to flush.
type vfsWriter struct {
	fs         *vfs.FS
	path       string
	appendMode bool
}

func (w *vfsWriter) Write(p []byte) (int, error) {
	if err := w.fs.Append(w.path, p); err != nil {
		return 0, err
	}
	return len(p), nil
}
func (w *vfsWriter) Close() error { return nil }

// cmdPipeWriter accumulates text written to `print | "cmd"` and, on
// Close, runs the command once through the command-exec callback with that
// text as its stdin, writing the command's stdout to the program's output.
type cmdPipeWriter struct {
	interp *interp
	cmd    string
	buf    strings.Builder
}

func (w *cmdPipeWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *cmdPipeWriter) Close() error {
	if w.interp.cfg.Exec == nil {
		return nil
	}
	cmdLine := w.cmd
	if w.buf.Len() > 0 {
		quoted := "'" + strings.ReplaceAll(w.buf.String(), "'", `'\''`) + "'"
		cmdLine = "printf '%s' " + quoted + " | " + w.cmd
	}
	out, _, err := w.interp.cfg.Exec(cmdLine)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w.interp.cfg.Output, out)
	return err
}

func (ip *interp) getlineScanner(kind, name string) (*bufio.Scanner, error) {
	if sc, ok := ip.inStreams[kind+":"+name]; ok {
		return sc, nil
	}
	switch kind {
	case "stdin":
		sc := bufio.NewScanner(ip.cfg.Stdin)
		sc.Buffer(make([]byte, 64*1024), 10*1024*1024)
		ip.inStreams[kind+":"+name] = sc
		return sc, nil
	case "file":
		if ip.cfg.FS == nil {
			return nil, fmt.Errorf("awk: no filesystem configured for getline < %q", name)
		}
		path := ip.resolvePath(name)
		if !ip.cfg.FS.Exists(path) {
			return nil, errGetlineIOError
		}
		data, err := ip.cfg.FS.Read(path)
		if err != nil {
			return nil, errGetlineIOError
		}
		sc := bufio.NewScanner(strings.NewReader(string(data)))
		ip.inStreams[kind+":"+name] = sc
		return sc, nil
	case "cmd":
		if ip.cfg.Exec == nil {
			return nil, fmt.Errorf("awk: command execution not available")
		}
		out, _, err := ip.cfg.Exec(name)
		if err != nil {
			return nil, err
		}
		sc := bufio.NewScanner(strings.NewReader(out))
		ip.inStreams[kind+":"+name] = sc
		return sc, nil
	default:
		return nil, fmt.Errorf("awk: unknown getline source kind %q", kind)
	}
}

// errGetlineIOError is the sentinel the getline expression handler maps
// to a -1 return (distinct from the 0-on-EOF "no more input" case), per
// spec.md's "missing file is IOError, empty file is clean EOF" rule.
var errGetlineIOError = fmt.Errorf("awk: getline: no such file")
