package awk

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/rand"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kazz187/vbash/internal/limits"
	"github.com/kazz187/vbash/internal/vfs"
)

// Config configures one awk program execution. Grounded on goawk's own
// Config shape (interp.Config in the retrieval pack): Stdin/Output/Error,
// Args, Vars, Environ, and — specific to this sandboxed runtime — FS and
// Exec instead of real file/process access, since awk here only ever sees
// the in-memory VFS and the same command-exec callback xargs/find use.
type Config struct {
	Stdin  io.Reader
	Output io.Writer
	Error  io.Writer

	Args    []string
	Vars    map[string]string
	Environ map[string]string

	FS     *vfs.FS
	Cwd    string
	Limits *limits.Counters

	// Exec runs a shell command line through internal/shell.Bash.Exec and
	// returns its combined stdout, used by system() and the `cmd | getline`
	// / `print | cmd` forms — the awk runtime's only "system-adjacent"
	// capability, gated through the same sandbox the rest of the shell is.
	Exec func(cmdLine string) (stdout string, exitCode int, err error)
}

type controlSignal int

const (
	signalNone controlSignal = iota
	signalBreak
	signalContinue
	signalNext
	signalNextFile
	signalExit
	signalReturn
)

// ErrExit carries the exit() status code out of Run.
type ErrExit struct{ Status int }

func (e ErrExit) Error() string { return fmt.Sprintf("awk: exit %d", e.Status) }

// interp is the tree-walking evaluator. One interp instance executes one
// Program from BEGIN through END.
type interp struct {
	cfg     Config
	prog    *Program
	globals map[string]value
	arrays  map[string]map[string]value
	locals  []map[string]*value      // scalar call frames
	localAr []map[string]map[string]value // array call frames (by reference)

	fields    []string
	line      string
	numFields int

	fieldSep      string
	fieldSepRegex *regexp.Regexp
	outFieldSep   string
	outRecordSep  string
	recordSep     string
	subsep        string
	convfmt       string
	ofmt          string

	nr, fnr int
	rstart  int
	rlength int
	filename string

	exitStatus int
	random     *rand.Rand
	randSeed   float64

	outStreams map[string]io.WriteCloser
	inStreams  map[string]*bufio.Scanner

	regexCache map[string]*regexp.Regexp

	ctrl       controlSignal
	returnVal  value
}

// Run parses nothing itself (callers use ParseProgram) and executes prog:
// BEGIN blocks, then (if there are main/END rules) one record-loop per
// input reader, then END blocks — exactly goawk's ExecProgram ordering,
// adapted to this sandbox's VFS/Exec-backed I/O.
func Run(prog *Program, cfg Config) (int, error) {
	if cfg.Output == nil {
		cfg.Output = io.Discard
	}
	if cfg.Error == nil {
		cfg.Error = io.Discard
	}
	ip := &interp{
		cfg:          cfg,
		prog:         prog,
		globals:      make(map[string]value),
		arrays:       make(map[string]map[string]value),
		fieldSep:     " ",
		outFieldSep:  " ",
		outRecordSep: "\n",
		recordSep:    "\n",
		subsep:       "\x1c",
		convfmt:      "%.6g",
		ofmt:         "%.6g",
		randSeed:     1,
		outStreams:   make(map[string]io.WriteCloser),
		inStreams:    make(map[string]*bufio.Scanner),
		regexCache:   make(map[string]*regexp.Regexp),
	}
	ip.random = rand.New(rand.NewSource(1))

	environArr := make(map[string]value, len(cfg.Environ))
	for k, v := range cfg.Environ {
		environArr[k] = numStr(v)
	}
	ip.arrays["ENVIRON"] = environArr

	argvArr := map[string]value{"0": str("awk")}
	for i, a := range cfg.Args {
		argvArr[strconv.Itoa(i+1)] = numStr(a)
	}
	ip.arrays["ARGV"] = argvArr
	ip.globals["ARGC"] = num(float64(len(cfg.Args) + 1))

	for name, v := range cfg.Vars {
		ip.setScalar(name, numStr(v))
	}

	defer ip.closeStreams()

	for _, body := range prog.Begin {
		if err := ip.execList(body); err != nil {
			if ex, ok := err.(ErrExit); ok {
				return ex.Status, nil
			}
			return 0, err
		}
		if ip.ctrl == signalExit {
			return ip.exitStatus, nil
		}
	}

	if len(prog.Actions) > 0 || len(prog.End) > 0 {
		if err := ip.runMainLoop(); err != nil {
			if ex, ok := err.(ErrExit); ok {
				ip.exitStatus = ex.Status
			} else {
				return 0, err
			}
		}
	}

	for _, body := range prog.End {
		ip.ctrl = signalNone
		if err := ip.execList(body); err != nil {
			if ex, ok := err.(ErrExit); ok {
				return ex.Status, nil
			}
			return 0, err
		}
		if ip.ctrl == signalExit {
			break
		}
	}
	return ip.exitStatus, nil
}

func (ip *interp) runMainLoop() error {
	reader := ip.cfg.Stdin
	if reader == nil {
		reader = strings.NewReader("")
	}
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), 10*1024*1024)
	inRange := make([]bool, len(ip.prog.Actions))

	for scanner.Scan() {
		if err := ip.limitIter(); err != nil {
			return err
		}
		ip.setRecord(scanner.Text())
		ip.nr++
		ip.fnr++

		for i, rule := range ip.prog.Actions {
			matched, err := ip.matchRule(rule, inRange, i)
			if err != nil {
				return err
			}
			if !matched {
				continue
			}
			if rule.Body == nil {
				fmt.Fprintf(ip.cfg.Output, "%s%s", ip.line, ip.outRecordSep)
				continue
			}
			if err := ip.execList(rule.Body); err != nil {
				if err == errNextSignal {
					break
				}
				return err
			}
			if ip.ctrl == signalExit {
				return ErrExit{Status: ip.exitStatus}
			}
			if ip.ctrl == signalNext {
				ip.ctrl = signalNone
				break
			}
		}
	}
	return scanner.Err()
}

var errNextSignal = fmt.Errorf("next")

func (ip *interp) matchRule(rule Rule, inRange []bool, i int) (bool, error) {
	switch {
	case rule.Pattern == nil:
		return true, nil
	case rule.PatternEnd == nil:
		v, err := ip.eval(rule.Pattern)
		if err != nil {
			return false, err
		}
		return ip.truth(v, rule.Pattern), nil
	default:
		if !inRange[i] {
			v, err := ip.eval(rule.Pattern)
			if err != nil {
				return false, err
			}
			inRange[i] = ip.truth(v, rule.Pattern)
		}
		matched := inRange[i]
		if inRange[i] {
			v, err := ip.eval(rule.PatternEnd)
			if err != nil {
				return false, err
			}
			inRange[i] = !ip.truth(v, rule.PatternEnd)
		}
		return matched, nil
	}
}

// truth applies regex-literal-as-pattern shorthand: a bare /re/ pattern
// matches against $0, not its boolean value as a match object.
func (ip *interp) truth(v value, expr Expr) bool {
	if lit, ok := expr.(RegexLit); ok {
		re, _ := ip.compileRegex(lit.Pattern)
		return re != nil && re.MatchString(ip.line)
	}
	return v.boolean()
}

func (ip *interp) limitIter() error {
	if ip.cfg.Limits == nil {
		return nil
	}
	return ip.cfg.Limits.IncAwkIteration()
}

func (ip *interp) closeStreams() {
	for _, w := range ip.outStreams {
		w.Close()
	}
}

// ---- Record / field handling (grounded on goawk's ensureFields/setField/
// setLine trio in interp/interp.go) ----

func (ip *interp) setRecord(line string) {
	ip.line = line
	ip.splitFields()
}

func (ip *interp) splitFields() {
	sep := ip.fieldSep
	switch {
	case sep == " ":
		ip.fields = strings.Fields(ip.line)
	case sep == "":
		ip.fields = strings.Split(ip.line, "")
	case len(sep) == 1 && sep != "\\":
		ip.fields = strings.Split(ip.line, sep)
	default:
		re := ip.fieldSepRegex
		if re == nil {
			re, _ = regexp.Compile(sep)
			ip.fieldSepRegex = re
		}
		if re != nil {
			ip.fields = re.Split(ip.line, -1)
		} else {
			ip.fields = strings.Split(ip.line, sep)
		}
	}
	ip.numFields = len(ip.fields)
}

func (ip *interp) rebuildLine() {
	ip.line = strings.Join(ip.fields, ip.outFieldSep)
}

func (ip *interp) getField(i int) value {
	if i == 0 {
		return numStr(ip.line)
	}
	if i < 0 || i > len(ip.fields) {
		return str("")
	}
	return numStr(ip.fields[i-1])
}

func (ip *interp) setField(i int, v string) error {
	if i == 0 {
		ip.setRecord(v)
		return nil
	}
	if i < 0 {
		return fmt.Errorf("awk: field index negative: %d", i)
	}
	for len(ip.fields) < i {
		ip.fields = append(ip.fields, "")
	}
	ip.fields[i-1] = v
	ip.numFields = len(ip.fields)
	ip.rebuildLine()
	return nil
}

func (ip *interp) setNF(n int) {
	for len(ip.fields) < n {
		ip.fields = append(ip.fields, "")
	}
	if n < len(ip.fields) {
		ip.fields = ip.fields[:n]
	}
	ip.numFields = n
	ip.rebuildLine()
}

// ---- regex cache (grounded on goawk's compileRegex) ----

func (ip *interp) compileRegex(pattern string) (*regexp.Regexp, error) {
	if re, ok := ip.regexCache[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(convertERE(pattern))
	if err != nil {
		return nil, fmt.Errorf("awk: invalid regex %q: %w", pattern, err)
	}
	if len(ip.regexCache) < 200 {
		ip.regexCache[pattern] = re
	}
	return re, nil
}

// convertERE returns pattern unchanged: awk regexes are compiled as Go RE2
// syntax exactly as written, and POSIX-ERE idioms that RE2 rejects are not
// translated.
func convertERE(pattern string) string { return pattern }

func math_int(n float64) float64 { return math.Trunc(n) }

func sortedKeys(m map[string]value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
