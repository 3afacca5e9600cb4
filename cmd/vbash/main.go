package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/kazz187/vbash"
	"github.com/kazz187/vbash/internal/config"
	"github.com/kazz187/vbash/internal/limits"
	"github.com/kazz187/vbash/internal/netfetch"
	"github.com/kazz187/vbash/pkg/clog"
)

var (
	app = kingpin.New("vbash", "Embeddable POSIX/Bash-compatible shell interpreter")

	execCmd  = app.Command("exec", "Run a single command line and exit")
	execLine = execCmd.Arg("command", "The command line to run").Required().String()

	replCmd = app.Command("repl", "Read command lines from stdin, one Exec call each, until EOF")
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	env, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "vbash:", err)
		os.Exit(1)
	}
	logger := slog.New(clog.NewAttributesHandler(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: env.SlogLevel()}),
	))

	allowEntries, err := netfetch.ParseAllowList(env.NetworkEnv.AllowList)
	if err != nil {
		fmt.Fprintln(os.Stderr, "vbash:", err)
		os.Exit(1)
	}
	network := netfetch.AllowList{
		Entries: allowEntries,
		Methods: []string{"GET", "HEAD"},
		Timeout: time.Duration(env.NetworkEnv.TimeoutMS) * time.Millisecond,
	}
	limitsCfg := limits.Config{
		MaxCommandCount:  env.LimitsEnv.MaxCommandCount,
		MaxCallDepth:     int64(env.LimitsEnv.MaxCallDepth),
		MaxAwkIterations: env.LimitsEnv.MaxAwkIterations,
	}

	b, err := vbash.New(
		vbash.WithEnv(processEnviron()),
		vbash.WithCwd(cwdOrRoot()),
		vbash.WithLimits(limitsCfg),
		vbash.WithNetwork(network),
		vbash.WithLogger(logger),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "vbash:", err)
		os.Exit(1)
	}

	ctx := context.Background()
	switch command {
	case execCmd.FullCommand():
		os.Exit(runOne(ctx, b, *execLine))
	case replCmd.FullCommand():
		os.Exit(runRepl(ctx, b))
	}
}

func runOne(ctx context.Context, b *vbash.Bash, line string) int {
	res, err := b.Exec(ctx, line)
	if err != nil {
		fmt.Fprintln(os.Stderr, "vbash:", err)
		return 1
	}
	fmt.Fprint(os.Stdout, res.Stdout)
	fmt.Fprint(os.Stderr, res.Stderr)
	return res.ExitCode
}

// runRepl threads Result.Env/Result.Cwd from each Exec call into the next
// one's ExecOptions, since internal/shell.Bash.Exec is isolated per call by
// design (see internal/shell's DESIGN.md entry) — a REPL is exactly the
// embedder responsible for stitching continuity back together.
func runRepl(ctx context.Context, b *vbash.Bash) int {
	scanner := bufio.NewScanner(os.Stdin)
	env := b.GetEnv()
	cwd := b.GetCwd()
	exitCode := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		res, err := b.Exec(ctx, line, vbash.WithExecEnv(env), vbash.WithExecCwd(cwd))
		if err != nil {
			fmt.Fprintln(os.Stderr, "vbash:", err)
			exitCode = 1
			continue
		}
		fmt.Fprint(os.Stdout, res.Stdout)
		fmt.Fprint(os.Stderr, res.Stderr)
		env = res.Env
		cwd = res.Cwd
		exitCode = res.ExitCode
	}
	return exitCode
}

func processEnviron() map[string]string {
	out := make(map[string]string, len(os.Environ()))
	for _, kv := range os.Environ() {
		if name, value, ok := strings.Cut(kv, "="); ok {
			out[name] = value
		}
	}
	return out
}

func cwdOrRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return "/"
	}
	return wd
}
