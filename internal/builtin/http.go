package builtin

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/kazz187/vbash/internal/netfetch"
	"github.com/kazz187/vbash/pkg/cerr"
)

// httpHandler backs both the `http_get` and `fetch` builtins named in
// SPEC_FULL.md §2/§6: a thin adapter from argv onto internal/netfetch.Fetch,
// bound to the owning Bash instance's allow-list at registration time
// (internal/shell.New wires this in, since the allow-list is fixed per
// instance via WithNetwork, not per invocation).
type httpHandler struct {
	list         netfetch.AllowList
	defaultVerb  string
	verbFromArgs bool
}

// NewHTTPGetHandler returns the `http_get <url>` builtin: always GET, body
// on stdout, a status of 400 or above reported as a nonzero exit with the
// URL and status code on stderr.
func NewHTTPGetHandler(list netfetch.AllowList) Handler {
	return httpHandler{list: list, defaultVerb: "GET"}
}

// NewFetchHandler returns the `fetch [-X METHOD] [-d body] <url>` builtin,
// a curl-shaped surface for methods http_get doesn't cover.
func NewFetchHandler(list netfetch.AllowList) Handler {
	return httpHandler{list: list, verbFromArgs: true}
}

func (h httpHandler) Execute(ctx context.Context, args []string, cctx *CommandContext) Result {
	prog := "http_get"
	method := h.defaultVerb
	var bodyStr string
	if h.verbFromArgs {
		prog = "fetch"
		fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		methodFlag := fs.String("X", "GET", "HTTP method")
		dataFlag := fs.String("d", "", "request body")
		if err := fs.Parse(args); err != nil {
			return usageResult(prog, err.Error())
		}
		args = fs.Args()
		method = strings.ToUpper(*methodFlag)
		bodyStr = *dataFlag
	}
	if len(args) != 1 {
		return usageResult(prog, "usage: "+prog+" <url>")
	}

	var body io.Reader
	if bodyStr != "" {
		body = strings.NewReader(bodyStr)
	}
	resp, err := netfetch.Fetch(ctx, h.list, method, args[0], body)
	if err != nil {
		return errResult(prog, err)
	}
	if resp.StatusCode >= 400 {
		return Result{
			Stdout:   string(resp.Body),
			Stderr:   fmt.Sprintf("%s: %s: %d\n", prog, args[0], resp.StatusCode),
			ExitCode: cerr.IOError.ExitCode(),
		}
	}
	return Result{Stdout: string(resp.Body), ExitCode: 0}
}
