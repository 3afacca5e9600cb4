// Package netfetch implements the interpreter's one sanctioned network
// capability: an allow-list-checked HTTP(S) fetch. spec.md §6 marks the
// allow-list plumbing itself as "contract only" (out of scope), but the
// fetch path it gates is a real, wired component — every URL is checked
// against the allow-list before any byte goes out, redirects are followed
// manually and re-checked at every hop, only listed methods are permitted,
// and a single global timeout bounds the whole request.
//
// Grounded on the teacher's pkg/cerr error-taxonomy pattern for the typed
// violations (NetworkAccessDenied, MethodNotAllowed, RedirectNotAllowed,
// TooManyRedirects) and on net/http's own RoundTripper/CheckRedirect hooks
// for the manual-redirect-recheck mechanism — no third-party HTTP client
// library appears anywhere in the retrieval pack, so this is the one
// component SPEC_FULL.md's grounding ledger documents as intentionally
// stdlib-backed (see DESIGN.md).
package netfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kazz187/vbash/pkg/cerr"
)

// Entry is one allow-list triple: (scheme, host[:port], path-prefix).
// Matching is by exact origin (case-folded scheme/host) plus strict
// path-prefix, with trailing-slash semantics enforcing directory
// boundaries — "/api/" allows "/api/widgets" but not "/apiary".
type Entry struct {
	Scheme     string
	Host       string
	PathPrefix string
}

// AllowList is the set of origins+prefixes a Bash instance may fetch from.
type AllowList struct {
	Entries []Entry
	Methods []string // allowed HTTP methods; empty means GET/HEAD only
	Timeout time.Duration
}

// DefaultAllowList denies everything: zero entries, GET/HEAD only, a
// conservative timeout — an embedder must opt in explicitly via
// shell.WithNetwork to reach any origin at all.
func DefaultAllowList() AllowList {
	return AllowList{Methods: []string{"GET", "HEAD"}, Timeout: 10 * time.Second}
}

const maxRedirects = 10

// ParseAllowList parses the "scheme://host[:port]/path-prefix,..." form
// internal/config's NetworkEnv.AllowList carries, for the cmd/vbash CLI
// binary's env-driven configuration. A blank string yields no entries
// (still the allow-nothing default), matching DefaultAllowList.
func ParseAllowList(raw string) ([]Entry, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	entries := make([]Entry, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		scheme, host, path, err := splitURL(part)
		if err != nil {
			return nil, fmt.Errorf("invalid allow-list entry %q: %w", part, err)
		}
		entries = append(entries, Entry{Scheme: scheme, Host: host, PathPrefix: path})
	}
	return entries, nil
}

// isAllowed reports whether url (scheme, host, path) clears the allow-list.
// Stable under case-folding of scheme and host (per spec.md §8's
// quantified invariant) but not of path, since paths are case-sensitive on
// most origins this gates.
func isAllowed(list AllowList, scheme, host, urlPath string) bool {
	scheme = strings.ToLower(scheme)
	host = strings.ToLower(host)
	for _, e := range list.Entries {
		if strings.ToLower(e.Scheme) != scheme || strings.ToLower(e.Host) != host {
			continue
		}
		prefix := e.PathPrefix
		if prefix == "" || prefix == "/" {
			return true
		}
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		if urlPath == strings.TrimSuffix(prefix, "/") || strings.HasPrefix(urlPath, prefix) {
			return true
		}
	}
	return false
}

func methodAllowed(list AllowList, method string) bool {
	if len(list.Methods) == 0 {
		return method == http.MethodGet || method == http.MethodHead
	}
	for _, m := range list.Methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

// Response is the subset of an HTTP response this sandboxed fetch surfaces
// back to callers (the awk/shell layers never get a live *http.Response).
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Fetch performs one allow-list-checked request, manually following up to
// maxRedirects redirects and re-checking the allow-list and method at every
// hop — net/http's default redirect-follow never re-validates like this,
// which is exactly the gap spec.md §6 calls out.
func Fetch(ctx context.Context, list AllowList, method, rawURL string, body io.Reader) (*Response, error) {
	if !methodAllowed(list, method) {
		return nil, cerr.New(cerr.MethodNotAllowed, "", rawURL, fmt.Sprintf("method %s not allowed", method), nil)
	}

	client := &http.Client{
		Timeout: list.Timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse // we re-dispatch redirects ourselves below
		},
	}

	current := rawURL
	for hop := 0; ; hop++ {
		if hop > maxRedirects {
			return nil, cerr.New(cerr.TooManyRedirects, "", rawURL, "too many redirects", nil)
		}
		scheme, host, path, err := splitURL(current)
		if err != nil {
			return nil, cerr.New(cerr.NetworkAccessDenied, "", current, err.Error(), nil)
		}
		if scheme != "http" && scheme != "https" {
			return nil, cerr.New(cerr.NetworkAccessDenied, "", current, fmt.Sprintf("scheme %q not permitted", scheme), nil)
		}
		if !isAllowed(list, scheme, host, path) {
			code := cerr.NetworkAccessDenied
			if hop > 0 {
				code = cerr.RedirectNotAllowed
			}
			return nil, cerr.New(code, "", current, "URL is not on the allow-list", nil)
		}

		req, err := http.NewRequestWithContext(ctx, method, current, body)
		if err != nil {
			return nil, cerr.New(cerr.NetworkAccessDenied, "", current, err.Error(), nil)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, cerr.New(cerr.IOError, "", current, err.Error(), err)
		}

		if loc := resp.Header.Get("Location"); loc != "" && isRedirectStatus(resp.StatusCode) {
			resp.Body.Close()
			current = resolveRedirect(current, loc)
			continue
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, cerr.New(cerr.IOError, "", current, err.Error(), err)
		}
		return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
	}
}

func isRedirectStatus(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}
