package builtin

import "context"

// notImplemented produces the Handler for a contract-only collaborator:
// sed, yq, and xan are named in spec.md §4.6's curated command surface but
// have no real implementation here (sed's regex-address-range dialect,
// yq's full YAML-path query language, and xan's CSV toolkit are each
// substantial engines of their own) — each still satisfies Handler and
// reports ErrNotImplemented through the normal exit-code/stderr contract
// rather than failing to resolve as a command at all, so a caller gets a
// clear "exists but not supported" signal instead of exit 127.
func notImplemented(name string) func(context.Context, []string, *CommandContext) Result {
	return func(_ context.Context, _ []string, _ *CommandContext) Result {
		return errResult(name, ErrNotImplemented)
	}
}
