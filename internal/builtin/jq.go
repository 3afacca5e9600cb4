package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// runJQ implements the minimal jq subset spec.md §4.6 asks for from this
// contract-only collaborator: ".", ".field", ".field.nested", ".[n]", and
// the pipeline forms "to_entries" / "from_entries". A filter outside that
// subset fails with an error rather than a best-effort guess at real jq's
// much larger filter language.
func runJQ(_ context.Context, args []string, cctx *CommandContext) Result {
	files := stripFlags(args)
	if len(files) == 0 {
		return usageResult("jq", "usage: jq filter [file]")
	}
	filter := files[0]
	in, err := readInput(files[1:], cctx)
	if err != nil {
		return errResult("jq", err)
	}
	var doc any
	if err := json.Unmarshal([]byte(in), &doc); err != nil {
		return errResult("jq", fmt.Errorf("invalid JSON input: %w", err))
	}

	result, err := applyJQFilter(filter, doc)
	if err != nil {
		return errResult("jq", err)
	}
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errResult("jq", err)
	}
	return Result{Stdout: string(out) + "\n"}
}

func applyJQFilter(filter string, doc any) (any, error) {
	filter = strings.TrimSpace(filter)
	switch filter {
	case ".", "":
		return doc, nil
	case "to_entries":
		m, ok := doc.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("to_entries: input is not an object")
		}
		entries := make([]map[string]any, 0, len(m))
		for _, k := range sortedMapKeys(m) {
			entries = append(entries, map[string]any{"key": k, "value": m[k]})
		}
		return entries, nil
	case "from_entries":
		list, ok := doc.([]any)
		if !ok {
			return nil, fmt.Errorf("from_entries: input is not an array")
		}
		out := map[string]any{}
		for _, item := range list {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			key := fmt.Sprintf("%v", entry["key"])
			out[key] = entry["value"]
		}
		return out, nil
	}
	if !strings.HasPrefix(filter, ".") {
		return nil, fmt.Errorf("unsupported jq filter %q", filter)
	}
	cur := doc
	for _, segment := range splitJQPath(filter[1:]) {
		if idx, err := strconv.Atoi(segment); err == nil {
			list, ok := cur.([]any)
			if !ok || idx < 0 || idx >= len(list) {
				return nil, fmt.Errorf("index %d out of range", idx)
			}
			cur = list[idx]
			continue
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q: input is not an object", segment)
		}
		cur = m[segment]
	}
	return cur, nil
}

// splitJQPath turns "field.nested[2].other" into ["field", "nested", "2", "other"].
func splitJQPath(path string) []string {
	path = strings.ReplaceAll(path, "[", ".")
	path = strings.ReplaceAll(path, "]", "")
	var out []string
	for _, p := range strings.Split(path, ".") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func sortedMapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}
