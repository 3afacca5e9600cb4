package clog

import (
	"io"
	"log/slog"
)

// New builds the runtime's default structured logger: text handler wrapped
// with AttributesHandler so any per-exec attributes stashed on the context
// (error, stack, command, exec id) ride along on every record without the
// caller threading them through every log call.
func New(w io.Writer, level Level) *slog.Logger {
	base := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level.Slog()})
	return slog.New(NewAttributesHandler(base))
}
