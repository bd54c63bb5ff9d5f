package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// consoleHiddenKeys are bound or record attributes that never reach the console.
var consoleHiddenKeys = map[string]bool{
	"intention": true,
	"time":      true,
	"level":     true,
	"msg":       true,
	"component": true,
	"call_id":   true,
}

// plainHandler is a minimal slog.Handler that prints only the message
// (prefixed by the intention icon) and appends key=value pairs, without
// time/level decorations. Intended for clean console output.
type plainHandler struct {
	w       io.Writer
	attrs   []slog.Attr
	mu      *sync.Mutex
	leveler slog.Leveler
}

func newPlainHandler(w io.Writer, leveler slog.Leveler) slog.Handler {
	return &plainHandler{w: w, leveler: leveler, mu: &sync.Mutex{}}
}

// Enabled implements slog.Handler by checking level
func (h *plainHandler) Enabled(_ context.Context, lvl slog.Level) bool {
	if h.leveler == nil {
		return true
	}
	return lvl >= h.leveler.Level()
}

// Handle prints the message and key=value pairs without time/level prefixes
func (h *plainHandler) Handle(_ context.Context, r slog.Record) error {
	var all []slog.Attr
	all = appendFlattened(all, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		all = appendFlattened(all, a)
		return true
	})

	var b strings.Builder
	for _, a := range all {
		if a.Key == "intention" {
			b.WriteString(iconFor(Intention(a.Value.String())))
			b.WriteByte(' ')
			break
		}
	}
	b.WriteString(r.Message)
	for _, a := range all {
		if consoleHiddenKeys[a.Key] {
			continue
		}
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.w, b.String())
	return err
}

// appendFlattened appends attrs, expanding groups one level.
func appendFlattened(dst []slog.Attr, attrs ...slog.Attr) []slog.Attr {
	for _, a := range attrs {
		if a.Value.Kind() == slog.KindGroup {
			dst = append(dst, a.Value.Group()...)
			continue
		}
		dst = append(dst, a)
	}
	return dst
}

// WithAttrs returns a new handler with additional attributes bound
func (h *plainHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &nh
}

// WithGroup groups attributes; for plain output groups are flattened
func (h *plainHandler) WithGroup(name string) slog.Handler {
	nh := *h
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), slog.Group(name))
	return &nh
}
