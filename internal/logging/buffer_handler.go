package logging

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// LogCallback is invoked for every log entry written to the ring buffer.
// The Facade wires this to the embedding host's own log callback (spec §6:
// "(categories, level, text)") so the host sees every record the node logs.
type LogCallback func(entry LogEntry)

// BufferHandler is a slog.Handler that writes to a ring buffer and
// optionally invokes a callback for each entry.
type BufferHandler struct {
	buffer   *RingBuffer
	level    slog.Leveler
	attrs    []slog.Attr
	groups   []string
	callback LogCallback
}

// NewBufferHandler creates a handler writing into the package's shared ring
// buffer at the given level.
func NewBufferHandler(level slog.Leveler) *BufferHandler {
	return &BufferHandler{buffer: logBuffer, level: level}
}

// Enabled implements slog.Handler.
func (h *BufferHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *BufferHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any)
	module := "app"
	nmosLevel := nmosLevelForSlog(r.Level)
	nmosLevelSet := false

	for _, a := range h.attrs {
		switch a.Key {
		case "module":
			module = a.Value.String()
		case "nmos_level":
			nmosLevel = int(a.Value.Int64())
			nmosLevelSet = true
		default:
			flattenAttr(attrs, h.groups, a)
		}
	}

	r.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "module":
			module = a.Value.String()
		case "nmos_level":
			nmosLevel = int(a.Value.Int64())
			nmosLevelSet = true
		default:
			flattenAttr(attrs, h.groups, a)
		}
		return true
	})
	_ = nmosLevelSet

	entry := LogEntry{
		Timestamp:  r.Time,
		Level:      levelToString(r.Level),
		NMOSLevel:  nmosLevel,
		Module:     module,
		Message:    r.Message,
		Attributes: attrs,
	}

	if h.buffer != nil {
		h.buffer.Write(entry)
	}
	if h.callback != nil {
		h.callback(entry)
	}
	callMutex.RLock()
	cb := globalCallback
	callMutex.RUnlock()
	if cb != nil {
		cb(entry)
	}

	return nil
}

// flattenAttr extracts a slog.Attr into a flat map, joining group names with
// dots.
func flattenAttr(attrs map[string]any, groups []string, a slog.Attr) {
	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		for _, ga := range a.Value.Group() {
			flattenAttr(attrs, append(groups, a.Key), ga)
		}
	case slog.KindTime:
		attrs[key] = a.Value.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		attrs[key] = a.Value.Duration().String()
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			attrs[key] = err.Error()
		} else {
			attrs[key] = a.Value.Any()
		}
	default:
		attrs[key] = a.Value.Any()
	}
}

// WithAttrs implements slog.Handler.
func (h *BufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)
	return &BufferHandler{buffer: h.buffer, level: h.level, attrs: newAttrs, groups: h.groups, callback: h.callback}
}

// WithGroup implements slog.Handler.
func (h *BufferHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups[len(h.groups)] = name
	return &BufferHandler{buffer: h.buffer, level: h.level, attrs: h.attrs, groups: newGroups, callback: h.callback}
}

func levelToString(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
