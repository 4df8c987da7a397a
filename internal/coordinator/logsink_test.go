package coordinator

import (
	"sync"

	"github.com/turtacn/CameraShell/pkg/logger"
)

type entry struct {
	Level string
	Msg   string
	Attrs map[string]any
}

// sink is an in-memory logger.Logger recording every entry.
type sink struct {
	mu      sync.Mutex
	entries []entry
}

type sinkLogger struct {
	s    *sink
	base []any
}

func newSink() (*sink, logger.Logger) {
	s := &sink{}
	return s, &sinkLogger{s: s}
}

func (l *sinkLogger) record(level, msg string, args []any) {
	all := append(append([]any(nil), l.base...), args...)
	attrs := make(map[string]any, len(all)/2)
	for i := 0; i+1 < len(all); i += 2 {
		if k, ok := all[i].(string); ok {
			attrs[k] = all[i+1]
		}
	}
	l.s.mu.Lock()
	l.s.entries = append(l.s.entries, entry{Level: level, Msg: msg, Attrs: attrs})
	l.s.mu.Unlock()
}

func (l *sinkLogger) Debug(msg string, args ...any) { l.record("debug", msg, args) }
func (l *sinkLogger) Info(msg string, args ...any)  { l.record("info", msg, args) }
func (l *sinkLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args) }
func (l *sinkLogger) Error(msg string, args ...any) { l.record("error", msg, args) }
func (l *sinkLogger) With(args ...any) logger.Logger {
	return &sinkLogger{s: l.s, base: append(append([]any(nil), l.base...), args...)}
}

func (s *sink) all() []entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entry(nil), s.entries...)
}

func (s *sink) count(msg string) int {
	n := 0
	for _, e := range s.all() {
		if e.Msg == msg {
			n++
		}
	}
	return n
}

func (s *sink) errors() []entry {
	var out []entry
	for _, e := range s.all() {
		if e.Level == "error" {
			out = append(out, e)
		}
	}
	return out
}

func (s *sink) errorsFor(op string) []entry {
	var out []entry
	for _, e := range s.errors() {
		if e.Attrs["op"] == op {
			out = append(out, e)
		}
	}
	return out
}

// Personal.AI order the ending
