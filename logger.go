package hsm

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
)

// Logger is the engine logging contract. It matches the go-logger surface so
// callers can plug a glog.Logger through a thin adapter.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	WithContext(ctx context.Context) Logger
}

// FieldsLogger extends Logger with structured-field support.
type FieldsLogger interface {
	WithFields(map[string]any) Logger
}

// FmtLogger is the fallback logger used when no external logger is
// configured.
type FmtLogger struct {
	out    io.Writer
	fields map[string]any
}

// NewFmtLogger constructs a fallback logger writing to stderr when out is
// nil.
func NewFmtLogger(out io.Writer) *FmtLogger {
	if out == nil {
		out = os.Stderr
	}
	return &FmtLogger{out: out}
}

func (l *FmtLogger) Trace(msg string, args ...any) { l.write("TRACE", msg, args...) }
func (l *FmtLogger) Debug(msg string, args ...any) { l.write("DEBUG", msg, args...) }
func (l *FmtLogger) Info(msg string, args ...any)  { l.write("INFO", msg, args...) }
func (l *FmtLogger) Warn(msg string, args ...any)  { l.write("WARN", msg, args...) }
func (l *FmtLogger) Error(msg string, args ...any) { l.write("ERROR", msg, args...) }
func (l *FmtLogger) Fatal(msg string, args ...any) { l.write("FATAL", msg, args...) }

func (l *FmtLogger) WithContext(context.Context) Logger {
	return l
}

// WithFields returns a shallow copy carrying merged fields.
func (l *FmtLogger) WithFields(fields map[string]any) Logger {
	if l == nil {
		return NewFmtLogger(nil)
	}
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	cp := *l
	cp.fields = merged
	return &cp
}

func (l *FmtLogger) write(level, msg string, args ...any) {
	if l == nil {
		l = NewFmtLogger(nil)
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	var sb strings.Builder
	sb.WriteString(time.Now().UTC().Format(time.RFC3339))
	sb.WriteByte(' ')
	sb.WriteString(fmt.Sprintf("%-5s", level))
	sb.WriteByte(' ')
	sb.WriteString(strings.TrimSpace(msg))
	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf(" %s=%v", k, l.fields[k]))
		}
	}
	fmt.Fprintln(l.out, sb.String())
}

func normalizeLogger(logger Logger) Logger {
	if logger == nil {
		return NewFmtLogger(nil)
	}
	return logger
}

func withLoggerFields(logger Logger, fields map[string]any) Logger {
	if fl, ok := logger.(FieldsLogger); ok {
		return fl.WithFields(fields)
	}
	return logger
}
