// Package logx is a small context-carried, severity-leveled logger in the
// shape of gapid's core/log: a Logger lives on a context.Context and call
// sites fetch it with From(ctx) rather than passing a logger explicitly.
package logx

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// Severity mirrors the RFC5424 levels core/log/severity.go exposes.
type Severity int32

const (
	Emergency Severity = iota
	Alert
	Critical
	Error
	Warning
	Notice
	Info
	Debug
)

func (s Severity) String() string {
	switch s {
	case Emergency:
		return "emergency"
	case Alert:
		return "alert"
	case Critical:
		return "critical"
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Notice:
		return "notice"
	case Info:
		return "info"
	case Debug:
		return "debug"
	default:
		return "unknown"
	}
}

// Logger writes severity-tagged messages to an underlying writer.
type Logger struct {
	w     io.Writer
	level Severity
	tag   string
	now   func() time.Time
}

// New returns a Logger writing to w, filtering messages above level.
func New(w io.Writer, level Severity) *Logger {
	return &Logger{w: w, level: level, now: time.Now}
}

// Std returns a default Logger writing to stderr at Info level.
func Std() *Logger { return New(os.Stderr, Info) }

// With returns a copy of l tagged with an additional component name.
func (l *Logger) With(tag string) *Logger {
	c := *l
	if c.tag == "" {
		c.tag = tag
	} else {
		c.tag = c.tag + "." + tag
	}
	return &c
}

func (l *Logger) log(sev Severity, format string, args ...interface{}) {
	if l == nil || sev > l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.tag != "" {
		fmt.Fprintf(l.w, "%s %s [%s] %s\n", l.now().Format(time.RFC3339Nano), sev, l.tag, msg)
		return
	}
	fmt.Fprintf(l.w, "%s %s %s\n", l.now().Format(time.RFC3339Nano), sev, msg)
}

func (l *Logger) Errorf(format string, args ...interface{})   { l.log(Error, format, args...) }
func (l *Logger) Warningf(format string, args ...interface{}) { l.log(Warning, format, args...) }
func (l *Logger) Infof(format string, args ...interface{})    { l.log(Info, format, args...) }
func (l *Logger) Debugf(format string, args ...interface{})   { l.log(Debug, format, args...) }

type key struct{}

// Attach returns a context carrying l, retrievable with From.
func Attach(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, key{}, l)
}

// From returns the Logger attached to ctx, or a disabled logger if none.
func From(ctx context.Context) *Logger {
	if l, ok := ctx.Value(key{}).(*Logger); ok {
		return l
	}
	return New(io.Discard, Emergency-1)
}
