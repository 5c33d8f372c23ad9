package utils

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Logger writes bracket-tagged lines to a standard log.Logger.
type Logger struct {
	out *log.Logger
	tag string
}

func NewLogger(tag string) *Logger {
	return NewLoggerTo(os.Stdout, tag)
}

func NewLoggerTo(w io.Writer, tag string) *Logger {
	return &Logger{out: log.New(w, "", log.LstdFlags), tag: tag}
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *Logger {
	return NewLoggerTo(io.Discard, "")
}

// With returns a logger sharing the same output under a different tag.
func (l *Logger) With(tag string) *Logger {
	if l == nil {
		return Discard().With(tag)
	}
	return &Logger{out: l.out, tag: tag}
}

func (l *Logger) Infof(format string, args ...any) {
	l.write("INFO", format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.write("WARN", format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.write("ERROR", format, args...)
}

func (l *Logger) write(level, format string, args ...any) {
	if l == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.tag != "" {
		l.out.Printf("[%s] %s: %s", level, l.tag, msg)
		return
	}
	l.out.Printf("[%s] %s", level, msg)
}
