package logging

import (
	"fmt"
	"io"
	"os"
)

// EarlyLog writes plain lines before the structured logger exists.
type EarlyLog struct {
	component string
	out       io.Writer
	errOut    io.Writer
}

func NewEarlyLog(component string) *EarlyLog {
	return &EarlyLog{
		component: component,
		out:       os.Stdout,
		errOut:    os.Stderr,
	}
}

func (l *EarlyLog) Error(msg string, args ...interface{}) {
	l.write(l.errOut, "ERROR", msg, args...)
}

func (l *EarlyLog) Fatal(msg string, args ...interface{}) {
	l.write(l.errOut, "FATAL", msg, args...)
	os.Exit(1)
}

func (l *EarlyLog) Warn(msg string, args ...interface{}) {
	l.write(l.errOut, "WARN", msg, args...)
}

func (l *EarlyLog) Info(msg string, args ...interface{}) {
	l.write(l.out, "INFO", msg, args...)
}

func (l *EarlyLog) write(w io.Writer, level, msg string, args ...interface{}) {
	if l.component != "" {
		fmt.Fprintf(w, "%s [%s]: %s\n", level, l.component, fmt.Sprintf(msg, args...))
		return
	}
	fmt.Fprintf(w, "%s: %s\n", level, fmt.Sprintf(msg, args...))
}
