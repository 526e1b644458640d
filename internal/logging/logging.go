// Package logging hands out named logxi loggers that share one output, so
// every package's log lines can be mirrored to a serial console.
package logging

import (
	"io"
	"os"
	"sync"

	logxi "github.com/mgutz/logxi/v1"
)

// Logger is the logxi logger interface
type Logger = logxi.Logger

// switchWriter lets the destination change after loggers were created
type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *switchWriter) set(w io.Writer) {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}

var (
	mu      sync.Mutex
	out     = &switchWriter{w: os.Stderr}
	level   = logxi.LevelInfo
	loggers = map[string]Logger{}
)

// New returns the logger for name, creating it on first use
func New(name string) Logger {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[name]; ok {
		return l
	}
	l := logxi.NewLogger(logxi.NewConcurrentWriter(out), name)
	l.SetLevel(level)
	loggers[name] = l
	return l
}

// SetLevel changes the level of every logger, current and future
func SetLevel(lvl int) {
	mu.Lock()
	defer mu.Unlock()

	level = lvl
	for _, l := range loggers {
		l.SetLevel(lvl)
	}
}

// SetVerbose switches between debug and info level
func SetVerbose(verbose bool) {
	if verbose {
		SetLevel(logxi.LevelDebug)
		return
	}
	SetLevel(logxi.LevelInfo)
}

// SetOutput redirects every logger to w
func SetOutput(w io.Writer) {
	out.set(w)
}

// Mirror sends log output to both stderr and w
func Mirror(w io.Writer) {
	out.set(io.MultiWriter(os.Stderr, w))
}
