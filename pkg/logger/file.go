package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileLogger appends log lines to a file. It is used by the daemon's
// --log-file flag, usually combined with the console through MultiLogger.
type FileLogger struct {
	*StandardLogger
	f    *os.File
	once sync.Once
	err  error
}

// NewFileLogger opens (or creates) path in append mode.
func NewFileLogger(path string, debug bool) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	l := log.New(f, "", log.LstdFlags)
	std := NewStandardLogger(l)
	std.debug = debug
	return &FileLogger{StandardLogger: std, f: f}, nil
}

// Close closes the underlying file once.
func (f *FileLogger) Close() error {
	f.once.Do(func() {
		f.err = f.f.Close()
	})
	return f.err
}

// ToStdLogger returns a *log.Logger whose output is routed to l at Info level.
// It serves libraries that only accept a stdlib logger (e.g. http.Server.ErrorLog).
func ToStdLogger(l Logger) *log.Logger {
	if sl, ok := l.(*StandardLogger); ok {
		return sl.logger
	}
	return log.New(&infoWriter{l: l}, "", 0)
}

type infoWriter struct {
	l Logger
}

func (w *infoWriter) Write(p []byte) (int, error) {
	w.l.Info("%s", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

var _ Logger = (*FileLogger)(nil)
