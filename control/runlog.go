package main

import (
	"bytes"
	"os"
	"strings"
	"sync"
)

// LogTeeWriter appends log output to a file and forwards complete ERROR and
// WARN lines to a channel for the progress view. Forwarding never blocks;
// lines are dropped when the channel is full.
type LogTeeWriter struct {
	file   *os.File
	errors chan<- string
	mu     sync.Mutex
	buf    []byte
}

// NewLogTeeWriter opens logPath for appending. errCh may be nil.
func NewLogTeeWriter(logPath string, errCh chan<- string) (*LogTeeWriter, error) {
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &LogTeeWriter{file: f, errors: errCh}, nil
}

// Write implements io.Writer.
func (w *LogTeeWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return 0, os.ErrClosed
	}
	n, err := w.file.Write(p)
	if err != nil || w.errors == nil {
		return n, err
	}

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := string(w.buf[:i])
		w.buf = w.buf[i+1:]
		if strings.HasPrefix(line, "ERROR:") || strings.HasPrefix(line, "WARN:") {
			select {
			case w.errors <- line:
			default:
			}
		}
	}
	return n, nil
}

// Close closes the underlying file.
func (w *LogTeeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}
