package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Sink receives encoded events from the Recorder's worker.
type Sink interface {
	Write(event Event) error
	Flush() error
	Close(ctx context.Context) error
}

func openSink(cfg Config) (Sink, error) {
	switch cfg.Sink {
	case SinkStdout:
		return newLineSink(os.Stdout, nil), nil
	case SinkFile:
		return openFileSink(cfg.FilePath)
	default:
		return nil, fmt.Errorf("unsupported audit sink: %s", cfg.Sink)
	}
}

// lineSink writes one JSON document per line through a buffer.
type lineSink struct {
	mu     sync.Mutex
	buf    *bufio.Writer
	closer io.Closer
}

func newLineSink(w io.Writer, closer io.Closer) *lineSink {
	return &lineSink{buf: bufio.NewWriter(w), closer: closer}
}

func openFileSink(path string) (*lineSink, error) {
	if path == "" {
		return nil, fmt.Errorf("audit file path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create audit directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit file: %w", err)
	}
	return newLineSink(f, f), nil
}

func (s *lineSink) Write(event Event) error {
	line, err := json.Marshal(event)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.buf.Write(line); err != nil {
		return err
	}
	return s.buf.WriteByte('\n')
}

func (s *lineSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Flush()
}

func (s *lineSink) Close(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		err := s.Flush()
		if s.closer != nil {
			if cerr := s.closer.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
