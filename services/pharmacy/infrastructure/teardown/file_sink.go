// Package teardown provides sinks that record medicine and pharmacy teardown.
package teardown

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/ghuser/pharmacy/pkg/logger"
	"github.com/ghuser/pharmacy/services/pharmacy/domain/models"
)

var _ models.TeardownSink = (*FileSink)(nil)

// FileSink appends one slog text line per teardown event to a file.
// The file is opened per call so a sink can outlive log rotation.
type FileSink struct {
	path string
	mu   sync.Mutex
}

// NewFileSink returns a sink that appends to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Path returns the file the sink appends to.
func (s *FileSink) Path() string { return s.path }

// Record appends event and attrs as a single line.
func (s *FileSink) Record(event string, attrs ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open teardown log: %w", err)
	}
	slog.New(slog.NewTextHandler(f, nil)).Info(event, attrs...)
	if err := f.Close(); err != nil {
		return fmt.Errorf("close teardown log: %w", err)
	}
	return nil
}

// LogSink forwards teardown events to a structured logger.
type LogSink struct {
	log logger.Logger
}

// NewLogSink returns a sink that writes teardown events to log at info level.
func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{log: log}
}

// Record logs event with attrs.
func (s *LogSink) Record(event string, attrs ...any) error {
	s.log.Info(event, attrs...)
	return nil
}

// Multi fans one teardown event out to every sink. The first error is returned
// after all sinks have been called.
type Multi []models.TeardownSink

// Record calls Record on every sink.
func (m Multi) Record(event string, attrs ...any) error {
	var first error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Record(event, attrs...); err != nil && first == nil {
			first = err
		}
	}
	return first
}
