package logsink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileDestination appends entries to a local log file.
type FileDestination struct {
	mu        sync.Mutex
	path      string
	file      *os.File
	formatter Formatter
}

// OpenFileDestination opens path for appending, creating it and its
// directory when missing.
func OpenFileDestination(path string) (*FileDestination, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory for %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}

	return &FileDestination{path: path, file: f}, nil
}

func (d *FileDestination) Name() string { return "file" }

// Path returns the file entries are appended to.
func (d *FileDestination) Path() string { return d.path }

func (d *FileDestination) Write(_ context.Context, e Entry) error {
	line, err := d.formatter.Format(e)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return fmt.Errorf("log file %s is closed", d.path)
	}
	_, err = d.file.Write(line)
	return err
}

// Close closes the underlying file. Writes after Close fail.
func (d *FileDestination) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
