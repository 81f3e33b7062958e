package logsink

import (
	"context"
	"io"
	"os"
	"sync"
)

// Destination is one place entries are written to.
type Destination interface {
	Name() string
	Write(ctx context.Context, e Entry) error
}

// ConsoleDestination prints colorized entries.
type ConsoleDestination struct {
	mu        sync.Mutex
	out       io.Writer
	formatter Formatter
}

// NewConsoleDestination writes to out, or stdout when out is nil.
func NewConsoleDestination(out io.Writer) *ConsoleDestination {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleDestination{
		out:       out,
		formatter: Formatter{Colorize: true},
	}
}

func (d *ConsoleDestination) Name() string { return "console" }

func (d *ConsoleDestination) Write(_ context.Context, e Entry) error {
	line, err := d.formatter.Format(e)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	_, err = d.out.Write(line)
	return err
}
