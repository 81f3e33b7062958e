package logsink

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SinkError reports a failed write to one destination. It never reaches
// the HTTP response; it is surfaced through logs and APM events only.
type SinkError struct {
	Destination string
	Err         error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("log sink %s: %v", e.Destination, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// EventRecorder receives observability signals (New Relic custom events).
type EventRecorder interface {
	RecordEvent(eventType string, params map[string]interface{})
}

// RetryEnqueuer schedules a later attempt at a failed remote write.
type RetryEnqueuer interface {
	EnqueueRemoteLogRetry(ctx context.Context, e Entry) error
}

// Options configures a Sink.
type Options struct {
	// Label tags every entry. Defaults to DefaultLabel.
	Label string

	Console Destination
	File    Destination

	// Remote may be nil, in which case the sink logs locally only.
	Remote        Destination
	RemoteTimeout time.Duration

	// Logger receives sink failures. Defaults to a no-op logger.
	Logger *zerolog.Logger

	Events EventRecorder
	Retry  RetryEnqueuer
}

// Sink fans one entry out to the console, file and remote destinations.
type Sink struct {
	label         string
	console       Destination
	file          Destination
	remote        Destination
	remoteTimeout time.Duration
	logger        *zerolog.Logger
	events        EventRecorder
	retry         RetryEnqueuer

	inflight sync.WaitGroup
	now      func() time.Time
}

// New builds a Sink from opts.
func New(opts Options) *Sink {
	if opts.Label == "" {
		opts.Label = DefaultLabel
	}
	if opts.RemoteTimeout <= 0 {
		opts.RemoteTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}

	return &Sink{
		label:         opts.Label,
		console:       opts.Console,
		file:          opts.File,
		remote:        opts.Remote,
		remoteTimeout: opts.RemoteTimeout,
		logger:        opts.Logger,
		events:        opts.Events,
		retry:         opts.Retry,
		now:           time.Now,
	}
}

// Delivery is the outcome of one Write.
type Delivery struct {
	// Local joins the console and file errors, if any.
	Local error

	remote chan error
}

// Remote yields the remote write result once it is known. It yields nil
// when the sink has no remote destination.
func (d *Delivery) Remote() <-chan error {
	return d.remote
}

// Wait blocks until the remote write finishes or ctx is done, and returns
// the local and remote errors joined.
func (d *Delivery) Wait(ctx context.Context) error {
	select {
	case err := <-d.remote:
		return errors.Join(d.Local, err)
	case <-ctx.Done():
		return errors.Join(d.Local, ctx.Err())
	}
}

// Write stamps rec and writes it to every destination.
//
// The console and file are written before Write returns. The remote write is
// started before Write returns but runs detached from ctx's cancellation,
// bounded by the remote timeout. When it fails the entry stays local-only:
// the failure is logged, reported as a LogSinkFailure event and handed to
// the retry enqueuer when one is configured.
func (s *Sink) Write(ctx context.Context, level Level, rec Record) *Delivery {
	entry := Entry{
		Label:     s.label,
		Level:     level,
		Timestamp: s.now(),
		Meta:      rec,
	}

	delivery := &Delivery{remote: make(chan error, 1)}

	var localErrs []error
	for _, dest := range []Destination{s.console, s.file} {
		if dest == nil {
			continue
		}
		if err := dest.Write(ctx, entry); err != nil {
			sinkErr := &SinkError{Destination: dest.Name(), Err: err}
			s.reportFailure(sinkErr, entry, false)
			localErrs = append(localErrs, sinkErr)
		}
	}
	delivery.Local = errors.Join(localErrs...)

	if s.remote == nil {
		delivery.remote <- nil
		return delivery
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.remoteTimeout)
		defer cancel()

		var result error
		if err := s.remote.Write(writeCtx, entry); err != nil {
			result = &SinkError{Destination: s.remote.Name(), Err: err}
			s.reportFailure(result, entry, true)
		}
		delivery.remote <- result
	}()

	return delivery
}

// Close waits for in-flight remote writes, or until ctx is done.
func (s *Sink) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sink) reportFailure(err error, entry Entry, remote bool) {
	var sinkErr *SinkError
	destination := "unknown"
	if errors.As(err, &sinkErr) {
		destination = sinkErr.Destination
	}

	msg := "local log sink write failed"
	if remote {
		msg = "remote log sink write failed, entry kept in local logs only"
	}
	s.logger.Warn().
		Err(err).
		Str("destination", destination).
		Str("request_trace", entry.Meta.RequestTrace).
		Msg(msg)

	if s.events != nil {
		s.events.RecordEvent("LogSinkFailure", map[string]interface{}{
			"destination":   destination,
			"label":         entry.Label,
			"level":         string(entry.Level),
			"request_trace": entry.Meta.RequestTrace,
			"error_message": err.Error(),
		})
	}

	if remote && s.retry != nil {
		if rerr := s.retry.EnqueueRemoteLogRetry(context.Background(), entry); rerr != nil {
			s.logger.Error().Err(rerr).Msg("failed to enqueue remote log retry")
		}
	}
}
