package job

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/deppfellow/shalom-ministry/internal/lib/email"
	"github.com/deppfellow/shalom-ministry/internal/logsink"
)

// InvoiceMailer sends the rendered invoice email.
type InvoiceMailer interface {
	SendInvoiceEmail(ctx context.Context, to string, data email.InvoiceData) error
}

func (j *JobService) handleInvoiceEmailTask(ctx context.Context, t *asynq.Task) error {
	var p InvoiceEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal invoice email payload: %w: %w", err, asynq.SkipRetry)
	}

	log := j.logger.With().
		Str("type", TaskInvoiceEmail).
		Str("invoice_id", p.InvoiceID).
		Logger()

	log.Info().Msg("processing invoice email task")

	if err := j.mailer.SendInvoiceEmail(ctx, p.To, p.Data); err != nil {
		log.Error().Err(err).Msg("failed to send invoice email")
		return err
	}

	log.Info().Msg("sent invoice email")
	return nil
}

func (j *JobService) handleRemoteLogRetryTask(ctx context.Context, t *asynq.Task) error {
	var e logsink.Entry
	if err := json.Unmarshal(t.Payload(), &e); err != nil {
		return fmt.Errorf("failed to unmarshal log entry: %w: %w", err, asynq.SkipRetry)
	}

	if j.remote == nil {
		j.logger.Warn().Msg("remote log store not connected, dropping retried entry")
		return fmt.Errorf("no remote log store: %w", asynq.SkipRetry)
	}

	if err := j.remote.Write(ctx, e); err != nil {
		j.logger.Warn().
			Err(err).
			Str("destination", j.remote.Name()).
			Msg("remote log retry failed")
		return err
	}
	return nil
}

func fmtArgs(args []interface{}) string {
	return strings.TrimSuffix(fmt.Sprintln(args...), "\n")
}
