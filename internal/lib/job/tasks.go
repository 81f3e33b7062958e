package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/deppfellow/shalom-ministry/internal/lib/email"
	"github.com/deppfellow/shalom-ministry/internal/logsink"
	"github.com/deppfellow/shalom-ministry/internal/model"
)

// Task type names stored in Redis.
const (
	TaskInvoiceEmail   = "email:invoice"
	TaskRemoteLogRetry = "log:remote_retry"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// InvoiceEmailPayload is the JSON payload of TaskInvoiceEmail. It carries
// everything the template needs so the worker does not hit the database.
type InvoiceEmailPayload struct {
	InvoiceID string            `json:"invoice_id"`
	To        string            `json:"to"`
	Data      email.InvoiceData `json:"data"`
}

// NewInvoiceEmailTask builds the task that mails inv to its customer.
func NewInvoiceEmailTask(inv *model.Invoice) (*asynq.Task, error) {
	payload, err := json.Marshal(InvoiceEmailPayload{
		InvoiceID: inv.ID.String(),
		To:        inv.CustomerEmail,
		Data: email.InvoiceData{
			CustomerName: inv.CustomerName,
			Number:       inv.Number,
			Amount:       inv.Amount.StringFixed(2),
			Currency:     inv.Currency,
			DueDate:      inv.DueDate.Format(model.DateLayout),
			Description:  inv.Description,
		},
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskInvoiceEmail,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue(QueueCritical),
		asynq.Timeout(30*time.Second),
	), nil
}

// NewRemoteLogRetryTask builds the task that re-sends e to the remote
// log store. The first attempt waits a minute.
func NewRemoteLogRetryTask(e logsink.Entry) (*asynq.Task, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskRemoteLogRetry,
		payload,
		asynq.MaxRetry(5),
		asynq.Queue(QueueLow),
		asynq.ProcessIn(time.Minute),
		asynq.Timeout(15*time.Second),
	), nil
}

// EnqueueInvoiceEmail schedules the invoice email for inv.
func (j *JobService) EnqueueInvoiceEmail(ctx context.Context, inv *model.Invoice) error {
	task, err := NewInvoiceEmailTask(inv)
	if err != nil {
		return fmt.Errorf("building invoice email task: %w", err)
	}

	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueueing invoice email: %w", err)
	}

	j.logger.Info().
		Str("task_id", info.ID).
		Str("invoice_id", inv.ID.String()).
		Msg("invoice email enqueued")
	return nil
}

// EnqueueRemoteLogRetry schedules another attempt at writing e remotely.
// It lets the response log sink hand off entries the remote store rejected.
func (j *JobService) EnqueueRemoteLogRetry(ctx context.Context, e logsink.Entry) error {
	task, err := NewRemoteLogRetryTask(e)
	if err != nil {
		return fmt.Errorf("building remote log retry task: %w", err)
	}

	if _, err := j.Client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueueing remote log retry: %w", err)
	}
	return nil
}
